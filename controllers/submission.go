package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"thesis-tracker-api/config"
	"thesis-tracker-api/models"
	"thesis-tracker-api/services"
)

// CreateSubmission handles a student's initial manuscript submission.
func CreateSubmission(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req services.SubmissionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	submission, err := services.Submit(config.DB, userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// CreateRevision handles a revision resubmission of an existing chain.
func CreateRevision(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	parentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || parentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var req services.SubmissionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	submission, err := services.Revise(config.DB, userID, parentID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// GetMySubmissions lists all versions of the student's chains.
func GetMySubmissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	submissions, err := services.ListMine(config.DB, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// GetLatestSubmission returns the newest version of the student's chain
// for one stage.
func GetLatestSubmission(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	submission, err := services.FetchLatest(config.DB, userID, c.Query("stage"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// GetScopedSubmissions lists latest-version submissions of students under
// the reviewing actor's affiliation scope.
func GetScopedSubmissions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	submissions, err := services.ListScoped(config.DB, userID, c.Query("stage"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"submissions": submissions,
		"total":       len(submissions),
	})
}

// GetSubmission returns one submission with its review slots and tally.
// Non-chair reviewers may not open the manuscript until the gate is set.
func GetSubmission(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	submission, err := services.GetSubmission(config.DB, submissionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	roleID, _ := currentRoleID(c)
	if err := services.AuthorizeView(config.DB, userID, roleID, submission); err != nil {
		respondServiceError(c, err)
		return
	}

	slots, tally, err := services.GetReviews(config.DB, submissionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"submission":   submission,
		"review_slots": slots,
		"review_tally": tally,
	})
}

// SetReviewGate records the committee chairperson's gate value.
func SetReviewGate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var req struct {
		Gate string `json:"gate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	submission, err := services.SetGate(config.DB, userID, submissionID, models.ParseDecision(req.Gate))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// PostReviewVerdict records an assigned reviewer's individual verdict.
func PostReviewVerdict(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var req struct {
		Status   string `json:"status" binding:"required"`
		Comments string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	slot, err := services.PostVerdict(config.DB, userID, submissionID, models.ParseDecision(req.Status), req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"review":  slot,
	})
}

// RecordDecision records the chair's final submission-level decision.
func RecordDecision(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var req struct {
		Status  string `json:"status" binding:"required"`
		Verdict string `json:"verdict" binding:"required"`
		Notes   string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	submission, err := services.RecordDecision(config.DB, userID, submissionID,
		models.ParseDecision(req.Status), models.ParseDecision(req.Verdict), req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// GetSubmissionReviews returns the slot batch plus the advisory tally.
func GetSubmissionReviews(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	submission, err := services.GetSubmission(config.DB, submissionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	roleID, _ := currentRoleID(c)
	if err := services.AuthorizeView(config.DB, userID, roleID, submission); err != nil {
		respondServiceError(c, err)
		return
	}

	slots, tally, err := services.GetReviews(config.DB, submissionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"review_slots": slots,
		"review_tally": tally,
	})
}
