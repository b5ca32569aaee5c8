package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"thesis-tracker-api/config"
	"thesis-tracker-api/models"
	"thesis-tracker-api/services"
)

// CreateEndorsementRequest opens a request on one of the four chains.
func CreateEndorsementRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	roleID, _ := currentRoleID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	requestType := c.Param("type")
	if !models.ValidRequestType(requestType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown request type"})
		return
	}

	var req struct {
		SubmissionID    int    `json:"submission_id" binding:"required"`
		SignatureFileID *int   `json:"signature_file_id"`
		Comments        string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	request, err := services.SubmitRequest(config.DB, userID, roleID, requestType,
		req.SubmissionID, req.SignatureFileID, req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"request": request,
	})
}

// DecideEndorsementRequest approves or rejects a pending request.
func DecideEndorsementRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	roleID, _ := currentRoleID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	requestType := c.Param("type")
	if !models.ValidRequestType(requestType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown request type"})
		return
	}

	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil || requestID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var req struct {
		Decision        string `json:"decision" binding:"required"` // approve|reject
		Comments        string `json:"comments"`
		SignatureFileID *int   `json:"signature_file_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var approve bool
	switch req.Decision {
	case "approve":
		approve = true
	case "reject":
		approve = false
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be either 'approve' or 'reject'"})
		return
	}

	request, err := services.DecideRequest(config.DB, userID, roleID, requestType,
		requestID, approve, req.Comments, req.SignatureFileID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"request": request,
	})
}

// ListEndorsementRequests lists requests on one chain. Students see their
// own; approver roles see all.
func ListEndorsementRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	roleID, _ := currentRoleID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	requestType := c.Param("type")
	if !models.ValidRequestType(requestType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown request type"})
		return
	}

	studentFilter := 0
	if roleID == models.RoleStudent {
		studentFilter = userID
	}

	requests, err := services.ListRequests(config.DB, requestType, studentFilter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"requests": requests,
		"total":    len(requests),
	})
}
