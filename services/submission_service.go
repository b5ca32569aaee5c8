package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"thesis-tracker-api/models"
	"thesis-tracker-api/utils"
)

// SubmissionInput carries the stage-specific fields of a manuscript
// submission. FileID references a previously uploaded manuscript.
type SubmissionInput struct {
	Stage    string `json:"stage"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	FileID   *int   `json:"file_id"`
}

func (in *SubmissionInput) validate() error {
	if !models.ValidStage(in.Stage) {
		return validationErr("stage", fmt.Sprintf("unknown stage %q", in.Stage))
	}
	if strings.TrimSpace(in.Title) == "" {
		return validationErr("title", "title is required")
	}
	return nil
}

func newSubmissionNumber(stage string) string {
	prefix := map[string]string{
		models.StageConceptPaper:   "CP",
		models.StageOutlineDefense: "OD",
		models.StageHardbound:      "HB",
	}[stage]
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().Year(), strings.ToUpper(uuid.NewString()[:8]))
}

// Submit creates a version-1 submission for the student and snapshots the
// defense panel into review slots in the same transaction. Fails if an
// open chain for the stage already exists; revisions go through Revise.
func Submit(db *gorm.DB, studentID int, in SubmissionInput) (*models.Submission, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var submission *models.Submission
	err := db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Submission{}).
			Where("student_id = ? AND stage = ? AND delete_at IS NULL", studentID, in.Stage).
			Count(&existing).Error; err != nil {
			return storageErr("check existing chain", err)
		}
		if existing > 0 {
			return validationErr("stage", "a submission chain for this stage already exists; submit a revision instead")
		}

		now := time.Now()
		submission = &models.Submission{
			SubmissionNumber: newSubmissionNumber(in.Stage),
			StudentID:        studentID,
			Stage:            in.Stage,
			Title:            utils.SanitizeInput(in.Title),
			FileID:           in.FileID,
			Version:          1,
			Status:           models.StatusSubmitted,
			SubmittedAt:      now,
			CreateAt:         now,
		}
		if abstract := utils.SanitizeInput(in.Abstract); abstract != "" {
			submission.Abstract = &abstract
		}
		if err := tx.Create(submission).Error; err != nil {
			return storageErr("create submission", err)
		}

		_, err := assignReviewers(tx, submission)
		return err
	})
	if err != nil {
		return nil, err
	}

	notifySubmissionCreated(db, submission)
	return submission, nil
}

// Revise creates a child version of parentID with a fresh review-slot
// batch and a reset gate. Fails with ErrStaleVersion when the parent has
// already been superseded; the check is atomic with the insert.
func Revise(db *gorm.DB, studentID, parentID int, in SubmissionInput) (*models.Submission, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, validationErr("title", "title is required")
	}

	var submission *models.Submission
	err := db.Transaction(func(tx *gorm.DB) error {
		parent, err := loadLatestForUpdate(tx, parentID)
		if err != nil {
			return err
		}
		if parent.StudentID != studentID {
			return authorizationErr("submission belongs to another student")
		}
		if parent.Status == models.StatusApproved {
			return validationErr("parent_submission_id", "an approved submission cannot be revised")
		}

		now := time.Now()
		submission = &models.Submission{
			SubmissionNumber:   parent.SubmissionNumber,
			StudentID:          studentID,
			Stage:              parent.Stage,
			Title:              utils.SanitizeInput(in.Title),
			FileID:             in.FileID,
			Version:            parent.Version + 1,
			ParentSubmissionID: &parent.SubmissionID,
			Status:             models.StatusSubmitted,
			SubmittedAt:        now,
			CreateAt:           now,
		}
		if abstract := utils.SanitizeInput(in.Abstract); abstract != "" {
			submission.Abstract = &abstract
		}
		if err := tx.Create(submission).Error; err != nil {
			return storageErr("create revision", err)
		}

		// Fresh batch for the new version; version N-1 slots are untouched
		// and remain readable as review history.
		_, err = assignReviewers(tx, submission)
		return err
	})
	if err != nil {
		return nil, err
	}

	notifySubmissionCreated(db, submission)
	return submission, nil
}

// FetchLatest walks the student's chain for a stage to the version with no
// child. Returns gorm.ErrRecordNotFound wrapped as a validation error when
// no chain exists.
func FetchLatest(db *gorm.DB, studentID int, stage string) (*models.Submission, error) {
	if !models.ValidStage(stage) {
		return nil, validationErr("stage", fmt.Sprintf("unknown stage %q", stage))
	}

	var submission models.Submission
	err := db.Preload("File").
		Where("student_id = ? AND stage = ? AND delete_at IS NULL", studentID, stage).
		Where("submission_id NOT IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Model(&models.Submission{}).
				Select("parent_submission_id").
				Where("parent_submission_id IS NOT NULL AND delete_at IS NULL"),
		).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationErr("stage", "no submission found for this stage")
		}
		return nil, storageErr("fetch latest submission", err)
	}
	return &submission, nil
}

// GetSubmission loads one submission with student, file and slots.
func GetSubmission(db *gorm.DB, submissionID int) (*models.Submission, error) {
	var submission models.Submission
	err := db.Preload("Student").Preload("File").Preload("ReviewSlots").
		Where("submission_id = ? AND delete_at IS NULL", submissionID).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationErr("submission_id", "submission not found")
		}
		return nil, storageErr("load submission", err)
	}
	return &submission, nil
}

// RecordDecision records the committee chairperson's manual submission-
// level decision plus verdict. Individual verdicts are advisory only: the
// engine never blocks a status that disagrees with the tally, it just
// keeps the tally visible next to the decision. Re-invocation overwrites a
// prior decision so a chair may amend before downstream acts on it. When
// the gate is still unset the canonical decision→gate mapping defaults it.
func RecordDecision(db *gorm.DB, actorID, submissionID int, status models.Decision, verdict models.Decision, notes string) (*models.Submission, error) {
	if !models.ValidFinalStatus(status) {
		return nil, validationErr("status", fmt.Sprintf("invalid final status %q", status))
	}
	if !models.ValidVerdict(verdict) {
		return nil, validationErr("verdict", fmt.Sprintf("invalid verdict %q", verdict))
	}

	var submission *models.Submission
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		submission, err = loadLatestForUpdate(tx, submissionID)
		if err != nil {
			return err
		}

		slot, err := findSlot(tx, submissionID, actorID)
		if err != nil {
			return err
		}
		if slot.ReviewerRole != models.ReviewerCommittee {
			return authorizationErr("only the committee chairperson may record the final decision")
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":                         status,
			"decision_verdict":               verdict,
			"decided_by":                     actorID,
			"decided_at":                     now,
			"committee_reviews_completed_at": now,
			"update_at":                      now,
		}
		if notes != "" {
			updates["decision_notes"] = notes
		}
		if submission.ReviewGateStatus == nil {
			if gate, ok := models.GateForDecision(status); ok {
				updates["review_gate_status"] = gate
				submission.ReviewGateStatus = &gate
			}
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(updates).Error; err != nil {
			return storageErr("record decision", err)
		}

		submission.Status = status
		submission.DecisionVerdict = &verdict
		submission.DecidedBy = &actorID
		submission.DecidedAt = &now
		submission.CommitteeReviewsCompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	NotifyUser(db, submission.StudentID, actorID,
		"Review decision recorded",
		fmt.Sprintf("Your %s submission %s received the decision: %s (%s).",
			submission.Stage, submission.SubmissionNumber, status, verdict),
		notificationLink(submission.SubmissionID), submission.SubmissionID)
	return submission, nil
}

// AuthorizeView decides whether an actor may read a submission's detail:
// manuscript, review slots, comments and tally. The owning student and the
// committee chairperson always may; assigned reviewers only once the gate
// is open; chair/dean roles without a slot additionally need the student
// inside their affiliation scope. Callers must pass a submission with its
// ReviewSlots loaded.
func AuthorizeView(db *gorm.DB, actorID, actorRoleID int, submission *models.Submission) error {
	if submission.StudentID == actorID || actorRoleID == models.RoleAdmin {
		return nil
	}

	for _, slot := range submission.ReviewSlots {
		if slot.ReviewerID != actorID {
			continue
		}
		if slot.ReviewerRole == models.ReviewerCommittee || submission.GateOpen() {
			return nil
		}
		return authorizationErr("review access has not been opened by the committee chairperson")
	}

	if !submission.GateOpen() {
		return authorizationErr("review access has not been opened by the committee chairperson")
	}

	if actorRoleID == models.RoleProgramChair || actorRoleID == models.RoleDean {
		scope, err := ResolveScope(db, actorID)
		if err != nil {
			return err
		}
		var inScope int64
		if err := scope.Apply(db.Model(&models.User{})).
			Where("users.user_id = ? AND users.delete_at IS NULL", submission.StudentID).
			Count(&inScope).Error; err != nil {
			return storageErr("check submission scope", err)
		}
		if inScope > 0 {
			return nil
		}
	}
	return authorizationErr("submission is outside your jurisdiction")
}

// ListScoped returns the latest-version submissions of students under the
// actor's affiliation scope, optionally filtered by stage.
func ListScoped(db *gorm.DB, actorID int, stage string) ([]models.Submission, error) {
	scope, err := ResolveScope(db, actorID)
	if err != nil {
		return nil, err
	}

	query := db.Preload("Student").
		Joins("JOIN users ON users.user_id = submissions.student_id AND users.delete_at IS NULL").
		Where("submissions.delete_at IS NULL").
		Where("submissions.submission_id NOT IN (?)",
			db.Session(&gorm.Session{NewDB: true}).
				Model(&models.Submission{}).
				Select("parent_submission_id").
				Where("parent_submission_id IS NOT NULL AND delete_at IS NULL"),
		)
	if stage != "" {
		if !models.ValidStage(stage) {
			return nil, validationErr("stage", fmt.Sprintf("unknown stage %q", stage))
		}
		query = query.Where("submissions.stage = ?", stage)
	}
	query = scope.Apply(query)

	var submissions []models.Submission
	if err := query.Order("submissions.submitted_at DESC").Find(&submissions).Error; err != nil {
		return nil, storageErr("list scoped submissions", err)
	}
	return submissions, nil
}

// ListMine returns all versions of the student's chains, newest first.
func ListMine(db *gorm.DB, studentID int) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := db.Preload("File").
		Where("student_id = ? AND delete_at IS NULL", studentID).
		Order("stage ASC, version DESC").
		Find(&submissions).Error; err != nil {
		return nil, storageErr("list submissions", err)
	}
	return submissions, nil
}

func notifySubmissionCreated(db *gorm.DB, submission *models.Submission) {
	var slots []models.ReviewSlot
	if err := db.Where("submission_id = ?", submission.SubmissionID).Find(&slots).Error; err != nil {
		logNotifyFailure("load slots for submit notification", err)
		return
	}
	for _, slot := range slots {
		title := "New manuscript awaiting screening"
		body := fmt.Sprintf("Submission %s (v%d) is awaiting your screening as committee chairperson.",
			submission.SubmissionNumber, submission.Version)
		if slot.ReviewerRole != models.ReviewerCommittee {
			title = "You have been assigned as a reviewer"
			body = fmt.Sprintf("Submission %s (v%d) has been assigned to you; review opens once the chairperson releases it.",
				submission.SubmissionNumber, submission.Version)
		}
		NotifyUser(db, slot.ReviewerID, submission.StudentID, title, body,
			notificationLink(submission.SubmissionID), submission.SubmissionID)
	}
}
