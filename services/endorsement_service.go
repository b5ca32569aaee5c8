package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"thesis-tracker-api/models"
)

// Each endorsement chain is a distinct table with one approver role and
// its own submit-time precondition. Preconditions are plain checks, not
// foreign constraints, so they are re-validated inside the approval
// transaction before the request turns terminal.

// HardboundDormancyYears is the institutional dormancy window a hardbound
// manuscript must sit out after its final approval before archiving.
const HardboundDormancyYears = 5

type chainSpec struct {
	table        string
	approverRole int
	// requesterRoles limits who may open a request; empty means the
	// subject student only.
	requesterRoles []int
	precondition   func(tx *gorm.DB, submission *models.Submission) error
}

var chains = map[string]chainSpec{
	models.RequestAdviserEndorsement: {
		table:        "adviser_endorsements",
		approverRole: models.RoleFaculty,
	},
	models.RequestFinalDefenseEndorsement: {
		table:        "final_defense_endorsements",
		approverRole: models.RoleFaculty,
		precondition: requireApprovedStage(models.StageOutlineDefense),
	},
	models.RequestNoticeToCommence: {
		table:          "notices_to_commence",
		approverRole:   models.RoleDean,
		requesterRoles: []int{models.RoleProgramChair},
		precondition:   noticeToCommencePrecondition,
	},
	models.RequestHardboundArchive: {
		table:        "hardbound_archives",
		approverRole: models.RoleDean,
		precondition: hardboundArchivePrecondition,
	},
}

func requireApprovedStage(stage string) func(tx *gorm.DB, submission *models.Submission) error {
	return func(tx *gorm.DB, submission *models.Submission) error {
		if submission.Stage != stage {
			return validationErr("submission_id", fmt.Sprintf("request requires a %s submission", stage))
		}
		if submission.Status != models.StatusApproved {
			return validationErr("submission_id", fmt.Sprintf("%s submission must be approved first", stage))
		}
		return nil
	}
}

// noticeToCommencePrecondition: the outline submission must either be
// approved or have its route slip fully signed (every review slot past
// pending).
func noticeToCommencePrecondition(tx *gorm.DB, submission *models.Submission) error {
	if submission.Stage != models.StageOutlineDefense {
		return validationErr("submission_id", "notice to commence requires an outline-defense submission")
	}
	if submission.Status == models.StatusApproved {
		return nil
	}

	var pending int64
	if err := tx.Model(&models.ReviewSlot{}).
		Where("submission_id = ? AND status = ?", submission.SubmissionID, models.StatusPending).
		Count(&pending).Error; err != nil {
		return storageErr("check route slip", err)
	}
	var total int64
	if err := tx.Model(&models.ReviewSlot{}).
		Where("submission_id = ?", submission.SubmissionID).
		Count(&total).Error; err != nil {
		return storageErr("check route slip", err)
	}
	if total == 0 || pending > 0 {
		return validationErr("submission_id", "outline submission is neither approved nor fully signed off")
	}
	return nil
}

// hardboundArchivePrecondition: an approved hardbound submission past the
// dormancy window.
func hardboundArchivePrecondition(tx *gorm.DB, submission *models.Submission) error {
	if submission.Stage != models.StageHardbound {
		return validationErr("submission_id", "archiving requires a hardbound submission")
	}
	if submission.Status != models.StatusApproved || submission.DecidedAt == nil {
		return validationErr("submission_id", "hardbound submission must be approved first")
	}
	if !DormancyElapsed(*submission.DecidedAt, time.Now()) {
		return validationErr("submission_id",
			fmt.Sprintf("hardbound manuscript must remain dormant for %d years before archiving", HardboundDormancyYears))
	}
	return nil
}

// DormancyElapsed reports whether the archival dormancy window has passed
// between the hardbound approval and now.
func DormancyElapsed(approvedAt, now time.Time) bool {
	return !now.Before(approvedAt.AddDate(HardboundDormancyYears, 0, 0))
}

// checkNoActiveRequest enforces the one-active-request-per-(submission,
// type) invariant with a pre-insert existence check against the pending
// and approved statuses.
func checkNoActiveRequest(tx *gorm.DB, table string, submissionID int) error {
	var active int64
	if err := tx.Table(table).
		Where("submission_id = ? AND status IN ?", submissionID,
			[]models.Decision{models.RequestPending, models.RequestApproved}).
		Count(&active).Error; err != nil {
		return storageErr("check active requests", err)
	}
	if active > 0 {
		return ErrDuplicateRequest
	}
	return nil
}

// SubmitRequest opens one endorsement-chain request. At most one active
// (pending or approved) request may exist per (submission, type); the
// existence check runs in the insert transaction.
func SubmitRequest(db *gorm.DB, actorID, actorRoleID int, requestType string, submissionID int, signatureFileID *int, comments string) (*models.EndorsementRequest, error) {
	chain, ok := chains[requestType]
	if !ok {
		return nil, validationErr("type", fmt.Sprintf("unknown request type %q", requestType))
	}

	var request models.EndorsementRequest
	err := db.Transaction(func(tx *gorm.DB) error {
		submission, err := GetSubmission(tx, submissionID)
		if err != nil {
			return err
		}

		if len(chain.requesterRoles) == 0 {
			if submission.StudentID != actorID {
				return authorizationErr("only the submitting student may open this request")
			}
		} else if !roleIn(actorRoleID, chain.requesterRoles) {
			return authorizationErr("actor role may not open this request type")
		}

		if chain.precondition != nil {
			if err := chain.precondition(tx, submission); err != nil {
				return err
			}
		}

		if err := checkNoActiveRequest(tx, chain.table, submissionID); err != nil {
			return err
		}

		request = models.EndorsementRequest{
			StudentID:       submission.StudentID,
			SubmissionID:    submissionID,
			RequestedBy:     actorID,
			Status:          models.RequestPending,
			SignatureFileID: signatureFileID,
			CreateAt:        time.Now(),
		}
		if comments != "" {
			request.Comments = &comments
		}
		if err := tx.Table(chain.table).Create(&request).Error; err != nil {
			return storageErr("create request", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	NotifyRole(db, chain.approverRole,
		"Endorsement request awaiting action",
		fmt.Sprintf("A %s request is awaiting your decision.", requestType),
		notificationLink(submissionID), submissionID)
	return &request, nil
}

// DecideRequest lets the designated approver approve or reject a pending
// request. Terminal: a decided request never changes again. Preconditions
// are re-checked at approval time so stale copies cannot be activated.
func DecideRequest(db *gorm.DB, actorID, actorRoleID int, requestType string, requestID int, approve bool, comments string, signatureFileID *int) (*models.EndorsementRequest, error) {
	chain, ok := chains[requestType]
	if !ok {
		return nil, validationErr("type", fmt.Sprintf("unknown request type %q", requestType))
	}
	if actorRoleID != chain.approverRole && actorRoleID != models.RoleAdmin {
		return nil, authorizationErr("actor is not the designated approver for this request type")
	}

	var request models.EndorsementRequest
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(chain.table).
			Where("request_id = ?", requestID).
			First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationErr("request_id", "request not found")
			}
			return storageErr("load request", err)
		}
		if request.Status != models.RequestPending {
			return validationErr("request_id", "request has already been decided")
		}

		// The adviser-approved chains additionally require the actor to
		// sit on the student's panel as adviser.
		if chain.approverRole == models.RoleFaculty && actorRoleID != models.RoleAdmin {
			var onPanel int64
			if err := tx.Model(&models.DefensePanelMember{}).
				Where("student_id = ? AND member_id = ? AND member_role = ? AND delete_at IS NULL",
					request.StudentID, actorID, models.PanelAdviser).
				Count(&onPanel).Error; err != nil {
				return storageErr("check panel membership", err)
			}
			if onPanel == 0 {
				return authorizationErr("actor is not the student's adviser")
			}
		}

		if approve && chain.precondition != nil {
			submission, err := GetSubmission(tx, request.SubmissionID)
			if err != nil {
				return err
			}
			if err := chain.precondition(tx, submission); err != nil {
				return err
			}
		}

		now := time.Now()
		status := models.RequestApproved
		if !approve {
			status = models.RequestRejected
		}
		updates := map[string]interface{}{
			"status":      status,
			"approver_id": actorID,
			"decided_at":  now,
			"update_at":   now,
		}
		if comments != "" {
			updates["comments"] = comments
		}
		if signatureFileID != nil {
			updates["signature_file_id"] = *signatureFileID
		}
		if err := tx.Table(chain.table).
			Where("request_id = ?", requestID).
			Updates(updates).Error; err != nil {
			return storageErr("decide request", err)
		}
		request.Status = status
		request.ApproverID = &actorID
		request.DecidedAt = &now

		if approve && requestType == models.RequestHardboundArchive {
			record := models.ArchiveRecord{
				SubmissionID: request.SubmissionID,
				StudentID:    request.StudentID,
				ArchivedBy:   actorID,
				ArchivedAt:   now,
				CreateAt:     now,
			}
			if err := tx.Create(&record).Error; err != nil {
				return storageErr("create archive record", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := "approved"
	if !approve {
		outcome = "rejected"
	}
	NotifyUser(db, request.StudentID, actorID,
		"Endorsement request decided",
		fmt.Sprintf("Your %s request was %s.", requestType, outcome),
		notificationLink(request.SubmissionID), request.SubmissionID)
	if request.RequestedBy != request.StudentID {
		NotifyUser(db, request.RequestedBy, actorID,
			"Endorsement request decided",
			fmt.Sprintf("The %s request you opened was %s.", requestType, outcome),
			notificationLink(request.SubmissionID), request.SubmissionID)
	}
	return &request, nil
}

// ListRequests returns all requests of one chain, newest first, optionally
// restricted to one student.
func ListRequests(db *gorm.DB, requestType string, studentID int) ([]models.EndorsementRequest, error) {
	chain, ok := chains[requestType]
	if !ok {
		return nil, validationErr("type", fmt.Sprintf("unknown request type %q", requestType))
	}

	query := db.Table(chain.table)
	if studentID != 0 {
		query = query.Where("student_id = ?", studentID)
	}

	var rows []models.EndorsementRequest
	if err := query.Order("create_at DESC").Find(&rows).Error; err != nil {
		return nil, storageErr("list requests", err)
	}
	return rows, nil
}

func roleIn(roleID int, roles []int) bool {
	for _, r := range roles {
		if r == roleID {
			return true
		}
	}
	return false
}
