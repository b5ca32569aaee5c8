package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"thesis-tracker-api/models"
)

// RosterEntry is one deduplicated reviewer drawn from the defense panel.
type RosterEntry struct {
	ReviewerID   int
	ReviewerRole string
}

// BuildRoster maps the defense-panel roster onto review-slot entries,
// deduplicating by user id. First occurrence wins when a user holds two
// panel roles, so the ordering of the input (adviser, committee chair,
// panel members) decides which role sticks.
func BuildRoster(members []models.DefensePanelMember) []RosterEntry {
	seen := make(map[int]bool, len(members))
	roster := make([]RosterEntry, 0, len(members))
	for _, m := range members {
		if m.MemberID == 0 || seen[m.MemberID] {
			continue
		}
		seen[m.MemberID] = true
		roster = append(roster, RosterEntry{
			ReviewerID:   m.MemberID,
			ReviewerRole: models.ReviewRoleForPanelRole(m.MemberRole),
		})
	}
	return roster
}

// assignReviewers snapshots the student's current panel roster into review
// slots for one submission version. All-or-nothing: it runs inside the
// caller's transaction, so a failed insert rolls back the whole batch.
// Later roster changes never touch the slots created here.
func assignReviewers(tx *gorm.DB, submission *models.Submission) ([]models.ReviewSlot, error) {
	members, err := GetDefensePanel(tx, submission.StudentID)
	if err != nil {
		return nil, err
	}

	roster := BuildRoster(members)
	if len(roster) == 0 {
		return nil, validationErr("defense_panel", "student has no defense panel assigned")
	}

	now := time.Now()
	slots := make([]models.ReviewSlot, 0, len(roster))
	for _, entry := range roster {
		slots = append(slots, models.ReviewSlot{
			SubmissionID: submission.SubmissionID,
			ReviewerID:   entry.ReviewerID,
			ReviewerRole: entry.ReviewerRole,
			Status:       models.StatusPending,
			CreateAt:     now,
		})
	}

	if err := tx.Create(&slots).Error; err != nil {
		return nil, storageErr("create review slots", err)
	}
	return slots, nil
}

// loadLatestForUpdate loads a submission and verifies it is still the
// latest version of its chain, inside the caller's transaction so the
// check is atomic with the subsequent write.
func loadLatestForUpdate(tx *gorm.DB, submissionID int) (*models.Submission, error) {
	var submission models.Submission
	if err := tx.Where("submission_id = ? AND delete_at IS NULL", submissionID).
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationErr("submission_id", "submission not found")
		}
		return nil, storageErr("load submission", err)
	}

	var children int64
	if err := tx.Model(&models.Submission{}).
		Where("parent_submission_id = ? AND delete_at IS NULL", submissionID).
		Count(&children).Error; err != nil {
		return nil, storageErr("check submission chain", err)
	}
	if children > 0 {
		return nil, ErrStaleVersion
	}
	return &submission, nil
}

func findSlot(tx *gorm.DB, submissionID, reviewerID int) (*models.ReviewSlot, error) {
	var slot models.ReviewSlot
	err := tx.Where("submission_id = ? AND reviewer_id = ?", submissionID, reviewerID).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAssigned
		}
		return nil, storageErr("load review slot", err)
	}
	return &slot, nil
}

// SetGate records the committee chairperson's gate value, unlocking panel
// review access. Only the chair slot holder may call it, only on the
// latest version. Non-chair reviewers are notified when the gate is first
// set or changes.
func SetGate(db *gorm.DB, actorID, submissionID int, gate models.Decision) (*models.Submission, error) {
	if !models.ValidGate(gate) {
		return nil, validationErr("review_gate_status", fmt.Sprintf("invalid gate value %q", gate))
	}

	var submission *models.Submission
	var notifyReviewers []int
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
			return authorizationErr("only the committee chairperson may set the review gate")
		}

		if submission.ReviewGateStatus != nil && *submission.ReviewGateStatus == gate {
			return nil // unchanged, no write, no notifications
		}

		now := time.Now()
		updates := map[string]interface{}{
			"review_gate_status": gate,
			"update_at":          now,
		}
		if submission.Status == models.StatusSubmitted {
			updates["status"] = models.StatusUnderReview
			submission.Status = models.StatusUnderReview
		}
		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Updates(updates).Error; err != nil {
			return storageErr("update review gate", err)
		}
		submission.ReviewGateStatus = &gate
		submission.UpdateAt = &now

		var slots []models.ReviewSlot
		if err := tx.Where("submission_id = ? AND reviewer_role <> ?", submissionID, models.ReviewerCommittee).
			Find(&slots).Error; err != nil {
			return storageErr("load review slots", err)
		}
		for _, s := range slots {
			notifyReviewers = append(notifyReviewers, s.ReviewerID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, reviewerID := range notifyReviewers {
		NotifyUser(db, reviewerID, actorID,
			"Manuscript ready for review",
			fmt.Sprintf("Submission %s has been released for panel review (gate: %s).", submission.SubmissionNumber, gate),
			notificationLink(submission.SubmissionID), submission.SubmissionID)
	}
	return submission, nil
}

// PostVerdict records one reviewer's individual verdict on the latest
// version. Non-chair reviewers are blocked while the gate is unset; the
// committee chairperson can always act. Re-posting overwrites the
// reviewer's own slot (last write wins at the row level).
func PostVerdict(db *gorm.DB, reviewerID, submissionID int, status models.Decision, comments string) (*models.ReviewSlot, error) {
	if !models.ValidSlotStatus(status) {
		return nil, validationErr("status", fmt.Sprintf("invalid review status %q", status))
	}

	var slot *models.ReviewSlot
	err := db.Transaction(func(tx *gorm.DB) error {
		submission, err := loadLatestForUpdate(tx, submissionID)
		if err != nil {
			return err
		}

		slot, err = findSlot(tx, submissionID, reviewerID)
		if err != nil {
			return err
		}

		if slot.ReviewerRole != models.ReviewerCommittee && !submission.GateOpen() {
			return authorizationErr("review access has not been opened by the committee chairperson")
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":      status,
			"reviewed_at": now,
			"update_at":   now,
		}
		if comments != "" {
			updates["comments"] = comments
		}
		if err := tx.Model(&models.ReviewSlot{}).
			Where("slot_id = ?", slot.SlotID).
			Updates(updates).Error; err != nil {
			return storageErr("update review slot", err)
		}
		slot.Status = status
		slot.ReviewedAt = &now
		if comments != "" {
			slot.Comments = &comments
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

// ReviewTally summarizes the raw per-reviewer verdicts for a submission.
// It is advisory input for the chair's manual decision and is exposed next
// to the decision so a chair override stays visible.
type ReviewTally struct {
	Total    int                     `json:"total"`
	Reviewed int                     `json:"reviewed"`
	ByStatus map[models.Decision]int `json:"by_status"`
}

// TallySlots folds a slot batch into a tally.
func TallySlots(slots []models.ReviewSlot) ReviewTally {
	tally := ReviewTally{ByStatus: make(map[models.Decision]int)}
	for _, s := range slots {
		tally.Total++
		if s.Status != models.StatusPending {
			tally.Reviewed++
		}
		tally.ByStatus[s.Status]++
	}
	return tally
}

// GetReviews returns the slot batch plus its tally for one submission
// version. Verdicts from superseded versions stay readable as history.
func GetReviews(db *gorm.DB, submissionID int) ([]models.ReviewSlot, ReviewTally, error) {
	var slots []models.ReviewSlot
	if err := db.Preload("Reviewer").
		Where("submission_id = ?", submissionID).
		Order("slot_id ASC").
		Find(&slots).Error; err != nil {
		return nil, ReviewTally{}, storageErr("load review slots", err)
	}
	return slots, TallySlots(slots), nil
}
