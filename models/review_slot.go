package models

import "time"

// Review roles carried by a slot. Mapped from the defense-panel member
// roles when the roster is snapshotted.
const (
	ReviewerAdviser   = "adviser"
	ReviewerCommittee = "committee_chairperson"
	ReviewerPanel     = "panel"
)

// ReviewSlot is one reviewer's seat on one submission version. The batch
// for a version is created atomically when the submission enters review and
// is never touched by later roster changes. Unique on
// (submission_id, reviewer_id).
type ReviewSlot struct {
	SlotID       int        `gorm:"primaryKey;column:slot_id" json:"slot_id"`
	SubmissionID int        `gorm:"column:submission_id;uniqueIndex:uniq_submission_reviewer" json:"submission_id"`
	ReviewerID   int        `gorm:"column:reviewer_id;uniqueIndex:uniq_submission_reviewer" json:"reviewer_id"`
	ReviewerRole string     `gorm:"column:reviewer_role" json:"reviewer_role"`
	Status       Decision   `gorm:"column:status" json:"status"`
	Comments     *string    `gorm:"column:comments" json:"comments,omitempty"`
	ReviewedAt   *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at,omitempty"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

func (ReviewSlot) TableName() string {
	return "review_slots"
}
