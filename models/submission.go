package models

import "time"

// Manuscript lifecycle stages. Each stage runs the same review machinery;
// endorsement preconditions key off specific stages.
const (
	StageConceptPaper   = "concept_paper"
	StageOutlineDefense = "outline_defense"
	StageHardbound      = "hardbound"
)

// ValidStage reports whether s names a known manuscript stage.
func ValidStage(s string) bool {
	switch s {
	case StageConceptPaper, StageOutlineDefense, StageHardbound:
		return true
	}
	return false
}

// Submission is one version of a student's manuscript at one stage. A
// revision creates a child row (version+1) pointing back via
// ParentSubmissionID; rows are superseded, never deleted. Only the row with
// no child is "latest" and only it accepts gate/verdict/decision writes.
type Submission struct {
	SubmissionID       int       `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	SubmissionNumber   string    `gorm:"column:submission_number" json:"submission_number"`
	StudentID          int       `gorm:"column:student_id" json:"student_id"`
	Stage              string    `gorm:"column:stage" json:"stage"`
	Title              string    `gorm:"column:title" json:"title"`
	Abstract           *string   `gorm:"column:abstract" json:"abstract,omitempty"`
	FileID             *int      `gorm:"column:file_id" json:"file_id,omitempty"`
	Version            int       `gorm:"column:version" json:"version"`
	ParentSubmissionID *int      `gorm:"column:parent_submission_id" json:"parent_submission_id,omitempty"`
	Status             Decision  `gorm:"column:status" json:"status"`
	ReviewGateStatus   *Decision `gorm:"column:review_gate_status" json:"review_gate_status,omitempty"`

	DecisionVerdict             *Decision  `gorm:"column:decision_verdict" json:"decision_verdict,omitempty"`
	DecisionNotes               *string    `gorm:"column:decision_notes" json:"decision_notes,omitempty"`
	DecidedBy                   *int       `gorm:"column:decided_by" json:"decided_by,omitempty"`
	DecidedAt                   *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`
	CommitteeReviewsCompletedAt *time.Time `gorm:"column:committee_reviews_completed_at" json:"committee_reviews_completed_at,omitempty"`

	SubmittedAt time.Time  `gorm:"column:submitted_at" json:"submitted_at"`
	CreateAt    time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at,omitempty"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Student     User         `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	File        *FileUpload  `gorm:"foreignKey:FileID" json:"file,omitempty"`
	ReviewSlots []ReviewSlot `gorm:"foreignKey:SubmissionID" json:"review_slots,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// GateOpen reports whether the committee chairperson has unlocked panel
// review access for this version.
func (s *Submission) GateOpen() bool {
	return s.ReviewGateStatus != nil
}
