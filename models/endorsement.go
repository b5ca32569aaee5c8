package models

import "time"

// Endorsement request types. Each type is a distinct table because each
// carries stage-specific preconditions, but they share the same row shape
// through EndorsementRequest.
const (
	RequestAdviserEndorsement      = "adviser_endorsement"
	RequestFinalDefenseEndorsement = "final_defense_endorsement"
	RequestNoticeToCommence        = "notice_to_commence"
	RequestHardboundArchive        = "hardbound_archive"
)

// ValidRequestType reports whether t names a known endorsement chain.
func ValidRequestType(t string) bool {
	switch t {
	case RequestAdviserEndorsement, RequestFinalDefenseEndorsement,
		RequestNoticeToCommence, RequestHardboundArchive:
		return true
	}
	return false
}

// EndorsementRequest is the shared row shape of the four single-approver
// chains. At most one active (pending or approved) request may exist per
// (submission, type); the service enforces this with a pre-insert check
// inside the write transaction.
type EndorsementRequest struct {
	RequestID       int        `gorm:"primaryKey;column:request_id" json:"request_id"`
	StudentID       int        `gorm:"column:student_id" json:"student_id"`
	SubmissionID    int        `gorm:"column:submission_id" json:"submission_id"`
	RequestedBy     int        `gorm:"column:requested_by" json:"requested_by"`
	ApproverID      *int       `gorm:"column:approver_id" json:"approver_id,omitempty"`
	Status          Decision   `gorm:"column:status" json:"status"`
	Comments        *string    `gorm:"column:comments" json:"comments,omitempty"`
	SignatureFileID *int       `gorm:"column:signature_file_id" json:"signature_file_id,omitempty"`
	DecidedAt       *time.Time `gorm:"column:decided_at" json:"decided_at,omitempty"`
	CreateAt        time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt        *time.Time `gorm:"column:update_at" json:"update_at,omitempty"`

	Student   User        `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Signature *FileUpload `gorm:"foreignKey:SignatureFileID" json:"signature,omitempty"`
}

// The four concrete tables. Same columns, distinct identities.

type AdviserEndorsement struct {
	EndorsementRequest
}

func (AdviserEndorsement) TableName() string { return "adviser_endorsements" }

type FinalDefenseEndorsement struct {
	EndorsementRequest
}

func (FinalDefenseEndorsement) TableName() string { return "final_defense_endorsements" }

type NoticeToCommence struct {
	EndorsementRequest
}

func (NoticeToCommence) TableName() string { return "notices_to_commence" }

type HardboundArchive struct {
	EndorsementRequest
}

func (HardboundArchive) TableName() string { return "hardbound_archives" }
