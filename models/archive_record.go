package models

import "time"

// ArchiveRecord marks a hardbound manuscript as institutionally archived.
// Created when a hardbound-archive request is approved; the submission row
// itself is never deleted.
type ArchiveRecord struct {
	ArchiveID    int       `gorm:"primaryKey;column:archive_id" json:"archive_id"`
	SubmissionID int       `gorm:"column:submission_id" json:"submission_id"`
	StudentID    int       `gorm:"column:student_id" json:"student_id"`
	ArchivedBy   int       `gorm:"column:archived_by" json:"archived_by"`
	ShelfCode    *string   `gorm:"column:shelf_code" json:"shelf_code,omitempty"`
	ArchivedAt   time.Time `gorm:"column:archived_at" json:"archived_at"`
	CreateAt     time.Time `gorm:"column:create_at" json:"create_at"`
}

func (ArchiveRecord) TableName() string {
	return "archive_records"
}
