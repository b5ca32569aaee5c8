package models

import "time"

type Notification struct {
	NotificationID      uint       `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID              *int       `gorm:"column:user_id" json:"user_id,omitempty"`
	RoleID              *int       `gorm:"column:role_id" json:"role_id,omitempty"`
	IsGlobal            bool       `gorm:"column:is_global" json:"is_global"`
	Title               string     `gorm:"column:title" json:"title"`
	Message             string     `gorm:"column:message" json:"message"`
	Type                string     `gorm:"column:type" json:"type"` // info|success|warning|error
	RelatedSubmissionID *int       `gorm:"column:related_submission_id" json:"related_submission_id,omitempty"`
	Link                *string    `gorm:"column:link" json:"link,omitempty"`
	IsRead              bool       `gorm:"column:is_read" json:"is_read"`
	CreateAt            time.Time  `gorm:"column:create_at" json:"created_at"`
	UpdateAt            *time.Time `gorm:"column:update_at" json:"-"`
}

func (Notification) TableName() string { return "notifications" }

// HasTarget reports whether the row addresses exactly one target class:
// a specific user, a role broadcast, or an explicit global broadcast.
func (n *Notification) HasTarget() bool {
	targets := 0
	if n.UserID != nil {
		targets++
	}
	if n.RoleID != nil {
		targets++
	}
	if n.IsGlobal {
		targets++
	}
	return targets == 1
}
