package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"thesis-tracker-api/config"
	"thesis-tracker-api/models"
	"thesis-tracker-api/utils"
)

// Notification dispatch is a pure side-effect sink: best-effort,
// synchronous, and never allowed to fail the primary state transition.
// All entry points swallow errors after logging them.

func logNotifyFailure(op string, err error) {
	log.Printf("notification dispatch failed (%s): %v", op, err)
}

func notificationLink(submissionID int) string {
	return fmt.Sprintf("/submissions/%d", submissionID)
}

// NotifyUser targets one user. actorID suppresses self-notification when
// the actor and the target coincide (skipSelf semantics); pass 0 to always
// deliver.
func NotifyUser(db *gorm.DB, userID, actorID int, title, message, link string, relatedSubmissionID int) {
	if userID == 0 || (actorID != 0 && userID == actorID) {
		return
	}

	row := models.Notification{
		UserID:   &userID,
		Title:    title,
		Message:  message,
		Type:     "info",
		CreateAt: time.Now(),
	}
	if link != "" {
		row.Link = &link
	}
	if relatedSubmissionID != 0 {
		row.RelatedSubmissionID = &relatedSubmissionID
	}
	if err := db.Create(&row).Error; err != nil {
		logNotifyFailure("notify user", err)
		return
	}

	// Email leg, equally best-effort. Malformed addresses are skipped
	// rather than bounced.
	var user models.User
	if err := db.Select("user_id, email").
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error; err == nil && utils.ValidateEmail(user.Email) {
		if err := config.SendMail([]string{user.Email}, title,
			"<p>"+message+"</p>"); err != nil {
			logNotifyFailure("send mail", err)
		}
	}
}

// NotifyRole broadcasts to every holder of a role.
func NotifyRole(db *gorm.DB, roleID int, title, message, link string, relatedSubmissionID int) {
	if roleID == 0 {
		return
	}

	row := models.Notification{
		RoleID:   &roleID,
		Title:    title,
		Message:  message,
		Type:     "info",
		CreateAt: time.Now(),
	}
	if link != "" {
		row.Link = &link
	}
	if relatedSubmissionID != 0 {
		row.RelatedSubmissionID = &relatedSubmissionID
	}
	if err := db.Create(&row).Error; err != nil {
		logNotifyFailure("notify role", err)
	}
}

// NotifyAll records an explicit global broadcast.
func NotifyAll(db *gorm.DB, title, message string) {
	row := models.Notification{
		IsGlobal: true,
		Title:    title,
		Message:  message,
		Type:     "info",
		CreateAt: time.Now(),
	}
	if err := db.Create(&row).Error; err != nil {
		logNotifyFailure("notify all", err)
	}
}

// ListNotifications returns the actor's inbox: direct messages plus role
// and global broadcasts, newest first.
func ListNotifications(db *gorm.DB, userID, roleID int) ([]models.Notification, error) {
	var rows []models.Notification
	if err := db.Where("user_id = ? OR role_id = ? OR is_global = ?", userID, roleID, true).
		Order("create_at DESC").
		Limit(200).
		Find(&rows).Error; err != nil {
		return nil, storageErr("list notifications", err)
	}
	return rows, nil
}

// MarkRead flags one directly-addressed notification as read.
func MarkRead(db *gorm.DB, userID int, notificationID uint) error {
	result := db.Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "update_at": time.Now()})
	if result.Error != nil {
		return storageErr("mark notification read", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flags every direct notification of the user as read.
func MarkAllRead(db *gorm.DB, userID int) error {
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "update_at": time.Now()}).Error; err != nil {
		return storageErr("mark all notifications read", err)
	}
	return nil
}
