package services

import (
	"errors"

	"gorm.io/gorm"

	"thesis-tracker-api/models"
)

// User/role directory collaborator. The workflow core only needs name,
// role and affiliation lookups plus the defense-panel roster; account
// administration lives elsewhere.

// GetUser loads one active user by id.
func GetUser(db *gorm.DB, userID int) (*models.User, error) {
	var user models.User
	if err := db.Preload("Role").
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationErr("user_id", "user not found")
		}
		return nil, storageErr("load user", err)
	}
	return &user, nil
}

// GetDefensePanel returns the student's current roster, adviser first,
// then committee chair, then panel members, in assignment order within
// each role.
func GetDefensePanel(db *gorm.DB, studentID int) ([]models.DefensePanelMember, error) {
	var members []models.DefensePanelMember
	if err := db.Where("student_id = ? AND delete_at IS NULL", studentID).
		Order("FIELD(member_role, 'adviser', 'committee_chair', 'panel_member'), assigned_at ASC").
		Find(&members).Error; err != nil {
		return nil, storageErr("load defense panel", err)
	}
	return members, nil
}
