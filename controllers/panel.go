package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"thesis-tracker-api/config"
	"thesis-tracker-api/models"
	"thesis-tracker-api/services"
)

// GetDefensePanel returns a student's current roster.
func GetDefensePanel(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("studentId"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
		return
	}

	members, err := services.GetDefensePanel(config.DB, studentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"panel":   members,
	})
}

// UpdateDefensePanel replaces a student's roster. Review slots already
// snapshotted from the previous roster are not touched; only future
// submissions pick up the new roster.
func UpdateDefensePanel(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("studentId"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
		return
	}

	var req struct {
		Members []struct {
			MemberID   int    `json:"member_id" binding:"required"`
			MemberRole string `json:"member_role" binding:"required"`
		} `json:"members" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	for _, m := range req.Members {
		switch m.MemberRole {
		case models.PanelAdviser, models.PanelCommitteeChair, models.PanelMember:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid panel role: " + m.MemberRole})
			return
		}
	}

	now := time.Now()
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.DefensePanelMember{}).
			Where("student_id = ? AND delete_at IS NULL", studentID).
			Update("delete_at", now).Error; err != nil {
			return err
		}

		for _, m := range req.Members {
			member := models.DefensePanelMember{
				StudentID:  studentID,
				MemberID:   m.MemberID,
				MemberRole: m.MemberRole,
				AssignedAt: now,
				CreateAt:   now,
			}
			if err := tx.Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update panel"})
		return
	}

	members, err := services.GetDefensePanel(config.DB, studentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"panel":   members,
	})
}
