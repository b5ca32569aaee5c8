package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"thesis-tracker-api/config"
	"thesis-tracker-api/models"
	"thesis-tracker-api/services"
)

func uploadRoot() string {
	root := os.Getenv("UPLOAD_PATH")
	if root == "" {
		root = "./uploads"
	}
	return root
}

// UploadFile stores a manuscript or signature upload. The kind form field
// selects the constraint set ("manuscript" default, "signature"). The file
// is written first; if the metadata row fails the file is removed so no
// dangling row survives.
func UploadFile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	constraints := services.ManuscriptConstraints
	if c.PostForm("kind") == "signature" {
		constraints = services.SignatureConstraints
	}
	if err := services.ValidateUpload(file, constraints); err != nil {
		respondServiceError(c, err)
		return
	}

	userDir := filepath.Join(uploadRoot(), strconv.Itoa(userID))
	if err := os.MkdirAll(userDir, os.ModePerm); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create upload directory"})
		return
	}

	storedPath := filepath.Join(userDir, services.StoredFilename(file.Filename))
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	now := time.Now()
	fileUpload := models.FileUpload{
		OriginalName: file.Filename,
		StoredPath:   storedPath,
		FileSize:     file.Size,
		MimeType:     file.Header.Get("Content-Type"),
		UploadedBy:   userID,
		UploadedAt:   now,
		CreateAt:     now,
		UpdateAt:     now,
	}

	if err := config.DB.Create(&fileUpload).Error; err != nil {
		// Delete uploaded file if database save fails
		os.Remove(storedPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file info"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "File uploaded successfully",
		"file":    fileUpload,
		"size_mb": fileUpload.GetFileSizeInMB(),
	})
}

// DownloadFile streams a stored file back to its owner or a reviewer role.
func DownloadFile(c *gin.Context) {
	userID, ok := currentUserID(c)
	roleID, _ := currentRoleID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	fileID, err := strconv.Atoi(c.Param("id"))
	if err != nil || fileID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file ID"})
		return
	}

	var fileUpload models.FileUpload
	if err := config.DB.Where("file_id = ? AND delete_at IS NULL", fileID).
		First(&fileUpload).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	// Manuscript files inherit the submission's visibility rules: the gate
	// keeps them hidden from non-chair reviewers until the chair opens it.
	if err := services.AuthorizeFileDownload(config.DB, userID, roleID, &fileUpload); err != nil {
		respondServiceError(c, err)
		return
	}

	if _, err := os.Stat(fileUpload.StoredPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File is missing from storage"})
		return
	}

	c.FileAttachment(fileUpload.StoredPath, fileUpload.OriginalName)
}
