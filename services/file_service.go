package services

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"thesis-tracker-api/models"
)

// UploadConstraints bound one upload class. Validation happens before the
// file is persisted: size, extension, sniffed content type, and for PDFs
// the magic-byte signature (first four bytes %PDF), since the client's
// Content-Type header is not trusted.
type UploadConstraints struct {
	MaxSize    int64
	Extensions []string
	// PDFOnly additionally requires the %PDF magic bytes.
	PDFOnly bool
}

// ManuscriptConstraints: manuscripts are PDF only, up to 25MB.
var ManuscriptConstraints = UploadConstraints{
	MaxSize:    25 * 1024 * 1024,
	Extensions: []string{".pdf"},
	PDFOnly:    true,
}

// SignatureConstraints: signature artifacts may be an image or a PDF.
var SignatureConstraints = UploadConstraints{
	MaxSize:    5 * 1024 * 1024,
	Extensions: []string{".pdf", ".png", ".jpg", ".jpeg"},
}

var pdfMagic = []byte("%PDF")

// IsPDF reports whether data starts with the PDF signature.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// AllowedExtension checks the filename extension against the constraint
// list, case-insensitively.
func AllowedExtension(filename string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

var allowedSniffedTypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
}

// ValidateUpload checks an incoming multipart file against the
// constraints. The file is read only far enough to sniff its content.
func ValidateUpload(header *multipart.FileHeader, constraints UploadConstraints) error {
	if header.Size > constraints.MaxSize {
		return validationErr("file", fmt.Sprintf("file exceeds the %dMB limit", constraints.MaxSize/(1024*1024)))
	}
	if !AllowedExtension(header.Filename, constraints.Extensions) {
		return validationErr("file", fmt.Sprintf("file type not allowed (expected %s)", strings.Join(constraints.Extensions, ", ")))
	}

	file, err := header.Open()
	if err != nil {
		return storageErr("open upload", err)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && n == 0 {
		return validationErr("file", "file is empty or unreadable")
	}
	head = head[:n]

	if constraints.PDFOnly {
		if !IsPDF(head) {
			return validationErr("file", "file content is not a valid PDF")
		}
		return nil
	}

	sniffed := http.DetectContentType(head)
	if semi := strings.Index(sniffed, ";"); semi >= 0 {
		sniffed = sniffed[:semi]
	}
	if !allowedSniffedTypes[sniffed] {
		return validationErr("file", fmt.Sprintf("detected content type %s is not allowed", sniffed))
	}
	return nil
}

// StoredFilename builds a collision-free stored name that keeps the
// original extension.
func StoredFilename(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return uuid.NewString() + ext
}

// submissionForFile resolves the submission a stored file is attached to,
// newest version first, with its review slots loaded. Returns nil when the
// file is not referenced by any submission (signature artifacts, unlinked
// uploads).
func submissionForFile(db *gorm.DB, fileID int) (*models.Submission, error) {
	var submission models.Submission
	err := db.Where("file_id = ? AND delete_at IS NULL", fileID).
		Order("version DESC").
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("resolve manuscript", err)
	}

	if err := db.Where("submission_id = ?", submission.SubmissionID).
		Find(&submission.ReviewSlots).Error; err != nil {
		return nil, storageErr("load review slots", err)
	}
	return &submission, nil
}

// AuthorizeFileDownload decides whether an actor may fetch a stored file.
// Owners always may. A file attached to a submission inherits that
// submission's visibility rules, so a manuscript stays hidden from
// non-chair reviewers until the gate opens. Files attached to nothing
// (signature artifacts) are readable by any non-student role.
func AuthorizeFileDownload(db *gorm.DB, actorID, actorRoleID int, file *models.FileUpload) error {
	if file.UploadedBy == actorID {
		return nil
	}

	submission, err := submissionForFile(db, file.FileID)
	if err != nil {
		return err
	}
	if submission != nil {
		return AuthorizeView(db, actorID, actorRoleID, submission)
	}

	if actorRoleID == models.RoleStudent {
		return authorizationErr("students may only download their own files")
	}
	return nil
}
