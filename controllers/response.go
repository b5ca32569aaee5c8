package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"thesis-tracker-api/services"
)

// respondServiceError maps the service error taxonomy onto HTTP responses.
// Storage causes are logged server-side and surfaced generically.
func respondServiceError(c *gin.Context, err error) {
	var validation *services.ValidationError
	var authz *services.AuthorizationError
	var storage *services.StorageError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &authz):
		log.Printf("authorization denied: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusForbidden, gin.H{"error": authz.Error()})
	case errors.Is(err, services.ErrNotAssigned):
		log.Printf("authorization denied: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not an assigned reviewer for this submission"})
	case errors.Is(err, services.ErrStaleVersion):
		c.JSON(http.StatusConflict, gin.H{"error": "This submission version has been superseded; please reload"})
	case errors.Is(err, services.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"error": "An active request of this type already exists"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.As(err, &storage):
		log.Printf("storage failure: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to save, please try again"})
	default:
		log.Printf("unexpected failure: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to save, please try again"})
	}
}

func currentUserID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int); ok {
			return id, true
		}
	}
	return 0, false
}

func currentRoleID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("roleID"); ok {
		if id, ok := v.(int); ok {
			return id, true
		}
	}
	return 0, false
}
