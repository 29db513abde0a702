package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/assetcatalog/backend/internal/logging"
	"github.com/assetcatalog/backend/internal/services"
	"github.com/assetcatalog/backend/pkg/validation"
)

// respondError maps service errors onto HTTP statuses. Unknown errors are
// logged and reported without detail.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		transitionErr *services.TransitionError
	)

	switch {
	case errors.As(err, &validationErr):
		respondValidation(c, validationErr.Fields)
	case errors.As(err, &transitionErr):
		respondValidation(c, []validation.FieldError{{Field: "status", Message: transitionErr.Message}})
	case errors.Is(err, services.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logging.FromContext(c).WithError(err).Error("Unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondValidation(c *gin.Context, fields []validation.FieldError) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":  "validation failed",
		"fields": fields,
	})
}

// bindJSON decodes and validates the body. It writes the error response
// and returns false when the payload is rejected.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if fields, ok := validation.FieldErrors(err); ok {
			respondValidation(c, fields)
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// pathID parses a uuid path parameter. Malformed ids cannot match a record.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrNotFound.Error()})
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return defaultValue
}

type pageResponse struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}
