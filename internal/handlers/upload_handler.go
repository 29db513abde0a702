package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assetcatalog/backend/internal/middleware"
	"github.com/assetcatalog/backend/internal/services"
	"github.com/assetcatalog/backend/pkg/validation"
)

type UploadHandler struct {
	uploadService *services.UploadService
	maxBytes      int64
}

func NewUploadHandler(uploadService *services.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, maxBytes: maxBytes}
}

// Upload stores one attachment.
// POST /uploads
// Multipart form: file (required)
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		// Leave room for the multipart envelope.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondValidation(c, []validation.FieldError{{Field: "file", Message: fmt.Sprintf("must be at most %d bytes", h.maxBytes)}})
			return
		}
		respondValidation(c, []validation.FieldError{{Field: "file", Message: "is required"}})
		return
	}

	attachment, err := h.uploadService.Upload(c.Request.Context(), middleware.CurrentUser(c), header)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attachment)
}
