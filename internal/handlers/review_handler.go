package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assetcatalog/backend/internal/middleware"
	"github.com/assetcatalog/backend/internal/services"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// List returns reviews and the average rating.
// GET /assets/:id/reviews
func (h *ReviewHandler) List(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	summary, err := h.reviewService.List(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Submit adds a review.
// POST /assets/:id/reviews
func (h *ReviewHandler) Submit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.SubmitReviewInput
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.reviewService.Submit(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}
