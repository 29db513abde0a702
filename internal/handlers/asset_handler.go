package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assetcatalog/backend/internal/middleware"
	"github.com/assetcatalog/backend/internal/models"
	"github.com/assetcatalog/backend/internal/services"
)

type AssetHandler struct {
	assetService *services.AssetService
}

func NewAssetHandler(assetService *services.AssetService) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// assetResponse adds the rendered description to an asset.
type assetResponse struct {
	*models.Asset
	Description string `json:"description"`
}

func newAssetResponse(asset *models.Asset) assetResponse {
	return assetResponse{Asset: asset, Description: asset.Description()}
}

func newAssetList(assets []*models.Asset) []assetResponse {
	out := make([]assetResponse, len(assets))
	for i, a := range assets {
		out[i] = newAssetResponse(a)
	}
	return out
}

// List returns published assets.
// GET /assets?q=&category=&page=&limit=
func (h *AssetHandler) List(c *gin.Context) {
	filter := services.ListFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 0),
	}.Normalized()

	assets, total, err := h.assetService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pageResponse{
		Data:  newAssetList(assets),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// Create registers a new DRAFT asset.
// POST /assets
func (h *AssetHandler) Create(c *gin.Context) {
	var req services.CreateAssetInput
	if !bindJSON(c, &req) {
		return
	}

	asset, err := h.assetService.Create(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newAssetResponse(asset))
}

// Get returns one asset with its history, attachments and reviews.
// GET /assets/:id
func (h *AssetHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	asset, err := h.assetService.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAssetResponse(asset))
}

// Update edits an asset.
// PATCH /assets/:id
func (h *AssetHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateAssetInput
	if !bindJSON(c, &req) {
		return
	}

	asset, err := h.assetService.Edit(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAssetResponse(asset))
}

// Delete removes an asset.
// DELETE /assets/:id
func (h *AssetHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.assetService.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Versions returns the version history.
// GET /assets/:id/versions
func (h *AssetHandler) Versions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	versions, err := h.assetService.ListVersions(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// RequestUsage records an access request.
// POST /assets/:id/request
func (h *AssetHandler) RequestUsage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.assetService.RecordUsage(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}
