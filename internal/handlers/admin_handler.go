package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assetcatalog/backend/internal/middleware"
	"github.com/assetcatalog/backend/internal/models"
	"github.com/assetcatalog/backend/internal/services"
)

type AdminHandler struct {
	assetService *services.AssetService
	userService  *services.UserService
	adminService *services.AdminService
}

func NewAdminHandler(assetService *services.AssetService, userService *services.UserService, adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		assetService: assetService,
		userService:  userService,
		adminService: adminService,
	}
}

// ListAssets returns assets in every status.
// GET /admin/assets?status=&page=&limit=
func (h *AdminHandler) ListAssets(c *gin.Context) {
	filter := services.ListFilter{
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseAssetStatus(raw)
		if err != nil {
			respondError(c, services.NewValidationError("status", "must be one of: DRAFT PENDING PUBLISHED REJECTED"))
			return
		}
		filter.Status = status
	}
	filter = filter.Normalized()

	assets, total, err := h.assetService.AdminList(c.Request.Context(), middleware.CurrentUser(c), filter)
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

// UpdateAssetStatus moves an asset through its lifecycle.
// PATCH /admin/assets/:id/status
func (h *AdminHandler) UpdateAssetStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=DRAFT PENDING PUBLISHED REJECTED"`
	}
	if !bindJSON(c, &req) {
		return
	}

	asset, err := h.assetService.TransitionStatus(c.Request.Context(), middleware.CurrentUser(c), id, models.AssetStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAssetResponse(asset))
}

// ListUsers returns all accounts.
// GET /admin/users?page=&limit=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := queryInt(c, "page", 1), queryInt(c, "limit", 0)

	users, total, err := h.userService.GetAllUsers(c.Request.Context(), middleware.CurrentUser(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	filter := services.ListFilter{Page: page, Limit: limit}.Normalized()
	c.JSON(http.StatusOK, pageResponse{
		Data:  users,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// UpdateUserRole changes a user's role.
// PUT /admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateRoleInput
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Stats returns asset counts per status.
// GET /admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	counts, err := h.adminService.StatusCounts(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assets_by_status": counts})
}
