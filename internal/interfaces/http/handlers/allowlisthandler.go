package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/application/governance/services"
	"github.com/warden-sh/warden/internal/shared/logger"
	"github.com/warden-sh/warden/internal/shared/utils"
)

// AllowlistHandler handles HTTP requests for allowlist management
type AllowlistHandler struct {
	allowlist *services.AllowlistService
	logger    logger.Interface
}

// NewAllowlistHandler creates a new allowlist handler
func NewAllowlistHandler(allowlist *services.AllowlistService, logger logger.Interface) *AllowlistHandler {
	return &AllowlistHandler{
		allowlist: allowlist,
		logger:    logger,
	}
}

// Add handles POST /allowlist
func (h *AllowlistHandler) Add(c *gin.Context) {
	var req dto.AddAllowlistEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	createdBy := c.GetHeader("X-Operator")

	entry, err := h.allowlist.Add(c.Request.Context(), req, createdBy)
	if err != nil {
		h.logger.Warnw("failed to add allowlist entry",
			"error", err,
			"entry_type", req.EntryType,
			"identifier", req.Identifier,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, entry)
}

// Update handles PUT /allowlist/:id
func (h *AllowlistHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateAllowlistEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	entry, err := h.allowlist.Update(c.Request.Context(), id, req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", entry)
}

// Remove handles DELETE /allowlist/:id
// Entries are deactivated, never dropped, so past decisions stay explainable.
func (h *AllowlistHandler) Remove(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.allowlist.Remove(c.Request.Context(), id); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "allowlist entry removed", nil)
}

// Get handles GET /allowlist/:id
func (h *AllowlistHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	entry, err := h.allowlist.Get(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", entry)
}

// List handles GET /allowlist
// Query parameters: entry_type, include_inactive
func (h *AllowlistHandler) List(c *gin.Context) {
	var req dto.ListAllowlistRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}

	result, err := h.allowlist.List(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to list allowlist entries", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// parseIDParam extracts the numeric :id path parameter.
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}
