package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/application/governance/services"
	"github.com/warden-sh/warden/internal/shared/logger"
	"github.com/warden-sh/warden/internal/shared/utils"
)

// OverrideHandler handles HTTP requests for PIN-gated per-request overrides
type OverrideHandler struct {
	overrides *services.OverrideService
	logger    logger.Interface
}

// NewOverrideHandler creates a new override handler
func NewOverrideHandler(overrides *services.OverrideService, logger logger.Interface) *OverrideHandler {
	return &OverrideHandler{
		overrides: overrides,
		logger:    logger,
	}
}

// Create handles POST /overrides
// The PIN is hashed before storage and never returned.
func (h *OverrideHandler) Create(c *gin.Context) {
	var req dto.CreateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	override, err := h.overrides.Create(c.Request.Context(), req)
	if err != nil {
		h.logger.Warnw("failed to create override request",
			"error", err,
			"user_id", req.UserID,
			"tool_name", req.ToolName,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, override)
}

// Redeem handles POST /overrides/:request_id/redeem
// Redemption is single-use: a granted override flips to used atomically.
func (h *OverrideHandler) Redeem(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "request_id is required")
		return
	}
	req := dto.RedeemOverrideRequest{RequestID: requestID}

	var body struct {
		PIN string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	req.PIN = body.PIN

	result, err := h.overrides.Redeem(c.Request.Context(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// Cancel handles POST /overrides/:request_id/cancel
func (h *OverrideHandler) Cancel(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "request_id is required")
		return
	}

	var req dto.CancelOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := h.overrides.Cancel(c.Request.Context(), requestID, req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "override request cancelled", nil)
}

// Get handles GET /overrides/:request_id
func (h *OverrideHandler) Get(c *gin.Context) {
	requestID := c.Param("request_id")
	if requestID == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "request_id is required")
		return
	}

	override, err := h.overrides.Get(c.Request.Context(), requestID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", override)
}

// List handles GET /overrides
// Query parameters: user_id, status, limit
func (h *OverrideHandler) List(c *gin.Context) {
	var req dto.ListOverridesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}

	result, err := h.overrides.List(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to list override requests", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// SetMasterPIN handles PUT /overrides/master-pin
func (h *OverrideHandler) SetMasterPIN(c *gin.Context) {
	var body struct {
		PIN string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := h.overrides.SetMasterPIN(body.PIN); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "master PIN set", nil)
}

// ClearMasterPIN handles DELETE /overrides/master-pin
func (h *OverrideHandler) ClearMasterPIN(c *gin.Context) {
	h.overrides.ClearMasterPIN()
	utils.SuccessResponse(c, http.StatusOK, "master PIN cleared", nil)
}

// Stats handles GET /overrides/stats
func (h *OverrideHandler) Stats(c *gin.Context) {
	result, err := h.overrides.Stats(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to get override stats", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
