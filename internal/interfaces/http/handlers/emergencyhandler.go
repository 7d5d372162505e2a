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

// EmergencyHandler handles HTTP requests for the emergency override
type EmergencyHandler struct {
	emergency *services.EmergencyService
	logger    logger.Interface
}

// NewEmergencyHandler creates a new emergency handler
func NewEmergencyHandler(emergency *services.EmergencyService, logger logger.Interface) *EmergencyHandler {
	return &EmergencyHandler{
		emergency: emergency,
		logger:    logger,
	}
}

// Activate handles POST /emergency/activate
// Only one override can be active at a time; a second activation conflicts.
func (h *EmergencyHandler) Activate(c *gin.Context) {
	var req dto.ActivateEmergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	status, err := h.emergency.Activate(c.Request.Context(), req)
	if err != nil {
		h.logger.Warnw("failed to activate emergency override",
			"error", err,
			"activated_by", req.ActivatedBy,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("emergency override activated",
		"activated_by", req.ActivatedBy,
		"reason", req.Reason,
		"expires_at", status.ExpiresAt,
	)
	utils.CreatedResponse(c, status)
}

// Deactivate handles POST /emergency/deactivate
func (h *EmergencyHandler) Deactivate(c *gin.Context) {
	var req dto.DeactivateEmergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := h.emergency.Deactivate(c.Request.Context(), req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	h.logger.Infow("emergency override deactivated", "deactivated_by", req.DeactivatedBy)
	utils.SuccessResponse(c, http.StatusOK, "emergency override deactivated", nil)
}

// Extend handles POST /emergency/extend
func (h *EmergencyHandler) Extend(c *gin.Context) {
	var req dto.ExtendEmergencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	status, err := h.emergency.Extend(c.Request.Context(), req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", status)
}

// Status handles GET /emergency/status
func (h *EmergencyHandler) Status(c *gin.Context) {
	status, err := h.emergency.Status(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to get emergency status", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", status)
}

// History handles GET /emergency/history
// Query parameters: limit (default 50)
func (h *EmergencyHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	result, err := h.emergency.History(c.Request.Context(), limit)
	if err != nil {
		h.logger.Errorw("failed to get emergency history", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
