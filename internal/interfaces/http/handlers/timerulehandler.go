package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/application/governance/services"
	"github.com/warden-sh/warden/internal/shared/logger"
	"github.com/warden-sh/warden/internal/shared/utils"
)

// TimeRuleHandler handles HTTP requests for time-window rule management
type TimeRuleHandler struct {
	timeRules *services.TimeRuleService
	logger    logger.Interface
}

// NewTimeRuleHandler creates a new time rule handler
func NewTimeRuleHandler(timeRules *services.TimeRuleService, logger logger.Interface) *TimeRuleHandler {
	return &TimeRuleHandler{
		timeRules: timeRules,
		logger:    logger,
	}
}

// Create handles POST /time-rules
func (h *TimeRuleHandler) Create(c *gin.Context) {
	var req dto.CreateTimeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	createdBy := c.GetHeader("X-Operator")

	rule, err := h.timeRules.Create(c.Request.Context(), req, createdBy)
	if err != nil {
		h.logger.Warnw("failed to create time rule", "error", err, "name", req.Name)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, rule)
}

// Update handles PUT /time-rules/:id
func (h *TimeRuleHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateTimeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	rule, err := h.timeRules.Update(c.Request.Context(), id, req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", rule)
}

// Delete handles DELETE /time-rules/:id
// Removal is soft: the rule is disabled and kept for audit history.
func (h *TimeRuleHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.timeRules.Remove(c.Request.Context(), id); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "time rule removed", nil)
}

// Get handles GET /time-rules/:id
func (h *TimeRuleHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	rule, err := h.timeRules.Get(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", rule)
}

// List handles GET /time-rules
// Query parameters: include_disabled
func (h *TimeRuleHandler) List(c *gin.Context) {
	includeDisabled := c.Query("include_disabled") == "true"

	result, err := h.timeRules.List(c.Request.Context(), includeDisabled)
	if err != nil {
		h.logger.Errorw("failed to list time rules", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// Check handles GET /time-rules/check
// Reports which rule, if any, governs the current instant.
func (h *TimeRuleHandler) Check(c *gin.Context) {
	result, err := h.timeRules.CheckNow(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to check time rules", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
