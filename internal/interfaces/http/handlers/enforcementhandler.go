package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/domain/governance"
	"github.com/warden-sh/warden/internal/shared/logger"
	"github.com/warden-sh/warden/internal/shared/utils"
)

// EnforcementHandler handles HTTP requests for access decisions and the
// audit trail
type EnforcementHandler struct {
	enforcement EnforcementService
	logger      logger.Interface
}

// NewEnforcementHandler creates a new enforcement handler
func NewEnforcementHandler(enforcement EnforcementService, logger logger.Interface) *EnforcementHandler {
	return &EnforcementHandler{
		enforcement: enforcement,
		logger:      logger,
	}
}

// Evaluate handles POST /enforcement/evaluate
// Runs a tool call through the decision pipeline and returns the verdict.
// Evaluation never fails: pipeline errors surface as denials.
func (h *EnforcementHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	decision := h.enforcement.Evaluate(c.Request.Context(), governance.AccessRequest{
		UserID:            req.UserID,
		ToolName:          req.ToolName,
		DeviceIP:          req.DeviceIP,
		DeviceMAC:         req.DeviceMAC,
		OverrideRequestID: req.OverrideRequestID,
		OverridePIN:       req.OverridePIN,
		Metadata:          req.Metadata,
	})

	utils.SuccessResponse(c, http.StatusOK, "", decision)
}

// ListDecisions handles GET /enforcement/decisions
// Query parameters: user_id, tool_name, source, allowed, since, until,
// limit, offset
func (h *EnforcementHandler) ListDecisions(c *gin.Context) {
	var req dto.ListDecisionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}

	result, err := h.enforcement.Decisions(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to list decisions", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// Statistics handles GET /enforcement/statistics
// Aggregates the audit trail since the optional "since" instant (RFC3339);
// defaults to the last 24 hours.
func (h *EnforcementHandler) Statistics(c *gin.Context) {
	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid since: must be RFC3339")
			return
		}
		since = &parsed
	}

	result, err := h.enforcement.Statistics(c.Request.Context(), since)
	if err != nil {
		h.logger.Errorw("failed to compute decision statistics", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
