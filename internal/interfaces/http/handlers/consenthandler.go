package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warden-sh/warden/internal/application/governance/dto"
	"github.com/warden-sh/warden/internal/application/governance/services"
	"github.com/warden-sh/warden/internal/shared/id"
	"github.com/warden-sh/warden/internal/shared/logger"
	"github.com/warden-sh/warden/internal/shared/utils"
)

// ConsentHandler handles HTTP requests for multi-approver consent requests
type ConsentHandler struct {
	consents *services.ConsentService
	logger   logger.Interface
}

// NewConsentHandler creates a new consent handler
func NewConsentHandler(consents *services.ConsentService, logger logger.Interface) *ConsentHandler {
	return &ConsentHandler{
		consents: consents,
		logger:   logger,
	}
}

// Create handles POST /consents
func (h *ConsentHandler) Create(c *gin.Context) {
	var req dto.CreateConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	consent, err := h.consents.Create(c.Request.Context(), req)
	if err != nil {
		h.logger.Warnw("failed to create consent request",
			"error", err,
			"consent_type", req.ConsentType,
			"requested_by", req.RequestedBy,
		)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, consent)
}

// Decide handles POST /consents/:request_id/decide
// An approval counts toward the threshold; a rejection settles the request
// immediately. Requesters cannot approve their own request.
func (h *ConsentHandler) Decide(c *gin.Context) {
	requestID, err := utils.ParseSIDParam(c, "request_id", id.PrefixConsentRequest, "consent request")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req dto.DecideConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	consent, err := h.consents.Decide(c.Request.Context(), requestID, req)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", consent)
}

// Cancel handles POST /consents/:request_id/cancel
func (h *ConsentHandler) Cancel(c *gin.Context) {
	requestID, err := utils.ParseSIDParam(c, "request_id", id.PrefixConsentRequest, "consent request")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req dto.CancelConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := h.consents.Cancel(c.Request.Context(), requestID, req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "consent request cancelled", nil)
}

// Get handles GET /consents/:request_id
func (h *ConsentHandler) Get(c *gin.Context) {
	requestID, err := utils.ParseSIDParam(c, "request_id", id.PrefixConsentRequest, "consent request")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	consent, err := h.consents.Get(c.Request.Context(), requestID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", consent)
}

// State handles GET /consents/state/:consent_type
// Reports whether the consent type is currently approved, based on the most
// recently decided request of that type.
func (h *ConsentHandler) State(c *gin.Context) {
	state, err := h.consents.IsApproved(c.Request.Context(), c.Param("consent_type"))
	if err != nil {
		h.logger.Errorw("failed to get consent state", "error", err, "consent_type", c.Param("consent_type"))
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", state)
}

// List handles GET /consents
// Query parameters: consent_type, status, limit
func (h *ConsentHandler) List(c *gin.Context) {
	var req dto.ListConsentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid query: "+err.Error())
		return
	}

	result, err := h.consents.List(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to list consent requests", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// Stats handles GET /consents/stats
func (h *ConsentHandler) Stats(c *gin.Context) {
	result, err := h.consents.Stats(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to get consent stats", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
