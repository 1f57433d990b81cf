package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-lostfound-api/internal/dto"
	"github.com/noah-isme/campus-lostfound-api/internal/models"
	appErrors "github.com/noah-isme/campus-lostfound-api/pkg/errors"
	"github.com/noah-isme/campus-lostfound-api/pkg/response"
)

type verificationService interface {
	Request(ctx context.Context, req dto.RequestVerificationRequest, actor *models.JWTClaims) (*models.VerificationRequest, error)
	Decide(ctx context.Context, id string, req dto.DecideVerificationRequest, actor *models.JWTClaims) (*dto.VerificationDetail, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.VerificationDetail, error)
	GetByClaim(ctx context.Context, claimID string, actor *models.JWTClaims) (*dto.VerificationDetail, error)
}

// VerificationHandler exposes REST endpoints for physical verification.
type VerificationHandler struct {
	service verificationService
}

// NewVerificationHandler constructs the handler.
func NewVerificationHandler(service verificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// Request godoc
// @Summary Escalate a claim to in-person verification
// @Tags Verifications
// @Accept json
// @Produce json
// @Param payload body dto.RequestVerificationRequest true "Verification payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /verifications [post]
func (h *VerificationHandler) Request(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "verification service not configured"))
		return
	}
	var req dto.RequestVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid verification payload"))
		return
	}
	request, err := h.service.Request(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, request, nil)
}

// Decide godoc
// @Summary Record the verification outcome
// @Tags Verifications
// @Accept json
// @Produce json
// @Param id path string true "Verification ID"
// @Param payload body dto.DecideVerificationRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /verifications/{id}/decide [post]
func (h *VerificationHandler) Decide(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "verification service not configured"))
		return
	}
	var req dto.DecideVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	detail, err := h.service.Decide(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Get godoc
// @Summary Get verification detail
// @Tags Verifications
// @Produce json
// @Param id path string true "Verification ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /verifications/{id} [get]
func (h *VerificationHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "verification service not configured"))
		return
	}
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// GetByClaim godoc
// @Summary Get the latest verification for a claim
// @Tags Verifications
// @Produce json
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /claims/{id}/verification [get]
func (h *VerificationHandler) GetByClaim(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "verification service not configured"))
		return
	}
	detail, err := h.service.GetByClaim(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}
