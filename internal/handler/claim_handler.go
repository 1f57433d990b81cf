package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-lostfound-api/internal/dto"
	"github.com/noah-isme/campus-lostfound-api/internal/models"
	appErrors "github.com/noah-isme/campus-lostfound-api/pkg/errors"
	"github.com/noah-isme/campus-lostfound-api/pkg/response"
)

type claimService interface {
	Create(ctx context.Context, req dto.CreateClaimRequest, actor *models.JWTClaims) (*models.Claim, error)
	Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.Claim, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Claim, error)
	List(ctx context.Context, query dto.ClaimQuery, actor *models.JWTClaims) ([]models.Claim, error)
	CheckAvailability(ctx context.Context, foundItemID string) (*dto.AvailabilityResponse, error)
}

// ClaimHandler exposes REST endpoints for ownership claims.
type ClaimHandler struct {
	service claimService
}

// NewClaimHandler constructs the handler.
func NewClaimHandler(service claimService) *ClaimHandler {
	return &ClaimHandler{service: service}
}

// Create godoc
// @Summary Stake a claim on a found item
// @Tags Claims
// @Accept json
// @Produce json
// @Param payload body dto.CreateClaimRequest true "Claim payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /claims [post]
func (h *ClaimHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "claim service not configured"))
		return
	}
	var req dto.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid claim payload"))
		return
	}
	claim, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, claim, nil)
}

// List godoc
// @Summary List claims
// @Tags Claims
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param foundItemId query string false "Found item ID"
// @Param studentId query string false "Student ID (office only)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /claims [get]
func (h *ClaimHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "claim service not configured"))
		return
	}
	query := dto.ClaimQuery{
		FoundItemID: strings.TrimSpace(c.Query("foundItemId")),
		StudentID:   strings.TrimSpace(c.Query("studentId")),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "pageSize", 50),
	}
	for _, status := range splitUpper(c.Query("status")) {
		query.Status = append(query.Status, models.ClaimStatus(status))
	}
	claims, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claims, nil)
}

// Get godoc
// @Summary Get claim detail
// @Tags Claims
// @Produce json
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /claims/{id} [get]
func (h *ClaimHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "claim service not configured"))
		return
	}
	claim, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claim, nil)
}

// Cancel godoc
// @Summary Cancel a pending claim
// @Tags Claims
// @Produce json
// @Param id path string true "Claim ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /claims/{id}/cancel [post]
func (h *ClaimHandler) Cancel(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "claim service not configured"))
		return
	}
	claim, err := h.service.Cancel(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claim, nil)
}

// Availability godoc
// @Summary Check whether an item can be claimed
// @Tags Claims
// @Produce json
// @Param id path string true "Found item ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /items/{id}/availability [get]
func (h *ClaimHandler) Availability(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "claim service not configured"))
		return
	}
	result, err := h.service.CheckAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
