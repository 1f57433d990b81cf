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

type matchService interface {
	Create(ctx context.Context, req dto.CreateMatchRequest, actor *models.JWTClaims) (*models.MatchRequest, error)
	Confirm(ctx context.Context, id string, req dto.ConfirmMatchRequest, actor *models.JWTClaims) (*models.MatchRequest, error)
	Reject(ctx context.Context, id string, req dto.RejectMatchRequest, actor *models.JWTClaims) (*models.MatchRequest, error)
	Resolve(ctx context.Context, id string, req dto.ResolveMatchRequest, actor *models.JWTClaims) (*models.ReturnReceipt, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.MatchRequest, error)
	List(ctx context.Context, query dto.MatchQuery, actor *models.JWTClaims) ([]models.MatchRequest, error)
}

// MatchHandler exposes REST endpoints for match requests.
type MatchHandler struct {
	service matchService
}

// NewMatchHandler constructs the handler.
func NewMatchHandler(service matchService) *MatchHandler {
	return &MatchHandler{service: service}
}

// Create godoc
// @Summary Propose a match between an item and a student
// @Tags Matches
// @Accept json
// @Produce json
// @Param payload body dto.CreateMatchRequest true "Match payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /matches [post]
func (h *MatchHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "match service not configured"))
		return
	}
	var req dto.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid match payload"))
		return
	}
	match, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, match, nil)
}

// List godoc
// @Summary List match requests
// @Tags Matches
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param foundItemId query string false "Found item ID"
// @Param studentId query string false "Student ID (office only)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /matches [get]
func (h *MatchHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "match service not configured"))
		return
	}
	query := dto.MatchQuery{
		FoundItemID: strings.TrimSpace(c.Query("foundItemId")),
		StudentID:   strings.TrimSpace(c.Query("studentId")),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "pageSize", 50),
	}
	for _, status := range splitUpper(c.Query("status")) {
		query.Status = append(query.Status, models.MatchStatus(status))
	}
	matches, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, matches, nil)
}

// Get godoc
// @Summary Get match request detail
// @Tags Matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /matches/{id} [get]
func (h *MatchHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "match service not configured"))
		return
	}
	match, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}

// Confirm godoc
// @Summary Confirm a proposed match
// @Tags Matches
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param payload body dto.ConfirmMatchRequest true "Confirmation payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /matches/{id}/confirm [post]
func (h *MatchHandler) Confirm(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "match service not configured"))
		return
	}
	var req dto.ConfirmMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid confirmation payload"))
		return
	}
	match, err := h.service.Confirm(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}

// Reject godoc
// @Summary Reject a proposed match
// @Tags Matches
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param payload body dto.RejectMatchRequest true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /matches/{id}/reject [post]
func (h *MatchHandler) Reject(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "match service not configured"))
		return
	}
	var req dto.RejectMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid rejection payload"))
		return
	}
	match, err := h.service.Reject(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}

// Resolve godoc
// @Summary Resolve a confirmed match into a handover
// @Tags Matches
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param payload body dto.ResolveMatchRequest true "Resolution payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /matches/{id}/resolve [post]
func (h *MatchHandler) Resolve(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "match service not configured"))
		return
	}
	var req dto.ResolveMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resolution payload"))
		return
	}
	receipt, err := h.service.Resolve(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, receipt, nil)
}
