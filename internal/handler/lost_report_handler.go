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

type lostReportService interface {
	Create(ctx context.Context, req dto.CreateLostReportRequest, actor *models.JWTClaims) (*models.LostReport, error)
	Review(ctx context.Context, id string, req dto.ReviewLostReportRequest, actor *models.JWTClaims) (*models.LostReport, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LostReport, error)
	List(ctx context.Context, query dto.LostReportQuery, actor *models.JWTClaims) ([]models.LostReport, error)
}

// LostReportHandler exposes REST endpoints for lost report intake.
type LostReportHandler struct {
	service lostReportService
}

// NewLostReportHandler constructs the handler.
func NewLostReportHandler(service lostReportService) *LostReportHandler {
	return &LostReportHandler{service: service}
}

// Create godoc
// @Summary File a lost report
// @Tags LostReports
// @Accept json
// @Produce json
// @Param payload body dto.CreateLostReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /reports [post]
func (h *LostReportHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lost report service not configured"))
		return
	}
	var req dto.CreateLostReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid report payload"))
		return
	}
	report, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, report, nil)
}

// List godoc
// @Summary List lost reports
// @Tags LostReports
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param category query string false "Category"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports [get]
func (h *LostReportHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lost report service not configured"))
		return
	}
	query := dto.LostReportQuery{
		Category: strings.TrimSpace(c.Query("category")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 50),
	}
	for _, status := range splitUpper(c.Query("status")) {
		query.Status = append(query.Status, models.LostReportStatus(status))
	}
	reports, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Get godoc
// @Summary Get lost report detail
// @Tags LostReports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/{id} [get]
func (h *LostReportHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lost report service not configured"))
		return
	}
	report, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Review godoc
// @Summary Verify or reject a pending lost report
// @Tags LostReports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body dto.ReviewLostReportRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/{id}/review [post]
func (h *LostReportHandler) Review(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "lost report service not configured"))
		return
	}
	var req dto.ReviewLostReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}
	report, err := h.service.Review(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
