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

type foundItemService interface {
	Register(ctx context.Context, req dto.RegisterFoundItemRequest, actor *models.JWTClaims) (*models.FoundItem, error)
	Get(ctx context.Context, id string) (*models.FoundItem, error)
	List(ctx context.Context, query dto.FoundItemQuery) ([]models.FoundItem, *models.Pagination, error)
	Dispose(ctx context.Context, id string, actor *models.JWTClaims) (*models.FoundItem, error)
	Case(ctx context.Context, id string) (*dto.RecoveryCase, error)
}

// FoundItemHandler exposes REST endpoints for the found item registry.
type FoundItemHandler struct {
	service foundItemService
}

// NewFoundItemHandler constructs the handler.
func NewFoundItemHandler(service foundItemService) *FoundItemHandler {
	return &FoundItemHandler{service: service}
}

// Register godoc
// @Summary Register a recovered item
// @Tags FoundItems
// @Accept json
// @Produce json
// @Param payload body dto.RegisterFoundItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /items [post]
func (h *FoundItemHandler) Register(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "found item service not configured"))
		return
	}
	var req dto.RegisterFoundItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid item payload"))
		return
	}
	item, err := h.service.Register(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, item, nil)
}

// List godoc
// @Summary Browse registered items
// @Tags FoundItems
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param category query string false "Category"
// @Param campus query string false "Campus"
// @Param search query string false "Name or description search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /items [get]
func (h *FoundItemHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "found item service not configured"))
		return
	}
	query := dto.FoundItemQuery{
		Category: strings.TrimSpace(c.Query("category")),
		Campus:   strings.TrimSpace(c.Query("campus")),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 50),
	}
	for _, status := range splitUpper(c.Query("status")) {
		query.Status = append(query.Status, models.FoundItemStatus(status))
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get item detail
// @Tags FoundItems
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /items/{id} [get]
func (h *FoundItemHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "found item service not configured"))
		return
	}
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Case godoc
// @Summary Get the full recovery case for an item
// @Tags FoundItems
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /items/{id}/case [get]
func (h *FoundItemHandler) Case(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "found item service not configured"))
		return
	}
	recovery, err := h.service.Case(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, recovery, nil)
}

// Dispose godoc
// @Summary Dispose an unclaimed item
// @Tags FoundItems
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /items/{id}/dispose [post]
func (h *FoundItemHandler) Dispose(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "found item service not configured"))
		return
	}
	item, err := h.service.Dispose(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
