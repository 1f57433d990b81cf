package handler

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-lostfound-api/internal/dto"
	"github.com/noah-isme/campus-lostfound-api/internal/models"
	appErrors "github.com/noah-isme/campus-lostfound-api/pkg/errors"
	"github.com/noah-isme/campus-lostfound-api/pkg/response"
)

type returnService interface {
	CreateReceipt(ctx context.Context, req dto.CreateReceiptRequest, actor *models.JWTClaims) (*models.ReturnReceipt, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ReturnReceipt, error)
	List(ctx context.Context, query dto.ReceiptQuery, actor *models.JWTClaims) ([]models.ReturnReceipt, error)
	Download(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ReceiptDownload, error)
	OpenDocument(token string) (*os.File, error)
	ExportCSV(ctx context.Context, query dto.ReceiptQuery, actor *models.JWTClaims) ([]byte, error)
}

// ReceiptHandler exposes REST endpoints for return receipts.
type ReceiptHandler struct {
	service returnService
}

// NewReceiptHandler constructs the handler.
func NewReceiptHandler(service returnService) *ReceiptHandler {
	return &ReceiptHandler{service: service}
}

// Create godoc
// @Summary Issue a return receipt for an approved claim
// @Tags Receipts
// @Accept json
// @Produce json
// @Param payload body dto.CreateReceiptRequest true "Receipt payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /receipts [post]
func (h *ReceiptHandler) Create(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "return service not configured"))
		return
	}
	var req dto.CreateReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid receipt payload"))
		return
	}
	receipt, err := h.service.CreateReceipt(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, receipt, nil)
}

// List godoc
// @Summary List return receipts
// @Tags Receipts
// @Produce json
// @Param handledBy query string false "Handler user ID (office only)"
// @Param foundItemId query string false "Found item ID"
// @Param from query string false "RFC3339 lower bound on returned_at"
// @Param to query string false "RFC3339 upper bound on returned_at"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /receipts [get]
func (h *ReceiptHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "return service not configured"))
		return
	}
	query, err := receiptQueryFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	receipts, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipts, nil)
}

// Get godoc
// @Summary Get receipt detail
// @Tags Receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /receipts/{id} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "return service not configured"))
		return
	}
	receipt, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, receipt, nil)
}

// Download godoc
// @Summary Get a signed link for the receipt PDF
// @Tags Receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /receipts/{id}/download [get]
func (h *ReceiptHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "return service not configured"))
		return
	}
	link, err := h.service.Download(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// ServeDocument godoc
// @Summary Serve a receipt PDF by signed token
// @Tags Receipts
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /receipts/download/{token} [get]
func (h *ReceiptHandler) ServeDocument(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "return service not configured"))
		return
	}
	file, err := h.service.OpenDocument(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", `attachment; filename="receipt.pdf"`)
	c.File(file.Name())
}

// Export godoc
// @Summary Export receipts as CSV
// @Tags Receipts
// @Produce text/csv
// @Param from query string false "RFC3339 lower bound on returned_at"
// @Param to query string false "RFC3339 upper bound on returned_at"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /receipts/export [get]
func (h *ReceiptHandler) Export(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "return service not configured"))
		return
	}
	query, err := receiptQueryFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.service.ExportCSV(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="receipts.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

func receiptQueryFromContext(c *gin.Context) (dto.ReceiptQuery, error) {
	query := dto.ReceiptQuery{
		HandledBy:   strings.TrimSpace(c.Query("handledBy")),
		FoundItemID: strings.TrimSpace(c.Query("foundItemId")),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "pageSize", 50),
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "invalid from timestamp")
		}
		query.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "invalid to timestamp")
		}
		query.To = &to
	}
	return query, nil
}
