package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-lostfound-api/internal/dto"
	"github.com/noah-isme/campus-lostfound-api/internal/models"
	appErrors "github.com/noah-isme/campus-lostfound-api/pkg/errors"
)

type lostReportServiceMock struct {
	createResp *models.LostReport
	createErr  error
	reviewResp *models.LostReport
	reviewErr  error
	getResp    *models.LostReport
	getErr     error
	listResp   []models.LostReport
	listErr    error
	lastQuery  dto.LostReportQuery
}

func (m *lostReportServiceMock) Create(ctx context.Context, req dto.CreateLostReportRequest, actor *models.JWTClaims) (*models.LostReport, error) {
	return m.createResp, m.createErr
}

func (m *lostReportServiceMock) Review(ctx context.Context, id string, req dto.ReviewLostReportRequest, actor *models.JWTClaims) (*models.LostReport, error) {
	return m.reviewResp, m.reviewErr
}

func (m *lostReportServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LostReport, error) {
	return m.getResp, m.getErr
}

func (m *lostReportServiceMock) List(ctx context.Context, query dto.LostReportQuery, actor *models.JWTClaims) ([]models.LostReport, error) {
	m.lastQuery = query
	return m.listResp, m.listErr
}

func TestLostReportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &lostReportServiceMock{
		createResp: &models.LostReport{ID: "report-1", Status: models.LostReportStatusPending},
	}
	handler := NewLostReportHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateLostReportRequest{
		Name:     "student card",
		Category: "DOCUMENT",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	studentContext(c)

	handler.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "report-1")
}

func TestLostReportHandlerListParsesStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &lostReportServiceMock{listResp: []models.LostReport{}}
	handler := NewLostReportHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports?status=pending,verified&category=DOCUMENT", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	studentContext(c)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []models.LostReportStatus{
		models.LostReportStatusPending,
		models.LostReportStatusVerified,
	}, mockSvc.lastQuery.Status)
	assert.Equal(t, "DOCUMENT", mockSvc.lastQuery.Category)
}

func TestLostReportHandlerReview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &lostReportServiceMock{
		reviewResp: &models.LostReport{ID: "report-1", Status: models.LostReportStatusVerified},
	}
	handler := NewLostReportHandler(mockSvc)

	payload, _ := json.Marshal(dto.ReviewLostReportRequest{Status: models.LostReportStatusVerified})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/report-1/review", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "report-1"}}
	staffContext(c)

	handler.Review(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "VERIFIED")
}

func TestLostReportHandlerGetForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &lostReportServiceMock{
		getErr: appErrors.Clone(appErrors.ErrForbidden, "not your report"),
	}
	handler := NewLostReportHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/report-1", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "report-1"}}
	studentContext(c)

	handler.Get(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
