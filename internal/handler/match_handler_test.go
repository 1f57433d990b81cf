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

type matchServiceMock struct {
	createResp    *models.MatchRequest
	createErr     error
	confirmResp   *models.MatchRequest
	confirmErr    error
	rejectResp    *models.MatchRequest
	rejectErr     error
	resolveResp   *models.ReturnReceipt
	resolveErr    error
	listResp      []models.MatchRequest
	listErr       error
	confirmCalled bool
	resolveCalled bool
}

func (m *matchServiceMock) Create(ctx context.Context, req dto.CreateMatchRequest, actor *models.JWTClaims) (*models.MatchRequest, error) {
	return m.createResp, m.createErr
}

func (m *matchServiceMock) Confirm(ctx context.Context, id string, req dto.ConfirmMatchRequest, actor *models.JWTClaims) (*models.MatchRequest, error) {
	m.confirmCalled = true
	return m.confirmResp, m.confirmErr
}

func (m *matchServiceMock) Reject(ctx context.Context, id string, req dto.RejectMatchRequest, actor *models.JWTClaims) (*models.MatchRequest, error) {
	return m.rejectResp, m.rejectErr
}

func (m *matchServiceMock) Resolve(ctx context.Context, id string, req dto.ResolveMatchRequest, actor *models.JWTClaims) (*models.ReturnReceipt, error) {
	m.resolveCalled = true
	return m.resolveResp, m.resolveErr
}

func (m *matchServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.MatchRequest, error) {
	return m.createResp, m.createErr
}

func (m *matchServiceMock) List(ctx context.Context, query dto.MatchQuery, actor *models.JWTClaims) ([]models.MatchRequest, error) {
	return m.listResp, m.listErr
}

func TestMatchHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &matchServiceMock{
		createResp: &models.MatchRequest{ID: "match-1", Status: models.MatchStatusPending},
	}
	handler := NewMatchHandler(mockSvc)

	studentID := "22222222-2222-4222-8222-222222222222"
	payload, _ := json.Marshal(dto.CreateMatchRequest{
		FoundItemID: "11111111-1111-4111-8111-111111111111",
		StudentID:   &studentID,
		Reason:      "serial number matches",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/matches", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	staffContext(c)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestMatchHandlerConfirm(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &matchServiceMock{
		confirmResp: &models.MatchRequest{ID: "match-1", Status: models.MatchStatusConfirmed},
	}
	handler := NewMatchHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/matches/match-1/confirm", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "match-1"}}
	studentContext(c)

	handler.Confirm(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.confirmCalled)
}

func TestMatchHandlerConfirmExpired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &matchServiceMock{confirmErr: appErrors.ErrInvalidState}
	handler := NewMatchHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/matches/match-1/confirm", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "match-1"}}
	studentContext(c)

	handler.Confirm(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestMatchHandlerResolve(t *testing.T) {
	gin.SetMode(gin.TestMode)
	matchID := "match-1"
	mockSvc := &matchServiceMock{
		resolveResp: &models.ReturnReceipt{ID: "receipt-1", MatchRequestID: &matchID},
	}
	handler := NewMatchHandler(mockSvc)

	payload, _ := json.Marshal(dto.ResolveMatchRequest{
		Recipient: models.ConfirmedIdentity{FullName: "Dana Whitfield", DocumentNumber: "STU-4471"},
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/matches/match-1/resolve", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "match-1"}}
	staffContext(c)

	handler.Resolve(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.resolveCalled)
}

func TestMatchHandlerRejectInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMatchHandler(&matchServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/matches/match-1/reject", bytes.NewBufferString(`{"reason":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "match-1"}}
	studentContext(c)

	handler.Reject(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
