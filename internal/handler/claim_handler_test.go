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
	"github.com/noah-isme/campus-lostfound-api/internal/middleware"
	"github.com/noah-isme/campus-lostfound-api/internal/models"
	appErrors "github.com/noah-isme/campus-lostfound-api/pkg/errors"
)

type claimServiceMock struct {
	createResp   *models.Claim
	createErr    error
	cancelResp   *models.Claim
	cancelErr    error
	listResp     []models.Claim
	listErr      error
	availResp    *dto.AvailabilityResponse
	availErr     error
	lastQuery    dto.ClaimQuery
	createCalled bool
	cancelCalled bool
	listCalled   bool
}

func (m *claimServiceMock) Create(ctx context.Context, req dto.CreateClaimRequest, actor *models.JWTClaims) (*models.Claim, error) {
	m.createCalled = true
	return m.createResp, m.createErr
}

func (m *claimServiceMock) Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.Claim, error) {
	m.cancelCalled = true
	return m.cancelResp, m.cancelErr
}

func (m *claimServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Claim, error) {
	return m.createResp, m.createErr
}

func (m *claimServiceMock) List(ctx context.Context, query dto.ClaimQuery, actor *models.JWTClaims) ([]models.Claim, error) {
	m.listCalled = true
	m.lastQuery = query
	return m.listResp, m.listErr
}

func (m *claimServiceMock) CheckAvailability(ctx context.Context, foundItemID string) (*dto.AvailabilityResponse, error) {
	return m.availResp, m.availErr
}

func studentContext(c *gin.Context) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})
}

func TestClaimHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &claimServiceMock{
		createResp: &models.Claim{ID: "claim-1", Status: models.ClaimStatusPending},
	}
	handler := NewClaimHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateClaimRequest{
		FoundItemID: "11111111-1111-4111-8111-111111111111",
		Description: "blue backpack",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/claims", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	studentContext(c)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.createCalled)
}

func TestClaimHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewClaimHandler(&claimServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/claims", bytes.NewBufferString(`{"foundItemId":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	studentContext(c)

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClaimHandlerCreateConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &claimServiceMock{createErr: appErrors.ErrItemUnavailable}
	handler := NewClaimHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateClaimRequest{
		FoundItemID: "11111111-1111-4111-8111-111111111111",
		Description: "blue backpack",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/claims", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	studentContext(c)

	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestClaimHandlerListParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &claimServiceMock{listResp: []models.Claim{{ID: "claim-1"}}}
	handler := NewClaimHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/claims?status=pending,approved&page=2&pageSize=10", nil)
	c.Request = req
	studentContext(c)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.listCalled)
	assert.Equal(t, []models.ClaimStatus{models.ClaimStatusPending, models.ClaimStatusApproved}, mockSvc.lastQuery.Status)
	assert.Equal(t, 2, mockSvc.lastQuery.Page)
	assert.Equal(t, 10, mockSvc.lastQuery.PageSize)
}

func TestClaimHandlerCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &claimServiceMock{
		cancelResp: &models.Claim{ID: "claim-1", Status: models.ClaimStatusCancelled},
	}
	handler := NewClaimHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/claims/claim-1/cancel", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "claim-1"}}
	studentContext(c)

	handler.Cancel(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.cancelCalled)
}

func TestClaimHandlerAvailability(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &claimServiceMock{
		availResp: &dto.AvailabilityResponse{FoundItemID: "item-1", Available: true},
	}
	handler := NewClaimHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/items/item-1/availability", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "item-1"}}
	studentContext(c)

	handler.Availability(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":true`)
}
