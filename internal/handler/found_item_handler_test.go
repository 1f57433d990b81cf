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

type foundItemServiceMock struct {
	registerResp *models.FoundItem
	registerErr  error
	getResp      *models.FoundItem
	getErr       error
	listResp     []models.FoundItem
	listPage     *models.Pagination
	listErr      error
	disposeResp  *models.FoundItem
	disposeErr   error
	caseResp     *dto.RecoveryCase
	caseErr      error
	lastQuery    dto.FoundItemQuery
}

func (m *foundItemServiceMock) Register(ctx context.Context, req dto.RegisterFoundItemRequest, actor *models.JWTClaims) (*models.FoundItem, error) {
	return m.registerResp, m.registerErr
}

func (m *foundItemServiceMock) Get(ctx context.Context, id string) (*models.FoundItem, error) {
	return m.getResp, m.getErr
}

func (m *foundItemServiceMock) List(ctx context.Context, query dto.FoundItemQuery) ([]models.FoundItem, *models.Pagination, error) {
	m.lastQuery = query
	return m.listResp, m.listPage, m.listErr
}

func (m *foundItemServiceMock) Dispose(ctx context.Context, id string, actor *models.JWTClaims) (*models.FoundItem, error) {
	return m.disposeResp, m.disposeErr
}

func (m *foundItemServiceMock) Case(ctx context.Context, id string) (*dto.RecoveryCase, error) {
	return m.caseResp, m.caseErr
}

func TestFoundItemHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &foundItemServiceMock{
		registerResp: &models.FoundItem{ID: "item-1", Status: models.FoundItemStatusUnclaimed},
	}
	handler := NewFoundItemHandler(mockSvc)

	payload, _ := json.Marshal(dto.RegisterFoundItemRequest{
		Name:     "black umbrella",
		Category: "ACCESSORY",
		Location: "library entrance",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	staffContext(c)

	handler.Register(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "item-1")
}

func TestFoundItemHandlerRegisterInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFoundItemHandler(&foundItemServiceMock{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	staffContext(c)

	handler.Register(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFoundItemHandlerListParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &foundItemServiceMock{
		listResp: []models.FoundItem{},
		listPage: &models.Pagination{Page: 2, PageSize: 10},
	}
	handler := NewFoundItemHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/items?status=unclaimed,matched&campus=NORTH&search=umbrella&page=2&pageSize=10", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	studentContext(c)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, []models.FoundItemStatus{
		models.FoundItemStatusUnclaimed,
		models.FoundItemStatusMatched,
	}, mockSvc.lastQuery.Status)
	assert.Equal(t, "NORTH", mockSvc.lastQuery.Campus)
	assert.Equal(t, "umbrella", mockSvc.lastQuery.Search)
	assert.Equal(t, 2, mockSvc.lastQuery.Page)
	assert.Equal(t, 10, mockSvc.lastQuery.PageSize)
}

func TestFoundItemHandlerCase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &foundItemServiceMock{
		caseResp: &dto.RecoveryCase{
			Item: models.FoundItem{ID: "item-1", Status: models.FoundItemStatusMatched},
		},
	}
	handler := NewFoundItemHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/item-1/case", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "item-1"}}
	staffContext(c)

	handler.Case(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "MATCHED")
}

func TestFoundItemHandlerDisposeHeldItem(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &foundItemServiceMock{
		disposeErr: appErrors.Clone(appErrors.ErrInvalidState, "item is reserved"),
	}
	handler := NewFoundItemHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/item-1/dispose", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "item-1"}}
	staffContext(c)

	handler.Dispose(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrInvalidState.Code)
}
