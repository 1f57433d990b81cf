package service

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-lostfound-api/internal/dto"
	"github.com/noah-isme/campus-lostfound-api/internal/models"
	appErrors "github.com/noah-isme/campus-lostfound-api/pkg/errors"
	"github.com/noah-isme/campus-lostfound-api/pkg/jobs"
)

type receiptRepoStub struct {
	receipts  map[string]*models.ReturnReceipt
	byClaim   map[string]*models.ReturnReceipt
	createErr error
	paths     map[string]string
}

func newReceiptRepoStub() *receiptRepoStub {
	return &receiptRepoStub{
		receipts: make(map[string]*models.ReturnReceipt),
		byClaim:  make(map[string]*models.ReturnReceipt),
		paths:    make(map[string]string),
	}
}

func (s *receiptRepoStub) CreateForClaim(ctx context.Context, receipt *models.ReturnReceipt, lostReportID *string) error {
	if s.createErr != nil {
		return s.createErr
	}
	receipt.ID = "receipt-1"
	receipt.ReturnedAt = time.Now().UTC()
	s.receipts[receipt.ID] = receipt
	if receipt.ClaimID != nil {
		s.byClaim[*receipt.ClaimID] = receipt
	}
	return nil
}

func (s *receiptRepoStub) GetByID(ctx context.Context, id string) (*models.ReturnReceipt, error) {
	if receipt, ok := s.receipts[id]; ok {
		copy := *receipt
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *receiptRepoStub) GetByClaim(ctx context.Context, claimID string) (*models.ReturnReceipt, error) {
	if receipt, ok := s.byClaim[claimID]; ok {
		copy := *receipt
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *receiptRepoStub) List(ctx context.Context, filter models.ReceiptFilter) ([]models.ReturnReceipt, error) {
	result := make([]models.ReturnReceipt, 0, len(s.receipts))
	for _, receipt := range s.receipts {
		result = append(result, *receipt)
	}
	return result, nil
}

func (s *receiptRepoStub) SetDocumentPath(ctx context.Context, id, path string) error {
	s.paths[id] = path
	if receipt, ok := s.receipts[id]; ok {
		receipt.DocumentPath = &path
	}
	return nil
}

type queueStub struct {
	jobs []jobs.Job
}

func (s *queueStub) Enqueue(job jobs.Job) error {
	s.jobs = append(s.jobs, job)
	return nil
}

type storageStub struct {
	saved map[string][]byte
}

func newStorageStub() *storageStub {
	return &storageStub{saved: make(map[string][]byte)}
}

func (s *storageStub) Save(filename string, data []byte) (string, error) {
	s.saved[filename] = data
	return "receipts/" + filename, nil
}

func (s *storageStub) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

type signerStub struct{}

func (signerStub) Generate(receiptID, relPath string) (string, time.Time, error) {
	return "signed-token", time.Now().UTC().Add(15 * time.Minute), nil
}

func (signerStub) Parse(token string, allowExpired bool) (string, string, time.Time, error) {
	if token != "signed-token" {
		return "", "", time.Time{}, appErrors.ErrUnauthorized
	}
	return "receipt-1", "receipts/receipt-1.pdf", time.Now().UTC().Add(15 * time.Minute), nil
}

func approvedClaimReader(claimID, studentID string) *claimRepoStub {
	repo := newClaimRepoStub()
	repo.claims[claimID] = &models.Claim{
		ID:          claimID,
		FoundItemID: testItemID,
		StudentID:   studentID,
		Status:      models.ClaimStatusApproved,
	}
	return repo
}

func TestReturnServiceCreateReceipt(t *testing.T) {
	repo := newReceiptRepoStub()
	claims := approvedClaimReader(testClaimID, "student-1")
	queue := &queueStub{}
	audit := &auditStub{}

	svc := NewReturnService(repo, claims, newMatchRepoStub(), newItemReaderStub(), newCacheStub(), audit, &metricsStub{}, newStorageStub(), signerStub{}, nil, nil)
	svc.SetQueue(queue)

	receipt, err := svc.CreateReceipt(context.Background(), dto.CreateReceiptRequest{
		ClaimID:   testClaimID,
		Recipient: models.ConfirmedIdentity{FullName: "Dana Whitfield", DocumentNumber: "STU-4471"},
	}, staffClaims("staff-1"))
	require.NoError(t, err)
	require.NotNil(t, receipt.ClaimID)
	require.Equal(t, testClaimID, *receipt.ClaimID)
	require.Len(t, queue.jobs, 1)
	require.Equal(t, JobTypeReceiptRender, queue.jobs[0].Type)
	require.Equal(t, receipt.ID, queue.jobs[0].Payload)
	require.Len(t, audit.logs, 1)
}

func TestReturnServiceCreateReceiptRequiresApprovedClaim(t *testing.T) {
	claims := newClaimRepoStub()
	claims.claims[testClaimID] = &models.Claim{ID: testClaimID, StudentID: "student-1", Status: models.ClaimStatusPending}

	svc := NewReturnService(newReceiptRepoStub(), claims, newMatchRepoStub(), newItemReaderStub(), newCacheStub(), &auditStub{}, nil, newStorageStub(), signerStub{}, nil, nil)

	_, err := svc.CreateReceipt(context.Background(), dto.CreateReceiptRequest{
		ClaimID:   testClaimID,
		Recipient: models.ConfirmedIdentity{FullName: "Dana Whitfield", DocumentNumber: "STU-4471"},
	}, staffClaims("staff-1"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestReturnServiceCreateReceiptDuplicate(t *testing.T) {
	repo := newReceiptRepoStub()
	claimID := testClaimID
	repo.byClaim[claimID] = &models.ReturnReceipt{ID: "receipt-1", ClaimID: &claimID}
	claims := approvedClaimReader(testClaimID, "student-1")

	svc := NewReturnService(repo, claims, newMatchRepoStub(), newItemReaderStub(), newCacheStub(), &auditStub{}, nil, newStorageStub(), signerStub{}, nil, nil)

	_, err := svc.CreateReceipt(context.Background(), dto.CreateReceiptRequest{
		ClaimID:   testClaimID,
		Recipient: models.ConfirmedIdentity{FullName: "Dana Whitfield", DocumentNumber: "STU-4471"},
	}, staffClaims("staff-1"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestReturnServiceHandleRenderJob(t *testing.T) {
	repo := newReceiptRepoStub()
	claimID := testClaimID
	repo.receipts["receipt-1"] = &models.ReturnReceipt{
		ID:                "receipt-1",
		ClaimID:           &claimID,
		FoundItemID:       testItemID,
		HandledBy:         "staff-1",
		RecipientName:     "Dana Whitfield",
		RecipientDocument: "STU-4471",
		ReturnedAt:        time.Now().UTC(),
	}
	items := newItemReaderStub()
	items.items[testItemID] = &models.FoundItem{ID: testItemID, Name: "Blue Backpack", Category: "BAG", Campus: "NORTH"}
	storage := newStorageStub()

	svc := NewReturnService(repo, newClaimRepoStub(), newMatchRepoStub(), items, newCacheStub(), &auditStub{}, nil, storage, signerStub{}, nil, nil)

	err := svc.HandleRenderJob(context.Background(), jobs.Job{ID: "job-1", Type: JobTypeReceiptRender, Payload: "receipt-1"})
	require.NoError(t, err)
	require.NotEmpty(t, storage.saved["receipt-1.pdf"])
	require.Equal(t, "receipts/receipt-1.pdf", repo.paths["receipt-1"])
}

func TestReturnServiceHandleRenderJobBadPayload(t *testing.T) {
	svc := NewReturnService(newReceiptRepoStub(), newClaimRepoStub(), newMatchRepoStub(), newItemReaderStub(), newCacheStub(), &auditStub{}, nil, newStorageStub(), signerStub{}, nil, nil)

	err := svc.HandleRenderJob(context.Background(), jobs.Job{ID: "job-1", Type: JobTypeReceiptRender, Payload: 42})
	require.Error(t, err)
}

func TestReturnServiceGetScopesByClaimOwner(t *testing.T) {
	repo := newReceiptRepoStub()
	claimID := testClaimID
	repo.receipts["receipt-1"] = &models.ReturnReceipt{ID: "receipt-1", ClaimID: &claimID, FoundItemID: testItemID}
	claims := approvedClaimReader(testClaimID, "student-1")

	svc := NewReturnService(repo, claims, newMatchRepoStub(), newItemReaderStub(), newCacheStub(), &auditStub{}, nil, newStorageStub(), signerStub{}, nil, nil)

	_, err := svc.Get(context.Background(), "receipt-1", studentClaims("student-1"))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "receipt-1", studentClaims("student-2"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestReturnServiceGetScopesByMatchOwner(t *testing.T) {
	repo := newReceiptRepoStub()
	matchID := "match-1"
	repo.receipts["receipt-1"] = &models.ReturnReceipt{ID: "receipt-1", MatchRequestID: &matchID, FoundItemID: testItemID}
	matches := newMatchRepoStub()
	matches.matches[matchID] = &models.MatchRequest{ID: matchID, StudentID: "student-1", Status: models.MatchStatusCompleted}

	svc := NewReturnService(repo, newClaimRepoStub(), matches, newItemReaderStub(), newCacheStub(), &auditStub{}, nil, newStorageStub(), signerStub{}, nil, nil)

	_, err := svc.Get(context.Background(), "receipt-1", studentClaims("student-1"))
	require.NoError(t, err)
}

func TestReturnServiceDownload(t *testing.T) {
	repo := newReceiptRepoStub()
	path := "receipts/receipt-1.pdf"
	repo.receipts["receipt-1"] = &models.ReturnReceipt{ID: "receipt-1", DocumentPath: &path}

	svc := NewReturnService(repo, newClaimRepoStub(), newMatchRepoStub(), newItemReaderStub(), newCacheStub(), &auditStub{}, nil, newStorageStub(), signerStub{}, nil, nil)

	download, err := svc.Download(context.Background(), "receipt-1", staffClaims("staff-1"))
	require.NoError(t, err)
	require.Equal(t, "/api/v1/receipts/download/signed-token", download.URL)
	require.False(t, download.ExpiresAt.IsZero())
}

func TestReturnServiceDownloadBeforeRender(t *testing.T) {
	repo := newReceiptRepoStub()
	repo.receipts["receipt-1"] = &models.ReturnReceipt{ID: "receipt-1"}

	svc := NewReturnService(repo, newClaimRepoStub(), newMatchRepoStub(), newItemReaderStub(), newCacheStub(), &auditStub{}, nil, newStorageStub(), signerStub{}, nil, nil)

	_, err := svc.Download(context.Background(), "receipt-1", staffClaims("staff-1"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestReturnServiceExportCSV(t *testing.T) {
	repo := newReceiptRepoStub()
	claimID := testClaimID
	repo.receipts["receipt-1"] = &models.ReturnReceipt{
		ID:                "receipt-1",
		ClaimID:           &claimID,
		FoundItemID:       testItemID,
		HandledBy:         "staff-1",
		RecipientName:     "Dana Whitfield",
		RecipientDocument: "STU-4471",
		ReturnedAt:        time.Now().UTC(),
	}

	svc := NewReturnService(repo, newClaimRepoStub(), newMatchRepoStub(), newItemReaderStub(), newCacheStub(), &auditStub{}, nil, newStorageStub(), signerStub{}, nil, nil)

	data, err := svc.ExportCSV(context.Background(), dto.ReceiptQuery{}, staffClaims("staff-1"))
	require.NoError(t, err)
	body := string(data)
	require.True(t, strings.HasPrefix(body, "receipt_id,found_item_id,recipient"))
	require.Contains(t, body, "Dana Whitfield")

	_, err = svc.ExportCSV(context.Background(), dto.ReceiptQuery{}, studentClaims("student-1"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
