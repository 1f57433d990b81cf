package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-lostfound-api/internal/models"
)

func TestReceiptRepositoryCreateForClaim(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReceiptRepository(db)
	reportID := "report-1"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE found_items SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lost_reports SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO return_receipts")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	claimID := "claim-1"
	receipt := &models.ReturnReceipt{
		ClaimID:           &claimID,
		FoundItemID:       "item-1",
		HandledBy:         "staff-1",
		RecipientName:     "Dana Whitfield",
		RecipientDocument: "STU-4471",
	}
	require.NoError(t, repo.CreateForClaim(context.Background(), receipt, &reportID))
	require.NotEmpty(t, receipt.ID)
	require.False(t, receipt.ReturnedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptRepositoryCreateForClaimItemConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReceiptRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE found_items SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	claimID := "claim-1"
	err := repo.CreateForClaim(context.Background(), &models.ReturnReceipt{
		ClaimID:     &claimID,
		FoundItemID: "item-1",
	}, nil)
	require.ErrorIs(t, err, ErrItemConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptRepositoryGetByClaim(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReceiptRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "claim_id", "match_request_id", "found_item_id", "handled_by", "witnessed_by", "recipient_name", "recipient_document", "recipient_phone", "document_path", "returned_at", "created_at"}).
		AddRow("receipt-1", "claim-1", nil, "item-1", "staff-1", nil, "Dana Whitfield", "STU-4471", "", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, claim_id, match_request_id")).
		WithArgs("claim-1").
		WillReturnRows(rows)

	receipt, err := repo.GetByClaim(context.Background(), "claim-1")
	require.NoError(t, err)
	require.Equal(t, "receipt-1", receipt.ID)
	require.NotNil(t, receipt.ClaimID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptRepositoryListScopesStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReceiptRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "claim_id", "match_request_id", "found_item_id", "handled_by", "witnessed_by", "recipient_name", "recipient_document", "recipient_phone", "document_path", "returned_at", "created_at"}).
		AddRow("receipt-1", nil, "match-1", "item-1", "staff-1", nil, "Dana Whitfield", "STU-4471", "", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN claims c")).
		WithArgs("student-1").
		WillReturnRows(rows)

	receipts, err := repo.List(context.Background(), models.ReceiptFilter{StudentID: "student-1"})
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	require.NotNil(t, receipts[0].MatchRequestID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiptRepositorySetDocumentPath(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReceiptRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE return_receipts SET document_path")).
		WithArgs("receipts/receipt-1.pdf", "receipt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetDocumentPath(context.Background(), "receipt-1", "receipts/receipt-1.pdf"))
	require.NoError(t, mock.ExpectationsWereMet())
}
