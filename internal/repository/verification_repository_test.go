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

func TestVerificationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.VerificationRequest{ClaimID: "claim-1", RequestedBy: "staff-1"}
	require.NoError(t, repo.Create(context.Background(), req))
	require.NotEmpty(t, req.ID)
	require.Equal(t, models.VerificationStatusPending, req.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryCreateOpenRequestExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), &models.VerificationRequest{
		ClaimID:     "claim-1",
		RequestedBy: "staff-1",
	})
	require.ErrorIs(t, err, ErrStateConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryDecideApprove(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE verification_requests SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_decisions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE claims SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := &models.VerificationRequest{ID: "req-1", ClaimID: "claim-1"}
	claim := &models.Claim{ID: "claim-1", FoundItemID: "item-1"}
	decision := &models.VerificationDecision{
		VerificationRequestID: "req-1",
		DecidedBy:             "security-1",
		Decision:              models.VerificationApprove,
	}
	require.NoError(t, repo.Decide(context.Background(), req, claim, decision))
	require.NotEmpty(t, decision.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryDecideRejectReleasesItem(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE verification_requests SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO verification_decisions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE claims SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE found_items SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := &models.VerificationRequest{ID: "req-1", ClaimID: "claim-1"}
	claim := &models.Claim{ID: "claim-1", FoundItemID: "item-1"}
	decision := &models.VerificationDecision{
		VerificationRequestID: "req-1",
		DecidedBy:             "security-1",
		Decision:              models.VerificationReject,
		Comment:               "document mismatch",
	}
	require.NoError(t, repo.Decide(context.Background(), req, claim, decision))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryDecideAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE verification_requests SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Decide(context.Background(),
		&models.VerificationRequest{ID: "req-1", ClaimID: "claim-1"},
		&models.Claim{ID: "claim-1", FoundItemID: "item-1"},
		&models.VerificationDecision{Decision: models.VerificationApprove, DecidedBy: "security-1"})
	require.ErrorIs(t, err, ErrStateConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryGetDecisionMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "verification_request_id", "decided_by", "decision", "comment", "created_at",
		}))

	decision, err := repo.GetDecision(context.Background(), "req-1")
	require.NoError(t, err)
	require.Nil(t, decision)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepositoryGetByClaim(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewVerificationRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "claim_id", "requested_by", "status", "created_at", "updated_at",
	}).AddRow("req-1", "claim-1", "staff-1", "PENDING", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WithArgs("claim-1").
		WillReturnRows(rows)

	req, err := repo.GetByClaim(context.Background(), "claim-1")
	require.NoError(t, err)
	require.Equal(t, "req-1", req.ID)
	require.Equal(t, models.VerificationStatusPending, req.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
