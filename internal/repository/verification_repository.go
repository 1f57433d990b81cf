package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-lostfound-api/internal/models"
)

// VerificationRepository persists verification requests and decisions.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository constructs the repository.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

const verificationColumns = `id, claim_id, requested_by, status, created_at, updated_at`

// Create inserts a verification request unless an open one already
// exists for the claim. The WHERE NOT EXISTS guard runs in the same
// statement, so two concurrent escalations cannot both insert.
func (r *VerificationRepository) Create(ctx context.Context, req *models.VerificationRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.VerificationStatusPending
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	const query = `INSERT INTO verification_requests (id, claim_id, requested_by, status, created_at, updated_at)
	SELECT $1, $2, $3, $4, $5, $5
	WHERE NOT EXISTS (
		SELECT 1 FROM verification_requests WHERE claim_id = $2 AND status = 'PENDING'
	)`
	result, err := r.db.ExecContext(ctx, query, req.ID, req.ClaimID, req.RequestedBy, req.Status, now)
	if err != nil {
		return fmt.Errorf("create verification request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check verification insert rows: %w", err)
	}
	if rows == 0 {
		return ErrStateConflict
	}
	return nil
}

// GetByID fetches a verification request by identifier.
func (r *VerificationRepository) GetByID(ctx context.Context, id string) (*models.VerificationRequest, error) {
	query := `SELECT ` + verificationColumns + ` FROM verification_requests WHERE id = $1`
	var req models.VerificationRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByClaim returns the most recent verification request for a claim.
func (r *VerificationRepository) GetByClaim(ctx context.Context, claimID string) (*models.VerificationRequest, error) {
	query := `SELECT ` + verificationColumns + ` FROM verification_requests WHERE claim_id = $1 ORDER BY created_at DESC LIMIT 1`
	var req models.VerificationRequest
	if err := r.db.GetContext(ctx, &req, query, claimID); err != nil {
		return nil, err
	}
	return &req, nil
}

// GetDecision returns the recorded decision for a request, if any.
func (r *VerificationRepository) GetDecision(ctx context.Context, requestID string) (*models.VerificationDecision, error) {
	const query = `SELECT id, verification_request_id, decided_by, decision, comment, created_at
	FROM verification_decisions WHERE verification_request_id = $1`
	var decision models.VerificationDecision
	if err := r.db.GetContext(ctx, &decision, query, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &decision, nil
}

// Decide records the decision and applies the claim (and, on reject,
// item) transition in one transaction. The request CAS
// (PENDING -> DECIDED) makes double decisions impossible.
func (r *VerificationRepository) Decide(ctx context.Context, req *models.VerificationRequest, claim *models.Claim, decision *models.VerificationDecision) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin verification decision: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const swap = `UPDATE verification_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	if err := execStateSwap(ctx, tx, swap, models.VerificationStatusDecided, now, req.ID, models.VerificationStatusPending); err != nil {
		return err
	}

	if decision.ID == "" {
		decision.ID = uuid.NewString()
	}
	decision.CreatedAt = now
	const insert = `INSERT INTO verification_decisions (id, verification_request_id, decided_by, decision, comment, created_at)
	VALUES (:id, :verification_request_id, :decided_by, :decision, :comment, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, decision); err != nil {
		return fmt.Errorf("insert verification decision: %w", err)
	}

	if decision.Decision == models.VerificationApprove {
		if err := updateClaimStatus(ctx, tx, claim.ID, models.ClaimStatusPending, models.ClaimStatusApproved, &decision.DecidedBy); err != nil {
			return err
		}
	} else {
		if err := updateClaimStatus(ctx, tx, claim.ID, models.ClaimStatusPending, models.ClaimStatusRejected, &decision.DecidedBy); err != nil {
			return err
		}
		active, err := countActiveForItem(ctx, tx, claim.FoundItemID)
		if err != nil {
			return err
		}
		if active == 0 {
			if err := updateItemStatus(ctx, tx, claim.FoundItemID, models.FoundItemStatusMatched, models.FoundItemStatusUnclaimed); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verification decision: %w", err)
	}
	commit = true
	return nil
}
