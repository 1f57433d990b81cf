package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-lostfound-api/internal/models"
)

// ClaimRepository persists ownership claims and owns the transactions
// that move a claim together with its found item.
type ClaimRepository struct {
	db *sqlx.DB
}

// NewClaimRepository constructs the repository.
func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

const claimColumns = `id, found_item_id, student_id, lost_report_id, description, status, decided_by, decided_at, created_at, updated_at`

// CreateWithReservation inserts the claim and reserves the item
// (UNCLAIMED -> MATCHED) in one transaction, closing the race window
// between availability check and insert.
func (r *ClaimRepository) CreateWithReservation(ctx context.Context, claim *models.Claim) error {
	if claim.ID == "" {
		claim.ID = uuid.NewString()
	}
	claim.Status = models.ClaimStatusPending
	now := time.Now().UTC()
	claim.CreatedAt = now
	claim.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create claim: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	if err := updateItemStatus(ctx, tx, claim.FoundItemID, models.FoundItemStatusUnclaimed, models.FoundItemStatusMatched); err != nil {
		return err
	}

	// The item CAS alone does not see pending match requests, which
	// hold the item without reserving it. Re-count inside the
	// transaction so at most one open claim or match exists per item.
	active, err := countActiveForItem(ctx, tx, claim.FoundItemID)
	if err != nil {
		return err
	}
	if active > 0 {
		return ErrItemConflict
	}

	const query = `INSERT INTO claims
	(id, found_item_id, student_id, lost_report_id, description, status, created_at, updated_at)
	VALUES (:id, :found_item_id, :student_id, :lost_report_id, :description, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, claim); err != nil {
		return fmt.Errorf("create claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create claim: %w", err)
	}
	commit = true
	return nil
}

// GetByID fetches a claim by identifier.
func (r *ClaimRepository) GetByID(ctx context.Context, id string) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = $1`
	var claim models.Claim
	if err := r.db.GetContext(ctx, &claim, query, id); err != nil {
		return nil, err
	}
	return &claim, nil
}

// List returns claims matching the filter (latest first).
func (r *ClaimRepository) List(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where = append(where, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.FoundItemID != "" {
		args = append(args, filter.FoundItemID)
		where = append(where, fmt.Sprintf("found_item_id = $%d", len(args)))
	}
	limit := filter.PageSize
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT %s FROM claims WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		claimColumns, strings.Join(where, " AND "), limit, (page-1)*limit)

	var claims []models.Claim
	if err := r.db.SelectContext(ctx, &claims, query, args...); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}

// CancelPending flips a pending claim to CANCELLED and reverts the item
// to UNCLAIMED when nothing else holds it, all in one transaction.
func (r *ClaimRepository) CancelPending(ctx context.Context, claimID, foundItemID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancel claim: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	if err := updateClaimStatus(ctx, tx, claimID, models.ClaimStatusPending, models.ClaimStatusCancelled, nil); err != nil {
		return err
	}

	active, err := countActiveForItem(ctx, tx, foundItemID)
	if err != nil {
		return err
	}
	if active == 0 {
		if err := updateItemStatus(ctx, tx, foundItemID, models.FoundItemStatusMatched, models.FoundItemStatusUnclaimed); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancel claim: %w", err)
	}
	commit = true
	return nil
}

// CountActiveForItem counts non-terminal claims and match requests
// referencing the item. The cross-entity invariant requires this to be
// at most one at any instant.
func (r *ClaimRepository) CountActiveForItem(ctx context.Context, foundItemID string) (int, error) {
	return countActiveForItem(ctx, r.db, foundItemID)
}

func countActiveForItem(ctx context.Context, ex sqlx.ExtContext, foundItemID string) (int, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM claims WHERE found_item_id = $1 AND status = 'PENDING') +
	(SELECT COUNT(*) FROM match_requests WHERE found_item_id = $1 AND status IN ('PENDING','CONFIRMED') AND expires_at > $2)`
	var count int
	if err := sqlx.GetContext(ctx, ex, &count, query, foundItemID, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("count active holds: %w", err)
	}
	return count, nil
}

// updateClaimStatus is the claim-side compare-and-swap, shared with the
// verification repository so decisions run in their own transaction.
func updateClaimStatus(ctx context.Context, ex sqlx.ExtContext, id string, from, to models.ClaimStatus, decidedBy *string) error {
	now := time.Now().UTC()
	var result sql.Result
	var err error
	if decidedBy != nil {
		const query = `UPDATE claims SET status = $1, decided_by = $2, decided_at = $3, updated_at = $3 WHERE id = $4 AND status = $5`
		result, err = ex.ExecContext(ctx, query, to, *decidedBy, now, id, from)
	} else {
		const query = `UPDATE claims SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
		result, err = ex.ExecContext(ctx, query, to, now, id, from)
	}
	if err != nil {
		return fmt.Errorf("update claim status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check claim status rows: %w", err)
	}
	if rows == 0 {
		return ErrStateConflict
	}
	return nil
}
