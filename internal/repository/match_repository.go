package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-lostfound-api/internal/models"
)

// MatchRepository persists staff-proposed pairings and owns the
// transactions that confirm or resolve them.
type MatchRepository struct {
	db *sqlx.DB
}

// NewMatchRepository constructs the repository.
func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

const matchColumns = `id, found_item_id, student_id, lost_report_id, reason, notes, status, proposed_by, resolved_by, expires_at, created_at, updated_at`

// Create inserts a new match request. The item is deliberately not
// reserved at proposal time; only the student's confirmation flips it.
// The guarded insert still refuses to open a second hold: any pending
// claim or live match on the item blocks the proposal in the same
// statement, so two concurrent proposals cannot both land.
func (r *MatchRepository) Create(ctx context.Context, match *models.MatchRequest) error {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	match.Status = models.MatchStatusPending
	now := time.Now().UTC()
	match.CreatedAt = now
	match.UpdatedAt = now
	const query = `INSERT INTO match_requests
	(id, found_item_id, student_id, lost_report_id, reason, notes, status, proposed_by, expires_at, created_at, updated_at)
	SELECT :id, :found_item_id, :student_id, :lost_report_id, :reason, :notes, :status, :proposed_by, :expires_at, :created_at, :updated_at
	WHERE NOT EXISTS (
		SELECT 1 FROM claims WHERE found_item_id = :found_item_id AND status = 'PENDING'
	) AND NOT EXISTS (
		SELECT 1 FROM match_requests WHERE found_item_id = :found_item_id AND status IN ('PENDING','CONFIRMED') AND expires_at > :created_at
	)`
	result, err := r.db.NamedExecContext(ctx, query, match)
	if err != nil {
		return fmt.Errorf("create match request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check match request insert rows: %w", err)
	}
	if rows == 0 {
		return ErrItemConflict
	}
	return nil
}

// GetByID fetches a match request by identifier.
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*models.MatchRequest, error) {
	query := `SELECT ` + matchColumns + ` FROM match_requests WHERE id = $1`
	var match models.MatchRequest
	if err := r.db.GetContext(ctx, &match, query, id); err != nil {
		return nil, err
	}
	return &match, nil
}

// List returns match requests matching the filter (latest first).
func (r *MatchRepository) List(ctx context.Context, filter models.MatchFilter) ([]models.MatchRequest, error) {
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
	if filter.ProposedBy != "" {
		args = append(args, filter.ProposedBy)
		where = append(where, fmt.Sprintf("proposed_by = $%d", len(args)))
	}
	limit := filter.PageSize
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT %s FROM match_requests WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		matchColumns, strings.Join(where, " AND "), limit, (page-1)*limit)

	var matches []models.MatchRequest
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		return nil, fmt.Errorf("list match requests: %w", err)
	}
	return matches, nil
}

// Confirm flips a pending, unexpired match to CONFIRMED, reserves the
// item (UNCLAIMED -> MATCHED) and marks the linked lost report, all in
// one transaction.
func (r *MatchRepository) Confirm(ctx context.Context, match *models.MatchRequest, notes *string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin confirm match: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const query = `UPDATE match_requests SET status = $1, notes = COALESCE($2, notes), updated_at = $3
	WHERE id = $4 AND status = $5 AND expires_at > $3`
	if err := execStateSwap(ctx, tx, query, models.MatchStatusConfirmed, notes, now, match.ID, models.MatchStatusPending); err != nil {
		return err
	}

	if err := updateItemStatus(ctx, tx, match.FoundItemID, models.FoundItemStatusUnclaimed, models.FoundItemStatusMatched); err != nil {
		return err
	}

	if match.LostReportID != nil {
		if err := updateReportStatus(ctx, tx, *match.LostReportID, models.LostReportStatusMatched); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit confirm match: %w", err)
	}
	commit = true
	return nil
}

// Reject flips a pending match to REJECTED. The item was never
// reserved, so no compensating update is needed.
func (r *MatchRepository) Reject(ctx context.Context, id string, reason string) error {
	const query = `UPDATE match_requests SET status = $1, notes = $2, updated_at = $3 WHERE id = $4 AND status = $5`
	return execStateSwap(ctx, r.db, query, models.MatchStatusRejected, reason, time.Now().UTC(), id, models.MatchStatusPending)
}

// Resolve completes a confirmed match: COMPLETED + item RETURNED +
// lost report RETURNED + receipt row, one transaction.
func (r *MatchRepository) Resolve(ctx context.Context, match *models.MatchRequest, resolvedBy string, receipt *models.ReturnReceipt) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin resolve match: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const query = `UPDATE match_requests SET status = $1, resolved_by = $2, updated_at = $3 WHERE id = $4 AND status = $5`
	if err := execStateSwap(ctx, tx, query, models.MatchStatusCompleted, resolvedBy, now, match.ID, models.MatchStatusConfirmed); err != nil {
		return err
	}

	if err := updateItemStatus(ctx, tx, match.FoundItemID, models.FoundItemStatusMatched, models.FoundItemStatusReturned); err != nil {
		return err
	}

	if match.LostReportID != nil {
		if err := updateReportStatus(ctx, tx, *match.LostReportID, models.LostReportStatusReturned); err != nil {
			return err
		}
	}

	if receipt != nil {
		if err := insertReceipt(ctx, tx, receipt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit resolve match: %w", err)
	}
	commit = true
	return nil
}

// ExpireSweep persists EXPIRED for pending requests past their
// deadline and returns how many rows flipped.
func (r *MatchRepository) ExpireSweep(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE match_requests SET status = $1, updated_at = $2 WHERE status = $3 AND expires_at < $2`
	result, err := r.db.ExecContext(ctx, query, models.MatchStatusExpired, now.UTC(), models.MatchStatusPending)
	if err != nil {
		return 0, fmt.Errorf("sweep expired matches: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check sweep rows: %w", err)
	}
	return rows, nil
}

// execStateSwap runs a guarded UPDATE and maps zero affected rows to
// ErrStateConflict.
func execStateSwap(ctx context.Context, ex sqlx.ExtContext, query string, args ...interface{}) error {
	result, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("state swap: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check state swap rows: %w", err)
	}
	if rows == 0 {
		return ErrStateConflict
	}
	return nil
}
