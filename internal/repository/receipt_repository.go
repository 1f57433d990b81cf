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

// ReceiptRepository persists return receipts and owns the closing
// transaction of the recovery case.
type ReceiptRepository struct {
	db *sqlx.DB
}

// NewReceiptRepository constructs the repository.
func NewReceiptRepository(db *sqlx.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

const receiptColumns = `id, claim_id, match_request_id, found_item_id, handled_by, witnessed_by, recipient_name, recipient_document, recipient_phone, document_path, returned_at, created_at`

// CreateForClaim inserts the receipt and closes the case: item
// MATCHED -> RETURNED plus the lost report mirror, one transaction.
// The partial unique indexes on claim_id and match_request_id make a
// second receipt impossible.
func (r *ReceiptRepository) CreateForClaim(ctx context.Context, receipt *models.ReturnReceipt, lostReportID *string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create receipt: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	if err := updateItemStatus(ctx, tx, receipt.FoundItemID, models.FoundItemStatusMatched, models.FoundItemStatusReturned); err != nil {
		return err
	}

	if lostReportID != nil {
		if err := updateReportStatus(ctx, tx, *lostReportID, models.LostReportStatusReturned); err != nil {
			return err
		}
	}

	if err := insertReceipt(ctx, tx, receipt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create receipt: %w", err)
	}
	commit = true
	return nil
}

// insertReceipt is shared with the match repository's Resolve
// transaction so both closing paths write the same row shape.
func insertReceipt(ctx context.Context, ex sqlx.ExtContext, receipt *models.ReturnReceipt) error {
	if receipt.ID == "" {
		receipt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if receipt.ReturnedAt.IsZero() {
		receipt.ReturnedAt = now
	}
	receipt.CreatedAt = now
	const query = `INSERT INTO return_receipts
	(id, claim_id, match_request_id, found_item_id, handled_by, witnessed_by, recipient_name, recipient_document, recipient_phone, document_path, returned_at, created_at)
	VALUES (:id, :claim_id, :match_request_id, :found_item_id, :handled_by, :witnessed_by, :recipient_name, :recipient_document, :recipient_phone, :document_path, :returned_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, ex, query, receipt); err != nil {
		return fmt.Errorf("insert return receipt: %w", err)
	}
	return nil
}

// GetByID fetches a receipt by identifier.
func (r *ReceiptRepository) GetByID(ctx context.Context, id string) (*models.ReturnReceipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM return_receipts WHERE id = $1`
	var receipt models.ReturnReceipt
	if err := r.db.GetContext(ctx, &receipt, query, id); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// GetByClaim fetches the receipt closing the given claim, if any.
func (r *ReceiptRepository) GetByClaim(ctx context.Context, claimID string) (*models.ReturnReceipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM return_receipts WHERE claim_id = $1`
	var receipt models.ReturnReceipt
	if err := r.db.GetContext(ctx, &receipt, query, claimID); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// GetByMatch fetches the receipt closing the given match request, if any.
func (r *ReceiptRepository) GetByMatch(ctx context.Context, matchID string) (*models.ReturnReceipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM return_receipts WHERE match_request_id = $1`
	var receipt models.ReturnReceipt
	if err := r.db.GetContext(ctx, &receipt, query, matchID); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// List returns receipts matching the filter (latest first). Student
// scoping joins through whichever parent closed the case.
func (r *ReceiptRepository) List(ctx context.Context, filter models.ReceiptFilter) ([]models.ReturnReceipt, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("(c.student_id = $%d OR m.student_id = $%d)", len(args), len(args)))
	}
	if filter.HandledBy != "" {
		args = append(args, filter.HandledBy)
		where = append(where, fmt.Sprintf("rr.handled_by = $%d", len(args)))
	}
	if filter.FoundItemID != "" {
		args = append(args, filter.FoundItemID)
		where = append(where, fmt.Sprintf("rr.found_item_id = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("rr.returned_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("rr.returned_at <= $%d", len(args)))
	}
	limit := filter.PageSize
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	cols := make([]string, 0, 12)
	for _, col := range strings.Split(receiptColumns, ", ") {
		cols = append(cols, "rr."+col)
	}
	query := fmt.Sprintf(`SELECT %s FROM return_receipts rr
	LEFT JOIN claims c ON c.id = rr.claim_id
	LEFT JOIN match_requests m ON m.id = rr.match_request_id
	WHERE %s ORDER BY rr.returned_at DESC LIMIT %d OFFSET %d`,
		strings.Join(cols, ", "), strings.Join(where, " AND "), limit, (page-1)*limit)

	var receipts []models.ReturnReceipt
	if err := r.db.SelectContext(ctx, &receipts, query, args...); err != nil {
		return nil, fmt.Errorf("list return receipts: %w", err)
	}
	return receipts, nil
}

// SetDocumentPath records the rendered PDF location for a receipt.
func (r *ReceiptRepository) SetDocumentPath(ctx context.Context, id, path string) error {
	const query = `UPDATE return_receipts SET document_path = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, path, id); err != nil {
		return fmt.Errorf("set receipt document path: %w", err)
	}
	return nil
}
