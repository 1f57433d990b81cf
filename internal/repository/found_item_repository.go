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

// FoundItemRepository persists registered found items.
type FoundItemRepository struct {
	db *sqlx.DB
}

// NewFoundItemRepository constructs the repository.
func NewFoundItemRepository(db *sqlx.DB) *FoundItemRepository {
	return &FoundItemRepository{db: db}
}

const foundItemColumns = `id, name, category, description, campus, location, photo_url, status, registered_by, found_at, created_at, updated_at`

// Create inserts a new found item row.
func (r *FoundItemRepository) Create(ctx context.Context, item *models.FoundItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = models.FoundItemStatusUnclaimed
	}
	now := time.Now().UTC()
	if item.FoundAt.IsZero() {
		item.FoundAt = now
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO found_items
	(id, name, category, description, campus, location, photo_url, status, registered_by, found_at, created_at, updated_at)
	VALUES (:id, :name, :category, :description, :campus, :location, :photo_url, :status, :registered_by, :found_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create found item: %w", err)
	}
	return nil
}

// GetByID fetches a found item by identifier.
func (r *FoundItemRepository) GetByID(ctx context.Context, id string) (*models.FoundItem, error) {
	query := `SELECT ` + foundItemColumns + ` FROM found_items WHERE id = $1`
	var item models.FoundItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// List returns found items matching the filter plus the total count.
func (r *FoundItemRepository) List(ctx context.Context, filter models.FoundItemFilter) ([]models.FoundItem, int, error) {
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
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Campus != "" {
		args = append(args, filter.Campus)
		where = append(where, fmt.Sprintf("campus = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM found_items WHERE ` + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count found items: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM found_items WHERE %s ORDER BY found_at DESC LIMIT %d OFFSET %d`,
		foundItemColumns, whereClause, size, (page-1)*size)

	var items []models.FoundItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list found items: %w", err)
	}
	return items, total, nil
}

// UpdateStatus performs the status compare-and-swap guarding every
// transition on the shared item. Zero affected rows means a concurrent
// request moved the item first and surfaces as ErrItemConflict.
func (r *FoundItemRepository) UpdateStatus(ctx context.Context, id string, from, to models.FoundItemStatus) error {
	return updateItemStatus(ctx, r.db, id, from, to)
}

// updateItemStatus is shared with the workflow repositories so the same
// CAS runs inside their transactions.
func updateItemStatus(ctx context.Context, ex sqlx.ExtContext, id string, from, to models.FoundItemStatus) error {
	const query = `UPDATE found_items SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := ex.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("update found item status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check found item status rows: %w", err)
	}
	if rows == 0 {
		return ErrItemConflict
	}
	return nil
}
