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

// LostReportRepository persists student lost reports.
type LostReportRepository struct {
	db *sqlx.DB
}

// NewLostReportRepository constructs the repository.
func NewLostReportRepository(db *sqlx.DB) *LostReportRepository {
	return &LostReportRepository{db: db}
}

const lostReportColumns = `id, reporter_id, name, category, description, campus, lost_at, status, created_at, updated_at`

// Create inserts a new lost report row.
func (r *LostReportRepository) Create(ctx context.Context, report *models.LostReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = models.LostReportStatusPending
	}
	now := time.Now().UTC()
	report.CreatedAt = now
	report.UpdatedAt = now
	const query = `INSERT INTO lost_reports
	(id, reporter_id, name, category, description, campus, lost_at, status, created_at, updated_at)
	VALUES (:id, :reporter_id, :name, :category, :description, :campus, :lost_at, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create lost report: %w", err)
	}
	return nil
}

// GetByID fetches a lost report by identifier.
func (r *LostReportRepository) GetByID(ctx context.Context, id string) (*models.LostReport, error) {
	query := `SELECT ` + lostReportColumns + ` FROM lost_reports WHERE id = $1`
	var report models.LostReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns lost reports matching the filter (latest first).
func (r *LostReportRepository) List(ctx context.Context, filter models.LostReportFilter) ([]models.LostReport, error) {
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
	if filter.ReporterID != "" {
		args = append(args, filter.ReporterID)
		where = append(where, fmt.Sprintf("reporter_id = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Campus != "" {
		args = append(args, filter.Campus)
		where = append(where, fmt.Sprintf("campus = $%d", len(args)))
	}
	limit := filter.PageSize
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT %s FROM lost_reports WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		lostReportColumns, strings.Join(where, " AND "), limit, (page-1)*limit)

	var reports []models.LostReport
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("list lost reports: %w", err)
	}
	return reports, nil
}

// Review records the staff intake decision on a pending report.
func (r *LostReportRepository) Review(ctx context.Context, id string, to models.LostReportStatus) error {
	const query = `UPDATE lost_reports SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	return execStateSwap(ctx, r.db, query, to, time.Now().UTC(), id, models.LostReportStatusPending)
}

// updateReportStatus writes a recovery-progress mirror inside a
// workflow transaction. No prior-status guard: the mirror follows the
// canonical claim/match transition that is itself guarded.
func updateReportStatus(ctx context.Context, ex sqlx.ExtContext, id string, to models.LostReportStatus) error {
	const query = `UPDATE lost_reports SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := ex.ExecContext(ctx, query, to, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update lost report status: %w", err)
	}
	return nil
}
