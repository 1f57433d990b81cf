package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-lostfound-api/internal/dto"
	"github.com/noah-isme/campus-lostfound-api/internal/models"
	"github.com/noah-isme/campus-lostfound-api/internal/repository"
	appErrors "github.com/noah-isme/campus-lostfound-api/pkg/errors"
)

type lostReportStore interface {
	Create(ctx context.Context, report *models.LostReport) error
	GetByID(ctx context.Context, id string) (*models.LostReport, error)
	List(ctx context.Context, filter models.LostReportFilter) ([]models.LostReport, error)
	Review(ctx context.Context, id string, to models.LostReportStatus) error
}

// LostReportService handles the intake side: students declare missing
// items, staff verify or reject the declarations.
type LostReportService struct {
	repo      lostReportStore
	audit     auditLogger
	metrics   workflowMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLostReportService constructs the service.
func NewLostReportService(repo lostReportStore, audit auditLogger, metrics workflowMetrics, validate *validator.Validate, logger *zap.Logger) *LostReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LostReportService{
		repo:      repo,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Create files a lost report for the acting student.
func (s *LostReportService) Create(ctx context.Context, req dto.CreateLostReportRequest, actor *models.JWTClaims) (*models.LostReport, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	report := &models.LostReport{
		ReporterID:  actor.UserID,
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Campus:      actor.Campus,
		LostAt:      req.LostAt,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lost report")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionReportCreate,
		Resource:   "lost_report",
		ResourceID: &report.ID,
	})
	return report, nil
}

// Review records the staff intake decision on a pending report.
func (s *LostReportService) Review(ctx context.Context, id string, req dto.ReviewLostReportRequest, actor *models.JWTClaims) (*models.LostReport, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != models.LostReportStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "report already reviewed")
	}

	if err := s.repo.Review(ctx, id, req.Status); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "report was reviewed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review lost report")
	}
	report.Status = req.Status
	s.observe("lost_report", string(models.LostReportStatusPending), string(req.Status))

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionReportReview,
		Resource:   "lost_report",
		ResourceID: &report.ID,
		NewValues:  []byte(`{"status":"` + string(req.Status) + `"}`),
	})
	return report, nil
}

// Get returns a lost report enforcing scope constraints.
func (s *LostReportService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LostReport, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.ReporterID != actor.UserID && !actor.Role.IsStaffLike() {
		return nil, appErrors.ErrForbidden
	}
	return report, nil
}

// List returns accessible reports respecting actor role.
func (s *LostReportService) List(ctx context.Context, query dto.LostReportQuery, actor *models.JWTClaims) ([]models.LostReport, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.LostReportFilter{
		Status:   query.Status,
		Category: query.Category,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if !actor.Role.IsStaffLike() {
		filter.ReporterID = actor.UserID
	}
	reports, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lost reports")
	}
	return reports, nil
}

func (s *LostReportService) load(ctx context.Context, id string) (*models.LostReport, error) {
	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lost report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lost report")
	}
	return report, nil
}

func (s *LostReportService) observe(entity, from, to string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(entity, from, to)
	}
}

func (s *LostReportService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "lost-report-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
