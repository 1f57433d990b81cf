package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-lostfound-api/internal/dto"
	"github.com/noah-isme/campus-lostfound-api/internal/models"
	"github.com/noah-isme/campus-lostfound-api/internal/repository"
	appErrors "github.com/noah-isme/campus-lostfound-api/pkg/errors"
)

type matchStore interface {
	Create(ctx context.Context, match *models.MatchRequest) error
	GetByID(ctx context.Context, id string) (*models.MatchRequest, error)
	List(ctx context.Context, filter models.MatchFilter) ([]models.MatchRequest, error)
	Confirm(ctx context.Context, match *models.MatchRequest, notes *string) error
	Reject(ctx context.Context, id string, reason string) error
	Resolve(ctx context.Context, match *models.MatchRequest, resolvedBy string, receipt *models.ReturnReceipt) error
	ExpireSweep(ctx context.Context, now time.Time) (int64, error)
}

type receiptRenderScheduler interface {
	ScheduleRender(receipt *models.ReturnReceipt)
}

// MatchService orchestrates staff-proposed pairings from proposal
// through the student's confirmation to the final handover.
type MatchService struct {
	repo      matchStore
	items     foundItemReader
	reports   lostReportReader
	cache     availabilityCache
	audit     auditLogger
	metrics   workflowMetrics
	documents receiptRenderScheduler
	validator *validator.Validate
	logger    *zap.Logger
	expiryTTL time.Duration
}

// NewMatchService constructs the service.
func NewMatchService(repo matchStore, items foundItemReader, reports lostReportReader, cache availabilityCache, audit auditLogger, metrics workflowMetrics, validate *validator.Validate, logger *zap.Logger, expiryTTL time.Duration) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if expiryTTL <= 0 {
		expiryTTL = 7 * 24 * time.Hour
	}
	return &MatchService{
		repo:      repo,
		items:     items,
		reports:   reports,
		cache:     cache,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		expiryTTL: expiryTTL,
	}
}

// SetRenderScheduler wires the receipt document pipeline. Optional:
// without it resolved matches simply have no PDF.
func (s *MatchService) SetRenderScheduler(scheduler receiptRenderScheduler) {
	s.documents = scheduler
}

// Create proposes a pairing on behalf of the office. The target student
// comes either directly or through the linked lost report's reporter.
func (s *MatchService) Create(ctx context.Context, req dto.CreateMatchRequest, actor *models.JWTClaims) (*models.MatchRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid match payload")
	}
	if (req.StudentID == nil) == (req.LostReportID == nil) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of studentId or lostReportId is required")
	}

	item, err := s.items.GetByID(ctx, req.FoundItemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "found item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load found item")
	}
	if item.Status != models.FoundItemStatusUnclaimed {
		return nil, appErrors.Clone(appErrors.ErrItemUnavailable, "item is not available for matching")
	}

	studentID := ""
	if req.StudentID != nil {
		studentID = *req.StudentID
	} else {
		report, err := s.reports.GetByID(ctx, *req.LostReportID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "lost report not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lost report")
		}
		if report.Status == models.LostReportStatusRejected {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "lost report was rejected at intake")
		}
		studentID = report.ReporterID
	}

	match := &models.MatchRequest{
		FoundItemID:  req.FoundItemID,
		StudentID:    studentID,
		LostReportID: req.LostReportID,
		Reason:       strings.TrimSpace(req.Reason),
		Notes:        optionalString(req.Notes),
		ProposedBy:   actor.UserID,
		ExpiresAt:    time.Now().UTC().Add(s.expiryTTL),
	}
	if err := s.repo.Create(ctx, match); err != nil {
		if errors.Is(err, repository.ErrItemConflict) {
			return nil, appErrors.Clone(appErrors.ErrItemUnavailable, "item already has an open claim or match")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create match request")
	}

	payload, _ := json.Marshal(map[string]string{"found_item_id": match.FoundItemID, "student_id": match.StudentID})
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionMatchCreate,
		Resource:   "match_request",
		ResourceID: &match.ID,
		NewValues:  payload,
	})
	return match, nil
}

// Confirm records the target student's acceptance and reserves the
// item. Losing the reservation race surfaces as the item being gone.
func (s *MatchService) Confirm(ctx context.Context, id string, req dto.ConfirmMatchRequest, actor *models.JWTClaims) (*models.MatchRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirmation payload")
	}
	match, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if match.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "match request targets another student")
	}
	switch match.EffectiveStatus(time.Now().UTC()) {
	case models.MatchStatusPending:
	case models.MatchStatusExpired:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "match request has expired")
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "match request is not pending")
	}

	notes := optionalString(req.Notes)
	if err := s.repo.Confirm(ctx, match, notes); err != nil {
		switch {
		case errors.Is(err, repository.ErrItemConflict):
			return nil, appErrors.Clone(appErrors.ErrItemUnavailable, "item is no longer available")
		case errors.Is(err, repository.ErrStateConflict):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "match request was resolved concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm match request")
	}
	match.Status = models.MatchStatusConfirmed
	if notes != nil {
		match.Notes = notes
	}
	s.observe("match_request", string(models.MatchStatusPending), string(models.MatchStatusConfirmed))
	s.observe("found_item", string(models.FoundItemStatusUnclaimed), string(models.FoundItemStatusMatched))
	s.invalidateAvailability(ctx, match.FoundItemID)

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionMatchConfirm,
		Resource:   "match_request",
		ResourceID: &match.ID,
	})
	return match, nil
}

// Reject records the target student's refusal. The item was never
// reserved, so nothing to release.
func (s *MatchService) Reject(ctx context.Context, id string, req dto.RejectMatchRequest, actor *models.JWTClaims) (*models.MatchRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}
	match, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if match.StudentID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	if match.EffectiveStatus(time.Now().UTC()) != models.MatchStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "match request is not pending")
	}

	if err := s.repo.Reject(ctx, match.ID, strings.TrimSpace(req.Reason)); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "match request was resolved concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject match request")
	}
	match.Status = models.MatchStatusRejected
	s.observe("match_request", string(models.MatchStatusPending), string(models.MatchStatusRejected))

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionMatchReject,
		Resource:   "match_request",
		ResourceID: &match.ID,
	})
	return match, nil
}

// Resolve completes a confirmed match into a physical handover,
// creating the return receipt in the same transaction.
func (s *MatchService) Resolve(ctx context.Context, id string, req dto.ResolveMatchRequest, actor *models.JWTClaims) (*models.ReturnReceipt, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resolution payload")
	}
	if strings.TrimSpace(req.Recipient.FullName) == "" || strings.TrimSpace(req.Recipient.DocumentNumber) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recipient name and document number are required")
	}
	match, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusConfirmed {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only confirmed match requests can be resolved")
	}

	receipt := &models.ReturnReceipt{
		MatchRequestID:    &match.ID,
		FoundItemID:       match.FoundItemID,
		HandledBy:         actor.UserID,
		RecipientName:     strings.TrimSpace(req.Recipient.FullName),
		RecipientDocument: strings.TrimSpace(req.Recipient.DocumentNumber),
		RecipientPhone:    strings.TrimSpace(req.Recipient.Phone),
	}
	if err := s.repo.Resolve(ctx, match, actor.UserID, receipt); err != nil {
		switch {
		case errors.Is(err, repository.ErrStateConflict):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "match request was resolved concurrently")
		case errors.Is(err, repository.ErrItemConflict):
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "item already left the matched state")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve match request")
	}
	s.observe("match_request", string(models.MatchStatusConfirmed), string(models.MatchStatusCompleted))
	s.observe("found_item", string(models.FoundItemStatusMatched), string(models.FoundItemStatusReturned))
	s.invalidateAvailability(ctx, match.FoundItemID)
	if s.documents != nil {
		s.documents.ScheduleRender(receipt)
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionMatchResolve,
		Resource:   "match_request",
		ResourceID: &match.ID,
	})
	return receipt, nil
}

// Get returns a match request enforcing scope constraints. Pending
// requests past their deadline read as EXPIRED even before the sweep
// persists the flip.
func (s *MatchService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.MatchRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	match, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if match.StudentID != actor.UserID && !actor.Role.IsStaffLike() {
		return nil, appErrors.ErrForbidden
	}
	match.Status = match.EffectiveStatus(time.Now().UTC())
	return match, nil
}

// List returns accessible match requests respecting actor role.
func (s *MatchService) List(ctx context.Context, query dto.MatchQuery, actor *models.JWTClaims) ([]models.MatchRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.MatchFilter{
		Status:      query.Status,
		FoundItemID: query.FoundItemID,
		Page:        query.Page,
		PageSize:    query.PageSize,
	}
	if actor.Role.IsStaffLike() {
		filter.StudentID = query.StudentID
	} else {
		filter.StudentID = actor.UserID
	}
	matches, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list match requests")
	}
	now := time.Now().UTC()
	for i := range matches {
		matches[i].Status = matches[i].EffectiveStatus(now)
	}
	return matches, nil
}

// Sweep persists EXPIRED for pending requests past their deadline.
func (s *MatchService) Sweep(ctx context.Context) (int64, error) {
	flipped, err := s.repo.ExpireSweep(ctx, time.Now().UTC())
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sweep expired match requests")
	}
	if flipped > 0 {
		s.logger.Info("expired match requests swept", zap.Int64("count", flipped))
		for i := int64(0); i < flipped; i++ {
			s.observe("match_request", string(models.MatchStatusPending), string(models.MatchStatusExpired))
		}
	}
	return flipped, nil
}

// StartSweeper runs the expiry sweep on a fixed interval until the
// context is cancelled.
func (s *MatchService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Warn("match expiry sweep failed", zap.Error(err))
			}
		}
	}
}

func (s *MatchService) load(ctx context.Context, id string) (*models.MatchRequest, error) {
	match, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match request")
	}
	return match, nil
}

func (s *MatchService) invalidateAvailability(ctx context.Context, foundItemID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, repository.AvailabilityKey(foundItemID)); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func (s *MatchService) observe(entity, from, to string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(entity, from, to)
	}
}

func (s *MatchService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "match-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
