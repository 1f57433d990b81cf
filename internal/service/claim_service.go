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

type claimStore interface {
	CreateWithReservation(ctx context.Context, claim *models.Claim) error
	GetByID(ctx context.Context, id string) (*models.Claim, error)
	List(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, error)
	CancelPending(ctx context.Context, claimID, foundItemID string) error
	CountActiveForItem(ctx context.Context, foundItemID string) (int, error)
}

type foundItemReader interface {
	GetByID(ctx context.Context, id string) (*models.FoundItem, error)
}

type lostReportReader interface {
	GetByID(ctx context.Context, id string) (*models.LostReport, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type availabilityCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type workflowMetrics interface {
	ObserveTransition(entity, from, to string)
}

// ClaimService coordinates ownership claims: a claim reserves its found
// item on creation and releases it when cancelled with no other holds.
type ClaimService struct {
	repo      claimStore
	items     foundItemReader
	reports   lostReportReader
	cache     availabilityCache
	audit     auditLogger
	metrics   workflowMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewClaimService constructs the service.
func NewClaimService(repo claimStore, items foundItemReader, reports lostReportReader, cache availabilityCache, audit auditLogger, metrics workflowMetrics, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *ClaimService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &ClaimService{
		repo:      repo,
		items:     items,
		reports:   reports,
		cache:     cache,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// Create stakes a claim for the acting student. The item is reserved in
// the same transaction as the insert; a precheck failure reads as the
// item being unavailable, losing the race reads as a conflict.
func (s *ClaimService) Create(ctx context.Context, req dto.CreateClaimRequest, actor *models.JWTClaims) (*models.Claim, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid claim payload")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "description is required")
	}

	item, err := s.items.GetByID(ctx, req.FoundItemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "found item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load found item")
	}
	if item.Status != models.FoundItemStatusUnclaimed {
		return nil, appErrors.Clone(appErrors.ErrItemUnavailable, "item is not available for claiming")
	}
	active, err := s.repo.CountActiveForItem(ctx, req.FoundItemID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count item holds")
	}
	if active > 0 {
		return nil, appErrors.Clone(appErrors.ErrItemUnavailable, "item already has an open claim or match")
	}

	if req.LostReportID != nil {
		report, err := s.reports.GetByID(ctx, *req.LostReportID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "lost report not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lost report")
		}
		if report.ReporterID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "lost report belongs to another student")
		}
	}

	claim := &models.Claim{
		FoundItemID:  req.FoundItemID,
		StudentID:    actor.UserID,
		LostReportID: req.LostReportID,
		Description:  strings.TrimSpace(req.Description),
	}
	if err := s.repo.CreateWithReservation(ctx, claim); err != nil {
		if errors.Is(err, repository.ErrItemConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "item was claimed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create claim")
	}
	s.observe("found_item", string(models.FoundItemStatusUnclaimed), string(models.FoundItemStatusMatched))
	s.invalidateAvailability(ctx, claim.FoundItemID)

	payload, _ := json.Marshal(map[string]string{"found_item_id": claim.FoundItemID, "status": string(claim.Status)})
	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionClaimCreate,
		Resource:   "claim",
		ResourceID: &claim.ID,
		NewValues:  payload,
	})
	return claim, nil
}

// Cancel withdraws a pending claim. Only the claiming student may
// cancel; once decided a claim never moves again.
func (s *ClaimService) Cancel(ctx context.Context, id string, actor *models.JWTClaims) (*models.Claim, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	claim, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim")
	}
	if claim.StudentID != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	if claim.Status != models.ClaimStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only pending claims can be cancelled")
	}

	if err := s.repo.CancelPending(ctx, claim.ID, claim.FoundItemID); err != nil {
		if errors.Is(err, repository.ErrStateConflict) || errors.Is(err, repository.ErrItemConflict) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "claim was decided concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel claim")
	}
	claim.Status = models.ClaimStatusCancelled
	s.observe("claim", string(models.ClaimStatusPending), string(models.ClaimStatusCancelled))
	s.invalidateAvailability(ctx, claim.FoundItemID)

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionClaimCancel,
		Resource:   "claim",
		ResourceID: &claim.ID,
	})
	return claim, nil
}

// Get returns a claim enforcing scope constraints.
func (s *ClaimService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Claim, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	claim, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim")
	}
	if claim.StudentID != actor.UserID && !actor.Role.IsStaffLike() {
		return nil, appErrors.ErrForbidden
	}
	return claim, nil
}

// List returns accessible claims respecting actor role.
func (s *ClaimService) List(ctx context.Context, query dto.ClaimQuery, actor *models.JWTClaims) ([]models.Claim, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.ClaimFilter{
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
	claims, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list claims")
	}
	return claims, nil
}

// CheckAvailability answers whether an item can currently be claimed,
// serving from the cache when warm.
func (s *ClaimService) CheckAvailability(ctx context.Context, foundItemID string) (*dto.AvailabilityResponse, error) {
	key := repository.AvailabilityKey(foundItemID)
	if s.cache != nil {
		var cached dto.AvailabilityResponse
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("availability cache read failed", zap.Error(err))
		}
	}

	item, err := s.items.GetByID(ctx, foundItemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "found item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load found item")
	}
	available := item.Status == models.FoundItemStatusUnclaimed
	if available {
		// A pending match holds the item without moving its status.
		active, err := s.repo.CountActiveForItem(ctx, foundItemID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count item holds")
		}
		available = active == 0
	}
	result := &dto.AvailabilityResponse{
		FoundItemID: foundItemID,
		Available:   available,
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("availability cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

func (s *ClaimService) invalidateAvailability(ctx context.Context, foundItemID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, repository.AvailabilityKey(foundItemID)); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func (s *ClaimService) observe(entity, from, to string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(entity, from, to)
	}
}

func (s *ClaimService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "claim-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
