package service

import (
	"context"
	"database/sql"
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

type foundItemStore interface {
	Create(ctx context.Context, item *models.FoundItem) error
	GetByID(ctx context.Context, id string) (*models.FoundItem, error)
	List(ctx context.Context, filter models.FoundItemFilter) ([]models.FoundItem, int, error)
	UpdateStatus(ctx context.Context, id string, from, to models.FoundItemStatus) error
}

type claimLister interface {
	List(ctx context.Context, filter models.ClaimFilter) ([]models.Claim, error)
}

type matchLister interface {
	List(ctx context.Context, filter models.MatchFilter) ([]models.MatchRequest, error)
}

type receiptLister interface {
	List(ctx context.Context, filter models.ReceiptFilter) ([]models.ReturnReceipt, error)
}

// FoundItemService manages the physical-item side of the registry:
// registration by security, browsing and terminal disposal.
type FoundItemService struct {
	repo      foundItemStore
	claims    claimLister
	matches   matchLister
	receipts  receiptLister
	reports   lostReportReader
	cache     availabilityCache
	audit     auditLogger
	metrics   workflowMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFoundItemService constructs the service.
func NewFoundItemService(repo foundItemStore, claims claimLister, matches matchLister, receipts receiptLister, reports lostReportReader, cache availabilityCache, audit auditLogger, metrics workflowMetrics, validate *validator.Validate, logger *zap.Logger) *FoundItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FoundItemService{
		repo:      repo,
		claims:    claims,
		matches:   matches,
		receipts:  receipts,
		reports:   reports,
		cache:     cache,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Register records a recovered item in the actor's campus.
func (s *FoundItemService) Register(ctx context.Context, req dto.RegisterFoundItemRequest, actor *models.JWTClaims) (*models.FoundItem, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid item payload")
	}

	item := &models.FoundItem{
		Name:         strings.TrimSpace(req.Name),
		Category:     strings.TrimSpace(req.Category),
		Description:  strings.TrimSpace(req.Description),
		Campus:       actor.Campus,
		Location:     strings.TrimSpace(req.Location),
		PhotoURL:     req.PhotoURL,
		RegisteredBy: actor.UserID,
	}
	if req.FoundAt != nil {
		item.FoundAt = req.FoundAt.UTC()
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register found item")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionItemRegister,
		Resource:   "found_item",
		ResourceID: &item.ID,
	})
	return item, nil
}

// Get returns a found item. The catalogue is readable by any
// authenticated user.
func (s *FoundItemService) Get(ctx context.Context, id string) (*models.FoundItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "found item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load found item")
	}
	return item, nil
}

// List returns found items matching the query with pagination metadata.
func (s *FoundItemService) List(ctx context.Context, query dto.FoundItemQuery) ([]models.FoundItem, *models.Pagination, error) {
	filter := models.FoundItemFilter{
		Status:   query.Status,
		Category: query.Category,
		Campus:   query.Campus,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list found items")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Dispose retires an unclaimed item after the retention period. A held
// or returned item cannot be disposed.
func (s *FoundItemService) Dispose(ctx context.Context, id string, actor *models.JWTClaims) (*models.FoundItem, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status != models.FoundItemStatusUnclaimed {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only unclaimed items can be disposed")
	}

	if err := s.repo.UpdateStatus(ctx, id, models.FoundItemStatusUnclaimed, models.FoundItemStatusDisposed); err != nil {
		if errors.Is(err, repository.ErrItemConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "item status changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to dispose found item")
	}
	item.Status = models.FoundItemStatusDisposed
	s.observe("found_item", string(models.FoundItemStatusUnclaimed), string(models.FoundItemStatusDisposed))
	s.invalidateAvailability(ctx, id)

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionItemDispose,
		Resource:   "found_item",
		ResourceID: &item.ID,
	})
	return item, nil
}

// Case assembles the full recovery picture around one item: the active
// claim or match, the closing receipt and the linked lost report.
func (s *FoundItemService) Case(ctx context.Context, id string) (*dto.RecoveryCase, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &dto.RecoveryCase{Item: *item}

	claims, err := s.claims.List(ctx, models.ClaimFilter{
		FoundItemID: id,
		Status:      []models.ClaimStatus{models.ClaimStatusPending, models.ClaimStatusApproved},
		PageSize:    1,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claims for case")
	}
	if len(claims) > 0 {
		result.ActiveClaim = &claims[0]
	}

	matches, err := s.matches.List(ctx, models.MatchFilter{
		FoundItemID: id,
		Status:      []models.MatchStatus{models.MatchStatusPending, models.MatchStatusConfirmed},
		PageSize:    1,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load matches for case")
	}
	now := time.Now().UTC()
	if len(matches) > 0 && matches[0].EffectiveStatus(now) != models.MatchStatusExpired {
		result.ActiveMatch = &matches[0]
	}

	receipts, err := s.receipts.List(ctx, models.ReceiptFilter{FoundItemID: id, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipts for case")
	}
	if len(receipts) > 0 {
		result.Receipt = &receipts[0]
	}

	var reportID *string
	switch {
	case result.ActiveClaim != nil && result.ActiveClaim.LostReportID != nil:
		reportID = result.ActiveClaim.LostReportID
	case result.ActiveMatch != nil && result.ActiveMatch.LostReportID != nil:
		reportID = result.ActiveMatch.LostReportID
	}
	if reportID != nil {
		report, err := s.reports.GetByID(ctx, *reportID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lost report for case")
		}
		result.LostReport = report
	}
	return result, nil
}

func (s *FoundItemService) invalidateAvailability(ctx context.Context, foundItemID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, repository.AvailabilityKey(foundItemID)); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func (s *FoundItemService) observe(entity, from, to string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(entity, from, to)
	}
}

func (s *FoundItemService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "found-item-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
