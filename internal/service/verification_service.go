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

type verificationStore interface {
	Create(ctx context.Context, req *models.VerificationRequest) error
	GetByID(ctx context.Context, id string) (*models.VerificationRequest, error)
	GetByClaim(ctx context.Context, claimID string) (*models.VerificationRequest, error)
	GetDecision(ctx context.Context, requestID string) (*models.VerificationDecision, error)
	Decide(ctx context.Context, req *models.VerificationRequest, claim *models.Claim, decision *models.VerificationDecision) error
}

type claimReader interface {
	GetByID(ctx context.Context, id string) (*models.Claim, error)
}

// VerificationService escalates pending claims to an in-person check
// and records the security officer's decision, which is what actually
// moves the claim.
type VerificationService struct {
	repo      verificationStore
	claims    claimReader
	cache     availabilityCache
	audit     auditLogger
	metrics   workflowMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVerificationService constructs the service.
func NewVerificationService(repo verificationStore, claims claimReader, cache availabilityCache, audit auditLogger, metrics workflowMetrics, validate *validator.Validate, logger *zap.Logger) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &VerificationService{
		repo:      repo,
		claims:    claims,
		cache:     cache,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Request opens a verification for a pending claim. At most one open
// request per claim; a second escalation reads as an invalid state.
func (s *VerificationService) Request(ctx context.Context, req dto.RequestVerificationRequest, actor *models.JWTClaims) (*models.VerificationRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid verification payload")
	}

	claim, err := s.loadClaim(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != models.ClaimStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only pending claims can be escalated")
	}

	request := &models.VerificationRequest{
		ClaimID:     claim.ID,
		RequestedBy: actor.UserID,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "an open verification already exists for this claim")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create verification request")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionVerificationOpen,
		Resource:   "verification_request",
		ResourceID: &request.ID,
	})
	return request, nil
}

// Decide records the officer's outcome and applies the claim
// transition. A rejection releases the item when nothing else holds it.
func (s *VerificationService) Decide(ctx context.Context, id string, req dto.DecideVerificationRequest, actor *models.JWTClaims) (*dto.VerificationDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.VerificationStatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "verification request already decided")
	}
	claim, err := s.loadClaim(ctx, request.ClaimID)
	if err != nil {
		return nil, err
	}

	decision := &models.VerificationDecision{
		VerificationRequestID: request.ID,
		DecidedBy:             actor.UserID,
		Decision:              req.Decision,
		Comment:               strings.TrimSpace(req.Comment),
	}
	if err := s.repo.Decide(ctx, request, claim, decision); err != nil {
		if errors.Is(err, repository.ErrStateConflict) || errors.Is(err, repository.ErrItemConflict) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "verification was decided concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record verification decision")
	}
	request.Status = models.VerificationStatusDecided
	if req.Decision == models.VerificationApprove {
		s.observe("claim", string(models.ClaimStatusPending), string(models.ClaimStatusApproved))
	} else {
		s.observe("claim", string(models.ClaimStatusPending), string(models.ClaimStatusRejected))
		s.invalidateAvailability(ctx, claim.FoundItemID)
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionVerificationDecide,
		Resource:   "verification_request",
		ResourceID: &request.ID,
		NewValues:  []byte(`{"decision":"` + string(req.Decision) + `"}`),
	})
	return &dto.VerificationDetail{Request: *request, Decision: decision}, nil
}

// Get returns a verification request with its decision, when present.
// The claim's student may read their own; the office reads any.
func (s *VerificationService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.VerificationDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Role.IsStaffLike() {
		claim, err := s.loadClaim(ctx, request.ClaimID)
		if err != nil {
			return nil, err
		}
		if claim.StudentID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
	}
	decision, err := s.repo.GetDecision(ctx, request.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification decision")
	}
	return &dto.VerificationDetail{Request: *request, Decision: decision}, nil
}

// GetByClaim returns the latest verification attached to a claim.
func (s *VerificationService) GetByClaim(ctx context.Context, claimID string, actor *models.JWTClaims) (*dto.VerificationDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.repo.GetByClaim(ctx, claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no verification for this claim")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification request")
	}
	return s.Get(ctx, request.ID, actor)
}

func (s *VerificationService) load(ctx context.Context, id string) (*models.VerificationRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "verification request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load verification request")
	}
	return request, nil
}

func (s *VerificationService) loadClaim(ctx context.Context, id string) (*models.Claim, error) {
	claim, err := s.claims.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim")
	}
	return claim, nil
}

func (s *VerificationService) invalidateAvailability(ctx context.Context, foundItemID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, repository.AvailabilityKey(foundItemID)); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func (s *VerificationService) observe(entity, from, to string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(entity, from, to)
	}
}

func (s *VerificationService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "verification-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
