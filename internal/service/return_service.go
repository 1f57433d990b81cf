package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-lostfound-api/internal/dto"
	"github.com/noah-isme/campus-lostfound-api/internal/models"
	"github.com/noah-isme/campus-lostfound-api/internal/repository"
	appErrors "github.com/noah-isme/campus-lostfound-api/pkg/errors"
	"github.com/noah-isme/campus-lostfound-api/pkg/export"
	"github.com/noah-isme/campus-lostfound-api/pkg/jobs"
)

// JobTypeReceiptRender identifies queued receipt PDF render tasks.
const JobTypeReceiptRender = "receipt.render"

type receiptStore interface {
	CreateForClaim(ctx context.Context, receipt *models.ReturnReceipt, lostReportID *string) error
	GetByID(ctx context.Context, id string) (*models.ReturnReceipt, error)
	GetByClaim(ctx context.Context, claimID string) (*models.ReturnReceipt, error)
	List(ctx context.Context, filter models.ReceiptFilter) ([]models.ReturnReceipt, error)
	SetDocumentPath(ctx context.Context, id, path string) error
}

type matchReader interface {
	GetByID(ctx context.Context, id string) (*models.MatchRequest, error)
}

type receiptEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type documentStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type documentSigner interface {
	Generate(receiptID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (receiptID, relPath string, expiresAt time.Time, err error)
}

// ReturnService closes recovery cases: it issues return receipts for
// approved claims, renders the printable document in the background and
// hands out signed download links.
type ReturnService struct {
	repo      receiptStore
	claims    claimReader
	matches   matchReader
	items     foundItemReader
	cache     availabilityCache
	audit     auditLogger
	metrics   workflowMetrics
	queue     receiptEnqueuer
	storage   documentStorage
	signer    documentSigner
	renderer  *export.ReceiptPDFRenderer
	exporter  *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReturnService constructs the service.
func NewReturnService(repo receiptStore, claims claimReader, matches matchReader, items foundItemReader, cache availabilityCache, audit auditLogger, metrics workflowMetrics, storage documentStorage, signer documentSigner, validate *validator.Validate, logger *zap.Logger) *ReturnService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReturnService{
		repo:      repo,
		claims:    claims,
		matches:   matches,
		items:     items,
		cache:     cache,
		audit:     audit,
		metrics:   metrics,
		storage:   storage,
		signer:    signer,
		renderer:  export.NewReceiptPDFRenderer(),
		exporter:  export.NewCSVExporter(),
		validator: validate,
		logger:    logger,
	}
}

// SetQueue wires the background render queue. Optional: without it
// receipts are created with no PDF document.
func (s *ReturnService) SetQueue(queue receiptEnqueuer) {
	s.queue = queue
}

// CreateReceipt finalizes an approved claim into a handover record.
// The receipt insert and the item's final transition share one
// transaction; the partial unique index makes a duplicate impossible.
func (s *ReturnService) CreateReceipt(ctx context.Context, req dto.CreateReceiptRequest, actor *models.JWTClaims) (*models.ReturnReceipt, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid receipt payload")
	}
	if strings.TrimSpace(req.Recipient.FullName) == "" || strings.TrimSpace(req.Recipient.DocumentNumber) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recipient name and document number are required")
	}

	claim, err := s.loadClaim(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}
	if claim.Status != models.ClaimStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only approved claims can be returned")
	}
	if existing, err := s.repo.GetByClaim(ctx, claim.ID); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "claim already has a return receipt")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing receipt")
	}

	receipt := &models.ReturnReceipt{
		ClaimID:           &claim.ID,
		FoundItemID:       claim.FoundItemID,
		HandledBy:         actor.UserID,
		WitnessedBy:       req.WitnessedBy,
		RecipientName:     strings.TrimSpace(req.Recipient.FullName),
		RecipientDocument: strings.TrimSpace(req.Recipient.DocumentNumber),
		RecipientPhone:    strings.TrimSpace(req.Recipient.Phone),
	}
	if err := s.repo.CreateForClaim(ctx, receipt, claim.LostReportID); err != nil {
		if errors.Is(err, repository.ErrItemConflict) {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, "item already left the matched state")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create return receipt")
	}
	s.observe("found_item", string(models.FoundItemStatusMatched), string(models.FoundItemStatusReturned))
	s.invalidateAvailability(ctx, receipt.FoundItemID)
	s.ScheduleRender(receipt)

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionReceiptCreate,
		Resource:   "return_receipt",
		ResourceID: &receipt.ID,
	})
	return receipt, nil
}

// ScheduleRender enqueues the PDF render for an issued receipt.
func (s *ReturnService) ScheduleRender(receipt *models.ReturnReceipt) {
	if s.queue == nil || receipt == nil {
		return
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobTypeReceiptRender,
		Payload: receipt.ID,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue receipt render", zap.String("receipt_id", receipt.ID), zap.Error(err))
	}
}

// HandleRenderJob renders the receipt PDF, stores it and records the
// document path. Wired as the render queue's handler.
func (s *ReturnService) HandleRenderJob(ctx context.Context, job jobs.Job) error {
	receiptID, ok := job.Payload.(string)
	if !ok || receiptID == "" {
		return fmt.Errorf("receipt render job %s: missing receipt id", job.ID)
	}
	receipt, err := s.repo.GetByID(ctx, receiptID)
	if err != nil {
		return fmt.Errorf("load receipt %s: %w", receiptID, err)
	}
	item, err := s.items.GetByID(ctx, receipt.FoundItemID)
	if err != nil {
		return fmt.Errorf("load item for receipt %s: %w", receiptID, err)
	}

	doc := export.ReceiptDocument{
		ReceiptID:      receipt.ID,
		ItemName:       item.Name,
		ItemCategory:   item.Category,
		Campus:         item.Campus,
		RecipientName:  receipt.RecipientName,
		DocumentNumber: receipt.RecipientDocument,
		RecipientPhone: receipt.RecipientPhone,
		HandledBy:      receipt.HandledBy,
		ReturnedAt:     receipt.ReturnedAt,
	}
	if receipt.WitnessedBy != nil {
		doc.WitnessedBy = *receipt.WitnessedBy
	}
	data, err := s.renderer.Render(doc)
	if err != nil {
		return fmt.Errorf("render receipt %s: %w", receiptID, err)
	}

	relPath, err := s.storage.Save(receipt.ID+".pdf", data)
	if err != nil {
		return fmt.Errorf("store receipt %s: %w", receiptID, err)
	}
	if err := s.repo.SetDocumentPath(ctx, receipt.ID, relPath); err != nil {
		return fmt.Errorf("record document path for receipt %s: %w", receiptID, err)
	}
	s.logger.Info("receipt document rendered", zap.String("receipt_id", receipt.ID), zap.String("path", relPath))
	return nil
}

// Get returns a receipt enforcing scope constraints: the office reads
// any, a student only those closing their own claim or match.
func (s *ReturnService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ReturnReceipt, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	receipt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, receipt, actor); err != nil {
		return nil, err
	}
	return receipt, nil
}

// List returns accessible receipts respecting actor role.
func (s *ReturnService) List(ctx context.Context, query dto.ReceiptQuery, actor *models.JWTClaims) ([]models.ReturnReceipt, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.ReceiptFilter{
		FoundItemID: query.FoundItemID,
		From:        query.From,
		To:          query.To,
		Page:        query.Page,
		PageSize:    query.PageSize,
	}
	if actor.Role.IsStaffLike() {
		filter.HandledBy = query.HandledBy
	} else {
		filter.StudentID = actor.UserID
	}
	receipts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list receipts")
	}
	return receipts, nil
}

// Download returns a signed URL for the rendered PDF document.
func (s *ReturnService) Download(ctx context.Context, id string, actor *models.JWTClaims) (*dto.ReceiptDownload, error) {
	receipt, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if receipt.DocumentPath == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt document not rendered yet")
	}
	token, expiresAt, err := s.signer.Generate(receipt.ID, *receipt.DocumentPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &dto.ReceiptDownload{
		ReceiptID: receipt.ID,
		URL:       "/api/v1/receipts/download/" + token,
		ExpiresAt: expiresAt,
	}, nil
}

// OpenDocument validates a signed token and opens the stored PDF.
func (s *ReturnService) OpenDocument(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt document not found")
	}
	return file, nil
}

// ExportCSV renders an office-facing CSV of receipts for the filter.
func (s *ReturnService) ExportCSV(ctx context.Context, query dto.ReceiptQuery, actor *models.JWTClaims) ([]byte, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !actor.Role.IsStaffLike() {
		return nil, appErrors.ErrForbidden
	}
	receipts, err := s.List(ctx, query, actor)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{
		Headers: []string{"receipt_id", "found_item_id", "recipient", "document_number", "handled_by", "returned_at"},
	}
	for _, receipt := range receipts {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"receipt_id":      receipt.ID,
			"found_item_id":   receipt.FoundItemID,
			"recipient":       receipt.RecipientName,
			"document_number": receipt.RecipientDocument,
			"handled_by":      receipt.HandledBy,
			"returned_at":     receipt.ReturnedAt.Format(time.RFC3339),
		})
	}
	data, err := s.exporter.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipts export")
	}
	return data, nil
}

func (s *ReturnService) authorize(ctx context.Context, receipt *models.ReturnReceipt, actor *models.JWTClaims) error {
	if actor.Role.IsStaffLike() {
		return nil
	}
	switch {
	case receipt.ClaimID != nil:
		claim, err := s.loadClaim(ctx, *receipt.ClaimID)
		if err != nil {
			return err
		}
		if claim.StudentID != actor.UserID {
			return appErrors.ErrForbidden
		}
	case receipt.MatchRequestID != nil:
		match, err := s.matches.GetByID(ctx, *receipt.MatchRequestID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match request")
		}
		if match.StudentID != actor.UserID {
			return appErrors.ErrForbidden
		}
	default:
		return appErrors.ErrForbidden
	}
	return nil
}

func (s *ReturnService) load(ctx context.Context, id string) (*models.ReturnReceipt, error) {
	receipt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receipt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receipt")
	}
	return receipt, nil
}

func (s *ReturnService) loadClaim(ctx context.Context, id string) (*models.Claim, error) {
	claim, err := s.claims.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "claim not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load claim")
	}
	return claim, nil
}

func (s *ReturnService) invalidateAvailability(ctx context.Context, foundItemID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, repository.AvailabilityKey(foundItemID)); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.Error(err))
	}
}

func (s *ReturnService) observe(entity, from, to string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(entity, from, to)
	}
}

func (s *ReturnService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "return-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
