package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
	"github.com/quoteflow/quoteflow/internal/domain/workflow"
	"github.com/quoteflow/quoteflow/pkg/utils"
)

// QuotationLineInput is one priced line on a new quotation.
type QuotationLineInput struct {
	Category    string
	Description string
	Quantity    float64
	Unit        string
	UnitPrice   float64
}

// CreateQuotationInput carries the fields for a new customer-facing
// quotation.
type CreateQuotationInput struct {
	LeadName       string
	LeadCompany    string
	Currency       string
	DiscountAmount float64
	TaxAmount      float64
	ValidDays      int
	Lines          []QuotationLineInput
}

// StatusReport is the distribution state of a quotation: current status,
// full history newest-first, and the legal next states (computed, never
// stored).
type StatusReport struct {
	CurrentStatus   string                       `json:"current_status"`
	StatusHistory   []*entity.StatusHistoryEntry `json:"status_history"`
	CanTransitionTo []string                     `json:"can_transition_to"`
}

// DistributionService owns the customer-facing quotation lifecycle. The
// transition table is fixed business policy; every change appends one
// status-history entry in the same transaction as the guarded update.
type DistributionService interface {
	Create(ctx context.Context, actor *entity.Actor, input CreateQuotationInput) (*entity.Quotation, error)
	Get(ctx context.Context, id string) (*entity.Quotation, error)
	SetStatus(ctx context.Context, quotationID string, actor *entity.Actor, newStatus, notes string) (*entity.Quotation, error)
	GetStatus(ctx context.Context, quotationID string) (*StatusReport, error)
}

type distributionServiceImpl struct {
	quotationRepo port.QuotationRepository
	lineRepo      port.QuotationLineRepository
	historyRepo   port.StatusHistoryRepository
	txManager     port.TransactionManager
	audit         AuditService
	logger        Logger
}

// NewDistributionService creates a new DistributionService
func NewDistributionService(
	quotationRepo port.QuotationRepository,
	lineRepo port.QuotationLineRepository,
	historyRepo port.StatusHistoryRepository,
	txManager port.TransactionManager,
	audit AuditService,
	logger Logger,
) DistributionService {
	return &distributionServiceImpl{
		quotationRepo: quotationRepo,
		lineRepo:      lineRepo,
		historyRepo:   historyRepo,
		txManager:     txManager,
		audit:         audit,
		logger:        logger,
	}
}

// Create creates a new quotation in draft with its line items
func (s *distributionServiceImpl) Create(ctx context.Context, actor *entity.Actor, input CreateQuotationInput) (*entity.Quotation, error) {
	if strings.TrimSpace(input.LeadName) == "" {
		return nil, fmt.Errorf("%w: lead name is required", ErrValidation)
	}
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line item is required", ErrValidation)
	}
	if err := utils.ValidateAmount(input.DiscountAmount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := utils.ValidateAmount(input.TaxAmount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now().UTC()
	validDays := input.ValidDays
	if validDays <= 0 {
		validDays = 30
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	quotation := &entity.Quotation{
		ID:             uuid.NewString(),
		QuoteNumber:    newQuoteNumber(now),
		LeadName:       strings.TrimSpace(input.LeadName),
		LeadCompany:    strings.TrimSpace(input.LeadCompany),
		Status:         entity.QuotationStatusDraft,
		DiscountAmount: input.DiscountAmount,
		TaxAmount:      input.TaxAmount,
		Currency:       currency,
		ValidUntil:     now.AddDate(0, 0, validDays),
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	lines := make([]*entity.QuotationLine, 0, len(input.Lines))
	for i, in := range input.Lines {
		lineTotal := in.Quantity * in.UnitPrice
		quotation.Subtotal += lineTotal
		lines = append(lines, &entity.QuotationLine{
			ID:          uuid.NewString(),
			QuotationID: quotation.ID,
			Category:    in.Category,
			Description: in.Description,
			Quantity:    in.Quantity,
			Unit:        in.Unit,
			UnitPrice:   in.UnitPrice,
			LineTotal:   lineTotal,
			Position:    i + 1,
		})
	}
	quotation.Total = quotation.Subtotal - quotation.DiscountAmount + quotation.TaxAmount

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.quotationRepo.Create(txCtx, quotation); err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		if err := s.lineRepo.CreateBatch(txCtx, lines); err != nil {
			return fmt.Errorf("create quotation lines: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create quotation", "error", err)
		return nil, err
	}

	if err := s.audit.Record(ctx, entity.AuditEntityQuotation, quotation.ID, "created", actor, nil, quotation); err != nil {
		return nil, err
	}

	s.logger.Info("Quotation created", "quotation_id", quotation.ID, "quote_number", quotation.QuoteNumber)
	return quotation, nil
}

// Get retrieves a quotation by ID
func (s *distributionServiceImpl) Get(ctx context.Context, id string) (*entity.Quotation, error) {
	return s.load(ctx, id)
}

// SetStatus performs one guarded distribution transition. actor may be
// nil for customer-driven changes arriving through a public link.
func (s *distributionServiceImpl) SetStatus(ctx context.Context, quotationID string, actor *entity.Actor, newStatus, notes string) (*entity.Quotation, error) {
	quotation, err := s.load(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	oldStatus := quotation.Status

	if err := workflow.CheckDistribution(oldStatus, newStatus); err != nil {
		return nil, err
	}

	changedBy := ""
	if actor != nil {
		changedBy = actor.ID
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		ok, err := s.quotationRepo.TransitionStatus(txCtx, quotationID, oldStatus, newStatus)
		if err != nil {
			return fmt.Errorf("transition quotation: %w", err)
		}
		if !ok {
			fresh, readErr := s.quotationRepo.GetByID(txCtx, quotationID)
			current := "unknown"
			if readErr == nil && fresh != nil {
				current = fresh.Status
			}
			return fmt.Errorf("%w: quotation %s is now %q, expected %q", ErrConflict, quotationID, current, oldStatus)
		}

		entry := &entity.StatusHistoryEntry{
			ID:          uuid.NewString(),
			QuotationID: quotationID,
			FromStatus:  oldStatus,
			ToStatus:    newStatus,
			ChangedBy:   changedBy,
			Notes:       notes,
			ChangedAt:   time.Now().UTC(),
		}
		if err := s.historyRepo.Create(txCtx, entry); err != nil {
			return fmt.Errorf("append status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	quotation.Status = newStatus
	quotation.UpdatedAt = time.Now().UTC()

	auditor := actor
	if auditor == nil {
		auditor = &entity.Actor{ID: "customer"}
	}
	if err := s.audit.Record(ctx, entity.AuditEntityQuotation, quotationID, "status_"+newStatus, auditor,
		map[string]string{"status": oldStatus},
		map[string]string{"status": newStatus, "notes": notes},
	); err != nil {
		return nil, err
	}

	s.logger.Info("Quotation status changed",
		"quotation_id", quotationID,
		"from", oldStatus,
		"to", newStatus,
	)
	return quotation, nil
}

// GetStatus returns current status, history newest-first, and the legal
// next states
func (s *distributionServiceImpl) GetStatus(ctx context.Context, quotationID string) (*StatusReport, error) {
	quotation, err := s.load(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	history, err := s.historyRepo.GetByQuotationID(ctx, quotationID)
	if err != nil {
		s.logger.Error("Failed to get status history", "error", err, "quotation_id", quotationID)
		return nil, fmt.Errorf("get status history: %w", err)
	}

	return &StatusReport{
		CurrentStatus:   quotation.Status,
		StatusHistory:   history,
		CanTransitionTo: workflow.DistributionAllowed(quotation.Status),
	}, nil
}

func (s *distributionServiceImpl) load(ctx context.Context, id string) (*entity.Quotation, error) {
	quotation, err := s.quotationRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get quotation", "error", err, "quotation_id", id)
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if quotation == nil {
		return nil, fmt.Errorf("%w: quotation %s", ErrNotFound, id)
	}
	return quotation, nil
}
