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

// CreateQuoteInput carries the fields for a new draft quote.
type CreateQuoteInput struct {
	Title    string
	Total    float64
	Currency string
}

// QuoteService owns the internal approval lifecycle of a Quote:
// draft -> pending -> {approved, rejected}; approved -> {accepted, declined}.
// Every successful transition writes one audit entry and schedules one
// counterparty notification.
type QuoteService interface {
	Create(ctx context.Context, actor *entity.Actor, input CreateQuoteInput) (*entity.Quote, error)
	Get(ctx context.Context, id string) (*entity.Quote, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Quote, error)
	Submit(ctx context.Context, quoteID string, actor *entity.Actor, notes string) (*entity.Quote, error)
	Approve(ctx context.Context, quoteID string, actor *entity.Actor, notes string) (*entity.Quote, error)
	Reject(ctx context.Context, quoteID string, actor *entity.Actor, reason string) (*entity.Quote, error)
	Accept(ctx context.Context, quoteID string, actor *entity.Actor, notes string) (*entity.Quote, error)
	Decline(ctx context.Context, quoteID string, actor *entity.Actor) (*entity.Quote, error)
}

type quoteServiceImpl struct {
	quoteRepo  port.QuoteRepository
	directory  port.IdentityDirectory
	authorizer *Authorizer
	audit      AuditService
	notifier   NotificationService
	logger     Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	quoteRepo port.QuoteRepository,
	directory port.IdentityDirectory,
	authorizer *Authorizer,
	audit AuditService,
	notifier NotificationService,
	logger Logger,
) QuoteService {
	return &quoteServiceImpl{
		quoteRepo:  quoteRepo,
		directory:  directory,
		authorizer: authorizer,
		audit:      audit,
		notifier:   notifier,
		logger:     logger,
	}
}

// Create creates a new quote in draft, owned by the actor
func (s *quoteServiceImpl) Create(ctx context.Context, actor *entity.Actor, input CreateQuoteInput) (*entity.Quote, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if err := utils.ValidateAmount(input.Total); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now().UTC()
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	quote := &entity.Quote{
		ID:          uuid.NewString(),
		QuoteNumber: newQuoteNumber(now),
		Title:       strings.TrimSpace(input.Title),
		Status:      entity.QuoteStatusDraft,
		CreatedBy:   actor.ID,
		Total:       input.Total,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		s.logger.Error("Failed to create quote", "error", err)
		return nil, fmt.Errorf("create quote: %w", err)
	}

	if err := s.audit.Record(ctx, entity.AuditEntityQuote, quote.ID, "created", actor, nil, quote); err != nil {
		return nil, err
	}

	s.logger.Info("Quote created", "quote_id", quote.ID, "quote_number", quote.QuoteNumber, "created_by", actor.ID)
	return quote, nil
}

// Get retrieves a quote by ID
func (s *quoteServiceImpl) Get(ctx context.Context, id string) (*entity.Quote, error) {
	return s.load(ctx, id)
}

// List retrieves quotes with pagination
func (s *quoteServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Quote, error) {
	quotes, err := s.quoteRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list quotes", "error", err)
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	return quotes, nil
}

// Submit moves an owned draft quote to pending
func (s *quoteServiceImpl) Submit(ctx context.Context, quoteID string, actor *entity.Actor, notes string) (*entity.Quote, error) {
	quote, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if d := s.authorizer.CanSubmitQuote(actor, quote); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	now := time.Now().UTC()
	update := port.QuoteStatusUpdate{SubmittedAt: &now}
	return s.transition(ctx, quote, actor, workflow.TriggerSubmit, entity.EventQuoteSubmitted, update, notes)
}

// Approve moves a pending quote to approved. Notes are mandatory.
func (s *quoteServiceImpl) Approve(ctx context.Context, quoteID string, actor *entity.Actor, notes string) (*entity.Quote, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, fmt.Errorf("%w: approval notes are required", ErrValidation)
	}

	quote, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if d := s.authorizer.CanDecideQuote(actor); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	now := time.Now().UTC()
	update := port.QuoteStatusUpdate{
		ApprovedBy:    actor.ID,
		ApprovalNotes: notes,
		ApprovedAt:    &now,
	}
	return s.transition(ctx, quote, actor, workflow.TriggerApprove, entity.EventQuoteApproved, update, notes)
}

// Reject moves a pending quote to rejected. A reason is mandatory.
func (s *quoteServiceImpl) Reject(ctx context.Context, quoteID string, actor *entity.Actor, reason string) (*entity.Quote, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	quote, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if d := s.authorizer.CanDecideQuote(actor); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	now := time.Now().UTC()
	update := port.QuoteStatusUpdate{
		ApprovedBy:      actor.ID,
		RejectionReason: reason,
		RejectedAt:      &now,
	}
	return s.transition(ctx, quote, actor, workflow.TriggerReject, entity.EventQuoteRejected, update, reason)
}

// Accept marks an approved quote accepted by its owner
func (s *quoteServiceImpl) Accept(ctx context.Context, quoteID string, actor *entity.Actor, notes string) (*entity.Quote, error) {
	quote, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if d := s.authorizer.CanRespondQuote(actor, quote); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	return s.transition(ctx, quote, actor, workflow.TriggerAccept, entity.EventQuoteAccepted, port.QuoteStatusUpdate{}, notes)
}

// Decline marks an approved quote declined by its owner
func (s *quoteServiceImpl) Decline(ctx context.Context, quoteID string, actor *entity.Actor) (*entity.Quote, error) {
	quote, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	if d := s.authorizer.CanRespondQuote(actor, quote); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	return s.transition(ctx, quote, actor, workflow.TriggerDecline, entity.EventQuoteDeclined, port.QuoteStatusUpdate{}, "")
}

func (s *quoteServiceImpl) load(ctx context.Context, id string) (*entity.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get quote", "error", err, "quote_id", id)
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if quote == nil {
		return nil, fmt.Errorf("%w: quote %s", ErrNotFound, id)
	}
	return quote, nil
}

// transition runs the shared tail of every quote operation: machine
// validation, guarded status write, audit entry, counterparty
// notification. The audit write is part of the operation; notification
// dispatch is not.
func (s *quoteServiceImpl) transition(
	ctx context.Context,
	quote *entity.Quote,
	actor *entity.Actor,
	trigger workflow.Trigger,
	eventType string,
	update port.QuoteStatusUpdate,
	detail string,
) (*entity.Quote, error) {
	machine, err := workflow.NewQuoteMachine(quote.Status)
	if err != nil {
		return nil, err
	}
	oldStatus := quote.Status

	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, err
	}
	newStatus := machine.State().String()

	update.ID = quote.ID
	update.ExpectedStatus = oldStatus
	update.NewStatus = newStatus

	ok, err := s.quoteRepo.TransitionStatus(ctx, update)
	if err != nil {
		s.logger.Error("Failed to transition quote", "error", err, "quote_id", quote.ID, "trigger", trigger)
		return nil, fmt.Errorf("transition quote: %w", err)
	}
	if !ok {
		// Lost the race: another writer moved the quote first. Report the
		// fresh status so the caller can re-read and decide.
		fresh, readErr := s.quoteRepo.GetByID(ctx, quote.ID)
		current := "unknown"
		if readErr == nil && fresh != nil {
			current = fresh.Status
		}
		return nil, fmt.Errorf("%w: quote %s is now %q, expected %q", ErrConflict, quote.ID, current, oldStatus)
	}

	quote.Status = newStatus
	quote.UpdatedAt = time.Now().UTC()
	if update.ApprovedBy != "" {
		quote.ApprovedBy = update.ApprovedBy
	}
	if update.ApprovalNotes != "" {
		quote.ApprovalNotes = update.ApprovalNotes
	}
	if update.RejectionReason != "" {
		quote.RejectionReason = update.RejectionReason
	}
	if update.SubmittedAt != nil {
		quote.SubmittedAt = update.SubmittedAt
	}
	if update.ApprovedAt != nil {
		quote.ApprovedAt = update.ApprovedAt
	}
	if update.RejectedAt != nil {
		quote.RejectedAt = update.RejectedAt
	}

	if err := s.audit.Record(ctx, entity.AuditEntityQuote, quote.ID, trigger.String(), actor,
		map[string]string{"status": oldStatus},
		map[string]string{"status": newStatus, "detail": detail},
	); err != nil {
		return nil, err
	}

	s.notifyCounterparty(ctx, eventType, quote, actor, detail)

	s.logger.Info("Quote transitioned",
		"quote_id", quote.ID,
		"from", oldStatus,
		"to", newStatus,
		"actor_id", actor.ID,
	)
	return quote, nil
}

// notifyCounterparty schedules one notification to the other side of the
// transition: owner actions notify the approver, approver actions notify
// the owner. Lookup or delivery failures are logged and swallowed.
func (s *quoteServiceImpl) notifyCounterparty(ctx context.Context, eventType string, quote *entity.Quote, actor *entity.Actor, detail string) {
	recipientID := quote.CreatedBy
	if actor.ID == quote.CreatedBy && quote.ApprovedBy != "" {
		recipientID = quote.ApprovedBy
	}

	recipient, err := s.directory.Lookup(ctx, recipientID)
	if err != nil || recipient == nil {
		s.logger.Error("Failed to resolve notification recipient",
			"error", err,
			"quote_id", quote.ID,
			"recipient_id", recipientID,
		)
		return
	}

	s.notifier.Dispatch(quoteEventNotification(eventType, quote, actor, recipient, detail))
}

func newQuoteNumber(now time.Time) string {
	return fmt.Sprintf("Q-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}
