package service

import (
	"context"
	"errors"
	"testing"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
	"github.com/quoteflow/quoteflow/internal/domain/workflow"
)

func newQuoteService(quoteRepo *mockQuoteRepo, auditRepo *mockAuditRepo, notifier *mockNotifier) QuoteService {
	logger := &mockLogger{}
	return NewQuoteService(
		quoteRepo,
		&mockDirectory{},
		NewAuthorizer(),
		NewAuditService(auditRepo, logger),
		notifier,
		logger,
	)
}

var (
	owner    = &entity.Actor{ID: "user-owner", Role: entity.RoleMember, Email: "owner@example.com", Name: "Owner"}
	manager  = &entity.Actor{ID: "user-manager", Role: entity.RoleManager, Email: "manager@example.com", Name: "Manager"}
	stranger = &entity.Actor{ID: "user-other", Role: entity.RoleMember, Email: "other@example.com", Name: "Other"}
)

func TestQuoteService_Create(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateQuoteInput
		wantErr error
	}{
		{
			name:  "valid quote",
			input: CreateQuoteInput{Title: "Website build", Total: 12000, Currency: "USD"},
		},
		{
			name:    "missing title",
			input:   CreateQuoteInput{Total: 500},
			wantErr: ErrValidation,
		},
		{
			name:    "blank title",
			input:   CreateQuoteInput{Title: "   "},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditRepo := &mockAuditRepo{}
			service := newQuoteService(&mockQuoteRepo{}, auditRepo, &mockNotifier{})

			quote, err := service.Create(context.Background(), owner, tt.input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if quote.Status != entity.QuoteStatusDraft {
				t.Errorf("Create() status = %q, want draft", quote.Status)
			}
			if quote.CreatedBy != owner.ID {
				t.Errorf("Create() createdBy = %q, want %q", quote.CreatedBy, owner.ID)
			}
			if quote.QuoteNumber == "" {
				t.Errorf("Create() quote number is empty")
			}
			if auditRepo.count() != 1 {
				t.Errorf("Create() audit entries = %d, want 1", auditRepo.count())
			}
		})
	}
}

func TestQuoteService_Submit(t *testing.T) {
	quoteRepo := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
			return &entity.Quote{ID: id, Status: entity.QuoteStatusDraft, CreatedBy: owner.ID, QuoteNumber: "Q-1"}, nil
		},
	}
	notifier := &mockNotifier{}
	service := newQuoteService(quoteRepo, &mockAuditRepo{}, notifier)

	quote, err := service.Submit(context.Background(), "quote-1", owner, "please review")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if quote.Status != entity.QuoteStatusPending {
		t.Errorf("Submit() status = %q, want pending", quote.Status)
	}
	if quote.SubmittedAt == nil {
		t.Errorf("Submit() submittedAt not set")
	}
	if notifier.count() != 1 {
		t.Errorf("Submit() notifications = %d, want 1", notifier.count())
	}
}

func TestQuoteService_Submit_NotOwner(t *testing.T) {
	quoteRepo := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
			return &entity.Quote{ID: id, Status: entity.QuoteStatusDraft, CreatedBy: owner.ID}, nil
		},
	}
	service := newQuoteService(quoteRepo, &mockAuditRepo{}, &mockNotifier{})

	_, err := service.Submit(context.Background(), "quote-1", stranger, "")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Submit() error = %v, want ErrForbidden", err)
	}
	if len(quoteRepo.transitionCalls) != 0 {
		t.Errorf("Submit() wrote a transition despite authorization failure")
	}
}

func TestQuoteService_Approve(t *testing.T) {
	quoteRepo := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
			return &entity.Quote{ID: id, Status: entity.QuoteStatusPending, CreatedBy: owner.ID, QuoteNumber: "Q-1"}, nil
		},
	}
	auditRepo := &mockAuditRepo{}
	service := newQuoteService(quoteRepo, auditRepo, &mockNotifier{})

	quote, err := service.Approve(context.Background(), "quote-1", manager, "numbers check out")
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if quote.Status != entity.QuoteStatusApproved {
		t.Errorf("Approve() status = %q, want approved", quote.Status)
	}
	if quote.ApprovedBy != manager.ID {
		t.Errorf("Approve() approvedBy = %q, want %q", quote.ApprovedBy, manager.ID)
	}
	if quote.ApprovedAt == nil {
		t.Errorf("Approve() approvedAt not set")
	}
	if auditRepo.count() != 1 {
		t.Errorf("Approve() audit entries = %d, want 1", auditRepo.count())
	}
}

func TestQuoteService_Approve_Validation(t *testing.T) {
	service := newQuoteService(&mockQuoteRepo{}, &mockAuditRepo{}, &mockNotifier{})

	if _, err := service.Approve(context.Background(), "quote-1", manager, "  "); !errors.Is(err, ErrValidation) {
		t.Errorf("Approve() with blank notes error = %v, want ErrValidation", err)
	}
	if _, err := service.Reject(context.Background(), "quote-1", manager, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("Reject() with no reason error = %v, want ErrValidation", err)
	}
}

func TestQuoteService_Approve_MemberForbidden(t *testing.T) {
	quoteRepo := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
			return &entity.Quote{ID: id, Status: entity.QuoteStatusPending, CreatedBy: owner.ID}, nil
		},
	}
	service := newQuoteService(quoteRepo, &mockAuditRepo{}, &mockNotifier{})

	_, err := service.Approve(context.Background(), "quote-1", owner, "self approval")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Approve() by member error = %v, want ErrForbidden", err)
	}
}

func TestQuoteService_Approve_InvalidFromDraft(t *testing.T) {
	quoteRepo := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
			return &entity.Quote{ID: id, Status: entity.QuoteStatusDraft, CreatedBy: owner.ID}, nil
		},
	}
	service := newQuoteService(quoteRepo, &mockAuditRepo{}, &mockNotifier{})

	_, err := service.Approve(context.Background(), "quote-1", manager, "too early")
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("Approve() from draft error = %v, want ErrInvalidTransition", err)
	}

	var te *workflow.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("Approve() error is not a TransitionError: %v", err)
	}
	if got := te.AllowedStrings(); len(got) != 1 || got[0] != entity.QuoteStatusPending {
		t.Errorf("Approve() allowed = %v, want [pending]", got)
	}
}

func TestQuoteService_Reject(t *testing.T) {
	quoteRepo := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
			return &entity.Quote{ID: id, Status: entity.QuoteStatusPending, CreatedBy: owner.ID, QuoteNumber: "Q-1"}, nil
		},
	}
	notifier := &mockNotifier{}
	service := newQuoteService(quoteRepo, &mockAuditRepo{}, notifier)

	quote, err := service.Reject(context.Background(), "quote-1", manager, "margins too thin")
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if quote.Status != entity.QuoteStatusRejected {
		t.Errorf("Reject() status = %q, want rejected", quote.Status)
	}
	if quote.RejectionReason != "margins too thin" {
		t.Errorf("Reject() reason = %q", quote.RejectionReason)
	}
	if notifier.count() != 1 {
		t.Errorf("Reject() notifications = %d, want 1", notifier.count())
	}
}

func TestQuoteService_AcceptDecline(t *testing.T) {
	makeRepo := func() *mockQuoteRepo {
		return &mockQuoteRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
				return &entity.Quote{ID: id, Status: entity.QuoteStatusApproved, CreatedBy: owner.ID, ApprovedBy: manager.ID, QuoteNumber: "Q-1"}, nil
			},
		}
	}

	service := newQuoteService(makeRepo(), &mockAuditRepo{}, &mockNotifier{})
	quote, err := service.Accept(context.Background(), "quote-1", owner, "deal")
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if quote.Status != entity.QuoteStatusAccepted {
		t.Errorf("Accept() status = %q, want accepted", quote.Status)
	}

	service = newQuoteService(makeRepo(), &mockAuditRepo{}, &mockNotifier{})
	quote, err = service.Decline(context.Background(), "quote-1", owner)
	if err != nil {
		t.Fatalf("Decline() error = %v", err)
	}
	if quote.Status != entity.QuoteStatusDeclined {
		t.Errorf("Decline() status = %q, want declined", quote.Status)
	}

	service = newQuoteService(makeRepo(), &mockAuditRepo{}, &mockNotifier{})
	if _, err := service.Accept(context.Background(), "quote-1", stranger, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("Accept() by non-owner error = %v, want ErrForbidden", err)
	}
}

func TestQuoteService_LostRace(t *testing.T) {
	status := entity.QuoteStatusPending
	quoteRepo := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
			return &entity.Quote{ID: id, Status: status, CreatedBy: owner.ID}, nil
		},
		transitionFunc: func(ctx context.Context, update port.QuoteStatusUpdate) (bool, error) {
			// Another approver landed first.
			status = entity.QuoteStatusRejected
			return false, nil
		},
	}
	auditRepo := &mockAuditRepo{}
	notifier := &mockNotifier{}
	service := newQuoteService(quoteRepo, auditRepo, notifier)

	_, err := service.Approve(context.Background(), "quote-1", manager, "looks fine")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Approve() after lost race error = %v, want ErrConflict", err)
	}
	if auditRepo.count() != 0 {
		t.Errorf("Approve() wrote %d audit entries for a failed transition", auditRepo.count())
	}
	if notifier.count() != 0 {
		t.Errorf("Approve() dispatched %d notifications for a failed transition", notifier.count())
	}
}

func TestQuoteService_AuditFailureFailsOperation(t *testing.T) {
	quoteRepo := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
			return &entity.Quote{ID: id, Status: entity.QuoteStatusDraft, CreatedBy: owner.ID}, nil
		},
	}
	auditRepo := &mockAuditRepo{
		createFunc: func(ctx context.Context, entry *entity.AuditEntry) error {
			return errors.New("disk full")
		},
	}
	service := newQuoteService(quoteRepo, auditRepo, &mockNotifier{})

	_, err := service.Submit(context.Background(), "quote-1", owner, "")
	if !errors.Is(err, ErrAuditFailed) {
		t.Errorf("Submit() with failing audit error = %v, want ErrAuditFailed", err)
	}
	// The status write itself went through before the audit attempt.
	if len(quoteRepo.transitionCalls) != 1 {
		t.Errorf("Submit() transitions = %d, want 1", len(quoteRepo.transitionCalls))
	}
}

func TestQuoteService_NotFound(t *testing.T) {
	quoteRepo := &mockQuoteRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Quote, error) {
			return nil, nil
		},
	}
	service := newQuoteService(quoteRepo, &mockAuditRepo{}, &mockNotifier{})

	if _, err := service.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}
