package service

import (
	"context"
	"errors"
	"testing"

	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

func newFacade(resolver *mockResolver) *WorkflowFacade {
	logger := &mockLogger{}
	audit := NewAuditService(&mockAuditRepo{}, logger)
	notifier := &mockNotifier{}
	authorizer := NewAuthorizer()
	directory := &mockDirectory{}
	tx := &mockTxManager{}

	quotationRepo := &mockQuotationRepo{}
	lineRepo := &mockLineRepo{}
	distribution := NewDistributionService(quotationRepo, lineRepo, &mockHistoryRepo{}, tx, audit, logger)

	return NewWorkflowFacade(
		resolver,
		NewQuoteService(&mockQuoteRepo{}, directory, authorizer, audit, notifier, logger),
		NewContractService(&mockContractRepo{}, &mockCheckpointRepo{}, &mockESignRepo{}, &mockProvider{}, directory, tx, authorizer, audit, notifier, logger),
		distribution,
		NewShareLinkService(&mockShareLinkRepo{}, &mockResponseRepo{}, quotationRepo, lineRepo, distribution, audit, logger),
		NewVersionService(newMockVersionRepo(), quotationRepo, lineRepo, audit, logger),
		audit,
	)
}

func TestWorkflowFacade_ResolvesCredentialFirst(t *testing.T) {
	facade := newFacade(&mockResolver{})

	quote, err := facade.CreateQuote(context.Background(), "token-owner", CreateQuoteInput{Title: "Site"})
	if err != nil {
		t.Fatalf("CreateQuote() error = %v", err)
	}
	if quote.CreatedBy != "user-owner" {
		t.Errorf("CreateQuote() createdBy = %q, want the resolved actor", quote.CreatedBy)
	}
}

func TestWorkflowFacade_MissingCredential(t *testing.T) {
	facade := newFacade(&mockResolver{})

	if _, err := facade.SubmitQuote(context.Background(), "", "q-1", ""); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("SubmitQuote() without credential error = %v, want ErrUnauthenticated", err)
	}
}

func TestWorkflowFacade_UnknownCredential(t *testing.T) {
	facade := newFacade(&mockResolver{
		resolveFunc: func(ctx context.Context, credential string) (*entity.Actor, error) {
			return nil, errors.New("token not recognized")
		},
	})

	if _, err := facade.ApproveQuote(context.Background(), "bogus", "q-1", "ok"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("ApproveQuote() with bad credential error = %v, want ErrUnauthenticated", err)
	}
}

func TestWorkflowFacade_PublicReadNeedsNoCredential(t *testing.T) {
	facade := newFacade(&mockResolver{
		resolveFunc: func(ctx context.Context, credential string) (*entity.Actor, error) {
			t.Errorf("public read must not touch the identity resolver")
			return nil, nil
		},
	})

	// Token does not exist, but the failure is about the token, not auth.
	if _, err := facade.GetSharedQuote(context.Background(), "unknown-token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSharedQuote() error = %v, want ErrNotFound", err)
	}
}

func TestWorkflowFacade_AuthorizationAfterIdentity(t *testing.T) {
	// The resolver knows the actor but the actor lacks the approver role:
	// the failure must be Forbidden, not Unauthenticated.
	facade := newFacade(&mockResolver{
		resolveFunc: func(ctx context.Context, credential string) (*entity.Actor, error) {
			return &entity.Actor{ID: "user-member", Role: entity.RoleMember}, nil
		},
	})

	if _, err := facade.ApproveQuote(context.Background(), "token-member", "q-1", "ok"); !errors.Is(err, ErrForbidden) {
		t.Errorf("ApproveQuote() by member error = %v, want ErrForbidden", err)
	}
}
