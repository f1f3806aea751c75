package service

import (
	"context"
	"fmt"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

// WorkflowFacade is the single entry point tying the lifecycle services
// together behind credential-based calls. Every authenticated method
// resolves the credential to an actor first, so the same ordering holds
// everywhere: identity, then authorization, then precondition, then
// mutation, then audit, then notification.
type WorkflowFacade struct {
	identity     port.IdentityResolver
	quotes       QuoteService
	contracts    ContractService
	distribution DistributionService
	shareLinks   ShareLinkService
	versions     VersionService
	audit        AuditService
}

// NewWorkflowFacade creates a new WorkflowFacade
func NewWorkflowFacade(
	identity port.IdentityResolver,
	quotes QuoteService,
	contracts ContractService,
	distribution DistributionService,
	shareLinks ShareLinkService,
	versions VersionService,
	audit AuditService,
) *WorkflowFacade {
	return &WorkflowFacade{
		identity:     identity,
		quotes:       quotes,
		contracts:    contracts,
		distribution: distribution,
		shareLinks:   shareLinks,
		versions:     versions,
		audit:        audit,
	}
}

// resolve turns a credential into an actor. Anything the resolver cannot
// vouch for is Unauthenticated, regardless of the underlying cause.
func (f *WorkflowFacade) resolve(ctx context.Context, credential string) (*entity.Actor, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: missing credential", ErrUnauthenticated)
	}
	actor, err := f.identity.Resolve(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if actor == nil {
		return nil, fmt.Errorf("%w: unknown credential", ErrUnauthenticated)
	}
	return actor, nil
}

// --- quote approval lifecycle ---

func (f *WorkflowFacade) CreateQuote(ctx context.Context, credential string, input CreateQuoteInput) (*entity.Quote, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.quotes.Create(ctx, actor, input)
}

func (f *WorkflowFacade) GetQuote(ctx context.Context, credential, quoteID string) (*entity.Quote, error) {
	if _, err := f.resolve(ctx, credential); err != nil {
		return nil, err
	}
	return f.quotes.Get(ctx, quoteID)
}

func (f *WorkflowFacade) ListQuotes(ctx context.Context, credential string, limit, offset int) ([]*entity.Quote, error) {
	if _, err := f.resolve(ctx, credential); err != nil {
		return nil, err
	}
	return f.quotes.List(ctx, limit, offset)
}

func (f *WorkflowFacade) SubmitQuote(ctx context.Context, credential, quoteID, notes string) (*entity.Quote, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.quotes.Submit(ctx, quoteID, actor, notes)
}

func (f *WorkflowFacade) ApproveQuote(ctx context.Context, credential, quoteID, notes string) (*entity.Quote, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.quotes.Approve(ctx, quoteID, actor, notes)
}

func (f *WorkflowFacade) RejectQuote(ctx context.Context, credential, quoteID, reason string) (*entity.Quote, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.quotes.Reject(ctx, quoteID, actor, reason)
}

func (f *WorkflowFacade) AcceptQuote(ctx context.Context, credential, quoteID, notes string) (*entity.Quote, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.quotes.Accept(ctx, quoteID, actor, notes)
}

func (f *WorkflowFacade) DeclineQuote(ctx context.Context, credential, quoteID string) (*entity.Quote, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.quotes.Decline(ctx, quoteID, actor)
}

// --- contract checkpoints and e-sign ---

func (f *WorkflowFacade) CreateContract(ctx context.Context, credential string, input CreateContractInput) (*entity.Contract, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.contracts.Create(ctx, actor, input)
}

func (f *WorkflowFacade) GetContract(ctx context.Context, credential, contractID string) (*ContractDetail, error) {
	if _, err := f.resolve(ctx, credential); err != nil {
		return nil, err
	}
	return f.contracts.Get(ctx, contractID)
}

func (f *WorkflowFacade) AddCheckpoint(ctx context.Context, credential, contractID string, input CheckpointInput) (*entity.ApprovalCheckpoint, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.contracts.AddCheckpoint(ctx, contractID, actor, input)
}

func (f *WorkflowFacade) DecideCheckpoint(ctx context.Context, credential, contractID, checkpointID string, input DecisionInput) (*entity.ApprovalCheckpoint, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.contracts.DecideCheckpoint(ctx, contractID, checkpointID, actor, input)
}

func (f *WorkflowFacade) RequestSignature(ctx context.Context, credential, contractID string, input SignatureInput) (*entity.ESignRequest, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.contracts.RequestSignature(ctx, contractID, actor, input)
}

// --- quotation distribution ---

func (f *WorkflowFacade) CreateQuotation(ctx context.Context, credential string, input CreateQuotationInput) (*entity.Quotation, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.distribution.Create(ctx, actor, input)
}

func (f *WorkflowFacade) GetQuotation(ctx context.Context, credential, quotationID string) (*entity.Quotation, error) {
	if _, err := f.resolve(ctx, credential); err != nil {
		return nil, err
	}
	return f.distribution.Get(ctx, quotationID)
}

func (f *WorkflowFacade) UpdateQuotationStatus(ctx context.Context, credential, quotationID, newStatus, notes string) (*entity.Quotation, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.distribution.SetStatus(ctx, quotationID, actor, newStatus, notes)
}

func (f *WorkflowFacade) GetQuotationStatus(ctx context.Context, credential, quotationID string) (*StatusReport, error) {
	if _, err := f.resolve(ctx, credential); err != nil {
		return nil, err
	}
	return f.distribution.GetStatus(ctx, quotationID)
}

// --- public share links ---

func (f *WorkflowFacade) CreateShareLink(ctx context.Context, credential, quotationID string, expiresInDays int) (*entity.PublicShareLink, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.shareLinks.CreateOrReuse(ctx, quotationID, actor, expiresInDays)
}

// GetSharedQuote is the unauthenticated customer read: the token is the
// only credential.
func (f *WorkflowFacade) GetSharedQuote(ctx context.Context, token string) (*PublicQuoteView, error) {
	return f.shareLinks.Resolve(ctx, token)
}

// SubmitQuoteResponse is the unauthenticated customer write.
func (f *WorkflowFacade) SubmitQuoteResponse(ctx context.Context, token string, input ResponseInput) (*entity.CustomerResponse, error) {
	return f.shareLinks.SubmitResponse(ctx, token, input)
}

func (f *WorkflowFacade) ListCustomerResponses(ctx context.Context, credential, quotationID string) ([]*entity.CustomerResponse, error) {
	if _, err := f.resolve(ctx, credential); err != nil {
		return nil, err
	}
	return f.shareLinks.ListResponses(ctx, quotationID)
}

// --- version snapshots ---

func (f *WorkflowFacade) CreateQuoteVersion(ctx context.Context, credential, quotationID, reason string) (*entity.QuoteVersion, error) {
	actor, err := f.resolve(ctx, credential)
	if err != nil {
		return nil, err
	}
	return f.versions.CreateVersion(ctx, quotationID, actor, reason)
}

func (f *WorkflowFacade) ListQuoteVersions(ctx context.Context, credential, quotationID string) ([]*entity.QuoteVersion, error) {
	if _, err := f.resolve(ctx, credential); err != nil {
		return nil, err
	}
	return f.versions.ListVersions(ctx, quotationID)
}

// --- audit trail ---

func (f *WorkflowFacade) AuditTrail(ctx context.Context, credential, entityType, entityID string) ([]*entity.AuditEntry, error) {
	if _, err := f.resolve(ctx, credential); err != nil {
		return nil, err
	}
	return f.audit.Trail(ctx, entityType, entityID)
}
