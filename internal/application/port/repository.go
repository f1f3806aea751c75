package port

import (
	"context"
	"errors"
	"time"

	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

// ErrDuplicateVersion is returned by VersionRepository.Create when the
// (quotation_id, version) uniqueness constraint rejects the insert.
var ErrDuplicateVersion = errors.New("duplicate version number")

// ErrDuplicateResponse is returned by ResponseRepository.Create when the
// partial uniqueness constraint on decisive responses rejects the insert.
var ErrDuplicateResponse = errors.New("duplicate decisive response")

// QuoteRepository defines persistence operations for Quote
type QuoteRepository interface {
	Create(ctx context.Context, quote *entity.Quote) error
	GetByID(ctx context.Context, id string) (*entity.Quote, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Quote, error)

	// TransitionStatus performs the conditional status update that backs
	// every quote transition: the write applies only if the row's current
	// status equals expectedStatus. Returns false (and no error) when the
	// guard did not match, so the caller can distinguish a lost race from
	// a storage failure.
	TransitionStatus(ctx context.Context, update QuoteStatusUpdate) (bool, error)
}

// QuoteStatusUpdate carries one guarded quote transition. Only non-nil
// optional fields are written.
type QuoteStatusUpdate struct {
	ID              string
	ExpectedStatus  string
	NewStatus       string
	ApprovedBy      string
	ApprovalNotes   string
	RejectionReason string
	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
}

// ContractRepository defines persistence operations for Contract
type ContractRepository interface {
	Create(ctx context.Context, contract *entity.Contract) error
	GetByID(ctx context.Context, id string) (*entity.Contract, error)

	// SetStatus writes the status unconditionally (checkpoint rejection
	// forces draft regardless of the contract's current state).
	SetStatus(ctx context.Context, id, status string) error

	// TransitionStatus is the guarded variant used where the prior status
	// is load-bearing (e.g. approved -> pending_signature).
	TransitionStatus(ctx context.Context, id, expectedStatus, newStatus string) (bool, error)
}

// CheckpointRepository defines persistence operations for ApprovalCheckpoint
type CheckpointRepository interface {
	Create(ctx context.Context, cp *entity.ApprovalCheckpoint) error
	GetByID(ctx context.Context, id string) (*entity.ApprovalCheckpoint, error)
	GetByContractID(ctx context.Context, contractID string) ([]*entity.ApprovalCheckpoint, error)

	// Decide records a checkpoint decision only while the checkpoint is
	// still undecided (approved IS NULL). Returns false when another
	// decision already landed.
	Decide(ctx context.Context, decision CheckpointDecision) (bool, error)
}

// CheckpointDecision carries one checkpoint decision write.
type CheckpointDecision struct {
	CheckpointID   string
	Approved       bool
	ApprovedBy     string
	ApprovedAt     time.Time
	Notes          string
	RejectedReason string
}

// ESignRepository defines persistence operations for ESignRequest
type ESignRepository interface {
	Create(ctx context.Context, req *entity.ESignRequest) error
	GetByContractID(ctx context.Context, contractID string) ([]*entity.ESignRequest, error)
}

// QuotationRepository defines persistence operations for Quotation
type QuotationRepository interface {
	Create(ctx context.Context, quotation *entity.Quotation) error
	GetByID(ctx context.Context, id string) (*entity.Quotation, error)

	// TransitionStatus applies the distribution status change only if the
	// row still holds expectedStatus.
	TransitionStatus(ctx context.Context, id, expectedStatus, newStatus string) (bool, error)
}

// QuotationLineRepository defines persistence operations for QuotationLine
type QuotationLineRepository interface {
	CreateBatch(ctx context.Context, lines []*entity.QuotationLine) error
	GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.QuotationLine, error)
}

// StatusHistoryRepository defines persistence operations for StatusHistoryEntry
type StatusHistoryRepository interface {
	Create(ctx context.Context, entry *entity.StatusHistoryEntry) error

	// GetByQuotationID returns entries most recent first.
	GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.StatusHistoryEntry, error)
}

// ShareLinkRepository defines persistence operations for PublicShareLink
type ShareLinkRepository interface {
	Create(ctx context.Context, link *entity.PublicShareLink) error
	GetByToken(ctx context.Context, token string) (*entity.PublicShareLink, error)

	// GetActiveByQuotationID returns the unexpired link for a quotation,
	// or nil when none exists.
	GetActiveByQuotationID(ctx context.Context, quotationID string, now time.Time) (*entity.PublicShareLink, error)

	// RecordView increments the view counter and stamps last_viewed_at.
	// Lost-update races on the counter are tolerated.
	RecordView(ctx context.Context, id string, viewedAt time.Time) error
}

// ResponseRepository defines persistence operations for CustomerResponse
type ResponseRepository interface {
	Create(ctx context.Context, resp *entity.CustomerResponse) error
	GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.CustomerResponse, error)

	// HasDecisive reports whether an accept or reject response already
	// exists for the quotation.
	HasDecisive(ctx context.Context, quotationID string) (bool, error)
}

// VersionRepository defines persistence operations for QuoteVersion
type VersionRepository interface {
	// Create inserts the snapshot. The store enforces a unique
	// (quotation_id, version) constraint; a constraint violation is
	// reported as ErrDuplicateVersion so callers can retry with a fresh
	// number.
	Create(ctx context.Context, version *entity.QuoteVersion) error
	GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.QuoteVersion, error)
	MaxVersion(ctx context.Context, quotationID string) (int, error)
}

// AuditRepository defines persistence operations for AuditEntry
type AuditRepository interface {
	Create(ctx context.Context, entry *entity.AuditEntry) error
	GetByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error)
}

// TransactionManager executes a function within a storage transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
