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
)

// CreateContractInput carries the fields for a new draft contract.
type CreateContractInput struct {
	Title      string
	TotalValue float64
	Currency   string
}

// CheckpointInput carries the fields for a new approval checkpoint.
type CheckpointInput struct {
	Name            string
	CheckpointOrder int
	RequiredRole    entity.Role
}

// DecisionInput carries one checkpoint decision.
type DecisionInput struct {
	Decision       string // approve | reject
	Notes          string
	RejectedReason string
}

// SignatureInput carries the e-sign handoff request.
type SignatureInput struct {
	Signers  []string
	Provider string
	Message  string
}

// ContractDetail is a contract with its checkpoints and e-sign requests.
type ContractDetail struct {
	Contract    *entity.Contract             `json:"contract"`
	Checkpoints []*entity.ApprovalCheckpoint `json:"checkpoints"`
	ESign       []*entity.ESignRequest       `json:"esign_requests"`
}

// ContractService owns the checkpoint-gated approval workflow of a
// Contract. Checkpoint order is informational; the load-bearing rules
// are the aggregates: all checkpoints approved makes the contract
// approved, any single rejection returns it to draft.
type ContractService interface {
	Create(ctx context.Context, actor *entity.Actor, input CreateContractInput) (*entity.Contract, error)
	Get(ctx context.Context, id string) (*ContractDetail, error)
	AddCheckpoint(ctx context.Context, contractID string, actor *entity.Actor, input CheckpointInput) (*entity.ApprovalCheckpoint, error)
	DecideCheckpoint(ctx context.Context, contractID, checkpointID string, actor *entity.Actor, input DecisionInput) (*entity.ApprovalCheckpoint, error)
	RequestSignature(ctx context.Context, contractID string, actor *entity.Actor, input SignatureInput) (*entity.ESignRequest, error)
}

type contractServiceImpl struct {
	contractRepo   port.ContractRepository
	checkpointRepo port.CheckpointRepository
	esignRepo      port.ESignRepository
	provider       port.SignatureProvider
	directory      port.IdentityDirectory
	txManager      port.TransactionManager
	authorizer     *Authorizer
	audit          AuditService
	notifier       NotificationService
	logger         Logger
}

// NewContractService creates a new ContractService
func NewContractService(
	contractRepo port.ContractRepository,
	checkpointRepo port.CheckpointRepository,
	esignRepo port.ESignRepository,
	provider port.SignatureProvider,
	directory port.IdentityDirectory,
	txManager port.TransactionManager,
	authorizer *Authorizer,
	audit AuditService,
	notifier NotificationService,
	logger Logger,
) ContractService {
	return &contractServiceImpl{
		contractRepo:   contractRepo,
		checkpointRepo: checkpointRepo,
		esignRepo:      esignRepo,
		provider:       provider,
		directory:      directory,
		txManager:      txManager,
		authorizer:     authorizer,
		audit:          audit,
		notifier:       notifier,
		logger:         logger,
	}
}

// Create creates a new contract in draft
func (s *contractServiceImpl) Create(ctx context.Context, actor *entity.Actor, input CreateContractInput) (*entity.Contract, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	now := time.Now().UTC()
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}

	contract := &entity.Contract{
		ID:         uuid.NewString(),
		Title:      strings.TrimSpace(input.Title),
		Status:     entity.ContractStatusDraft,
		TotalValue: input.TotalValue,
		Currency:   currency,
		CreatedBy:  actor.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.contractRepo.Create(ctx, contract); err != nil {
		s.logger.Error("Failed to create contract", "error", err)
		return nil, fmt.Errorf("create contract: %w", err)
	}

	if err := s.audit.Record(ctx, entity.AuditEntityContract, contract.ID, "created", actor, nil, contract); err != nil {
		return nil, err
	}

	s.logger.Info("Contract created", "contract_id", contract.ID, "created_by", actor.ID)
	return contract, nil
}

// Get retrieves a contract with checkpoints and e-sign requests
func (s *contractServiceImpl) Get(ctx context.Context, id string) (*ContractDetail, error) {
	contract, err := s.loadContract(ctx, id)
	if err != nil {
		return nil, err
	}

	checkpoints, err := s.checkpointRepo.GetByContractID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get checkpoints: %w", err)
	}

	esign, err := s.esignRepo.GetByContractID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get esign requests: %w", err)
	}

	return &ContractDetail{Contract: contract, Checkpoints: checkpoints, ESign: esign}, nil
}

// AddCheckpoint creates an approval checkpoint. Adding the first
// checkpoint to a draft contract opens the approval round.
func (s *contractServiceImpl) AddCheckpoint(ctx context.Context, contractID string, actor *entity.Actor, input CheckpointInput) (*entity.ApprovalCheckpoint, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: checkpoint name is required", ErrValidation)
	}

	contract, err := s.loadContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	cp := &entity.ApprovalCheckpoint{
		ID:              uuid.NewString(),
		ContractID:      contractID,
		Name:            strings.TrimSpace(input.Name),
		CheckpointOrder: input.CheckpointOrder,
		RequiredRole:    entity.NormalizeRole(input.RequiredRole),
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.checkpointRepo.Create(ctx, cp); err != nil {
		s.logger.Error("Failed to create checkpoint", "error", err, "contract_id", contractID)
		return nil, fmt.Errorf("create checkpoint: %w", err)
	}

	if contract.Status == entity.ContractStatusDraft {
		if _, err := s.contractRepo.TransitionStatus(ctx, contractID, entity.ContractStatusDraft, entity.ContractStatusPendingApproval); err != nil {
			return nil, fmt.Errorf("open approval round: %w", err)
		}
	}

	if err := s.audit.Record(ctx, entity.AuditEntityCheckpoint, cp.ID, "created", actor, nil, cp); err != nil {
		return nil, err
	}

	s.logger.Info("Checkpoint created", "checkpoint_id", cp.ID, "contract_id", contractID, "order", cp.CheckpointOrder)
	return cp, nil
}

// DecideCheckpoint records an approve/reject decision. Exactly one
// decision lands per checkpoint: a concurrent loser gets an idempotent
// success when it asked for the identical outcome, Conflict otherwise.
func (s *contractServiceImpl) DecideCheckpoint(ctx context.Context, contractID, checkpointID string, actor *entity.Actor, input DecisionInput) (*entity.ApprovalCheckpoint, error) {
	if input.Decision != "approve" && input.Decision != "reject" {
		return nil, fmt.Errorf("%w: decision must be approve or reject", ErrValidation)
	}
	if input.Decision == "reject" && strings.TrimSpace(input.RejectedReason) == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	if _, err := s.loadContract(ctx, contractID); err != nil {
		return nil, err
	}

	cp, err := s.checkpointRepo.GetByID(ctx, checkpointID)
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}
	if cp == nil || cp.ContractID != contractID {
		return nil, fmt.Errorf("%w: checkpoint %s", ErrNotFound, checkpointID)
	}

	if d := s.authorizer.CanDecideCheckpoint(actor, cp); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	approving := input.Decision == "approve"

	if cp.Approved != nil {
		return s.settleDecided(cp, approving)
	}

	now := time.Now().UTC()
	decision := port.CheckpointDecision{
		CheckpointID:   checkpointID,
		Approved:       approving,
		ApprovedBy:     actor.ID,
		ApprovedAt:     now,
		Notes:          strings.TrimSpace(input.Notes),
		RejectedReason: strings.TrimSpace(input.RejectedReason),
	}

	ok, err := s.checkpointRepo.Decide(ctx, decision)
	if err != nil {
		s.logger.Error("Failed to decide checkpoint", "error", err, "checkpoint_id", checkpointID)
		return nil, fmt.Errorf("decide checkpoint: %w", err)
	}
	if !ok {
		// Another decision landed first; re-read to settle.
		fresh, readErr := s.checkpointRepo.GetByID(ctx, checkpointID)
		if readErr != nil || fresh == nil || fresh.Approved == nil {
			return nil, fmt.Errorf("%w: checkpoint %s was decided concurrently", ErrConflict, checkpointID)
		}
		return s.settleDecided(fresh, approving)
	}

	cp.Approved = &approving
	cp.ApprovedBy = actor.ID
	cp.ApprovedAt = &now
	cp.Notes = decision.Notes
	cp.RejectedReason = decision.RejectedReason

	newContractStatus, err := s.recomputeContractStatus(ctx, contractID, approving)
	if err != nil {
		return nil, err
	}

	action := "approved"
	if !approving {
		action = "rejected"
	}
	if err := s.audit.Record(ctx, entity.AuditEntityCheckpoint, cp.ID, action, actor, nil, cp); err != nil {
		return nil, err
	}
	if newContractStatus != "" {
		if err := s.audit.Record(ctx, entity.AuditEntityContract, contractID, "status_"+newContractStatus, actor,
			nil, map[string]string{"status": newContractStatus}); err != nil {
			return nil, err
		}
	}

	s.notifyContractEvent(ctx, entity.EventCheckpointDecided, contractID, actor,
		fmt.Sprintf("Checkpoint %q was %s by %s.", cp.Name, action, actor.Name))

	s.logger.Info("Checkpoint decided",
		"checkpoint_id", cp.ID,
		"contract_id", contractID,
		"decision", input.Decision,
		"actor_id", actor.ID,
	)
	return cp, nil
}

// settleDecided resolves a decision request against an already-decided
// checkpoint: identical outcome is an idempotent success, a different
// outcome is a conflict.
func (s *contractServiceImpl) settleDecided(cp *entity.ApprovalCheckpoint, approving bool) (*entity.ApprovalCheckpoint, error) {
	if *cp.Approved == approving {
		return cp, nil
	}
	return nil, fmt.Errorf("%w: checkpoint %s already decided differently", ErrConflict, cp.ID)
}

// recomputeContractStatus applies the aggregate rule after a decision.
// Returns the new contract status, or "" when unchanged.
func (s *contractServiceImpl) recomputeContractStatus(ctx context.Context, contractID string, approved bool) (string, error) {
	if !approved {
		// Any rejection restarts the whole approval round.
		if err := s.contractRepo.SetStatus(ctx, contractID, entity.ContractStatusDraft); err != nil {
			return "", fmt.Errorf("reset contract to draft: %w", err)
		}
		return entity.ContractStatusDraft, nil
	}

	checkpoints, err := s.checkpointRepo.GetByContractID(ctx, contractID)
	if err != nil {
		return "", fmt.Errorf("get checkpoints: %w", err)
	}

	for _, cp := range checkpoints {
		if cp.Approved == nil || !*cp.Approved {
			return "", nil
		}
	}

	if err := s.contractRepo.SetStatus(ctx, contractID, entity.ContractStatusApproved); err != nil {
		return "", fmt.Errorf("set contract approved: %w", err)
	}
	return entity.ContractStatusApproved, nil
}

// RequestSignature hands an approved contract off to the e-signature
// provider. The ESignRequest row and the status flip are the system of
// record; the provider call happens afterwards and its failure is only
// logged.
func (s *contractServiceImpl) RequestSignature(ctx context.Context, contractID string, actor *entity.Actor, input SignatureInput) (*entity.ESignRequest, error) {
	if len(input.Signers) == 0 {
		return nil, fmt.Errorf("%w: at least one signer is required", ErrValidation)
	}

	contract, err := s.loadContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	if d := s.authorizer.CanRequestSignature(actor); !d.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	if contract.Status != entity.ContractStatusApproved {
		return nil, &workflow.TransitionError{
			Entity:    "contract",
			Current:   workflow.State(contract.Status),
			Requested: "request signatures for",
			Allowed:   []workflow.State{workflow.State(entity.ContractStatusApproved)},
		}
	}

	provider := input.Provider
	if provider == "" {
		provider = "docusign"
	}

	req := &entity.ESignRequest{
		ID:          uuid.NewString(),
		ContractID:  contractID,
		Signers:     input.Signers,
		Provider:    provider,
		Message:     input.Message,
		Status:      entity.ESignStatusPending,
		RequestedBy: actor.ID,
		CreatedAt:   time.Now().UTC(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		ok, err := s.contractRepo.TransitionStatus(txCtx, contractID, entity.ContractStatusApproved, entity.ContractStatusPendingSignature)
		if err != nil {
			return fmt.Errorf("flip contract status: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: contract %s left approved before signature request", ErrConflict, contractID)
		}
		if err := s.esignRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create esign request: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create signature request", "error", err, "contract_id", contractID)
		return nil, err
	}

	if err := s.audit.Record(ctx, entity.AuditEntityESign, req.ID, "created", actor, nil, req); err != nil {
		return nil, err
	}

	// Provider handoff is best-effort; the pending row is authoritative.
	if handle, provErr := s.provider.RequestSignatures(ctx, port.SignatureRequest{
		ContractID: contractID,
		Signers:    input.Signers,
		Message:    input.Message,
		Provider:   provider,
	}); provErr != nil {
		s.logger.Error("Signature provider unreachable", "error", provErr, "esign_id", req.ID)
	} else {
		s.logger.Info("Signature provider accepted request", "esign_id", req.ID, "handle", handle)
	}

	s.notifyContractEvent(ctx, entity.EventSignatureRequested, contractID, actor,
		fmt.Sprintf("%s requested signatures from %d signer(s).", actor.Name, len(input.Signers)))

	return req, nil
}

func (s *contractServiceImpl) loadContract(ctx context.Context, id string) (*entity.Contract, error) {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get contract", "error", err, "contract_id", id)
		return nil, fmt.Errorf("get contract: %w", err)
	}
	if contract == nil {
		return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
	}
	return contract, nil
}

func (s *contractServiceImpl) notifyContractEvent(ctx context.Context, eventType, contractID string, actor *entity.Actor, body string) {
	contract, err := s.contractRepo.GetByID(ctx, contractID)
	if err != nil || contract == nil {
		return
	}

	recipient, err := s.directory.Lookup(ctx, contract.CreatedBy)
	if err != nil || recipient == nil {
		s.logger.Error("Failed to resolve notification recipient", "error", err, "contract_id", contractID)
		return
	}

	s.notifier.Dispatch(port.Notification{
		EventType:      eventType,
		RecipientEmail: recipient.Email,
		RecipientName:  recipient.Name,
		Subject:        fmt.Sprintf("Contract %s: %s", contract.Title, eventType),
		Body:           body,
		Payload: map[string]string{
			"contract_id": contractID,
			"status":      contract.Status,
			"actor_id":    actor.ID,
		},
	})
}
