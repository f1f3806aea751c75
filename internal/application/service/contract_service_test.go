package service

import (
	"context"
	"errors"
	"testing"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
	"github.com/quoteflow/quoteflow/internal/domain/workflow"
)

var admin = &entity.Actor{ID: "user-admin", Role: entity.RoleAdmin, Email: "admin@example.com", Name: "Admin"}

type contractFixture struct {
	contractRepo   *mockContractRepo
	checkpointRepo *mockCheckpointRepo
	esignRepo      *mockESignRepo
	provider       *mockProvider
	auditRepo      *mockAuditRepo
	notifier       *mockNotifier
	service        ContractService
}

func newContractFixture() *contractFixture {
	f := &contractFixture{
		contractRepo:   &mockContractRepo{},
		checkpointRepo: &mockCheckpointRepo{},
		esignRepo:      &mockESignRepo{},
		provider:       &mockProvider{},
		auditRepo:      &mockAuditRepo{},
		notifier:       &mockNotifier{},
	}
	logger := &mockLogger{}
	f.service = NewContractService(
		f.contractRepo,
		f.checkpointRepo,
		f.esignRepo,
		f.provider,
		&mockDirectory{},
		&mockTxManager{},
		NewAuthorizer(),
		NewAuditService(f.auditRepo, logger),
		f.notifier,
		logger,
	)
	return f
}

func TestContractService_Create(t *testing.T) {
	f := newContractFixture()

	contract, err := f.service.Create(context.Background(), owner, CreateContractInput{Title: "MSA", TotalValue: 50000})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if contract.Status != entity.ContractStatusDraft {
		t.Errorf("Create() status = %q, want draft", contract.Status)
	}
	if contract.Currency != "USD" {
		t.Errorf("Create() currency = %q, want USD default", contract.Currency)
	}

	if _, err := f.service.Create(context.Background(), owner, CreateContractInput{}); !errors.Is(err, ErrValidation) {
		t.Errorf("Create() without title error = %v, want ErrValidation", err)
	}
}

func TestContractService_AddCheckpoint_OpensApprovalRound(t *testing.T) {
	f := newContractFixture()

	var flipped bool
	f.contractRepo.transitionFunc = func(ctx context.Context, id, expectedStatus, newStatus string) (bool, error) {
		if expectedStatus == entity.ContractStatusDraft && newStatus == entity.ContractStatusPendingApproval {
			flipped = true
		}
		return true, nil
	}

	cp, err := f.service.AddCheckpoint(context.Background(), "contract-1", owner, CheckpointInput{
		Name:            "Legal review",
		CheckpointOrder: 1,
		RequiredRole:    "Manager",
	})
	if err != nil {
		t.Fatalf("AddCheckpoint() error = %v", err)
	}
	if !flipped {
		t.Errorf("AddCheckpoint() did not open the approval round")
	}
	if cp.RequiredRole != entity.RoleManager {
		t.Errorf("AddCheckpoint() requiredRole = %q, want normalized manager", cp.RequiredRole)
	}
	if cp.Approved != nil {
		t.Errorf("AddCheckpoint() new checkpoint already decided")
	}

	if _, err := f.service.AddCheckpoint(context.Background(), "contract-1", owner, CheckpointInput{Name: " "}); !errors.Is(err, ErrValidation) {
		t.Errorf("AddCheckpoint() with blank name error = %v, want ErrValidation", err)
	}
}

func TestContractService_DecideCheckpoint_Approve(t *testing.T) {
	f := newContractFixture()

	cp := &entity.ApprovalCheckpoint{ID: "cp-1", ContractID: "contract-1", Name: "Legal", RequiredRole: entity.RoleManager}
	f.checkpointRepo.getByIDFunc = func(ctx context.Context, id string) (*entity.ApprovalCheckpoint, error) {
		return cp, nil
	}
	approved := true
	f.checkpointRepo.getByContractIDFunc = func(ctx context.Context, contractID string) ([]*entity.ApprovalCheckpoint, error) {
		// Second checkpoint still pending, so the contract must not flip.
		return []*entity.ApprovalCheckpoint{
			{ID: "cp-1", Approved: &approved},
			{ID: "cp-2"},
		}, nil
	}

	got, err := f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-1", manager, DecisionInput{Decision: "approve", Notes: "ok"})
	if err != nil {
		t.Fatalf("DecideCheckpoint() error = %v", err)
	}
	if got.Approved == nil || !*got.Approved {
		t.Errorf("DecideCheckpoint() checkpoint not approved")
	}
	if got.ApprovedBy != manager.ID {
		t.Errorf("DecideCheckpoint() approvedBy = %q", got.ApprovedBy)
	}
	if len(f.contractRepo.setStatuses) != 0 {
		t.Errorf("DecideCheckpoint() changed contract status with a checkpoint still pending: %v", f.contractRepo.setStatuses)
	}
}

func TestContractService_DecideCheckpoint_LastApprovalFlipsContract(t *testing.T) {
	f := newContractFixture()

	approved := true
	f.checkpointRepo.getByContractIDFunc = func(ctx context.Context, contractID string) ([]*entity.ApprovalCheckpoint, error) {
		return []*entity.ApprovalCheckpoint{
			{ID: "cp-1", Approved: &approved},
			{ID: "cp-2", Approved: &approved},
		}, nil
	}

	_, err := f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-2", admin, DecisionInput{Decision: "approve"})
	if err != nil {
		t.Fatalf("DecideCheckpoint() error = %v", err)
	}
	if len(f.contractRepo.setStatuses) != 1 || f.contractRepo.setStatuses[0] != entity.ContractStatusApproved {
		t.Errorf("DecideCheckpoint() contract statuses = %v, want [approved]", f.contractRepo.setStatuses)
	}
}

func TestContractService_DecideCheckpoint_RejectResetsToDraft(t *testing.T) {
	f := newContractFixture()

	_, err := f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-1", admin, DecisionInput{
		Decision:       "reject",
		RejectedReason: "indemnity clause unacceptable",
	})
	if err != nil {
		t.Fatalf("DecideCheckpoint() error = %v", err)
	}
	if len(f.contractRepo.setStatuses) != 1 || f.contractRepo.setStatuses[0] != entity.ContractStatusDraft {
		t.Errorf("DecideCheckpoint() contract statuses = %v, want [draft]", f.contractRepo.setStatuses)
	}
}

func TestContractService_DecideCheckpoint_Validation(t *testing.T) {
	f := newContractFixture()

	if _, err := f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-1", admin, DecisionInput{Decision: "maybe"}); !errors.Is(err, ErrValidation) {
		t.Errorf("DecideCheckpoint() with bad decision error = %v, want ErrValidation", err)
	}
	if _, err := f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-1", admin, DecisionInput{Decision: "reject"}); !errors.Is(err, ErrValidation) {
		t.Errorf("DecideCheckpoint() reject without reason error = %v, want ErrValidation", err)
	}
}

func TestContractService_DecideCheckpoint_RoleGate(t *testing.T) {
	f := newContractFixture()

	f.checkpointRepo.getByIDFunc = func(ctx context.Context, id string) (*entity.ApprovalCheckpoint, error) {
		return &entity.ApprovalCheckpoint{ID: id, ContractID: "contract-1", Name: "Finance", RequiredRole: entity.RoleManager}, nil
	}

	// A member without the required role is refused.
	if _, err := f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-1", owner, DecisionInput{Decision: "approve"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("DecideCheckpoint() by member error = %v, want ErrForbidden", err)
	}

	// Admin overrides any required role.
	if _, err := f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-1", admin, DecisionInput{Decision: "approve"}); err != nil {
		t.Errorf("DecideCheckpoint() by admin error = %v", err)
	}
}

func TestContractService_DecideCheckpoint_ConcurrentLoser(t *testing.T) {
	f := newContractFixture()

	decidedTrue := true
	f.checkpointRepo.decideFunc = func(ctx context.Context, decision port.CheckpointDecision) (bool, error) {
		return false, nil
	}
	f.checkpointRepo.getByIDFunc = func(ctx context.Context, id string) (*entity.ApprovalCheckpoint, error) {
		return &entity.ApprovalCheckpoint{ID: id, ContractID: "contract-1", Name: "Legal", Approved: nil}, nil
	}

	// First re-read still shows pending, then decided approve.
	calls := 0
	f.checkpointRepo.getByIDFunc = func(ctx context.Context, id string) (*entity.ApprovalCheckpoint, error) {
		calls++
		if calls == 1 {
			return &entity.ApprovalCheckpoint{ID: id, ContractID: "contract-1", Name: "Legal"}, nil
		}
		return &entity.ApprovalCheckpoint{ID: id, ContractID: "contract-1", Name: "Legal", Approved: &decidedTrue, ApprovedBy: "user-admin"}, nil
	}

	// Same outcome: idempotent success.
	cp, err := f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-1", manager, DecisionInput{Decision: "approve"})
	if err != nil {
		t.Fatalf("DecideCheckpoint() losing with same outcome error = %v", err)
	}
	if cp.ApprovedBy != "user-admin" {
		t.Errorf("DecideCheckpoint() should return the winner's decision, got approvedBy=%q", cp.ApprovedBy)
	}

	// Different outcome: conflict.
	calls = 0
	_, err = f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-1", manager, DecisionInput{Decision: "reject", RejectedReason: "no"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("DecideCheckpoint() losing with different outcome error = %v, want ErrConflict", err)
	}
}

func TestContractService_DecideCheckpoint_AlreadyDecided(t *testing.T) {
	f := newContractFixture()

	decided := false
	f.checkpointRepo.getByIDFunc = func(ctx context.Context, id string) (*entity.ApprovalCheckpoint, error) {
		return &entity.ApprovalCheckpoint{ID: id, ContractID: "contract-1", Name: "Legal", Approved: &decided}, nil
	}

	// Asking for the identical outcome succeeds without a second write.
	if _, err := f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-1", admin, DecisionInput{Decision: "reject", RejectedReason: "dup"}); err != nil {
		t.Errorf("DecideCheckpoint() idempotent repeat error = %v", err)
	}
	if _, err := f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-1", admin, DecisionInput{Decision: "approve"}); !errors.Is(err, ErrConflict) {
		t.Errorf("DecideCheckpoint() contradictory repeat error = %v, want ErrConflict", err)
	}
}

func TestContractService_RequestSignature(t *testing.T) {
	f := newContractFixture()

	f.contractRepo.getByIDFunc = func(ctx context.Context, id string) (*entity.Contract, error) {
		return &entity.Contract{ID: id, Status: entity.ContractStatusApproved, CreatedBy: owner.ID, Title: "MSA"}, nil
	}

	req, err := f.service.RequestSignature(context.Background(), "contract-1", manager, SignatureInput{
		Signers: []string{"alice@example.com", "bob@example.com"},
	})
	if err != nil {
		t.Fatalf("RequestSignature() error = %v", err)
	}
	if req.Provider != "docusign" {
		t.Errorf("RequestSignature() provider = %q, want docusign default", req.Provider)
	}
	if req.Status != entity.ESignStatusPending {
		t.Errorf("RequestSignature() status = %q, want pending", req.Status)
	}
	if len(req.Signers) != 2 {
		t.Errorf("RequestSignature() signers = %d, want 2", len(req.Signers))
	}
}

func TestContractService_RequestSignature_Preconditions(t *testing.T) {
	f := newContractFixture()

	// No signers.
	if _, err := f.service.RequestSignature(context.Background(), "contract-1", manager, SignatureInput{}); !errors.Is(err, ErrValidation) {
		t.Errorf("RequestSignature() without signers error = %v, want ErrValidation", err)
	}

	// Member role refused.
	f.contractRepo.getByIDFunc = func(ctx context.Context, id string) (*entity.Contract, error) {
		return &entity.Contract{ID: id, Status: entity.ContractStatusApproved, CreatedBy: owner.ID}, nil
	}
	if _, err := f.service.RequestSignature(context.Background(), "contract-1", owner, SignatureInput{Signers: []string{"a@b.c"}}); !errors.Is(err, ErrForbidden) {
		t.Errorf("RequestSignature() by member error = %v, want ErrForbidden", err)
	}

	// Contract not approved yet.
	f.contractRepo.getByIDFunc = func(ctx context.Context, id string) (*entity.Contract, error) {
		return &entity.Contract{ID: id, Status: entity.ContractStatusPendingApproval, CreatedBy: owner.ID}, nil
	}
	_, err := f.service.RequestSignature(context.Background(), "contract-1", manager, SignatureInput{Signers: []string{"a@b.c"}})
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Fatalf("RequestSignature() from pending_approval error = %v, want ErrInvalidTransition", err)
	}
	var te *workflow.TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("RequestSignature() error is not a TransitionError")
	}
	if got := te.AllowedStrings(); len(got) != 1 || got[0] != entity.ContractStatusApproved {
		t.Errorf("RequestSignature() allowed = %v, want [approved]", got)
	}
}

func TestContractService_RequestSignature_ProviderFailureTolerated(t *testing.T) {
	f := newContractFixture()

	f.contractRepo.getByIDFunc = func(ctx context.Context, id string) (*entity.Contract, error) {
		return &entity.Contract{ID: id, Status: entity.ContractStatusApproved, CreatedBy: owner.ID}, nil
	}
	f.provider.requestFunc = func(ctx context.Context, req port.SignatureRequest) (string, error) {
		return "", errors.New("provider timeout")
	}

	req, err := f.service.RequestSignature(context.Background(), "contract-1", manager, SignatureInput{Signers: []string{"a@b.c"}})
	if err != nil {
		t.Fatalf("RequestSignature() with failing provider error = %v", err)
	}
	if req.Status != entity.ESignStatusPending {
		t.Errorf("RequestSignature() status = %q, the pending row is authoritative", req.Status)
	}
}

func TestContractService_Get(t *testing.T) {
	f := newContractFixture()

	detail, err := f.service.Get(context.Background(), "contract-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if detail.Contract == nil {
		t.Fatalf("Get() returned nil contract")
	}

	f.contractRepo.getByIDFunc = func(ctx context.Context, id string) (*entity.Contract, error) {
		return nil, nil
	}
	if _, err := f.service.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestContractService_DecideCheckpoint_WrongContract(t *testing.T) {
	f := newContractFixture()

	f.checkpointRepo.getByIDFunc = func(ctx context.Context, id string) (*entity.ApprovalCheckpoint, error) {
		return &entity.ApprovalCheckpoint{ID: id, ContractID: "contract-other", Name: "Legal"}, nil
	}

	if _, err := f.service.DecideCheckpoint(context.Background(), "contract-1", "cp-1", admin, DecisionInput{Decision: "approve"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("DecideCheckpoint() across contracts error = %v, want ErrNotFound", err)
	}
}
