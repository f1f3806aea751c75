package service

import (
	"context"
	"sync"
	"time"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

// Mock repositories and collaborators. Every mock falls back to a
// permissive default when the corresponding func field is nil.

type mockQuoteRepo struct {
	mu              sync.Mutex
	createFunc      func(ctx context.Context, quote *entity.Quote) error
	getByIDFunc     func(ctx context.Context, id string) (*entity.Quote, error)
	listFunc        func(ctx context.Context, limit, offset int) ([]*entity.Quote, error)
	transitionFunc  func(ctx context.Context, update port.QuoteStatusUpdate) (bool, error)
	transitionCalls []port.QuoteStatusUpdate
}

func (m *mockQuoteRepo) Create(ctx context.Context, quote *entity.Quote) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, quote)
	}
	return nil
}

func (m *mockQuoteRepo) GetByID(ctx context.Context, id string) (*entity.Quote, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Quote{ID: id, Status: entity.QuoteStatusDraft, CreatedBy: "user-owner"}, nil
}

func (m *mockQuoteRepo) List(ctx context.Context, limit, offset int) ([]*entity.Quote, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return []*entity.Quote{}, nil
}

func (m *mockQuoteRepo) TransitionStatus(ctx context.Context, update port.QuoteStatusUpdate) (bool, error) {
	m.mu.Lock()
	m.transitionCalls = append(m.transitionCalls, update)
	m.mu.Unlock()
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, update)
	}
	return true, nil
}

type mockContractRepo struct {
	createFunc     func(ctx context.Context, contract *entity.Contract) error
	getByIDFunc    func(ctx context.Context, id string) (*entity.Contract, error)
	setStatusFunc  func(ctx context.Context, id, status string) error
	transitionFunc func(ctx context.Context, id, expectedStatus, newStatus string) (bool, error)

	mu          sync.Mutex
	setStatuses []string
}

func (m *mockContractRepo) Create(ctx context.Context, contract *entity.Contract) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, contract)
	}
	return nil
}

func (m *mockContractRepo) GetByID(ctx context.Context, id string) (*entity.Contract, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Contract{ID: id, Status: entity.ContractStatusDraft, CreatedBy: "user-owner", Title: "MSA"}, nil
}

func (m *mockContractRepo) SetStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	m.setStatuses = append(m.setStatuses, status)
	m.mu.Unlock()
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockContractRepo) TransitionStatus(ctx context.Context, id, expectedStatus, newStatus string) (bool, error) {
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, id, expectedStatus, newStatus)
	}
	return true, nil
}

type mockCheckpointRepo struct {
	createFunc          func(ctx context.Context, cp *entity.ApprovalCheckpoint) error
	getByIDFunc         func(ctx context.Context, id string) (*entity.ApprovalCheckpoint, error)
	getByContractIDFunc func(ctx context.Context, contractID string) ([]*entity.ApprovalCheckpoint, error)
	decideFunc          func(ctx context.Context, decision port.CheckpointDecision) (bool, error)
}

func (m *mockCheckpointRepo) Create(ctx context.Context, cp *entity.ApprovalCheckpoint) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, cp)
	}
	return nil
}

func (m *mockCheckpointRepo) GetByID(ctx context.Context, id string) (*entity.ApprovalCheckpoint, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.ApprovalCheckpoint{ID: id, ContractID: "contract-1", Name: "Legal"}, nil
}

func (m *mockCheckpointRepo) GetByContractID(ctx context.Context, contractID string) ([]*entity.ApprovalCheckpoint, error) {
	if m.getByContractIDFunc != nil {
		return m.getByContractIDFunc(ctx, contractID)
	}
	return []*entity.ApprovalCheckpoint{}, nil
}

func (m *mockCheckpointRepo) Decide(ctx context.Context, decision port.CheckpointDecision) (bool, error) {
	if m.decideFunc != nil {
		return m.decideFunc(ctx, decision)
	}
	return true, nil
}

type mockESignRepo struct {
	createFunc func(ctx context.Context, req *entity.ESignRequest) error
}

func (m *mockESignRepo) Create(ctx context.Context, req *entity.ESignRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return nil
}

func (m *mockESignRepo) GetByContractID(ctx context.Context, contractID string) ([]*entity.ESignRequest, error) {
	return []*entity.ESignRequest{}, nil
}

type mockQuotationRepo struct {
	createFunc     func(ctx context.Context, quotation *entity.Quotation) error
	getByIDFunc    func(ctx context.Context, id string) (*entity.Quotation, error)
	transitionFunc func(ctx context.Context, id, expectedStatus, newStatus string) (bool, error)
}

func (m *mockQuotationRepo) Create(ctx context.Context, quotation *entity.Quotation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, quotation)
	}
	return nil
}

func (m *mockQuotationRepo) GetByID(ctx context.Context, id string) (*entity.Quotation, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Quotation{
		ID:          id,
		QuoteNumber: "Q-20260101-ABCDEF12",
		LeadName:    "Acme",
		Status:      entity.QuotationStatusDraft,
		Currency:    "USD",
		ValidUntil:  time.Now().UTC().Add(24 * time.Hour),
	}, nil
}

func (m *mockQuotationRepo) TransitionStatus(ctx context.Context, id, expectedStatus, newStatus string) (bool, error) {
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, id, expectedStatus, newStatus)
	}
	return true, nil
}

type mockLineRepo struct {
	createBatchFunc func(ctx context.Context, lines []*entity.QuotationLine) error
	getFunc         func(ctx context.Context, quotationID string) ([]*entity.QuotationLine, error)
}

func (m *mockLineRepo) CreateBatch(ctx context.Context, lines []*entity.QuotationLine) error {
	if m.createBatchFunc != nil {
		return m.createBatchFunc(ctx, lines)
	}
	return nil
}

func (m *mockLineRepo) GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.QuotationLine, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, quotationID)
	}
	return []*entity.QuotationLine{}, nil
}

type mockHistoryRepo struct {
	mu      sync.Mutex
	entries []*entity.StatusHistoryEntry
	getFunc func(ctx context.Context, quotationID string) ([]*entity.StatusHistoryEntry, error)
}

func (m *mockHistoryRepo) Create(ctx context.Context, entry *entity.StatusHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockHistoryRepo) GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.StatusHistoryEntry, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, quotationID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.StatusHistoryEntry, len(m.entries))
	for i, e := range m.entries {
		out[len(m.entries)-1-i] = e
	}
	return out, nil
}

type mockShareLinkRepo struct {
	createFunc     func(ctx context.Context, link *entity.PublicShareLink) error
	getByTokenFunc func(ctx context.Context, token string) (*entity.PublicShareLink, error)
	getActiveFunc  func(ctx context.Context, quotationID string, now time.Time) (*entity.PublicShareLink, error)
	recordViewFunc func(ctx context.Context, id string, viewedAt time.Time) error

	mu    sync.Mutex
	views int
}

func (m *mockShareLinkRepo) Create(ctx context.Context, link *entity.PublicShareLink) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, link)
	}
	return nil
}

func (m *mockShareLinkRepo) GetByToken(ctx context.Context, token string) (*entity.PublicShareLink, error) {
	if m.getByTokenFunc != nil {
		return m.getByTokenFunc(ctx, token)
	}
	return nil, nil
}

func (m *mockShareLinkRepo) GetActiveByQuotationID(ctx context.Context, quotationID string, now time.Time) (*entity.PublicShareLink, error) {
	if m.getActiveFunc != nil {
		return m.getActiveFunc(ctx, quotationID, now)
	}
	return nil, nil
}

func (m *mockShareLinkRepo) RecordView(ctx context.Context, id string, viewedAt time.Time) error {
	m.mu.Lock()
	m.views++
	m.mu.Unlock()
	if m.recordViewFunc != nil {
		return m.recordViewFunc(ctx, id, viewedAt)
	}
	return nil
}

type mockResponseRepo struct {
	createFunc      func(ctx context.Context, resp *entity.CustomerResponse) error
	getFunc         func(ctx context.Context, quotationID string) ([]*entity.CustomerResponse, error)
	hasDecisiveFunc func(ctx context.Context, quotationID string) (bool, error)
}

func (m *mockResponseRepo) Create(ctx context.Context, resp *entity.CustomerResponse) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, resp)
	}
	return nil
}

func (m *mockResponseRepo) GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.CustomerResponse, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, quotationID)
	}
	return []*entity.CustomerResponse{}, nil
}

func (m *mockResponseRepo) HasDecisive(ctx context.Context, quotationID string) (bool, error) {
	if m.hasDecisiveFunc != nil {
		return m.hasDecisiveFunc(ctx, quotationID)
	}
	return false, nil
}

type mockVersionRepo struct {
	mu             sync.Mutex
	versions       map[int]*entity.QuoteVersion
	createFunc     func(ctx context.Context, version *entity.QuoteVersion) error
	maxVersionFunc func(ctx context.Context, quotationID string) (int, error)
}

func newMockVersionRepo() *mockVersionRepo {
	return &mockVersionRepo{versions: make(map[int]*entity.QuoteVersion)}
}

func (m *mockVersionRepo) Create(ctx context.Context, version *entity.QuoteVersion) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, version)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.versions[version.Version]; exists {
		return port.ErrDuplicateVersion
	}
	m.versions[version.Version] = version
	return nil
}

func (m *mockVersionRepo) GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.QuoteVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.QuoteVersion, 0, len(m.versions))
	for v := len(m.versions); v >= 1; v-- {
		if ver, ok := m.versions[v]; ok {
			out = append(out, ver)
		}
	}
	return out, nil
}

func (m *mockVersionRepo) MaxVersion(ctx context.Context, quotationID string) (int, error) {
	if m.maxVersionFunc != nil {
		return m.maxVersionFunc(ctx, quotationID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for v := range m.versions {
		if v > max {
			max = v
		}
	}
	return max, nil
}

type mockAuditRepo struct {
	mu         sync.Mutex
	entries    []*entity.AuditEntry
	createFunc func(ctx context.Context, entry *entity.AuditEntry) error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *entity.AuditEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) GetByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.AuditEntry
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockAuditRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockDirectory struct {
	lookupFunc func(ctx context.Context, userID string) (*entity.Actor, error)
}

func (m *mockDirectory) Lookup(ctx context.Context, userID string) (*entity.Actor, error) {
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, userID)
	}
	return &entity.Actor{ID: userID, Role: entity.RoleMember, Email: userID + "@example.com", Name: userID}, nil
}

type mockResolver struct {
	resolveFunc func(ctx context.Context, credential string) (*entity.Actor, error)
}

func (m *mockResolver) Resolve(ctx context.Context, credential string) (*entity.Actor, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, credential)
	}
	return &entity.Actor{ID: "user-owner", Role: entity.RoleMember, Email: "owner@example.com", Name: "Owner"}, nil
}

type mockSender struct {
	mu       sync.Mutex
	sent     []port.Notification
	sendFunc func(ctx context.Context, n port.Notification) (string, error)
}

func (m *mockSender) Send(ctx context.Context, n port.Notification) (string, error) {
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	if m.sendFunc != nil {
		return m.sendFunc(ctx, n)
	}
	return "notif-1", nil
}

func (m *mockSender) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type mockProvider struct {
	requestFunc func(ctx context.Context, req port.SignatureRequest) (string, error)
}

func (m *mockProvider) RequestSignatures(ctx context.Context, req port.SignatureRequest) (string, error) {
	if m.requestFunc != nil {
		return m.requestFunc(ctx, req)
	}
	return "provider-handle-1", nil
}

// mockNotifier is a synchronous NotificationService that records what was
// dispatched, avoiding the real queue in unit tests.
type mockNotifier struct {
	mu         sync.Mutex
	dispatched []port.Notification
}

func (m *mockNotifier) Dispatch(n port.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched = append(m.dispatched, n)
}

func (m *mockNotifier) Close() {}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dispatched)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
