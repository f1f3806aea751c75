package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

// AuditService appends one trail entry per state-changing action. The
// write happens causally after the state mutation; if it fails the
// surrounding operation must fail too, even though the mutation stuck.
type AuditService interface {
	Record(ctx context.Context, entityType, entityID, action string, actor *entity.Actor, oldValues, newValues interface{}) error
	Trail(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error)
}

type auditServiceImpl struct {
	auditRepo port.AuditRepository
	logger    Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo port.AuditRepository, logger Logger) AuditService {
	return &auditServiceImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record appends one audit entry
func (s *auditServiceImpl) Record(ctx context.Context, entityType, entityID, action string, actor *entity.Actor, oldValues, newValues interface{}) error {
	entry := &entity.AuditEntry{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actor.ID,
		OldValues:  marshalJSON(oldValues),
		NewValues:  marshalJSON(newValues),
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to write audit entry",
			"error", err,
			"entity_type", entityType,
			"entity_id", entityID,
			"action", action,
		)
		return fmt.Errorf("%w: %s %s %s: %v", ErrAuditFailed, entityType, action, entityID, err)
	}

	return nil
}

// Trail returns all audit entries for an entity
func (s *auditServiceImpl) Trail(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error) {
	entries, err := s.auditRepo.GetByEntity(ctx, entityType, entityID)
	if err != nil {
		s.logger.Error("Failed to read audit trail", "error", err, "entity_type", entityType, "entity_id", entityID)
		return nil, fmt.Errorf("get audit trail: %w", err)
	}
	return entries, nil
}
