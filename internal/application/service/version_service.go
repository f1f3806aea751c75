package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
)

// createVersionRetries bounds the number of times a snapshot insert is
// retried after losing a version-number race.
const createVersionRetries = 3

// VersionService captures immutable point-in-time snapshots of a
// quotation and its lines, numbered contiguously from 1 per quotation.
type VersionService interface {
	CreateVersion(ctx context.Context, quotationID string, actor *entity.Actor, reason string) (*entity.QuoteVersion, error)
	ListVersions(ctx context.Context, quotationID string) ([]*entity.QuoteVersion, error)
}

type versionServiceImpl struct {
	versionRepo   port.VersionRepository
	quotationRepo port.QuotationRepository
	lineRepo      port.QuotationLineRepository
	audit         AuditService
	logger        Logger
}

// NewVersionService creates a new VersionService
func NewVersionService(
	versionRepo port.VersionRepository,
	quotationRepo port.QuotationRepository,
	lineRepo port.QuotationLineRepository,
	audit AuditService,
	logger Logger,
) VersionService {
	return &versionServiceImpl{
		versionRepo:   versionRepo,
		quotationRepo: quotationRepo,
		lineRepo:      lineRepo,
		audit:         audit,
		logger:        logger,
	}
}

// CreateVersion snapshots the quotation's current state under the next
// free version number. Concurrent callers race on the number; the store's
// uniqueness constraint arbitrates and the loser retries with a fresh one,
// so numbers stay contiguous without a global lock.
func (s *versionServiceImpl) CreateVersion(ctx context.Context, quotationID string, actor *entity.Actor, reason string) (*entity.QuoteVersion, error) {
	quotation, err := s.quotationRepo.GetByID(ctx, quotationID)
	if err != nil {
		return nil, fmt.Errorf("get quotation: %w", err)
	}
	if quotation == nil {
		return nil, fmt.Errorf("%w: quotation %s", ErrNotFound, quotationID)
	}

	lines, err := s.lineRepo.GetByQuotationID(ctx, quotationID)
	if err != nil {
		return nil, fmt.Errorf("get quotation lines: %w", err)
	}

	snapshotLines := make([]entity.QuotationLine, 0, len(lines))
	for _, line := range lines {
		snapshotLines = append(snapshotLines, *line)
	}

	now := time.Now().UTC()
	snapshot := marshalJSON(&entity.VersionSnapshot{
		Quotation: *quotation,
		Lines:     snapshotLines,
		TakenAt:   now,
	})

	var version *entity.QuoteVersion
	for attempt := 0; ; attempt++ {
		next, err := s.versionRepo.MaxVersion(ctx, quotationID)
		if err != nil {
			return nil, fmt.Errorf("find latest version: %w", err)
		}

		version = &entity.QuoteVersion{
			ID:           uuid.NewString(),
			QuotationID:  quotationID,
			Version:      next + 1,
			SnapshotData: snapshot,
			Reason:       reason,
			CreatedBy:    actor.ID,
			CreatedAt:    now,
		}

		err = s.versionRepo.Create(ctx, version)
		if err == nil {
			break
		}
		if !errors.Is(err, port.ErrDuplicateVersion) {
			s.logger.Error("Failed to save version snapshot", "error", err, "quotation_id", quotationID)
			return nil, fmt.Errorf("save version: %w", err)
		}
		if attempt >= createVersionRetries {
			return nil, fmt.Errorf("%w: could not allocate a version number for quotation %s", ErrConflict, quotationID)
		}
	}

	if err := s.audit.Record(ctx, entity.AuditEntityVersion, version.ID, "created", actor, nil,
		map[string]any{"quotation_id": quotationID, "version": version.Version, "reason": reason}); err != nil {
		return nil, err
	}

	s.logger.Info("Version snapshot created",
		"quotation_id", quotationID,
		"version", version.Version,
	)
	return version, nil
}

// ListVersions returns all snapshots for a quotation, newest first
func (s *versionServiceImpl) ListVersions(ctx context.Context, quotationID string) ([]*entity.QuoteVersion, error) {
	versions, err := s.versionRepo.GetByQuotationID(ctx, quotationID)
	if err != nil {
		s.logger.Error("Failed to list versions", "error", err, "quotation_id", quotationID)
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return versions, nil
}
