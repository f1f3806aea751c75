package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
	"github.com/quoteflow/quoteflow/internal/infrastructure/persistence/sqlite"
)

// CheckpointRepository implements port.CheckpointRepository
type CheckpointRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCheckpointRepository creates a new checkpoint repository
func NewCheckpointRepository(db *sql.DB, logger *zap.Logger) port.CheckpointRepository {
	return &CheckpointRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new checkpoint
func (r *CheckpointRepository) Create(ctx context.Context, cp *entity.ApprovalCheckpoint) error {
	query := `
		INSERT INTO approval_checkpoints (
			id, contract_id, name, checkpoint_order, required_role, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		cp.ID,
		cp.ContractID,
		cp.Name,
		cp.CheckpointOrder,
		string(cp.RequiredRole),
		cp.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create checkpoint", zap.Error(err))
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	return nil
}

// GetByID retrieves a checkpoint by ID
func (r *CheckpointRepository) GetByID(ctx context.Context, id string) (*entity.ApprovalCheckpoint, error) {
	query := `
		SELECT id, contract_id, name, checkpoint_order, required_role,
			approved, approved_by, approved_at, notes, rejected_reason, created_at
		FROM approval_checkpoints
		WHERE id = ?
	`

	cp, err := scanCheckpoint(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get checkpoint by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get checkpoint: %w", err)
	}
	return cp, nil
}

// GetByContractID retrieves all checkpoints for a contract in declared order
func (r *CheckpointRepository) GetByContractID(ctx context.Context, contractID string) ([]*entity.ApprovalCheckpoint, error) {
	query := `
		SELECT id, contract_id, name, checkpoint_order, required_role,
			approved, approved_by, approved_at, notes, rejected_reason, created_at
		FROM approval_checkpoints
		WHERE contract_id = ?
		ORDER BY checkpoint_order ASC, created_at ASC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, contractID)
	if err != nil {
		r.logger.Error("Failed to get checkpoints", zap.String("contract_id", contractID), zap.Error(err))
		return nil, fmt.Errorf("failed to get checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []*entity.ApprovalCheckpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, rows.Err()
}

// Decide records a decision only while the checkpoint is undecided.
// Returns false when another decision already landed.
func (r *CheckpointRepository) Decide(ctx context.Context, decision port.CheckpointDecision) (bool, error) {
	query := `
		UPDATE approval_checkpoints
		SET approved = ?, approved_by = ?, approved_at = ?, notes = ?, rejected_reason = ?
		WHERE id = ? AND approved IS NULL
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		decision.Approved,
		decision.ApprovedBy,
		decision.ApprovedAt,
		decision.Notes,
		decision.RejectedReason,
		decision.CheckpointID,
	)
	if err != nil {
		r.logger.Error("Failed to decide checkpoint", zap.String("id", decision.CheckpointID), zap.Error(err))
		return false, fmt.Errorf("failed to decide checkpoint: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

func scanCheckpoint(row rowScanner) (*entity.ApprovalCheckpoint, error) {
	var cp entity.ApprovalCheckpoint
	var requiredRole, approvedBy, notes, rejectedReason sql.NullString
	var approved sql.NullBool
	var approvedAt sql.NullTime

	err := row.Scan(
		&cp.ID,
		&cp.ContractID,
		&cp.Name,
		&cp.CheckpointOrder,
		&requiredRole,
		&approved,
		&approvedBy,
		&approvedAt,
		&notes,
		&rejectedReason,
		&cp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	cp.RequiredRole = entity.Role(requiredRole.String)
	cp.ApprovedBy = approvedBy.String
	cp.Notes = notes.String
	cp.RejectedReason = rejectedReason.String
	if approved.Valid {
		cp.Approved = &approved.Bool
	}
	if approvedAt.Valid {
		cp.ApprovedAt = &approvedAt.Time
	}
	return &cp, nil
}

// Verify interface compliance
var _ port.CheckpointRepository = (*CheckpointRepository)(nil)
