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

// ContractRepository implements port.ContractRepository
type ContractRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *sql.DB, logger *zap.Logger) port.ContractRepository {
	return &ContractRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new contract
func (r *ContractRepository) Create(ctx context.Context, contract *entity.Contract) error {
	query := `
		INSERT INTO contracts (
			id, title, status, total_value, currency, created_by,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		contract.ID,
		contract.Title,
		contract.Status,
		contract.TotalValue,
		contract.Currency,
		contract.CreatedBy,
		contract.CreatedAt,
		contract.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create contract", zap.Error(err))
		return fmt.Errorf("failed to create contract: %w", err)
	}
	return nil
}

// GetByID retrieves a contract by ID
func (r *ContractRepository) GetByID(ctx context.Context, id string) (*entity.Contract, error) {
	query := `
		SELECT id, title, status, total_value, currency, created_by,
			created_at, updated_at
		FROM contracts
		WHERE id = ?
	`

	var contract entity.Contract
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&contract.ID,
		&contract.Title,
		&contract.Status,
		&contract.TotalValue,
		&contract.Currency,
		&contract.CreatedBy,
		&contract.CreatedAt,
		&contract.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get contract by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
	return &contract, nil
}

// SetStatus writes the status unconditionally
func (r *ContractRepository) SetStatus(ctx context.Context, id, status string) error {
	query := `UPDATE contracts SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to set contract status",
			zap.String("id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to set contract status: %w", err)
	}
	return nil
}

// TransitionStatus applies a guarded status update
func (r *ContractRepository) TransitionStatus(ctx context.Context, id, expectedStatus, newStatus string) (bool, error) {
	query := `
		UPDATE contracts
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, newStatus, id, expectedStatus)
	if err != nil {
		r.logger.Error("Failed to transition contract status",
			zap.String("id", id),
			zap.String("to", newStatus),
			zap.Error(err))
		return false, fmt.Errorf("failed to transition contract: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

// Verify interface compliance
var _ port.ContractRepository = (*ContractRepository)(nil)
