package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
	"github.com/quoteflow/quoteflow/internal/infrastructure/persistence/sqlite"
)

// ESignRepository implements port.ESignRepository
type ESignRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewESignRepository creates a new e-sign request repository
func NewESignRepository(db *sql.DB, logger *zap.Logger) port.ESignRepository {
	return &ESignRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new e-sign request. Signers are stored as a JSON array.
func (r *ESignRepository) Create(ctx context.Context, req *entity.ESignRequest) error {
	signers, err := json.Marshal(req.Signers)
	if err != nil {
		return fmt.Errorf("failed to encode signers: %w", err)
	}

	query := `
		INSERT INTO esign_requests (
			id, contract_id, signers, provider, message, status,
			requested_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		req.ID,
		req.ContractID,
		string(signers),
		req.Provider,
		req.Message,
		req.Status,
		req.RequestedBy,
		req.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create esign request", zap.Error(err))
		return fmt.Errorf("failed to create esign request: %w", err)
	}
	return nil
}

// GetByContractID retrieves all e-sign requests for a contract, newest first
func (r *ESignRepository) GetByContractID(ctx context.Context, contractID string) ([]*entity.ESignRequest, error) {
	query := `
		SELECT id, contract_id, signers, provider, message, status,
			requested_by, created_at
		FROM esign_requests
		WHERE contract_id = ?
		ORDER BY created_at DESC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, contractID)
	if err != nil {
		r.logger.Error("Failed to get esign requests", zap.String("contract_id", contractID), zap.Error(err))
		return nil, fmt.Errorf("failed to get esign requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.ESignRequest
	for rows.Next() {
		var req entity.ESignRequest
		var signers string
		var message sql.NullString

		err := rows.Scan(
			&req.ID,
			&req.ContractID,
			&signers,
			&req.Provider,
			&message,
			&req.Status,
			&req.RequestedBy,
			&req.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan esign request: %w", err)
		}

		if err := json.Unmarshal([]byte(signers), &req.Signers); err != nil {
			return nil, fmt.Errorf("failed to decode signers: %w", err)
		}
		req.Message = message.String
		requests = append(requests, &req)
	}
	return requests, rows.Err()
}

// Verify interface compliance
var _ port.ESignRepository = (*ESignRepository)(nil)
