package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
	"github.com/quoteflow/quoteflow/internal/infrastructure/persistence/sqlite"
)

// ResponseRepository implements port.ResponseRepository
type ResponseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewResponseRepository creates a new customer response repository
func NewResponseRepository(db *sql.DB, logger *zap.Logger) port.ResponseRepository {
	return &ResponseRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a customer response. A unique-constraint violation on
// the decisive-response index is reported as port.ErrDuplicateResponse.
func (r *ResponseRepository) Create(ctx context.Context, resp *entity.CustomerResponse) error {
	query := `
		INSERT INTO customer_responses (
			id, quotation_id, response_type, customer_name, customer_email,
			signature, notes, ip_address, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		resp.ID,
		resp.QuotationID,
		resp.ResponseType,
		resp.CustomerName,
		resp.CustomerEmail,
		resp.Signature,
		resp.Notes,
		resp.IPAddress,
		resp.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return port.ErrDuplicateResponse
		}
		r.logger.Error("Failed to create customer response",
			zap.String("quotation_id", resp.QuotationID),
			zap.Error(err))
		return fmt.Errorf("failed to create customer response: %w", err)
	}
	return nil
}

// GetByQuotationID retrieves responses most recent first
func (r *ResponseRepository) GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.CustomerResponse, error) {
	query := `
		SELECT id, quotation_id, response_type, customer_name, customer_email,
			signature, notes, ip_address, created_at
		FROM customer_responses
		WHERE quotation_id = ?
		ORDER BY created_at DESC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, quotationID)
	if err != nil {
		r.logger.Error("Failed to get customer responses", zap.String("quotation_id", quotationID), zap.Error(err))
		return nil, fmt.Errorf("failed to get customer responses: %w", err)
	}
	defer rows.Close()

	var responses []*entity.CustomerResponse
	for rows.Next() {
		var resp entity.CustomerResponse
		var email, signature, notes, ipAddress sql.NullString

		err := rows.Scan(
			&resp.ID,
			&resp.QuotationID,
			&resp.ResponseType,
			&resp.CustomerName,
			&email,
			&signature,
			&notes,
			&ipAddress,
			&resp.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer response: %w", err)
		}

		resp.CustomerEmail = email.String
		resp.Signature = signature.String
		resp.Notes = notes.String
		resp.IPAddress = ipAddress.String
		responses = append(responses, &resp)
	}
	return responses, rows.Err()
}

// HasDecisive reports whether an accept or reject already exists
func (r *ResponseRepository) HasDecisive(ctx context.Context, quotationID string) (bool, error) {
	query := `
		SELECT COUNT(1)
		FROM customer_responses
		WHERE quotation_id = ? AND response_type IN ('accept', 'reject')
	`

	var count int
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, quotationID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to check decisive response", zap.String("quotation_id", quotationID), zap.Error(err))
		return false, fmt.Errorf("failed to check decisive response: %w", err)
	}
	return count > 0, nil
}

// isUniqueViolation reports whether err is a sqlite unique-constraint
// failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Verify interface compliance
var _ port.ResponseRepository = (*ResponseRepository)(nil)
