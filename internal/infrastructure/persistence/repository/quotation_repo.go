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

// QuotationRepository implements port.QuotationRepository
type QuotationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuotationRepository creates a new quotation repository
func NewQuotationRepository(db *sql.DB, logger *zap.Logger) port.QuotationRepository {
	return &QuotationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new quotation
func (r *QuotationRepository) Create(ctx context.Context, quotation *entity.Quotation) error {
	query := `
		INSERT INTO quotations (
			id, quote_number, lead_name, lead_company, status, subtotal,
			discount_amount, tax_amount, total, currency, valid_until,
			created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		quotation.ID,
		quotation.QuoteNumber,
		quotation.LeadName,
		quotation.LeadCompany,
		quotation.Status,
		quotation.Subtotal,
		quotation.DiscountAmount,
		quotation.TaxAmount,
		quotation.Total,
		quotation.Currency,
		quotation.ValidUntil,
		quotation.CreatedBy,
		quotation.CreatedAt,
		quotation.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create quotation", zap.Error(err))
		return fmt.Errorf("failed to create quotation: %w", err)
	}
	return nil
}

// GetByID retrieves a quotation by ID
func (r *QuotationRepository) GetByID(ctx context.Context, id string) (*entity.Quotation, error) {
	query := `
		SELECT id, quote_number, lead_name, lead_company, status, subtotal,
			discount_amount, tax_amount, total, currency, valid_until,
			created_by, created_at, updated_at
		FROM quotations
		WHERE id = ?
	`

	var quotation entity.Quotation
	var leadCompany sql.NullString

	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&quotation.ID,
		&quotation.QuoteNumber,
		&quotation.LeadName,
		&leadCompany,
		&quotation.Status,
		&quotation.Subtotal,
		&quotation.DiscountAmount,
		&quotation.TaxAmount,
		&quotation.Total,
		&quotation.Currency,
		&quotation.ValidUntil,
		&quotation.CreatedBy,
		&quotation.CreatedAt,
		&quotation.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get quotation by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get quotation: %w", err)
	}

	quotation.LeadCompany = leadCompany.String
	return &quotation, nil
}

// TransitionStatus applies a guarded status update
func (r *QuotationRepository) TransitionStatus(ctx context.Context, id, expectedStatus, newStatus string) (bool, error) {
	query := `
		UPDATE quotations
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, newStatus, id, expectedStatus)
	if err != nil {
		r.logger.Error("Failed to transition quotation status",
			zap.String("id", id),
			zap.String("to", newStatus),
			zap.Error(err))
		return false, fmt.Errorf("failed to transition quotation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

// Verify interface compliance
var _ port.QuotationRepository = (*QuotationRepository)(nil)
