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

// QuoteRepository implements port.QuoteRepository
type QuoteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *sql.DB, logger *zap.Logger) port.QuoteRepository {
	return &QuoteRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new quote
func (r *QuoteRepository) Create(ctx context.Context, quote *entity.Quote) error {
	query := `
		INSERT INTO quotes (
			id, quote_number, title, status, created_by, total, currency,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		quote.ID,
		quote.QuoteNumber,
		quote.Title,
		quote.Status,
		quote.CreatedBy,
		quote.Total,
		quote.Currency,
		quote.CreatedAt,
		quote.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create quote", zap.Error(err))
		return fmt.Errorf("failed to create quote: %w", err)
	}
	return nil
}

// GetByID retrieves a quote by ID
func (r *QuoteRepository) GetByID(ctx context.Context, id string) (*entity.Quote, error) {
	query := `
		SELECT id, quote_number, title, status, created_by, approved_by,
			approval_notes, rejection_reason, total, currency,
			submitted_at, approved_at, rejected_at, created_at, updated_at
		FROM quotes
		WHERE id = ?
	`

	quote, err := scanQuote(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get quote by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return quote, nil
}

// List retrieves quotes ordered by creation time, newest first
func (r *QuoteRepository) List(ctx context.Context, limit, offset int) ([]*entity.Quote, error) {
	query := `
		SELECT id, quote_number, title, status, created_by, approved_by,
			approval_notes, rejection_reason, total, currency,
			submitted_at, approved_at, rejected_at, created_at, updated_at
		FROM quotes
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list quotes", zap.Error(err))
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*entity.Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}
	return quotes, rows.Err()
}

// TransitionStatus applies a guarded status update. Returns false without
// error when the row no longer holds the expected status.
func (r *QuoteRepository) TransitionStatus(ctx context.Context, update port.QuoteStatusUpdate) (bool, error) {
	query := `
		UPDATE quotes
		SET status = ?,
			approved_by = COALESCE(NULLIF(?, ''), approved_by),
			approval_notes = COALESCE(NULLIF(?, ''), approval_notes),
			rejection_reason = COALESCE(NULLIF(?, ''), rejection_reason),
			submitted_at = COALESCE(?, submitted_at),
			approved_at = COALESCE(?, approved_at),
			rejected_at = COALESCE(?, rejected_at),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		update.NewStatus,
		update.ApprovedBy,
		update.ApprovalNotes,
		update.RejectionReason,
		update.SubmittedAt,
		update.ApprovedAt,
		update.RejectedAt,
		update.ID,
		update.ExpectedStatus,
	)
	if err != nil {
		r.logger.Error("Failed to transition quote status",
			zap.String("id", update.ID),
			zap.String("to", update.NewStatus),
			zap.Error(err))
		return false, fmt.Errorf("failed to transition quote: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuote(row rowScanner) (*entity.Quote, error) {
	var quote entity.Quote
	var approvedBy, approvalNotes, rejectionReason sql.NullString
	var submittedAt, approvedAt, rejectedAt sql.NullTime

	err := row.Scan(
		&quote.ID,
		&quote.QuoteNumber,
		&quote.Title,
		&quote.Status,
		&quote.CreatedBy,
		&approvedBy,
		&approvalNotes,
		&rejectionReason,
		&quote.Total,
		&quote.Currency,
		&submittedAt,
		&approvedAt,
		&rejectedAt,
		&quote.CreatedAt,
		&quote.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	quote.ApprovedBy = approvedBy.String
	quote.ApprovalNotes = approvalNotes.String
	quote.RejectionReason = rejectionReason.String
	if submittedAt.Valid {
		quote.SubmittedAt = &submittedAt.Time
	}
	if approvedAt.Valid {
		quote.ApprovedAt = &approvedAt.Time
	}
	if rejectedAt.Valid {
		quote.RejectedAt = &rejectedAt.Time
	}
	return &quote, nil
}

// Verify interface compliance
var _ port.QuoteRepository = (*QuoteRepository)(nil)
