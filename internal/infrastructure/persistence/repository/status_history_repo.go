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

// StatusHistoryRepository implements port.StatusHistoryRepository
type StatusHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatusHistoryRepository creates a new status history repository
func NewStatusHistoryRepository(db *sql.DB, logger *zap.Logger) port.StatusHistoryRepository {
	return &StatusHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a status history entry
func (r *StatusHistoryRepository) Create(ctx context.Context, entry *entity.StatusHistoryEntry) error {
	query := `
		INSERT INTO quotation_status_history (
			id, quotation_id, from_status, to_status, changed_by, notes, changed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		entry.ID,
		entry.QuotationID,
		entry.FromStatus,
		entry.ToStatus,
		entry.ChangedBy,
		entry.Notes,
		entry.ChangedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create status history entry",
			zap.String("quotation_id", entry.QuotationID),
			zap.Error(err))
		return fmt.Errorf("failed to create status history entry: %w", err)
	}
	return nil
}

// GetByQuotationID retrieves history entries most recent first
func (r *StatusHistoryRepository) GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.StatusHistoryEntry, error) {
	query := `
		SELECT id, quotation_id, from_status, to_status, changed_by, notes, changed_at
		FROM quotation_status_history
		WHERE quotation_id = ?
		ORDER BY changed_at DESC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, quotationID)
	if err != nil {
		r.logger.Error("Failed to get status history", zap.String("quotation_id", quotationID), zap.Error(err))
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.StatusHistoryEntry
	for rows.Next() {
		var entry entity.StatusHistoryEntry
		var changedBy, notes sql.NullString

		err := rows.Scan(
			&entry.ID,
			&entry.QuotationID,
			&entry.FromStatus,
			&entry.ToStatus,
			&changedBy,
			&notes,
			&entry.ChangedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status history entry: %w", err)
		}

		entry.ChangedBy = changedBy.String
		entry.Notes = notes.String
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.StatusHistoryRepository = (*StatusHistoryRepository)(nil)
