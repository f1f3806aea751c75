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

// QuotationLineRepository implements port.QuotationLineRepository
type QuotationLineRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuotationLineRepository creates a new quotation line repository
func NewQuotationLineRepository(db *sql.DB, logger *zap.Logger) port.QuotationLineRepository {
	return &QuotationLineRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts all line items of a quotation
func (r *QuotationLineRepository) CreateBatch(ctx context.Context, lines []*entity.QuotationLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO quotation_lines (
			id, quotation_id, category, description, quantity, unit,
			unit_price, line_total, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := sqlite.GetExecutor(ctx, r.db)
	for _, line := range lines {
		_, err := exec.ExecContext(ctx, query,
			line.ID,
			line.QuotationID,
			line.Category,
			line.Description,
			line.Quantity,
			line.Unit,
			line.UnitPrice,
			line.LineTotal,
			line.Position,
		)
		if err != nil {
			r.logger.Error("Failed to create quotation line",
				zap.String("quotation_id", line.QuotationID),
				zap.Error(err))
			return fmt.Errorf("failed to create quotation line: %w", err)
		}
	}
	return nil
}

// GetByQuotationID retrieves the line items of a quotation in display order
func (r *QuotationLineRepository) GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.QuotationLine, error) {
	query := `
		SELECT id, quotation_id, category, description, quantity, unit,
			unit_price, line_total, position
		FROM quotation_lines
		WHERE quotation_id = ?
		ORDER BY position ASC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, quotationID)
	if err != nil {
		r.logger.Error("Failed to get quotation lines", zap.String("quotation_id", quotationID), zap.Error(err))
		return nil, fmt.Errorf("failed to get quotation lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.QuotationLine
	for rows.Next() {
		var line entity.QuotationLine
		var category, unit sql.NullString

		err := rows.Scan(
			&line.ID,
			&line.QuotationID,
			&category,
			&line.Description,
			&line.Quantity,
			&unit,
			&line.UnitPrice,
			&line.LineTotal,
			&line.Position,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quotation line: %w", err)
		}

		line.Category = category.String
		line.Unit = unit.String
		lines = append(lines, &line)
	}
	return lines, rows.Err()
}

// Verify interface compliance
var _ port.QuotationLineRepository = (*QuotationLineRepository)(nil)
