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

// VersionRepository implements port.VersionRepository
type VersionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVersionRepository creates a new version snapshot repository
func NewVersionRepository(db *sql.DB, logger *zap.Logger) port.VersionRepository {
	return &VersionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a version snapshot. The (quotation_id, version)
// uniqueness constraint arbitrates concurrent writers; a violation is
// reported as port.ErrDuplicateVersion so the caller can retry.
func (r *VersionRepository) Create(ctx context.Context, version *entity.QuoteVersion) error {
	query := `
		INSERT INTO quote_versions (
			id, quotation_id, version, snapshot_data, reason, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		version.ID,
		version.QuotationID,
		version.Version,
		version.SnapshotData,
		version.Reason,
		version.CreatedBy,
		version.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return port.ErrDuplicateVersion
		}
		r.logger.Error("Failed to create quote version",
			zap.String("quotation_id", version.QuotationID),
			zap.Int("version", version.Version),
			zap.Error(err))
		return fmt.Errorf("failed to create quote version: %w", err)
	}
	return nil
}

// GetByQuotationID retrieves versions newest first
func (r *VersionRepository) GetByQuotationID(ctx context.Context, quotationID string) ([]*entity.QuoteVersion, error) {
	query := `
		SELECT id, quotation_id, version, snapshot_data, reason, created_by, created_at
		FROM quote_versions
		WHERE quotation_id = ?
		ORDER BY version DESC
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, quotationID)
	if err != nil {
		r.logger.Error("Failed to get quote versions", zap.String("quotation_id", quotationID), zap.Error(err))
		return nil, fmt.Errorf("failed to get quote versions: %w", err)
	}
	defer rows.Close()

	var versions []*entity.QuoteVersion
	for rows.Next() {
		var version entity.QuoteVersion
		var reason sql.NullString

		err := rows.Scan(
			&version.ID,
			&version.QuotationID,
			&version.Version,
			&version.SnapshotData,
			&reason,
			&version.CreatedBy,
			&version.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote version: %w", err)
		}

		version.Reason = reason.String
		versions = append(versions, &version)
	}
	return versions, rows.Err()
}

// MaxVersion returns the highest version number for a quotation, 0 when
// no snapshot exists yet
func (r *VersionRepository) MaxVersion(ctx context.Context, quotationID string) (int, error) {
	query := `SELECT COALESCE(MAX(version), 0) FROM quote_versions WHERE quotation_id = ?`

	var max int
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, quotationID).Scan(&max)
	if err != nil {
		r.logger.Error("Failed to get max version", zap.String("quotation_id", quotationID), zap.Error(err))
		return 0, fmt.Errorf("failed to get max version: %w", err)
	}
	return max, nil
}

// Verify interface compliance
var _ port.VersionRepository = (*VersionRepository)(nil)
