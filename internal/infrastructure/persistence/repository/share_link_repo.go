package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quoteflow/quoteflow/internal/application/port"
	"github.com/quoteflow/quoteflow/internal/domain/entity"
	"github.com/quoteflow/quoteflow/internal/infrastructure/persistence/sqlite"
)

// ShareLinkRepository implements port.ShareLinkRepository
type ShareLinkRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewShareLinkRepository creates a new share link repository
func NewShareLinkRepository(db *sql.DB, logger *zap.Logger) port.ShareLinkRepository {
	return &ShareLinkRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new share link
func (r *ShareLinkRepository) Create(ctx context.Context, link *entity.PublicShareLink) error {
	query := `
		INSERT INTO public_share_links (
			id, quotation_id, share_token, expires_at, view_count, last_viewed_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		link.ID,
		link.QuotationID,
		link.ShareToken,
		link.ExpiresAt,
		link.ViewCount,
		link.LastViewedAt,
		link.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create share link",
			zap.String("quotation_id", link.QuotationID),
			zap.Error(err))
		return fmt.Errorf("failed to create share link: %w", err)
	}
	return nil
}

// GetByToken retrieves a share link by its opaque token
func (r *ShareLinkRepository) GetByToken(ctx context.Context, token string) (*entity.PublicShareLink, error) {
	query := `
		SELECT id, quotation_id, share_token, expires_at, view_count, last_viewed_at, created_at
		FROM public_share_links
		WHERE share_token = ?
	`
	return r.scanOne(ctx, query, token)
}

// GetActiveByQuotationID retrieves the unexpired link for a quotation
func (r *ShareLinkRepository) GetActiveByQuotationID(ctx context.Context, quotationID string, now time.Time) (*entity.PublicShareLink, error) {
	query := `
		SELECT id, quotation_id, share_token, expires_at, view_count, last_viewed_at, created_at
		FROM public_share_links
		WHERE quotation_id = ? AND expires_at > ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(ctx, query, quotationID, now)
}

// RecordView increments the view counter and stamps the view time
func (r *ShareLinkRepository) RecordView(ctx context.Context, id string, viewedAt time.Time) error {
	query := `
		UPDATE public_share_links
		SET view_count = view_count + 1, last_viewed_at = ?
		WHERE id = ?
	`

	_, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query, viewedAt, id)
	if err != nil {
		r.logger.Error("Failed to record share link view", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}

func (r *ShareLinkRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*entity.PublicShareLink, error) {
	var link entity.PublicShareLink
	var lastViewedAt sql.NullTime

	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&link.ID,
		&link.QuotationID,
		&link.ShareToken,
		&link.ExpiresAt,
		&link.ViewCount,
		&lastViewedAt,
		&link.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get share link", zap.Error(err))
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}

	if lastViewedAt.Valid {
		link.LastViewedAt = &lastViewedAt.Time
	}
	return &link, nil
}

// Verify interface compliance
var _ port.ShareLinkRepository = (*ShareLinkRepository)(nil)
