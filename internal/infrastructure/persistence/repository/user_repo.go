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

// UserRepository resolves actors from the users table. It backs both the
// identity resolver (API token -> actor) and the directory (id -> actor).
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Resolve returns the actor holding the given API token
func (r *UserRepository) Resolve(ctx context.Context, credential string) (*entity.Actor, error) {
	query := `SELECT id, role, email, name FROM users WHERE api_token = ?`
	return r.scanActor(ctx, query, credential)
}

// Lookup returns the actor with the given user ID
func (r *UserRepository) Lookup(ctx context.Context, userID string) (*entity.Actor, error) {
	query := `SELECT id, role, email, name FROM users WHERE id = ?`
	return r.scanActor(ctx, query, userID)
}

func (r *UserRepository) scanActor(ctx context.Context, query string, arg interface{}) (*entity.Actor, error) {
	var actor entity.Actor
	err := sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&actor.ID,
		&actor.Role,
		&actor.Email,
		&actor.Name,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to look up user", zap.Error(err))
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &actor, nil
}

// Verify interface compliance
var (
	_ port.IdentityResolver  = (*UserRepository)(nil)
	_ port.IdentityDirectory = (*UserRepository)(nil)
)
