package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/replytics/dashboard-api/internal/identity_service/domain"
	"github.com/replytics/dashboard-api/internal/identity_service/repository"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgRefreshTokenRepository struct {
	db database.PGXPool
}

func NewPgRefreshTokenRepository(db database.PGXPool) repository.RefreshTokenRepository {
	return &pgRefreshTokenRepository{db: db}
}

func (r *pgRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, now())
	`
	_, err := r.db.Exec(ctx, query, token.ID, token.UserID, token.ExpiresAt)
	return err
}

func (r *pgRefreshTokenRepository) GetByID(ctx context.Context, id string) (*domain.RefreshToken, error) {
	token := &domain.RefreshToken{}
	query := `SELECT id, user_id, expires_at, created_at FROM refresh_tokens WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&token.ID, &token.UserID, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return token, nil
}

func (r *pgRefreshTokenRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrRefreshTokenNotFound
	}
	return nil
}

func (r *pgRefreshTokenRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}

func (r *pgRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
