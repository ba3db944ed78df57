package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/replytics/dashboard-api/internal/identity_service/domain"
	"github.com/replytics/dashboard-api/internal/identity_service/repository"
	"github.com/replytics/dashboard-api/internal/platform/database"
)

type pgUserRepository struct {
	db database.PGXPool
}

func NewPgUserRepository(db database.PGXPool) repository.UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	user.ID = uuid.NewString()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	query := `
		INSERT INTO users (id, email, name, hashed_password, google_id, avatar_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Email, user.Name, user.HashedPassword, user.GoogleID, user.AvatarURL,
		user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrDuplicateUser
		}
		return nil, err
	}
	return user, nil
}

const userColumns = `id, email, name, hashed_password, google_id, avatar_url, is_active, last_login_at, created_at, updated_at`

func (r *pgUserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.HashedPassword, &user.GoogleID, &user.AvatarURL,
		&user.IsActive, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *pgUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *pgUserRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE users
		SET email = $1, name = $2, hashed_password = $3, google_id = $4, avatar_url = $5,
		    is_active = $6, updated_at = $7
		WHERE id = $8
	`
	tag, err := r.db.Exec(ctx, query,
		user.Email, user.Name, user.HashedPassword, user.GoogleID, user.AvatarURL,
		user.IsActive, user.UpdatedAt, user.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repository.ErrDuplicateUser
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *pgUserRepository) UpdateLastLogin(ctx context.Context, id string, loginTime time.Time) error {
	query := `UPDATE users SET last_login_at = $1 WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, loginTime, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}
