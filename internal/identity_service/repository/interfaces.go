package repository

import (
	"context"
	"errors"
	"time"

	"github.com/replytics/dashboard-api/internal/identity_service/domain"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateUser        = errors.New("user with this email already exists")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

// UserRepository defines the interface for user data persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, id string, loginTime time.Time) error
}

// RefreshTokenRepository defines the interface for refresh token persistence.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByID(ctx context.Context, id string) (*domain.RefreshToken, error)
	Delete(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
