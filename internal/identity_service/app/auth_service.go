package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/replytics/dashboard-api/internal/identity_service/domain"
	"github.com/replytics/dashboard-api/internal/identity_service/repository"
	"github.com/replytics/dashboard-api/internal/platform/messagebroker"
)

func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedPassword), nil
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is not active")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrEmailExists        = errors.New("email already exists")
)

// BusinessDirectory resolves the business profile owned by a user. The
// business service implements it; identity only needs the id to stamp the
// "bid" claim into session tokens.
type BusinessDirectory interface {
	// EnsureProfile returns the user's business profile id, creating a
	// default profile when none exists yet.
	EnsureProfile(ctx context.Context, userID string, ownerName string) (string, error)
}

type AuthConfig struct {
	JWTSecret          string
	JWTExpiryHours     int
	RefreshExpiryHours int
}

// SessionClaims is the decoded, validated content of an access token.
type SessionClaims struct {
	UserID     string
	Email      string
	BusinessID string
}

// TokenPair bundles the signed tokens returned to the dashboard client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	ExpiresIn    int
}

type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	businesses       BusinessDirectory
	natsClient       messagebroker.NATSClient
	config           AuthConfig
	logger           *slog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	businesses BusinessDirectory,
	natsClient messagebroker.NATSClient,
	config AuthConfig,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		businesses:       businesses,
		natsClient:       natsClient,
		config:           config,
		logger:           logger,
	}
}

// Login authenticates with email and password and returns a token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		s.logger.ErrorContext(ctx, "Error fetching user by email", "error", err)
		return nil, nil, err
	}

	if !user.IsActive {
		s.logger.WarnContext(ctx, "Login attempt for inactive user", "user_id", user.ID)
		return nil, nil, ErrUserInactive
	}

	if user.HashedPassword == "" || !CheckPasswordHash(password, user.HashedPassword) {
		return nil, nil, ErrInvalidCredentials
	}

	return s.finishLogin(ctx, user)
}

// GoogleLogin signs in (or signs up) a Google OAuth user. First-time logins
// get a user row and a default business profile.
func (s *AuthService) GoogleLogin(ctx context.Context, email, name, avatarURL, googleID string) (*TokenPair, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.ErrorContext(ctx, "Error fetching user by email for google login", "error", err)
		return nil, nil, err
	}

	if user == nil {
		newUser := &domain.User{
			Email:     email,
			Name:      name,
			GoogleID:  googleID,
			AvatarURL: avatarURL,
			IsActive:  true,
		}
		user, err = s.userRepo.Create(ctx, newUser)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateUser) {
				return nil, nil, ErrEmailExists
			}
			s.logger.ErrorContext(ctx, "Failed to create user for google login", "error", err)
			return nil, nil, err
		}
		s.publishUserCreated(ctx, user)
	} else if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	return s.finishLogin(ctx, user)
}

func (s *AuthService) finishLogin(ctx context.Context, user *domain.User) (*TokenPair, *domain.User, error) {
	businessID, err := s.businesses.EnsureProfile(ctx, user.ID, user.Name)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to resolve business profile at login", "error", err, "user_id", user.ID)
		return nil, nil, err
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update last login", "error", err, "user_id", user.ID)
	}
	user.LastLoginAt = &now

	pair, err := s.generateAndStoreTokens(ctx, user, businessID)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// ValidateAccessToken parses and verifies an access token, then loads the
// user so inactive or deleted accounts are rejected even while their token
// is otherwise valid.
func (s *AuthService) ValidateAccessToken(ctx context.Context, tokenString string) (*domain.User, *SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil, ErrTokenInvalid
	}
	userID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	businessID, _ := claims["bid"].(string)
	if userID == "" {
		return nil, nil, ErrTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrTokenInvalid
		}
		s.logger.ErrorContext(ctx, "Failed to load user for token validation", "error", err, "user_id", userID)
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	return user, &SessionClaims{UserID: userID, Email: email, BusinessID: businessID}, nil
}

// Refresh rotates a refresh token: the old row is deleted and a new pair is
// issued. Reuse of an already-rotated token invalidates the whole family.
func (s *AuthService) Refresh(ctx context.Context, oldRefreshToken string) (*TokenPair, *domain.User, error) {
	token, err := jwt.Parse(oldRefreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		s.logger.WarnContext(ctx, "Invalid refresh token", "error", err)
		return nil, nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil, ErrTokenInvalid
	}
	userID, _ := claims["sub"].(string)
	refreshTokenID, _ := claims["rti"].(string)
	if userID == "" || refreshTokenID == "" {
		return nil, nil, ErrTokenInvalid
	}

	storedToken, err := s.refreshTokenRepo.GetByID(ctx, refreshTokenID)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenNotFound) {
			// Possible token replay: invalidate everything issued to the user.
			s.logger.WarnContext(ctx, "Refresh token not found, invalidating token family", "rti", refreshTokenID, "user_id", userID)
			if delErr := s.refreshTokenRepo.DeleteByUserID(ctx, userID); delErr != nil {
				s.logger.ErrorContext(ctx, "Failed to delete token family", "error", delErr, "user_id", userID)
			}
			return nil, nil, ErrTokenInvalid
		}
		return nil, nil, err
	}

	if storedToken.UserID != userID || time.Now().After(storedToken.ExpiresAt) {
		if delErr := s.refreshTokenRepo.DeleteByUserID(ctx, userID); delErr != nil {
			s.logger.ErrorContext(ctx, "Failed to delete token family on suspicious refresh", "error", delErr, "user_id", userID)
		}
		return nil, nil, ErrTokenInvalid
	}

	if err := s.refreshTokenRepo.Delete(ctx, storedToken.ID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete old refresh token", "error", err, "rti", storedToken.ID)
		return nil, nil, errors.New("failed to rotate refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, ErrTokenInvalid
	}
	if !user.IsActive {
		return nil, nil, ErrUserInactive
	}

	return s.finishLoginTokensOnly(ctx, user)
}

func (s *AuthService) finishLoginTokensOnly(ctx context.Context, user *domain.User) (*TokenPair, *domain.User, error) {
	businessID, err := s.businesses.EnsureProfile(ctx, user.ID, user.Name)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.generateAndStoreTokens(ctx, user, businessID)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// Logout discards all refresh tokens for the user. Access tokens simply age
// out; the dashboard drops its copy client side.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.refreshTokenRepo.DeleteByUserID(ctx, userID)
}

func (s *AuthService) generateAndStoreTokens(ctx context.Context, user *domain.User, businessID string) (*TokenPair, error) {
	now := time.Now()
	expiresAt := now.Add(time.Hour * time.Duration(s.config.JWTExpiryHours))

	accessClaims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"bid":   businessID,
		"jti":   uuid.NewString(),
		"exp":   expiresAt.Unix(),
		"iat":   now.Unix(),
		"iss":   "replytics-dashboard-api",
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sign access token", "error", err, "user_id", user.ID)
		return nil, errors.New("token generation error")
	}

	refreshTokenID := uuid.NewString()
	refreshExpiry := now.Add(time.Hour * time.Duration(s.config.RefreshExpiryHours))
	refreshClaims := jwt.MapClaims{
		"sub": user.ID,
		"rti": refreshTokenID,
		"jti": uuid.NewString(),
		"exp": refreshExpiry.Unix(),
		"iat": now.Unix(),
		"iss": "replytics-dashboard-api",
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to sign refresh token", "error", err, "user_id", user.ID)
		return nil, errors.New("token generation error")
	}

	dbToken := &domain.RefreshToken{
		ID:        refreshTokenID,
		UserID:    user.ID,
		ExpiresAt: refreshExpiry,
	}
	if err := s.refreshTokenRepo.Create(ctx, dbToken); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store refresh token", "error", err, "user_id", user.ID)
		return nil, errors.New("session persistence error")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		ExpiresIn:    s.config.JWTExpiryHours * 3600,
	}, nil
}

func (s *AuthService) publishUserCreated(ctx context.Context, user *domain.User) {
	if s.natsClient == nil {
		s.logger.WarnContext(ctx, "NATS client not initialized, skipping user.created event")
		return
	}
	payload, err := json.Marshal(map[string]string{
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.Name,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal user created event", "error", err, "user_id", user.ID)
		return
	}
	if err := s.natsClient.Publish(ctx, "user.created", payload); err != nil {
		// Non-critical for the login flow, just log.
		s.logger.ErrorContext(ctx, "Failed to publish user.created event", "error", err, "user_id", user.ID)
	}
}
