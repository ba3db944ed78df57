package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/replytics/dashboard-api/internal/dashboard_api_service/middleware"
	identityapp "github.com/replytics/dashboard-api/internal/identity_service/app"
	identitydomain "github.com/replytics/dashboard-api/internal/identity_service/domain"
)

type LoginRequestDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type GoogleLoginRequestDTO struct {
	Email     string `json:"email" validate:"required,email"`
	Name      string `json:"name" validate:"required"`
	GoogleID  string `json:"google_id" validate:"required"`
	AvatarURL string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

type RefreshRequestDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UserResponseDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type SessionResponseDTO struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"`
	User         UserResponseDTO `json:"user"`
}

// AuthHandler serves login, token refresh and session endpoints.
type AuthHandler struct {
	auth     *identityapp.AuthService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAuthHandler(auth *identityapp.AuthService, logger *slog.Logger, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		logger:   logger.With("handler", "auth"),
		validate: validate,
	}
}

// RegisterRoutes mounts the unauthenticated auth endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/google", h.handleGoogleLogin)
	r.Post("/refresh", h.handleRefresh)
}

// RegisterSessionRoutes mounts the endpoints that require an authenticated
// session.
func (h *AuthHandler) RegisterSessionRoutes(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/users/me", h.handleCurrentUser)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		if errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	pair, user, err := h.auth.Login(ctx, reqDTO.Email, reqDTO.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "Login failed", "error", err, "email", reqDTO.Email)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sessionResponse(pair, user))
}

func (h *AuthHandler) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO GoogleLoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	pair, user, err := h.auth.GoogleLogin(ctx, reqDTO.Email, reqDTO.Name, reqDTO.AvatarURL, reqDTO.GoogleID)
	if err != nil {
		h.logger.WarnContext(ctx, "Google login failed", "error", err, "email", reqDTO.Email)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sessionResponse(pair, user))
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqDTO RefreshRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(ctx, reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	pair, user, err := h.auth.Refresh(ctx, reqDTO.RefreshToken)
	if err != nil {
		h.logger.WarnContext(ctx, "Token refresh failed", "error", err)
		respondWithDomainError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, sessionResponse(pair, user))
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authUser, ok := middleware.GetAuthenticatedUser(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.auth.Logout(ctx, authUser.UserID); err != nil {
		h.logger.ErrorContext(ctx, "Logout failed", "error", err, "user_id", authUser.UserID)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *AuthHandler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	authUser, ok := middleware.GetAuthenticatedUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"id":          authUser.UserID,
		"email":       authUser.Email,
		"name":        authUser.Name,
		"business_id": authUser.BusinessID,
	})
}

func sessionResponse(pair *identityapp.TokenPair, user *identitydomain.User) SessionResponseDTO {
	return SessionResponseDTO{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
		User: UserResponseDTO{
			ID:          user.ID,
			Email:       user.Email,
			Name:        user.Name,
			AvatarURL:   user.AvatarURL,
			LastLoginAt: user.LastLoginAt,
		},
	}
}
