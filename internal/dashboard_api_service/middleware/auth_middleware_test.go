package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	identityapp "github.com/replytics/dashboard-api/internal/identity_service/app"
	identitydomain "github.com/replytics/dashboard-api/internal/identity_service/domain"
)

type MockSessionValidator struct {
	mock.Mock
}

func (m *MockSessionValidator) ValidateAccessToken(ctx context.Context, tokenString string) (*identitydomain.User, *identityapp.SessionClaims, error) {
	args := m.Called(ctx, tokenString)
	var user *identitydomain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*identitydomain.User)
	}
	var claims *identityapp.SessionClaims
	if args.Get(1) != nil {
		claims = args.Get(1).(*identityapp.SessionClaims)
	}
	return user, claims, args.Error(2)
}

type MockBusinessResolver struct {
	mock.Mock
}

func (m *MockBusinessResolver) EnsureProfile(ctx context.Context, userID string, ownerName string) (string, error) {
	args := m.Called(ctx, userID, ownerName)
	return args.String(0), args.Error(1)
}

func runAuthMiddleware(t *testing.T, sessions SessionValidator, businesses BusinessResolver, authHeader string) (*httptest.ResponseRecorder, *AuthenticatedUser) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var captured *AuthenticatedUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := GetAuthenticatedUser(r.Context()); ok {
			captured = &user
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v2/dashboard/services", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()

	AuthMiddleware(sessions, businesses, logger)(next).ServeHTTP(rr, req)
	return rr, captured
}

func TestAuthMiddleware(t *testing.T) {
	activeUser := &identitydomain.User{ID: "user-1", Email: "owner@example.com", Name: "Jordan", IsActive: true}

	t.Run("MissingHeader", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		businesses := new(MockBusinessResolver)

		rr, captured := runAuthMiddleware(t, sessions, businesses, "")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, captured)
		sessions.AssertNotCalled(t, "ValidateAccessToken", mock.Anything, mock.Anything)
	})

	t.Run("MalformedHeader", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		businesses := new(MockBusinessResolver)

		rr, _ := runAuthMiddleware(t, sessions, businesses, "Token abc")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		sessions.AssertNotCalled(t, "ValidateAccessToken", mock.Anything, mock.Anything)
	})

	t.Run("ForgedOrExpiredToken", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		businesses := new(MockBusinessResolver)
		sessions.On("ValidateAccessToken", mock.Anything, "forged").
			Return(nil, nil, identityapp.ErrTokenInvalid).Once()

		rr, _ := runAuthMiddleware(t, sessions, businesses, "Bearer forged")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		businesses.AssertNotCalled(t, "EnsureProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InactiveUser", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		businesses := new(MockBusinessResolver)
		sessions.On("ValidateAccessToken", mock.Anything, "stale").
			Return(nil, nil, identityapp.ErrUserInactive).Once()

		rr, _ := runAuthMiddleware(t, sessions, businesses, "Bearer stale")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("CrossTenantClaimRejected", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		businesses := new(MockBusinessResolver)
		sessions.On("ValidateAccessToken", mock.Anything, "valid").
			Return(activeUser, &identityapp.SessionClaims{UserID: "user-1", BusinessID: "biz-other"}, nil).Once()
		businesses.On("EnsureProfile", mock.Anything, "user-1", "Jordan").Return("biz-1", nil).Once()

		rr, captured := runAuthMiddleware(t, sessions, businesses, "Bearer valid")

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Nil(t, captured)
	})

	t.Run("BusinessResolutionFailure", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		businesses := new(MockBusinessResolver)
		sessions.On("ValidateAccessToken", mock.Anything, "valid").
			Return(activeUser, &identityapp.SessionClaims{UserID: "user-1"}, nil).Once()
		businesses.On("EnsureProfile", mock.Anything, "user-1", "Jordan").Return("", assert.AnError).Once()

		rr, _ := runAuthMiddleware(t, sessions, businesses, "Bearer valid")

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("ValidSessionAttachesBusinessContext", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		businesses := new(MockBusinessResolver)
		sessions.On("ValidateAccessToken", mock.Anything, "valid").
			Return(activeUser, &identityapp.SessionClaims{UserID: "user-1", Email: "owner@example.com", BusinessID: "biz-1"}, nil).Once()
		businesses.On("EnsureProfile", mock.Anything, "user-1", "Jordan").Return("biz-1", nil).Once()

		rr, captured := runAuthMiddleware(t, sessions, businesses, "Bearer valid")

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, captured)
		assert.Equal(t, "user-1", captured.UserID)
		assert.Equal(t, "biz-1", captured.BusinessID)
	})

	t.Run("TokenWithoutBidClaimStillResolves", func(t *testing.T) {
		sessions := new(MockSessionValidator)
		businesses := new(MockBusinessResolver)
		sessions.On("ValidateAccessToken", mock.Anything, "legacy").
			Return(activeUser, &identityapp.SessionClaims{UserID: "user-1"}, nil).Once()
		businesses.On("EnsureProfile", mock.Anything, "user-1", "Jordan").Return("biz-1", nil).Once()

		rr, captured := runAuthMiddleware(t, sessions, businesses, "Bearer legacy")

		assert.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, captured)
		assert.Equal(t, "biz-1", captured.BusinessID)
	})
}
