package voicebot

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replytics/dashboard-api/internal/platform/cache"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return val, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *fakeCache) Ping(_ context.Context) error { return nil }

func newTestClient(t *testing.T, serverURL string, responseCache cache.Cache) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:    serverURL,
		JWTSecret:  "voicebot-test-secret",
		JWTExpiry:  30 * time.Minute,
		Timeout:    2 * time.Second,
		MaxRetries: 3,
		CacheTTL:   5 * time.Minute,
	}, responseCache, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_ProxyGet(t *testing.T) {
	ctx := context.Background()

	t.Run("ForwardsAuthAndBusinessHeaders", func(t *testing.T) {
		var gotAuth, gotBusinessID string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotBusinessID = r.Header.Get("X-Business-ID")
			w.Write([]byte(`{"name":"Glow Salon"}`))
		}))
		defer server.Close()
		client := newTestClient(t, server.URL, nil)

		body, err := client.ProxyGet(ctx, "biz-1", "business")

		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Glow Salon"}`, string(body))
		assert.Equal(t, "biz-1", gotBusinessID)
		require.True(t, strings.HasPrefix(gotAuth, "Bearer "))

		token, err := jwt.Parse(strings.TrimPrefix(gotAuth, "Bearer "), func(token *jwt.Token) (interface{}, error) {
			return []byte("voicebot-test-secret"), nil
		})
		require.NoError(t, err)
		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, "dashboard-api", claims["sub"])
		assert.Equal(t, "service", claims["type"])
	})

	t.Run("UnknownResourceRejectedWithoutRequest", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer server.Close()
		client := newTestClient(t, server.URL, nil)

		_, err := client.ProxyGet(ctx, "biz-1", "secrets")

		require.ErrorIs(t, err, ErrUnknownResource)
		assert.Zero(t, requests)
	})

	t.Run("SecondReadServedFromCache", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.Write([]byte(`{"services":[]}`))
		}))
		defer server.Close()
		client := newTestClient(t, server.URL, newFakeCache())

		_, err := client.ProxyGet(ctx, "biz-1", "services")
		require.NoError(t, err)
		_, err = client.ProxyGet(ctx, "biz-1", "services")
		require.NoError(t, err)

		assert.Equal(t, 1, requests)
	})

	t.Run("RetriesServerErrors", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			if requests < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()
		client := newTestClient(t, server.URL, nil)

		body, err := client.ProxyGet(ctx, "biz-1", "analytics")

		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(body))
		assert.Equal(t, 3, requests)
	})

	t.Run("ClientErrorsAreNotRetried", func(t *testing.T) {
		requests := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()
		client := newTestClient(t, server.URL, nil)

		_, err := client.ProxyGet(ctx, "biz-1", "prompts")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
		assert.Equal(t, 1, requests)
	})
}

func TestClient_PushConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("PushInvalidatesCachedReads", func(t *testing.T) {
		responses := []string{`{"name":"Before"}`, `{"name":"After"}`}
		reads := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.Write([]byte(responses[reads]))
			reads++
		}))
		defer server.Close()
		client := newTestClient(t, server.URL, newFakeCache())

		first, err := client.ProxyGet(ctx, "biz-1", "business")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"Before"}`, string(first))

		require.NoError(t, err)
		err = client.PushConfig(ctx, "biz-1", map[string]string{"name": "After"})
		require.NoError(t, err)

		second, err := client.ProxyGet(ctx, "biz-1", "business")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"After"}`, string(second))
	})

	t.Run("SendsSnapshotBody", func(t *testing.T) {
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			assert.Equal(t, "biz-1", r.Header.Get("X-Business-ID"))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()
		client := newTestClient(t, server.URL, nil)

		err := client.PushConfig(ctx, "biz-1", map[string]string{"timezone": "America/Chicago"})

		require.NoError(t, err)
		assert.Equal(t, "America/Chicago", gotBody["timezone"])
	})
}

func TestClient_CircuitBreaker(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	client := newTestClient(t, server.URL, nil)

	// Each call exhausts the retry budget and counts as one breaker failure.
	for i := 0; i < 5; i++ {
		_, err := client.ProxyGet(ctx, "biz-1", "health")
		require.Error(t, err)
	}

	_, err := client.ProxyGet(ctx, "biz-1", "health")
	require.ErrorIs(t, err, ErrUnavailable)
}
