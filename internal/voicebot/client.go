package voicebot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/replytics/dashboard-api/internal/platform/cache"
)

var (
	// ErrUnavailable indicates the voice bot is down or the circuit is open.
	ErrUnavailable = errors.New("voice bot service unavailable")
	// ErrUnknownResource indicates a proxy resource outside the allowed set.
	ErrUnknownResource = errors.New("unknown voice bot resource")
)

// APIError is a non-2xx response from the voice bot.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("voice bot API error: status %d", e.StatusCode)
}

// Resources the dashboard proxy may read from the voice bot. Anything else is
// rejected before a request is made.
var proxyResources = map[string]string{
	"business":     "/api/v1/business",
	"services":     "/api/v1/services",
	"hours":        "/api/v1/hours",
	"analytics":    "/api/v1/analytics",
	"prompts":      "/api/v1/prompts",
	"staff":        "/api/v1/staff",
	"integrations": "/api/v1/integrations",
	"health":       "/api/v1/health",
}

// Config holds the voice bot client settings.
type Config struct {
	BaseURL    string
	JWTSecret  string
	JWTExpiry  time.Duration
	Timeout    time.Duration
	MaxRetries int
	CacheTTL   time.Duration
}

// Client is the HTTP client for the voice bot service: service-to-service JWT
// auth, bounded retries with backoff, a circuit breaker, and a redis read
// cache invalidated on config pushes.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      cache.Cache
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *slog.Logger

	mu           sync.Mutex
	token        string
	tokenExpires time.Time
}

func NewClient(cfg Config, responseCache cache.Cache, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.JWTExpiry <= 0 {
		cfg.JWTExpiry = 30 * time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	clientLogger := logger.With("component", "voicebot_client")
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "voicebot-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			clientLogger.Warn("Voice bot circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      responseCache,
		breaker:    breaker,
		logger:     clientLogger,
	}
}

// ProxyGet fetches one of the allowed dashboard proxy resources for a
// business. GET responses are served from cache when fresh.
func (c *Client) ProxyGet(ctx context.Context, businessID string, resource string) (json.RawMessage, error) {
	path, ok := proxyResources[resource]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, resource)
	}
	return c.get(ctx, businessID, path)
}

// Health checks the voice bot's own health endpoint, bypassing the cache.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, proxyResources["health"], "", nil)
	return err
}

// PushConfig sends a full business configuration snapshot to the voice bot and
// invalidates cached reads for that business.
func (c *Client) PushConfig(ctx context.Context, businessID string, snapshot any) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode config snapshot: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/internal/config", businessID, body); err != nil {
		return err
	}
	c.InvalidateBusiness(ctx, businessID)
	return nil
}

// InvalidateBusiness drops cached voice bot responses for a business.
func (c *Client) InvalidateBusiness(ctx context.Context, businessID string) {
	if c.cache == nil {
		return
	}
	keys := make([]string, 0, len(proxyResources))
	for _, path := range proxyResources {
		keys = append(keys, cacheKey(businessID, path))
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.logger.WarnContext(ctx, "Failed to invalidate voice bot cache", "error", err, "business_id", businessID)
	}
}

func (c *Client) get(ctx context.Context, businessID string, path string) (json.RawMessage, error) {
	key := cacheKey(businessID, path)
	if c.cache != nil {
		cached, err := c.cache.Get(ctx, key)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.WarnContext(ctx, "Voice bot cache read failed", "error", err, "key", key)
		}
	}

	body, err := c.do(ctx, http.MethodGet, path, businessID, nil)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, c.cfg.CacheTTL); err != nil {
			c.logger.WarnContext(ctx, "Voice bot cache write failed", "error", err, "key", key)
		}
	}
	return body, nil
}

// do executes one request through the circuit breaker with bounded retries on
// transport errors and 5xx responses. 4xx responses are not retried.
func (c *Client) do(ctx context.Context, method string, path string, businessID string, body []byte) ([]byte, error) {
	result, err := c.breaker.Execute(func() ([]byte, error) {
		var lastErr error
		for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
			if attempt > 0 {
				backoff := time.Duration(1<<uint(attempt-1)) * 250 * time.Millisecond
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
			}

			responseBody, err := c.doOnce(ctx, method, path, businessID, body)
			if err == nil {
				return responseBody, nil
			}

			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
				return nil, err
			}
			lastErr = err
			c.logger.WarnContext(ctx, "Voice bot request failed", "error", err, "method", method, "path", path, "attempt", attempt+1)
		}
		return nil, lastErr
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return nil, err
	}
	return result, nil
}

func (c *Client) doOnce(ctx context.Context, method string, path string, businessID string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build voice bot request: %w", err)
	}

	token, err := c.serviceToken()
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Replytics-Dashboard/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if businessID != "" {
		req.Header.Set("X-Business-ID", businessID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read voice bot response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: responseBody}
	}
	return responseBody, nil
}

// serviceToken returns a signed service JWT, reusing the current one until a
// minute before expiry.
func (c *Client) serviceToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC()
	if c.token != "" && now.Before(c.tokenExpires.Add(-time.Minute)) {
		return c.token, nil
	}

	expires := now.Add(c.cfg.JWTExpiry)
	claims := jwt.MapClaims{
		"sub":         "dashboard-api",
		"iss":         "replytics-dashboard",
		"type":        "service",
		"permissions": []string{"dashboard:read", "dashboard:write"},
		"iat":         now.Unix(),
		"exp":         expires.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}

	c.token = token
	c.tokenExpires = expires
	return token, nil
}

func cacheKey(businessID string, path string) string {
	return "voicebot:" + businessID + ":" + path
}
