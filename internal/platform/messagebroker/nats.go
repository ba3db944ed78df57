package messagebroker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSClient is the publish-side interface consumed by app services, so
// tests can substitute a mock without a running broker.
type NATSClient interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NatsClient wraps a NATS connection used for intra-platform events
// (business.config.updated, audit.recorded, sms.send, user.created).
type NatsClient struct {
	Conn   *nats.Conn
	logger *slog.Logger
}

// NewNatsClient connects to NATS with reconnect handling.
// natsURL example: "nats://localhost:4222".
func NewNatsClient(natsURL string, appName string, logger *slog.Logger) (*NatsClient, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(appName),
		nats.Timeout(5*time.Second),
		nats.PingInterval(20*time.Second),
		nats.MaxPingsOutstanding(3),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Error("NATS connection closed", "error", nc.LastError())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NatsClient{Conn: nc, logger: logger}, nil
}

// Publish sends data on the given subject. The context is accepted for
// interface symmetry with other adapters; core NATS publishes are fire and
// forget, so it is only checked for early cancellation.
func (c *NatsClient) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Conn.Publish(subject, data)
}

// Subscribe registers a queue-group subscription. An empty queueGroup makes
// it a plain subscription.
func (c *NatsClient) Subscribe(ctx context.Context, subject string, queueGroup string, handler nats.MsgHandler) (*nats.Subscription, error) {
	if queueGroup == "" {
		return c.Conn.Subscribe(subject, handler)
	}
	return c.Conn.QueueSubscribe(subject, queueGroup, handler)
}

// IsConnected reports broker connectivity, used by health checks.
func (c *NatsClient) IsConnected() bool {
	return c.Conn != nil && c.Conn.IsConnected()
}

// Close drains and closes the connection. Drain ensures buffered published
// messages are flushed before shutdown.
func (c *NatsClient) Close() {
	if c.Conn != nil && !c.Conn.IsClosed() {
		if err := c.Conn.Drain(); err != nil {
			c.logger.Warn("NATS drain failed", "error", err)
		}
		c.Conn.Close()
	}
}
