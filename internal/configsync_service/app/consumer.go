package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	businessdomain "github.com/replytics/dashboard-api/internal/business_service/domain"
)

const (
	// queueGroup lets multiple config_sync instances share the subscription.
	queueGroup = "config-sync"

	pushTimeout = 30 * time.Second
)

var (
	eventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "configsync_events_received_total",
		Help: "Config change events received from the broker.",
	})
	configsPushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "configsync_configs_pushed_total",
		Help: "Config snapshots successfully pushed to the voice bot.",
	})
	pushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "configsync_push_failures_total",
		Help: "Config pushes that failed after loading the snapshot.",
	})
)

// ConfigSnapshotter loads the full voice-bot-facing configuration for a
// business.
type ConfigSnapshotter interface {
	Snapshot(ctx context.Context, businessID string) (*businessdomain.ConfigSnapshot, error)
}

// ConfigPusher delivers a configuration snapshot to the voice bot.
type ConfigPusher interface {
	PushConfig(ctx context.Context, businessID string, snapshot any) error
}

// Subscriber is the consume side of the message broker.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, queueGroup string, handler nats.MsgHandler) (*nats.Subscription, error)
}

// Consumer listens for business.config.updated events and pushes the updated
// configuration to the voice bot service.
type Consumer struct {
	snapshots ConfigSnapshotter
	pusher    ConfigPusher
	logger    *slog.Logger
}

func NewConsumer(snapshots ConfigSnapshotter, pusher ConfigPusher, logger *slog.Logger) *Consumer {
	return &Consumer{
		snapshots: snapshots,
		pusher:    pusher,
		logger:    logger,
	}
}

// Run subscribes and blocks until the context is canceled.
func (c *Consumer) Run(ctx context.Context, subscriber Subscriber) error {
	sub, err := subscriber.Subscribe(ctx, businessdomain.SubjectConfigUpdated, queueGroup, func(msg *nats.Msg) {
		handleCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := c.HandleEvent(handleCtx, msg.Data); err != nil {
			c.logger.ErrorContext(handleCtx, "Failed to process config change event", "error", err, "subject", msg.Subject)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", businessdomain.SubjectConfigUpdated, err)
	}
	c.logger.Info("Config sync consumer started", "subject", businessdomain.SubjectConfigUpdated, "queue_group", queueGroup)

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil {
		c.logger.Warn("Failed to unsubscribe config sync consumer", "error", err)
	}
	return nil
}

// HandleEvent processes one config change: load the full snapshot and push it.
func (c *Consumer) HandleEvent(ctx context.Context, data []byte) error {
	eventsReceived.Inc()

	var event businessdomain.ConfigUpdatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("failed to decode config change event: %w", err)
	}
	if event.BusinessID == "" {
		return fmt.Errorf("config change event missing business id")
	}

	snapshot, err := c.snapshots.Snapshot(ctx, event.BusinessID)
	if err != nil {
		pushFailures.Inc()
		return fmt.Errorf("failed to load config snapshot for %s: %w", event.BusinessID, err)
	}

	if err := c.pusher.PushConfig(ctx, event.BusinessID, snapshot); err != nil {
		pushFailures.Inc()
		return fmt.Errorf("failed to push config for %s: %w", event.BusinessID, err)
	}

	configsPushed.Inc()
	c.logger.InfoContext(ctx, "Config pushed to voice bot", "business_id", event.BusinessID, "section", event.Section)
	return nil
}
