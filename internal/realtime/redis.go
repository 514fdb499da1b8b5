package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"hostel-backend/internal/logger"
)

// RedisRelay publishes changes to the local hub and to a Redis channel so
// that other instances' hubs see them too.
type RedisRelay struct {
	client     *redis.Client
	channel    string
	hub        *Hub
	instanceID string
	logger     *slog.Logger
}

// NewRedisRelay creates a relay bound to hub.
func NewRedisRelay(client *redis.Client, channel string, hub *Hub) *RedisRelay {
	return &RedisRelay{
		client:     client,
		channel:    channel,
		hub:        hub,
		instanceID: uuid.NewString(),
		logger:     logger.WithComponent("redis-relay"),
	}
}

// Publish delivers events locally, then forwards them to other instances.
// Forwarding failures are logged; local delivery never depends on Redis.
func (r *RedisRelay) Publish(ctx context.Context, events ...Event) {
	r.hub.Publish(ctx, events...)
	for _, e := range events {
		e.InstanceID = r.instanceID
		data, err := json.Marshal(e)
		if err != nil {
			r.logger.Error("failed to marshal change event", "table", e.Table, "error", err)
			continue
		}
		if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
			r.logger.Error("failed to publish change event", "table", e.Table, "error", err)
			continue
		}
		r.logger.Debug("change event published to Redis", "table", e.Table, "type", e.Type)
	}
}

// Run relays events from other instances into the local hub until ctx ends,
// reconnecting with exponential backoff.
func (r *RedisRelay) Run(ctx context.Context) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := r.subscribe(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		r.logger.Warn("change subscription disconnected, reconnecting",
			"channel", r.channel,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (r *RedisRelay) subscribe(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel %s: %w", r.channel, err)
	}
	r.logger.Info("subscribed to change channel", "channel", r.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				r.logger.Warn("change channel closed", "channel", r.channel)
				return nil
			}
			r.handle(ctx, msg.Payload)
		}
	}
}

// handle decodes a remote event and delivers it locally, skipping events
// this instance published itself.
func (r *RedisRelay) handle(ctx context.Context, payload string) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		r.logger.Warn("failed to unmarshal change event", "payload", payload, "error", err)
		return
	}
	if e.InstanceID == r.instanceID {
		return
	}
	r.hub.Publish(ctx, e)
}
