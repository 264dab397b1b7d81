package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisEventPublisher broadcasts events over a redis pub/sub channel. It
// doubles as the feed for in-process websocket fanout: every instance runs
// a forwarder so clients connected to any replica see every event.
type RedisEventPublisher struct {
	client  *redis.Client
	logger  *slog.Logger
	channel string
}

func NewRedisEventPublisher(client *redis.Client, channel string, logger *slog.Logger) *RedisEventPublisher {
	return &RedisEventPublisher{
		client:  client,
		logger:  logger,
		channel: channel,
	}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event *BroadcastEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
		p.logger.Error("Failed to publish broadcast event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// StartForwarder subscribes to the broadcast channel and invokes onEvent for
// every received event until ctx is cancelled.
func (p *RedisEventPublisher) StartForwarder(ctx context.Context, onEvent func(event BroadcastEvent)) error {
	sub := p.client.Subscribe(ctx, p.channel)

	// Confirms the subscription is live before returning.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case msg, ok := <-ch:
				if !ok || msg == nil {
					_ = sub.Close()
					return
				}
				var event BroadcastEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					p.logger.Warn("Dropping malformed broadcast payload", "error", err)
					continue
				}
				onEvent(event)
			}
		}
	}()

	return nil
}

func (p *RedisEventPublisher) Close() error {
	return p.client.Close()
}
