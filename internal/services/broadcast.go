package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/quizlive/session-service/internal/events"
)

const eventSource = "session-service"

// broadcaster wraps event publishing for services. Broadcast delivery is
// best effort: a publish failure is logged and never fails the operation
// that produced the event, since the state change has already committed.
type broadcaster struct {
	publisher events.EventPublisher
	logger    *slog.Logger
}

func (b broadcaster) publish(ctx context.Context, eventType events.EventType, sessionID uint, data interface{}) {
	if b.publisher == nil {
		return
	}

	event := &events.BroadcastEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   "1.0",
		SessionID: sessionID,
		Data:      data,
	}

	if err := b.publisher.Publish(ctx, event); err != nil {
		b.logger.Warn("Failed to publish broadcast event",
			"event_type", eventType,
			"session_id", sessionID,
			"error", err)
	}
}
