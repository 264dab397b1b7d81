package config

import (
	"log/slog"
	"strings"

	"github.com/quizlive/session-service/internal/events"
	"github.com/redis/go-redis/v9"
)

// EventConfig holds configuration for broadcast event publishing
type EventConfig struct {
	Enabled        bool
	Publisher      string // redis, kafka or mock
	KafkaBrokers   string
	BroadcastTopic string
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// CreateEventPublisher creates an event publisher based on configuration.
// The redis client is only required for the redis publisher; kafka and mock
// ignore it.
func (c *EventConfig) CreateEventPublisher(redisClient *redis.Client, logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	switch c.Publisher {
	case "redis":
		logger.Info("Creating Redis event publisher", "channel", c.BroadcastTopic)
		return events.NewRedisEventPublisher(redisClient, c.BroadcastTopic, logger), nil
	case "kafka":
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.BroadcastTopic)

		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			TopicName:    c.BroadcastTopic,
			Logger:       logger,
		})
	case "mock":
		logger.Info("Using mock event publisher")
		return events.NewMockEventPublisher(logger), nil
	default:
		logger.Warn("Unknown event publisher type, falling back to mock", "publisher", c.Publisher)
		return events.NewMockEventPublisher(logger), nil
	}
}
