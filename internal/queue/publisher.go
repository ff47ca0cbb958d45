package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-ticketing/internal/config"
)

// Publisher sends ticket events to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev TicketEvent) error
	Close() error
}

// NoopPublisher drops every event.  It is used when EVENTS_BROKER=none.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, TicketEvent) error { return nil }
func (NoopPublisher) Close() error                               { return nil }

// NewPublisher returns the publisher selected by cfg.Broker.
func NewPublisher(cfg config.EventsConfig, log *zap.Logger) (Publisher, error) {
	switch cfg.Broker {
	case "", "none":
		return NoopPublisher{}, nil
	case "rabbitmq", "amqp":
		return NewRabbitPublisher(cfg.RabbitURL, cfg.RabbitQueue, log), nil
	case "nats":
		return NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, log)
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	default:
		return nil, fmt.Errorf("unknown events broker %q", cfg.Broker)
	}
}
