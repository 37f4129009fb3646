package events

import (
	"context"
	"encoding/json"
	"errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/domain"
	"github.com/annalza/mint-stock-flow/internal/platform/kafka"
	"github.com/annalza/mint-stock-flow/internal/platform/observability"
)

// Publisher delivers committed domain events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// KafkaPublisher writes domain events to the stock events topic
type KafkaPublisher struct {
	producer kafka.Producer
	logger   observability.Logger
}

// NewKafkaPublisher creates a publisher with explicit dependencies
func NewKafkaPublisher(producer kafka.Producer, logger observability.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		logger:   logger,
	}
}

// Publish serializes the event and writes it keyed by the entity it concerns, so events
// for one entity stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("❌ Failed to serialize event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
		)
		return err
	}

	msg := kafkago.Message{
		Key:   []byte(event.Key),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(event.Type)},
			{Key: "event-id", Value: []byte(event.ID)},
		},
	}

	if err := p.producer.WriteMessage(ctx, msg); err != nil {
		p.logger.Error("❌ Failed to publish event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
		)
		return err
	}

	p.logger.Info("📤 Sent event",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
		zap.String("key", event.Key),
	)
	return nil
}

// FanOut publishes to every publisher and joins their errors.
type FanOut []Publisher

// Publish implements Publisher.
func (f FanOut) Publish(ctx context.Context, event domain.Event) error {
	var err error
	for _, p := range f {
		err = errors.Join(err, p.Publish(ctx, event))
	}
	return err
}

// Discard drops every event.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, domain.Event) error { return nil }
