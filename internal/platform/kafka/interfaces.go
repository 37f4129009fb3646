package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Producer writes messages to one topic. The otel-kafka-konsumer writer satisfies it.
type Producer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// Consumer reads messages from one topic within a consumer group.
type Consumer interface {
	ReadMessage(ctx context.Context) (*kafka.Message, error)
	Close() error
}
