package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/platform/kafka"
	"github.com/annalza/mint-stock-flow/internal/platform/observability"
)

// DefaultReadBackoff is the pause after a failed broker read before the next attempt.
const DefaultReadBackoff = 500 * time.Millisecond

// ConsumerService books goods receipts arriving from the broker.
type ConsumerService interface {
	Start(ctx context.Context) error
}

// ConsumerOption configures a KafkaConsumerService.
type ConsumerOption func(*KafkaConsumerService)

// WithReadBackoff sets the pause between failed reads. Values <= 0 keep the default.
func WithReadBackoff(d time.Duration) ConsumerOption {
	return func(c *KafkaConsumerService) {
		if d > 0 {
			c.backoff = d
		}
	}
}

type KafkaConsumerService struct {
	consumer kafka.Consumer
	handler  MessageHandler
	logger   observability.Logger
	backoff  time.Duration
}

func NewConsumerService(consumer kafka.Consumer, handler MessageHandler, logger observability.Logger, opts ...ConsumerOption) ConsumerService {
	c := &KafkaConsumerService{
		consumer: consumer,
		handler:  handler,
		logger:   logger,
		backoff:  DefaultReadBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start books receipts until ctx ends. Undecodable or refused receipts are logged by
// the handler and skipped; broker read failures are retried after the backoff.
func (c *KafkaConsumerService) Start(ctx context.Context) error {
	c.logger.Info("📥 Goods receipt consumer started")
	defer c.logger.Info("Goods receipt consumer stopped")

	for {
		msg, err := c.consumer.ReadMessage(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			c.logger.Error("❌ Failed to read goods receipt",
				zap.Error(err),
				zap.Duration("retry_in", c.backoff),
			)
			if !c.wait(ctx) {
				return nil
			}
			continue
		}

		_ = c.handler.HandleGoodsReceived(ctx, *msg)
	}
}

// wait sleeps for the backoff and reports false when ctx ended first.
func (c *KafkaConsumerService) wait(ctx context.Context) bool {
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
