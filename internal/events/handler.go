package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/domain"
	"github.com/annalza/mint-stock-flow/internal/platform/observability"
)

// GoodsReceiver books delivered goods into stock.
type GoodsReceiver interface {
	ReceiveGoods(ctx context.Context, receipt domain.GoodsReceivedEvent) (domain.Item, error)
}

// MessageHandler defines the interface for processing incoming messages.
type MessageHandler interface {
	HandleGoodsReceived(ctx context.Context, msg kafkago.Message) error
}

// KafkaMessageHandler handles goods receipt messages
type KafkaMessageHandler struct {
	receiver GoodsReceiver
	logger   observability.Logger
}

// NewMessageHandler creates a new MessageHandler instance with explicit dependencies
func NewMessageHandler(receiver GoodsReceiver, logger observability.Logger) MessageHandler {
	return &KafkaMessageHandler{
		receiver: receiver,
		logger:   logger,
	}
}

// HandleGoodsReceived processes a GoodsReceived message from Kafka
func (h *KafkaMessageHandler) HandleGoodsReceived(ctx context.Context, msg kafkago.Message) error {
	// Continue the trace of the system that shipped the goods.
	msgCtx := h.extractTraceContext(ctx, msg.Headers)

	h.logger.Info("📨 Raw Kafka message received",
		zap.ByteString("key", msg.Key),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	var receipt domain.GoodsReceivedEvent
	if err := json.Unmarshal(msg.Value, &receipt); err != nil {
		h.logger.Error("❌ Invalid JSON in GoodsReceived event",
			zap.Error(err),
			zap.ByteString("raw_value", msg.Value),
		)
		return err
	}

	item, err := h.receiver.ReceiveGoods(msgCtx, receipt)
	if err != nil {
		h.logger.Error("❌ Failed to book goods receipt",
			zap.Error(err),
			zap.Int64("item_id", receipt.ItemID),
			zap.String("item_code", receipt.ItemCode),
			zap.Int("qty", receipt.Qty),
		)
		return err
	}

	h.logger.Info("✅ Goods received",
		zap.Int64("item_id", item.ID),
		zap.String("item_code", item.Code),
		zap.Int("qty", item.Qty),
	)
	return nil
}

// extractTraceContext extracts OpenTelemetry trace context from Kafka message headers
func (h *KafkaMessageHandler) extractTraceContext(ctx context.Context, headers []kafkago.Header) context.Context {
	carrier := propagation.MapCarrier{}
	for _, header := range headers {
		carrier[header.Key] = string(header.Value)
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
