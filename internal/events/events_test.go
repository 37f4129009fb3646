package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

type fakeProducer struct {
	mu       sync.Mutex
	messages []kafkago.Message
	err      error
}

func (p *fakeProducer) WriteMessage(_ context.Context, msg kafkago.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

type fakeConsumer struct {
	messages []kafkago.Message
	cancel   context.CancelFunc
}

func (c *fakeConsumer) ReadMessage(ctx context.Context) (*kafkago.Message, error) {
	if len(c.messages) == 0 {
		c.cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	msg := c.messages[0]
	c.messages = c.messages[1:]
	return &msg, nil
}

func (c *fakeConsumer) Close() error { return nil }

// brokenConsumer fails every read and cancels once it has been called cancelAfter times.
type brokenConsumer struct {
	reads       int
	cancelAfter int
	cancel      context.CancelFunc
}

var errBrokerDown = errors.New("dial tcp: connection refused")

func (c *brokenConsumer) ReadMessage(context.Context) (*kafkago.Message, error) {
	c.reads++
	if c.cancelAfter > 0 && c.reads >= c.cancelAfter {
		c.cancel()
	}
	return nil, errBrokerDown
}

func (c *brokenConsumer) Close() error { return nil }

type fakeReceiver struct {
	receipts []domain.GoodsReceivedEvent
	err      error
}

func (r *fakeReceiver) ReceiveGoods(_ context.Context, receipt domain.GoodsReceivedEvent) (domain.Item, error) {
	if r.err != nil {
		return domain.Item{}, r.err
	}
	r.receipts = append(r.receipts, receipt)
	return domain.Item{ID: receipt.ItemID, Code: receipt.ItemCode, Qty: receipt.Qty}, nil
}

func TestKafkaPublisherWritesKeyedEvent(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewKafkaPublisher(producer, zap.NewNop())

	event := domain.Event{ID: "evt-1", Type: domain.EventStockReceived, Key: "item-1", Payload: map[string]int{"qty": 10}}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(producer.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(producer.messages))
	}
	msg := producer.messages[0]
	if string(msg.Key) != "item-1" {
		t.Fatalf("unexpected key %q", msg.Key)
	}
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["event-type"] != "stock.received" || headers["event-id"] != "evt-1" {
		t.Fatalf("unexpected headers %v", headers)
	}

	var decoded domain.Event
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not an event: %v", err)
	}
	if decoded.Type != domain.EventStockReceived {
		t.Fatalf("unexpected decoded type %q", decoded.Type)
	}
}

func TestKafkaPublisherReturnsWriteError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}
	pub := NewKafkaPublisher(producer, zap.NewNop())

	if err := pub.Publish(context.Background(), domain.Event{Type: domain.EventStockIssued}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFanOutDeliversToAll(t *testing.T) {
	a, b := &fakeProducer{}, &fakeProducer{err: errors.New("down")}
	fan := FanOut{NewKafkaPublisher(a, zap.NewNop()), NewKafkaPublisher(b, zap.NewNop()), Discard{}}

	err := fan.Publish(context.Background(), domain.Event{Type: domain.EventRecipeSold, Key: "recipe-1"})
	if err == nil {
		t.Fatal("expected joined error from failing publisher")
	}
	if len(a.messages) != 1 {
		t.Fatal("healthy publisher should still receive the event")
	}
}

func TestHandlerBooksReceipt(t *testing.T) {
	receiver := &fakeReceiver{}
	h := NewMessageHandler(receiver, zap.NewNop())

	value, _ := json.Marshal(domain.GoodsReceivedEvent{ItemCode: "ITM001", Qty: 12})
	if err := h.HandleGoodsReceived(context.Background(), kafkago.Message{Value: value}); err != nil {
		t.Fatalf("HandleGoodsReceived: %v", err)
	}
	if len(receiver.receipts) != 1 || receiver.receipts[0].ItemCode != "ITM001" || receiver.receipts[0].Qty != 12 {
		t.Fatalf("unexpected receipts %+v", receiver.receipts)
	}
}

func TestHandlerRejectsBadMessages(t *testing.T) {
	h := NewMessageHandler(&fakeReceiver{}, zap.NewNop())
	if err := h.HandleGoodsReceived(context.Background(), kafkago.Message{Value: []byte("{not json")}); err == nil {
		t.Fatal("expected JSON error")
	}

	failing := NewMessageHandler(&fakeReceiver{err: domain.ErrNotFound}, zap.NewNop())
	value, _ := json.Marshal(domain.GoodsReceivedEvent{ItemID: 99, Qty: 1})
	if err := failing.HandleGoodsReceived(context.Background(), kafkago.Message{Value: value}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConsumerDrainsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good, _ := json.Marshal(domain.GoodsReceivedEvent{ItemID: 1, Qty: 3})
	consumer := &fakeConsumer{
		messages: []kafkago.Message{{Value: []byte("garbage")}, {Value: good}},
		cancel:   cancel,
	}
	receiver := &fakeReceiver{}
	svc := NewConsumerService(consumer, NewMessageHandler(receiver, zap.NewNop()), zap.NewNop())

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(receiver.receipts) != 1 || receiver.receipts[0].ItemID != 1 {
		t.Fatalf("expected the valid receipt to be booked, got %+v", receiver.receipts)
	}
}

func TestConsumerBacksOffOnReadErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const backoff = 20 * time.Millisecond
	consumer := &brokenConsumer{cancelAfter: 3, cancel: cancel}
	svc := NewConsumerService(consumer, NewMessageHandler(&fakeReceiver{}, zap.NewNop()), zap.NewNop(),
		WithReadBackoff(backoff))

	start := time.Now()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if consumer.reads != 3 {
		t.Fatalf("expected 3 reads, got %d", consumer.reads)
	}
	if elapsed := time.Since(start); elapsed < 2*backoff {
		t.Fatalf("expected at least %v between failed reads, loop took %v", 2*backoff, elapsed)
	}
}

func TestConsumerStopsDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := &brokenConsumer{}
	svc := NewConsumerService(consumer, NewMessageHandler(&fakeReceiver{}, zap.NewNop()), zap.NewNop(),
		WithReadBackoff(time.Hour))

	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop while backing off")
	}
	if consumer.reads != 1 {
		t.Fatalf("expected a single read during the backoff, got %d", consumer.reads)
	}
}
