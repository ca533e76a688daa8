package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vendara/marketplace/internal/domain/model"
)

type writerStub struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *writerStub) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *writerStub) Close() error {
	w.closed = true
	return nil
}

func TestPublishKeysByOrderNumber(t *testing.T) {
	stub := &writerStub{}
	p := &Producer{writer: stub, topic: "order-status-changed"}

	n := model.StatusNotification{
		OrderNumber:    "ORD-42",
		CustomerEmail:  "buyer@example.com",
		NewStatus:      model.StatusShipped,
		PreviousStatus: model.StatusProcessing,
		OccurredAt:     time.Now().UTC(),
	}
	if err := p.Publish(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stub.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(stub.messages))
	}
	if got := string(stub.messages[0].Key); got != "ORD-42" {
		t.Fatalf("message not keyed by order number: %s", got)
	}

	var decoded model.StatusNotification
	if err := json.Unmarshal(stub.messages[0].Value, &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded.NewStatus != model.StatusShipped || decoded.CustomerEmail != n.CustomerEmail {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestPublishPropagatesWriterError(t *testing.T) {
	stub := &writerStub{err: errors.New("broker unavailable")}
	p := &Producer{writer: stub, topic: "order-status-changed"}

	if err := p.Publish(context.Background(), model.StatusNotification{OrderNumber: "ORD-1"}); err == nil {
		t.Fatal("expected error from writer")
	}
}

func TestCloseDelegates(t *testing.T) {
	stub := &writerStub{}
	p := &Producer{writer: stub}
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stub.closed {
		t.Fatal("writer not closed")
	}
}
