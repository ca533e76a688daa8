package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/vendara/marketplace/internal/domain/model"
)

// messageWriter is the subset of kafka.Writer the producer needs, extracted
// so tests can substitute a capture.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order status notifications to Kafka. Messages are keyed
// by order number so all events of one order land on the same partition.
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer constructs a Kafka producer for the given brokers and topic.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
		},
	}
}

// Publish sends a single status notification.
func (p *Producer) Publish(ctx context.Context, n model.StatusNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.OrderNumber),
		Value: data,
	})
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
