package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/segmentio/kafka-go"
)

// KafkaPublisher dispatches domain events to a Kafka topic, fire-and-forget
// from the caller's point of view: downstream handlers are out of scope.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("brokers are empty")
	}

	if topic == "" {
		return nil, fmt.Errorf("topic is empty")
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &KafkaPublisher{writer: writer}, nil
}

var _ port.EventPublisher = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) PublishAll(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))

	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("json.Marshal[%s]: %w", e.Name(), err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(e.Name()),
			Value: payload,
			Time:  e.OccurredAt(),
		})
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("writer.WriteMessages: %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
