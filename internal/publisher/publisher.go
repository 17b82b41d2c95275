// Package publisher emits order-completed events for downstream consumers
// (kitchen, notifications).
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bellybee/checkout/domain"
	"github.com/segmentio/kafka-go"
)

const topic = "order-completed"

// messageWriter is the slice of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderPublisher writes one event per finalized order.
type OrderPublisher struct {
	writer messageWriter
}

func NewOrderPublisher(brokers ...string) *OrderPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OrderPublisher{writer: w}
}

type orderCompletedEvent struct {
	OrderID     string `json:"order_id"`
	UserID      string `json:"user_id"`
	Method      string `json:"method"`
	PaymentRef  string `json:"payment_ref,omitempty"`
	Total       int64  `json:"total"`
	CompletedAt string `json:"completed_at"`
}

// PublishOrderCompleted emits the event keyed by user id so one user's orders
// stay ordered within a partition.
func (p *OrderPublisher) PublishOrderCompleted(ctx context.Context, userID string, order *domain.Order) error {
	event := orderCompletedEvent{
		OrderID:     order.OrderID,
		UserID:      userID,
		Method:      order.Method.String(),
		PaymentRef:  order.PaymentRef,
		Total:       order.Total,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(userID),
		Value: payload,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

func (p *OrderPublisher) Close() error {
	return p.writer.Close()
}
