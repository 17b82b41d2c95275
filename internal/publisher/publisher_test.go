package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bellybee/checkout/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockWriter implements messageWriter for testing
type MockWriter struct {
	messages []kafka.Message
	err      error
}

func (m *MockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *MockWriter) Close() error { return nil }

func TestPublishOrderCompleted(t *testing.T) {
	writer := &MockWriter{}
	p := &OrderPublisher{writer: writer}

	order := &domain.Order{
		OrderID:    "BB123456",
		Method:     domain.MethodHostedCheckout,
		PaymentRef: "pay_abc",
		Total:      413,
		CreatedAt:  time.Now(),
	}

	require.NoError(t, p.PublishOrderCompleted(context.Background(), "user-1", order))
	require.Len(t, writer.messages, 1)

	assert.Equal(t, []byte("user-1"), writer.messages[0].Key)

	var event orderCompletedEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, "BB123456", event.OrderID)
	assert.Equal(t, "HOSTED_CHECKOUT", event.Method)
	assert.Equal(t, "pay_abc", event.PaymentRef)
	assert.Equal(t, int64(413), event.Total)
}

func TestPublishOrderCompleted_WriteFailure(t *testing.T) {
	writer := &MockWriter{err: errors.New("broker unreachable")}
	p := &OrderPublisher{writer: writer}

	err := p.PublishOrderCompleted(context.Background(), "user-1", &domain.Order{OrderID: "BB1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish")
}
