package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/door-leads/internal/infra/logger"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendNewLead(ctx context.Context, payload LeadCreatedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

type MockAcknowledger struct {
	mock.Mock
}

func (m *MockAcknowledger) Ack(multiple bool) error {
	return m.Called(multiple).Error(0)
}

func (m *MockAcknowledger) Nack(multiple, requeue bool) error {
	return m.Called(multiple, requeue).Error(0)
}

type fakeConsumer struct {
	deliveries chan amqp.Delivery
	err        error
	queue      string
}

func (c *fakeConsumer) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	c.queue = queue
	return c.deliveries, c.err
}

func samplePayload() LeadCreatedPayload {
	return LeadCreatedPayload{
		LeadID:    "lead-123",
		Name:      "Ana Souza",
		Email:     "ana@example.com",
		Role:      "homeowner",
		Source:    "web",
		CreatedAt: time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC),
	}
}

// ============ WORKER ============

// TestWorkerHandleSuccess - a delivered notification is acked
func TestWorkerHandleSuccess(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("SendNewLead", mock.Anything, mock.MatchedBy(func(p LeadCreatedPayload) bool {
		return p.LeadID == "lead-123" && p.Email == "ana@example.com"
	})).Return(nil)
	ack := new(MockAcknowledger)
	ack.On("Ack", false).Return(nil)

	body, _ := json.Marshal(samplePayload())
	w := NewWorker(nil, notifier, logger.Nop())
	w.handle(context.Background(), body, ack)

	notifier.AssertExpectations(t)
	ack.AssertExpectations(t)
	ack.AssertNotCalled(t, "Nack", mock.Anything, mock.Anything)
}

// TestWorkerHandleNotifierFailure - failures are dead-lettered, not requeued
func TestWorkerHandleNotifierFailure(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("SendNewLead", mock.Anything, mock.Anything).Return(errors.New("smtp: 421"))
	ack := new(MockAcknowledger)
	ack.On("Nack", false, false).Return(nil)

	body, _ := json.Marshal(samplePayload())
	NewWorker(nil, notifier, logger.Nop()).handle(context.Background(), body, ack)

	ack.AssertExpectations(t)
	ack.AssertNotCalled(t, "Ack", mock.Anything)
}

func TestWorkerHandleMalformedMessage(t *testing.T) {
	notifier := new(MockNotifier)
	ack := new(MockAcknowledger)
	ack.On("Nack", false, false).Return(nil)

	NewWorker(nil, notifier, logger.Nop()).handle(context.Background(), []byte("{not json"), ack)

	ack.AssertExpectations(t)
	notifier.AssertNotCalled(t, "SendNewLead", mock.Anything, mock.Anything)
}

func TestWorkerStartStopsOnCancel(t *testing.T) {
	consumer := &fakeConsumer{deliveries: make(chan amqp.Delivery)}
	w := NewWorker(consumer, new(MockNotifier), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx, QueueName) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, QueueName, consumer.queue)
}

func TestWorkerStartClosedChannel(t *testing.T) {
	consumer := &fakeConsumer{deliveries: make(chan amqp.Delivery)}
	close(consumer.deliveries)

	err := NewWorker(consumer, new(MockNotifier), logger.Nop()).Start(context.Background(), QueueName)

	assert.Error(t, err)
}

func TestWorkerStartConsumeError(t *testing.T) {
	consumer := &fakeConsumer{err: errors.New("channel/connection is not open")}

	err := NewWorker(consumer, new(MockNotifier), logger.Nop()).Start(context.Background(), QueueName)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "register consumer")
}
