package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/door-leads/internal/infra/logger"
	"github.com/xavierca1/door-leads/internal/infra/metrics"
)

// Notifier delivers a new-lead notification to staff (email, chat, ...).
type Notifier interface {
	SendNewLead(ctx context.Context, payload LeadCreatedPayload) error
}

// Consumer is the subset of *amqp.Channel the worker uses.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Acknowledger settles a single delivery. amqp.Delivery satisfies it.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type Worker struct {
	Channel  Consumer
	Notifier Notifier
	Log      *logger.Logger
}

func NewWorker(ch Consumer, notifier Notifier, log *logger.Logger) *Worker {
	return &Worker{
		Channel:  ch,
		Notifier: notifier,
		Log:      log.Component("lead-worker"),
	}
}

func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	w.Log.Info().Str("queue", queueName).Msg("worker waiting for lead events")

	for {
		select {
		case <-ctx.Done():
			w.Log.Info().Msg("worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			w.handle(ctx, d.Body, &d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, body []byte, ack Acknowledger) {
	var payload LeadCreatedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		// mensagem inválida vai pra DLQ, senão trava a fila
		w.Log.Error().Err(err).Msg("invalid lead event")
		metrics.RecordNotification("malformed")
		_ = ack.Nack(false, false)
		return
	}

	if err := w.Notifier.SendNewLead(ctx, payload); err != nil {
		w.Log.Error().Err(err).Str("lead_id", payload.LeadID).Msg("new lead notification failed")
		metrics.RecordNotification("failed")
		_ = ack.Nack(false, false)
		return
	}

	w.Log.Info().Str("lead_id", payload.LeadID).Msg("new lead notification sent")
	metrics.RecordNotification("sent")
	_ = ack.Ack(false)
}
