package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/xavierca1/door-leads/internal/entity"
)

// LeadCreatedPayload is the body of a lead.created message.
type LeadCreatedPayload struct {
	LeadID    string    `json:"lead_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	PhoneE164 string    `json:"phone_e164,omitempty"`
	Role      string    `json:"role"`
	Source    string    `json:"source"`
	Location  string    `json:"location,omitempty"`
	ZipCode   string    `json:"zip_code,omitempty"`
	Timeline  string    `json:"timeline,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewLeadCreatedPayload(l *entity.Lead) LeadCreatedPayload {
	return LeadCreatedPayload{
		LeadID:    l.ID,
		Name:      l.Name,
		Email:     l.Email,
		Phone:     l.Phone,
		PhoneE164: l.PhoneE164,
		Role:      string(l.Role),
		Source:    string(l.Source),
		Location:  l.Location,
		ZipCode:   l.ZipCode,
		Timeline:  l.Timeline,
		CreatedAt: l.CreatedAt,
	}
}

// Publisher is the subset of *amqp.Channel the producer uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadCreated(ctx context.Context, payload LeadCreatedPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode lead event: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    payload.LeadID,
			Timestamp:    payload.CreatedAt,
			Type:         "lead.created",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish lead event: %w", err)
	}
	return nil
}
