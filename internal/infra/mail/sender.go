package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/xavierca1/door-leads/internal/infra/queue"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var newLeadTemplate = template.Must(template.ParseFS(templateFS, "templates/new_lead.html"))

var _ queue.Notifier = (*EmailSender)(nil)

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// DefaultSendTimeout bounds a whole SMTP session, dial to QUIT.
const DefaultSendTimeout = 30 * time.Second

// EmailSender notifies the sales team about new leads over SMTP.
type EmailSender struct {
	From   string
	To     []string
	Dialer Dialer

	// SendTimeout zero means DefaultSendTimeout.
	SendTimeout time.Duration
}

func NewEmailSender(host string, port int, user, password, from string, to []string) *EmailSender {
	return &EmailSender{
		From:        from,
		To:          to,
		Dialer:      gomail.NewDialer(host, port, user, password),
		SendTimeout: DefaultSendTimeout,
	}
}

func (s *EmailSender) SendNewLead(ctx context.Context, payload queue.LeadCreatedPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(s.To) == 0 {
		return fmt.Errorf("send new lead email: no recipients configured")
	}

	body, err := RenderNewLead(payload)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To...)
	m.SetHeader("Reply-To", payload.Email)
	m.SetHeader("Subject", fmt.Sprintf("New %s lead: %s", payload.Role, payload.Name))
	m.SetBody("text/html", body)

	if err := s.send(ctx, m); err != nil {
		return fmt.Errorf("send new lead email: %w", err)
	}
	return nil
}

// send gives up on the SMTP session when ctx ends or the timeout passes.
// gomail has no context support, so an abandoned session finishes (or
// fails) in its goroutine and its result is dropped.
func (s *EmailSender) send(ctx context.Context, m *gomail.Message) error {
	timeout := s.SendTimeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RenderNewLead produces the HTML body of the staff notification.
func RenderNewLead(payload queue.LeadCreatedPayload) (string, error) {
	var body bytes.Buffer
	if err := newLeadTemplate.Execute(&body, newLeadEmailData(payload)); err != nil {
		return "", fmt.Errorf("render new lead email: %w", err)
	}
	return body.String(), nil
}
