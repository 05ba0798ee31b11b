package usecase

import (
	"context"

	"github.com/xavierca1/door-leads/internal/infra/queue"
)

type LeadEventPublisher interface {
	PublishLeadCreated(ctx context.Context, payload queue.LeadCreatedPayload) error
}
