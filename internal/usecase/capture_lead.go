package usecase

import (
	"context"

	"github.com/xavierca1/door-leads/internal/entity"
	"github.com/xavierca1/door-leads/internal/infra/logger"
	"github.com/xavierca1/door-leads/internal/infra/metrics"
	"github.com/xavierca1/door-leads/internal/infra/queue"
)

type CaptureLeadUseCase struct {
	Store *LeadStore
	Queue LeadEventPublisher // optional
	Log   *logger.Logger
}

func NewCaptureLeadUseCase(store *LeadStore, publisher LeadEventPublisher, log *logger.Logger) *CaptureLeadUseCase {
	return &CaptureLeadUseCase{
		Store: store,
		Queue: publisher,
		Log:   log.Component("capture-lead"),
	}
}

// Execute persists the lead and announces it. The lead is already stored when
// the event is published, so a broker failure is logged and swallowed.
func (uc *CaptureLeadUseCase) Execute(ctx context.Context, input entity.LeadInput) (*CaptureLeadOutput, error) {
	// 1. Salva
	lead, err := uc.Store.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	metrics.RecordLeadCaptured()

	// 2. Publica o evento (falha não desfaz o lead)
	if uc.Queue != nil {
		if err := uc.Queue.PublishLeadCreated(ctx, queue.NewLeadCreatedPayload(lead)); err != nil {
			uc.Log.Warn().Err(err).Str("lead_id", lead.ID).Msg("lead stored but event publication failed")
			metrics.RecordEventPublished("failed")
		} else {
			metrics.RecordEventPublished("ok")
		}
	}

	uc.Log.Info().
		Str("lead_id", lead.ID).
		Str("role", string(lead.Role)).
		Str("source", string(lead.Source)).
		Msg("lead captured")

	return &CaptureLeadOutput{ID: lead.ID, Status: lead.Status}, nil
}
