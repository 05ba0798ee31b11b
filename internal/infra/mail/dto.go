package mail

import (
	"time"

	"github.com/xavierca1/door-leads/internal/infra/queue"
)

type NewLeadEmailData struct {
	LeadID     string
	Name       string
	Email      string
	Phone      string
	Role       string
	Source     string
	Location   string
	ZipCode    string
	Timeline   string
	ReceivedAt string
}

func newLeadEmailData(p queue.LeadCreatedPayload) NewLeadEmailData {
	return NewLeadEmailData{
		LeadID:     p.LeadID,
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		Role:       p.Role,
		Source:     p.Source,
		Location:   p.Location,
		ZipCode:    p.ZipCode,
		Timeline:   p.Timeline,
		ReceivedAt: p.CreatedAt.UTC().Format(time.RFC1123),
	}
}
