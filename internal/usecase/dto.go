package usecase

import "github.com/xavierca1/door-leads/internal/entity"

type CaptureLeadOutput struct {
	ID     string        `json:"id"`
	Status entity.Status `json:"status"`
}
