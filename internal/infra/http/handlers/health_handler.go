package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is satisfied by the lead store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BrokerStatus is satisfied by *queue.RabbitMQ.
type BrokerStatus interface {
	Healthy() bool
}

type HealthHandler struct {
	Store     Pinger
	Broker    BrokerStatus // nil when events are disabled
	Version   string
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(store Pinger, broker BrokerStatus, version string) *HealthHandler {
	return &HealthHandler{
		Store:     store,
		Broker:    broker,
		Version:   version,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)
	status := "healthy"

	if err := h.Store.Ping(r.Context()); err != nil {
		deps["store"] = "unhealthy"
		status = "degraded"
	} else {
		deps["store"] = "healthy"
	}

	switch {
	case h.Broker == nil:
		deps["rabbitmq"] = "not configured"
	case h.Broker.Healthy():
		deps["rabbitmq"] = "healthy"
	default:
		deps["rabbitmq"] = "unhealthy: connection closed"
		status = "degraded"
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}
