package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type brokerStub bool

func (b brokerStub) Healthy() bool { return bool(b) }

func TestHealthHandler(t *testing.T) {
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("no reachable servers") })

	tests := []struct {
		name       string
		store      Pinger
		broker     BrokerStatus
		wantCode   int
		wantStatus string
		wantBroker string
	}{
		{"all healthy", ok, brokerStub(true), http.StatusOK, "healthy", "healthy"},
		{"broker not configured", ok, nil, http.StatusOK, "healthy", "not configured"},
		{"store down", down, brokerStub(true), http.StatusServiceUnavailable, "degraded", "healthy"},
		{"broker closed", ok, brokerStub(false), http.StatusServiceUnavailable, "degraded", "unhealthy: connection closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.store, tt.broker, "test")
			rec := httptest.NewRecorder()
			h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantBroker, resp.Dependencies["rabbitmq"])
			assert.Equal(t, "test", resp.Version)
		})
	}
}

func TestDiagnosticsReportsPresenceOnly(t *testing.T) {
	t.Setenv("MAIL_PASS", "super-secret")

	h := NewDiagnosticsHandler("MAIL_PASS", "DOOR_LEADS_UNSET_VAR")
	rec := httptest.NewRecorder()
	h.Env(rec, httptest.NewRequest(http.MethodGet, "/debug/env", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"env":{"MAIL_PASS":true,"DOOR_LEADS_UNSET_VAR":false}}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "super-secret")
}
