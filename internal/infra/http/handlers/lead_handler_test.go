package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/door-leads/internal/entity"
	"github.com/xavierca1/door-leads/internal/infra/logger"
	"github.com/xavierca1/door-leads/internal/infra/memory"
	"github.com/xavierca1/door-leads/internal/usecase"
)

func newIntake(t *testing.T) (*LeadHandler, *usecase.LeadStore, *memory.LeadRepository) {
	t.Helper()
	repo := memory.NewLeadRepository()
	store := usecase.NewLeadStore(repo, time.Second)
	uc := usecase.NewCaptureLeadUseCase(store, nil, logger.Nop())
	return NewLeadHandler(uc, logger.Nop()), store, repo
}

func postLead(h *LeadHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/track-lead", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.CaptureLead(rec, req)
	return rec
}

// ============ INTAKE ============

// TestCaptureLeadSuccess - a valid submission is stored with status new
func TestCaptureLeadSuccess(t *testing.T) {
	h, store, _ := newIntake(t)

	rec := postLead(h, `{"name":"Ana Souza","email":"ana@example.com","phone":"650-253-0000","role":"homeowner","zipCode":"78701","utm":"ignored"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp CaptureLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Lead tracked successfully", resp.Message)
	require.NotEmpty(t, resp.ID)

	lead, err := store.GetByID(t.Context(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNew, lead.Status)
	assert.Equal(t, entity.SourceWeb, lead.Source, "source defaults to web")
	assert.Equal(t, "78701", lead.ZipCode)
}

// TestCaptureLeadFailures - every failure gets the same 500 envelope and nothing is stored
func TestCaptureLeadFailures(t *testing.T) {
	bodies := map[string]string{
		"malformed json": `{"name":"Ana"`,
		"trailing data":  `{"name":"Ana Souza","email":"ana@example.com","role":"homeowner"} not json at all`,
		"two objects":    `{"name":"Ana Souza","email":"ana@example.com","role":"homeowner"}{}`,
		"invalid email":  `{"name":"Ana","email":"ana.example.com","role":"homeowner"}`,
		"invalid role":   `{"name":"Ana","email":"ana@example.com","role":"landlord"}`,
		"missing name":   `{"email":"ana@example.com","role":"homeowner"}`,
		"invalid source": `{"name":"Ana","email":"ana@example.com","role":"homeowner","source":"tv"}`,
		"empty body":     ``,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			h, _, repo := newIntake(t)

			rec := postLead(h, body)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"success":false,"error":"Failed to process lead"}`, rec.Body.String())
			assert.Equal(t, 0, repo.Len())
		})
	}
}

func TestCaptureLeadBodyTooLarge(t *testing.T) {
	h, _, repo := newIntake(t)

	big := `{"name":"` + strings.Repeat("a", maxLeadBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/track-lead", bytes.NewBufferString(big))
	rec := httptest.NewRecorder()
	h.CaptureLead(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, repo.Len())
}
