package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/xavierca1/door-leads/internal/entity"
	"github.com/xavierca1/door-leads/internal/infra/logger"
	"github.com/xavierca1/door-leads/internal/usecase"
)

const maxLeadBodyBytes = 1 << 20

type LeadHandler struct {
	CaptureUC *usecase.CaptureLeadUseCase
	Log       *logger.Logger
}

func NewLeadHandler(uc *usecase.CaptureLeadUseCase, log *logger.Logger) *LeadHandler {
	return &LeadHandler{
		CaptureUC: uc,
		Log:       log.Component("lead-intake"),
	}
}

type CaptureLeadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CaptureLead handles POST /track-lead. Every failure, including malformed
// JSON and validation errors, is answered with the same 500 envelope.
func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	// 1. Lê o corpo cru (limite de 1 MiB) para poder logar o payload
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxLeadBodyBytes))
	if err != nil {
		h.Log.Error().Err(err).Msg("read lead body")
		h.fail(w)
		return
	}

	ev := h.Log.Info()
	if json.Valid(body) {
		ev = ev.RawJSON("body", body)
	} else {
		ev = ev.Bytes("body", body)
	}
	ev.Msg("received lead")

	// 2. Unmarshal rejeita lixo depois do objeto, o Decoder não
	var input entity.LeadInput
	if err := json.Unmarshal(body, &input); err != nil {
		h.Log.Error().Err(err).Msg("decode lead")
		h.fail(w)
		return
	}
	if input.Source == "" {
		input.Source = entity.SourceWeb
	}

	// 3. Valida, salva e publica o evento
	out, err := h.CaptureUC.Execute(r.Context(), input)
	if err != nil {
		h.Log.Error().
			Err(err).
			Str("kind", entity.KindOf(err).String()).
			Interface("fields", entity.FieldsOf(err)).
			Msg("capture lead failed")
		h.fail(w)
		return
	}

	writeJSON(w, http.StatusOK, CaptureLeadResponse{
		Success: true,
		Message: "Lead tracked successfully",
		ID:      out.ID,
	})
}

func (h *LeadHandler) fail(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, CaptureLeadResponse{
		Success: false,
		Error:   "Failed to process lead",
	})
}
