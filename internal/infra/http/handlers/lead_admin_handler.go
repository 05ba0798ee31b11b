package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/door-leads/internal/entity"
	"github.com/xavierca1/door-leads/internal/infra/logger"
	"github.com/xavierca1/door-leads/internal/infra/metrics"
	"github.com/xavierca1/door-leads/internal/usecase"
)

// LeadAdminHandler serves the dashboard's lead management routes.
type LeadAdminHandler struct {
	Store *usecase.LeadStore
	Log   *logger.Logger
}

func NewLeadAdminHandler(store *usecase.LeadStore, log *logger.Logger) *LeadAdminHandler {
	return &LeadAdminHandler{
		Store: store,
		Log:   log.Component("lead-admin"),
	}
}

type ListLeadsResponse struct {
	Leads []*entity.Lead `json:"leads"`
	Count int            `json:"count"`
}

// Delete handles DELETE /leads/{id}.
func (h *LeadAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Lead ID is required"})
		return
	}

	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.respondError(w, "delete", id, err, "Failed to delete lead", "Lead ID is required")
		return
	}

	metrics.RecordLeadDeleted()
	h.Log.Info().Str("lead_id", id).Msg("lead deleted")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// List handles GET /leads.
func (h *LeadAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := entity.LeadFilters{
		Search:   q.Get("search"),
		Status:   entity.Status(q.Get("status")),
		Source:   entity.Source(q.Get("source")),
		Timeline: q.Get("timeline"),
	}
	if raw := q.Get("showOnlyNonConverted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "Invalid lead filters",
				Details: []fieldErrorPayload{{Field: "showOnlyNonConverted", Message: "must be a boolean"}},
			})
			return
		}
		filters.ShowOnlyNonConverted = v
	}

	leads, err := usecase.CollectLeads(h.Store.Query(r.Context(), filters))
	if err != nil {
		h.respondError(w, "list", "", err, "Failed to fetch leads", "Invalid lead filters")
		return
	}

	writeJSON(w, http.StatusOK, ListLeadsResponse{Leads: leads, Count: len(leads)})
}

// Get handles GET /leads/{id}.
func (h *LeadAdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	lead, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, "get", id, err, "Failed to fetch lead", "Lead ID is required")
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// Update handles PATCH /leads/{id}.
func (h *LeadAdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var patch entity.LeadPatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLeadBodyBytes)).Decode(&patch); err != nil {
		h.Log.Warn().Err(err).Str("lead_id", id).Msg("decode lead patch")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid lead update"})
		return
	}

	lead, err := h.Store.Update(r.Context(), id, patch)
	if err != nil {
		h.respondError(w, "update", id, err, "Failed to update lead", "Invalid lead update")
		return
	}

	h.Log.Info().Str("lead_id", id).Str("status", string(lead.Status)).Msg("lead updated")
	writeJSON(w, http.StatusOK, lead)
}

// Stats handles GET /leads/stats.
func (h *LeadAdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.Stats(r.Context())
	if err != nil {
		h.respondError(w, "stats", "", err, "Failed to compute lead stats", "Invalid request")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// respondError logs err with its context and translates its kind into a
// status code. Response bodies never carry driver messages.
func (h *LeadAdminHandler) respondError(w http.ResponseWriter, op, id string, err error, failMsg, invalidMsg string) {
	kind := entity.KindOf(err)
	h.Log.Error().
		Err(err).
		Str("op", op).
		Str("lead_id", id).
		Str("kind", kind.String()).
		Msg("lead operation failed")

	switch kind {
	case entity.KindValidation:
		fields := entity.FieldsOf(err)
		details := make([]fieldErrorPayload, 0, len(fields))
		for _, f := range fields {
			details = append(details, fieldErrorPayload{Field: f.Field, Message: f.Message})
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalidMsg, Details: details})
	case entity.KindNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Lead not found"})
	case entity.KindTransient:
		w.Header().Set("Retry-After", "5")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: failMsg})
	default: // KindUnknown
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: failMsg})
	}
}
