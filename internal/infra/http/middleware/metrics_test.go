package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Delete("/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodDelete, "/leads/{id}", "404"))
	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/leads/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodDelete, "/leads/{id}", "404"))

	assert.Equal(t, 2.0, after-before)
}
