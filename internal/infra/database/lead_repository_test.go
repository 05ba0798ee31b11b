package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/xavierca1/door-leads/internal/entity"
)

func TestBuildFindQueryNoFilters(t *testing.T) {
	query, args := buildFindQuery(entity.LeadFilters{})

	assert.Equal(t, "SELECT doc FROM leads ORDER BY created_at DESC, id ASC", query)
	assert.Empty(t, args)
}

func TestBuildFindQueryAllFilters(t *testing.T) {
	query, args := buildFindQuery(entity.LeadFilters{
		Search:               "50%_off",
		Status:               entity.StatusNew,
		Source:               entity.SourceWeb,
		Timeline:             "asap",
		ShowOnlyNonConverted: true,
	})

	assert.Contains(t, query, "doc->>'status' = $1")
	assert.Contains(t, query, "doc->>'source' = $2")
	assert.Contains(t, query, "doc->>'timeline' = $3")
	assert.Contains(t, query, "NOT COALESCE((doc->>'hasQuote')::boolean, false)")
	assert.Contains(t, query, "doc->>'name' ILIKE $4 OR doc->>'email' ILIKE $4 OR doc->>'phone' ILIKE $4 OR doc->>'phoneE164' ILIKE $4")
	assert.Equal(t, []any{"new", "web", "asap", `%50\%\_off%`}, args)
}

func TestWrapClassifiesConnectionErrors(t *testing.T) {
	unavailable := []error{
		&pq.Error{Code: "08006"},
		&pq.Error{Code: "57P01"},
		context.DeadlineExceeded,
	}
	for _, err := range unavailable {
		assert.ErrorIs(t, wrap("op", err), entity.ErrStoreUnavailable, fmt.Sprint(err))
	}

	assert.NotErrorIs(t, wrap("op", &pq.Error{Code: "23505"}), entity.ErrStoreUnavailable)
	assert.NotErrorIs(t, wrap("op", errors.New("json: bad")), entity.ErrStoreUnavailable)
}
