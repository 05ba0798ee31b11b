package memory

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/xavierca1/door-leads/internal/entity"
)

var _ entity.LeadRepository = (*LeadRepository)(nil)

// LeadRepository keeps leads in process memory. Used for local runs and tests.
type LeadRepository struct {
	mu    sync.RWMutex
	leads map[string]entity.Lead
}

func NewLeadRepository() *LeadRepository {
	return &LeadRepository{leads: make(map[string]entity.Lead)}
}

func (r *LeadRepository) Insert(ctx context.Context, lead *entity.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[lead.ID]; ok {
		return fmt.Errorf("insert lead: duplicate id %s", lead.ID)
	}
	r.leads[lead.ID] = *lead
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return &l, nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[lead.ID]; !ok {
		return entity.ErrLeadNotFound
	}
	r.leads[lead.ID] = *lead
	return nil
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[id]; !ok {
		return entity.ErrLeadNotFound
	}
	delete(r.leads, id)
	return nil
}

// Find snapshots the matches under the read lock, then yields them without
// holding it.
func (r *LeadRepository) Find(ctx context.Context, filters entity.LeadFilters) iter.Seq2[*entity.Lead, error] {
	return func(yield func(*entity.Lead, error) bool) {
		r.mu.RLock()
		matches := make([]*entity.Lead, 0, len(r.leads))
		for _, l := range r.leads {
			if filters.Match(&l) {
				c := l
				matches = append(matches, &c)
			}
		}
		r.mu.RUnlock()

		slices.SortFunc(matches, entity.NewestFirst)

		for _, l := range matches {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(l, nil) {
				return
			}
		}
	}
}

func (r *LeadRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *LeadRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads)
}
