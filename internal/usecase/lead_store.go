package usecase

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/door-leads/internal/entity"
	"github.com/xavierca1/door-leads/internal/infra/metrics"
)

const DefaultStoreTimeout = 5 * time.Second

// ErrSequenceConsumed is returned when a Query result is ranged over twice.
var ErrSequenceConsumed = errors.New("lead sequence already consumed")

// LeadStore is the sole owner of lead persistence. Handlers go through it and
// never touch a repository driver directly.
type LeadStore struct {
	repo      entity.LeadRepository
	validator *Validator
	timeout   time.Duration
	now       func() time.Time
	newID     func() string
}

func NewLeadStore(repo entity.LeadRepository, timeout time.Duration) *LeadStore {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &LeadStore{
		repo:      repo,
		validator: NewValidator(),
		timeout:   timeout,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// precisão de ms: mongo não guarda mais que isso
func (s *LeadStore) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Create validates the input and persists a new lead with status "new".
func (s *LeadStore) Create(ctx context.Context, in entity.LeadInput) (*entity.Lead, error) {
	const op = "lead.create"

	// 1. Normaliza e valida
	in = trimInput(in)
	if fields := s.validator.Struct(in); len(fields) > 0 {
		return nil, s.fail(entity.NewValidationError(op, fields...))
	}

	// 2. Monta o lead (telefone original + E.164)
	now := s.clock()
	lead := &entity.Lead{
		ID:        s.newID(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		PhoneE164: phoneE164(in.Phone),
		Role:      in.Role,
		Location:  in.Location,
		ZipCode:   in.ZipCode,
		Timeline:  in.Timeline,
		Source:    in.Source,
		Status:    entity.StatusNew,
		HasQuote:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// 3. Persiste
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Insert(ctx, lead); err != nil {
		return nil, s.classify(op, err)
	}
	return lead, nil
}

func (s *LeadStore) GetByID(ctx context.Context, id string) (*entity.Lead, error) {
	const op = "lead.get"

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, s.fail(entity.NewValidationError(op, entity.FieldError{Field: "id", Message: "is required"}))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.classify(op, err)
	}
	return lead, nil
}

// Update applies patch to the lead and refreshes UpdatedAt. ID and CreatedAt
// are never changed. Concurrent updates of the same lead are last-write-wins.
func (s *LeadStore) Update(ctx context.Context, id string, patch entity.LeadPatch) (*entity.Lead, error) {
	const op = "lead.update"

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, s.fail(entity.NewValidationError(op, entity.FieldError{Field: "id", Message: "is required"}))
	}
	patch = trimPatch(patch)
	if fields := s.validator.Struct(patch); len(fields) > 0 {
		return nil, s.fail(entity.NewValidationError(op, fields...))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lead, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.classify(op, err)
	}

	patch.Apply(lead)
	if patch.Phone != nil {
		lead.PhoneE164 = phoneE164(lead.Phone)
	}
	lead.UpdatedAt = s.nextUpdate(lead.UpdatedAt)

	if err := s.repo.Update(ctx, lead); err != nil {
		return nil, s.classify(op, err)
	}
	return lead, nil
}

// nextUpdate garante UpdatedAt estritamente crescente
func (s *LeadStore) nextUpdate(prev time.Time) time.Time {
	now := s.clock()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

// Delete hard-deletes the lead. A missing id is a NotFound error, not a no-op.
func (s *LeadStore) Delete(ctx context.Context, id string) error {
	const op = "lead.delete"

	id = strings.TrimSpace(id)
	if id == "" {
		return s.fail(entity.NewValidationError(op, entity.FieldError{Field: "id", Message: "is required"}))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.classify(op, err)
	}
	return nil
}

// Query returns a lazy, single-use sequence of leads matching filters, newest
// first. The store timeout covers the whole iteration.
func (s *LeadStore) Query(ctx context.Context, filters entity.LeadFilters) iter.Seq2[*entity.Lead, error] {
	const op = "lead.query"

	var consumed atomic.Bool
	return func(yield func(*entity.Lead, error) bool) {
		if !consumed.CompareAndSwap(false, true) {
			yield(nil, entity.NewUnknownError(op, ErrSequenceConsumed))
			return
		}

		f, fields := normalizeFilters(filters)
		if len(fields) > 0 {
			yield(nil, s.fail(entity.NewValidationError(op, fields...)))
			return
		}

		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		for lead, err := range s.repo.Find(ctx, f) {
			if err != nil {
				yield(nil, s.classify(op, err))
				return
			}
			if !yield(lead, nil) {
				return
			}
		}
	}
}

// Stats aggregates counts over every lead.
func (s *LeadStore) Stats(ctx context.Context) (*entity.LeadStats, error) {
	stats := &entity.LeadStats{
		BySource: make(map[entity.Source]int, len(entity.Sources)),
		ByRole:   make(map[entity.Role]int, len(entity.Roles)),
	}

	for lead, err := range s.Query(ctx, entity.LeadFilters{}) {
		if err != nil {
			return nil, err
		}
		stats.Total++
		switch lead.Status {
		case entity.StatusNew:
			stats.New++
		case entity.StatusContacted:
			stats.Contacted++
		case entity.StatusQuoted:
			stats.Quoted++
		case entity.StatusCold:
			stats.Cold++
		}
		if lead.Converted() {
			stats.Converted++
		} else {
			stats.NonConverted++
		}
		stats.BySource[lead.Source]++
		stats.ByRole[lead.Role]++
	}
	return stats, nil
}

func (s *LeadStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		return s.classify("lead.ping", err)
	}
	return nil
}

// classify converts a driver error into a LeadError.
func (s *LeadStore) classify(op string, err error) error {
	var le *entity.LeadError
	switch {
	case errors.As(err, &le):
		return s.fail(le)
	case errors.Is(err, entity.ErrLeadNotFound):
		return s.fail(&entity.LeadError{Kind: entity.KindNotFound, Op: op, Err: err})
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, entity.ErrStoreUnavailable):
		return s.fail(entity.NewTransientError(op, err))
	default:
		return s.fail(entity.NewUnknownError(op, err))
	}
}

func (s *LeadStore) fail(le *entity.LeadError) error {
	metrics.RecordStoreError(le.Op, le.Kind.String())
	return le
}

// CollectLeads drains seq into a slice, stopping at the first error.
func CollectLeads(seq iter.Seq2[*entity.Lead, error]) ([]*entity.Lead, error) {
	leads := make([]*entity.Lead, 0)
	for lead, err := range seq {
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, nil
}
