package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net"
	"strings"

	"github.com/lib/pq"
	"github.com/xavierca1/door-leads/internal/entity"
)

var _ entity.LeadRepository = (*LeadRepository)(nil)

// LeadRepository keeps each lead as a JSONB document. created_at is copied
// out of the document so listing can use an index.
type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Insert(ctx context.Context, lead *entity.Lead) error {
	doc, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("encode lead: %w", err)
	}

	query := `INSERT INTO leads (id, doc, created_at) VALUES ($1, $2, $3)`
	if _, err := r.DB.ExecContext(ctx, query, lead.ID, doc, lead.CreatedAt); err != nil {
		return wrap("insert lead", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	var doc []byte
	err := r.DB.QueryRowContext(ctx, `SELECT doc FROM leads WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, wrap("find lead", err)
	}
	return decode(doc)
}

func (r *LeadRepository) Update(ctx context.Context, lead *entity.Lead) error {
	doc, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("encode lead: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, `UPDATE leads SET doc = $2 WHERE id = $1`, lead.ID, doc)
	if err != nil {
		return wrap("update lead", err)
	}
	return expectOne(res)
}

func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return wrap("delete lead", err)
	}
	return expectOne(res)
}

func (r *LeadRepository) Find(ctx context.Context, filters entity.LeadFilters) iter.Seq2[*entity.Lead, error] {
	return func(yield func(*entity.Lead, error) bool) {
		query, args := buildFindQuery(filters)

		rows, err := r.DB.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, wrap("find leads", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var doc []byte
			if err := rows.Scan(&doc); err != nil {
				yield(nil, wrap("scan lead", err))
				return
			}
			lead, err := decode(doc)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(lead, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, wrap("iterate leads", err))
		}
	}
}

func (r *LeadRepository) Ping(ctx context.Context) error {
	if err := r.DB.PingContext(ctx); err != nil {
		return wrap("ping", err)
	}
	return nil
}

func buildFindQuery(f entity.LeadFilters) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("doc->>'status' = $%d", string(f.Status))
	}
	if f.Source != "" {
		add("doc->>'source' = $%d", string(f.Source))
	}
	if f.Timeline != "" {
		add("doc->>'timeline' = $%d", f.Timeline)
	}
	if f.ShowOnlyNonConverted {
		where = append(where, "NOT COALESCE((doc->>'hasQuote')::boolean, false)")
	}
	if f.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(f.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(doc->>'name' ILIKE $%[1]d OR doc->>'email' ILIKE $%[1]d OR doc->>'phone' ILIKE $%[1]d OR doc->>'phoneE164' ILIKE $%[1]d)", n))
	}

	var sb strings.Builder
	sb.WriteString("SELECT doc FROM leads")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, id ASC")
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func decode(doc []byte) (*entity.Lead, error) {
	var lead entity.Lead
	if err := json.Unmarshal(doc, &lead); err != nil {
		return nil, fmt.Errorf("decode lead: %w", err)
	}
	return &lead, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

// wrap marks connection failures (SQLSTATE class 08, broken driver
// connections, network errors, deadlines) as ErrStoreUnavailable.
func wrap(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "08" || pqErr.Code.Class() == "57"
	}
	var netErr net.Error
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &netErr)
}
