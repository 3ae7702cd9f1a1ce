package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/folio-labs/portfolio-api/internal/contact"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS contact_submissions (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	message    TEXT NOT NULL,
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS contact_submissions_created_at_idx ON contact_submissions (created_at DESC);
CREATE INDEX IF NOT EXISTS contact_submissions_is_read_idx ON contact_submissions (is_read, created_at DESC);
`

const pgColumns = `id, name, email, message, ip_address, user_agent, is_read, created_at`

var pgFieldColumns = map[string]string{
	FieldIsRead: "is_read",
	"createdAt": "created_at",
}

// PgRepo is the PostgreSQL implementation of Store.
type PgRepo struct {
	pool *pgxpool.Pool
}

var _ Store = (*PgRepo)(nil)

func NewPgRepo(pool *pgxpool.Pool) *PgRepo {
	return &PgRepo{pool: pool}
}

// EnsureSchema creates the table and indexes when missing.
func (r *PgRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("ensure contact schema: %w", err)
	}
	return nil
}

func (r *PgRepo) Insert(ctx context.Context, s *contact.Submission) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO contact_submissions (`+pgColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, s.Name, s.Email, s.Message, s.IPAddress, s.UserAgent, s.IsRead, s.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert contact: %w", err)
	}
	return id, nil
}

// pgWhere renders the filter as a WHERE clause starting at placeholder $1.
func pgWhere(f contact.ListFilter) (string, []any) {
	var conditions []string
	var args []any
	if f.IsRead != nil {
		args = append(args, *f.IsRead)
		conditions = append(conditions, "is_read = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func pgListQuery(f contact.ListFilter, order Sort, skip, limit int) (string, []any, error) {
	if err := checkSort(order); err != nil {
		return "", nil, err
	}
	where, args := pgWhere(f)
	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}
	q := `SELECT ` + pgColumns + ` FROM contact_submissions` + where +
		` ORDER BY created_at ` + dir + `, id ` + dir
	if limit > 0 {
		args = append(args, limit)
		q += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if skip > 0 {
		args = append(args, skip)
		q += ` OFFSET $` + strconv.Itoa(len(args))
	}
	return q, args, nil
}

func scanSubmission(row pgx.Row) (*contact.Submission, error) {
	var s contact.Submission
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Message, &s.IPAddress, &s.UserAgent, &s.IsRead, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PgRepo) Query(ctx context.Context, f contact.ListFilter, order Sort, skip, limit int) ([]*contact.Submission, error) {
	q, args, err := pgListQuery(f, order, skip, limit)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	out := []*contact.Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PgRepo) Count(ctx context.Context, f contact.ListFilter) (int64, error) {
	where, args := pgWhere(f)
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contact_submissions`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

func (r *PgRepo) UpdateField(ctx context.Context, id, field string, value any) (*contact.Submission, error) {
	if err := checkUpdate(field, value); err != nil {
		return nil, err
	}
	col := pgFieldColumns[field]
	row := r.pool.QueryRow(ctx,
		`UPDATE contact_submissions SET `+col+` = $1 WHERE id = $2 RETURNING `+pgColumns,
		value, id,
	)
	s, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update contact %s: %w", id, err)
	}
	return s, nil
}
