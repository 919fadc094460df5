package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type submissionPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSubmissionRepository stores submissions as jsonb rows.
type PostgresSubmissionRepository struct {
	pool  submissionPool
	table string
}

// NewPostgresSubmissionRepository uses table through pool. The pool is owned
// by the caller.
func NewPostgresSubmissionRepository(pool submissionPool, table string) (*PostgresSubmissionRepository, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if table == "" {
		return nil, fmt.Errorf("submissions table name cannot be empty")
	}
	return &PostgresSubmissionRepository{pool: pool, table: table}, nil
}

// SubmissionTableDDL returns the statements that create table and its indexes.
func SubmissionTableDDL(table string) []string {
	t := sanitizeIdentifier(table)
	base := strings.Trim(strings.ReplaceAll(table, ".", "_"), `"`)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	data JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NULL
)`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at, id)`, sanitizeIdentifier(base+"_created_at_idx"), t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (data jsonb_path_ops)`, sanitizeIdentifier(base+"_data_idx"), t),
	}
}

// EnsureTable creates the submissions table when missing.
func (r *PostgresSubmissionRepository) EnsureTable(ctx context.Context) error {
	for _, stmt := range SubmissionTableDDL(r.table) {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return dynform.NewStorageError("failed to create submissions table", err)
		}
	}
	return nil
}

func buildInsertSubmissionStatement(table string, s *dynform.Submission) (string, []any, error) {
	data, err := json.Marshal(s.Data)
	if err != nil {
		return "", nil, fmt.Errorf("encode submission data: %w", err)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (id, data, created_at, updated_at) VALUES ($1, $2, $3, $4)",
		sanitizeIdentifier(table),
	)
	return query, []any{s.ID, string(data), s.CreatedAt, s.UpdatedAt}, nil
}

func (r *PostgresSubmissionRepository) Insert(ctx context.Context, s *dynform.Submission) error {
	if s == nil {
		return fmt.Errorf("submission cannot be nil")
	}
	query, args, err := buildInsertSubmissionStatement(r.table, s)
	if err != nil {
		return dynform.NewInternalError("failed to encode submission", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return dynform.NewStorageError("failed to insert submission", err)
	}
	return nil
}

func (r *PostgresSubmissionRepository) selectColumns() string {
	return fmt.Sprintf("SELECT id, data, created_at, updated_at FROM %s", sanitizeIdentifier(r.table))
}

func scanSubmission(row pgx.Row) (*dynform.Submission, error) {
	var (
		s         dynform.Submission
		raw       []byte
		updatedAt *time.Time
	)
	if err := row.Scan(&s.ID, &raw, &s.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.Data); err != nil {
		return nil, fmt.Errorf("decode submission data: %w", err)
	}
	s.UpdatedAt = updatedAt
	return &s, nil
}

func (r *PostgresSubmissionRepository) Get(ctx context.Context, id uuid.UUID) (*dynform.Submission, error) {
	query := r.selectColumns() + " WHERE id = $1"
	s, err := scanSubmission(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dynform.NewSubmissionNotFoundError(id.String())
	}
	if err != nil {
		return nil, dynform.NewStorageError("failed to load submission", err)
	}
	return s, nil
}

func (r *PostgresSubmissionRepository) Update(ctx context.Context, s *dynform.Submission) error {
	if s == nil {
		return fmt.Errorf("submission cannot be nil")
	}
	data, err := json.Marshal(s.Data)
	if err != nil {
		return dynform.NewInternalError("failed to encode submission", err)
	}
	query := fmt.Sprintf("UPDATE %s SET data = $2, updated_at = $3 WHERE id = $1", sanitizeIdentifier(r.table))
	tag, err := r.pool.Exec(ctx, query, s.ID, string(data), s.UpdatedAt)
	if err != nil {
		return dynform.NewStorageError("failed to update submission", err)
	}
	if tag.RowsAffected() == 0 {
		return dynform.NewSubmissionNotFoundError(s.ID.String())
	}
	return nil
}

func (r *PostgresSubmissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", sanitizeIdentifier(r.table))
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return dynform.NewStorageError("failed to delete submission", err)
	}
	if tag.RowsAffected() == 0 {
		return dynform.NewSubmissionNotFoundError(id.String())
	}
	return nil
}

// searchCondition matches string values and string list elements of data.
const searchCondition = `EXISTS (
	SELECT 1 FROM jsonb_each(data) AS e(key, value)
	WHERE (jsonb_typeof(e.value) = 'string' AND e.value #>> '{}' ILIKE $1)
	   OR (jsonb_typeof(e.value) = 'array' AND EXISTS (
			SELECT 1 FROM jsonb_array_elements(e.value) AS x(elem)
			WHERE jsonb_typeof(x.elem) = 'string' AND x.elem #>> '{}' ILIKE $1))
)`

func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

// buildListQueries renders the count and page queries for opts. Both share
// the leading arguments; the page query appends its own.
func buildListQueries(table string, opts *dynform.ListOptions) (countSQL, listSQL string, countArgs, listArgs []any) {
	t := sanitizeIdentifier(table)
	where := ""
	if opts.Search != "" {
		where = " WHERE " + searchCondition
		countArgs = append(countArgs, "%"+escapeLike(opts.Search)+"%")
	}
	countSQL = fmt.Sprintf("SELECT COUNT(*) FROM %s%s", t, where)

	listArgs = append(listArgs, countArgs...)
	dir, nulls := "DESC", "NULLS LAST"
	if opts.SortOrder == dynform.SortOrderAsc {
		dir, nulls = "ASC", "NULLS FIRST"
	}
	var orderBy string
	switch opts.SortBy {
	case "", dynform.SortByCreatedAt:
		orderBy = fmt.Sprintf("created_at %s, id %s", dir, dir)
	case dynform.SortByUpdatedAt:
		orderBy = fmt.Sprintf("updated_at %s %s, id %s", dir, nulls, dir)
	case dynform.SortByID:
		orderBy = fmt.Sprintf("id %s", dir)
	default:
		listArgs = append(listArgs, opts.SortBy)
		orderBy = fmt.Sprintf("data -> $%d::text %s %s, id %s", len(listArgs), dir, nulls, dir)
	}
	listSQL = fmt.Sprintf("SELECT id, data, created_at, updated_at FROM %s%s ORDER BY %s", t, where, orderBy)
	if opts.Limit > 0 {
		listArgs = append(listArgs, opts.Limit)
		listSQL += fmt.Sprintf(" LIMIT $%d", len(listArgs))
	}
	if opts.Offset > 0 {
		listArgs = append(listArgs, opts.Offset)
		listSQL += fmt.Sprintf(" OFFSET $%d", len(listArgs))
	}
	return countSQL, listSQL, countArgs, listArgs
}

func (r *PostgresSubmissionRepository) List(ctx context.Context, opts *dynform.ListOptions) ([]*dynform.Submission, int, error) {
	if opts == nil {
		opts = &dynform.ListOptions{}
	}
	countSQL, listSQL, countArgs, listArgs := buildListQueries(r.table, opts)

	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, dynform.NewStorageError("failed to count submissions", err)
	}

	rows, err := r.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, dynform.NewStorageError("failed to list submissions", err)
	}
	defer rows.Close()

	subs := make([]*dynform.Submission, 0)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, dynform.NewStorageError("failed to scan submission", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dynform.NewStorageError("failed to iterate submissions", err)
	}
	zap.S().Debugw("listed submissions", "table", r.table, "returned", len(subs), "total", total)
	return subs, int(total), nil
}
