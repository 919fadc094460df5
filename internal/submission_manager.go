package internal

import (
	"context"
	"fmt"
	"io"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type submissionManager struct {
	provider   dynform.SchemaProvider
	repository dynform.SubmissionRepository
	config     *dynform.Config
	validator  *dynform.Validator
	nowFunc    func() time.Time
	newID      func() uuid.UUID
}

// NewSubmissionManager creates a SubmissionManager that validates against the
// provider's schema before touching the repository.
func NewSubmissionManager(
	provider dynform.SchemaProvider,
	repository dynform.SubmissionRepository,
	config *dynform.Config,
) dynform.SubmissionManager {
	if config == nil {
		config = dynform.DefaultConfig()
	}
	loc, err := config.Form.Location()
	if err != nil {
		zap.S().Warnw("invalid form time zone, using local time", "timeZone", config.Form.TimeZone, "error", err)
		loc = time.Local
	}
	m := &submissionManager{
		provider:   provider,
		repository: repository,
		config:     config,
		nowFunc:    time.Now,
		newID:      func() uuid.UUID { return uuid.Must(uuid.NewV7()) },
	}
	m.validator = dynform.NewValidator(
		dynform.WithClock(func() time.Time { return m.now() }),
		dynform.WithLocation(loc),
	)
	return m
}

func (m *submissionManager) withClock(now func() time.Time) {
	if now == nil {
		return
	}
	m.nowFunc = now
}

func (m *submissionManager) now() time.Time {
	if m.nowFunc == nil {
		return time.Now()
	}
	return m.nowFunc()
}

func (m *submissionManager) Schema() *dynform.Schema {
	return m.provider.Schema()
}

func (m *submissionManager) Validate(_ context.Context, values dynform.ValueSet) dynform.ValidationResult {
	return m.validator.Validate(m.Schema(), values)
}

func (m *submissionManager) Create(ctx context.Context, values dynform.ValueSet) (*dynform.Submission, error) {
	if result := m.Validate(ctx, values); !result.Valid() {
		return nil, dynform.NewValidationFailedError(result)
	}
	s := &dynform.Submission{
		ID:        m.newID(),
		Data:      values.Clone(),
		CreatedAt: m.now().UTC(),
	}
	if err := m.repository.Insert(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}
	zap.S().Infow("submission created", "id", s.ID)
	return s, nil
}

func (m *submissionManager) Get(ctx context.Context, id uuid.UUID) (*dynform.Submission, error) {
	return m.repository.Get(ctx, id)
}

func (m *submissionManager) Update(ctx context.Context, id uuid.UUID, values dynform.ValueSet) (*dynform.Submission, error) {
	if result := m.Validate(ctx, values); !result.Valid() {
		return nil, dynform.NewValidationFailedError(result)
	}
	existing, err := m.repository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updatedAt := m.now().UTC()
	updated := &dynform.Submission{
		ID:        existing.ID,
		Data:      values.Clone(),
		CreatedAt: existing.CreatedAt,
		UpdatedAt: &updatedAt,
	}
	if err := m.repository.Update(ctx, updated); err != nil {
		return nil, err
	}
	zap.S().Infow("submission updated", "id", id)
	return updated, nil
}

func (m *submissionManager) Delete(ctx context.Context, id uuid.UUID) error {
	if err := m.repository.Delete(ctx, id); err != nil {
		return err
	}
	zap.S().Infow("submission deleted", "id", id)
	return nil
}

// listOptions normalises req: page is at least 1, limit falls back to the
// default and is capped at the maximum, and any order other than asc is desc.
func (m *submissionManager) listOptions(req *dynform.QueryRequest, paged bool) (*dynform.ListOptions, int, int, error) {
	if req == nil {
		req = &dynform.QueryRequest{}
	}
	sortBy := req.SortBy
	switch sortBy {
	case "":
		sortBy = dynform.SortByCreatedAt
	case dynform.SortByCreatedAt, dynform.SortByUpdatedAt, dynform.SortByID:
	default:
		if _, ok := m.Schema().Field(sortBy); !ok {
			return nil, 0, 0, dynform.NewInvalidQueryError("sortBy", fmt.Sprintf("cannot sort by %q", sortBy))
		}
	}
	order := dynform.SortOrderDesc
	if req.SortOrder == dynform.SortOrderAsc {
		order = dynform.SortOrderAsc
	}
	opts := &dynform.ListOptions{Search: req.Search, SortBy: sortBy, SortOrder: order}
	if !paged {
		return opts, 0, 0, nil
	}

	page := max(req.Page, 1)
	limit := req.Limit
	if limit <= 0 {
		limit = m.config.Query.DefaultPageSize
	}
	limit = min(limit, m.config.Query.MaxPageSize)
	opts.Offset = (page - 1) * limit
	opts.Limit = limit
	return opts, page, limit, nil
}

func (m *submissionManager) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config.Query.DefaultTimeout > 0 {
		return context.WithTimeout(ctx, m.config.Query.DefaultTimeout)
	}
	return context.WithCancel(ctx)
}

func (m *submissionManager) Query(ctx context.Context, req *dynform.QueryRequest) (*dynform.QueryResult, error) {
	start := time.Now()
	opts, page, limit, err := m.listOptions(req, true)
	if err != nil {
		return nil, err
	}
	ctx, cancel := m.queryContext(ctx)
	defer cancel()

	subs, total, err := m.repository.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	result := &dynform.QueryResult{
		Data:          subs,
		Pagination:    dynform.NewPagination(page, limit, total),
		ExecutionTime: time.Since(start),
	}
	zap.S().Debugw("query executed", "page", page, "limit", limit, "total", total, "duration", result.ExecutionTime)
	return result, nil
}

func (m *submissionManager) Export(ctx context.Context, w io.Writer, req *dynform.QueryRequest) error {
	opts, _, _, err := m.listOptions(req, false)
	if err != nil {
		return err
	}
	ctx, cancel := m.queryContext(ctx)
	defer cancel()

	subs, _, err := m.repository.List(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list submissions: %w", err)
	}
	if err := WriteSubmissionsCSV(w, m.Schema(), subs); err != nil {
		return dynform.NewFormError(dynform.ErrorTypeInternal, dynform.ErrCodeExportFailure, "failed to write export").WithCause(err)
	}
	zap.S().Infow("submissions exported", "count", len(subs))
	return nil
}
