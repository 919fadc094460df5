package dynform

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// SubmissionManager is the authoritative gate in front of the submission store:
// values are validated against the form schema before anything is persisted.
type SubmissionManager interface {
	Schema() *Schema

	// Validate runs the engine without storing anything.
	Validate(ctx context.Context, values ValueSet) ValidationResult

	Create(ctx context.Context, values ValueSet) (*Submission, error)
	Get(ctx context.Context, id uuid.UUID) (*Submission, error)
	Update(ctx context.Context, id uuid.UUID, values ValueSet) (*Submission, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Query(ctx context.Context, req *QueryRequest) (*QueryResult, error)
	// Export writes every submission matching req as CSV, ignoring paging.
	Export(ctx context.Context, w io.Writer, req *QueryRequest) error
}

// ListOptions is a normalised listing request handed to a repository. A zero
// Limit means no paging.
type ListOptions struct {
	Search    string
	SortBy    string
	SortOrder SortOrder
	Offset    int
	Limit     int
}

// SubmissionRepository persists submissions. Get, Update and Delete report a
// missing id with a not found FormError.
type SubmissionRepository interface {
	Insert(ctx context.Context, s *Submission) error
	Get(ctx context.Context, id uuid.UUID) (*Submission, error)
	Update(ctx context.Context, s *Submission) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns the requested window of matching submissions and the
	// total number of matches.
	List(ctx context.Context, opts *ListOptions) ([]*Submission, int, error)
}
