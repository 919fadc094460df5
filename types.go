package dynform

import (
	"time"

	"github.com/google/uuid"
)

// Submission is one stored set of form values.
type Submission struct {
	ID        uuid.UUID  `json:"id"`
	Data      ValueSet   `json:"data"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// SortOrder defines sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// Built-in sort keys. Any other key names a data field.
const (
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
	SortByID        = "id"
)

// QueryRequest describes a page of submissions.
type QueryRequest struct {
	Page      int       `json:"page"`
	Limit     int       `json:"limit"`
	SortBy    string    `json:"sortBy,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
	Search    string    `json:"search,omitempty"`
}

// Pagination mirrors the paging block of the listing response.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination derives the page counters from a total.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// QueryResult represents paginated query results.
type QueryResult struct {
	Data          []*Submission `json:"data"`
	Pagination    Pagination    `json:"pagination"`
	ExecutionTime time.Duration `json:"-"`
}
