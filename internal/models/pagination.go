package models

// PaginatedResult is the envelope returned by every list operation.
type PaginatedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

const (
	// DefaultPageLimit is applied when the client does not supply a limit.
	DefaultPageLimit = 20
	// MaxPageLimit caps the page size a client may request.
	MaxPageLimit = 100
)

// PageQuery holds normalized pagination and sorting parameters.
type PageQuery struct {
	Page  int
	Limit int
	// Sort is a "field:direction" pair; empty means created_at descending.
	Sort string
}

// Normalize clamps page and limit to sane bounds.
func (q *PageQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
}

// Offset returns the row offset for the current page.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// NewPaginatedResult assembles the list envelope, computing TotalPages as
// ceil(total/limit).
func NewPaginatedResult[T any](items []T, total int64, q PageQuery) PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return PaginatedResult[T]{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}
}
