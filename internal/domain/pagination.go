package domain

// Event booking lists are served ten rows a page, newest first.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaginationParams selects one page of an event's bookings.
type PaginationParams struct {
	Page     int
	PageSize int
}

// NewPaginationParams clamps page to at least 1 and size to 1..MaxPageSize.
// A size below 1 falls back to DefaultPageSize.
func NewPaginationParams(page, size int) PaginationParams {
	if page < 1 {
		page = 1
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return PaginationParams{Page: page, PageSize: size}
}

func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns how many pages hold total bookings.
func (p PaginationParams) TotalPages(total int) int {
	if p.PageSize < 1 {
		return 0
	}
	return (total + p.PageSize - 1) / p.PageSize
}
