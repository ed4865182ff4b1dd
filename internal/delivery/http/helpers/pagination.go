package helpers

import (
	"net/http"
	"strconv"

	"eventx/internal/domain"
)

// ParsePagination reads page and limit from the query string. Values that
// are missing or not integers use the defaults; the rest are clamped.
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	return domain.NewPaginationParams(queryInt(q.Get("page")), queryInt(q.Get("limit")))
}

func queryInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

// PaginationMeta accompanies a page of event bookings.
type PaginationMeta struct {
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
	Total       int `json:"total"`
	TotalPages  int `json:"totalPages"`
}

func NewPaginationMeta(params domain.PaginationParams, total int) PaginationMeta {
	return PaginationMeta{
		CurrentPage: params.Page,
		Limit:       params.PageSize,
		Total:       total,
		TotalPages:  params.TotalPages(total),
	}
}
