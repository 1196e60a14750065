package dto

import (
	"errors"
	"fmt"
	"strings"

	"schooladmin/internal/table"
)

const MaxPageSize = 100

var ErrInvalidListQuery = errors.New("invalid list query")

// ListQueryParams binds the query string of a paginated list endpoint.
type ListQueryParams struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Search    string `form:"q"`
}

// ToListQuery applies defaults and rejects impossible values. A sort order
// without a column, or a column without an order, is an error.
func (p ListQueryParams) ToListQuery() (table.ListQuery, error) {
	q := table.ListQuery{
		Page:     p.Page,
		PageSize: p.PageSize,
		SortBy:   strings.TrimSpace(p.SortBy),
		Search:   strings.TrimSpace(p.Search),
	}
	if q.Page == 0 {
		q.Page = table.DefaultPageIndex
	}
	if q.PageSize == 0 {
		q.PageSize = table.DefaultPageSize
	}
	if q.Page < 1 {
		return table.ListQuery{}, fmt.Errorf("%w: page must be at least 1", ErrInvalidListQuery)
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		return table.ListQuery{}, fmt.Errorf("%w: page_size must be between 1 and %d", ErrInvalidListQuery, MaxPageSize)
	}

	switch order := table.SortOrder(strings.ToLower(strings.TrimSpace(p.SortOrder))); order {
	case table.SortAsc, table.SortDesc:
		if q.SortBy == "" {
			return table.ListQuery{}, fmt.Errorf("%w: sort_order requires sort_by", ErrInvalidListQuery)
		}
		q.SortOrder = order
	case table.SortNone:
		if q.SortBy != "" {
			return table.ListQuery{}, fmt.Errorf("%w: sort_by requires sort_order", ErrInvalidListQuery)
		}
	default:
		return table.ListQuery{}, fmt.Errorf("%w: sort_order must be asc or desc", ErrInvalidListQuery)
	}
	return q, nil
}

type PaginationMeta struct {
	Page        int   `json:"page"`
	PageSize    int   `json:"page_size"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

func NewPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	totalPages := table.TotalPages(total, pageSize)
	return PaginationMeta{
		Page:        page,
		PageSize:    pageSize,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}
