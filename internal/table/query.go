package table

// ListQuery is the request shape of a paginated list endpoint.
type ListQuery struct {
	Page      int       `json:"page"`
	PageSize  int       `json:"page_size"`
	SortBy    string    `json:"sort_by,omitempty"`
	SortOrder SortOrder `json:"sort_order,omitempty"`
	Search    string    `json:"search,omitempty"`
}

// Page is the response shape of a paginated list endpoint.
type Page[R any] struct {
	Rows       []R   `json:"rows"`
	TotalCount int64 `json:"total_count"`
}

// Query builds the list request for the current state.
func (s State[K, R]) Query(search string) ListQuery {
	return ListQuery{
		Page:      s.PageIndex,
		PageSize:  s.PageSize,
		SortBy:    s.SortBy,
		SortOrder: s.SortOrder,
		Search:    search,
	}
}

// Offset is the number of rows skipped before the requested page.
func (q ListQuery) Offset() int {
	if q.Page < 1 || q.PageSize < 1 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// Sorted reports whether the query asks for an explicit order.
func (q ListQuery) Sorted() bool {
	return q.SortBy != "" && q.SortOrder != SortNone
}

func (p Page[R]) TotalPages(pageSize int) int {
	return TotalPages(p.TotalCount, pageSize)
}
