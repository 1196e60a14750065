// Package table holds the sort/page/select state shared by every admin list view.
// Transitions are pure: each one returns a new State and never performs I/O.
package table

// SortOrder is the direction of the active sort; SortNone means unsorted.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
	SortNone SortOrder = ""
)

const (
	DefaultPageIndex = 1
	DefaultPageSize  = 10
)

// AllowedPageSizes are the sizes offered by the page-size picker. Transitions accept
// any positive size.
var AllowedPageSizes = []int{5, 10, 20, 50}

// Row is anything a list view can select: it only needs a stable key.
type Row[K comparable] interface {
	Key() K
}

// State is the table state of one mounted list view.
// Invariant: SortOrder == SortNone implies SortBy == "".
type State[K comparable, R Row[K]] struct {
	Selected  []R       `json:"selected_items"`
	SortBy    string    `json:"sort_by"`
	SortOrder SortOrder `json:"sort_order"`
	PageIndex int       `json:"page_index"`
	PageSize  int       `json:"page_size"`
}

// New returns the state a list view starts with.
func New[K comparable, R Row[K]]() State[K, R] {
	return State[K, R]{
		Selected:  []R{},
		PageIndex: DefaultPageIndex,
		PageSize:  DefaultPageSize,
	}
}

// ToggleSelectAll replaces the selection with the rows of the current page, or clears it.
// Selection is page-scoped, so previous selections are never merged in.
func (s State[K, R]) ToggleSelectAll(checked bool, pageRows []R) State[K, R] {
	if checked {
		s.Selected = append([]R(nil), pageRows...)
		if s.Selected == nil {
			s.Selected = []R{}
		}
		return s
	}
	s.Selected = []R{}
	return s
}

// ToggleSelectItem removes the row when a row with the same key is selected, otherwise appends it.
func (s State[K, R]) ToggleSelectItem(row R) State[K, R] {
	selected := make([]R, 0, len(s.Selected)+1)
	found := false
	for _, r := range s.Selected {
		if r.Key() == row.Key() {
			found = true
			continue
		}
		selected = append(selected, r)
	}
	if !found {
		selected = append(selected, row)
	}
	s.Selected = selected
	return s
}

// IsSelected reports whether a row with the given key is selected.
func (s State[K, R]) IsSelected(key K) bool {
	for _, r := range s.Selected {
		if r.Key() == key {
			return true
		}
	}
	return false
}

// AllSelected reports whether every row of the page is selected (drives the header checkbox).
func (s State[K, R]) AllSelected(pageRows []R) bool {
	if len(pageRows) == 0 {
		return false
	}
	for _, r := range pageRows {
		if !s.IsSelected(r.Key()) {
			return false
		}
	}
	return true
}

// Sort cycles the clicked column asc -> desc -> none. Clicking any other column
// starts it at asc.
func (s State[K, R]) Sort(columnKey string) State[K, R] {
	if columnKey == "" {
		return s
	}
	if s.SortBy != columnKey {
		s.SortBy = columnKey
		s.SortOrder = SortAsc
		return s
	}
	switch s.SortOrder {
	case SortAsc:
		s.SortOrder = SortDesc
	case SortDesc:
		s.SortBy = ""
		s.SortOrder = SortNone
	default:
		s.SortOrder = SortAsc
	}
	return s
}

// ChangePage sets the page unconditionally; prev/next controls enforce bounds.
func (s State[K, R]) ChangePage(pageIndex int) State[K, R] {
	s.PageIndex = pageIndex
	return s
}

// ChangePageSize sets the page size and always returns to the first page.
func (s State[K, R]) ChangePageSize(pageSize int) State[K, R] {
	s.PageSize = pageSize
	s.PageIndex = DefaultPageIndex
	return s
}

// TotalPages is max(1, ceil(totalCount / pageSize)).
func TotalPages(totalCount int64, pageSize int) int {
	if pageSize <= 0 || totalCount <= 0 {
		return 1
	}
	pages := (totalCount + int64(pageSize) - 1) / int64(pageSize)
	if pages < 1 {
		return 1
	}
	return int(pages)
}

// HasPrevious reports whether the previous-page control is enabled.
func (s State[K, R]) HasPrevious() bool {
	return s.PageIndex > 1
}

// HasNext reports whether the next-page control is enabled for the given total.
func (s State[K, R]) HasNext(totalCount int64) bool {
	return s.PageIndex < TotalPages(totalCount, s.PageSize)
}

// ShowEmptyState reports whether a list view must render its empty placeholder instead
// of an empty grid. Pending fetches keep rendering the loading skeleton.
func ShowEmptyState(rowCount int, pending bool) bool {
	return rowCount == 0 && !pending
}
