package table

// Event is a UI intent a list view feeds into Dispatch.
type Event interface {
	isEvent()
}

// SortEvent is a click on a column header.
type SortEvent struct {
	Column string
}

// ChangePageEvent jumps to a 1-based page.
type ChangePageEvent struct {
	PageIndex int
}

// ChangePageSizeEvent picks a new page size and returns to the first page.
type ChangePageSizeEvent struct {
	PageSize int
}

// ToggleSelectAllEvent is the header checkbox; PageRows are the rows on screen.
type ToggleSelectAllEvent[R any] struct {
	Checked  bool
	PageRows []R
}

// ToggleSelectItemEvent is a row checkbox.
type ToggleSelectItemEvent[R any] struct {
	Row R
}

func (SortEvent) isEvent()                {}
func (ChangePageEvent) isEvent()          {}
func (ChangePageSizeEvent) isEvent()      {}
func (ToggleSelectAllEvent[R]) isEvent()  {}
func (ToggleSelectItemEvent[R]) isEvent() {}

// Dispatch applies one event. Events carrying a different row type are ignored.
func (s State[K, R]) Dispatch(event Event) State[K, R] {
	switch e := event.(type) {
	case SortEvent:
		return s.Sort(e.Column)
	case ChangePageEvent:
		return s.ChangePage(e.PageIndex)
	case ChangePageSizeEvent:
		return s.ChangePageSize(e.PageSize)
	case ToggleSelectAllEvent[R]:
		return s.ToggleSelectAll(e.Checked, e.PageRows)
	case ToggleSelectItemEvent[R]:
		return s.ToggleSelectItem(e.Row)
	}
	return s
}

// Column describes one table column. Render is optional; views fall back to the raw field.
type Column[R any] struct {
	Key      string
	Title    string
	Sortable bool
	Render   func(row R) string
}

// Controller owns the state of a single list view and exposes {State, Dispatch}.
type Controller[K comparable, R Row[K]] struct {
	state   State[K, R]
	columns []Column[R]
}

// NewController starts from the default state. When columns are given, sort clicks on
// unknown or non-sortable columns are ignored.
func NewController[K comparable, R Row[K]](columns ...Column[R]) *Controller[K, R] {
	return &Controller[K, R]{
		state:   New[K, R](),
		columns: columns,
	}
}

func (c *Controller[K, R]) State() State[K, R] {
	return c.state
}

func (c *Controller[K, R]) Columns() []Column[R] {
	return c.columns
}

func (c *Controller[K, R]) Dispatch(event Event) State[K, R] {
	if e, ok := event.(SortEvent); ok && !c.sortable(e.Column) {
		return c.state
	}
	c.state = c.state.Dispatch(event)
	return c.state
}

func (c *Controller[K, R]) sortable(key string) bool {
	if len(c.columns) == 0 {
		return true
	}
	for _, col := range c.columns {
		if col.Key == key {
			return col.Sortable
		}
	}
	return false
}
