package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testColumns() []Column[testRow] {
	return []Column[testRow]{
		{Key: "id", Title: "ID", Sortable: true},
		{Key: "name", Title: "Name", Sortable: true, Render: func(r testRow) string { return r.Name }},
		{Key: "actions", Title: "Actions"},
	}
}

func TestDispatch_AllEvents(t *testing.T) {
	rows := pageRows()
	s := New[uint64, testRow]()

	s = s.Dispatch(SortEvent{Column: "name"})
	assert.Equal(t, SortAsc, s.SortOrder)

	s = s.Dispatch(ChangePageEvent{PageIndex: 4})
	assert.Equal(t, 4, s.PageIndex)

	s = s.Dispatch(ChangePageSizeEvent{PageSize: 50})
	assert.Equal(t, 1, s.PageIndex)
	assert.Equal(t, 50, s.PageSize)

	s = s.Dispatch(ToggleSelectAllEvent[testRow]{Checked: true, PageRows: rows})
	assert.Len(t, s.Selected, 3)

	s = s.Dispatch(ToggleSelectItemEvent[testRow]{Row: rows[1]})
	assert.Equal(t, []uint64{1, 3}, keys(s.Selected))
}

type otherRow struct{ id string }

func (r otherRow) Key() string { return r.id }

func TestDispatch_ForeignRowTypeIgnored(t *testing.T) {
	s := New[uint64, testRow]()
	s = s.Dispatch(ToggleSelectItemEvent[otherRow]{Row: otherRow{id: "x"}})
	assert.Empty(t, s.Selected)
}

func TestController_SortableColumnsOnly(t *testing.T) {
	c := NewController[uint64, testRow](testColumns()...)

	c.Dispatch(SortEvent{Column: "actions"})
	assert.Equal(t, "", c.State().SortBy)

	c.Dispatch(SortEvent{Column: "unknown"})
	assert.Equal(t, "", c.State().SortBy)

	st := c.Dispatch(SortEvent{Column: "name"})
	assert.Equal(t, "name", st.SortBy)
	assert.Equal(t, st, c.State())
	assert.Len(t, c.Columns(), 3)
}

func TestController_WithoutColumnsAcceptsAnySort(t *testing.T) {
	c := NewController[uint64, testRow]()

	c.Dispatch(SortEvent{Column: "anything"})
	assert.Equal(t, "anything", c.State().SortBy)
}

func TestController_Sequence(t *testing.T) {
	c := NewController[uint64, testRow](testColumns()...)

	c.Dispatch(ChangePageEvent{PageIndex: 2})
	c.Dispatch(SortEvent{Column: "id"})
	c.Dispatch(SortEvent{Column: "id"})
	c.Dispatch(ChangePageSizeEvent{PageSize: 5})

	q := c.State().Query("")
	assert.Equal(t, ListQuery{Page: 1, PageSize: 5, SortBy: "id", SortOrder: SortDesc}, q)
}

func TestPage_TotalPages(t *testing.T) {
	p := Page[testRow]{Rows: pageRows(), TotalCount: 25}
	assert.Equal(t, 3, p.TotalPages(10))
}
