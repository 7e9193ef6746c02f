package ui

// Column describes one grid column.
type Column struct {
	Title      string `json:"title"`
	Field      string `json:"field"`
	DataField  string `json:"dataField,omitempty"`
	Sortable   bool   `json:"sortable,omitempty"`
	Searchable bool   `json:"searchable,omitempty"`
	IsAction   bool   `json:"isAction,omitempty"`
}

// MakeColumn mirrors the grid builder: field is what is rendered and dataField,
// when set, is what sorting and filtering operate on.
func MakeColumn(title, field string, dataField ...string) Column {
	c := Column{Title: title, Field: field}
	if len(dataField) > 0 {
		c.DataField = dataField[0]
	}
	return c
}

func (c Column) WithSortable() Column {
	c.Sortable = true
	return c
}

func (c Column) WithSearchable() Column {
	c.Searchable = true
	return c
}

// ActionColumn is the trailing column holding row buttons.
func ActionColumn(title string) Column {
	return Column{Title: title, Field: "actions", IsAction: true}
}

// FilterKind enumerates supported filter widgets.
type FilterKind string

const (
	FilterInputText      FilterKind = "input_text"
	FilterSelect         FilterKind = "select"
	FilterDatetimePicker FilterKind = "datetimepicker"
)

// Option is one entry of a select filter's datasource.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Filter describes one filter widget.
type Filter struct {
	Column    string     `json:"column"`
	Field     string     `json:"field"`
	Kind      FilterKind `json:"kind"`
	Operators []string   `json:"operators,omitempty"`
	Options   []Option   `json:"options,omitempty"`
}

// Footer carries paging controls.
type Footer struct {
	PerPage         int   `json:"perPage"`
	PerPageValues   []int `json:"perPageValues"`
	ShowRecordCount bool  `json:"showRecordCount"`
}

// Pagination reports where the rendered page sits.
type Pagination struct {
	Page     int `json:"page"`
	PerPage  int `json:"perPage"`
	Total    int `json:"total"`
	LastPage int `json:"lastPage"`
}

// NewPagination computes the last page for total rows.
func NewPagination(page, perPage, total int) Pagination {
	last := 1
	if perPage > 0 && total > 0 {
		last = (total + perPage - 1) / perPage
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, LastPage: last}
}
