package product

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strconv"
	"time"

	"github.com/rpattn/adminpanel/internal/auth"
	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/events"
	"github.com/rpattn/adminpanel/internal/export"
	"github.com/rpattn/adminpanel/internal/i18n"
	"github.com/rpattn/adminpanel/internal/metrics"
	"github.com/rpattn/adminpanel/internal/repository"
	"github.com/rpattn/adminpanel/internal/ui"
	"github.com/rpattn/adminpanel/pkg/logger"
)

var (
	ErrInvalidPerPage = errors.New("unsupported page size")
	ErrInvalidFilter  = errors.New("invalid filter")
)

// Exporter submits export jobs.
type Exporter interface {
	RunExportJob(ctx context.Context, req export.Request) (export.Result, error)
}

// Settings are the grid-wide presentation constants.
type Settings struct {
	PerPage             int
	PerPageValues       []int
	DatetimeFormat      string
	CaseSensitiveSearch bool
	Statuses            domain.StatusCatalog
}

func (s Settings) withDefaults() Settings {
	if s.PerPage <= 0 {
		s.PerPage = 10
	}
	if len(s.PerPageValues) == 0 {
		s.PerPageValues = []int{10, 25, 50, 100}
	}
	if s.DatetimeFormat == "" {
		s.DatetimeFormat = "02-01-2006 15:04:05"
	}
	if len(s.Statuses) == 0 {
		s.Statuses = domain.DefaultStatusCatalog()
	}
	return s
}

// Deps are the collaborators shared by the listing components of one page.
type Deps struct {
	Products repository.ProductRepository
	Gate     auth.Gate
	Exporter Exporter
	Bus      *events.Bus
	Effects  *ui.Effects
	Log      logger.Logger
	Metrics  *metrics.Metrics
}

// Table is the server side state of one user's product grid. It is not safe
// for concurrent use; the session layer serializes interactions.
type Table struct {
	products repository.ProductRepository
	gate     auth.Gate
	exporter Exporter
	bus      *events.Bus
	effects  *ui.Effects
	log      logger.Logger
	metrics  *metrics.Metrics
	settings Settings

	tableName string
	sort      domain.ProductSort
	filter    domain.ProductFilter
	search    string
	page      int
	perPage   int
	total     int
	selection Selection

	detach []func()
}

// NewTable builds the grid for the principal on ctx, who must hold view-product.
func NewTable(ctx context.Context, deps Deps, settings Settings) (*Table, error) {
	if err := auth.Authorize(ctx, deps.Gate, CapView); err != nil {
		return nil, err
	}
	if deps.Bus == nil {
		deps.Bus = events.NewBus()
	}
	if deps.Effects == nil {
		deps.Effects = &ui.Effects{}
	}
	if deps.Log == nil {
		deps.Log = logger.FromContext(ctx)
	}
	settings = settings.withDefaults()
	t := &Table{
		products:  deps.Products,
		gate:      deps.Gate,
		exporter:  deps.Exporter,
		bus:       deps.Bus,
		effects:   deps.Effects,
		log:       deps.Log.With("component", TableComponent),
		metrics:   deps.Metrics,
		settings:  settings,
		tableName: i18n.T(i18n.FromContext(ctx), i18n.ProductTableName),
		sort:      domain.DefaultProductSort(),
		page:      1,
		perPage:   settings.PerPage,
	}
	t.detach = append(t.detach,
		deps.Bus.Listen(TableComponent, EventEdit, func(ctx context.Context, evt events.Event) error {
			id, err := payloadID(evt.Payload)
			if err != nil {
				return err
			}
			return t.Edit(ctx, id)
		}),
		deps.Bus.Listen(TableComponent, EventDeselectCheckBox, func(context.Context, events.Event) error {
			t.DeselectAll()
			return nil
		}),
		deps.Bus.Listen(TableComponent, EventRefresh, func(ctx context.Context, _ events.Event) error {
			return t.refresh(ctx)
		}),
	)
	return t, nil
}

// Close removes the table's bus listeners.
func (t *Table) Close() {
	for _, fn := range t.detach {
		fn()
	}
	t.detach = nil
}

func (t *Table) TableName() string            { return t.tableName }
func (t *Table) Sort() domain.ProductSort     { return t.sort }
func (t *Table) Filter() domain.ProductFilter { return t.filter }
func (t *Table) Search() string               { return t.search }
func (t *Table) Page() int                    { return t.page }
func (t *Table) PerPage() int                 { return t.perPage }
func (t *Table) Total() int                   { return t.total }
func (t *Table) Selected() []int64            { return t.selection.IDs() }

// SortBy orders the grid. An empty direction on the current field flips it.
func (t *Table) SortBy(field, direction string) {
	if direction == "" && domain.ParseProductSort(field, "asc").Field == t.sort.Field {
		next := domain.SortDirectionAsc
		if t.sort.Direction == domain.SortDirectionAsc {
			next = domain.SortDirectionDesc
		}
		t.sort.Direction = next
		return
	}
	if direction == "" {
		direction = string(domain.SortDirectionAsc)
	}
	t.sort = domain.ParseProductSort(field, direction)
}

// SetFilter replaces the filter widgets and returns to the first page.
func (t *Table) SetFilter(f domain.ProductFilter) error {
	if f.Status != "" && !t.settings.Statuses.Has(f.Status) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return fmt.Errorf("%w: created range is reversed", ErrInvalidFilter)
	}
	t.filter = f
	t.resetPage()
	return nil
}

// ClearFilters drops every filter widget.
func (t *Table) ClearFilters() {
	t.filter = domain.ProductFilter{}
	t.resetPage()
}

// SetSearch sets the global search term.
func (t *Table) SetSearch(term string) {
	if term == t.search {
		return
	}
	t.search = term
	t.resetPage()
}

// HandlePageChange moves to page and clears the selection.
func (t *Table) HandlePageChange(page int) {
	if page < 1 {
		page = 1
	}
	t.page = page
	t.selection.Clear()
}

// SetPerPage changes the page size to one of the configured values.
func (t *Table) SetPerPage(n int) error {
	if !slices.Contains(t.settings.PerPageValues, n) {
		return fmt.Errorf("%w: %d", ErrInvalidPerPage, n)
	}
	t.perPage = n
	t.resetPage()
	return nil
}

func (t *Table) resetPage() {
	t.HandlePageChange(1)
}

// Select checks rows of the last rendered page.
func (t *Table) Select(ids ...int64) error {
	return t.selection.Select(ids...)
}

// Toggle flips one row of the last rendered page.
func (t *Table) Toggle(id int64) error {
	return t.selection.Toggle(id)
}

// SelectAll checks or unchecks the whole page.
func (t *Table) SelectAll(checked bool) {
	t.selection.SelectAll(checked)
}

// DeselectAll handles deSelectCheckBoxEvent.
func (t *Table) DeselectAll() bool {
	t.selection.Clear()
	return true
}

// Edit navigates to the edit screen of id.
func (t *Table) Edit(ctx context.Context, id int64) error {
	if err := auth.Authorize(ctx, t.gate, CapEdit, domain.Product{ID: id}); err != nil {
		return err
	}
	t.effects.Redirect("/product/"+strconv.FormatInt(id, 10)+"/edit", true)
	return nil
}

// BulkDelete asks the delete dialog to confirm removing the selection. An
// empty selection only produces a flash. Failures never escape; they are
// logged and flashed.
func (t *Table) BulkDelete(ctx context.Context) error {
	if err := auth.Authorize(ctx, t.gate, CapBulkDelete); err != nil {
		return err
	}
	loc := i18n.FromContext(ctx)
	defer func() {
		if rec := recover(); rec != nil {
			t.unexpected(ctx, "bulkDelete", fmt.Errorf("panic: %v", rec), i18n.BulkDeleteFailed)
		}
	}()
	if t.selection.Empty() {
		t.effects.Flash(ui.FlashError, i18n.T(loc, i18n.BulkDeleteNoRowsSelected))
		t.metrics.Interaction(TableComponent, "bulkDelete", "rejected")
		return nil
	}
	if err := t.bus.Dispatch(ctx, events.Event{
		Name:    EventBulkDeleteConfirmation,
		Payload: DeletePayload{IDs: t.selection.IDs(), TableName: t.tableName},
	}); err != nil {
		t.unexpected(ctx, "bulkDelete", err, i18n.BulkDeleteFailed)
		return nil
	}
	t.metrics.Interaction(TableComponent, "bulkDelete", "ok")
	return nil
}

// ExportData submits the current grid state as an export job and points the
// progress widget at it. It reports whether a job was queued.
func (t *Table) ExportData(ctx context.Context) (bool, error) {
	if err := auth.Authorize(ctx, t.gate, CapExport); err != nil {
		return false, err
	}
	return t.exportData(ctx), nil
}

func (t *Table) exportData(ctx context.Context) (queued bool) {
	defer func() {
		if rec := recover(); rec != nil {
			t.unexpected(ctx, "exportData", fmt.Errorf("panic: %v", rec), i18n.CommonErrorMessage)
			queued = false
		}
	}()
	total, err := t.products.Count(ctx, t.query(0, 0), t.settings.Statuses)
	if err != nil {
		t.unexpected(ctx, "exportData", err, i18n.CommonErrorMessage)
		return false
	}
	result, err := t.exporter.RunExportJob(ctx, export.Request{
		Total:         total,
		Filters:       t.filter,
		SelectedIDs:   t.selection.IDs(),
		Search:        t.search,
		HeadingColumn: ExportHeadingColumn,
		FilePrefix:    ExportFilePrefix,
		JobClass:      ExportJobClass,
		BatchName:     ExportBatchName,
		CaseSensitive: t.settings.CaseSensitiveSearch,
		Extra: map[string]any{
			"sort_field":     string(t.sort.Field),
			"sort_direction": string(t.sort.Direction),
		},
	})
	if err != nil {
		t.unexpected(ctx, "exportData", err, i18n.CommonErrorMessage)
		return false
	}
	if !result.Status {
		t.effects.Alert(ui.FlashError, result.Message)
		t.metrics.Interaction(TableComponent, "exportData", "rejected")
		return false
	}
	// The job is already queued; a tracker that cannot show it does not undo that.
	if err := t.bus.Dispatch(ctx, events.Event{
		Name:    export.ShowProgressEvent,
		To:      export.ProgressComponent,
		Payload: result.Data,
	}); err != nil {
		t.log.Warn("show export progress failed", "error", err)
	}
	t.metrics.Interaction(TableComponent, "exportData", "ok")
	return true
}

// unexpected logs err with a stack trace and shows one generic message.
func (t *Table) unexpected(ctx context.Context, op string, err error, messageKey string) {
	t.log.Error(op+" failed", "error", err, "stack", string(debug.Stack()))
	t.effects.Flash(ui.FlashError, i18n.T(i18n.FromContext(ctx), messageKey))
	t.metrics.Interaction(TableComponent, op, "error")
}

func (t *Table) query(limit, offset int) domain.ProductQuery {
	return domain.ProductQuery{
		Filter:        t.filter,
		Search:        t.search,
		Sort:          t.sort,
		CaseSensitive: t.settings.CaseSensitiveSearch,
		Limit:         limit,
		Offset:        offset,
	}
}

// refresh re-counts after an external change and steps back when the current
// page no longer exists.
func (t *Table) refresh(ctx context.Context) error {
	total, err := t.products.Count(ctx, t.query(0, 0), t.settings.Statuses)
	if err != nil {
		return fmt.Errorf("refresh product count: %w", err)
	}
	t.total = total
	if last := ui.NewPagination(t.page, t.perPage, total).LastPage; t.page > last {
		t.HandlePageChange(last)
	}
	return nil
}

// Row is one rendered grid row.
type Row struct {
	ID                 int64       `json:"id"`
	Name               string      `json:"name"`
	Status             string      `json:"status"`
	StatusLabel        string      `json:"status_label"`
	CreatedAt          time.Time   `json:"created_at"`
	CreatedAtFormatted string      `json:"created_at_formatted"`
	Checked            bool        `json:"checked"`
	Actions            []ui.Button `json:"actions,omitempty"`
}

func presentRow(p domain.Product, settings Settings) Row {
	return Row{
		ID:                 p.ID,
		Name:               p.Name,
		Status:             p.Status,
		StatusLabel:        settings.Statuses.Label(p.Status),
		CreatedAt:          p.CreatedAt,
		CreatedAtFormatted: p.CreatedAt.Format(settings.DatetimeFormat),
	}
}

// View is the rendered grid.
type View struct {
	TableName   string               `json:"tableName"`
	Columns     []ui.Column          `json:"columns"`
	Filters     []ui.Filter          `json:"filters"`
	Header      []ui.Button          `json:"header"`
	Rows        []Row                `json:"rows"`
	Footer      ui.Footer            `json:"footer"`
	Pagination  ui.Pagination        `json:"pagination"`
	Sort        domain.ProductSort   `json:"sort"`
	Filter      domain.ProductFilter `json:"filter"`
	Search      string               `json:"search"`
	Selected    []int64              `json:"selected"`
	CheckboxAll bool                 `json:"checkboxAll"`
}

// Render loads the current page and builds the view. The selection is trimmed
// to the rows that are shown.
func (t *Table) Render(ctx context.Context) (View, error) {
	products, total, err := t.products.List(ctx, t.query(t.perPage, (t.page-1)*t.perPage), t.settings.Statuses)
	if err != nil {
		return View{}, fmt.Errorf("render products: %w", err)
	}
	if len(products) == 0 && total > 0 && t.page > 1 {
		t.HandlePageChange(ui.NewPagination(t.page, t.perPage, total).LastPage)
		products, total, err = t.products.List(ctx, t.query(t.perPage, (t.page-1)*t.perPage), t.settings.Statuses)
		if err != nil {
			return View{}, fmt.Errorf("render products: %w", err)
		}
	}
	t.total = total

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	t.selection.SetPage(ids)

	rows := make([]Row, len(products))
	for i, p := range products {
		row := presentRow(p, t.settings)
		row.Checked = slices.Contains(t.selection.ids, p.ID)
		row.Actions = t.Actions(ctx, p)
		rows[i] = row
	}

	loc := i18n.FromContext(ctx)
	return View{
		TableName: t.tableName,
		Columns:   Columns(loc),
		Filters:   Filters(t.settings.Statuses),
		Header:    t.Header(ctx),
		Rows:      rows,
		Footer: ui.Footer{
			PerPage:         t.perPage,
			PerPageValues:   slices.Clone(t.settings.PerPageValues),
			ShowRecordCount: true,
		},
		Pagination:  ui.NewPagination(t.page, t.perPage, total),
		Sort:        t.sort,
		Filter:      t.filter,
		Search:      t.search,
		Selected:    t.selection.IDs(),
		CheckboxAll: t.selection.All(),
	}, nil
}

func payloadID(payload any) (int64, error) {
	switch p := payload.(type) {
	case IDPayload:
		return p.ID, nil
	case *IDPayload:
		if p != nil {
			return p.ID, nil
		}
	case int64:
		return p, nil
	}
	return 0, fmt.Errorf("unexpected id payload %T", payload)
}
