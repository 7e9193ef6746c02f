package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/adminpanel/internal/auth"
	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/events"
	"github.com/rpattn/adminpanel/internal/export"
	"github.com/rpattn/adminpanel/internal/ui"
	"github.com/rpattn/adminpanel/pkg/logger"
)

type fixture struct {
	products *stubProducts
	exporter *stubExporter
	bus      *events.Bus
	effects  *ui.Effects
	deps     Deps
	table    *Table
}

func newFixture(t *testing.T, n int, gate capGate) *fixture {
	t.Helper()
	f := &fixture{
		products: newStubProducts(n),
		exporter: &stubExporter{},
		bus:      events.NewBus(),
		effects:  &ui.Effects{},
	}
	f.deps = Deps{
		Products: f.products,
		Gate:     gate,
		Exporter: f.exporter,
		Bus:      f.bus,
		Effects:  f.effects,
		Log:      logger.Discard(),
	}
	table, err := NewTable(context.Background(), f.deps, Settings{})
	require.NoError(t, err)
	t.Cleanup(table.Close)
	f.table = table
	return f
}

func (f *fixture) render(t *testing.T) View {
	t.Helper()
	view, err := f.table.Render(context.Background())
	require.NoError(t, err)
	return view
}

func TestNewTable(t *testing.T) {
	t.Run("Should refuse principals without view-product", func(t *testing.T) {
		_, err := NewTable(context.Background(), Deps{Products: newStubProducts(1), Gate: allCaps().without(CapView)}, Settings{})
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("Should start on the first page sorted by id desc", func(t *testing.T) {
		f := newFixture(t, 3, allCaps())
		assert.Equal(t, "Products", f.table.TableName())
		assert.Equal(t, domain.DefaultProductSort(), f.table.Sort())
		assert.Equal(t, 1, f.table.Page())
		assert.Equal(t, 10, f.table.PerPage())
	})
}

func TestTable_Render(t *testing.T) {
	t.Run("Should render the first page with labels and formatted dates", func(t *testing.T) {
		f := newFixture(t, 12, allCaps())
		view := f.render(t)

		assert.Equal(t, "Products", view.TableName)
		require.Len(t, view.Rows, 10)
		assert.Equal(t, int64(12), view.Rows[0].ID)
		assert.Equal(t, "Inactive", view.Rows[0].StatusLabel)
		assert.Equal(t, "Active", view.Rows[1].StatusLabel)
		assert.Equal(t, "01-03-2026 21:30:00", view.Rows[0].CreatedAtFormatted)
		assert.Equal(t, ui.Pagination{Page: 1, PerPage: 10, Total: 12, LastPage: 2}, view.Pagination)
		assert.Equal(t, []int{10, 25, 50, 100}, view.Footer.PerPageValues)
		assert.True(t, view.Footer.ShowRecordCount)
		assert.Len(t, view.Columns, 5)
		assert.Len(t, view.Filters, 3)
		assert.Equal(t, 12, f.table.Total())
	})

	t.Run("Should render a blank label for unknown statuses", func(t *testing.T) {
		f := newFixture(t, 1, allCaps())
		f.products.products[0].Status = "X"
		view := f.render(t)
		require.Len(t, view.Rows, 1)
		assert.Equal(t, " ", view.Rows[0].StatusLabel)
	})

	t.Run("Should step back when the page no longer exists", func(t *testing.T) {
		f := newFixture(t, 12, allCaps())
		f.table.HandlePageChange(5)
		view := f.render(t)
		assert.Equal(t, 2, view.Pagination.Page)
		assert.Len(t, view.Rows, 2)
	})

	t.Run("Should wrap record source failures", func(t *testing.T) {
		f := newFixture(t, 1, allCaps())
		f.products.listErr = errBoom
		_, err := f.table.Render(context.Background())
		assert.ErrorIs(t, err, errBoom)
	})
}

func TestTable_Actions(t *testing.T) {
	p := domain.Product{ID: 7}

	t.Run("Should build every action when all are allowed", func(t *testing.T) {
		f := newFixture(t, 0, allCaps())
		buttons := f.table.Actions(context.Background(), p)
		require.Len(t, buttons, 3)

		assert.Equal(t, "view", buttons[0].ID)
		assert.Equal(t, ui.DispatchTo, buttons[0].Kind)
		assert.Equal(t, ShowComponent, buttons[0].Target)
		assert.Equal(t, EventShowProductInfo, buttons[0].Event)
		assert.Equal(t, int64(7), buttons[0].Params["id"])
		assert.Equal(t, "view_button", buttons[0].TestID)

		assert.Equal(t, "edit", buttons[1].ID)
		assert.Equal(t, ui.DispatchSelf, buttons[1].Kind)
		assert.Equal(t, EventEdit, buttons[1].Event)

		assert.Equal(t, "delete-product", buttons[2].ID)
		assert.Equal(t, DeleteComponent, buttons[2].Target)
		assert.Equal(t, EventDeleteConfirmation, buttons[2].Event)
		assert.Equal(t, []int64{7}, buttons[2].Params["ids"])
		assert.Equal(t, "Products", buttons[2].Params["tableName"])
	})

	t.Run("Should omit actions the gate denies", func(t *testing.T) {
		f := newFixture(t, 0, allCaps().without(CapEdit, CapDelete))
		buttons := f.table.Actions(context.Background(), p)
		require.Len(t, buttons, 1)
		assert.Equal(t, "view", buttons[0].ID)
	})

	t.Run("Should build nothing when every action is denied", func(t *testing.T) {
		f := newFixture(t, 0, capGate{CapView: true})
		assert.Empty(t, f.table.Actions(context.Background(), p))
	})
}

func TestTable_Header(t *testing.T) {
	t.Run("Should build the toolbar", func(t *testing.T) {
		f := newFixture(t, 0, allCaps())
		buttons := f.table.Header(context.Background())
		require.Len(t, buttons, 3)
		assert.Equal(t, "add-product", buttons[0].ID)
		assert.Equal(t, "/product/create", buttons[0].Href)
		assert.Equal(t, "export-data", buttons[1].ID)
		assert.Equal(t, "exportData", buttons[1].Method)
		assert.Equal(t, "bulk-delete", buttons[2].ID)
		assert.True(t, buttons[2].VisibleWhenSelected)
	})

	t.Run("Should hide export and bulk delete without capabilities", func(t *testing.T) {
		f := newFixture(t, 0, allCaps().without(CapExport, CapBulkDelete))
		buttons := f.table.Header(context.Background())
		require.Len(t, buttons, 1)
		assert.Equal(t, "add-product", buttons[0].ID)
	})
}

func TestTable_SortBy(t *testing.T) {
	f := newFixture(t, 0, allCaps())

	t.Run("Should apply an explicit sort", func(t *testing.T) {
		f.table.SortBy("products.name", "asc")
		assert.Equal(t, domain.ProductSort{Field: domain.ProductSortFieldName, Direction: domain.SortDirectionAsc}, f.table.Sort())
	})

	t.Run("Should flip the direction on the same field", func(t *testing.T) {
		f.table.SortBy("name", "")
		assert.Equal(t, domain.SortDirectionDesc, f.table.Sort().Direction)
		f.table.SortBy("name", "")
		assert.Equal(t, domain.SortDirectionAsc, f.table.Sort().Direction)
	})

	t.Run("Should start a new field ascending", func(t *testing.T) {
		f.table.SortBy("created_at", "")
		assert.Equal(t, domain.ProductSort{Field: domain.ProductSortFieldCreatedAt, Direction: domain.SortDirectionAsc}, f.table.Sort())
	})

	t.Run("Should fall back to id desc for unknown fields", func(t *testing.T) {
		f.table.SortBy("price", "asc")
		assert.Equal(t, domain.DefaultProductSort(), f.table.Sort())
	})
}

func TestTable_FiltersAndPaging(t *testing.T) {
	t.Run("Should reset page and selection when filtering", func(t *testing.T) {
		f := newFixture(t, 30, allCaps())
		f.table.HandlePageChange(2)
		f.render(t)
		require.NoError(t, f.table.Select(20))

		require.NoError(t, f.table.SetFilter(domain.ProductFilter{Status: "Y"}))
		assert.Equal(t, 1, f.table.Page())
		assert.Empty(t, f.table.Selected())

		view := f.render(t)
		assert.Equal(t, 15, view.Pagination.Total)
		for _, row := range view.Rows {
			assert.Equal(t, "Y", row.Status)
		}
	})

	t.Run("Should reject unknown statuses and reversed ranges", func(t *testing.T) {
		f := newFixture(t, 0, allCaps())
		assert.ErrorIs(t, f.table.SetFilter(domain.ProductFilter{Status: "Z"}), ErrInvalidFilter)

		later := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
		earlier := later.AddDate(0, 0, -1)
		assert.ErrorIs(t, f.table.SetFilter(domain.ProductFilter{CreatedFrom: &later, CreatedTo: &earlier}), ErrInvalidFilter)
	})

	t.Run("Should search names and status labels", func(t *testing.T) {
		f := newFixture(t, 4, allCaps())
		f.table.SetSearch("inactive")
		view := f.render(t)
		require.Len(t, view.Rows, 2)
		assert.Equal(t, "inactive", f.products.lastQuery.Search)
	})

	t.Run("Should only accept configured page sizes", func(t *testing.T) {
		f := newFixture(t, 30, allCaps())
		assert.ErrorIs(t, f.table.SetPerPage(7), ErrInvalidPerPage)
		require.NoError(t, f.table.SetPerPage(25))
		view := f.render(t)
		assert.Len(t, view.Rows, 25)
		assert.Equal(t, 25, view.Footer.PerPage)
	})

	t.Run("Should clear filters", func(t *testing.T) {
		f := newFixture(t, 0, allCaps())
		require.NoError(t, f.table.SetFilter(domain.ProductFilter{NameContains: "mug"}))
		f.table.ClearFilters()
		assert.True(t, f.table.Filter().IsEmpty())
	})
}

func TestTable_Selection(t *testing.T) {
	t.Run("Should only select rows on the rendered page", func(t *testing.T) {
		f := newFixture(t, 12, allCaps())
		f.render(t)
		require.NoError(t, f.table.Select(12, 11))
		assert.ErrorIs(t, f.table.Select(1), ErrNotOnPage)
		assert.Equal(t, []int64{12, 11}, f.table.Selected())
	})

	t.Run("Should clear the selection on page change", func(t *testing.T) {
		f := newFixture(t, 12, allCaps())
		f.render(t)
		f.table.SelectAll(true)
		assert.Len(t, f.table.Selected(), 10)

		f.table.HandlePageChange(2)
		assert.Empty(t, f.table.Selected())
		view := f.render(t)
		assert.False(t, view.CheckboxAll)
	})

	t.Run("Should check the header box when every row is selected", func(t *testing.T) {
		f := newFixture(t, 3, allCaps())
		f.render(t)
		require.NoError(t, f.table.Select(1, 2, 3))
		view := f.render(t)
		assert.True(t, view.CheckboxAll)
		for _, row := range view.Rows {
			assert.True(t, row.Checked)
		}
		require.NoError(t, f.table.Toggle(2))
		view = f.render(t)
		assert.False(t, view.CheckboxAll)
	})

	t.Run("Should clear on deSelectCheckBoxEvent", func(t *testing.T) {
		f := newFixture(t, 3, allCaps())
		f.render(t)
		f.table.SelectAll(true)
		require.NoError(t, f.bus.Dispatch(context.Background(), events.Event{Name: EventDeselectCheckBox}))
		assert.Empty(t, f.table.Selected())
	})
}

func TestTable_BulkDelete(t *testing.T) {
	t.Run("Should flash when nothing is selected", func(t *testing.T) {
		f := newFixture(t, 3, allCaps())
		f.render(t)
		require.NoError(t, f.table.BulkDelete(context.Background()))

		assert.Equal(t, []ui.Message{{Type: ui.FlashError, Message: "Please select at least one record to delete."}}, f.effects.Flashes())
		assert.Empty(t, f.bus.Drain())
	})

	t.Run("Should ask for confirmation with the selected ids", func(t *testing.T) {
		f := newFixture(t, 3, allCaps())
		f.render(t)
		require.NoError(t, f.table.Select(3, 1))
		require.NoError(t, f.table.BulkDelete(context.Background()))

		emitted := f.bus.Drain()
		require.Len(t, emitted, 1)
		assert.Equal(t, EventBulkDeleteConfirmation, emitted[0].Name)
		assert.Empty(t, emitted[0].To)
		assert.Equal(t, DeletePayload{IDs: []int64{3, 1}, TableName: "Products"}, emitted[0].Payload)
		assert.Empty(t, f.effects.Flashes())
	})

	t.Run("Should flash a failure when a listener fails", func(t *testing.T) {
		f := newFixture(t, 3, allCaps())
		f.bus.Listen(DeleteComponent, EventBulkDeleteConfirmation, func(context.Context, events.Event) error { return errBoom })
		f.render(t)
		f.table.SelectAll(true)
		require.NoError(t, f.table.BulkDelete(context.Background()))
		assert.Equal(t, []ui.Message{{Type: ui.FlashError, Message: "Bulk delete failed. Please try again."}}, f.effects.Flashes())
	})

	t.Run("Should recover from a panicking listener", func(t *testing.T) {
		f := newFixture(t, 3, allCaps())
		f.bus.Listen(DeleteComponent, EventBulkDeleteConfirmation, func(context.Context, events.Event) error { panic("kaboom") })
		f.render(t)
		f.table.SelectAll(true)
		assert.NotPanics(t, func() { _ = f.table.BulkDelete(context.Background()) })
		assert.Equal(t, []ui.Message{{Type: ui.FlashError, Message: "Bulk delete failed. Please try again."}}, f.effects.Flashes())
	})

	t.Run("Should refuse without bulkDelete-product", func(t *testing.T) {
		f := newFixture(t, 3, allCaps().without(CapBulkDelete))
		assert.ErrorIs(t, f.table.BulkDelete(context.Background()), auth.ErrForbidden)
	})
}

func TestTable_ExportData(t *testing.T) {
	t.Run("Should hand the grid state to the exporter and show progress", func(t *testing.T) {
		f := newFixture(t, 12, allCaps())
		jobID := uuid.New()
		f.exporter.result = export.Result{Status: true, Data: &export.ProgressData{JobID: jobID}}
		f.table.SortBy("name", "asc")
		f.table.SetSearch("product")
		f.render(t)
		require.NoError(t, f.table.Select(1))

		queued, err := f.table.ExportData(context.Background())
		require.NoError(t, err)
		assert.True(t, queued)

		require.Len(t, f.exporter.requests, 1)
		req := f.exporter.requests[0]
		assert.Equal(t, 12, req.Total)
		assert.Equal(t, []int64{1}, req.SelectedIDs)
		assert.Equal(t, "product", req.Search)
		assert.Equal(t, "Name,Status", req.HeadingColumn)
		assert.Equal(t, "ProductReports_", req.FilePrefix)
		assert.Equal(t, "ExportProductTable", req.JobClass)
		assert.Equal(t, "Export Product Table", req.BatchName)
		assert.Equal(t, "name", req.Extra["sort_field"])
		assert.Equal(t, "asc", req.Extra["sort_direction"])

		emitted := f.bus.Drain()
		require.Len(t, emitted, 1)
		assert.Equal(t, export.ShowProgressEvent, emitted[0].Name)
		assert.Equal(t, export.ProgressComponent, emitted[0].To)
		assert.Equal(t, jobID, emitted[0].Payload.(*export.ProgressData).JobID)
		assert.Empty(t, f.effects.Alerts())
	})

	t.Run("Should report a queued export when forwarding progress fails", func(t *testing.T) {
		f := newFixture(t, 3, allCaps())
		f.exporter.result = export.Result{Status: true, Data: &export.ProgressData{JobID: uuid.New()}}
		deps := f.deps
		deps.Bus = events.NewBus(events.WithForwarder(brokenForwarder{}, export.ShowProgressEvent), events.WithLogger(logger.Discard()))
		table, err := NewTable(context.Background(), deps, Settings{})
		require.NoError(t, err)
		defer table.Close()

		queued, err := table.ExportData(context.Background())
		require.NoError(t, err)
		assert.True(t, queued)
		assert.Empty(t, f.effects.Flashes())
		require.Len(t, deps.Bus.Drain(), 1)
	})

	t.Run("Should alert the exporter message on rejection", func(t *testing.T) {
		f := newFixture(t, 0, allCaps())
		f.exporter.result = export.Result{Status: false, Message: "There is no data to export."}

		queued, err := f.table.ExportData(context.Background())
		require.NoError(t, err)
		assert.False(t, queued)
		assert.Equal(t, []ui.Message{{Type: ui.FlashError, Message: "There is no data to export."}}, f.effects.Alerts())
		assert.Empty(t, f.bus.Drain())
	})

	t.Run("Should flash a generic message on infrastructure errors", func(t *testing.T) {
		f := newFixture(t, 2, allCaps())
		f.exporter.err = errBoom

		queued, err := f.table.ExportData(context.Background())
		require.NoError(t, err)
		assert.False(t, queued)
		assert.Equal(t, []ui.Message{{Type: ui.FlashError, Message: "Something went wrong. Please try again later."}}, f.effects.Flashes())
		assert.Empty(t, f.bus.Drain())
	})

	t.Run("Should flash a generic message when counting fails", func(t *testing.T) {
		f := newFixture(t, 2, allCaps())
		f.products.countErr = errBoom

		queued, err := f.table.ExportData(context.Background())
		require.NoError(t, err)
		assert.False(t, queued)
		assert.Empty(t, f.exporter.requests)
		assert.Len(t, f.effects.Flashes(), 1)
	})

	t.Run("Should recover from a panicking exporter", func(t *testing.T) {
		f := newFixture(t, 2, allCaps())
		f.exporter.panicVal = "kaboom"

		var queued bool
		assert.NotPanics(t, func() { queued, _ = f.table.ExportData(context.Background()) })
		assert.False(t, queued)
		assert.Equal(t, []ui.Message{{Type: ui.FlashError, Message: "Something went wrong. Please try again later."}}, f.effects.Flashes())
	})

	t.Run("Should refuse without export-product", func(t *testing.T) {
		f := newFixture(t, 2, allCaps().without(CapExport))
		_, err := f.table.ExportData(context.Background())
		assert.ErrorIs(t, err, auth.ErrForbidden)
		assert.Empty(t, f.exporter.requests)
	})
}

func TestTable_Edit(t *testing.T) {
	t.Run("Should navigate to the edit screen", func(t *testing.T) {
		f := newFixture(t, 1, allCaps())
		require.NoError(t, f.bus.Dispatch(context.Background(), events.Event{Name: EventEdit, To: TableComponent, Payload: IDPayload{ID: 42}}))
		assert.Equal(t, &ui.Redirect{Path: "/product/42/edit", Navigate: true}, f.effects.RedirectTo())
	})

	t.Run("Should refuse without edit-product", func(t *testing.T) {
		f := newFixture(t, 1, allCaps().without(CapEdit))
		assert.ErrorIs(t, f.table.Edit(context.Background(), 42), auth.ErrForbidden)
		assert.Nil(t, f.effects.RedirectTo())
	})
}

func TestTable_Refresh(t *testing.T) {
	f := newFixture(t, 11, allCaps())
	f.table.HandlePageChange(2)
	f.render(t)
	_, err := f.products.DeleteByIDs(context.Background(), []int64{1})
	require.NoError(t, err)

	require.NoError(t, f.bus.Dispatch(context.Background(), events.Event{Name: EventRefresh, To: TableComponent}))
	assert.Equal(t, 1, f.table.Page())
	assert.Equal(t, 10, f.table.Total())
}
