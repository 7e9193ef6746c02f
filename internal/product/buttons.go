package product

import (
	"context"

	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/i18n"
	"github.com/rpattn/adminpanel/internal/ui"
)

// Actions builds the row buttons the principal may use on p.
func (t *Table) Actions(ctx context.Context, p domain.Product) []ui.Button {
	loc := i18n.FromContext(ctx)
	var buttons []ui.Button
	if t.gate.Allows(ctx, CapShow, p) {
		buttons = append(buttons, ui.Button{
			ID:      "view",
			Title:   i18n.T(loc, i18n.TooltipView),
			Icon:    "eye",
			TestID:  "view_button",
			Kind:    ui.DispatchTo,
			Target:  ShowComponent,
			Event:   EventShowProductInfo,
			Params:  map[string]any{"id": p.ID},
			Variant: "success",
		})
	}
	if t.gate.Allows(ctx, CapEdit, p) {
		buttons = append(buttons, ui.Button{
			ID:      "edit",
			Title:   i18n.T(loc, i18n.TooltipEdit),
			Icon:    "pencil",
			TestID:  "edit_button",
			Kind:    ui.DispatchSelf,
			Event:   EventEdit,
			Params:  map[string]any{"id": p.ID},
			Variant: "primary",
		})
	}
	if t.gate.Allows(ctx, CapDelete, p) {
		buttons = append(buttons, ui.Button{
			ID:     "delete-" + entity,
			Title:  i18n.T(loc, i18n.TooltipClickDelete),
			Icon:   "trash",
			TestID: "delete_button",
			Kind:   ui.DispatchTo,
			Target: DeleteComponent,
			Event:  EventDeleteConfirmation,
			Params: map[string]any{
				"ids":       []int64{p.ID},
				"tableName": t.tableName,
			},
			Variant: "danger",
		})
	}
	return buttons
}

// Header builds the toolbar buttons above the grid.
func (t *Table) Header(ctx context.Context) []ui.Button {
	loc := i18n.FromContext(ctx)
	var buttons []ui.Button
	if t.gate.Allows(ctx, CapAdd) {
		buttons = append(buttons, ui.Button{
			ID:     "add-" + entity,
			Title:  i18n.T(loc, i18n.HeaderAddProduct),
			Icon:   "plus",
			TestID: "add_new",
			Kind:   ui.DispatchNavigate,
			Href:   "/" + entity + "/create",
		})
	}
	if t.gate.Allows(ctx, CapExport) {
		buttons = append(buttons, ui.Button{
			ID:     "export-data",
			Title:  i18n.T(loc, i18n.HeaderExport),
			Icon:   "download",
			TestID: "export_button",
			Kind:   ui.DispatchCall,
			Method: "exportData",
		})
	}
	if t.gate.Allows(ctx, CapBulkDelete) {
		buttons = append(buttons, ui.Button{
			ID:                  "bulk-delete",
			Title:               i18n.T(loc, i18n.HeaderBulkDelete),
			Icon:                "trash",
			TestID:              "bulk_delete_button",
			Kind:                ui.DispatchCall,
			Method:              "bulkDelete",
			Variant:             "danger",
			VisibleWhenSelected: true,
		})
	}
	return buttons
}
