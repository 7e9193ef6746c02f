package product

import (
	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/i18n"
	"github.com/rpattn/adminpanel/internal/ui"
)

// Columns describes the grid columns with labels from loc.
func Columns(loc i18n.Localizer) []ui.Column {
	return []ui.Column{
		ui.MakeColumn(i18n.T(loc, i18n.ProductColumnID), "id").WithSortable(),
		ui.MakeColumn(i18n.T(loc, i18n.ProductColumnName), "name").WithSortable().WithSearchable(),
		ui.MakeColumn(i18n.T(loc, i18n.ProductColumnStatus), "status_label", "status").WithSortable().WithSearchable(),
		ui.MakeColumn(i18n.T(loc, i18n.CreatedDate), "created_at_formatted", "created_at"),
		ui.ActionColumn(i18n.T(loc, i18n.ProductActions)),
	}
}

// Filters describes the filter widgets; the status options come from statuses.
func Filters(statuses domain.StatusCatalog) []ui.Filter {
	options := make([]ui.Option, 0, len(statuses))
	for _, s := range statuses {
		options = append(options, ui.Option{Label: s.Label, Value: s.Key})
	}
	return []ui.Filter{
		{Column: "name", Field: "products.name", Kind: ui.FilterInputText, Operators: []string{"contains"}},
		{Column: "status", Field: "status", Kind: ui.FilterSelect, Options: options},
		{Column: "created_at", Field: "created_at", Kind: ui.FilterDatetimePicker},
	}
}
