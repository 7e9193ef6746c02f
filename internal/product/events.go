package product

const (
	// Component names used to address events.
	TableComponent  = "product.table"
	ShowComponent   = "product.show"
	DeleteComponent = "product.delete"

	EventShowProductInfo        = "show-product-info"
	EventEdit                   = "edit"
	EventDeleteConfirmation     = "delete-confirmation"
	EventBulkDeleteConfirmation = "bulk-delete-confirmation"
	EventDeselectCheckBox       = "deSelectCheckBoxEvent"
	EventRefresh                = "pg:eventRefresh-product"
)

const entity = "product"

// Capabilities consulted by the listing.
var (
	CapView       = "view-" + entity
	CapShow       = "show-" + entity
	CapEdit       = "edit-" + entity
	CapDelete     = "delete-" + entity
	CapBulkDelete = "bulkDelete-" + entity
	CapExport     = "export-" + entity
	CapAdd        = "add-" + entity
)

// Export metadata for the product grid.
const (
	ExportJobClass      = "ExportProductTable"
	ExportHeadingColumn = "Name,Status"
	ExportFilePrefix    = "ProductReports_"
	ExportBatchName     = "Export Product Table"
)

// IDPayload carries a single product id.
type IDPayload struct {
	ID int64 `json:"id"`
}

// DeletePayload asks the delete dialog to confirm removing ids.
type DeletePayload struct {
	IDs       []int64 `json:"ids"`
	TableName string  `json:"tableName"`
}
