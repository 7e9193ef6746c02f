package i18n

// Message keys. The English text below is the source locale.
const (
	ProductTableName    = "product.listing.tableName"
	ProductColumnID     = "product.listing.id"
	ProductColumnName   = "product.listing.name"
	ProductColumnStatus = "product.listing.status"
	ProductActions      = "product.listing.actions"
	CreatedDate         = "created_date"

	TooltipView        = "tooltip.view"
	TooltipEdit        = "tooltip.edit"
	TooltipClickDelete = "tooltip.click_delete"

	HeaderAddProduct = "product.header.add"
	HeaderExport     = "product.header.export"
	HeaderBulkDelete = "product.header.bulk_delete"

	BulkDeleteNoRowsSelected = "bulk_delete.no_rows_selected"
	BulkDeleteFailed         = "bulk_delete.failed"
	CommonErrorMessage       = "product.messages.common_error_message"
	ProductsDeleted          = "product.messages.deleted"
	ProductNotFound          = "product.messages.not_found"

	ExportNothingToExport = "export.nothing_to_export"
	ExportAlreadyRunning  = "export.already_running"
	ExportUnknownJob      = "export.unknown_job"
	ExportQueueFull       = "export.queue_full"

	SideMenuRole    = "side_menu.role"
	SideMenuProduct = "side_menu.product"
	SideMenuUser    = "side_menu.user"
	SideMenuBrand   = "side_menu.brand"
)

var english = map[string]string{
	ProductTableName:    "Products",
	ProductColumnID:     "ID",
	ProductColumnName:   "Name",
	ProductColumnStatus: "Status",
	ProductActions:      "Actions",
	CreatedDate:         "Created Date",

	TooltipView:        "View",
	TooltipEdit:        "Edit",
	TooltipClickDelete: "Click to delete",

	HeaderAddProduct: "Add New Product",
	HeaderExport:     "Export Product",
	HeaderBulkDelete: "Bulk Delete Products",

	BulkDeleteNoRowsSelected: "Please select at least one record to delete.",
	BulkDeleteFailed:         "Bulk delete failed. Please try again.",
	CommonErrorMessage:       "Something went wrong. Please try again later.",
	ProductsDeleted:          "%d product(s) deleted successfully.",
	ProductNotFound:          "The selected product no longer exists.",

	ExportNothingToExport: "There is no data to export.",
	ExportAlreadyRunning:  "An export of this table is already in progress.",
	ExportUnknownJob:      "This export is not available.",
	ExportQueueFull:       "The export queue is full. Please try again shortly.",

	SideMenuRole:    "Roles",
	SideMenuProduct: "Products",
	SideMenuUser:    "Users",
	SideMenuBrand:   "Brands",
}

var portuguese = map[string]string{
	ProductTableName:    "Produtos",
	ProductColumnID:     "ID",
	ProductColumnName:   "Nome",
	ProductColumnStatus: "Situação",
	ProductActions:      "Ações",
	CreatedDate:         "Data de criação",

	TooltipView:        "Visualizar",
	TooltipEdit:        "Editar",
	TooltipClickDelete: "Clique para excluir",

	HeaderAddProduct: "Adicionar produto",
	HeaderExport:     "Exportar produtos",
	HeaderBulkDelete: "Excluir produtos selecionados",

	BulkDeleteNoRowsSelected: "Selecione pelo menos um registro para excluir.",
	BulkDeleteFailed:         "Falha ao excluir. Tente novamente.",
	CommonErrorMessage:       "Algo deu errado. Tente novamente mais tarde.",
	ProductsDeleted:          "%d produto(s) excluído(s) com sucesso.",
	ProductNotFound:          "O produto selecionado não existe mais.",

	ExportNothingToExport: "Não há dados para exportar.",
	ExportAlreadyRunning:  "Já existe uma exportação desta tabela em andamento.",
	ExportUnknownJob:      "Esta exportação não está disponível.",
	ExportQueueFull:       "A fila de exportação está cheia. Tente novamente em instantes.",

	SideMenuRole:    "Perfis",
	SideMenuProduct: "Produtos",
	SideMenuUser:    "Usuários",
	SideMenuBrand:   "Marcas",
}
