package product

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/repository"
)

// ExportSource renders products for the ExportProductTable job class.
type ExportSource struct {
	products repository.ProductRepository
	settings Settings
}

func NewExportSource(products repository.ProductRepository, settings Settings) *ExportSource {
	return &ExportSource{products: products, settings: settings.withDefaults()}
}

// Fetch implements export.RowSource. Cells follow params.HeadingColumns.
func (s *ExportSource) Fetch(ctx context.Context, params domain.ExportJobParams, limit, offset int) ([][]string, error) {
	cells := make([]func(Row) string, len(params.HeadingColumns))
	for i, heading := range params.HeadingColumns {
		cell, err := exportCell(heading)
		if err != nil {
			return nil, err
		}
		cells[i] = cell
	}

	products, _, err := s.products.List(ctx, domain.ProductQuery{
		Filter:        params.Filters,
		Search:        params.Search,
		Sort:          exportSort(params.Extra),
		SelectedIDs:   params.SelectedIDs,
		CaseSensitive: params.CaseSensitive,
		Limit:         limit,
		Offset:        offset,
	}, s.settings.Statuses)
	if err != nil {
		return nil, fmt.Errorf("fetch products for export: %w", err)
	}

	rows := make([][]string, 0, len(products))
	for _, p := range products {
		row := presentRow(p, s.settings)
		record := make([]string, len(cells))
		for i, cell := range cells {
			record[i] = cell(row)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func exportCell(heading string) (func(Row) string, error) {
	switch strings.ToLower(strings.TrimSpace(heading)) {
	case "id":
		return func(r Row) string { return strconv.FormatInt(r.ID, 10) }, nil
	case "name":
		return func(r Row) string { return r.Name }, nil
	case "status":
		return func(r Row) string { return r.StatusLabel }, nil
	case "created", "created date", "created_at":
		return func(r Row) string { return r.CreatedAtFormatted }, nil
	}
	return nil, fmt.Errorf("unknown export column %q", heading)
}

func exportSort(extra map[string]any) domain.ProductSort {
	field, _ := extra["sort_field"].(string)
	direction, _ := extra["sort_direction"].(string)
	return domain.ParseProductSort(field, direction)
}
