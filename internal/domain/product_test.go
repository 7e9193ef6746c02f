package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCatalog_Label(t *testing.T) {
	catalog := DefaultStatusCatalog()
	assert.Equal(t, "Active", catalog.Label("Y"))
	assert.Equal(t, "Inactive", catalog.Label("N"))
	assert.Equal(t, " ", catalog.Label("X"))
}

func TestStatusCatalog_KeysMatchingLabel(t *testing.T) {
	catalog := DefaultStatusCatalog()
	assert.Equal(t, []string{"Y", "N"}, catalog.KeysMatchingLabel("act", false))
	assert.Equal(t, []string{"N"}, catalog.KeysMatchingLabel("inact", false))
	assert.Equal(t, []string{"N"}, catalog.KeysMatchingLabel("act", true))
	assert.Empty(t, catalog.KeysMatchingLabel("ACT", true))
	assert.Nil(t, catalog.KeysMatchingLabel("", false))
}

func TestParseProductSort(t *testing.T) {
	cases := []struct {
		field, dir string
		want       ProductSort
	}{
		{"name", "asc", ProductSort{Field: ProductSortFieldName, Direction: SortDirectionAsc}},
		{"products.created_at", "DESC", ProductSort{Field: ProductSortFieldCreatedAt, Direction: SortDirectionDesc}},
		{"status", "sideways", ProductSort{Field: ProductSortFieldStatus, Direction: SortDirectionDesc}},
		{"price", "asc", DefaultProductSort()},
		{"", "", DefaultProductSort()},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseProductSort(tc.field, tc.dir), "field=%q dir=%q", tc.field, tc.dir)
	}
}

func TestExportJob_Progress(t *testing.T) {
	assert.Equal(t, 0, ExportJob{}.Progress())
	assert.Equal(t, 50, ExportJob{RowsRequested: 10, RowsExported: 5}.Progress())
	assert.Equal(t, 100, ExportJob{RowsRequested: 10, RowsExported: 12}.Progress())
	assert.Equal(t, 100, ExportJob{Status: ExportJobStatusCompleted}.Progress())
}
