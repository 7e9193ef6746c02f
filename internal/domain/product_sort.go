package domain

import "strings"

// SortDirection represents ordering direction for sortable fields.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// ProductSortField enumerates fields that can be sorted when listing products.
type ProductSortField string

const (
	ProductSortFieldID        ProductSortField = "id"
	ProductSortFieldName      ProductSortField = "name"
	ProductSortFieldStatus    ProductSortField = "status"
	ProductSortFieldCreatedAt ProductSortField = "created_at"
)

// ProductSort captures ordering preferences for product listings.
type ProductSort struct {
	Field     ProductSortField `json:"field"`
	Direction SortDirection    `json:"direction"`
}

// DefaultProductSort is the ordering used when nothing valid was requested.
func DefaultProductSort() ProductSort {
	return ProductSort{Field: ProductSortFieldID, Direction: SortDirectionDesc}
}

// ParseProductSort accepts a field with or without the "products." prefix.
// Unknown fields fall back to id desc; an unknown direction on a known field
// becomes desc.
func ParseProductSort(field, direction string) ProductSort {
	f := ProductSortField(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(field)), "products."))
	switch f {
	case ProductSortFieldID, ProductSortFieldName, ProductSortFieldStatus, ProductSortFieldCreatedAt:
	default:
		return DefaultProductSort()
	}
	d := SortDirection(strings.ToLower(strings.TrimSpace(direction)))
	if d != SortDirectionAsc && d != SortDirectionDesc {
		d = SortDirectionDesc
	}
	return ProductSort{Field: f, Direction: d}
}

// Normalize returns s with invalid parts replaced by defaults.
func (s ProductSort) Normalize() ProductSort {
	return ParseProductSort(string(s.Field), string(s.Direction))
}
