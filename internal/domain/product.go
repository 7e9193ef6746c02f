package domain

import (
	"time"
)

// Product is a row of the products table as read by the admin listing.
type Product struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProductStatus maps a stored status key to its display label.
type ProductStatus struct {
	Key   string `json:"key" mapstructure:"key"`
	Label string `json:"label" mapstructure:"label"`
}

// StatusCatalog is the ordered set of known product statuses.
type StatusCatalog []ProductStatus

// DefaultStatusCatalog mirrors the statuses seeded by the products migration.
func DefaultStatusCatalog() StatusCatalog {
	return StatusCatalog{
		{Key: "Y", Label: "Active"},
		{Key: "N", Label: "Inactive"},
	}
}

// Label returns the display label for key. Unknown keys render as a single space
// so the grid cell keeps its height.
func (c StatusCatalog) Label(key string) string {
	for _, s := range c {
		if s.Key == key {
			return s.Label
		}
	}
	return " "
}

// Has reports whether key is a known status key.
func (c StatusCatalog) Has(key string) bool {
	for _, s := range c {
		if s.Key == key {
			return true
		}
	}
	return false
}

// KeysMatchingLabel returns the keys whose label contains term.
func (c StatusCatalog) KeysMatchingLabel(term string, caseSensitive bool) []string {
	if term == "" {
		return nil
	}
	var keys []string
	for _, s := range c {
		if containsFold(s.Label, term, caseSensitive) {
			keys = append(keys, s.Key)
		}
	}
	return keys
}
