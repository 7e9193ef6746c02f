package domain

import (
	"strings"
	"time"
)

// ProductFilter holds the active filter widgets of the product grid.
type ProductFilter struct {
	NameContains string     `json:"name,omitempty"`
	Status       string     `json:"status,omitempty"`
	CreatedFrom  *time.Time `json:"created_from,omitempty"`
	CreatedTo    *time.Time `json:"created_to,omitempty"`
}

// IsEmpty reports whether no filter widget is set.
func (f ProductFilter) IsEmpty() bool {
	return strings.TrimSpace(f.NameContains) == "" &&
		strings.TrimSpace(f.Status) == "" &&
		f.CreatedFrom == nil &&
		f.CreatedTo == nil
}

// ProductQuery is everything the record source needs to produce one page.
type ProductQuery struct {
	Filter        ProductFilter
	Search        string
	Sort          ProductSort
	SelectedIDs   []int64
	CaseSensitive bool
	Limit         int
	Offset        int
}

func containsFold(haystack, needle string, caseSensitive bool) bool {
	if caseSensitive {
		return strings.Contains(haystack, needle)
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
