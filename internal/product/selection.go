package product

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNotOnPage is returned when selecting an id the last render did not show.
var ErrNotOnPage = errors.New("row is not on the current page")

// Selection is the ordered set of checked ids. It only ever holds ids of the
// last rendered page.
type Selection struct {
	ids  []int64
	page []int64
	all  bool
}

// SetPage records the ids of a freshly rendered page and drops any checked id
// that is no longer visible.
func (s *Selection) SetPage(ids []int64) {
	s.page = append(s.page[:0], ids...)
	kept := s.ids[:0]
	for _, id := range s.ids {
		if slices.Contains(s.page, id) {
			kept = append(kept, id)
		}
	}
	s.ids = kept
	s.all = len(s.page) > 0 && len(s.ids) == len(s.page)
}

// Select checks ids. Nothing changes if any id is off the page.
func (s *Selection) Select(ids ...int64) error {
	for _, id := range ids {
		if !slices.Contains(s.page, id) {
			return fmt.Errorf("select %d: %w", id, ErrNotOnPage)
		}
	}
	for _, id := range ids {
		if !slices.Contains(s.ids, id) {
			s.ids = append(s.ids, id)
		}
	}
	s.all = len(s.ids) == len(s.page)
	return nil
}

// Toggle flips id.
func (s *Selection) Toggle(id int64) error {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		s.all = false
		return nil
	}
	return s.Select(id)
}

// SelectAll checks or unchecks every row of the page.
func (s *Selection) SelectAll(checked bool) {
	if !checked {
		s.Clear()
		return
	}
	s.ids = append(s.ids[:0], s.page...)
	s.all = len(s.page) > 0
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = nil
	s.all = false
}

// IDs returns a copy of the checked ids in selection order.
func (s *Selection) IDs() []int64 {
	return slices.Clone(s.ids)
}

func (s *Selection) Empty() bool { return len(s.ids) == 0 }

// All reports whether the header checkbox is checked.
func (s *Selection) All() bool { return s.all }
