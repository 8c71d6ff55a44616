package store

import (
	"slices"
	"strings"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// defaultSort orders a view with no sort rules newest first.
var defaultSort = []types.SortRule{{Field: "created_at", Direction: types.Desc}}

// DerivedView returns the items matching the search query and every filter,
// ordered by the sort rules with the item ID as final tiebreaker. It reads
// current state only and has no side effects.
func (s *Store[T]) DerivedView() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deriveLocked()
}

func (s *Store[T]) deriveLocked() []T {
	rows := make([]*row[T], 0, len(s.items))
	for _, it := range s.items {
		r := &row[T]{item: it}
		if s.matchesLocked(r) {
			rows = append(rows, r)
		}
	}

	rules := s.sorts
	if len(rules) == 0 {
		rules = defaultSort
	}
	slices.SortStableFunc(rows, func(a, b *row[T]) int {
		for _, rule := range rules {
			av, aok := s.value(a, rule.Field)
			bv, bok := s.value(b, rule.Field)
			c := compareForSort(av, aok, bv, bok)
			if rule.Direction == types.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return strings.Compare(a.item.RecordID(), b.item.RecordID())
	})

	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.item
	}
	return out
}

func (s *Store[T]) matchesLocked(r *row[T]) bool {
	if s.query != "" {
		if s.search != nil {
			if !s.search(r.item, s.query) {
				return false
			}
		} else if !strings.Contains(strings.ToLower(r.item.RecordID()), strings.ToLower(s.query)) {
			return false
		}
	}
	for _, f := range s.filters {
		v, ok := s.value(r, f.Field)
		if !matchRule(v, ok, f) {
			return false
		}
	}
	return true
}

// ToggleSelect flips the selection state of id. IDs not in the collection
// are ignored.
func (s *Store[T]) ToggleSelect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return
	}
	if s.indexLocked(id) >= 0 {
		s.selected[id] = struct{}{}
	}
}

// SelectAll selects exactly the items of the current derived view. Rows
// hidden by the query or filters are deselected.
func (s *Store[T]) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.selected)
	for _, it := range s.deriveLocked() {
		s.selected[it.RecordID()] = struct{}{}
	}
}

// ClearSelection empties the selection set.
func (s *Store[T]) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.selected)
}

// Selection returns the selected IDs in ascending order.
func (s *Store[T]) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// IsSelected reports whether id is in the selection set.
func (s *Store[T]) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}
