// Package store provides a generic, typed list-view state container for a
// single resource: the loaded items, the active search query, sort rules and
// filters, the selection set, and a pagination cursor. Mutations are
// dispatched to an Endpoint and reconciled into local state only on success.
//
// A Store is an explicit value owned by whoever renders the view; there are
// no package-level instances.
package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/mesh-intelligence/tally/pkg/logger"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// Record is the constraint on items held by a Store.
type Record interface {
	RecordID() string
}

// Endpoint is the backend collaborator for one resource.
type Endpoint[T Record] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, data T) (T, error)
	Update(ctx context.Context, id string, patch map[string]any) (T, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) error
}

// SearchFunc reports whether item matches a non-empty free-text query.
type SearchFunc[T any] func(item T, query string) bool

// FieldFunc resolves a named field of item for filtering and sorting.
type FieldFunc[T any] func(item T, field string) (any, bool)

// Op names a mutation tracked by the in-flight flags.
type Op string

// Tracked operations.
const (
	OpLoad       Op = "load"
	OpCreate     Op = "create"
	OpUpdate     Op = "update"
	OpDelete     Op = "delete"
	OpBulkDelete Op = "bulk-delete"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 25

// Store holds list-view state for one resource. All methods are safe for
// concurrent use; reads return snapshots.
type Store[T Record] struct {
	resource string
	endpoint Endpoint[T]
	search   SearchFunc[T]
	fieldFn  FieldFunc[T]
	log      logger.Logger

	mu       sync.RWMutex
	items    []T
	query    string
	sorts    []types.SortRule
	filters  []types.FilterRule
	selected map[string]struct{}
	page     int
	pageSize int
	inflight map[Op]int
}

// Option configures a Store.
type Option[T Record] func(*Store[T])

// WithSearch sets the search predicate. Without one the query is matched
// case-insensitively against the item ID.
func WithSearch[T Record](fn SearchFunc[T]) Option[T] {
	return func(s *Store[T]) { s.search = fn }
}

// WithFieldFunc overrides field resolution for filters and sort rules.
func WithFieldFunc[T Record](fn FieldFunc[T]) Option[T] {
	return func(s *Store[T]) { s.fieldFn = fn }
}

// WithPageSize sets the number of items per page.
func WithPageSize[T Record](n int) Option[T] {
	return func(s *Store[T]) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithLogger sets the logger used for mutation outcomes.
func WithLogger[T Record](l logger.Logger) Option[T] {
	return func(s *Store[T]) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates an empty Store for resource backed by endpoint.
func New[T Record](resource string, endpoint Endpoint[T], opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		resource: resource,
		endpoint: endpoint,
		log:      logger.Discard(),
		selected: make(map[string]struct{}),
		pageSize: DefaultPageSize,
		inflight: make(map[Op]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("resource", resource)
	return s
}

// Resource returns the resource name the store was created for.
func (s *Store[T]) Resource() string { return s.resource }

// Items returns a copy of the full, unfiltered collection.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Get returns the loaded item with the given ID.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// SetItems replaces the whole collection and drops selected IDs that are no
// longer present.
func (s *Store[T]) SetItems(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.Clone(items)
	s.pruneSelectionLocked()
	s.clampPageLocked()
}

// SetSearchQuery sets the free-text query. The page cursor returns to the
// first page.
func (s *Store[T]) SetSearchQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	s.page = 0
}

// SearchQuery returns the active query.
func (s *Store[T]) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// SetSortRules replaces the sort rules. Invalid rules leave state unchanged.
func (s *Store[T]) SetSortRules(rules []types.SortRule) error {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sorts = slices.Clone(rules)
	s.page = 0
	return nil
}

// SortRules returns the active sort rules.
func (s *Store[T]) SortRules() []types.SortRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sorts)
}

// SetFilters replaces the active filters. Invalid rules leave state unchanged.
func (s *Store[T]) SetFilters(filters []types.FilterRule) error {
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = slices.Clone(filters)
	s.page = 0
	return nil
}

// Filters returns the active filters.
func (s *Store[T]) Filters() []types.FilterRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.filters)
}

// ResetView clears the query, sort rules, filters, selection and page
// cursor. Items are kept.
func (s *Store[T]) ResetView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = ""
	s.sorts = nil
	s.filters = nil
	s.page = 0
	clear(s.selected)
}

// Busy reports whether a call of the given kind is in flight.
func (s *Store[T]) Busy(op Op) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight[op] > 0
}

// InFlight reports whether any call is in flight.
func (s *Store[T]) InFlight() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.inflight {
		if n > 0 {
			return true
		}
	}
	return false
}

func (s *Store[T]) begin(op Op) func() {
	s.mu.Lock()
	s.inflight[op]++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.inflight[op]--
		s.mu.Unlock()
	}
}

func (s *Store[T]) indexLocked(id string) int {
	return slices.IndexFunc(s.items, func(it T) bool { return it.RecordID() == id })
}

// pruneSelectionLocked keeps the selection a subset of the loaded IDs.
func (s *Store[T]) pruneSelectionLocked() {
	if len(s.selected) == 0 {
		return
	}
	present := make(map[string]struct{}, len(s.items))
	for _, it := range s.items {
		present[it.RecordID()] = struct{}{}
	}
	maps.DeleteFunc(s.selected, func(id string, _ struct{}) bool {
		_, ok := present[id]
		return !ok
	})
}
