package store

import (
	"context"
	"sync"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// ticket is a JSON-only record; fields resolve through gjson.
type ticket struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Priority  int       `json:"priority"`
	Tags      []string  `json:"tags"`
	Office    office    `json:"office"`
	CreatedAt time.Time `json:"created_at"`
}

type office struct {
	City string `json:"city"`
}

func (t ticket) RecordID() string { return t.ID }

// fakeEndpoint records calls and returns canned results.
type fakeEndpoint[T Record] struct {
	mu       sync.Mutex
	list     []T
	err      error
	created  T
	updated  T
	calls    []string
	gotIDs   []string
	gotPatch map[string]any
	block    chan struct{}
}

func (f *fakeEndpoint[T]) record(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.err
}

func (f *fakeEndpoint[T]) List(ctx context.Context) ([]T, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	return f.list, nil
}

func (f *fakeEndpoint[T]) Create(ctx context.Context, data T) (T, error) {
	var zero T
	if err := f.record("create"); err != nil {
		return zero, err
	}
	return f.created, nil
}

func (f *fakeEndpoint[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	f.gotPatch = patch
	if err := f.record("update " + id); err != nil {
		return zero, err
	}
	return f.updated, nil
}

func (f *fakeEndpoint[T]) Delete(ctx context.Context, id string) error {
	return f.record("delete " + id)
}

func (f *fakeEndpoint[T]) BulkDelete(ctx context.Context, ids []string) error {
	f.gotIDs = ids
	return f.record("bulk-delete")
}

func (f *fakeEndpoint[T]) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func employee(id, first, last, status string, hiredDaysAgo int) *types.Employee {
	e := &types.Employee{FirstName: first, LastName: last, Status: status}
	e.HiredAt = base.AddDate(0, 0, -hiredDaysAgo)
	e.Stamp(id, base, base)
	return e
}

func employeeStore(items ...*types.Employee) (*Store[*types.Employee], *fakeEndpoint[*types.Employee]) {
	ep := &fakeEndpoint[*types.Employee]{}
	s := New[*types.Employee](types.ResourceEmployees, ep,
		WithSearch(MatchFields[*types.Employee](types.SearchFields(types.ResourceEmployees)...)))
	s.SetItems(items)
	return s, ep
}

func ids[T Record](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.RecordID()
	}
	return out
}
