package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// Load fetches every item from the endpoint and replaces the collection.
// On failure the collection is left unchanged.
func (s *Store[T]) Load(ctx context.Context) error {
	done := s.begin(OpLoad)
	defer done()

	items, err := s.endpoint.List(ctx)
	if err != nil {
		return s.failed(OpLoad, err)
	}
	if err := s.discarded(ctx, OpLoad); err != nil {
		return err
	}
	s.SetItems(items)
	s.log.Debug("loaded", "count", len(items))
	return nil
}

// Create sends data to the endpoint and appends the created item. An item
// with the same ID already loaded is replaced instead.
func (s *Store[T]) Create(ctx context.Context, data T) (T, error) {
	var zero T
	done := s.begin(OpCreate)
	defer done()

	created, err := s.endpoint.Create(ctx, data)
	if err != nil {
		return zero, s.failed(OpCreate, err)
	}
	if err := s.discarded(ctx, OpCreate); err != nil {
		return zero, err
	}

	s.mu.Lock()
	if i := s.indexLocked(created.RecordID()); i >= 0 {
		s.items[i] = created
	} else {
		s.items = append(s.items, created)
	}
	s.pruneSelectionLocked()
	s.clampPageLocked()
	s.mu.Unlock()
	s.log.Debug("created", "id", created.RecordID())
	return created, nil
}

// Update sends a partial patch for id and replaces the loaded item with the
// endpoint's result. A result carrying another id is an ErrTransport and is
// not reconciled.
func (s *Store[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	if id == "" {
		return zero, s.failed(OpUpdate, types.Validationf("empty id"))
	}
	done := s.begin(OpUpdate)
	defer done()

	updated, err := s.endpoint.Update(ctx, id, patch)
	if err != nil {
		return zero, s.failed(OpUpdate, err)
	}
	if err := s.discarded(ctx, OpUpdate); err != nil {
		return zero, err
	}
	if got := updated.RecordID(); got != id {
		return zero, s.failed(OpUpdate, fmt.Errorf("%w: response id %q does not match %q", types.ErrTransport, got, id))
	}

	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.items[i] = updated
	} else {
		s.items = append(s.items, updated)
	}
	s.pruneSelectionLocked()
	s.clampPageLocked()
	s.mu.Unlock()
	s.log.Debug("updated", "id", id)
	return updated, nil
}

// Delete removes id on the endpoint, then locally.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return s.failed(OpDelete, types.Validationf("empty id"))
	}
	done := s.begin(OpDelete)
	defer done()

	if err := s.endpoint.Delete(ctx, id); err != nil {
		return s.failed(OpDelete, err)
	}
	if err := s.discarded(ctx, OpDelete); err != nil {
		return err
	}
	s.removeLocal([]string{id})
	s.log.Debug("deleted", "id", id)
	return nil
}

// BulkDelete removes ids in a single endpoint call. The call is atomic from
// the store's point of view: on success every id leaves the collection and
// the selection, on failure nothing changes.
func (s *Store[T]) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return s.failed(OpBulkDelete, types.Validationf("no ids"))
	}
	if slices.Contains(ids, "") {
		return s.failed(OpBulkDelete, types.Validationf("empty id in list"))
	}
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))

	done := s.begin(OpBulkDelete)
	defer done()

	if err := s.endpoint.BulkDelete(ctx, ids); err != nil {
		return s.failed(OpBulkDelete, err)
	}
	if err := s.discarded(ctx, OpBulkDelete); err != nil {
		return err
	}
	s.removeLocal(ids)
	s.log.Debug("bulk deleted", "count", len(ids))
	return nil
}

// DeleteSelected bulk-deletes the current selection.
func (s *Store[T]) DeleteSelected(ctx context.Context) error {
	return s.BulkDelete(ctx, s.Selection())
}

func (s *Store[T]) removeLocal(ids []string) {
	gone := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		gone[id] = struct{}{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.DeleteFunc(s.items, func(it T) bool {
		_, ok := gone[it.RecordID()]
		return ok
	})
	s.pruneSelectionLocked()
	s.clampPageLocked()
}

func (s *Store[T]) failed(op Op, err error) error {
	s.log.Warn("call failed", "op", op, "error", err)
	return fmt.Errorf("%s %s: %w", op, s.resource, err)
}

// discarded returns a non-nil error when ctx ended while the call was in
// flight; the caller then skips reconciliation.
func (s *Store[T]) discarded(ctx context.Context, op Op) error {
	if err := ctx.Err(); err != nil {
		s.log.Debug("result discarded", "op", op)
		return fmt.Errorf("%s %s: result discarded: %w", op, s.resource, err)
	}
	return nil
}
