package store

// PageResult is one page of the derived view.
type PageResult[T Record] struct {
	Items []T
	Page  int // zero-based
	Size  int
	Total int // items in the derived view
	Pages int
}

// HasNext reports whether a later page exists.
func (p PageResult[T]) HasNext() bool { return p.Page+1 < p.Pages }

// SetPage moves the cursor to page n (zero-based), clamped to the last page.
func (s *Store[T]) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = max(n, 0)
	s.clampPageLocked()
}

// SetPageSize changes the page size and returns to the first page.
func (s *Store[T]) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
	s.page = 0
}

// Page returns the current page of the derived view.
func (s *Store[T]) Page() PageResult[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view := s.deriveLocked()
	pages := pageCount(len(view), s.pageSize)
	page := min(s.page, max(pages-1, 0))
	start := min(page*s.pageSize, len(view))
	end := min(start+s.pageSize, len(view))
	return PageResult[T]{
		Items: view[start:end],
		Page:  page,
		Size:  s.pageSize,
		Total: len(view),
		Pages: pages,
	}
}

func (s *Store[T]) clampPageLocked() {
	pages := pageCount(len(s.deriveLocked()), s.pageSize)
	if s.page >= pages {
		s.page = max(pages-1, 0)
	}
}

func pageCount(total, size int) int {
	if total == 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
