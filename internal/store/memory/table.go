package memory

import (
	"sync"
)

// table is one keyed entity map with its own lock. Rows are kept with their
// insertion order so listings are stable.
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[string]T
	order []string
	clone func(T) T
}

func newTable[T any](clone func(T) T) *table[T] {
	return &table[T]{rows: make(map[string]T), clone: clone}
}

// insertLocked requires t.mu held for writing.
func (t *table[T]) insertLocked(id string, v T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = t.clone(v)
}

func (t *table[T]) insert(id string, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.insertLocked(id, v)
}

func (t *table[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	return t.clone(v), true
}

// list returns copies of the rows accepted by keep, in insertion order. A nil
// keep accepts every row.
func (t *table[T]) list(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.listLocked(keep)
}

func (t *table[T]) listLocked(keep func(T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		v := t.rows[id]
		if keep == nil || keep(v) {
			out = append(out, t.clone(v))
		}
	}
	return out
}

// update applies mutate to a copy of the row and stores the result, all under
// the write lock. A mutate error leaves the row unchanged.
func (t *table[T]) update(id string, mutate func(*T) error) (T, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false, nil
	}
	next := t.clone(current)
	if err := mutate(&next); err != nil {
		var zero T
		return zero, true, err
	}
	t.rows[id] = t.clone(next)
	return t.clone(next), true, nil
}

func (t *table[T]) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}
