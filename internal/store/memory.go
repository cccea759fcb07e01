package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps documents in process. It mirrors MongoRepository's
// query semantics and is used whenever the document store is unreachable.
type MemoryRepository[T Document] struct {
	mu   sync.RWMutex
	docs map[string]T
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository[T Document]() *MemoryRepository[T] {
	return &MemoryRepository[T]{docs: make(map[string]T)}
}

// Find returns matching documents ordered by id.
func (r *MemoryRepository[T]) Find(_ context.Context, q Query) ([]T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0)
	for _, doc := range r.docs {
		if Matches(doc, q) {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID() < out[j].DocID() })
	return out, nil
}

// FindOne returns the first matching document by id order.
func (r *MemoryRepository[T]) FindOne(ctx context.Context, q Query) (T, error) {
	found, _ := r.Find(ctx, q)
	if len(found) == 0 {
		var zero T
		return zero, ErrNotFound
	}
	return found[0], nil
}

// Insert stores doc; the id must be unused.
func (r *MemoryRepository[T]) Insert(_ context.Context, doc T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.DocID()]; exists {
		return ErrDuplicate
	}
	r.docs[doc.DocID()] = doc
	return nil
}

// Update replaces the first document matching q with doc.
func (r *MemoryRepository[T]) Update(_ context.Context, q Query, doc T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.docs))
	for id, existing := range r.docs {
		if Matches(existing, q) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return ErrNotFound
	}
	sort.Strings(ids)
	delete(r.docs, ids[0])
	r.docs[doc.DocID()] = doc
	return nil
}

// Delete removes every document matching q.
func (r *MemoryRepository[T]) Delete(_ context.Context, q Query) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, doc := range r.docs {
		if Matches(doc, q) {
			delete(r.docs, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored documents.
func (r *MemoryRepository[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}
