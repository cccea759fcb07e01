package store

import (
	"context"

	"github.com/villa-concierge/concierge-platform/internal/connmgr"
)

// FallbackRepository routes every operation to the primary backend while it
// is available and to an in-process repository otherwise. Writes made during
// an outage stay in process; they are not replayed into the primary.
type FallbackRepository[T Document] struct {
	primary Repository[T]
	memory  Repository[T]
	manager *connmgr.Manager
	backend string
}

// NewFallbackRepository combines a primary and an in-memory repository. A nil
// primary always serves from memory.
func NewFallbackRepository[T Document](primary, memory Repository[T], manager *connmgr.Manager, backend string) *FallbackRepository[T] {
	return &FallbackRepository[T]{
		primary: primary,
		memory:  memory,
		manager: manager,
		backend: backend,
	}
}

func (r *FallbackRepository[T]) usePrimary() bool {
	return r.primary != nil
}

// Find implements Repository.
func (r *FallbackRepository[T]) Find(ctx context.Context, q Query) ([]T, error) {
	if !r.usePrimary() {
		return r.memory.Find(ctx, q)
	}
	return connmgr.WithFallback(ctx, r.manager, r.backend,
		func(ctx context.Context) ([]T, error) { return r.primary.Find(ctx, q) },
		func(ctx context.Context) ([]T, error) { return r.memory.Find(ctx, q) },
	)
}

// FindOne implements Repository.
func (r *FallbackRepository[T]) FindOne(ctx context.Context, q Query) (T, error) {
	if !r.usePrimary() {
		return r.memory.FindOne(ctx, q)
	}
	return connmgr.WithFallback(ctx, r.manager, r.backend,
		func(ctx context.Context) (T, error) { return r.primary.FindOne(ctx, q) },
		func(ctx context.Context) (T, error) { return r.memory.FindOne(ctx, q) },
	)
}

// Insert implements Repository.
func (r *FallbackRepository[T]) Insert(ctx context.Context, doc T) error {
	if !r.usePrimary() {
		return r.memory.Insert(ctx, doc)
	}
	return connmgr.Do(ctx, r.manager, r.backend,
		func(ctx context.Context) error { return r.primary.Insert(ctx, doc) },
		func(ctx context.Context) error { return r.memory.Insert(ctx, doc) },
	)
}

// Update implements Repository.
func (r *FallbackRepository[T]) Update(ctx context.Context, q Query, doc T) error {
	if !r.usePrimary() {
		return r.memory.Update(ctx, q, doc)
	}
	return connmgr.Do(ctx, r.manager, r.backend,
		func(ctx context.Context) error { return r.primary.Update(ctx, q, doc) },
		func(ctx context.Context) error { return r.memory.Update(ctx, q, doc) },
	)
}

// Delete implements Repository.
func (r *FallbackRepository[T]) Delete(ctx context.Context, q Query) (int64, error) {
	if !r.usePrimary() {
		return r.memory.Delete(ctx, q)
	}
	return connmgr.WithFallback(ctx, r.manager, r.backend,
		func(ctx context.Context) (int64, error) { return r.primary.Delete(ctx, q) },
		func(ctx context.Context) (int64, error) { return r.memory.Delete(ctx, q) },
	)
}
