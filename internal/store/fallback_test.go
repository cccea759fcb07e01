package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/connmgr"
	"github.com/villa-concierge/concierge-platform/internal/model"
)

// downRepository fails every call as an unreachable store would.
type downRepository struct {
	calls int
}

func (d *downRepository) err() error {
	d.calls++
	return apperr.Wrap(apperr.KindUpstream, "mongo find", errors.New("server selection timeout"))
}

func (d *downRepository) Find(context.Context, Query) ([]model.Booking, error) {
	return nil, d.err()
}

func (d *downRepository) FindOne(context.Context, Query) (model.Booking, error) {
	return model.Booking{}, d.err()
}

func (d *downRepository) Insert(context.Context, model.Booking) error { return d.err() }

func (d *downRepository) Update(context.Context, Query, model.Booking) error { return d.err() }

func (d *downRepository) Delete(context.Context, Query) (int64, error) { return 0, d.err() }

func TestFallbackRepositoryContract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) Repository[model.Booking] {
		m := connmgr.New(nil, connmgr.Options{Attempts: 1})
		return NewFallbackRepository[model.Booking](nil, NewMemoryRepository[model.Booking](), m, connmgr.Mongo)
	})
}

func TestFallbackRepositorySwitchesOnOutage(t *testing.T) {
	ctx := context.Background()
	m := connmgr.New(nil, connmgr.Options{Attempts: 1})
	m.Register(connmgr.Mongo, connmgr.PingFunc(func(context.Context) error { return nil }))
	require.True(t, m.Connect(ctx, connmgr.Mongo))

	down := &downRepository{}
	mem := NewMemoryRepository[model.Booking]()
	repo := NewFallbackRepository[model.Booking](down, mem, m, connmgr.Mongo)

	b := booking("000000000000000000000001", "u1", model.RoomSuite, 10, 12, model.StatusPending)
	require.NoError(t, repo.Insert(ctx, b))
	assert.Equal(t, 1, down.calls)
	assert.False(t, m.IsAvailable(connmgr.Mongo))
	assert.Equal(t, 1, mem.Len())

	got, err := repo.FindOne(ctx, Where(Eq("_id", b.ID)))
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, 1, down.calls, "primary is skipped while unavailable")
}
