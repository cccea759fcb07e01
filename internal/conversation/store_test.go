package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villa-concierge/concierge-platform/internal/connmgr"
	"github.com/villa-concierge/concierge-platform/internal/model"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newRedisStore(t *testing.T) (*Store, *miniredis.Miniredis, *connmgr.Manager, *fakeClock) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m := connmgr.New(nil, connmgr.Options{Attempts: 1, Backoff: time.Millisecond})
	m.Register(connmgr.Redis, connmgr.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	require.True(t, m.Connect(context.Background(), connmgr.Redis))

	clock := &fakeClock{t: time.Date(2024, 8, 10, 12, 0, 0, 0, time.UTC)}
	s := NewStore(Options{Redis: client, Manager: m, Now: clock.now})
	return s, mr, m, clock
}

func TestInitSeedsSystemMessageWithTTL(t *testing.T) {
	s, mr, _, _ := newRedisStore(t)

	msgs := s.Init(context.Background(), "s1")

	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleSystem, msgs[0].Role)
	assert.True(t, mr.Exists("conversation:s1"))
	assert.Equal(t, 24*time.Hour, mr.TTL("conversation:s1"))
}

func TestGetInitializesOnMiss(t *testing.T) {
	s, mr, _, _ := newRedisStore(t)

	msgs := s.Get(context.Background(), "fresh")

	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleSystem, msgs[0].Role)
	assert.True(t, mr.Exists("conversation:fresh"))
}

func TestUpdateThenGet(t *testing.T) {
	s, mr, _, _ := newRedisStore(t)
	ctx := context.Background()

	msgs := s.Get(ctx, "s1")
	msgs = append(msgs, model.UserMessage("ciao"), model.AssistantMessage("Benvenuto!"))
	require.NoError(t, s.Update(ctx, "s1", msgs))

	got := s.Get(ctx, "s1")
	assert.Equal(t, msgs, got)
	assert.Equal(t, 24*time.Hour, mr.TTL("conversation:s1"))
}

func TestGetAfterClearReturnsOnlySystemMessage(t *testing.T) {
	s, mr, _, _ := newRedisStore(t)
	ctx := context.Background()

	msgs := append(s.Get(ctx, "s1"), model.UserMessage("ciao"), model.AssistantMessage("Salve!"))
	require.NoError(t, s.Update(ctx, "s1", msgs))

	require.NoError(t, s.Clear(ctx, "s1"))
	assert.False(t, mr.Exists("conversation:s1"))
	require.NoError(t, s.Clear(ctx, "s1"), "clear is idempotent")

	got := s.Get(ctx, "s1")
	require.Len(t, got, 1)
	assert.Equal(t, model.RoleSystem, got[0].Role)
}

func TestFallsBackToMemoryWhenRedisDown(t *testing.T) {
	s, mr, m, _ := newRedisStore(t)
	ctx := context.Background()

	mr.Close()

	msgs := append(s.Get(ctx, "s1"), model.UserMessage("ciao"))
	assert.False(t, m.IsAvailable(connmgr.Redis))
	require.NoError(t, s.Update(ctx, "s1", msgs))

	got := s.Get(ctx, "s1")
	assert.Equal(t, msgs, got)
	assert.Equal(t, 1, s.memory.size())
}

func TestMemoryOnlyStore(t *testing.T) {
	s := NewStore(Options{})
	ctx := context.Background()

	msgs := append(s.Get(ctx, "s1"), model.UserMessage("hello"))
	require.NoError(t, s.Update(ctx, "s1", msgs))
	assert.Len(t, s.Get(ctx, "s1"), 2)

	require.NoError(t, s.Clear(ctx, "s1"))
	assert.Len(t, s.Get(ctx, "s1"), 1)
}

func TestSweepEvictsStaleConversations(t *testing.T) {
	s, mr, _, clock := newRedisStore(t)
	ctx := context.Background()

	s.Init(ctx, "old")
	clock.t = clock.t.Add(20 * time.Hour)
	s.Init(ctx, "recent")
	clock.t = clock.t.Add(5 * time.Hour)

	assert.Equal(t, 1, s.Sweep(ctx))
	assert.False(t, mr.Exists("conversation:old"))
	assert.True(t, mr.Exists("conversation:recent"))
	assert.Equal(t, 0, s.Sweep(ctx))
}

func TestMemoryEntriesExpire(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 8, 10, 12, 0, 0, 0, time.UTC)}
	s := NewStore(Options{Now: clock.now, TTL: time.Hour})
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "s1", []model.ChatMessage{model.SystemMessage(Persona), model.UserMessage("hi")}))
	clock.t = clock.t.Add(2 * time.Hour)

	assert.Len(t, s.Get(ctx, "s1"), 1)
}
