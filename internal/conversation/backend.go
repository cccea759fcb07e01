package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/model"
)

// errMiss reports an absent conversation. It is not an upstream failure, so
// it never flips the key-value store into fallback mode.
var errMiss = errors.New("conversation: not found")

type backend interface {
	load(ctx context.Context, id string) ([]model.ChatMessage, error)
	save(ctx context.Context, id string, msgs []model.ChatMessage, ttl time.Duration) error
	remove(ctx context.Context, id string) error
}

func conversationKey(id string) string {
	return fmt.Sprintf("conversation:%s", id)
}

type redisBackend struct {
	client *redis.Client
}

func (b *redisBackend) load(ctx context.Context, id string) ([]model.ChatMessage, error) {
	data, err := b.client.Get(ctx, conversationKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errMiss
		}
		return nil, apperr.Wrap(apperr.KindUpstream, "redis get", err)
	}
	var msgs []model.ChatMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("conversation: failed to decode history: %w", err)
	}
	if len(msgs) == 0 {
		return nil, errMiss
	}
	return msgs, nil
}

func (b *redisBackend) save(ctx context.Context, id string, msgs []model.ChatMessage, ttl time.Duration) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("conversation: failed to marshal history: %w", err)
	}
	if err := b.client.Set(ctx, conversationKey(id), data, ttl).Err(); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "redis set", err)
	}
	return nil
}

func (b *redisBackend) remove(ctx context.Context, id string) error {
	if err := b.client.Del(ctx, conversationKey(id)).Err(); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "redis del", err)
	}
	return nil
}

type memoryEntry struct {
	msgs      []model.ChatMessage
	expiresAt time.Time
}

// memoryBackend is the in-process fallback. Expired entries read as misses.
type memoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func newMemoryBackend(now func() time.Time) *memoryBackend {
	return &memoryBackend{entries: make(map[string]memoryEntry), now: now}
}

func (b *memoryBackend) load(_ context.Context, id string) ([]model.ChatMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[id]
	if !ok || !b.now().Before(e.expiresAt) {
		return nil, errMiss
	}
	out := make([]model.ChatMessage, len(e.msgs))
	copy(out, e.msgs)
	return out, nil
}

func (b *memoryBackend) save(_ context.Context, id string, msgs []model.ChatMessage, ttl time.Duration) error {
	stored := make([]model.ChatMessage, len(msgs))
	copy(stored, msgs)
	b.mu.Lock()
	b.entries[id] = memoryEntry{msgs: stored, expiresAt: b.now().Add(ttl)}
	b.mu.Unlock()
	return nil
}

func (b *memoryBackend) remove(_ context.Context, id string) error {
	b.mu.Lock()
	delete(b.entries, id)
	b.mu.Unlock()
	return nil
}

func (b *memoryBackend) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
