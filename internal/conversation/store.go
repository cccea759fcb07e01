// Package conversation stores per-session chat histories in Redis, falling
// back to process memory while Redis is unreachable.
package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/villa-concierge/concierge-platform/internal/connmgr"
	"github.com/villa-concierge/concierge-platform/internal/model"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
	"github.com/villa-concierge/concierge-platform/pkg/metrics"
)

// DefaultTTL is how long an idle conversation is kept.
const DefaultTTL = 24 * time.Hour

// Options configures a Store.
type Options struct {
	// Redis is the primary backend. Nil keeps every conversation in memory.
	Redis *redis.Client

	Manager *connmgr.Manager
	TTL     time.Duration
	Logger  *logger.Logger
	Tracer  trace.Tracer

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Store implements Init, Get, Update and Clear over the primary and fallback
// backends. Concurrent updates of one session are last-write-wins.
type Store struct {
	primary  backend
	memory   *memoryBackend
	manager  *connmgr.Manager
	ttl      time.Duration
	logger   *logger.Logger
	tracer   trace.Tracer
	now      func() time.Time
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewStore creates a conversation store.
func NewStore(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("concierge.internal.conversation")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{
		memory:   newMemoryBackend(opts.Now),
		manager:  opts.Manager,
		ttl:      opts.TTL,
		logger:   opts.Logger.Named("conversation"),
		tracer:   opts.Tracer,
		now:      opts.Now,
		lastSeen: make(map[string]time.Time),
	}
	if opts.Redis != nil {
		s.primary = &redisBackend{client: opts.Redis}
	}
	return s
}

// Init seeds the session with the persona system message and returns it.
func (s *Store) Init(ctx context.Context, sessionID string) []model.ChatMessage {
	ctx, span := s.tracer.Start(ctx, "conversation.init", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	msgs := []model.ChatMessage{model.SystemMessage(Persona)}
	if err := s.save(ctx, sessionID, msgs); err != nil {
		span.RecordError(err)
		s.logger.Warn("failed to persist new conversation", zap.String("session_id", sessionID), zap.Error(err))
	}
	return msgs
}

// Get returns the session history, initializing it on a miss or store error.
// The result is never empty and starts with the system message.
func (s *Store) Get(ctx context.Context, sessionID string) []model.ChatMessage {
	ctx, span := s.tracer.Start(ctx, "conversation.get", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	msgs, err := s.load(ctx, sessionID)
	if err == nil {
		return ensureSystem(msgs)
	}
	if !errors.Is(err, errMiss) {
		span.RecordError(err)
		s.logger.Warn("failed to load conversation", zap.String("session_id", sessionID), zap.Error(err))
	}

	seeded := s.Init(ctx, sessionID)
	if msgs, err = s.load(ctx, sessionID); err == nil {
		return ensureSystem(msgs)
	}
	return seeded
}

// Update overwrites the session history and refreshes its expiry.
func (s *Store) Update(ctx context.Context, sessionID string, msgs []model.ChatMessage) error {
	ctx, span := s.tracer.Start(ctx, "conversation.update",
		trace.WithAttributes(attribute.String("session.id", sessionID), attribute.Int("messages", len(msgs))))
	defer span.End()

	if err := s.save(ctx, sessionID, ensureSystem(msgs)); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Clear deletes the session. The next Get starts a fresh conversation.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	ctx, span := s.tracer.Start(ctx, "conversation.clear", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	s.mu.Lock()
	delete(s.lastSeen, sessionID)
	s.mu.Unlock()

	// Both backends are cleared so a history written during an outage does
	// not resurface.
	_ = s.memory.remove(ctx, sessionID)
	if s.primary == nil {
		return nil
	}
	err := connmgr.Do(ctx, s.manager, connmgr.Redis,
		func(ctx context.Context) error { return s.primary.remove(ctx, sessionID) },
		func(context.Context) error { return nil },
	)
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Sweep evicts conversations untouched for longer than the TTL from both
// backends and reports how many were removed.
func (s *Store) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var stale []string
	for id, seen := range s.lastSeen {
		if seen.Before(cutoff) {
			stale = append(stale, id)
			delete(s.lastSeen, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		_ = s.memory.remove(ctx, id)
		if s.primary != nil && s.manager != nil && s.manager.IsAvailable(connmgr.Redis) {
			if err := s.primary.remove(ctx, id); err != nil {
				s.logger.Warn("failed to evict conversation", zap.String("session_id", id), zap.Error(err))
			}
		}
	}
	if len(stale) > 0 {
		metrics.ConversationsEvicted.Add(float64(len(stale)))
		s.logger.Info("evicted stale conversations", zap.Int("count", len(stale)))
	}
	return len(stale)
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

func (s *Store) load(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	if s.primary == nil {
		return s.memory.load(ctx, sessionID)
	}
	return connmgr.WithFallback(ctx, s.manager, connmgr.Redis,
		func(ctx context.Context) ([]model.ChatMessage, error) { return s.primary.load(ctx, sessionID) },
		func(ctx context.Context) ([]model.ChatMessage, error) { return s.memory.load(ctx, sessionID) },
	)
}

func (s *Store) save(ctx context.Context, sessionID string, msgs []model.ChatMessage) error {
	s.mu.Lock()
	s.lastSeen[sessionID] = s.now()
	s.mu.Unlock()

	if s.primary == nil {
		return s.memory.save(ctx, sessionID, msgs, s.ttl)
	}
	return connmgr.Do(ctx, s.manager, connmgr.Redis,
		func(ctx context.Context) error { return s.primary.save(ctx, sessionID, msgs, s.ttl) },
		func(ctx context.Context) error { return s.memory.save(ctx, sessionID, msgs, s.ttl) },
	)
}

// ensureSystem guarantees the leading system message invariant.
func ensureSystem(msgs []model.ChatMessage) []model.ChatMessage {
	if len(msgs) > 0 && msgs[0].Role == model.RoleSystem {
		return msgs
	}
	return append([]model.ChatMessage{model.SystemMessage(Persona)}, msgs...)
}
