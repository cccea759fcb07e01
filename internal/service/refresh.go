package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/connmgr"
	"github.com/villa-concierge/concierge-platform/internal/model"
)

const refreshOpTimeout = 3 * time.Second

var errRefreshMissing = apperr.E(apperr.KindAuth, "invalid refresh token")

func refreshKey(tokenID string) string {
	return "refresh_token:" + tokenID
}

// RefreshStore keeps refresh token records in Redis and in process memory
// while Redis is unavailable.
type RefreshStore struct {
	redis   *redis.Client
	manager *connmgr.Manager
	now     func() time.Time

	mu     sync.Mutex
	memory map[string]model.RefreshToken
}

// NewRefreshStore creates a refresh token store. A nil client keeps tokens
// in memory only.
func NewRefreshStore(client *redis.Client, manager *connmgr.Manager) *RefreshStore {
	return &RefreshStore{
		redis:   client,
		manager: manager,
		now:     time.Now,
		memory:  make(map[string]model.RefreshToken),
	}
}

// Save stores rec until its ExpiresAt.
func (s *RefreshStore) Save(ctx context.Context, rec model.RefreshToken) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return apperr.Validation("refresh token already expired")
	}
	if s.redis == nil {
		return s.saveMemory(ctx, rec)
	}
	return connmgr.Do(ctx, s.manager, connmgr.Redis,
		func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, refreshOpTimeout)
			defer cancel()
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("marshal refresh token: %w", err)
			}
			if err := s.redis.Set(ctx, refreshKey(rec.TokenID), data, ttl).Err(); err != nil {
				return apperr.Wrap(apperr.KindUpstream, "redis set refresh token", err)
			}
			return nil
		},
		func(ctx context.Context) error { return s.saveMemory(ctx, rec) },
	)
}

// Consume atomically redeems tokenID when its stored hash equals valueHash.
// The record is deleted in the same step, so of several concurrent callers
// presenting one token only the first gets the record; the rest see an auth
// error.
func (s *RefreshStore) Consume(ctx context.Context, tokenID, valueHash string) (model.RefreshToken, error) {
	if s.redis == nil {
		return s.consumeMemory(ctx, tokenID, valueHash)
	}
	return connmgr.WithFallback(ctx, s.manager, connmgr.Redis,
		func(ctx context.Context) (model.RefreshToken, error) {
			ctx, cancel := context.WithTimeout(ctx, refreshOpTimeout)
			defer cancel()
			return s.consumeRedis(ctx, tokenID, valueHash)
		},
		func(ctx context.Context) (model.RefreshToken, error) { return s.consumeMemory(ctx, tokenID, valueHash) },
	)
}

func (s *RefreshStore) consumeRedis(ctx context.Context, tokenID, valueHash string) (model.RefreshToken, error) {
	key := refreshKey(tokenID)
	var (
		rec      model.RefreshToken
		inMemory bool
	)
	err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			inMemory = true
			return nil
		}
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("decode refresh token: %w", err)
		}
		if !hashEqual(rec.ValueHash, valueHash) {
			return errRefreshMissing
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	switch {
	case inMemory:
		// Issued during an outage.
		return s.consumeMemory(ctx, tokenID, valueHash)
	case errors.Is(err, redis.TxFailedErr):
		// Another caller redeemed the token first.
		return model.RefreshToken{}, errRefreshMissing
	case errors.Is(err, errRefreshMissing):
		return model.RefreshToken{}, err
	case err != nil:
		return model.RefreshToken{}, apperr.Wrap(apperr.KindUpstream, "redis consume refresh token", err)
	}
	return rec, nil
}

// Delete removes tokenID from both backends. Deleting an unknown token is not an error.
func (s *RefreshStore) Delete(ctx context.Context, tokenID string) error {
	_ = s.deleteMemory(ctx, tokenID)
	if s.redis == nil {
		return nil
	}
	return connmgr.Do(ctx, s.manager, connmgr.Redis,
		func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, refreshOpTimeout)
			defer cancel()
			if err := s.redis.Del(ctx, refreshKey(tokenID)).Err(); err != nil {
				return apperr.Wrap(apperr.KindUpstream, "redis delete refresh token", err)
			}
			return nil
		},
		func(context.Context) error { return nil },
	)
}

func (s *RefreshStore) saveMemory(_ context.Context, rec model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory[rec.TokenID] = rec
	return nil
}

func (s *RefreshStore) consumeMemory(_ context.Context, tokenID, valueHash string) (model.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.memory[tokenID]
	if !ok {
		return model.RefreshToken{}, errRefreshMissing
	}
	if !s.now().Before(rec.ExpiresAt) {
		delete(s.memory, tokenID)
		return model.RefreshToken{}, errRefreshMissing
	}
	if !hashEqual(rec.ValueHash, valueHash) {
		return model.RefreshToken{}, errRefreshMissing
	}
	delete(s.memory, tokenID)
	return rec, nil
}

func hashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *RefreshStore) deleteMemory(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memory, tokenID)
	return nil
}
