// Package connmgr tracks the reachability of backing stores and routes
// operations to an in-process fallback when a store is down.
package connmgr

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
	"github.com/villa-concierge/concierge-platform/pkg/metrics"
)

// Backend names used across the service.
const (
	Mongo = "mongo"
	Redis = "redis"
	NATS  = "nats"
	LLM   = "llm"
)

// Pinger checks that a backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Options configures connection attempts and health checks.
type Options struct {
	Attempts    int
	Backoff     time.Duration
	PingTimeout time.Duration
}

type backend struct {
	pinger    Pinger
	available bool
	lastErr   error
}

// Manager owns the availability state of every registered backend.
type Manager struct {
	mu       sync.RWMutex
	backends map[string]*backend
	opts     Options
	logger   *logger.Logger
}

// New creates a manager. Zero options fall back to 3 attempts, 5s backoff and
// a 3s ping timeout.
func New(log *logger.Logger, opts Options) *Manager {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 5 * time.Second
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = 3 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{
		backends: make(map[string]*backend),
		opts:     opts,
		logger:   log.Named("connmgr"),
	}
}

// Register adds a backend. It starts unavailable until Connect or a health
// check succeeds.
func (m *Manager) Register(name string, p Pinger) {
	m.mu.Lock()
	m.backends[name] = &backend{pinger: p}
	m.mu.Unlock()
	metrics.SetBackendAvailable(name, false)
}

// Connect pings the backend up to Attempts times, sleeping Backoff between
// tries. It reports whether the backend ended up available.
func (m *Manager) Connect(ctx context.Context, name string) bool {
	for attempt := 1; attempt <= m.opts.Attempts; attempt++ {
		err := m.ping(ctx, name)
		if err == nil {
			m.setAvailable(name, true, nil)
			return true
		}
		m.logger.Warn("backend connection attempt failed",
			zap.String("backend", name),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		m.setAvailable(name, false, err)
		if attempt == m.opts.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(m.opts.Backoff):
		}
	}
	m.logger.Warn("backend unreachable, using fallback", zap.String("backend", name))
	return false
}

// IsAvailable reports whether the named backend is currently usable.
func (m *Manager) IsAvailable(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backends[name]
	return ok && b.available
}

// MarkUnavailable switches a backend to fallback mode until the next
// successful health check.
func (m *Manager) MarkUnavailable(name string, err error) {
	if m.IsAvailable(name) {
		m.logger.Warn("backend marked unavailable", zap.String("backend", name), zap.Error(err))
	}
	m.setAvailable(name, false, err)
}

// Status returns a snapshot of backend availability.
func (m *Manager) Status() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(m.backends))
	for name, b := range m.backends {
		out[name] = b.available
	}
	return out
}

// CheckAll pings every backend once and updates availability.
func (m *Manager) CheckAll(ctx context.Context) {
	for _, name := range m.names() {
		err := m.ping(ctx, name)
		was := m.IsAvailable(name)
		m.setAvailable(name, err == nil, err)
		switch {
		case err == nil && !was:
			m.logger.Info("backend reconnected", zap.String("backend", name))
		case err != nil && was:
			m.logger.Warn("backend health check failed", zap.String("backend", name), zap.Error(err))
		}
	}
}

// Run performs CheckAll every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

func (m *Manager) names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.backends))
	for name := range m.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) ping(ctx context.Context, name string) error {
	m.mu.RLock()
	b, ok := m.backends[name]
	m.mu.RUnlock()
	if !ok {
		return errors.New("backend not registered")
	}
	ctx, cancel := context.WithTimeout(ctx, m.opts.PingTimeout)
	defer cancel()
	return b.pinger.Ping(ctx)
}

func (m *Manager) setAvailable(name string, available bool, err error) {
	m.mu.Lock()
	if b, ok := m.backends[name]; ok {
		b.available = available
		b.lastErr = err
	}
	m.mu.Unlock()
	metrics.SetBackendAvailable(name, available)
}

// WithFallback runs primary when the backend is available and fallback
// otherwise. A primary failure classified as upstream marks the backend
// unavailable and is retried on the fallback path; domain errors are returned
// as they are.
func WithFallback[T any](ctx context.Context, m *Manager, name string, primary, fallback func(context.Context) (T, error)) (T, error) {
	if m != nil && m.IsAvailable(name) {
		v, err := primary(ctx)
		if err == nil || !errors.Is(err, apperr.ErrUpstream) {
			return v, err
		}
		m.MarkUnavailable(name, err)
	}
	metrics.RecordFallback(name)
	return fallback(ctx)
}

// Do is WithFallback for operations without a result.
func Do(ctx context.Context, m *Manager, name string, primary, fallback func(context.Context) error) error {
	_, err := WithFallback(ctx, m, name,
		func(ctx context.Context) (struct{}, error) { return struct{}{}, primary(ctx) },
		func(ctx context.Context) (struct{}, error) { return struct{}{}, fallback(ctx) },
	)
	return err
}
