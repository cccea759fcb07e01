package llm

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/model"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
	"github.com/villa-concierge/concierge-platform/pkg/metrics"
)

// Apology is the reply served while the completion API is unavailable.
const Apology = "Mi scusi, al momento non riesco a elaborare la sua richiesta. " +
	"La invitiamo a riprovare più tardi o a contattare la reception al numero interno 9."

var (
	errEmptyCompletion = apperr.E(apperr.KindUpstream, "empty completion")
	errNoClient        = apperr.E(apperr.KindUpstream, "no completion client configured")
)

// CompleterOptions configures a Completer.
type CompleterOptions struct {
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration

	Logger *logger.Logger
	Tracer trace.Tracer

	// Sleep waits between attempts; tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Reply is the outcome of one completion. Fallback is set when Content is
// the canned apology.
type Reply struct {
	Content  string
	Model    string
	Fallback bool
}

// Completer calls a Client with a per-call timeout and a bounded number of
// attempts. Once the attempts are exhausted it stays in fallback mode until
// Reset, answering every call with Apology.
type Completer struct {
	client Client
	opts   CompleterOptions
	logger *logger.Logger

	mu       sync.RWMutex
	fallback bool
}

// NewCompleter wraps client. A nil client starts in fallback mode.
func NewCompleter(client Client, opts CompleterOptions) *Completer {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("concierge.internal.llm")
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &Completer{
		client:   client,
		opts:     opts,
		logger:   opts.Logger.Named("llm"),
		fallback: client == nil,
	}
}

// InFallback reports whether the completer is serving the canned reply.
func (c *Completer) InFallback() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fallback
}

// Reset leaves fallback mode. It has no effect without a client.
func (c *Completer) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = c.client == nil
}

// Ping lets the connection manager health check the completion API. Outside
// fallback mode it does not call the provider. In fallback mode it sends a
// one-token request and leaves fallback mode when the provider answers.
func (c *Completer) Ping(ctx context.Context) error {
	if c.client == nil {
		return errNoClient
	}
	if !c.InFallback() {
		return nil
	}
	_, err := c.client.Complete(ctx, &CompletionRequest{
		Model:     c.opts.Model,
		Messages:  []model.ChatMessage{model.UserMessage("ping")},
		MaxTokens: 1,
	})
	if err != nil {
		return err
	}
	c.Reset()
	c.logger.Info("completion API reachable again, leaving fallback mode")
	return nil
}

// Provider returns the wrapped client's name, or "none".
func (c *Completer) Provider() string {
	if c.client == nil {
		return "none"
	}
	return c.client.Name()
}

// Complete asks the model to continue history. The system message of history
// becomes the system prompt. Complete never returns an error: failures are
// answered with Apology.
func (c *Completer) Complete(ctx context.Context, history []model.ChatMessage) Reply {
	if c.InFallback() {
		metrics.RecordFallback("llm")
		return Reply{Content: Apology, Fallback: true}
	}

	ctx, span := c.opts.Tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", c.client.Name()),
		attribute.Int("llm.history", len(history)),
	))
	defer span.End()

	system, turns := splitSystem(history)
	req := &CompletionRequest{
		Model:     c.opts.Model,
		System:    system,
		Messages:  turns,
		MaxTokens: c.opts.MaxTokens,
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.MaxRetries; attempt++ {
		resp, err := c.attempt(ctx, req)
		if err == nil {
			span.SetAttributes(
				attribute.Int("llm.attempts", attempt),
				attribute.Int("llm.tokens_in", resp.TokensIn),
				attribute.Int("llm.tokens_out", resp.TokensOut),
			)
			return Reply{Content: resp.Content, Model: resp.Model}
		}
		lastErr = err
		c.logger.Warn("completion attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.opts.MaxRetries),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
		if attempt < c.opts.MaxRetries {
			if err := c.opts.Sleep(ctx, c.opts.Backoff); err != nil {
				break
			}
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "completion unavailable")

	// A caller that gave up does not say anything about the provider.
	if ctx.Err() == nil {
		c.mu.Lock()
		c.fallback = true
		c.mu.Unlock()
		c.logger.Error("completion API unavailable, switching to fallback replies", zap.Error(lastErr))
	}
	metrics.RecordFallback("llm")
	return Reply{Content: Apology, Fallback: true}
}

func (c *Completer) attempt(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Complete(ctx, req)
	elapsed := time.Since(start).Seconds()

	modelName := req.Model
	if modelName == "" {
		modelName = c.client.Name()
	}
	if err != nil {
		metrics.RecordCompletion(modelName, "error", elapsed, 0, 0)
		return nil, err
	}
	if strings.TrimSpace(resp.Content) == "" {
		metrics.RecordCompletion(modelName, "empty", elapsed, resp.TokensIn, resp.TokensOut)
		return nil, errEmptyCompletion
	}
	metrics.RecordCompletion(modelName, "success", elapsed, resp.TokensIn, resp.TokensOut)
	return resp, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

