package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/model"
)

const (
	// StreamName is the name of the concierge event stream.
	StreamName = "CONCIERGE"

	// SubjectPrefix is the prefix for all concierge subjects.
	SubjectPrefix = "concierge"
)

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, event *model.Event) error
}

// NopPublisher drops every event. It is used when NATS is disabled.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, *model.Event) error { return nil }

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream creates the concierge stream or updates its configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	_, err := m.client.JetStream().CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  2 * time.Minute,
		Description: "Booking lifecycle and chat turn events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Subject returns the subject an event is published on,
// e.g. concierge.booking.created.
func Subject(eventType model.EventType) string {
	return SubjectPrefix + "." + string(eventType)
}

// Publish publishes an event. The event id doubles as the JetStream
// message id so retried publishes are deduplicated.
func (m *StreamManager) Publish(ctx context.Context, event *model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var opts []jetstream.PublishOpt
	if event.ID != "" {
		opts = append(opts, jetstream.WithMsgID(event.ID))
	}
	if _, err := m.client.JetStream().Publish(ctx, Subject(event.Type), data, opts...); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "failed to publish event", err)
	}
	return nil
}

// Recent returns up to limit stored events of the given type, oldest first.
func (m *StreamManager) Recent(ctx context.Context, eventType model.EventType, limit int) ([]model.Event, error) {
	consumer, err := m.client.JetStream().CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject:     Subject(eventType),
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		InactiveThreshold: time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	events := make([]model.Event, 0, limit)
	for msg := range batch.Messages() {
		var event model.Event
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			continue
		}
		events = append(events, event)
	}

	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, jetstream.ErrNoMessages) {
		return nil, fmt.Errorf("batch error: %w", err)
	}
	return events, nil
}
