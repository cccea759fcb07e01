package nats

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/villa-concierge/concierge-platform/internal/model"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "concierge.booking.created", Subject(model.EventBookingCreated))
	assert.Equal(t, "concierge.booking.status_changed", Subject(model.EventBookingStatusChanged))
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), &model.Event{Type: model.EventChatTurn}))
}

func TestStreamManagerPublishAndRecent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping nats container test in short mode")
	}
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10",
			Cmd:          []string{"-js"},
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222")
	require.NoError(t, err)

	client, err := Connect(ctx, Config{URL: fmt.Sprintf("nats://%s:%s", host, port.Port())}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(client.Close)
	require.NoError(t, client.Ping(ctx))

	streams := NewStreamManager(client)
	require.NoError(t, streams.EnsureStream(ctx))
	// Idempotent.
	require.NoError(t, streams.EnsureStream(ctx))

	event := &model.Event{
		ID:        uuid.NewString(),
		Type:      model.EventBookingCreated,
		UserID:    "user-1",
		BookingID: "65a1f0c2e4b0a1b2c3d4e5f6",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, streams.Publish(ctx, event))
	// Same message id inside the duplicate window is dropped by the server.
	require.NoError(t, streams.Publish(ctx, event))
	require.NoError(t, streams.Publish(ctx, &model.Event{
		ID:   uuid.NewString(),
		Type: model.EventBookingStatusChanged,
	}))

	events, err := streams.Recent(ctx, model.EventBookingCreated, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.BookingID, events[0].BookingID)
}
