package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/catalog"
	"github.com/villa-concierge/concierge-platform/internal/concierge"
	"github.com/villa-concierge/concierge-platform/internal/conversation"
	"github.com/villa-concierge/concierge-platform/internal/formatter"
	"github.com/villa-concierge/concierge-platform/internal/intent"
	"github.com/villa-concierge/concierge-platform/internal/llm"
	"github.com/villa-concierge/concierge-platform/internal/model"
)

type stubModel struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []*llm.CompletionRequest
}

func (m *stubModel) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Content: m.reply, Model: "stub"}, nil
}

func (m *stubModel) Name() string { return "stub" }

func (m *stubModel) last() *llm.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

func newChatService(t *testing.T, client llm.Client) (*ChatService, *recordingPublisher) {
	t.Helper()
	bookings, _, _ := newBookingService(t)
	handlers := concierge.NewHandlers(catalog.Default(), concierge.NewBookingAssistant(bookings, nil))
	events := &recordingPublisher{}
	completer := llm.NewCompleter(client, llm.CompleterOptions{
		MaxRetries: 1,
		Sleep:      func(context.Context, time.Duration) error { return nil },
	})
	svc := NewChatService(ChatOptions{
		Conversations: conversation.NewStore(conversation.Options{}),
		Router:        handlers.Router(),
		Completer:     completer,
		Formatter:     formatter.New(rand.New(rand.NewPCG(1, 2))),
		Window:        conversation.NewWindow(4),
		Events:        events,
		Knowledge:     handlers.Restaurant.MenuText(),
	})
	return svc, events
}

func TestChatGreeting(t *testing.T) {
	svc, events := newChatService(t, nil)
	ctx := context.Background()

	resp, err := svc.Send(ctx, model.SendMessageRequest{Message: "ciao", SessionID: "s1"}, "")
	require.NoError(t, err)

	assert.Equal(t, string(intent.SimpleGreeting), resp.Intent)
	assert.Equal(t, intent.SourceGreeting, resp.Source)
	assert.Equal(t, "it", resp.Language)
	assert.False(t, resp.Authenticated)
	assert.LessOrEqual(t, utf8.RuneCountInString(resp.Message), 150)

	history := svc.conversations.Get(ctx, "s1")
	require.Len(t, history, 3)
	assert.Equal(t, model.RoleSystem, history[0].Role)
	assert.Equal(t, model.UserMessage("ciao"), history[1])
	assert.Equal(t, model.AssistantMessage(resp.Message), history[2])

	assert.Equal(t, []model.EventType{model.EventChatTurn}, events.types())
	assert.Equal(t, "s1", events.events[0].SessionID)
}

func TestChatRestaurantHours(t *testing.T) {
	svc, _ := newChatService(t, nil)

	resp, err := svc.Send(context.Background(), model.SendMessageRequest{Message: "Quali sono gli orari del ristorante?"}, "")
	require.NoError(t, err)

	assert.Equal(t, string(intent.RestaurantInfo), resp.Intent)
	assert.Equal(t, intent.SourceCatalog, resp.Source)
	assert.Contains(t, resp.Message, "12:30 - 14:30")
	assert.Contains(t, resp.Message, "19:30 - 22:30")
	assert.NotEmpty(t, resp.SessionID, "a session id is generated")
}

func TestChatGenericGoesToModel(t *testing.T) {
	stub := &stubModel{reply: "La villa risale al Cinquecento."}
	svc, _ := newChatService(t, stub)
	ctx := context.Background()

	resp, err := svc.Send(ctx, model.SendMessageRequest{Message: "Raccontami la storia della villa", SessionID: "s2"}, "u1")
	require.NoError(t, err)

	assert.Equal(t, string(intent.Generic), resp.Intent)
	assert.Equal(t, intent.SourceLLM, resp.Source)
	assert.Equal(t, "La villa risale al Cinquecento.", resp.Message)
	assert.True(t, resp.Authenticated)

	req := stub.last()
	require.NotNil(t, req)
	assert.Contains(t, req.System, conversation.Persona)
	assert.Contains(t, req.System, "rispondi in italiano")
	assert.Contains(t, req.System, "ANTIPASTI:")
	require.NotEmpty(t, req.Messages)
	assert.Equal(t, model.UserMessage("Raccontami la storia della villa"), req.Messages[len(req.Messages)-1])

	// The stored system message never carries per-turn context.
	history := svc.conversations.Get(ctx, "s2")
	assert.Equal(t, conversation.Persona, history[0].Content)
}

func TestChatWindowBoundsPrompt(t *testing.T) {
	stub := &stubModel{reply: "Certo."}
	svc, _ := newChatService(t, stub)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Send(ctx, model.SendMessageRequest{Message: "Parlami della Toscana", SessionID: "s3"}, "")
		require.NoError(t, err)
	}
	assert.Len(t, stub.last().Messages, 4)
	assert.Len(t, svc.conversations.Get(ctx, "s3"), 11)
}

func TestChatModelOutageFallsBack(t *testing.T) {
	stub := &stubModel{err: apperr.Wrap(apperr.KindUpstream, "down", errors.New("503"))}
	svc, _ := newChatService(t, stub)

	resp, err := svc.Send(context.Background(), model.SendMessageRequest{Message: "Parlami della Toscana"}, "")
	require.NoError(t, err)
	assert.Equal(t, intent.SourceFallback, resp.Source)
	assert.Equal(t, llm.Apology, resp.Message)
	assert.False(t, svc.LLMAvailable())
}

func TestChatRequiresMessage(t *testing.T) {
	svc, _ := newChatService(t, nil)

	_, err := svc.Send(context.Background(), model.SendMessageRequest{Message: "   "}, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Il messaggio è obbligatorio", apperr.MessageOf(err))
}

func TestChatClearAndHistory(t *testing.T) {
	svc, _ := newChatService(t, nil)
	ctx := context.Background()

	id := svc.Init(ctx, "")
	assert.NotEmpty(t, id)
	assert.Equal(t, "given", svc.Init(ctx, "given"))

	_, err := svc.Send(ctx, model.SendMessageRequest{Message: "ciao", SessionID: id}, "")
	require.NoError(t, err)

	hist, err := svc.History(ctx, id)
	require.NoError(t, err)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, model.RoleUser, hist.Messages[0].Role)

	require.NoError(t, svc.Clear(ctx, id))
	require.NoError(t, svc.Clear(ctx, id))
	assert.Len(t, svc.conversations.Get(ctx, id), 1)

	hist, err = svc.History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, hist.Messages)

	assert.ErrorIs(t, svc.Clear(ctx, ""), apperr.ErrValidation)
}
