package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/conversation"
	"github.com/villa-concierge/concierge-platform/internal/formatter"
	"github.com/villa-concierge/concierge-platform/internal/intent"
	"github.com/villa-concierge/concierge-platform/internal/language"
	"github.com/villa-concierge/concierge-platform/internal/llm"
	"github.com/villa-concierge/concierge-platform/internal/model"
	natsclient "github.com/villa-concierge/concierge-platform/internal/nats"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
	"github.com/villa-concierge/concierge-platform/pkg/metrics"
)

// ErrMessageRequired is returned for an empty chat message.
var ErrMessageRequired = apperr.Validation("Il messaggio è obbligatorio")

// ChatOptions wires the collaborators of a ChatService.
type ChatOptions struct {
	Conversations *conversation.Store
	Router        *intent.Router
	Completer     *llm.Completer
	Formatter     *formatter.Formatter
	Window        conversation.Window
	Events        natsclient.Publisher
	Logger        *logger.Logger

	// Knowledge is appended to the system prompt of every completion, e.g.
	// the restaurant menu.
	Knowledge string
}

// ChatService answers guest messages: catalog and booking questions are
// answered by the intent router, everything else by the completion model.
type ChatService struct {
	conversations *conversation.Store
	router        *intent.Router
	completer     *llm.Completer
	formatter     *formatter.Formatter
	window        conversation.Window
	events        natsclient.Publisher
	knowledge     string
	logger        *logger.Logger
	now           func() time.Time
}

// NewChatService creates a new chat service.
func NewChatService(opts ChatOptions) *ChatService {
	if opts.Formatter == nil {
		opts.Formatter = formatter.New(nil)
	}
	if opts.Window.Size <= 0 {
		opts.Window = conversation.NewWindow(0)
	}
	if opts.Events == nil {
		opts.Events = natsclient.NopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Completer == nil {
		opts.Completer = llm.NewCompleter(nil, llm.CompleterOptions{})
	}
	if opts.Router == nil {
		opts.Router = intent.NewRouter()
	}
	return &ChatService{
		conversations: opts.Conversations,
		router:        opts.Router,
		completer:     opts.Completer,
		formatter:     opts.Formatter,
		window:        opts.Window,
		events:        opts.Events,
		knowledge:     strings.TrimSpace(opts.Knowledge),
		logger:        opts.Logger.Named("chat"),
		now:           time.Now,
	}
}

// Init prepares a session, generating an id when sessionID is empty.
func (s *ChatService) Init(ctx context.Context, sessionID string) string {
	if sessionID = strings.TrimSpace(sessionID); sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.conversations.Init(ctx, sessionID)
	return sessionID
}

// Send answers one guest message and records the turn. userID is empty for
// anonymous guests.
func (s *ChatService) Send(ctx context.Context, req model.SendMessageRequest, userID string) (*model.SendMessageResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrMessageRequired
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	lang := language.Code(msg)
	history := s.conversations.Get(ctx, sessionID)

	res := s.router.Route(ctx, intent.Request{
		Message:   msg,
		Language:  lang,
		UserID:    userID,
		SessionID: sessionID,
	})

	reply, source := res.Reply, res.Source
	if !res.Handled {
		prompt := append(conversation.WithContext(history, s.promptContext(lang)), model.UserMessage(msg))
		out := s.completer.Complete(ctx, s.window.Apply(prompt))
		if out.Fallback {
			reply, source = out.Content, intent.SourceFallback
		} else {
			reply, source = s.formatter.Enhance(out.Content, msg), intent.SourceLLM
		}
	}

	history = append(history, model.UserMessage(msg), model.AssistantMessage(reply))
	if err := s.conversations.Update(ctx, sessionID, history); err != nil {
		// The guest still gets the answer; only the turn is lost.
		s.logger.Warn("failed to store conversation turn", zap.String("session_id", sessionID), zap.Error(err))
	}

	metrics.RecordChat(string(res.Intent), source, lang)
	s.publishTurn(ctx, sessionID, userID, res.Intent, source, lang)

	return &model.SendMessageResponse{
		Message:       reply,
		SessionID:     sessionID,
		Source:        source,
		Language:      lang,
		Intent:        string(res.Intent),
		Authenticated: userID != "",
	}, nil
}

// Clear forgets a session. Clearing an unknown session succeeds.
func (s *ChatService) Clear(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperr.Validation("sessionId is required")
	}
	if err := s.conversations.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("failed to clear conversation", zap.String("session_id", sessionID), zap.Error(err))
	}
	return nil
}

// History returns the guest-visible turns of a session.
func (s *ChatService) History(ctx context.Context, sessionID string) (*model.HistoryResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperr.Validation("sessionId is required")
	}
	msgs := s.conversations.Get(ctx, sessionID)
	visible := make([]model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role != model.RoleSystem {
			visible = append(visible, m)
		}
	}
	return &model.HistoryResponse{SessionID: sessionID, Messages: visible}, nil
}

// LLMAvailable reports whether completions are served by the model.
func (s *ChatService) LLMAvailable() bool {
	return !s.completer.InFallback()
}

func (s *ChatService) promptContext(lang string) string {
	instruction := fmt.Sprintf("L'ospite scrive in %s: rispondi in %s.", language.Name(lang), language.Name(lang))
	if s.knowledge == "" {
		return instruction
	}
	return instruction + "\n\n" + s.knowledge
}

func (s *ChatService) publishTurn(ctx context.Context, sessionID, userID string, in intent.Intent, source, lang string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	event := &model.Event{
		ID:        uuid.NewString(),
		Type:      model.EventChatTurn,
		UserID:    userID,
		SessionID: sessionID,
		Data: map[string]any{
			"intent":   string(in),
			"source":   source,
			"language": lang,
		},
		CreatedAt: s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish chat turn", zap.String("session_id", sessionID), zap.Error(err))
	}
}
