package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/villa-concierge/concierge-platform/internal/middleware"
	"github.com/villa-concierge/concierge-platform/internal/model"
	"github.com/villa-concierge/concierge-platform/internal/service"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
)

// SessionHeader may carry the session id instead of the request body.
const SessionHeader = "X-Session-ID"

// ChatHandler handles chat endpoints.
type ChatHandler struct {
	chat   *service.ChatService
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: log.Named("chat_handler"),
	}
}

func sessionID(r *http.Request, fromBody string) string {
	if id := strings.TrimSpace(fromBody); id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get(SessionHeader))
}

// Message handles POST /api/chat/message
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	req.SessionID = sessionID(r, req.SessionID)

	if err := middleware.ValidateSessionID(req.SessionID); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	resp, err := h.chat.Send(r.Context(), req, middleware.GetUserID(r.Context()))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Init handles POST /api/chat/init
func (h *ChatHandler) Init(w http.ResponseWriter, r *http.Request) {
	var req model.InitSessionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	id := sessionID(r, req.SessionID)
	if err := middleware.ValidateSessionID(id); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, model.InitSessionResponse{SessionID: h.chat.Init(r.Context(), id)})
}

// ClearHistory handles POST /api/chat/clear-history
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	var req model.ClearHistoryRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if err := h.chat.Clear(r.Context(), sessionID(r, req.SessionID)); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// History handles GET /api/chat/history/{sessionId}
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionId")
	if err := middleware.ValidateSessionID(id); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	resp, err := h.chat.History(r.Context(), id)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
