// Package model defines data structures for the concierge platform.
package model

// SendMessageRequest is the body of POST /api/chat/message.
type SendMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// SendMessageResponse is the reply to a chat message.
type SendMessageResponse struct {
	Message       string `json:"message"`
	SessionID     string `json:"sessionId"`
	Source        string `json:"source"`
	Language      string `json:"language"`
	Intent        string `json:"intent"`
	Authenticated bool   `json:"authenticated"`
}

// InitSessionRequest is the optional body of POST /api/chat/init.
type InitSessionRequest struct {
	SessionID string `json:"sessionId,omitempty"`
}

// InitSessionResponse carries the session ready for chatting.
type InitSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// ClearHistoryRequest is the body of POST /api/chat/clear-history.
type ClearHistoryRequest struct {
	SessionID string `json:"sessionId"`
}

// HistoryResponse lists the visible turns of a session.
type HistoryResponse struct {
	SessionID string        `json:"sessionId"`
	Messages  []ChatMessage `json:"messages"`
}
