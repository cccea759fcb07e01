package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/villa-concierge/concierge-platform/internal/catalog"
	"github.com/villa-concierge/concierge-platform/internal/concierge"
	"github.com/villa-concierge/concierge-platform/internal/connmgr"
	"github.com/villa-concierge/concierge-platform/internal/conversation"
	"github.com/villa-concierge/concierge-platform/internal/model"
	"github.com/villa-concierge/concierge-platform/internal/service"
	"github.com/villa-concierge/concierge-platform/internal/store"
)

type testServer struct {
	*httptest.Server
	auth *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	bookings := service.NewBookingService(store.NewMemoryRepository[model.Booking](), nil, nil)
	auth := service.NewAuthService(
		store.NewMemoryRepository[model.User](),
		service.NewRefreshStore(nil, nil),
		service.AuthOptions{Secret: "handler-test", BcryptCost: bcrypt.MinCost},
		nil,
	)
	handlers := concierge.NewHandlers(catalog.Default(), concierge.NewBookingAssistant(bookings, nil))
	chat := service.NewChatService(service.ChatOptions{
		Conversations: conversation.NewStore(conversation.Options{}),
		Router:        handlers.Router(),
	})

	manager := connmgr.New(nil, connmgr.Options{Attempts: 1})
	manager.Register(connmgr.Redis, connmgr.PingFunc(func(context.Context) error { return nil }))
	manager.Connect(context.Background(), connmgr.Redis)

	srv := httptest.NewServer(NewRouter(Deps{
		Chat:     chat,
		Bookings: bookings,
		Auth:     auth,
		Manager:  manager,
	}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, auth: auth}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var raw any
		if err := json.NewDecoder(resp.Body).Decode(&raw); err == nil {
			if m, ok := raw.(map[string]any); ok {
				out = m
			} else {
				out = map[string]any{"items": raw}
			}
		}
	}
	return resp, out
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])

	resp, body = srv.do(t, http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	// No completion API key: the model is down.
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"redis": true, "llm": false}, body["backends"])
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}

func TestChatEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodPost, "/api/chat/init", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessionID, _ := body["sessionId"].(string)
	require.NotEmpty(t, sessionID)

	resp, body = srv.do(t, http.MethodPost, "/api/chat/message",
		map[string]string{"message": "Quali sono gli orari del ristorante?"},
		map[string]string{SessionHeader: sessionID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, sessionID, body["sessionId"])
	assert.Equal(t, "catalog", body["source"])
	assert.Equal(t, "restaurant-info", body["intent"])
	assert.Equal(t, "it", body["language"])
	assert.Equal(t, false, body["authenticated"])
	assert.Contains(t, body["message"], "12:30 - 14:30")

	resp, body = srv.do(t, http.MethodGet, "/api/chat/history/"+sessionID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["messages"], 2)

	resp, body = srv.do(t, http.MethodPost, "/api/chat/clear-history", map[string]string{"sessionId": sessionID}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	_, body = srv.do(t, http.MethodGet, "/api/chat/history/"+sessionID, nil, nil)
	assert.Empty(t, body["messages"])
}

func TestChatMessageValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodPost, "/api/chat/message", map[string]string{"message": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Il messaggio è obbligatorio", body["error"])

	resp, _ = srv.do(t, http.MethodPost, "/api/chat/message", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/api/chat/message",
		map[string]string{"message": "ciao", "sessionId": "not a valid id"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatFallbackWithoutModel(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodPost, "/api/chat/message", map[string]string{"message": "Parlami della Toscana"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fallback", body["source"])
	assert.Equal(t, "generic", body["intent"])
}

func TestBookingEndpoints(t *testing.T) {
	srv := newTestServer(t)
	user := map[string]string{"X-User-Id": "u1"}

	resp, _ := srv.do(t, http.MethodGet, "/api/bookings", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := srv.do(t, http.MethodPost, "/api/bookings/check-availability",
		map[string]string{"checkIn": "2024-08-10", "checkOut": "2024-08-12", "roomType": "Suite"}, user)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["available"])
	assert.Empty(t, body["conflicts"])

	create := map[string]any{
		"guestName":      "Giulia Bianchi",
		"checkIn":        "2024-08-10",
		"checkOut":       "2024-08-12",
		"numberOfGuests": 2,
		"roomType":       "Suite",
	}
	resp, body = srv.do(t, http.MethodPost, "/api/bookings", create, user)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	require.Len(t, id, 24)
	assert.Equal(t, "u1", body["userId"])

	resp, _ = srv.do(t, http.MethodPost, "/api/bookings", create, user)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = srv.do(t, http.MethodGet, "/api/bookings", nil, user)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 1)

	resp, _ = srv.do(t, http.MethodGet, "/api/bookings/"+id, nil, map[string]string{"X-User-Id": "u2"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodGet, "/api/bookings/not-an-id", nil, user)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPatch, "/api/bookings/"+id+"/status", map[string]string{"status": "lost"}, user)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = srv.do(t, http.MethodPatch, "/api/bookings/"+id+"/status", map[string]string{"status": "Confirmed"}, user)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Confirmed", body["status"])

	// The body may name the user instead of a header.
	resp, body = srv.do(t, http.MethodPatch, "/api/bookings/"+id+"/special-requests",
		map[string]string{"specialRequests": "Culla in camera", "userId": "u1"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Culla in camera", body["specialRequests"])
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, body := srv.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"email": "anna@example.com", "password": "lungarno42", "name": "Anna"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	access, _ := body["accessToken"].(string)
	refresh, _ := body["refreshToken"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotContains(t, body["user"], "passwordHash")

	resp, _ = srv.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"email": "anna@example.com", "password": "lungarno42", "name": "Anna"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "anna@example.com", "password": "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = srv.do(t, http.MethodGet, "/api/auth/me", nil, map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "anna@example.com", body["email"])

	resp, _ = srv.do(t, http.MethodGet, "/api/auth/me", nil, map[string]string{"X-User-Id": "someone"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A token-authenticated chat message is marked authenticated.
	resp, body = srv.do(t, http.MethodPost, "/api/chat/message", map[string]string{"message": "ciao"},
		map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["authenticated"])

	resp, body = srv.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": refresh}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	next, _ := body["refreshToken"].(string)

	resp, _ = srv.do(t, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": refresh}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = srv.do(t, http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": next}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOAuthStartAndStateCheck(t *testing.T) {
	srv := newTestServer(t)
	srv.auth.RegisterOAuth(service.GoogleProvider("client-id", "secret", srv.URL))

	resp, _ := srv.do(t, http.MethodGet, "/api/auth/oauth/google", nil, nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "accounts.google.com")

	var state *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == stateCookie {
			state = c
		}
	}
	require.NotNil(t, state)
	assert.True(t, state.HttpOnly)
	assert.Contains(t, resp.Header.Get("Location"), "state="+state.Value)

	resp, _ = srv.do(t, http.MethodGet, "/api/auth/oauth/twitter", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Missing or mismatched state never reaches the provider.
	resp, body := srv.do(t, http.MethodGet, "/api/auth/oauth/google/callback?code=x&state="+state.Value, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid oauth state", body["error"])

	resp, _ = srv.do(t, http.MethodGet, "/api/auth/oauth/google/callback?code=x&state=other", nil,
		map[string]string{"Cookie": stateCookie + "=" + state.Value})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = srv.do(t, http.MethodGet, "/api/auth/oauth/google/callback?error=access_denied&state="+state.Value, nil,
		map[string]string{"Cookie": stateCookie + "=" + state.Value})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "sign-in was cancelled", body["error"])
}
