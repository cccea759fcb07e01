package handler

import (
	"net/http"

	"github.com/villa-concierge/concierge-platform/internal/connmgr"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	manager      *connmgr.Manager
	llmAvailable func() bool
}

// NewHealthHandler creates a new health handler. llmAvailable may be nil.
func NewHealthHandler(manager *connmgr.Manager, llmAvailable func() bool) *HealthHandler {
	return &HealthHandler{
		manager:      manager,
		llmAvailable: llmAvailable,
	}
}

// ReadyResponse reports per-backend availability.
type ReadyResponse struct {
	Status   string          `json:"status"`
	Backends map[string]bool `json:"backends"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready. Every backend has an in-process fallback, so the
// server keeps serving with some of them down; it reports "degraded" rather
// than failing the probe.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	backends := map[string]bool{}
	if h.manager != nil {
		backends = h.manager.Status()
	}
	if h.llmAvailable != nil {
		backends["llm"] = h.llmAvailable()
	}

	status := "ready"
	for _, ok := range backends {
		if !ok {
			status = "degraded"
			break
		}
	}
	writeJSON(w, http.StatusOK, ReadyResponse{Status: status, Backends: backends})
}
