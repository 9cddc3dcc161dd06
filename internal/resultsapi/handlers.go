package resultsapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handlers serves the read-only results endpoints. The WebSocket push path
// the teacher's dashboard exposed is dropped entirely — spec.md's
// Non-goals exclude real-time event delivery, so there is nothing to
// upgrade or broadcast here.
type Handlers struct {
	provider ResultsProvider
	logger   *slog.Logger
}

// NewHandlers builds the handler set backing a results server.
func NewHandlers(provider ResultsProvider, logger *slog.Logger) *Handlers {
	return &Handlers{provider: provider, logger: logger.With("component", "resultsapi")}
}

// HandleHealth always reports ok; the results server has no external
// dependency that can be unhealthy.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleSnapshot serves the last completed tournament's results, or 404 if
// none has completed yet.
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := BuildSnapshot(h.provider)
	if !ok {
		http.Error(w, "no run completed yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		h.logger.Error("failed to encode snapshot", "error", err)
	}
}
