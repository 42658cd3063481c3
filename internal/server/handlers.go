package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brightling/companiond/internal/core/domain"
	"github.com/brightling/companiond/internal/orchestrator"
	"github.com/brightling/companiond/internal/storage"
)

type handlers struct {
	orch   *orchestrator.Orchestrator
	admin  storage.AdminStore
	logger *slog.Logger
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
}

type chatResponse struct {
	Message      string              `json:"message"`
	Intent       domain.Intent       `json:"intent,omitempty"`
	SafetyStatus domain.SafetyStatus `json:"safety_status"`
	TurnSeq      int64               `json:"turn_seq"`
	Attempts     int                 `json:"attempts"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// chat is the sole turn-processing entry point. The call is synchronous: the
// response is written only after the turn finalizes.
func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "session_id is required"})
		return
	}

	turn, err := h.orch.ProcessTurn(r.Context(), req.SessionID, req.UserID, req.Text)
	if err != nil {
		var unavailable *domain.ContextStoreUnavailable
		switch {
		case errors.As(err, &unavailable):
			h.logger.Error("chat failed: context store unavailable",
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("error", err.Error()),
			)
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "temporarily unavailable"})
		case r.Context().Err() != nil:
			// Client went away; the orchestrator already discarded the result.
		default:
			h.logger.Error("chat failed",
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("error", err.Error()),
			)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Message:      turn.Outgoing,
		Intent:       turn.Intent,
		SafetyStatus: turn.SafetyStatus,
		TurnSeq:      turn.Seq,
		Attempts:     len(turn.Attempts),
	})
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	limit := queryLimit(r, 10)

	exchanges, err := h.admin.History(r.Context(), sessionID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load history"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": exchanges})
}

func (h *handlers) violations(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50)

	records, err := h.admin.RecentViolations(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load safety log"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"violations": records})
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "q is required"})
		return
	}
	limit := queryLimit(r, 50)

	results, err := h.admin.Search(r.Context(), keyword, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "search failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
