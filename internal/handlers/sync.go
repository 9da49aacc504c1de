package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"healthboard-sync/internal/config"
	"healthboard-sync/internal/database"
	"healthboard-sync/internal/metrics"
	"healthboard-sync/internal/records"
)

// SyncHandler handles push sync payloads from the device
type SyncHandler struct {
	db     *database.DB
	config *config.Config
	logger *slog.Logger
	now    func() time.Time
}

// SyncResponse reports per-metric-kind accepted counts. Accepted means
// "validated and submitted", not necessarily changed; merges may be no-ops.
type SyncResponse struct {
	Accepted map[records.Kind]int `json:"accepted"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// NewSyncHandler creates a new push sync handler
func NewSyncHandler(db *database.DB, cfg *config.Config) *SyncHandler {
	return &SyncHandler{
		db:     db,
		config: cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// HandleSync handles POST requests carrying one push sync payload.
// Validation is all-or-nothing: a malformed entry in any metric array
// rejects the whole call before anything is written, so the cursor only
// moves when the full payload landed.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.config.PushAPIKey != "" && r.Header.Get("X-API-Key") != h.config.PushAPIKey {
		h.logger.Warn("Rejected sync call with bad API key")
		writeError(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
		return
	}

	var payload records.Payload
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		h.logger.Error("Failed to decode sync payload", "error", err)
		metrics.PushValidationErrorsTotal.Inc()
		writeError(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}
	defer r.Body.Close()

	if verr := payload.Validate(); verr != nil {
		h.logger.Warn("Sync payload failed validation",
			"field", verr.Field, "reason", verr.Reason)
		metrics.PushValidationErrorsTotal.Inc()
		metrics.PushPayloadsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		writeError(w, http.StatusUnprocessableEntity, errorResponse{
			Error: verr.Error(),
			Field: verr.Field,
		})
		return
	}

	updatedAt := h.now().UTC().Format(time.RFC3339)
	stmts, counts := payload.Statements(updatedAt)

	committed, err := h.db.ExecBatch(r.Context(), stmts)
	if err != nil {
		// A failed batch leaves the cursor untouched; the caller can
		// safely resend the same payload
		h.logger.Error("Sync batch execution failed",
			"error", err, "committed_batches", committed)
		metrics.PushPayloadsTotal.WithLabelValues(metrics.ResultFailure).Inc()
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "storage failure"})
		return
	}

	total := 0
	for kind, n := range counts {
		metrics.PushRecordsAcceptedTotal.WithLabelValues(string(kind)).Add(float64(n))
		total += n
	}
	metrics.PushPayloadsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	h.logger.Info("Sync payload ingested",
		"records", total,
		"statements", len(stmts),
		"sync_timestamp", payload.SyncTimestamp)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(SyncResponse{Accepted: counts}); err != nil {
		h.logger.Error("Failed to encode sync response", "error", err)
	}
}

// HandleHealth reports liveness and database health
func (h *SyncHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Health(); err != nil {
		h.logger.Error("Health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
