// Package api provides the HTTP surface for Tandem: the webhook ingestion
// endpoint plus the admin API for rules, integrations, and the audit trail.
//
// All routes are mounted at the handler root; wrap with http.StripPrefix to
// serve under a prefix.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/tandemhq/tandem"
)

// Handler is the root HTTP handler for the Tandem API.
type Handler struct {
	pipeline *tandem.Pipeline
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewHandler creates a new API handler over a wired pipeline.
func NewHandler(p *tandem.Pipeline, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		pipeline: p,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	// Webhook ingestion
	h.mux.HandleFunc("POST /webhooks/{platform}", h.receiveWebhook)
	h.mux.HandleFunc("GET /webhooks/platforms", h.listPlatforms)

	// Rules
	h.mux.HandleFunc("POST /rules", h.createRule)
	h.mux.HandleFunc("GET /rules", h.listRules)
	h.mux.HandleFunc("GET /rules/{id}", h.getRule)
	h.mux.HandleFunc("PUT /rules/{id}", h.updateRule)
	h.mux.HandleFunc("DELETE /rules/{id}", h.deleteRule)
	h.mux.HandleFunc("PATCH /rules/{id}/enable", h.enableRule)
	h.mux.HandleFunc("PATCH /rules/{id}/disable", h.disableRule)
	h.mux.HandleFunc("POST /rules/{id}/test", h.testRule)
	h.mux.HandleFunc("GET /rules/{id}/executions", h.listRuleExecutions)

	// Integrations
	h.mux.HandleFunc("POST /integrations", h.createIntegration)
	h.mux.HandleFunc("GET /integrations", h.listIntegrations)
	h.mux.HandleFunc("GET /integrations/{id}", h.getIntegration)
	h.mux.HandleFunc("PUT /integrations/{id}", h.updateIntegration)
	h.mux.HandleFunc("DELETE /integrations/{id}", h.deleteIntegration)
	h.mux.HandleFunc("PATCH /integrations/{id}/pause", h.pauseIntegration)
	h.mux.HandleFunc("PATCH /integrations/{id}/resume", h.resumeIntegration)
	h.mux.HandleFunc("POST /integrations/{id}/test", h.testIntegration)
	h.mux.HandleFunc("POST /integrations/{id}/execute", h.executeAction)
	h.mux.HandleFunc("GET /integrations/platforms", h.listAdapterPlatforms)
	h.mux.HandleFunc("GET /integrations/platforms/{platform}/actions", h.listPlatformActions)

	// Audit
	h.mux.HandleFunc("GET /audit", h.listAudit)
	h.mux.HandleFunc("GET /audit/{id}", h.getAudit)
	h.mux.HandleFunc("DELETE /audit", h.purgeAudit)

	// Stats
	h.mux.HandleFunc("GET /stats", h.getStats)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.withMiddleware(h.mux).ServeHTTP(w, r)
}

func (h *Handler) withMiddleware(next http.Handler) http.Handler {
	return h.panicRecovery(h.logging(next))
}

func (h *Handler) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.logger.Info("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *Handler) panicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// JSON helpers.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best effort
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// marshalPayload re-encodes a decoded sample payload for the normalizer.
func marshalPayload(payload map[string]any) ([]byte, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	return json.Marshal(payload)
}

// queryParam returns a query parameter value, or empty string if not present.
func queryParam(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// queryInt returns a query parameter as int or a default value.
func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	var n int
	for _, c := range v {
		if c < '0' || c > '9' {
			return defaultVal
		}
		n = n*10 + int(c-'0')
	}
	return n
}
