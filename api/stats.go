package api

import (
	"net/http"

	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/rule"
)

type statsResponse struct {
	Rules        int            `json:"rules"`
	EnabledRules int            `json:"enabled_rules"`
	Integrations map[string]int `json:"integrations"`
	AuditEntries int64          `json:"audit_entries"`
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rules, err := h.pipeline.Rules().List(ctx, rule.ListOpts{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	integrations, err := h.pipeline.Integrations().List(ctx, integration.ListOpts{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	auditCount, err := h.pipeline.Audit().Count(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats := statsResponse{
		Rules:        len(rules),
		Integrations: make(map[string]int),
		AuditEntries: auditCount,
	}
	for _, ru := range rules {
		if ru.Enabled {
			stats.EnabledRules++
		}
	}
	for _, in := range integrations {
		stats.Integrations[string(in.Status)]++
	}

	writeJSON(w, http.StatusOK, stats)
}
