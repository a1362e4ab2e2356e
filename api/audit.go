package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/audit"
	"github.com/tandemhq/tandem/id"
)

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	opts := audit.ListOpts{
		Offset:  queryInt(r, "offset", 0),
		Limit:   queryInt(r, "limit", 50),
		Outcome: queryParam(r, "outcome"),
	}

	if v := queryParam(r, "rule_id"); v != "" {
		ruleID, err := id.ParseRuleID(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid rule_id")
			return
		}
		opts.RuleID = &ruleID
	}
	if v := queryParam(r, "integration_id"); v != "" {
		intgID, err := id.ParseIntegrationID(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid integration_id")
			return
		}
		opts.IntegrationID = &intgID
	}
	if v := queryParam(r, "from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		opts.From = &from
	}
	if v := queryParam(r, "to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		opts.To = &to
	}

	entries, err := h.pipeline.Audit().List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) getAudit(w http.ResponseWriter, r *http.Request) {
	auditID, err := id.ParseAuditID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid audit ID")
		return
	}

	entry, getErr := h.pipeline.Audit().Get(r.Context(), auditID)
	if getErr != nil {
		if errors.Is(getErr, tandem.ErrAuditNotFound) {
			writeError(w, http.StatusNotFound, "audit entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, getErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) purgeAudit(w http.ResponseWriter, r *http.Request) {
	v := queryParam(r, "before")
	if v == "" {
		writeError(w, http.StatusBadRequest, "before query parameter is required")
		return
	}
	before, err := time.Parse(time.RFC3339, v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid before timestamp")
		return
	}

	purged, purgeErr := h.pipeline.Audit().Purge(r.Context(), before)
	if purgeErr != nil {
		writeError(w, http.StatusInternalServerError, purgeErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"purged": purged})
}
