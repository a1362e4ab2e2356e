package api

import (
	"errors"
	"net/http"

	"github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/audit"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/rule"
)

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var in rule.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.pipeline.Rules().Create(r.Context(), in)
	if err != nil {
		var verr *rule.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	opts := rule.ListOpts{
		Platform:    queryParam(r, "platform"),
		EventType:   queryParam(r, "event_type"),
		EnabledOnly: queryParam(r, "enabled") == "true",
		Offset:      queryInt(r, "offset", 0),
		Limit:       queryInt(r, "limit", 50),
	}

	rules, err := h.pipeline.Rules().List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rules)
}

func (h *Handler) getRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := id.ParseRuleID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule ID")
		return
	}

	got, getErr := h.pipeline.Rules().Get(r.Context(), ruleID)
	if getErr != nil {
		if errors.Is(getErr, tandem.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, getErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, got)
}

func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := id.ParseRuleID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule ID")
		return
	}

	var in rule.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, updateErr := h.pipeline.Rules().Update(r.Context(), ruleID, in)
	if updateErr != nil {
		var verr *rule.ValidationError
		switch {
		case errors.Is(updateErr, tandem.ErrRuleNotFound):
			writeError(w, http.StatusNotFound, "rule not found")
		case errors.As(updateErr, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		default:
			writeError(w, http.StatusInternalServerError, updateErr.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := id.ParseRuleID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule ID")
		return
	}

	if deleteErr := h.pipeline.Rules().Delete(r.Context(), ruleID); deleteErr != nil {
		if errors.Is(deleteErr, tandem.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, deleteErr.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) enableRule(w http.ResponseWriter, r *http.Request) {
	h.setRuleEnabled(w, r, true)
}

func (h *Handler) disableRule(w http.ResponseWriter, r *http.Request) {
	h.setRuleEnabled(w, r, false)
}

func (h *Handler) setRuleEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	ruleID, err := id.ParseRuleID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule ID")
		return
	}

	if setErr := h.pipeline.Rules().SetEnabled(r.Context(), ruleID, enabled); setErr != nil {
		if errors.Is(setErr, tandem.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, setErr.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type testRuleRequest struct {
	Platform string         `json:"platform"`
	Payload  map[string]any `json:"payload"`
}

func (h *Handler) testRule(w http.ResponseWriter, r *http.Request) {
	ruleID, err := id.ParseRuleID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule ID")
		return
	}

	var req testRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Platform == "" {
		writeError(w, http.StatusBadRequest, "platform is required")
		return
	}

	body, err := marshalPayload(req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	test, testErr := h.pipeline.TestRule(r.Context(), ruleID, req.Platform, body)
	if testErr != nil {
		if errors.Is(testErr, tandem.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		writeError(w, http.StatusBadRequest, testErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, test)
}

func (h *Handler) listRuleExecutions(w http.ResponseWriter, r *http.Request) {
	ruleID, err := id.ParseRuleID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule ID")
		return
	}

	opts := audit.ListOpts{
		RuleID: &ruleID,
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 50),
	}

	entries, listErr := h.pipeline.Audit().List(r.Context(), opts)
	if listErr != nil {
		writeError(w, http.StatusInternalServerError, listErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
