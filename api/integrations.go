package api

import (
	"errors"
	"net/http"

	"github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/integration"
)

func (h *Handler) createIntegration(w http.ResponseWriter, r *http.Request) {
	var in integration.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.pipeline.Integrations().Create(r.Context(), in)
	if err != nil {
		var verr *integration.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listIntegrations(w http.ResponseWriter, r *http.Request) {
	opts := integration.ListOpts{
		Platform: queryParam(r, "platform"),
		Status:   integration.Status(queryParam(r, "status")),
		Offset:   queryInt(r, "offset", 0),
		Limit:    queryInt(r, "limit", 50),
	}

	integrations, err := h.pipeline.Integrations().List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, integrations)
}

func (h *Handler) getIntegration(w http.ResponseWriter, r *http.Request) {
	intgID, err := id.ParseIntegrationID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid integration ID")
		return
	}

	got, getErr := h.pipeline.Integrations().Get(r.Context(), intgID)
	if getErr != nil {
		if errors.Is(getErr, tandem.ErrIntegrationNotFound) {
			writeError(w, http.StatusNotFound, "integration not found")
			return
		}
		writeError(w, http.StatusInternalServerError, getErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, got)
}

func (h *Handler) updateIntegration(w http.ResponseWriter, r *http.Request) {
	intgID, err := id.ParseIntegrationID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid integration ID")
		return
	}

	var in integration.Input
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, updateErr := h.pipeline.Integrations().Update(r.Context(), intgID, in)
	if updateErr != nil {
		if errors.Is(updateErr, tandem.ErrIntegrationNotFound) {
			writeError(w, http.StatusNotFound, "integration not found")
			return
		}
		writeError(w, http.StatusInternalServerError, updateErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteIntegration(w http.ResponseWriter, r *http.Request) {
	intgID, err := id.ParseIntegrationID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid integration ID")
		return
	}

	if deleteErr := h.pipeline.Integrations().Delete(r.Context(), intgID); deleteErr != nil {
		if errors.Is(deleteErr, tandem.ErrIntegrationNotFound) {
			writeError(w, http.StatusNotFound, "integration not found")
			return
		}
		writeError(w, http.StatusInternalServerError, deleteErr.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pauseIntegration(w http.ResponseWriter, r *http.Request) {
	h.setIntegrationStatus(w, r, integration.StatusPaused)
}

func (h *Handler) resumeIntegration(w http.ResponseWriter, r *http.Request) {
	h.setIntegrationStatus(w, r, integration.StatusActive)
}

func (h *Handler) setIntegrationStatus(w http.ResponseWriter, r *http.Request, status integration.Status) {
	intgID, err := id.ParseIntegrationID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid integration ID")
		return
	}

	if setErr := h.pipeline.Integrations().SetStatus(r.Context(), intgID, status); setErr != nil {
		if errors.Is(setErr, tandem.ErrIntegrationNotFound) {
			writeError(w, http.StatusNotFound, "integration not found")
			return
		}
		writeError(w, http.StatusInternalServerError, setErr.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) testIntegration(w http.ResponseWriter, r *http.Request) {
	intgID, err := id.ParseIntegrationID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid integration ID")
		return
	}

	testErr := h.pipeline.TestConnection(r.Context(), intgID)
	if testErr != nil {
		if errors.Is(testErr, tandem.ErrIntegrationNotFound) {
			writeError(w, http.StatusNotFound, "integration not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":    false,
			"error": testErr.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type executeActionRequest struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

func (h *Handler) executeAction(w http.ResponseWriter, r *http.Request) {
	intgID, err := id.ParseIntegrationID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid integration ID")
		return
	}

	var req executeActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	execErr := h.pipeline.ExecuteAction(r.Context(), intgID, req.Action, req.Params)
	if execErr != nil {
		if errors.Is(execErr, tandem.ErrIntegrationNotFound) {
			writeError(w, http.StatusNotFound, "integration not found")
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"ok":    false,
			"error": execErr.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) listAdapterPlatforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"platforms": h.pipeline.Adapters().Platforms(),
	})
}

func (h *Handler) listPlatformActions(w http.ResponseWriter, r *http.Request) {
	platform := r.PathValue("platform")

	a, err := h.pipeline.Adapters().Get(platform)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown platform")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"platform": platform,
		"actions":  a.Actions(),
	})
}
