package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/normalize"
)

// maxWebhookBody bounds inbound webhook payload size.
const maxWebhookBody = 1 << 20 // 1 MiB

type webhookResponse struct {
	Received bool `json:"received"`
	Matched  int  `json:"matched"`
	Results  any  `json:"results,omitempty"`
}

func (h *Handler) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	platform := r.PathValue("platform")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	results, hookErr := h.pipeline.HandleWebhook(r.Context(), platform, body, r.Header)
	if hookErr != nil {
		switch {
		case errors.Is(hookErr, tandem.ErrSignatureInvalid):
			writeError(w, http.StatusUnauthorized, "signature verification failed")
		case errors.Is(hookErr, normalize.ErrUnknownPlatform):
			writeError(w, http.StatusBadRequest, "unknown platform")
		case errors.Is(hookErr, normalize.ErrMalformed):
			writeError(w, http.StatusBadRequest, "malformed payload")
		default:
			writeError(w, http.StatusInternalServerError, hookErr.Error())
		}
		return
	}

	// Slack URL verification handshakes expect the challenge echoed back.
	if platform == "slack" {
		if challenge := slackChallenge(body); challenge != "" {
			writeJSON(w, http.StatusOK, map[string]string{"challenge": challenge})
			return
		}
	}

	resp := webhookResponse{Received: true}
	seen := map[string]struct{}{}
	for _, res := range results {
		seen[res.RuleID.String()] = struct{}{}
	}
	resp.Matched = len(seen)
	if len(results) > 0 {
		resp.Results = results
	}

	writeJSON(w, http.StatusOK, resp)
}

// slackChallenge extracts the url_verification challenge, or returns an
// empty string for ordinary event payloads.
func slackChallenge(body []byte) string {
	var envelope struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Type != "url_verification" {
		return ""
	}
	return envelope.Challenge
}

func (h *Handler) listPlatforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"platforms": h.pipeline.Normalizers().Platforms(),
	})
}
