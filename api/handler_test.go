package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/adapter"
	"github.com/tandemhq/tandem/api"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/signature"
	"github.com/tandemhq/tandem/store/memory"
)

const freshdeskSecret = "fd-secret"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// slackStub counts adapter calls and answers ok.
func slackStub(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`)) //nolint:errcheck
	}))
}

func newTestServer(t *testing.T, slackURL string) *httptest.Server {
	t.Helper()

	adapters := adapter.NewRegistry(
		adapter.NewSlack(adapter.WithBaseURL(slackURL)),
	)
	p, err := tandem.New(
		tandem.WithStore(memory.New()),
		tandem.WithSecrets(signature.Static{"freshdesk": freshdeskSecret}),
		tandem.WithAdapters(adapters),
		tandem.WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(api.NewHandler(p, quietLogger()))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func createIntegrationHTTP(t *testing.T, base string) string {
	t.Helper()

	resp, data := doJSON(t, http.MethodPost, base+"/integrations", map[string]any{
		"name":       "ops-slack",
		"platform":   "slack",
		"config":     map[string]string{"channel": "#support"},
		"credential": map[string]string{"token": "xoxb-test"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, data)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatal(err)
	}
	return created.ID
}

func createRuleHTTP(t *testing.T, base, intgID string) string {
	t.Helper()

	resp, data := doJSON(t, http.MethodPost, base+"/rules", map[string]any{
		"name": "notify on tickets",
		"trigger": map[string]string{
			"platform":   "freshdesk",
			"event_type": "ticket_created",
		},
		"actions": []map[string]any{
			{
				"integration_id": intgID,
				"type":           "send_message",
				"params":         map[string]any{"text": "ticket {{ticket.subject}}"},
			},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, data)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatal(err)
	}
	return created.ID
}

func postWebhook(t *testing.T, base, platform string, body []byte, headers http.Header) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, base+"/webhooks/"+platform, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for k, vals := range headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func TestWebhookRoundTrip(t *testing.T) {
	var calls atomic.Int64
	slack := slackStub(t, &calls)
	defer slack.Close()

	server := newTestServer(t, slack.URL)
	intgID := createIntegrationHTTP(t, server.URL)
	createRuleHTTP(t, server.URL, intgID)

	body := []byte(`{"event_type":"ticket_create","ticket":{"subject":"printer on fire"}}`)
	headers := http.Header{}
	headers.Set(signature.HeaderFreshdesk, signature.SignHex(freshdeskSecret, body))

	resp, data := postWebhook(t, server.URL, "freshdesk", body, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}

	var out struct {
		Received bool `json:"received"`
		Matched  int  `json:"matched"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Received || out.Matched != 1 {
		t.Fatalf("unexpected response: %s", data)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 slack call, got %d", calls.Load())
	}
}

func TestWebhookBadSignature(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")

	body := []byte(`{"event_type":"ticket_create","ticket":{"subject":"x"}}`)
	headers := http.Header{}
	headers.Set(signature.HeaderFreshdesk, "deadbeef")

	resp, _ := postWebhook(t, server.URL, "freshdesk", body, headers)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestWebhookUnknownPlatform(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")

	resp, _ := postWebhook(t, server.URL, "github", []byte(`{}`), http.Header{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")

	body := []byte(`{not json`)
	headers := http.Header{}
	headers.Set(signature.HeaderFreshdesk, signature.SignHex(freshdeskSecret, body))

	resp, _ := postWebhook(t, server.URL, "freshdesk", body, headers)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebhookSlackURLVerification(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")

	// No slack secret configured: fail-open accepts the handshake.
	body := []byte(`{"type":"url_verification","challenge":"abc123"}`)
	resp, data := postWebhook(t, server.URL, "slack", body, http.Header{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}

	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["challenge"] != "abc123" {
		t.Fatalf("expected challenge echoed, got %s", data)
	}
}

func TestListWebhookPlatforms(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")

	resp, data := doJSON(t, http.MethodGet, server.URL+"/webhooks/platforms", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Platforms []string `json:"platforms"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Platforms) == 0 {
		t.Fatal("expected at least one platform")
	}
}

func TestRuleCRUD(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")
	intgID := createIntegrationHTTP(t, server.URL)
	ruleID := createRuleHTTP(t, server.URL, intgID)

	// Get
	resp, data := doJSON(t, http.MethodGet, server.URL+"/rules/"+ruleID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	var got struct {
		Name    string `json:"name"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "notify on tickets" || !got.Enabled {
		t.Fatalf("unexpected rule: %s", data)
	}

	// List
	resp, data = doJSON(t, http.MethodGet, server.URL+"/rules", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(list))
	}

	// Update
	resp, data = doJSON(t, http.MethodPut, server.URL+"/rules/"+ruleID, map[string]any{
		"name": "renamed",
		"trigger": map[string]string{
			"platform":   "freshdesk",
			"event_type": "ticket_created",
		},
		"actions": []map[string]any{
			{
				"integration_id": intgID,
				"type":           "send_message",
				"params":         map[string]any{"text": "hi"},
			},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}

	// Disable then verify
	resp, _ = doJSON(t, http.MethodPatch, server.URL+"/rules/"+ruleID+"/disable", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	_, data = doJSON(t, http.MethodGet, server.URL+"/rules/"+ruleID, nil)
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Enabled {
		t.Fatal("expected rule disabled")
	}

	// Delete then 404
	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/rules/"+ruleID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/rules/"+ruleID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRuleValidationRejected(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")

	// No name, no trigger, no actions.
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/rules", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRuleNotFound(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")

	missing := id.NewRuleID().String()
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/rules/"+missing, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	// Malformed IDs are a 400, not a 404.
	resp, _ = doJSON(t, http.MethodGet, server.URL+"/rules/not-an-id", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRuleDryRunEndpoint(t *testing.T) {
	var calls atomic.Int64
	slack := slackStub(t, &calls)
	defer slack.Close()

	server := newTestServer(t, slack.URL)
	intgID := createIntegrationHTTP(t, server.URL)
	ruleID := createRuleHTTP(t, server.URL, intgID)

	resp, data := doJSON(t, http.MethodPost, server.URL+"/rules/"+ruleID+"/test", map[string]any{
		"platform": "freshdesk",
		"payload": map[string]any{
			"event_type": "ticket_create",
			"ticket":     map[string]any{"subject": "broken build"},
		},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}

	var out struct {
		Matched bool `json:"matched"`
		Actions []struct {
			Params map[string]any `json:"params"`
		} `json:"actions"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Matched || len(out.Actions) != 1 {
		t.Fatalf("unexpected dry run result: %s", data)
	}
	if out.Actions[0].Params["text"] != "ticket broken build" {
		t.Fatalf("expected rendered text, got %v", out.Actions[0].Params["text"])
	}
	if calls.Load() != 0 {
		t.Fatalf("dry run must not dispatch, got %d calls", calls.Load())
	}
}

func TestIntegrationPauseResume(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")
	intgID := createIntegrationHTTP(t, server.URL)

	resp, _ := doJSON(t, http.MethodPatch, server.URL+"/integrations/"+intgID+"/pause", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	_, data := doJSON(t, http.MethodGet, server.URL+"/integrations/"+intgID, nil)
	var got struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "paused" {
		t.Fatalf("expected paused, got %q", got.Status)
	}

	resp, _ = doJSON(t, http.MethodPatch, server.URL+"/integrations/"+intgID+"/resume", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}

func TestIntegrationCredentialNeverEchoed(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")
	intgID := createIntegrationHTTP(t, server.URL)

	_, data := doJSON(t, http.MethodGet, server.URL+"/integrations/"+intgID, nil)
	if bytes.Contains(data, []byte("xoxb-test")) {
		t.Fatalf("credential leaked in response: %s", data)
	}
}

func TestExecuteActionEndpoint(t *testing.T) {
	var calls atomic.Int64
	slack := slackStub(t, &calls)
	defer slack.Close()

	server := newTestServer(t, slack.URL)
	intgID := createIntegrationHTTP(t, server.URL)

	resp, data := doJSON(t, http.MethodPost, server.URL+"/integrations/"+intgID+"/execute", map[string]any{
		"action": "send_message",
		"params": map[string]any{"text": "manual ping"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 slack call, got %d", calls.Load())
	}

	// Missing action name is a 400.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/integrations/"+intgID+"/execute", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListPlatformActions(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")

	resp, data := doJSON(t, http.MethodGet, server.URL+"/integrations/platforms/slack/actions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Platform string `json:"platform"`
		Actions  []struct {
			Type string `json:"type"`
		} `json:"actions"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Platform != "slack" || len(out.Actions) == 0 {
		t.Fatalf("unexpected actions response: %s", data)
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/integrations/platforms/github/actions", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown platform, got %d", resp.StatusCode)
	}
}

func TestAuditTrailEndpoint(t *testing.T) {
	var calls atomic.Int64
	slack := slackStub(t, &calls)
	defer slack.Close()

	server := newTestServer(t, slack.URL)
	intgID := createIntegrationHTTP(t, server.URL)
	ruleID := createRuleHTTP(t, server.URL, intgID)

	body := []byte(`{"event_type":"ticket_create","ticket":{"subject":"audited"}}`)
	headers := http.Header{}
	headers.Set(signature.HeaderFreshdesk, signature.SignHex(freshdeskSecret, body))
	postWebhook(t, server.URL, "freshdesk", body, headers)

	resp, data := doJSON(t, http.MethodGet, server.URL+"/audit", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var entries []struct {
		RuleID  string `json:"rule_id"`
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	if entries[0].RuleID != ruleID || entries[0].Outcome != "success" {
		t.Fatalf("unexpected entry: %s", data)
	}

	// Filter by rule also finds it.
	resp, data = doJSON(t, http.MethodGet, server.URL+"/rules/"+ruleID+"/executions", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(entries))
	}
}

func TestStatsEndpoint(t *testing.T) {
	server := newTestServer(t, "http://127.0.0.1:0")
	intgID := createIntegrationHTTP(t, server.URL)
	createRuleHTTP(t, server.URL, intgID)

	resp, data := doJSON(t, http.MethodGet, server.URL+"/stats", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Rules        int            `json:"rules"`
		EnabledRules int            `json:"enabled_rules"`
		Integrations map[string]int `json:"integrations"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Rules != 1 || out.EnabledRules != 1 {
		t.Fatalf("unexpected rule counts: %s", data)
	}
	if out.Integrations["active"] != 1 {
		t.Fatalf("unexpected integration counts: %s", data)
	}
}
