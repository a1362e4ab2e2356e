package dispatch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tandemhq/tandem/adapter"
	"github.com/tandemhq/tandem/dispatch"
	"github.com/tandemhq/tandem/event"
	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/rule"
	"github.com/tandemhq/tandem/store/memory"
)

func ctx() context.Context { return context.Background() }

// recorderStub collects audit records.
type recorderStub struct {
	mu      sync.Mutex
	results []dispatch.Result
}

func (r *recorderStub) RecordDispatch(_ context.Context, _ *event.Event, res dispatch.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
	return nil
}

type fixture struct {
	rules        *rule.Service
	integrations *integration.Service
	dispatcher   *dispatch.Dispatcher
	recorder     *recorderStub
}

func fastRetry() dispatch.RetryPolicy {
	return dispatch.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Factor:      2,
		MaxDelay:    4 * time.Millisecond,
	}
}

func newFixture(t *testing.T, slackURL string) *fixture {
	t.Helper()

	s := memory.New()
	rules := rule.NewService(s, nil, nil, nil)
	integrations := integration.NewService(s, s, nil)
	adapters := adapter.NewRegistry(adapter.NewSlack(adapter.WithBaseURL(slackURL)))
	rec := &recorderStub{}

	d := dispatch.NewDispatcher(rules, integrations, adapters, rec, dispatch.Config{
		Concurrency: 2,
		Retry:       fastRetry(),
	}, nil)

	return &fixture{rules: rules, integrations: integrations, dispatcher: d, recorder: rec}
}

func slackServer(t *testing.T, handler func(path string) (ok bool, slackErr string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, slackErr := handler(r.URL.Path)
		resp := map[string]any{"ok": ok}
		if slackErr != "" {
			resp["error"] = slackErr
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func (f *fixture) newIntegration(t *testing.T) *integration.Integration {
	t.Helper()
	in, err := f.integrations.Create(ctx(), integration.Input{
		Name:       "slack",
		Platform:   "slack",
		Config:     map[string]string{"channel": "#support"},
		Credential: &integration.Credential{Token: "xoxb"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return in
}

func (f *fixture) newRule(t *testing.T, actions ...rule.ActionSpec) *rule.Rule {
	t.Helper()
	r, err := f.rules.Create(ctx(), rule.Input{
		Name:    "notify",
		Trigger: rule.TriggerSpec{Platform: "zendesk", EventType: "ticket_created"},
		Actions: actions,
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func testEvent() *event.Event {
	payload := map[string]event.Value{
		"ticket": event.Map(map[string]event.Value{
			"id":      event.Number(7),
			"subject": event.String("Printer on fire"),
		}),
	}
	event.Flatten(payload)
	return &event.Event{Platform: "zendesk", Type: "ticket_created", Payload: payload}
}

func TestDispatchRuleSuccess(t *testing.T) {
	srv := slackServer(t, func(string) (bool, string) { return true, "" })
	defer srv.Close()

	f := newFixture(t, srv.URL)
	in := f.newIntegration(t)
	r := f.newRule(t, rule.ActionSpec{
		IntegrationID: in.ID,
		Type:          "send_message",
		Params:        map[string]any{"text": "ticket {{ticket.id}}: {{ticket.subject}}"},
	})

	results := f.dispatcher.DispatchRule(ctx(), r, testEvent())
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	res := results[0]
	if res.Outcome != dispatch.OutcomeSuccess {
		t.Fatalf("Outcome = %q (%s)", res.Outcome, res.Error)
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", res.Attempts)
	}
	if len(res.Unresolved) != 0 {
		t.Errorf("Unresolved = %v", res.Unresolved)
	}

	// Rule stats recorded.
	got, _ := f.rules.Get(ctx(), r.ID)
	if got.ExecutionCount != 1 {
		t.Errorf("ExecutionCount = %d, want 1", got.ExecutionCount)
	}
	if got.SuccessCount != 1 || got.FailureCount != 0 {
		t.Errorf("rule tallies = %d/%d, want 1/0", got.SuccessCount, got.FailureCount)
	}
	if rate := got.SuccessRate(); rate != 1 {
		t.Errorf("SuccessRate() = %v, want 1", rate)
	}

	// Integration health recorded.
	gi, _ := f.integrations.Get(ctx(), in.ID)
	if gi.SuccessCount != 1 {
		t.Errorf("SuccessCount = %d, want 1", gi.SuccessCount)
	}

	// Audit entry recorded.
	if len(f.recorder.results) != 1 {
		t.Errorf("audit records = %d, want 1", len(f.recorder.results))
	}
}

func TestDispatchActionsAreIndependent(t *testing.T) {
	srv := slackServer(t, func(string) (bool, string) { return false, "channel_not_found" })
	defer srv.Close()

	s := memory.New()
	rules := rule.NewService(s, nil, nil, nil)
	integrations := integration.NewService(s, s, nil)
	rec := &recorderStub{}

	registry := adapter.NewRegistry(adapter.NewSlack(adapter.WithBaseURL(srv.URL)))
	d := dispatch.NewDispatcher(rules, integrations, registry, rec, dispatch.Config{Retry: fastRetry()}, nil)

	bad, _ := integrations.Create(ctx(), integration.Input{
		Name: "bad", Platform: "slack",
		Config:     map[string]string{"channel": "#a"},
		Credential: &integration.Credential{Token: "t"},
	})
	good, _ := integrations.Create(ctx(), integration.Input{
		Name: "good", Platform: "slack",
		Config:     map[string]string{"channel": "#b"},
		Credential: &integration.Credential{Token: "t"},
	})

	r, _ := rules.Create(ctx(), rule.Input{
		Name:    "two actions",
		Trigger: rule.TriggerSpec{Platform: "zendesk", EventType: "ticket_created"},
		Actions: []rule.ActionSpec{
			{IntegrationID: bad.ID, Type: "send_message", Params: map[string]any{"text": "a"}},
			{IntegrationID: good.ID, Type: "send_message", Params: map[string]any{"text": "b"}},
		},
	})

	// Both actions hit the failing server through the shared registry; the
	// point is that action 2 still runs after action 1 fails.
	results := d.DispatchRule(ctx(), r, testEvent())
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (second action must run after first fails)", len(results))
	}
	if results[0].Outcome != dispatch.OutcomeFailed {
		t.Errorf("first Outcome = %q, want failed", results[0].Outcome)
	}
	if results[0].Attempts != 1 {
		t.Errorf("not-found retried: Attempts = %d, want 1", results[0].Attempts)
	}
	if results[1].ActionIndex != 1 {
		t.Errorf("second result ActionIndex = %d, want 1", results[1].ActionIndex)
	}
}

func TestDispatchSkipsPausedIntegration(t *testing.T) {
	srv := slackServer(t, func(string) (bool, string) {
		t.Error("paused integration was called")
		return true, ""
	})
	defer srv.Close()

	f := newFixture(t, srv.URL)
	in := f.newIntegration(t)
	_ = f.integrations.SetStatus(ctx(), in.ID, integration.StatusPaused)

	r := f.newRule(t, rule.ActionSpec{
		IntegrationID: in.ID,
		Type:          "send_message",
		Params:        map[string]any{"text": "x"},
	})

	results := f.dispatcher.DispatchRule(ctx(), r, testEvent())
	if results[0].Outcome != dispatch.OutcomeSkipped {
		t.Fatalf("Outcome = %q, want skipped", results[0].Outcome)
	}

	// A skip is not a failure: the integration's health is untouched.
	gi, _ := f.integrations.Get(ctx(), in.ID)
	if gi.FailureCount != 0 {
		t.Errorf("FailureCount = %d, want 0", gi.FailureCount)
	}
}

func TestDispatchRetriesTransientFailure(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	in := f.newIntegration(t)
	r := f.newRule(t, rule.ActionSpec{
		IntegrationID: in.ID,
		Type:          "send_message",
		Params:        map[string]any{"text": "x"},
	})

	results := f.dispatcher.DispatchRule(ctx(), r, testEvent())
	if results[0].Outcome != dispatch.OutcomeSuccess {
		t.Fatalf("Outcome = %q (%s)", results[0].Outcome, results[0].Error)
	}
	if results[0].Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", results[0].Attempts)
	}
}

func TestDispatchThrottledRuleSkipsActions(t *testing.T) {
	srv := slackServer(t, func(string) (bool, string) { return true, "" })
	defer srv.Close()

	f := newFixture(t, srv.URL)
	in := f.newIntegration(t)

	r, err := f.rules.Create(ctx(), rule.Input{
		Name:       "capped",
		Trigger:    rule.TriggerSpec{Platform: "zendesk", EventType: "ticket_created"},
		MaxPerHour: 1,
		Actions: []rule.ActionSpec{
			{IntegrationID: in.ID, Type: "send_message", Params: map[string]any{"text": "x"}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	first := f.dispatcher.DispatchRule(ctx(), r, testEvent())
	if first[0].Outcome != dispatch.OutcomeSuccess {
		t.Fatalf("first Outcome = %q", first[0].Outcome)
	}

	second := f.dispatcher.DispatchRule(ctx(), r, testEvent())
	if second[0].Outcome != dispatch.OutcomeSkipped {
		t.Fatalf("second Outcome = %q, want skipped", second[0].Outcome)
	}

	// Throttled firings do not count as executions.
	got, _ := f.rules.Get(ctx(), r.ID)
	if got.ExecutionCount != 1 {
		t.Errorf("ExecutionCount = %d, want 1", got.ExecutionCount)
	}
}

func TestDispatchAllCancelWaitsForInFlight(t *testing.T) {
	started := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(20 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	f := newFixture(t, srv.URL)
	in := f.newIntegration(t)

	var rules []*rule.Rule
	for i := 0; i < 32; i++ {
		rules = append(rules, f.newRule(t, rule.ActionSpec{
			IntegrationID: in.ID,
			Type:          "send_message",
			Params:        map[string]any{"text": "x"},
		}))
	}

	cctx, cancel := context.WithCancel(ctx())
	defer cancel()
	go func() {
		<-started
		cancel()
	}()

	results := f.dispatcher.DispatchAll(cctx, rules, testEvent())

	if len(results) == 0 {
		t.Fatal("results from rules in flight at cancellation were dropped")
	}
	if len(results) == len(rules) {
		t.Fatal("cancellation did not stop new rules from starting")
	}

	// Every returned result was also recorded before DispatchAll returned,
	// and results stay in rule order.
	f.recorder.mu.Lock()
	recorded := len(f.recorder.results)
	f.recorder.mu.Unlock()
	if recorded != len(results) {
		t.Errorf("recorded %d results, returned %d", recorded, len(results))
	}
	for i, res := range results {
		if res.RuleID.String() != rules[i].ID.String() {
			t.Fatalf("results[%d] is for rule %s, want %s", i, res.RuleID, rules[i].ID)
		}
	}
}

func TestDispatchAllKeepsRuleOrder(t *testing.T) {
	srv := slackServer(t, func(string) (bool, string) { return true, "" })
	defer srv.Close()

	f := newFixture(t, srv.URL)
	in := f.newIntegration(t)

	var rules []*rule.Rule
	for i := 0; i < 5; i++ {
		rules = append(rules, f.newRule(t, rule.ActionSpec{
			IntegrationID: in.ID,
			Type:          "send_message",
			Params:        map[string]any{"text": "x"},
		}))
	}

	results := f.dispatcher.DispatchAll(ctx(), rules, testEvent())
	if len(results) != 5 {
		t.Fatalf("results = %d, want 5", len(results))
	}
	for i, res := range results {
		if res.RuleID.String() != rules[i].ID.String() {
			t.Fatalf("results[%d] is for rule %s, want %s", i, res.RuleID, rules[i].ID)
		}
	}
}
