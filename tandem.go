package tandem

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tandemhq/tandem/adapter"
	"github.com/tandemhq/tandem/audit"
	"github.com/tandemhq/tandem/dispatch"
	"github.com/tandemhq/tandem/event"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/normalize"
	"github.com/tandemhq/tandem/ratelimit"
	"github.com/tandemhq/tandem/rule"
	"github.com/tandemhq/tandem/signature"
	"github.com/tandemhq/tandem/store"
)

// wireServices initializes the internal services after options have been applied.
func (p *Pipeline) wireServices() {
	p.verifier = signature.NewVerifier(p.secrets, p.logger,
		signature.WithTrelloCallbackURL(p.config.TrelloCallbackURL))

	p.matcher = rule.NewMatcher()

	p.integrationSvc = integration.NewService(p.store, p.store, p.logger)
	p.integrationSvc.FailureThreshold = p.config.FailureThreshold

	p.ruleSvc = rule.NewService(p.store, &adapterSchemas{
		integrations: p.integrationSvc,
		adapters:     p.adapters,
	}, ratelimit.New(), p.logger)

	p.auditSvc = audit.NewService(p.store, p.logger)

	p.dispatcher = dispatch.NewDispatcher(p.ruleSvc, p.integrationSvc, p.adapters, p.auditSvc, dispatch.Config{
		Concurrency: p.config.Concurrency,
		Retry:       p.config.Retry,
		Metrics:     p.metrics,
		Tracer:      p.tracer,
	}, p.logger)
}

// adapterSchemas resolves an action's parameter schema by looking up the
// integration's platform and asking its adapter. Implements rule.ActionSchemas.
type adapterSchemas struct {
	integrations *integration.Service
	adapters     *adapter.Registry
}

func (s *adapterSchemas) ActionSchema(ctx context.Context, integrationID id.ID, actionType string) (any, error) {
	in, err := s.integrations.Get(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	schema, err := s.adapters.ActionSchema(in.Platform, actionType)
	if err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, nil //nolint:nilnil // no schema means unconstrained parameters
	}
	return schema, nil
}

// HandleWebhook runs one inbound webhook through the full pipeline and
// returns the dispatch results for every matched rule's actions.
//
// The critical path:
//  1. Verify the platform signature. A platform with no configured secret is
//     accepted but flagged unverified; a bad signature is rejected.
//  2. Normalize the payload into a canonical event.
//  3. Load the enabled rules for this platform and event type.
//  4. Evaluate rule conditions against the event.
//  5. Dispatch every matched rule's actions, recording the audit trail.
func (p *Pipeline) HandleWebhook(ctx context.Context, platform string, body []byte, headers http.Header) ([]dispatch.Result, error) {
	// 1. Verify the signature.
	ver := p.verifier.Verify(platform, body, headers)
	if !ver.OK {
		if p.metrics != nil {
			p.metrics.RecordWebhook(platform, "rejected")
		}
		p.logger.WarnContext(ctx, "webhook rejected",
			"platform", platform,
			"reason", ver.Reason,
		)
		return nil, fmt.Errorf("%w: %s", ErrSignatureInvalid, ver.Reason)
	}

	// 2. Normalize into the canonical event.
	evt, err := p.normalizers.Normalize(platform, body)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordWebhook(platform, "malformed")
		}
		return nil, err
	}
	evt.Unverified = ver.Unverified

	if p.metrics != nil {
		p.metrics.RecordWebhook(platform, "accepted")
	}

	return p.Dispatch(ctx, evt)
}

// Dispatch matches rules against an already-normalized event and executes
// the matched rules' actions.
func (p *Pipeline) Dispatch(ctx context.Context, evt *event.Event) ([]dispatch.Result, error) {
	if p.tracer != nil {
		spanCtx, span := p.tracer.StartWebhookSpan(ctx, evt.Platform, evt.Type)
		defer span.End()
		ctx = spanCtx
	}

	// 3. Load candidate rules (store-level prefilter on trigger + enabled).
	candidates, err := p.ruleSvc.List(ctx, rule.ListOpts{
		Platform:    evt.Platform,
		EventType:   evt.Type,
		EnabledOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("tandem: list rules: %w", err)
	}

	// 4. Evaluate conditions. Matched rules come back in ascending ID order.
	matched := p.matcher.Match(candidates, evt)
	if p.metrics != nil {
		for range matched {
			p.metrics.RuleMatchesTotal.WithLabels(map[string]string{
				"platform": evt.Platform,
			}).Inc()
		}
	}

	p.logger.DebugContext(ctx, "webhook processed",
		"platform", evt.Platform,
		"type", evt.Type,
		"candidates", len(candidates),
		"matched", len(matched),
	)

	if len(matched) == 0 {
		return nil, nil
	}

	// 5. Execute the matched rules' actions.
	return p.dispatcher.DispatchAll(ctx, matched, evt), nil
}

// RenderedAction is one action of a rule with its parameters rendered
// against a sample event.
type RenderedAction struct {
	IntegrationID id.ID          `json:"integration_id"`
	Type          string         `json:"type"`
	Params        map[string]any `json:"params"`
	Unresolved    []string       `json:"unresolved,omitempty"`
}

// RuleTest is the outcome of a dry run of one rule against a sample payload.
type RuleTest struct {
	Matched   bool             `json:"matched"`
	EventType string           `json:"event_type"`
	Actions   []RenderedAction `json:"actions,omitempty"`
}

// TestRule dry-runs a rule against a sample webhook payload: the payload is
// normalized and the rule's trigger and conditions evaluated, and on a match
// the action parameters are rendered. Nothing is dispatched.
func (p *Pipeline) TestRule(ctx context.Context, ruleID id.ID, platform string, body []byte) (*RuleTest, error) {
	r, err := p.ruleSvc.Get(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	evt, err := p.normalizers.Normalize(platform, body)
	if err != nil {
		return nil, err
	}

	test := &RuleTest{EventType: evt.Type}
	if r.Trigger.Platform != evt.Platform || r.Trigger.EventType != evt.Type {
		return test, nil
	}
	if !p.matcher.Evaluate(r, evt) {
		return test, nil
	}

	test.Matched = true
	for _, a := range r.Actions {
		params, unresolved := rule.RenderParams(a.Params, evt)
		test.Actions = append(test.Actions, RenderedAction{
			IntegrationID: a.IntegrationID,
			Type:          a.Type,
			Params:        params,
			Unresolved:    unresolved,
		})
	}
	return test, nil
}

// ExecuteAction runs a single action against an integration outside of any
// rule, with the pipeline's retry policy. Integration health is updated the
// same way rule-driven dispatches update it.
func (p *Pipeline) ExecuteAction(ctx context.Context, integrationID id.ID, actionType string, params map[string]any) error {
	in, err := p.integrationSvc.Get(ctx, integrationID)
	if err != nil {
		return err
	}
	if !in.Dispatchable() {
		return fmt.Errorf("tandem: integration is %s", in.Status)
	}

	ad, err := p.adapters.Get(in.Platform)
	if err != nil {
		return err
	}
	cred, err := p.integrationSvc.Credential(ctx, in.ID)
	if err != nil {
		return err
	}

	acct := adapter.Account{Config: in.Config, Credential: cred}
	_, execErr := p.config.Retry.Execute(ctx, func(ctx context.Context) error {
		return ad.Execute(ctx, actionType, params, acct)
	})

	errMsg := ""
	if execErr != nil {
		errMsg = execErr.Error()
	}
	if recErr := p.integrationSvc.RecordDispatch(ctx, in.ID, execErr == nil, errMsg); recErr != nil {
		p.logger.ErrorContext(ctx, "record integration dispatch failed",
			"integration_id", in.ID.String(), "error", recErr)
	}
	return execErr
}

// TestConnection verifies an integration's credentials against its platform
// and records the result: a passing test reactivates an errored integration,
// a failing test on an active one moves it to error. Paused integrations are
// never resumed by a test.
func (p *Pipeline) TestConnection(ctx context.Context, integrationID id.ID) error {
	in, err := p.integrationSvc.Get(ctx, integrationID)
	if err != nil {
		return err
	}

	ad, err := p.adapters.Get(in.Platform)
	if err != nil {
		return err
	}
	cred, err := p.integrationSvc.Credential(ctx, in.ID)
	if err != nil {
		return err
	}

	testErr := ad.TestConnection(ctx, adapter.Account{Config: in.Config, Credential: cred})

	errMsg := ""
	if testErr != nil {
		errMsg = testErr.Error()
	}
	if recErr := p.integrationSvc.RecordTestResult(ctx, in.ID, testErr == nil, errMsg); recErr != nil {
		p.logger.ErrorContext(ctx, "record integration test failed",
			"integration_id", in.ID.String(), "error", recErr)
	}
	return testErr
}

// Rules returns the rule management service.
func (p *Pipeline) Rules() *rule.Service {
	return p.ruleSvc
}

// Integrations returns the integration management service.
func (p *Pipeline) Integrations() *integration.Service {
	return p.integrationSvc
}

// Audit returns the audit trail service.
func (p *Pipeline) Audit() *audit.Service {
	return p.auditSvc
}

// Adapters returns the outbound adapter registry.
func (p *Pipeline) Adapters() *adapter.Registry {
	return p.adapters
}

// Normalizers returns the inbound normalizer registry.
func (p *Pipeline) Normalizers() *normalize.Registry {
	return p.normalizers
}

// Store returns the underlying store.
func (p *Pipeline) Store() store.Store {
	return p.store
}
