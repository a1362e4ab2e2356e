package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/tandemhq/tandem/adapter"
	"github.com/tandemhq/tandem/event"
	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/observability"
	"github.com/tandemhq/tandem/rule"
)

// Recorder persists dispatch results for the audit log.
type Recorder interface {
	RecordDispatch(ctx context.Context, evt *event.Event, res Result) error
}

// Config holds dispatcher configuration.
type Config struct {
	// Concurrency bounds how many rules execute in parallel for one event.
	Concurrency int

	// Retry bounds per-action retries.
	Retry RetryPolicy

	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// Dispatcher runs the actions of matched rules.
type Dispatcher struct {
	rules        *rule.Service
	integrations *integration.Service
	adapters     *adapter.Registry
	recorder     Recorder
	config       Config
	logger       *slog.Logger
}

// NewDispatcher creates a dispatcher. recorder may be nil to disable audit
// recording.
func NewDispatcher(rules *rule.Service, integrations *integration.Service, adapters *adapter.Registry, recorder Recorder, cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &Dispatcher{
		rules:        rules,
		integrations: integrations,
		adapters:     adapters,
		recorder:     recorder,
		config:       cfg,
		logger:       logger,
	}
}

// DispatchAll executes every matched rule against the event. Rules run
// concurrently up to the configured bound, but results keep the rules'
// order, so output is deterministic for a given match set. Cancellation
// stops new rules from starting; rules already in flight run to completion
// and their results are kept.
func (d *Dispatcher) DispatchAll(ctx context.Context, rules []*rule.Rule, evt *event.Event) []Result {
	perRule := make([][]Result, len(rules))

	sem := make(chan struct{}, d.config.Concurrency)
	var wg sync.WaitGroup

launch:
	for i, r := range rules {
		select {
		case <-ctx.Done():
			break launch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, ru *rule.Rule) {
			defer wg.Done()
			defer func() { <-sem }()
			perRule[idx] = d.DispatchRule(ctx, ru, evt)
		}(i, r)
	}
	wg.Wait()

	return flatten(perRule)
}

// DispatchRule executes one rule's actions in order. Actions are
// independent: a failed action records its outcome and the next action
// still runs. A rule past its hourly cap skips all of its actions.
func (d *Dispatcher) DispatchRule(ctx context.Context, r *rule.Rule, evt *event.Event) []Result {
	results := make([]Result, 0, len(r.Actions))

	if !d.rules.AllowExecution(r) {
		for i, a := range r.Actions {
			res := Result{
				RuleID:        r.ID,
				ActionIndex:   i,
				IntegrationID: a.IntegrationID,
				Action:        a.Type,
				Outcome:       OutcomeSkipped,
				Error:         "rule throttled by hourly cap",
			}
			d.finish(ctx, evt, res)
			results = append(results, res)
		}
		return results
	}

	succeeded, failed := 0, 0
	for i, a := range r.Actions {
		res := d.dispatchAction(ctx, r, i, a, evt)
		d.finish(ctx, evt, res)
		results = append(results, res)

		switch res.Outcome {
		case OutcomeSuccess:
			succeeded++
		case OutcomeFailed:
			failed++
		}
	}

	if err := d.rules.RecordExecution(ctx, r.ID, succeeded, failed); err != nil {
		d.logger.ErrorContext(ctx, "record rule execution failed",
			slog.String("rule_id", r.ID.String()), slog.Any("error", err))
	}

	return results
}

// dispatchAction resolves the integration, renders parameters, and executes
// one action with retries.
func (d *Dispatcher) dispatchAction(ctx context.Context, r *rule.Rule, idx int, a rule.ActionSpec, evt *event.Event) Result {
	res := Result{
		RuleID:        r.ID,
		ActionIndex:   idx,
		IntegrationID: a.IntegrationID,
		Action:        a.Type,
	}

	var span trace.Span
	if d.config.Tracer != nil {
		ctx, span = d.config.Tracer.StartDispatchSpan(ctx, r.ID.String(), a.IntegrationID.String(), a.Type)
	}

	start := time.Now()
	defer func() {
		res.LatencyMs = int(time.Since(start).Milliseconds())
		if span != nil {
			d.config.Tracer.EndDispatchSpan(span, string(res.Outcome), res.Attempts, res.LatencyMs, res.Error)
		}
	}()

	intg, err := d.integrations.Get(ctx, a.IntegrationID)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		return res
	}
	res.Platform = intg.Platform

	if !intg.Dispatchable() {
		res.Outcome = OutcomeSkipped
		res.Error = "integration is " + string(intg.Status)
		d.logger.InfoContext(ctx, "action skipped",
			slog.String("rule_id", r.ID.String()),
			slog.String("integration_id", intg.ID.String()),
			slog.String("status", string(intg.Status)),
		)
		return res
	}

	ad, err := d.adapters.Get(intg.Platform)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		return res
	}

	cred, err := d.integrations.Credential(ctx, intg.ID)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Error = err.Error()
		return res
	}

	params, unresolved := rule.RenderParams(a.Params, evt)
	res.Unresolved = unresolved

	acct := adapter.Account{Config: intg.Config, Credential: cred}
	attempts, execErr := d.config.Retry.Execute(ctx, func(ctx context.Context) error {
		return ad.Execute(ctx, a.Type, params, acct)
	})
	res.Attempts = attempts

	if execErr != nil {
		res.Outcome = OutcomeFailed
		res.Error = execErr.Error()
		d.logger.WarnContext(ctx, "action failed",
			slog.String("rule_id", r.ID.String()),
			slog.String("integration_id", intg.ID.String()),
			slog.String("action", a.Type),
			slog.Int("attempts", attempts),
			slog.Any("error", execErr),
		)
	} else {
		res.Outcome = OutcomeSuccess
		d.logger.DebugContext(ctx, "action dispatched",
			slog.String("rule_id", r.ID.String()),
			slog.String("integration_id", intg.ID.String()),
			slog.String("action", a.Type),
			slog.Int("attempts", attempts),
		)
	}

	if recErr := d.integrations.RecordDispatch(ctx, intg.ID, execErr == nil, res.Error); recErr != nil {
		d.logger.ErrorContext(ctx, "record integration dispatch failed",
			slog.String("integration_id", intg.ID.String()), slog.Any("error", recErr))
	}

	return res
}

// finish records metrics and the audit entry for a completed dispatch.
func (d *Dispatcher) finish(ctx context.Context, evt *event.Event, res Result) {
	if d.config.Metrics != nil {
		d.config.Metrics.RecordDispatch(res.Platform, string(res.Outcome), float64(res.LatencyMs)/1000.0)
	}
	if d.recorder != nil {
		if err := d.recorder.RecordDispatch(ctx, evt, res); err != nil {
			d.logger.ErrorContext(ctx, "record audit entry failed",
				slog.String("rule_id", res.RuleID.String()), slog.Any("error", err))
		}
	}
}

func flatten(perRule [][]Result) []Result {
	var out []Result
	for _, rs := range perRule {
		out = append(out, rs...)
	}
	return out
}
