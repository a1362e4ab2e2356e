// Package dispatch executes the actions of matched rules against their
// integrations, with bounded retries and per-action isolation.
package dispatch

import (
	"github.com/tandemhq/tandem/id"
)

// Outcome is the final state of one action dispatch.
type Outcome string

const (
	// OutcomeSuccess means the action executed on the platform.
	OutcomeSuccess Outcome = "success"

	// OutcomeFailed means the action exhausted its attempts or hit a
	// non-retryable error.
	OutcomeFailed Outcome = "failed"

	// OutcomeSkipped means the action never ran: its integration is paused
	// or errored, or the rule was throttled.
	OutcomeSkipped Outcome = "skipped"
)

// Result records the outcome of one action dispatch. One rule firing
// produces one Result per action; a failed action never prevents its
// siblings from running.
type Result struct {
	// RuleID is the rule that fired.
	RuleID id.ID `json:"rule_id"`

	// ActionIndex is the action's position within the rule.
	ActionIndex int `json:"action_index"`

	// IntegrationID is the integration the action targeted.
	IntegrationID id.ID `json:"integration_id"`

	// Platform is the target platform.
	Platform string `json:"platform,omitempty"`

	// Action is the action type.
	Action string `json:"action"`

	// Outcome is the final state.
	Outcome Outcome `json:"outcome"`

	// Error is the final error message for failed or skipped dispatches.
	Error string `json:"error,omitempty"`

	// Attempts is how many execution attempts were made.
	Attempts int `json:"attempts"`

	// Unresolved lists template paths that did not resolve against the
	// event and were substituted with empty strings.
	Unresolved []string `json:"unresolved,omitempty"`

	// LatencyMs is the total time spent executing, including retries.
	LatencyMs int `json:"latency_ms"`
}
