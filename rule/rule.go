// Package rule holds the automation rule model and the matching engine that
// decides which rules fire for an incoming event.
package rule

import (
	"time"

	"github.com/tandemhq/tandem/event"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/internal/entity"
)

// Operator is a condition comparison operator.
type Operator string

const (
	// OpEq matches when the field value structurally equals the expected value.
	OpEq Operator = "eq"

	// OpNeq matches when the field value differs from the expected value.
	OpNeq Operator = "neq"

	// OpGt matches when both values are numbers and the field is greater.
	OpGt Operator = "gt"

	// OpLt matches when both values are numbers and the field is lesser.
	OpLt Operator = "lt"

	// OpContains matches substrings of string fields and members of sequence
	// fields.
	OpContains Operator = "contains"

	// OpMatches matches the field's text rendering against a regular
	// expression.
	OpMatches Operator = "matches"
)

// Valid reports whether the operator is one of the supported comparisons.
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNeq, OpGt, OpLt, OpContains, OpMatches:
		return true
	}
	return false
}

// TriggerSpec names the platform and event type a rule listens for.
type TriggerSpec struct {
	// Platform is the source platform identifier, e.g. "zendesk".
	Platform string `json:"platform"`

	// EventType is the normalized event type, e.g. "ticket_created".
	EventType string `json:"event_type"`
}

// Condition is a single field comparison. All of a rule's conditions must
// hold for the rule to fire.
type Condition struct {
	// Field is a dotted path into the event payload.
	Field string `json:"field"`

	// Operator selects the comparison.
	Operator Operator `json:"operator"`

	// Value is the expected operand.
	Value event.Value `json:"value"`
}

// ActionSpec describes one action a rule performs when it fires. String
// parameters may carry {{field.path}} placeholders resolved against the
// triggering event.
type ActionSpec struct {
	// IntegrationID names the integration the action executes against.
	IntegrationID id.ID `json:"integration_id"`

	// Type is the action identifier understood by the integration's
	// adapter, e.g. "send_message" or "create_card".
	Type string `json:"type"`

	// Params are the action parameters, validated against the adapter's
	// declared schema before the rule is saved.
	Params map[string]any `json:"params,omitempty"`
}

// Rule is a stored automation rule: when an event of the trigger's type
// arrives and every condition holds, each action is dispatched in order.
type Rule struct {
	entity.Entity

	// ID is the unique TypeID for this rule. IDs are K-sortable, so
	// ordering by ID is creation order.
	ID id.ID `json:"id"`

	// Name is a human-readable rule name.
	Name string `json:"name"`

	// Description explains what the rule automates.
	Description string `json:"description,omitempty"`

	// Trigger selects which events this rule evaluates.
	Trigger TriggerSpec `json:"trigger"`

	// Conditions must all hold for the rule to fire. Empty means the rule
	// fires on every trigger event.
	Conditions []Condition `json:"conditions,omitempty"`

	// Actions run in order when the rule fires.
	Actions []ActionSpec `json:"actions"`

	// Enabled indicates whether the rule participates in matching.
	Enabled bool `json:"enabled"`

	// MaxPerHour caps rule executions per hour. 0 means unlimited.
	MaxPerHour int `json:"max_per_hour"`

	// ExecutionCount is the total number of times the rule has fired.
	ExecutionCount int64 `json:"execution_count"`

	// SuccessCount is the total number of actions this rule dispatched
	// successfully.
	SuccessCount int64 `json:"success_count"`

	// FailureCount is the total number of actions that failed after
	// retries. Skipped actions count toward neither tally.
	FailureCount int64 `json:"failure_count"`

	// LastExecutedAt is when the rule last fired, nil if never.
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`
}

// SuccessRate is the cumulative fraction of this rule's action dispatches
// that succeeded, in [0, 1]. A rule that has never dispatched reports 0.
func (r *Rule) SuccessRate() float64 {
	total := r.SuccessCount + r.FailureCount
	if total == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(total)
}
