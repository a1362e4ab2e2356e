// Package audit keeps the execution trail: one entry per action dispatch,
// queryable by rule, integration, and outcome.
package audit

import (
	"time"

	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/internal/entity"
)

// Entry records one action dispatch.
type Entry struct {
	entity.Entity

	// ID is the unique TypeID for this audit entry.
	ID id.ID `json:"id"`

	// RuleID references the rule that fired.
	RuleID id.ID `json:"rule_id"`

	// IntegrationID references the integration the action targeted.
	IntegrationID id.ID `json:"integration_id"`

	// SourcePlatform is the platform the triggering event came from.
	SourcePlatform string `json:"source_platform"`

	// EventType is the normalized event type that fired the rule.
	EventType string `json:"event_type"`

	// TargetPlatform is the platform the action executed against.
	TargetPlatform string `json:"target_platform,omitempty"`

	// Action is the action type.
	Action string `json:"action"`

	// Outcome is "success", "failed", or "skipped".
	Outcome string `json:"outcome"`

	// Error is the final error message for failed or skipped dispatches.
	Error string `json:"error,omitempty"`

	// Attempts is how many execution attempts were made.
	Attempts int `json:"attempts"`

	// Unresolved lists template paths that did not resolve.
	Unresolved []string `json:"unresolved,omitempty"`

	// LatencyMs is the dispatch time including retries.
	LatencyMs int `json:"latency_ms"`

	// DispatchedAt is when the dispatch completed.
	DispatchedAt time.Time `json:"dispatched_at"`
}

// ListOpts configures filtering and pagination for audit listing.
type ListOpts struct {
	Offset        int
	Limit         int
	RuleID        *id.ID
	IntegrationID *id.ID
	Outcome       string
	From          *time.Time
	To            *time.Time
}
