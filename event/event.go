// Package event defines the canonical, platform-agnostic representation of
// an inbound webhook notification and the tagged Value union used for
// condition evaluation and template substitution.
package event

import "time"

// Event is the canonical normalized form of one webhook notification.
// It is constructed once by a normalizer and immutable afterwards; it lives
// only for the duration of one pipeline run.
type Event struct {
	// Platform is the source platform identifier (e.g. "zendesk").
	Platform string `json:"platform"`

	// Type is the internal event type name (e.g. "ticket_created").
	Type string `json:"type"`

	// OccurredAt is when the event was received.
	OccurredAt time.Time `json:"occurred_at"`

	// Payload holds the normalized fields. Nested platform objects are kept
	// as Map values AND flattened to dotted-path keys (e.g.
	// "ticket.requester.email") so conditions resolve either way.
	Payload map[string]Value `json:"payload"`

	// Raw is the untouched webhook body, retained for audit.
	Raw []byte `json:"-"`

	// Unverified is set when signature verification was skipped because no
	// secret is configured for the platform.
	Unverified bool `json:"unverified,omitempty"`
}

// Lookup resolves a dotted field path against the event payload. It first
// tries the path as a literal key (normalizers pre-flatten common paths),
// then walks nested Map values segment by segment.
func (e *Event) Lookup(path string) (Value, bool) {
	return Lookup(e.Payload, path)
}
