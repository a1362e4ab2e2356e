package normalize

import (
	"fmt"

	"github.com/tandemhq/tandem/event"
)

// freshdeskEvents maps Freshdesk's webhook event names to internal event
// types shared across helpdesk platforms.
var freshdeskEvents = map[string]string{
	"ticket_create":          "ticket_created",
	"ticket_update":          "ticket_updated",
	"ticket_resolve":         "ticket_solved",
	"ticket_close":           "ticket_closed",
	"ticket_status_change":   "status_changed",
	"ticket_priority_change": "priority_changed",
	"ticket_agent_change":    "assignee_changed",
	"ticket_tag_add":         "tag_added",
	"ticket_tag_remove":      "tag_removed",
	"note_create":            "note_created",
	"contact_create":         "contact_created",
	"contact_update":         "contact_updated",
}

// Freshdesk normalizes Freshdesk webhook payloads. The discriminator is the
// top-level "event_type" field; payloads from older webhook rules omit it,
// in which case the presence of a "ticket", "contact", or "note" object
// decides the event type.
type Freshdesk struct{}

// Platform implements Normalizer.
func (Freshdesk) Platform() string { return "freshdesk" }

// Normalize implements Normalizer.
func (Freshdesk) Normalize(body []byte) (*event.Event, error) {
	raw, err := decode(body)
	if err != nil {
		return nil, err
	}

	typ, _ := raw["event_type"].(string)
	if typ == "" {
		typ = inferFreshdeskEvent(raw)
	}
	if typ == "" {
		return nil, fmt.Errorf("%w: freshdesk payload missing %q discriminator", ErrMalformed, "event_type")
	}

	internal, ok := freshdeskEvents[typ]
	if !ok {
		internal = typ
	}

	return build("freshdesk", internal, raw, body), nil
}

// inferFreshdeskEvent picks an event type from top-level object presence for
// legacy payloads without an event_type field.
func inferFreshdeskEvent(raw map[string]any) string {
	switch {
	case raw["ticket"] != nil:
		return "ticket_update"
	case raw["note"] != nil:
		return "note_create"
	case raw["contact"] != nil:
		return "contact_update"
	default:
		return ""
	}
}
