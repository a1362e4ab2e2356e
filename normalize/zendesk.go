package normalize

import (
	"fmt"

	"github.com/tandemhq/tandem/event"
)

// zendeskEvents maps Zendesk's dotted webhook event names to internal event
// types shared across helpdesk platforms.
var zendeskEvents = map[string]string{
	"ticket.created":          "ticket_created",
	"ticket.updated":          "ticket_updated",
	"ticket.solved":           "ticket_solved",
	"ticket.closed":           "ticket_closed",
	"ticket.status_changed":   "status_changed",
	"ticket.priority_changed": "priority_changed",
	"ticket.assignee_changed": "assignee_changed",
	"ticket.tag_added":        "tag_added",
	"ticket.tag_removed":      "tag_removed",
	"comment.created":         "comment_created",
	"user.created":            "user_created",
	"user.updated":            "user_updated",
	"organization.created":    "organization_created",
	"organization.updated":    "organization_updated",
}

// Zendesk normalizes Zendesk webhook payloads. The event type discriminator
// is the top-level "type" field.
type Zendesk struct{}

// Platform implements Normalizer.
func (Zendesk) Platform() string { return "zendesk" }

// Normalize implements Normalizer.
func (Zendesk) Normalize(body []byte) (*event.Event, error) {
	raw, err := decode(body)
	if err != nil {
		return nil, err
	}

	typ, _ := raw["type"].(string)
	if typ == "" {
		return nil, fmt.Errorf("%w: zendesk payload missing %q discriminator", ErrMalformed, "type")
	}

	internal, ok := zendeskEvents[typ]
	if !ok {
		internal = typ
	}

	return build("zendesk", internal, raw, body), nil
}
