package adapter

import (
	"context"
	"encoding/base64"
)

// Zendesk executes actions against the Zendesk API. The account host is
// derived from the integration config's "subdomain" value; the API token
// travels in Credential.Token and the account email in Credential.Secondary,
// authenticating as HTTP Basic "email/token:token".
type Zendesk struct {
	client
}

// NewZendesk creates the Zendesk adapter.
func NewZendesk(opts ...Option) *Zendesk {
	return &Zendesk{client: newClient("zendesk", "", opts...)}
}

// Platform implements Adapter.
func (z *Zendesk) Platform() string { return "zendesk" }

// Actions implements Adapter.
func (z *Zendesk) Actions() []ActionDef {
	return []ActionDef{
		{
			Type:        "create_ticket",
			Description: "Create a new ticket.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"subject"},
				"properties": map[string]any{
					"subject":     map[string]any{"type": "string", "minLength": 1},
					"description": map[string]any{"type": "string"},
					"priority":    map[string]any{"type": "string"},
					"type":        map[string]any{"type": "string"},
					"tags":        map[string]any{"type": "array"},
				},
			},
		},
		{
			Type:        "update_ticket",
			Description: "Update a ticket's status, priority, or tags.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"ticket_id"},
				"properties": map[string]any{
					"ticket_id": map[string]any{"type": "string"},
					"status":    map[string]any{"type": "string"},
					"priority":  map[string]any{"type": "string"},
					"tags":      map[string]any{"type": "array"},
				},
			},
		},
		{
			Type:        "add_tags",
			Description: "Add tags to a ticket, keeping its existing tags.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"ticket_id", "tags"},
				"properties": map[string]any{
					"ticket_id": map[string]any{"type": "string"},
					"tags":      map[string]any{"type": "array", "minItems": 1},
				},
			},
		},
		{
			Type:        "add_comment",
			Description: "Add an internal comment to a ticket.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"ticket_id", "body"},
				"properties": map[string]any{
					"ticket_id": map[string]any{"type": "string"},
					"body":      map[string]any{"type": "string", "minLength": 1},
					"public":    map[string]any{"type": "boolean"},
				},
			},
		},
	}
}

// Execute implements Adapter.
func (z *Zendesk) Execute(ctx context.Context, action string, params map[string]any, acct Account) error {
	base, err := z.host(acct)
	if err != nil {
		return err
	}

	switch action {
	case "create_ticket":
		return z.createTicket(ctx, base, params, acct)
	case "update_ticket":
		return z.updateTicket(ctx, base, params, acct)
	case "add_tags":
		return z.addTags(ctx, base, params, acct)
	case "add_comment":
		return z.addComment(ctx, base, params, acct)
	default:
		return &UnsupportedActionError{Platform: "zendesk", Action: action}
	}
}

// TestConnection implements Adapter.
func (z *Zendesk) TestConnection(ctx context.Context, acct Account) error {
	base, err := z.host(acct)
	if err != nil {
		return err
	}
	return z.do(ctx, request{
		method:  "GET",
		path:    "/api/v2/users/me.json",
		headers: z.headers(acct),
		base:    base,
	})
}

func (z *Zendesk) createTicket(ctx context.Context, base string, params map[string]any, acct Account) error {
	subject, err := stringParam("zendesk", params, "subject")
	if err != nil {
		return err
	}

	ticket := map[string]any{"subject": subject}
	if v, ok := params["description"].(string); ok && v != "" {
		ticket["comment"] = map[string]any{"body": v}
	}
	if v, ok := params["priority"]; ok {
		ticket["priority"] = v
	}
	if v, ok := params["type"]; ok {
		ticket["type"] = v
	}
	if v, ok := params["tags"]; ok {
		ticket["tags"] = v
	}

	return z.do(ctx, request{
		method:  "POST",
		path:    "/api/v2/tickets.json",
		headers: z.headers(acct),
		body:    map[string]any{"ticket": ticket},
		base:    base,
	})
}

// addTags merges the new tags into the ticket's current set; a plain ticket
// update replaces the tag list wholesale.
func (z *Zendesk) addTags(ctx context.Context, base string, params map[string]any, acct Account) error {
	ticketID, err := stringParam("zendesk", params, "ticket_id")
	if err != nil {
		return err
	}
	raw, ok := params["tags"].([]any)
	if !ok || len(raw) == 0 {
		return &ValidationError{Platform: "zendesk", Message: `parameter "tags" must be a non-empty array`}
	}

	var current struct {
		Ticket struct {
			Tags []string `json:"tags"`
		} `json:"ticket"`
	}
	if err := z.do(ctx, request{
		method:  "GET",
		path:    "/api/v2/tickets/" + ticketID + ".json",
		headers: z.headers(acct),
		out:     &current,
		base:    base,
	}); err != nil {
		return err
	}

	merged := current.Ticket.Tags
	seen := make(map[string]bool, len(merged))
	for _, tag := range merged {
		seen[tag] = true
	}
	for _, v := range raw {
		tag, ok := v.(string)
		if !ok || tag == "" {
			return &ValidationError{Platform: "zendesk", Message: `parameter "tags" must contain non-empty strings`}
		}
		if !seen[tag] {
			seen[tag] = true
			merged = append(merged, tag)
		}
	}

	return z.do(ctx, request{
		method:  "PUT",
		path:    "/api/v2/tickets/" + ticketID + ".json",
		headers: z.headers(acct),
		body:    map[string]any{"ticket": map[string]any{"tags": merged}},
		base:    base,
	})
}

func (z *Zendesk) updateTicket(ctx context.Context, base string, params map[string]any, acct Account) error {
	ticketID, err := stringParam("zendesk", params, "ticket_id")
	if err != nil {
		return err
	}

	ticket := map[string]any{}
	if v, ok := params["status"]; ok {
		ticket["status"] = v
	}
	if v, ok := params["priority"]; ok {
		ticket["priority"] = v
	}
	if v, ok := params["tags"]; ok {
		ticket["tags"] = v
	}
	if len(ticket) == 0 {
		return &ValidationError{Platform: "zendesk", Message: "update_ticket requires at least one field to change"}
	}

	return z.do(ctx, request{
		method:  "PUT",
		path:    "/api/v2/tickets/" + ticketID + ".json",
		headers: z.headers(acct),
		body:    map[string]any{"ticket": ticket},
		base:    base,
	})
}

// addComment updates the ticket with a comment object; Zendesk has no
// standalone comment endpoint.
func (z *Zendesk) addComment(ctx context.Context, base string, params map[string]any, acct Account) error {
	ticketID, err := stringParam("zendesk", params, "ticket_id")
	if err != nil {
		return err
	}
	body, err := stringParam("zendesk", params, "body")
	if err != nil {
		return err
	}

	public := false
	if v, ok := params["public"].(bool); ok {
		public = v
	}

	return z.do(ctx, request{
		method:  "PUT",
		path:    "/api/v2/tickets/" + ticketID + ".json",
		headers: z.headers(acct),
		body: map[string]any{
			"ticket": map[string]any{
				"comment": map[string]any{
					"body":   body,
					"public": public,
				},
			},
		},
		base: base,
	})
}

func (z *Zendesk) host(acct Account) (string, error) {
	subdomain := acct.Config["subdomain"]
	if subdomain == "" {
		return "", &ValidationError{Platform: "zendesk", Message: "no subdomain in integration config"}
	}
	return "https://" + subdomain + ".zendesk.com", nil
}

func (z *Zendesk) headers(acct Account) map[string]string {
	basic := base64.StdEncoding.EncodeToString([]byte(acct.Credential.Secondary + "/token:" + acct.Credential.Token))
	return map[string]string{"Authorization": "Basic " + basic}
}
