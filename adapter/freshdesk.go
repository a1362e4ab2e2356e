package adapter

import (
	"context"
	"encoding/base64"
)

// Freshdesk executes actions against the Freshdesk API. The account host is
// derived from the integration config's "domain" value; the API key travels
// in Credential.Token and authenticates as HTTP Basic with "X" as the
// password.
type Freshdesk struct {
	client
}

// NewFreshdesk creates the Freshdesk adapter.
func NewFreshdesk(opts ...Option) *Freshdesk {
	return &Freshdesk{client: newClient("freshdesk", "", opts...)}
}

// Platform implements Adapter.
func (f *Freshdesk) Platform() string { return "freshdesk" }

// Actions implements Adapter.
func (f *Freshdesk) Actions() []ActionDef {
	return []ActionDef{
		{
			Type:        "create_ticket",
			Description: "Create a ticket.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"subject", "description", "email"},
				"properties": map[string]any{
					"subject":     map[string]any{"type": "string", "minLength": 1},
					"description": map[string]any{"type": "string", "minLength": 1},
					"email":       map[string]any{"type": "string"},
					"priority":    map[string]any{"type": "number"},
					"status":      map[string]any{"type": "number"},
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
					"priority":  map[string]any{"type": "number"},
					"status":    map[string]any{"type": "number"},
					"tags":      map[string]any{"type": "array"},
				},
			},
		},
		{
			Type:        "add_note",
			Description: "Add a private note to a ticket.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"ticket_id", "body"},
				"properties": map[string]any{
					"ticket_id": map[string]any{"type": "string"},
					"body":      map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
	}
}

// Execute implements Adapter.
func (f *Freshdesk) Execute(ctx context.Context, action string, params map[string]any, acct Account) error {
	base, err := f.host(acct)
	if err != nil {
		return err
	}

	switch action {
	case "create_ticket":
		return f.createTicket(ctx, base, params, acct)
	case "update_ticket":
		return f.updateTicket(ctx, base, params, acct)
	case "add_note":
		return f.addNote(ctx, base, params, acct)
	default:
		return &UnsupportedActionError{Platform: "freshdesk", Action: action}
	}
}

// TestConnection implements Adapter.
func (f *Freshdesk) TestConnection(ctx context.Context, acct Account) error {
	base, err := f.host(acct)
	if err != nil {
		return err
	}
	return f.do(ctx, request{
		method:  "GET",
		path:    "/api/v2/tickets?per_page=1",
		headers: f.headers(acct),
		base:    base,
	})
}

func (f *Freshdesk) createTicket(ctx context.Context, base string, params map[string]any, acct Account) error {
	subject, err := stringParam("freshdesk", params, "subject")
	if err != nil {
		return err
	}
	description, err := stringParam("freshdesk", params, "description")
	if err != nil {
		return err
	}
	email, err := stringParam("freshdesk", params, "email")
	if err != nil {
		return err
	}

	body := map[string]any{
		"subject":     subject,
		"description": description,
		"email":       email,
		"priority":    numberOr(params, "priority", 1),
		"status":      numberOr(params, "status", 2),
	}

	return f.do(ctx, request{
		method:  "POST",
		path:    "/api/v2/tickets",
		headers: f.headers(acct),
		body:    body,
		base:    base,
	})
}

func (f *Freshdesk) updateTicket(ctx context.Context, base string, params map[string]any, acct Account) error {
	ticketID, err := stringParam("freshdesk", params, "ticket_id")
	if err != nil {
		return err
	}

	body := map[string]any{}
	if v, ok := params["priority"]; ok {
		body["priority"] = v
	}
	if v, ok := params["status"]; ok {
		body["status"] = v
	}
	if v, ok := params["tags"]; ok {
		body["tags"] = v
	}
	if len(body) == 0 {
		return &ValidationError{Platform: "freshdesk", Message: "update_ticket requires at least one field to change"}
	}

	return f.do(ctx, request{
		method:  "PUT",
		path:    "/api/v2/tickets/" + ticketID,
		headers: f.headers(acct),
		body:    body,
		base:    base,
	})
}

func (f *Freshdesk) addNote(ctx context.Context, base string, params map[string]any, acct Account) error {
	ticketID, err := stringParam("freshdesk", params, "ticket_id")
	if err != nil {
		return err
	}
	noteBody, err := stringParam("freshdesk", params, "body")
	if err != nil {
		return err
	}

	return f.do(ctx, request{
		method:  "POST",
		path:    "/api/v2/tickets/" + ticketID + "/notes",
		headers: f.headers(acct),
		body: map[string]any{
			"body":    noteBody,
			"private": true,
		},
		base: base,
	})
}

func (f *Freshdesk) host(acct Account) (string, error) {
	domain := acct.Config["domain"]
	if domain == "" {
		return "", &ValidationError{Platform: "freshdesk", Message: "no domain in integration config"}
	}
	return "https://" + domain + ".freshdesk.com", nil
}

func (f *Freshdesk) headers(acct Account) map[string]string {
	basic := base64.StdEncoding.EncodeToString([]byte(acct.Credential.Token + ":X"))
	return map[string]string{"Authorization": "Basic " + basic}
}

// numberOr returns a numeric parameter or the fallback.
func numberOr(params map[string]any, key string, fallback float64) float64 {
	if v, ok := params[key].(float64); ok {
		return v
	}
	return fallback
}
