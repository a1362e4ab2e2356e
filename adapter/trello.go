package adapter

import (
	"context"
	"net/url"
)

const trelloAPIBase = "https://api.trello.com/1"

// Trello executes actions against the Trello REST API. Trello authenticates
// with an API key and token passed as query parameters; the key travels in
// Credential.Secondary and the token in Credential.Token.
type Trello struct {
	client
}

// NewTrello creates the Trello adapter.
func NewTrello(opts ...Option) *Trello {
	return &Trello{client: newClient("trello", trelloAPIBase, opts...)}
}

// Platform implements Adapter.
func (t *Trello) Platform() string { return "trello" }

// Actions implements Adapter.
func (t *Trello) Actions() []ActionDef {
	return []ActionDef{
		{
			Type:        "create_card",
			Description: "Create a card on a list.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"name"},
				"properties": map[string]any{
					"list_id":     map[string]any{"type": "string"},
					"name":        map[string]any{"type": "string", "minLength": 1},
					"description": map[string]any{"type": "string"},
				},
			},
		},
		{
			Type:        "move_card",
			Description: "Move a card to another list.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"card_id", "list_id"},
				"properties": map[string]any{
					"card_id": map[string]any{"type": "string"},
					"list_id": map[string]any{"type": "string"},
				},
			},
		},
		{
			Type:        "add_comment",
			Description: "Comment on a card.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"card_id", "text"},
				"properties": map[string]any{
					"card_id": map[string]any{"type": "string"},
					"text":    map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
	}
}

// Execute implements Adapter.
func (t *Trello) Execute(ctx context.Context, action string, params map[string]any, acct Account) error {
	switch action {
	case "create_card":
		return t.createCard(ctx, params, acct)
	case "move_card":
		return t.moveCard(ctx, params, acct)
	case "add_comment":
		return t.addComment(ctx, params, acct)
	default:
		return &UnsupportedActionError{Platform: "trello", Action: action}
	}
}

// TestConnection implements Adapter.
func (t *Trello) TestConnection(ctx context.Context, acct Account) error {
	return t.do(ctx, request{
		method: "GET",
		path:   "/members/me",
		query:  t.auth(acct),
	})
}

func (t *Trello) createCard(ctx context.Context, params map[string]any, acct Account) error {
	name, err := stringParam("trello", params, "name")
	if err != nil {
		return err
	}
	listID := optionalParam(params, acct.Config, "list_id")
	if listID == "" {
		return &ValidationError{Platform: "trello", Message: "no list_id in parameters or integration config"}
	}

	q := t.auth(acct)
	q.Set("idList", listID)
	q.Set("name", name)
	if desc, ok := params["description"].(string); ok && desc != "" {
		q.Set("desc", desc)
	}

	return t.do(ctx, request{method: "POST", path: "/cards", query: q})
}

func (t *Trello) moveCard(ctx context.Context, params map[string]any, acct Account) error {
	cardID, err := stringParam("trello", params, "card_id")
	if err != nil {
		return err
	}
	listID, err := stringParam("trello", params, "list_id")
	if err != nil {
		return err
	}

	q := t.auth(acct)
	q.Set("idList", listID)

	return t.do(ctx, request{method: "PUT", path: "/cards/" + cardID, query: q})
}

func (t *Trello) addComment(ctx context.Context, params map[string]any, acct Account) error {
	cardID, err := stringParam("trello", params, "card_id")
	if err != nil {
		return err
	}
	text, err := stringParam("trello", params, "text")
	if err != nil {
		return err
	}

	q := t.auth(acct)
	q.Set("text", text)

	return t.do(ctx, request{method: "POST", path: "/cards/" + cardID + "/actions/comments", query: q})
}

func (t *Trello) auth(acct Account) url.Values {
	return url.Values{
		"key":   []string{acct.Credential.Secondary},
		"token": []string{acct.Credential.Token},
	}
}
