package adapter

import (
	"context"
)

const (
	notionAPIBase = "https://api.notion.com"

	// notionVersion pins the API revision; Notion requires it on every call.
	notionVersion = "2022-06-28"
)

// Notion executes actions against the Notion API using an internal
// integration token.
type Notion struct {
	client
}

// NewNotion creates the Notion adapter.
func NewNotion(opts ...Option) *Notion {
	return &Notion{client: newClient("notion", notionAPIBase, opts...)}
}

// Platform implements Adapter.
func (n *Notion) Platform() string { return "notion" }

// Actions implements Adapter.
func (n *Notion) Actions() []ActionDef {
	return []ActionDef{
		{
			Type:        "create_page",
			Description: "Create a page in a database.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"title"},
				"properties": map[string]any{
					"database_id": map[string]any{"type": "string"},
					"title":       map[string]any{"type": "string", "minLength": 1},
					"content":     map[string]any{"type": "string"},
				},
			},
		},
		{
			Type:        "update_page",
			Description: "Rename or archive a page.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"page_id"},
				"properties": map[string]any{
					"page_id":  map[string]any{"type": "string"},
					"title":    map[string]any{"type": "string"},
					"archived": map[string]any{"type": "boolean"},
				},
			},
		},
		{
			Type:        "append_block",
			Description: "Append a paragraph to a page.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"page_id", "content"},
				"properties": map[string]any{
					"page_id": map[string]any{"type": "string"},
					"content": map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
	}
}

// Execute implements Adapter.
func (n *Notion) Execute(ctx context.Context, action string, params map[string]any, acct Account) error {
	switch action {
	case "create_page":
		return n.createPage(ctx, params, acct)
	case "update_page":
		return n.updatePage(ctx, params, acct)
	case "append_block":
		return n.appendBlock(ctx, params, acct)
	default:
		return &UnsupportedActionError{Platform: "notion", Action: action}
	}
}

// TestConnection implements Adapter.
func (n *Notion) TestConnection(ctx context.Context, acct Account) error {
	return n.do(ctx, request{
		method:  "GET",
		path:    "/v1/users/me",
		headers: n.headers(acct),
	})
}

func (n *Notion) createPage(ctx context.Context, params map[string]any, acct Account) error {
	title, err := stringParam("notion", params, "title")
	if err != nil {
		return err
	}
	databaseID := optionalParam(params, acct.Config, "database_id")
	if databaseID == "" {
		return &ValidationError{Platform: "notion", Message: "no database_id in parameters or integration config"}
	}

	body := map[string]any{
		"parent": map[string]any{"database_id": databaseID},
		"properties": map[string]any{
			"Name": map[string]any{
				"title": []any{richText(title)},
			},
		},
	}
	if content, ok := params["content"].(string); ok && content != "" {
		body["children"] = []any{paragraph(content)}
	}

	return n.do(ctx, request{
		method:  "POST",
		path:    "/v1/pages",
		headers: n.headers(acct),
		body:    body,
	})
}

func (n *Notion) updatePage(ctx context.Context, params map[string]any, acct Account) error {
	pageID, err := stringParam("notion", params, "page_id")
	if err != nil {
		return err
	}

	body := map[string]any{}
	if title, ok := params["title"].(string); ok && title != "" {
		body["properties"] = map[string]any{
			"Name": map[string]any{
				"title": []any{richText(title)},
			},
		}
	}
	if archived, ok := params["archived"].(bool); ok {
		body["archived"] = archived
	}
	if len(body) == 0 {
		return &ValidationError{Platform: "notion", Message: "update_page requires a title or archived flag"}
	}

	return n.do(ctx, request{
		method:  "PATCH",
		path:    "/v1/pages/" + pageID,
		headers: n.headers(acct),
		body:    body,
	})
}

func (n *Notion) appendBlock(ctx context.Context, params map[string]any, acct Account) error {
	pageID, err := stringParam("notion", params, "page_id")
	if err != nil {
		return err
	}
	content, err := stringParam("notion", params, "content")
	if err != nil {
		return err
	}

	return n.do(ctx, request{
		method:  "PATCH",
		path:    "/v1/blocks/" + pageID + "/children",
		headers: n.headers(acct),
		body: map[string]any{
			"children": []any{paragraph(content)},
		},
	})
}

func (n *Notion) headers(acct Account) map[string]string {
	return map[string]string{
		"Authorization":  "Bearer " + acct.Credential.Token,
		"Notion-Version": notionVersion,
	}
}

func richText(text string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]any{"content": text},
	}
}

func paragraph(text string) map[string]any {
	return map[string]any{
		"object": "block",
		"type":   "paragraph",
		"paragraph": map[string]any{
			"rich_text": []any{richText(text)},
		},
	}
}
