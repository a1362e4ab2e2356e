package adapter

import (
	"context"
	"net/url"
	"strings"
	"time"
)

const slackAPIBase = "https://slack.com/api"

// Slack executes actions against the Slack Web API using a bot token.
type Slack struct {
	client
}

// NewSlack creates the Slack adapter.
func NewSlack(opts ...Option) *Slack {
	return &Slack{client: newClient("slack", slackAPIBase, opts...)}
}

// Platform implements Adapter.
func (s *Slack) Platform() string { return "slack" }

// Actions implements Adapter.
func (s *Slack) Actions() []ActionDef {
	return []ActionDef{
		{
			Type:        "send_message",
			Description: "Post a message to a channel.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"text"},
				"properties": map[string]any{
					"channel": map[string]any{"type": "string"},
					"text":    map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
		{
			Type:        "send_direct_message",
			Description: "Send a direct message to a user, by ID or email.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"text"},
				"properties": map[string]any{
					"user_id":    map[string]any{"type": "string"},
					"user_email": map[string]any{"type": "string", "format": "email"},
					"text":       map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
		{
			Type:        "create_channel",
			Description: "Create a public channel.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"name"},
				"properties": map[string]any{
					"name": map[string]any{"type": "string", "minLength": 1},
				},
			},
		},
		{
			Type:        "add_reaction",
			Description: "Add an emoji reaction to a message.",
			Schema: map[string]any{
				"type":     "object",
				"required": []any{"channel", "timestamp", "name"},
				"properties": map[string]any{
					"channel":   map[string]any{"type": "string"},
					"timestamp": map[string]any{"type": "string"},
					"name":      map[string]any{"type": "string"},
				},
			},
		},
	}
}

// Execute implements Adapter.
func (s *Slack) Execute(ctx context.Context, action string, params map[string]any, acct Account) error {
	switch action {
	case "send_message":
		return s.sendMessage(ctx, params, acct)
	case "send_direct_message":
		return s.sendDirectMessage(ctx, params, acct)
	case "create_channel":
		return s.createChannel(ctx, params, acct)
	case "add_reaction":
		return s.addReaction(ctx, params, acct)
	default:
		return &UnsupportedActionError{Platform: "slack", Action: action}
	}
}

// TestConnection implements Adapter.
func (s *Slack) TestConnection(ctx context.Context, acct Account) error {
	return s.call(ctx, "/auth.test", nil, acct)
}

func (s *Slack) sendMessage(ctx context.Context, params map[string]any, acct Account) error {
	text, err := stringParam("slack", params, "text")
	if err != nil {
		return err
	}
	channel := optionalParam(params, acct.Config, "channel")
	if channel == "" {
		return &ValidationError{Platform: "slack", Message: "no channel in parameters or integration config"}
	}

	return s.call(ctx, "/chat.postMessage", map[string]any{
		"channel": channel,
		"text":    text,
	}, acct)
}

// sendDirectMessage posts to the user's DM conversation; chat.postMessage
// opens it when given a user ID as the channel.
func (s *Slack) sendDirectMessage(ctx context.Context, params map[string]any, acct Account) error {
	text, err := stringParam("slack", params, "text")
	if err != nil {
		return err
	}

	userID, _ := params["user_id"].(string)
	if userID == "" {
		email, ok := params["user_email"].(string)
		if !ok || email == "" {
			return &ValidationError{Platform: "slack", Message: "send_direct_message needs user_id or user_email"}
		}
		userID, err = s.lookupUserByEmail(ctx, email, acct)
		if err != nil {
			return err
		}
	}

	return s.call(ctx, "/chat.postMessage", map[string]any{
		"channel": userID,
		"text":    text,
	}, acct)
}

func (s *Slack) lookupUserByEmail(ctx context.Context, email string, acct Account) (string, error) {
	var out struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}

	err := s.do(ctx, request{
		method:  "GET",
		path:    "/users.lookupByEmail",
		query:   url.Values{"email": {email}},
		headers: map[string]string{"Authorization": "Bearer " + acct.Credential.Token},
		out:     &out,
	})
	if err != nil {
		return "", err
	}
	if !out.OK {
		return "", slackInBandError(out.Error)
	}
	return out.User.ID, nil
}

func (s *Slack) createChannel(ctx context.Context, params map[string]any, acct Account) error {
	name, err := stringParam("slack", params, "name")
	if err != nil {
		return err
	}
	sanitized := channelName(name)
	if sanitized == "" {
		return &ValidationError{Platform: "slack", Message: "channel name has no usable characters"}
	}
	return s.call(ctx, "/conversations.create", map[string]any{
		"name": sanitized,
	}, acct)
}

// channelName rewrites a free-form name into Slack's channel naming rules:
// lowercase letters, digits, dashes, and underscores, at most 80 characters.
func channelName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteByte('-')
		}
	}
	out := b.String()
	if len(out) > 80 {
		out = out[:80]
	}
	return out
}

func (s *Slack) addReaction(ctx context.Context, params map[string]any, acct Account) error {
	channel, err := stringParam("slack", params, "channel")
	if err != nil {
		return err
	}
	ts, err := stringParam("slack", params, "timestamp")
	if err != nil {
		return err
	}
	name, err := stringParam("slack", params, "name")
	if err != nil {
		return err
	}

	return s.call(ctx, "/reactions.add", map[string]any{
		"channel":   channel,
		"timestamp": ts,
		"name":      name,
	}, acct)
}

// call posts to a Slack method and folds Slack's in-band error convention
// into the taxonomy: the Web API answers 200 with ok=false on failure.
func (s *Slack) call(ctx context.Context, method string, body map[string]any, acct Account) error {
	var out struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}

	err := s.do(ctx, request{
		method:  "POST",
		path:    method,
		headers: map[string]string{"Authorization": "Bearer " + acct.Credential.Token},
		body:    body,
		out:     &out,
	})
	if err != nil {
		return err
	}
	if out.OK {
		return nil
	}
	return slackInBandError(out.Error)
}

func slackInBandError(code string) error {
	switch {
	case code == "invalid_auth" || code == "token_revoked" || code == "account_inactive" || code == "not_authed":
		return &AuthError{Platform: "slack", Message: code}
	case code == "channel_not_found" || code == "message_not_found" || code == "users_not_found":
		return &NotFoundError{Platform: "slack", Message: code}
	case code == "rate_limited" || strings.HasPrefix(code, "ratelimited"):
		return &RateLimitedError{Platform: "slack", RetryAfter: time.Second}
	default:
		return &ValidationError{Platform: "slack", Message: code}
	}
}
