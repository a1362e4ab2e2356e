package normalize

import (
	"fmt"

	"github.com/tandemhq/tandem/event"
)

// Slack normalizes Slack Events API payloads. The outer envelope carries a
// "type" field; for "event_callback" envelopes the inner event's type is the
// discriminator. "url_verification" challenges pass through with their own
// event type so the HTTP layer can echo the challenge.
type Slack struct{}

// Platform implements Normalizer.
func (Slack) Platform() string { return "slack" }

// Normalize implements Normalizer.
func (Slack) Normalize(body []byte) (*event.Event, error) {
	raw, err := decode(body)
	if err != nil {
		return nil, err
	}

	envelope, _ := raw["type"].(string)
	switch envelope {
	case "url_verification":
		return build("slack", "url_verification", raw, body), nil
	case "event_callback":
		inner, _ := raw["event"].(map[string]any)
		innerType, _ := inner["type"].(string)
		if innerType == "" {
			return nil, fmt.Errorf("%w: slack event_callback missing inner event type", ErrMalformed)
		}
		return build("slack", innerType, raw, body), nil
	case "":
		return nil, fmt.Errorf("%w: slack payload missing %q discriminator", ErrMalformed, "type")
	default:
		return build("slack", envelope, raw, body), nil
	}
}
