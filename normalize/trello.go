package normalize

import (
	"fmt"

	"github.com/tandemhq/tandem/event"
)

// trelloEvents maps Trello action types to internal event types.
var trelloEvents = map[string]string{
	"createCard":      "card_created",
	"updateCard":      "card_updated",
	"deleteCard":      "card_deleted",
	"commentCard":     "card_commented",
	"addMemberToCard": "card_member_added",
	"createList":      "list_created",
	"updateList":      "list_updated",
}

// Trello normalizes Trello webhook payloads. The discriminator is the
// "action.type" field.
type Trello struct{}

// Platform implements Normalizer.
func (Trello) Platform() string { return "trello" }

// Normalize implements Normalizer.
func (Trello) Normalize(body []byte) (*event.Event, error) {
	raw, err := decode(body)
	if err != nil {
		return nil, err
	}

	action, _ := raw["action"].(map[string]any)
	typ, _ := action["type"].(string)
	if typ == "" {
		return nil, fmt.Errorf("%w: trello payload missing %q discriminator", ErrMalformed, "action.type")
	}

	internal, ok := trelloEvents[typ]
	if !ok {
		internal = typ
	}

	return build("trello", internal, raw, body), nil
}
