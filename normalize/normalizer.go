// Package normalize maps platform-specific webhook payloads into the
// canonical event representation.
//
// One Normalizer exists per platform, selected through a Registry keyed on
// the platform identifier; adding a platform means adding one implementation
// rather than touching shared pipeline code. Normalizers are pure: they
// never call platform APIs.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tandemhq/tandem/event"
)

// ErrMalformed indicates a payload that cannot be normalized: invalid JSON
// or a missing mandatory discriminator field. This is a hard parse failure;
// the HTTP layer answers 400 and no rule evaluation occurs.
var ErrMalformed = errors.New("normalize: malformed payload")

// ErrUnknownPlatform indicates a platform with no registered normalizer.
var ErrUnknownPlatform = errors.New("normalize: unknown platform")

// Normalizer translates one platform's webhook JSON into a canonical Event.
type Normalizer interface {
	// Platform returns the platform identifier this normalizer handles.
	Platform() string

	// Normalize parses the raw webhook body into a canonical Event.
	Normalize(body []byte) (*event.Event, error)
}

// Registry selects the Normalizer for a platform.
type Registry struct {
	byPlatform map[string]Normalizer
}

// NewRegistry creates a registry over the given normalizers.
func NewRegistry(normalizers ...Normalizer) *Registry {
	r := &Registry{byPlatform: make(map[string]Normalizer, len(normalizers))}
	for _, n := range normalizers {
		r.byPlatform[n.Platform()] = n
	}
	return r
}

// Defaults returns a registry covering all built-in platform normalizers.
func Defaults() *Registry {
	return NewRegistry(
		Freshdesk{},
		Zendesk{},
		Slack{},
		Trello{},
	)
}

// Register adds or replaces a normalizer.
func (r *Registry) Register(n Normalizer) {
	r.byPlatform[n.Platform()] = n
}

// Platforms returns the registered platform identifiers.
func (r *Registry) Platforms() []string {
	out := make([]string, 0, len(r.byPlatform))
	for p := range r.byPlatform {
		out = append(out, p)
	}
	return out
}

// Normalize dispatches to the platform's normalizer.
func (r *Registry) Normalize(platform string, body []byte) (*event.Event, error) {
	n, ok := r.byPlatform[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
	return n.Normalize(body)
}

// decode parses the body into a generic JSON object.
func decode(body []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err.Error())
	}
	return raw, nil
}

// build converts a decoded payload into the canonical Event, flattening
// nested objects into dotted-path fields.
func build(platform, eventType string, raw map[string]any, body []byte) *event.Event {
	payload := make(map[string]event.Value, len(raw))
	for k, v := range raw {
		payload[k] = event.FromJSON(v)
	}
	event.Flatten(payload)

	return &event.Event{
		Platform:   platform,
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
		Raw:        body,
	}
}
