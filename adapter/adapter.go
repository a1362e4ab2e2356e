// Package adapter executes rule actions against external platforms. One
// Adapter exists per platform; each declares its action catalog with JSON
// Schemas so rules are validated against real parameter shapes at save time.
package adapter

import (
	"context"
	"fmt"

	"github.com/tandemhq/tandem/integration"
)

// ActionDef describes one action an adapter can execute.
type ActionDef struct {
	// Type is the action identifier referenced by rules.
	Type string `json:"type"`

	// Description explains what the action does.
	Description string `json:"description"`

	// Schema is the JSON Schema for the action's parameters. Nil means the
	// action accepts arbitrary parameters.
	Schema map[string]any `json:"schema,omitempty"`
}

// Account bundles the non-secret configuration and the credential of one
// integration, resolved at dispatch time.
type Account struct {
	// Config holds the integration's platform settings.
	Config map[string]string

	// Credential holds the integration's secrets.
	Credential integration.Credential
}

// Adapter executes actions against one external platform.
type Adapter interface {
	// Platform returns the platform identifier this adapter handles.
	Platform() string

	// Actions returns the adapter's action catalog.
	Actions() []ActionDef

	// Execute performs one action. Failures are reported through the
	// package's error taxonomy so the dispatcher can decide about retries.
	Execute(ctx context.Context, action string, params map[string]any, acct Account) error

	// TestConnection verifies the account's credentials with a cheap
	// read-only call.
	TestConnection(ctx context.Context, acct Account) error
}

// Registry selects the Adapter for a platform.
type Registry struct {
	byPlatform map[string]Adapter
}

// NewRegistry creates a registry over the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byPlatform: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.byPlatform[a.Platform()] = a
	}
	return r
}

// Defaults returns a registry covering all built-in platform adapters. The
// options apply to every adapter.
func Defaults(opts ...Option) *Registry {
	return NewRegistry(
		NewFreshdesk(opts...),
		NewZendesk(opts...),
		NewSlack(opts...),
		NewTrello(opts...),
		NewNotion(opts...),
		NewSheets(opts...),
	)
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a Adapter) {
	r.byPlatform[a.Platform()] = a
}

// Get returns the adapter for a platform.
func (r *Registry) Get(platform string) (Adapter, error) {
	a, ok := r.byPlatform[platform]
	if !ok {
		return nil, fmt.Errorf("adapter: no adapter for platform %q", platform)
	}
	return a, nil
}

// Platforms returns the registered platform identifiers.
func (r *Registry) Platforms() []string {
	out := make([]string, 0, len(r.byPlatform))
	for p := range r.byPlatform {
		out = append(out, p)
	}
	return out
}

// ActionSchema returns the parameter schema an adapter declares for an
// action type. Returns an UnsupportedActionError for unknown actions.
func (r *Registry) ActionSchema(platform, action string) (map[string]any, error) {
	a, err := r.Get(platform)
	if err != nil {
		return nil, err
	}
	for _, def := range a.Actions() {
		if def.Type == action {
			return def.Schema, nil
		}
	}
	return nil, &UnsupportedActionError{Platform: platform, Action: action}
}
