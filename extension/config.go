package extension

import (
	"github.com/tandemhq/tandem"
)

// Config holds configuration for the Tandem Forge extension.
// Fields can be set programmatically via ExtOption functions or loaded from
// YAML configuration files (under "extensions.tandem" or "tandem" keys).
type Config struct {
	// BasePath is the URL prefix for all tandem routes (default: "/tandem").
	BasePath string `json:"base_path" yaml:"base_path" mapstructure:"base_path"`

	// Concurrency is the number of rules dispatched in parallel per event.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// FailureThreshold is the consecutive-failure count that moves an
	// integration to the error status.
	FailureThreshold int `json:"failure_threshold" yaml:"failure_threshold" mapstructure:"failure_threshold"`

	// TrelloCallbackURL is the registered Trello webhook callback URL.
	TrelloCallbackURL string `json:"trello_callback_url" yaml:"trello_callback_url" mapstructure:"trello_callback_url"`

	// DisableRoutes disables automatic route registration with the Forge router.
	DisableRoutes bool `json:"disable_routes" yaml:"disable_routes" mapstructure:"disable_routes"`

	// DisableMigrate disables automatic database migration on Register.
	DisableMigrate bool `json:"disable_migrate" yaml:"disable_migrate" mapstructure:"disable_migrate"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath: "/tandem",
	}
}

// ToPipelineOptions converts the configuration into tandem.Option values.
func (c Config) ToPipelineOptions() []tandem.Option {
	var opts []tandem.Option

	if c.Concurrency > 0 {
		opts = append(opts, tandem.WithConcurrency(c.Concurrency))
	}
	if c.FailureThreshold > 0 {
		opts = append(opts, tandem.WithFailureThreshold(c.FailureThreshold))
	}
	if c.TrelloCallbackURL != "" {
		opts = append(opts, tandem.WithTrelloCallbackURL(c.TrelloCallbackURL))
	}

	return opts
}
