package extension

import (
	"log/slog"

	"github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/store"
)

// ExtOption configures the Tandem Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend via a pipeline option.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.opts = append(e.opts, tandem.WithStore(s))
	}
}

// WithPrefix sets the URL prefix for all tandem routes.
func WithPrefix(prefix string) ExtOption {
	return func(e *Extension) {
		e.config.BasePath = prefix
	}
}

// WithConfig sets the extension configuration directly.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithPipelineOption appends a raw tandem.Option to the extension.
func WithPipelineOption(opt tandem.Option) ExtOption {
	return func(e *Extension) {
		e.opts = append(e.opts, opt)
	}
}

// WithLogger sets the structured logger for the extension.
func WithLogger(logger *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = logger
		e.opts = append(e.opts, tandem.WithLogger(logger))
	}
}

// WithDisableRoutes disables automatic route registration.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrations disables automatic database migration on Register.
func WithDisableMigrations() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}
