package extension

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"

	"github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/api"
)

// Extension is the Forge extension for Tandem.
type Extension struct {
	config   Config
	opts     []tandem.Option
	pipeline *tandem.Pipeline
	logger   *slog.Logger
}

// New creates a new Tandem Forge extension.
func New(opts ...ExtOption) *Extension {
	e := &Extension{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register initializes the pipeline, runs migrations unless disabled, and
// mounts the API routes on the router.
func (ext *Extension) Register(ctx context.Context, router forge.Router, log forge.Logger) error {
	opts := append(ext.config.ToPipelineOptions(), ext.opts...)

	p, err := tandem.New(opts...)
	if err != nil {
		return err
	}
	ext.pipeline = p

	if !ext.config.DisableMigrate {
		if err := p.Store().Migrate(ctx); err != nil {
			return err
		}
	}

	if !ext.config.DisableRoutes {
		api.NewForgeAPI(p, log).RegisterRoutes(router)
	}

	return nil
}

// Pipeline returns the wired pipeline. Nil before Register.
func (ext *Extension) Pipeline() *tandem.Pipeline { return ext.pipeline }

// Handler creates the full HTTP handler, webhook ingestion included.
// This can be used standalone without Forge integration.
func (ext *Extension) Handler(p *tandem.Pipeline) http.Handler {
	return api.NewHandler(p, ext.logger)
}

// Health reports store reachability.
func (ext *Extension) Health(ctx context.Context) error {
	if ext.pipeline == nil {
		return tandem.ErrNoStore
	}
	return ext.pipeline.Store().Ping(ctx)
}

// Prefix returns the configured URL prefix.
func (ext *Extension) Prefix() string { return ext.config.BasePath }
