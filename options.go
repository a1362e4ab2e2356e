package tandem

import (
	"log/slog"
	"time"

	"github.com/tandemhq/tandem/adapter"
	"github.com/tandemhq/tandem/audit"
	"github.com/tandemhq/tandem/dispatch"
	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/normalize"
	"github.com/tandemhq/tandem/observability"
	"github.com/tandemhq/tandem/rule"
	"github.com/tandemhq/tandem/signature"
	"github.com/tandemhq/tandem/store"
)

// Pipeline is the root webhook automation engine: it verifies inbound
// webhooks, normalizes them into canonical events, matches automation rules,
// and dispatches the matched rules' actions to outbound platforms.
type Pipeline struct {
	config         Config
	store          store.Store
	secrets        signature.SecretProvider
	verifier       *signature.Verifier
	normalizers    *normalize.Registry
	adapters       *adapter.Registry
	matcher        *rule.Matcher
	ruleSvc        *rule.Service
	integrationSvc *integration.Service
	auditSvc       *audit.Service
	dispatcher     *dispatch.Dispatcher
	metrics        *observability.Metrics
	tracer         *observability.Tracer
	logger         *slog.Logger
}

// Option configures a Pipeline instance.
type Option func(*Pipeline) error

// New creates a new Pipeline with the given options.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.store == nil {
		return nil, ErrNoStore
	}
	if p.secrets == nil {
		p.secrets = signature.EnvSecrets{}
	}
	if p.normalizers == nil {
		p.normalizers = normalize.Defaults()
	}
	if p.adapters == nil {
		p.adapters = adapter.Defaults(adapter.WithTimeout(p.config.HTTPTimeout))
	}
	p.wireServices()
	return p, nil
}

// WithStore sets the persistence backend for the Pipeline instance.
func WithStore(s store.Store) Option {
	return func(p *Pipeline) error {
		p.store = s
		return nil
	}
}

// WithLogger sets the structured logger for the Pipeline instance.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		p.logger = logger
		return nil
	}
}

// WithSecrets sets the webhook secret provider used for signature
// verification. Defaults to reading <PLATFORM>_WEBHOOK_SECRET environment
// variables.
func WithSecrets(secrets signature.SecretProvider) Option {
	return func(p *Pipeline) error {
		p.secrets = secrets
		return nil
	}
}

// WithNormalizers replaces the default normalizer registry.
func WithNormalizers(r *normalize.Registry) Option {
	return func(p *Pipeline) error {
		p.normalizers = r
		return nil
	}
}

// WithAdapters replaces the default adapter registry.
func WithAdapters(r *adapter.Registry) Option {
	return func(p *Pipeline) error {
		p.adapters = r
		return nil
	}
}

// WithMetrics sets the metric instruments recorded by the pipeline.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) error {
		p.metrics = m
		return nil
	}
}

// WithTracer sets the tracer used for webhook and dispatch spans.
func WithTracer(t *observability.Tracer) Option {
	return func(p *Pipeline) error {
		p.tracer = t
		return nil
	}
}

// WithConcurrency sets how many rules dispatch in parallel per event.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) error {
		p.config.Concurrency = n
		return nil
	}
}

// WithRetryPolicy sets the per-action retry policy.
func WithRetryPolicy(policy dispatch.RetryPolicy) Option {
	return func(p *Pipeline) error {
		p.config.Retry = policy
		return nil
	}
}

// WithHTTPTimeout bounds each outbound platform API call made by the
// default adapters.
func WithHTTPTimeout(d time.Duration) Option {
	return func(p *Pipeline) error {
		p.config.HTTPTimeout = d
		return nil
	}
}

// WithFailureThreshold sets how many consecutive dispatch failures move an
// integration to the error status.
func WithFailureThreshold(n int) Option {
	return func(p *Pipeline) error {
		p.config.FailureThreshold = n
		return nil
	}
}

// WithTrelloCallbackURL sets the Trello webhook callback URL included in
// Trello's signed content.
func WithTrelloCallbackURL(url string) Option {
	return func(p *Pipeline) error {
		p.config.TrelloCallbackURL = url
		return nil
	}
}
