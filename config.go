package tandem

import (
	"time"

	"github.com/tandemhq/tandem/dispatch"
	"github.com/tandemhq/tandem/integration"
)

// Config holds the configuration for a Pipeline instance.
type Config struct {
	// Concurrency is the number of rules dispatched in parallel per event.
	Concurrency int

	// FailureThreshold is the number of consecutive dispatch failures after
	// which an integration is moved to the error status.
	FailureThreshold int

	// Retry bounds per-action retry behavior.
	Retry dispatch.RetryPolicy

	// HTTPTimeout bounds each outbound platform API call made by the
	// default adapters. Zero keeps the adapters' 10s default.
	HTTPTimeout time.Duration

	// TrelloCallbackURL is the registered Trello webhook callback URL,
	// included in Trello's signed content.
	TrelloCallbackURL string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:      4,
		FailureThreshold: integration.DefaultFailureThreshold,
		Retry:            dispatch.DefaultRetryPolicy(),
	}
}
