package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/tandemhq/tandem/dispatch"
	"github.com/tandemhq/tandem/event"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/internal/entity"
)

// Service manages the audit trail.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new audit service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// RecordDispatch creates an audit entry from a dispatch result. Implements
// dispatch.Recorder.
func (svc *Service) RecordDispatch(ctx context.Context, evt *event.Event, res dispatch.Result) error {
	entry := &Entry{
		Entity:         entity.New(),
		ID:             id.NewAuditID(),
		RuleID:         res.RuleID,
		IntegrationID:  res.IntegrationID,
		SourcePlatform: evt.Platform,
		EventType:      evt.Type,
		TargetPlatform: res.Platform,
		Action:         res.Action,
		Outcome:        string(res.Outcome),
		Error:          res.Error,
		Attempts:       res.Attempts,
		Unresolved:     res.Unresolved,
		LatencyMs:      res.LatencyMs,
		DispatchedAt:   time.Now().UTC(),
	}

	return svc.store.PushAudit(ctx, entry)
}

// Get returns an audit entry by ID.
func (svc *Service) Get(ctx context.Context, auditID id.ID) (*Entry, error) {
	return svc.store.GetAudit(ctx, auditID)
}

// List returns audit entries matching the given options.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*Entry, error) {
	return svc.store.ListAudit(ctx, opts)
}

// Purge removes entries older than the cutoff.
func (svc *Service) Purge(ctx context.Context, before time.Time) (int64, error) {
	return svc.store.PurgeAudit(ctx, before)
}

// Count returns the total number of audit entries.
func (svc *Service) Count(ctx context.Context) (int64, error) {
	return svc.store.CountAudit(ctx)
}
