package integration

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/internal/entity"
)

// DefaultFailureThreshold is how many consecutive dispatch failures move an
// integration into the error state.
const DefaultFailureThreshold = 5

// Service provides integration management and dispatch accounting.
type Service struct {
	store  Store
	creds  CredentialStore
	logger *slog.Logger

	// FailureThreshold is the consecutive-failure count that transitions
	// the integration to StatusError. Set before use.
	FailureThreshold int

	// locks serializes counter updates per integration so concurrent
	// dispatches never interleave read-modify-write cycles.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates a new integration service.
func NewService(store Store, creds CredentialStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:            store,
		creds:            creds,
		logger:           logger,
		FailureThreshold: DefaultFailureThreshold,
		locks:            make(map[string]*sync.Mutex),
	}
}

// Create registers a new integration and stores its credential.
func (svc *Service) Create(ctx context.Context, in Input) (*Integration, error) {
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}
	if in.Platform == "" {
		return nil, &ValidationError{Field: "platform", Message: "required"}
	}

	intg := &Integration{
		Entity:   entity.New(),
		ID:       id.NewIntegrationID(),
		Name:     in.Name,
		Platform: in.Platform,
		Status:   StatusActive,
		Config:   in.Config,
	}

	if err := svc.store.CreateIntegration(ctx, intg); err != nil {
		return nil, err
	}

	if in.Credential != nil {
		if err := svc.creds.PutCredential(ctx, intg.ID, *in.Credential); err != nil {
			return nil, err
		}
	}

	return intg, nil
}

// Get returns an integration by ID.
func (svc *Service) Get(ctx context.Context, integrationID id.ID) (*Integration, error) {
	return svc.store.GetIntegration(ctx, integrationID)
}

// Update modifies an existing integration.
func (svc *Service) Update(ctx context.Context, integrationID id.ID, in Input) (*Integration, error) {
	intg, err := svc.store.GetIntegration(ctx, integrationID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		intg.Name = in.Name
	}
	if in.Config != nil {
		intg.Config = in.Config
	}
	intg.UpdatedAt = time.Now().UTC()

	if err := svc.store.UpdateIntegration(ctx, intg); err != nil {
		return nil, err
	}

	if in.Credential != nil {
		if err := svc.creds.PutCredential(ctx, intg.ID, *in.Credential); err != nil {
			return nil, err
		}
	}

	return intg, nil
}

// Delete removes an integration and its credential.
func (svc *Service) Delete(ctx context.Context, integrationID id.ID) error {
	if err := svc.store.DeleteIntegration(ctx, integrationID); err != nil {
		return err
	}
	if err := svc.creds.DeleteCredential(ctx, integrationID); err != nil && !errors.Is(err, ErrCredentialNotFound) {
		return err
	}
	return nil
}

// List returns integrations matching the options.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*Integration, error) {
	return svc.store.ListIntegrations(ctx, opts)
}

// SetStatus moves an integration to the given lifecycle state. Resuming to
// active clears the consecutive-failure count.
func (svc *Service) SetStatus(ctx context.Context, integrationID id.ID, status Status) error {
	unlock := svc.lock(integrationID)
	defer unlock()

	intg, err := svc.store.GetIntegration(ctx, integrationID)
	if err != nil {
		return err
	}

	intg.Status = status
	if status == StatusActive {
		intg.ConsecutiveFailures = 0
		intg.LastError = ""
	}
	intg.UpdatedAt = time.Now().UTC()

	return svc.store.UpdateIntegration(ctx, intg)
}

// Credential returns the stored credential for an integration.
func (svc *Service) Credential(ctx context.Context, integrationID id.ID) (Credential, error) {
	return svc.creds.GetCredential(ctx, integrationID)
}

// RecordDispatch updates the integration's health counters after an action
// dispatch. Success resets the consecutive-failure count; crossing the
// failure threshold moves the integration to StatusError. Updates for the
// same integration are serialized.
func (svc *Service) RecordDispatch(ctx context.Context, integrationID id.ID, success bool, dispatchErr string) error {
	unlock := svc.lock(integrationID)
	defer unlock()

	intg, err := svc.store.GetIntegration(ctx, integrationID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	intg.LastUsedAt = &now
	intg.UpdatedAt = now

	if success {
		intg.SuccessCount++
		intg.ConsecutiveFailures = 0
		intg.LastError = ""
	} else {
		intg.FailureCount++
		intg.ConsecutiveFailures++
		intg.LastError = dispatchErr

		if intg.Status == StatusActive && intg.ConsecutiveFailures >= svc.FailureThreshold {
			intg.Status = StatusError
			svc.logger.ErrorContext(ctx, "integration moved to error state",
				slog.String("integration_id", integrationID.String()),
				slog.String("platform", intg.Platform),
				slog.Int("consecutive_failures", intg.ConsecutiveFailures),
				slog.String("last_error", dispatchErr),
			)
		}
	}

	return svc.store.UpdateIntegration(ctx, intg)
}

// RecordTestResult folds a connection test outcome into the integration's
// state: a passing test on an errored integration reactivates it, a failing
// test on an active one moves it to error.
func (svc *Service) RecordTestResult(ctx context.Context, integrationID id.ID, ok bool, testErr string) error {
	unlock := svc.lock(integrationID)
	defer unlock()

	intg, err := svc.store.GetIntegration(ctx, integrationID)
	if err != nil {
		return err
	}

	if ok && intg.Status == StatusError {
		intg.Status = StatusActive
		intg.ConsecutiveFailures = 0
		intg.LastError = ""
	} else if !ok && intg.Status == StatusActive {
		intg.Status = StatusError
		intg.LastError = testErr
	} else {
		return nil
	}
	intg.UpdatedAt = time.Now().UTC()

	return svc.store.UpdateIntegration(ctx, intg)
}

// lock acquires the per-integration mutex and returns its unlock func.
func (svc *Service) lock(integrationID id.ID) func() {
	key := integrationID.String()

	svc.mu.Lock()
	m, ok := svc.locks[key]
	if !ok {
		m = &sync.Mutex{}
		svc.locks[key] = m
	}
	svc.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Input carries the user-supplied fields for creating or updating an
// integration.
type Input struct {
	Name       string            `json:"name"`
	Platform   string            `json:"platform"`
	Config     map[string]string `json:"config,omitempty"`
	Credential *Credential       `json:"credential,omitempty"`
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "integration validation: " + e.Field + ": " + e.Message
}
