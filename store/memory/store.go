// Package memory provides an in-memory Store implementation for unit testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/audit"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/rule"
	tandemstore "github.com/tandemhq/tandem/store"
)

// compile-time interface check.
var _ tandemstore.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store for testing.
type Store struct {
	mu sync.RWMutex

	rules        map[string]*rule.Rule               // keyed by ID string
	integrations map[string]*integration.Integration // keyed by ID string
	credentials  map[string]integration.Credential   // keyed by integration ID string
	auditEntries map[string]*audit.Entry             // keyed by ID string

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		rules:        make(map[string]*rule.Rule),
		integrations: make(map[string]*integration.Integration),
		credentials:  make(map[string]integration.Credential),
		auditEntries: make(map[string]*audit.Entry),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return tandem.ErrStoreClosed
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// rule.Store
// ──────────────────────────────────────────────────

// CreateRule persists a new rule.
func (s *Store) CreateRule(_ context.Context, r *rule.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules[r.ID.String()] = r
	return nil
}

// GetRule returns a rule by ID.
func (s *Store) GetRule(_ context.Context, ruleID id.ID) (*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rules[ruleID.String()]
	if !ok {
		return nil, tandem.ErrRuleNotFound
	}
	return r, nil
}

// UpdateRule modifies an existing rule.
func (s *Store) UpdateRule(_ context.Context, r *rule.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[r.ID.String()]; !ok {
		return tandem.ErrRuleNotFound
	}
	r.UpdatedAt = time.Now().UTC()
	s.rules[r.ID.String()] = r
	return nil
}

// DeleteRule removes a rule.
func (s *Store) DeleteRule(_ context.Context, ruleID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[ruleID.String()]; !ok {
		return tandem.ErrRuleNotFound
	}
	delete(s.rules, ruleID.String())
	return nil
}

// ListRules returns rules matching the options, ordered by ascending ID.
func (s *Store) ListRules(_ context.Context, opts rule.ListOpts) ([]*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*rule.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if opts.Platform != "" && r.Trigger.Platform != opts.Platform {
			continue
		}
		if opts.EventType != "" && r.Trigger.EventType != opts.EventType {
			continue
		}
		if opts.EnabledOnly && !r.Enabled {
			continue
		}
		result = append(result, r)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// RecordExecution increments the rule's execution counters.
func (s *Store) RecordExecution(_ context.Context, ruleID id.ID, at time.Time, succeeded, failed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[ruleID.String()]
	if !ok {
		return tandem.ErrRuleNotFound
	}
	r.ExecutionCount++
	r.SuccessCount += int64(succeeded)
	r.FailureCount += int64(failed)
	r.LastExecutedAt = &at
	r.UpdatedAt = at
	return nil
}

// ──────────────────────────────────────────────────
// integration.Store
// ──────────────────────────────────────────────────

// CreateIntegration persists a new integration.
func (s *Store) CreateIntegration(_ context.Context, in *integration.Integration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.integrations[in.ID.String()] = in
	return nil
}

// GetIntegration returns an integration by ID.
func (s *Store) GetIntegration(_ context.Context, integrationID id.ID) (*integration.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.integrations[integrationID.String()]
	if !ok {
		return nil, tandem.ErrIntegrationNotFound
	}
	cp := *in
	return &cp, nil
}

// UpdateIntegration modifies an existing integration.
func (s *Store) UpdateIntegration(_ context.Context, in *integration.Integration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.integrations[in.ID.String()]; !ok {
		return tandem.ErrIntegrationNotFound
	}
	cp := *in
	s.integrations[in.ID.String()] = &cp
	return nil
}

// DeleteIntegration removes an integration.
func (s *Store) DeleteIntegration(_ context.Context, integrationID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.integrations[integrationID.String()]; !ok {
		return tandem.ErrIntegrationNotFound
	}
	delete(s.integrations, integrationID.String())
	return nil
}

// ListIntegrations returns integrations matching the options.
func (s *Store) ListIntegrations(_ context.Context, opts integration.ListOpts) ([]*integration.Integration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*integration.Integration, 0, len(s.integrations))
	for _, in := range s.integrations {
		if opts.Platform != "" && in.Platform != opts.Platform {
			continue
		}
		if opts.Status != "" && in.Status != opts.Status {
			continue
		}
		cp := *in
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// ──────────────────────────────────────────────────
// integration.CredentialStore
// ──────────────────────────────────────────────────

// PutCredential stores the credential for an integration.
func (s *Store) PutCredential(_ context.Context, integrationID id.ID, cred integration.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials[integrationID.String()] = cred
	return nil
}

// GetCredential returns the credential for an integration.
func (s *Store) GetCredential(_ context.Context, integrationID id.ID) (integration.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[integrationID.String()]
	if !ok {
		return integration.Credential{}, integration.ErrCredentialNotFound
	}
	return cred, nil
}

// DeleteCredential removes the credential for an integration.
func (s *Store) DeleteCredential(_ context.Context, integrationID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.credentials, integrationID.String())
	return nil
}

// ──────────────────────────────────────────────────
// audit.Store
// ──────────────────────────────────────────────────

// PushAudit appends an audit entry.
func (s *Store) PushAudit(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditEntries[e.ID.String()] = e
	return nil
}

// GetAudit returns an audit entry by ID.
func (s *Store) GetAudit(_ context.Context, auditID id.ID) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.auditEntries[auditID.String()]
	if !ok {
		return nil, tandem.ErrAuditNotFound
	}
	return e, nil
}

// ListAudit returns audit entries, newest first.
func (s *Store) ListAudit(_ context.Context, opts audit.ListOpts) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*audit.Entry, 0, len(s.auditEntries))
	for _, e := range s.auditEntries {
		if opts.RuleID != nil && e.RuleID.String() != opts.RuleID.String() {
			continue
		}
		if opts.IntegrationID != nil && e.IntegrationID.String() != opts.IntegrationID.String() {
			continue
		}
		if opts.Outcome != "" && e.Outcome != opts.Outcome {
			continue
		}
		if opts.From != nil && e.DispatchedAt.Before(*opts.From) {
			continue
		}
		if opts.To != nil && e.DispatchedAt.After(*opts.To) {
			continue
		}
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DispatchedAt.Equal(result[j].DispatchedAt) {
			return result[i].ID.String() > result[j].ID.String()
		}
		return result[i].DispatchedAt.After(result[j].DispatchedAt)
	})

	result = applyPagination(result, opts.Offset, opts.Limit)
	return result, nil
}

// PurgeAudit deletes entries dispatched before the cutoff.
func (s *Store) PurgeAudit(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for k, e := range s.auditEntries {
		if e.DispatchedAt.Before(before) {
			delete(s.auditEntries, k)
			count++
		}
	}
	return count, nil
}

// CountAudit returns the total number of audit entries.
func (s *Store) CountAudit(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.auditEntries)), nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func applyPagination[T any](items []*T, offset, limit int) []*T {
	if offset > 0 && offset < len(items) {
		items = items[offset:]
	} else if offset >= len(items) && offset > 0 {
		return nil
	}

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
