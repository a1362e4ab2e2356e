// Package postgres provides a PostgreSQL Store implementation backed by
// the Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	tandem "github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/audit"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/rule"
	tandemstore "github.com/tandemhq/tandem/store"
)

// compile-time interface check
var _ tandemstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("tandem/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("tandem/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Rule Store ====================

func (s *Store) CreateRule(ctx context.Context, r *rule.Rule) error {
	m, err := toRuleModel(r)
	if err != nil {
		return fmt.Errorf("tandem/postgres: %w", err)
	}
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetRule(ctx context.Context, ruleID id.ID) (*rule.Rule, error) {
	m := new(ruleModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", ruleID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tandem.ErrRuleNotFound
		}
		return nil, err
	}
	return fromRuleModel(m)
}

func (s *Store) UpdateRule(ctx context.Context, r *rule.Rule) error {
	m, err := toRuleModel(r)
	if err != nil {
		return fmt.Errorf("tandem/postgres: %w", err)
	}
	m.UpdatedAt = time.Now().UTC()
	res, err := s.pg.NewUpdate(m).
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return tandem.ErrRuleNotFound
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, ruleID id.ID) error {
	res, err := s.pg.NewDelete((*ruleModel)(nil)).
		Where("id = $1", ruleID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return tandem.ErrRuleNotFound
	}
	return nil
}

func (s *Store) ListRules(ctx context.Context, opts rule.ListOpts) ([]*rule.Rule, error) {
	var models []ruleModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Platform != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("trigger_platform = $%d", argIdx), opts.Platform)
	}
	if opts.EventType != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("trigger_event = $%d", argIdx), opts.EventType)
	}
	if opts.EnabledOnly {
		q = q.Where("enabled = true")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	// TypeIDs are K-sortable, so ascending ID order is creation order.
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*rule.Rule, len(models))
	for i := range models {
		r, err := fromRuleModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) RecordExecution(ctx context.Context, ruleID id.ID, at time.Time, succeeded, failed int) error {
	res, err := s.pg.NewUpdate((*ruleModel)(nil)).
		Set("execution_count = execution_count + 1").
		Set("success_count = success_count + $1", succeeded).
		Set("failure_count = failure_count + $2", failed).
		Set("last_executed_at = $3", at).
		Set("updated_at = $4", at).
		Where("id = $5", ruleID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return tandem.ErrRuleNotFound
	}
	return nil
}

// ==================== Integration Store ====================

func (s *Store) CreateIntegration(ctx context.Context, in *integration.Integration) error {
	m := toIntegrationModel(in)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetIntegration(ctx context.Context, integrationID id.ID) (*integration.Integration, error) {
	m := new(integrationModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", integrationID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tandem.ErrIntegrationNotFound
		}
		return nil, err
	}
	return fromIntegrationModel(m)
}

func (s *Store) UpdateIntegration(ctx context.Context, in *integration.Integration) error {
	m := toIntegrationModel(in)
	m.UpdatedAt = time.Now().UTC()
	res, err := s.pg.NewUpdate(m).
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return tandem.ErrIntegrationNotFound
	}
	return nil
}

func (s *Store) DeleteIntegration(ctx context.Context, integrationID id.ID) error {
	res, err := s.pg.NewDelete((*integrationModel)(nil)).
		Where("id = $1", integrationID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return tandem.ErrIntegrationNotFound
	}
	return nil
}

func (s *Store) ListIntegrations(ctx context.Context, opts integration.ListOpts) ([]*integration.Integration, error) {
	var models []integrationModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Platform != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("platform = $%d", argIdx), opts.Platform)
	}
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*integration.Integration, len(models))
	for i := range models {
		in, err := fromIntegrationModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = in
	}
	return result, nil
}

// ==================== Credential Store ====================

func (s *Store) PutCredential(ctx context.Context, integrationID id.ID, cred integration.Credential) error {
	m := toCredentialModel(integrationID, cred)
	_, err := s.pg.NewInsert(m).
		OnConflict("(integration_id) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("secondary = EXCLUDED.secondary").
		Set("extra = EXCLUDED.extra").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetCredential(ctx context.Context, integrationID id.ID) (integration.Credential, error) {
	m := new(credentialModel)
	err := s.pg.NewSelect(m).
		Where("integration_id = $1", integrationID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return integration.Credential{}, integration.ErrCredentialNotFound
		}
		return integration.Credential{}, err
	}
	return fromCredentialModel(m), nil
}

func (s *Store) DeleteCredential(ctx context.Context, integrationID id.ID) error {
	res, err := s.pg.NewDelete((*credentialModel)(nil)).
		Where("integration_id = $1", integrationID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return integration.ErrCredentialNotFound
	}
	return nil
}

// ==================== Audit Store ====================

func (s *Store) PushAudit(ctx context.Context, e *audit.Entry) error {
	m := toAuditEntryModel(e)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetAudit(ctx context.Context, auditID id.ID) (*audit.Entry, error) {
	m := new(auditEntryModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", auditID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, tandem.ErrAuditNotFound
		}
		return nil, err
	}
	return fromAuditEntryModel(m)
}

func (s *Store) ListAudit(ctx context.Context, opts audit.ListOpts) ([]*audit.Entry, error) {
	var models []auditEntryModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.RuleID != nil {
		argIdx++
		q = q.Where(fmt.Sprintf("rule_id = $%d", argIdx), opts.RuleID.String())
	}
	if opts.IntegrationID != nil {
		argIdx++
		q = q.Where(fmt.Sprintf("integration_id = $%d", argIdx), opts.IntegrationID.String())
	}
	if opts.Outcome != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("outcome = $%d", argIdx), opts.Outcome)
	}
	if opts.From != nil {
		argIdx++
		q = q.Where(fmt.Sprintf("dispatched_at >= $%d", argIdx), *opts.From)
	}
	if opts.To != nil {
		argIdx++
		q = q.Where(fmt.Sprintf("dispatched_at <= $%d", argIdx), *opts.To)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("dispatched_at DESC, id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*audit.Entry, len(models))
	for i := range models {
		e, err := fromAuditEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) PurgeAudit(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.pg.NewDelete((*auditEntryModel)(nil)).
		Where("dispatched_at < $1", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return rows, nil
}

func (s *Store) CountAudit(ctx context.Context) (int64, error) {
	count, err := s.pg.NewSelect((*auditEntryModel)(nil)).
		Count(ctx)
	return count, err
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
