package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Tandem store.
// It can be registered with the grove extension for orchestrated migration
// management (locking, version tracking, rollback support).
var Migrations = migrate.NewGroup("tandem")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_tandem_rules",
			Version: "20250201000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tandem_rules (
    id               TEXT PRIMARY KEY,
    name             TEXT NOT NULL DEFAULT '',
    description      TEXT NOT NULL DEFAULT '',
    trigger_platform TEXT NOT NULL DEFAULT '',
    trigger_event    TEXT NOT NULL DEFAULT '',
    conditions       JSONB NOT NULL DEFAULT '[]',
    actions          JSONB NOT NULL DEFAULT '[]',
    enabled          BOOLEAN NOT NULL DEFAULT TRUE,
    max_per_hour     INT NOT NULL DEFAULT 0,
    execution_count  BIGINT NOT NULL DEFAULT 0,
    success_count    BIGINT NOT NULL DEFAULT 0,
    failure_count    BIGINT NOT NULL DEFAULT 0,
    last_executed_at TIMESTAMPTZ,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tandem_rules_trigger ON tandem_rules (trigger_platform, trigger_event) WHERE enabled;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tandem_rules`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tandem_integrations",
			Version: "20250201000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tandem_integrations (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL DEFAULT '',
    platform             TEXT NOT NULL DEFAULT '',
    status               TEXT NOT NULL DEFAULT 'active',
    config               JSONB NOT NULL DEFAULT '{}',
    consecutive_failures INT NOT NULL DEFAULT 0,
    success_count        BIGINT NOT NULL DEFAULT 0,
    failure_count        BIGINT NOT NULL DEFAULT 0,
    last_used_at         TIMESTAMPTZ,
    last_error           TEXT NOT NULL DEFAULT '',
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tandem_integrations_platform ON tandem_integrations (platform);
CREATE INDEX IF NOT EXISTS idx_tandem_integrations_status ON tandem_integrations (status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tandem_integrations`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tandem_credentials",
			Version: "20250201000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tandem_credentials (
    integration_id TEXT PRIMARY KEY,
    token          TEXT NOT NULL DEFAULT '',
    secondary      TEXT NOT NULL DEFAULT '',
    extra          JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tandem_credentials`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tandem_audit",
			Version: "20250201000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tandem_audit (
    id              TEXT PRIMARY KEY,
    rule_id         TEXT NOT NULL DEFAULT '',
    integration_id  TEXT NOT NULL DEFAULT '',
    source_platform TEXT NOT NULL DEFAULT '',
    event_type      TEXT NOT NULL DEFAULT '',
    target_platform TEXT NOT NULL DEFAULT '',
    action          TEXT NOT NULL DEFAULT '',
    outcome         TEXT NOT NULL DEFAULT '',
    error           TEXT NOT NULL DEFAULT '',
    attempts        INT NOT NULL DEFAULT 0,
    unresolved      TEXT[] NOT NULL DEFAULT '{}',
    latency_ms      BIGINT NOT NULL DEFAULT 0,
    dispatched_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_tandem_audit_rule ON tandem_audit (rule_id);
CREATE INDEX IF NOT EXISTS idx_tandem_audit_integration ON tandem_audit (integration_id);
CREATE INDEX IF NOT EXISTS idx_tandem_audit_dispatched ON tandem_audit (dispatched_at DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tandem_audit`)
				return err
			},
		},
	)
}
