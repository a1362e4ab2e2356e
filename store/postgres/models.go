package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/tandemhq/tandem/audit"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/internal/entity"
	"github.com/tandemhq/tandem/rule"
)

// --- Rule models ---

type ruleModel struct {
	grove.BaseModel `grove:"table:tandem_rules"`

	ID              string          `grove:"id,pk"`
	Name            string          `grove:"name"`
	Description     string          `grove:"description"`
	TriggerPlatform string          `grove:"trigger_platform"`
	TriggerEvent    string          `grove:"trigger_event"`
	Conditions      json.RawMessage `grove:"conditions,type:jsonb"`
	Actions         json.RawMessage `grove:"actions,type:jsonb"`
	Enabled         bool            `grove:"enabled"`
	MaxPerHour      int             `grove:"max_per_hour"`
	ExecutionCount  int64           `grove:"execution_count"`
	SuccessCount    int64           `grove:"success_count"`
	FailureCount    int64           `grove:"failure_count"`
	LastExecutedAt  *time.Time      `grove:"last_executed_at"`
	CreatedAt       time.Time       `grove:"created_at"`
	UpdatedAt       time.Time       `grove:"updated_at"`
}

func toRuleModel(r *rule.Rule) (*ruleModel, error) {
	conditions, err := json.Marshal(r.Conditions)
	if err != nil {
		return nil, fmt.Errorf("marshal conditions: %w", err)
	}
	actions, err := json.Marshal(r.Actions)
	if err != nil {
		return nil, fmt.Errorf("marshal actions: %w", err)
	}
	return &ruleModel{
		ID:              r.ID.String(),
		Name:            r.Name,
		Description:     r.Description,
		TriggerPlatform: r.Trigger.Platform,
		TriggerEvent:    r.Trigger.EventType,
		Conditions:      conditions,
		Actions:         actions,
		Enabled:         r.Enabled,
		MaxPerHour:      r.MaxPerHour,
		ExecutionCount:  r.ExecutionCount,
		SuccessCount:    r.SuccessCount,
		FailureCount:    r.FailureCount,
		LastExecutedAt:  r.LastExecutedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

func fromRuleModel(m *ruleModel) (*rule.Rule, error) {
	ruleID, err := id.ParseRuleID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse rule ID %q: %w", m.ID, err)
	}
	var conditions []rule.Condition
	if len(m.Conditions) > 0 {
		if err := json.Unmarshal(m.Conditions, &conditions); err != nil {
			return nil, fmt.Errorf("unmarshal conditions for %s: %w", m.ID, err)
		}
	}
	var actions []rule.ActionSpec
	if len(m.Actions) > 0 {
		if err := json.Unmarshal(m.Actions, &actions); err != nil {
			return nil, fmt.Errorf("unmarshal actions for %s: %w", m.ID, err)
		}
	}
	return &rule.Rule{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          ruleID,
		Name:        m.Name,
		Description: m.Description,
		Trigger: rule.TriggerSpec{
			Platform:  m.TriggerPlatform,
			EventType: m.TriggerEvent,
		},
		Conditions:     conditions,
		Actions:        actions,
		Enabled:        m.Enabled,
		MaxPerHour:     m.MaxPerHour,
		ExecutionCount: m.ExecutionCount,
		SuccessCount:   m.SuccessCount,
		FailureCount:   m.FailureCount,
		LastExecutedAt: m.LastExecutedAt,
	}, nil
}

// --- Integration models ---

type integrationModel struct {
	grove.BaseModel `grove:"table:tandem_integrations"`

	ID                  string            `grove:"id,pk"`
	Name                string            `grove:"name"`
	Platform            string            `grove:"platform"`
	Status              string            `grove:"status"`
	Config              map[string]string `grove:"config,type:jsonb"`
	ConsecutiveFailures int               `grove:"consecutive_failures"`
	SuccessCount        int64             `grove:"success_count"`
	FailureCount        int64             `grove:"failure_count"`
	LastUsedAt          *time.Time        `grove:"last_used_at"`
	LastError           string            `grove:"last_error"`
	CreatedAt           time.Time         `grove:"created_at"`
	UpdatedAt           time.Time         `grove:"updated_at"`
}

func toIntegrationModel(in *integration.Integration) *integrationModel {
	return &integrationModel{
		ID:                  in.ID.String(),
		Name:                in.Name,
		Platform:            in.Platform,
		Status:              string(in.Status),
		Config:              in.Config,
		ConsecutiveFailures: in.ConsecutiveFailures,
		SuccessCount:        in.SuccessCount,
		FailureCount:        in.FailureCount,
		LastUsedAt:          in.LastUsedAt,
		LastError:           in.LastError,
		CreatedAt:           in.CreatedAt,
		UpdatedAt:           in.UpdatedAt,
	}
}

func fromIntegrationModel(m *integrationModel) (*integration.Integration, error) {
	intgID, err := id.ParseIntegrationID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse integration ID %q: %w", m.ID, err)
	}
	return &integration.Integration{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                  intgID,
		Name:                m.Name,
		Platform:            m.Platform,
		Status:              integration.Status(m.Status),
		Config:              m.Config,
		ConsecutiveFailures: m.ConsecutiveFailures,
		SuccessCount:        m.SuccessCount,
		FailureCount:        m.FailureCount,
		LastUsedAt:          m.LastUsedAt,
		LastError:           m.LastError,
	}, nil
}

// --- Credential models ---

type credentialModel struct {
	grove.BaseModel `grove:"table:tandem_credentials"`

	IntegrationID string            `grove:"integration_id,pk"`
	Token         string            `grove:"token"`
	Secondary     string            `grove:"secondary"`
	Extra         map[string]string `grove:"extra,type:jsonb"`
	CreatedAt     time.Time         `grove:"created_at"`
	UpdatedAt     time.Time         `grove:"updated_at"`
}

func toCredentialModel(integrationID id.ID, cred integration.Credential) *credentialModel {
	now := time.Now().UTC()
	return &credentialModel{
		IntegrationID: integrationID.String(),
		Token:         cred.Token,
		Secondary:     cred.Secondary,
		Extra:         cred.Extra,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func fromCredentialModel(m *credentialModel) integration.Credential {
	return integration.Credential{
		Token:     m.Token,
		Secondary: m.Secondary,
		Extra:     m.Extra,
	}
}

// --- Audit models ---

type auditEntryModel struct {
	grove.BaseModel `grove:"table:tandem_audit"`

	ID             string    `grove:"id,pk"`
	RuleID         string    `grove:"rule_id"`
	IntegrationID  string    `grove:"integration_id"`
	SourcePlatform string    `grove:"source_platform"`
	EventType      string    `grove:"event_type"`
	TargetPlatform string    `grove:"target_platform"`
	Action         string    `grove:"action"`
	Outcome        string    `grove:"outcome"`
	Error          string    `grove:"error"`
	Attempts       int       `grove:"attempts"`
	Unresolved     []string  `grove:"unresolved,array"`
	LatencyMs      int       `grove:"latency_ms"`
	DispatchedAt   time.Time `grove:"dispatched_at"`
	CreatedAt      time.Time `grove:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"`
}

func toAuditEntryModel(e *audit.Entry) *auditEntryModel {
	return &auditEntryModel{
		ID:             e.ID.String(),
		RuleID:         e.RuleID.String(),
		IntegrationID:  e.IntegrationID.String(),
		SourcePlatform: e.SourcePlatform,
		EventType:      e.EventType,
		TargetPlatform: e.TargetPlatform,
		Action:         e.Action,
		Outcome:        e.Outcome,
		Error:          e.Error,
		Attempts:       e.Attempts,
		Unresolved:     e.Unresolved,
		LatencyMs:      e.LatencyMs,
		DispatchedAt:   e.DispatchedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func fromAuditEntryModel(m *auditEntryModel) (*audit.Entry, error) {
	auditID, err := id.ParseAuditID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse audit ID %q: %w", m.ID, err)
	}
	ruleID, err := id.ParseRuleID(m.RuleID)
	if err != nil {
		return nil, fmt.Errorf("parse rule ID %q: %w", m.RuleID, err)
	}
	intgID, err := id.ParseIntegrationID(m.IntegrationID)
	if err != nil {
		return nil, fmt.Errorf("parse integration ID %q: %w", m.IntegrationID, err)
	}
	return &audit.Entry{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:             auditID,
		RuleID:         ruleID,
		IntegrationID:  intgID,
		SourcePlatform: m.SourcePlatform,
		EventType:      m.EventType,
		TargetPlatform: m.TargetPlatform,
		Action:         m.Action,
		Outcome:        m.Outcome,
		Error:          m.Error,
		Attempts:       m.Attempts,
		Unresolved:     m.Unresolved,
		LatencyMs:      m.LatencyMs,
		DispatchedAt:   m.DispatchedAt,
	}, nil
}
