package api

import (
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/rule"
)

// ---------------------------------------------------------------------------
// Rule requests
// ---------------------------------------------------------------------------

// CreateRuleForgeRequest binds the body for POST /rules.
type CreateRuleForgeRequest struct {
	Name        string            `description:"Rule name"                          json:"name"`
	Description string            `description:"Human-readable description"         json:"description,omitempty"`
	Trigger     rule.TriggerSpec  `description:"Platform and event type to trigger" json:"trigger"`
	Conditions  []rule.Condition  `description:"Conditions, all must hold"          json:"conditions,omitempty"`
	Actions     []rule.ActionSpec `description:"Actions to execute on match"        json:"actions"`
	MaxPerHour  int               `description:"Hourly execution cap (0 = none)"    json:"max_per_hour,omitempty"`
}

// ListRulesForgeRequest binds query parameters for GET /rules.
type ListRulesForgeRequest struct {
	Platform  string `description:"Filter by trigger platform"   query:"platform"`
	EventType string `description:"Filter by trigger event type" query:"event_type"`
	Enabled   string `description:"Only enabled rules"           query:"enabled"`
	Offset    int    `description:"Pagination offset"            query:"offset"`
	Limit     int    `description:"Page size (default 50)"       query:"limit"`
}

// GetRuleForgeRequest binds the path for GET /rules/:ruleId.
type GetRuleForgeRequest struct {
	RuleID string `description:"Rule identifier" path:"ruleId"`
}

// UpdateRuleForgeRequest binds path + body for PUT /rules/:ruleId.
type UpdateRuleForgeRequest struct {
	RuleID      string            `description:"Rule identifier"                    path:"ruleId"`
	Name        string            `description:"Rule name"                          json:"name,omitempty"`
	Description string            `description:"Human-readable description"         json:"description,omitempty"`
	Trigger     rule.TriggerSpec  `description:"Platform and event type to trigger" json:"trigger,omitempty"`
	Conditions  []rule.Condition  `description:"Conditions, all must hold"          json:"conditions,omitempty"`
	Actions     []rule.ActionSpec `description:"Actions to execute on match"        json:"actions,omitempty"`
	MaxPerHour  int               `description:"Hourly execution cap (0 = none)"    json:"max_per_hour,omitempty"`
}

// DeleteRuleForgeRequest binds the path for DELETE /rules/:ruleId.
type DeleteRuleForgeRequest struct {
	RuleID string `description:"Rule identifier" path:"ruleId"`
}

// RuleActionForgeRequest binds the path for enable/disable.
type RuleActionForgeRequest struct {
	RuleID string `description:"Rule identifier" path:"ruleId"`
}

// TestRuleForgeRequest binds path + body for POST /rules/:ruleId/test.
type TestRuleForgeRequest struct {
	RuleID   string         `description:"Rule identifier"        path:"ruleId"`
	Platform string         `description:"Source platform"        json:"platform"`
	Payload  map[string]any `description:"Sample webhook payload" json:"payload"`
}

// ListRuleExecutionsForgeRequest binds path + query for
// GET /rules/:ruleId/executions.
type ListRuleExecutionsForgeRequest struct {
	RuleID string `description:"Rule identifier"        path:"ruleId"`
	Offset int    `description:"Pagination offset"      query:"offset"`
	Limit  int    `description:"Page size (default 50)" query:"limit"`
}

// ---------------------------------------------------------------------------
// Integration requests
// ---------------------------------------------------------------------------

// CreateIntegrationForgeRequest binds the body for POST /integrations.
type CreateIntegrationForgeRequest struct {
	Name       string            `description:"Integration name"              json:"name"`
	Platform   string            `description:"Target platform identifier"    json:"platform"`
	Config     map[string]string `description:"Non-secret platform settings"  json:"config,omitempty"`
	Credential *CredentialForge  `description:"Platform credential (secrets)" json:"credential,omitempty"`
}

// CredentialForge carries integration secrets in requests. Never echoed back.
type CredentialForge struct {
	Token     string            `description:"Primary token or API key" json:"token"`
	Secondary string            `description:"Secondary secret"         json:"secondary,omitempty"`
	Extra     map[string]string `description:"Extra credential fields"  json:"extra,omitempty"`
}

// ListIntegrationsForgeRequest binds query parameters for GET /integrations.
type ListIntegrationsForgeRequest struct {
	Platform string `description:"Filter by platform"       query:"platform"`
	Status   string `description:"Filter by status"         query:"status"`
	Offset   int    `description:"Pagination offset"        query:"offset"`
	Limit    int    `description:"Page size (default 50)"   query:"limit"`
}

// GetIntegrationForgeRequest binds the path for GET /integrations/:integrationId.
type GetIntegrationForgeRequest struct {
	IntegrationID string `description:"Integration identifier" path:"integrationId"`
}

// UpdateIntegrationForgeRequest binds path + body for PUT /integrations/:integrationId.
type UpdateIntegrationForgeRequest struct {
	IntegrationID string            `description:"Integration identifier"        path:"integrationId"`
	Name          string            `description:"Integration name"              json:"name,omitempty"`
	Config        map[string]string `description:"Non-secret platform settings"  json:"config,omitempty"`
	Credential    *CredentialForge  `description:"Platform credential (secrets)" json:"credential,omitempty"`
}

// DeleteIntegrationForgeRequest binds the path for DELETE /integrations/:integrationId.
type DeleteIntegrationForgeRequest struct {
	IntegrationID string `description:"Integration identifier" path:"integrationId"`
}

// IntegrationActionForgeRequest binds the path for pause/resume/test.
type IntegrationActionForgeRequest struct {
	IntegrationID string `description:"Integration identifier" path:"integrationId"`
}

// ExecuteActionForgeRequest binds path + body for POST /integrations/:integrationId/execute.
type ExecuteActionForgeRequest struct {
	IntegrationID string         `description:"Integration identifier" path:"integrationId"`
	Action        string         `description:"Action type to execute" json:"action"`
	Params        map[string]any `description:"Action parameters"      json:"params,omitempty"`
}

// ConnectionTestForgeResponse is the response for POST /integrations/:integrationId/test.
type ConnectionTestForgeResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PlatformActionsForgeRequest binds the path for
// GET /integrations/platforms/:platform/actions.
type PlatformActionsForgeRequest struct {
	Platform string `description:"Platform identifier" path:"platform"`
}

// ---------------------------------------------------------------------------
// Audit requests
// ---------------------------------------------------------------------------

// ListAuditForgeRequest binds query parameters for GET /audit.
type ListAuditForgeRequest struct {
	RuleID        string `description:"Filter by rule"          query:"rule_id"`
	IntegrationID string `description:"Filter by integration"   query:"integration_id"`
	Outcome       string `description:"Filter by outcome"       query:"outcome"`
	From          string `description:"Start time (RFC3339)"    query:"from"`
	To            string `description:"End time (RFC3339)"      query:"to"`
	Offset        int    `description:"Pagination offset"       query:"offset"`
	Limit         int    `description:"Page size (default 50)"  query:"limit"`
}

// GetAuditForgeRequest binds the path for GET /audit/:auditId.
type GetAuditForgeRequest struct {
	AuditID string `description:"Audit entry identifier" path:"auditId"`
}

// PurgeAuditForgeRequest binds query parameters for DELETE /audit.
type PurgeAuditForgeRequest struct {
	Before string `description:"Purge entries older than this (RFC3339)" query:"before"`
}

// PurgeAuditForgeResponse is the response for DELETE /audit.
type PurgeAuditForgeResponse struct {
	Purged int64 `json:"purged"`
}

// ---------------------------------------------------------------------------
// Stats requests
// ---------------------------------------------------------------------------

// StatsForgeRequest is empty -- GET /stats has no parameters.
type StatsForgeRequest struct{}

// StatsForgeResponse is the response for GET /stats.
type StatsForgeResponse struct {
	Rules        int            `json:"rules"`
	EnabledRules int            `json:"enabled_rules"`
	Integrations map[string]int `json:"integrations"`
	AuditEntries int64          `json:"audit_entries"`
}

// ---------------------------------------------------------------------------
// Helper -- compile-time check that id.ID is used (keep import alive).
// ---------------------------------------------------------------------------

var _ = id.Nil
