package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/adapter"
	"github.com/tandemhq/tandem/audit"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/rule"
)

// ForgeAPI wires all Forge-style HTTP handlers together. Webhook ingestion is
// served by the stdlib Handler instead; signature verification needs the raw
// request bytes, which schema-bound forge handlers do not carry.
type ForgeAPI struct {
	pipeline *tandem.Pipeline
	log      forge.Logger
}

// NewForgeAPI creates a ForgeAPI over a wired pipeline.
func NewForgeAPI(p *tandem.Pipeline, log forge.Logger) *ForgeAPI {
	return &ForgeAPI{
		pipeline: p,
		log:      log,
	}
}

// RegisterRoutes registers all Tandem admin API routes into the given Forge
// router with full OpenAPI metadata.
func (a *ForgeAPI) RegisterRoutes(router forge.Router) {
	a.registerRuleRoutes(router)
	a.registerIntegrationRoutes(router)
	a.registerAuditRoutes(router)
	a.registerStatsRoutes(router)
}

// ---------------------------------------------------------------------------
// Rule routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerRuleRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("rules"))

	if err := g.POST("/rules", a.createRule,
		forge.WithSummary("Create rule"),
		forge.WithDescription("Creates a new automation rule. Actions are validated against the target adapters' parameter schemas."),
		forge.WithOperationID("createRule"),
		forge.WithRequestSchema(CreateRuleForgeRequest{}),
		forge.WithCreatedResponse(rule.Rule{}),
		forge.WithErrorResponses(),
	); err != nil {
		// Log the error and continue registering other routes instead of failing completely.
		// This ensures that if one route has an issue, the rest of the API remains available.
		// The error will be caught during testing or can be monitored via logs.
		a.log.Error("Failed to register createRule route", forge.Error(err))
	}

	if err := g.GET("/rules", a.listRules,
		forge.WithSummary("List rules"),
		forge.WithDescription("Returns a paginated list of automation rules."),
		forge.WithOperationID("listRules"),
		forge.WithRequestSchema(ListRulesForgeRequest{}),
		forge.WithListResponse(rule.Rule{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listRules route", forge.Error(err))
	}

	if err := g.GET("/rules/:ruleId", a.getRule,
		forge.WithSummary("Get rule"),
		forge.WithDescription("Returns details of a specific rule."),
		forge.WithOperationID("getRule"),
		forge.WithResponseSchema(http.StatusOK, "Rule details", rule.Rule{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getRule route", forge.Error(err))
	}

	if err := g.PUT("/rules/:ruleId", a.updateRule,
		forge.WithSummary("Update rule"),
		forge.WithDescription("Updates mutable fields of a rule."),
		forge.WithOperationID("updateRule"),
		forge.WithRequestSchema(UpdateRuleForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated rule", rule.Rule{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register updateRule route", forge.Error(err))
	}

	if err := g.DELETE("/rules/:ruleId", a.deleteRule,
		forge.WithSummary("Delete rule"),
		forge.WithDescription("Permanently deletes a rule."),
		forge.WithOperationID("deleteRule"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register deleteRule route", forge.Error(err))
	}

	if err := g.PATCH("/rules/:ruleId/enable", a.enableRule,
		forge.WithSummary("Enable rule"),
		forge.WithDescription("Re-enables a disabled rule."),
		forge.WithOperationID("enableRule"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register enableRule route", forge.Error(err))
	}

	if err := g.PATCH("/rules/:ruleId/disable", a.disableRule,
		forge.WithSummary("Disable rule"),
		forge.WithDescription("Disables a rule, stopping all dispatches."),
		forge.WithOperationID("disableRule"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register disableRule route", forge.Error(err))
	}

	if err := g.POST("/rules/:ruleId/test", a.testRule,
		forge.WithSummary("Test rule"),
		forge.WithDescription("Dry-runs a rule against a sample payload. Renders action parameters on match but dispatches nothing."),
		forge.WithOperationID("testRule"),
		forge.WithRequestSchema(TestRuleForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Dry run outcome", tandem.RuleTest{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register testRule route", forge.Error(err))
	}

	if err := g.GET("/rules/:ruleId/executions", a.listRuleExecutions,
		forge.WithSummary("List rule executions"),
		forge.WithDescription("Returns audit entries for a specific rule, newest first."),
		forge.WithOperationID("listRuleExecutions"),
		forge.WithRequestSchema(ListRuleExecutionsForgeRequest{}),
		forge.WithListResponse(audit.Entry{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listRuleExecutions route", forge.Error(err))
	}
}

func (a *ForgeAPI) createRule(ctx forge.Context, req *CreateRuleForgeRequest) (*rule.Rule, error) {
	input := rule.Input{
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		MaxPerHour:  req.MaxPerHour,
	}

	created, err := a.pipeline.Rules().Create(ctx.Context(), input)
	if err != nil {
		return nil, mapError(err)
	}

	err = ctx.JSON(http.StatusCreated, created)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.JSON.
	return nil, nil
}

func (a *ForgeAPI) listRules(ctx forge.Context, req *ListRulesForgeRequest) ([]*rule.Rule, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	opts := rule.ListOpts{
		Platform:    req.Platform,
		EventType:   req.EventType,
		EnabledOnly: req.Enabled == "true",
		Offset:      req.Offset,
		Limit:       limit,
	}

	rules, err := a.pipeline.Rules().List(ctx.Context(), opts)
	if err != nil {
		return nil, mapError(err)
	}

	return rules, nil
}

func (a *ForgeAPI) getRule(ctx forge.Context, req *GetRuleForgeRequest) (*rule.Rule, error) {
	ruleID, err := id.ParseRuleID(req.RuleID)
	if err != nil {
		return nil, forge.BadRequest("invalid rule ID")
	}

	r, getErr := a.pipeline.Rules().Get(ctx.Context(), ruleID)
	if getErr != nil {
		return nil, mapError(getErr)
	}

	return r, nil
}

func (a *ForgeAPI) updateRule(ctx forge.Context, req *UpdateRuleForgeRequest) (*rule.Rule, error) {
	ruleID, err := id.ParseRuleID(req.RuleID)
	if err != nil {
		return nil, forge.BadRequest("invalid rule ID")
	}

	input := rule.Input{
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger,
		Conditions:  req.Conditions,
		Actions:     req.Actions,
		MaxPerHour:  req.MaxPerHour,
	}

	updated, updateErr := a.pipeline.Rules().Update(ctx.Context(), ruleID, input)
	if updateErr != nil {
		return nil, mapError(updateErr)
	}

	return updated, nil
}

func (a *ForgeAPI) deleteRule(ctx forge.Context, req *DeleteRuleForgeRequest) (*rule.Rule, error) {
	ruleID, err := id.ParseRuleID(req.RuleID)
	if err != nil {
		return nil, forge.BadRequest("invalid rule ID")
	}

	if deleteErr := a.pipeline.Rules().Delete(ctx.Context(), ruleID); deleteErr != nil {
		return nil, mapError(deleteErr)
	}

	err = ctx.NoContent(http.StatusNoContent)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.NoContent.
	return nil, nil
}

func (a *ForgeAPI) enableRule(ctx forge.Context, req *RuleActionForgeRequest) (*rule.Rule, error) {
	return a.setRuleEnabled(ctx, req, true)
}

func (a *ForgeAPI) disableRule(ctx forge.Context, req *RuleActionForgeRequest) (*rule.Rule, error) {
	return a.setRuleEnabled(ctx, req, false)
}

func (a *ForgeAPI) setRuleEnabled(ctx forge.Context, req *RuleActionForgeRequest, enabled bool) (*rule.Rule, error) {
	ruleID, err := id.ParseRuleID(req.RuleID)
	if err != nil {
		return nil, forge.BadRequest("invalid rule ID")
	}

	if setErr := a.pipeline.Rules().SetEnabled(ctx.Context(), ruleID, enabled); setErr != nil {
		return nil, mapError(setErr)
	}

	err = ctx.NoContent(http.StatusNoContent)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.NoContent.
	return nil, nil
}

func (a *ForgeAPI) testRule(ctx forge.Context, req *TestRuleForgeRequest) (*tandem.RuleTest, error) {
	ruleID, err := id.ParseRuleID(req.RuleID)
	if err != nil {
		return nil, forge.BadRequest("invalid rule ID")
	}
	if req.Platform == "" {
		return nil, forge.BadRequest("platform is required")
	}

	body, err := marshalPayload(req.Payload)
	if err != nil {
		return nil, forge.BadRequest("invalid payload")
	}

	test, testErr := a.pipeline.TestRule(ctx.Context(), ruleID, req.Platform, body)
	if testErr != nil {
		return nil, mapError(testErr)
	}

	return test, nil
}

func (a *ForgeAPI) listRuleExecutions(ctx forge.Context, req *ListRuleExecutionsForgeRequest) ([]*audit.Entry, error) {
	ruleID, err := id.ParseRuleID(req.RuleID)
	if err != nil {
		return nil, forge.BadRequest("invalid rule ID")
	}

	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	opts := audit.ListOpts{
		RuleID: &ruleID,
		Offset: req.Offset,
		Limit:  limit,
	}

	entries, listErr := a.pipeline.Audit().List(ctx.Context(), opts)
	if listErr != nil {
		return nil, mapError(listErr)
	}

	return entries, nil
}

// ---------------------------------------------------------------------------
// Integration routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerIntegrationRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("integrations"))

	if err := g.POST("/integrations", a.createIntegration,
		forge.WithSummary("Create integration"),
		forge.WithDescription("Registers a new platform integration. Credentials are stored separately and never echoed back."),
		forge.WithOperationID("createIntegration"),
		forge.WithRequestSchema(CreateIntegrationForgeRequest{}),
		forge.WithCreatedResponse(integration.Integration{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register createIntegration route", forge.Error(err))
	}

	if err := g.GET("/integrations", a.listIntegrations,
		forge.WithSummary("List integrations"),
		forge.WithDescription("Returns a paginated list of integrations."),
		forge.WithOperationID("listIntegrations"),
		forge.WithRequestSchema(ListIntegrationsForgeRequest{}),
		forge.WithListResponse(integration.Integration{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listIntegrations route", forge.Error(err))
	}

	if err := g.GET("/integrations/:integrationId", a.getIntegration,
		forge.WithSummary("Get integration"),
		forge.WithDescription("Returns details of a specific integration."),
		forge.WithOperationID("getIntegration"),
		forge.WithResponseSchema(http.StatusOK, "Integration details", integration.Integration{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getIntegration route", forge.Error(err))
	}

	if err := g.PUT("/integrations/:integrationId", a.updateIntegration,
		forge.WithSummary("Update integration"),
		forge.WithDescription("Updates mutable fields of an integration."),
		forge.WithOperationID("updateIntegration"),
		forge.WithRequestSchema(UpdateIntegrationForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated integration", integration.Integration{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register updateIntegration route", forge.Error(err))
	}

	if err := g.DELETE("/integrations/:integrationId", a.deleteIntegration,
		forge.WithSummary("Delete integration"),
		forge.WithDescription("Permanently deletes an integration and its credential."),
		forge.WithOperationID("deleteIntegration"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register deleteIntegration route", forge.Error(err))
	}

	if err := g.PATCH("/integrations/:integrationId/pause", a.pauseIntegration,
		forge.WithSummary("Pause integration"),
		forge.WithDescription("Pauses an integration. Actions targeting it are skipped."),
		forge.WithOperationID("pauseIntegration"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register pauseIntegration route", forge.Error(err))
	}

	if err := g.PATCH("/integrations/:integrationId/resume", a.resumeIntegration,
		forge.WithSummary("Resume integration"),
		forge.WithDescription("Reactivates a paused or errored integration and clears its failure streak."),
		forge.WithOperationID("resumeIntegration"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register resumeIntegration route", forge.Error(err))
	}

	if err := g.POST("/integrations/:integrationId/test", a.testIntegration,
		forge.WithSummary("Test connection"),
		forge.WithDescription("Verifies the integration's credentials with a cheap read-only platform call."),
		forge.WithOperationID("testIntegration"),
		forge.WithResponseSchema(http.StatusOK, "Connection test outcome", ConnectionTestForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register testIntegration route", forge.Error(err))
	}

	if err := g.POST("/integrations/:integrationId/execute", a.executeAction,
		forge.WithSummary("Execute action"),
		forge.WithDescription("Executes a single action against the integration outside of any rule."),
		forge.WithOperationID("executeIntegrationAction"),
		forge.WithRequestSchema(ExecuteActionForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Execution outcome", ConnectionTestForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register executeAction route", forge.Error(err))
	}

	if err := g.GET("/integrations/platforms/:platform/actions", a.listPlatformActions,
		forge.WithSummary("List platform actions"),
		forge.WithDescription("Returns the action catalog an adapter declares for a platform."),
		forge.WithOperationID("listPlatformActions"),
		forge.WithListResponse(adapter.ActionDef{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listPlatformActions route", forge.Error(err))
	}
}

func (a *ForgeAPI) createIntegration(ctx forge.Context, req *CreateIntegrationForgeRequest) (*integration.Integration, error) {
	input := integration.Input{
		Name:       req.Name,
		Platform:   req.Platform,
		Config:     req.Config,
		Credential: req.Credential.toCredential(),
	}

	created, err := a.pipeline.Integrations().Create(ctx.Context(), input)
	if err != nil {
		return nil, mapError(err)
	}

	err = ctx.JSON(http.StatusCreated, created)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.JSON.
	return nil, nil
}

func (a *ForgeAPI) listIntegrations(ctx forge.Context, req *ListIntegrationsForgeRequest) ([]*integration.Integration, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	opts := integration.ListOpts{
		Platform: req.Platform,
		Status:   integration.Status(req.Status),
		Offset:   req.Offset,
		Limit:    limit,
	}

	integrations, err := a.pipeline.Integrations().List(ctx.Context(), opts)
	if err != nil {
		return nil, mapError(err)
	}

	return integrations, nil
}

func (a *ForgeAPI) getIntegration(ctx forge.Context, req *GetIntegrationForgeRequest) (*integration.Integration, error) {
	intgID, err := id.ParseIntegrationID(req.IntegrationID)
	if err != nil {
		return nil, forge.BadRequest("invalid integration ID")
	}

	in, getErr := a.pipeline.Integrations().Get(ctx.Context(), intgID)
	if getErr != nil {
		return nil, mapError(getErr)
	}

	return in, nil
}

func (a *ForgeAPI) updateIntegration(ctx forge.Context, req *UpdateIntegrationForgeRequest) (*integration.Integration, error) {
	intgID, err := id.ParseIntegrationID(req.IntegrationID)
	if err != nil {
		return nil, forge.BadRequest("invalid integration ID")
	}

	input := integration.Input{
		Name:       req.Name,
		Config:     req.Config,
		Credential: req.Credential.toCredential(),
	}

	updated, updateErr := a.pipeline.Integrations().Update(ctx.Context(), intgID, input)
	if updateErr != nil {
		return nil, mapError(updateErr)
	}

	return updated, nil
}

func (a *ForgeAPI) deleteIntegration(ctx forge.Context, req *DeleteIntegrationForgeRequest) (*integration.Integration, error) {
	intgID, err := id.ParseIntegrationID(req.IntegrationID)
	if err != nil {
		return nil, forge.BadRequest("invalid integration ID")
	}

	if deleteErr := a.pipeline.Integrations().Delete(ctx.Context(), intgID); deleteErr != nil {
		return nil, mapError(deleteErr)
	}

	err = ctx.NoContent(http.StatusNoContent)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.NoContent.
	return nil, nil
}

func (a *ForgeAPI) pauseIntegration(ctx forge.Context, req *IntegrationActionForgeRequest) (*integration.Integration, error) {
	return a.setIntegrationStatus(ctx, req, integration.StatusPaused)
}

func (a *ForgeAPI) resumeIntegration(ctx forge.Context, req *IntegrationActionForgeRequest) (*integration.Integration, error) {
	return a.setIntegrationStatus(ctx, req, integration.StatusActive)
}

func (a *ForgeAPI) setIntegrationStatus(ctx forge.Context, req *IntegrationActionForgeRequest, status integration.Status) (*integration.Integration, error) {
	intgID, err := id.ParseIntegrationID(req.IntegrationID)
	if err != nil {
		return nil, forge.BadRequest("invalid integration ID")
	}

	if setErr := a.pipeline.Integrations().SetStatus(ctx.Context(), intgID, status); setErr != nil {
		return nil, mapError(setErr)
	}

	err = ctx.NoContent(http.StatusNoContent)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.NoContent.
	return nil, nil
}

func (a *ForgeAPI) testIntegration(ctx forge.Context, req *IntegrationActionForgeRequest) (*ConnectionTestForgeResponse, error) {
	intgID, err := id.ParseIntegrationID(req.IntegrationID)
	if err != nil {
		return nil, forge.BadRequest("invalid integration ID")
	}

	if testErr := a.pipeline.TestConnection(ctx.Context(), intgID); testErr != nil {
		if isNotFoundErr(testErr) {
			return nil, mapError(testErr)
		}
		return &ConnectionTestForgeResponse{OK: false, Error: testErr.Error()}, nil
	}

	return &ConnectionTestForgeResponse{OK: true}, nil
}

func (a *ForgeAPI) executeAction(ctx forge.Context, req *ExecuteActionForgeRequest) (*ConnectionTestForgeResponse, error) {
	intgID, err := id.ParseIntegrationID(req.IntegrationID)
	if err != nil {
		return nil, forge.BadRequest("invalid integration ID")
	}
	if req.Action == "" {
		return nil, forge.BadRequest("action is required")
	}

	if execErr := a.pipeline.ExecuteAction(ctx.Context(), intgID, req.Action, req.Params); execErr != nil {
		if isNotFoundErr(execErr) {
			return nil, mapError(execErr)
		}
		return &ConnectionTestForgeResponse{OK: false, Error: execErr.Error()}, nil
	}

	return &ConnectionTestForgeResponse{OK: true}, nil
}

func (a *ForgeAPI) listPlatformActions(ctx forge.Context, req *PlatformActionsForgeRequest) ([]adapter.ActionDef, error) {
	ad, err := a.pipeline.Adapters().Get(req.Platform)
	if err != nil {
		return nil, forge.NotFound("unknown platform")
	}

	return ad.Actions(), nil
}

// toCredential converts the request credential, nil stays nil.
func (c *CredentialForge) toCredential() *integration.Credential {
	if c == nil {
		return nil
	}
	return &integration.Credential{
		Token:     c.Token,
		Secondary: c.Secondary,
		Extra:     c.Extra,
	}
}

// ---------------------------------------------------------------------------
// Audit routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerAuditRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("audit"))

	if err := g.GET("/audit", a.listAudit,
		forge.WithSummary("List audit entries"),
		forge.WithDescription("Returns dispatch audit entries, newest first, optionally filtered by rule, integration, outcome, or time range."),
		forge.WithOperationID("listAudit"),
		forge.WithRequestSchema(ListAuditForgeRequest{}),
		forge.WithListResponse(audit.Entry{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listAudit route", forge.Error(err))
	}

	if err := g.GET("/audit/:auditId", a.getAudit,
		forge.WithSummary("Get audit entry"),
		forge.WithDescription("Returns details of a specific audit entry."),
		forge.WithOperationID("getAudit"),
		forge.WithResponseSchema(http.StatusOK, "Audit entry details", audit.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getAudit route", forge.Error(err))
	}

	if err := g.DELETE("/audit", a.purgeAudit,
		forge.WithSummary("Purge audit entries"),
		forge.WithDescription("Removes audit entries older than the given cutoff."),
		forge.WithOperationID("purgeAudit"),
		forge.WithRequestSchema(PurgeAuditForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Purge result", PurgeAuditForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register purgeAudit route", forge.Error(err))
	}
}

func (a *ForgeAPI) listAudit(ctx forge.Context, req *ListAuditForgeRequest) ([]*audit.Entry, error) {
	limit := req.Limit
	if limit == 0 {
		limit = 50
	}

	opts := audit.ListOpts{
		Offset:  req.Offset,
		Limit:   limit,
		Outcome: req.Outcome,
	}

	if req.RuleID != "" {
		ruleID, err := id.ParseRuleID(req.RuleID)
		if err != nil {
			return nil, forge.BadRequest("invalid rule_id")
		}
		opts.RuleID = &ruleID
	}
	if req.IntegrationID != "" {
		intgID, err := id.ParseIntegrationID(req.IntegrationID)
		if err != nil {
			return nil, forge.BadRequest("invalid integration_id")
		}
		opts.IntegrationID = &intgID
	}
	if req.From != "" {
		from, err := time.Parse(time.RFC3339, req.From)
		if err != nil {
			return nil, forge.BadRequest("invalid 'from' time format (use RFC3339)")
		}
		opts.From = &from
	}
	if req.To != "" {
		to, err := time.Parse(time.RFC3339, req.To)
		if err != nil {
			return nil, forge.BadRequest("invalid 'to' time format (use RFC3339)")
		}
		opts.To = &to
	}

	entries, err := a.pipeline.Audit().List(ctx.Context(), opts)
	if err != nil {
		return nil, mapError(err)
	}

	return entries, nil
}

func (a *ForgeAPI) getAudit(ctx forge.Context, req *GetAuditForgeRequest) (*audit.Entry, error) {
	auditID, err := id.ParseAuditID(req.AuditID)
	if err != nil {
		return nil, forge.BadRequest("invalid audit ID")
	}

	entry, getErr := a.pipeline.Audit().Get(ctx.Context(), auditID)
	if getErr != nil {
		return nil, mapError(getErr)
	}

	return entry, nil
}

func (a *ForgeAPI) purgeAudit(ctx forge.Context, req *PurgeAuditForgeRequest) (*PurgeAuditForgeResponse, error) {
	if req.Before == "" {
		return nil, forge.BadRequest("before query parameter is required")
	}
	before, err := time.Parse(time.RFC3339, req.Before)
	if err != nil {
		return nil, forge.BadRequest("invalid 'before' time format (use RFC3339)")
	}

	purged, purgeErr := a.pipeline.Audit().Purge(ctx.Context(), before)
	if purgeErr != nil {
		return nil, mapError(purgeErr)
	}

	return &PurgeAuditForgeResponse{Purged: purged}, nil
}

// ---------------------------------------------------------------------------
// Stats routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerStatsRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("stats"))

	if err := g.GET("/stats", a.getStats,
		forge.WithSummary("System statistics"),
		forge.WithDescription("Returns aggregate counts of rules, integrations by status, and audit entries."),
		forge.WithOperationID("getStats"),
		forge.WithResponseSchema(http.StatusOK, "System statistics", StatsForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getStats route", forge.Error(err))
	}
}

func (a *ForgeAPI) getStats(ctx forge.Context, _ *StatsForgeRequest) (*StatsForgeResponse, error) {
	rules, err := a.pipeline.Rules().List(ctx.Context(), rule.ListOpts{})
	if err != nil {
		return nil, mapError(err)
	}

	integrations, err := a.pipeline.Integrations().List(ctx.Context(), integration.ListOpts{})
	if err != nil {
		return nil, mapError(err)
	}

	auditCount, err := a.pipeline.Audit().Count(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}

	stats := &StatsForgeResponse{
		Rules:        len(rules),
		Integrations: make(map[string]int),
		AuditEntries: auditCount,
	}
	for _, r := range rules {
		if r.Enabled {
			stats.EnabledRules++
		}
	}
	for _, in := range integrations {
		stats.Integrations[string(in.Status)]++
	}

	return stats, nil
}
