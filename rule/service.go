package rule

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/internal/entity"
	"github.com/tandemhq/tandem/ratelimit"
)

// ActionSchemas resolves the parameter schema an adapter declares for an
// action, so rules are validated against it at save time. A nil schema means
// the action accepts arbitrary parameters.
type ActionSchemas interface {
	ActionSchema(ctx context.Context, integrationID id.ID, actionType string) (any, error)
}

// Service provides rule management operations.
type Service struct {
	store     Store
	validator *Validator
	schemas   ActionSchemas
	limiter   *ratelimit.Limiter
	logger    *slog.Logger
}

// NewService creates a new rule service. schemas may be nil, in which case
// action parameters are not validated against adapter schemas.
func NewService(store Store, schemas ActionSchemas, limiter *ratelimit.Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	return &Service{
		store:     store,
		validator: NewValidator(),
		schemas:   schemas,
		limiter:   limiter,
		logger:    logger,
	}
}

// Create registers a new automation rule.
func (svc *Service) Create(ctx context.Context, in Input) (*Rule, error) {
	if err := svc.validate(ctx, in); err != nil {
		return nil, err
	}

	r := &Rule{
		Entity:      entity.New(),
		ID:          id.NewRuleID(),
		Name:        in.Name,
		Description: in.Description,
		Trigger:     in.Trigger,
		Conditions:  in.Conditions,
		Actions:     in.Actions,
		Enabled:     true,
		MaxPerHour:  in.MaxPerHour,
	}

	if err := svc.store.CreateRule(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

// Get returns a rule by ID.
func (svc *Service) Get(ctx context.Context, ruleID id.ID) (*Rule, error) {
	return svc.store.GetRule(ctx, ruleID)
}

// Update modifies an existing rule.
func (svc *Service) Update(ctx context.Context, ruleID id.ID, in Input) (*Rule, error) {
	r, err := svc.store.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		r.Name = in.Name
	}
	if in.Description != "" {
		r.Description = in.Description
	}
	if in.Trigger.Platform != "" {
		r.Trigger.Platform = in.Trigger.Platform
	}
	if in.Trigger.EventType != "" {
		r.Trigger.EventType = in.Trigger.EventType
	}
	if in.Conditions != nil {
		if err := svc.validateConditions(in.Conditions); err != nil {
			return nil, err
		}
		r.Conditions = in.Conditions
	}
	if in.Actions != nil {
		if err := svc.validateActions(ctx, in.Actions); err != nil {
			return nil, err
		}
		r.Actions = in.Actions
	}
	if in.MaxPerHour >= 0 {
		r.MaxPerHour = in.MaxPerHour
	}
	r.UpdatedAt = time.Now().UTC()

	if err := svc.store.UpdateRule(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

// Delete removes a rule.
func (svc *Service) Delete(ctx context.Context, ruleID id.ID) error {
	svc.limiter.Reset(ruleID.String())
	return svc.store.DeleteRule(ctx, ruleID)
}

// List returns rules matching the options.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*Rule, error) {
	return svc.store.ListRules(ctx, opts)
}

// SetEnabled enables or disables a rule.
func (svc *Service) SetEnabled(ctx context.Context, ruleID id.ID, enabled bool) error {
	r, err := svc.store.GetRule(ctx, ruleID)
	if err != nil {
		return err
	}
	r.Enabled = enabled
	r.UpdatedAt = time.Now().UTC()
	return svc.store.UpdateRule(ctx, r)
}

// AllowExecution consumes one execution slot from the rule's hourly cap.
// Returns false when the rule is throttled.
func (svc *Service) AllowExecution(r *Rule) bool {
	allowed := svc.limiter.Allow(r.ID.String(), r.MaxPerHour)
	if !allowed {
		svc.logger.Warn("rule throttled by hourly cap",
			slog.String("rule_id", r.ID.String()),
			slog.Int("max_per_hour", r.MaxPerHour),
		)
	}
	return allowed
}

// RecordExecution updates the rule's execution statistics with the action
// outcome tallies of one run.
func (svc *Service) RecordExecution(ctx context.Context, ruleID id.ID, succeeded, failed int) error {
	return svc.store.RecordExecution(ctx, ruleID, time.Now().UTC(), succeeded, failed)
}

func (svc *Service) validate(ctx context.Context, in Input) error {
	if in.Name == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	if in.Trigger.Platform == "" {
		return &ValidationError{Field: "trigger.platform", Message: "required"}
	}
	if in.Trigger.EventType == "" {
		return &ValidationError{Field: "trigger.event_type", Message: "required"}
	}
	if len(in.Actions) == 0 {
		return &ValidationError{Field: "actions", Message: "at least one action required"}
	}
	if in.MaxPerHour < 0 {
		return &ValidationError{Field: "max_per_hour", Message: "must not be negative"}
	}
	if err := svc.validateConditions(in.Conditions); err != nil {
		return err
	}
	return svc.validateActions(ctx, in.Actions)
}

func (svc *Service) validateConditions(conds []Condition) error {
	for i, c := range conds {
		field := "conditions[" + strconv.Itoa(i) + "]"
		if c.Field == "" {
			return &ValidationError{Field: field + ".field", Message: "required"}
		}
		if !c.Operator.Valid() {
			return &ValidationError{Field: field + ".operator", Message: "unknown operator " + string(c.Operator)}
		}
		if c.Operator == OpMatches {
			pattern, ok := c.Value.Str()
			if !ok {
				return &ValidationError{Field: field + ".value", Message: "matches requires a string pattern"}
			}
			if _, err := regexp.Compile(pattern); err != nil {
				return &ValidationError{Field: field + ".value", Message: "invalid pattern: " + err.Error()}
			}
		}
	}
	return nil
}

func (svc *Service) validateActions(ctx context.Context, actions []ActionSpec) error {
	for i, a := range actions {
		field := "actions[" + strconv.Itoa(i) + "]"
		if a.IntegrationID.IsNil() {
			return &ValidationError{Field: field + ".integration_id", Message: "required"}
		}
		if a.Type == "" {
			return &ValidationError{Field: field + ".type", Message: "required"}
		}
		if svc.schemas == nil {
			continue
		}
		schema, err := svc.schemas.ActionSchema(ctx, a.IntegrationID, a.Type)
		if err != nil {
			return &ValidationError{Field: field + ".type", Message: err.Error()}
		}
		if err := svc.validator.Validate(schema, a.Params); err != nil {
			return &ValidationError{Field: field + ".params", Message: err.Error()}
		}
	}
	return nil
}

// Input carries the user-supplied fields for creating or updating a rule.
type Input struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Trigger     TriggerSpec  `json:"trigger"`
	Conditions  []Condition  `json:"conditions,omitempty"`
	Actions     []ActionSpec `json:"actions"`
	MaxPerHour  int          `json:"max_per_hour"`
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "rule validation: " + e.Field + ": " + e.Message
}
