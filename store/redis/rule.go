package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	tandem "github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/internal/entity"
	"github.com/tandemhq/tandem/rule"
)

// ruleModel is the JSON representation stored in Redis.
type ruleModel struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	TriggerPlatform string            `json:"trigger_platform"`
	TriggerEvent    string            `json:"trigger_event"`
	Conditions      []rule.Condition  `json:"conditions,omitempty"`
	Actions         []rule.ActionSpec `json:"actions"`
	Enabled         bool              `json:"enabled"`
	MaxPerHour      int               `json:"max_per_hour"`
	ExecutionCount  int64             `json:"execution_count"`
	SuccessCount    int64             `json:"success_count"`
	FailureCount    int64             `json:"failure_count"`
	LastExecutedAt  *time.Time        `json:"last_executed_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func toRuleModel(r *rule.Rule) *ruleModel {
	return &ruleModel{
		ID:              r.ID.String(),
		Name:            r.Name,
		Description:     r.Description,
		TriggerPlatform: r.Trigger.Platform,
		TriggerEvent:    r.Trigger.EventType,
		Conditions:      r.Conditions,
		Actions:         r.Actions,
		Enabled:         r.Enabled,
		MaxPerHour:      r.MaxPerHour,
		ExecutionCount:  r.ExecutionCount,
		SuccessCount:    r.SuccessCount,
		FailureCount:    r.FailureCount,
		LastExecutedAt:  r.LastExecutedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func fromRuleModel(m *ruleModel) (*rule.Rule, error) {
	ruleID, err := id.ParseRuleID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse rule ID %q: %w", m.ID, err)
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
		Conditions:     m.Conditions,
		Actions:        m.Actions,
		Enabled:        m.Enabled,
		MaxPerHour:     m.MaxPerHour,
		ExecutionCount: m.ExecutionCount,
		SuccessCount:   m.SuccessCount,
		FailureCount:   m.FailureCount,
		LastExecutedAt: m.LastExecutedAt,
	}, nil
}

func (s *Store) CreateRule(ctx context.Context, r *rule.Rule) error {
	m := toRuleModel(r)
	key := entityKey(prefixRule, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("tandem/redis: create rule: %w", err)
	}

	// TypeIDs are K-sortable, so creation-time scores list in ascending ID order.
	if err := s.rdb.ZAdd(ctx, zRuleAll, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID}).Err(); err != nil {
		return fmt.Errorf("tandem/redis: create rule index: %w", err)
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, ruleID id.ID) (*rule.Rule, error) {
	var m ruleModel
	if err := s.getEntity(ctx, entityKey(prefixRule, ruleID.String()), &m); err != nil {
		if isNotFound(err) {
			return nil, tandem.ErrRuleNotFound
		}
		return nil, fmt.Errorf("tandem/redis: get rule: %w", err)
	}
	return fromRuleModel(&m)
}

func (s *Store) UpdateRule(ctx context.Context, r *rule.Rule) error {
	key := entityKey(prefixRule, r.ID.String())

	// Verify existence.
	var existing ruleModel
	if err := s.getEntity(ctx, key, &existing); err != nil {
		if isNotFound(err) {
			return tandem.ErrRuleNotFound
		}
		return fmt.Errorf("tandem/redis: update rule get: %w", err)
	}

	m := toRuleModel(r)
	m.UpdatedAt = now()

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("tandem/redis: update rule: %w", err)
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, ruleID id.ID) error {
	key := entityKey(prefixRule, ruleID.String())

	var m ruleModel
	if err := s.getEntity(ctx, key, &m); err != nil {
		if isNotFound(err) {
			return tandem.ErrRuleNotFound
		}
		return fmt.Errorf("tandem/redis: delete rule get: %w", err)
	}

	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("tandem/redis: delete rule: %w", err)
	}

	if err := s.rdb.ZRem(ctx, zRuleAll, m.ID).Err(); err != nil {
		return fmt.Errorf("tandem/redis: delete rule index: %w", err)
	}
	return nil
}

func (s *Store) ListRules(ctx context.Context, opts rule.ListOpts) ([]*rule.Rule, error) {
	ids, err := s.rdb.ZRange(ctx, zRuleAll, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("tandem/redis: list rules: %w", err)
	}

	result := make([]*rule.Rule, 0, len(ids))
	for _, entryID := range ids {
		var m ruleModel
		if err := s.getEntity(ctx, entityKey(prefixRule, entryID), &m); err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		if opts.Platform != "" && m.TriggerPlatform != opts.Platform {
			continue
		}
		if opts.EventType != "" && m.TriggerEvent != opts.EventType {
			continue
		}
		if opts.EnabledOnly && !m.Enabled {
			continue
		}
		r, err := fromRuleModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

func (s *Store) RecordExecution(ctx context.Context, ruleID id.ID, at time.Time, succeeded, failed int) error {
	key := entityKey(prefixRule, ruleID.String())

	var m ruleModel
	if err := s.getEntity(ctx, key, &m); err != nil {
		if isNotFound(err) {
			return tandem.ErrRuleNotFound
		}
		return fmt.Errorf("tandem/redis: record execution get: %w", err)
	}

	m.ExecutionCount++
	m.SuccessCount += int64(succeeded)
	m.FailureCount += int64(failed)
	m.LastExecutedAt = &at
	m.UpdatedAt = at

	if err := s.setEntity(ctx, key, &m); err != nil {
		return fmt.Errorf("tandem/redis: record execution: %w", err)
	}
	return nil
}
