package redis

import (
	"context"
	"fmt"
	"math"
	"time"

	goredis "github.com/redis/go-redis/v9"

	tandem "github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/audit"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/internal/entity"
)

// auditEntryModel is the JSON representation stored in Redis.
type auditEntryModel struct {
	ID             string    `json:"id"`
	RuleID         string    `json:"rule_id"`
	IntegrationID  string    `json:"integration_id"`
	SourcePlatform string    `json:"source_platform"`
	EventType      string    `json:"event_type"`
	TargetPlatform string    `json:"target_platform"`
	Action         string    `json:"action"`
	Outcome        string    `json:"outcome"`
	Error          string    `json:"error,omitempty"`
	Attempts       int       `json:"attempts"`
	Unresolved     []string  `json:"unresolved,omitempty"`
	LatencyMs      int       `json:"latency_ms"`
	DispatchedAt   time.Time `json:"dispatched_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
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

func (s *Store) PushAudit(ctx context.Context, e *audit.Entry) error {
	m := toAuditEntryModel(e)
	key := entityKey(prefixAudit, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("tandem/redis: push audit: %w", err)
	}

	score := scoreFromTime(m.DispatchedAt)
	pipe := s.rdb.Pipeline()
	pipe.ZAdd(ctx, zAuditAll, goredis.Z{Score: score, Member: m.ID})
	if m.RuleID != "" {
		pipe.ZAdd(ctx, zAuditRule+m.RuleID, goredis.Z{Score: score, Member: m.ID})
	}
	if m.IntegrationID != "" {
		pipe.ZAdd(ctx, zAuditIntegration+m.IntegrationID, goredis.Z{Score: score, Member: m.ID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("tandem/redis: push audit indexes: %w", err)
	}
	return nil
}

func (s *Store) GetAudit(ctx context.Context, auditID id.ID) (*audit.Entry, error) {
	var m auditEntryModel
	if err := s.getEntity(ctx, entityKey(prefixAudit, auditID.String()), &m); err != nil {
		if isNotFound(err) {
			return nil, tandem.ErrAuditNotFound
		}
		return nil, fmt.Errorf("tandem/redis: get audit: %w", err)
	}
	return fromAuditEntryModel(&m)
}

func (s *Store) ListAudit(ctx context.Context, opts audit.ListOpts) ([]*audit.Entry, error) {
	zKey := zAuditAll
	if opts.RuleID != nil {
		zKey = zAuditRule + opts.RuleID.String()
	}
	if opts.IntegrationID != nil {
		zKey = zAuditIntegration + opts.IntegrationID.String()
	}

	minScore := math.Inf(-1)
	maxScore := math.Inf(1)
	if opts.From != nil {
		minScore = scoreFromTime(*opts.From)
	}
	if opts.To != nil {
		maxScore = scoreFromTime(*opts.To)
	}

	ids, err := s.zRangeByScoreIDs(ctx, zKey, minScore, maxScore)
	if err != nil {
		return nil, fmt.Errorf("tandem/redis: list audit: %w", err)
	}

	result := make([]*audit.Entry, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- { // reverse for DESC order
		var m auditEntryModel
		if err := s.getEntity(ctx, entityKey(prefixAudit, ids[i]), &m); err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		if opts.RuleID != nil && m.RuleID != opts.RuleID.String() {
			continue
		}
		if opts.IntegrationID != nil && m.IntegrationID != opts.IntegrationID.String() {
			continue
		}
		if opts.Outcome != "" && m.Outcome != opts.Outcome {
			continue
		}
		e, err := fromAuditEntryModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

func (s *Store) PurgeAudit(ctx context.Context, before time.Time) (int64, error) {
	maxScore := scoreFromTime(before)
	ids, err := s.zRangeByScoreIDs(ctx, zAuditAll, math.Inf(-1), maxScore)
	if err != nil {
		return 0, fmt.Errorf("tandem/redis: purge audit list: %w", err)
	}

	var count int64
	for _, entryID := range ids {
		var m auditEntryModel
		if err := s.getEntity(ctx, entityKey(prefixAudit, entryID), &m); err != nil {
			if isNotFound(err) {
				continue
			}
			return count, err
		}
		if !m.DispatchedAt.Before(before) {
			continue
		}

		pipe := s.rdb.Pipeline()
		pipe.Del(ctx, entityKey(prefixAudit, entryID))
		pipe.ZRem(ctx, zAuditAll, entryID)
		if m.RuleID != "" {
			pipe.ZRem(ctx, zAuditRule+m.RuleID, entryID)
		}
		if m.IntegrationID != "" {
			pipe.ZRem(ctx, zAuditIntegration+m.IntegrationID, entryID)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

func (s *Store) CountAudit(ctx context.Context) (int64, error) {
	count, err := s.rdb.ZCard(ctx, zAuditAll).Result()
	if err != nil {
		return 0, fmt.Errorf("tandem/redis: count audit: %w", err)
	}
	return count, nil
}
