package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	tandem "github.com/tandemhq/tandem"
	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/internal/entity"
)

// integrationModel is the JSON representation stored in Redis.
type integrationModel struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Platform            string            `json:"platform"`
	Status              string            `json:"status"`
	Config              map[string]string `json:"config,omitempty"`
	ConsecutiveFailures int               `json:"consecutive_failures"`
	SuccessCount        int64             `json:"success_count"`
	FailureCount        int64             `json:"failure_count"`
	LastUsedAt          *time.Time        `json:"last_used_at,omitempty"`
	LastError           string            `json:"last_error,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
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

func (s *Store) CreateIntegration(ctx context.Context, in *integration.Integration) error {
	m := toIntegrationModel(in)
	key := entityKey(prefixIntegration, m.ID)

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("tandem/redis: create integration: %w", err)
	}

	if err := s.rdb.ZAdd(ctx, zIntegrationAll, goredis.Z{Score: scoreFromTime(m.CreatedAt), Member: m.ID}).Err(); err != nil {
		return fmt.Errorf("tandem/redis: create integration index: %w", err)
	}
	return nil
}

func (s *Store) GetIntegration(ctx context.Context, integrationID id.ID) (*integration.Integration, error) {
	var m integrationModel
	if err := s.getEntity(ctx, entityKey(prefixIntegration, integrationID.String()), &m); err != nil {
		if isNotFound(err) {
			return nil, tandem.ErrIntegrationNotFound
		}
		return nil, fmt.Errorf("tandem/redis: get integration: %w", err)
	}
	return fromIntegrationModel(&m)
}

func (s *Store) UpdateIntegration(ctx context.Context, in *integration.Integration) error {
	key := entityKey(prefixIntegration, in.ID.String())

	// Verify existence.
	var existing integrationModel
	if err := s.getEntity(ctx, key, &existing); err != nil {
		if isNotFound(err) {
			return tandem.ErrIntegrationNotFound
		}
		return fmt.Errorf("tandem/redis: update integration get: %w", err)
	}

	m := toIntegrationModel(in)
	m.UpdatedAt = now()

	if err := s.setEntity(ctx, key, m); err != nil {
		return fmt.Errorf("tandem/redis: update integration: %w", err)
	}
	return nil
}

func (s *Store) DeleteIntegration(ctx context.Context, integrationID id.ID) error {
	key := entityKey(prefixIntegration, integrationID.String())

	var m integrationModel
	if err := s.getEntity(ctx, key, &m); err != nil {
		if isNotFound(err) {
			return tandem.ErrIntegrationNotFound
		}
		return fmt.Errorf("tandem/redis: delete integration get: %w", err)
	}

	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("tandem/redis: delete integration: %w", err)
	}

	if err := s.rdb.ZRem(ctx, zIntegrationAll, m.ID).Err(); err != nil {
		return fmt.Errorf("tandem/redis: delete integration index: %w", err)
	}
	return nil
}

func (s *Store) ListIntegrations(ctx context.Context, opts integration.ListOpts) ([]*integration.Integration, error) {
	ids, err := s.rdb.ZRange(ctx, zIntegrationAll, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("tandem/redis: list integrations: %w", err)
	}

	result := make([]*integration.Integration, 0, len(ids))
	for _, entryID := range ids {
		var m integrationModel
		if err := s.getEntity(ctx, entityKey(prefixIntegration, entryID), &m); err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}
		if opts.Platform != "" && m.Platform != opts.Platform {
			continue
		}
		if opts.Status != "" && m.Status != string(opts.Status) {
			continue
		}
		in, err := fromIntegrationModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, in)
	}

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

// credentialModel is the JSON representation stored in Redis.
type credentialModel struct {
	Token     string            `json:"token"`
	Secondary string            `json:"secondary,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

func (s *Store) PutCredential(ctx context.Context, integrationID id.ID, cred integration.Credential) error {
	m := credentialModel{
		Token:     cred.Token,
		Secondary: cred.Secondary,
		Extra:     cred.Extra,
	}
	if err := s.setEntity(ctx, entityKey(prefixCredential, integrationID.String()), &m); err != nil {
		return fmt.Errorf("tandem/redis: put credential: %w", err)
	}
	return nil
}

func (s *Store) GetCredential(ctx context.Context, integrationID id.ID) (integration.Credential, error) {
	var m credentialModel
	if err := s.getEntity(ctx, entityKey(prefixCredential, integrationID.String()), &m); err != nil {
		if isNotFound(err) {
			return integration.Credential{}, integration.ErrCredentialNotFound
		}
		return integration.Credential{}, fmt.Errorf("tandem/redis: get credential: %w", err)
	}
	return integration.Credential{
		Token:     m.Token,
		Secondary: m.Secondary,
		Extra:     m.Extra,
	}, nil
}

func (s *Store) DeleteCredential(ctx context.Context, integrationID id.ID) error {
	if err := s.kv.Delete(ctx, entityKey(prefixCredential, integrationID.String())); err != nil {
		if isNotFound(err) {
			return integration.ErrCredentialNotFound
		}
		return fmt.Errorf("tandem/redis: delete credential: %w", err)
	}
	return nil
}
