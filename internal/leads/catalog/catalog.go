// Package catalog serves the tenant's lead reference data (stages,
// priorities, frameworks, disqualification reasons, engine settings) with a
// redis cache in front of postgres, and seeds defaults for new tenants.
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/platform/logger"
)

const cacheTTL = 5 * time.Minute

// Store is the repository slice the catalog needs.
type Store interface {
	ListStages(ctx context.Context, organizationID uuid.UUID) ([]domain.Stage, error)
	ListActivePriorities(ctx context.Context, organizationID uuid.UUID) ([]domain.Priority, error)
	ListActiveFrameworks(ctx context.Context, organizationID uuid.UUID) ([]domain.QualificationFramework, error)
	ListDisqualificationReasons(ctx context.Context, organizationID uuid.UUID) ([]domain.DisqualificationReason, error)
	GetSettings(ctx context.Context, organizationID uuid.UUID) (domain.Settings, error)
	UpsertSettings(ctx context.Context, settings domain.Settings) error
}

// Service reads through the cache; a cache miss or redis failure falls back
// to postgres.
type Service struct {
	store Store
	cache *redis.Client
	log   *logger.Logger
}

func NewService(store Store, cache *redis.Client, log *logger.Logger) *Service {
	return &Service{store: store, cache: cache, log: log}
}

func stagesKey(orgID uuid.UUID) string   { return "leads:catalog:stages:" + orgID.String() }
func settingsKey(orgID uuid.UUID) string { return "leads:catalog:settings:" + orgID.String() }

// Stages returns the tenant's full stage pipeline (cached).
func (s *Service) Stages(ctx context.Context, organizationID uuid.UUID) ([]domain.Stage, error) {
	var stages []domain.Stage
	if s.cacheGet(ctx, stagesKey(organizationID), &stages) {
		return stages, nil
	}
	stages, err := s.store.ListStages(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, stagesKey(organizationID), stages)
	return stages, nil
}

// ActiveStages filters the cached pipeline down to active stages.
func (s *Service) ActiveStages(ctx context.Context, organizationID uuid.UUID) ([]domain.Stage, error) {
	stages, err := s.Stages(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Stage, 0, len(stages))
	for _, stage := range stages {
		if stage.IsActive {
			active = append(active, stage)
		}
	}
	return active, nil
}

// Settings returns the tenant's engine configuration (cached).
func (s *Service) Settings(ctx context.Context, organizationID uuid.UUID) (domain.Settings, error) {
	var settings domain.Settings
	if s.cacheGet(ctx, settingsKey(organizationID), &settings) {
		return settings, nil
	}
	settings, err := s.store.GetSettings(ctx, organizationID)
	if err != nil {
		return domain.Settings{}, err
	}
	s.cacheSet(ctx, settingsKey(organizationID), settings)
	return settings, nil
}

// UpdateSettings persists the configuration and invalidates the cache.
func (s *Service) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	if err := s.store.UpsertSettings(ctx, settings); err != nil {
		return err
	}
	s.Invalidate(ctx, settings.OrganizationID)
	return nil
}

// Priorities returns the tenant's active priority buckets in sort order.
func (s *Service) Priorities(ctx context.Context, organizationID uuid.UUID) ([]domain.Priority, error) {
	return s.store.ListActivePriorities(ctx, organizationID)
}

// Frameworks returns the tenant's active qualification frameworks.
func (s *Service) Frameworks(ctx context.Context, organizationID uuid.UUID) ([]domain.QualificationFramework, error) {
	return s.store.ListActiveFrameworks(ctx, organizationID)
}

// DisqualificationReasons returns the tenant's active reasons.
func (s *Service) DisqualificationReasons(ctx context.Context, organizationID uuid.UUID) ([]domain.DisqualificationReason, error) {
	return s.store.ListDisqualificationReasons(ctx, organizationID)
}

// Invalidate drops the tenant's cached catalog entries.
func (s *Service) Invalidate(ctx context.Context, organizationID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, stagesKey(organizationID), settingsKey(organizationID)).Err(); err != nil {
		s.log.CollaboratorError("redis", "invalidate", err)
	}
}

func (s *Service) cacheGet(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.CollaboratorError("redis", "get", err)
		}
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, cacheTTL).Err(); err != nil {
		s.log.CollaboratorError("redis", "set", err)
	}
}
