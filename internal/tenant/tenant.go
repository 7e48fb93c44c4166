// Package tenant validates that the tenant id carried by a JWT refers to a
// real, active organization before any repository call runs on its behalf.
package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"crmcore_backend/platform/apperr"
	"crmcore_backend/platform/logger"
)

const cacheTTL = 10 * time.Minute

// Directory answers whether a tenant id is on the allow-list.
type Directory interface {
	Validate(ctx context.Context, tenantID uuid.UUID) error
}

// OrganizationStore looks tenants up in postgres.
type OrganizationStore interface {
	OrganizationExists(ctx context.Context, tenantID uuid.UUID) (bool, error)
}

// PgOrganizationStore reads the organizations table.
type PgOrganizationStore struct {
	pool *pgxpool.Pool
}

func NewPgOrganizationStore(pool *pgxpool.Pool) *PgOrganizationStore {
	return &PgOrganizationStore{pool: pool}
}

func (s *PgOrganizationStore) OrganizationExists(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `
		SELECT 1 FROM organizations WHERE id = $1 AND deleted_at IS NULL
	`, tenantID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CachedDirectory fronts the store with redis. Only positive results are
// cached so a newly provisioned tenant is never locked out for the TTL.
type CachedDirectory struct {
	store OrganizationStore
	cache *redis.Client
	log   *logger.Logger
}

func NewCachedDirectory(store OrganizationStore, cache *redis.Client, log *logger.Logger) *CachedDirectory {
	return &CachedDirectory{store: store, cache: cache, log: log}
}

func cacheKey(tenantID uuid.UUID) string { return "tenant:allow:" + tenantID.String() }

func (d *CachedDirectory) Validate(ctx context.Context, tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return apperr.Unauthorized("missing tenant")
	}

	if d.cache != nil {
		if err := d.cache.Get(ctx, cacheKey(tenantID)).Err(); err == nil {
			return nil
		} else if err != redis.Nil {
			d.log.CollaboratorError("redis", "tenant_lookup", err)
		}
	}

	exists, err := d.store.OrganizationExists(ctx, tenantID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.Unauthorized("unknown tenant")
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, cacheKey(tenantID), "1", cacheTTL).Err(); err != nil {
			d.log.CollaboratorError("redis", "tenant_cache", err)
		}
	}
	return nil
}

var _ Directory = (*CachedDirectory)(nil)
