package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"crmcore_backend/platform/apperr"
	"crmcore_backend/platform/logger"
)

type fakeOrgStore struct {
	known map[uuid.UUID]bool
	calls int
}

func (f *fakeOrgStore) OrganizationExists(_ context.Context, tenantID uuid.UUID) (bool, error) {
	f.calls++
	return f.known[tenantID], nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestValidateKnownTenantCached(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeOrgStore{known: map[uuid.UUID]bool{tenantID: true}}
	dir := NewCachedDirectory(store, testRedis(t), logger.New("test"))

	if err := dir.Validate(context.Background(), tenantID); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := dir.Validate(context.Background(), tenantID); err != nil {
		t.Fatalf("Validate (cached): %v", err)
	}
	if store.calls != 1 {
		t.Errorf("store hit %d times, want 1", store.calls)
	}
}

func TestValidateUnknownTenant(t *testing.T) {
	store := &fakeOrgStore{}
	dir := NewCachedDirectory(store, testRedis(t), logger.New("test"))

	err := dir.Validate(context.Background(), uuid.New())
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindUnauthorized {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestValidateNegativeResultNotCached(t *testing.T) {
	tenantID := uuid.New()
	store := &fakeOrgStore{known: map[uuid.UUID]bool{}}
	dir := NewCachedDirectory(store, testRedis(t), logger.New("test"))

	if err := dir.Validate(context.Background(), tenantID); err == nil {
		t.Fatal("expected rejection for unknown tenant")
	}

	// Provision the tenant; the next request must see it immediately.
	store.known[tenantID] = true
	if err := dir.Validate(context.Background(), tenantID); err != nil {
		t.Fatalf("freshly provisioned tenant rejected: %v", err)
	}
}

func TestValidateNilTenant(t *testing.T) {
	dir := NewCachedDirectory(&fakeOrgStore{}, nil, logger.New("test"))
	err := dir.Validate(context.Background(), uuid.Nil)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindUnauthorized {
		t.Fatalf("err = %v, want Unauthorized for nil tenant", err)
	}
}
