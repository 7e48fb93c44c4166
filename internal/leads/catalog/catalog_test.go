package catalog

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/platform/logger"
)

type fakeCatalogStore struct {
	stages     []domain.Stage
	priorities []domain.Priority
	frameworks []domain.QualificationFramework
	reasons    []domain.DisqualificationReason
	settings   map[uuid.UUID]domain.Settings

	stageListCalls int
}

func (f *fakeCatalogStore) ListStages(_ context.Context, _ uuid.UUID) ([]domain.Stage, error) {
	f.stageListCalls++
	return f.stages, nil
}

func (f *fakeCatalogStore) ListActivePriorities(_ context.Context, _ uuid.UUID) ([]domain.Priority, error) {
	return f.priorities, nil
}

func (f *fakeCatalogStore) ListActiveFrameworks(_ context.Context, _ uuid.UUID) ([]domain.QualificationFramework, error) {
	return f.frameworks, nil
}

func (f *fakeCatalogStore) ListDisqualificationReasons(_ context.Context, _ uuid.UUID) ([]domain.DisqualificationReason, error) {
	return f.reasons, nil
}

func (f *fakeCatalogStore) GetSettings(_ context.Context, organizationID uuid.UUID) (domain.Settings, error) {
	if s, ok := f.settings[organizationID]; ok {
		return s, nil
	}
	return domain.DefaultSettings(organizationID), nil
}

func (f *fakeCatalogStore) UpsertSettings(_ context.Context, settings domain.Settings) error {
	if f.settings == nil {
		f.settings = map[uuid.UUID]domain.Settings{}
	}
	f.settings[settings.OrganizationID] = settings
	return nil
}

func (f *fakeCatalogStore) CountStages(_ context.Context, _ uuid.UUID) (int, error) {
	return len(f.stages), nil
}

func (f *fakeCatalogStore) CreateStage(_ context.Context, s domain.Stage) error {
	f.stages = append(f.stages, s)
	return nil
}

func (f *fakeCatalogStore) CreatePriority(_ context.Context, p domain.Priority) error {
	f.priorities = append(f.priorities, p)
	return nil
}

func (f *fakeCatalogStore) CreateFramework(_ context.Context, fw domain.QualificationFramework) error {
	f.frameworks = append(f.frameworks, fw)
	return nil
}

func (f *fakeCatalogStore) CreateDisqualificationReason(_ context.Context, r domain.DisqualificationReason) error {
	f.reasons = append(f.reasons, r)
	return nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestStagesCachesSecondRead(t *testing.T) {
	store := &fakeCatalogStore{
		stages: []domain.Stage{{ID: uuid.New(), Name: "New", IsActive: true}},
	}
	svc := NewService(store, testRedis(t), logger.New("test"))
	orgID := uuid.New()

	first, err := svc.Stages(context.Background(), orgID)
	if err != nil {
		t.Fatalf("Stages: %v", err)
	}
	second, err := svc.Stages(context.Background(), orgID)
	if err != nil {
		t.Fatalf("Stages (cached): %v", err)
	}
	if store.stageListCalls != 1 {
		t.Errorf("store hit %d times, want 1 (second read from cache)", store.stageListCalls)
	}
	if len(first) != 1 || len(second) != 1 || second[0].ID != first[0].ID {
		t.Errorf("cached read diverged: %+v vs %+v", first, second)
	}
}

func TestUpdateSettingsInvalidatesCache(t *testing.T) {
	store := &fakeCatalogStore{}
	svc := NewService(store, testRedis(t), logger.New("test"))
	orgID := uuid.New()

	settings, err := svc.Settings(context.Background(), orgID)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	settings.Stages.LockPreviousStages = true
	if err := svc.UpdateSettings(context.Background(), settings); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}

	reread, err := svc.Settings(context.Background(), orgID)
	if err != nil {
		t.Fatalf("Settings after update: %v", err)
	}
	if !reread.Stages.LockPreviousStages {
		t.Error("stale settings served after update")
	}
}

func TestServiceWorksWithoutRedis(t *testing.T) {
	store := &fakeCatalogStore{
		stages: []domain.Stage{{ID: uuid.New(), Name: "New", IsActive: true}},
	}
	svc := NewService(store, nil, logger.New("test"))

	stages, err := svc.Stages(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Stages: %v", err)
	}
	if len(stages) != 1 {
		t.Fatalf("stages = %d, want 1", len(stages))
	}
}

func TestSeedDefaults(t *testing.T) {
	store := &fakeCatalogStore{}
	svc := NewService(store, testRedis(t), logger.New("test"))
	seeder := NewSeeder(store, svc, logger.New("test"))
	orgID := uuid.New()

	if err := seeder.SeedDefaults(context.Background(), orgID); err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}

	if len(store.stages) != 6 {
		t.Errorf("stages = %d, want 6", len(store.stages))
	}
	if len(store.priorities) != 3 {
		t.Errorf("priorities = %d, want 3", len(store.priorities))
	}
	if len(store.frameworks) != 1 || store.frameworks[0].Name != "BANT" {
		t.Errorf("frameworks = %+v, want one BANT", store.frameworks)
	}
	if len(store.frameworks[0].Fields) != 4 {
		t.Errorf("BANT fields = %d, want 4", len(store.frameworks[0].Fields))
	}
	if len(store.reasons) != 7 {
		t.Errorf("reasons = %d, want 7", len(store.reasons))
	}

	settings := store.settings[orgID]
	if settings.Stages.DefaultStageID == nil || settings.Stages.WonStageID == nil || settings.Stages.LostStageID == nil {
		t.Errorf("stage ids not wired into settings: %+v", settings.Stages)
	}
	if settings.Scoring.DefaultFrameworkID == nil {
		t.Error("default framework not wired into settings")
	}

	var proposal *domain.Stage
	for i := range store.stages {
		if store.stages[i].Slug == "proposal" {
			proposal = &store.stages[i]
		}
	}
	if proposal == nil || len(proposal.RequiredFields) != 2 {
		t.Fatalf("proposal stage gate = %+v", proposal)
	}
	if proposal.RequiredFields[0] != "budget||budget_range" {
		t.Errorf("OR-group entry = %q", proposal.RequiredFields[0])
	}
}

func TestSeedDefaultsIdempotent(t *testing.T) {
	store := &fakeCatalogStore{}
	seeder := NewSeeder(store, nil, logger.New("test"))
	orgID := uuid.New()

	if err := seeder.SeedDefaults(context.Background(), orgID); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := seeder.SeedDefaults(context.Background(), orgID); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if len(store.stages) != 6 {
		t.Errorf("stages = %d after reseed, want 6", len(store.stages))
	}
}
