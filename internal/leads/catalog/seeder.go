package catalog

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"crmcore_backend/internal/events"
	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/platform/logger"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type seedCatalog struct {
	Stages []struct {
		Name           string   `yaml:"name"`
		Slug           string   `yaml:"slug"`
		Color          string   `yaml:"color"`
		IsWon          bool     `yaml:"isWon"`
		IsLost         bool     `yaml:"isLost"`
		RequiredFields []string `yaml:"requiredFields"`
	} `yaml:"stages"`
	Priorities []struct {
		Name      string `yaml:"name"`
		ScoreMin  int    `yaml:"scoreMin"`
		ScoreMax  int    `yaml:"scoreMax"`
		IsDefault bool   `yaml:"isDefault"`
	} `yaml:"priorities"`
	Frameworks []struct {
		Name   string               `yaml:"name"`
		Slug   string               `yaml:"slug"`
		Fields []seedFrameworkField `yaml:"fields"`
	} `yaml:"frameworks"`
	DisqualificationReasons []string `yaml:"disqualificationReasons"`
}

type seedFrameworkField struct {
	Key         string   `yaml:"key"`
	Label       string   `yaml:"label"`
	Type        string   `yaml:"type"`
	Options     []string `yaml:"options"`
	ScoreWeight int      `yaml:"scoreWeight"`
	Required    bool     `yaml:"required"`
}

// SeedStore is the repository slice the seeder needs.
type SeedStore interface {
	CountStages(ctx context.Context, organizationID uuid.UUID) (int, error)
	CreateStage(ctx context.Context, s domain.Stage) error
	CreatePriority(ctx context.Context, p domain.Priority) error
	CreateFramework(ctx context.Context, f domain.QualificationFramework) error
	CreateDisqualificationReason(ctx context.Context, r domain.DisqualificationReason) error
	UpsertSettings(ctx context.Context, settings domain.Settings) error
}

// Seeder provisions the default catalog for new tenants.
type Seeder struct {
	store   SeedStore
	catalog *Service
	log     *logger.Logger
}

func NewSeeder(store SeedStore, catalog *Service, log *logger.Logger) *Seeder {
	return &Seeder{store: store, catalog: catalog, log: log}
}

// Subscribe wires the seeder to organization creation events.
func (s *Seeder) Subscribe(bus events.Bus) {
	bus.Subscribe(events.OrganizationCreated{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		created, ok := event.(events.OrganizationCreated)
		if !ok {
			return nil
		}
		return s.SeedDefaults(ctx, created.OrganizationID)
	}))
}

// SeedDefaults creates the embedded default pipeline, priorities, BANT
// framework, and disqualification reasons for a tenant. A tenant that already
// has stages is left untouched.
func (s *Seeder) SeedDefaults(ctx context.Context, organizationID uuid.UUID) error {
	count, err := s.store.CountStages(ctx, organizationID)
	if err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}
	if count > 0 {
		return nil
	}

	var seed seedCatalog
	if err := yaml.Unmarshal(defaultsYAML, &seed); err != nil {
		return fmt.Errorf("seed defaults: parse catalog: %w", err)
	}

	settings := domain.DefaultSettings(organizationID)

	for i, stage := range seed.Stages {
		created := domain.Stage{
			ID:             uuid.New(),
			OrganizationID: organizationID,
			Name:           stage.Name,
			Slug:           stage.Slug,
			Color:          stage.Color,
			SortOrder:      i,
			IsWon:          stage.IsWon,
			IsLost:         stage.IsLost,
			IsActive:       true,
			RequiredFields: stage.RequiredFields,
		}
		if err := s.store.CreateStage(ctx, created); err != nil {
			return fmt.Errorf("seed defaults: stage %q: %w", stage.Name, err)
		}
		id := created.ID
		switch {
		case i == 0:
			settings.Stages.DefaultStageID = &id
		case created.IsWon:
			settings.Stages.WonStageID = &id
		case created.IsLost:
			settings.Stages.LostStageID = &id
		}
	}

	for i, priority := range seed.Priorities {
		err := s.store.CreatePriority(ctx, domain.Priority{
			ID:             uuid.New(),
			OrganizationID: organizationID,
			Name:           priority.Name,
			ScoreMin:       priority.ScoreMin,
			ScoreMax:       priority.ScoreMax,
			SortOrder:      i,
			IsDefault:      priority.IsDefault,
			IsActive:       true,
		})
		if err != nil {
			return fmt.Errorf("seed defaults: priority %q: %w", priority.Name, err)
		}
	}

	for _, framework := range seed.Frameworks {
		fields := make([]domain.FrameworkField, 0, len(framework.Fields))
		for _, field := range framework.Fields {
			fields = append(fields, domain.FrameworkField{
				Key:         field.Key,
				Label:       field.Label,
				Type:        domain.FrameworkFieldType(field.Type),
				Options:     field.Options,
				ScoreWeight: field.ScoreWeight,
				Required:    field.Required,
			})
		}
		created := domain.QualificationFramework{
			ID:             uuid.New(),
			OrganizationID: organizationID,
			Name:           framework.Name,
			Slug:           framework.Slug,
			Fields:         fields,
			IsActive:       true,
		}
		if err := s.store.CreateFramework(ctx, created); err != nil {
			return fmt.Errorf("seed defaults: framework %q: %w", framework.Name, err)
		}
		if settings.Scoring.DefaultFrameworkID == nil {
			id := created.ID
			settings.Scoring.DefaultFrameworkID = &id
		}
	}

	for _, name := range seed.DisqualificationReasons {
		err := s.store.CreateDisqualificationReason(ctx, domain.DisqualificationReason{
			ID:             uuid.New(),
			OrganizationID: organizationID,
			Name:           name,
			IsActive:       true,
		})
		if err != nil {
			return fmt.Errorf("seed defaults: reason %q: %w", name, err)
		}
	}

	if err := s.store.UpsertSettings(ctx, settings); err != nil {
		return fmt.Errorf("seed defaults: settings: %w", err)
	}

	if s.catalog != nil {
		s.catalog.Invalidate(ctx, organizationID)
	}
	s.log.Info("seeded default lead catalog", "tenant_id", organizationID.String())
	return nil
}
