package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"crmcore_backend/internal/leads/domain"
)

// GetSettings loads the tenant's engine configuration. Tenants with no
// settings row get the documented defaults.
func (r *Repository) GetSettings(ctx context.Context, organizationID uuid.UUID) (domain.Settings, error) {
	settings := domain.Settings{OrganizationID: organizationID}
	err := r.db.QueryRow(ctx, `
		SELECT duplicates, stages, scoring, conversion, ownership
		FROM organization_settings
		WHERE organization_id = $1
	`, organizationID).Scan(&settings.Duplicates, &settings.Stages, &settings.Scoring, &settings.Conversion, &settings.Ownership)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DefaultSettings(organizationID), nil
	}
	if err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

// UpsertSettings writes the full configuration, one jsonb column per section.
func (r *Repository) UpsertSettings(ctx context.Context, settings domain.Settings) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO organization_settings (organization_id, duplicates, stages, scoring, conversion, ownership)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (organization_id) DO UPDATE SET
			duplicates = excluded.duplicates,
			stages = excluded.stages,
			scoring = excluded.scoring,
			conversion = excluded.conversion,
			ownership = excluded.ownership,
			updated_at = now()
	`, settings.OrganizationID, settings.Duplicates, settings.Stages, settings.Scoring, settings.Conversion, settings.Ownership)
	return err
}
