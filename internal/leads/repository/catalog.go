package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"crmcore_backend/internal/leads/domain"
)

const stageColumns = `id, organization_id, name, slug, color, sort_order, is_won, is_lost, is_active, required_fields, lock_previous_fields`

func scanStage(row pgx.Row) (domain.Stage, error) {
	var s domain.Stage
	err := row.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Slug, &s.Color, &s.SortOrder,
		&s.IsWon, &s.IsLost, &s.IsActive, &s.RequiredFields, &s.LockPreviousFields)
	return s, err
}

func (r *Repository) GetStage(ctx context.Context, organizationID, stageID uuid.UUID) (domain.Stage, error) {
	stage, err := scanStage(r.db.QueryRow(ctx, `
		SELECT `+stageColumns+` FROM lead_stages
		WHERE organization_id = $1 AND id = $2
	`, organizationID, stageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Stage{}, ErrStageNotFound
	}
	return stage, err
}

// ListStages returns the pipeline in sort order. Inactive stages are included
// so history entries can still be resolved to names.
func (r *Repository) ListStages(ctx context.Context, organizationID uuid.UUID) ([]domain.Stage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+stageColumns+` FROM lead_stages
		WHERE organization_id = $1
		ORDER BY sort_order ASC, name ASC
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := make([]domain.Stage, 0)
	for rows.Next() {
		stage, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

func (r *Repository) CreateStage(ctx context.Context, s domain.Stage) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO lead_stages (id, organization_id, name, slug, color, sort_order, is_won, is_lost, is_active, required_fields, lock_previous_fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, s.ID, s.OrganizationID, s.Name, s.Slug, s.Color, s.SortOrder, s.IsWon, s.IsLost, s.IsActive, s.RequiredFields, s.LockPreviousFields)
	return err
}

func (r *Repository) CountStages(ctx context.Context, organizationID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM lead_stages WHERE organization_id = $1
	`, organizationID).Scan(&count)
	return count, err
}

func (r *Repository) GetPriority(ctx context.Context, organizationID, priorityID uuid.UUID) (domain.Priority, error) {
	var p domain.Priority
	err := r.db.QueryRow(ctx, `
		SELECT id, organization_id, name, score_min, score_max, sort_order, is_default, is_active
		FROM lead_priorities
		WHERE organization_id = $1 AND id = $2
	`, organizationID, priorityID).Scan(&p.ID, &p.OrganizationID, &p.Name, &p.ScoreMin, &p.ScoreMax, &p.SortOrder, &p.IsDefault, &p.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Priority{}, ErrNotFound
	}
	return p, err
}

// ListActivePriorities returns active buckets in sort order; the resolver
// picks the first whose range contains the score.
func (r *Repository) ListActivePriorities(ctx context.Context, organizationID uuid.UUID) ([]domain.Priority, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, name, score_min, score_max, sort_order, is_default, is_active
		FROM lead_priorities
		WHERE organization_id = $1 AND is_active = true
		ORDER BY sort_order ASC
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	priorities := make([]domain.Priority, 0)
	for rows.Next() {
		var p domain.Priority
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.ScoreMin, &p.ScoreMax, &p.SortOrder, &p.IsDefault, &p.IsActive); err != nil {
			return nil, err
		}
		priorities = append(priorities, p)
	}
	return priorities, rows.Err()
}

func (r *Repository) CreatePriority(ctx context.Context, p domain.Priority) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO lead_priorities (id, organization_id, name, score_min, score_max, sort_order, is_default, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.OrganizationID, p.Name, p.ScoreMin, p.ScoreMax, p.SortOrder, p.IsDefault, p.IsActive)
	return err
}

func (r *Repository) GetFramework(ctx context.Context, organizationID, frameworkID uuid.UUID) (domain.QualificationFramework, error) {
	var f domain.QualificationFramework
	err := r.db.QueryRow(ctx, `
		SELECT id, organization_id, name, slug, fields, is_active
		FROM qualification_frameworks
		WHERE organization_id = $1 AND id = $2
	`, organizationID, frameworkID).Scan(&f.ID, &f.OrganizationID, &f.Name, &f.Slug, &f.Fields, &f.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QualificationFramework{}, ErrFrameworkNotFound
	}
	return f, err
}

func (r *Repository) ListActiveFrameworks(ctx context.Context, organizationID uuid.UUID) ([]domain.QualificationFramework, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, name, slug, fields, is_active
		FROM qualification_frameworks
		WHERE organization_id = $1 AND is_active = true
		ORDER BY name ASC
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	frameworks := make([]domain.QualificationFramework, 0)
	for rows.Next() {
		var f domain.QualificationFramework
		if err := rows.Scan(&f.ID, &f.OrganizationID, &f.Name, &f.Slug, &f.Fields, &f.IsActive); err != nil {
			return nil, err
		}
		frameworks = append(frameworks, f)
	}
	return frameworks, rows.Err()
}

func (r *Repository) CreateFramework(ctx context.Context, f domain.QualificationFramework) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO qualification_frameworks (id, organization_id, name, slug, fields, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, f.ID, f.OrganizationID, f.Name, f.Slug, f.Fields, f.IsActive)
	return err
}

func (r *Repository) GetDisqualificationReason(ctx context.Context, organizationID, reasonID uuid.UUID) (domain.DisqualificationReason, error) {
	var reason domain.DisqualificationReason
	err := r.db.QueryRow(ctx, `
		SELECT id, organization_id, name, is_active
		FROM disqualification_reasons
		WHERE organization_id = $1 AND id = $2
	`, organizationID, reasonID).Scan(&reason.ID, &reason.OrganizationID, &reason.Name, &reason.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DisqualificationReason{}, ErrReasonNotFound
	}
	return reason, err
}

func (r *Repository) ListDisqualificationReasons(ctx context.Context, organizationID uuid.UUID) ([]domain.DisqualificationReason, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, name, is_active
		FROM disqualification_reasons
		WHERE organization_id = $1 AND is_active = true
		ORDER BY name ASC
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reasons := make([]domain.DisqualificationReason, 0)
	for rows.Next() {
		var reason domain.DisqualificationReason
		if err := rows.Scan(&reason.ID, &reason.OrganizationID, &reason.Name, &reason.IsActive); err != nil {
			return nil, err
		}
		reasons = append(reasons, reason)
	}
	return reasons, rows.Err()
}

func (r *Repository) CreateDisqualificationReason(ctx context.Context, reason domain.DisqualificationReason) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO disqualification_reasons (id, organization_id, name, is_active)
		VALUES ($1, $2, $3, $4)
	`, reason.ID, reason.OrganizationID, reason.Name, reason.IsActive)
	return err
}
