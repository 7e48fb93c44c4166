package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"crmcore_backend/internal/leads/domain"
)

const opportunityColumns = `id, organization_id, name, stage, pipeline, amount, currency, close_date, contact_id, account_id, lead_id, owner_id, created_by, created_at, updated_at`

func scanOpportunity(row pgx.Row) (domain.Opportunity, error) {
	var o domain.Opportunity
	err := row.Scan(&o.ID, &o.OrganizationID, &o.Name, &o.Stage, &o.Pipeline, &o.Amount,
		&o.Currency, &o.CloseDate, &o.ContactID, &o.AccountID, &o.LeadID, &o.OwnerID,
		&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *Repository) CreateOpportunity(ctx context.Context, o domain.Opportunity) (domain.Opportunity, error) {
	return scanOpportunity(r.db.QueryRow(ctx, `
		INSERT INTO opportunities (id, organization_id, name, stage, pipeline, amount, currency, close_date, contact_id, account_id, lead_id, owner_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+opportunityColumns+`
	`, o.ID, o.OrganizationID, o.Name, o.Stage, o.Pipeline, o.Amount, o.Currency,
		o.CloseDate, o.ContactID, o.AccountID, o.LeadID, o.OwnerID, o.CreatedBy))
}
