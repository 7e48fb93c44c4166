package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"crmcore_backend/internal/leads/domain"
)

const contactColumns = `id, organization_id, first_name, last_name, email, phone, job_title, address, social_profiles, source, tags, custom_fields, do_not_contact, do_not_email, do_not_call, owner_id, lead_id, created_by, created_at, updated_at`

func scanContact(row pgx.Row) (domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(&c.ID, &c.OrganizationID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.JobTitle, &c.Address, &c.SocialProfiles, &c.Source, &c.Tags, &c.CustomFields,
		&c.DoNotContact, &c.DoNotEmail, &c.DoNotCall, &c.OwnerID, &c.LeadID,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *Repository) CreateContact(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.CustomFields == nil {
		c.CustomFields = domain.FieldMap{}
	}
	created, err := scanContact(r.db.QueryRow(ctx, `
		INSERT INTO contacts (id, organization_id, first_name, last_name, email, phone, job_title, address, social_profiles, source, tags, custom_fields, do_not_contact, do_not_email, do_not_call, owner_id, lead_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+contactColumns+`
	`, c.ID, c.OrganizationID, c.FirstName, c.LastName, c.Email, c.Phone, c.JobTitle,
		c.Address, c.SocialProfiles, c.Source, c.Tags, c.CustomFields,
		c.DoNotContact, c.DoNotEmail, c.DoNotCall, c.OwnerID, c.LeadID, c.CreatedBy))
	return created, err
}

func (r *Repository) GetContact(ctx context.Context, organizationID, contactID uuid.UUID) (domain.Contact, error) {
	contact, err := scanContact(r.db.QueryRow(ctx, `
		SELECT `+contactColumns+` FROM contacts
		WHERE organization_id = $1 AND id = $2 AND deleted_at IS NULL
	`, organizationID, contactID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Contact{}, ErrContactNotFound
	}
	return contact, err
}

// MergeContactParams fills only blank columns on an existing contact during a
// merge_existing conversion; existing values win.
type MergeContactParams struct {
	Email    *string
	Phone    *string
	JobTitle *string
	LeadID   *uuid.UUID
}

func (r *Repository) MergeContactFields(ctx context.Context, organizationID, contactID uuid.UUID, params MergeContactParams) error {
	sets := []string{}
	args := []any{organizationID, contactID}
	argIdx := 3

	if params.Email != nil {
		sets = append(sets, fmt.Sprintf("email = coalesce(email, $%d)", argIdx))
		args = append(args, *params.Email)
		argIdx++
	}
	if params.Phone != nil {
		sets = append(sets, fmt.Sprintf("phone = coalesce(phone, $%d)", argIdx))
		args = append(args, *params.Phone)
		argIdx++
	}
	if params.JobTitle != nil {
		sets = append(sets, fmt.Sprintf("job_title = coalesce(job_title, $%d)", argIdx))
		args = append(args, *params.JobTitle)
		argIdx++
	}
	if params.LeadID != nil {
		sets = append(sets, fmt.Sprintf("lead_id = coalesce(lead_id, $%d)", argIdx))
		args = append(args, *params.LeadID)
		argIdx++
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	tag, err := r.db.Exec(ctx, `
		UPDATE contacts SET `+strings.Join(sets, ", ")+`
		WHERE organization_id = $1 AND id = $2 AND deleted_at IS NULL
	`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}
