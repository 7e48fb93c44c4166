package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"crmcore_backend/internal/leads/domain"
)

const accountColumns = `id, organization_id, name, website, email, phone, industry, address, owner_id, created_by, created_at, updated_at`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.OrganizationID, &a.Name, &a.Website, &a.Email, &a.Phone,
		&a.Industry, &a.Address, &a.OwnerID, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *Repository) CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	return scanAccount(r.db.QueryRow(ctx, `
		INSERT INTO accounts (id, organization_id, name, website, email, phone, industry, address, owner_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+accountColumns+`
	`, a.ID, a.OrganizationID, a.Name, a.Website, a.Email, a.Phone, a.Industry, a.Address, a.OwnerID, a.CreatedBy))
}

func (r *Repository) GetAccount(ctx context.Context, organizationID, accountID uuid.UUID) (domain.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE organization_id = $1 AND id = $2 AND deleted_at IS NULL
	`, organizationID, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, ErrAccountNotFound
	}
	return account, err
}

// HasPrimaryContact reports whether the account already has a primary contact
// association.
func (r *Repository) HasPrimaryContact(ctx context.Context, organizationID, accountID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM account_contacts ac
			JOIN accounts a ON a.id = ac.account_id
			WHERE a.organization_id = $1 AND ac.account_id = $2 AND ac.is_primary = true
		)
	`, organizationID, accountID).Scan(&exists)
	return exists, err
}

// LinkContact associates a contact with an account. Re-linking an existing
// pair is a no-op except for the primary flag.
func (r *Repository) LinkContact(ctx context.Context, organizationID, accountID, contactID uuid.UUID, isPrimary bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO account_contacts (account_id, contact_id, is_primary)
		SELECT $2, $3, $4
		WHERE EXISTS (
			SELECT 1 FROM accounts WHERE organization_id = $1 AND id = $2 AND deleted_at IS NULL
		)
		ON CONFLICT (account_id, contact_id) DO UPDATE SET is_primary = account_contacts.is_primary OR excluded.is_primary
	`, organizationID, accountID, contactID, isPrimary)
	return err
}
