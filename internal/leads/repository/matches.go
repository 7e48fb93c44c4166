package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MatchRecord identifies an existing record hit by a duplicate check.
type MatchRecord struct {
	ID   uuid.UUID
	Name string
}

// Candidate is one non-blocking duplicate suggestion for UI hinting.
type Candidate struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Phone     *string
	MatchType string
}

// FindActiveLeadByEmail matches case-insensitively against active leads,
// optionally excluding one lead (the record being updated).
func (r *Repository) FindActiveLeadByEmail(ctx context.Context, organizationID uuid.UUID, email string, excludeID *uuid.UUID) (MatchRecord, error) {
	var match MatchRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, trim(first_name || ' ' || last_name)
		FROM leads
		WHERE organization_id = $1 AND deleted_at IS NULL
		  AND lower(trim(email)) = lower(trim($2))
		  AND ($3::uuid IS NULL OR id != $3)
		ORDER BY created_at DESC
		LIMIT 1
	`, organizationID, email, excludeID).Scan(&match.ID, &match.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return MatchRecord{}, ErrNotFound
	}
	return match, err
}

// FindActiveLeadByPhone matches on the exact stored phone string.
func (r *Repository) FindActiveLeadByPhone(ctx context.Context, organizationID uuid.UUID, phone string, excludeID *uuid.UUID) (MatchRecord, error) {
	var match MatchRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, trim(first_name || ' ' || last_name)
		FROM leads
		WHERE organization_id = $1 AND deleted_at IS NULL
		  AND phone = $2
		  AND ($3::uuid IS NULL OR id != $3)
		ORDER BY created_at DESC
		LIMIT 1
	`, organizationID, phone, excludeID).Scan(&match.ID, &match.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return MatchRecord{}, ErrNotFound
	}
	return match, err
}

func (r *Repository) FindContactByEmail(ctx context.Context, organizationID uuid.UUID, email string) (MatchRecord, error) {
	var match MatchRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, trim(first_name || ' ' || last_name)
		FROM contacts
		WHERE organization_id = $1 AND deleted_at IS NULL
		  AND lower(trim(email)) = lower(trim($2))
		ORDER BY created_at DESC
		LIMIT 1
	`, organizationID, email).Scan(&match.ID, &match.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return MatchRecord{}, ErrContactNotFound
	}
	return match, err
}

func (r *Repository) FindContactByPhone(ctx context.Context, organizationID uuid.UUID, phone string) (MatchRecord, error) {
	var match MatchRecord
	err := r.db.QueryRow(ctx, `
		SELECT id, trim(first_name || ' ' || last_name)
		FROM contacts
		WHERE organization_id = $1 AND deleted_at IS NULL
		  AND phone = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, organizationID, phone).Scan(&match.ID, &match.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return MatchRecord{}, ErrContactNotFound
	}
	return match, err
}

// ListLeadCandidates returns up to limit active leads matching the email or
// phone, tagged with how they matched. Used for UI hinting, not enforcement.
func (r *Repository) ListLeadCandidates(ctx context.Context, organizationID uuid.UUID, email, phone string, excludeID *uuid.UUID, limit int) ([]Candidate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, trim(first_name || ' ' || last_name), email, phone,
			CASE WHEN $2 != '' AND lower(trim(email)) = lower(trim($2)) THEN 'email' ELSE 'phone' END
		FROM leads
		WHERE organization_id = $1 AND deleted_at IS NULL
		  AND (($2 != '' AND lower(trim(email)) = lower(trim($2))) OR ($3 != '' AND phone = $3))
		  AND ($4::uuid IS NULL OR id != $4)
		ORDER BY created_at DESC
		LIMIT $5
	`, organizationID, email, phone, excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func (r *Repository) ListContactCandidates(ctx context.Context, organizationID uuid.UUID, email, phone string, limit int) ([]Candidate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, trim(first_name || ' ' || last_name), email, phone,
			CASE WHEN $2 != '' AND lower(trim(email)) = lower(trim($2)) THEN 'email' ELSE 'phone' END
		FROM contacts
		WHERE organization_id = $1 AND deleted_at IS NULL
		  AND (($2 != '' AND lower(trim(email)) = lower(trim($2))) OR ($3 != '' AND phone = $3))
		ORDER BY created_at DESC
		LIMIT $4
	`, organizationID, email, phone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows)
}

// ListAccountCandidatesByDomain heuristically matches an email domain against
// account names and websites ("acme.com" hits "Acme Inc" via its website).
func (r *Repository) ListAccountCandidatesByDomain(ctx context.Context, organizationID uuid.UUID, emailDomain string, limit int) ([]Candidate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, email, phone, 'domain'
		FROM accounts
		WHERE organization_id = $1 AND deleted_at IS NULL
		  AND $2 != ''
		  AND (website ILIKE '%' || $2 || '%' OR lower(name) = lower(split_part($2, '.', 1)))
		ORDER BY created_at DESC
		LIMIT $3
	`, organizationID, emailDomain, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidates(rows)
}

func scanCandidates(rows pgx.Rows) ([]Candidate, error) {
	items := make([]Candidate, 0)
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.MatchType); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
