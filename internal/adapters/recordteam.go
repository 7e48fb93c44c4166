package adapters

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crmcore_backend/internal/leads/ownership"
)

// ErrRoleNotFound is returned when no role carries the requested name.
var ErrRoleNotFound = errors.New("role not found")

// RoleDirectory resolves role names against the tenant's roles table.
type RoleDirectory struct {
	pool *pgxpool.Pool
}

func NewRoleDirectory(pool *pgxpool.Pool) *RoleDirectory {
	return &RoleDirectory{pool: pool}
}

func (d *RoleDirectory) FindRoleIDByName(ctx context.Context, organizationID uuid.UUID, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := d.pool.QueryRow(ctx, `
		SELECT id FROM roles
		WHERE organization_id = $1 AND lower(name) = lower($2)
		LIMIT 1
	`, organizationID, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrRoleNotFound
	}
	return id, err
}

// RecordTeam manages record-level collaborator grants.
type RecordTeam struct {
	pool *pgxpool.Pool
}

func NewRecordTeam(pool *pgxpool.Pool) *RecordTeam {
	return &RecordTeam{pool: pool}
}

// AddCollaborator grants access to one record. Re-granting the same user
// refreshes role and access level instead of duplicating the row.
func (t *RecordTeam) AddCollaborator(ctx context.Context, c ownership.Collaborator) error {
	_, err := t.pool.Exec(ctx, `
		INSERT INTO record_team_members (id, organization_id, record_type, record_id, user_id, role_id, access_level, added_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (organization_id, record_type, record_id, user_id) DO UPDATE SET
			role_id = excluded.role_id,
			access_level = excluded.access_level
	`, uuid.New(), c.OrganizationID, c.RecordType, c.RecordID, c.UserID, c.RoleID, c.AccessLevel, c.AddedBy)
	return err
}

// ListCollaborators returns the user ids granted access to a record.
func (t *RecordTeam) ListCollaborators(ctx context.Context, organizationID uuid.UUID, recordType string, recordID uuid.UUID) ([]ownership.Collaborator, error) {
	rows, err := t.pool.Query(ctx, `
		SELECT organization_id, record_type, record_id, user_id, role_id, access_level, added_by
		FROM record_team_members
		WHERE organization_id = $1 AND record_type = $2 AND record_id = $3
		ORDER BY created_at ASC
	`, organizationID, recordType, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]ownership.Collaborator, 0)
	for rows.Next() {
		var c ownership.Collaborator
		if err := rows.Scan(&c.OrganizationID, &c.RecordType, &c.RecordID, &c.UserID, &c.RoleID, &c.AccessLevel, &c.AddedBy); err != nil {
			return nil, err
		}
		members = append(members, c)
	}
	return members, rows.Err()
}
