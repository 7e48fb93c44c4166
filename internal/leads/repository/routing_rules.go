package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"crmcore_backend/internal/leads/domain"
)

// ListActiveRoutingRules returns active rules in descending priority, the
// order the evaluator walks them.
func (r *Repository) ListActiveRoutingRules(ctx context.Context, organizationID uuid.UUID) ([]domain.RoutingRule, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, name, priority, is_active, conditions,
			assignment_type, assigned_user_ids, assigned_team_id, round_robin_index
		FROM lead_routing_rules
		WHERE organization_id = $1 AND is_active = true
		ORDER BY priority DESC, created_at ASC
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]domain.RoutingRule, 0)
	for rows.Next() {
		var rule domain.RoutingRule
		if err := rows.Scan(&rule.ID, &rule.OrganizationID, &rule.Name, &rule.Priority, &rule.IsActive,
			&rule.Conditions, &rule.AssignmentType, &rule.AssignedUserIDs, &rule.AssignedTeamID, &rule.RoundRobinIndex); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ClaimRoundRobinIndex atomically increments a rule's cursor and returns the
// pre-increment value. Concurrent callers each observe a distinct index.
func (r *Repository) ClaimRoundRobinIndex(ctx context.Context, organizationID, ruleID uuid.UUID) (int, error) {
	var index int
	err := r.db.QueryRow(ctx, `
		UPDATE lead_routing_rules
		SET round_robin_index = round_robin_index + 1, updated_at = now()
		WHERE organization_id = $1 AND id = $2
		RETURNING round_robin_index - 1
	`, organizationID, ruleID).Scan(&index)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrRuleNotFound
	}
	return index, err
}

// ListTeamMemberIDs returns active member user ids for a team in a stable
// order so the round-robin cursor maps to a deterministic user.
func (r *Repository) ListTeamMemberIDs(ctx context.Context, organizationID, teamID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT tm.user_id
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE t.organization_id = $1 AND tm.team_id = $2
		ORDER BY tm.created_at ASC, tm.user_id ASC
	`, organizationID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
