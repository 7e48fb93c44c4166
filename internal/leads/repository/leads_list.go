package repository

import (
	"context"
	"fmt"
	"strings"

	"crmcore_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// ConversionFilter narrows a lead list by lifecycle outcome.
type ConversionFilter string

const (
	ConversionAny          ConversionFilter = ""
	ConversionConverted    ConversionFilter = "converted"
	ConversionDisqualified ConversionFilter = "disqualified"
	ConversionOpen         ConversionFilter = "open"
)

type ListParams struct {
	OrganizationID uuid.UUID
	Search         string
	StageID        *uuid.UUID
	PriorityID     *uuid.UUID
	Source         *string
	OwnerID        *uuid.UUID
	Tag            *string
	Company        *string
	ScoreMin       *int
	ScoreMax       *int
	Conversion     ConversionFilter
	Offset         int
	Limit          int
	SortBy         string
	SortOrder      string
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Lead, int, error) {
	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads l WHERE %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortColumn := mapLeadSortColumn(params.SortBy)
	sortOrder := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	args = append(args, params.Limit, params.Offset)

	query := fmt.Sprintf(`
		SELECT `+leadColumns+`
		FROM leads l
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, sortColumn, sortOrder, argIdx, argIdx+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

func buildLeadListWhere(params ListParams) (string, []interface{}, int) {
	// Organization ID is always the first filter (mandatory for tenant isolation)
	whereClauses := []string{"l.organization_id = $1", "l.deleted_at IS NULL"}
	args := []interface{}{params.OrganizationID}
	argIdx := 2

	addEquals := func(column string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(l.first_name ILIKE $%d OR l.last_name ILIKE $%d OR l.company ILIKE $%d OR l.email ILIKE $%d OR l.phone ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx, argIdx,
		))
		args = append(args, pattern)
		argIdx++
	}
	if params.StageID != nil {
		addEquals("l.stage_id", *params.StageID)
	}
	if params.PriorityID != nil {
		addEquals("l.priority_id", *params.PriorityID)
	}
	if params.Source != nil {
		addEquals("l.source", *params.Source)
	}
	if params.OwnerID != nil {
		addEquals("l.owner_id", *params.OwnerID)
	}
	if params.Tag != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("$%d = ANY(l.tags)", argIdx))
		args = append(args, *params.Tag)
		argIdx++
	}
	if params.Company != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("l.company ILIKE $%d", argIdx))
		args = append(args, "%"+*params.Company+"%")
		argIdx++
	}
	if params.ScoreMin != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("l.score >= $%d", argIdx))
		args = append(args, *params.ScoreMin)
		argIdx++
	}
	if params.ScoreMax != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("l.score <= $%d", argIdx))
		args = append(args, *params.ScoreMax)
		argIdx++
	}

	switch params.Conversion {
	case ConversionConverted:
		whereClauses = append(whereClauses, "l.converted_at IS NOT NULL")
	case ConversionDisqualified:
		whereClauses = append(whereClauses, "l.disqualified_at IS NOT NULL")
	case ConversionOpen:
		whereClauses = append(whereClauses, "l.converted_at IS NULL AND l.disqualified_at IS NULL")
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

func mapLeadSortColumn(sortBy string) string {
	switch sortBy {
	case "firstName":
		return "l.first_name"
	case "lastName":
		return "l.last_name"
	case "company":
		return "l.company"
	case "email":
		return "l.email"
	case "score":
		return "l.score"
	case "stageEnteredAt":
		return "l.stage_entered_at"
	case "updatedAt":
		return "l.updated_at"
	case "createdAt":
		return "l.created_at"
	default:
		return "l.created_at"
	}
}

// StageGroup is one bucket of the grouped-by-stage board view.
type StageGroup struct {
	StageID *uuid.UUID
	Count   int
	Leads   []domain.Lead
}

// ListGroupedByStage returns per-stage counts plus a capped preview of leads
// per stage. Leads with a null stage land in the nil-stage group.
func (r *Repository) ListGroupedByStage(ctx context.Context, organizationID uuid.UUID, perStageLimit int) ([]StageGroup, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+`
		FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY stage_id ORDER BY created_at DESC
			) AS stage_rank
			FROM leads
			WHERE organization_id = $1 AND deleted_at IS NULL
		) l
		WHERE l.stage_rank <= $2
		ORDER BY l.stage_id NULLS FIRST, l.created_at DESC
	`, organizationID, perStageLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groupIndex := map[string]int{}
	groups := make([]StageGroup, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		key := ""
		if lead.StageID != nil {
			key = lead.StageID.String()
		}
		idx, ok := groupIndex[key]
		if !ok {
			idx = len(groups)
			groupIndex[key] = idx
			groups = append(groups, StageGroup{StageID: lead.StageID})
		}
		groups[idx].Leads = append(groups[idx].Leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	// Counts are computed over the full partition, not the capped preview.
	countRows, err := r.db.Query(ctx, `
		SELECT stage_id, COUNT(*)
		FROM leads
		WHERE organization_id = $1 AND deleted_at IS NULL
		GROUP BY stage_id
	`, organizationID)
	if err != nil {
		return nil, err
	}
	defer countRows.Close()

	for countRows.Next() {
		var stageID *uuid.UUID
		var count int
		if err := countRows.Scan(&stageID, &count); err != nil {
			return nil, err
		}
		key := ""
		if stageID != nil {
			key = stageID.String()
		}
		if idx, ok := groupIndex[key]; ok {
			groups[idx].Count = count
		} else {
			groups = append(groups, StageGroup{StageID: stageID, Count: count})
		}
	}
	return groups, countRows.Err()
}
