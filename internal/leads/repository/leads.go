package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"crmcore_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const leadColumns = `
	l.id, l.organization_id, l.first_name, l.last_name, l.company, l.job_title,
	l.email, l.phone, l.secondary_emails, l.secondary_phones, l.addresses, l.social_profiles,
	l.source, l.source_details, l.owner_id, l.created_by,
	l.stage_id, l.stage_entered_at, l.stage_history,
	l.priority_id, l.framework_id, l.score, l.score_breakdown,
	l.qualification_data, l.custom_fields,
	l.converted_at, l.converted_by, l.converted_contact_id, l.converted_account_id, l.converted_opportunity_id, l.conversion_notes,
	l.disqualified_at, l.disqualified_by, l.disqualified_reason_id, l.disqualified_notes,
	l.do_not_contact, l.do_not_email, l.do_not_call,
	l.tags, l.created_at, l.updated_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var lead domain.Lead
	err := row.Scan(
		&lead.ID, &lead.OrganizationID, &lead.FirstName, &lead.LastName, &lead.Company, &lead.JobTitle,
		&lead.Email, &lead.Phone, &lead.SecondaryEmails, &lead.SecondaryPhones, &lead.Addresses, &lead.SocialProfiles,
		&lead.Source, &lead.SourceDetails, &lead.OwnerID, &lead.CreatedBy,
		&lead.StageID, &lead.StageEnteredAt, &lead.StageHistory,
		&lead.PriorityID, &lead.FrameworkID, &lead.Score, &lead.ScoreBreakdown,
		&lead.Qualification, &lead.CustomFields,
		&lead.ConvertedAt, &lead.ConvertedBy, &lead.ConvertedContactID, &lead.ConvertedAccountID, &lead.ConvertedOpportunityID, &lead.ConversionNotes,
		&lead.DisqualifiedAt, &lead.DisqualifiedBy, &lead.DisqualifiedReasonID, &lead.DisqualifiedNotes,
		&lead.DoNotContact, &lead.DoNotEmail, &lead.DoNotCall,
		&lead.Tags, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

// CreateLeadParams carries all writable fields for a new lead. The owner is
// resolved by the routing evaluator before this call so assignment is stored
// atomically with creation.
type CreateLeadParams struct {
	OrganizationID  uuid.UUID
	FirstName       string
	LastName        string
	Company         *string
	JobTitle        *string
	Email           *string
	Phone           *string
	SecondaryEmails []string
	SecondaryPhones []string
	Addresses       []domain.Address
	SocialProfiles  []domain.SocialProfile
	Source          *string
	SourceDetails   *string
	OwnerID         *uuid.UUID
	CreatedBy       uuid.UUID
	StageID         *uuid.UUID
	StageHistory    []domain.StageHistoryEntry
	PriorityID      *uuid.UUID
	FrameworkID     *uuid.UUID
	Qualification   domain.FieldMap
	CustomFields    domain.FieldMap
	DoNotContact    bool
	DoNotEmail      bool
	DoNotCall       bool
	Tags            []string
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (domain.Lead, error) {
	if params.Qualification == nil {
		params.Qualification = domain.FieldMap{}
	}
	if params.CustomFields == nil {
		params.CustomFields = domain.FieldMap{}
	}
	if params.StageHistory == nil {
		params.StageHistory = []domain.StageHistoryEntry{}
	}
	if params.Tags == nil {
		params.Tags = []string{}
	}

	var stageEnteredAt *time.Time
	if params.StageID != nil {
		now := time.Now()
		stageEnteredAt = &now
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO leads (
			organization_id, first_name, last_name, company, job_title,
			email, phone, secondary_emails, secondary_phones, addresses, social_profiles,
			source, source_details, owner_id, created_by,
			stage_id, stage_entered_at, stage_history,
			priority_id, framework_id, qualification_data, custom_fields,
			do_not_contact, do_not_email, do_not_call, tags
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		RETURNING `+strings.ReplaceAll(leadColumns, "l.", ""),
		params.OrganizationID, params.FirstName, params.LastName, params.Company, params.JobTitle,
		params.Email, params.Phone, params.SecondaryEmails, params.SecondaryPhones, params.Addresses, params.SocialProfiles,
		params.Source, params.SourceDetails, params.OwnerID, params.CreatedBy,
		params.StageID, stageEnteredAt, params.StageHistory,
		params.PriorityID, params.FrameworkID, params.Qualification, params.CustomFields,
		params.DoNotContact, params.DoNotEmail, params.DoNotCall, params.Tags,
	)

	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id, organizationID uuid.UUID) (domain.Lead, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads l
		WHERE l.id = $1 AND l.organization_id = $2 AND l.deleted_at IS NULL
	`, id, organizationID)
	return scanLead(row)
}

// UpdateLeadParams uses pointer-means-set semantics. The *Set flags
// distinguish "set to null" from "leave unchanged" for nullable columns.
type UpdateLeadParams struct {
	FirstName        *string
	LastName         *string
	Company          *string
	CompanySet       bool
	JobTitle         *string
	JobTitleSet      bool
	Email            *string
	EmailSet         bool
	Phone            *string
	PhoneSet         bool
	SecondaryEmails  []string
	SecondaryPhones  []string
	Addresses        []domain.Address
	SocialProfiles   []domain.SocialProfile
	Source           *string
	SourceSet        bool
	SourceDetails    *string
	SourceDetailsSet bool
	OwnerID          *uuid.UUID
	OwnerIDSet       bool
	PriorityID       *uuid.UUID
	PriorityIDSet    bool
	FrameworkID      *uuid.UUID
	FrameworkIDSet   bool
	Qualification    domain.FieldMap
	CustomFields     domain.FieldMap
	DoNotContact     *bool
	DoNotEmail       *bool
	DoNotCall        *bool
	Tags             []string
}

func (r *Repository) Update(ctx context.Context, id, organizationID uuid.UUID, params UpdateLeadParams) (domain.Lead, error) {
	setClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	add := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.FirstName != nil {
		add("first_name", *params.FirstName)
	}
	if params.LastName != nil {
		add("last_name", *params.LastName)
	}
	if params.CompanySet {
		add("company", params.Company)
	}
	if params.JobTitleSet {
		add("job_title", params.JobTitle)
	}
	if params.EmailSet {
		add("email", params.Email)
	}
	if params.PhoneSet {
		add("phone", params.Phone)
	}
	if params.SecondaryEmails != nil {
		add("secondary_emails", params.SecondaryEmails)
	}
	if params.SecondaryPhones != nil {
		add("secondary_phones", params.SecondaryPhones)
	}
	if params.Addresses != nil {
		add("addresses", params.Addresses)
	}
	if params.SocialProfiles != nil {
		add("social_profiles", params.SocialProfiles)
	}
	if params.SourceSet {
		add("source", params.Source)
	}
	if params.SourceDetailsSet {
		add("source_details", params.SourceDetails)
	}
	if params.OwnerIDSet {
		add("owner_id", params.OwnerID)
	}
	if params.PriorityIDSet {
		add("priority_id", params.PriorityID)
	}
	if params.FrameworkIDSet {
		add("framework_id", params.FrameworkID)
	}
	if params.Qualification != nil {
		add("qualification_data", params.Qualification)
	}
	if params.CustomFields != nil {
		add("custom_fields", params.CustomFields)
	}
	if params.DoNotContact != nil {
		add("do_not_contact", *params.DoNotContact)
	}
	if params.DoNotEmail != nil {
		add("do_not_email", *params.DoNotEmail)
	}
	if params.DoNotCall != nil {
		add("do_not_call", *params.DoNotCall)
	}
	if params.Tags != nil {
		add("tags", params.Tags)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id, organizationID)
	}

	setClauses = append(setClauses, "updated_at = now()")
	args = append(args, id, organizationID)

	query := fmt.Sprintf(`
		UPDATE leads l SET %s
		WHERE l.id = $%d AND l.organization_id = $%d AND l.deleted_at IS NULL
		RETURNING `+leadColumns,
		strings.Join(setClauses, ", "), argIdx, argIdx+1)

	return scanLead(r.db.QueryRow(ctx, query, args...))
}

// SetPriority assigns the priority bucket without touching updated_at
// semantics of a user edit.
func (r *Repository) SetPriority(ctx context.Context, id, organizationID uuid.UUID, priorityID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET priority_id = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, id, organizationID, priorityID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetScore persists a derived score and its breakdown (scoring collaborator).
func (r *Repository) SetScore(ctx context.Context, id, organizationID uuid.UUID, score int, breakdown map[string]float64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET score = $3, score_breakdown = $4, updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, id, organizationID, score, breakdown)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// StageChange moves the stage pointer and appends the history entry with the
// jsonb concatenation operator so existing entries are structurally untouched.
// System/qualification/custom field updates from the same call ride along in
// the same statement.
type StageChange struct {
	StageID       uuid.UUID
	HistoryEntry  domain.StageHistoryEntry
	SystemUpdates domain.FieldMap // column name -> value
	Qualification domain.FieldMap // full merged map, nil = untouched
	CustomFields  domain.FieldMap // full merged map, nil = untouched
}

func (r *Repository) ApplyStageChange(ctx context.Context, id, organizationID uuid.UUID, change StageChange) (domain.Lead, error) {
	entryJSON, err := json.Marshal([]domain.StageHistoryEntry{change.HistoryEntry})
	if err != nil {
		return domain.Lead{}, err
	}

	setClauses := []string{
		"stage_id = $3",
		"stage_entered_at = now()",
		"stage_history = coalesce(stage_history, '[]'::jsonb) || $4::jsonb",
		"updated_at = now()",
	}
	args := []interface{}{id, organizationID, change.StageID, entryJSON}
	argIdx := 5

	if change.Qualification != nil {
		setClauses = append(setClauses, fmt.Sprintf("qualification_data = $%d", argIdx))
		args = append(args, change.Qualification)
		argIdx++
	}
	if change.CustomFields != nil {
		setClauses = append(setClauses, fmt.Sprintf("custom_fields = $%d", argIdx))
		args = append(args, change.CustomFields)
		argIdx++
	}
	for column, value := range change.SystemUpdates {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, systemColumnValue(column, value))
		argIdx++
	}

	query := fmt.Sprintf(`
		UPDATE leads l SET %s
		WHERE l.id = $1 AND l.organization_id = $2 AND l.deleted_at IS NULL
		RETURNING `+leadColumns, strings.Join(setClauses, ", "))

	return scanLead(r.db.QueryRow(ctx, query, args...))
}

// systemColumnValue converts a dynamic value to the column's natural type.
func systemColumnValue(column string, value domain.FieldValue) interface{} {
	switch column {
	case "do_not_contact", "do_not_email", "do_not_call":
		return value.Kind == domain.FieldBool && value.Bool
	default:
		if value.IsBlank() {
			return nil
		}
		return value.AsString()
	}
}

// MarkDisqualified records the terminal disqualification fields alongside the
// stage move to the lost stage.
type DisqualifyChange struct {
	StageID      uuid.UUID
	HistoryEntry domain.StageHistoryEntry
	ReasonID     uuid.UUID
	Notes        *string
	By           uuid.UUID
}

func (r *Repository) MarkDisqualified(ctx context.Context, id, organizationID uuid.UUID, change DisqualifyChange) (domain.Lead, error) {
	entryJSON, err := json.Marshal([]domain.StageHistoryEntry{change.HistoryEntry})
	if err != nil {
		return domain.Lead{}, err
	}

	row := r.db.QueryRow(ctx, `
		UPDATE leads l SET
			stage_id = $3,
			stage_entered_at = now(),
			stage_history = coalesce(stage_history, '[]'::jsonb) || $4::jsonb,
			disqualified_at = now(),
			disqualified_by = $5,
			disqualified_reason_id = $6,
			disqualified_notes = $7,
			updated_at = now()
		WHERE l.id = $1 AND l.organization_id = $2 AND l.deleted_at IS NULL
		RETURNING `+leadColumns,
		id, organizationID, change.StageID, entryJSON, change.By, change.ReasonID, change.Notes)
	return scanLead(row)
}

// MarkConverted finalizes a conversion: terminal markers, won stage, history.
type ConvertChange struct {
	StageID       uuid.UUID
	HistoryEntry  domain.StageHistoryEntry
	By            uuid.UUID
	ContactID     *uuid.UUID
	AccountID     *uuid.UUID
	OpportunityID *uuid.UUID
	Notes         *string
}

func (r *Repository) MarkConverted(ctx context.Context, id, organizationID uuid.UUID, change ConvertChange) (domain.Lead, error) {
	entryJSON, err := json.Marshal([]domain.StageHistoryEntry{change.HistoryEntry})
	if err != nil {
		return domain.Lead{}, err
	}

	row := r.db.QueryRow(ctx, `
		UPDATE leads l SET
			stage_id = $3,
			stage_entered_at = now(),
			stage_history = coalesce(stage_history, '[]'::jsonb) || $4::jsonb,
			converted_at = now(),
			converted_by = $5,
			converted_contact_id = $6,
			converted_account_id = $7,
			converted_opportunity_id = $8,
			conversion_notes = $9,
			updated_at = now()
		WHERE l.id = $1 AND l.organization_id = $2 AND l.deleted_at IS NULL
		RETURNING `+leadColumns,
		id, organizationID, change.StageID, entryJSON, change.By,
		change.ContactID, change.AccountID, change.OpportunityID, change.Notes)
	return scanLead(row)
}

func (r *Repository) Delete(ctx context.Context, id, organizationID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `
		UPDATE leads SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`, id, organizationID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
