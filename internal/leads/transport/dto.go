// Package transport defines the wire DTOs for the leads HTTP surface.
package transport

import (
	"time"

	"github.com/google/uuid"

	"crmcore_backend/internal/leads/conversion"
	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/internal/leads/dupcheck"
	"crmcore_backend/internal/leads/lifecycle"
	"crmcore_backend/internal/leads/management"
	"crmcore_backend/internal/leads/repository"
)

// Request DTOs

type CreateLeadRequest struct {
	FirstName       string                 `json:"firstName" validate:"required,min=1,max=100"`
	LastName        string                 `json:"lastName" validate:"required,min=1,max=100"`
	Company         *string                `json:"company,omitempty" validate:"omitempty,max=200"`
	JobTitle        *string                `json:"jobTitle,omitempty" validate:"omitempty,max=100"`
	Email           *string                `json:"email,omitempty" validate:"omitempty,email"`
	Phone           *string                `json:"phone,omitempty" validate:"omitempty,min=5,max=30"`
	SecondaryEmails []string               `json:"secondaryEmails,omitempty" validate:"omitempty,dive,email"`
	SecondaryPhones []string               `json:"secondaryPhones,omitempty" validate:"omitempty,dive,min=5,max=30"`
	Addresses       []domain.Address       `json:"addresses,omitempty"`
	SocialProfiles  []domain.SocialProfile `json:"socialProfiles,omitempty"`
	Source          *string                `json:"source,omitempty" validate:"omitempty,max=100"`
	SourceDetails   *string                `json:"sourceDetails,omitempty" validate:"omitempty,max=500"`
	OwnerID         *uuid.UUID             `json:"ownerId,omitempty"`
	StageID         *uuid.UUID             `json:"stageId,omitempty"`
	FrameworkID     *uuid.UUID             `json:"frameworkId,omitempty"`
	Qualification   domain.FieldMap        `json:"qualification,omitempty"`
	CustomFields    domain.FieldMap        `json:"customFields,omitempty"`
	DoNotContact    bool                   `json:"doNotContact,omitempty"`
	DoNotEmail      bool                   `json:"doNotEmail,omitempty"`
	DoNotCall       bool                   `json:"doNotCall,omitempty"`
	Tags            []string               `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=50"`
}

// ToParams maps the request onto the management service input.
func (r CreateLeadRequest) ToParams(organizationID, actorID uuid.UUID) management.CreateParams {
	return management.CreateParams{
		OrganizationID:  organizationID,
		ActorID:         actorID,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Company:         r.Company,
		JobTitle:        r.JobTitle,
		Email:           r.Email,
		Phone:           r.Phone,
		SecondaryEmails: r.SecondaryEmails,
		SecondaryPhones: r.SecondaryPhones,
		Addresses:       r.Addresses,
		SocialProfiles:  r.SocialProfiles,
		Source:          r.Source,
		SourceDetails:   r.SourceDetails,
		OwnerID:         r.OwnerID,
		StageID:         r.StageID,
		FrameworkID:     r.FrameworkID,
		Qualification:   r.Qualification,
		CustomFields:    r.CustomFields,
		DoNotContact:    r.DoNotContact,
		DoNotEmail:      r.DoNotEmail,
		DoNotCall:       r.DoNotCall,
		Tags:            r.Tags,
	}
}

// UpdateLeadRequest is a partial edit; an absent key leaves the field
// untouched, an explicit null clears it.
type UpdateLeadRequest struct {
	FirstName       *string                `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName        *string                `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Company         OptionalString         `json:"company,omitzero"`
	JobTitle        OptionalString         `json:"jobTitle,omitzero"`
	Email           OptionalString         `json:"email,omitzero"`
	Phone           OptionalString         `json:"phone,omitzero"`
	SecondaryEmails []string               `json:"secondaryEmails,omitempty" validate:"omitempty,dive,email"`
	SecondaryPhones []string               `json:"secondaryPhones,omitempty"`
	Addresses       []domain.Address       `json:"addresses,omitempty"`
	SocialProfiles  []domain.SocialProfile `json:"socialProfiles,omitempty"`
	Source          OptionalString         `json:"source,omitzero"`
	SourceDetails   OptionalString         `json:"sourceDetails,omitzero"`
	OwnerID         OptionalUUID           `json:"ownerId,omitzero"`
	PriorityID      OptionalUUID           `json:"priorityId,omitzero"`
	FrameworkID     OptionalUUID           `json:"frameworkId,omitzero"`
	Qualification   domain.FieldMap        `json:"qualification,omitempty"`
	CustomFields    domain.FieldMap        `json:"customFields,omitempty"`
	DoNotContact    *bool                  `json:"doNotContact,omitempty"`
	DoNotEmail      *bool                  `json:"doNotEmail,omitempty"`
	DoNotCall       *bool                  `json:"doNotCall,omitempty"`
	Tags            []string               `json:"tags,omitempty"`
}

// ToParams maps the request onto the repository's sparse update.
func (r UpdateLeadRequest) ToParams() repository.UpdateLeadParams {
	return repository.UpdateLeadParams{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		Company:          r.Company.Value,
		CompanySet:       r.Company.Set,
		JobTitle:         r.JobTitle.Value,
		JobTitleSet:      r.JobTitle.Set,
		Email:            r.Email.Value,
		EmailSet:         r.Email.Set,
		Phone:            r.Phone.Value,
		PhoneSet:         r.Phone.Set,
		SecondaryEmails:  r.SecondaryEmails,
		SecondaryPhones:  r.SecondaryPhones,
		Addresses:        r.Addresses,
		SocialProfiles:   r.SocialProfiles,
		Source:           r.Source.Value,
		SourceSet:        r.Source.Set,
		SourceDetails:    r.SourceDetails.Value,
		SourceDetailsSet: r.SourceDetails.Set,
		OwnerID:          r.OwnerID.Value,
		OwnerIDSet:       r.OwnerID.Set,
		PriorityID:       r.PriorityID.Value,
		PriorityIDSet:    r.PriorityID.Set,
		FrameworkID:      r.FrameworkID.Value,
		FrameworkIDSet:   r.FrameworkID.Set,
		Qualification:    r.Qualification,
		CustomFields:     r.CustomFields,
		DoNotContact:     r.DoNotContact,
		DoNotEmail:       r.DoNotEmail,
		DoNotCall:        r.DoNotCall,
		Tags:             r.Tags,
	}
}

type ChangeStageRequest struct {
	StageID      uuid.UUID       `json:"stageId" validate:"required"`
	FieldUpdates domain.FieldMap `json:"fieldUpdates,omitempty"`
	UnlockReason *string         `json:"unlockReason,omitempty" validate:"omitempty,min=1,max=500"`
}

type DisqualifyRequest struct {
	ReasonID uuid.UUID `json:"reasonId" validate:"required"`
	Notes    *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ConvertContactRequest struct {
	Mode              string     `json:"mode" validate:"required,oneof=create_new merge_existing none"`
	ExistingContactID *uuid.UUID `json:"existingContactId,omitempty"`
}

type ConvertAccountRequest struct {
	Mode              string     `json:"mode" validate:"required,oneof=create_new link_existing none"`
	Name              *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	ExistingAccountID *uuid.UUID `json:"existingAccountId,omitempty"`
}

type ConvertOpportunityRequest struct {
	Create    bool       `json:"create"`
	Name      *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Amount    *float64   `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Currency  string     `json:"currency,omitempty" validate:"omitempty,len=3"`
	CloseDate *time.Time `json:"closeDate,omitempty"`
}

type ConvertLeadRequest struct {
	Contact     ConvertContactRequest     `json:"contact" validate:"required"`
	Account     ConvertAccountRequest     `json:"account" validate:"required"`
	Opportunity ConvertOpportunityRequest `json:"opportunity"`
	Notes       *string                   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ToParams maps the request onto the conversion orchestrator input.
func (r ConvertLeadRequest) ToParams(leadID, organizationID, actorID uuid.UUID) conversion.Params {
	return conversion.Params{
		LeadID:         leadID,
		OrganizationID: organizationID,
		ActorID:        actorID,
		Contact: conversion.ContactOptions{
			Mode:              r.Contact.Mode,
			ExistingContactID: r.Contact.ExistingContactID,
		},
		Account: conversion.AccountOptions{
			Mode:              r.Account.Mode,
			Name:              r.Account.Name,
			ExistingAccountID: r.Account.ExistingAccountID,
		},
		Opportunity: conversion.OpportunityOptions{
			Create:    r.Opportunity.Create,
			Name:      r.Opportunity.Name,
			Amount:    r.Opportunity.Amount,
			Currency:  r.Opportunity.Currency,
			CloseDate: r.Opportunity.CloseDate,
		},
		Notes: r.Notes,
	}
}

// ListLeadsRequest carries query-string filters. UUID filters arrive as
// strings and are parsed in ToParams.
type ListLeadsRequest struct {
	Search     string  `form:"search" validate:"omitempty,max=200"`
	StageID    string  `form:"stageId"`
	PriorityID string  `form:"priorityId"`
	Source     *string `form:"source"`
	OwnerID    string  `form:"ownerId"`
	Tag        *string `form:"tag"`
	Company    *string `form:"company"`
	ScoreMin   *int    `form:"scoreMin" validate:"omitempty,gte=0,lte=100"`
	ScoreMax   *int    `form:"scoreMax" validate:"omitempty,gte=0,lte=100"`
	Conversion string  `form:"conversion" validate:"omitempty,oneof=converted disqualified open"`
	Scope      string  `form:"scope" validate:"omitempty,oneof=my all"`
	Page       int     `form:"page" validate:"omitempty,gte=1"`
	PerPage    int     `form:"perPage" validate:"omitempty,gte=1,lte=100"`
	SortBy     string  `form:"sortBy" validate:"omitempty,oneof=createdAt updatedAt stageEnteredAt score firstName lastName company email"`
	SortOrder  string  `form:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// ToParams applies pagination defaults and maps onto the repository filter.
func (r ListLeadsRequest) ToParams(organizationID uuid.UUID) (repository.ListParams, error) {
	page := r.Page
	if page < 1 {
		page = 1
	}
	perPage := r.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	stageID, err := parseOptionalUUID(r.StageID)
	if err != nil {
		return repository.ListParams{}, err
	}
	priorityID, err := parseOptionalUUID(r.PriorityID)
	if err != nil {
		return repository.ListParams{}, err
	}
	ownerID, err := parseOptionalUUID(r.OwnerID)
	if err != nil {
		return repository.ListParams{}, err
	}

	return repository.ListParams{
		OrganizationID: organizationID,
		Search:         r.Search,
		StageID:        stageID,
		PriorityID:     priorityID,
		Source:         r.Source,
		OwnerID:        ownerID,
		Tag:            r.Tag,
		Company:        r.Company,
		ScoreMin:       r.ScoreMin,
		ScoreMax:       r.ScoreMax,
		Conversion:     repository.ConversionFilter(r.Conversion),
		Offset:         (page - 1) * perPage,
		Limit:          perPage,
		SortBy:         r.SortBy,
		SortOrder:      r.SortOrder,
	}, nil
}

func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Response DTOs

type LeadResponse struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organizationId"`

	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Company   *string `json:"company,omitempty"`
	JobTitle  *string `json:"jobTitle,omitempty"`

	Email           *string                `json:"email,omitempty"`
	Phone           *string                `json:"phone,omitempty"`
	SecondaryEmails []string               `json:"secondaryEmails,omitempty"`
	SecondaryPhones []string               `json:"secondaryPhones,omitempty"`
	Addresses       []domain.Address       `json:"addresses,omitempty"`
	SocialProfiles  []domain.SocialProfile `json:"socialProfiles,omitempty"`

	Source        *string `json:"source,omitempty"`
	SourceDetails *string `json:"sourceDetails,omitempty"`

	OwnerID   *uuid.UUID `json:"ownerId,omitempty"`
	CreatedBy uuid.UUID  `json:"createdBy"`

	StageID        *uuid.UUID                 `json:"stageId,omitempty"`
	StageEnteredAt *time.Time                 `json:"stageEnteredAt,omitempty"`
	StageHistory   []domain.StageHistoryEntry `json:"stageHistory,omitempty"`

	PriorityID  *uuid.UUID `json:"priorityId,omitempty"`
	FrameworkID *uuid.UUID `json:"frameworkId,omitempty"`

	Score          int                `json:"score"`
	ScoreBreakdown map[string]float64 `json:"scoreBreakdown,omitempty"`

	Qualification domain.FieldMap `json:"qualification,omitempty"`
	CustomFields  domain.FieldMap `json:"customFields,omitempty"`

	ConvertedAt            *time.Time `json:"convertedAt,omitempty"`
	ConvertedBy            *uuid.UUID `json:"convertedBy,omitempty"`
	ConvertedContactID     *uuid.UUID `json:"convertedContactId,omitempty"`
	ConvertedAccountID     *uuid.UUID `json:"convertedAccountId,omitempty"`
	ConvertedOpportunityID *uuid.UUID `json:"convertedOpportunityId,omitempty"`
	ConversionNotes        *string    `json:"conversionNotes,omitempty"`

	DisqualifiedAt       *time.Time `json:"disqualifiedAt,omitempty"`
	DisqualifiedBy       *uuid.UUID `json:"disqualifiedBy,omitempty"`
	DisqualifiedReasonID *uuid.UUID `json:"disqualifiedReasonId,omitempty"`
	DisqualifiedNotes    *string    `json:"disqualifiedNotes,omitempty"`

	DoNotContact bool `json:"doNotContact"`
	DoNotEmail   bool `json:"doNotEmail"`
	DoNotCall    bool `json:"doNotCall"`

	Tags []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewLeadResponse(lead domain.Lead) LeadResponse {
	return LeadResponse{
		ID:                     lead.ID,
		OrganizationID:         lead.OrganizationID,
		FirstName:              lead.FirstName,
		LastName:               lead.LastName,
		Company:                lead.Company,
		JobTitle:               lead.JobTitle,
		Email:                  lead.Email,
		Phone:                  lead.Phone,
		SecondaryEmails:        lead.SecondaryEmails,
		SecondaryPhones:        lead.SecondaryPhones,
		Addresses:              lead.Addresses,
		SocialProfiles:         lead.SocialProfiles,
		Source:                 lead.Source,
		SourceDetails:          lead.SourceDetails,
		OwnerID:                lead.OwnerID,
		CreatedBy:              lead.CreatedBy,
		StageID:                lead.StageID,
		StageEnteredAt:         lead.StageEnteredAt,
		StageHistory:           lead.StageHistory,
		PriorityID:             lead.PriorityID,
		FrameworkID:            lead.FrameworkID,
		Score:                  lead.Score,
		ScoreBreakdown:         lead.ScoreBreakdown,
		Qualification:          lead.Qualification,
		CustomFields:           lead.CustomFields,
		ConvertedAt:            lead.ConvertedAt,
		ConvertedBy:            lead.ConvertedBy,
		ConvertedContactID:     lead.ConvertedContactID,
		ConvertedAccountID:     lead.ConvertedAccountID,
		ConvertedOpportunityID: lead.ConvertedOpportunityID,
		ConversionNotes:        lead.ConversionNotes,
		DisqualifiedAt:         lead.DisqualifiedAt,
		DisqualifiedBy:         lead.DisqualifiedBy,
		DisqualifiedReasonID:   lead.DisqualifiedReasonID,
		DisqualifiedNotes:      lead.DisqualifiedNotes,
		DoNotContact:           lead.DoNotContact,
		DoNotEmail:             lead.DoNotEmail,
		DoNotCall:              lead.DoNotCall,
		Tags:                   lead.Tags,
		CreatedAt:              lead.CreatedAt,
		UpdatedAt:              lead.UpdatedAt,
	}
}

func NewLeadResponses(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, NewLeadResponse(lead))
	}
	return out
}

type ListLeadsResponse struct {
	Items   []LeadResponse `json:"items"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
}

type StageGroupResponse struct {
	StageID *uuid.UUID     `json:"stageId"`
	Count   int            `json:"count"`
	Leads   []LeadResponse `json:"leads"`
}

func NewStageGroupResponses(groups []repository.StageGroup) []StageGroupResponse {
	out := make([]StageGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, StageGroupResponse{
			StageID: g.StageID,
			Count:   g.Count,
			Leads:   NewLeadResponses(g.Leads),
		})
	}
	return out
}

type StageResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Color          string    `json:"color,omitempty"`
	SortOrder      int       `json:"sortOrder"`
	IsWon          bool      `json:"isWon"`
	IsLost         bool      `json:"isLost"`
	IsActive       bool      `json:"isActive"`
	RequiredFields []string  `json:"requiredFields,omitempty"`
}

func NewStageResponse(stage domain.Stage) StageResponse {
	return StageResponse{
		ID:             stage.ID,
		Name:           stage.Name,
		Slug:           stage.Slug,
		Color:          stage.Color,
		SortOrder:      stage.SortOrder,
		IsWon:          stage.IsWon,
		IsLost:         stage.IsLost,
		IsActive:       stage.IsActive,
		RequiredFields: stage.RequiredFields,
	}
}

func NewStageResponses(stages []domain.Stage) []StageResponse {
	out := make([]StageResponse, 0, len(stages))
	for _, stage := range stages {
		out = append(out, NewStageResponse(stage))
	}
	return out
}

type FrameworkResponse struct {
	ID       uuid.UUID               `json:"id"`
	Name     string                  `json:"name"`
	Slug     string                  `json:"slug"`
	Fields   []domain.FrameworkField `json:"fields"`
	IsActive bool                    `json:"isActive"`
}

func NewFrameworkResponse(fw domain.QualificationFramework) FrameworkResponse {
	return FrameworkResponse{
		ID:       fw.ID,
		Name:     fw.Name,
		Slug:     fw.Slug,
		Fields:   fw.Fields,
		IsActive: fw.IsActive,
	}
}

type CandidateResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	MatchType string    `json:"matchType"`
}

type DuplicateGroupResponse struct {
	Leads    []CandidateResponse `json:"leads"`
	Contacts []CandidateResponse `json:"contacts"`
	Accounts []CandidateResponse `json:"accounts"`
}

func NewDuplicateGroupResponse(group dupcheck.CandidateGroup) DuplicateGroupResponse {
	return DuplicateGroupResponse{
		Leads:    newCandidateResponses(group.Leads),
		Contacts: newCandidateResponses(group.Contacts),
		Accounts: newCandidateResponses(group.Accounts),
	}
}

func newCandidateResponses(candidates []repository.Candidate) []CandidateResponse {
	out := make([]CandidateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CandidateResponse{
			ID:        c.ID,
			Name:      c.Name,
			Email:     c.Email,
			Phone:     c.Phone,
			MatchType: c.MatchType,
		})
	}
	return out
}

type LeadDetailResponse struct {
	Lead       LeadResponse           `json:"lead"`
	Stage      *StageResponse         `json:"stage,omitempty"`
	Framework  *FrameworkResponse     `json:"framework,omitempty"`
	Stages     []StageResponse        `json:"stages"`
	Duplicates DuplicateGroupResponse `json:"duplicates"`
}

func NewLeadDetailResponse(detail management.Detail) LeadDetailResponse {
	resp := LeadDetailResponse{
		Lead:       NewLeadResponse(detail.Lead),
		Stages:     NewStageResponses(detail.Stages),
		Duplicates: NewDuplicateGroupResponse(detail.Duplicates),
	}
	if detail.Stage != nil {
		stage := NewStageResponse(*detail.Stage)
		resp.Stage = &stage
	}
	if detail.Framework != nil {
		fw := NewFrameworkResponse(*detail.Framework)
		resp.Framework = &fw
	}
	return resp
}

type ConversionResponse struct {
	Lead          LeadResponse `json:"lead"`
	ContactID     *uuid.UUID   `json:"contactId,omitempty"`
	AccountID     *uuid.UUID   `json:"accountId,omitempty"`
	OpportunityID *uuid.UUID   `json:"opportunityId,omitempty"`
}

func NewConversionResponse(result conversion.Result) ConversionResponse {
	return ConversionResponse{
		Lead:          NewLeadResponse(result.Lead),
		ContactID:     result.ContactID,
		AccountID:     result.AccountID,
		OpportunityID: result.OpportunityID,
	}
}

type PriorityResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ScoreMin  int       `json:"scoreMin"`
	ScoreMax  int       `json:"scoreMax"`
	SortOrder int       `json:"sortOrder"`
	IsDefault bool      `json:"isDefault"`
}

func NewPriorityResponses(priorities []domain.Priority) []PriorityResponse {
	out := make([]PriorityResponse, 0, len(priorities))
	for _, p := range priorities {
		out = append(out, PriorityResponse{
			ID:        p.ID,
			Name:      p.Name,
			ScoreMin:  p.ScoreMin,
			ScoreMax:  p.ScoreMax,
			SortOrder: p.SortOrder,
			IsDefault: p.IsDefault,
		})
	}
	return out
}

func NewFrameworkResponses(frameworks []domain.QualificationFramework) []FrameworkResponse {
	out := make([]FrameworkResponse, 0, len(frameworks))
	for _, fw := range frameworks {
		out = append(out, NewFrameworkResponse(fw))
	}
	return out
}

type ReasonResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func NewReasonResponses(reasons []domain.DisqualificationReason) []ReasonResponse {
	out := make([]ReasonResponse, 0, len(reasons))
	for _, reason := range reasons {
		out = append(out, ReasonResponse{ID: reason.ID, Name: reason.Name})
	}
	return out
}

// SettingsPayload is the wire shape for tenant engine settings. The nested
// domain structs carry their own json tags.
type SettingsPayload struct {
	Duplicates domain.DuplicateSettings  `json:"duplicates"`
	Stages     domain.StageSettings      `json:"stages"`
	Scoring    domain.ScoringSettings    `json:"scoring"`
	Conversion domain.ConversionSettings `json:"conversion"`
	Ownership  domain.OwnershipSettings  `json:"ownership"`
}

func NewSettingsPayload(settings domain.Settings) SettingsPayload {
	return SettingsPayload{
		Duplicates: settings.Duplicates,
		Stages:     settings.Stages,
		Scoring:    settings.Scoring,
		Conversion: settings.Conversion,
		Ownership:  settings.Ownership,
	}
}

// ToDomain stamps the tenant onto the payload.
func (p SettingsPayload) ToDomain(organizationID uuid.UUID) domain.Settings {
	return domain.Settings{
		OrganizationID: organizationID,
		Duplicates:     p.Duplicates,
		Stages:         p.Stages,
		Scoring:        p.Scoring,
		Conversion:     p.Conversion,
		Ownership:      p.Ownership,
	}
}

// ToParams maps the request onto the lifecycle stage-change input.
func (r ChangeStageRequest) ToParams(leadID, organizationID, actorID uuid.UUID) lifecycle.ChangeStageParams {
	return lifecycle.ChangeStageParams{
		LeadID:         leadID,
		OrganizationID: organizationID,
		TargetStageID:  r.StageID,
		FieldUpdates:   r.FieldUpdates,
		UnlockReason:   r.UnlockReason,
		ActorID:        actorID,
	}
}

// ToParams maps the request onto the lifecycle disqualify input.
func (r DisqualifyRequest) ToParams(leadID, organizationID, actorID uuid.UUID) lifecycle.DisqualifyParams {
	return lifecycle.DisqualifyParams{
		LeadID:         leadID,
		OrganizationID: organizationID,
		ReasonID:       r.ReasonID,
		Notes:          r.Notes,
		ActorID:        actorID,
	}
}
