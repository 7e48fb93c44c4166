// Package management implements the lead CRUD surface: creation with
// duplicate blocking and routing, updates with conditional rescoring and
// ownership side effects, enriched reads, listing, and soft deletion.
package management

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"crmcore_backend/internal/adapters"
	"crmcore_backend/internal/events"
	"crmcore_backend/internal/leads/catalog"
	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/internal/leads/dupcheck"
	"crmcore_backend/internal/leads/ownership"
	"crmcore_backend/internal/leads/repository"
	"crmcore_backend/internal/leads/routing"
	"crmcore_backend/internal/leads/scoring"
	"crmcore_backend/platform/apperr"
	platformevents "crmcore_backend/platform/events"
	"crmcore_backend/platform/logger"
	"crmcore_backend/platform/phone"
)

// Store is the repository slice the management service needs.
type Store interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (domain.Lead, error)
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (domain.Lead, error)
	Update(ctx context.Context, id, organizationID uuid.UUID, params repository.UpdateLeadParams) (domain.Lead, error)
	SetPriority(ctx context.Context, id, organizationID uuid.UUID, priorityID uuid.UUID) error
	Delete(ctx context.Context, id, organizationID uuid.UUID) error
	List(ctx context.Context, params repository.ListParams) ([]domain.Lead, int, error)
	ListGroupedByStage(ctx context.Context, organizationID uuid.UUID, perStageLimit int) ([]repository.StageGroup, error)
	GetFramework(ctx context.Context, organizationID, frameworkID uuid.UUID) (domain.QualificationFramework, error)
	CreateActivity(ctx context.Context, a domain.Activity) error
}

// Auditor records mutations for the audit trail. A failed write fails the
// operation it belongs to.
type Auditor interface {
	Record(ctx context.Context, entry adapters.AuditEntry) error
}

type Service struct {
	store   Store
	checker *dupcheck.Checker
	router  *routing.Evaluator
	scorer  scoring.Scorer
	catalog *catalog.Service
	owners  *ownership.Handler
	audit   Auditor
	bus     platformevents.Bus
	log     *logger.Logger
}

func NewService(store Store, checker *dupcheck.Checker, router *routing.Evaluator, scorer scoring.Scorer, cat *catalog.Service, owners *ownership.Handler, audit Auditor, bus platformevents.Bus, log *logger.Logger) *Service {
	return &Service{
		store:   store,
		checker: checker,
		router:  router,
		scorer:  scorer,
		catalog: cat,
		owners:  owners,
		audit:   audit,
		bus:     bus,
		log:     log,
	}
}

// CreateParams carries one lead creation request.
type CreateParams struct {
	OrganizationID  uuid.UUID
	ActorID         uuid.UUID
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
	StageID         *uuid.UUID
	FrameworkID     *uuid.UUID
	Qualification   domain.FieldMap
	CustomFields    domain.FieldMap
	DoNotContact    bool
	DoNotEmail      bool
	DoNotCall       bool
	Tags            []string
}

// Create runs the full intake pipeline: duplicate check, tenant defaults,
// routing, persistence, scoring, priority assignment, and the audit trail.
func (s *Service) Create(ctx context.Context, params CreateParams) (domain.Lead, error) {
	settings, err := s.catalog.Settings(ctx, params.OrganizationID)
	if err != nil {
		return domain.Lead{}, err
	}

	params.Phone = normalizePhone(params.Phone)

	if err := s.checker.Check(ctx, params.OrganizationID, dupcheck.Identity{
		Email: strValue(params.Email),
		Phone: strValue(params.Phone),
	}, settings.Duplicates); err != nil {
		return domain.Lead{}, err
	}

	stageID := params.StageID
	if stageID == nil {
		stageID = settings.Stages.DefaultStageID
	}
	frameworkID := params.FrameworkID
	if frameworkID == nil {
		frameworkID = settings.Scoring.DefaultFrameworkID
	}

	decision, err := s.router.ResolveOwner(ctx, params.OrganizationID,
		routingValues(params), params.OwnerID, params.ActorID)
	if err != nil {
		return domain.Lead{}, err
	}
	ownerID := decision.OwnerID

	lead, err := s.store.Create(ctx, repository.CreateLeadParams{
		OrganizationID:  params.OrganizationID,
		FirstName:       params.FirstName,
		LastName:        params.LastName,
		Company:         params.Company,
		JobTitle:        params.JobTitle,
		Email:           params.Email,
		Phone:           params.Phone,
		SecondaryEmails: params.SecondaryEmails,
		SecondaryPhones: params.SecondaryPhones,
		Addresses:       params.Addresses,
		SocialProfiles:  params.SocialProfiles,
		Source:          params.Source,
		SourceDetails:   params.SourceDetails,
		OwnerID:         &ownerID,
		CreatedBy:       params.ActorID,
		StageID:         stageID,
		PriorityID:      nil,
		FrameworkID:     frameworkID,
		Qualification:   params.Qualification,
		CustomFields:    params.CustomFields,
		DoNotContact:    params.DoNotContact,
		DoNotEmail:      params.DoNotEmail,
		DoNotCall:       params.DoNotCall,
		Tags:            params.Tags,
	})
	if err != nil {
		return domain.Lead{}, err
	}

	lead, err = s.rescore(ctx, lead, settings)
	if err != nil {
		return domain.Lead{}, err
	}

	if err := s.store.CreateActivity(ctx, domain.Activity{
		ID:             uuid.New(),
		OrganizationID: params.OrganizationID,
		LeadID:         &lead.ID,
		Type:           domain.ActivityLeadCreated,
		Title:          "Lead created",
		Metadata:       map[string]any{"source": strValue(params.Source)},
		ActorID:        params.ActorID,
	}); err != nil {
		return domain.Lead{}, err
	}

	if err := s.audit.Record(ctx, adapters.AuditEntry{
		OrganizationID: params.OrganizationID,
		ActorID:        params.ActorID,
		Action:         "lead.create",
		RecordType:     "lead",
		RecordID:       lead.ID,
	}); err != nil {
		return domain.Lead{}, err
	}
	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		TenantID:  params.OrganizationID,
		OwnerID:   lead.OwnerID,
		Source:    strValue(params.Source),
		CreatedBy: params.ActorID,
	})
	s.log.LeadEvent("created", params.OrganizationID.String(), lead.ID.String())
	return lead, nil
}

// UpdateParams is the service-level view of an update request.
type UpdateParams struct {
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
	Fields         repository.UpdateLeadParams
}

// Update applies a partial edit. Identity changes re-run the duplicate check,
// scoring-relevant changes re-run the scorer, and owner changes trigger the
// ownership transfer side effects.
func (s *Service) Update(ctx context.Context, leadID uuid.UUID, params UpdateParams) (domain.Lead, error) {
	existing, err := s.store.GetByID(ctx, leadID, params.OrganizationID)
	if err != nil {
		return domain.Lead{}, mapLeadErr(err)
	}

	settings, err := s.catalog.Settings(ctx, params.OrganizationID)
	if err != nil {
		return domain.Lead{}, err
	}

	if existing.IsConverted() && !settings.Conversion.AllowFieldEditAfterConvert {
		return domain.Lead{}, apperr.InvalidState("converted leads cannot be edited")
	}

	if params.Fields.PhoneSet {
		params.Fields.Phone = normalizePhone(params.Fields.Phone)
	}

	if identityChanged(&existing, params.Fields) {
		excludeID := existing.ID
		identity := dupcheck.Identity{
			Email:         updatedValue(params.Fields.EmailSet, params.Fields.Email, existing.Email),
			Phone:         updatedValue(params.Fields.PhoneSet, params.Fields.Phone, existing.Phone),
			ExcludeLeadID: &excludeID,
		}
		if err := s.checker.Check(ctx, params.OrganizationID, identity, settings.Duplicates); err != nil {
			return domain.Lead{}, err
		}
	}

	updated, err := s.store.Update(ctx, leadID, params.OrganizationID, params.Fields)
	if err != nil {
		return domain.Lead{}, mapLeadErr(err)
	}

	if shouldRescore(params.Fields) {
		updated, err = s.rescore(ctx, updated, settings)
		if err != nil {
			return domain.Lead{}, err
		}
	}

	if ownerChanged(&existing, params.Fields) {
		err := s.owners.Apply(ctx, ownership.Transfer{
			OrganizationID:  params.OrganizationID,
			LeadID:          leadID,
			PreviousOwnerID: existing.OwnerID,
			NewOwnerID:      *params.Fields.OwnerID,
			ActorID:         params.ActorID,
		}, settings.Ownership)
		if err != nil {
			return domain.Lead{}, err
		}
	}

	if err := s.audit.Record(ctx, adapters.AuditEntry{
		OrganizationID: params.OrganizationID,
		ActorID:        params.ActorID,
		Action:         "lead.update",
		RecordType:     "lead",
		RecordID:       leadID,
		Changes:        adapters.CalculateChanges(snapshot(&existing), snapshot(&updated)),
	}); err != nil {
		return domain.Lead{}, err
	}
	return updated, nil
}

// Detail is the enriched single-lead view.
type Detail struct {
	Lead       domain.Lead
	Stage      *domain.Stage
	Framework  *domain.QualificationFramework
	Stages     []domain.Stage
	Duplicates dupcheck.CandidateGroup
}

// Get returns the lead enriched with its stage schema, framework field
// schema, the active stage catalog, and live duplicate candidates.
func (s *Service) Get(ctx context.Context, leadID, organizationID uuid.UUID) (Detail, error) {
	lead, err := s.store.GetByID(ctx, leadID, organizationID)
	if err != nil {
		return Detail{}, mapLeadErr(err)
	}

	detail := Detail{Lead: lead}

	stages, err := s.catalog.ActiveStages(ctx, organizationID)
	if err != nil {
		return Detail{}, err
	}
	detail.Stages = stages
	if lead.StageID != nil {
		for i := range stages {
			if stages[i].ID == *lead.StageID {
				detail.Stage = &stages[i]
				break
			}
		}
	}

	if lead.FrameworkID != nil {
		if fw, err := s.store.GetFramework(ctx, organizationID, *lead.FrameworkID); err == nil {
			detail.Framework = &fw
		}
	}

	excludeID := lead.ID
	duplicates, err := s.checker.FindCandidates(ctx, organizationID, dupcheck.Identity{
		Email:         strValue(lead.Email),
		Phone:         strValue(lead.Phone),
		ExcludeLeadID: &excludeID,
	})
	if err != nil {
		// Candidate hinting is advisory; a failed lookup must not break reads.
		s.log.CollaboratorError("dupcheck", "find_candidates", err)
	} else {
		detail.Duplicates = duplicates
	}

	return detail, nil
}

// ListOptions wraps repository filters with the ownership scope.
type ListOptions struct {
	Filters repository.ListParams
	// Scope "my" narrows the list to leads owned by the requester.
	Scope   string
	ActorID uuid.UUID
}

func (s *Service) List(ctx context.Context, opts ListOptions) ([]domain.Lead, int, error) {
	if opts.Scope == "my" {
		actorID := opts.ActorID
		opts.Filters.OwnerID = &actorID
	}
	return s.store.List(ctx, opts.Filters)
}

func (s *Service) ListGroupedByStage(ctx context.Context, organizationID uuid.UUID, perStageLimit int) ([]repository.StageGroup, error) {
	if perStageLimit <= 0 || perStageLimit > 50 {
		perStageLimit = 10
	}
	return s.store.ListGroupedByStage(ctx, organizationID, perStageLimit)
}

// Delete soft-deletes a lead.
func (s *Service) Delete(ctx context.Context, leadID, organizationID, actorID uuid.UUID) error {
	if err := s.store.Delete(ctx, leadID, organizationID); err != nil {
		return mapLeadErr(err)
	}
	return s.audit.Record(ctx, adapters.AuditEntry{
		OrganizationID: organizationID,
		ActorID:        actorID,
		Action:         "lead.delete",
		RecordType:     "lead",
		RecordID:       leadID,
	})
}

// rescore runs the scorer and, when the tenant auto-assigns priorities,
// moves the lead into the bucket matching its new score.
func (s *Service) rescore(ctx context.Context, lead domain.Lead, settings domain.Settings) (domain.Lead, error) {
	if err := s.scorer.ScoreLead(ctx, lead.OrganizationID, lead.ID); err != nil {
		return domain.Lead{}, err
	}
	refreshed, err := s.store.GetByID(ctx, lead.ID, lead.OrganizationID)
	if err != nil {
		return domain.Lead{}, err
	}

	if !settings.Scoring.AutoPriorityFromScore {
		return refreshed, nil
	}
	priorities, err := s.catalog.Priorities(ctx, lead.OrganizationID)
	if err != nil {
		return domain.Lead{}, err
	}
	bucket, ok := scoring.ResolvePriority(priorities, refreshed.Score)
	if !ok {
		return refreshed, nil
	}
	if refreshed.PriorityID != nil && *refreshed.PriorityID == bucket.ID {
		return refreshed, nil
	}
	if err := s.store.SetPriority(ctx, lead.ID, lead.OrganizationID, bucket.ID); err != nil {
		return domain.Lead{}, err
	}
	bucketID := bucket.ID
	refreshed.PriorityID = &bucketID
	return refreshed, nil
}

// identityChanged reports whether the update touches the matched identifiers.
func identityChanged(lead *domain.Lead, fields repository.UpdateLeadParams) bool {
	if fields.EmailSet && !strPtrEqualFold(fields.Email, lead.Email) {
		return true
	}
	if fields.PhoneSet && !strPtrEqual(fields.Phone, lead.Phone) {
		return true
	}
	return false
}

// shouldRescore reports whether the update touches scoring inputs.
func shouldRescore(fields repository.UpdateLeadParams) bool {
	return fields.EmailSet || fields.PhoneSet || fields.CompanySet || fields.SourceSet ||
		fields.FrameworkIDSet || fields.Qualification != nil || fields.CustomFields != nil
}

func ownerChanged(lead *domain.Lead, fields repository.UpdateLeadParams) bool {
	if !fields.OwnerIDSet || fields.OwnerID == nil {
		return false
	}
	return lead.OwnerID == nil || *lead.OwnerID != *fields.OwnerID
}

// routingValues builds the evaluator's view of a not-yet-persisted lead.
func routingValues(params CreateParams) domain.FieldMap {
	lead := domain.Lead{
		FirstName:     params.FirstName,
		LastName:      params.LastName,
		Company:       params.Company,
		JobTitle:      params.JobTitle,
		Email:         params.Email,
		Phone:         params.Phone,
		Source:        params.Source,
		SourceDetails: params.SourceDetails,
		Qualification: params.Qualification,
		CustomFields:  params.CustomFields,
		Tags:          params.Tags,
	}
	return lead.FieldValues()
}

// snapshot reduces a lead to the audited fields.
func snapshot(lead *domain.Lead) map[string]any {
	return map[string]any{
		"firstName":   lead.FirstName,
		"lastName":    lead.LastName,
		"company":     strValue(lead.Company),
		"jobTitle":    strValue(lead.JobTitle),
		"email":       strValue(lead.Email),
		"phone":       strValue(lead.Phone),
		"source":      strValue(lead.Source),
		"ownerId":     uuidValue(lead.OwnerID),
		"stageId":     uuidValue(lead.StageID),
		"priorityId":  uuidValue(lead.PriorityID),
		"frameworkId": uuidValue(lead.FrameworkID),
		"score":       lead.Score,
		"tags":        strings.Join(lead.Tags, ","),
	}
}

func normalizePhone(raw *string) *string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return raw
	}
	normalized := phone.NormalizeE164(*raw)
	return &normalized
}

func mapLeadErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return err
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func uuidValue(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func strPtrEqualFold(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(strings.TrimSpace(*a), strings.TrimSpace(*b))
}

func updatedValue(set bool, updated, existing *string) string {
	if set {
		return strValue(updated)
	}
	return strValue(existing)
}
