package management

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"crmcore_backend/internal/adapters"
	"crmcore_backend/internal/leads/catalog"
	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/internal/leads/dupcheck"
	"crmcore_backend/internal/leads/ownership"
	"crmcore_backend/internal/leads/repository"
	"crmcore_backend/internal/leads/routing"
	"crmcore_backend/platform/apperr"
	"crmcore_backend/platform/events"
	"crmcore_backend/platform/logger"
)

// fakeStore is an in-memory lead store shared by the collaborator fakes.
type fakeStore struct {
	leads      map[uuid.UUID]domain.Lead
	priorities []domain.Priority
	settings   domain.Settings
	rules      []domain.RoutingRule
	activities []domain.Activity
	listParams *repository.ListParams
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateLeadParams) (domain.Lead, error) {
	lead := domain.Lead{
		ID:             uuid.New(),
		OrganizationID: params.OrganizationID,
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Company:        params.Company,
		Email:          params.Email,
		Phone:          params.Phone,
		Source:         params.Source,
		OwnerID:        params.OwnerID,
		CreatedBy:      params.CreatedBy,
		StageID:        params.StageID,
		FrameworkID:    params.FrameworkID,
		Qualification:  params.Qualification,
		CustomFields:   params.CustomFields,
		Tags:           params.Tags,
		CreatedAt:      time.Now(),
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeStore) GetByID(_ context.Context, id, _ uuid.UUID) (domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) Update(_ context.Context, id, _ uuid.UUID, params repository.UpdateLeadParams) (domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	if params.EmailSet {
		lead.Email = params.Email
	}
	if params.PhoneSet {
		lead.Phone = params.Phone
	}
	if params.OwnerIDSet {
		lead.OwnerID = params.OwnerID
	}
	if params.Qualification != nil {
		lead.Qualification = params.Qualification
	}
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) SetPriority(_ context.Context, id, _ uuid.UUID, priorityID uuid.UUID) error {
	lead := f.leads[id]
	lead.PriorityID = &priorityID
	f.leads[id] = lead
	return nil
}

func (f *fakeStore) SetScore(_ context.Context, id, _ uuid.UUID, score int, breakdown map[string]float64) error {
	lead := f.leads[id]
	lead.Score = score
	lead.ScoreBreakdown = breakdown
	f.leads[id] = lead
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id, _ uuid.UUID) error {
	if _, ok := f.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeStore) List(_ context.Context, params repository.ListParams) ([]domain.Lead, int, error) {
	f.listParams = &params
	out := make([]domain.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		if params.OwnerID != nil && (lead.OwnerID == nil || *lead.OwnerID != *params.OwnerID) {
			continue
		}
		out = append(out, lead)
	}
	return out, len(out), nil
}

func (f *fakeStore) ListGroupedByStage(_ context.Context, _ uuid.UUID, _ int) ([]repository.StageGroup, error) {
	return nil, nil
}

func (f *fakeStore) GetFramework(_ context.Context, _, _ uuid.UUID) (domain.QualificationFramework, error) {
	return domain.QualificationFramework{}, repository.ErrFrameworkNotFound
}

func (f *fakeStore) CreateActivity(_ context.Context, a domain.Activity) error {
	f.activities = append(f.activities, a)
	return nil
}

// dupcheck.MatchStore over the same lead map.
func (f *fakeStore) FindActiveLeadByEmail(_ context.Context, _ uuid.UUID, email string, excludeID *uuid.UUID) (repository.MatchRecord, error) {
	for _, lead := range f.leads {
		if excludeID != nil && lead.ID == *excludeID {
			continue
		}
		if lead.Email != nil && strings.EqualFold(strings.TrimSpace(*lead.Email), email) {
			return repository.MatchRecord{ID: lead.ID, Name: lead.FullName()}, nil
		}
	}
	return repository.MatchRecord{}, repository.ErrNotFound
}

func (f *fakeStore) FindActiveLeadByPhone(_ context.Context, _ uuid.UUID, phoneNumber string, excludeID *uuid.UUID) (repository.MatchRecord, error) {
	for _, lead := range f.leads {
		if excludeID != nil && lead.ID == *excludeID {
			continue
		}
		if lead.Phone != nil && *lead.Phone == phoneNumber {
			return repository.MatchRecord{ID: lead.ID, Name: lead.FullName()}, nil
		}
	}
	return repository.MatchRecord{}, repository.ErrNotFound
}

func (f *fakeStore) FindContactByEmail(_ context.Context, _ uuid.UUID, _ string) (repository.MatchRecord, error) {
	return repository.MatchRecord{}, repository.ErrContactNotFound
}

func (f *fakeStore) FindContactByPhone(_ context.Context, _ uuid.UUID, _ string) (repository.MatchRecord, error) {
	return repository.MatchRecord{}, repository.ErrContactNotFound
}

func (f *fakeStore) ListLeadCandidates(_ context.Context, _ uuid.UUID, _, _ string, _ *uuid.UUID, _ int) ([]repository.Candidate, error) {
	return nil, nil
}

func (f *fakeStore) ListContactCandidates(_ context.Context, _ uuid.UUID, _, _ string, _ int) ([]repository.Candidate, error) {
	return nil, nil
}

func (f *fakeStore) ListAccountCandidatesByDomain(_ context.Context, _ uuid.UUID, _ string, _ int) ([]repository.Candidate, error) {
	return nil, nil
}

// routing.RuleStore.
func (f *fakeStore) ListActiveRoutingRules(_ context.Context, _ uuid.UUID) ([]domain.RoutingRule, error) {
	return f.rules, nil
}

func (f *fakeStore) ClaimRoundRobinIndex(_ context.Context, _, _ uuid.UUID) (int, error) {
	return 0, nil
}

func (f *fakeStore) ListTeamMemberIDs(_ context.Context, _, _ uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

// catalog.Store.
func (f *fakeStore) ListStages(_ context.Context, _ uuid.UUID) ([]domain.Stage, error) {
	return nil, nil
}

func (f *fakeStore) ListActivePriorities(_ context.Context, _ uuid.UUID) ([]domain.Priority, error) {
	return f.priorities, nil
}

func (f *fakeStore) ListActiveFrameworks(_ context.Context, _ uuid.UUID) ([]domain.QualificationFramework, error) {
	return nil, nil
}

func (f *fakeStore) ListDisqualificationReasons(_ context.Context, _ uuid.UUID) ([]domain.DisqualificationReason, error) {
	return nil, nil
}

func (f *fakeStore) GetSettings(_ context.Context, _ uuid.UUID) (domain.Settings, error) {
	return f.settings, nil
}

func (f *fakeStore) UpsertSettings(_ context.Context, settings domain.Settings) error {
	f.settings = settings
	return nil
}

// ownership collaborators.
type nopRoles struct{}

func (nopRoles) FindRoleIDByName(_ context.Context, _ uuid.UUID, _ string) (uuid.UUID, error) {
	return uuid.Nil, errors.New("no directory")
}

type recordingCollaborators struct{ added []ownership.Collaborator }

func (r *recordingCollaborators) AddCollaborator(_ context.Context, c ownership.Collaborator) error {
	r.added = append(r.added, c)
	return nil
}

type recordingAudit struct {
	entries []adapters.AuditEntry
	err     error
}

func (a *recordingAudit) Record(_ context.Context, entry adapters.AuditEntry) error {
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, entry)
	return nil
}

// fixedScorer always writes the same score so priority resolution is
// deterministic.
type fixedScorer struct {
	store *fakeStore
	score int
}

func (s *fixedScorer) ScoreLead(_ context.Context, _, leadID uuid.UUID) error {
	return s.store.SetScore(context.Background(), leadID, uuid.Nil, s.score, nil)
}

type fixture struct {
	svc           *Service
	store         *fakeStore
	collaborators *recordingCollaborators
	audit         *recordingAudit
	orgID         uuid.UUID
	actorID       uuid.UUID
}

func newFixture(t *testing.T, score int) *fixture {
	t.Helper()
	orgID := uuid.New()
	store := &fakeStore{
		leads:    map[uuid.UUID]domain.Lead{},
		settings: domain.DefaultSettings(orgID),
		priorities: []domain.Priority{
			{ID: uuid.New(), Name: "Hot", ScoreMin: 70, ScoreMax: 100, SortOrder: 0, IsActive: true},
			{ID: uuid.New(), Name: "Cold", ScoreMin: 0, ScoreMax: 69, SortOrder: 1, IsActive: true},
		},
	}
	log := logger.New("test")
	bus := events.NewInMemoryBus(log)
	collaborators := &recordingCollaborators{}
	audit := &recordingAudit{}

	svc := NewService(
		store,
		dupcheck.NewChecker(store),
		routing.NewEvaluator(store, log),
		&fixedScorer{store: store, score: score},
		catalog.NewService(store, nil, log),
		ownership.NewHandler(nopRoles{}, collaborators, store, bus, log),
		audit,
		bus,
		log,
	)
	return &fixture{svc: svc, store: store, collaborators: collaborators, audit: audit, orgID: orgID, actorID: uuid.New()}
}

func (f *fixture) create(t *testing.T, email string) domain.Lead {
	t.Helper()
	lead, err := f.svc.Create(context.Background(), CreateParams{
		OrganizationID: f.orgID,
		ActorID:        f.actorID,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          &email,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return lead
}

func TestCreateAssignsRoutedOwnerAndPriority(t *testing.T) {
	f := newFixture(t, 85)
	routedOwner := uuid.New()
	f.store.rules = []domain.RoutingRule{{
		ID:              uuid.New(),
		IsActive:        true,
		AssignmentType:  domain.AssignSpecificUser,
		AssignedUserIDs: []uuid.UUID{routedOwner},
	}}

	lead := f.create(t, "ada@acme.com")

	if lead.OwnerID == nil || *lead.OwnerID != routedOwner {
		t.Errorf("owner = %v, want routed owner %s", lead.OwnerID, routedOwner)
	}
	if lead.Score != 85 {
		t.Errorf("score = %d, want 85", lead.Score)
	}
	if lead.PriorityID == nil || *lead.PriorityID != f.store.priorities[0].ID {
		t.Errorf("priority = %v, want Hot bucket", lead.PriorityID)
	}
	if len(f.store.activities) != 1 || f.store.activities[0].Type != domain.ActivityLeadCreated {
		t.Errorf("activities = %+v", f.store.activities)
	}
	if len(f.audit.entries) != 1 || f.audit.entries[0].Action != "lead.create" {
		t.Errorf("audit = %+v", f.audit.entries)
	}
}

func TestCreateNoRuleFallsBackToCreator(t *testing.T) {
	f := newFixture(t, 10)

	lead := f.create(t, "ada@acme.com")
	if lead.OwnerID == nil || *lead.OwnerID != f.actorID {
		t.Errorf("owner = %v, want creator %s", lead.OwnerID, f.actorID)
	}
}

func TestCreateDuplicateEmailBlocked(t *testing.T) {
	f := newFixture(t, 10)
	f.create(t, "ada@acme.com")

	email := "ADA@ACME.COM"
	_, err := f.svc.Create(context.Background(), CreateParams{
		OrganizationID: f.orgID,
		ActorID:        f.actorID,
		FirstName:      "Other",
		LastName:       "Person",
		Email:          &email,
	})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindConflict {
		t.Fatalf("err = %v, want Conflict", err)
	}
}

func TestUpdateOwnEmailDoesNotConflict(t *testing.T) {
	f := newFixture(t, 10)
	lead := f.create(t, "ada@acme.com")

	same := "Ada@Acme.com"
	_, err := f.svc.Update(context.Background(), lead.ID, UpdateParams{
		OrganizationID: f.orgID,
		ActorID:        f.actorID,
		Fields:         repository.UpdateLeadParams{Email: &same, EmailSet: true},
	})
	if err != nil {
		t.Fatalf("case-only email change must not conflict with itself: %v", err)
	}
}

func TestUpdateOwnerChangeTriggersTransfer(t *testing.T) {
	f := newFixture(t, 10)
	f.store.settings.Ownership.AddPreviousOwnerToTeam = true
	lead := f.create(t, "ada@acme.com")
	previousOwner := *lead.OwnerID
	newOwner := uuid.New()

	_, err := f.svc.Update(context.Background(), lead.ID, UpdateParams{
		OrganizationID: f.orgID,
		ActorID:        f.actorID,
		Fields:         repository.UpdateLeadParams{OwnerID: &newOwner, OwnerIDSet: true},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(f.collaborators.added) != 1 {
		t.Fatalf("collaborators = %d, want 1", len(f.collaborators.added))
	}
	if f.collaborators.added[0].UserID != previousOwner {
		t.Errorf("collaborator = %s, want previous owner %s", f.collaborators.added[0].UserID, previousOwner)
	}
	var ownershipActivity bool
	for _, a := range f.store.activities {
		if a.Type == domain.ActivityOwnershipChanged {
			ownershipActivity = true
		}
	}
	if !ownershipActivity {
		t.Error("ownership activity not recorded")
	}
}

func TestUpdateConvertedLeadBlockedByDefault(t *testing.T) {
	f := newFixture(t, 10)
	lead := f.create(t, "ada@acme.com")
	stored := f.store.leads[lead.ID]
	now := time.Now()
	stored.ConvertedAt = &now
	f.store.leads[lead.ID] = stored

	first := "Edited"
	_, err := f.svc.Update(context.Background(), lead.ID, UpdateParams{
		OrganizationID: f.orgID,
		ActorID:        f.actorID,
		Fields:         repository.UpdateLeadParams{FirstName: &first},
	})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindInvalidState {
		t.Fatalf("err = %v, want InvalidState", err)
	}

	// The tenant can opt in to post-conversion edits.
	f.store.settings.Conversion.AllowFieldEditAfterConvert = true
	if _, err := f.svc.Update(context.Background(), lead.ID, UpdateParams{
		OrganizationID: f.orgID,
		ActorID:        f.actorID,
		Fields:         repository.UpdateLeadParams{FirstName: &first},
	}); err != nil {
		t.Fatalf("opted-in edit rejected: %v", err)
	}
}

func TestListMyScopeFiltersByActor(t *testing.T) {
	f := newFixture(t, 10)
	f.create(t, "ada@acme.com")

	_, _, err := f.svc.List(context.Background(), ListOptions{
		Filters: repository.ListParams{OrganizationID: f.orgID},
		Scope:   "my",
		ActorID: f.actorID,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if f.store.listParams.OwnerID == nil || *f.store.listParams.OwnerID != f.actorID {
		t.Errorf("ownerId filter = %v, want actor %s", f.store.listParams.OwnerID, f.actorID)
	}
}

func TestDeleteUnknownLead(t *testing.T) {
	f := newFixture(t, 10)
	err := f.svc.Delete(context.Background(), uuid.New(), f.orgID, f.actorID)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindNotFound {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestAuditFailureFailsOperation(t *testing.T) {
	f := newFixture(t, 10)
	f.audit.err = errors.New("audit store unavailable")

	_, err := f.svc.Create(context.Background(), CreateParams{
		OrganizationID: f.orgID,
		ActorID:        f.actorID,
		FirstName:      "Ada",
		LastName:       "Lovelace",
	})
	if !errors.Is(err, f.audit.err) {
		t.Fatalf("Create with failing audit: err = %v, want %v", err, f.audit.err)
	}

	f.audit.err = nil
	lead := f.create(t, "ada@acme.test")
	f.audit.err = errors.New("audit store unavailable")

	if err := f.svc.Delete(context.Background(), lead.ID, f.orgID, f.actorID); !errors.Is(err, f.audit.err) {
		t.Fatalf("Delete with failing audit: err = %v, want %v", err, f.audit.err)
	}
}
