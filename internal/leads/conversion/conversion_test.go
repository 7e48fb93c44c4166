package conversion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/internal/leads/repository"
	"crmcore_backend/platform/apperr"
	"crmcore_backend/platform/events"
	"crmcore_backend/platform/logger"
)

type fakeConvStore struct {
	leads    map[uuid.UUID]domain.Lead
	settings domain.Settings
	wonStage domain.Stage

	contacts      map[uuid.UUID]domain.Contact
	accounts      map[uuid.UUID]domain.Account
	opportunities []domain.Opportunity
	links         []string
	merged        *repository.MergeContactParams
	copied        []string
	activities    []domain.Activity

	failCreateOpportunity bool
}

func (f *fakeConvStore) GetByID(_ context.Context, id, _ uuid.UUID) (domain.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeConvStore) GetSettings(_ context.Context, _ uuid.UUID) (domain.Settings, error) {
	return f.settings, nil
}

func (f *fakeConvStore) GetStage(_ context.Context, _, stageID uuid.UUID) (domain.Stage, error) {
	if stageID == f.wonStage.ID {
		return f.wonStage, nil
	}
	return domain.Stage{}, repository.ErrStageNotFound
}

func (f *fakeConvStore) ListStages(_ context.Context, _ uuid.UUID) ([]domain.Stage, error) {
	return []domain.Stage{f.wonStage}, nil
}

func (f *fakeConvStore) CreateContact(_ context.Context, c domain.Contact) (domain.Contact, error) {
	f.contacts[c.ID] = c
	return c, nil
}

func (f *fakeConvStore) GetContact(_ context.Context, _, contactID uuid.UUID) (domain.Contact, error) {
	c, ok := f.contacts[contactID]
	if !ok {
		return domain.Contact{}, repository.ErrContactNotFound
	}
	return c, nil
}

func (f *fakeConvStore) MergeContactFields(_ context.Context, _, contactID uuid.UUID, params repository.MergeContactParams) error {
	if _, ok := f.contacts[contactID]; !ok {
		return repository.ErrContactNotFound
	}
	f.merged = &params
	return nil
}

func (f *fakeConvStore) CreateAccount(_ context.Context, a domain.Account) (domain.Account, error) {
	f.accounts[a.ID] = a
	return a, nil
}

func (f *fakeConvStore) GetAccount(_ context.Context, _, accountID uuid.UUID) (domain.Account, error) {
	a, ok := f.accounts[accountID]
	if !ok {
		return domain.Account{}, repository.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeConvStore) HasPrimaryContact(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return len(f.links) > 0, nil
}

func (f *fakeConvStore) LinkContact(_ context.Context, _, accountID, contactID uuid.UUID, isPrimary bool) error {
	suffix := ""
	if isPrimary {
		suffix = ":primary"
	}
	f.links = append(f.links, accountID.String()+"/"+contactID.String()+suffix)
	return nil
}

func (f *fakeConvStore) CreateOpportunity(_ context.Context, o domain.Opportunity) (domain.Opportunity, error) {
	if f.failCreateOpportunity {
		return domain.Opportunity{}, errors.New("insert failed")
	}
	f.opportunities = append(f.opportunities, o)
	return o, nil
}

func (f *fakeConvStore) MarkConverted(_ context.Context, id, _ uuid.UUID, change repository.ConvertChange) (domain.Lead, error) {
	lead := f.leads[id]
	now := time.Now()
	lead.ConvertedAt = &now
	lead.ConvertedBy = &change.By
	lead.ConvertedContactID = change.ContactID
	lead.ConvertedAccountID = change.AccountID
	lead.ConvertedOpportunityID = change.OpportunityID
	stageID := change.StageID
	lead.StageID = &stageID
	lead.StageHistory = append(lead.StageHistory, change.HistoryEntry)
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeConvStore) CopyActivitiesToContact(_ context.Context, _, _, _ uuid.UUID) (int64, error) {
	f.copied = append(f.copied, "activities")
	return 1, nil
}

func (f *fakeConvStore) CopyNotesToContact(_ context.Context, _, _, _ uuid.UUID) (int64, error) {
	f.copied = append(f.copied, "notes")
	return 1, nil
}

func (f *fakeConvStore) CopyDocumentsToContact(_ context.Context, _, _, _ uuid.UUID) (int64, error) {
	f.copied = append(f.copied, "documents")
	return 1, nil
}

func (f *fakeConvStore) CreateActivity(_ context.Context, a domain.Activity) error {
	f.activities = append(f.activities, a)
	return nil
}

// InTx mimics rollback by restoring lead state on error; the entity maps are
// not restored because assertions only read them on success.
func (f *fakeConvStore) InTx(_ context.Context, fn func(tx Store) error) error {
	saved := make(map[uuid.UUID]domain.Lead, len(f.leads))
	for k, v := range f.leads {
		saved[k] = v
	}
	if err := fn(f); err != nil {
		f.leads = saved
		return err
	}
	return nil
}

func newFixture(t *testing.T) (*Orchestrator, *fakeConvStore, Params) {
	t.Helper()
	orgID := uuid.New()
	leadID := uuid.New()
	company := "Acme"
	email := "ada@acme.com"

	store := &fakeConvStore{
		leads: map[uuid.UUID]domain.Lead{
			leadID: {
				ID:             leadID,
				OrganizationID: orgID,
				FirstName:      "Ada",
				LastName:       "Lovelace",
				Company:        &company,
				Email:          &email,
			},
		},
		settings: domain.DefaultSettings(orgID),
		wonStage: domain.Stage{ID: uuid.New(), Name: "Won", IsWon: true, IsActive: true},
		contacts: map[uuid.UUID]domain.Contact{},
		accounts: map[uuid.UUID]domain.Account{},
	}
	orch := NewOrchestrator(store, events.NewInMemoryBus(logger.New("test")), logger.New("test"))
	params := Params{
		LeadID:         leadID,
		OrganizationID: orgID,
		ActorID:        uuid.New(),
		Contact:        ContactOptions{Mode: ContactCreateNew},
		Account:        AccountOptions{Mode: AccountCreateNew},
		Opportunity:    OpportunityOptions{Create: true},
	}
	return orch, store, params
}

func TestConvertFullBranch(t *testing.T) {
	orch, store, params := newFixture(t)

	result, err := orch.Convert(context.Background(), params)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.ContactID == nil || result.AccountID == nil || result.OpportunityID == nil {
		t.Fatalf("expected all ids set, got %+v", result)
	}
	if !result.Lead.IsConverted() {
		t.Error("lead not marked converted")
	}
	if result.Lead.StageID == nil || *result.Lead.StageID != store.wonStage.ID {
		t.Errorf("stage = %v, want won stage", result.Lead.StageID)
	}

	contact := store.contacts[*result.ContactID]
	if contact.FirstName != "Ada" || contact.Email == nil || *contact.Email != "ada@acme.com" {
		t.Errorf("contact snapshot = %+v", contact)
	}
	account := store.accounts[*result.AccountID]
	if account.Name != "Acme" {
		t.Errorf("account name = %q, want lead company", account.Name)
	}
	if len(store.links) != 1 || store.links[0] != account.ID.String()+"/"+contact.ID.String()+":primary" {
		t.Errorf("links = %v, want one primary association", store.links)
	}
	if len(store.copied) != 3 {
		t.Errorf("copy-forward ran %v, want activities+notes+documents", store.copied)
	}
}

func TestConvertAccountNameFallsBackToFullName(t *testing.T) {
	orch, store, params := newFixture(t)
	lead := store.leads[params.LeadID]
	lead.Company = nil
	store.leads[params.LeadID] = lead

	result, err := orch.Convert(context.Background(), params)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := store.accounts[*result.AccountID].Name; got != "Ada Lovelace" {
		t.Errorf("account name = %q, want full name fallback", got)
	}
}

func TestConvertOpportunityDisabledSkipsBranch(t *testing.T) {
	orch, store, params := newFixture(t)
	store.settings.Conversion.OpportunitiesEnabled = false

	result, err := orch.Convert(context.Background(), params)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.OpportunityID != nil {
		t.Error("opportunity must be skipped when disabled")
	}
	if result.ContactID == nil || result.AccountID == nil {
		t.Error("other branches must still run")
	}
}

func TestConvertContactNoneSkipsCopyForward(t *testing.T) {
	orch, store, params := newFixture(t)
	params.Contact.Mode = ContactNone
	params.Account.Mode = AccountNone
	params.Opportunity.Create = false

	result, err := orch.Convert(context.Background(), params)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.ContactID != nil || result.AccountID != nil {
		t.Errorf("expected no records, got %+v", result)
	}
	if len(store.copied) != 0 {
		t.Errorf("copy-forward must not run without a contact, got %v", store.copied)
	}
	if !result.Lead.IsConverted() {
		t.Error("lead must still finalize as converted")
	}
}

func TestConvertMergeExisting(t *testing.T) {
	orch, store, params := newFixture(t)
	existing := domain.Contact{ID: uuid.New(), FirstName: "Existing"}
	store.contacts[existing.ID] = existing
	params.Contact = ContactOptions{Mode: ContactMergeExisting, ExistingContactID: &existing.ID}

	result, err := orch.Convert(context.Background(), params)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if result.ContactID == nil || *result.ContactID != existing.ID {
		t.Errorf("contactId = %v, want existing %s", result.ContactID, existing.ID)
	}
	if store.merged == nil || store.merged.Email == nil || *store.merged.Email != "ada@acme.com" {
		t.Errorf("merged params = %+v, want lead email offered", store.merged)
	}
}

func TestConvertBranchFailureRollsBack(t *testing.T) {
	orch, store, params := newFixture(t)
	store.failCreateOpportunity = true

	_, err := orch.Convert(context.Background(), params)
	if err == nil {
		t.Fatal("expected error from opportunity branch")
	}
	lead := store.leads[params.LeadID]
	if lead.IsConverted() {
		t.Error("failed conversion must not leave the lead converted")
	}
}

func TestConvertTerminalGuards(t *testing.T) {
	orch, store, params := newFixture(t)
	lead := store.leads[params.LeadID]
	now := time.Now()
	lead.DisqualifiedAt = &now
	store.leads[params.LeadID] = lead

	_, err := orch.Convert(context.Background(), params)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindInvalidState {
		t.Fatalf("err = %v, want InvalidState for disqualified lead", err)
	}
}

func TestConvertValidatesModes(t *testing.T) {
	orch, _, params := newFixture(t)
	params.Contact.Mode = "weird"

	_, err := orch.Convert(context.Background(), params)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("err = %v, want Validation for unknown mode", err)
	}
}
