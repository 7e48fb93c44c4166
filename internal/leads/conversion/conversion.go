// Package conversion implements the lead conversion orchestrator: one
// transaction that promotes a lead into a contact, optionally an account and
// an opportunity, and finalizes the lead as converted.
package conversion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"crmcore_backend/internal/events"
	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/internal/leads/repository"
	"crmcore_backend/platform/apperr"
	platformevents "crmcore_backend/platform/events"
	"crmcore_backend/platform/logger"
)

// Contact branch modes.
const (
	ContactCreateNew     = "create_new"
	ContactMergeExisting = "merge_existing"
	ContactNone          = "none"
)

// Account branch modes.
const (
	AccountCreateNew    = "create_new"
	AccountLinkExisting = "link_existing"
	AccountNone         = "none"
)

// Store is the repository slice the orchestrator needs; all of it runs inside
// one transaction.
type Store interface {
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (domain.Lead, error)
	GetSettings(ctx context.Context, organizationID uuid.UUID) (domain.Settings, error)
	GetStage(ctx context.Context, organizationID, stageID uuid.UUID) (domain.Stage, error)
	ListStages(ctx context.Context, organizationID uuid.UUID) ([]domain.Stage, error)

	CreateContact(ctx context.Context, c domain.Contact) (domain.Contact, error)
	GetContact(ctx context.Context, organizationID, contactID uuid.UUID) (domain.Contact, error)
	MergeContactFields(ctx context.Context, organizationID, contactID uuid.UUID, params repository.MergeContactParams) error

	CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error)
	GetAccount(ctx context.Context, organizationID, accountID uuid.UUID) (domain.Account, error)
	HasPrimaryContact(ctx context.Context, organizationID, accountID uuid.UUID) (bool, error)
	LinkContact(ctx context.Context, organizationID, accountID, contactID uuid.UUID, isPrimary bool) error

	CreateOpportunity(ctx context.Context, o domain.Opportunity) (domain.Opportunity, error)

	MarkConverted(ctx context.Context, id, organizationID uuid.UUID, change repository.ConvertChange) (domain.Lead, error)
	CopyActivitiesToContact(ctx context.Context, organizationID, leadID, contactID uuid.UUID) (int64, error)
	CopyNotesToContact(ctx context.Context, organizationID, leadID, contactID uuid.UUID) (int64, error)
	CopyDocumentsToContact(ctx context.Context, organizationID, leadID, contactID uuid.UUID) (int64, error)
	CreateActivity(ctx context.Context, a domain.Activity) error
}

// TxStore adds transactional execution over Store.
type TxStore interface {
	Store
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type repoStore struct {
	*repository.Repository
}

// NewStore adapts the pgx repository to TxStore.
func NewStore(r *repository.Repository) TxStore {
	return repoStore{r}
}

func (s repoStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.Repository.InTx(ctx, func(txRepo *repository.Repository) error {
		return fn(repoStore{txRepo})
	})
}

type Orchestrator struct {
	store TxStore
	bus   platformevents.Bus
	log   *logger.Logger
}

func NewOrchestrator(store TxStore, bus platformevents.Bus, log *logger.Logger) *Orchestrator {
	return &Orchestrator{store: store, bus: bus, log: log}
}

// ContactOptions selects the contact branch.
type ContactOptions struct {
	Mode string
	// ExistingContactID is required for merge_existing.
	ExistingContactID *uuid.UUID
}

// AccountOptions selects the account branch.
type AccountOptions struct {
	Mode string
	// Name overrides the account name for create_new.
	Name *string
	// ExistingAccountID is required for link_existing.
	ExistingAccountID *uuid.UUID
}

// OpportunityOptions configures the optional opportunity. Create is ignored
// when the tenant has opportunities disabled.
type OpportunityOptions struct {
	Create    bool
	Name      *string
	Amount    *float64
	Currency  string
	CloseDate *time.Time
}

// Params carries one conversion request.
type Params struct {
	LeadID         uuid.UUID
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
	Contact        ContactOptions
	Account        AccountOptions
	Opportunity    OpportunityOptions
	Notes          *string
}

// Result is the conversion outcome: the refreshed lead and the ids of
// whichever records the branches produced.
type Result struct {
	Lead          domain.Lead
	ContactID     *uuid.UUID
	AccountID     *uuid.UUID
	OpportunityID *uuid.UUID
}

// Convert runs the full conversion in a single transaction. Any branch
// failure rolls everything back; a converted lead never points at records
// that were not created.
func (o *Orchestrator) Convert(ctx context.Context, params Params) (Result, error) {
	lead, err := o.store.GetByID(ctx, params.LeadID, params.OrganizationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Result{}, apperr.NotFound("lead not found")
		}
		return Result{}, err
	}
	if lead.IsConverted() {
		return Result{}, apperr.InvalidState("lead is already converted")
	}
	if lead.IsDisqualified() {
		return Result{}, apperr.InvalidState("lead is disqualified")
	}
	if err := validateParams(params); err != nil {
		return Result{}, err
	}

	settings, err := o.store.GetSettings(ctx, params.OrganizationID)
	if err != nil {
		return Result{}, err
	}
	wonStage, err := o.resolveWonStage(ctx, params.OrganizationID, settings)
	if err != nil {
		return Result{}, err
	}

	var result Result
	err = o.store.InTx(ctx, func(tx Store) error {
		contactID, err := o.resolveContact(ctx, tx, &lead, params)
		if err != nil {
			return err
		}
		accountID, err := o.resolveAccount(ctx, tx, &lead, params, contactID)
		if err != nil {
			return err
		}
		opportunityID, err := o.resolveOpportunity(ctx, tx, &lead, params, settings, contactID, accountID)
		if err != nil {
			return err
		}

		updated, err := tx.MarkConverted(ctx, params.LeadID, params.OrganizationID, repository.ConvertChange{
			StageID: wonStage.ID,
			HistoryEntry: domain.StageHistoryEntry{
				StageID:         wonStage.ID,
				StageName:       wonStage.Name,
				EnteredAt:       time.Now().UTC(),
				EnteredBy:       params.ActorID,
				PreviousStageID: lead.StageID,
			},
			By:            params.ActorID,
			ContactID:     contactID,
			AccountID:     accountID,
			OpportunityID: opportunityID,
			Notes:         params.Notes,
		})
		if err != nil {
			return err
		}

		if contactID != nil {
			if err := o.copyForward(ctx, tx, params.OrganizationID, params.LeadID, *contactID, settings.Conversion); err != nil {
				return err
			}
		}

		if err := tx.CreateActivity(ctx, domain.Activity{
			ID:             uuid.New(),
			OrganizationID: params.OrganizationID,
			LeadID:         &params.LeadID,
			ContactID:      contactID,
			Type:           domain.ActivityConverted,
			Title:          "Lead converted",
			Metadata: map[string]any{
				"contactId":     uuidPtrString(contactID),
				"accountId":     uuidPtrString(accountID),
				"opportunityId": uuidPtrString(opportunityID),
			},
			ActorID: params.ActorID,
		}); err != nil {
			return err
		}

		result = Result{Lead: updated, ContactID: contactID, AccountID: accountID, OpportunityID: opportunityID}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	o.bus.Publish(ctx, events.LeadConverted{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        params.LeadID,
		TenantID:      params.OrganizationID,
		ContactID:     result.ContactID,
		AccountID:     result.AccountID,
		OpportunityID: result.OpportunityID,
		ConvertedBy:   params.ActorID,
	})
	o.log.LeadEvent("converted", params.OrganizationID.String(), params.LeadID.String())
	return result, nil
}

func validateParams(params Params) error {
	switch params.Contact.Mode {
	case ContactCreateNew, ContactNone:
	case ContactMergeExisting:
		if params.Contact.ExistingContactID == nil {
			return apperr.Validation("merge_existing requires an existing contact id")
		}
	default:
		return apperr.Validation(fmt.Sprintf("unknown contact mode %q", params.Contact.Mode))
	}
	switch params.Account.Mode {
	case AccountCreateNew, AccountNone:
	case AccountLinkExisting:
		if params.Account.ExistingAccountID == nil {
			return apperr.Validation("link_existing requires an existing account id")
		}
	default:
		return apperr.Validation(fmt.Sprintf("unknown account mode %q", params.Account.Mode))
	}
	return nil
}

// resolveContact executes the contact branch and returns the resolved id,
// nil for mode none.
func (o *Orchestrator) resolveContact(ctx context.Context, tx Store, lead *domain.Lead, params Params) (*uuid.UUID, error) {
	switch params.Contact.Mode {
	case ContactNone:
		return nil, nil

	case ContactMergeExisting:
		contactID := *params.Contact.ExistingContactID
		if _, err := tx.GetContact(ctx, params.OrganizationID, contactID); err != nil {
			if errors.Is(err, repository.ErrContactNotFound) {
				return nil, apperr.NotFound("contact not found")
			}
			return nil, err
		}
		leadID := lead.ID
		err := tx.MergeContactFields(ctx, params.OrganizationID, contactID, repository.MergeContactParams{
			Email:    lead.Email,
			Phone:    lead.Phone,
			JobTitle: lead.JobTitle,
			LeadID:   &leadID,
		})
		if err != nil {
			return nil, err
		}
		return &contactID, nil

	default: // create_new
		leadID := lead.ID
		contact, err := tx.CreateContact(ctx, domain.Contact{
			ID:             uuid.New(),
			OrganizationID: params.OrganizationID,
			FirstName:      lead.FirstName,
			LastName:       lead.LastName,
			Email:          lead.Email,
			Phone:          lead.Phone,
			JobTitle:       lead.JobTitle,
			Address:        firstAddress(lead.Addresses),
			SocialProfiles: lead.SocialProfiles,
			Source:         lead.Source,
			Tags:           lead.Tags,
			CustomFields:   lead.CustomFields,
			DoNotContact:   lead.DoNotContact,
			DoNotEmail:     lead.DoNotEmail,
			DoNotCall:      lead.DoNotCall,
			OwnerID:        lead.OwnerID,
			LeadID:         &leadID,
			CreatedBy:      params.ActorID,
		})
		if err != nil {
			return nil, err
		}
		return &contact.ID, nil
	}
}

// resolveAccount executes the account branch. For create_new the name falls
// back from the explicit override to the lead's company, then full name.
func (o *Orchestrator) resolveAccount(ctx context.Context, tx Store, lead *domain.Lead, params Params, contactID *uuid.UUID) (*uuid.UUID, error) {
	var accountID *uuid.UUID

	switch params.Account.Mode {
	case AccountNone:
		return nil, nil

	case AccountLinkExisting:
		id := *params.Account.ExistingAccountID
		if _, err := tx.GetAccount(ctx, params.OrganizationID, id); err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return nil, apperr.NotFound("account not found")
			}
			return nil, err
		}
		accountID = &id

	default: // create_new
		name := lead.DisplayName()
		if params.Account.Name != nil && strings.TrimSpace(*params.Account.Name) != "" {
			name = strings.TrimSpace(*params.Account.Name)
		}
		account, err := tx.CreateAccount(ctx, domain.Account{
			ID:             uuid.New(),
			OrganizationID: params.OrganizationID,
			Name:           name,
			Email:          lead.Email,
			Phone:          lead.Phone,
			Address:        firstAddress(lead.Addresses),
			OwnerID:        lead.OwnerID,
			CreatedBy:      params.ActorID,
		})
		if err != nil {
			return nil, err
		}
		accountID = &account.ID
	}

	if contactID != nil {
		hasPrimary, err := tx.HasPrimaryContact(ctx, params.OrganizationID, *accountID)
		if err != nil {
			return nil, err
		}
		if err := tx.LinkContact(ctx, params.OrganizationID, *accountID, *contactID, !hasPrimary); err != nil {
			return nil, err
		}
	}
	return accountID, nil
}

// resolveOpportunity executes the opportunity branch. Tenants with
// opportunities disabled skip it regardless of the request; the skip is
// logged, never an error.
func (o *Orchestrator) resolveOpportunity(ctx context.Context, tx Store, lead *domain.Lead, params Params, settings domain.Settings, contactID, accountID *uuid.UUID) (*uuid.UUID, error) {
	if !params.Opportunity.Create {
		return nil, nil
	}
	if !settings.Conversion.OpportunitiesEnabled {
		o.log.Info("opportunity creation skipped: opportunities disabled for tenant",
			"tenant_id", params.OrganizationID.String(), "lead_id", lead.ID.String())
		return nil, nil
	}

	name := lead.DisplayName() + " opportunity"
	if params.Opportunity.Name != nil && strings.TrimSpace(*params.Opportunity.Name) != "" {
		name = strings.TrimSpace(*params.Opportunity.Name)
	}
	currency := params.Opportunity.Currency
	if currency == "" {
		currency = "USD"
	}
	stage := settings.Conversion.DefaultOpportunityStage
	if stage == "" {
		stage = "new"
	}
	pipeline := settings.Conversion.DefaultOpportunityPipeline
	if pipeline == "" {
		pipeline = "default"
	}

	leadID := lead.ID
	opportunity, err := tx.CreateOpportunity(ctx, domain.Opportunity{
		ID:             uuid.New(),
		OrganizationID: params.OrganizationID,
		Name:           name,
		Stage:          stage,
		Pipeline:       pipeline,
		Amount:         params.Opportunity.Amount,
		Currency:       currency,
		CloseDate:      params.Opportunity.CloseDate,
		ContactID:      contactID,
		AccountID:      accountID,
		LeadID:         &leadID,
		OwnerID:        lead.OwnerID,
		CreatedBy:      params.ActorID,
	})
	if err != nil {
		return nil, err
	}
	return &opportunity.ID, nil
}

func (o *Orchestrator) copyForward(ctx context.Context, tx Store, organizationID, leadID, contactID uuid.UUID, settings domain.ConversionSettings) error {
	if settings.CopyActivities {
		if _, err := tx.CopyActivitiesToContact(ctx, organizationID, leadID, contactID); err != nil {
			return err
		}
	}
	if settings.CopyNotes {
		if _, err := tx.CopyNotesToContact(ctx, organizationID, leadID, contactID); err != nil {
			return err
		}
	}
	if settings.CopyDocuments {
		if _, err := tx.CopyDocumentsToContact(ctx, organizationID, leadID, contactID); err != nil {
			return err
		}
	}
	return nil
}

// resolveWonStage prefers the configured won stage, then any active stage
// flagged won.
func (o *Orchestrator) resolveWonStage(ctx context.Context, organizationID uuid.UUID, settings domain.Settings) (domain.Stage, error) {
	if settings.Stages.WonStageID != nil {
		if stage, err := o.store.GetStage(ctx, organizationID, *settings.Stages.WonStageID); err == nil {
			return stage, nil
		}
	}
	stages, err := o.store.ListStages(ctx, organizationID)
	if err != nil {
		return domain.Stage{}, err
	}
	for _, stage := range stages {
		if stage.IsWon && stage.IsActive {
			return stage, nil
		}
	}
	return domain.Stage{}, apperr.InvalidState("no won stage is configured")
}

func firstAddress(addresses []domain.Address) *domain.Address {
	if len(addresses) == 0 {
		return nil
	}
	addr := addresses[0]
	return &addr
}

func uuidPtrString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
