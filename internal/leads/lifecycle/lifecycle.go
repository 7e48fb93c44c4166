// Package lifecycle implements the stage transition state machine and
// disqualification.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crmcore_backend/internal/events"
	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/internal/leads/repository"
	"crmcore_backend/platform/apperr"
	platformevents "crmcore_backend/platform/events"
	"crmcore_backend/platform/logger"
)

// Store is the repository slice the state machine needs. Inside a transition
// all writes run on the transactional variant handed out by TxStore.InTx.
type Store interface {
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (domain.Lead, error)
	GetStage(ctx context.Context, organizationID, stageID uuid.UUID) (domain.Stage, error)
	ListStages(ctx context.Context, organizationID uuid.UUID) ([]domain.Stage, error)
	GetSettings(ctx context.Context, organizationID uuid.UUID) (domain.Settings, error)
	GetFramework(ctx context.Context, organizationID, frameworkID uuid.UUID) (domain.QualificationFramework, error)
	GetDisqualificationReason(ctx context.Context, organizationID, reasonID uuid.UUID) (domain.DisqualificationReason, error)
	ApplyStageChange(ctx context.Context, id, organizationID uuid.UUID, change repository.StageChange) (domain.Lead, error)
	MarkDisqualified(ctx context.Context, id, organizationID uuid.UUID, change repository.DisqualifyChange) (domain.Lead, error)
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

type Service struct {
	store TxStore
	bus   platformevents.Bus
	log   *logger.Logger
}

func NewService(store TxStore, bus platformevents.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log}
}

// ChangeStageParams carries one stage transition request. FieldUpdates may
// mix system, qualification, and custom keys; they are split and persisted
// atomically with the stage move.
type ChangeStageParams struct {
	LeadID         uuid.UUID
	OrganizationID uuid.UUID
	TargetStageID  uuid.UUID
	FieldUpdates   domain.FieldMap
	UnlockReason   *string
	ActorID        uuid.UUID
}

// ChangeStage runs the guard chain in order and applies the transition in a
// single transaction. Guards: terminal lead, target stage exists and is
// active, backward-move lock, required-field gate.
func (s *Service) ChangeStage(ctx context.Context, params ChangeStageParams) (domain.Lead, error) {
	lead, err := s.store.GetByID(ctx, params.LeadID, params.OrganizationID)
	if err != nil {
		return domain.Lead{}, mapLeadErr(err)
	}
	if lead.IsTerminal() {
		return domain.Lead{}, terminalErr(&lead)
	}

	target, err := s.store.GetStage(ctx, params.OrganizationID, params.TargetStageID)
	if err != nil {
		return domain.Lead{}, mapStageErr(err)
	}
	if !target.IsActive {
		return domain.Lead{}, apperr.NotFound("stage is not active")
	}

	settings, err := s.store.GetSettings(ctx, params.OrganizationID)
	if err != nil {
		return domain.Lead{}, err
	}

	if err := s.guardBackwardMove(ctx, &lead, target, settings, params.UnlockReason); err != nil {
		return domain.Lead{}, err
	}

	merged := lead.FieldValues().Merge(params.FieldUpdates)
	if err := s.guardRequiredFields(ctx, &lead, target, merged, params.OrganizationID); err != nil {
		return domain.Lead{}, err
	}

	change := s.buildStageChange(&lead, target, params)

	var updated domain.Lead
	err = s.store.InTx(ctx, func(tx Store) error {
		var txErr error
		updated, txErr = tx.ApplyStageChange(ctx, params.LeadID, params.OrganizationID, change)
		if txErr != nil {
			return txErr
		}
		return tx.CreateActivity(ctx, domain.Activity{
			ID:             uuid.New(),
			OrganizationID: params.OrganizationID,
			LeadID:         &params.LeadID,
			Type:           domain.ActivityStageChanged,
			Title:          fmt.Sprintf("Stage changed to %s", target.Name),
			Metadata: map[string]any{
				"previousStageId": uuidPtrString(lead.StageID),
				"newStageId":      target.ID.String(),
			},
			ActorID: params.ActorID,
		})
	})
	if err != nil {
		return domain.Lead{}, mapLeadErr(err)
	}

	s.bus.Publish(ctx, events.LeadStageChanged{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          params.LeadID,
		TenantID:        params.OrganizationID,
		PreviousStageID: lead.StageID,
		StageID:         target.ID,
		ChangedBy:       params.ActorID,
	})
	s.log.LeadEvent("stage_changed", params.OrganizationID.String(), params.LeadID.String())
	return updated, nil
}

// guardBackwardMove enforces the tenant's backward lock: moving to a stage
// with a lower sort order than the current one requires an unlock reason.
func (s *Service) guardBackwardMove(ctx context.Context, lead *domain.Lead, target domain.Stage, settings domain.Settings, unlockReason *string) error {
	if !settings.Stages.LockPreviousStages || lead.StageID == nil {
		return nil
	}
	current, err := s.store.GetStage(ctx, lead.OrganizationID, *lead.StageID)
	if err != nil {
		// A deleted current stage cannot lock the lead in place.
		return nil
	}
	if target.SortOrder >= current.SortOrder {
		return nil
	}
	if unlockReason == nil || *unlockReason == "" {
		return apperr.InvalidState("moving back to a previous stage requires an unlock reason")
	}
	return nil
}

// guardRequiredFields checks the target stage's gate against the lead's
// values merged with the pending updates. Entries may be OR-groups.
func (s *Service) guardRequiredFields(ctx context.Context, lead *domain.Lead, target domain.Stage, merged domain.FieldMap, organizationID uuid.UUID) error {
	if len(target.RequiredFields) == 0 {
		return nil
	}

	var framework *domain.QualificationFramework
	if lead.FrameworkID != nil {
		if fw, err := s.store.GetFramework(ctx, organizationID, *lead.FrameworkID); err == nil {
			framework = &fw
		}
	}

	missing := []apperr.MissingField{}
	for _, entry := range target.RequiredFields {
		alternatives := domain.RequiredFieldAlternatives(entry)
		if len(alternatives) == 0 {
			continue
		}
		satisfied := false
		for _, key := range alternatives {
			if value, ok := domain.LookupField(merged, key); ok && !value.IsBlank() {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, apperr.MissingField{
				FieldKey:   entry,
				FieldLabel: framework.FieldLabel(alternatives[0]),
			})
		}
	}
	if len(missing) > 0 {
		return apperr.MissingFields(
			fmt.Sprintf("stage %q requires fields that are not filled", target.Name), missing)
	}
	return nil
}

func (s *Service) buildStageChange(lead *domain.Lead, target domain.Stage, params ChangeStageParams) repository.StageChange {
	system, qualification, custom := domain.SplitFieldUpdates(params.FieldUpdates)

	change := repository.StageChange{
		StageID: target.ID,
		HistoryEntry: domain.StageHistoryEntry{
			StageID:         target.ID,
			StageName:       target.Name,
			EnteredAt:       time.Now().UTC(),
			EnteredBy:       params.ActorID,
			PreviousStageID: lead.StageID,
			UnlockReason:    params.UnlockReason,
		},
		SystemUpdates: system,
	}
	if len(qualification) > 0 {
		change.Qualification = lead.Qualification.Merge(qualification)
	}
	if len(custom) > 0 {
		change.CustomFields = lead.CustomFields.Merge(custom)
	}
	return change
}

// DisqualifyParams carries one disqualification request.
type DisqualifyParams struct {
	LeadID         uuid.UUID
	OrganizationID uuid.UUID
	ReasonID       uuid.UUID
	Notes          *string
	ActorID        uuid.UUID
}

// Disqualify moves the lead to the configured lost stage and records the
// disqualification fields. No required-field gating applies.
func (s *Service) Disqualify(ctx context.Context, params DisqualifyParams) (domain.Lead, error) {
	lead, err := s.store.GetByID(ctx, params.LeadID, params.OrganizationID)
	if err != nil {
		return domain.Lead{}, mapLeadErr(err)
	}
	if lead.IsTerminal() {
		return domain.Lead{}, terminalErr(&lead)
	}

	reason, err := s.store.GetDisqualificationReason(ctx, params.OrganizationID, params.ReasonID)
	if err != nil {
		return domain.Lead{}, mapReasonErr(err)
	}

	lostStage, err := s.resolveLostStage(ctx, params.OrganizationID)
	if err != nil {
		return domain.Lead{}, err
	}

	change := repository.DisqualifyChange{
		StageID: lostStage.ID,
		HistoryEntry: domain.StageHistoryEntry{
			StageID:         lostStage.ID,
			StageName:       lostStage.Name,
			EnteredAt:       time.Now().UTC(),
			EnteredBy:       params.ActorID,
			PreviousStageID: lead.StageID,
		},
		ReasonID: params.ReasonID,
		Notes:    params.Notes,
		By:       params.ActorID,
	}

	var updated domain.Lead
	err = s.store.InTx(ctx, func(tx Store) error {
		var txErr error
		updated, txErr = tx.MarkDisqualified(ctx, params.LeadID, params.OrganizationID, change)
		if txErr != nil {
			return txErr
		}
		return tx.CreateActivity(ctx, domain.Activity{
			ID:             uuid.New(),
			OrganizationID: params.OrganizationID,
			LeadID:         &params.LeadID,
			Type:           domain.ActivityDisqualified,
			Title:          fmt.Sprintf("Disqualified: %s", reason.Name),
			Metadata:       map[string]any{"reasonId": reason.ID.String()},
			ActorID:        params.ActorID,
		})
	})
	if err != nil {
		return domain.Lead{}, mapLeadErr(err)
	}

	s.bus.Publish(ctx, events.LeadDisqualified{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         params.LeadID,
		TenantID:       params.OrganizationID,
		ReasonID:       params.ReasonID,
		DisqualifiedBy: params.ActorID,
	})
	s.log.LeadEvent("disqualified", params.OrganizationID.String(), params.LeadID.String())
	return updated, nil
}

// resolveLostStage prefers the configured lost stage, then any stage flagged
// lost, and fails only when the tenant has no lost stage at all.
func (s *Service) resolveLostStage(ctx context.Context, organizationID uuid.UUID) (domain.Stage, error) {
	settings, err := s.store.GetSettings(ctx, organizationID)
	if err != nil {
		return domain.Stage{}, err
	}
	if settings.Stages.LostStageID != nil {
		if stage, err := s.store.GetStage(ctx, organizationID, *settings.Stages.LostStageID); err == nil {
			return stage, nil
		}
	}
	stages, err := s.store.ListStages(ctx, organizationID)
	if err != nil {
		return domain.Stage{}, err
	}
	for _, stage := range stages {
		if stage.IsLost && stage.IsActive {
			return stage, nil
		}
	}
	return domain.Stage{}, apperr.InvalidState("no lost stage is configured")
}

func terminalErr(lead *domain.Lead) error {
	if lead.IsConverted() {
		return apperr.InvalidState("lead is already converted")
	}
	return apperr.InvalidState("lead is already disqualified")
}

func mapLeadErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return err
}

func mapStageErr(err error) error {
	if errors.Is(err, repository.ErrStageNotFound) {
		return apperr.NotFound("stage not found")
	}
	return err
}

func mapReasonErr(err error) error {
	if errors.Is(err, repository.ErrReasonNotFound) {
		return apperr.NotFound("disqualification reason not found")
	}
	return err
}

func uuidPtrString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
