// Package ownership implements the side effects of lead ownership transfers:
// previous-owner collaborator access and the ownership audit trail.
package ownership

import (
	"context"

	"github.com/google/uuid"

	"crmcore_backend/internal/events"
	"crmcore_backend/internal/leads/domain"
	platformevents "crmcore_backend/platform/events"
	"crmcore_backend/platform/logger"
)

// RoleDirectory resolves role names to ids. Lookups are best-effort: a
// failure downgrades the collaborator to a null role, never blocks the
// transfer.
type RoleDirectory interface {
	FindRoleIDByName(ctx context.Context, organizationID uuid.UUID, name string) (uuid.UUID, error)
}

// Collaborator is one record-level access grant.
type Collaborator struct {
	OrganizationID uuid.UUID
	RecordType     string
	RecordID       uuid.UUID
	UserID         uuid.UUID
	RoleID         *uuid.UUID
	AccessLevel    domain.AccessLevel
	AddedBy        uuid.UUID
}

// CollaboratorStore manages record-level access grants.
type CollaboratorStore interface {
	AddCollaborator(ctx context.Context, c Collaborator) error
}

// ActivityStore records timeline entries.
type ActivityStore interface {
	CreateActivity(ctx context.Context, a domain.Activity) error
}

type Handler struct {
	roles         RoleDirectory
	collaborators CollaboratorStore
	activities    ActivityStore
	bus           platformevents.Bus
	log           *logger.Logger
}

func NewHandler(roles RoleDirectory, collaborators CollaboratorStore, activities ActivityStore, bus platformevents.Bus, log *logger.Logger) *Handler {
	return &Handler{roles: roles, collaborators: collaborators, activities: activities, bus: bus, log: log}
}

// Transfer carries one completed ownership change.
type Transfer struct {
	OrganizationID  uuid.UUID
	LeadID          uuid.UUID
	PreviousOwnerID *uuid.UUID
	NewOwnerID      uuid.UUID
	ActorID         uuid.UUID
}

// Apply runs the transfer side effects. The ownership activity is always
// recorded; collaborator access for the previous owner depends on tenant
// policy.
func (h *Handler) Apply(ctx context.Context, transfer Transfer, settings domain.OwnershipSettings) error {
	if settings.AddPreviousOwnerToTeam && transfer.PreviousOwnerID != nil {
		if err := h.addPreviousOwner(ctx, transfer, settings); err != nil {
			return err
		}
	}

	err := h.activities.CreateActivity(ctx, domain.Activity{
		ID:             uuid.New(),
		OrganizationID: transfer.OrganizationID,
		LeadID:         &transfer.LeadID,
		Type:           domain.ActivityOwnershipChanged,
		Title:          "Lead ownership transferred",
		Metadata: map[string]any{
			"previousOwnerId": uuidPtrString(transfer.PreviousOwnerID),
			"newOwnerId":      transfer.NewOwnerID.String(),
		},
		ActorID: transfer.ActorID,
	})
	if err != nil {
		return err
	}

	h.bus.Publish(ctx, events.LeadOwnerChanged{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          transfer.LeadID,
		TenantID:        transfer.OrganizationID,
		PreviousOwnerID: transfer.PreviousOwnerID,
		NewOwnerID:      transfer.NewOwnerID,
		ChangedBy:       transfer.ActorID,
	})
	return nil
}

func (h *Handler) addPreviousOwner(ctx context.Context, transfer Transfer, settings domain.OwnershipSettings) error {
	var roleID *uuid.UUID
	if settings.PreviousOwnerRoleName != "" {
		id, err := h.roles.FindRoleIDByName(ctx, transfer.OrganizationID, settings.PreviousOwnerRoleName)
		if err != nil {
			h.log.CollaboratorError("roles", "find_by_name", err)
		} else {
			roleID = &id
		}
	}

	access := settings.PreviousOwnerAccessLevel
	if access == "" {
		access = domain.AccessRead
	}

	return h.collaborators.AddCollaborator(ctx, Collaborator{
		OrganizationID: transfer.OrganizationID,
		RecordType:     "lead",
		RecordID:       transfer.LeadID,
		UserID:         *transfer.PreviousOwnerID,
		RoleID:         roleID,
		AccessLevel:    access,
		AddedBy:        transfer.ActorID,
	})
}

func uuidPtrString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
