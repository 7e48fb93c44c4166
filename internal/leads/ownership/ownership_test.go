package ownership

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/platform/events"
	"crmcore_backend/platform/logger"
)

type fakeRoles struct {
	roles map[string]uuid.UUID
	err   error
}

func (f *fakeRoles) FindRoleIDByName(_ context.Context, _ uuid.UUID, name string) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	id, ok := f.roles[name]
	if !ok {
		return uuid.Nil, errors.New("role not found")
	}
	return id, nil
}

type fakeCollaborators struct {
	added []Collaborator
}

func (f *fakeCollaborators) AddCollaborator(_ context.Context, c Collaborator) error {
	f.added = append(f.added, c)
	return nil
}

type fakeActivities struct {
	created []domain.Activity
}

func (f *fakeActivities) CreateActivity(_ context.Context, a domain.Activity) error {
	f.created = append(f.created, a)
	return nil
}

func newHandler(roles *fakeRoles) (*Handler, *fakeCollaborators, *fakeActivities) {
	collaborators := &fakeCollaborators{}
	activities := &fakeActivities{}
	h := NewHandler(roles, collaborators, activities, events.NewInMemoryBus(logger.New("test")), logger.New("test"))
	return h, collaborators, activities
}

func sampleTransfer() Transfer {
	previous := uuid.New()
	return Transfer{
		OrganizationID:  uuid.New(),
		LeadID:          uuid.New(),
		PreviousOwnerID: &previous,
		NewOwnerID:      uuid.New(),
		ActorID:         uuid.New(),
	}
}

func TestApplyAddsPreviousOwnerCollaborator(t *testing.T) {
	roleID := uuid.New()
	h, collaborators, activities := newHandler(&fakeRoles{roles: map[string]uuid.UUID{"Viewer": roleID}})
	transfer := sampleTransfer()

	err := h.Apply(context.Background(), transfer, domain.OwnershipSettings{
		AddPreviousOwnerToTeam:   true,
		PreviousOwnerRoleName:    "Viewer",
		PreviousOwnerAccessLevel: domain.AccessWrite,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(collaborators.added) != 1 {
		t.Fatalf("collaborators = %d, want 1", len(collaborators.added))
	}
	added := collaborators.added[0]
	if added.UserID != *transfer.PreviousOwnerID {
		t.Errorf("collaborator user = %s, want previous owner", added.UserID)
	}
	if added.RoleID == nil || *added.RoleID != roleID {
		t.Errorf("roleId = %v, want %s", added.RoleID, roleID)
	}
	if added.AccessLevel != domain.AccessWrite {
		t.Errorf("accessLevel = %s, want write", added.AccessLevel)
	}
	if len(activities.created) != 1 {
		t.Fatalf("activities = %d, want 1", len(activities.created))
	}
}

func TestApplyRoleLookupFailureDoesNotBlock(t *testing.T) {
	h, collaborators, _ := newHandler(&fakeRoles{err: errors.New("directory down")})
	transfer := sampleTransfer()

	err := h.Apply(context.Background(), transfer, domain.OwnershipSettings{
		AddPreviousOwnerToTeam: true,
		PreviousOwnerRoleName:  "Viewer",
	})
	if err != nil {
		t.Fatalf("role lookup failure must not block the transfer: %v", err)
	}
	if len(collaborators.added) != 1 {
		t.Fatalf("collaborators = %d, want 1", len(collaborators.added))
	}
	if collaborators.added[0].RoleID != nil {
		t.Error("unresolved role must be stored as null")
	}
	if collaborators.added[0].AccessLevel != domain.AccessRead {
		t.Errorf("accessLevel = %s, want read default", collaborators.added[0].AccessLevel)
	}
}

func TestApplyPolicyOffStillRecordsActivity(t *testing.T) {
	h, collaborators, activities := newHandler(&fakeRoles{})
	transfer := sampleTransfer()

	err := h.Apply(context.Background(), transfer, domain.OwnershipSettings{AddPreviousOwnerToTeam: false})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(collaborators.added) != 0 {
		t.Error("collaborator must not be added when policy is off")
	}
	if len(activities.created) != 1 {
		t.Fatal("ownership activity must always be recorded")
	}
	meta := activities.created[0].Metadata
	if meta["newOwnerId"] != transfer.NewOwnerID.String() {
		t.Errorf("metadata = %+v", meta)
	}
}

func TestApplyNoPreviousOwner(t *testing.T) {
	h, collaborators, activities := newHandler(&fakeRoles{})
	transfer := sampleTransfer()
	transfer.PreviousOwnerID = nil

	err := h.Apply(context.Background(), transfer, domain.OwnershipSettings{AddPreviousOwnerToTeam: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(collaborators.added) != 0 {
		t.Error("no collaborator without a previous owner")
	}
	if len(activities.created) != 1 {
		t.Fatal("activity must still be recorded")
	}
}
