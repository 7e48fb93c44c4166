// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"crmcore_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Lifecycle Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID    uuid.UUID  `json:"leadId"`
	TenantID  uuid.UUID  `json:"tenantId"`
	OwnerID   *uuid.UUID `json:"ownerId,omitempty"`
	Source    string     `json:"source,omitempty"`
	CreatedBy uuid.UUID  `json:"createdBy"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadStageChanged is published after a successful stage transition.
type LeadStageChanged struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	TenantID        uuid.UUID  `json:"tenantId"`
	PreviousStageID *uuid.UUID `json:"previousStageId,omitempty"`
	StageID         uuid.UUID  `json:"stageId"`
	ChangedBy       uuid.UUID  `json:"changedBy"`
}

func (e LeadStageChanged) EventName() string { return "leads.stage_changed" }

// LeadDisqualified is published when a lead is disqualified.
type LeadDisqualified struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	TenantID       uuid.UUID `json:"tenantId"`
	ReasonID       uuid.UUID `json:"reasonId"`
	DisqualifiedBy uuid.UUID `json:"disqualifiedBy"`
}

func (e LeadDisqualified) EventName() string { return "leads.disqualified" }

// LeadConverted is published after a successful conversion.
type LeadConverted struct {
	BaseEvent
	LeadID        uuid.UUID  `json:"leadId"`
	TenantID      uuid.UUID  `json:"tenantId"`
	ContactID     *uuid.UUID `json:"contactId,omitempty"`
	AccountID     *uuid.UUID `json:"accountId,omitempty"`
	OpportunityID *uuid.UUID `json:"opportunityId,omitempty"`
	ConvertedBy   uuid.UUID  `json:"convertedBy"`
}

func (e LeadConverted) EventName() string { return "leads.converted" }

// LeadOwnerChanged is published when lead ownership moves to a different user.
type LeadOwnerChanged struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	TenantID        uuid.UUID  `json:"tenantId"`
	PreviousOwnerID *uuid.UUID `json:"previousOwnerId,omitempty"`
	NewOwnerID      uuid.UUID  `json:"newOwnerId"`
	ChangedBy       uuid.UUID  `json:"changedBy"`
}

func (e LeadOwnerChanged) EventName() string { return "leads.owner_changed" }

// OrganizationCreated is published when a new tenant is provisioned, so the
// leads module can seed its default pipeline catalog.
type OrganizationCreated struct {
	BaseEvent
	OrganizationID uuid.UUID `json:"organizationId"`
}

func (e OrganizationCreated) EventName() string { return "organizations.created" }
