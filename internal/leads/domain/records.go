package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact is the person record a converted lead is promoted into.
type Contact struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	FirstName      string
	LastName       string
	Email          *string
	Phone          *string
	JobTitle       *string
	Address        *Address
	SocialProfiles []SocialProfile
	Source         *string
	Tags           []string
	CustomFields   FieldMap
	DoNotContact   bool
	DoNotEmail     bool
	DoNotCall      bool
	OwnerID        *uuid.UUID
	LeadID         *uuid.UUID
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Account is the company record a converted lead may create or link to.
type Account struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Website        *string
	Email          *string
	Phone          *string
	Industry       *string
	Address        *Address
	OwnerID        *uuid.UUID
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Opportunity is the deal record optionally opened at conversion.
type Opportunity struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Stage          string
	Pipeline       string
	Amount         *float64
	Currency       string
	CloseDate      *time.Time
	ContactID      *uuid.UUID
	AccountID      *uuid.UUID
	LeadID         *uuid.UUID
	OwnerID        *uuid.UUID
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ActivityType enumerates timeline entry kinds the engine records itself.
type ActivityType string

const (
	ActivityLeadCreated      ActivityType = "lead_created"
	ActivityStageChanged     ActivityType = "stage_changed"
	ActivityDisqualified     ActivityType = "disqualified"
	ActivityConverted        ActivityType = "converted"
	ActivityOwnershipChanged ActivityType = "ownership_changed"
)

// Activity is one lead timeline entry.
type Activity struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LeadID         *uuid.UUID
	ContactID      *uuid.UUID
	Type           ActivityType
	Title          string
	Metadata       map[string]any
	ActorID        uuid.UUID
	CreatedAt      time.Time
}

// Note is a free-text note attached to a lead or contact.
type Note struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LeadID         *uuid.UUID
	ContactID      *uuid.UUID
	Body           string
	AuthorID       uuid.UUID
	CreatedAt      time.Time
}

// Document is attachment metadata; the blob itself lives elsewhere and is
// referenced by StorageKey.
type Document struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	LeadID         *uuid.UUID
	ContactID      *uuid.UUID
	FileName       string
	ContentType    string
	SizeBytes      int64
	StorageKey     string
	UploadedBy     uuid.UUID
	CreatedAt      time.Time
}
