package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Address is one postal address attached to a lead.
type Address struct {
	Label   string `json:"label,omitempty"`
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

// SocialProfile is one social network handle attached to a lead.
type SocialProfile struct {
	Network string `json:"network"`
	URL     string `json:"url"`
}

// StageHistoryEntry records one stage entry. The history is append-only:
// entries are never mutated, reordered, or truncated.
type StageHistoryEntry struct {
	StageID         uuid.UUID  `json:"stageId"`
	StageName       string     `json:"stageName"`
	EnteredAt       time.Time  `json:"enteredAt"`
	EnteredBy       uuid.UUID  `json:"enteredBy"`
	PreviousStageID *uuid.UUID `json:"previousStageId,omitempty"`
	UnlockReason    *string    `json:"unlockReason,omitempty"`
}

// Lead is the engine's aggregate root. ConvertedAt and DisqualifiedAt are
// mutually exclusive; once either is set the lead is terminal for stage,
// disqualify, and convert operations.
type Lead struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID

	FirstName string
	LastName  string
	Company   *string
	JobTitle  *string

	Email           *string
	Phone           *string
	SecondaryEmails []string
	SecondaryPhones []string
	Addresses       []Address
	SocialProfiles  []SocialProfile

	Source        *string
	SourceDetails *string

	OwnerID   *uuid.UUID
	CreatedBy uuid.UUID

	StageID        *uuid.UUID
	StageEnteredAt *time.Time
	StageHistory   []StageHistoryEntry

	PriorityID  *uuid.UUID
	FrameworkID *uuid.UUID

	// Score and ScoreBreakdown are derived by the scoring collaborator,
	// never hand-edited.
	Score          int
	ScoreBreakdown map[string]float64

	Qualification FieldMap
	CustomFields  FieldMap

	ConvertedAt            *time.Time
	ConvertedBy            *uuid.UUID
	ConvertedContactID     *uuid.UUID
	ConvertedAccountID     *uuid.UUID
	ConvertedOpportunityID *uuid.UUID
	ConversionNotes        *string

	DisqualifiedAt       *time.Time
	DisqualifiedBy       *uuid.UUID
	DisqualifiedReasonID *uuid.UUID
	DisqualifiedNotes    *string

	DoNotContact bool
	DoNotEmail   bool
	DoNotCall    bool

	Tags []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsConverted reports whether the lead has been converted.
func (l *Lead) IsConverted() bool { return l.ConvertedAt != nil }

// IsDisqualified reports whether the lead has been disqualified.
func (l *Lead) IsDisqualified() bool { return l.DisqualifiedAt != nil }

// IsTerminal reports whether the lead accepts further lifecycle transitions.
func (l *Lead) IsTerminal() bool { return l.IsConverted() || l.IsDisqualified() }

// FullName joins the lead's person name parts.
func (l *Lead) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(l.FirstName) + " " + strings.TrimSpace(l.LastName))
}

// DisplayName is the company when present, else the person's full name.
// Used for defaulting account names at conversion.
func (l *Lead) DisplayName() string {
	if l.Company != nil && strings.TrimSpace(*l.Company) != "" {
		return strings.TrimSpace(*l.Company)
	}
	return l.FullName()
}

// FieldValues flattens the lead into the view the routing evaluator and the
// required-field gate read: system fields by camelCase key, qualification
// fields under the qualification namespace, custom fields as-is.
func (l *Lead) FieldValues() FieldMap {
	values := make(FieldMap, len(l.Qualification)+len(l.CustomFields)+8)

	for key, value := range l.CustomFields {
		values[key] = value
	}
	for key, value := range l.Qualification {
		values[QualificationPrefix+key] = value
	}

	values["firstName"] = StringValue(l.FirstName)
	values["lastName"] = StringValue(l.LastName)
	if l.Company != nil {
		values["company"] = StringValue(*l.Company)
	}
	if l.JobTitle != nil {
		values["jobTitle"] = StringValue(*l.JobTitle)
	}
	if l.Email != nil {
		values["email"] = StringValue(*l.Email)
	}
	if l.Phone != nil {
		values["phone"] = StringValue(*l.Phone)
	}
	if l.Source != nil {
		values["source"] = StringValue(*l.Source)
	}
	if l.SourceDetails != nil {
		values["sourceDetails"] = StringValue(*l.SourceDetails)
	}
	if len(l.Tags) > 0 {
		values["tags"] = ListValue(l.Tags...)
	}

	return values
}

// LookupField resolves a gating/routing key against the lead's values merged
// with pending updates. Qualification keys match both with and without the
// namespace prefix.
func LookupField(values FieldMap, key string) (FieldValue, bool) {
	if v, ok := values.Get(key); ok {
		return v, true
	}
	if !strings.HasPrefix(key, QualificationPrefix) {
		if v, ok := values.Get(QualificationPrefix + key); ok {
			return v, true
		}
	}
	return FieldValue{}, false
}
