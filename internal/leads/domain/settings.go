package domain

import "github.com/google/uuid"

// MatchPolicy controls what a duplicate hit does.
type MatchPolicy string

const (
	// MatchBlock rejects the write with a Conflict.
	MatchBlock MatchPolicy = "block"
	// MatchWarn surfaces the candidate to the UI but allows the write.
	MatchWarn MatchPolicy = "warn"
	// MatchOff disables matching on that identifier.
	MatchOff MatchPolicy = "off"
)

// DuplicateSettings is the tenant's duplicate-detection policy.
type DuplicateSettings struct {
	Enabled         bool        `json:"enabled"`
	CheckLeads      bool        `json:"checkLeads"`
	CheckContacts   bool        `json:"checkContacts"`
	ExactEmailMatch MatchPolicy `json:"exactEmailMatch"`
	ExactPhoneMatch MatchPolicy `json:"exactPhoneMatch"`
}

// StageSettings holds tenant stage machine policy.
type StageSettings struct {
	// LockPreviousStages makes backward moves require an unlock reason.
	LockPreviousStages bool `json:"lockPreviousStages"`
	// DefaultStageID is assigned to new leads when no stage is supplied.
	DefaultStageID *uuid.UUID `json:"defaultStageId,omitempty"`
	// WonStageID is the stage leads land on at conversion.
	WonStageID *uuid.UUID `json:"wonStageId,omitempty"`
	// LostStageID is the stage leads land on at disqualification.
	LostStageID *uuid.UUID `json:"lostStageId,omitempty"`
}

// ScoringSettings holds tenant scoring policy.
type ScoringSettings struct {
	// AutoPriorityFromScore assigns the priority bucket matching the score
	// after every rescore.
	AutoPriorityFromScore bool `json:"autoPriorityFromScore"`
	// DefaultFrameworkID is the qualification framework for new leads.
	DefaultFrameworkID *uuid.UUID `json:"defaultFrameworkId,omitempty"`
}

// ConversionSettings holds tenant conversion policy. The copy flags default
// on; only an explicit false disables them.
type ConversionSettings struct {
	CopyActivities             bool   `json:"copyActivities"`
	CopyNotes                  bool   `json:"copyNotes"`
	CopyDocuments              bool   `json:"copyDocuments"`
	OpportunitiesEnabled       bool   `json:"opportunitiesEnabled"`
	AllowFieldEditAfterConvert bool   `json:"allowFieldEditAfterConvert"`
	DefaultOpportunityStage    string `json:"defaultOpportunityStage,omitempty"`
	DefaultOpportunityPipeline string `json:"defaultOpportunityPipeline,omitempty"`
}

// AccessLevel enumerates record collaborator access levels.
type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
)

// OwnershipSettings holds tenant ownership transfer policy.
type OwnershipSettings struct {
	// AddPreviousOwnerToTeam grants the previous owner continued access as a
	// record collaborator after an ownership transfer.
	AddPreviousOwnerToTeam   bool        `json:"addPreviousOwnerToTeam"`
	PreviousOwnerRoleName    string      `json:"previousOwnerRoleName,omitempty"`
	PreviousOwnerAccessLevel AccessLevel `json:"previousOwnerAccessLevel,omitempty"`
}

// Settings is the tenant's full lead engine configuration.
type Settings struct {
	OrganizationID uuid.UUID
	Duplicates     DuplicateSettings
	Stages         StageSettings
	Scoring        ScoringSettings
	Conversion     ConversionSettings
	Ownership      OwnershipSettings
}

// DefaultSettings is the policy applied to tenants with no settings row.
func DefaultSettings(organizationID uuid.UUID) Settings {
	return Settings{
		OrganizationID: organizationID,
		Duplicates: DuplicateSettings{
			Enabled:         true,
			CheckLeads:      true,
			CheckContacts:   true,
			ExactEmailMatch: MatchBlock,
			ExactPhoneMatch: MatchWarn,
		},
		Stages:  StageSettings{LockPreviousStages: false},
		Scoring: ScoringSettings{AutoPriorityFromScore: true},
		Conversion: ConversionSettings{
			CopyActivities:       true,
			CopyNotes:            true,
			CopyDocuments:        true,
			OpportunitiesEnabled: true,
		},
		Ownership: OwnershipSettings{
			AddPreviousOwnerToTeam:   false,
			PreviousOwnerAccessLevel: AccessRead,
		},
	}
}
