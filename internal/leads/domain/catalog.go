package domain

import (
	"strings"

	"github.com/google/uuid"
)

// RequiredFieldORSeparator marks an OR-group inside a requiredFields entry:
// "budget||budget_range" is satisfied by either key being non-blank.
const RequiredFieldORSeparator = "||"

// Stage is one named step in the lead pipeline.
type Stage struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Slug           string
	Color          string
	SortOrder      int
	IsWon          bool
	IsLost         bool
	IsActive       bool
	// RequiredFields lists field keys that must be non-blank before a lead
	// may enter this stage. An entry may be an OR-group.
	RequiredFields     []string
	LockPreviousFields bool
}

// RequiredFieldAlternatives splits one requiredFields entry into its
// alternative keys.
func RequiredFieldAlternatives(entry string) []string {
	parts := strings.Split(entry, RequiredFieldORSeparator)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Priority is a score-range bucket.
type Priority struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	ScoreMin       int
	ScoreMax       int
	SortOrder      int
	IsDefault      bool
	IsActive       bool
}

// Contains reports whether score falls in the bucket's inclusive range.
func (p Priority) Contains(score int) bool {
	return score >= p.ScoreMin && score <= p.ScoreMax
}

// FrameworkFieldType enumerates qualification field types.
type FrameworkFieldType string

const (
	FrameworkFieldText    FrameworkFieldType = "text"
	FrameworkFieldNumber  FrameworkFieldType = "number"
	FrameworkFieldSelect  FrameworkFieldType = "select"
	FrameworkFieldBoolean FrameworkFieldType = "boolean"
)

// FrameworkField is one scored field of a qualification framework.
type FrameworkField struct {
	Key         string             `json:"key"`
	Label       string             `json:"label"`
	Type        FrameworkFieldType `json:"type"`
	Options     []string           `json:"options,omitempty"`
	ScoreWeight int                `json:"scoreWeight"`
	Required    bool               `json:"required"`
}

// QualificationFramework is a named, ordered set of scoring fields (BANT,
// MEDDIC, ...).
type QualificationFramework struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Slug           string
	Fields         []FrameworkField
	IsActive       bool
}

// FieldLabel returns the label configured for a field key, falling back to
// the key itself. Used to build structured missing-field errors.
func (f *QualificationFramework) FieldLabel(key string) string {
	if f == nil {
		return key
	}
	for _, field := range f.Fields {
		if field.Key == key {
			return field.Label
		}
	}
	return key
}

// ConditionOperator enumerates routing rule condition operators.
type ConditionOperator string

const (
	OperatorEquals     ConditionOperator = "equals"
	OperatorContains   ConditionOperator = "contains"
	OperatorIn         ConditionOperator = "in"
	OperatorIsNotEmpty ConditionOperator = "is_not_empty"
)

// RuleCondition is one AND-ed predicate of a routing rule.
type RuleCondition struct {
	Field    string            `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    []string          `json:"value,omitempty"`
}

// AssignmentType enumerates routing rule owner resolution strategies.
type AssignmentType string

const (
	AssignSpecificUser AssignmentType = "specific_user"
	AssignRoundRobin   AssignmentType = "round_robin"
	AssignTeam         AssignmentType = "team"
)

// RoutingRule assigns an owner to inbound leads matching its conditions.
// RoundRobinIndex is shared mutable state persisted on the rule; the
// repository increments it atomically.
type RoutingRule struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Priority       int
	IsActive       bool
	Conditions     []RuleCondition
	AssignmentType AssignmentType
	// AssignedUserIDs holds candidate users for specific_user/round_robin.
	AssignedUserIDs []uuid.UUID
	// AssignedTeamID holds the team for team assignment.
	AssignedTeamID  *uuid.UUID
	RoundRobinIndex int
}

// DisqualificationReason is tenant-configured reference data.
type DisqualificationReason struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	IsActive       bool
}
