package domain

import "strings"

// QualificationPrefix namespaces qualification framework fields inside
// free-form field update payloads ("qualification.budget").
const QualificationPrefix = "qualification."

// FieldTargetKind tags where a field update key should be written.
type FieldTargetKind int

const (
	// TargetSystemColumn writes a known lead column directly.
	TargetSystemColumn FieldTargetKind = iota
	// TargetQualification merges into the qualification data map.
	TargetQualification
	// TargetCustom merges into the custom fields map.
	TargetCustom
)

// FieldTarget is the classification of one field update key.
type FieldTarget struct {
	Kind FieldTargetKind
	// Name is the system column name, or the (prefix-stripped) map key.
	Name string
}

// systemColumns maps accepted update keys to lead columns. Keys arrive in the
// API's camelCase form.
var systemColumns = map[string]string{
	"firstName":     "first_name",
	"lastName":      "last_name",
	"company":       "company",
	"jobTitle":      "job_title",
	"email":         "email",
	"phone":         "phone",
	"source":        "source",
	"sourceDetails": "source_details",
	"doNotContact":  "do_not_contact",
	"doNotEmail":    "do_not_email",
	"doNotCall":     "do_not_call",
}

// ClassifyFieldKey routes a field update key to exactly one destination:
// a system column, the qualification map, or the custom fields map.
func ClassifyFieldKey(key string) FieldTarget {
	if column, ok := systemColumns[key]; ok {
		return FieldTarget{Kind: TargetSystemColumn, Name: column}
	}
	if strings.HasPrefix(key, QualificationPrefix) {
		return FieldTarget{Kind: TargetQualification, Name: strings.TrimPrefix(key, QualificationPrefix)}
	}
	return FieldTarget{Kind: TargetCustom, Name: key}
}

// SplitFieldUpdates classifies a full update map into the three destinations
// consumed by one merge step in the stage transition.
func SplitFieldUpdates(updates FieldMap) (system FieldMap, qualification FieldMap, custom FieldMap) {
	system = make(FieldMap)
	qualification = make(FieldMap)
	custom = make(FieldMap)
	for key, value := range updates {
		target := ClassifyFieldKey(key)
		switch target.Kind {
		case TargetSystemColumn:
			system[target.Name] = value
		case TargetQualification:
			qualification[target.Name] = value
		default:
			custom[target.Name] = value
		}
	}
	return system, qualification, custom
}
