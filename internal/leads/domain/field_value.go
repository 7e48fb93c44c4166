// Package domain holds the lead lifecycle engine's core types: the lead
// aggregate, pipeline reference data, and the dynamic field value model used
// by qualification data and tenant custom fields.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldKind tags the dynamic type of a FieldValue.
type FieldKind int

const (
	// FieldString is a text value.
	FieldString FieldKind = iota
	// FieldNumber is a numeric value (stored as float64, like JSON numbers).
	FieldNumber
	// FieldBool is a boolean value.
	FieldBool
	// FieldList is a list of text values (multi-select fields).
	FieldList
	// FieldRaw preserves values this engine doesn't model (nested objects,
	// mixed arrays) byte-for-byte so unrecognized keys round-trip unchanged.
	FieldRaw
)

// FieldValue is a small dynamically-tagged value for open string-keyed maps
// (qualification data, custom fields). It marshals to the plain JSON value,
// not a tagged envelope.
type FieldValue struct {
	Kind FieldKind
	Str  string
	Num  float64
	Bool bool
	List []string
	Raw  json.RawMessage
}

// StringValue creates a string field value.
func StringValue(s string) FieldValue { return FieldValue{Kind: FieldString, Str: s} }

// NumberValue creates a numeric field value.
func NumberValue(n float64) FieldValue { return FieldValue{Kind: FieldNumber, Num: n} }

// BoolValue creates a boolean field value.
func BoolValue(b bool) FieldValue { return FieldValue{Kind: FieldBool, Bool: b} }

// ListValue creates a list field value.
func ListValue(items ...string) FieldValue { return FieldValue{Kind: FieldList, List: items} }

// IsBlank reports whether the value counts as empty for required-field gating
// and is_not_empty routing conditions. Numbers and booleans are never blank.
func (v FieldValue) IsBlank() bool {
	switch v.Kind {
	case FieldString:
		return strings.TrimSpace(v.Str) == ""
	case FieldList:
		return len(v.List) == 0
	case FieldRaw:
		trimmed := strings.TrimSpace(string(v.Raw))
		return trimmed == "" || trimmed == "null" || trimmed == `""` || trimmed == "[]" || trimmed == "{}"
	default:
		return false
	}
}

// AsString renders the value as text for comparisons (routing conditions,
// duplicate messages). Lists join with commas.
func (v FieldValue) AsString() string {
	switch v.Kind {
	case FieldString:
		return v.Str
	case FieldNumber:
		// Trim the trailing ".0" JSON gives integral floats.
		if v.Num == float64(int64(v.Num)) {
			return fmt.Sprintf("%d", int64(v.Num))
		}
		return fmt.Sprintf("%g", v.Num)
	case FieldBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case FieldList:
		return strings.Join(v.List, ",")
	default:
		return strings.Trim(string(v.Raw), `"`)
	}
}

// MarshalJSON emits the underlying JSON value.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case FieldString:
		return json.Marshal(v.Str)
	case FieldNumber:
		return json.Marshal(v.Num)
	case FieldBool:
		return json.Marshal(v.Bool)
	case FieldList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	default:
		if len(v.Raw) == 0 {
			return []byte("null"), nil
		}
		return v.Raw, nil
	}
}

// UnmarshalJSON tags the value by its JSON type. String lists stay typed;
// anything else falls back to FieldRaw and round-trips untouched.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*v = FieldValue{Kind: FieldRaw, Raw: json.RawMessage("null")}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FieldValue{Kind: FieldString, Str: s}
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = FieldValue{Kind: FieldBool, Bool: b}
		return nil
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err == nil {
			*v = FieldValue{Kind: FieldList, List: list}
			return nil
		}
		*v = FieldValue{Kind: FieldRaw, Raw: append(json.RawMessage(nil), data...)}
		return nil
	case '{':
		*v = FieldValue{Kind: FieldRaw, Raw: append(json.RawMessage(nil), data...)}
		return nil
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = FieldValue{Kind: FieldNumber, Num: n}
		return nil
	}
}

// FieldMap is an open string-keyed map of dynamic values.
type FieldMap map[string]FieldValue

// Merge returns a shallow merge: keys in updates override, keys absent from
// updates are preserved. The receiver is not mutated.
func (m FieldMap) Merge(updates FieldMap) FieldMap {
	out := make(FieldMap, len(m)+len(updates))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range updates {
		out[k] = v
	}
	return out
}

// Get returns the value for key and whether it is present and non-blank.
func (m FieldMap) Get(key string) (FieldValue, bool) {
	v, ok := m[key]
	if !ok {
		return FieldValue{}, false
	}
	return v, !v.IsBlank()
}
