package domain

import (
	"encoding/json"
	"testing"
)

func TestFieldValueJSONRoundTrip(t *testing.T) {
	payload := []byte(`{
		"budget": 50000,
		"authority": "CFO",
		"need": true,
		"regions": ["emea", "na"],
		"vendor_review": {"status": "pending", "score": 3},
		"notes": null
	}`)

	var fields FieldMap
	if err := json.Unmarshal(payload, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got := fields["budget"]; got.Kind != FieldNumber || got.Num != 50000 {
		t.Errorf("budget = %+v, want number 50000", got)
	}
	if got := fields["authority"]; got.Kind != FieldString || got.Str != "CFO" {
		t.Errorf("authority = %+v, want string CFO", got)
	}
	if got := fields["need"]; got.Kind != FieldBool || !got.Bool {
		t.Errorf("need = %+v, want bool true", got)
	}
	if got := fields["regions"]; got.Kind != FieldList || len(got.List) != 2 {
		t.Errorf("regions = %+v, want list of 2", got)
	}
	// Unrecognized shapes must be preserved, not dropped.
	if got := fields["vendor_review"]; got.Kind != FieldRaw {
		t.Errorf("vendor_review = %+v, want raw", got)
	}

	encoded, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var again FieldMap
	if err := json.Unmarshal(encoded, &again); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if len(again) != len(fields) {
		t.Fatalf("round trip lost keys: %d != %d", len(again), len(fields))
	}
	if again["vendor_review"].Kind != FieldRaw {
		t.Errorf("vendor_review lost its raw payload on round trip")
	}
}

func TestFieldValueIsBlank(t *testing.T) {
	tests := []struct {
		name  string
		value FieldValue
		blank bool
	}{
		{"empty string", StringValue(""), true},
		{"whitespace string", StringValue("   "), true},
		{"string", StringValue("acme"), false},
		{"zero number", NumberValue(0), false},
		{"false bool", BoolValue(false), false},
		{"empty list", ListValue(), true},
		{"list", ListValue("a"), false},
		{"raw null", FieldValue{Kind: FieldRaw, Raw: []byte("null")}, true},
		{"raw object", FieldValue{Kind: FieldRaw, Raw: []byte(`{"a":1}`)}, false},
	}

	for _, tc := range tests {
		if got := tc.value.IsBlank(); got != tc.blank {
			t.Errorf("%s: IsBlank() = %v, want %v", tc.name, got, tc.blank)
		}
	}
}

func TestFieldMapMergePreservesExistingKeys(t *testing.T) {
	base := FieldMap{
		"budget":    NumberValue(1000),
		"authority": StringValue("CTO"),
	}
	merged := base.Merge(FieldMap{
		"budget": NumberValue(2000),
		"timing": StringValue("Q3"),
	})

	if merged["budget"].Num != 2000 {
		t.Errorf("budget = %v, want overridden to 2000", merged["budget"].Num)
	}
	if merged["authority"].Str != "CTO" {
		t.Errorf("authority missing after merge")
	}
	if merged["timing"].Str != "Q3" {
		t.Errorf("timing missing after merge")
	}
	if base["budget"].Num != 1000 {
		t.Errorf("Merge mutated the receiver")
	}
}

func TestClassifyFieldKey(t *testing.T) {
	tests := []struct {
		key      string
		wantKind FieldTargetKind
		wantName string
	}{
		{"firstName", TargetSystemColumn, "first_name"},
		{"company", TargetSystemColumn, "company"},
		{"doNotEmail", TargetSystemColumn, "do_not_email"},
		{"qualification.budget", TargetQualification, "budget"},
		{"qualification.decision_maker", TargetQualification, "decision_maker"},
		{"industry_segment", TargetCustom, "industry_segment"},
		{"qualificationish", TargetCustom, "qualificationish"},
	}

	for _, tc := range tests {
		got := ClassifyFieldKey(tc.key)
		if got.Kind != tc.wantKind || got.Name != tc.wantName {
			t.Errorf("ClassifyFieldKey(%q) = {%v %q}, want {%v %q}",
				tc.key, got.Kind, got.Name, tc.wantKind, tc.wantName)
		}
	}
}

func TestSplitFieldUpdates(t *testing.T) {
	system, qual, custom := SplitFieldUpdates(FieldMap{
		"firstName":            StringValue("Ada"),
		"qualification.budget": NumberValue(5000),
		"referral_partner":     StringValue("acme"),
	})

	if len(system) != 1 || system["first_name"].Str != "Ada" {
		t.Errorf("system = %+v", system)
	}
	if len(qual) != 1 || qual["budget"].Num != 5000 {
		t.Errorf("qualification = %+v", qual)
	}
	if len(custom) != 1 || custom["referral_partner"].Str != "acme" {
		t.Errorf("custom = %+v", custom)
	}
}

func TestRequiredFieldAlternatives(t *testing.T) {
	tests := []struct {
		entry string
		want  int
	}{
		{"budget", 1},
		{"budget||budget_range", 2},
		{"a||b||c", 3},
		{" a || b ", 2},
	}
	for _, tc := range tests {
		if got := RequiredFieldAlternatives(tc.entry); len(got) != tc.want {
			t.Errorf("RequiredFieldAlternatives(%q) = %v, want %d parts", tc.entry, got, tc.want)
		}
	}
}
