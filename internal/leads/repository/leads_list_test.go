package repository

import "testing"

func TestMapLeadSortColumnCoversAPISortKeys(t *testing.T) {
	// Every value the list endpoint accepts for sortBy must map to a real
	// column; anything else falls back to created_at.
	cases := []struct {
		sortBy string
		want   string
	}{
		{"createdAt", "l.created_at"},
		{"updatedAt", "l.updated_at"},
		{"stageEnteredAt", "l.stage_entered_at"},
		{"score", "l.score"},
		{"firstName", "l.first_name"},
		{"lastName", "l.last_name"},
		{"company", "l.company"},
		{"email", "l.email"},
		{"", "l.created_at"},
		{"drop table leads", "l.created_at"},
	}
	for _, tc := range cases {
		if got := mapLeadSortColumn(tc.sortBy); got != tc.want {
			t.Errorf("mapLeadSortColumn(%q) = %q, want %q", tc.sortBy, got, tc.want)
		}
	}
}
