package scoring

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/internal/leads/repository"
)

type fakeScoreStore struct {
	lead      domain.Lead
	framework domain.QualificationFramework
	hasFw     bool

	gotScore     int
	gotBreakdown map[string]float64
	setCalls     int
}

func (f *fakeScoreStore) GetByID(_ context.Context, _, _ uuid.UUID) (domain.Lead, error) {
	return f.lead, nil
}

func (f *fakeScoreStore) GetFramework(_ context.Context, _, _ uuid.UUID) (domain.QualificationFramework, error) {
	if !f.hasFw {
		return domain.QualificationFramework{}, repository.ErrFrameworkNotFound
	}
	return f.framework, nil
}

func (f *fakeScoreStore) SetScore(_ context.Context, _, _ uuid.UUID, score int, breakdown map[string]float64) error {
	f.gotScore = score
	f.gotBreakdown = breakdown
	f.setCalls++
	return nil
}

func bantFramework() domain.QualificationFramework {
	return domain.QualificationFramework{
		ID:   uuid.New(),
		Name: "BANT",
		Fields: []domain.FrameworkField{
			{Key: "budget", Label: "Budget", Type: domain.FrameworkFieldNumber, ScoreWeight: 30, Required: true},
			{Key: "authority", Label: "Authority", Type: domain.FrameworkFieldText, ScoreWeight: 20, Required: true},
			{Key: "need", Label: "Need", Type: domain.FrameworkFieldText, ScoreWeight: 30, Required: false},
			{Key: "timeline", Label: "Timeline", Type: domain.FrameworkFieldText, ScoreWeight: 20, Required: false},
		},
	}
}

func TestScoreLeadFullyQualified(t *testing.T) {
	fwID := uuid.New()
	store := &fakeScoreStore{
		hasFw:     true,
		framework: bantFramework(),
		lead: domain.Lead{
			ID:          uuid.New(),
			FrameworkID: &fwID,
			Qualification: domain.FieldMap{
				"budget":    domain.NumberValue(50000),
				"authority": domain.StringValue("CTO"),
				"need":      domain.StringValue("urgent migration"),
				"timeline":  domain.StringValue("Q3"),
			},
		},
	}
	scorer := NewFrameworkScorer(store)

	if err := scorer.ScoreLead(context.Background(), uuid.New(), store.lead.ID); err != nil {
		t.Fatalf("ScoreLead: %v", err)
	}
	if store.gotScore != 100 {
		t.Errorf("score = %d, want 100", store.gotScore)
	}
	if store.gotBreakdown["budget"] != 30 {
		t.Errorf("breakdown[budget] = %v, want 30", store.gotBreakdown["budget"])
	}
}

func TestScoreLeadIncompleteRequiredScalesDown(t *testing.T) {
	fwID := uuid.New()
	store := &fakeScoreStore{
		hasFw:     true,
		framework: bantFramework(),
		lead: domain.Lead{
			ID:          uuid.New(),
			FrameworkID: &fwID,
			Qualification: domain.FieldMap{
				"budget": domain.NumberValue(50000),
				"need":   domain.StringValue("migration"),
			},
		},
	}
	scorer := NewFrameworkScorer(store)

	if err := scorer.ScoreLead(context.Background(), uuid.New(), store.lead.ID); err != nil {
		t.Fatalf("ScoreLead: %v", err)
	}
	// 60 raw points, half the required fields filled.
	if store.gotScore != 30 {
		t.Errorf("score = %d, want 30", store.gotScore)
	}
	if store.gotBreakdown["completeness"] != 0.5 {
		t.Errorf("completeness = %v, want 0.5", store.gotBreakdown["completeness"])
	}
}

func TestScoreLeadIdempotent(t *testing.T) {
	fwID := uuid.New()
	store := &fakeScoreStore{
		hasFw:     true,
		framework: bantFramework(),
		lead: domain.Lead{
			ID:            uuid.New(),
			FrameworkID:   &fwID,
			Qualification: domain.FieldMap{"budget": domain.NumberValue(1)},
		},
	}
	scorer := NewFrameworkScorer(store)

	if err := scorer.ScoreLead(context.Background(), uuid.New(), store.lead.ID); err != nil {
		t.Fatalf("ScoreLead: %v", err)
	}
	first := store.gotScore
	if err := scorer.ScoreLead(context.Background(), uuid.New(), store.lead.ID); err != nil {
		t.Fatalf("ScoreLead: %v", err)
	}
	if store.gotScore != first {
		t.Errorf("rescore changed score: %d then %d", first, store.gotScore)
	}
	if store.setCalls != 2 {
		t.Errorf("setCalls = %d, want 2", store.setCalls)
	}
}

func TestScoreLeadWithoutFrameworkUsesBaseline(t *testing.T) {
	email := "a@x.com"
	company := "Acme"
	store := &fakeScoreStore{
		lead: domain.Lead{ID: uuid.New(), Email: &email, Company: &company},
	}
	scorer := NewFrameworkScorer(store)

	if err := scorer.ScoreLead(context.Background(), uuid.New(), store.lead.ID); err != nil {
		t.Fatalf("ScoreLead: %v", err)
	}
	if store.gotScore != 20 {
		t.Errorf("score = %d, want 20 (email + company)", store.gotScore)
	}
}

func TestResolvePriority(t *testing.T) {
	hot := domain.Priority{ID: uuid.New(), Name: "Hot", ScoreMin: 70, ScoreMax: 100, SortOrder: 0}
	warm := domain.Priority{ID: uuid.New(), Name: "Warm", ScoreMin: 40, ScoreMax: 69, SortOrder: 1}
	cold := domain.Priority{ID: uuid.New(), Name: "Cold", ScoreMin: 0, ScoreMax: 39, SortOrder: 2}
	buckets := []domain.Priority{hot, warm, cold}

	tests := []struct {
		score  int
		wantID uuid.UUID
		wantOk bool
	}{
		{100, hot.ID, true},
		{70, hot.ID, true},
		{69, warm.ID, true},
		{0, cold.ID, true},
	}
	for _, tt := range tests {
		got, ok := ResolvePriority(buckets, tt.score)
		if ok != tt.wantOk || got.ID != tt.wantID {
			t.Errorf("ResolvePriority(%d) = %s/%v, want %s/%v", tt.score, got.Name, ok, tt.wantID, tt.wantOk)
		}
	}

	if _, ok := ResolvePriority([]domain.Priority{hot}, 10); ok {
		t.Error("score outside every bucket must resolve to none")
	}
}
