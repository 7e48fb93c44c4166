// Package scoring computes lead scores from qualification framework field
// weights and resolves priority buckets from scores.
package scoring

import (
	"context"

	"github.com/google/uuid"

	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/internal/leads/repository"
)

// Scorer computes and persists a lead's score. Implementations must be
// idempotent: rescoring an unchanged lead yields the same score.
type Scorer interface {
	ScoreLead(ctx context.Context, organizationID, leadID uuid.UUID) error
}

// ScoreStore is the slice of the repository the framework scorer needs.
type ScoreStore interface {
	GetByID(ctx context.Context, id, organizationID uuid.UUID) (domain.Lead, error)
	GetFramework(ctx context.Context, organizationID, frameworkID uuid.UUID) (domain.QualificationFramework, error)
	SetScore(ctx context.Context, id, organizationID uuid.UUID, score int, breakdown map[string]float64) error
}

// FrameworkScorer derives a score from the lead's qualification framework:
// each filled framework field contributes its weight, scaled by a completeness
// factor over required fields.
type FrameworkScorer struct {
	store ScoreStore
}

func NewFrameworkScorer(store ScoreStore) *FrameworkScorer {
	return &FrameworkScorer{store: store}
}

func (s *FrameworkScorer) ScoreLead(ctx context.Context, organizationID, leadID uuid.UUID) error {
	lead, err := s.store.GetByID(ctx, leadID, organizationID)
	if err != nil {
		return err
	}

	score, breakdown := s.compute(ctx, organizationID, lead)
	return s.store.SetScore(ctx, leadID, organizationID, score, breakdown)
}

func (s *FrameworkScorer) compute(ctx context.Context, organizationID uuid.UUID, lead domain.Lead) (int, map[string]float64) {
	breakdown := map[string]float64{}

	if lead.FrameworkID == nil {
		return baselineScore(lead, breakdown)
	}
	framework, err := s.store.GetFramework(ctx, organizationID, *lead.FrameworkID)
	if err != nil {
		return baselineScore(lead, breakdown)
	}

	total := 0.0
	requiredTotal, requiredFilled := 0, 0
	for _, field := range framework.Fields {
		if field.Required {
			requiredTotal++
		}
		value, ok := lead.Qualification.Get(field.Key)
		if !ok || value.IsBlank() {
			continue
		}
		if field.Required {
			requiredFilled++
		}
		contribution := float64(field.ScoreWeight)
		breakdown[field.Key] = contribution
		total += contribution
	}

	// Completeness over required fields scales the framework contribution so
	// a lead missing half its required answers cannot max out.
	if requiredTotal > 0 {
		completeness := float64(requiredFilled) / float64(requiredTotal)
		breakdown["completeness"] = completeness
		total *= completeness
	}

	score := int(total)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, breakdown
}

// baselineScore covers leads without a framework: small fixed contributions
// for having contact identifiers and a company.
func baselineScore(lead domain.Lead, breakdown map[string]float64) (int, map[string]float64) {
	total := 0.0
	if lead.Email != nil && *lead.Email != "" {
		breakdown["email"] = 10
		total += 10
	}
	if lead.Phone != nil && *lead.Phone != "" {
		breakdown["phone"] = 10
		total += 10
	}
	if lead.Company != nil && *lead.Company != "" {
		breakdown["company"] = 10
		total += 10
	}
	return int(total), breakdown
}

// ResolvePriority picks the first active bucket (already in sort order) whose
// range contains the score. Ok is false when no bucket matches; the caller
// leaves the lead's priority unchanged.
func ResolvePriority(priorities []domain.Priority, score int) (domain.Priority, bool) {
	for _, p := range priorities {
		if p.Contains(score) {
			return p, true
		}
	}
	return domain.Priority{}, false
}

var _ Scorer = (*FrameworkScorer)(nil)
var _ ScoreStore = (*repository.Repository)(nil)
