// Package routing assigns owners to inbound leads by evaluating tenant
// routing rules against the lead's field values.
package routing

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/platform/logger"
)

// RuleStore is the slice of the repository the evaluator needs.
type RuleStore interface {
	ListActiveRoutingRules(ctx context.Context, organizationID uuid.UUID) ([]domain.RoutingRule, error)
	ClaimRoundRobinIndex(ctx context.Context, organizationID, ruleID uuid.UUID) (int, error)
	ListTeamMemberIDs(ctx context.Context, organizationID, teamID uuid.UUID) ([]uuid.UUID, error)
}

type Evaluator struct {
	store RuleStore
	log   *logger.Logger
}

func NewEvaluator(store RuleStore, log *logger.Logger) *Evaluator {
	return &Evaluator{store: store, log: log}
}

// Decision records which rule (if any) assigned the owner.
type Decision struct {
	OwnerID  uuid.UUID
	RuleID   *uuid.UUID
	RuleName string
}

// ResolveOwner walks active rules in descending priority and returns the
// owner the first matching rule resolves. Rules whose strategy yields no
// candidate are skipped. When no rule matches, the explicitly requested owner
// wins, then the creator.
func (e *Evaluator) ResolveOwner(ctx context.Context, organizationID uuid.UUID, values domain.FieldMap, requestedOwnerID *uuid.UUID, creatorID uuid.UUID) (Decision, error) {
	rules, err := e.store.ListActiveRoutingRules(ctx, organizationID)
	if err != nil {
		return Decision{}, err
	}

	for _, rule := range rules {
		if !Matches(rule.Conditions, values) {
			continue
		}
		ownerID, ok, err := e.resolveStrategy(ctx, organizationID, rule)
		if err != nil {
			return Decision{}, err
		}
		if !ok {
			e.log.RoutingDecision(organizationID.String(), rule.ID.String(), "", "skipped_no_candidates")
			continue
		}
		e.log.RoutingDecision(organizationID.String(), rule.ID.String(), ownerID.String(), string(rule.AssignmentType))
		ruleID := rule.ID
		return Decision{OwnerID: ownerID, RuleID: &ruleID, RuleName: rule.Name}, nil
	}

	if requestedOwnerID != nil {
		return Decision{OwnerID: *requestedOwnerID}, nil
	}
	return Decision{OwnerID: creatorID}, nil
}

func (e *Evaluator) resolveStrategy(ctx context.Context, organizationID uuid.UUID, rule domain.RoutingRule) (uuid.UUID, bool, error) {
	switch rule.AssignmentType {
	case domain.AssignSpecificUser:
		if len(rule.AssignedUserIDs) == 0 {
			return uuid.Nil, false, nil
		}
		return rule.AssignedUserIDs[0], true, nil

	case domain.AssignRoundRobin:
		return e.roundRobin(ctx, organizationID, rule.ID, rule.AssignedUserIDs)

	case domain.AssignTeam:
		if rule.AssignedTeamID == nil {
			return uuid.Nil, false, nil
		}
		members, err := e.store.ListTeamMemberIDs(ctx, organizationID, *rule.AssignedTeamID)
		if err != nil {
			return uuid.Nil, false, err
		}
		return e.roundRobin(ctx, organizationID, rule.ID, members)

	default:
		return uuid.Nil, false, nil
	}
}

// roundRobin claims the rule's next cursor value atomically, so concurrent
// leads matching the same rule land on distinct users.
func (e *Evaluator) roundRobin(ctx context.Context, organizationID, ruleID uuid.UUID, candidates []uuid.UUID) (uuid.UUID, bool, error) {
	if len(candidates) == 0 {
		return uuid.Nil, false, nil
	}
	index, err := e.store.ClaimRoundRobinIndex(ctx, organizationID, ruleID)
	if err != nil {
		return uuid.Nil, false, err
	}
	return candidates[index%len(candidates)], true, nil
}

// Matches evaluates a rule's condition list as a conjunction. An empty list
// matches every lead.
func Matches(conditions []domain.RuleCondition, values domain.FieldMap) bool {
	for _, cond := range conditions {
		if !matchCondition(cond, values) {
			return false
		}
	}
	return true
}

func matchCondition(cond domain.RuleCondition, values domain.FieldMap) bool {
	value, ok := values.Get(cond.Field)
	actual := ""
	if ok {
		actual = value.AsString()
	}

	switch cond.Operator {
	case domain.OperatorIsNotEmpty:
		return ok && !value.IsBlank()
	case domain.OperatorEquals:
		return len(cond.Value) > 0 && strings.EqualFold(actual, cond.Value[0])
	case domain.OperatorContains:
		return len(cond.Value) > 0 && cond.Value[0] != "" &&
			strings.Contains(strings.ToLower(actual), strings.ToLower(cond.Value[0]))
	case domain.OperatorIn:
		for _, candidate := range cond.Value {
			if strings.EqualFold(actual, candidate) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
