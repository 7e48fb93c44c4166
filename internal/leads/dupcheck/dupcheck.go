// Package dupcheck implements duplicate detection for inbound and updated
// leads: a blocking check applied before persistence, and a non-blocking
// candidate finder used to enrich lead detail views.
package dupcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"crmcore_backend/internal/leads/domain"
	"crmcore_backend/internal/leads/repository"
	"crmcore_backend/platform/apperr"
)

const (
	DuplicateTypeLead    = "lead"
	DuplicateTypeContact = "contact"

	maxLeadCandidates    = 5
	maxContactCandidates = 5
	maxAccountCandidates = 3
)

// MatchStore is the slice of the repository the checker needs.
type MatchStore interface {
	FindActiveLeadByEmail(ctx context.Context, organizationID uuid.UUID, email string, excludeID *uuid.UUID) (repository.MatchRecord, error)
	FindActiveLeadByPhone(ctx context.Context, organizationID uuid.UUID, phone string, excludeID *uuid.UUID) (repository.MatchRecord, error)
	FindContactByEmail(ctx context.Context, organizationID uuid.UUID, email string) (repository.MatchRecord, error)
	FindContactByPhone(ctx context.Context, organizationID uuid.UUID, phone string) (repository.MatchRecord, error)
	ListLeadCandidates(ctx context.Context, organizationID uuid.UUID, email, phone string, excludeID *uuid.UUID, limit int) ([]repository.Candidate, error)
	ListContactCandidates(ctx context.Context, organizationID uuid.UUID, email, phone string, limit int) ([]repository.Candidate, error)
	ListAccountCandidatesByDomain(ctx context.Context, organizationID uuid.UUID, emailDomain string, limit int) ([]repository.Candidate, error)
}

type Checker struct {
	store MatchStore
}

func NewChecker(store MatchStore) *Checker {
	return &Checker{store: store}
}

// Identity is the pair of identifiers a lead is matched on.
type Identity struct {
	Email string
	Phone string
	// ExcludeLeadID skips the record being updated when matching leads.
	ExcludeLeadID *uuid.UUID
}

// Check runs the blocking duplicate check per tenant policy. A hit under a
// block policy returns a Conflict naming the matched record; warn and off
// policies never block.
func (c *Checker) Check(ctx context.Context, organizationID uuid.UUID, identity Identity, settings domain.DuplicateSettings) error {
	if !settings.Enabled {
		return nil
	}

	email := strings.TrimSpace(identity.Email)
	phone := strings.TrimSpace(identity.Phone)

	if email != "" && settings.ExactEmailMatch == domain.MatchBlock {
		if err := c.checkIdentifier(ctx, organizationID, identity, settings, email, true); err != nil {
			return err
		}
	}
	if phone != "" && settings.ExactPhoneMatch == domain.MatchBlock {
		if err := c.checkIdentifier(ctx, organizationID, identity, settings, phone, false); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) checkIdentifier(ctx context.Context, organizationID uuid.UUID, identity Identity, settings domain.DuplicateSettings, value string, byEmail bool) error {
	if settings.CheckLeads {
		match, err := c.findLead(ctx, organizationID, value, identity.ExcludeLeadID, byEmail)
		if err == nil {
			return duplicateConflict(DuplicateTypeLead, match, value, byEmail)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	if settings.CheckContacts {
		match, err := c.findContact(ctx, organizationID, value, byEmail)
		if err == nil {
			return duplicateConflict(DuplicateTypeContact, match, value, byEmail)
		}
		if !errors.Is(err, repository.ErrContactNotFound) {
			return err
		}
	}
	return nil
}

func (c *Checker) findLead(ctx context.Context, organizationID uuid.UUID, value string, excludeID *uuid.UUID, byEmail bool) (repository.MatchRecord, error) {
	if byEmail {
		return c.store.FindActiveLeadByEmail(ctx, organizationID, value, excludeID)
	}
	return c.store.FindActiveLeadByPhone(ctx, organizationID, value, excludeID)
}

func (c *Checker) findContact(ctx context.Context, organizationID uuid.UUID, value string, byEmail bool) (repository.MatchRecord, error) {
	if byEmail {
		return c.store.FindContactByEmail(ctx, organizationID, value)
	}
	return c.store.FindContactByPhone(ctx, organizationID, value)
}

func duplicateConflict(duplicateType string, match repository.MatchRecord, value string, byEmail bool) error {
	identifier := "phone number"
	if byEmail {
		identifier = "email address"
	}
	name := match.Name
	if name == "" {
		name = "an existing record"
	}
	return apperr.Duplicate(
		fmt.Sprintf("a %s with this %s already exists: %s", duplicateType, identifier, name),
		duplicateType, match.ID.String(),
	)
}

// CandidateGroup is the non-blocking duplicate report for one lead.
type CandidateGroup struct {
	Leads    []repository.Candidate
	Contacts []repository.Candidate
	Accounts []repository.Candidate
}

// Empty reports whether no candidate of any kind was found.
func (g CandidateGroup) Empty() bool {
	return len(g.Leads) == 0 && len(g.Contacts) == 0 && len(g.Accounts) == 0
}

// FindCandidates collects possible duplicates for UI hinting. The three
// source queries run concurrently; results are deduplicated by id.
func (c *Checker) FindCandidates(ctx context.Context, organizationID uuid.UUID, identity Identity) (CandidateGroup, error) {
	email := strings.TrimSpace(identity.Email)
	phone := strings.TrimSpace(identity.Phone)
	if email == "" && phone == "" {
		return CandidateGroup{}, nil
	}

	var group CandidateGroup
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		candidates, err := c.store.ListLeadCandidates(gctx, organizationID, email, phone, identity.ExcludeLeadID, maxLeadCandidates)
		if err != nil {
			return err
		}
		group.Leads = dedupeCandidates(candidates)
		return nil
	})
	g.Go(func() error {
		candidates, err := c.store.ListContactCandidates(gctx, organizationID, email, phone, maxContactCandidates)
		if err != nil {
			return err
		}
		group.Contacts = dedupeCandidates(candidates)
		return nil
	})
	g.Go(func() error {
		domainPart := emailDomain(email)
		if domainPart == "" {
			group.Accounts = []repository.Candidate{}
			return nil
		}
		candidates, err := c.store.ListAccountCandidatesByDomain(gctx, organizationID, domainPart, maxAccountCandidates)
		if err != nil {
			return err
		}
		group.Accounts = candidates
		return nil
	})

	if err := g.Wait(); err != nil {
		return CandidateGroup{}, err
	}
	return group, nil
}

func dedupeCandidates(candidates []repository.Candidate) []repository.Candidate {
	seen := make(map[uuid.UUID]struct{}, len(candidates))
	out := make([]repository.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
