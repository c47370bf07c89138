// Package sections exposes per-section cache control over the data
// clients: targeted invalidation and refresh of a legislator's member
// record, bills, votes, finance and news.
package sections

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/civicpulse/congress-data-client/pkg/congress"
	"github.com/civicpulse/congress-data-client/pkg/fec"
	"github.com/civicpulse/congress-data-client/pkg/news"
)

// Section names one cacheable slice of a legislator's profile.
type Section int

const (
	Member Section = iota
	Bills
	Votes
	Finance
	News
)

var sectionNames = map[Section]string{
	Member:  "member",
	Bills:   "bills",
	Votes:   "votes",
	Finance: "finance",
	News:    "news",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return "unknown"
}

// All lists every section in refresh order.
func All() []Section {
	return []Section{Member, Bills, Votes, Finance, News}
}

// Parse maps a section name to its Section value.
func Parse(name string) (Section, error) {
	for s, n := range sectionNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown section %q", name)
}

// Service coordinates invalidation and refresh across the data clients.
type Service struct {
	congress *congress.Client
	fec      *fec.Client
	news     *news.Client
	logger   zerolog.Logger
}

// NewService creates a section service over the three data clients.
func NewService(c *congress.Client, f *fec.Client, n *news.Client, logger zerolog.Logger) *Service {
	return &Service{
		congress: c,
		fec:      f,
		news:     n,
		logger:   logger.With().Str("component", "sections").Logger(),
	}
}

// Invalidate expires one section's cache for a legislator. Invalidating
// votes is a no-op because votes are never cached. Idempotent.
func (s *Service) Invalidate(ctx context.Context, bioguideID string, section Section) error {
	switch section {
	case Member:
		return s.congress.InvalidateMember(ctx, bioguideID)
	case Bills:
		return s.congress.InvalidateBills(ctx, bioguideID)
	case Votes:
		return nil
	case Finance:
		return s.fec.InvalidateFinances(ctx, bioguideID)
	case News:
		return s.news.Invalidate(ctx, bioguideID)
	default:
		return fmt.Errorf("unknown section %d", section)
	}
}

// RefreshSection invalidates and re-fetches one section. It reports
// whether fresh data was obtained; a stale fallback or an empty result
// counts as failure. Votes carry no cache and always succeed.
func (s *Service) RefreshSection(ctx context.Context, bioguideID string, section Section) bool {
	switch section {
	case Member:
		resp, err := s.congress.RefreshMember(ctx, bioguideID)
		return err == nil && !resp.IsStale && resp.Data != nil

	case Bills:
		resp, err := s.congress.RefreshBills(ctx, bioguideID)
		return err == nil && !resp.IsStale

	case Votes:
		return true

	case Finance:
		resp, err := s.fec.RefreshFinances(ctx, bioguideID)
		return err == nil && !resp.IsStale && resp.Data != nil

	case News:
		name := s.memberName(ctx, bioguideID)
		if name == "" {
			return false
		}
		resp, err := s.news.Refresh(ctx, bioguideID, name, 0)
		return err == nil && !resp.IsStale

	default:
		return false
	}
}

// RefreshAll refreshes every section for a legislator. Sections fail
// independently: one section's upstream being down does not abort the
// rest. The result maps section names to refresh success.
func (s *Service) RefreshAll(ctx context.Context, bioguideID string) map[string]bool {
	out := make(map[string]bool, len(sectionNames))
	for _, section := range All() {
		ok := s.RefreshSection(ctx, bioguideID, section)
		if !ok {
			s.logger.Warn().
				Str("bioguide_id", bioguideID).
				Str("section", section.String()).
				Msg("Section refresh failed")
		}
		out[section.String()] = ok
	}
	return out
}

// memberName resolves a legislator's display name for news queries,
// serving stale directory data if that is all we have.
func (s *Service) memberName(ctx context.Context, bioguideID string) string {
	resp, err := s.congress.GetMember(ctx, bioguideID)
	if err != nil || resp.Data == nil {
		return ""
	}
	return resp.Data.FullName
}
