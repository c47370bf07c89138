// Package fec implements the read-through data client for OpenFEC
// campaign finance records.
//
// Finance lookups depend on a two-step upstream resolution: the
// legislator's name maps to an FEC candidate ID via a search call, and
// the candidate ID then keys the totals and disbursement endpoints. The
// candidate ID is sticky: once stored it survives finance invalidations,
// so the search step never repeats for a known legislator.
package fec

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/civicpulse/congress-data-client/pkg/cache"
	"github.com/civicpulse/congress-data-client/pkg/store"
	"github.com/civicpulse/congress-data-client/pkg/upstream"
)

// Store is the persistence surface the finance client needs. It reads
// legislators because a finance lookup is meaningless without a cached
// directory record to resolve the candidate from.
type Store interface {
	GetLegislator(ctx context.Context, bioguideID string) (*store.Legislator, error)
	GetFinance(ctx context.Context, bioguideID string) (*store.CampaignFinance, error)
	UpsertFinance(ctx context.Context, f *store.CampaignFinance) error
	ClearFinanceCachedAt(ctx context.Context, bioguideID string) error
	ListExpenditures(ctx context.Context, bioguideID string, limit int) ([]store.Expenditure, error)
	ReplaceExpenditures(ctx context.Context, bioguideID string, items []store.Expenditure) error
}

// Client is the OpenFEC data client.
type Client struct {
	fetcher *upstream.Fetcher
	store   Store
	logger  zerolog.Logger
}

// NewClient creates a finance client over the given fetcher and store.
func NewClient(fetcher *upstream.Fetcher, st Store, logger zerolog.Logger) *Client {
	return &Client{
		fetcher: fetcher,
		store:   st,
		logger:  logger.With().Str("component", "fec-client").Logger(),
	}
}

// GetFinances returns the campaign finance summary for a legislator,
// read-through cached with the Finance TTL. The legislator must already
// be present in the directory; without a name there is nothing to
// resolve against the candidate search.
func (c *Client) GetFinances(ctx context.Context, bioguideID string) (cache.CachedResponse[*store.CampaignFinance], error) {
	cached, err := c.store.GetFinance(ctx, bioguideID)
	if err != nil {
		return cache.Fresh[*store.CampaignFinance](nil), fmt.Errorf("lookup finance: %w", err)
	}

	if cached != nil && cache.IsValid(cached.CachedAt, cache.Finance) {
		cache.Hits.WithLabelValues(cache.Finance.String()).Inc()
		return cache.Fresh(cached), nil
	}
	cache.Misses.WithLabelValues(cache.Finance.String()).Inc()

	legislator, err := c.store.GetLegislator(ctx, bioguideID)
	if err != nil {
		return cache.Fresh[*store.CampaignFinance](nil), fmt.Errorf("lookup legislator: %w", err)
	}
	if legislator == nil {
		// No directory record to resolve from.
		return cache.Fresh[*store.CampaignFinance](nil), nil
	}

	candidateID, committeeID := stickyIDs(cached)
	if candidateID == "" {
		candidateID, committeeID, err = c.resolveCandidate(ctx, legislator)
		if err != nil {
			return c.staleFinance(cached, bioguideID, err), nil
		}
		if candidateID == "" {
			return cache.Fresh[*store.CampaignFinance](nil), nil
		}
	}

	params := url.Values{}
	params.Set("sort", "-cycle")
	params.Set("per_page", "1")

	var resp totalsResponse
	if err := c.fetcher.GetJSON(ctx, "/candidate/"+candidateID+"/totals", params, &resp); err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return cache.Fresh[*store.CampaignFinance](nil), nil
		}
		return c.staleFinance(cached, bioguideID, err), nil
	}

	f := &store.CampaignFinance{
		BioguideID:     bioguideID,
		FECCandidateID: candidateID,
		CommitteeID:    committeeID,
	}
	if len(resp.Results) > 0 {
		t := resp.Results[0]
		f.Cycle = t.Cycle
		f.TotalReceipts = t.Receipts
		f.TotalDisbursements = t.Disbursements
		f.CashOnHand = t.CashOnHand
		f.Debt = t.DebtsOwed
		f.IndividualContributions = t.IndividualContributions
		f.PACContributions = t.PACContributions
		f.PartyContributions = t.PartyContributions
	}
	if err := c.store.UpsertFinance(ctx, f); err != nil {
		return cache.Fresh[*store.CampaignFinance](nil), fmt.Errorf("persist finance: %w", err)
	}
	return cache.Fresh(f), nil
}

// stickyIDs extracts the already-resolved FEC identifiers from an
// expired cache row, if any.
func stickyIDs(cached *store.CampaignFinance) (candidateID, committeeID string) {
	if cached == nil {
		return "", ""
	}
	return cached.FECCandidateID, cached.CommitteeID
}

// resolveCandidate searches OpenFEC for the legislator by name and
// state and returns the first matching candidate. An empty candidate ID
// with a nil error means no candidate matched.
func (c *Client) resolveCandidate(ctx context.Context, l *store.Legislator) (candidateID, committeeID string, err error) {
	query := strings.TrimSpace(l.LastName + ", " + l.FirstName)
	if query == "," {
		query = l.FullName
	}

	params := url.Values{}
	params.Set("q", query)
	if l.State != "" {
		params.Set("state", l.State)
	}
	params.Set("sort", "-election_years")
	params.Set("per_page", "5")

	var resp candidateSearchResponse
	if err := c.fetcher.GetJSON(ctx, "/candidates/search", params, &resp); err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return "", "", nil
		}
		return "", "", err
	}
	if len(resp.Results) == 0 {
		return "", "", nil
	}

	best := resp.Results[0]
	if len(best.PrincipalCommittees) > 0 {
		committeeID = best.PrincipalCommittees[0].CommitteeID
	}
	return best.CandidateID, committeeID, nil
}

func (c *Client) staleFinance(cached *store.CampaignFinance, bioguideID string, cause error) cache.CachedResponse[*store.CampaignFinance] {
	if cached == nil {
		c.logger.Warn().Err(cause).Str("bioguide_id", bioguideID).Msg("Finance fetch failed with no cached fallback")
		return cache.Fresh[*store.CampaignFinance](nil)
	}
	cache.StaleFallbacks.WithLabelValues(cache.Finance.String()).Inc()
	c.logger.Warn().Err(cause).Str("bioguide_id", bioguideID).Msg("Serving stale finance data")
	return cache.Stale(cached, cache.Finance.Label())
}

// GetExpenditures returns recent disbursements for a legislator's
// principal committee. Expenditures are list-valued and carry no
// per-row timestamp; their freshness rides on the finance summary's
// cache entry, and every refresh replaces the stored set wholesale.
func (c *Client) GetExpenditures(ctx context.Context, bioguideID string, limit int) (cache.CachedResponse[[]store.Expenditure], error) {
	if limit <= 0 {
		limit = 20
	}

	finance, err := c.store.GetFinance(ctx, bioguideID)
	if err != nil {
		return cache.Fresh[[]store.Expenditure](nil), fmt.Errorf("lookup finance: %w", err)
	}

	cached, err := c.store.ListExpenditures(ctx, bioguideID, limit)
	if err != nil {
		return cache.Fresh[[]store.Expenditure](nil), fmt.Errorf("lookup expenditures: %w", err)
	}

	if finance != nil && cache.IsValid(finance.CachedAt, cache.Finance) && len(cached) > 0 {
		cache.Hits.WithLabelValues(cache.Finance.String()).Inc()
		return cache.Fresh(cached), nil
	}
	cache.Misses.WithLabelValues(cache.Finance.String()).Inc()

	// Resolving the committee requires the finance summary.
	if finance == nil || finance.CommitteeID == "" {
		fresh, err := c.GetFinances(ctx, bioguideID)
		if err != nil {
			return cache.Fresh[[]store.Expenditure](nil), err
		}
		finance = fresh.Data
		if finance == nil || finance.CommitteeID == "" {
			return cache.Fresh[[]store.Expenditure](nil), nil
		}
	}

	params := url.Values{}
	params.Set("committee_id", finance.CommitteeID)
	params.Set("sort", "-disbursement_date")
	params.Set("per_page", strconv.Itoa(limit))

	var resp scheduleBResponse
	if err := c.fetcher.GetJSON(ctx, "/schedules/schedule_b", params, &resp); err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return cache.Fresh[[]store.Expenditure](nil), nil
		}
		if len(cached) == 0 {
			c.logger.Warn().Err(err).Str("bioguide_id", bioguideID).Msg("Expenditure fetch failed with no cached fallback")
			return cache.Fresh[[]store.Expenditure](nil), nil
		}
		cache.StaleFallbacks.WithLabelValues(cache.Finance.String()).Inc()
		c.logger.Warn().Err(err).Str("bioguide_id", bioguideID).Msg("Serving stale expenditure data")
		return cache.Stale(cached, cache.Finance.Label()), nil
	}

	items := make([]store.Expenditure, 0, len(resp.Results))
	for _, d := range resp.Results {
		items = append(items, store.Expenditure{
			BioguideID: bioguideID,
			PayeeName:  d.RecipientName,
			Purpose:    d.Description,
			Amount:     d.Amount,
			Date:       d.Date,
			Category:   d.Category,
		})
	}
	if err := c.store.ReplaceExpenditures(ctx, bioguideID, items); err != nil {
		return cache.Fresh[[]store.Expenditure](nil), fmt.Errorf("persist expenditures: %w", err)
	}
	return cache.Fresh(items), nil
}

// InvalidateFinances expires the finance summary and drops the stored
// expenditures. The FEC candidate ID is kept so the next refresh skips
// the candidate search. Idempotent.
func (c *Client) InvalidateFinances(ctx context.Context, bioguideID string) error {
	cache.Invalidations.WithLabelValues(cache.Finance.String()).Inc()
	if err := c.store.ClearFinanceCachedAt(ctx, bioguideID); err != nil {
		return err
	}
	return c.store.ReplaceExpenditures(ctx, bioguideID, nil)
}

// RefreshFinances invalidates then re-fetches the finance summary.
func (c *Client) RefreshFinances(ctx context.Context, bioguideID string) (cache.CachedResponse[*store.CampaignFinance], error) {
	if err := c.InvalidateFinances(ctx, bioguideID); err != nil {
		return cache.Fresh[*store.CampaignFinance](nil), err
	}
	return c.GetFinances(ctx, bioguideID)
}
