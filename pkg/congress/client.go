// Package congress implements the read-through data client for
// Congress.gov directory, bill and vote records.
//
// Every read follows the same protocol: serve a fresh cache entry if one
// exists, otherwise fetch from the upstream and persist, and on upstream
// failure fall back to any cached entry regardless of TTL, flagging the
// result as stale. A failure with nothing cached yields an empty fresh
// result rather than an error, so callers cannot distinguish "no data"
// from "unreachable and nothing cached".
package congress

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/civicpulse/congress-data-client/pkg/cache"
	"github.com/civicpulse/congress-data-client/pkg/fuzzy"
	"github.com/civicpulse/congress-data-client/pkg/store"
	"github.com/civicpulse/congress-data-client/pkg/upstream"
)

// Store is the persistence surface the congress client needs.
type Store interface {
	GetLegislator(ctx context.Context, bioguideID string) (*store.Legislator, error)
	ListLegislators(ctx context.Context) ([]store.Legislator, error)
	UpsertLegislator(ctx context.Context, l *store.Legislator) error
	ClearLegislatorCachedAt(ctx context.Context, bioguideID string) error
	ListBillsByMember(ctx context.Context, bioguideID string) ([]store.Bill, error)
	UpsertBill(ctx context.Context, b *store.Bill) error
	DeleteBillsByMember(ctx context.Context, bioguideID string) error
}

// Client is the Congress.gov data client.
type Client struct {
	fetcher *upstream.Fetcher
	store   Store
	logger  zerolog.Logger
}

// NewClient creates a congress client over the given fetcher and store.
func NewClient(fetcher *upstream.Fetcher, st Store, logger zerolog.Logger) *Client {
	return &Client{
		fetcher: fetcher,
		store:   st,
		logger:  logger.With().Str("component", "congress-client").Logger(),
	}
}

// GetMember returns detailed member information, read-through cached
// with the Members TTL. A nil Data means the member does not exist
// upstream (or the upstream failed with nothing cached).
func (c *Client) GetMember(ctx context.Context, bioguideID string) (cache.CachedResponse[*store.Legislator], error) {
	cached, err := c.store.GetLegislator(ctx, bioguideID)
	if err != nil {
		return cache.Fresh[*store.Legislator](nil), fmt.Errorf("lookup member: %w", err)
	}

	if cached != nil && cache.IsValid(cached.CachedAt, cache.Members) {
		cache.Hits.WithLabelValues(cache.Members.String()).Inc()
		return cache.Fresh(cached), nil
	}
	cache.Misses.WithLabelValues(cache.Members.String()).Inc()

	params := url.Values{}
	params.Set("format", "json")

	var resp memberDetailResponse
	err = c.fetcher.GetJSON(ctx, "/member/"+bioguideID, params, &resp)
	switch {
	case err == nil && resp.Member != nil:
		l := detailToLegislator(resp.Member)
		if err := c.store.UpsertLegislator(ctx, l); err != nil {
			return cache.Fresh[*store.Legislator](nil), fmt.Errorf("persist member: %w", err)
		}
		return cache.Fresh(l), nil

	case errors.Is(err, upstream.ErrNotFound), err == nil:
		// Upstream has no such member; a valid empty result.
		return cache.Fresh[*store.Legislator](nil), nil

	default:
		return c.staleMember(cached, err), nil
	}
}

// staleMember serves the expired cache entry after an upstream failure,
// or an empty fresh result when there is nothing to fall back to.
func (c *Client) staleMember(cached *store.Legislator, cause error) cache.CachedResponse[*store.Legislator] {
	if cached == nil {
		c.logger.Warn().Err(cause).Msg("Member fetch failed with no cached fallback")
		return cache.Fresh[*store.Legislator](nil)
	}
	cache.StaleFallbacks.WithLabelValues(cache.Members.String()).Inc()
	c.logger.Warn().Err(cause).Str("bioguide_id", cached.BioguideID).Msg("Serving stale member data")
	return cache.Stale(cached, cache.Members.Label())
}

// SearchMembers searches current members by name or state. The live
// member list is fetched and cached member-by-member on the way through;
// when the upstream is unreachable the cached legislator table serves as
// the (stale) search corpus, so autocomplete keeps working offline.
func (c *Client) SearchMembers(ctx context.Context, query, state string) (cache.CachedResponse[[]fuzzy.Match[store.Legislator]], error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "250")
	if state != "" {
		params.Set("currentMember", "true")
	}

	var resp memberListResponse
	err := c.fetcher.GetJSON(ctx, "/member", params, &resp)
	if err != nil && !errors.Is(err, upstream.ErrNotFound) {
		members, lerr := c.store.ListLegislators(ctx)
		if lerr != nil || len(members) == 0 {
			c.logger.Warn().Err(err).Msg("Member search failed with no cached fallback")
			return cache.Fresh[[]fuzzy.Match[store.Legislator]](nil), nil
		}
		cache.StaleFallbacks.WithLabelValues(cache.Members.String()).Inc()
		c.logger.Warn().Err(err).Msg("Serving member search from cached legislators")
		return cache.Stale(rankMembers(query, state, members), cache.Members.Label()), nil
	}

	members := make([]store.Legislator, 0, len(resp.Members))
	for i := range resp.Members {
		l := summaryToLegislator(&resp.Members[i])
		if l.BioguideID == "" {
			continue
		}
		if err := c.store.UpsertLegislator(ctx, l); err != nil {
			return cache.Fresh[[]fuzzy.Match[store.Legislator]](nil), fmt.Errorf("persist member: %w", err)
		}
		members = append(members, *l)
	}

	return cache.Fresh(rankMembers(query, state, members)), nil
}

// rankMembers applies the state filter and fuzzy ranking shared by the
// live and cached search paths. An empty query returns everything (state
// filtered) with a neutral score.
func rankMembers(query, state string, members []store.Legislator) []fuzzy.Match[store.Legislator] {
	if state != "" {
		stateUpper := strings.ToUpper(state)
		filtered := members[:0:0]
		for _, m := range members {
			if strings.ToUpper(m.State) == stateUpper {
				filtered = append(filtered, m)
			}
		}
		members = filtered
	}

	if query == "" {
		out := make([]fuzzy.Match[store.Legislator], 0, len(members))
		for _, m := range members {
			out = append(out, fuzzy.Match[store.Legislator]{Item: m, Score: 1.0})
		}
		return out
	}

	return fuzzy.Search(query, members, func(l store.Legislator) string { return l.FullName },
		fuzzy.Options[store.Legislator]{
			State: func(l store.Legislator) string { return l.State },
		})
}

// GetMemberBills returns bills sponsored by a member, read-through
// cached with the Bills TTL.
func (c *Client) GetMemberBills(ctx context.Context, bioguideID string, limit int) (cache.CachedResponse[[]store.Bill], error) {
	if limit <= 0 {
		limit = 20
	}

	cached, err := c.cachedBills(ctx, bioguideID, false)
	if err != nil {
		return cache.Fresh[[]store.Bill](nil), fmt.Errorf("lookup bills: %w", err)
	}

	if len(cached) > 0 && cache.IsValid(cached[0].CachedAt, cache.Bills) {
		cache.Hits.WithLabelValues(cache.Bills.String()).Inc()
		return cache.Fresh(truncateBills(cached, limit)), nil
	}
	cache.Misses.WithLabelValues(cache.Bills.String()).Inc()

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	var resp sponsoredLegislationResponse
	err = c.fetcher.GetJSON(ctx, "/member/"+bioguideID+"/sponsored-legislation", params, &resp)
	if err != nil {
		return c.billFallback(cached, bioguideID, limit, err), nil
	}
	return c.persistBills(ctx, resp.SponsoredLegislation, bioguideID, false)
}

// GetCosponsoredBills returns bills the member cosponsored, cached with
// the same Bills TTL as sponsored legislation.
func (c *Client) GetCosponsoredBills(ctx context.Context, bioguideID string, limit int) (cache.CachedResponse[[]store.Bill], error) {
	if limit <= 0 {
		limit = 20
	}

	cached, err := c.cachedBills(ctx, bioguideID, true)
	if err != nil {
		return cache.Fresh[[]store.Bill](nil), fmt.Errorf("lookup bills: %w", err)
	}

	if len(cached) > 0 && cache.IsValid(cached[0].CachedAt, cache.Bills) {
		cache.Hits.WithLabelValues(cache.Bills.String()).Inc()
		return cache.Fresh(truncateBills(cached, limit)), nil
	}
	cache.Misses.WithLabelValues(cache.Bills.String()).Inc()

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	var resp cosponsoredLegislationResponse
	err = c.fetcher.GetJSON(ctx, "/member/"+bioguideID+"/cosponsored-legislation", params, &resp)
	if err != nil {
		return c.billFallback(cached, bioguideID, limit, err), nil
	}
	return c.persistBills(ctx, resp.CosponsoredLegislation, bioguideID, true)
}

// cachedBills lists the member's cached bills filtered by the
// cosponsorship flag. Sponsored and cosponsored share the bills table,
// with rows scoped to the member they were fetched for.
func (c *Client) cachedBills(ctx context.Context, bioguideID string, cosponsored bool) ([]store.Bill, error) {
	all, err := c.store.ListBillsByMember(ctx, bioguideID)
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, b := range all {
		if b.IsCosponsored == cosponsored {
			out = append(out, b)
		}
	}
	return out, nil
}

func (c *Client) persistBills(ctx context.Context, items []billItem, bioguideID string, cosponsored bool) (cache.CachedResponse[[]store.Bill], error) {
	bills := make([]store.Bill, 0, len(items))
	for i := range items {
		b := itemToBill(&items[i], bioguideID)
		b.IsCosponsored = cosponsored
		if b.Congress == 0 || b.BillType == "" || b.BillNumber == "" {
			continue
		}
		if err := c.store.UpsertBill(ctx, b); err != nil {
			return cache.Fresh[[]store.Bill](nil), fmt.Errorf("persist bill: %w", err)
		}
		bills = append(bills, *b)
	}
	return cache.Fresh(bills), nil
}

func (c *Client) billFallback(cached []store.Bill, bioguideID string, limit int, cause error) cache.CachedResponse[[]store.Bill] {
	if errors.Is(cause, upstream.ErrNotFound) {
		return cache.Fresh[[]store.Bill](nil)
	}
	if len(cached) == 0 {
		c.logger.Warn().Err(cause).Str("bioguide_id", bioguideID).Msg("Bill fetch failed with no cached fallback")
		return cache.Fresh[[]store.Bill](nil)
	}
	cache.StaleFallbacks.WithLabelValues(cache.Bills.String()).Inc()
	c.logger.Warn().Err(cause).Str("bioguide_id", bioguideID).Msg("Serving stale bill data")
	return cache.Stale(truncateBills(cached, limit), cache.Bills.Label())
}

// GetRecentVotes returns recent roll-call votes for a chamber, straight
// from the upstream. There is no per-subject vote cache.
func (c *Client) GetRecentVotes(ctx context.Context, chamber string, limit int) ([]RollCallVote, error) {
	if limit <= 0 {
		limit = 20
	}

	chamberPath := "house"
	if strings.EqualFold(chamber, "senate") {
		chamberPath = "senate"
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))

	var resp rollCallVoteResponse
	if err := c.fetcher.GetJSON(ctx, "/roll-call-vote/"+chamberPath, params, &resp); err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch votes: %w", err)
	}
	return resp.Votes, nil
}

// InvalidateMember clears the member record's cache timestamp without
// deleting the record. Idempotent.
func (c *Client) InvalidateMember(ctx context.Context, bioguideID string) error {
	cache.Invalidations.WithLabelValues(cache.Members.String()).Inc()
	return c.store.ClearLegislatorCachedAt(ctx, bioguideID)
}

// InvalidateBills removes all cached bills for a member. Idempotent.
func (c *Client) InvalidateBills(ctx context.Context, bioguideID string) error {
	cache.Invalidations.WithLabelValues(cache.Bills.String()).Inc()
	return c.store.DeleteBillsByMember(ctx, bioguideID)
}

// RefreshMember invalidates then re-fetches the member record. The
// fetch observes the post-invalidation state, so the cache check in
// GetMember cannot short-circuit it.
func (c *Client) RefreshMember(ctx context.Context, bioguideID string) (cache.CachedResponse[*store.Legislator], error) {
	if err := c.InvalidateMember(ctx, bioguideID); err != nil {
		return cache.Fresh[*store.Legislator](nil), err
	}
	return c.GetMember(ctx, bioguideID)
}

// RefreshBills invalidates then re-fetches a member's bills.
func (c *Client) RefreshBills(ctx context.Context, bioguideID string) (cache.CachedResponse[[]store.Bill], error) {
	if err := c.InvalidateBills(ctx, bioguideID); err != nil {
		return cache.Fresh[[]store.Bill](nil), err
	}
	return c.GetMemberBills(ctx, bioguideID, 0)
}

func truncateBills(bills []store.Bill, limit int) []store.Bill {
	if len(bills) > limit {
		return bills[:limit]
	}
	return bills
}

func detailToLegislator(m *memberDetail) *store.Legislator {
	l := &store.Legislator{
		BioguideID: m.BioguideID,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		FullName:   m.DirectOrderName,
		ImageURL:   m.Depiction.ImageURL,
		URL:        m.OfficialWebsiteURL,
	}
	if n := len(m.PartyHistory); n > 0 {
		l.Party = m.PartyHistory[n-1].PartyName
	}
	if n := len(m.Terms); n > 0 {
		latest := m.Terms[n-1]
		l.State = latest.StateCode
		l.Chamber = latest.Chamber
		if latest.District != 0 {
			l.District = strconv.Itoa(latest.District)
		}
	}
	l.OfficeAddress = m.AddressInformation.OfficeAddress
	l.Phone = m.AddressInformation.PhoneNumber
	return l
}

func summaryToLegislator(m *memberSummary) *store.Legislator {
	l := &store.Legislator{
		BioguideID: m.BioguideID,
		FullName:   m.Name,
		Party:      m.PartyName,
		State:      m.State,
		ImageURL:   m.Depiction.ImageURL,
		URL:        m.URL,
	}

	// Search results use "Last, First" ordering.
	if parts := strings.SplitN(m.Name, ", ", 2); len(parts) == 2 {
		l.LastName = parts[0]
		l.FirstName = parts[1]
	} else {
		l.LastName = m.Name
	}

	if n := len(m.Terms.Item); n > 0 {
		l.Chamber = m.Terms.Item[n-1].Chamber
	}
	return l
}

func itemToBill(item *billItem, memberBioguideID string) *store.Bill {
	return &store.Bill{
		MemberBioguideID: memberBioguideID,
		Congress:         item.Congress,
		BillType:         strings.ToLower(item.Type),
		BillNumber:       item.Number,
		Title:            item.Title,
		IntroducedDate:   item.IntroducedDate,
		LatestActionDate: item.LatestAction.ActionDate,
		LatestActionText: item.LatestAction.Text,
		PolicyArea:       item.PolicyArea.Name,
		URL:              item.URL,
	}
}
