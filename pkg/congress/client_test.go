package congress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/civicpulse/congress-data-client/pkg/store"
	"github.com/civicpulse/congress-data-client/pkg/upstream"
)

const memberDetailJSON = `{"member":{
	"bioguideId":"P000197",
	"directOrderName":"Nancy Pelosi",
	"firstName":"Nancy",
	"lastName":"Pelosi",
	"partyHistory":[{"partyName":"Democratic"}],
	"terms":[{"stateCode":"CA","district":11,"chamber":"House of Representatives"}],
	"depiction":{"imageUrl":"https://example.com/p000197.jpg"},
	"addressInformation":{"officeAddress":"1236 Longworth HOB","phoneNumber":"(202) 225-4965"},
	"officialWebsiteUrl":"https://pelosi.house.gov"}}`

const memberListJSON = `{"members":[
	{"bioguideId":"P000197","name":"Pelosi, Nancy","partyName":"Democratic","state":"CA",
	 "terms":{"item":[{"chamber":"House of Representatives"}]}},
	{"bioguideId":"P000595","name":"Peters, Gary","partyName":"Democratic","state":"MI",
	 "terms":{"item":[{"chamber":"Senate"}]}}]}`

const sponsoredJSON = `{"sponsoredLegislation":[
	{"congress":118,"type":"HR","number":"3076","title":"Postal Service Reform Act",
	 "introducedDate":"2023-05-11","url":"https://example.com/hr3076",
	 "policyArea":{"name":"Government Operations"},
	 "latestAction":{"actionDate":"2023-06-01","text":"Referred to committee"}}]}`

// upstreamState drives the mock Congress.gov server. Handlers count
// requests and can be flipped into failure mode mid-test.
type upstreamState struct {
	requests atomic.Int64
	failing  atomic.Bool
}

func newTestClient(t *testing.T) (*Client, *store.Store, *upstreamState) {
	t.Helper()

	state := &upstreamState{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state.requests.Add(1)
		if state.failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/member":
			w.Write([]byte(memberListJSON))
		case "/member/P000197":
			w.Write([]byte(memberDetailJSON))
		case "/member/P000197/sponsored-legislation":
			w.Write([]byte(sponsoredJSON))
		case "/member/P000595/cosponsored-legislation":
			// Peters cosponsors the bill Pelosi sponsors.
			w.Write([]byte(`{"cosponsoredLegislation":[
				{"congress":118,"type":"HR","number":"3076","title":"Postal Service Reform Act",
				 "introducedDate":"2023-05-11","latestAction":{"actionDate":"2023-06-01","text":"Referred to committee"}}]}`))
		case "/member/P000197/cosponsored-legislation":
			w.Write([]byte(`{"cosponsoredLegislation":[
				{"congress":118,"type":"S","number":"400","title":"Some Senate Bill",
				 "introducedDate":"2023-02-01","latestAction":{"actionDate":"2023-03-01","text":"Passed Senate"}}]}`))
		case "/roll-call-vote/house":
			w.Write([]byte(`{"roll-call-votes":[
				{"congress":118,"chamber":"House","rollCallNumber":17,"result":"Passed","startDate":"2024-01-10"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	t.Cleanup(srv.Close)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	fetcher := upstream.New("congress", srv.URL, nil, zerolog.Nop())
	return NewClient(fetcher, st, zerolog.Nop()), st, state
}

func TestGetMember_FetchesAndCaches(t *testing.T) {
	client, _, state := newTestClient(t)
	ctx := context.Background()

	resp, err := client.GetMember(ctx, "P000197")
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if resp.IsStale {
		t.Error("first fetch should be fresh")
	}
	if resp.Data == nil || resp.Data.FullName != "Nancy Pelosi" {
		t.Fatalf("unexpected member: %+v", resp.Data)
	}
	if resp.Data.State != "CA" || resp.Data.District != "11" {
		t.Errorf("term fields not mapped: state=%q district=%q", resp.Data.State, resp.Data.District)
	}
	if resp.Data.Party != "Democratic" {
		t.Errorf("party = %q, want Democratic", resp.Data.Party)
	}

	before := state.requests.Load()
	resp, err = client.GetMember(ctx, "P000197")
	if err != nil {
		t.Fatalf("GetMember (cached): %v", err)
	}
	if resp.Data == nil || resp.IsStale {
		t.Fatal("cached read should return fresh data")
	}
	if got := state.requests.Load(); got != before {
		t.Errorf("cached read hit the upstream: %d extra requests", got-before)
	}
}

func TestGetMember_NotFound(t *testing.T) {
	client, _, _ := newTestClient(t)

	resp, err := client.GetMember(context.Background(), "X999999")
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if resp.Data != nil || resp.IsStale {
		t.Errorf("missing member should yield empty fresh result, got %+v", resp)
	}
}

func TestGetMember_StaleFallback(t *testing.T) {
	client, _, state := newTestClient(t)
	ctx := context.Background()

	if _, err := client.GetMember(ctx, "P000197"); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}
	// Expire the cache entry, then take the upstream down.
	if err := client.InvalidateMember(ctx, "P000197"); err != nil {
		t.Fatalf("InvalidateMember: %v", err)
	}
	state.failing.Store(true)

	resp, err := client.GetMember(ctx, "P000197")
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if !resp.IsStale {
		t.Fatal("expected stale fallback")
	}
	if resp.Data == nil || resp.Data.FullName != "Nancy Pelosi" {
		t.Errorf("stale data missing: %+v", resp.Data)
	}
	if resp.Warning == "" {
		t.Error("stale response should carry a warning")
	}
}

func TestGetMember_FailureWithNoCache(t *testing.T) {
	client, _, state := newTestClient(t)
	state.failing.Store(true)

	resp, err := client.GetMember(context.Background(), "P000197")
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if resp.Data != nil || resp.IsStale {
		t.Errorf("want empty fresh result, got %+v", resp)
	}
}

func TestSearchMembers(t *testing.T) {
	client, _, _ := newTestClient(t)
	ctx := context.Background()

	resp, err := client.SearchMembers(ctx, "pelosi", "")
	if err != nil {
		t.Fatalf("SearchMembers: %v", err)
	}
	if resp.IsStale {
		t.Error("live search should be fresh")
	}
	if len(resp.Data) == 0 || resp.Data[0].Item.BioguideID != "P000197" {
		t.Fatalf("expected Pelosi first, got %+v", resp.Data)
	}
}

func TestSearchMembers_StateFilter(t *testing.T) {
	client, _, _ := newTestClient(t)

	resp, err := client.SearchMembers(context.Background(), "", "MI")
	if err != nil {
		t.Fatalf("SearchMembers: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Item.BioguideID != "P000595" {
		t.Fatalf("state filter failed: %+v", resp.Data)
	}
}

func TestSearchMembers_CachedFallback(t *testing.T) {
	client, _, state := newTestClient(t)
	ctx := context.Background()

	if _, err := client.SearchMembers(ctx, "pelosi", ""); err != nil {
		t.Fatalf("priming search: %v", err)
	}
	state.failing.Store(true)

	resp, err := client.SearchMembers(ctx, "peters", "")
	if err != nil {
		t.Fatalf("SearchMembers: %v", err)
	}
	if !resp.IsStale {
		t.Fatal("offline search should be stale")
	}
	if len(resp.Data) == 0 || resp.Data[0].Item.BioguideID != "P000595" {
		t.Fatalf("expected Peters from cached corpus, got %+v", resp.Data)
	}
}

func TestSearchMembers_FailureWithEmptyCache(t *testing.T) {
	client, _, state := newTestClient(t)
	state.failing.Store(true)

	resp, err := client.SearchMembers(context.Background(), "pelosi", "")
	if err != nil {
		t.Fatalf("SearchMembers: %v", err)
	}
	if len(resp.Data) != 0 || resp.IsStale {
		t.Errorf("want empty fresh result, got %+v", resp)
	}
}

func TestGetMemberBills(t *testing.T) {
	client, _, state := newTestClient(t)
	ctx := context.Background()

	resp, err := client.GetMemberBills(ctx, "P000197", 20)
	if err != nil {
		t.Fatalf("GetMemberBills: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("want 1 bill, got %d", len(resp.Data))
	}
	b := resp.Data[0]
	if b.BillType != "hr" || b.BillNumber != "3076" || b.Congress != 118 {
		t.Errorf("bill identity wrong: %+v", b)
	}
	if b.IsCosponsored {
		t.Error("sponsored bill flagged cosponsored")
	}

	before := state.requests.Load()
	if _, err := client.GetMemberBills(ctx, "P000197", 20); err != nil {
		t.Fatalf("GetMemberBills (cached): %v", err)
	}
	if got := state.requests.Load(); got != before {
		t.Errorf("cached read hit the upstream: %d extra requests", got-before)
	}
}

func TestGetCosponsoredBills_SeparateFromSponsored(t *testing.T) {
	client, _, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := client.GetMemberBills(ctx, "P000197", 20); err != nil {
		t.Fatalf("GetMemberBills: %v", err)
	}
	resp, err := client.GetCosponsoredBills(ctx, "P000197", 20)
	if err != nil {
		t.Fatalf("GetCosponsoredBills: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("want 1 cosponsored bill, got %d", len(resp.Data))
	}
	if !resp.Data[0].IsCosponsored || resp.Data[0].BillType != "s" {
		t.Errorf("cosponsored bill wrong: %+v", resp.Data[0])
	}

	// The sponsored view must not pick up the cosponsored bill.
	sponsored, err := client.GetMemberBills(ctx, "P000197", 20)
	if err != nil {
		t.Fatalf("GetMemberBills: %v", err)
	}
	if len(sponsored.Data) != 1 || sponsored.Data[0].IsCosponsored {
		t.Errorf("sponsored view polluted: %+v", sponsored.Data)
	}
}

func TestGetCosponsoredBills_SharedBillCachedPerMember(t *testing.T) {
	client, _, state := newTestClient(t)
	ctx := context.Background()

	// Pelosi's sponsored list caches HR 3076 under her scope first.
	if _, err := client.GetMemberBills(ctx, "P000197", 20); err != nil {
		t.Fatalf("GetMemberBills: %v", err)
	}

	// Peters cosponsors the same bill. His read must cache a row of
	// his own rather than landing on Pelosi's.
	resp, err := client.GetCosponsoredBills(ctx, "P000595", 20)
	if err != nil {
		t.Fatalf("GetCosponsoredBills: %v", err)
	}
	if len(resp.Data) != 1 || !resp.Data[0].IsCosponsored {
		t.Fatalf("unexpected cosponsored bills: %+v", resp.Data)
	}

	before := state.requests.Load()
	resp, err = client.GetCosponsoredBills(ctx, "P000595", 20)
	if err != nil {
		t.Fatalf("GetCosponsoredBills (cached): %v", err)
	}
	if len(resp.Data) != 1 || resp.IsStale {
		t.Fatalf("cached read should return the bill fresh: %+v", resp)
	}
	if got := state.requests.Load(); got != before {
		t.Errorf("cached read hit the upstream: %d extra requests", got-before)
	}

	// His cached rows also carry him through an outage.
	state.failing.Store(true)
	resp, err = client.GetCosponsoredBills(ctx, "P000595", 20)
	if err != nil {
		t.Fatalf("GetCosponsoredBills (outage): %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].BillNumber != "3076" {
		t.Fatalf("outage read lost the cached bill: %+v", resp.Data)
	}

	// Pelosi's sponsored view never sees his cosponsorship row.
	state.failing.Store(false)
	sponsored, err := client.GetMemberBills(ctx, "P000197", 20)
	if err != nil {
		t.Fatalf("GetMemberBills: %v", err)
	}
	if len(sponsored.Data) != 1 || sponsored.Data[0].IsCosponsored {
		t.Errorf("sponsored view polluted: %+v", sponsored.Data)
	}
}

func TestGetMemberBills_FailureWithNoCache(t *testing.T) {
	client, _, state := newTestClient(t)
	state.failing.Store(true)

	resp, err := client.GetMemberBills(context.Background(), "P000197", 20)
	if err != nil {
		t.Fatalf("GetMemberBills: %v", err)
	}
	if len(resp.Data) != 0 || resp.IsStale {
		t.Errorf("want empty fresh result, got %+v", resp)
	}
}

func TestGetRecentVotes(t *testing.T) {
	client, _, _ := newTestClient(t)

	votes, err := client.GetRecentVotes(context.Background(), "house", 20)
	if err != nil {
		t.Fatalf("GetRecentVotes: %v", err)
	}
	if len(votes) != 1 || votes[0].RollCallNumber != 17 {
		t.Fatalf("unexpected votes: %+v", votes)
	}
}

func TestRefreshMember_ForcesFetch(t *testing.T) {
	client, _, state := newTestClient(t)
	ctx := context.Background()

	if _, err := client.GetMember(ctx, "P000197"); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}

	before := state.requests.Load()
	resp, err := client.RefreshMember(ctx, "P000197")
	if err != nil {
		t.Fatalf("RefreshMember: %v", err)
	}
	if resp.IsStale || resp.Data == nil {
		t.Fatalf("refresh should return fresh data: %+v", resp)
	}
	if got := state.requests.Load(); got == before {
		t.Error("refresh did not hit the upstream")
	}
}

func TestRefreshBills_DropsDeletedBills(t *testing.T) {
	client, st, _ := newTestClient(t)
	ctx := context.Background()

	// Seed a bill the upstream no longer reports.
	stale := &store.Bill{
		MemberBioguideID: "P000197",
		Congress:         117, BillType: "hr", BillNumber: "1",
		Title: "Withdrawn Act",
	}
	if err := st.UpsertBill(ctx, stale); err != nil {
		t.Fatalf("seeding bill: %v", err)
	}

	resp, err := client.RefreshBills(ctx, "P000197")
	if err != nil {
		t.Fatalf("RefreshBills: %v", err)
	}
	for _, b := range resp.Data {
		if b.BillNumber == "1" && b.Congress == 117 {
			t.Error("refresh kept a bill the upstream dropped")
		}
	}
	if len(resp.Data) != 1 || resp.Data[0].BillNumber != "3076" {
		t.Fatalf("unexpected bills after refresh: %+v", resp.Data)
	}
}
