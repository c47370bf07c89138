package fec

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

const candidateSearchJSON = `{"results":[
	{"candidate_id":"H8CA05035","name":"PELOSI, NANCY","state":"CA",
	 "principal_committees":[{"committee_id":"C00213512"}]}]}`

const totalsJSON = `{"results":[
	{"cycle":2024,"receipts":5000000,"disbursements":4200000,
	 "last_cash_on_hand_end_period":800000,"last_debts_owed_by_committee":0,
	 "individual_contributions":3100000,
	 "other_political_committee_contributions":900000,
	 "political_party_committee_contributions":50000}]}`

const scheduleBJSON = `{"results":[
	{"recipient_name":"ACME PRINTING","disbursement_description":"CAMPAIGN MAILERS",
	 "disbursement_amount":12500.50,"disbursement_date":"2024-03-15",
	 "disbursement_purpose_category":"ADVERTISING"},
	{"recipient_name":"AIRWAVES MEDIA","disbursement_description":"TV BUY",
	 "disbursement_amount":98000,"disbursement_date":"2024-03-01",
	 "disbursement_purpose_category":"ADVERTISING"}]}`

type fecUpstream struct {
	searches atomic.Int64
	failing  atomic.Bool
}

func newTestClient(t *testing.T) (*Client, *store.Store, *fecUpstream) {
	t.Helper()

	state := &fecUpstream{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if state.failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/candidates/search":
			state.searches.Add(1)
			w.Write([]byte(candidateSearchJSON))
		case "/candidate/H8CA05035/totals":
			w.Write([]byte(totalsJSON))
		case "/schedules/schedule_b":
			w.Write([]byte(scheduleBJSON))
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

	fetcher := upstream.New("openfec", srv.URL, nil, zerolog.Nop())
	return NewClient(fetcher, st, zerolog.Nop()), st, state
}

func seedLegislator(t *testing.T, st *store.Store) {
	t.Helper()
	err := st.UpsertLegislator(context.Background(), &store.Legislator{
		BioguideID: "P000197",
		FirstName:  "Nancy",
		LastName:   "Pelosi",
		FullName:   "Nancy Pelosi",
		State:      "CA",
	})
	if err != nil {
		t.Fatalf("seeding legislator: %v", err)
	}
}

func TestGetFinances_ResolvesAndCaches(t *testing.T) {
	client, st, state := newTestClient(t)
	seedLegislator(t, st)
	ctx := context.Background()

	resp, err := client.GetFinances(ctx, "P000197")
	if err != nil {
		t.Fatalf("GetFinances: %v", err)
	}
	if resp.IsStale || resp.Data == nil {
		t.Fatalf("want fresh data, got %+v", resp)
	}
	f := resp.Data
	if f.FECCandidateID != "H8CA05035" || f.CommitteeID != "C00213512" {
		t.Errorf("identifiers not resolved: %+v", f)
	}
	if f.Cycle != 2024 || f.TotalReceipts != 5000000 || f.CashOnHand != 800000 {
		t.Errorf("totals not mapped: %+v", f)
	}

	// A second read must come from the cache, skipping both upstream calls.
	before := state.searches.Load()
	resp, err = client.GetFinances(ctx, "P000197")
	if err != nil {
		t.Fatalf("GetFinances (cached): %v", err)
	}
	if resp.IsStale || resp.Data == nil {
		t.Fatalf("want cached fresh data, got %+v", resp)
	}
	if state.searches.Load() != before {
		t.Error("cached read repeated the candidate search")
	}
}

func TestGetFinances_NoDirectoryRecord(t *testing.T) {
	client, _, _ := newTestClient(t)

	resp, err := client.GetFinances(context.Background(), "X999999")
	if err != nil {
		t.Fatalf("GetFinances: %v", err)
	}
	if resp.Data != nil || resp.IsStale {
		t.Errorf("want empty fresh result without a directory record, got %+v", resp)
	}
}

func TestGetFinances_StickyCandidateID(t *testing.T) {
	client, st, state := newTestClient(t)
	seedLegislator(t, st)
	ctx := context.Background()

	if _, err := client.GetFinances(ctx, "P000197"); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}
	if got := state.searches.Load(); got != 1 {
		t.Fatalf("want 1 candidate search, got %d", got)
	}

	if err := client.InvalidateFinances(ctx, "P000197"); err != nil {
		t.Fatalf("InvalidateFinances: %v", err)
	}

	// The refresh must reuse the stored candidate ID instead of
	// searching again.
	resp, err := client.GetFinances(ctx, "P000197")
	if err != nil {
		t.Fatalf("GetFinances after invalidation: %v", err)
	}
	if resp.IsStale || resp.Data == nil {
		t.Fatalf("want fresh data, got %+v", resp)
	}
	if got := state.searches.Load(); got != 1 {
		t.Errorf("candidate search repeated after invalidation: %d searches", got)
	}
}

func TestGetFinances_StaleFallback(t *testing.T) {
	client, st, state := newTestClient(t)
	seedLegislator(t, st)
	ctx := context.Background()

	if _, err := client.GetFinances(ctx, "P000197"); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}
	if err := client.InvalidateFinances(ctx, "P000197"); err != nil {
		t.Fatalf("InvalidateFinances: %v", err)
	}
	state.failing.Store(true)

	resp, err := client.GetFinances(ctx, "P000197")
	if err != nil {
		t.Fatalf("GetFinances: %v", err)
	}
	if !resp.IsStale {
		t.Fatal("expected stale fallback")
	}
	if resp.Data == nil || resp.Data.FECCandidateID != "H8CA05035" {
		t.Errorf("stale data missing: %+v", resp.Data)
	}
	if resp.Warning == "" {
		t.Error("stale response should carry a warning")
	}
}

func TestInvalidateFinances_KeepsCandidateID(t *testing.T) {
	client, st, _ := newTestClient(t)
	seedLegislator(t, st)
	ctx := context.Background()

	if _, err := client.GetFinances(ctx, "P000197"); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}
	if err := client.InvalidateFinances(ctx, "P000197"); err != nil {
		t.Fatalf("InvalidateFinances: %v", err)
	}

	f, err := st.GetFinance(ctx, "P000197")
	if err != nil {
		t.Fatalf("GetFinance: %v", err)
	}
	if f == nil {
		t.Fatal("invalidation deleted the finance row")
	}
	if f.CachedAt != nil {
		t.Error("invalidation left cached_at set")
	}
	if f.FECCandidateID != "H8CA05035" {
		t.Errorf("candidate ID lost on invalidation: %q", f.FECCandidateID)
	}
}

func TestGetExpenditures(t *testing.T) {
	client, st, _ := newTestClient(t)
	seedLegislator(t, st)
	ctx := context.Background()

	resp, err := client.GetExpenditures(ctx, "P000197", 20)
	if err != nil {
		t.Fatalf("GetExpenditures: %v", err)
	}
	if resp.IsStale {
		t.Error("first fetch should be fresh")
	}
	if len(resp.Data) != 2 {
		t.Fatalf("want 2 expenditures, got %d", len(resp.Data))
	}
	if resp.Data[0].PayeeName != "ACME PRINTING" || resp.Data[0].Amount != 12500.50 {
		t.Errorf("expenditure not mapped: %+v", resp.Data[0])
	}
}

func TestInvalidateFinances_DropsExpenditures(t *testing.T) {
	client, st, _ := newTestClient(t)
	seedLegislator(t, st)
	ctx := context.Background()

	if _, err := client.GetExpenditures(ctx, "P000197", 20); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}
	if err := client.InvalidateFinances(ctx, "P000197"); err != nil {
		t.Fatalf("InvalidateFinances: %v", err)
	}

	items, err := st.ListExpenditures(ctx, "P000197", 0)
	if err != nil {
		t.Fatalf("ListExpenditures: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("invalidation left %d expenditures", len(items))
	}
}

func TestRefreshFinances(t *testing.T) {
	client, st, state := newTestClient(t)
	seedLegislator(t, st)
	ctx := context.Background()

	if _, err := client.GetFinances(ctx, "P000197"); err != nil {
		t.Fatalf("priming fetch: %v", err)
	}

	resp, err := client.RefreshFinances(ctx, "P000197")
	if err != nil {
		t.Fatalf("RefreshFinances: %v", err)
	}
	if resp.IsStale || resp.Data == nil {
		t.Fatalf("refresh should return fresh data: %+v", resp)
	}
	if got := state.searches.Load(); got != 1 {
		t.Errorf("refresh repeated the candidate search: %d searches", got)
	}
}
