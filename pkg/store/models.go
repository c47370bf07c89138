// Package store persists upstream data in a local SQLite database. It is
// the durable half of the caching layer: every record carries a nullable
// CachedAt timestamp that the cache policy evaluates, and invalidation
// either clears CachedAt (single-valued records) or deletes rows
// (list-valued records).
package store

import "time"

// Legislator is a directory record keyed by bioguide ID.
type Legislator struct {
	BioguideID    string     `json:"bioguide_id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	FullName      string     `json:"full_name"`
	Party         string     `json:"party"`
	State         string     `json:"state"`
	District      string     `json:"district,omitempty"`
	Chamber       string     `json:"chamber"`
	ImageURL      string     `json:"image_url,omitempty"`
	URL           string     `json:"url,omitempty"`
	OfficeAddress string     `json:"office_address,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	CachedAt      *time.Time `json:"cached_at,omitempty"`
}

// Bill is a sponsored or cosponsored piece of legislation cached under
// one member's scope. MemberBioguideID names the member whose list the
// row belongs to, not necessarily the bill's sponsor: the same bill
// appears once per member who sponsored or cosponsored it.
type Bill struct {
	MemberBioguideID string     `json:"member_bioguide_id"`
	Congress         int        `json:"congress"`
	BillType         string     `json:"bill_type"`
	BillNumber       string     `json:"bill_number"`
	Title            string     `json:"title"`
	IntroducedDate   string     `json:"introduced_date,omitempty"`
	LatestActionDate string     `json:"latest_action_date,omitempty"`
	LatestActionText string     `json:"latest_action_text,omitempty"`
	PolicyArea       string     `json:"policy_area,omitempty"`
	URL              string     `json:"url,omitempty"`
	IsCosponsored    bool       `json:"is_cosponsored"`
	CachedAt         *time.Time `json:"cached_at,omitempty"`
}

// CampaignFinance is the per-legislator finance summary. FECCandidateID
// is sticky: once resolved and stored it survives finance invalidations,
// so the secondary candidate lookup never repeats.
type CampaignFinance struct {
	BioguideID              string     `json:"bioguide_id"`
	FECCandidateID          string     `json:"fec_candidate_id"`
	CommitteeID             string     `json:"committee_id,omitempty"`
	Cycle                   int        `json:"cycle"`
	TotalReceipts           float64    `json:"total_receipts"`
	TotalDisbursements      float64    `json:"total_disbursements"`
	CashOnHand              float64    `json:"cash_on_hand"`
	Debt                    float64    `json:"debt"`
	IndividualContributions float64    `json:"individual_contributions"`
	PACContributions        float64    `json:"pac_contributions"`
	PartyContributions      float64    `json:"party_contributions"`
	CachedAt                *time.Time `json:"cached_at,omitempty"`
}

// Expenditure is a single disbursement record. List-valued: the full set
// for a legislator is replaced on every refresh.
type Expenditure struct {
	BioguideID string  `json:"bioguide_id"`
	PayeeName  string  `json:"payee_name"`
	Purpose    string  `json:"purpose,omitempty"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date,omitempty"`
	Category   string  `json:"category,omitempty"`
}

// NewsArticle is a cached news item. List-valued: the full set for a
// legislator is replaced on every refresh.
type NewsArticle struct {
	BioguideID  string     `json:"bioguide_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url"`
	SourceName  string     `json:"source_name,omitempty"`
	Author      string     `json:"author,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CachedAt    *time.Time `json:"cached_at,omitempty"`
}
