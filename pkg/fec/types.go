package fec

// Wire types for the OpenFEC API responses we consume.

type candidateSearchResponse struct {
	Results []candidateResult `json:"results"`
}

type candidateResult struct {
	CandidateID         string `json:"candidate_id"`
	Name                string `json:"name"`
	State               string `json:"state"`
	PrincipalCommittees []struct {
		CommitteeID string `json:"committee_id"`
	} `json:"principal_committees"`
}

type totalsResponse struct {
	Results []candidateTotals `json:"results"`
}

type candidateTotals struct {
	Cycle                   int     `json:"cycle"`
	Receipts                float64 `json:"receipts"`
	Disbursements           float64 `json:"disbursements"`
	CashOnHand              float64 `json:"last_cash_on_hand_end_period"`
	DebtsOwed               float64 `json:"last_debts_owed_by_committee"`
	IndividualContributions float64 `json:"individual_contributions"`
	PACContributions        float64 `json:"other_political_committee_contributions"`
	PartyContributions      float64 `json:"political_party_committee_contributions"`
}

type scheduleBResponse struct {
	Results []disbursement `json:"results"`
}

type disbursement struct {
	RecipientName string  `json:"recipient_name"`
	Description   string  `json:"disbursement_description"`
	Amount        float64 `json:"disbursement_amount"`
	Date          string  `json:"disbursement_date"`
	Category      string  `json:"disbursement_purpose_category"`
}
