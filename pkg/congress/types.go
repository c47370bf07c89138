package congress

// Wire types for the Congress.gov API responses we consume.

type memberListResponse struct {
	Members []memberSummary `json:"members"`
}

type memberSummary struct {
	BioguideID string `json:"bioguideId"`
	Name       string `json:"name"`
	PartyName  string `json:"partyName"`
	State      string `json:"state"`
	URL        string `json:"url"`
	Depiction  struct {
		ImageURL string `json:"imageUrl"`
	} `json:"depiction"`
	Terms struct {
		Item []struct {
			Chamber string `json:"chamber"`
		} `json:"item"`
	} `json:"terms"`
}

type memberDetailResponse struct {
	Member *memberDetail `json:"member"`
}

type memberDetail struct {
	BioguideID      string `json:"bioguideId"`
	DirectOrderName string `json:"directOrderName"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	PartyHistory    []struct {
		PartyName string `json:"partyName"`
	} `json:"partyHistory"`
	Terms []struct {
		StateCode string `json:"stateCode"`
		District  int    `json:"district"`
		Chamber   string `json:"chamber"`
	} `json:"terms"`
	Depiction struct {
		ImageURL string `json:"imageUrl"`
	} `json:"depiction"`
	AddressInformation struct {
		OfficeAddress string `json:"officeAddress"`
		PhoneNumber   string `json:"phoneNumber"`
	} `json:"addressInformation"`
	OfficialWebsiteURL string `json:"officialWebsiteUrl"`
}

type sponsoredLegislationResponse struct {
	SponsoredLegislation []billItem `json:"sponsoredLegislation"`
}

type cosponsoredLegislationResponse struct {
	CosponsoredLegislation []billItem `json:"cosponsoredLegislation"`
}

type billItem struct {
	Congress       int    `json:"congress"`
	Type           string `json:"type"`
	Number         string `json:"number"`
	Title          string `json:"title"`
	IntroducedDate string `json:"introducedDate"`
	URL            string `json:"url"`
	PolicyArea     struct {
		Name string `json:"name"`
	} `json:"policyArea"`
	LatestAction struct {
		ActionDate string `json:"actionDate"`
		Text       string `json:"text"`
	} `json:"latestAction"`
}

type rollCallVoteResponse struct {
	Votes []RollCallVote `json:"roll-call-votes"`
}

// RollCallVote is a recent chamber vote. Votes have no per-subject cache;
// they pass straight through from the upstream.
type RollCallVote struct {
	Congress       int    `json:"congress"`
	Chamber        string `json:"chamber"`
	RollCallNumber int    `json:"rollCallNumber"`
	Result         string `json:"result"`
	StartDate      string `json:"startDate"`
	URL            string `json:"url"`
}
