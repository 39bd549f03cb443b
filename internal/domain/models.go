package domain

// Listing is one scraped apartment advert, uniquely identified by the
// site-assigned id. Produced by the extractor and immutable afterwards.
type Listing struct {
	ID          string
	URL         string
	Address     string
	Price       string
	PricePerM2  string
	Rooms       string
	Area        string
	Floor       string
	Distance    string
	PriceChange string
	PetFriendly bool
}

// SearchParams mirrors the query parameters of the listing site's search.
// The boolean-as-integer flags follow the site's query format.
type SearchParams struct {
	Radius         int `json:"FRadius"`
	MinArea        int `json:"FAreaOverAllMin"`
	MaxPrice       int `json:"FPriceMax"`
	DetailedSearch int `json:"detailed_search"`
	PetFriendly    int `json:"pet_friendly"`
}

// SearchConfig is the full search definition. A snapshot is taken at the
// start of each crawl cycle; edits only affect the next cycle.
type SearchConfig struct {
	SearchParams SearchParams `json:"search_params"`
	City         string       `json:"city"`
	ListingType  string       `json:"type"`
	MaxPages     int          `json:"max_pages"`
}
