package domain

// Listing is one marketplace item from a search batch. Upstream fields are
// optional almost everywhere; absent text fields are carried as empty
// strings and an absent price as nil, never as an error.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	SellerID    string    `json:"seller_id,omitempty"`
	Images      []string  `json:"images,omitempty"` // flattened image URLs, upstream order
	Location    *Location `json:"location,omitempty"`

	// PublishedRaw is the publication instant exactly as upstream sent it.
	// Nil means neither published_at nor created_at was present.
	PublishedRaw *RawTime `json:"-"`

	// Fields below are attached by the enrichment pipeline, not by upstream.
	PublishedAt string      `json:"publication_time_at,omitempty"`
	Geo         *GeoPoint   `json:"location_geo,omitempty"`
	Enrichment  *Enrichment `json:"enrichment,omitempty"`
}

// HasPrice reports whether the listing carries a usable price amount.
func (l *Listing) HasPrice() bool {
	return l.Price != nil
}

type Location struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// GeoPoint is the lat/lon pair attached for map indexing downstream.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RawTime is a publication instant as received from upstream: either an
// ISO-8601-looking string or an integer epoch whose precision (seconds,
// milliseconds, microseconds) has to be guessed from magnitude.
type RawTime struct {
	Text    string
	Epoch   int64
	IsEpoch bool
}

// Enrichment is the analysis result attached to a listing before it is
// persisted. All fields must round-trip through the day store.
type Enrichment struct {
	MedianPrice        float64  `json:"median_price"`
	RiskScore          int      `json:"risk_score"`
	SuspiciousKeywords []string `json:"suspicious_keywords"`
	RiskFactors        []string `json:"risk_factors"`
}
