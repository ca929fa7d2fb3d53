package models

import "time"

// ListingSource is a registered external marketplace. A source row is created
// the first time a new source name ingests successfully and is never deleted;
// only its canonical base URL may change afterwards.
type ListingSource struct {
	ID      int64
	Name    string
	BaseURL string
	Enabled bool
}

// SellerFeedback is the single canonical seller-reputation shape every
// connector normalizes into, regardless of how the source exposes it
// (flat fields, nested feedback blocks, badges on the listing page).
type SellerFeedback struct {
	Origin            string   `json:"origin"`
	ExternalID        string   `json:"external_id"`
	Medal             *string  `json:"medal,omitempty"`
	Score             *float64 `json:"score,omitempty"`
	Cancellations     *int     `json:"cancellations,omitempty"`
	ResponseTimeHours *float64 `json:"response_time_hours,omitempty"`
	CompletedSales    *int     `json:"completed_sales,omitempty"`
}

// RawFields is the shared raw-field vocabulary produced by every connector's
// NormalizeFields. Absent fields are nil, never fabricated.
type RawFields struct {
	ExternalID string          `json:"external_id"`
	Brand      *string         `json:"brand,omitempty"`
	Model      *string         `json:"model,omitempty"`
	Trim       *string         `json:"trim,omitempty"`
	Year       *int            `json:"year,omitempty"`
	MileageKM  *int            `json:"mileage_km,omitempty"`
	Price      *float64        `json:"price,omitempty"`
	City       *string         `json:"city,omitempty"`
	State      *string         `json:"state,omitempty"`
	Photos     []string        `json:"photos,omitempty"`
	SellerType *string         `json:"seller_type,omitempty"`
	URL        *string         `json:"url,omitempty"`
	Seller     *SellerFeedback `json:"seller,omitempty"`
}

// RawListing is one fetched payload, unique per (source_id, external_id).
// A later fetch of the same external id overwrites payload and timestamp.
type RawListing struct {
	ID         int64
	SourceID   int64
	ExternalID string
	Payload    RawFields
	FetchedAt  time.Time
}

// NormalizedListing is the canonical vehicle record, unique per
// (source_id, external_id) and upserted on each normalization pass.
type NormalizedListing struct {
	ID               int64
	SourceID         int64
	ExternalID       string
	Brand            string
	Model            string
	Trim             *string
	Year             *int
	MileageKM        *int
	PriceBRL         *float64
	SupplierPriceBRL *float64
	FinalPriceBRL    *float64
	City             *string
	State            *string
	Lat              *float64
	Lng              *float64
	Photos           []string
	URL              *string
	SellerType       *string
	SellerID         *int64
	SellerReputation *float64
	Status           string
	TrustBadge       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EffectivePrice is the price used for market and seller aggregates:
// the marked-up final price when present, the base price otherwise.
func (l *NormalizedListing) EffectivePrice() *float64 {
	if l.FinalPriceBRL != nil {
		return l.FinalPriceBRL
	}
	return l.PriceBRL
}

// Seller is a reputation identity, unique per (origin, external_id).
type Seller struct {
	ID                int64
	SourceID          *int64
	Origin            string
	ExternalID        string
	ReputationMedal   *string
	ReputationScore   *float64
	Cancellations     *int
	ResponseTimeHours *float64
	CompletedSales    *int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SellerStats is the one-to-one derived rollup per seller, fully recomputed
// on each consolidation pass.
type SellerStats struct {
	ID               int64
	SellerID         int64
	AveragePriceBRL  *float64
	ListingsCount    int
	CompletedSales   int
	ProblemRate      float64
	ReliabilityScore float64
	UpdatedAt        time.Time
}

// MarketStats holds price percentiles for one (region, brand, model) bucket.
// Recomputation replaces the whole row rather than patching it.
type MarketStats struct {
	ID          int64
	RegionKey   string
	Brand       string
	Model       string
	Trim        *string
	YearRange   *string
	MedianPrice float64
	P25         float64
	P75         float64
	UpdatedAt   time.Time
}

// RankedSeller pairs a seller with its consolidated stats for ranking output.
type RankedSeller struct {
	Seller *Seller
	Stats  *SellerStats
}

// MarketReport is the aggregate view printed at the end of a pipeline run.
type MarketReport struct {
	TotalListings    int
	ListingsBySource map[string]int
	ListingsByRegion map[string]int
	AveragePrice     float64
	Buckets          []*MarketStats
	TopSellers       []*RankedSeller
	Opportunities    []*NormalizedListing
	CheapestTrusted  *NormalizedListing
}

// Helpers for building nullable fields without one-off temporaries.

func StrPtr(s string) *string     { return &s }
func IntPtr(n int) *int           { return &n }
func FloatPtr(f float64) *float64 { return &f }
