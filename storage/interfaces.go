package storage

import "github.com/alexmarroig/Carpremiumsell/models"

// ListingFilter narrows ListListings reads. Zero values mean "any".
// RegionKey matches the listing's state column.
type ListingFilter struct {
	RegionKey string
	Brand     string
	Model     string
	SourceID  int64
	SellerID  int64
	Status    string
}

// Store is the persistence gateway the pipeline writes through. Lookups
// return (nil, nil) when the row does not exist; upserts are keyed by the
// model's natural uniqueness constraint and are idempotent.
type Store interface {
	SourceByName(name string) (*models.ListingSource, error)
	CreateSource(src *models.ListingSource) error
	UpdateSourceBaseURL(id int64, baseURL string) error
	ListSources() ([]*models.ListingSource, error)

	UpsertRawListing(raw *models.RawListing) error
	RawListingByID(id int64) (*models.RawListing, error)

	UpsertNormalizedListing(listing *models.NormalizedListing) error
	ListListings(filter ListingFilter) ([]*models.NormalizedListing, error)

	UpsertSeller(seller *models.Seller) error
	SellerByID(id int64) (*models.Seller, error)
	ListSellers() ([]*models.Seller, error)

	UpsertSellerStats(stats *models.SellerStats) error
	ListSellerStats() ([]*models.SellerStats, error)

	ReplaceMarketStats(stats *models.MarketStats) error
	MarketStatsFor(regionKey, brand, model string) (*models.MarketStats, error)
	ListMarketStats() ([]*models.MarketStats, error)

	Close() error
}
