package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexmarroig/Carpremiumsell/models"
	"github.com/alexmarroig/Carpremiumsell/storage"
)

// QueryService is the read-side surface over persisted listings, sellers
// and market buckets.
type QueryService struct {
	Store storage.Store
}

// RegionalStats returns every market bucket for a region, or all buckets
// when the region is empty.
func (qs *QueryService) RegionalStats(regionKey string) ([]*models.MarketStats, error) {
	all, err := qs.Store.ListMarketStats()
	if err != nil {
		return nil, fmt.Errorf("regional stats: %w", err)
	}
	if regionKey == "" {
		return all, nil
	}
	var out []*models.MarketStats
	for _, ms := range all {
		if strings.EqualFold(ms.RegionKey, regionKey) {
			out = append(out, ms)
		}
	}
	return out, nil
}

// TrustedSellers ranks sellers by consolidated reliability.
func (qs *QueryService) TrustedSellers(limit int, origin string) ([]*models.RankedSeller, error) {
	return TopTrustedSellers(qs.Store, limit, origin)
}

// OpportunityListings returns badge-curated listings in a region, cheapest
// first.
func (qs *QueryService) OpportunityListings(regionKey string) ([]*models.NormalizedListing, error) {
	listings, err := qs.Store.ListListings(storage.ListingFilter{
		RegionKey: regionKey,
		Status:    "active",
	})
	if err != nil {
		return nil, fmt.Errorf("opportunity listings: %w", err)
	}
	var out []*models.NormalizedListing
	for _, l := range listings {
		if l.TrustBadge != nil && *l.TrustBadge == BadgeOpportunity {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].EffectivePrice(), out[j].EffectivePrice()
		switch {
		case pi == nil:
			return false
		case pj == nil:
			return true
		case *pi != *pj:
			return *pi < *pj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CheapestTrusted returns the best-priced active listing in a region whose
// seller reputation meets the floor, nil when none qualifies.
func (qs *QueryService) CheapestTrusted(regionKey string, minReputation float64) (*models.NormalizedListing, error) {
	listings, err := qs.Store.ListListings(storage.ListingFilter{
		RegionKey: regionKey,
		Status:    "active",
	})
	if err != nil {
		return nil, fmt.Errorf("cheapest trusted: %w", err)
	}
	return SelectCheapestWithReputation(listings, minReputation), nil
}
