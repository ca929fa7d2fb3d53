package services

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/alexmarroig/Carpremiumsell/models"
	"github.com/alexmarroig/Carpremiumsell/storage"
)

// medalBonuses are reliability increments for marketplace reputation medals.
var medalBonuses = map[string]float64{
	"gold":   0.15,
	"silver": 0.10,
	"bronze": 0.05,
}

// ReliabilityScore combines a seller's raw reputation, medal, sales volume
// and problem rate into a single score clamped to [0, 1].
func ReliabilityScore(seller *models.Seller, problemRate float64) float64 {
	score := 0.0
	if seller.ReputationScore != nil {
		score = *seller.ReputationScore
	}
	if seller.ReputationMedal != nil {
		score += medalBonuses[*seller.ReputationMedal]
	}
	if seller.CompletedSales != nil {
		volume := float64(*seller.CompletedSales) / 1000
		if volume > 0.2 {
			volume = 0.2
		}
		score += volume
	}
	score -= problemRate
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ConsolidateSellerStats recomputes the rollup row for every seller that has
// at least one listing. Rollups are full replacements, never increments.
func ConsolidateSellerStats(store storage.Store, log *logrus.Logger) error {
	sellers, err := store.ListSellers()
	if err != nil {
		return fmt.Errorf("consolidate sellers: %w", err)
	}

	for _, seller := range sellers {
		listings, err := store.ListListings(storage.ListingFilter{SellerID: seller.ID})
		if err != nil {
			return fmt.Errorf("consolidate sellers: listings for %d: %w", seller.ID, err)
		}
		if len(listings) == 0 {
			continue
		}

		var sum float64
		var priced int
		for _, l := range listings {
			if p := l.EffectivePrice(); p != nil {
				sum += *p
				priced++
			}
		}

		completed := 0
		if seller.CompletedSales != nil {
			completed = *seller.CompletedSales
		}
		cancellations := 0
		if seller.Cancellations != nil {
			cancellations = *seller.Cancellations
		}
		base := completed
		if base < 1 {
			base = 1
		}
		problemRate := float64(cancellations) / float64(base)

		stats := &models.SellerStats{
			SellerID:         seller.ID,
			ListingsCount:    len(listings),
			CompletedSales:   completed,
			ProblemRate:      problemRate,
			ReliabilityScore: ReliabilityScore(seller, problemRate),
		}
		if priced > 0 {
			stats.AveragePriceBRL = models.FloatPtr(sum / float64(priced))
		}
		if err := store.UpsertSellerStats(stats); err != nil {
			return fmt.Errorf("consolidate sellers: upsert stats for %d: %w", seller.ID, err)
		}
		if log != nil {
			log.WithFields(logrus.Fields{
				"seller":      seller.ExternalID,
				"listings":    stats.ListingsCount,
				"reliability": stats.ReliabilityScore,
			}).Debug("Seller stats consolidated")
		}
	}
	return nil
}

// TopTrustedSellers ranks sellers by reliability descending, seller id
// ascending on ties. An empty origin matches every marketplace.
func TopTrustedSellers(store storage.Store, limit int, origin string) ([]*models.RankedSeller, error) {
	stats, err := store.ListSellerStats()
	if err != nil {
		return nil, fmt.Errorf("top trusted sellers: %w", err)
	}

	var ranked []*models.RankedSeller
	for _, st := range stats {
		seller, err := store.SellerByID(st.SellerID)
		if err != nil {
			return nil, fmt.Errorf("top trusted sellers: seller %d: %w", st.SellerID, err)
		}
		if seller == nil {
			continue
		}
		if origin != "" && seller.Origin != origin {
			continue
		}
		ranked = append(ranked, &models.RankedSeller{Seller: seller, Stats: st})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Stats.ReliabilityScore != ranked[j].Stats.ReliabilityScore {
			return ranked[i].Stats.ReliabilityScore > ranked[j].Stats.ReliabilityScore
		}
		return ranked[i].Seller.ID < ranked[j].Seller.ID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
