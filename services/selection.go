package services

import "github.com/alexmarroig/Carpremiumsell/models"

// SelectCheapestWithReputation picks the lowest-priced listing whose
// denormalized seller reputation meets the floor. Listings missing a price
// or a reputation never qualify. Equal prices break toward the lower id so
// repeat runs stay deterministic.
func SelectCheapestWithReputation(listings []*models.NormalizedListing, minReputation float64) *models.NormalizedListing {
	var best *models.NormalizedListing
	for _, l := range listings {
		price := l.EffectivePrice()
		if price == nil || l.SellerReputation == nil {
			continue
		}
		if *l.SellerReputation < minReputation {
			continue
		}
		if best == nil {
			best = l
			continue
		}
		bestPrice := *best.EffectivePrice()
		switch {
		case *price < bestPrice:
			best = l
		case *price == bestPrice && l.ID < best.ID:
			best = l
		}
	}
	return best
}
