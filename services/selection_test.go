package services

import (
	"testing"

	"github.com/alexmarroig/Carpremiumsell/models"
)

func TestSelectCheapestWithReputation(t *testing.T) {
	listings := []*models.NormalizedListing{
		{ID: 1, PriceBRL: models.FloatPtr(80000), SellerReputation: models.FloatPtr(0.5)},
		{ID: 2, PriceBRL: models.FloatPtr(95000), SellerReputation: models.FloatPtr(0.9)},
		{ID: 3, PriceBRL: models.FloatPtr(90000), SellerReputation: models.FloatPtr(0.8)},
	}

	best := SelectCheapestWithReputation(listings, 0.7)
	if best == nil || best.ID != 3 {
		t.Fatalf("best = %+v, want listing 3", best)
	}
}

func TestSelectCheapestTieBreaksOnID(t *testing.T) {
	listings := []*models.NormalizedListing{
		{ID: 7, PriceBRL: models.FloatPtr(90000), SellerReputation: models.FloatPtr(0.9)},
		{ID: 4, PriceBRL: models.FloatPtr(90000), SellerReputation: models.FloatPtr(0.8)},
	}

	best := SelectCheapestWithReputation(listings, 0.7)
	if best == nil || best.ID != 4 {
		t.Fatalf("best = %+v, want listing 4 on price tie", best)
	}
}

func TestSelectCheapestSkipsUnpricedAndUnknownSellers(t *testing.T) {
	listings := []*models.NormalizedListing{
		{ID: 1, SellerReputation: models.FloatPtr(0.9)},             // no price
		{ID: 2, PriceBRL: models.FloatPtr(50000)},                   // no reputation
		{ID: 3, PriceBRL: models.FloatPtr(70000), SellerReputation: models.FloatPtr(0.75)},
	}

	best := SelectCheapestWithReputation(listings, 0.7)
	if best == nil || best.ID != 3 {
		t.Fatalf("best = %+v, want listing 3", best)
	}
}

func TestSelectCheapestNoQualifier(t *testing.T) {
	listings := []*models.NormalizedListing{
		{ID: 1, PriceBRL: models.FloatPtr(60000), SellerReputation: models.FloatPtr(0.3)},
	}
	if best := SelectCheapestWithReputation(listings, 0.7); best != nil {
		t.Errorf("best = %+v, want nil when nobody meets the floor", best)
	}
	if best := SelectCheapestWithReputation(nil, 0.7); best != nil {
		t.Errorf("best on empty input = %+v, want nil", best)
	}
}

func TestSelectCheapestUsesFinalPrice(t *testing.T) {
	listings := []*models.NormalizedListing{
		{ID: 1, PriceBRL: models.FloatPtr(80000), FinalPriceBRL: models.FloatPtr(86800), SellerReputation: models.FloatPtr(0.9)},
		{ID: 2, PriceBRL: models.FloatPtr(85000), SellerReputation: models.FloatPtr(0.9)},
	}

	// Listing 2's effective price (85000) beats listing 1's marked-up 86800.
	best := SelectCheapestWithReputation(listings, 0.7)
	if best == nil || best.ID != 2 {
		t.Fatalf("best = %+v, want listing 2", best)
	}
}
