package services

import "github.com/alexmarroig/Carpremiumsell/models"

// Badge labels attached to listings.
const (
	BadgeVerified    = "Verified listing"
	BadgeOpportunity = "Selected by AXIS"
)

// TrustSignals are the inputs to the badge point system for one listing.
// Nil deviation or age means the signal is unknown and carries no penalty.
type TrustSignals struct {
	SellerType     string
	HasPhotos      bool
	PriceDeviation *float64
	AgeHours       *float64
}

// TrustBadge scores a listing and returns its badge, nil when the score is
// too low for either tier. Dealers and photographed listings earn points;
// suspiciously cheap or very fresh listings lose them.
func TrustBadge(sig TrustSignals) *string {
	points := 0
	if sig.SellerType == "dealer" {
		points += 2
	}
	if sig.HasPhotos {
		points++
	}
	if sig.PriceDeviation != nil && *sig.PriceDeviation < -0.2 {
		points--
	}
	if sig.AgeHours != nil && *sig.AgeHours < 6 {
		points--
	}
	switch {
	case points >= 3:
		return models.StrPtr(BadgeVerified)
	case points >= 2:
		return models.StrPtr(BadgeOpportunity)
	}
	return nil
}
