package services

import (
	"math"
	"sort"
	"strconv"

	"github.com/alexmarroig/Carpremiumsell/models"
)

// markupRange is a [min, max] markup pair; the applied rate is the midpoint.
type markupRange struct {
	min float64
	max float64
}

// markupCategories keys demand tiers to their markup ranges. Unknown
// categories fall back to "mid".
var markupCategories = map[string]markupRange{
	"popular": {0.05, 0.07},
	"mid":     {0.07, 0.10},
	"premium": {0.07, 0.10},
	"rare":    {0.10, 0.15},
}

// ApplyMarkup returns the base price marked up by the midpoint rate of the
// given category, rounded to cents.
func ApplyMarkup(price float64, category string) float64 {
	r, ok := markupCategories[category]
	if !ok {
		r = markupCategories["mid"]
	}
	rate := (r.min + r.max) / 2
	return round2(price * (1 + rate))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Percentile returns the value at fraction f of the sorted slice using the
// nearest-rank rule: rank = ceil(n*f), floored at 1. The input must be
// sorted ascending and non-empty.
func Percentile(sorted []float64, f float64) float64 {
	n := len(sorted)
	rank := int(math.Ceil(float64(n) * f))
	if rank < 1 {
		rank = 1
	}
	idx := rank - 1
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// Median averages the two middle elements for even-length input and takes
// the middle element otherwise. The input must be sorted ascending.
func Median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// ComputeRegionalStats derives the percentile row for one
// (region, brand, model) bucket from its listings. Listings without any
// price are excluded; nil is returned when none remain.
func ComputeRegionalStats(regionKey, brand, model string, listings []*models.NormalizedListing) *models.MarketStats {
	var prices []float64
	var minYear, maxYear int
	for _, l := range listings {
		p := l.EffectivePrice()
		if p == nil {
			continue
		}
		prices = append(prices, *p)
		if l.Year != nil {
			if minYear == 0 || *l.Year < minYear {
				minYear = *l.Year
			}
			if *l.Year > maxYear {
				maxYear = *l.Year
			}
		}
	}
	if len(prices) == 0 {
		return nil
	}
	sort.Float64s(prices)

	ms := &models.MarketStats{
		RegionKey:   regionKey,
		Brand:       brand,
		Model:       model,
		MedianPrice: Median(prices),
		P25:         Percentile(prices, 0.25),
		P75:         Percentile(prices, 0.75),
	}
	if minYear != 0 {
		yr := yearRangeLabel(minYear, maxYear)
		ms.YearRange = &yr
	}
	return ms
}

func yearRangeLabel(minYear, maxYear int) string {
	if minYear == maxYear {
		return strconv.Itoa(minYear)
	}
	return strconv.Itoa(minYear) + "-" + strconv.Itoa(maxYear)
}

// PriceDeviation is the listing price's relative offset from the bucket
// median: negative when below the market, positive when above.
func PriceDeviation(price, median float64) float64 {
	if median == 0 {
		return 0
	}
	return (price - median) / median
}

// OpportunityBadge labels a listing priced at or below the bucket's p25, or
// at least 10% under the median, as a curated opportunity. No stats or no
// price means no badge.
func OpportunityBadge(price *float64, stats *models.MarketStats) *string {
	if price == nil || stats == nil {
		return nil
	}
	if *price <= stats.P25 {
		return models.StrPtr(BadgeOpportunity)
	}
	if stats.MedianPrice > 0 && (stats.MedianPrice-*price)/stats.MedianPrice >= 0.1 {
		return models.StrPtr(BadgeOpportunity)
	}
	return nil
}
