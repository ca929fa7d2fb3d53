package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexmarroig/Carpremiumsell/models"
	"github.com/alexmarroig/Carpremiumsell/storage"
)

// ReportService builds and prints the end-of-run market overview.
type ReportService struct {
	Store storage.Store
	Query *QueryService
}

// Generate assembles the aggregate view for one region: totals, per-source
// and per-state counts, market buckets, trusted sellers and curated picks.
func (s *ReportService) Generate(regionKey string, minReputation float64) (*models.MarketReport, error) {
	report := &models.MarketReport{
		ListingsBySource: make(map[string]int),
		ListingsByRegion: make(map[string]int),
	}

	listings, err := s.Store.ListListings(storage.ListingFilter{Status: "active"})
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	report.TotalListings = len(listings)

	sources, err := s.Store.ListSources()
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	sourceNames := make(map[int64]string, len(sources))
	for _, src := range sources {
		sourceNames[src.ID] = src.Name
	}

	var total float64
	var priced int
	for _, l := range listings {
		name := sourceNames[l.SourceID]
		if name == "" {
			name = fmt.Sprintf("source-%d", l.SourceID)
		}
		report.ListingsBySource[name]++
		if l.State != nil && *l.State != "" {
			report.ListingsByRegion[*l.State]++
		}
		if p := l.EffectivePrice(); p != nil {
			total += *p
			priced++
		}
	}
	if priced > 0 {
		report.AveragePrice = round2(total / float64(priced))
	}

	if report.Buckets, err = s.Query.RegionalStats(regionKey); err != nil {
		return nil, err
	}
	if report.TopSellers, err = s.Query.TrustedSellers(5, ""); err != nil {
		return nil, err
	}
	if report.Opportunities, err = s.Query.OpportunityListings(regionKey); err != nil {
		return nil, err
	}
	if report.CheapestTrusted, err = s.Query.CheapestTrusted(regionKey, minReputation); err != nil {
		return nil, err
	}
	return report, nil
}

// Print renders the report to the terminal.
func (s *ReportService) Print(r *models.MarketReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🚗 AXIS MARKET REPORT\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total active listings : \033[1m%d\033[0m\n", r.TotalListings)
	if r.AveragePrice > 0 {
		fmt.Printf("  Average price         : \033[1;32mR$ %.2f\033[0m\n", r.AveragePrice)
	}
	if len(r.ListingsBySource) > 0 {
		type sourceCount struct {
			source string
			count  int
		}
		var counts []sourceCount
		for source, cnt := range r.ListingsBySource {
			counts = append(counts, sourceCount{source, cnt})
		}
		sort.Slice(counts, func(i, j int) bool {
			return counts[i].count > counts[j].count
		})
		for _, sc := range counts {
			fmt.Printf("  %-22s : \033[1m%d\033[0m\n", truncate(sc.source, 20), sc.count)
		}
	}
	fmt.Println()

	// Listings per state
	fmt.Printf("\033[1;33m  Listings by State\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ListingsByRegion) == 0 {
		fmt.Printf("  No location data\n")
	} else {
		type regionCount struct {
			region string
			count  int
		}
		var regions []regionCount
		for region, cnt := range r.ListingsByRegion {
			regions = append(regions, regionCount{region, cnt})
		}
		sort.Slice(regions, func(i, j int) bool {
			return regions[i].count > regions[j].count
		})
		for _, rc := range regions {
			bar := strings.Repeat("█", rc.count)
			fmt.Printf("  %-10s %s (%d)\n", rc.region, bar, rc.count)
		}
	}
	fmt.Println()

	// Market buckets
	fmt.Printf("\033[1;33m  Market Buckets\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.Buckets) == 0 {
		fmt.Printf("  No market stats computed\n")
	} else {
		for _, b := range r.Buckets {
			label := truncate(b.Brand+" "+b.Model, 26)
			fmt.Printf("  %-28s p25 \033[1;32mR$ %.0f\033[0m  med \033[1;32mR$ %.0f\033[0m  p75 \033[1;32mR$ %.0f\033[0m\n",
				label, b.P25, b.MedianPrice, b.P75)
		}
	}
	fmt.Println()

	// Trusted sellers
	fmt.Printf("\033[1;33m  Top Trusted Sellers\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopSellers) == 0 {
		fmt.Printf("  No consolidated sellers\n")
	} else {
		for i, rs := range r.TopSellers {
			fmt.Printf("  \033[1m%d.\033[0m %-28s %-14s \033[1;32m%.2f\033[0m\n",
				i+1, truncate(rs.Seller.ExternalID, 26), rs.Seller.Origin,
				rs.Stats.ReliabilityScore)
		}
	}
	fmt.Println()

	// Curated opportunities
	fmt.Printf("\033[1;33m  Opportunities (%s)\033[0m\n", BadgeOpportunity)
	fmt.Printf("  %s\n", thin)
	if len(r.Opportunities) == 0 {
		fmt.Printf("  No curated listings\n")
	} else {
		for _, l := range r.Opportunities {
			price := "-"
			if p := l.EffectivePrice(); p != nil {
				price = fmt.Sprintf("R$ %.2f", *p)
			}
			fmt.Printf("  %-34s \033[1;32m%s\033[0m\n", truncate(l.Brand+" "+l.Model, 32), price)
		}
	}
	fmt.Println()

	// Best pick
	fmt.Printf("\033[1;33m  Cheapest Trusted Listing\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.CheapestTrusted == nil {
		fmt.Printf("  No listing meets the reputation floor\n")
	} else {
		l := r.CheapestTrusted
		fmt.Printf("  %s\n", truncate(l.Brand+" "+l.Model, 50))
		if l.EffectivePrice() != nil {
			fmt.Printf("  Price      : \033[1;31mR$ %.2f\033[0m\n", *l.EffectivePrice())
		}
		if l.SellerReputation != nil {
			fmt.Printf("  Reputation : %.2f\n", *l.SellerReputation)
		}
		if l.URL != nil {
			fmt.Printf("  URL        : %s\n", *l.URL)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
