package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alexmarroig/Carpremiumsell/config"
	"github.com/alexmarroig/Carpremiumsell/connectors"
	"github.com/alexmarroig/Carpremiumsell/models"
	"github.com/alexmarroig/Carpremiumsell/queue"
	"github.com/alexmarroig/Carpremiumsell/storage"
)

// Dispatcher hands normalization work to a queue. A nil dispatcher makes the
// ingestor normalize inline, which is what the one-shot pipeline and the
// tests use.
type Dispatcher interface {
	Enqueue(ctx context.Context, job queue.Job) error
}

// Ingestor drives the fetch -> raw upsert -> normalize pipeline for one or
// more sources.
type Ingestor struct {
	Store      storage.Store
	Registry   *connectors.Registry
	Fetcher    connectors.Fetcher
	Dispatcher Dispatcher
	Config     *config.Config
	Logger     *logrus.Logger
}

// Ingest runs one source end to end: resolve the connector, register the
// source row, stream listings, and persist each raw payload. A source whose
// robots rules forbid crawling is skipped gracefully; any other fetch error
// aborts this source only and is returned to the caller.
func (in *Ingestor) Ingest(ctx context.Context, sourceName, regionKey, queryText string, limit int) (int, error) {
	entry, known := in.Registry.Lookup(sourceName)
	log := in.Logger.WithField("source", sourceName)
	if !known {
		log.Warn("Unknown source, using fallback connector")
	}

	source, err := in.ensureSource(sourceName, entry.BaseURL)
	if err != nil {
		return 0, err
	}

	conn := entry.Factory(connectors.Options{
		RegionKey: regionKey,
		QueryText: queryText,
		Limit:     limit,
		Fetcher:   in.Fetcher,
		Config:    in.Config,
		Logger:    in.Logger,
	})

	ingested := 0
	err = conn.FetchListings(ctx, func(raw models.RawFields) error {
		if raw.ExternalID == "" {
			log.WithError(connectors.ErrMissingExternalID).Warn("Skipping unkeyed listing")
			return nil
		}
		rl := &models.RawListing{
			SourceID:   source.ID,
			ExternalID: raw.ExternalID,
			Payload:    raw,
			FetchedAt:  time.Now().UTC(),
		}
		if err := in.Store.UpsertRawListing(rl); err != nil {
			return err
		}
		ingested++

		if in.Dispatcher != nil {
			return in.Dispatcher.Enqueue(ctx, queue.Job{Name: queue.JobNormalize, RawID: rl.ID})
		}
		return in.NormalizeRaw(ctx, rl.ID)
	})
	if err != nil {
		if errors.Is(err, connectors.ErrFetchForbidden) {
			log.WithError(err).Warn("Crawling disallowed by robots rules, skipping source")
			return ingested, nil
		}
		return ingested, fmt.Errorf("ingest %s: %w", sourceName, err)
	}

	log.WithField("count", ingested).Info("Source ingested")
	return ingested, nil
}

// ensureSource registers the source on first sight and records base URL
// migrations afterwards.
func (in *Ingestor) ensureSource(name, baseURL string) (*models.ListingSource, error) {
	source, err := in.Store.SourceByName(name)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: lookup source: %w", name, err)
	}
	if source == nil {
		source = &models.ListingSource{Name: name, BaseURL: baseURL, Enabled: true}
		if err := in.Store.CreateSource(source); err != nil {
			return nil, fmt.Errorf("ingest %s: create source: %w", name, err)
		}
		return source, nil
	}
	if source.BaseURL != baseURL && baseURL != "" {
		if err := in.Store.UpdateSourceBaseURL(source.ID, baseURL); err != nil {
			return nil, fmt.Errorf("ingest %s: update base url: %w", name, err)
		}
		source.BaseURL = baseURL
	}
	return source, nil
}

// NormalizeRaw turns one stored raw payload into its canonical listing:
// clean fields, resolve the seller, apply the markup, upsert, refresh the
// market bucket, and finally score the trust badge against the fresh stats.
func (in *Ingestor) NormalizeRaw(ctx context.Context, rawID int64) error {
	raw, err := in.Store.RawListingByID(rawID)
	if err != nil {
		return fmt.Errorf("normalize raw %d: %w", rawID, err)
	}
	if raw == nil {
		return fmt.Errorf("normalize raw %d: not found", rawID)
	}

	fields := NormalizeListingFields(raw.Payload)

	listing := &models.NormalizedListing{
		SourceID:   raw.SourceID,
		ExternalID: raw.ExternalID,
		Trim:       fields.Trim,
		Year:       fields.Year,
		MileageKM:  fields.MileageKM,
		City:       fields.City,
		State:      fields.State,
		Photos:     fields.Photos,
		URL:        fields.URL,
		SellerType: fields.SellerType,
		Status:     "active",
	}
	if fields.Brand != nil {
		listing.Brand = *fields.Brand
	}
	if fields.Model != nil {
		listing.Model = *fields.Model
	}
	if fields.Price != nil {
		listing.PriceBRL = fields.Price
		listing.SupplierPriceBRL = fields.Price
		final := ApplyMarkup(*fields.Price, DemandCategory(listing.Brand))
		listing.FinalPriceBRL = &final
	}

	if fields.Seller != nil {
		seller, err := in.resolveSeller(raw.SourceID, fields.Seller)
		if err != nil {
			return fmt.Errorf("normalize raw %d: %w", rawID, err)
		}
		listing.SellerID = &seller.ID
		listing.SellerReputation = seller.ReputationScore
	}

	if err := in.Store.UpsertNormalizedListing(listing); err != nil {
		return fmt.Errorf("normalize raw %d: %w", rawID, err)
	}

	stats, err := in.refreshMarketBucket(listing)
	if err != nil {
		return fmt.Errorf("normalize raw %d: %w", rawID, err)
	}

	listing.TrustBadge = in.scoreBadge(listing, stats)
	if err := in.Store.UpsertNormalizedListing(listing); err != nil {
		return fmt.Errorf("normalize raw %d: badge upsert: %w", rawID, err)
	}
	return nil
}

// resolveSeller upserts the seller identity and returns the merged row, so
// a sparse feedback block still reads previously stored reputation data.
func (in *Ingestor) resolveSeller(sourceID int64, fb *models.SellerFeedback) (*models.Seller, error) {
	seller := &models.Seller{
		SourceID:          &sourceID,
		Origin:            fb.Origin,
		ExternalID:        fb.ExternalID,
		ReputationMedal:   fb.Medal,
		ReputationScore:   fb.Score,
		Cancellations:     fb.Cancellations,
		ResponseTimeHours: fb.ResponseTimeHours,
		CompletedSales:    fb.CompletedSales,
	}
	if err := in.Store.UpsertSeller(seller); err != nil {
		return nil, err
	}
	return seller, nil
}

// refreshMarketBucket recomputes percentiles for the listing's
// (region, brand, model) bucket. Listings missing any bucket dimension leave
// the stats untouched and score without market context.
func (in *Ingestor) refreshMarketBucket(l *models.NormalizedListing) (*models.MarketStats, error) {
	if l.Brand == "" || l.Model == "" || l.State == nil || *l.State == "" {
		return nil, nil
	}
	listings, err := in.Store.ListListings(storage.ListingFilter{
		RegionKey: *l.State,
		Brand:     l.Brand,
		Model:     l.Model,
		Status:    "active",
	})
	if err != nil {
		return nil, err
	}
	stats := ComputeRegionalStats(*l.State, l.Brand, l.Model, listings)
	if stats == nil {
		return nil, nil
	}
	if err := in.Store.ReplaceMarketStats(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (in *Ingestor) scoreBadge(l *models.NormalizedListing, stats *models.MarketStats) *string {
	sellerType := ""
	if l.SellerType != nil {
		sellerType = *l.SellerType
	}
	// Sources rarely expose a publication time and the row's own CreatedAt
	// just got written, so age is unknown here and must not penalize.
	sig := TrustSignals{
		SellerType: sellerType,
		HasPhotos:  len(l.Photos) > 0,
	}
	price := l.EffectivePrice()
	if stats != nil && price != nil {
		dev := PriceDeviation(*price, stats.MedianPrice)
		sig.PriceDeviation = &dev
	}
	if badge := TrustBadge(sig); badge != nil {
		return badge
	}
	return OpportunityBadge(price, stats)
}

// DemandCategory buckets a brand into a markup tier. Mainstream volume
// brands price tighter; luxury and exotic brands carry wider margins.
func DemandCategory(brand string) string {
	switch brand {
	case "Volkswagen", "Chevrolet", "Fiat", "Ford", "Renault", "Hyundai":
		return "popular"
	case "Bmw", "Mercedes-benz", "Audi", "Porsche", "Land Rover", "Volvo":
		return "premium"
	case "Ferrari", "Lamborghini", "Maserati", "Bentley", "Mclaren":
		return "rare"
	}
	return "mid"
}
