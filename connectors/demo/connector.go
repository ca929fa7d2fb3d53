// Package demo is the safe default connector. Unknown source names resolve
// here so a mistyped or retired source degrades to synthetic data instead of
// failing the job. It never touches the network.
package demo

import (
	"context"

	"github.com/alexmarroig/Carpremiumsell/connectors"
	"github.com/alexmarroig/Carpremiumsell/models"
)

const (
	// SourceName identifies synthetic-data runs in logs and seller origins.
	SourceName = "demo_marketplace"

	// BaseURL is a placeholder; nothing is ever fetched from it.
	BaseURL = "https://example.com"
)

// Connector yields a small fixed set of synthetic listings.
type Connector struct {
	opts connectors.Options
}

// New builds the demo connector.
func New(opts connectors.Options) connectors.Connector {
	return &Connector{opts: opts}
}

// Entry returns the registry fallback entry for unknown source names.
func Entry() connectors.Entry {
	return connectors.Entry{BaseURL: BaseURL, Factory: New}
}

// Name implements connectors.Connector.
func (c *Connector) Name() string { return SourceName }

// FetchListings yields the synthetic set, bounded by the configured limit.
func (c *Connector) FetchListings(ctx context.Context, yield func(models.RawFields) error) error {
	for i, fields := range syntheticListings() {
		if c.opts.Limit > 0 && i >= c.opts.Limit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := yield(fields); err != nil {
			return err
		}
	}
	return nil
}

// ParseListing implements connectors.Connector; demo payloads are already
// structured, so nothing is extracted.
func (c *Connector) ParseListing(payload connectors.Payload) connectors.Parsed {
	return connectors.Parsed{URL: payload.URL}
}

// NormalizeFields implements connectors.Connector.
func (c *Connector) NormalizeFields(parsed connectors.Parsed) models.RawFields {
	fields := models.RawFields{ExternalID: parsed.ExternalID}
	if parsed.URL != "" {
		fields.URL = models.StrPtr(parsed.URL)
	}
	return fields
}

func syntheticListings() []models.RawFields {
	gold := "gold"
	return []models.RawFields{
		{
			ExternalID: "demo-1",
			Brand:      models.StrPtr("VW"),
			Model:      models.StrPtr("T-Cross"),
			Year:       models.IntPtr(2021),
			MileageKM:  models.IntPtr(25000),
			Price:      models.FloatPtr(120000),
			City:       models.StrPtr("São Paulo"),
			State:      models.StrPtr("SP"),
			Photos:     []string{"https://example.com/photos/demo-1.jpg"},
			SellerType: models.StrPtr("dealer"),
			URL:        models.StrPtr("https://example.com/listing/demo-1"),
			Seller: &models.SellerFeedback{
				Origin:         SourceName,
				ExternalID:     "demo-seller-1",
				Medal:          &gold,
				Score:          models.FloatPtr(0.8),
				Cancellations:  models.IntPtr(2),
				CompletedSales: models.IntPtr(100),
			},
		},
		{
			ExternalID: "demo-2",
			Brand:      models.StrPtr("Fiat"),
			Model:      models.StrPtr("Pulse"),
			Year:       models.IntPtr(2022),
			MileageKM:  models.IntPtr(15000),
			Price:      models.FloatPtr(105000),
			City:       models.StrPtr("Rio de Janeiro"),
			State:      models.StrPtr("RJ"),
			Photos:     []string{"https://example.com/photos/demo-2.jpg"},
			SellerType: models.StrPtr("private"),
			URL:        models.StrPtr("https://example.com/listing/demo-2"),
			Seller: &models.SellerFeedback{
				Origin:         SourceName,
				ExternalID:     "demo-seller-2",
				Score:          models.FloatPtr(0.7),
				CompletedSales: models.IntPtr(12),
			},
		},
	}
}
