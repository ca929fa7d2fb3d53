package services

import (
	"testing"

	"github.com/alexmarroig/Carpremiumsell/models"
	"github.com/alexmarroig/Carpremiumsell/storage"
)

func TestReportResolvesSourceNames(t *testing.T) {
	store := storage.NewMemoryStore()

	ml := &models.ListingSource{Name: "mercado_livre", BaseURL: "https://carros.mercadolivre.com.br", Enabled: true}
	if err := store.CreateSource(ml); err != nil {
		t.Fatal(err)
	}
	olx := &models.ListingSource{Name: "olx", BaseURL: "https://www.olx.com.br", Enabled: true}
	if err := store.CreateSource(olx); err != nil {
		t.Fatal(err)
	}

	rows := []*models.NormalizedListing{
		{SourceID: ml.ID, ExternalID: "MLB1", Brand: "Honda", Model: "Civic", PriceBRL: models.FloatPtr(90000), State: models.StrPtr("SP")},
		{SourceID: ml.ID, ExternalID: "MLB2", Brand: "Honda", Model: "Fit", PriceBRL: models.FloatPtr(70000), State: models.StrPtr("SP")},
		{SourceID: olx.ID, ExternalID: "IDX1", Brand: "Fiat", Model: "Pulse", PriceBRL: models.FloatPtr(110000), State: models.StrPtr("RJ")},
	}
	for _, l := range rows {
		if err := store.UpsertNormalizedListing(l); err != nil {
			t.Fatal(err)
		}
	}

	reporter := &ReportService{Store: store, Query: &QueryService{Store: store}}
	report, err := reporter.Generate("sp", 0.7)
	if err != nil {
		t.Fatal(err)
	}

	if report.TotalListings != 3 {
		t.Errorf("total = %d, want 3", report.TotalListings)
	}
	if report.ListingsBySource["mercado_livre"] != 2 {
		t.Errorf("mercado_livre count = %d, want 2 (by registered name, not a placeholder)",
			report.ListingsBySource["mercado_livre"])
	}
	if report.ListingsBySource["olx"] != 1 {
		t.Errorf("olx count = %d, want 1", report.ListingsBySource["olx"])
	}
	if report.AveragePrice != 90000 {
		t.Errorf("average price = %v, want 90000", report.AveragePrice)
	}
	if report.ListingsByRegion["SP"] != 2 || report.ListingsByRegion["RJ"] != 1 {
		t.Errorf("region counts = %v", report.ListingsByRegion)
	}
}
