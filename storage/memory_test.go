package storage

import (
	"testing"

	"github.com/alexmarroig/Carpremiumsell/models"
)

func TestUpsertRawListingKeyedBySourceAndExternalID(t *testing.T) {
	store := NewMemoryStore()

	first := &models.RawListing{SourceID: 1, ExternalID: "MLB1", Payload: models.RawFields{ExternalID: "MLB1"}}
	if err := store.UpsertRawListing(first); err != nil {
		t.Fatal(err)
	}

	second := &models.RawListing{
		SourceID:   1,
		ExternalID: "MLB1",
		Payload:    models.RawFields{ExternalID: "MLB1", Price: models.FloatPtr(90000)},
	}
	if err := store.UpsertRawListing(second); err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("re-upsert allocated id %d, want %d", second.ID, first.ID)
	}

	stored, err := store.RawListingByID(first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Payload.Price == nil || *stored.Payload.Price != 90000 {
		t.Errorf("payload not overwritten: %+v", stored.Payload)
	}

	other := &models.RawListing{SourceID: 2, ExternalID: "MLB1"}
	if err := store.UpsertRawListing(other); err != nil {
		t.Fatal(err)
	}
	if other.ID == first.ID {
		t.Error("same external id on another source must be a new row")
	}
}

func TestUpsertSellerMergesSparseFields(t *testing.T) {
	store := NewMemoryStore()

	full := &models.Seller{
		Origin:          "mercado_livre",
		ExternalID:      "seller-1",
		ReputationMedal: models.StrPtr("gold"),
		ReputationScore: models.FloatPtr(0.9),
		CompletedSales:  models.IntPtr(500),
	}
	if err := store.UpsertSeller(full); err != nil {
		t.Fatal(err)
	}

	// A later listing exposes only the medal; the rest must survive.
	sparse := &models.Seller{
		Origin:          "mercado_livre",
		ExternalID:      "seller-1",
		ReputationMedal: models.StrPtr("platinum"),
	}
	if err := store.UpsertSeller(sparse); err != nil {
		t.Fatal(err)
	}
	if sparse.ID != full.ID {
		t.Fatalf("re-upsert allocated id %d, want %d", sparse.ID, full.ID)
	}

	merged, err := store.SellerByID(full.ID)
	if err != nil {
		t.Fatal(err)
	}
	if merged.ReputationMedal == nil || *merged.ReputationMedal != "platinum" {
		t.Errorf("medal = %v, want the fresher platinum", merged.ReputationMedal)
	}
	if merged.ReputationScore == nil || *merged.ReputationScore != 0.9 {
		t.Errorf("score = %v, must survive a sparse upsert", merged.ReputationScore)
	}
	if merged.CompletedSales == nil || *merged.CompletedSales != 500 {
		t.Errorf("completed sales = %v, must survive a sparse upsert", merged.CompletedSales)
	}
}

func TestListListingsFilters(t *testing.T) {
	store := NewMemoryStore()

	sellerID := int64(7)
	rows := []*models.NormalizedListing{
		{SourceID: 1, ExternalID: "A", Brand: "Honda", Model: "Civic", State: models.StrPtr("SP"), SellerID: &sellerID},
		{SourceID: 1, ExternalID: "B", Brand: "Honda", Model: "Fit", State: models.StrPtr("SP")},
		{SourceID: 2, ExternalID: "C", Brand: "Fiat", Model: "Pulse", State: models.StrPtr("RJ"), Status: "inactive"},
	}
	for _, l := range rows {
		if err := store.UpsertNormalizedListing(l); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.ListListings(ListingFilter{RegionKey: "sp"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("region filter matched %d, want 2 (case-insensitive)", len(got))
	}

	got, _ = store.ListListings(ListingFilter{Brand: "honda", Model: "civic"})
	if len(got) != 1 || got[0].ExternalID != "A" {
		t.Errorf("brand/model filter = %v", got)
	}

	got, _ = store.ListListings(ListingFilter{SellerID: sellerID})
	if len(got) != 1 || got[0].ExternalID != "A" {
		t.Errorf("seller filter = %v", got)
	}

	got, _ = store.ListListings(ListingFilter{Status: "active"})
	if len(got) != 2 {
		t.Errorf("status filter matched %d, want 2", len(got))
	}
}

func TestReplaceMarketStatsCaseInsensitiveKey(t *testing.T) {
	store := NewMemoryStore()

	ms := &models.MarketStats{RegionKey: "SP", Brand: "Honda", Model: "Civic", MedianPrice: 100000, P25: 90000, P75: 110000}
	if err := store.ReplaceMarketStats(ms); err != nil {
		t.Fatal(err)
	}

	update := &models.MarketStats{RegionKey: "sp", Brand: "honda", Model: "civic", MedianPrice: 98000, P25: 88000, P75: 108000}
	if err := store.ReplaceMarketStats(update); err != nil {
		t.Fatal(err)
	}
	if update.ID != ms.ID {
		t.Errorf("bucket key should be case-insensitive, got new id %d", update.ID)
	}

	got, err := store.MarketStatsFor("Sp", "HONDA", "Civic")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.MedianPrice != 98000 {
		t.Errorf("stats = %+v, want the replaced row", got)
	}
}
