package services

import (
	"testing"

	"github.com/alexmarroig/Carpremiumsell/models"
)

func TestCanonicalBrand(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"vw", "Volkswagen"},
		{"VW", "Volkswagen"},
		{"gm", "Chevrolet"},
		{"chevy", "Chevrolet"},
		{"honda", "Honda"},
		{"FIAT", "Fiat"},
		{"land rover", "Land Rover"},
		{"  toyota  ", "Toyota"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CanonicalBrand(tt.raw); got != tt.want {
			t.Errorf("CanonicalBrand(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeListingFields(t *testing.T) {
	raw := models.RawFields{
		ExternalID: "MLB123",
		Brand:      models.StrPtr("vw"),
		Model:      models.StrPtr("t-cross"),
		City:       models.StrPtr("são paulo"),
		State:      models.StrPtr("sp"),
	}

	out := NormalizeListingFields(raw)

	if *out.Brand != "Volkswagen" {
		t.Errorf("brand = %q, want Volkswagen", *out.Brand)
	}
	if *out.Model != "T-cross" {
		t.Errorf("model = %q, want T-cross", *out.Model)
	}
	if *out.City != "São Paulo" {
		t.Errorf("city = %q, want São Paulo", *out.City)
	}
	if *out.State != "SP" {
		t.Errorf("state = %q, want SP", *out.State)
	}
	if out.SellerType == nil || *out.SellerType != "private" {
		t.Errorf("seller type default = %v, want private", out.SellerType)
	}
}

func TestNormalizeListingFieldsIdempotent(t *testing.T) {
	raw := models.RawFields{
		ExternalID: "IDOLX9",
		Brand:      models.StrPtr("gm"),
		Model:      models.StrPtr("Onix"),
		State:      models.StrPtr("rj"),
		SellerType: models.StrPtr("DEALER"),
	}

	once := NormalizeListingFields(raw)
	twice := NormalizeListingFields(once)

	if *once.Brand != *twice.Brand || *once.Model != *twice.Model ||
		*once.State != *twice.State || *once.SellerType != *twice.SellerType {
		t.Errorf("normalization not idempotent: %+v vs %+v", once, twice)
	}
	if *twice.SellerType != "dealer" {
		t.Errorf("seller type = %q, want dealer", *twice.SellerType)
	}
}

func TestNormalizeListingFieldsNilTolerant(t *testing.T) {
	out := NormalizeListingFields(models.RawFields{ExternalID: "X1"})

	if out.Brand != nil || out.Model != nil || out.Price != nil {
		t.Errorf("absent fields must stay nil: %+v", out)
	}
	if out.SellerType == nil || *out.SellerType != "private" {
		t.Errorf("seller type default = %v, want private", out.SellerType)
	}
}
