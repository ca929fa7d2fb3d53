package services

import (
	"testing"

	"github.com/alexmarroig/Carpremiumsell/models"
)

func TestTrustBadge(t *testing.T) {
	tests := []struct {
		name string
		sig  TrustSignals
		want *string
	}{
		{
			name: "dealer with photos and fair price",
			sig: TrustSignals{
				SellerType:     "dealer",
				HasPhotos:      true,
				PriceDeviation: models.FloatPtr(-0.05),
				AgeHours:       models.FloatPtr(12),
			},
			want: models.StrPtr(BadgeVerified),
		},
		{
			name: "dealer with photos and unknown age",
			sig: TrustSignals{
				SellerType: "dealer",
				HasPhotos:  true,
			},
			want: models.StrPtr(BadgeVerified),
		},
		{
			name: "dealer without photos",
			sig: TrustSignals{
				SellerType: "dealer",
				AgeHours:   models.FloatPtr(24),
			},
			want: models.StrPtr(BadgeOpportunity),
		},
		{
			name: "private seller with photos only",
			sig: TrustSignals{
				SellerType: "private",
				HasPhotos:  true,
				AgeHours:   models.FloatPtr(48),
			},
			want: nil,
		},
		{
			name: "suspiciously cheap fresh dealer listing",
			sig: TrustSignals{
				SellerType:     "dealer",
				HasPhotos:      true,
				PriceDeviation: models.FloatPtr(-0.35),
				AgeHours:       models.FloatPtr(2),
			},
			want: nil,
		},
		{
			name: "fresh dealer listing with photos",
			sig: TrustSignals{
				SellerType: "dealer",
				HasPhotos:  true,
				AgeHours:   models.FloatPtr(3),
			},
			want: models.StrPtr(BadgeOpportunity),
		},
		{
			name: "no signals at all",
			sig:  TrustSignals{SellerType: "private", AgeHours: models.FloatPtr(24)},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrustBadge(tt.sig)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("TrustBadge = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("TrustBadge = %q, want %q", *got, *tt.want)
			}
		})
	}
}
