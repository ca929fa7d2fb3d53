package connectors

import "testing"

func TestParseBRLNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *float64
	}{
		{"price with currency", "R$ 73.500", floatPtr(73500)},
		{"price with cents", "R$ 89.990,50", floatPtr(89990.50)},
		{"mileage with unit", "45.000 km", floatPtr(45000)},
		{"plain number", "2021", floatPtr(2021)},
		{"empty", "", nil},
		{"no digits", "sob consulta", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBRLNumber(tt.text)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ParseBRLNumber(%q) = %v, want %v", tt.text, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("ParseBRLNumber(%q) = %v, want %v", tt.text, *got, *tt.want)
			}
		})
	}
}

func TestParseBRLInt(t *testing.T) {
	got := ParseBRLInt("45.000 km")
	if got == nil || *got != 45000 {
		t.Errorf("ParseBRLInt(\"45.000 km\") = %v, want 45000", got)
	}
	if ParseBRLInt("") != nil {
		t.Error("ParseBRLInt(\"\") should be nil")
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"1%", 0.01},
		{"1,5%", 0.015},
		{"98% de avaliações positivas", 0.98},
	}
	for _, tt := range tests {
		got := ParsePercent(tt.text)
		if got == nil || *got != tt.want {
			t.Errorf("ParsePercent(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
	if ParsePercent("sem dados") != nil {
		t.Error("ParsePercent without digits should be nil")
	}
}

func TestDigitsOnly(t *testing.T) {
	got := DigitsOnly("MLB-123.456")
	if got == nil || *got != 123456 {
		t.Errorf("DigitsOnly = %v, want 123456", got)
	}
	if DigitsOnly("abc") != nil {
		t.Error("DigitsOnly without digits should be nil")
	}
}

func floatPtr(f float64) *float64 { return &f }
