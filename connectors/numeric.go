package connectors

import (
	"regexp"
	"strconv"
	"strings"
)

var numberRunRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseBRLNumber extracts a numeric value from Brazilian-formatted free text
// such as "R$ 73.500" or "45.000 km": dots are thousands separators and the
// comma is the decimal separator. Malformed or empty text yields nil.
func ParseBRLNumber(text string) *float64 {
	if text == "" {
		return nil
	}
	cleaned := strings.ReplaceAll(text, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	match := numberRunRegexp.FindString(cleaned)
	if match == "" {
		return nil
	}
	val, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &val
}

// ParseBRLInt is ParseBRLNumber truncated to an int, for years and mileage.
func ParseBRLInt(text string) *int {
	val := ParseBRLNumber(text)
	if val == nil {
		return nil
	}
	n := int(*val)
	return &n
}

// ParsePercent reads "1%" / "1,5%" into a fraction (0.01 / 0.015), nil when
// the text carries no number.
func ParsePercent(text string) *float64 {
	val := ParseBRLNumber(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	if val == nil {
		return nil
	}
	frac := *val / 100
	return &frac
}

var digitsOnlyRegexp = regexp.MustCompile(`\D`)

// DigitsOnly strips every non-digit rune; nil when nothing remains.
func DigitsOnly(text string) *int {
	cleaned := digitsOnlyRegexp.ReplaceAllString(text, "")
	if cleaned == "" {
		return nil
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &n
}
