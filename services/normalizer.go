package services

import (
	"strings"

	"github.com/alexmarroig/Carpremiumsell/models"
)

// brandAliases maps common shorthand brand tokens to their canonical names.
// Anything not listed is title-cased as-is.
var brandAliases = map[string]string{
	"vw":    "Volkswagen",
	"gm":    "Chevrolet",
	"chevy": "Chevrolet",
}

// CanonicalBrand resolves a raw brand token to its canonical display name.
func CanonicalBrand(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	if canonical, ok := brandAliases[key]; ok {
		return canonical
	}
	return titleCase(key)
}

// CanonicalModel title-cases a raw model string, word by word.
func CanonicalModel(raw string) string {
	return titleCase(strings.TrimSpace(raw))
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// NormalizeListingFields maps raw connector fields onto their canonical
// forms. Applying it twice yields the same result, so re-normalizing an
// already clean payload is safe.
func NormalizeListingFields(raw models.RawFields) models.RawFields {
	out := raw

	if raw.Brand != nil {
		b := CanonicalBrand(*raw.Brand)
		out.Brand = &b
	}
	if raw.Model != nil {
		m := CanonicalModel(*raw.Model)
		out.Model = &m
	}
	if raw.Trim != nil {
		t := strings.TrimSpace(*raw.Trim)
		out.Trim = &t
	}
	if raw.City != nil {
		c := titleCase(*raw.City)
		out.City = &c
	}
	if raw.State != nil {
		st := strings.ToUpper(strings.TrimSpace(*raw.State))
		out.State = &st
	}
	if raw.SellerType == nil || strings.TrimSpace(*raw.SellerType) == "" {
		out.SellerType = models.StrPtr("private")
	} else {
		st := strings.ToLower(strings.TrimSpace(*raw.SellerType))
		out.SellerType = &st
	}
	return out
}
