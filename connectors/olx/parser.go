package olx

import (
	"regexp"
	"strings"

	"github.com/alexmarroig/Carpremiumsell/connectors"
)

// Pure extraction functions over raw OLX page text. Same layering as the
// other connectors: JSON-LD first, detail-list patterns second, title-token
// heuristics last.

var (
	externalIDRegexp = regexp.MustCompile(`ID[A-Za-z0-9]+`)

	searchAnchorRegexp = regexp.MustCompile(`(?i)<a[^>]+data-ds-component="DS-AdCard"[^>]*href="([^"]+)"|<a[^>]*href="([^"]*ID[A-Za-z0-9]+[^"]*)"`)
	nextLinkRegexp     = regexp.MustCompile(`(?i)<(?:a|link)[^>]+rel="next"[^>]+href="([^"]+)"`)

	priceRegexp = regexp.MustCompile(`(?i)R\$\s*([\d\.]+(?:,\d+)?)`)

	detailItemRegexp = regexp.MustCompile(`(?is)<dt[^>]*>(.*?)</dt>\s*<dd[^>]*>(.*?)</dd>`)

	professionalRegexp = regexp.MustCompile(`(?i)perfil\s+profissional`)
)

// ExtractExternalID pulls the OLX listing identifier out of a URL.
func ExtractExternalID(url string) string {
	trimmed := strings.SplitN(url, "?", 2)[0]
	return externalIDRegexp.FindString(trimmed)
}

// ParseSearchPage extracts listing URLs in document order (deduplicated,
// query strings stripped) and the next-page URL when pagination continues.
func ParseSearchPage(doc string) (urls []string, next string) {
	seen := make(map[string]struct{})
	for _, match := range searchAnchorRegexp.FindAllStringSubmatch(doc, -1) {
		href := match[1]
		if href == "" {
			href = match[2]
		}
		href = strings.SplitN(href, "?", 2)[0]
		if ExtractExternalID(href) == "" {
			continue
		}
		if _, dup := seen[href]; dup {
			continue
		}
		seen[href] = struct{}{}
		urls = append(urls, href)
	}

	if match := nextLinkRegexp.FindStringSubmatch(doc); match != nil {
		next = match[1]
	}
	return urls, next
}

// ParseListingPage extracts the structured attributes of one OLX ad page.
func ParseListingPage(doc, pageURL string) connectors.Parsed {
	parsed := connectors.Parsed{URL: pageURL}

	parseJSONLD(doc, &parsed)

	if parsed.Title == "" {
		parsed.Title = connectors.ExtractTagText(doc, "h1", "")
	}

	if parsed.Price == nil {
		if match := priceRegexp.FindStringSubmatch(doc); match != nil {
			parsed.Price = connectors.ParseBRLNumber(match[1])
		}
	}

	parseDetailList(doc, &parsed)

	if len(parsed.Photos) == 0 {
		parsed.Photos = connectors.ExtractImageSources(doc, 10)
	}

	if canonical := connectors.ExtractCanonicalURL(doc); canonical != "" {
		parsed.URL = canonical
	}

	if parsed.SellerType == "" {
		if professionalRegexp.MatchString(doc) {
			parsed.SellerType = "dealer"
		} else {
			parsed.SellerType = "private"
		}
	}

	deriveBrandModelFromTitle(&parsed)

	if parsed.ExternalID == "" {
		parsed.ExternalID = ExtractExternalID(parsed.URL)
	}
	return parsed
}

func parseJSONLD(doc string, parsed *connectors.Parsed) {
	payload := connectors.ExtractJSONLD(doc)
	if payload == nil {
		return
	}

	parsed.Title = connectors.JSONString(payload, "name")
	if offers := connectors.JSONMap(payload, "offers"); offers != nil {
		parsed.Price = connectors.JSONNumber(offers, "price")
	}
	parsed.Photos = connectors.JSONStringList(payload, "image")

	if brand := connectors.JSONString(payload, "brand"); brand != "" {
		parsed.Brand = brand
	}
	parsed.Model = connectors.JSONString(payload, "model")
}

// parseDetailList walks the ad's dt/dd attribute list.
func parseDetailList(doc string, parsed *connectors.Parsed) {
	for _, item := range detailItemRegexp.FindAllStringSubmatch(doc, -1) {
		label := strings.ToLower(connectors.StripTags(item[1]))
		value := connectors.StripTags(item[2])
		switch {
		case strings.Contains(label, "quilometragem"):
			if parsed.MileageKM == nil {
				parsed.MileageKM = connectors.DigitsOnly(value)
			}
		case strings.HasPrefix(label, "ano"):
			if parsed.Year == nil {
				parsed.Year = connectors.DigitsOnly(value)
			}
		case strings.Contains(label, "marca"):
			if parsed.Brand == "" {
				parsed.Brand = value
			}
		case strings.Contains(label, "modelo"):
			if parsed.Model == "" {
				parsed.Model = value
			}
		case strings.Contains(label, "versão"):
			if parsed.Trim == "" {
				parsed.Trim = value
			}
		case strings.Contains(label, "município"):
			if parsed.City == "" {
				parsed.City = value
			}
		case label == "uf" || strings.Contains(label, "estado"):
			if parsed.State == "" {
				parsed.State = value
			}
		}
	}
}

var yearTokenRegexp = regexp.MustCompile(`^(19|20)\d{2}$`)

// deriveBrandModelFromTitle splits "Honda Civic 2019 EX" style titles:
// first token is the brand, second the model, a 4-digit token the year,
// and whatever follows the year is the trim.
func deriveBrandModelFromTitle(parsed *connectors.Parsed) {
	parts := strings.Fields(parsed.Title)
	if len(parts) == 0 {
		return
	}
	if parsed.Brand == "" {
		parsed.Brand = parts[0]
	}
	if parsed.Model == "" && len(parts) > 1 {
		parsed.Model = parts[1]
	}
	for i := 2; i < len(parts); i++ {
		if yearTokenRegexp.MatchString(parts[i]) {
			if parsed.Year == nil {
				parsed.Year = connectors.DigitsOnly(parts[i])
			}
			if parsed.Trim == "" && i+1 < len(parts) {
				parsed.Trim = strings.Join(parts[i+1:], " ")
			}
			break
		}
	}
}
