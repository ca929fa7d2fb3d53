package mercadolivre

import (
	"regexp"
	"strings"

	"github.com/alexmarroig/Carpremiumsell/connectors"
	"github.com/alexmarroig/Carpremiumsell/models"
)

// Pure extraction functions over raw page text. Strategies are layered in
// priority order: JSON-LD metadata first, then tag/class patterns, then
// heuristics such as splitting the title into brand/model tokens. Each field
// is set at most once; absent fields stay nil.

var (
	externalIDRegexp = regexp.MustCompile(`MLB\d+`)

	searchAnchorRegexp = regexp.MustCompile(`(?i)href="([^"]*MLB\d+[^"]*)"`)
	nextLinkRegexp     = regexp.MustCompile(`(?i)<(?:a|link)[^>]+rel="next"[^>]+href="([^"]+)"`)

	priceFractionClass = "andes-money-amount__fraction"

	specsRowRegexp = regexp.MustCompile(
		`(?is)<tr[^>]*ui-vpp-striped-specs__table-row[^>]*>\s*<th[^>]*>(.*?)</th>\s*<td[^>]*>(.*?)</td>\s*</tr>`)
	breadcrumbRegexp = regexp.MustCompile(`(?is)<ol[^>]*ui-pdp-breadcrumb[^>]*>(.*?)</ol>`)
	breadcrumbItem   = regexp.MustCompile(`(?is)<li[^>]*>(.*?)</li>`)

	sellerSectionRegexp  = regexp.MustCompile(`(?is)<section[^>]*ui-seller-info[^>]*>(.*?)</section>`)
	sellerIDRegexp       = regexp.MustCompile(`(?i)data-seller-id="([^"]+)"`)
	sellerMedalRegexp    = regexp.MustCompile(`(?i)mercadol[ií]der\s+(platinum|gold|silver|bronze)`)
	sellerSalesRegexp    = regexp.MustCompile(`(?i)([\d\.]+)\s+vendas`)
	sellerResponseRegexp = regexp.MustCompile(`(?i)responde em\s+([\d,]+)\s*h`)
	sellerCancelRegexp   = regexp.MustCompile(`(?i)([\d\.]+)\s+cancelamentos`)
	sellerScoreRegexp    = regexp.MustCompile(`(?i)([\d,]+)%\s*de\s*avalia[çc][õo]es\s*positivas`)
)

// ExtractExternalID pulls the MLB identifier out of a listing URL.
// Returns "" when the URL carries none.
func ExtractExternalID(url string) string {
	return externalIDRegexp.FindString(url)
}

// ParseSearchPage extracts listing URLs (query strings stripped, order
// preserved, duplicates removed) and the next-page URL, "" when the result
// set ends.
func ParseSearchPage(doc string) (urls []string, next string) {
	seen := make(map[string]struct{})
	for _, match := range searchAnchorRegexp.FindAllStringSubmatch(doc, -1) {
		href := strings.SplitN(match[1], "?", 2)[0]
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

// ParseListingPage extracts the structured attributes of one detail page.
func ParseListingPage(doc, pageURL string) connectors.Parsed {
	parsed := connectors.Parsed{URL: pageURL}

	parseJSONLD(doc, &parsed)

	if parsed.Title == "" {
		parsed.Title = connectors.ExtractTagText(doc, "h1", "")
	}

	if parsed.Price == nil {
		if fraction := connectors.ExtractTagText(doc, "span", priceFractionClass); fraction != "" {
			parsed.Price = connectors.ParseBRLNumber(fraction)
		}
	}

	parseBreadcrumbLocation(doc, &parsed)
	parseSpecsTable(doc, &parsed)

	if len(parsed.Photos) == 0 {
		parsed.Photos = connectors.ExtractImageSources(doc, 10)
	}

	if canonical := connectors.ExtractCanonicalURL(doc); canonical != "" {
		parsed.URL = canonical
	}

	deriveBrandModelFromTitle(&parsed)

	parsed.Seller = ExtractSellerFeedback(doc)
	if parsed.Seller != nil && parsed.SellerType == "" {
		parsed.SellerType = "dealer"
	}

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

	if name := connectors.JSONString(payload, "name"); name != "" {
		parsed.Title = name
	} else {
		parsed.Title = connectors.JSONString(payload, "description")
	}

	if offers := connectors.JSONMap(payload, "offers"); offers != nil {
		parsed.Price = connectors.JSONNumber(offers, "price")
	}

	parsed.Photos = connectors.JSONStringList(payload, "image")

	if brand := connectors.JSONString(payload, "brand"); brand != "" {
		parsed.Brand = brand
	} else if brandObj := connectors.JSONMap(payload, "brand"); brandObj != nil {
		parsed.Brand = connectors.JSONString(brandObj, "name")
	}
	parsed.Model = connectors.JSONString(payload, "model")

	if year := connectors.JSONString(payload, "productionDate"); year != "" {
		parsed.Year = connectors.DigitsOnly(year)
	} else if year := connectors.JSONString(payload, "modelDate"); year != "" {
		parsed.Year = connectors.DigitsOnly(year)
	}

	if odometer := connectors.JSONMap(payload, "mileageFromOdometer"); odometer != nil {
		if val := connectors.JSONNumber(odometer, "value"); val != nil {
			km := int(*val)
			parsed.MileageKM = &km
		}
	}

	location := connectors.JSONMap(payload, "areaServed")
	if location == nil {
		location = connectors.JSONMap(payload, "itemLocation")
	}
	if location != nil {
		parsed.City = connectors.JSONString(location, "addressLocality")
		parsed.State = connectors.JSONString(location, "addressRegion")
	}

	if seller := connectors.JSONMap(payload, "seller"); seller != nil {
		if sellerType := connectors.JSONString(seller, "@type"); sellerType != "" {
			parsed.SellerType = strings.ToLower(sellerType)
		}
	}

	if canonical := connectors.JSONString(payload, "url"); canonical != "" {
		parsed.URL = canonical
	}
}

func parseBreadcrumbLocation(doc string, parsed *connectors.Parsed) {
	if parsed.City != "" && parsed.State != "" {
		return
	}
	crumb := breadcrumbRegexp.FindStringSubmatch(doc)
	if crumb == nil {
		return
	}
	items := breadcrumbItem.FindAllStringSubmatch(crumb[1], -1)
	if len(items) == 0 {
		return
	}
	location := connectors.StripTags(items[len(items)-1][1])
	if !strings.Contains(location, ",") {
		return
	}
	parts := strings.SplitN(location, ",", 2)
	if parsed.City == "" {
		parsed.City = strings.TrimSpace(parts[0])
	}
	if parsed.State == "" {
		parsed.State = strings.TrimSpace(parts[1])
	}
}

func parseSpecsTable(doc string, parsed *connectors.Parsed) {
	for _, row := range specsRowRegexp.FindAllStringSubmatch(doc, -1) {
		label := strings.ToLower(connectors.StripTags(row[1]))
		value := connectors.StripTags(row[2])
		switch {
		case strings.Contains(label, "quilometragem"):
			if parsed.MileageKM == nil {
				parsed.MileageKM = connectors.DigitsOnly(value)
			}
		case strings.HasPrefix(label, "ano"):
			if parsed.Year == nil {
				parsed.Year = connectors.DigitsOnly(value)
			}
		case strings.Contains(label, "versão"):
			if parsed.Trim == "" {
				parsed.Trim = value
			}
		}
	}
}

// deriveBrandModelFromTitle is the last-resort heuristic: the first title
// token is the brand, the next two are the model.
func deriveBrandModelFromTitle(parsed *connectors.Parsed) {
	parts := strings.Fields(parsed.Title)
	if len(parts) == 0 {
		return
	}
	if parsed.Brand == "" {
		parsed.Brand = parts[0]
	}
	if parsed.Model == "" && len(parts) > 1 {
		parsed.Model = strings.Join(parts[1:min(3, len(parts))], " ")
	}
}

// ExtractSellerFeedback reads the seller-info section into the canonical
// reputation shape. Returns nil when the page exposes no seller block.
func ExtractSellerFeedback(doc string) *models.SellerFeedback {
	section := sellerSectionRegexp.FindString(doc)
	if section == "" {
		return nil
	}

	feedback := &models.SellerFeedback{Origin: SourceName}

	if match := sellerIDRegexp.FindStringSubmatch(section); match != nil {
		feedback.ExternalID = match[1]
	}
	if match := sellerMedalRegexp.FindStringSubmatch(section); match != nil {
		medal := strings.ToLower(match[1])
		feedback.Medal = &medal
	}
	if match := sellerSalesRegexp.FindStringSubmatch(section); match != nil {
		feedback.CompletedSales = connectors.DigitsOnly(match[1])
	}
	if match := sellerResponseRegexp.FindStringSubmatch(section); match != nil {
		feedback.ResponseTimeHours = connectors.ParseBRLNumber(match[1])
	}
	if match := sellerCancelRegexp.FindStringSubmatch(section); match != nil {
		feedback.Cancellations = connectors.DigitsOnly(match[1])
	}
	if match := sellerScoreRegexp.FindStringSubmatch(section); match != nil {
		feedback.Score = connectors.ParsePercent(match[1])
	}
	return feedback
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
