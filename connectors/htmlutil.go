package connectors

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"
)

// Shared pattern-extraction primitives for the per-marketplace parsers.
// These are pure text functions so every parser can be fixture-tested
// without a network.

var (
	tagRegexp      = regexp.MustCompile(`<[^>]+>`)
	jsonLDRegexp   = regexp.MustCompile(`(?is)<script[^>]+application/ld\+json[^>]*>(.*?)</script>`)
	imgSrcRegexp   = regexp.MustCompile(`(?i)<img[^>]+src="([^"]+)"`)
	canonicalRegex = regexp.MustCompile(`(?i)<link[^>]+rel="canonical"[^>]+href="([^"]+)"`)
)

// StripTags removes markup and unescapes HTML entities.
func StripTags(fragment string) string {
	return strings.TrimSpace(html.UnescapeString(tagRegexp.ReplaceAllString(fragment, "")))
}

// ExtractTagText returns the text of the first matching tag, optionally
// constrained to tags whose class attribute contains classSubstring.
// Returns "" when nothing matches.
func ExtractTagText(doc, tag, classSubstring string) string {
	classPart := `[^>]*`
	if classSubstring != "" {
		classPart = `[^>]*class="[^"]*` + regexp.QuoteMeta(classSubstring) + `[^"]*"[^>]*`
	}
	re := regexp.MustCompile(`(?is)<` + tag + classPart + `>(.*?)</` + tag + `>`)
	match := re.FindStringSubmatch(doc)
	if match == nil {
		return ""
	}
	return StripTags(match[1])
}

// ExtractJSONLD decodes the first JSON-LD block in the document into a loose
// map. A document may wrap the block in a one-element array. Returns nil when
// no parseable block exists.
func ExtractJSONLD(doc string) map[string]interface{} {
	match := jsonLDRegexp.FindStringSubmatch(doc)
	if match == nil {
		return nil
	}
	raw := html.UnescapeString(match[1])

	var asMap map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &asMap); err == nil {
		return asMap
	}

	var asList []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &asList); err == nil && len(asList) > 0 {
		return asList[0]
	}
	return nil
}

// ExtractImageSources lists img src attributes in document order, capped at
// limit entries.
func ExtractImageSources(doc string, limit int) []string {
	var out []string
	for _, match := range imgSrcRegexp.FindAllStringSubmatch(doc, -1) {
		if match[1] == "" {
			continue
		}
		out = append(out, match[1])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// ExtractCanonicalURL reads the canonical link header, "" when absent.
func ExtractCanonicalURL(doc string) string {
	match := canonicalRegex.FindStringSubmatch(doc)
	if match == nil {
		return ""
	}
	return match[1]
}

// JSONString reads a string field out of a loose JSON-LD map.
func JSONString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// JSONMap reads a nested object out of a loose JSON-LD map.
func JSONMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	if sub, ok := m[key].(map[string]interface{}); ok {
		return sub
	}
	return nil
}

// JSONNumber reads a numeric field that sources encode either as a JSON
// number or as a string.
func JSONNumber(m map[string]interface{}, key string) *float64 {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case float64:
		return &v
	case string:
		return ParseBRLNumber(v)
	}
	return nil
}

// JSONStringList reads a field that is either a string or a list of strings.
func JSONStringList(m map[string]interface{}, key string) []string {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case string:
		return []string{v}
	case []interface{}:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
