package watcher

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"cardwatch-backend/lib/textutil"
)

// RawProduct is one scraped product before identity resolution.
// Series/Type/Language are only set when a site-specific scraper knows
// them explicitly; otherwise they are extracted from the title.
type RawProduct struct {
	Site     string
	Title    string
	Url      string
	Series   string
	Type     string
	Language string
}

// Identity carries the constituent parts of a product key. the key is
// recomputed from these on every scrape, never stored as an opaque
// blob.
type Identity struct {
	Site       string
	Series     string
	Type       string
	Language   string
	Qualifiers []string
	// set when neither series nor type could be extracted and the key
	// fell back to a title hash
	Degraded bool
}

// fields are sanitized so the separator cannot occur inside them,
// which keeps distinct part tuples from colliding
func (id Identity) Key() string {
	parts := []string{
		sanitizeKeyField(id.Site),
		sanitizeKeyField(id.Series),
		sanitizeKeyField(id.Type),
		sanitizeKeyField(id.Language),
	}
	for _, q := range id.Qualifiers {
		parts = append(parts, sanitizeKeyField(q))
	}
	return strings.Join(parts, "_")
}

var keyFieldRegex = regexp.MustCompile(`[^a-z0-9-]`)

func sanitizeKeyField(field string) string {
	field = strings.ToLower(field)
	field = strings.ReplaceAll(field, " ", "-")
	return keyFieldRegex.ReplaceAllString(field, "")
}

var seriesCodeRegex = regexp.MustCompile(`\b(?:sv|kp|op)[ -]?\d+\b`)

// set names that appear without their code on some shops
var namedSeries = []struct {
	name string
	code string
}{
	{"journey together", "sv09"},
	{"reisegefährten", "kp09"},
	{"royal blood", "op10"},
}

// keyword table for product type extraction; the longest matching
// keyword wins so "top trainer box" resolves as a box before "top"
// style qualifiers are considered
var productTypes = []struct {
	keyword string
	typ     string
}{
	{"36er display", "display"},
	{"display", "display"},
	{"elite trainer box", "box"},
	{"top trainer box", "box"},
	{"trainer box", "box"},
	{"elite trainer", "box"},
	{"tin", "tin"},
	{"box", "box"},
	{"premium checklane blister", "blister"},
	{"checklane blister", "blister"},
	{"check lane", "blister"},
	{"blister", "blister"},
	{"sleeved booster", "booster"},
	{"booster", "booster"},
	{"sleeve", "booster"},
	{"pack", "booster"},
}

var qualifierTokens = []string{"premium", "elite", "special"}

// ResolveIdentity derives a stable product identity from raw scrape
// output. the same raw input always resolves to the same identity;
// titles that differ in product type resolve to different keys.
func ResolveIdentity(raw RawProduct, defaultLanguage string) Identity {
	normalized := textutil.CleanText(raw.Title)

	series := sanitizeKeyField(raw.Series)
	if series == "" {
		series = extractSeries(normalized)
	}
	typ := sanitizeKeyField(raw.Type)
	if typ == "" {
		typ = extractProductType(normalized)
	}
	language := sanitizeKeyField(raw.Language)
	if language == "" {
		language = extractLanguage(raw.Title, defaultLanguage)
	}

	if series == "" && typ == "" {
		// nothing structural to key on; hash the normalized title scoped
		// to the site so distinct products cannot collide by coincidence
		return Identity{
			Site:     raw.Site,
			Series:   titleHash(normalized),
			Type:     "unknown",
			Language: language,
			Degraded: true,
		}
	}
	if series == "" {
		series = "unknown"
	}
	if typ == "" {
		typ = "unknown"
	}

	return Identity{
		Site:       raw.Site,
		Series:     series,
		Type:       typ,
		Language:   language,
		Qualifiers: extractQualifiers(normalized),
	}
}

func extractSeries(normalized string) string {
	code := seriesCodeRegex.FindString(normalized)
	if code != "" {
		code = strings.ReplaceAll(code, " ", "")
		return strings.ReplaceAll(code, "-", "")
	}
	for _, s := range namedSeries {
		if strings.Contains(normalized, s.name) {
			return s.code
		}
	}
	return ""
}

func extractProductType(normalized string) string {
	best := ""
	bestLen := 0
	for _, entry := range productTypes {
		if len(entry.keyword) > bestLen && strings.Contains(normalized, entry.keyword) {
			best = entry.typ
			bestLen = len(entry.keyword)
		}
	}
	return best
}

func extractLanguage(title, defaultLanguage string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "(de)") || strings.Contains(lower, "pro person"):
		return "de"
	case strings.Contains(lower, "(en)") || strings.Contains(lower, "per person"):
		return "en"
	case strings.Contains(lower, "(jp)") || strings.Contains(lower, "japan"):
		return "jp"
	}
	if defaultLanguage != "" {
		return strings.ToLower(defaultLanguage)
	}
	return "unk"
}

func extractQualifiers(normalized string) []string {
	var qualifiers []string
	for _, q := range qualifierTokens {
		if containsToken(normalized, q) {
			qualifiers = append(qualifiers, q)
		}
	}
	// "top" alone is too common, it only qualifies trainer products
	if containsToken(normalized, "top") && strings.Contains(normalized, "trainer") {
		qualifiers = append(qualifiers, "top")
	}
	return qualifiers
}

func containsToken(normalized, token string) bool {
	for _, t := range strings.Split(normalized, " ") {
		if t == token {
			return true
		}
	}
	return false
}

func titleHash(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:6])
}

// Fingerprint digests availability-relevant page text for change
// detection. identical text always yields the same digest; any visible
// change (price, stock badge, title) changes it.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:8])
}
