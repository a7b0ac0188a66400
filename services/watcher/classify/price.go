package classify

import (
	"regexp"
	"strings"

	"cardwatch-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// selectors seen across the shops we track, most common first
var defaultPriceSelectors = []string{
	".price", ".product-price", ".woocommerce-Price-amount",
	"[itemprop=price]", ".product__price", ".price-item",
	".current-price", ".product-single__price", ".product-price-box",
	".main-price", ".price-box", ".offer-price", ".price-regular",
}

var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+[,.]\d+)\s*[€$£]`),
	regexp.MustCompile(`[€$£]\s*(\d+[,.]\d+)`),
}

var priceWhitespace = regexp.MustCompile(`\s+`)

// tries structured selectors first, then a currency pattern over the
// page text. returns "" when nothing matches; the caller must not let
// that affect the state decision.
func extractPrice(doc *goquery.Document, selectors ...string) string {
	if len(selectors) == 0 {
		selectors = defaultPriceSelectors
	}

	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(htmlutil.VisibleText(sel))
		text = priceWhitespace.ReplaceAllString(text, " ")
		if text != "" {
			return text
		}
	}

	text := pageText(doc)
	for _, pattern := range pricePatterns {
		groups := pattern.FindStringSubmatch(text)
		if len(groups) > 1 {
			return groups[1] + "€"
		}
	}

	return ""
}
