package classify

import (
	"strings"

	"cardwatch-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// MightyCards classifies mighty-cards.de product pages. sold out
// products show a red AUSVERKAUFT button; buyable ones an add-to-cart
// button or a NEW/SALE/EXCLUSIVE status flag.
type MightyCards struct{}

// status flags the shop only renders on buyable products
var mightyCardsStatusFlags = map[string]bool{
	"new":       true,
	"sale":      true,
	"exclusive": true,
}

func (MightyCards) Classify(doc *goquery.Document) Result {
	price := extractPrice(doc, ".price", ".product-price", ".current-price")
	text := pageText(doc)

	if containsAny(text, "ausverkauft") {
		return Result{State: StateOutOfStock, Price: price}
	}
	if findButton(doc, "in den warenkorb") != nil {
		return Result{State: StateAvailable, Price: price}
	}

	flagged := false
	doc.Find(".status, .badge, .flag, .product-flag, .label").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		flag := strings.ToLower(strings.TrimSpace(htmlutil.VisibleText(sel)))
		if mightyCardsStatusFlags[flag] {
			flagged = true
			return false
		}
		return true
	})
	if flagged {
		return Result{State: StateAvailable, Price: price}
	}

	return Generic{}.Classify(doc)
}
