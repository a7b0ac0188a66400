package classify

import (
	"github.com/PuerkitoBio/goquery"
)

// Kofuku classifies kofuku.de product pages. sold out products show a
// lock icon overlay or a greyed-out AUSVERKAUFT button.
type Kofuku struct{}

func (Kofuku) Classify(doc *goquery.Document) Result {
	price := extractPrice(doc, ".price", ".product-price", ".product__price")
	text := pageText(doc)

	if containsAny(text, "ausverkauft") {
		return Result{State: StateOutOfStock, Price: price}
	}
	if doc.Find("button.disabled, button[disabled], .btn--sold-out").Length() > 0 {
		return Result{State: StateOutOfStock, Price: price}
	}
	if doc.Find(".icon-lock, .sold-out-overlay").Length() > 0 {
		return Result{State: StateOutOfStock, Price: price}
	}

	if findButton(doc, "in den warenkorb") != nil {
		return Result{State: StateAvailable, Price: price}
	}

	return Generic{}.Classify(doc)
}
