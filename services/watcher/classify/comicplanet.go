package classify

import (
	"github.com/PuerkitoBio/goquery"
)

// Comicplanet classifies comicplanet.de product pages. unavailable
// products carry a red "Nicht mehr verfügbar" label or a notify-me
// form in place of the cart button.
type Comicplanet struct{}

func (Comicplanet) Classify(doc *goquery.Document) Result {
	price := extractPrice(doc, ".price", ".product-price")
	text := pageText(doc)

	if containsAny(text, "nicht mehr verfügbar") {
		return Result{State: StateOutOfStock, Price: price}
	}
	if doc.Find(".product-notify-form, .form-notify-me").Length() > 0 {
		return Result{State: StateOutOfStock, Price: price}
	}

	if findButton(doc, "in den warenkorb") != nil {
		return Result{State: StateAvailable, Price: price}
	}
	// a lone details button means the product page is informational only
	if findButton(doc, "details") != nil {
		return Result{State: StateOutOfStock, Price: price}
	}

	return Generic{}.Classify(doc)
}
