package classify

import (
	"github.com/PuerkitoBio/goquery"
)

// SapphireCards classifies sapphire-cards.de product pages. the shop
// colors its cart button red when a product cannot be ordered.
type SapphireCards struct{}

func (SapphireCards) Classify(doc *goquery.Document) Result {
	price := extractPrice(doc, ".price", ".product-price", ".product__price")

	if doc.Find("button.btn-danger, button.btn-outline-danger, .btn-cart.unavailable").Length() > 0 {
		return Result{State: StateOutOfStock, Price: price}
	}
	if doc.Find("button.btn-primary, button.btn-outline-primary, .btn-cart:not(.unavailable)").Length() > 0 {
		return Result{State: StateAvailable, Price: price}
	}

	return Generic{}.Classify(doc)
}
