package classify

import (
	"github.com/PuerkitoBio/goquery"
)

// GamesIsland classifies games-island.eu product pages.
type GamesIsland struct{}

func (GamesIsland) Classify(doc *goquery.Document) Result {
	price := extractPrice(doc, ".price", ".product-price", ".current-price")
	text := pageText(doc)

	if containsAny(text, "momentan nicht verfügbar") {
		return Result{State: StateOutOfStock, Price: price}
	}
	if findButton(doc, "benachrichtigung anfordern") != nil {
		return Result{State: StateOutOfStock, Price: price}
	}

	if containsAny(text, "auf lager", "sofort verfügbar") {
		return Result{State: StateAvailable, Price: price}
	}
	if findButton(doc, "in den warenkorb") != nil {
		return Result{State: StateAvailable, Price: price}
	}

	return Generic{}.Classify(doc)
}
