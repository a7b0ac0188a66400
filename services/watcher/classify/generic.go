package classify

import (
	"encoding/json"
	"strings"

	"cardwatch-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var soldOutMarkers = []string{
	"ausverkauft", "sold out", "out of stock",
	"nicht verfügbar", "nicht mehr verfügbar",
	"nicht auf lager", "vergriffen",
}

var notifyMarkers = []string{
	"benachrichtigung", "notify me", "bei verfügbarkeit informieren",
}

var preorderMarkers = []string{
	"vorbestellung", "vorbestellbar", "pre-order", "preorder",
}

// Generic handles any shop without a registered classifier. Signals are
// evaluated in a fixed priority order; explicit sold-out text always
// wins over the presence of a cart button.
type Generic struct{}

func (Generic) Classify(doc *goquery.Document) Result {
	price := extractPrice(doc)
	text := pageText(doc)

	if containsAny(text, soldOutMarkers...) {
		return Result{State: StateOutOfStock, Price: price}
	}

	cart := doc.Find("button[name=add], .add-to-cart, .buy-now, #AddToCart, .product-form__cart-submit, button[type=submit], input[type=submit]").First()
	hasCart := cart.Length() > 0
	if hasCart {
		cartText := strings.ToLower(htmlutil.VisibleText(cart))
		if !buttonDisabled(cart) && !containsAny(cartText, notifyMarkers...) {
			return Result{State: StateAvailable, Price: price}
		}
		return Result{State: StateOutOfStock, Price: price}
	}

	if containsAny(text, notifyMarkers...) {
		return Result{State: StateOutOfStock, Price: price}
	}
	// pre-order pages without a purchase control are not buyable now
	if containsAny(text, preorderMarkers...) {
		return Result{State: StateOutOfStock, Price: price}
	}

	if state, ldPrice, ok := structuredDataState(doc); ok {
		if price == "" {
			price = ldPrice
		}
		return Result{State: state, Price: price}
	}

	return Result{State: StateUnknown, Price: price}
}

type ldOffer struct {
	Price        json.Number `json:"price"`
	Availability string      `json:"availability"`
}

type ldProduct struct {
	Offers json.RawMessage `json:"offers"`
}

// many shopify themes embed schema.org product data, which carries an
// explicit availability field
func structuredDataState(doc *goquery.Document) (State, string, bool) {
	var state State
	var price string
	found := false

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var product ldProduct
		err := json.Unmarshal([]byte(sel.Text()), &product)
		if err != nil || len(product.Offers) == 0 {
			return true
		}

		var offers []ldOffer
		var single ldOffer
		if json.Unmarshal(product.Offers, &single) == nil && single.Availability != "" {
			offers = []ldOffer{single}
		} else if json.Unmarshal(product.Offers, &offers) != nil {
			return true
		}

		for _, offer := range offers {
			availability := strings.ToLower(offer.Availability)
			switch {
			case strings.Contains(availability, "instock"):
				state = StateAvailable
			case strings.Contains(availability, "outofstock"):
				state = StateOutOfStock
			case strings.Contains(availability, "preorder"):
				state = StateOutOfStock
			default:
				continue
			}
			if offer.Price != "" {
				price = offer.Price.String() + "€"
			}
			found = true
			return false
		}
		return true
	})

	return state, price, found
}
