package classify

import (
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// Tcgviert classifies tcgviert.com product pages. available products
// show a black add-to-cart button, sold out ones a grey AUSVERKAUFT
// badge or a "bei Verfügbarkeit informieren" button.
type Tcgviert struct{}

func (Tcgviert) Classify(doc *goquery.Document) Result {
	price := extractPrice(doc, ".product__price", ".price", ".product-single__price", "[data-product-price]")
	text := pageText(doc)

	if containsAny(text, "ausverkauft") {
		return Result{State: StateOutOfStock, Price: price}
	}
	if findButton(doc, "bei verfügbarkeit informieren") != nil {
		return Result{State: StateOutOfStock, Price: price}
	}

	cart := doc.Find("button[name=add], .product-form__cart-submit, .add-to-cart").First()
	if cart.Length() > 0 && !buttonDisabled(cart) {
		return Result{State: StateAvailable, Price: price}
	}

	return Generic{}.Classify(doc)
}

// the shopify catalog form of tcgviert.com (/products.json), which
// carries availability per variant and spares us a page fetch per
// product

type CatalogItem struct {
	Title string
	Url   string
	State State
	Price string
}

type catalogVariant struct {
	Price     string `json:"price"`
	Available bool   `json:"available"`
}

type catalogProduct struct {
	Title    string           `json:"title"`
	Handle   string           `json:"handle"`
	Variants []catalogVariant `json:"variants"`
}

type catalog struct {
	Products []catalogProduct `json:"products"`
}

func ParseShopifyCatalog(baseUrl, body string) ([]CatalogItem, error) {
	var data catalog
	err := json.Unmarshal([]byte(body), &data)
	if err != nil {
		return nil, fmt.Errorf("parse shopify catalog: %w", err)
	}

	items := make([]CatalogItem, len(data.Products))
	for i, product := range data.Products {
		state := StateOutOfStock
		for _, variant := range product.Variants {
			if variant.Available {
				state = StateAvailable
				break
			}
		}
		price := ""
		if len(product.Variants) > 0 && product.Variants[0].Price != "" {
			price = product.Variants[0].Price + "€"
		}
		items[i] = CatalogItem{
			Title: product.Title,
			Url:   baseUrl + "/products/" + product.Handle,
			State: state,
			Price: price,
		}
	}
	return items, nil
}
