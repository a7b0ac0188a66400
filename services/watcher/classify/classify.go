// Package classify maps fetched product pages to availability states.
// Classifiers are pure functions over the parsed page, they never touch
// the ledger.
package classify

import (
	"strings"

	"cardwatch-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type State int64

const (
	StateUnknown State = iota
	StateAvailable
	StateOutOfStock
)

func (s State) String() string {
	switch s {
	case StateAvailable:
		return "available"
	case StateOutOfStock:
		return "out_of_stock"
	}
	return "unknown"
}

type Result struct {
	State State
	// display price, best effort; empty when extraction failed
	Price string
}

type Classifier interface {
	Classify(doc *goquery.Document) Result
}

var registry = map[string]Classifier{
	"tcgviert":      Tcgviert{},
	"kofuku":        Kofuku{},
	"comicplanet":   Comicplanet{},
	"gamesisland":   GamesIsland{},
	"sapphirecards": SapphireCards{},
	"mightycards":   MightyCards{},
}

// the classifier registered for the site, or the generic fallback
func ForSite(site string) Classifier {
	if c, ok := registry[site]; ok {
		return c
	}
	return Generic{}
}

func ParsePage(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func pageText(doc *goquery.Document) string {
	return htmlutil.VisibleTextLower(doc.Selection)
}

func containsAny(text string, markers ...string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// finds the first button-like control whose visible text contains the
// given (lower-case) substring
func findButton(doc *goquery.Document, substr string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("button, input[type=submit], a.btn").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.ToLower(htmlutil.VisibleText(sel))
		if text == "" {
			if v, ok := sel.Attr("value"); ok {
				text = strings.ToLower(v)
			}
		}
		if strings.Contains(text, substr) {
			found = sel
			return false
		}
		return true
	})
	return found
}

func buttonDisabled(sel *goquery.Selection) bool {
	if sel == nil {
		return true
	}
	if _, ok := sel.Attr("disabled"); ok {
		return true
	}
	class, _ := sel.Attr("class")
	class = strings.ToLower(class)
	return strings.Contains(class, "disabled") || strings.Contains(class, "sold-out")
}
