package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)
var nonWordRegex = regexp.MustCompile(`[^a-z0-9äöüß ]`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// lower-cases the text, strips everything that isn't a letter, digit or
// german umlaut and collapses whitespace runs. product titles cleaned
// this way compare equal regardless of punctuation or casing variants.
func CleanText(text string) string {
	text = strings.ToLower(text)
	text = nonWordRegex.ReplaceAllString(text, " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.Trim(text, " ")
}

func Tokens(text string) []string {
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil
	}
	return strings.Split(cleaned, " ")
}

// how well the keyword tokens cover the text, 0..1. a keyword counts as
// found when it occurs as a substring of a text token or is a close
// JaroWinkler match of one (catches singular/plural and minor spelling
// drift in shop titles).
func MatchScore(keywords []string, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	textTokens := Tokens(text)

	found := 0
	for _, kw := range keywords {
		kw = CleanText(kw)
		if kw == "" {
			continue
		}
		for _, tok := range textTokens {
			if strings.Contains(tok, kw) || matchr.JaroWinkler(kw, tok, false) >= 0.92 {
				found++
				break
			}
		}
	}
	return float64(found) / float64(len(keywords))
}

// threshold 0.75 tolerates one missing token on four-word search terms
const MatchThreshold = 0.75

func MatchesKeywords(keywords []string, text string) bool {
	return MatchScore(keywords, text) >= MatchThreshold
}
