package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letterFolds covers letters that compatibility decomposition leaves intact.
var letterFolds = strings.NewReplacer(
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
	"ø", "o",
	"ł", "l",
	"đ", "d",
	"ð", "d",
	"þ", "th",
	"ı", "i",
)

// Fold lower-cases text and strips diacritics so "Brontë" and "Bronte" compare
// equal. Compatibility forms (ligatures, full-width letters) are decomposed first.
func Fold(text string) string {
	if text == "" {
		return ""
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return letterFolds.Replace(strings.ToLower(folded))
}

// CollapseSpace trims text and reduces internal whitespace runs to one space.
func CollapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
