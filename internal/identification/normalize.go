package identification

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/bergsfam/calibre-audible-integration/internal/textutil"
)

// NormalizedTitle carries the comparable form of a title. Main drops any
// subtitle; it equals Full when the title has none.
type NormalizedTitle struct {
	Full string
	Main string
}

var (
	bracketPattern = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}`)
	apostrophes    = strings.NewReplacer("'", "", "’", "", "‘", "", "`", "")
	subtitleSeps   = []string{":", " - ", " — ", " – ", "—", "–"}
)

// trailingNoise lists phrases retailers and publishers append to titles. They
// are removed from the end of a title, repeatedly, after punctuation is gone.
var trailingNoise = []string{
	"a novel",
	"a thriller",
	"a memoir",
	"unabridged",
	"abridged",
	"unabridged edition",
	"dramatized adaptation",
	"a full cast production",
	"full cast edition",
	"special edition",
	"anniversary edition",
	"collectors edition",
	"expanded edition",
	"deluxe edition",
	"the graphic novel",
	"audible original",
}

// NormalizeTitle folds a raw title into its comparable form.
func NormalizeTitle(raw string) NormalizedTitle {
	text := prepare(raw)
	full := cleanTitle(text)
	main := full
	if idx := subtitleIndex(text); idx > 0 {
		if candidate := cleanTitle(text[:idx]); candidate != "" {
			main = candidate
		}
	}
	return NormalizedTitle{Full: full, Main: main}
}

// subtitleIndex returns the position of the earliest subtitle separator, or -1.
func subtitleIndex(text string) int {
	best := -1
	for _, sep := range subtitleSeps {
		if idx := strings.Index(text, sep); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}

func prepare(raw string) string {
	text := textutil.Fold(raw)
	text = strings.ReplaceAll(text, "&", " and ")
	text = bracketPattern.ReplaceAllString(text, " ")
	return apostrophes.Replace(text)
}

func cleanTitle(text string) string {
	text = textutil.CollapseSpace(stripPunctuation(text))
	for {
		trimmed := stripNoise(text)
		if trimmed == text {
			return text
		}
		text = trimmed
	}
}

// stripNoise removes one trailing noise phrase, unless that would leave nothing.
func stripNoise(text string) string {
	for _, phrase := range trailingNoise {
		if text == phrase {
			continue
		}
		if strings.HasSuffix(text, " "+phrase) {
			return strings.TrimSpace(strings.TrimSuffix(text, phrase))
		}
	}
	return text
}

func stripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, text)
}
