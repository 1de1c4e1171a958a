package identification

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bergsfam/calibre-audible-integration/internal/textutil"
)

var (
	authorSplitPattern = regexp.MustCompile(`\s*(?:;|&|\band\b)\s*`)
	roleDashPattern    = regexp.MustCompile(`\s+-\s+.*$`)
)

var nameSuffixes = map[string]struct{}{
	"jr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {}, "phd": {}, "md": {},
}

var roleWords = map[string]struct{}{
	"editor": {}, "editors": {}, "ed": {}, "eds": {}, "translator": {}, "translated": {},
	"narrator": {}, "foreword": {}, "introduction": {}, "illustrator": {}, "contributor": {},
	"afterword": {}, "adapter": {},
}

var surnameParticles = map[string]struct{}{
	"le": {}, "la": {}, "de": {}, "van": {}, "von": {}, "der": {}, "den": {},
	"del": {}, "di": {}, "da": {}, "du": {}, "st": {}, "mac": {},
}

// NormalizeAuthors returns the canonical author string: every author as
// "surname, given", sorted, deduplicated and joined with "; ".
func NormalizeAuthors(authors []string) string {
	return strings.Join(CanonicalAuthors(authors), "; ")
}

// CanonicalAuthors canonicalises each author name. Input entries may hold
// several names joined by "&", ";" or "and", and calibre's "Surname, Given"
// form is recognised.
func CanonicalAuthors(authors []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, field := range authors {
		for _, name := range splitAuthorField(field) {
			canonical := canonicalName(name)
			if canonical == "" {
				continue
			}
			if _, ok := seen[canonical]; ok {
				continue
			}
			seen[canonical] = struct{}{}
			out = append(out, canonical)
		}
	}
	sort.Strings(out)
	return out
}

// personName holds surname and given-name tokens of one author.
type personName struct {
	surname []string
	given   []string
}

func splitAuthorField(field string) []personName {
	text := textutil.Fold(field)
	text = bracketPattern.ReplaceAllString(text, " ")
	text = apostrophes.Replace(text)
	var names []personName
	for _, piece := range authorSplitPattern.Split(text, -1) {
		piece = roleDashPattern.ReplaceAllString(strings.TrimSpace(piece), "")
		if piece == "" {
			continue
		}
		names = append(names, splitCommaName(piece)...)
	}
	return names
}

// splitCommaName handles "Surname, Given" against "Name One, Name Two".
func splitCommaName(piece string) []personName {
	var parts [][]string
	for _, part := range strings.Split(piece, ",") {
		tokens := nameTokens(part)
		if len(tokens) == 0 || isRoleOnly(tokens) {
			continue
		}
		parts = append(parts, tokens)
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return []personName{splitGiven(parts[0])}
	}
	if len(parts) == 2 && looksInverted(parts[0], parts[1]) {
		return []personName{{surname: parts[0], given: parts[1]}}
	}
	names := make([]personName, 0, len(parts))
	for _, tokens := range parts {
		names = append(names, splitGiven(tokens))
	}
	return names
}

func looksInverted(first, second []string) bool {
	if len(first) == 1 {
		return true
	}
	if _, ok := surnameParticles[first[0]]; ok {
		return true
	}
	return allInitials(second)
}

// splitGiven reads tokens in "given surname" order. Particles immediately
// before the last token belong to the surname.
func splitGiven(tokens []string) personName {
	if len(tokens) == 1 {
		return personName{surname: tokens}
	}
	start := len(tokens) - 1
	for start > 1 {
		if _, ok := surnameParticles[tokens[start-1]]; !ok {
			break
		}
		start--
	}
	return personName{surname: tokens[start:], given: tokens[:start]}
}

// nameTokens splits a name into folded tokens. Periods separate initials, so
// "J.R.R." yields three tokens. Suffixes such as "Jr." are dropped.
func nameTokens(text string) []string {
	text = strings.ReplaceAll(text, ".", ". ")
	raw := strings.Fields(stripPunctuation(text))
	tokens := raw[:0]
	for _, token := range raw {
		if _, ok := nameSuffixes[token]; ok {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func isRoleOnly(tokens []string) bool {
	for _, token := range tokens {
		if _, ok := roleWords[token]; !ok {
			return false
		}
	}
	return true
}

func allInitials(tokens []string) bool {
	for _, token := range tokens {
		if len([]rune(token)) != 1 {
			return false
		}
	}
	return len(tokens) > 0
}

func canonicalName(name personName) string {
	surname := strings.Join(name.surname, " ")
	given := strings.Join(collapseInitials(name.given), " ")
	switch {
	case surname == "":
		return given
	case given == "":
		return surname
	default:
		return surname + ", " + given
	}
}

// collapseInitials merges runs of single-letter tokens: j r r -> jrr.
func collapseInitials(tokens []string) []string {
	var out []string
	run := ""
	flush := func() {
		if run != "" {
			out = append(out, run)
			run = ""
		}
	}
	for _, token := range tokens {
		if len([]rune(token)) == 1 {
			run += token
			continue
		}
		flush()
		out = append(out, token)
	}
	flush()
	return out
}
