// Package normalize implements the Text Normalizer: diacritic folding,
// lowercasing, whitespace collapse, and tokenization used anywhere
// case/accent-insensitive comparison is required (query matching,
// suggestion lookup, chunk searchable_text).
package normalize

import (
	"strings"
	"unicode"
)

// diacriticFold maps accented Latin runes to their ASCII base letter.
// No standard-library package performs Unicode decomposition (that lives in
// golang.org/x/text/unicode/norm, which no repo in the retrieval pack
// imports), so folding is a direct rune table covering the Latin-1
// Supplement and Latin Extended-A blocks actually seen in vendor names and
// filenames (á→a, ř→r, ü→u, etc).
var diacriticFold = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a', 'ā': 'a', 'ą': 'a',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e', 'ē': 'e', 'ė': 'e', 'ę': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i', 'ī': 'i', 'į': 'i',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o', 'ō': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u', 'ū': 'u', 'ů': 'u',
	'ý': 'y', 'ÿ': 'y',
	'ñ': 'n', 'ń': 'n',
	'ç': 'c', 'ć': 'c', 'č': 'c',
	'š': 's', 'ś': 's', 'ș': 's',
	'ž': 'z', 'ź': 'z', 'ż': 'z',
	'ř': 'r', 'ť': 't', 'ď': 'd', 'ě': 'e', 'ľ': 'l', 'ĺ': 'l',
	'ß': 's',
}

func foldDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if folded, ok := diacriticFold[unicode.ToLower(r)]; ok {
			if unicode.IsUpper(r) {
				b.WriteRune(unicode.ToUpper(folded))
			} else {
				b.WriteRune(folded)
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Text folds diacritics to ASCII equivalents, lowercases, collapses runs of
// whitespace to a single space, and trims. It is idempotent and
// deterministic: Text(Text(s)) == Text(s) for all s.
func Text(s string) string {
	folded := strings.ToLower(foldDiacritics(s))
	return collapseWhitespace(folded)
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits text on whitespace and punctuation boundaries, dropping
// empty tokens. Tokens preserve original casing and accents; callers
// wanting normalized tokens should call Text first.
func Tokenize(text string) []string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ContainsPhrase reports whether needle appears in haystack as a
// standalone word or phrase — bounded by string edges, spaces, or
// hyphens — rather than as a substring of a larger word. A multi-word
// needle also matches its hyphenated form ("google cloud" matches
// "google-cloud"). Both strings are expected to be already normalized;
// it backs vendor detection at ingestion and category entity matching at
// query time so the two sides agree on what counts as a match.
func ContainsPhrase(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	hyphenated := strings.ReplaceAll(needle, " ", "-")
	for _, candidate := range []string{needle, hyphenated} {
		if wordBoundaryContains(haystack, candidate) {
			return true
		}
	}
	return false
}

func wordBoundaryContains(haystack, needle string) bool {
	for start := 0; start <= len(haystack)-len(needle); {
		rel := strings.Index(haystack[start:], needle)
		if rel == -1 {
			return false
		}
		idx := start + rel
		before := idx == 0 || isBoundary(rune(haystack[idx-1]))
		after := idx+len(needle) == len(haystack) || isBoundary(rune(haystack[idx+len(needle)]))
		if before && after {
			return true
		}
		start = idx + 1
	}
	return false
}

func isBoundary(r rune) bool {
	return r == ' ' || r == '-'
}

// Join space-joins non-empty parts, the ⊕ operator from the chunk
// searchable_text composition.
func Join(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
