package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = strings.NewReplacer(
	"‘", "'", "’", "'", "“", `"`, "”", `"`,
	"‐", "-", "‑", "-", "–", "-", "—", "-",
)

// Normalizer folds text so that surface forms compare case-insensitively.
// Casers and transformers are stateful, so each call builds its own.
type Normalizer struct {
	FoldAccents bool
}

// Normalize applies NFKC, optional accent folding, Unicode case folding and
// whitespace collapsing.
func (n Normalizer) Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = punctuation.Replace(s)
	if n.FoldAccents {
		t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if folded, _, err := transform.String(t, s); err == nil {
			s = folded
		}
	}
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// indexWord finds the first occurrence of form in text aligned on word boundaries.
// Both arguments must already be normalized.
func indexWord(text, form string) int {
	if form == "" {
		return -1
	}
	for start := 0; start <= len(text)-len(form); {
		i := strings.Index(text[start:], form)
		if i < 0 {
			return -1
		}
		i += start
		if boundaryBefore(text, i, form) && boundaryAfter(text, i+len(form), form) {
			return i
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		start = i + size
	}
	return -1
}

func boundaryBefore(text string, i int, form string) bool {
	if i == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:i])
	first, _ := utf8.DecodeRuneInString(form)
	return !(isWordRune(prev) && isWordRune(first))
}

func boundaryAfter(text string, end int, form string) bool {
	if end >= len(text) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(text[end:])
	last, _ := utf8.DecodeLastRuneInString(form)
	return !(isWordRune(next) && isWordRune(last))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}
