package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Text is a region prepared for keyword lookups in both folded and exact form.
type Text struct {
	folded string
	exact  string
}

// NewText prepares s once so many keyword sets can scan it.
func NewText(s string) Text {
	exact := strings.Join(strings.Fields(punctuation.Replace(norm.NFKC.String(s))), " ")
	return Text{
		folded: Normalizer{}.Normalize(s),
		exact:  exact,
	}
}

// KeywordSet matches keywords on word boundaries. All-caps acronyms such as
// "ED" or "CBI" match case-sensitively so they do not fire on ordinary words.
type KeywordSet struct {
	folded Terms
	exact  Terms
}

// NewKeywordSet splits keywords into acronyms and ordinary terms.
func NewKeywordSet(keywords []string) KeywordSet {
	var acronyms, words []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if isAcronym(kw) {
			acronyms = append(acronyms, kw)
		} else {
			words = append(words, kw)
		}
	}

	var exact Terms
	seen := map[string]struct{}{}
	for _, a := range acronyms {
		n := strings.Join(strings.Fields(norm.NFKC.String(a)), " ")
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		exact.raw = append(exact.raw, a)
		exact.normalized = append(exact.normalized, n)
	}
	return KeywordSet{
		folded: Matcher{}.Compile(words),
		exact:  exact,
	}
}

// Len returns the number of distinct keywords.
func (k KeywordSet) Len() int {
	return k.folded.Len() + k.exact.Len()
}

// Find returns the keywords present in t, acronyms first.
func (k KeywordSet) Find(t Text) []string {
	hits := matchedTerms(k.exact, t.exact)
	return append(hits, matchedTerms(k.folded, t.folded)...)
}

// Any reports whether at least one keyword is present.
func (k KeywordSet) Any(t Text) bool {
	for _, n := range k.exact.normalized {
		if indexWord(t.exact, n) >= 0 {
			return true
		}
	}
	for _, n := range k.folded.normalized {
		if indexWord(t.folded, n) >= 0 {
			return true
		}
	}
	return false
}

// isAcronym is true for tokens with at least two letters, all upper case.
func isAcronym(s string) bool {
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsUpper(r):
			letters++
		case unicode.IsLetter(r):
			return false
		}
	}
	return letters >= 2
}
