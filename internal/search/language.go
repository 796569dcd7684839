package search

import (
	"unicode"

	"golang.org/x/text/language"
)

// scriptLanguages maps a writing system to the language its news text is
// most likely in. The first script with a letter in the sample wins.
var scriptLanguages = []struct {
	script *unicode.RangeTable
	tag    language.Tag
}{
	{unicode.Devanagari, language.Hindi},
	{unicode.Tamil, language.Tamil},
	{unicode.Telugu, language.Telugu},
}

const detectSample = 1000

// DetectLanguage guesses the base language of text from its script. Short or
// Latin-only text yields fallback.
func DetectLanguage(text, fallback string) string {
	runes := []rune(text)
	if len(runes) > detectSample {
		runes = runes[:detectSample]
	}
	letters := 0
	for _, r := range runes {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 10 {
		return fallback
	}

	for _, sl := range scriptLanguages {
		for _, r := range runes {
			if unicode.Is(sl.script, r) {
				base, _ := sl.tag.Base()
				return base.String()
			}
		}
	}
	return fallback
}
