// Package matching resolves a candidate against a monitored entity: surface-form
// hits per text region, context/negative terms, location agreement and the
// aggregated confidence.
package matching

import (
	"MentionMonitor/internal/domain"
)

// Matcher locates surface forms in candidate text regions.
type Matcher struct {
	norm Normalizer
}

// NewMatcher builds a matcher; foldAccents comes from the locale profile.
func NewMatcher(foldAccents bool) Matcher {
	return Matcher{norm: Normalizer{FoldAccents: foldAccents}}
}

// Find reports whether form occurs in the given region of the candidate and
// returns the matched span of the normalized region text.
func (m Matcher) Find(form string, region domain.Region, c domain.NormalizedCandidate) (string, bool) {
	nf := m.norm.Normalize(form)
	text := m.norm.Normalize(regionText(region, c))
	i := indexWord(text, nf)
	if i < 0 {
		return "", false
	}
	return text[i : i+len(nf)], true
}

// Terms is a pre-normalized, de-duplicated term list.
type Terms struct {
	raw        []string
	normalized []string
}

// Compile normalizes terms once so they can be matched against many candidates.
func (m Matcher) Compile(terms []string) Terms {
	var t Terms
	seen := map[string]struct{}{}
	for _, term := range terms {
		n := m.norm.Normalize(term)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		t.raw = append(t.raw, term)
		t.normalized = append(t.normalized, n)
	}
	return t
}

// Len returns the number of distinct terms.
func (t Terms) Len() int {
	return len(t.normalized)
}

// RegionHits reports, per region, whether at least one surface form matched.
type RegionHits struct {
	Title   bool
	Snippet bool
	Body    bool
	Forms   []domain.MatchedForm
}

// Any is true when some region matched.
func (h RegionHits) Any() bool {
	return h.Title || h.Snippet || h.Body
}

// Strongest returns the highest-priority region hit (title > snippet > body).
func (h RegionHits) Strongest() (domain.Region, bool) {
	switch {
	case h.Title:
		return domain.RegionTitle, true
	case h.Snippet:
		return domain.RegionSnippet, true
	case h.Body:
		return domain.RegionBody, true
	}
	return "", false
}

// MatchRegions checks every form against title, snippet and body.
func (m Matcher) MatchRegions(forms Terms, c domain.NormalizedCandidate) RegionHits {
	var hits RegionHits
	for _, region := range []domain.Region{domain.RegionTitle, domain.RegionSnippet, domain.RegionBody} {
		text := m.norm.Normalize(regionText(region, c))
		if text == "" {
			continue
		}
		for i, nf := range forms.normalized {
			at := indexWord(text, nf)
			if at < 0 {
				continue
			}
			hits.Forms = append(hits.Forms, domain.MatchedForm{
				Form:   forms.raw[i],
				Region: region,
				Span:   text[at : at+len(nf)],
			})
			switch region {
			case domain.RegionTitle:
				hits.Title = true
			case domain.RegionSnippet:
				hits.Snippet = true
			case domain.RegionBody:
				hits.Body = true
			}
		}
	}
	return hits
}

// matchedTerms returns the raw terms present in already-normalized text.
func matchedTerms(terms Terms, normalizedText string) []string {
	var out []string
	for i, nt := range terms.normalized {
		if indexWord(normalizedText, nt) >= 0 {
			out = append(out, terms.raw[i])
		}
	}
	return out
}

func regionText(region domain.Region, c domain.NormalizedCandidate) string {
	switch region {
	case domain.RegionTitle:
		return c.Raw.Title
	case domain.RegionSnippet:
		return c.Raw.Snippet
	case domain.RegionBody:
		return c.Raw.Body
	}
	return ""
}
