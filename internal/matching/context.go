package matching

import (
	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/names"
)

// ContextSignals is what the scorer found besides the name itself.
type ContextSignals struct {
	// Terms holds the distinct context terms present in the text.
	Terms          []string
	Negative       bool
	NegativeTerm   string
	RegionAgrees   bool
	LocalityAgrees bool
}

// Scorer counts context and negative terms in a candidate's full text and
// compares its location tags with the entity's location hint.
type Scorer struct {
	matcher  Matcher
	profile  names.Profile
	context  Terms
	negative Terms
	location domain.Location
}

// NewScorer pre-compiles the entity's term sets.
func NewScorer(e domain.MonitoredEntity, p names.Profile) *Scorer {
	m := NewMatcher(p.FoldAccents)
	return &Scorer{
		matcher:  m,
		profile:  p,
		context:  m.Compile(e.ContextTerms),
		negative: m.Compile(e.NegativeTerms),
		location: e.Location,
	}
}

// Score runs independently of name matching.
func (s *Scorer) Score(c domain.NormalizedCandidate) ContextSignals {
	text := s.matcher.norm.Normalize(c.FullText())

	var sig ContextSignals
	if hits := matchedTerms(s.negative, text); len(hits) > 0 {
		sig.Negative = true
		sig.NegativeTerm = hits[0]
	}
	sig.Terms = matchedTerms(s.context, text)
	sig.RegionAgrees = s.sameRegion(s.location.Region, c.Raw.Region)
	sig.LocalityAgrees = s.samePlace(s.location.Locality, c.Raw.Locality)
	return sig
}

func (s *Scorer) sameRegion(hint, tag string) bool {
	return s.samePlace(s.profile.CanonicalRegion(hint), s.profile.CanonicalRegion(tag))
}

func (s *Scorer) samePlace(hint, tag string) bool {
	h := s.matcher.norm.Normalize(hint)
	return h != "" && h == s.matcher.norm.Normalize(tag)
}
