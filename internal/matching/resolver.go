package matching

import (
	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/names"
)

// Resolution is a MatchResult plus the signals that produced it.
type Resolution struct {
	Result  domain.MatchResult
	Hits    RegionHits
	Signals ContextSignals
}

// Resolver matches candidates against one entity. It is safe for concurrent use.
type Resolver struct {
	matcher Matcher
	forms   Terms
	scorer  *Scorer
	weights Weights
}

// NewResolver expands the entity's surface forms once for the whole batch.
func NewResolver(e domain.MonitoredEntity, p names.Profile, w Weights) *Resolver {
	m := NewMatcher(p.FoldAccents)
	return &Resolver{
		matcher: m,
		forms:   m.Compile(names.Variants(e, p)),
		scorer:  NewScorer(e, p),
		weights: w,
	}
}

// Forms returns the number of distinct surface forms searched for.
func (r *Resolver) Forms() int {
	return r.forms.Len()
}

func (r *Resolver) Resolve(c domain.NormalizedCandidate) Resolution {
	hits := r.matcher.MatchRegions(r.forms, c)
	sig := r.scorer.Score(c)
	return Resolution{
		Result:  Aggregate(hits, sig, r.weights),
		Hits:    hits,
		Signals: sig,
	}
}
