package matching

import (
	"math"

	"MentionMonitor/internal/domain"
)

// Weights are the additive confidence weights.
type Weights struct {
	Title       float64 `yaml:"title"`
	Snippet     float64 `yaml:"snippet"`
	Body        float64 `yaml:"body"`
	ContextTerm float64 `yaml:"contextTerm"`
	ContextCap  float64 `yaml:"contextCap"`
	Region      float64 `yaml:"region"`
	Locality    float64 `yaml:"locality"`
}

// DefaultWeights returns the standard weight table.
func DefaultWeights() Weights {
	return Weights{
		Title:       0.5,
		Snippet:     0.3,
		Body:        0.2,
		ContextTerm: 0.1,
		ContextCap:  0.3,
		Region:      0.1,
		Locality:    0.05,
	}
}

// Aggregate combines region hits and context signals into one MatchResult.
// A negative term vetoes everything; without a name hit there is no match.
func Aggregate(hits RegionHits, sig ContextSignals, w Weights) domain.MatchResult {
	if sig.Negative {
		return domain.MatchResult{Matched: false, Forms: hits.Forms, Confidence: 0, Vetoed: true}
	}
	region, ok := hits.Strongest()
	if !ok {
		return domain.MatchResult{Matched: false}
	}

	var score float64
	switch region {
	case domain.RegionTitle:
		score = w.Title
	case domain.RegionSnippet:
		score = w.Snippet
	case domain.RegionBody:
		score = w.Body
	}

	// Integer term count, capped after multiplication.
	score += math.Min(float64(len(sig.Terms))*w.ContextTerm, w.ContextCap)
	if sig.RegionAgrees {
		score += w.Region
	}
	if sig.LocalityAgrees {
		score += w.Locality
	}

	return domain.MatchResult{
		Matched:    true,
		Forms:      hits.Forms,
		Confidence: clamp(round6(score)),
	}
}

// round6 removes float noise so 0.5+0.2+0.1 compares equal to 0.8.
func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
