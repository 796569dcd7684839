package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateRegionWeightsAreNotCumulative(t *testing.T) {
	t.Parallel()

	w := DefaultWeights()
	titleOnly := Aggregate(RegionHits{Title: true}, ContextSignals{}, w)
	titleAndBody := Aggregate(RegionHits{Title: true, Snippet: true, Body: true}, ContextSignals{}, w)

	assert.Equal(t, 0.5, titleOnly.Confidence)
	assert.Equal(t, titleOnly.Confidence, titleAndBody.Confidence)
}

func TestAggregateRegionPriority(t *testing.T) {
	t.Parallel()

	w := DefaultWeights()
	cases := []struct {
		name string
		hits RegionHits
		want float64
	}{
		{"title", RegionHits{Title: true}, 0.5},
		{"snippet", RegionHits{Snippet: true, Body: true}, 0.3},
		{"body only", RegionHits{Body: true}, 0.2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Aggregate(tc.hits, ContextSignals{}, w)
			assert.True(t, got.Matched)
			assert.Equal(t, tc.want, got.Confidence)
		})
	}
}

func TestAggregateContextCap(t *testing.T) {
	t.Parallel()

	sig := ContextSignals{Terms: []string{"a", "b", "c", "d", "e"}}
	got := Aggregate(RegionHits{Body: true}, sig, DefaultWeights())

	assert.Equal(t, 0.5, got.Confidence)
}

func TestAggregateLocationSignals(t *testing.T) {
	t.Parallel()

	sig := ContextSignals{Terms: []string{"a"}, RegionAgrees: true, LocalityAgrees: true}
	got := Aggregate(RegionHits{Snippet: true}, sig, DefaultWeights())

	assert.Equal(t, 0.55, got.Confidence)
}

func TestAggregateContextAloneNeverMatches(t *testing.T) {
	t.Parallel()

	sig := ContextSignals{Terms: []string{"a", "b", "c"}, RegionAgrees: true, LocalityAgrees: true}
	got := Aggregate(RegionHits{}, sig, DefaultWeights())

	assert.False(t, got.Matched)
	assert.False(t, got.Vetoed)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestAggregateVetoShortCircuits(t *testing.T) {
	t.Parallel()

	sig := ContextSignals{Terms: []string{"a", "b"}, Negative: true, RegionAgrees: true}
	got := Aggregate(RegionHits{Title: true, Body: true}, sig, DefaultWeights())

	assert.False(t, got.Matched)
	assert.True(t, got.Vetoed)
	assert.Equal(t, 0.0, got.Confidence)
}

func TestAggregateClampsToOne(t *testing.T) {
	t.Parallel()

	w := DefaultWeights()
	w.Title = 0.9
	sig := ContextSignals{Terms: []string{"a", "b", "c"}, RegionAgrees: true, LocalityAgrees: true}
	got := Aggregate(RegionHits{Title: true}, sig, w)

	assert.Equal(t, 1.0, got.Confidence)
}
