package canonical

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MentionMonitor/internal/domain"
)

func TestURLIgnoresTrackingAndOrder(t *testing.T) {
	t.Parallel()

	variants := []string{
		"https://News.Example.com/story/42?b=2&a=1",
		"https://news.example.com/story/42/?a=1&b=2&utm_source=x&utm_medium=email",
		"HTTPS://news.example.com:443/story/42?fbclid=abc&a=1&gclid=z&b=2",
		"https://news.example.com/story/42?a=1&b=2#comments",
	}

	want := URL(variants[0])
	assert.Equal(t, "https://news.example.com/story/42?a=1&b=2", want)
	for _, v := range variants[1:] {
		assert.Equal(t, want, URL(v), "variant %s", v)
	}
}

func TestURLKeepsNonDefaultPort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://example.com:8080/a", URL("http://Example.com:8080/a/"))
	assert.Equal(t, "http://example.com/a", URL("http://example.com:80/a"))
}

func TestURLFallsBackOnUnparseable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "not a url", URL("  not a url "))
	assert.Equal(t, "%zz://bad", URL("%zz://bad"))
	assert.Equal(t, "", URL(""))
}

func TestURLKeepsPathAndQueryCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://youtu.be/AbCdEf", URL("HTTPS://YouTu.be/AbCdEf"))
	assert.NotEqual(t, URL("https://youtu.be/AbCdEf"), URL("https://youtu.be/abcdef"))
	assert.Equal(t, "https://example.com/s?Q=Doe", URL("https://Example.com/s?Q=Doe"))
}

func TestURLKeepsUndecodableQueryVerbatim(t *testing.T) {
	t.Parallel()

	c := URL("https://x.com/story?id=1&bad=%zz")
	d := URL("https://x.com/story?id=1&bad=%yy")
	assert.Equal(t, "https://x.com/story?id=1&bad=%zz", c)
	assert.NotEqual(t, c, d)
}

func TestKeysAreCaseSensitiveOnPath(t *testing.T) {
	t.Parallel()

	a := Normalize(domain.RawCandidate{URL: "https://youtu.be/AbCdEf", Title: "First clip"})
	b := Normalize(domain.RawCandidate{URL: "https://youtu.be/abcdef", Title: "Second clip"})

	seen := map[domain.DedupKey]bool{}
	for _, k := range a.Keys {
		seen[k] = true
	}
	for _, k := range b.Keys {
		assert.False(t, seen[k], "shared key %+v", k)
	}
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNormalizeAddsSourceCanonicalAlias(t *testing.T) {
	t.Parallel()

	nc := Normalize(domain.RawCandidate{
		URL:          "https://m.example.com/Story/7",
		CanonicalURL: "https://Example.com/Story/7",
		Title:        "Story",
	})
	var canon []string
	for _, k := range nc.Keys {
		if k.Kind == domain.KeyCanonicalURL {
			canon = append(canon, k.Value)
		}
	}
	assert.Equal(t, []string{"https://m.example.com/Story/7", "https://example.com/Story/7"}, canon)
}

func TestContentHashWhitespaceStable(t *testing.T) {
	t.Parallel()

	a := ContentHash("John Doe joined   the\tboard.\n")
	b := ContentHash("  John Doe joined the board.")
	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, ContentHash("John Doe left the board."))
	assert.Empty(t, ContentHash(" \n\t "))
}

func TestNormalizeWithoutBody(t *testing.T) {
	t.Parallel()

	published := time.Date(2025, time.March, 3, 15, 4, 5, 0, time.UTC)
	nc := Normalize(domain.RawCandidate{
		URL:         "https://example.com/a?utm_campaign=x",
		Title:       "Board Changes",
		Source:      "Example Daily",
		PublishedAt: published,
	})

	assert.Equal(t, "https://example.com/a", nc.CanonicalURL)
	assert.Empty(t, nc.ContentHash)
	assert.NotEmpty(t, nc.ID)

	kinds := map[domain.KeyKind]string{}
	for _, k := range nc.Keys {
		kinds[k.Kind] = k.Value
	}
	assert.Contains(t, kinds, domain.KeyURL)
	assert.Contains(t, kinds, domain.KeyCanonicalURL)
	assert.NotContains(t, kinds, domain.KeyContentHash)
	assert.Equal(t, "board changes|example daily|2025-03-03", kinds[domain.KeyTitleSource])
}

func TestNormalizeWithoutURLUsesComputableKeys(t *testing.T) {
	t.Parallel()

	nc := Normalize(domain.RawCandidate{Title: "Untitled", Body: "some body text"})

	require.Len(t, nc.Keys, 1)
	assert.Equal(t, domain.KeyContentHash, nc.Keys[0].Kind)
	assert.NotEmpty(t, nc.ID)
}

func TestCandidateIDDeterministic(t *testing.T) {
	t.Parallel()

	a := Normalize(domain.RawCandidate{URL: "https://example.com/x?utm_source=a"})
	b := Normalize(domain.RawCandidate{URL: "https://EXAMPLE.com/x/"})
	assert.Equal(t, a.ID, b.ID)
}

func TestParsePublished(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"2025-01-08T10:15:00Z":            true,
		"20250108T101500Z":                true,
		"Wed, 08 Jan 2025 10:15:00 +0000": true,
		"8 Nov 2025":                      true,
		"yesterday-ish":                   false,
	}
	for input, ok := range cases {
		_, got := ParsePublished(input)
		assert.Equal(t, ok, got, input)
	}
}
