package domain

import "time"

// RawCandidate is one article record as returned by a search provider.
type RawCandidate struct {
	URL          string
	CanonicalURL string
	Title        string
	Snippet      string
	Body         string
	// PublishedAt is zero when the provider gave no timestamp.
	PublishedAt time.Time
	// PublishedRaw keeps the provider's timestamp text when it could not be parsed upstream.
	PublishedRaw string
	Source       string
	Provider     string
	Language     string
	Region       string
	Locality     string
	// TrustScore is 0-100, nil when unknown.
	TrustScore *int
}

// KeyKind names one of the four independent dedup keys.
type KeyKind string

const (
	KeyURL          KeyKind = "url"
	KeyCanonicalURL KeyKind = "canonical_url"
	KeyContentHash  KeyKind = "content_hash"
	KeyTitleSource  KeyKind = "title_source_day"
)

// DedupKey is a single identifier used to detect repeats.
type DedupKey struct {
	Kind  KeyKind
	Value string
}

// NormalizedCandidate is a RawCandidate after canonicalization.
type NormalizedCandidate struct {
	Raw          RawCandidate
	ID           string
	CanonicalURL string
	ContentHash  string
	Keys         []DedupKey
}

// FullText joins title, snippet and body for context and classification scans.
func (c NormalizedCandidate) FullText() string {
	text := c.Raw.Title
	if c.Raw.Snippet != "" {
		text += "\n" + c.Raw.Snippet
	}
	if c.Raw.Body != "" {
		text += "\n" + c.Raw.Body
	}
	return text
}

// HistoryRecord is a previously accepted candidate loaded from persistence to
// rebuild the dedup window.
type HistoryRecord struct {
	URL          string
	CanonicalURL string
	ContentHash  string
	Title        string
	Source       string
	PublishedAt  time.Time
	SeenAt       time.Time
}
