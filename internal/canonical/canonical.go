// Package canonical turns raw candidates into stable dedup keys.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"MentionMonitor/internal/domain"
)

// trackingParams are stripped from query strings. Keys ending in "_" are prefixes.
var trackingParams = []string{
	"utm_",
	"fbclid",
	"gclid",
	"gclsrc",
	"dclid",
	"msclkid",
	"mc_cid",
	"mc_eid",
	"igshid",
	"yclid",
	"_hsenc",
	"_hsmi",
	"mkt_tok",
}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// candidateNamespace scopes candidate ids derived from dedup material.
var candidateNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("mentionmonitor/candidate"))

// URL canonicalizes a URL. Only scheme and host are case-folded; path and
// query are case-sensitive. Parse failures, including an undecodable query,
// fall back to the trimmed input.
func URL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return raw
	}
	// Query() would silently drop pairs it cannot decode.
	values, err := url.ParseQuery(parsed.RawQuery)
	if err != nil {
		return raw
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Hostname())
	if port := parsed.Port(); port != "" && defaultPorts[scheme] != port {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	parsed.Scheme = scheme
	parsed.Host = host
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawPath = ""
	parsed.RawQuery = cleanQuery(values)

	return parsed.String()
}

func cleanQuery(values url.Values) string {
	for key := range values {
		if isTracking(key) {
			values.Del(key)
		}
	}
	if len(values) == 0 {
		return ""
	}
	for key := range values {
		sort.Strings(values[key])
	}
	// Encode orders keys lexicographically.
	return values.Encode()
}

func isTracking(key string) bool {
	key = strings.ToLower(key)
	for _, p := range trackingParams {
		if strings.HasSuffix(p, "_") && strings.HasPrefix(key, p) {
			return true
		}
		if key == p {
			return true
		}
	}
	return false
}

// ContentHash returns the hex SHA-256 of whitespace-normalized body text,
// or "" when the body is empty.
func ContentHash(body string) string {
	normalized := strings.Join(strings.Fields(body), " ")
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Normalize computes the canonical URL, content hash, dedup keys and id.
// It never fails; missing pieces only reduce the set of keys.
func Normalize(raw domain.RawCandidate) domain.NormalizedCandidate {
	canonicalURL := URL(raw.URL)
	if canonicalURL == "" && raw.CanonicalURL != "" {
		canonicalURL = URL(raw.CanonicalURL)
	}

	nc := domain.NormalizedCandidate{
		Raw:          raw,
		CanonicalURL: canonicalURL,
		ContentHash:  ContentHash(raw.Body),
	}
	nc.Keys = Keys(domain.HistoryRecord{
		URL:          raw.URL,
		CanonicalURL: nc.CanonicalURL,
		ContentHash:  nc.ContentHash,
		Title:        raw.Title,
		Source:       raw.Source,
		PublishedAt:  raw.PublishedAt,
	})
	// A source-given canonical URL that differs from ours is one more alias of the same article.
	if given := URL(raw.CanonicalURL); given != "" && given != nc.CanonicalURL {
		nc.Keys = append(nc.Keys, domain.DedupKey{Kind: domain.KeyCanonicalURL, Value: given})
	}
	nc.ID = CandidateID(nc)
	return nc
}

// Keys derives the dedup keys from whatever fields are present. URL keys are
// case-sensitive: URL already folded whatever may be folded.
func Keys(rec domain.HistoryRecord) []domain.DedupKey {
	keys := make([]domain.DedupKey, 0, 4)
	if u := strings.TrimSpace(rec.URL); u != "" {
		keys = append(keys, domain.DedupKey{Kind: domain.KeyURL, Value: u})
	}
	if c := strings.TrimSpace(rec.CanonicalURL); c != "" {
		keys = append(keys, domain.DedupKey{Kind: domain.KeyCanonicalURL, Value: c})
	}
	if rec.ContentHash != "" {
		keys = append(keys, domain.DedupKey{Kind: domain.KeyContentHash, Value: rec.ContentHash})
	}
	if k, ok := titleSourceDay(rec.Title, rec.Source, rec.PublishedAt); ok {
		keys = append(keys, domain.DedupKey{Kind: domain.KeyTitleSource, Value: k})
	}
	return keys
}

func titleSourceDay(title, source string, published time.Time) (string, bool) {
	title = strings.ToLower(strings.Join(strings.Fields(title), " "))
	source = strings.ToLower(strings.TrimSpace(source))
	if title == "" || source == "" || published.IsZero() {
		return "", false
	}
	return title + "|" + source + "|" + published.UTC().Format("2006-01-02"), true
}

// CandidateID is stable for the same article material.
func CandidateID(nc domain.NormalizedCandidate) string {
	material := nc.CanonicalURL
	if material == "" {
		material = nc.ContentHash
	}
	if material == "" {
		material = strings.ToLower(nc.Raw.Title) + "|" + strings.ToLower(nc.Raw.Source)
	}
	return uuid.NewSHA1(candidateNamespace, []byte(material)).String()
}

var publishedLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"20060102T150405Z",
	"20060102150405",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2 Jan 2006",
}

// ParsePublished parses the timestamp formats providers are known to emit.
func ParsePublished(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
