package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/search"
)

// RSSName identifies the provider inside the registry.
const RSSName = "rss"

// RSS scans a fixed list of feeds and keeps the items that mention the query.
type RSS struct {
	feeds  []string
	client *http.Client
	logger *slog.Logger
}

var _ search.Provider = (*RSS)(nil)

// NewRSS wires the feed list; timeout defaults to 30s.
func NewRSS(feeds []string, timeout time.Duration, logger *slog.Logger) *RSS {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RSS{
		feeds:  feeds,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (r *RSS) Name() string {
	return RSSName
}

// Available reports whether any feed is configured.
func (r *RSS) Available() bool {
	return len(r.feeds) > 0
}

// Search fetches every feed and filters items by the query's phrases. A broken
// feed is logged and skipped.
func (r *RSS) Search(ctx context.Context, q search.Query) ([]domain.RawCandidate, error) {
	required, anyOf := queryTerms(q.Text)
	if len(required) == 0 && len(anyOf) == 0 {
		return nil, nil
	}

	var out []domain.RawCandidate
	for _, feedURL := range r.feeds {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		feed, err := r.fetch(ctx, feedURL)
		if err != nil {
			r.warn("rss feed skipped", "feed", feedURL, "err", err)
			continue
		}

		for _, item := range feed.Items {
			if item == nil || item.Link == "" {
				continue
			}
			if !q.Since.IsZero() && item.PublishedParsed != nil && item.PublishedParsed.Before(q.Since) {
				continue
			}
			haystack := strings.ToLower(item.Title + "\n" + item.Description)
			if !containsAll(haystack, required) || (len(anyOf) > 0 && !containsAny(haystack, anyOf)) {
				continue
			}
			out = append(out, convertItem(item, feed, q))
			if q.MaxResults > 0 && len(out) >= q.MaxResults {
				return out, nil
			}
		}
	}
	return out, nil
}

func (r *RSS) fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "MentionMonitor/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func convertItem(item *gofeed.Item, feed *gofeed.Feed, q search.Query) domain.RawCandidate {
	c := domain.RawCandidate{
		URL:      item.Link,
		Title:    strings.TrimSpace(item.Title),
		Snippet:  strings.TrimSpace(item.Description),
		Source:   feed.Title,
		Provider: RSSName,
		Language: q.Language,
	}
	switch {
	case item.PublishedParsed != nil:
		c.PublishedAt = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		c.PublishedAt = item.UpdatedParsed.UTC()
	default:
		c.PublishedRaw = item.Published
	}
	return c
}

// queryTerms splits a built search query into phrases the item must contain
// and an OR group of which at least one must appear.
func queryTerms(query string) (required, anyOf []string) {
	head, group, hasGroup := strings.Cut(query, " AND ")
	if p := phrase(head); p != "" {
		required = append(required, p)
	}
	if hasGroup {
		group = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(group), "("), ")")
		for _, part := range strings.Split(group, " OR ") {
			if p := phrase(part); p != "" {
				anyOf = append(anyOf, p)
			}
		}
	}
	return required, anyOf
}

func phrase(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`)))
}

func containsAll(text string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

func (r *RSS) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
