// Package fetcher downloads article pages and extracts their readable text.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"MentionMonitor/internal/ports"
)

const (
	defaultUserAgent = "MentionMonitor/1.0"
	defaultMaxBytes  = 2 << 20
	// Pages yielding less text than this fall through to the next extraction rule.
	minTextLength = 200
)

// boilerplate is removed before text extraction.
const boilerplate = "script, style, noscript, nav, header, footer, aside, form, iframe, svg"

// HTTPFetcher implements ports.ContentFetcher over plain HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	logger    *slog.Logger
}

var _ ports.ContentFetcher = (*HTTPFetcher)(nil)

// Options configures the fetcher. Zero values fall back to defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	Client    *http.Client
	Logger    *slog.Logger
}

// New wires an HTTP client; the timeout defaults to 20s.
func New(opts Options) *HTTPFetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &HTTPFetcher{client: client, userAgent: ua, maxBytes: maxBytes, logger: opts.Logger}
}

// Fetch returns the article text of the page at pageURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", fmt.Errorf("%s is not html: %s", pageURL, ct)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	text := Extract(doc)
	if f.logger != nil {
		f.logger.Debug("article fetched", "url", pageURL, "chars", len(text))
	}
	return text, nil
}

// Extract prefers an <article> element, then the page's paragraphs, then the
// whole body.
func Extract(doc *goquery.Document) string {
	doc.Find(boilerplate).Remove()

	if article := doc.Find("article").First(); article.Length() > 0 {
		if text := paragraphs(article); len(text) >= minTextLength {
			return text
		}
		if text := collapse(article.Text()); len(text) >= minTextLength {
			return text
		}
	}
	if text := paragraphs(doc.Selection); len(text) >= minTextLength {
		return text
	}
	return collapse(doc.Find("body").Text())
}

func paragraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := collapse(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
