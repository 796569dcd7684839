// Package provider holds the search.Provider implementations.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"MentionMonitor/internal/canonical"
	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/search"
)

const (
	// GDELTName identifies the provider inside the registry.
	GDELTName = "gdelt"

	defaultGDELTEndpoint = "https://api.gdeltproject.org/api/v2/doc/doc"
	gdeltTimeLayout      = "20060102150405"
	gdeltMaxRecords      = 250
)

// GDELT queries the GDELT 2.1 DOC API in article-list mode. No API key is needed.
type GDELT struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

var _ search.Provider = (*GDELT)(nil)

// GDELTOptions configures the adapter. Zero values fall back to defaults.
type GDELTOptions struct {
	Endpoint          string
	RequestsPerMinute float64
	Timeout           time.Duration
	Client            *http.Client
	Logger            *slog.Logger
}

// NewGDELT wires an HTTP client and a request limiter.
func NewGDELT(opts GDELTOptions) *GDELT {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultGDELTEndpoint
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(opts.RequestsPerMinute / 60)
	}
	return &GDELT{
		endpoint: endpoint,
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   opts.Logger,
		now:      time.Now,
	}
}

func (g *GDELT) Name() string {
	return GDELTName
}

func (g *GDELT) Available() bool {
	return g.endpoint != ""
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	SeenDate      string `json:"seendate"`
	Domain        string `json:"domain"`
	Language      string `json:"language"`
	SourceCountry string `json:"sourcecountry"`
}

// Search runs one query. Records without a URL are dropped; an unparseable
// seendate is kept as PublishedRaw for the pipeline to judge.
func (g *GDELT) Search(ctx context.Context, q search.Query) ([]domain.RawCandidate, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL, err := g.buildURL(q)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "MentionMonitor/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request gdelt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gdelt returned %s", resp.Status)
	}

	var payload gdeltResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// GDELT answers malformed queries with a plain-text message and status 200.
		return nil, fmt.Errorf("decode gdelt response: %w", err)
	}

	out := make([]domain.RawCandidate, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if strings.TrimSpace(a.URL) == "" {
			continue
		}
		c := domain.RawCandidate{
			URL:      a.URL,
			Title:    strings.TrimSpace(a.Title),
			Source:   a.Domain,
			Provider: GDELTName,
			Language: q.Language,
		}
		if t, ok := canonical.ParsePublished(a.SeenDate); ok {
			c.PublishedAt = t
		} else if a.SeenDate != "" {
			c.PublishedRaw = a.SeenDate
		}
		out = append(out, c)
		if q.MaxResults > 0 && len(out) >= q.MaxResults {
			break
		}
	}
	g.debug("gdelt search", "query", q.Text, "results", len(out))
	return out, nil
}

func (g *GDELT) buildURL(q search.Query) (string, error) {
	base, err := url.Parse(g.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse gdelt endpoint: %w", err)
	}

	query := q.Text
	if lang := gdeltLanguage(q.Language); lang != "" {
		query += " sourcelang:" + lang
	}

	maxRecords := q.MaxResults
	if maxRecords <= 0 || maxRecords > gdeltMaxRecords {
		maxRecords = gdeltMaxRecords
	}
	since := q.Since
	if since.IsZero() {
		since = g.now().Add(-24 * time.Hour)
	}

	values := base.Query()
	values.Set("query", query)
	values.Set("mode", "artlist")
	values.Set("format", "json")
	values.Set("maxrecords", strconv.Itoa(maxRecords))
	values.Set("sort", "datedesc")
	values.Set("startdatetime", since.UTC().Format(gdeltTimeLayout))
	base.RawQuery = values.Encode()
	return base.String(), nil
}

// gdeltLanguage maps ISO codes GDELT understands by name.
func gdeltLanguage(code string) string {
	switch strings.ToLower(code) {
	case "en":
		return "english"
	case "hi":
		return "hindi"
	case "":
		return ""
	default:
		return strings.ToLower(code)
	}
}

func (g *GDELT) debug(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}
