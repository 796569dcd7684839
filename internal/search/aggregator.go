package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/names"
	"MentionMonitor/internal/ports"
)

// Aggregator implements CandidateSource via registered provider strategies.
type Aggregator struct {
	registry   *Registry
	profile    names.Profile
	maxResults int
	language   string
	logger     *slog.Logger
}

var _ ports.CandidateSource = (*Aggregator)(nil)

// NewAggregator wires the provider registry with the locale profile used for queries.
func NewAggregator(reg *Registry, profile names.Profile, maxResults int, language string, log *slog.Logger) *Aggregator {
	if maxResults <= 0 {
		maxResults = 50
	}
	return &Aggregator{
		registry:   reg,
		profile:    profile,
		maxResults: maxResults,
		language:   language,
		logger:     log,
	}
}

// Collect runs every query against every available provider enabled for the
// entity. A failing provider or query is logged and skipped.
func (a *Aggregator) Collect(ctx context.Context, entity domain.MonitoredEntity, since time.Time) ([]domain.RawCandidate, error) {
	if a.registry == nil {
		return nil, fmt.Errorf("provider registry is not configured")
	}

	queries := BuildQueries(entity, names.Variants(entity, a.profile), a.profile)
	a.debug("collect", "entity", entity.ID, "queries", len(queries), "since", since.Format(time.RFC3339))

	seen := map[string]struct{}{}
	var aggregated []domain.RawCandidate
	for _, provider := range a.registry.All() {
		if !provider.Available() || !entity.SourceEnabled(provider.Name()) {
			a.debug("provider skipped", "provider", provider.Name(), "entity", entity.ID)
			continue
		}

		count := 0
		for _, text := range queries {
			if err := ctx.Err(); err != nil {
				return aggregated, err
			}

			results, err := provider.Search(ctx, Query{
				Text:       text,
				MaxResults: a.maxResults,
				Since:      since,
				Language:   a.language,
				Country:    a.profile.Code,
			})
			if err != nil {
				a.warn("provider search failed", "provider", provider.Name(), "query", text, "err", err)
				continue
			}

			for _, c := range results {
				key := strings.TrimSpace(c.URL)
				if key != "" {
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
				}
				aggregated = append(aggregated, a.enrich(c, provider.Name()))
				count++
			}
		}
		a.debug("provider produced candidates", "provider", provider.Name(), "count", count)
	}

	a.debug("aggregator done", "entity", entity.ID, "total_candidates", len(aggregated))
	return aggregated, nil
}

func (a *Aggregator) enrich(c domain.RawCandidate, provider string) domain.RawCandidate {
	if c.Provider == "" {
		c.Provider = provider
	}
	if c.Source == "" {
		if u, err := url.Parse(c.URL); err == nil {
			c.Source = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		}
	}
	if c.TrustScore == nil {
		_, trust := ClassifySource(c.Source, c.URL)
		c.TrustScore = &trust
	}
	if c.Language == "" {
		c.Language = DetectLanguage(c.Title+" "+c.Snippet, a.language)
	}
	return c
}

func (a *Aggregator) debug(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Aggregator) warn(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
