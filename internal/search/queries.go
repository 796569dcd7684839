package search

import (
	"fmt"
	"strings"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/names"
)

// MaxQueries caps how many searches one entity costs per provider.
const MaxQueries = 6

// BuildQueries produces recall, precision, regulatory, legal and positive-news
// queries for the entity. variants is the output of names.Variants.
func BuildQueries(e domain.MonitoredEntity, variants []string, p names.Profile) []string {
	name := strings.Join(strings.Fields(e.FullName), " ")
	recall := name
	if len(variants) > 0 {
		recall = variants[0]
	}

	queries := []string{quote(recall)}
	if len(e.ContextTerms) > 0 {
		queries = append(queries, fmt.Sprintf("%s AND (%s)", quote(name), anyOf(e.ContextTerms, 3)))
	}
	if len(p.RegulatoryTerms) > 0 {
		queries = append(queries, fmt.Sprintf("%s AND (%s)", quote(name), anyOf(p.RegulatoryTerms, 8)))
	}
	if len(p.LegalTerms) > 0 {
		queries = append(queries, fmt.Sprintf("%s AND (%s)", quote(name), anyOf(p.LegalTerms, 6)))
	}
	queries = append(queries, fmt.Sprintf("%s AND (%s)", quote(name), anyOf([]string{"award", "appointed", "joins", "honoured"}, 4)))

	// A second surface form adds recall when there is room left.
	for _, v := range variants[min(1, len(variants)):] {
		if len(queries) >= MaxQueries {
			break
		}
		if !strings.EqualFold(v, recall) && !strings.EqualFold(v, name) {
			queries = append(queries, quote(v))
			break
		}
	}

	if len(queries) > MaxQueries {
		queries = queries[:MaxQueries]
	}
	return queries
}

func anyOf(terms []string, limit int) string {
	if len(terms) > limit {
		terms = terms[:limit]
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = quote(t)
	}
	return strings.Join(quoted, " OR ")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}
