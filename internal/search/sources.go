package search

import (
	"net/url"
	"strings"
)

// SourceType is a coarse credibility class for a news outlet.
type SourceType string

const (
	SourceMainstream SourceType = "mainstream_national"
	SourceRegional   SourceType = "credible_regional"
	SourcePartisan   SourceType = "partisan"
	SourceTabloid    SourceType = "tabloid"
	SourceUnknown    SourceType = "unknown"
)

var sourceClasses = []struct {
	kind  SourceType
	trust int
	names []string
}{
	{SourceMainstream, 85, []string{
		"times of india", "timesofindia", "the hindu", "thehindu", "hindustan times", "hindustantimes",
		"indian express", "indianexpress", "economic times", "economictimes", "livemint", "mint",
		"business standard", "business-standard", "ndtv", "news18", "reuters", "pti",
	}},
	{SourceRegional, 70, []string{
		"deccan herald", "deccanherald", "the telegraph", "telegraphindia", "the tribune", "tribuneindia",
		"daily pioneer", "dailypioneer", "deccan chronicle", "deccanchronicle", "asian age", "asianage",
	}},
	{SourcePartisan, 35, []string{"opindia", "republic", "aaj tak", "aajtak", "zee news", "zeenews", "scoopwhoop"}},
	{SourceTabloid, 25, []string{"mid-day", "mumbai mirror", "mumbaimirror", "daily bhaskar", "bhaskar"}},
}

// ClassifySource assigns a source type and trust score from the outlet name or link.
func ClassifySource(source, link string) (SourceType, int) {
	name := strings.ToLower(strings.TrimSpace(source))
	host := ""
	if u, err := url.Parse(link); err == nil {
		host = strings.ToLower(u.Hostname())
	}
	if name == "" && host == "" {
		return SourceUnknown, 40
	}

	for _, class := range sourceClasses {
		for _, n := range class.names {
			if (name != "" && strings.Contains(name, n)) || (host != "" && strings.Contains(host, n)) {
				return class.kind, class.trust
			}
		}
	}
	return SourceUnknown, 40
}
