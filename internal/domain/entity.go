package domain

import (
	"fmt"
	"strings"
)

// Location is an optional region/locality pair used for location agreement.
type Location struct {
	Region   string
	Locality string
}

// MonitoredEntity is the person being tracked. The pipeline only reads it.
type MonitoredEntity struct {
	ID            string
	FullName      string
	FirstName     string
	MiddleNames   string
	LastName      string
	Aliases       []string
	ContextTerms  []string
	NegativeTerms []string
	Location      Location
	// Sources holds per-provider enable flags. An empty map enables every provider.
	Sources map[string]bool
	Active  bool
}

// SourceEnabled reports whether the named provider may be queried for this entity.
func (e MonitoredEntity) SourceEnabled(name string) bool {
	if len(e.Sources) == 0 {
		return true
	}
	return e.Sources[name]
}

// Validate enforces the entity invariants: an identifier, a non-empty full name,
// and term sets without case-insensitive duplicates.
func (e MonitoredEntity) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: missing identifier", ErrInvalidEntity)
	}
	if strings.TrimSpace(e.FullName) == "" {
		return fmt.Errorf("%w: entity %s has an empty full name", ErrInvalidEntity, e.ID)
	}

	sets := []struct {
		name  string
		terms []string
	}{
		{"aliases", e.Aliases},
		{"context terms", e.ContextTerms},
		{"negative terms", e.NegativeTerms},
	}
	for _, set := range sets {
		if dup, ok := firstDuplicate(set.terms); ok {
			return fmt.Errorf("%w: entity %s has duplicate %s entry %q", ErrInvalidEntity, e.ID, set.name, dup)
		}
	}
	return nil
}

func firstDuplicate(terms []string) (string, bool) {
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		key := strings.ToLower(strings.TrimSpace(term))
		if _, ok := seen[key]; ok {
			return term, true
		}
		seen[key] = struct{}{}
	}
	return "", false
}
