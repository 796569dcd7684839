// Package search defines the provider capability the monitor collects from and
// the query building around it.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"MentionMonitor/internal/domain"
)

// Query carries all parameters required to execute one provider search.
type Query struct {
	Text       string
	MaxResults int
	Since      time.Time
	Language   string
	Country    string
}

// Provider captures a single search backend (GDELT, RSS, etc.).
type Provider interface {
	Name() string
	// Available reports whether the provider is configured well enough to call.
	Available() bool
	Search(ctx context.Context, q Query) ([]domain.RawCandidate, error)
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(p Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[p.Name()] = p
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Provider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("provider %s is not registered", name)
}

// All returns the registered providers ordered by name.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
