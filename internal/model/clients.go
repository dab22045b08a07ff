package model

import (
	"sort"

	"github.com/rotisserie/eris"
)

// ClientRegistry is the static slug -> id table identifying the business
// clients this pipeline serves. It is built once from configuration and
// never mutated at runtime.
type ClientRegistry struct {
	bySlug map[string]int64
}

// NewClientRegistry builds a registry from a slug -> id map.
func NewClientRegistry(clients map[string]int64) *ClientRegistry {
	m := make(map[string]int64, len(clients))
	for slug, id := range clients {
		m[slug] = id
	}
	return &ClientRegistry{bySlug: m}
}

// ID resolves a client slug. Unknown slugs are an error: every output
// row must carry a valid client identity.
func (r *ClientRegistry) ID(slug string) (int64, error) {
	id, ok := r.bySlug[slug]
	if !ok {
		return 0, eris.Errorf("clients: unknown client_slug %q, add it to the clients map", slug)
	}
	return id, nil
}

// Slugs returns the known client slugs in stable order.
func (r *ClientRegistry) Slugs() []string {
	out := make([]string, 0, len(r.bySlug))
	for slug := range r.bySlug {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}
