// Package shops is the static table of shops and the adapter bound to each.
package shops

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"card-hunter/pkg/models"
	"card-hunter/pkg/scrapers"
)

// Entry binds a shop to the adapter that scrapes it.
type Entry struct {
	Shop    models.Shop
	Scraper scrapers.Scraper
}

// Registry is immutable after construction. Iteration order is the order
// entries were given in, which is also the order results are reported in.
type Registry struct {
	entries []Entry
	byID    map[string]int
}

// NewRegistry validates every entry and fails on the first problem.
func NewRegistry(entries ...Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("shop registry is empty")
	}

	r := &Registry{
		entries: make([]Entry, 0, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if err := validate(e); err != nil {
			return nil, fmt.Errorf("shop #%d: %w", i, err)
		}
		if _, dup := r.byID[e.Shop.ID]; dup {
			return nil, fmt.Errorf("shop #%d: duplicate id %q", i, e.Shop.ID)
		}
		r.byID[e.Shop.ID] = len(r.entries)
		r.entries = append(r.entries, e)
	}
	return r, nil
}

func validate(e Entry) error {
	s := e.Shop
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("missing id")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%s: missing name", s.ID)
	}
	if e.Scraper == nil {
		return fmt.Errorf("%s: no adapter bound", s.ID)
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil || !base.IsAbs() {
		return fmt.Errorf("%s: base url %q is not absolute", s.ID, s.BaseURL)
	}
	if s.SearchURLFunc != nil {
		return nil
	}
	if !strings.Contains(s.SearchURL, models.QueryPlaceholder) {
		return fmt.Errorf("%s: search url %q has no %s placeholder", s.ID, s.SearchURL, models.QueryPlaceholder)
	}
	if u, err := url.Parse(s.SearchURLFor("x")); err != nil || !u.IsAbs() {
		return fmt.Errorf("%s: search url %q is not absolute", s.ID, s.SearchURL)
	}
	return nil
}

func (r *Registry) Len() int { return len(r.entries) }

// Entries returns a copy of the entries in registry order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) Shops() []models.Shop {
	out := make([]models.Shop, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Shop
	}
	return out
}

func (r *Registry) Get(id string) (Entry, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Filter returns a registry restricted to ids, keeping registry order.
// An empty ids list returns r itself.
func (r *Registry) Filter(ids []string) (*Registry, error) {
	if len(ids) == 0 {
		return r, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("unknown shop %q", id)
		}
		want[id] = true
	}
	var kept []Entry
	for _, e := range r.entries {
		if want[e.Shop.ID] {
			kept = append(kept, e)
		}
	}
	return NewRegistry(kept...)
}
