package models

import (
	"net/url"
	"strings"
)

// QueryPlaceholder is substituted with the escaped query in Shop.SearchURL.
const QueryPlaceholder = "{query}"

type Shop struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BaseURL   string `json:"url"`
	SearchURL string `json:"search_url,omitempty"`

	// SearchURLFunc overrides SearchURL for shops whose search address
	// cannot be expressed as a template.
	SearchURLFunc func(query string) string `json:"-"`
}

func (s Shop) SearchURLFor(query string) string {
	if s.SearchURLFunc != nil {
		return s.SearchURLFunc(query)
	}
	return strings.ReplaceAll(s.SearchURL, QueryPlaceholder, EscapeQuery(query))
}

// EscapeQuery percent-encodes a query the way browsers encode a URI
// component: spaces become %20, not '+'.
func EscapeQuery(query string) string {
	return strings.ReplaceAll(url.QueryEscape(query), "+", "%20")
}

// ResolveURL makes href absolute against the shop's base URL.
func (s Shop) ResolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
