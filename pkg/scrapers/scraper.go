// Package scrapers holds the shop adapter contract and the two engines
// every shop adapter is built on: a static HTML engine (colly) and a
// browser engine (chromedp) for pages rendered by JavaScript.
package scrapers

import (
	"context"
	"net/http"
	"time"

	"card-hunter/pkg/models"

	"go.uber.org/zap"
)

// Scraper fetches and parses one shop's search results for a query.
//
// Implementations honour ctx for cancellation and deadlines. A network
// failure is reported as *models.FetchError and a page that does not look
// like the expected layout as *models.ParseError; in both cases no
// listings are returned. Individual malformed records are dropped.
type Scraper interface {
	Scrape(ctx context.Context, shop models.Shop, query string) ([]models.RawListing, error)
}

// ScraperFunc adapts a function to the Scraper interface.
type ScraperFunc func(ctx context.Context, shop models.Shop, query string) ([]models.RawListing, error)

func (f ScraperFunc) Scrape(ctx context.Context, shop models.Shop, query string) ([]models.RawListing, error) {
	return f(ctx, shop, query)
}

// Options are shared by all shop adapters.
type Options struct {
	// Transport is used for static fetches. Nil means a fresh Transport
	// with default settings.
	Transport http.RoundTripper
	Logger    *zap.Logger
	// RequestTimeout caps a single page fetch on top of the caller's deadline.
	RequestTimeout time.Duration
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
