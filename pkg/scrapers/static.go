package scrapers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"card-hunter/pkg/models"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// StaticScraper fetches a search page over plain HTTP and extracts listings
// with a Layout.
type StaticScraper struct {
	Layout Layout

	opts      Options
	transport http.RoundTripper
}

func NewStaticScraper(layout Layout, opts Options) *StaticScraper {
	rt := opts.Transport
	if rt == nil {
		rt = NewTransport(DefaultTransportConfig())
	}
	return &StaticScraper{Layout: layout, opts: opts, transport: rt}
}

func (s *StaticScraper) Scrape(ctx context.Context, shop models.Shop, query string) ([]models.RawListing, error) {
	log := s.opts.logger().With(zap.String("shop", shop.ID))
	target := shop.SearchURLFor(query)

	u, err := url.Parse(target)
	if err != nil {
		return nil, &models.FetchError{ShopID: shop.ID, URL: target, Err: err}
	}

	domains := []string{u.Hostname()}
	if base, err := url.Parse(shop.BaseURL); err == nil && base.Hostname() != u.Hostname() {
		domains = append(domains, base.Hostname())
	}

	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowedDomains(domains...),
		colly.UserAgent(s.userAgent()),
		colly.DetectCharset(),
	)
	c.WithTransport(s.transport)
	if s.opts.RequestTimeout > 0 {
		c.SetRequestTimeout(s.opts.RequestTimeout)
	}

	var (
		listings []models.RawListing
		rejected []error
		parseErr error
		seen     bool
	)

	c.OnHTML("html", func(e *colly.HTMLElement) {
		if seen {
			return
		}
		seen = true
		listings, rejected, parseErr = s.Layout.Extract(shop, e.DOM, time.Now())
	})

	log.Debug("navigating", zap.String("url", target))
	if err := c.Visit(target); err != nil {
		return nil, &models.FetchError{ShopID: shop.ID, URL: target, Err: err}
	}

	for _, r := range rejected {
		log.Debug("record rejected", zap.Error(r))
	}
	if !seen {
		return nil, &models.ParseError{ShopID: shop.ID, Reason: "response is not an HTML page"}
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return listings, nil
}

func (s *StaticScraper) userAgent() string {
	if t, ok := s.transport.(*Transport); ok {
		return t.UserAgent()
	}
	return globalUA.random()
}
