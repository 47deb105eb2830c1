package scrapers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"card-hunter/pkg/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// RenderFunc returns the rendered outer HTML of the page at url.
type RenderFunc func(ctx context.Context, url string) (string, error)

// BrowserScraper renders the search page in headless Chrome and extracts
// listings from the resulting DOM with the same Layout contract as
// StaticScraper.
type BrowserScraper struct {
	Layout Layout
	// WaitSelector must be ready before the DOM is read. Defaults to body.
	WaitSelector string
	// Settle gives client-side rendering time to finish after WaitSelector.
	Settle time.Duration
	// Render replaces the chromedp renderer, mainly in tests.
	Render RenderFunc

	opts Options
}

func NewBrowserScraper(layout Layout, opts Options) *BrowserScraper {
	return &BrowserScraper{Layout: layout, WaitSelector: "body", opts: opts}
}

func (s *BrowserScraper) Scrape(ctx context.Context, shop models.Shop, query string) ([]models.RawListing, error) {
	log := s.opts.logger().With(zap.String("shop", shop.ID))
	target := shop.SearchURLFor(query)

	render := s.Render
	if render == nil {
		render = s.chrome
	}

	log.Debug("rendering", zap.String("url", target))
	html, err := render(ctx, target)
	if err != nil {
		return nil, &models.FetchError{ShopID: shop.ID, URL: target, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &models.ParseError{ShopID: shop.ID, Reason: fmt.Sprintf("rendered html: %v", err)}
	}

	listings, rejected, err := s.Layout.Extract(shop, doc.Selection, time.Now())
	for _, r := range rejected {
		log.Debug("record rejected", zap.Error(r))
	}
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (s *BrowserScraper) chrome(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(globalUA.random()),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	wait := s.WaitSelector
	if wait == "" {
		wait = "body"
	}

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady(wait, chromedp.ByQuery),
	}
	if s.Settle > 0 {
		actions = append(actions, chromedp.Sleep(s.Settle))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", fmt.Errorf("chromedp failed: %w", err)
	}
	return html, nil
}
