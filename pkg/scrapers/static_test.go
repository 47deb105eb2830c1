package scrapers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"card-hunter/pkg/models"
)

const staticFixture = `<!DOCTYPE html>
<html>
<body>
<div class="results">
	<div class="item">
		<a href="/p/10"><span class="name">ミュウ (SR) (sv4a)</span></a>
		<span class="price">4,980円</span>
		<span class="stock">在庫: 5</span>
	</div>
</div>
</body>
</html>`

func newTestShop(ts *httptest.Server) models.Shop {
	return models.Shop{
		ID:        "demo",
		Name:      "Demo",
		BaseURL:   ts.URL,
		SearchURL: ts.URL + "/search?q={query}",
	}
}

func TestStaticScraper_Scrape(t *testing.T) {
	var gotQuery, gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Logf("Received request for: %s", r.URL.String())
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.UserAgent()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, staticFixture)
	}))
	defer ts.Close()

	scraper := NewStaticScraper(testLayout, Options{Transport: NewTransport(TransportConfig{})})
	listings, err := scraper.Scrape(context.Background(), newTestShop(ts), "ミュウ sv4a")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}

	if gotQuery != "ミュウ sv4a" {
		t.Errorf("server saw query %q", gotQuery)
	}
	if gotUA == "" || gotUA == "colly - https://github.com/gocolly/colly/v2" {
		t.Errorf("expected a browser user agent, got %q", gotUA)
	}
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if listings[0].Price != 4980 {
		t.Errorf("Expected price 4980, got %d", listings[0].Price)
	}
	if listings[0].URL != ts.URL+"/p/10" {
		t.Errorf("Expected url %s/p/10, got %s", ts.URL, listings[0].URL)
	}
	if listings[0].Stock.Status != models.InStock {
		t.Errorf("Expected in_stock, got %s", listings[0].Stock.Status)
	}
}

func TestStaticScraper_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	scraper := NewStaticScraper(testLayout, Options{Transport: NewTransport(TransportConfig{})})
	listings, err := scraper.Scrape(context.Background(), newTestShop(ts), "x")

	var fe *models.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.ShopID != "demo" || listings != nil {
		t.Errorf("unexpected result: %+v %v", fe, listings)
	}
}

func TestStaticScraper_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	scraper := NewStaticScraper(testLayout, Options{Transport: NewTransport(TransportConfig{})})
	_, err := scraper.Scrape(ctx, newTestShop(ts), "x")

	var fe *models.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestStaticScraper_StructureChanged(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, `<html><body><main>redesigned</main></body></html>`)
	}))
	defer ts.Close()

	scraper := NewStaticScraper(testLayout, Options{Transport: NewTransport(TransportConfig{})})
	_, err := scraper.Scrape(context.Background(), newTestShop(ts), "x")

	var pe *models.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
