package surugaya

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"card-hunter/pkg/models"
	"card-hunter/pkg/scrapers"
)

func newShop(ts *httptest.Server) models.Shop {
	return models.Shop{ID: "surugaya", Name: "駿河屋", BaseURL: ts.URL, SearchURL: ts.URL + "/search?category=1&search_word={query}"}
}

func TestScraper_Scrape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search_word") != "ピカチュウ" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, `<html><body><div id="search_result">
	<div class="item_box">
		<div class="photo_box"><img src="https://cdn.suruga-ya.jp/pics/1.jpg"></div>
		<p class="item_name"><a href="/product/detail/1">ピカチュウ (プロモ)</a></p>
		<p class="condition">中古</p>
		<p class="price">￥１，２００</p>
		<p class="stock">売り切れ</p>
	</div>
</div></body></html>`)
	}))
	defer ts.Close()

	scraper := NewScraper(scrapers.Options{Transport: scrapers.NewTransport(scrapers.TransportConfig{})})
	listings, err := scraper.Scrape(context.Background(), newShop(ts), "ピカチュウ")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("Expected 1 listing, got %d", len(listings))
	}
	if listings[0].Price != 1200 {
		t.Errorf("Expected price 1200, got %d", listings[0].Price)
	}
	if listings[0].Stock.Status != models.OutOfStock {
		t.Errorf("Expected out_of_stock, got %s", listings[0].Stock.Status)
	}
	if listings[0].Condition != "中古" {
		t.Errorf("Expected condition '中古', got '%s'", listings[0].Condition)
	}
}

func TestScraper_NoResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, `<html><body><p class="search_result_none">該当する商品がありません</p></body></html>`)
	}))
	defer ts.Close()

	scraper := NewScraper(scrapers.Options{Transport: scrapers.NewTransport(scrapers.TransportConfig{})})
	listings, err := scraper.Scrape(context.Background(), newShop(ts), "ピカチュウ")
	if err != nil {
		t.Fatalf("Expected no error for an empty result page, got %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("Expected no listings, got %d", len(listings))
	}
}

func TestScraper_LayoutChanged(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, `<html><body><div id="new-results"></div></body></html>`)
	}))
	defer ts.Close()

	scraper := NewScraper(scrapers.Options{Transport: scrapers.NewTransport(scrapers.TransportConfig{})})
	_, err := scraper.Scrape(context.Background(), newShop(ts), "ピカチュウ")
	var pe *models.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
}
