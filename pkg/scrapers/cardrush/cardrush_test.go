package cardrush

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"card-hunter/pkg/models"
	"card-hunter/pkg/scrapers"
)

func TestScraper_Scrape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Logf("Received request for: %s", r.URL.String())

		response := `
<!DOCTYPE html>
<html>
<body>
<ul class="product-list">
	<li class="product-list-item">
		<a href="/product/30151">
			<div class="product-image"><img src="/data/cardrush/product/30151.jpg"></div>
			<span class="product-name">リザードンex [SAR] (sv4a)</span>
		</a>
		<span class="product-model">{349/190}</span>
		<span class="product-condition">状態A</span>
		<span class="product-price">29,800円</span>
		<span class="product-stock">在庫数 2枚</span>
	</li>
	<li class="product-list-item">
		<a href="/product/30152"><span class="product-name">リザードンex [RR] (sv4a)</span></a>
		<span class="product-price">480円</span>
		<span class="product-stock">×</span>
	</li>
</ul>
</body>
</html>
`
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintln(w, response)
	}))
	defer ts.Close()

	shop := models.Shop{ID: "cardrush", Name: "カードラッシュ", BaseURL: ts.URL, SearchURL: ts.URL + "/product-list?keyword={query}"}
	scraper := NewScraper(scrapers.Options{Transport: scrapers.NewTransport(scrapers.TransportConfig{})})

	listings, err := scraper.Scrape(context.Background(), shop, "リザードン")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("Expected 2 listings, got %d", len(listings))
	}

	first := listings[0]
	if first.RawName != "リザードンex [SAR] (sv4a)" {
		t.Errorf("Expected name 'リザードンex [SAR] (sv4a)', got '%s'", first.RawName)
	}
	if first.Price != 29800 {
		t.Errorf("Expected price 29800, got %d", first.Price)
	}
	if first.URL != ts.URL+"/product/30151" {
		t.Errorf("Expected url %s/product/30151, got %s", ts.URL, first.URL)
	}
	if first.Stock.Status != models.LowStock {
		t.Errorf("Expected low_stock, got %s", first.Stock.Status)
	}
	if first.CardNumber != "{349/190}" {
		t.Errorf("Expected card number '{349/190}', got '%s'", first.CardNumber)
	}
	if first.ImageURL != ts.URL+"/data/cardrush/product/30151.jpg" {
		t.Errorf("Unexpected image url %s", first.ImageURL)
	}
	if listings[1].Stock.Status != models.InStock {
		t.Errorf("Expected in_stock for a label without digits, got %s", listings[1].Stock.Status)
	}
}
