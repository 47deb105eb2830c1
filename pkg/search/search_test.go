package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"card-hunter/pkg/cache"
	"card-hunter/pkg/dispatcher"
	"card-hunter/pkg/models"
	"card-hunter/pkg/scrapers"
	"card-hunter/pkg/shops"
)

type fakeShop struct {
	shop  models.Shop
	calls atomic.Int32
	fail  atomic.Bool
	items []models.RawListing
}

func (f *fakeShop) Scrape(ctx context.Context, shop models.Shop, query string) ([]models.RawListing, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return nil, &models.FetchError{ShopID: shop.ID, Err: errors.New("connection refused")}
	}
	return f.items, nil
}

func newFake(id, name string, items ...models.RawListing) *fakeShop {
	return &fakeShop{
		shop:  models.Shop{ID: id, Name: name, BaseURL: "https://" + id + ".example", SearchURL: "https://" + id + ".example/s?q={query}"},
		items: items,
	}
}

func newService(t *testing.T, clock func() time.Time, fakes ...*fakeShop) *Service {
	t.Helper()
	var entries []shops.Entry
	for _, f := range fakes {
		entries = append(entries, shops.Entry{Shop: f.shop, Scraper: f})
	}
	reg, err := shops.NewRegistry(entries...)
	if err != nil {
		t.Fatal(err)
	}
	s := New(reg, Options{
		Dispatcher: dispatcher.Options{ChunkSize: 3},
		Cache:      cache.Options{TTL: time.Hour, Clock: clock},
	})
	t.Cleanup(func() { s.Close() })
	return s
}

func item(shop, name string, price int, url string) models.RawListing {
	return models.RawListing{ShopID: shop, RawName: name, Price: price, URL: url}
}

func TestSearch_EndToEnd(t *testing.T) {
	a := newFake("a", "Zeta Cards", item("a", "リザードン [CHR]", 1200, "https://a/1"))
	b := newFake("b", "Alpha Cards", item("b", "リザードン [CHR]", 900, "https://b/1"), item("b", "ピカチュウ", 50, "https://b/2"))
	s := newService(t, time.Now, a, b)

	got, err := s.Search(context.Background(), "  リザードン  ", models.SortByPrice)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(got))
	}
	if got[0].Name != "ピカチュウ" {
		t.Errorf("cheapest card should come first, got %s", got[0].Name)
	}
	if got[1].Prices[0].ShopID != "b" || got[1].Prices[1].ShopID != "a" {
		t.Errorf("prices not sorted by price: %+v", got[1].Prices)
	}

	byShop, err := s.Search(context.Background(), "リザードン", models.SortByShop)
	if err != nil {
		t.Fatal(err)
	}
	if byShop[1].Prices[0].ShopName != "Alpha Cards" {
		t.Errorf("prices not sorted by shop: %+v", byShop[1].Prices)
	}
	if a.calls.Load() != 1 {
		t.Errorf("equivalent queries should share the cache, got %d scrapes", a.calls.Load())
	}
}

func TestSearch_ShopSortDoesNotLeakIntoCache(t *testing.T) {
	a := newFake("a", "Zeta", item("a", "ミュウ", 100, "https://a/1"))
	b := newFake("b", "Alpha", item("b", "ミュウ", 500, "https://b/1"))
	s := newService(t, time.Now, a, b)

	if _, err := s.Search(context.Background(), "ミュウ", models.SortByShop); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Search(context.Background(), "ミュウ", models.SortByPrice)
	if got[0].Prices[0].Price != 100 {
		t.Errorf("cached order was modified: %+v", got[0].Prices)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	s := newService(t, time.Now, newFake("a", "A"))
	if _, err := s.Search(context.Background(), " 　 ", models.SortByPrice); !errors.Is(err, models.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearch_AllShopsFailReturnsEmptyAndIsNotCached(t *testing.T) {
	a := newFake("a", "A")
	a.fail.Store(true)
	s := newService(t, time.Now, a)

	for i := 0; i < 2; i++ {
		got, err := s.Search(context.Background(), "ルギア", models.SortByPrice)
		if err != nil {
			t.Fatalf("source failures must not surface as errors: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty result, got %#v", got)
		}
	}
	if a.calls.Load() != 2 {
		t.Errorf("failed aggregation must not be cached, got %d scrapes", a.calls.Load())
	}
}

func TestSearch_PartialFailure(t *testing.T) {
	a := newFake("a", "A")
	a.fail.Store(true)
	b := newFake("b", "B", item("b", "ルギア", 700, "https://b/1"))
	s := newService(t, time.Now, a, b)

	got, err := s.Search(context.Background(), "ルギア", models.SortByPrice)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Prices[0].ShopID != "b" {
		t.Errorf("expected listings from the healthy shop, got %+v", got)
	}
}

func TestSearch_StaleServedThenRefreshed(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	a := newFake("a", "A", item("a", "ミュウ", 100, "https://a/1"))
	s := newService(t, clock, a)

	if _, err := s.Search(context.Background(), "ミュウ", models.SortByPrice); err != nil {
		t.Fatal(err)
	}

	a.items = []models.RawListing{item("a", "ミュウ", 80, "https://a/1")}
	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()

	got, _ := s.Search(context.Background(), "ミュウ", models.SortByPrice)
	if got[0].Prices[0].Price != 100 {
		t.Errorf("stale read should return previous data, got %d", got[0].Prices[0].Price)
	}
	s.cache.Wait()

	got, _ = s.Search(context.Background(), "ミュウ", models.SortByPrice)
	if got[0].Prices[0].Price != 80 {
		t.Errorf("expected refreshed price 80, got %d", got[0].Prices[0].Price)
	}
}

func TestSearch_Progress(t *testing.T) {
	var events []dispatcher.Progress
	var queries []string
	reg, err := shops.NewRegistry(
		shops.Entry{Shop: newFake("a", "A").shop, Scraper: scrapers.ScraperFunc(func(ctx context.Context, shop models.Shop, query string) ([]models.RawListing, error) {
			return []models.RawListing{item("a", "x", 1, "u")}, nil
		})},
	)
	if err != nil {
		t.Fatal(err)
	}
	s := New(reg, Options{Progress: func(q string, p dispatcher.Progress) {
		queries = append(queries, q)
		events = append(events, p)
	}})
	defer s.Close()

	if _, err := s.Search(context.Background(), "ｘ", models.SortByPrice); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Done != 1 || events[0].Total != 1 || queries[0] != "x" {
		t.Errorf("unexpected progress %+v for %v", events, queries)
	}
}

func TestNormalizeQuery(t *testing.T) {
	if got := NormalizeQuery("　ﾋﾟｶﾁｭｳ　 ＶＭＡＸ "); got != "ピカチュウ VMAX" {
		t.Errorf("got %q", got)
	}
}
