package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"card-hunter/pkg/cache"
	"card-hunter/pkg/config"
	"card-hunter/pkg/dispatcher"
	"card-hunter/pkg/models"
)

type stubSearcher struct {
	order models.SortOrder
}

func (s *stubSearcher) Search(ctx context.Context, query string, order models.SortOrder) ([]models.CardInfo, error) {
	s.order = order
	return []models.CardInfo{{Name: query, Prices: []models.CardPrice{{ShopID: "hareruya", Price: 980}}}}, nil
}

func (s *stubSearcher) Shops() []models.Shop { return nil }
func (s *stubSearcher) Shop(string) (models.Shop, bool) { return models.Shop{}, false }

func TestSearchOnce(t *testing.T) {
	tests := []struct {
		name          string
		sort          string
		expectedOrder models.SortOrder
		expectedErr   bool
	}{
		{name: "Default sort", sort: "", expectedOrder: models.SortByPrice},
		{name: "Shop sort", sort: "shop", expectedOrder: models.SortByShop},
		{name: "Unknown sort", sort: "rarity", expectedErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSearcher{}
			var out bytes.Buffer

			err := searchOnce(context.Background(), stub, "ブラッキー<V>", tt.sort, &out)
			if tt.expectedErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if stub.order != tt.expectedOrder {
				t.Errorf("got order %q want %q", stub.order, tt.expectedOrder)
			}
			if !strings.Contains(out.String(), "ブラッキー<V>") {
				t.Errorf("output should not escape HTML: %s", out.String())
			}

			var cards []models.CardInfo
			if err := json.Unmarshal(out.Bytes(), &cards); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if len(cards) != 1 || cards[0].Prices[0].Price != 980 {
				t.Errorf("unexpected output %s", out.String())
			}
		})
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := progressPrinter(&buf)

	p("mew", dispatcher.Progress{ShopID: "cardrush", Done: 1, Total: 2, Listings: 4})
	p("mew", dispatcher.Progress{ShopID: "bigweb", Done: 2, Total: 2, Listings: 4, Err: errors.New("timeout")})

	want := "[1/2] cardrush ok (4 listings so far)\n[2/2] bigweb failed: timeout (4 listings so far)\n"
	if buf.String() != want {
		t.Errorf("got %q want %q", buf.String(), want)
	}
}

func TestOpenStore(t *testing.T) {
	store, err := openStore(context.Background(), &config.Config{CacheBackend: config.BackendMemory})
	if err != nil || store != nil {
		t.Fatalf("memory backend should have no store, got %v %v", store, err)
	}

	store, err = openStore(context.Background(), &config.Config{
		CacheBackend: config.BackendSQLite,
		CacheDBPath:  filepath.Join(t.TempDir(), "cache.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, ok := store.(*cache.SQLiteStore); !ok {
		t.Errorf("expected sqlite store, got %T", store)
	}
}
