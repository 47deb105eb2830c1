// Package aggregator merges raw listings from many shops into one price
// table per card identity.
package aggregator

import (
	"sort"

	"card-hunter/pkg/identity"
	"card-hunter/pkg/models"

	"go.uber.org/zap"
)

type Aggregator struct {
	shopNames map[string]string
	log       *zap.Logger
}

// New takes the shop table so prices can carry display names.
func New(shops []models.Shop, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	names := make(map[string]string, len(shops))
	for _, s := range shops {
		names[s.ID] = s.Name
	}
	return &Aggregator{shopNames: names, log: log.Named("aggregator")}
}

type listingKey struct {
	shopID string
	url    string
}

// Aggregate groups listings by card identity and sorts both the prices
// inside each card and the cards themselves. The first listing of a card
// fixes its name, rarity and expansion; later listings only add prices and
// fill a missing image or card number.
func (a *Aggregator) Aggregate(listings []models.RawListing, order models.SortOrder) []models.CardInfo {
	var cards []*models.CardInfo
	byKey := make(map[string]int)
	seen := make(map[string]map[listingKey]bool)

	for _, l := range listings {
		id := identity.Resolve(l.RawName)
		if id.BaseName == "" {
			a.log.Info("dropping listing without card name",
				zap.String("shop", l.ShopID),
				zap.String("raw_name", l.RawName))
			continue
		}
		key := id.Key()

		idx, ok := byKey[key]
		if !ok {
			idx = len(cards)
			byKey[key] = idx
			seen[key] = make(map[listingKey]bool)
			cards = append(cards, &models.CardInfo{
				ID:        key,
				Name:      id.BaseName,
				Rarity:    id.Rarity,
				Expansion: id.Expansion,
			})
		}
		card := cards[idx]

		lk := listingKey{shopID: l.ShopID, url: l.URL}
		if seen[key][lk] {
			continue
		}
		seen[key][lk] = true

		if card.ImageURL == "" {
			card.ImageURL = l.ImageURL
		}
		if card.CardNumber == "" {
			card.CardNumber = l.CardNumber
		}
		card.Prices = append(card.Prices, models.CardPrice{
			ShopID:    l.ShopID,
			ShopName:  a.shopName(l.ShopID),
			Price:     l.Price,
			Condition: l.Condition,
			Stock:     l.Stock,
			URL:       l.URL,
			Timestamp: l.FetchedAt,
		})
	}

	out := make([]models.CardInfo, len(cards))
	for i, c := range cards {
		out[i] = *c
	}
	Sort(out, order)
	return out
}

func (a *Aggregator) shopName(id string) string {
	if name, ok := a.shopNames[id]; ok {
		return name
	}
	return id
}

// Sort orders prices inside every card by order and the cards by their
// lowest price, ties broken by identity key. It sorts in place.
func Sort(cards []models.CardInfo, order models.SortOrder) {
	for i := range cards {
		SortPrices(cards[i].Prices, order)
	}
	sort.SliceStable(cards, func(i, j int) bool {
		mi, mj := cards[i].MinPrice(), cards[j].MinPrice()
		if mi != mj {
			return mi < mj
		}
		return cards[i].ID < cards[j].ID
	})
}

// SortPrices orders by price (ties: shop name, then URL) or by shop name
// compared bytewise (ties: price, then URL).
func SortPrices(prices []models.CardPrice, order models.SortOrder) {
	sort.SliceStable(prices, func(i, j int) bool {
		a, b := prices[i], prices[j]
		if order == models.SortByShop {
			if a.ShopName != b.ShopName {
				return a.ShopName < b.ShopName
			}
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return a.URL < b.URL
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		if a.ShopName != b.ShopName {
			return a.ShopName < b.ShopName
		}
		return a.URL < b.URL
	})
}
