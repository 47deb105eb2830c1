package models

import (
	"fmt"
	"strings"
	"time"
)

type StockStatus string

const (
	InStock    StockStatus = "in_stock"
	LowStock   StockStatus = "low_stock"
	OutOfStock StockStatus = "out_of_stock"
)

// LowStockThreshold is the highest quantity still reported as low stock.
const LowStockThreshold = 3

type Stock struct {
	Status   StockStatus `json:"status"`
	Quantity *int        `json:"quantity,omitempty"`
}

// StockFromQuantity derives the stock status from an optional quantity.
func StockFromQuantity(qty *int) Stock {
	if qty == nil {
		return Stock{Status: InStock}
	}
	q := *qty
	switch {
	case q <= 0:
		return Stock{Status: OutOfStock, Quantity: &q}
	case q <= LowStockThreshold:
		return Stock{Status: LowStock, Quantity: &q}
	default:
		return Stock{Status: InStock, Quantity: &q}
	}
}

// RawListing is one record as extracted from a shop's search page.
type RawListing struct {
	ShopID     string    `json:"shop_id"`
	RawName    string    `json:"raw_name"`
	Price      int       `json:"price"`
	Condition  string    `json:"condition,omitempty"`
	Stock      Stock     `json:"stock"`
	URL        string    `json:"url"`
	ImageURL   string    `json:"image_url,omitempty"`
	CardNumber string    `json:"card_number,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

type CardIdentity struct {
	BaseName  string `json:"base_name"`
	Rarity    string `json:"rarity,omitempty"`
	Expansion string `json:"expansion,omitempty"`
}

func (c CardIdentity) Key() string {
	return c.BaseName + "|" + c.Rarity + "|" + c.Expansion
}

type CardPrice struct {
	ShopID    string    `json:"shop_id"`
	ShopName  string    `json:"shop_name"`
	Price     int       `json:"price"`
	Condition string    `json:"condition,omitempty"`
	Stock     Stock     `json:"stock"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

type CardInfo struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Rarity     string      `json:"rarity,omitempty"`
	Expansion  string      `json:"expansion,omitempty"`
	CardNumber string      `json:"card_number,omitempty"`
	ImageURL   string      `json:"image_url,omitempty"`
	Prices     []CardPrice `json:"prices"`
}

// MinPrice returns the lowest listed price, or -1 when the card has no prices.
func (c CardInfo) MinPrice() int {
	if len(c.Prices) == 0 {
		return -1
	}
	min := c.Prices[0].Price
	for _, p := range c.Prices[1:] {
		if p.Price < min {
			min = p.Price
		}
	}
	return min
}

type SortOrder string

const (
	SortByPrice SortOrder = "price"
	SortByShop  SortOrder = "shop"
)

// ParseSortOrder accepts "", "price" and "shop". Empty means price.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByPrice:
		return SortByPrice, nil
	case SortByShop:
		return SortByShop, nil
	default:
		return "", fmt.Errorf("unknown sort order %q (want price or shop)", s)
	}
}
