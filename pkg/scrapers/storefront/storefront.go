// Package storefront parses the hosted cart theme behind "/products/search"
// search pages. Several card shops run it with only cosmetic changes.
package storefront

import "card-hunter/pkg/scrapers"

var Layout = scrapers.Layout{
	Container:  ".product-grid",
	NoResults:  ".search-empty",
	Item:       ".product-grid .product",
	Name:       ".product__title",
	Price:      ".product__price",
	Condition:  ".product__condition",
	Link:       "a",
	Stock:      ".product__stock",
	Image:      "img",
	CardNumber: ".product__sku",
}

func NewScraper(opts scrapers.Options) *scrapers.StaticScraper {
	return scrapers.NewStaticScraper(Layout, opts)
}
