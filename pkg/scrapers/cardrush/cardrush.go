// Package cardrush parses the "product-list" storefront used by
// Cardrush, Card Labo and Serra.
package cardrush

import "card-hunter/pkg/scrapers"

var Layout = scrapers.Layout{
	Container:  ".product-list",
	NoResults:  ".product-list-empty",
	Item:       ".product-list-item",
	Name:       ".product-name",
	Price:      ".product-price",
	Condition:  ".product-condition",
	Link:       "a",
	Stock:      ".product-stock",
	Image:      ".product-image img",
	CardNumber: ".product-model",
}

func NewScraper(opts scrapers.Options) *scrapers.StaticScraper {
	return scrapers.NewStaticScraper(Layout, opts)
}
