// Package zencart parses advanced search results of a Zen Cart shop.
package zencart

import "card-hunter/pkg/scrapers"

var Layout = scrapers.Layout{
	Container:  "#productListing",
	NoResults:  "#productListingNoProducts",
	Item:       "tr.productListing-odd, tr.productListing-even",
	Name:       ".itemTitle",
	Price:      ".productBasePrice",
	Link:       ".itemTitle a",
	Stock:      ".listingQuantity",
	Image:      "img.listingProductImage",
	CardNumber: ".listingModel",
}

func NewScraper(opts scrapers.Options) *scrapers.StaticScraper {
	return scrapers.NewStaticScraper(Layout, opts)
}
