package hareruya

import "card-hunter/pkg/scrapers"

var Layout = scrapers.Layout{
	Container:  ".itemListArea",
	NoResults:  ".itemListArea .noResult",
	Item:       ".item_list",
	Name:       ".item_name",
	Price:      ".price",
	Condition:  ".condition",
	Link:       "a",
	Stock:      ".stock",
	Image:      ".item_img img",
	CardNumber: ".item_number",
}

func NewScraper(opts scrapers.Options) *scrapers.StaticScraper {
	return scrapers.NewStaticScraper(Layout, opts)
}
