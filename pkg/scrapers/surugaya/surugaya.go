package surugaya

import "card-hunter/pkg/scrapers"

var Layout = scrapers.Layout{
	Container: "#search_result",
	NoResults: ".search_result_none",
	Item:      ".item_box",
	Name:      ".item_name",
	Price:     ".price",
	Condition: ".condition",
	Link:      "a",
	Stock:     ".stock",
	Image:     ".photo_box img",
}

func NewScraper(opts scrapers.Options) *scrapers.StaticScraper {
	return scrapers.NewStaticScraper(Layout, opts)
}
