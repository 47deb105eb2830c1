// Package yuyutei parses Yuyu-tei's sell price list. The shop lists cards
// it does not price online at 0 yen, which is kept as "contact shop".
package yuyutei

import "card-hunter/pkg/scrapers"

var Layout = scrapers.Layout{
	Container:             ".card_list",
	NoResults:             ".no_card",
	Item:                  ".card_list_box",
	Name:                  ".card_name",
	Price:                 ".price",
	Condition:             ".condition",
	Link:                  "a",
	Stock:                 ".stock",
	Image:                 ".image_box img",
	CardNumber:            ".card_number",
	ZeroPriceMeansContact: true,
}

func NewScraper(opts scrapers.Options) *scrapers.StaticScraper {
	return scrapers.NewStaticScraper(Layout, opts)
}
