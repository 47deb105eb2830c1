// Package ecbeing parses "search.aspx" goods listings.
package ecbeing

import "card-hunter/pkg/scrapers"

var Layout = scrapers.Layout{
	Container:  ".StyleT_Frame_",
	NoResults:  ".noitem_",
	Item:       ".StyleT_Item_",
	Name:       ".name_",
	Price:      ".price_",
	Condition:  ".condition_",
	Link:       ".name_ a",
	Stock:      ".stock_",
	Image:      ".img_ img",
	CardNumber: ".goods_code_",
}

func NewScraper(opts scrapers.Options) *scrapers.StaticScraper {
	return scrapers.NewStaticScraper(Layout, opts)
}
