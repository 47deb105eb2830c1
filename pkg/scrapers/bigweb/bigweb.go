// Package bigweb renders Bigweb's card list, which is built client side,
// in headless Chrome before parsing it.
package bigweb

import (
	"time"

	"card-hunter/pkg/scrapers"
)

var Layout = scrapers.Layout{
	Container:  "#app",
	NoResults:  ".nodata",
	Item:       ".cardlist .item",
	Name:       ".item-name",
	Price:      ".item-price",
	Condition:  ".item-condition",
	Link:       "a",
	Stock:      ".item-stock",
	Image:      ".item-image img",
	CardNumber: ".item-cardno",
}

const settleDelay = 2 * time.Second

func NewScraper(opts scrapers.Options) *scrapers.BrowserScraper {
	s := scrapers.NewBrowserScraper(Layout, opts)
	s.WaitSelector = "#app"
	s.Settle = settleDelay
	return s
}
