package scrapers

import (
	"strings"
	"time"

	"card-hunter/pkg/models"

	"github.com/PuerkitoBio/goquery"
)

// Layout describes where listing fields live on a shop's search page.
// Field selectors are relative to Item.
type Layout struct {
	// Container, when set, must be present on every results page. Its
	// absence means the shop changed its markup.
	Container string
	// NoResults matches the shop's "nothing found" notice, which is not
	// a structural error even when Container is missing.
	NoResults string

	Item       string
	Name       string
	Price      string
	Condition  string
	Link       string
	Stock      string
	Image      string
	CardNumber string

	// ZeroPriceMeansContact keeps a price of 0 instead of rejecting it.
	ZeroPriceMeansContact bool
}

// Extract parses every Item under doc. Rejected records are returned in
// rejected and do not fail the page; err is a *models.ParseError when the
// page as a whole is unusable.
func (l Layout) Extract(shop models.Shop, doc *goquery.Selection, fetchedAt time.Time) (listings []models.RawListing, rejected []error, err error) {
	if l.NoResults != "" && doc.Find(l.NoResults).Length() > 0 {
		return nil, nil, nil
	}
	if l.Container != "" && doc.Find(l.Container).Length() == 0 {
		return nil, nil, &models.ParseError{ShopID: shop.ID, Reason: "results container " + l.Container + " not found"}
	}

	items := doc.Find(l.Item)
	items.Each(func(_ int, item *goquery.Selection) {
		listing, rerr := l.record(shop, item, fetchedAt)
		if rerr != nil {
			rejected = append(rejected, rerr)
			return
		}
		listings = append(listings, listing)
	})

	if items.Length() > 0 && len(listings) == 0 {
		return nil, rejected, &models.ParseError{ShopID: shop.ID, Reason: "no valid records on page"}
	}
	return listings, rejected, nil
}

func (l Layout) record(shop models.Shop, item *goquery.Selection, fetchedAt time.Time) (models.RawListing, error) {
	name := text(item, l.Name)
	if name == "" {
		return models.RawListing{}, &models.ValidationError{ShopID: shop.ID, Field: "name", Reason: "missing"}
	}

	price, err := ParsePrice(shop.ID, text(item, l.Price), l.ZeroPriceMeansContact)
	if err != nil {
		return models.RawListing{}, err
	}

	href := attr(item, l.Link, "href")
	if href == "" {
		return models.RawListing{}, &models.ValidationError{ShopID: shop.ID, Field: "url", Value: name, Reason: "missing link"}
	}

	listing := models.RawListing{
		ShopID:    shop.ID,
		RawName:   name,
		Price:     price,
		Condition: text(item, l.Condition),
		URL:       shop.ResolveURL(href),
		FetchedAt: fetchedAt,
	}
	if l.Stock != "" {
		listing.Stock = ParseStock(text(item, l.Stock))
	} else {
		listing.Stock = models.StockFromQuantity(nil)
	}
	if l.Image != "" {
		src := attr(item, l.Image, "data-src")
		if src == "" {
			src = attr(item, l.Image, "src")
		}
		listing.ImageURL = shop.ResolveURL(src)
	}
	if l.CardNumber != "" {
		listing.CardNumber = text(item, l.CardNumber)
	}
	return listing, nil
}

func text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.Join(strings.Fields(s.Find(selector).First().Text()), " ")
}

// attr reads an attribute from the first match of selector, or from s
// itself when the item is the element carrying it.
func attr(s *goquery.Selection, selector, name string) string {
	if selector == "" {
		return ""
	}
	target := s.Find(selector).First()
	if target.Length() == 0 && s.Is(selector) {
		target = s
	}
	v, _ := target.Attr(name)
	return strings.TrimSpace(v)
}
