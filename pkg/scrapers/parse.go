package scrapers

import (
	"strconv"
	"strings"

	"card-hunter/pkg/models"

	"golang.org/x/text/unicode/norm"
)

var soldOutMarkers = []string{"在庫なし", "売り切れ", "品切れ", "SOLD OUT", "在庫切れ"}

// ParsePrice folds text to NFKC, strips everything but digits and parses
// the rest as yen. Zero is rejected unless zeroIsSentinel is set, in which
// case it is kept to mean "contact the shop".
func ParsePrice(shopID, text string, zeroIsSentinel bool) (int, error) {
	digits := onlyDigits(norm.NFKC.String(text))
	if digits == "" {
		return 0, &models.ValidationError{ShopID: shopID, Field: "price", Value: text, Reason: "no digits"}
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, &models.ValidationError{ShopID: shopID, Field: "price", Value: text, Reason: "not a number"}
	}
	if v == 0 && !zeroIsSentinel {
		return 0, &models.ValidationError{ShopID: shopID, Field: "price", Value: text, Reason: "zero price"}
	}
	return v, nil
}

// ParseStock reads a stock label such as "在庫: 2" or "売り切れ".
// A label without digits or sold-out markers counts as in stock.
func ParseStock(text string) models.Stock {
	folded := strings.TrimSpace(norm.NFKC.String(text))
	if folded == "" {
		return models.StockFromQuantity(nil)
	}
	upper := strings.ToUpper(folded)
	for _, m := range soldOutMarkers {
		if strings.Contains(upper, m) {
			zero := 0
			return models.StockFromQuantity(&zero)
		}
	}
	run := firstDigitRun(folded)
	if run == "" {
		return models.StockFromQuantity(nil)
	}
	qty, err := strconv.Atoi(run)
	if err != nil {
		return models.StockFromQuantity(nil)
	}
	return models.StockFromQuantity(&qty)
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func firstDigitRun(s string) string {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return ""
	}
	end := strings.IndexFunc(s[start:], func(r rune) bool { return !isDigit(r) })
	if end < 0 {
		return s[start:]
	}
	return s[start : start+end]
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
