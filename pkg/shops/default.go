package shops

import (
	"card-hunter/pkg/models"
	"card-hunter/pkg/scrapers"
	"card-hunter/pkg/scrapers/bigweb"
	"card-hunter/pkg/scrapers/cardrush"
	"card-hunter/pkg/scrapers/ecbeing"
	"card-hunter/pkg/scrapers/hareruya"
	"card-hunter/pkg/scrapers/storefront"
	"card-hunter/pkg/scrapers/surugaya"
	"card-hunter/pkg/scrapers/yuyutei"
	"card-hunter/pkg/scrapers/zencart"
)

// Default lists every supported shop in display order.
var Default = []models.Shop{
	{ID: "cardrush", Name: "カードラッシュ", BaseURL: "https://www.cardrush-pokemon.jp", SearchURL: "https://www.cardrush-pokemon.jp/product-list?keyword={query}"},
	{ID: "surugaya", Name: "駿河屋", BaseURL: "https://www.suruga-ya.jp", SearchURL: "https://www.suruga-ya.jp/search?category=1&search_word={query}"},
	{ID: "hareruya", Name: "晴れる屋", BaseURL: "https://www.hareruya2.com", SearchURL: "https://www.hareruya2.com/search/q={query}"},
	{ID: "toretoku", Name: "トレトク", BaseURL: "https://www.toretoku.jp", SearchURL: "https://www.toretoku.jp/items/search?q={query}"},
	{ID: "yuyutei", Name: "遊々亭", BaseURL: "https://yuyu-tei.jp", SearchURL: "https://yuyu-tei.jp/game_poc/sell/sell_price.php?name={query}"},
	{ID: "kanabell", Name: "カーナベル", BaseURL: "https://www.ka-nabell.com", SearchURL: "https://www.ka-nabell.com/search?q={query}"},
	{ID: "tcgshop193", Name: "TCGshop193", BaseURL: "https://tcgshop193.com/", SearchURL: "https://tcgshop193.com/index.php?main_page=advanced_search_result&keyword={query}"},
	{ID: "bigweb", Name: "Bigweb", BaseURL: "https://www.bigweb.co.jp", SearchURL: "https://www.bigweb.co.jp/ver2/pokemon_list.php?search={query}"},
	{ID: "fullahead", Name: "フルアヘッド", BaseURL: "https://www.fullahead.jp", SearchURL: "https://www.fullahead.jp/search/index?keyword={query}"},
	{ID: "mercard", Name: "メルカード", BaseURL: "https://www.mercard.jp", SearchURL: "https://www.mercard.jp/search?q={query}"},
	{ID: "fukufuku", Name: "ふくふくトレカ", BaseURL: "https://fukufuku-trading.com", SearchURL: "https://fukufuku-trading.com/products/search?q={query}"},
	{ID: "torecajapan", Name: "トレカジパング", BaseURL: "https://www.torecajapan.com", SearchURL: "https://www.torecajapan.com/products/search?q={query}"},
	{ID: "cardlabo", Name: "カードラボ", BaseURL: "https://www.c-labo-online.jp", SearchURL: "https://www.c-labo-online.jp/product-list?keyword={query}"},
	{ID: "torecolo", Name: "トレコロ", BaseURL: "https://www.torecolo.jp", SearchURL: "https://www.torecolo.jp/shop/goods/search.aspx?keyword={query}"},
	{ID: "hanjou", Name: "はんじょう", BaseURL: "https://www.cardshop-hanjou.jp", SearchURL: "https://www.cardshop-hanjou.jp/products/search?q={query}"},
	{ID: "minny", Name: "minny", BaseURL: "https://www.minny.jp", SearchURL: "https://www.minny.jp/products/search?q={query}"},
	{ID: "serra", Name: "セラ", BaseURL: "https://www.serra.jp", SearchURL: "https://www.serra.jp/product-list?keyword={query}"},
	{ID: "cardmax", Name: "カードマックス", BaseURL: "https://www.cardmax.jp", SearchURL: "https://www.cardmax.jp/shop/goods/search.aspx?keyword={query}"},
}

// adapters maps shop ids to the layout family that parses them.
var adapters = map[string]func(scrapers.Options) scrapers.Scraper{
	"cardrush":    static(cardrush.NewScraper),
	"cardlabo":    static(cardrush.NewScraper),
	"serra":       static(cardrush.NewScraper),
	"surugaya":    static(surugaya.NewScraper),
	"hareruya":    static(hareruya.NewScraper),
	"yuyutei":     static(yuyutei.NewScraper),
	"toretoku":    static(storefront.NewScraper),
	"kanabell":    static(storefront.NewScraper),
	"fullahead":   static(storefront.NewScraper),
	"mercard":     static(storefront.NewScraper),
	"fukufuku":    static(storefront.NewScraper),
	"torecajapan": static(storefront.NewScraper),
	"hanjou":      static(storefront.NewScraper),
	"minny":       static(storefront.NewScraper),
	"torecolo":    static(ecbeing.NewScraper),
	"cardmax":     static(ecbeing.NewScraper),
	"tcgshop193":  static(zencart.NewScraper),
	"bigweb": func(opts scrapers.Options) scrapers.Scraper {
		return bigweb.NewScraper(opts)
	},
}

func static(newScraper func(scrapers.Options) *scrapers.StaticScraper) func(scrapers.Options) scrapers.Scraper {
	return func(opts scrapers.Options) scrapers.Scraper {
		return newScraper(opts)
	}
}

// Bind pairs each shop with its adapter. Shops without a known adapter get
// a nil Scraper, which NewRegistry rejects.
func Bind(list []models.Shop, opts scrapers.Options) []Entry {
	entries := make([]Entry, 0, len(list))
	for _, s := range list {
		e := Entry{Shop: s}
		if newScraper, ok := adapters[s.ID]; ok {
			e.Scraper = newScraper(opts)
		}
		entries = append(entries, e)
	}
	return entries
}

// NewDefault builds the registry of all supported shops.
func NewDefault(opts scrapers.Options) (*Registry, error) {
	return NewRegistry(Bind(Default, opts)...)
}
