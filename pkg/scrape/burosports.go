package scrape

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gkhutsishvili/skitrack/internal/utils"
)

// burusports.ge lists prices only on the category cards; the product
// pages mix in a "Similar products" block whose prices would pollute
// parsing, so prices come from the listing text and the detail page only
// supplies model, brand and sizes. The catalog has no brand markup at
// all: brands are recovered from the shop's own brand-filter pages,
// falling back to a scan of the page <title>.
type burosportsScraper struct{}

const (
	burosportsShop        = "burusports.ge"
	burosportsBase        = "https://burusports.ge"
	burosportsCategoryURL = burosportsBase + "/en/products/tkhilamuri/tkhilamuri"
)

// Brand-filter views of the ski category; walking them once yields a
// model -> brand map for the brands the shop can filter by.
var burosportsBrandFilters = map[string]string{
	"Rossignol": burosportsCategoryURL + "?keyword=&sort=&discount=&brand%5B%5D=14",
	"Volkl":     burosportsCategoryURL + "?keyword=&sort=&discount=&brand%5B%5D=16",
	"Scott":     burosportsCategoryURL + "?keyword=&sort=&discount=&brand%5B%5D=7",
}

var burosportsPriceTokenRe = regexp.MustCompile(`^\d{3,4}$`)

func (burosportsScraper) Shop() string { return burosportsShop }

func (s burosportsScraper) Scrape(client *http.Client, opts Options) ([]Product, error) {
	brandByModel := s.brandModelMap(client, opts)

	var products []Product
	for page := 1; ; page++ {
		url := burosportsCategoryURL
		if page > 1 {
			url = fmt.Sprintf("%s?page=%d", burosportsCategoryURL, page)
		}
		utils.Log.Debugf("%s: fetch page %d", burosportsShop, page)

		doc, err := fetchDocument(client, url)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			utils.Log.Warnf("%s: page %d: %v", burosportsShop, page, err)
			break
		}

		cards := doc.Find("a.product-list-item")
		if cards.Length() == 0 {
			break
		}

		cards.Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || href == "" {
				return
			}
			link := absoluteURL(burosportsBase, href)
			old, current := burosportsListPrices(cardText(a))

			detail, err := fetchDocument(client, link)
			if err != nil {
				utils.Log.Warnf("%s: %v", burosportsShop, err)
				return
			}
			if p, ok := s.parseProduct(detail, link, old, current, brandByModel); ok {
				products = append(products, p)
			}
			time.Sleep(300 * time.Millisecond)
		})

		if opts.FirstPageOnly {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	return products, nil
}

// brandModelMap walks the brand-filter pages once and maps every listed
// model (normalized) to its brand. Failures here only cost brand
// attribution, never products.
func (burosportsScraper) brandModelMap(client *http.Client, opts Options) map[string]string {
	m := map[string]string{}
	for brand, base := range burosportsBrandFilters {
		for page := 1; ; page++ {
			url := base
			if page > 1 {
				url = fmt.Sprintf("%s&page=%d", base, page)
			}
			doc, err := fetchDocument(client, url)
			if err != nil {
				utils.Log.Warnf("%s: brand filter %s: %v", burosportsShop, brand, err)
				break
			}
			cards := doc.Find("a.product-list-item")
			if cards.Length() == 0 {
				break
			}
			cards.Each(func(_ int, a *goquery.Selection) {
				key := burosportsModelKey(burosportsCardModel(cardText(a)))
				if key == "" {
					return
				}
				if _, ok := m[key]; !ok {
					m[key] = brand
				}
			})
			if opts.FirstPageOnly {
				break
			}
			time.Sleep(200 * time.Millisecond)
		}
	}
	utils.Log.Infof("%s: brand map covers %d models", burosportsShop, len(m))
	return m
}

func (burosportsScraper) parseProduct(doc *goquery.Document, url string, old, current *float64, brandByModel map[string]string) (Product, bool) {
	model := strings.TrimSpace(doc.Find("h1.main-title").First().Text())
	if model == "" {
		utils.Log.Warnf("%s: no title on %s", burosportsShop, url)
		return Product{}, false
	}

	brand := brandByModel[burosportsModelKey(model)]
	if brand == "" {
		brand = detectBrand(doc.Find("title").First().Text())
	}

	if current == nil {
		current = old
	}
	if current == nil {
		utils.Log.Warnf("%s: no price on %s", burosportsShop, url)
		return Product{}, false
	}
	if old != nil && *old <= *current {
		old = nil
	}

	return Product{
		Shop:         burosportsShop,
		Brand:        brand,
		Model:        model,
		Condition:    "new",
		CurrentPrice: current,
		OldPrice:     old,
		Sizes:        burosportsSizes(doc),
		URL:          url,
	}, true
}

// cardText flattens a listing card to a single space-separated line,
// e.g. "Escaper 97 Nano 2800 1600".
func cardText(a *goquery.Selection) string {
	return strings.Join(strings.Fields(a.Text()), " ")
}

// burosportsCardModel strips the trailing price tokens (at most two 3-4
// digit numbers) off a card line, leaving the model name.
func burosportsCardModel(text string) string {
	tokens := strings.Fields(text)
	for removed := 0; len(tokens) > 0 && removed < 2; removed++ {
		if !burosportsPriceTokenRe.MatchString(tokens[len(tokens)-1]) {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// burosportsListPrices reads the price tokens of a card line: one number
// is the current price, two mean struck-through original first.
func burosportsListPrices(text string) (old, current *float64) {
	var nums []*float64
	for _, tok := range strings.Fields(text) {
		if burosportsPriceTokenRe.MatchString(tok) {
			nums = append(nums, parsePriceText(tok))
		}
	}
	return twoPrices(nums)
}

// burosportsModelKey normalizes a model name for brand-map lookup.
func burosportsModelKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// burosportsSizes pulls the size values out of the "Size:" block of a
// product page, cut off before the unrelated sections that follow it.
// Handles Georgian unit suffixes like "165სმ".
func burosportsSizes(doc *goquery.Document) []string {
	text := doc.Text()
	_, part, found := strings.Cut(text, "Size:")
	if !found {
		return nil
	}
	for _, stop := range []string{"Adult:", "Quantity:", "Add to cart", "Similar products"} {
		if before, _, ok := strings.Cut(part, stop); ok {
			part = before
		}
	}

	var sizes []string
	seen := map[string]bool{}
	for _, chunk := range digitsRe.FindAllString(part, -1) {
		if len(chunk) < 2 || len(chunk) > 3 || seen[chunk] {
			continue
		}
		seen[chunk] = true
		sizes = append(sizes, chunk)
	}
	return sizes
}
