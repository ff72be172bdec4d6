package scrape

import (
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/gkhutsishvili/skitrack/internal/utils"
)

// megasport.ge is a Next.js site: the rendered HTML is sparse but every
// page embeds its full state as JSON in #__NEXT_DATA__, so the product
// data comes from there and the HTML is only a fallback.
type megasportScraper struct{}

const (
	megasportShop        = "megasport.ge"
	megasportBase        = "https://megasport.ge"
	megasportCategoryURL = megasportBase + "/category/skiing"
)

var gelPriceRe = regexp.MustCompile(`([\d.,]+)\s*₾`)

func (megasportScraper) Shop() string { return megasportShop }

func (s megasportScraper) Scrape(client *http.Client, opts Options) ([]Product, error) {
	doc, err := fetchDocument(client, megasportCategoryURL)
	if err != nil {
		return nil, err
	}

	links := megasportProductLinks(doc)
	utils.Log.Infof("%s: %d product links", megasportShop, len(links))
	if opts.FirstPageOnly && len(links) > 10 {
		links = links[:10]
	}

	var products []Product
	for _, link := range links {
		detail, err := fetchDocument(client, link)
		if err != nil {
			utils.Log.Warnf("%s: %v", megasportShop, err)
			continue
		}
		if p, ok := s.parseProduct(detail, link); ok {
			products = append(products, p)
		}
		time.Sleep(300 * time.Millisecond)
	}
	return products, nil
}

// megasportProductLinks collects /products/ links; the skiing category is
// a single page.
func megasportProductLinks(doc *goquery.Document) []string {
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "/products/") {
			return
		}
		seen[absoluteURL(megasportBase, href)] = true
	})

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links
}

func (s megasportScraper) parseProduct(doc *goquery.Document, url string) (Product, bool) {
	if p, ok := s.parseNextData(doc, url); ok {
		return p, true
	}
	return s.parseHTML(doc, url)
}

// parseNextData reads the product out of the embedded Next.js state.
func (megasportScraper) parseNextData(doc *goquery.Document, url string) (Product, bool) {
	raw := doc.Find("#__NEXT_DATA__").First().Text()
	if raw == "" {
		return Product{}, false
	}

	product := gjson.Get(raw, "props.pageProps.product")
	if !product.Exists() {
		return Product{}, false
	}

	title := strings.TrimSpace(product.Get("name").String())
	if title == "" {
		return Product{}, false
	}
	brand, model := SplitTitle(title)

	var current, old *float64
	if v := product.Get("price"); v.Exists() && v.Float() > 0 {
		f := v.Float()
		current = &f
	}
	if v := product.Get("old_price"); v.Exists() && v.Float() > 0 {
		f := v.Float()
		old = &f
	}
	if current == nil {
		return Product{}, false
	}
	if old != nil && *old <= *current {
		old = nil
	}

	var sizes []string
	product.Get("sizes.#.name").ForEach(func(_, v gjson.Result) bool {
		if s := strings.TrimSpace(v.String()); s != "" {
			sizes = append(sizes, s)
		}
		return true
	})

	return Product{
		Shop:         megasportShop,
		Brand:        brand,
		Model:        model,
		Condition:    "new",
		CurrentPrice: current,
		OldPrice:     old,
		Sizes:        sizes,
		URL:          url,
	}, true
}

// parseHTML is the fallback for pages without usable embedded state:
// heading plus the GEL amounts in document order.
func (megasportScraper) parseHTML(doc *goquery.Document, url string) (Product, bool) {
	title := strings.TrimSpace(doc.Find("h2.text-heading").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1, h2").First().Text())
	}
	if title == "" {
		utils.Log.Warnf("%s: no title on %s", megasportShop, url)
		return Product{}, false
	}
	brand, model := SplitTitle(title)

	var nums []*float64
	for _, m := range gelPriceRe.FindAllStringSubmatch(doc.Text(), -1) {
		nums = append(nums, parsePriceText(m[1]))
	}
	old, current := twoPrices(nums)
	if current == nil {
		utils.Log.Warnf("%s: no price on %s", megasportShop, url)
		return Product{}, false
	}

	var sizes []string
	doc.Find("ul.colors li").Each(func(_ int, li *goquery.Selection) {
		if v := strings.TrimSpace(li.Text()); v != "" {
			sizes = append(sizes, v)
		}
	})

	return Product{
		Shop:         megasportShop,
		Brand:        brand,
		Model:        model,
		Condition:    "new",
		CurrentPrice: current,
		OldPrice:     old,
		Sizes:        sizes,
		URL:          url,
	}, true
}
