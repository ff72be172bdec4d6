package scrape

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gkhutsishvili/skitrack/internal/utils"
)

// snowmania.ge is a WooCommerce shop with separate categories for new and
// used skis. Pagination is /page/N/ and a missing page 404s.
type snowmaniaScraper struct{}

const snowmaniaShop = "snowmania.ge"

var snowmaniaCategories = []struct {
	url       string
	condition string
}{
	{"https://snowmania.ge/product-category/%e1%83%90%e1%83%ae%e1%83%90%e1%83%9a%e1%83%98/%e1%83%97%e1%83%ae%e1%83%98%e1%83%9a%e1%83%90%e1%83%9b%e1%83%a3%e1%83%a0%e1%83%98/", "new"},
	{"https://snowmania.ge/product-category/%e1%83%9b%e1%83%94%e1%83%9d%e1%83%a0%e1%83%90%e1%83%93%e1%83%98/%e1%83%97%e1%83%ae%e1%83%98%e1%83%9a%e1%83%90%e1%83%9b%e1%83%a3%e1%83%a0%e1%83%98-%e1%83%9b%e1%83%94%e1%83%9d%e1%83%a0%e1%83%90%e1%83%93%e1%83%98/", "used"},
}

func (snowmaniaScraper) Shop() string { return snowmaniaShop }

func (s snowmaniaScraper) Scrape(client *http.Client, opts Options) ([]Product, error) {
	var products []Product
	seen := map[string]bool{}

	for _, cat := range snowmaniaCategories {
		for page := 1; ; page++ {
			url := snowmaniaPageURL(cat.url, page)
			utils.Log.Debugf("%s: category=%s page=%d", snowmaniaShop, cat.condition, page)

			doc, err := fetchDocument(client, url)
			if err != nil {
				if errors.Is(err, errNotFound) {
					break
				}
				if page == 1 {
					return nil, err
				}
				utils.Log.Warnf("%s: %v", snowmaniaShop, err)
				break
			}

			links := snowmaniaProductLinks(doc)
			if len(links) == 0 {
				break
			}

			for _, link := range links {
				if seen[link] {
					continue
				}
				seen[link] = true

				detail, err := fetchDocument(client, link)
				if err != nil {
					utils.Log.Warnf("%s: %v", snowmaniaShop, err)
					continue
				}
				if p, ok := s.parseProduct(detail, link, cat.condition); ok {
					products = append(products, p)
				}
				time.Sleep(300 * time.Millisecond)
			}

			if opts.FirstPageOnly {
				break
			}
			time.Sleep(time.Second)
		}
	}
	return products, nil
}

// snowmaniaPageURL builds the WooCommerce /page/N/ form; page 1 is the
// bare category URL.
func snowmaniaPageURL(category string, page int) string {
	base := strings.TrimSuffix(category, "/")
	if page <= 1 {
		return base + "/"
	}
	return fmt.Sprintf("%s/page/%d/", base, page)
}

// snowmaniaProductLinks pulls product links from a category page. The
// theme renders no ul.products list, so any heading link whose href
// contains /product/ counts.
func snowmaniaProductLinks(doc *goquery.Document) []string {
	var links []string
	seen := map[string]bool{}
	doc.Find("h2 a, h3 a").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(href, "/product/") {
			return
		}
		link := absoluteURL("https://snowmania.ge", href)
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	return links
}

func (snowmaniaScraper) parseProduct(doc *goquery.Document, url, condition string) (Product, bool) {
	title := strings.TrimSpace(doc.Find("h1.product_title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		utils.Log.Warnf("%s: no title on %s", snowmaniaShop, url)
		return Product{}, false
	}
	brand, model := SplitTitle(title)

	old, current := snowmaniaPrices(doc)
	if current == nil {
		utils.Log.Warnf("%s: no price on %s", snowmaniaShop, url)
		return Product{}, false
	}

	var sizes []string
	doc.Find("table.variations select option, form.variations_form select option").Each(func(_ int, o *goquery.Selection) {
		v := strings.TrimSpace(o.Text())
		if v != "" && !strings.EqualFold(v, "Choose an option") {
			sizes = append(sizes, v)
		}
	})
	if len(sizes) == 0 {
		sizes = []string{title}
	}

	return Product{
		Shop:         snowmaniaShop,
		Brand:        brand,
		Model:        model,
		Condition:    condition,
		CurrentPrice: current,
		OldPrice:     old,
		Sizes:        sizes,
		URL:          url,
	}, true
}

// snowmaniaPrices reads the WooCommerce price block: with a discount the
// block holds two amounts, struck-through original first.
func snowmaniaPrices(doc *goquery.Document) (old, current *float64) {
	var nums []*float64
	doc.Find("p.price .woocommerce-Price-amount bdi").Each(func(_ int, s *goquery.Selection) {
		nums = append(nums, parsePriceText(s.Text()))
	})
	if len(nums) == 0 {
		nums = append(nums, parsePriceText(doc.Find("p.price").First().Text()))
	}
	return twoPrices(nums)
}
