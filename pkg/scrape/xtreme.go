package scrape

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/gkhutsishvili/skitrack/internal/utils"
)

// xtreme.ge runs an Odoo storefront: product cards live in div.oe_product
// on the category pages, pagination is ?page=N and the shop keeps serving
// the last page for any higher page number, so the walk stops as soon as
// a page adds no new links.
type xtremeScraper struct{}

const (
	xtremeShop        = "xtreme.ge"
	xtremeCategoryURL = "https://www.xtreme.ge/en/shop/category/ski-skis-2"
)

func (xtremeScraper) Shop() string { return xtremeShop }

func (s xtremeScraper) Scrape(client *http.Client, opts Options) ([]Product, error) {
	links, err := s.collectProductLinks(client, opts)
	if err != nil {
		return nil, err
	}

	var products []Product
	for _, link := range links {
		doc, err := fetchDocument(client, link)
		if err != nil {
			utils.Log.Warnf("%s: %v", xtremeShop, err)
			continue
		}
		if p, ok := s.parseProduct(doc, link); ok {
			products = append(products, p)
		}
		time.Sleep(300 * time.Millisecond)
	}
	return products, nil
}

func (xtremeScraper) collectProductLinks(client *http.Client, opts Options) ([]string, error) {
	seen := map[string]bool{}

	for page := 1; ; page++ {
		url := pageURL(xtremeCategoryURL, page)
		utils.Log.Debugf("%s: fetch page %d", xtremeShop, page)

		doc, err := fetchDocument(client, url)
		if err != nil {
			if errors.Is(err, errNotFound) {
				break
			}
			if page == 1 {
				return nil, err
			}
			utils.Log.Warnf("%s: page %d: %v", xtremeShop, page, err)
			break
		}

		added := 0
		doc.Find("div.oe_product").Each(func(_ int, card *goquery.Selection) {
			a := card.Find("a.oe_product_image_link").First()
			if a.Length() == 0 {
				a = card.Find("h6.o_wsale_products_item_title a").First()
			}
			href, ok := a.Attr("href")
			if !ok || href == "" {
				return
			}
			link := absoluteURL("https://www.xtreme.ge", href)
			if !seen[link] {
				seen[link] = true
				added++
			}
		})

		if added == 0 || opts.FirstPageOnly {
			break
		}
		time.Sleep(time.Second)
	}

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	utils.Log.Infof("%s: %d product links", xtremeShop, len(links))
	return links, nil
}

func (xtremeScraper) parseProduct(doc *goquery.Document, url string) (Product, bool) {
	title := strings.TrimSpace(doc.Find("h1.o_wsale_product_page_title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		utils.Log.Warnf("%s: no title on %s", xtremeShop, url)
		return Product{}, false
	}

	brand := strings.TrimSpace(doc.Find(".brand-name-detail span").First().Text())
	model := title
	if brand != "" {
		model = strings.TrimSpace(strings.TrimPrefix(title, brand))
	} else {
		brand, model = SplitTitle(title)
	}

	current := parsePriceText(doc.Find(".product_price .oe_price .oe_currency_value").First().Text())
	old := parsePriceText(doc.Find(".product_price .oe_default_price .oe_currency_value").First().Text())
	if current == nil {
		utils.Log.Warnf("%s: no price on %s", xtremeShop, url)
		return Product{}, false
	}
	if old != nil && *old <= *current {
		old = nil
	}

	var sizes []string
	doc.Find("ul.js_add_cart_variants li label").Each(func(_ int, s *goquery.Selection) {
		if v := strings.TrimSpace(s.Text()); v != "" {
			sizes = append(sizes, v)
		}
	})

	return Product{
		Shop:         xtremeShop,
		Brand:        brand,
		Model:        model,
		Condition:    "new",
		CurrentPrice: current,
		OldPrice:     old,
		Sizes:        sizes,
		URL:          url,
	}, true
}
