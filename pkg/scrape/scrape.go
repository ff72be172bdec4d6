// Package scrape turns Georgian ski shop catalogs into unified snapshot
// rows. Each shop gets its own Scraper; everything downstream (diffing,
// the catalog store) only ever sees the unified rows.
package scrape

import (
	"fmt"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gkhutsishvili/skitrack/internal/utils"
	"github.com/gkhutsishvili/skitrack/pkg/snapshot"
)

// Default bounds for an adult ski; anything outside is a boot size, a
// waist width or a price that leaked into the size field.
const (
	DefaultMinLengthCM = 100
	DefaultMaxLengthCM = 210
)

// Product is one scraped catalog item before length fan-out. Sizes holds
// the raw size strings exactly as the shop renders them.
type Product struct {
	Shop         string
	Brand        string
	Model        string
	Condition    string
	CurrentPrice *float64
	OldPrice     *float64
	Sizes        []string
	URL          string
}

// Options tunes a scrape run.
type Options struct {
	// FirstPageOnly limits every category to its first page. Used for
	// quick smoke runs against the live sites.
	FirstPageOnly bool

	// MinLengthCM and MaxLengthCM bound the lengths accepted during
	// fan-out; zero means the default adult-ski range.
	MinLengthCM int
	MaxLengthCM int
}

// bounds returns the effective length range.
func (o Options) bounds() (int, int) {
	min, max := o.MinLengthCM, o.MaxLengthCM
	if min <= 0 {
		min = DefaultMinLengthCM
	}
	if max <= 0 {
		max = DefaultMaxLengthCM
	}
	return min, max
}

// Scraper is one shop's catalog walker.
type Scraper interface {
	Shop() string
	Scrape(client *http.Client, opts Options) ([]Product, error)
}

// Registry returns the scrapers by their short CLI names.
func Registry() map[string]Scraper {
	return map[string]Scraper{
		"xtreme":     xtremeScraper{},
		"snowmania":  snowmaniaScraper{},
		"megasport":  megasportScraper{},
		"burosports": burosportsScraper{},
	}
}

// ShopNames returns the registry keys in stable order.
func ShopNames() []string {
	reg := Registry()
	names := make([]string, 0, len(reg))
	for name := range reg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run scrapes the named shops and returns the unified rows of all their
// products. A shop that fails is reported and skipped; the remaining
// shops still contribute.
func Run(names []string, opts Options) []snapshot.Row {
	reg := Registry()
	client := newClient()

	var rows []snapshot.Row
	for _, name := range names {
		s, ok := reg[name]
		if !ok {
			utils.Log.Errorf("unknown shop %q, skipping", name)
			continue
		}
		utils.Log.Infof("scraping %s ...", s.Shop())
		products, err := s.Scrape(client, opts)
		if err != nil {
			utils.Log.Errorf("%s: %v", s.Shop(), err)
			continue
		}
		count := 0
		for _, p := range products {
			r := UnifiedRows(p, opts)
			rows = append(rows, r...)
			count += len(r)
		}
		utils.Log.Infof("%s: %d products, %d rows", s.Shop(), len(products), count)
	}
	return rows
}

var threeDigitRe = regexp.MustCompile(`\b(\d{3})\b`)

// UnifiedRows fans a product out into one row per detected length.
// Lengths come from the size strings; when none parse, a 3-digit number
// in the model name is tried; when that fails too the product still
// yields one row with an unknown length.
func UnifiedRows(p Product, opts Options) []snapshot.Row {
	min, max := opts.bounds()
	lengths := parseLengths(p.Sizes, min, max)
	if len(lengths) == 0 {
		if m := threeDigitRe.FindString(p.Model); m != "" {
			if l, err := strconv.Atoi(m); err == nil && l >= min && l <= max {
				lengths = []int{l}
			}
		}
	}

	base := snapshot.Row{
		Shop:      p.Shop,
		Brand:     p.Brand,
		Model:     p.Model,
		Condition: snapshot.NormalizeCondition(p.Condition),
		OrigPrice: p.OldPrice,
		Price:     p.CurrentPrice,
		URL:       p.URL,
	}
	if len(lengths) == 0 {
		return []snapshot.Row{base}
	}

	rows := make([]snapshot.Row, 0, len(lengths))
	for _, l := range lengths {
		r := base
		v := float64(l)
		r.LengthCM = &v
		rows = append(rows, r)
	}
	return rows
}

var digitsRe = regexp.MustCompile(`\d+`)

// parseLengths extracts plausible ski lengths from raw size strings like
// "185", "185cm" or "176 სმ", deduplicated in first-seen order.
func parseLengths(sizes []string, min, max int) []int {
	var out []int
	seen := map[int]bool{}
	for _, s := range sizes {
		for _, chunk := range digitsRe.FindAllString(s, -1) {
			if len(chunk) < 2 {
				continue
			}
			l, err := strconv.Atoi(chunk)
			if err != nil || l < min || l > max || seen[l] {
				continue
			}
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

var numberRe = regexp.MustCompile(`[\d.,]+`)

// parsePriceText extracts a numeric price from shop text like
// "1,700.00 ₾" or "999₾". Comma is a thousands separator when a dot is
// also present, a decimal separator otherwise.
func parsePriceText(text string) *float64 {
	m := numberRe.FindString(text)
	if m == "" {
		return nil
	}
	m = strings.Trim(m, ".,")
	if strings.Contains(m, ".") {
		m = strings.ReplaceAll(m, ",", "")
	} else {
		m = strings.ReplaceAll(m, ",", ".")
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// twoPrices interprets a list of price candidates: when the first is
// higher than the last the shop shows a discount (old, current);
// otherwise only the current price is known.
func twoPrices(nums []*float64) (old, current *float64) {
	var vals []float64
	for _, n := range nums {
		if n != nil {
			vals = append(vals, *n)
		}
	}
	switch {
	case len(vals) == 0:
		return nil, nil
	case len(vals) == 1:
		return nil, &vals[0]
	case vals[0] > vals[len(vals)-1]:
		return &vals[0], &vals[len(vals)-1]
	default:
		return nil, &vals[len(vals)-1]
	}
}

func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(href, "/")
}

func pageURL(base string, page int) string {
	if page <= 1 {
		return base
	}
	return fmt.Sprintf("%s?page=%d", base, page)
}
