package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func TestBurosportsCardModel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Escaper 97 Nano 2800 1600", "Escaper 97 Nano"},
		{"SUPER VIRAGE VI TECH KONECT 2800", "SUPER VIRAGE VI TECH KONECT"},
		{"Blaze 94 Grey/Red 2100", "Blaze 94 Grey/Red"},
		{"No Price Card", "No Price Card"},
	}
	for _, c := range cases {
		if got := burosportsCardModel(c.in); got != c.want {
			t.Errorf("burosportsCardModel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBurosportsListPrices(t *testing.T) {
	old, current := burosportsListPrices("Escaper 97 Nano 2800 1600")
	if old == nil || *old != 2800 {
		t.Fatalf("old = %v, want 2800", old)
	}
	if current == nil || *current != 1600 {
		t.Fatalf("current = %v, want 1600", current)
	}

	old, current = burosportsListPrices("SUPER VIRAGE VI TECH KONECT 2800")
	if old != nil {
		t.Fatalf("single price must have no original, got %v", *old)
	}
	if current == nil || *current != 2800 {
		t.Fatalf("current = %v, want 2800", current)
	}

	old, current = burosportsListPrices("Escaper 97 Nano")
	if old != nil || current != nil {
		t.Fatalf("expected no prices, got %v / %v", old, current)
	}
}

func TestBurosportsModelKey(t *testing.T) {
	if got := burosportsModelKey("  Escaper   97 Nano "); got != "escaper 97 nano" {
		t.Fatalf("burosportsModelKey = %q", got)
	}
}

func TestBurosportsSizes(t *testing.T) {
	html := `<html><body><div>
	Size: <a>165სმ</a> <a>172სმ</a> <a>165სმ</a>
	Quantity: 1
	Similar products 180 190
	</div></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	got := burosportsSizes(doc)
	want := []string{"165", "172"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("burosportsSizes = %v, want %v", got, want)
	}
}

func TestBurosportsSizesNoBlock(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>no sizes here</body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	if got := burosportsSizes(doc); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestDetectBrand(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Blaze 94 Grey/Red | Völkl | Buru Sports", "Volkl"},
		{"SCO Ski Superguide Freetour - Scott", "Scott"},
		{"Black Crows Camox Birdie", "Black Crows"},
		{"Some Unbranded Product", ""},
	}
	for _, c := range cases {
		if got := detectBrand(c.in); got != c.want {
			t.Errorf("detectBrand(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBurosportsRegistered(t *testing.T) {
	s, ok := Registry()["burosports"]
	if !ok {
		t.Fatal("burosports missing from registry")
	}
	if s.Shop() != "burusports.ge" {
		t.Fatalf("shop code = %q", s.Shop())
	}
}

func TestBurosportsParseProduct(t *testing.T) {
	html := `<html><head><title>Escaper 97 Nano | Buru Sports</title></head><body>
	<h1 class="main-title">Escaper 97 Nano</h1>
	<div>Size: <a>170სმ</a> <a>178სმ</a> Quantity: 1</div>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	old, current := 2800.0, 1600.0
	brandMap := map[string]string{"escaper 97 nano": "Rossignol"}
	p, ok := burosportsScraper{}.parseProduct(doc, "https://burusports.ge/en/p/1", &old, &current, brandMap)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if p.Brand != "Rossignol" || p.Model != "Escaper 97 Nano" {
		t.Fatalf("brand/model wrong: %q / %q", p.Brand, p.Model)
	}
	if *p.CurrentPrice != 1600 || p.OldPrice == nil || *p.OldPrice != 2800 {
		t.Fatalf("prices wrong: %+v", p)
	}
	if len(p.Sizes) != 2 || p.Sizes[0] != "170" || p.Sizes[1] != "178" {
		t.Fatalf("sizes wrong: %v", p.Sizes)
	}
}

func TestBurosportsParseProductPriceFallback(t *testing.T) {
	html := `<html><head><title>Blaze 94 | Völkl</title></head><body>
	<h1 class="main-title">Blaze 94 Grey/Red</h1>
	</body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}

	// Only the listing's first number was present: it becomes the
	// current price, there is no discount.
	old := 2100.0
	p, ok := burosportsScraper{}.parseProduct(doc, "https://burusports.ge/en/p/2", &old, nil, nil)
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if p.CurrentPrice == nil || *p.CurrentPrice != 2100 || p.OldPrice != nil {
		t.Fatalf("price fallback wrong: %+v", p)
	}
	if p.Brand != "Volkl" {
		t.Fatalf("brand from title = %q, want Volkl", p.Brand)
	}
}
