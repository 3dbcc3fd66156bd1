package base

import (
	"encoding/json"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/utils"
	"golang.org/x/net/html"
)

// MetaContent returns the first non-empty content of a meta tag matched by
// property or name, trying keys in order.
func MetaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		if vals := MetaContents(doc, key); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

// FirstMetaContent returns the content of the earliest meta tag in document
// order matching any of keys.
func FirstMetaContent(doc *goquery.Document, keys ...string) string {
	var found string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		prop, _ := s.Attr("property")
		name, _ := s.Attr("name")
		if !slices.Contains(keys, prop) && !slices.Contains(keys, name) {
			return true
		}
		found = strings.TrimSpace(s.AttrOr("content", ""))
		return found == ""
	})
	return found
}

// MetaContents returns every non-empty content for one meta key, in document order.
func MetaContents(doc *goquery.Document, key string) []string {
	var out []string
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		name, _ := s.Attr("name")
		if prop != key && name != key {
			return
		}
		if content := strings.TrimSpace(s.AttrOr("content", "")); content != "" {
			out = append(out, content)
		}
	})
	return out
}

// MetaPrice reads product:price:amount and product:price:currency.
// The result is raw and still needs utils.NormalizePrice.
func MetaPrice(doc *goquery.Document) string {
	amount := MetaContent(doc, "product:price:amount")
	if amount == "" {
		return ""
	}
	currency := MetaContent(doc, "product:price:currency")
	if v, ok := utils.AnyToFloat(amount); ok {
		return utils.FormatAmount(v, currency)
	}
	if sym, ok := utils.CurrencySymbol(currency); ok {
		return sym + amount
	}
	return amount + " " + currency
}

// NextData decodes the Next.js __NEXT_DATA__ blob, or returns nil.
func NextData(doc *goquery.Document) map[string]any {
	raw := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())
	if raw == "" {
		return nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}
	return data
}

// Dig walks nested JSON objects by key. Missing keys and non-objects yield nil.
func Dig(v any, path ...string) any {
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

// DigMap is Dig for paths that should end in an object.
func DigMap(v any, path ...string) map[string]any {
	m, _ := Dig(v, path...).(map[string]any)
	return m
}

// DigString is Dig for paths that should end in a non-empty string.
func DigString(v any, path ...string) string {
	s, _ := Dig(v, path...).(string)
	return strings.TrimSpace(s)
}

// FirstObject returns the first element of a JSON array when it is an object.
func FirstObject(v any) map[string]any {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return nil
	}
	m, _ := arr[0].(map[string]any)
	return m
}

// JSONLDObjects decodes every ld+json script, flattening top-level arrays and @graph.
func JSONLDObjects(doc *goquery.Document) []map[string]any {
	var out []map[string]any
	var collect func(v any)
	collect = func(v any) {
		switch t := v.(type) {
		case []any:
			for _, item := range t {
				collect(item)
			}
		case map[string]any:
			out = append(out, t)
			if graph, ok := t["@graph"]; ok {
				collect(graph)
			}
		}
	}
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err == nil {
			collect(v)
		}
	})
	return out
}

// JSONLDProduct returns the first schema.org Product, or nil.
func JSONLDProduct(doc *goquery.Document) map[string]any {
	for _, obj := range JSONLDObjects(doc) {
		if hasType(obj["@type"], "Product") {
			return obj
		}
	}
	return nil
}

func hasType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, want) {
				return true
			}
		}
	}
	return false
}

// JSONLDImage pulls the first image URL out of a Product. Image may be a
// string, a list, or an ImageObject.
func JSONLDImage(product map[string]any) string {
	switch img := product["image"].(type) {
	case string:
		return strings.TrimSpace(img)
	case []any:
		for _, item := range img {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
			if m, ok := item.(map[string]any); ok {
				if s := DigString(m, "url"); s != "" {
					return s
				}
			}
		}
	case map[string]any:
		return DigString(img, "url")
	}
	return ""
}

// JSONLDPrice pulls a raw price out of a Product's offers.
func JSONLDPrice(product map[string]any) string {
	var offer map[string]any
	switch o := product["offers"].(type) {
	case map[string]any:
		offer = o
	case []any:
		offer = FirstObject(o)
	}
	if offer == nil {
		return ""
	}
	amount, ok := utils.AnyToFloat(offer["price"])
	if !ok {
		amount, ok = utils.AnyToFloat(offer["lowPrice"])
	}
	if !ok {
		return ""
	}
	currency, _ := offer["priceCurrency"].(string)
	return utils.FormatAmount(amount, currency)
}

// ResolveReference makes ref absolute against the page it was found on.
func ResolveReference(pageURL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}

// ImgSource returns src, falling back to data-src for lazy-loaded images.
func ImgSource(s *goquery.Selection) string {
	if src := strings.TrimSpace(s.AttrOr("src", "")); src != "" {
		return src
	}
	return strings.TrimSpace(s.AttrOr("data-src", ""))
}

// LowestPrice returns the text of the cheapest element that mentions a
// currency symbol. Pages that show a struck-through original next to the
// sale price therefore resolve to the sale price, but so does any cheaper
// unrelated price on the page.
func LowestPrice(sel *goquery.Selection) string {
	best := ""
	var bestValue float64
	sel.Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !utils.HasCurrencySymbol(text) {
			return
		}
		v, ok := utils.ParseAmount(text)
		if !ok {
			return
		}
		if best == "" || v < bestValue {
			best, bestValue = text, v
		}
	})
	return best
}

const priceElements = `[data-testid*="price"], p[class*="price"], span[class*="price"], p[class*="Price"], span[class*="Price"]`

// DOMPrice is the last price tier: the lowest price-classed element.
func DOMPrice(doc *goquery.Document) string {
	return LowestPrice(doc.Find(priceElements))
}

// ProductImage is the last photo tier: an img whose class mentions
// "product", else one whose src mentions "product" or "item".
func ProductImage(doc *goquery.Document) string {
	src := ""
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(img.AttrOr("class", "")), "product") {
			src = ImgSource(img)
		}
		return src == ""
	})
	if src != "" {
		return src
	}

	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		candidate := ImgSource(img)
		lower := strings.ToLower(candidate)
		if strings.Contains(lower, "product") || strings.Contains(lower, "item") {
			src = candidate
		}
		return src == ""
	})
	return src
}

// PageLines returns the visible text of the page, one trimmed non-empty line per entry.
func PageLines(doc *goquery.Document) []string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
