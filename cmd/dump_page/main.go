// Command dump_page prints every image reference a listing page exposes.
// Use it to work out where a marketplace keeps its product photo.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/config"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
	"github.com/raushankrgupta/listing-poster/utils"
)

var imageExts = []string{".jpg", ".jpeg", ".png", ".webp"}

func main() {
	static := flag.Bool("static", false, "fetch with plain HTTP instead of a headless browser")
	flag.Parse()

	url := "https://www.mercari.com/us/item/m15360818077/"
	if flag.NArg() > 0 {
		url = flag.Arg(0)
	}

	cfg := config.Load()
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	var fetcher base.PageFetcher = base.NewBrowserFetcher(cfg)
	if *static {
		fetcher = base.NewHTTPFetcher(cfg.UserAgent, cfg.HTTPTimeout)
	}

	doc, err := fetcher.Fetch(context.Background(), url)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", url, err)
	}
	dump(os.Stdout, doc)
}

func dump(w io.Writer, doc *goquery.Document) {
	fmt.Fprintln(w, "=== og:image ===")
	fmt.Fprintln(w, base.MetaContent(doc, "og:image"))

	fmt.Fprintln(w, "\n=== All meta tags with image/photo ===")
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		if !looksLikeImage(s.AttrOr("content", "")) {
			return
		}
		var attrs []string
		for _, a := range s.Nodes[0].Attr {
			attrs = append(attrs, fmt.Sprintf("%s=%q", a.Key, a.Val))
		}
		fmt.Fprintf(w, "  %s\n", strings.Join(attrs, " "))
	})

	fmt.Fprintln(w, "\n=== img tags (first 15) ===")
	doc.Find("img").Slice(0, min(15, doc.Find("img").Length())).Each(func(_ int, s *goquery.Selection) {
		fmt.Fprintf(w, "  src=%s  alt=%s\n", truncate(s.AttrOr("src", ""), 120), truncate(s.AttrOr("alt", ""), 40))
	})

	fmt.Fprintln(w, "\n=== __NEXT_DATA__ image/photo keys ===")
	data := base.NextData(doc)
	if data == nil {
		fmt.Fprintln(w, "No __NEXT_DATA__ found")
	} else {
		findImages(w, data, "", 0)
	}

	fmt.Fprintln(w, "\n=== Scripts containing .jpg URLs ===")
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := max(strings.Index(text, ".jpg"), strings.Index(text, ".jpeg"))
		if idx < 0 {
			return true
		}
		start := max(0, idx-100)
		end := min(len(text), idx+50)
		fmt.Fprintf(w, "  ...%s...\n", text[start:end])
		return false
	})
}

// findImages prints string leaves that look like image URLs. Lists are
// sampled to their first three entries.
func findImages(w io.Writer, v any, path string, depth int) {
	if depth > 8 {
		return
	}
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p := path + "." + k
			if s, ok := t[k].(string); ok && looksLikeImage(s) {
				fmt.Fprintf(w, "  %s = %s\n", p, truncate(s, 120))
			}
			findImages(w, t[k], p, depth+1)
		}
	case []any:
		for i, item := range t[:min(3, len(t))] {
			findImages(w, item, fmt.Sprintf("%s[%d]", path, i), depth+1)
		}
	}
}

func looksLikeImage(s string) bool {
	for _, ext := range imageExts {
		if strings.Contains(s, ext) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
