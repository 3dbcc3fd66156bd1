package base

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromeDPFetcher renders pages in headless Chrome. Each call owns its own
// allocator and tab, and both are torn down before it returns.
type ChromeDPFetcher struct {
	UserAgent string
	Timeout   time.Duration
	Settle    time.Duration
}

var browserHeaders = map[string]interface{}{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
}

func (c *ChromeDPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	doc, _, err := c.render(ctx, url, false)
	return doc, err
}

func (c *ChromeDPFetcher) Snapshot(ctx context.Context, url string) (*goquery.Document, []byte, error) {
	return c.render(ctx, url, true)
}

func (c *ChromeDPFetcher) render(ctx context.Context, url string, screenshot bool) (*goquery.Document, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.NoSandbox,
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(c.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	if err := chromedp.Run(taskCtx, network.SetExtraHTTPHeaders(network.Headers(browserHeaders))); err != nil {
		return nil, nil, fmt.Errorf("chromedp header error: %w", err)
	}

	var htmlContent string
	var shot []byte
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(c.Settle),
		chromedp.OuterHTML("html", &htmlContent),
	}
	if screenshot {
		actions = append(actions, chromedp.FullScreenshot(&shot, 90))
	}

	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return nil, nil, fmt.Errorf("chromedp navigation error: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, nil, fmt.Errorf("chromedp parse error: %w", err)
	}
	return doc, shot, nil
}
