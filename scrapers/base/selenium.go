package base

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

// SeleniumFetcher drives a locally spawned chromedriver. Ports come from a
// PortManager so concurrent fetches never collide.
type SeleniumFetcher struct {
	DriverPath string
	UserAgent  string
	Timeout    time.Duration
	Settle     time.Duration
	Ports      *PortManager
}

func (s *SeleniumFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	doc, _, err := s.render(ctx, url, false)
	return doc, err
}

func (s *SeleniumFetcher) Snapshot(ctx context.Context, url string) (*goquery.Document, []byte, error) {
	return s.render(ctx, url, true)
}

func (s *SeleniumFetcher) render(ctx context.Context, url string, screenshot bool) (*goquery.Document, []byte, error) {
	port, release, err := s.Ports.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	service, err := selenium.NewChromeDriverService(s.DriverPath, port)
	if err != nil {
		return nil, nil, fmt.Errorf("start chromedriver on port %d: %w", port, err)
	}
	defer service.Stop()

	caps := selenium.Capabilities{"browserName": "chrome"}
	chromeCaps := chrome.Capabilities{
		Args: []string{
			"--headless=new",
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
			"--disable-extensions",
			"--disable-gpu",
			"--window-size=1920,1080",
			fmt.Sprintf("--user-agent=%s", s.UserAgent),
		},
		ExcludeSwitches: []string{"enable-automation"},
		Prefs: map[string]interface{}{
			"profile.default_content_setting_values.notifications": 2,
		},
	}
	caps.AddChrome(chromeCaps)

	driver, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d", port))
	if err != nil {
		return nil, nil, fmt.Errorf("create webdriver session: %w", err)
	}
	defer driver.Quit()

	timeout := s.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	driver.SetPageLoadTimeout(timeout)

	if err := driver.Get(url); err != nil {
		return nil, nil, fmt.Errorf("navigation error: %w", err)
	}

	err = driver.WaitWithTimeout(func(wd selenium.WebDriver) (bool, error) {
		_, err := wd.FindElement(selenium.ByTagName, "body")
		return err == nil, nil
	}, timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("body never appeared: %w", err)
	}

	select {
	case <-time.After(s.Settle):
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	html, err := driver.PageSource()
	if err != nil {
		return nil, nil, fmt.Errorf("page source error: %w", err)
	}

	var shot []byte
	if screenshot {
		if shot, err = driver.Screenshot(); err != nil {
			return nil, nil, fmt.Errorf("screenshot error: %w", err)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, err
	}
	return doc, shot, nil
}
