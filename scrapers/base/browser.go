package base

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/config"
	"github.com/raushankrgupta/listing-poster/models"
)

// BrowserFetcher tries each rendering backend in order and returns the first
// page that loads. ChromeDP is the primary backend, Selenium the backup.
type BrowserFetcher struct {
	Backends []Snapshotter
	logger   *slog.Logger
}

// NewBrowserFetcher builds the ChromeDP then Selenium chain from config.
func NewBrowserFetcher(cfg *config.Config) *BrowserFetcher {
	return &BrowserFetcher{
		Backends: []Snapshotter{
			&ChromeDPFetcher{
				UserAgent: cfg.UserAgent,
				Timeout:   cfg.BrowserTimeout,
				Settle:    cfg.BrowserSettle,
			},
			&SeleniumFetcher{
				DriverPath: cfg.ChromeDriverPath,
				UserAgent:  cfg.UserAgent,
				Timeout:    cfg.BrowserTimeout,
				Settle:     cfg.BrowserSettle,
				Ports:      NewPortManager(cfg.SeleniumBasePort, 16),
			},
		},
		logger: slog.Default().With("component", "browser"),
	}
}

func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	doc, _, err := b.run(ctx, url, false)
	return doc, err
}

func (b *BrowserFetcher) Snapshot(ctx context.Context, url string) (*goquery.Document, []byte, error) {
	return b.run(ctx, url, true)
}

func (b *BrowserFetcher) run(ctx context.Context, url string, screenshot bool) (*goquery.Document, []byte, error) {
	var errs []error
	for i, backend := range b.Backends {
		var (
			doc  *goquery.Document
			shot []byte
			err  error
		)
		if screenshot {
			doc, shot, err = backend.Snapshot(ctx, url)
		} else {
			doc, err = backend.Fetch(ctx, url)
		}
		if err == nil {
			return doc, shot, nil
		}
		b.log().Warn("browser backend failed", "backend", i, "url", url, "error", err)
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		errs = append(errs, fmt.Errorf("no browser backend configured"))
	}
	return nil, nil, &models.NetworkError{URL: url, Err: errors.Join(errs...)}
}

func (b *BrowserFetcher) log() *slog.Logger {
	if b.logger == nil {
		return slog.Default()
	}
	return b.logger
}

var chromeBinaries = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"}

// CheckBrowserSupport reports what the browser fallback will be missing. It
// runs once at startup and never installs anything; a nil error means both
// Chrome and chromedriver were found.
func CheckBrowserSupport(cfg *config.Config) error {
	var errs []error

	found := false
	for _, name := range chromeBinaries {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		errs = append(errs, fmt.Errorf("no Chrome or Chromium binary on PATH"))
	}

	if _, err := os.Stat(cfg.ChromeDriverPath); err != nil {
		if _, lookErr := exec.LookPath("chromedriver"); lookErr != nil {
			errs = append(errs, fmt.Errorf("chromedriver not found at %s", cfg.ChromeDriverPath))
		}
	}
	return errors.Join(errs...)
}
