package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/raushankrgupta/listing-poster/compositor"
	"github.com/raushankrgupta/listing-poster/config"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/poster"
	"github.com/raushankrgupta/listing-poster/scrapers"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
	"github.com/raushankrgupta/listing-poster/utils"
)

const usage = `Usage:
  listing-poster <listing_url>                 fetch photo and price from the listing
  listing-poster <saved_image.jpg> <url>       use a local photo, QR links to url
  listing-poster <links.txt>                   one URL per line, # comments allowed

Output goes to output/instagram_post.jpg (batch: instagram_post_<N>.jpg).`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || len(args) > 2 || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, usage)
		return 1
	}

	inv, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s\n", models.Describe(err))
		return 1
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := base.CheckBrowserSupport(cfg); err != nil {
		slog.Warn("browser fallback unavailable, blocked sites may fail", "error", err)
	}

	p, cleanup, err := buildPoster(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup error: %v\n", err)
		return 1
	}
	defer cleanup()

	if inv.batchPath != "" {
		return runBatch(ctx, p, inv)
	}
	return runSingle(ctx, p, inv.ref)
}

// invocation is a validated command line: either one listing or a batch.
type invocation struct {
	ref       models.ListingReference
	batchPath string
	urls      []string
}

// parseArgs validates the positional arguments without touching the network.
func parseArgs(args []string) (invocation, error) {
	switch {
	case len(args) == 1 && isBatchFile(args[0]):
		urls, err := poster.ReadBatchFile(args[0])
		if err != nil {
			return invocation{}, err
		}
		if len(urls) == 0 {
			return invocation{}, &models.InvalidInputError{Input: args[0], Reason: "no URLs found"}
		}
		return invocation{batchPath: args[0], urls: urls}, nil
	case len(args) == 1:
		ref, err := models.NewListingReference(args[0], "")
		return invocation{ref: ref}, err
	default:
		if _, err := os.Stat(args[0]); err != nil {
			return invocation{}, &models.InvalidInputError{Input: args[0], Reason: "image file not found"}
		}
		ref, err := models.NewListingReference(args[1], args[0])
		return invocation{ref: ref}, err
	}
}

func isBatchFile(arg string) bool {
	return strings.HasSuffix(strings.ToLower(arg), ".txt") && !strings.HasPrefix(arg, "http")
}

// buildPoster wires the pipeline. Publishing and history are only enabled
// when S3_BUCKET and MONGO_URI are set.
func buildPoster(ctx context.Context, cfg *config.Config) (*poster.Poster, func(), error) {
	comp, err := compositor.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []poster.Option{poster.WithProgress(os.Stdout)}
	cleanup := func() {}

	if cfg.S3Bucket != "" {
		pub, err := utils.NewS3Publisher(ctx, cfg.AWSRegion, cfg.S3Bucket)
		if err != nil {
			slog.Warn("publishing disabled", "error", err)
		} else {
			opts = append(opts, poster.WithPublisher(pub))
		}
	}

	if cfg.MongoURI != "" {
		history, err := utils.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			slog.Warn("post history disabled", "error", err)
		} else {
			opts = append(opts, poster.WithHistory(history))
			cleanup = func() { _ = history.Close(context.Background()) }
		}
	}

	dispatcher := scrapers.NewDispatcher(base.NewBaseScraper(cfg))
	return poster.New(cfg, dispatcher, utils.NewCanonicalizer(cfg), comp, opts...), cleanup, nil
}

func runSingle(ctx context.Context, p *poster.Poster, ref models.ListingReference) int {
	var fixer poster.ManualFixer
	if ref.LocalPhotoPath == "" {
		fixer = poster.NewPromptFixer(os.Stdin, os.Stdout)
	}

	res, err := p.ProcessInteractive(ctx, ref, fixer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n✗ %s\n", models.Describe(err))
		return 1
	}

	fmt.Printf("\n✓ Done! Instagram post saved as: %s\n", res.OutputPath)
	if res.PublishedURL != "" {
		fmt.Printf("  Shareable link: %s\n", res.PublishedURL)
	}
	return 0
}

func runBatch(ctx context.Context, p *poster.Poster, inv invocation) int {
	path, urls := inv.batchPath, inv.urls
	fmt.Printf("Processing %d listings from %s\n\n", len(urls), path)
	report := p.RunBatch(ctx, urls)

	fmt.Printf("\n=== Batch complete: %d/%d succeeded ===\n", len(report.Succeeded), report.Total)
	for _, out := range report.Outputs {
		fmt.Printf("  ✓ %s\n", out)
	}
	if len(report.Failed) > 0 {
		fmt.Println("Failed:")
		for _, f := range report.Failed {
			fmt.Printf("  ✗ %s\n    %s\n", f.URL, models.Describe(f.Err))
		}
	}
	return report.ExitCode()
}
