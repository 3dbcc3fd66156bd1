package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raushankrgupta/listing-poster/api"
	"github.com/raushankrgupta/listing-poster/compositor"
	"github.com/raushankrgupta/listing-poster/config"
	"github.com/raushankrgupta/listing-poster/poster"
	"github.com/raushankrgupta/listing-poster/scrapers"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
	"github.com/raushankrgupta/listing-poster/utils"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := base.CheckBrowserSupport(cfg); err != nil {
		logger.Warn("browser fallback unavailable", "error", err)
	}

	comp, err := compositor.New(cfg)
	if err != nil {
		logger.Error("failed to load fonts", "error", err)
		os.Exit(1)
	}

	var opts []poster.Option
	var history api.HistoryLister
	if cfg.S3Bucket != "" {
		if pub, err := utils.NewS3Publisher(ctx, cfg.AWSRegion, cfg.S3Bucket); err != nil {
			logger.Warn("publishing disabled", "error", err)
		} else {
			opts = append(opts, poster.WithPublisher(pub))
		}
	}
	if cfg.MongoURI != "" {
		mongoHistory, err := utils.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			logger.Error("failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}
		defer mongoHistory.Close(context.Background())
		opts = append(opts, poster.WithHistory(mongoHistory))
		history = mongoHistory
	}

	dispatcher := scrapers.NewDispatcher(base.NewBaseScraper(cfg))
	p := poster.New(cfg, dispatcher, utils.NewCanonicalizer(cfg), comp, opts...)

	requestTimeout := 2*cfg.BrowserTimeout + cfg.HTTPTimeout + cfg.ImageTimeout
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(api.NewHandler(p, history), requestTimeout),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port, "usage", "curl \"http://localhost:"+cfg.Port+"/post?url=<listing_url>\" -o post.jpg")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
