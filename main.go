package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listing-counter/config"
	"listing-counter/scraper"
	"listing-counter/scraper/finn"
	"listing-counter/scraper/hjem"
	"listing-counter/server"
	"listing-counter/services"
	"listing-counter/storage"
	"listing-counter/utils"
)

func main() {
	once := flag.Bool("once", false, "run a single collection cycle and exit")
	envPath := flag.String("env", "", "path to a .env file (default: ./.env)")
	flag.Parse()

	var cfg *config.Config
	if *envPath != "" {
		cfg = config.Load(*envPath)
	} else {
		cfg = config.Load()
	}

	logger, err := utils.NewLoggerWithConfig(utils.LogConfig{
		Level:         cfg.LogLevel,
		JSON:          cfg.LogJSON,
		FluentEnabled: cfg.FluentEnabled,
		FluentHost:    cfg.FluentHost,
		FluentPort:    cfg.FluentPort,
	})
	if err != nil {
		logger.Warn("Fluent Bit shipping disabled: %v", err)
	}
	defer logger.Close()

	logger.Info("=== Listing counter starting ===")
	logger.Info("Config: data %s | timeout %v | concurrency %d | schedule %02d:00 | browser %t",
		cfg.DataPath, cfg.RequestTimeout, cfg.CollectConcurrency, cfg.ScheduleHour, cfg.RenderWithBrowser)

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Error("Failed to load catalog: %v", err)
		os.Exit(1)
	}
	logger.Info("Catalog: %d regions × %d categories", len(catalog.Regions()), len(catalog.Categories()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fetcher scraper.Fetcher = scraper.NewCollyFetcher(cfg.UserAgent, cfg.RequestTimeout)
	if cfg.RenderWithBrowser {
		browser, err := scraper.NewBrowserFetcher(cfg.ChromeBin, cfg.UserAgent, cfg.RequestTimeout, cfg.BrowserSettle, logger)
		if err != nil {
			logger.Error("Browser rendering disabled, using plain HTTP: %v", err)
		} else {
			defer browser.Close()
			fetcher = browser
		}
	}

	store := storage.NewCSVStore(cfg.DataPath)
	sinks := openSinks(ctx, cfg, logger)
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				logger.Warn("Closing %s mirror: %v", s.Name(), err)
			}
		}
	}()

	series := services.NewSeriesService(store, logger)
	collector := services.NewCollector(services.CollectorDeps{
		Catalog:     catalog,
		Finn:        finn.New(cfg.FinnBaseURL, fetcher, logger),
		Hjem:        hjem.New(cfg.HjemBaseURL, cfg.HjemAPIURL, fetcher, logger),
		Store:       store,
		Sinks:       sinks,
		Series:      series,
		Concurrency: cfg.CollectConcurrency,
		Logger:      logger,
	})

	if *once {
		records, err := collector.RunCycle(ctx)
		if err != nil {
			logger.Error("Collection cycle failed: %v", err)
			os.Exit(1)
		}
		fmt.Printf("  Done. %d records appended to %s\n\n", len(records), store.Path())
		return
	}

	runner := services.NewRunner(collector.RunCycle, cfg.JobQueueDepth, logger)
	runner.Start(ctx)

	if cfg.ScrapeOnStart {
		if _, err := runner.Submit("startup"); err != nil {
			logger.Warn("Could not queue startup cycle: %v", err)
		}
	}
	go runner.ScheduleDaily(ctx, cfg.ScheduleHour)

	handlers := server.NewHandlers(catalog, series, store, runner, 5*time.Minute, logger)
	srv := server.NewServer(cfg.HTTPAddr, handlers, logger)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("HTTP server stopped: %v", err)
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown: %v", err)
	}
	runner.Stop()
	logger.Info("=== Listing counter stopped ===")
}

// openSinks connects the optional mirrors. A mirror that cannot be reached
// at startup is skipped; the CSV series is always written.
func openSinks(ctx context.Context, cfg *config.Config, logger *utils.Logger) []storage.RecordSink {
	var sinks []storage.RecordSink

	if cfg.PostgresEnabled {
		pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), cfg.MaxRetries, logger)
		if err != nil {
			logger.Error("PostgreSQL mirror disabled: %v", err)
		} else {
			logger.Info("PostgreSQL mirror enabled (table: listing_counts)")
			sinks = append(sinks, pg)
		}
	}

	if cfg.RabbitMQURL != "" {
		pub, err := storage.NewAMQPPublisher(storage.AMQPConfig{
			URL:        cfg.RabbitMQURL,
			Exchange:   cfg.RabbitMQExchange,
			RoutingKey: cfg.RabbitMQRoutingKey,
		})
		if err != nil {
			logger.Error("RabbitMQ publisher disabled: %v", err)
		} else {
			logger.Info("Publishing cycles to exchange %s (%s)", cfg.RabbitMQExchange, cfg.RabbitMQRoutingKey)
			sinks = append(sinks, pub)
		}
	}

	return sinks
}
