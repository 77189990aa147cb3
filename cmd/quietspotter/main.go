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

	"github.com/quietspotter/quietspotter/internal/adapter/httpapi"
	"github.com/quietspotter/quietspotter/internal/adapter/mapbox"
	"github.com/quietspotter/quietspotter/internal/config"
	"github.com/quietspotter/quietspotter/internal/domain"
	"github.com/quietspotter/quietspotter/internal/feed"
	"github.com/quietspotter/quietspotter/internal/observability"
	"github.com/quietspotter/quietspotter/internal/repository"
	"github.com/quietspotter/quietspotter/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	if cfg.SeedDemoData {
		if err := repository.Seed(ctx, repo); err != nil {
			logger.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
		logger.Info("demo data seeded")
	}

	// Geocoder is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Report feed is feature-flagged via REPORT_FEED_ENABLED / KAFKA_BROKERS.
	var publisher *feed.Writer
	if cfg.FeedEnabled {
		publisher = feed.NewWriter(cfg.KafkaBrokers, cfg.ReportFeedTopic, logger)
		logger.Info("report feed enabled", "topic", cfg.ReportFeedTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("report feed disabled")
	}

	mode, err := store.ParseAggregationMode(cfg.AggregationMode)
	if err != nil {
		logger.Error("invalid aggregation mode", "error", err)
		os.Exit(1)
	}

	factory := func(ctx context.Context) (*store.Store, error) {
		opts := []store.Option{store.WithAggregationMode(mode)}
		if geocoder != nil {
			opts = append(opts, store.WithGeocoder(geocoder))
		}
		if publisher != nil {
			opts = append(opts, store.WithReportFeed(publisher))
		}
		st := store.New(repo, logger, metrics, opts...)
		if err := st.Open(ctx); err != nil {
			return nil, err
		}
		return st, nil
	}

	sessions := httpapi.NewSessionManager(factory, cfg.SessionTTL, metrics, logger)
	srv := httpapi.NewServer(cfg.HTTPAddr, sessions, repo, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Expired sessions are swept in the background.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions.Sweep()
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("report feed close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// openRepository picks postgres when DATABASE_URL is set, otherwise the
// in-memory development repository.
func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Repository, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("no database configured, using in-memory repository")
		return repository.NewMemory(), nil
	}

	pg, err := repository.OpenPostgres(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	withTrigger := cfg.AggregationMode == string(store.AggregateTrigger)
	if err := pg.EnsureSchema(ctx, withTrigger); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}
