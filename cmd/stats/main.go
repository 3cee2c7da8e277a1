package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alexmorales/GeoTolu/internal/adapters/archive"
	"github.com/alexmorales/GeoTolu/internal/adapters/database"
	"github.com/alexmorales/GeoTolu/internal/adapters/render"
	"github.com/alexmorales/GeoTolu/internal/adapters/storage"
	"github.com/alexmorales/GeoTolu/internal/application/services"
	"github.com/alexmorales/GeoTolu/internal/domain/repositories"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/clients/postgres"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/observability"
	"github.com/alexmorales/GeoTolu/internal/report"
	"github.com/alexmorales/GeoTolu/pkg/config"
)

func main() {
	var width int
	var chartsDir string
	var archiveLog bool

	flag.IntVar(&width, "width", 100, "Terminal width for the report")
	flag.StringVar(&chartsDir, "charts", "", "Directory to write the PNG charts to")
	flag.BoolVar(&archiveLog, "archive", false, "Upload a snapshot of the event log to the configured S3 bucket")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("tolu-stats", cfg.Env)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	events, closeEvents := openEventStore(ctx, cfg)
	defer closeEvents()

	log.Debug().Str("backend", cfg.EventLog.Backend).Msg("reading search event log")
	analytics := services.NewSearchAnalyticsService(events, nil)
	all, err := analytics.Events(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read search event log")
	}
	summary := services.Aggregate(all)

	if err := report.Write(os.Stdout, summary, width); err != nil {
		log.Fatal().Err(err).Msg("failed to write report")
	}

	if chartsDir != "" {
		if err := os.MkdirAll(chartsDir, 0o755); err != nil {
			log.Fatal().Err(err).Msg("failed to create charts directory")
		}
		for _, chart := range render.Charts {
			var buf bytes.Buffer
			if err := render.StatsChart(&buf, chart, summary); err != nil {
				log.Fatal().Err(err).Str("chart", chart).Msg("failed to render chart")
			}
			path := filepath.Join(chartsDir, chart+".png")
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				log.Fatal().Err(err).Str("path", path).Msg("failed to write chart")
			}
		}
		log.Info().Str("dir", chartsDir).Int("charts", len(render.Charts)).Msg("charts written")
	}

	if archiveLog {
		store, err := archive.NewS3Archive(ctx, &cfg.Archive)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up S3 archive")
		}
		var buf bytes.Buffer
		if err := storage.WriteEvents(&buf, all); err != nil {
			log.Fatal().Err(err).Msg("failed to encode event log")
		}
		location, err := store.Put(ctx, archive.SnapshotKey(time.Now()), buf.Bytes(), "text/csv")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to upload event log snapshot")
		}
		log.Info().Str("location", location).Int("events", len(all)).Msg("event log archived")
	}
}

func openEventStore(ctx context.Context, cfg *config.Config) (repositories.SearchEventRepository, func()) {
	switch cfg.EventLog.Backend {
	case config.EventLogPostgres:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
		}
		return database.NewSearchEventAdapter(pgClient), func() { pgClient.Close() }
	case config.EventLogMemory:
		log.Warn().Msg("memory event log backend holds no events outside the API process")
		return storage.NewMemoryEventStore(), func() {}
	default:
		return storage.NewCSVEventStore(cfg.EventLog.Path), func() {}
	}
}
