package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/alexmorales/GeoTolu/internal/adapters/catalog"
	"github.com/alexmorales/GeoTolu/internal/adapters/database"
	"github.com/alexmorales/GeoTolu/internal/adapters/events"
	"github.com/alexmorales/GeoTolu/internal/adapters/storage"
	"github.com/alexmorales/GeoTolu/internal/api/handlers"
	"github.com/alexmorales/GeoTolu/internal/api/routes"
	"github.com/alexmorales/GeoTolu/internal/application/services"
	"github.com/alexmorales/GeoTolu/internal/domain/entities"
	"github.com/alexmorales/GeoTolu/internal/domain/providers"
	"github.com/alexmorales/GeoTolu/internal/domain/repositories"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/clients/postgres"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/clients/redis"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/observability"
	"github.com/alexmorales/GeoTolu/pkg/config"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			observability.EnableOTelLogs(cfg.OTEL.ServiceName)
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	eventStore, closeEvents, err := openEventStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeEvents()

	catalogs := services.NewCatalogService(catalog.NewCSVRepository(catalog.Paths{
		Base:     cfg.Catalog.Path(cfg.Catalog.BaseFile),
		Enriched: cfg.Catalog.Path(cfg.Catalog.EnrichedFile),
		Details:  cfg.Catalog.Path(cfg.Catalog.DetailsFile),
		Barrios:  cfg.Catalog.Path(cfg.Catalog.BarriosFile),
	}))
	if _, err := catalogs.Load(ctx, entities.SourceOriginal); err != nil {
		return fmt.Errorf("loading base catalog: %w", err)
	}
	bus, closeRedis := openEventBus(ctx, cfg)
	defer closeRedis()
	analytics := services.NewSearchAnalyticsService(eventStore, metrics).WithEventBus(bus)

	router := routes.NewRouter(
		handlers.NewCatalogHandler(catalogs),
		handlers.NewSearchHandler(catalogs, analytics),
		handlers.NewStatsHandler(analytics),
		handlers.NewStreamHandler(bus),
		metrics,
		cfg.Server.AllowedOrigins,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	printStartupBanner(cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	// SIGHUP drops the cached catalogs so edited files are picked up.
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				catalogs.Reload()
				log.Info().Msg("catalog cache cleared")
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("server shutting down")

		// Ends open event streams so Shutdown does not wait on them.
		if err := bus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func openEventStore(ctx context.Context, cfg *config.Config) (repositories.SearchEventRepository, func(), error) {
	switch cfg.EventLog.Backend {
	case config.EventLogMemory:
		return storage.NewMemoryEventStore(), func() {}, nil
	case config.EventLogPostgres:
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing PostgreSQL client: %w", err)
		}
		adapter := database.NewSearchEventAdapter(pgClient)
		if err := adapter.EnsureSchema(ctx); err != nil {
			pgClient.Close()
			return nil, nil, err
		}
		return adapter, func() { pgClient.Close() }, nil
	default:
		return storage.NewCSVEventStore(cfg.EventLog.Path), func() {}, nil
	}
}

// openEventBus shares logged events across instances through Redis when it
// is enabled, otherwise within this process only.
func openEventBus(ctx context.Context, cfg *config.Config) (providers.EventBus, func()) {
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err == nil {
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("event bus using Redis pub/sub")
			return events.NewRedisEventBus(redisClient), func() { redisClient.Close() }
		}
		log.Warn().Err(err).Msg("Redis unavailable; live search events stay local to this instance")
	}
	return events.NewMemoryEventBus(), func() {}
}

func printStartupBanner(cfg *config.Config) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	eventLog := cfg.EventLog.Backend
	if eventLog == config.EventLogCSV {
		eventLog += " " + cfg.EventLog.Path
	}
	telemetry := dot + "  Telemetry      " + dim.Render("disabled")
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		telemetry = check + "  Telemetry      " + cyan.Render(cfg.OTEL.Endpoint)
	}

	lines := []string{
		"",
		cyan.Bold(true).Render("    Tolú Conecta") + " " + dim.Render("v"+version),
		"",
		dim.Render("    ─────────────────────────────────"),
		"",
		bold.Render("    Gateway"),
		fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.Server.Addr())),
		"    " + telemetry,
		"",
		bold.Render("    Data"),
		fmt.Sprintf("    %s  Catalog        %s", check, dim.Render(cfg.Catalog.Path(cfg.Catalog.BaseFile))),
		fmt.Sprintf("    %s  Event log      %s", check, dim.Render(eventLog)),
		"",
	}
	for _, line := range lines {
		fmt.Fprintln(os.Stderr, line)
	}
}
