package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alexmorales/GeoTolu/internal/adapters/cache"
	"github.com/alexmorales/GeoTolu/internal/adapters/catalog"
	"github.com/alexmorales/GeoTolu/internal/adapters/providers/geolocation"
	"github.com/alexmorales/GeoTolu/internal/application/services"
	"github.com/alexmorales/GeoTolu/internal/domain/providers"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/clients/redis"
	"github.com/alexmorales/GeoTolu/internal/infrastructure/observability"
	"github.com/alexmorales/GeoTolu/pkg/config"
)

func main() {
	var input, output string
	var delay time.Duration

	flag.StringVar(&input, "in", "", "Catalog to enrich (defaults to the configured base file)")
	flag.StringVar(&output, "out", "", "Destination file (defaults to the configured enriched file)")
	flag.DurationVar(&delay, "delay", -1, "Pause between geocoder requests (defaults to the configured delay)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("tolu-enrich", cfg.Env)

	if input == "" {
		input = cfg.Catalog.Path(cfg.Catalog.BaseFile)
	}
	if output == "" {
		output = cfg.Catalog.Path(cfg.Catalog.EnrichedFile)
	}
	if delay < 0 {
		delay = cfg.Geolocation.RequestDelay
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, closeProvider := newProvider(ctx, cfg)
	defer closeProvider()

	table, err := catalog.ReadTableFile(input)
	if err != nil {
		log.Fatal().Err(err).Str("path", input).Msg("failed to read catalog")
	}

	svc := services.NewEnrichmentService(provider, delay)

	start := time.Now()
	log.Info().Str("in", input).Int("rows", len(table.Rows)).Dur("delay", delay).Msg("starting enrichment")

	enriched, summary, err := svc.Enrich(ctx, table)
	if err != nil {
		log.Fatal().Err(err).Msg("enrichment aborted; output not written")
	}

	if err := catalog.WriteTableFile(output, enriched); err != nil {
		log.Fatal().Err(err).Str("path", output).Msg("failed to write enriched catalog")
	}

	log.Info().
		Str("out", output).
		Dur("elapsed", time.Since(start)).
		Int("rows", summary.TotalRows).
		Int("looked_up", summary.LookedUp).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Msg("enrichment complete")
}

// newProvider builds the configured geocoder. Lookups are cached in Redis
// when it is enabled so reruns do not hit the public service again.
func newProvider(ctx context.Context, cfg *config.Config) (providers.GeolocationProvider, func()) {
	if cfg.Geolocation.Provider == config.GeolocationMock {
		return geolocation.NewMockGeolocationProvider(), func() {}
	}

	var cacheProvider providers.CacheProvider = cache.NewMemoryCache()
	closeFn := func() {}
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable; using in-memory geocoder cache")
		} else {
			cacheProvider = cache.NewRedisAdapter(redisClient, "tolu:")
			closeFn = func() { redisClient.Close() }
		}
	}

	provider := geolocation.NewNominatimProviderWithOptions(
		cfg.Geolocation.BaseURL,
		cfg.Geolocation.UserAgent,
		cacheProvider,
		cfg.Geolocation.CacheTTL,
		&http.Client{Timeout: cfg.Geolocation.Timeout},
	)
	return provider, closeFn
}
