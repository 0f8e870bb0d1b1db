package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/billing"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
		resolver = nil
	}
	if r, ok := resolver.(*geoip.Resolver); ok {
		defer r.Close()
	}

	profiles := repo.NewProfileRepository(pool)
	products := repo.NewProductRepository(pool)
	whitelist := repo.NewWhitelistRepository(pool)
	syncJobs := repo.NewSyncJobRepository(pool, cfg.SyncMaxAttempts)

	gateway := billing.NewStripeGateway(cfg.StripeSecretKey)
	mapper := billing.NewPlanMapper(cfg.StripePriceBasic, cfg.StripePricePro, logger)

	app := &handlers.App{
		SQL:      infra.NewSQLRunner(pool, logger),
		Logger:   logger,
		Profiles: profiles,
		Products: products,
		SyncJobs: syncJobs,
		Verifier: billing.NewVerifier(cfg.StripeWebhookSecret),
		Issuer:   billing.NewIssuer(gateway, profiles, whitelist, mapper, cfg.SiteBaseURL, logger),
	}

	router := httpapi.NewRouter(app, httpapi.RouterConfig{
		JWTSecret:       cfg.JWTSecret,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   geoip.LookupFunc(resolver),
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("api listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
