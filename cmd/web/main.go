package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"paraiso_verde/internal/adapters/hotelapi"
	server "paraiso_verde/internal/adapters/http_server"
	"paraiso_verde/internal/adapters/mailer"
	"paraiso_verde/internal/adapters/observability"
	redisad "paraiso_verde/internal/adapters/redis"
	"paraiso_verde/internal/adapters/session"
	"paraiso_verde/internal/app"
	"paraiso_verde/internal/shared"
	mysqlrepo "paraiso_verde/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db: inquiries and the staff audit trail
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	repo := mysqlrepo.New(db)
	if err := repo.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	log.Info().Msg("database connection ok")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(context.Background()); err != nil {
		// the catalog falls back to the API on every read
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable")
	}

	api, err := hotelapi.New(cfg.APIBaseURL, hotelapi.Options{
		RPS:         cfg.APIRPS,
		Timeout:     cfg.APITimeout,
		MaxAttempts: cfg.APIMaxAttempts,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize API client")
	}
	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)

	catalog := app.NewCatalogService(api, cache, cfg.CacheTTL)
	sessions := session.NewManager(cfg.SessionSecret, 12*time.Hour, cfg.CookieSecure)

	srv := server.New(server.Options{
		Sessions:     sessions,
		CSRFKey:      csrfKey(cfg),
		CSRFDisabled: cfg.CSRFDisabled,
		SecureCookie: cfg.CookieSecure,
		TrustProxy:   cfg.TrustProxy,
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	if err := srv.MountHandlers(&server.Handlers{
		Auth:     app.NewAuthService(api),
		Catalog:  catalog,
		Booking:  app.NewBookingService(api, catalog, mail),
		Staff:    app.NewStaffService(api, catalog, repo),
		Contact:  app.NewContactService(repo, mail, cfg.DeskEmail),
		Sessions: sessions,
		Health:   api.Health,
	}); err != nil {
		log.Fatal().Err(err).Msg("templates failed to load")
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("api", cfg.APIBaseURL).Msg("web listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return
	}
	log.Info().Msg("server stopped")
}

// csrfKey is CSRF_KEY when it is exactly 32 bytes, otherwise a key derived
// from the session secret so restarts keep issued tokens valid.
func csrfKey(cfg shared.Config) []byte {
	if len(cfg.CSRFKey) == 32 {
		return []byte(cfg.CSRFKey)
	}
	if cfg.CSRFKey != "" {
		log.Warn().Int("len", len(cfg.CSRFKey)).Msg("CSRF_KEY must be 32 bytes; deriving one")
	}
	sum := sha256.Sum256([]byte("csrf:" + cfg.SessionSecret))
	return sum[:]
}
