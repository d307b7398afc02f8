package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"henritrip/api/internal/app"
	"henritrip/api/internal/config"
	"henritrip/api/internal/email"
	"henritrip/api/internal/export"
	"henritrip/api/internal/obs"
	"henritrip/api/internal/search"
	"henritrip/api/internal/session"
	"henritrip/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()
	obs.Init()

	var dataStore app.DataStore
	switch cfg.Store {
	case "postgres":
		db, err := store.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()

		migrations, err := store.Migrations(cfg.MigrationsDir)
		if err != nil {
			log.Fatalf("migrations unavailable: %v", err)
		}
		if err := store.ApplyMigrations(ctx, db, migrations); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		dataStore = store.NewPostgresStore(db)
		log.Printf("Using PostgreSQL store")
	case "memory":
		dataStore = store.NewMemoryStore()
		log.Printf("Using in-memory store")
	default:
		log.Fatalf("unknown HENRITRIP_STORE %q (expected memory or postgres)", cfg.Store)
	}

	var sessions app.SessionStore
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		sessions = redisStore
		log.Printf("Using Redis for session storage")
	} else {
		sessions = session.NewMemoryStore()
		log.Printf("Using in-memory session storage")
	}

	var meiliClient *search.Meili
	if cfg.MeiliURL != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}

	mailer := email.NewService(email.Config{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		From:      cfg.SMTPFrom,
		PublicURL: cfg.PublicURL,
	})
	if !mailer.IsConfigured() {
		log.Printf("SMTP not configured, invitation e-mails are disabled")
	}

	service := app.New(cfg, dataStore, sessions, app.Options{
		Meili:    meiliClient,
		Exporter: export.NewService(),
		Notifier: mailer,
	})
	if err := service.Bootstrap(ctx); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer service.Close()

	server := newServer(cfg.Addr, app.NewHTTPServer(service, cfg.CORSOrigins).Handler())

	go func() {
		log.Printf("HenriTrip API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// newServer leaves PDF exports enough write time to answer after a render
// times out.
func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      export.RenderTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
