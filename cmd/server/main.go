// Command server runs the BMKG weather alert service: the poll engine,
// notification dispatch and the admin HTTP API.
//
// # Usage
//
//	server --config /etc/bmkg-alert/config.yaml
//
// # Configuration
//
// The server can be configured via:
// - A YAML config file (--config)
// - Environment variables (BMKGALERT_*)
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhanyyudi/bmkg-alert/db/migrate"
	"github.com/dhanyyudi/bmkg-alert/internal/api"
	"github.com/dhanyyudi/bmkg-alert/internal/auth"
	"github.com/dhanyyudi/bmkg-alert/internal/cache"
	"github.com/dhanyyudi/bmkg-alert/internal/config"
	"github.com/dhanyyudi/bmkg-alert/internal/engine"
	"github.com/dhanyyudi/bmkg-alert/internal/notify"
	"github.com/dhanyyudi/bmkg-alert/internal/secrets"
	"github.com/dhanyyudi/bmkg-alert/internal/state"
	"github.com/dhanyyudi/bmkg-alert/internal/store"
	"github.com/dhanyyudi/bmkg-alert/internal/upstream"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		version    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println("bmkg-alert v1.0.0")
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Connect to database and apply migrations
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := store.NewStoreFromURL(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if err := migrate.Run(ctx, db.Pool(), logger); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	// Optional Redis cache for nowcast details
	var detailCache engine.DetailCache
	if cfg.RedisURL != "" {
		c, err := cache.New(cfg.RedisURL, logger)
		if err != nil {
			logger.Warn("redis unavailable, continuing without detail cache", "error", err)
		} else {
			defer c.Close()
			detailCache = c
		}
	}

	// Resolve secrets
	resolver, err := secrets.NewResolver(secrets.ConfigFromEnv(), logger)
	if err != nil {
		logger.Error("secrets resolver failed", "error", err)
		os.Exit(1)
	}
	defer resolver.Close()

	trialBotToken, err := resolver.Get(ctx, secrets.SecretTrialBotToken)
	if err != nil {
		logger.Error("resolving trial bot token failed", "error", err)
		os.Exit(1)
	}
	adminHash, err := resolver.Get(ctx, secrets.SecretAdminPasswordHash)
	if err != nil {
		logger.Error("resolving admin password hash failed", "error", err)
		os.Exit(1)
	}

	authenticator := auth.New(adminHash, logger)

	// Wire the pipeline
	client := upstream.NewClient(upstream.Config{
		BaseURL: cfg.UpstreamBaseURL,
	}, logger)
	stateMgr := state.NewManager(db, logger)
	dispatcher := notify.NewDispatcher(notify.NewSenders(logger), stateMgr, logger)

	trialBot := notify.NewSystemTelegram(trialBotToken)
	// A typed nil inside the interface would defeat the engine's nil check.
	var trials engine.TrialMessenger
	if trialBot != nil {
		trials = trialBot
	}

	eng := engine.New(client, stateMgr, dispatcher, trials, detailCache, engine.DefaultConfig(), logger)

	apiServer := api.NewServer(db, eng, dispatcher, authenticator, trialBot, client, cfg.CORSOrigin, logger)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      apiServer,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	if cfg.AutoStart {
		eng.Start(context.Background())
	} else {
		logger.Info("engine auto-start disabled, start it via the api")
	}

	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")

	if eng.Running() {
		eng.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
