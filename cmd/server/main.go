/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the agency payout engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment
  2. Configure logging
  3. Initialize SQLite store
  4. Pick the notifier (SES when email is enabled, log fallback otherwise)
  5. Create API handler and router
  6. Start server with graceful shutdown

CONFIGURATION (environment variables, see config/config.go):
  LISTEN_ADDR    HTTP listen address (default :8080)
  DB_PATH        SQLite database path (default ./data/agency.db)
  LOG_LEVEL      trace|debug|info|warn|error (default info)
  LOG_FORMAT     text|json (default text)
  EMAIL_ENABLED  Send SES notifications on mark-paid (default false)
  EMAIL_SENDER   Verified SES sender address
  AWS_REGION     SES region (default eu-central-1)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/leadpulse/agency-engine/api"
	"github.com/leadpulse/agency-engine/config"
	"github.com/leadpulse/agency-engine/notify"
	"github.com/leadpulse/agency-engine/store/sqlite"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := newLogger(cfg)

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Pick the notifier
	var notifier notify.Notifier
	if cfg.EmailEnabled {
		ses, err := notify.NewSESNotifier(ctx, cfg.AWSRegion, cfg.EmailSender, log)
		if err != nil {
			log.Fatalf("Failed to initialize SES notifier: %v", err)
		}
		notifier = ses
	} else {
		notifier = &notify.LogNotifier{Log: log}
	}

	// Wire handler and router
	handler := api.NewHandler(store, notifier, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr": cfg.ListenAddr,
			"db":   cfg.DBPath,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("server stopped")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
