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

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"github.com/henriquezago/poker-planning-be/infrastructure/httpapi"
	"github.com/henriquezago/poker-planning-be/infrastructure/ws"
	"github.com/henriquezago/poker-planning-be/internal"
	"github.com/henriquezago/poker-planning-be/moderation"
	"github.com/henriquezago/poker-planning-be/observability"
	"github.com/henriquezago/poker-planning-be/repositories"
	"github.com/henriquezago/poker-planning-be/runtime"
	"github.com/henriquezago/poker-planning-be/runtime/workers"
	"github.com/henriquezago/poker-planning-be/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database close included)
// executes before the process exits.
func run() error {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.LoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Broadcast plumbing under supervision
	monitoring := observability.NewMonitoring(log)
	registry := runtime.NewRegistry()
	fanout := workers.NewSessionFanout(log, registry, monitoring, config.EventBufferSize)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(fanout)

	// 4. Domain wiring
	replacement, err := moderation.ParseReplacement(config.ModerationChar)
	if err != nil {
		return fmt.Errorf("moderation config: %w", err)
	}
	moderator, err := moderation.NewNameModerator(config.ModerationWords, replacement)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}
	repository := repositories.NewSessionRepository(db, log)
	service := services.NewSessionService(repository, fanout, moderator, log)

	// 5. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		sup.Run(ctx)
	}()

	// 6. Transport surfaces
	controller := httpapi.NewSessionController(service, monitoring, log)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.APIPort),
		Handler: httpapi.NewRouter(controller),
	}
	pushServer := &http.Server{
		Addr: fmt.Sprintf(":%d", config.PushPort),
		Handler: ws.NewServer(log, service, registry, monitoring,
			config.SendBufferSize, config.SinkTimeout).Handler(),
	}

	if config.EnableDebugServer {
		internal.StartDebugServer(db, config.DebugPort, "/inspect", internal.SessionMapper, func() map[string]any {
			stats := monitoring.Snapshot()
			return map[string]any{
				"Sessions":    stats.SessionsCreated,
				"Connections": stats.OpenConnections,
				"Published":   stats.UpdatesPublished,
			}
		})
		log.Info("Debug server started", "port", config.DebugPort)
	}

	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting API server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
	go func() {
		log.Info("Starting push server", "addr", pushServer.Addr)
		if err := pushServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("push server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = apiServer.Shutdown(shutdownCtx)
	_ = pushServer.Shutdown(shutdownCtx)
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}
