package main

import (
	"chat-room/moderation"
	"chat-room/observability"
	"chat-room/repositories"
	"chat-room/runtime/workers"
	"chat-room/search"
	"chat-room/services"
	"chat-room/web"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so deferred cleanups always execute and
// the wiring stays testable outside the process entry point.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	replacement, err := CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	// 2. Storage (BadgerDB) & search index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	index, err := search.NewIndex(config.BlugeFilepath, log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()

	// 3. Core wiring
	participants := repositories.NewParticipantRepository(db)
	messages := repositories.NewMessageRepository(db, log)

	moderator, err := moderation.NewDefaultModerator(replacement)
	if err != nil {
		return fmt.Errorf("moderation setup failed: %w", err)
	}

	service := services.NewChatService(participants, messages, moderator, index, nil, log)

	health, err := observability.NewHealth()
	if err != nil {
		return fmt.Errorf("health probe setup failed: %w", err)
	}

	// 4. Presence sweeper under supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewSweeper(
		participants, messages, index,
		config.SweepInterval, config.IdleTimeout,
		nil, log,
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supervisorDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervisorDone)
	}()

	// 5. HTTP server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: web.NewServer(service, health, log).Routes(),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final cleanup: stop accepting requests, let the in-flight
	// sweep finish, then close storage via the defers above.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "err", err)
	}

	sup.Stop()
	<-supervisorDone
	log.Info("Program stopped cleanly")

	return nil
}
