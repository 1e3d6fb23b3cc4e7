package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/parleychat/parley/internal/chat"
	"github.com/parleychat/parley/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle so that
// deferred cleanup executes before the process exits.
func run() error {
	_ = godotenv.Load()

	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	hub := server.NewHub(log)
	dispatcher := chat.NewDispatcher(log, hub)
	hub.AttachDispatcher(dispatcher)
	go hub.Run()

	mux := server.SetupRoutes(hub, cfg)
	httpServer := server.CreateServer(cfg.Port, mux)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		log.Info("shutdown signal received", "signal", sig.String())
	}

	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Warn("http server shutdown error", "error", err)
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		log.Warn("hub shutdown error", "error", err)
	}

	log.Info("server stopped")
	return nil
}
