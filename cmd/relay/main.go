package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/wsrelay/internal/config"
	"github.com/Tyrowin/wsrelay/internal/relay"
	"github.com/Tyrowin/wsrelay/internal/server"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/pflag"
)

// Version info - set by ldflags at build time
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	envFile := pflag.String("env-file", ".env", "Optional file of KEY=VALUE pairs loaded before reading the environment")
	addr := pflag.StringP("addr", "a", "", "Listen address, overrides ADDR")
	showVersion := pflag.BoolP("version", "v", false, "Show version information")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("wsrelay %s\n", Version)
		return nil
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	srv := server.New(cfg, relay.New(log), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()
	log.Info("Relay started", "version", Version, "addr", cfg.Addr)

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("Relay stopped cleanly")
	return nil
}
