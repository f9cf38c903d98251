package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/johnrirwin/streamforge/internal/app"
	"github.com/johnrirwin/streamforge/internal/config"
	"github.com/johnrirwin/streamforge/internal/logging"
)

func main() {
	cfg := config.Load()

	a, err := app.New(cfg)
	if err != nil {
		logger := logging.New(logging.LevelError)
		logger.Error("Failed to initialize application", logging.WithField("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		a.Logger.Info("Shutting down...")
		cancel()
	}()

	runErr := a.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = a.Shutdown(shutdownCtx)

	if runErr != nil {
		a.Logger.Error("Server error", logging.WithField("error", runErr.Error()))
		os.Exit(1)
	}
}
