// Command arena runs the battle lifecycle engine with its background
// deadline sweeper.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/thepit/arena/internal/arena/app"
	"github.com/thepit/arena/internal/platform/config"
	"github.com/thepit/arena/internal/platform/otel"
	"github.com/thepit/arena/internal/platform/timeouts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfg app.Config
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("arena: %v", err)
	}

	shutdownTracing, err := otel.Setup(ctx, "arena")
	if err != nil {
		config.Exitf("arena: otel setup: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	runtime, err := app.New(cfg)
	if err != nil {
		config.Exitf("arena: %v", err)
	}

	log.Printf("arena engine started db_path=%s sweep_interval=%s", cfg.DatabasePath, cfg.SweepInterval)
	started := time.Now()
	if err := runtime.Run(ctx); err != nil {
		config.Exitf("arena: %v", err)
	}
	log.Printf("arena engine stopped uptime=%s", time.Since(started).Round(time.Second))
}
