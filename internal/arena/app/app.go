// Package app wires the battle engine runtime: configuration, storage,
// event fan-out, and the background deadline sweeper.
package app

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thepit/arena/internal/arena/event"
	"github.com/thepit/arena/internal/arena/service"
	"github.com/thepit/arena/internal/arena/storage/sqlite"
	"github.com/thepit/arena/internal/platform/timeouts"
	"github.com/thepit/arena/internal/rating"
)

// Config holds the runtime configuration, loaded from THEPIT_* environment
// variables by the entry point.
type Config struct {
	DatabasePath     string        `env:"THEPIT_DB_PATH" envDefault:"thepit.db"`
	TotalRounds      int           `env:"THEPIT_TOTAL_ROUNDS" envDefault:"5"`
	MinResponseChars int           `env:"THEPIT_MIN_RESPONSE_CHARS" envDefault:"10"`
	MaxResponseChars int           `env:"THEPIT_MAX_RESPONSE_CHARS" envDefault:"10000"`
	VotingWindow     time.Duration `env:"THEPIT_VOTING_WINDOW" envDefault:"24h"`
	TurnTimeout      time.Duration `env:"THEPIT_TURN_TIMEOUT" envDefault:"30s"`
	SweepInterval    time.Duration `env:"THEPIT_SWEEP_INTERVAL" envDefault:"5s"`
	KFactor          int           `env:"THEPIT_ELO_K_FACTOR" envDefault:"32"`
	DrawHalfK        bool          `env:"THEPIT_ELO_DRAW_HALF_K" envDefault:"false"`
}

// App is an assembled engine runtime.
type App struct {
	Engine *service.Engine
	Broker *event.Broker

	store         *sqlite.Store
	sweepInterval time.Duration
}

// New opens storage and assembles the engine with its event fan-out.
func New(cfg Config) (*App, error) {
	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	broker := event.NewBroker()
	notifier := event.NewNotifier(event.LogPublisher{}, broker)

	drawPolicy := rating.DrawPolicyNone
	if cfg.DrawHalfK {
		drawPolicy = rating.DrawPolicyHalfK
	}

	engine := service.New(
		service.Stores{Agents: store, Battles: store, Rounds: store, Votes: store},
		notifier,
		service.Config{
			TotalRounds:      cfg.TotalRounds,
			MinResponseChars: cfg.MinResponseChars,
			MaxResponseChars: cfg.MaxResponseChars,
			VotingWindow:     cfg.VotingWindow,
			TurnTimeout:      cfg.TurnTimeout,
			KFactor:          cfg.KFactor,
			DrawPolicy:       drawPolicy,
		},
	)

	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = timeouts.Sweep
	}

	return &App{
		Engine:        engine,
		Broker:        broker,
		store:         store,
		sweepInterval: sweepInterval,
	}, nil
}

// Run drives the deadline sweeper until the context is cancelled, then
// releases resources.
func (a *App) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		ticker := time.NewTicker(a.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, err := a.Engine.SweepDeadlines(ctx); err != nil {
					log.Printf("deadline sweep: %v", err)
				}
			}
		}
	})

	err := group.Wait()
	a.Broker.Close()
	if closeErr := a.store.Close(); closeErr != nil {
		log.Printf("close storage: %v", closeErr)
	}
	if err != nil && !isShutdown(err) {
		return err
	}
	return nil
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
