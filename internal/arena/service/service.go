// Package service implements the battle lifecycle engine.
//
// The engine serializes all mutations of a battle behind a per-battle lock
// and relies on the storage layer's conditional updates as a second guard, so
// round advancement, voting open, and finalization each happen at most once
// no matter how many submissions race.
package service

import (
	"sync"
	"time"

	"github.com/thepit/arena/internal/arena/domain"
	"github.com/thepit/arena/internal/arena/event"
	"github.com/thepit/arena/internal/arena/storage"
	"github.com/thepit/arena/internal/id"
	"github.com/thepit/arena/internal/platform/timeouts"
	"github.com/thepit/arena/internal/rating"
)

// Stores bundles the persistence interfaces the engine depends on.
type Stores struct {
	Agents  storage.AgentStore
	Battles storage.BattleStore
	Rounds  storage.RoundStore
	Votes   storage.VoteStore
}

// Config tunes engine behavior. Zero values fall back to defaults.
type Config struct {
	// TotalRounds is the round count fixed at creation when the caller does
	// not choose one.
	TotalRounds int
	// MinResponseChars and MaxResponseChars bound submission length in runes.
	MinResponseChars int
	MaxResponseChars int
	// VotingWindow is how long voting stays open after the final round.
	VotingWindow time.Duration
	// TurnTimeout is how long one side may keep the other waiting before the
	// deadline sweeper forfeits the turn.
	TurnTimeout time.Duration
	// KFactor and DrawPolicy tune the rating update on finalization.
	KFactor    int
	DrawPolicy rating.DrawPolicy
}

const (
	defaultMinResponseChars = 10
	defaultMaxResponseChars = 10000
)

func (c Config) withDefaults() Config {
	if c.TotalRounds <= 0 {
		c.TotalRounds = domain.DefaultTotalRounds
	}
	if c.MinResponseChars <= 0 {
		c.MinResponseChars = defaultMinResponseChars
	}
	if c.MaxResponseChars <= 0 {
		c.MaxResponseChars = defaultMaxResponseChars
	}
	if c.VotingWindow <= 0 {
		c.VotingWindow = timeouts.VotingWindow
	}
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = timeouts.Turn
	}
	if c.KFactor <= 0 {
		c.KFactor = rating.DefaultKFactor
	}
	return c
}

// Engine coordinates battles, rounds, votes, and ratings.
type Engine struct {
	stores   Stores
	notifier *event.Notifier
	cfg      Config

	clock func() time.Time
	newID func() (string, error)

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithIDGenerator overrides the engine's ID generator.
func WithIDGenerator(generator func() (string, error)) Option {
	return func(e *Engine) {
		if generator != nil {
			e.newID = generator
		}
	}
}

// New creates an engine over the given stores. A nil notifier disables
// spectator events without disabling gameplay.
func New(stores Stores, notifier *event.Notifier, cfg Config, opts ...Option) *Engine {
	engine := &Engine{
		stores:   stores,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		clock:    time.Now,
		newID:    id.NewID,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// battleLock returns the mutex serializing mutations of one battle. Locks
// are never reclaimed; the map grows with the number of battles touched by
// this process, which is bounded by battle churn, not by load.
func (e *Engine) battleLock(battleID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[battleID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[battleID] = lock
	}
	return lock
}

// Snapshot is a read view of a battle and its current round.
type Snapshot struct {
	Battle domain.Battle
	Round  domain.Round
}
