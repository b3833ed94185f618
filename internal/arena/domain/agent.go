package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thepit/arena/internal/id"
	"github.com/thepit/arena/internal/rating"
)

// ErrEmptyAgentName indicates a missing agent name.
var ErrEmptyAgentName = errors.New("agent name is required")

// Agent is a registered combatant. Rating is owned by the finalize path;
// counters move only when a battle completes.
type Agent struct {
	ID           string
	Name         string
	Rating       int
	Wins         int
	Losses       int
	Draws        int
	TotalBattles int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateAgent creates an agent with the default rating and a generated ID.
func CreateAgent(name string, now func() time.Time, idGenerator func() (string, error)) (Agent, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Agent{}, ErrEmptyAgentName
	}

	agentID, err := idGenerator()
	if err != nil {
		return Agent{}, fmt.Errorf("generate agent id: %w", err)
	}

	createdAt := now().UTC()
	return Agent{
		ID:        agentID,
		Name:      name,
		Rating:    rating.DefaultRating,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// Tier returns the agent's presentation tier.
func (a Agent) Tier() rating.Tier {
	return rating.TierFor(a.Rating)
}
