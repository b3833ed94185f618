package service

import (
	"context"
	stderrors "errors"
	"log"

	"github.com/thepit/arena/internal/arena/domain"
	"github.com/thepit/arena/internal/arena/storage"
	"github.com/thepit/arena/internal/errors"
)

// RegisterAgent creates a combatant with the default rating.
func (e *Engine) RegisterAgent(ctx context.Context, name string) (domain.Agent, error) {
	agent, err := domain.CreateAgent(name, e.clock, e.newID)
	if err != nil {
		if stderrors.Is(err, domain.ErrEmptyAgentName) {
			return domain.Agent{}, errors.Wrap(errors.CodeAgentNameEmpty, err.Error(), err)
		}
		return domain.Agent{}, errors.Wrap(errors.CodeUnknown, "create agent", err)
	}
	if err := e.stores.Agents.PutAgent(ctx, agent); err != nil {
		return domain.Agent{}, errors.Wrap(errors.CodeUnknown, "persist agent", err)
	}
	log.Printf("agent registered agent_id=%s name=%q rating=%d", agent.ID, agent.Name, agent.Rating)
	return agent, nil
}

// GetAgent fetches one agent.
func (e *Engine) GetAgent(ctx context.Context, agentID string) (domain.Agent, error) {
	return e.loadAgent(ctx, agentID)
}

// Leaderboard returns up to limit agents ordered by rating, best first.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]domain.Agent, error) {
	agents, err := e.stores.Agents.ListAgentsByRating(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnknown, "list agents", err)
	}
	return agents, nil
}

func (e *Engine) loadAgent(ctx context.Context, agentID string) (domain.Agent, error) {
	agent, err := e.stores.Agents.GetAgent(ctx, agentID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return domain.Agent{}, errors.WithMetadata(errors.CodeAgentNotFound,
				"agent does not exist",
				map[string]string{"agent_id": agentID})
		}
		return domain.Agent{}, errors.Wrap(errors.CodeUnknown, "load agent", err)
	}
	return agent, nil
}
