package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/thepit/arena/internal/arena/domain"
	"github.com/thepit/arena/internal/arena/storage"
)

// PutAgent inserts or updates an agent record.
func (s *Store) PutAgent(ctx context.Context, agent domain.Agent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(agent.ID) == "" {
		return fmt.Errorf("agent id is required")
	}
	if strings.TrimSpace(agent.Name) == "" {
		return fmt.Errorf("agent name is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO agents (
	id, name, rating, wins, losses, draws, total_battles, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	rating = excluded.rating,
	wins = excluded.wins,
	losses = excluded.losses,
	draws = excluded.draws,
	total_battles = excluded.total_battles,
	updated_at = excluded.updated_at
`,
		agent.ID,
		agent.Name,
		agent.Rating,
		agent.Wins,
		agent.Losses,
		agent.Draws,
		agent.TotalBattles,
		toMillis(agent.CreatedAt),
		toMillis(agent.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put agent: %w", err)
	}
	return nil
}

// GetAgent fetches an agent record by ID.
func (s *Store) GetAgent(ctx context.Context, agentID string) (domain.Agent, error) {
	if err := ctx.Err(); err != nil {
		return domain.Agent{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Agent{}, fmt.Errorf("storage is not configured")
	}
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return domain.Agent{}, fmt.Errorf("agent id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, name, rating, wins, losses, draws, total_battles, created_at, updated_at
FROM agents
WHERE id = ?
`, agentID)

	agent, err := scanAgent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Agent{}, storage.ErrNotFound
		}
		return domain.Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return agent, nil
}

// ListAgentsByRating returns up to limit agents, highest rating first.
func (s *Store) ListAgentsByRating(ctx context.Context, limit int) ([]domain.Agent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, name, rating, wins, losses, draws, total_battles, created_at, updated_at
FROM agents
ORDER BY rating DESC, id ASC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var agents []domain.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (domain.Agent, error) {
	var agent domain.Agent
	var createdAt, updatedAt int64
	if err := row.Scan(
		&agent.ID,
		&agent.Name,
		&agent.Rating,
		&agent.Wins,
		&agent.Losses,
		&agent.Draws,
		&agent.TotalBattles,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Agent{}, err
	}
	agent.CreatedAt = fromMillis(createdAt)
	agent.UpdatedAt = fromMillis(updatedAt)
	return agent, nil
}
