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

// CastVote records a vote and increments the battle tally in one
// transaction. The tally increment is conditional on the battle still being
// in VOTING, so a vote racing finalization loses with ErrStatusConflict
// instead of landing on a decided battle. The votes primary key
// (battle_id, voter_id) enforces the one-vote-per-voter rule; a duplicate
// insert returns ErrDuplicateVote with tallies unchanged.
func (s *Store) CastVote(ctx context.Context, vote domain.Vote) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, 0, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(vote.BattleID) == "" {
		return 0, 0, fmt.Errorf("battle id is required")
	}
	if strings.TrimSpace(vote.VoterID) == "" {
		return 0, 0, fmt.Errorf("voter id is required")
	}
	if vote.Side != domain.SideA && vote.Side != domain.SideB {
		return 0, 0, fmt.Errorf("vote side is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin cast vote: %w", err)
	}

	column := "votes_a"
	if vote.Side == domain.SideB {
		column = "votes_b"
	}
	increment, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE battles SET %s = %s + 1 WHERE id = ? AND status = ?", column, column),
		vote.BattleID,
		domain.BattleStatusVoting.String(),
	)
	if err != nil {
		_ = tx.Rollback()
		return 0, 0, fmt.Errorf("increment tally: %w", err)
	}
	incremented, err := increment.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, 0, fmt.Errorf("increment tally affected: %w", err)
	}
	if incremented == 0 {
		_ = tx.Rollback()
		// Either the battle is missing or it left the voting phase.
		var exists int
		err := s.sqlDB.QueryRowContext(ctx,
			"SELECT 1 FROM battles WHERE id = ?", vote.BattleID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, storage.ErrNotFound
		}
		if err != nil {
			return 0, 0, fmt.Errorf("check battle: %w", err)
		}
		return 0, 0, storage.ErrStatusConflict
	}

	insert, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO votes (battle_id, voter_id, side, created_at)
VALUES (?, ?, ?, ?)
`,
		vote.BattleID,
		vote.VoterID,
		vote.Side.String(),
		toMillis(vote.CastAt),
	)
	if err != nil {
		_ = tx.Rollback()
		return 0, 0, fmt.Errorf("insert vote: %w", err)
	}
	inserted, err := insert.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, 0, fmt.Errorf("insert vote affected: %w", err)
	}
	if inserted == 0 {
		_ = tx.Rollback()
		return 0, 0, storage.ErrDuplicateVote
	}

	var votesA, votesB int
	if err := tx.QueryRowContext(ctx,
		"SELECT votes_a, votes_b FROM battles WHERE id = ?",
		vote.BattleID,
	).Scan(&votesA, &votesB); err != nil {
		_ = tx.Rollback()
		return 0, 0, fmt.Errorf("read tallies: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit cast vote: %w", err)
	}
	return votesA, votesB, nil
}
