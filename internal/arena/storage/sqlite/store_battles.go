package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thepit/arena/internal/arena/domain"
	"github.com/thepit/arena/internal/arena/storage"
)

// CreateBattle persists a battle together with its first round in one
// transaction.
func (s *Store) CreateBattle(ctx context.Context, battle domain.Battle, firstRound domain.Round) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(battle.ID) == "" {
		return fmt.Errorf("battle id is required")
	}
	if firstRound.BattleID != battle.ID {
		return fmt.Errorf("first round belongs to battle %q, not %q", firstRound.BattleID, battle.ID)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create battle: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO battles (
	id, format, topic, side_a_id, side_b_id, winner_id, status, cancel_reason,
	current_round, total_rounds, votes_a, votes_b,
	created_at, started_at, ended_at, voting_ends_at
) VALUES (?, ?, ?, ?, ?, NULL, ?, '', ?, ?, ?, ?, ?, ?, ?, ?)
`,
		battle.ID,
		string(battle.Format),
		battle.Topic,
		battle.SideAID,
		battle.SideBID,
		battle.Status.String(),
		battle.CurrentRound,
		battle.TotalRounds,
		battle.VotesA,
		battle.VotesB,
		toMillis(battle.CreatedAt),
		toNullMillis(battle.StartedAt),
		toNullMillis(battle.EndedAt),
		toNullMillis(battle.VotingEndsAt),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert battle: %w", err)
	}

	if err := insertRoundTx(ctx, tx, firstRound); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert first round: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create battle: %w", err)
	}
	return nil
}

// GetBattle fetches a battle record by ID.
func (s *Store) GetBattle(ctx context.Context, battleID string) (domain.Battle, error) {
	if err := ctx.Err(); err != nil {
		return domain.Battle{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Battle{}, fmt.Errorf("storage is not configured")
	}
	battleID = strings.TrimSpace(battleID)
	if battleID == "" {
		return domain.Battle{}, fmt.Errorf("battle id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, format, topic, side_a_id, side_b_id, winner_id, status, cancel_reason,
	current_round, total_rounds, votes_a, votes_b,
	created_at, started_at, ended_at, voting_ends_at
FROM battles
WHERE id = ?
`, battleID)

	battle, err := scanBattle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Battle{}, storage.ErrNotFound
		}
		return domain.Battle{}, fmt.Errorf("get battle: %w", err)
	}
	return battle, nil
}

// MarkInProgress flips READY to IN_PROGRESS and stamps the start time. A
// battle already in progress is left untouched without error.
func (s *Store) MarkInProgress(ctx context.Context, battleID string, startedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
UPDATE battles
SET status = ?, started_at = COALESCE(started_at, ?)
WHERE id = ? AND status = ?
`,
		domain.BattleStatusInProgress.String(),
		toMillis(startedAt),
		battleID,
		domain.BattleStatusReady.String(),
	)
	if err != nil {
		return fmt.Errorf("mark battle in progress: %w", err)
	}
	return nil
}

// AdvanceRound bumps current_round from fromRound and inserts the next empty
// round. The conditional update makes the advance at-most-once: the writer
// that loses the race sees ErrStatusConflict.
func (s *Store) AdvanceRound(ctx context.Context, battleID string, fromRound int, next domain.Round) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if next.BattleID != battleID {
		return fmt.Errorf("next round belongs to battle %q, not %q", next.BattleID, battleID)
	}
	if next.RoundNumber != fromRound+1 {
		return fmt.Errorf("next round number %d does not follow round %d", next.RoundNumber, fromRound)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin advance round: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
UPDATE battles
SET current_round = ?
WHERE id = ? AND current_round = ? AND status = ?
`,
		next.RoundNumber,
		battleID,
		fromRound,
		domain.BattleStatusInProgress.String(),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("advance round: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("advance round affected: %w", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return storage.ErrStatusConflict
	}

	if err := insertRoundTx(ctx, tx, next); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert next round: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit advance round: %w", err)
	}
	return nil
}

// OpenVoting flips IN_PROGRESS to VOTING with a deadline, conditional on the
// battle still sitting on fromRound.
func (s *Store) OpenVoting(ctx context.Context, battleID string, fromRound int, endsAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE battles
SET status = ?, voting_ends_at = ?
WHERE id = ? AND current_round = ? AND status = ?
`,
		domain.BattleStatusVoting.String(),
		toMillis(endsAt),
		battleID,
		fromRound,
		domain.BattleStatusInProgress.String(),
	)
	if err != nil {
		return fmt.Errorf("open voting: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("open voting affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrStatusConflict
	}
	return nil
}

// CompleteBattle performs the one-time finalization: the battle flip and
// both agents' rating/counter updates commit in one transaction. The
// conditional status check inside the same transaction is what makes a
// second finalize fail instead of double-applying rating changes.
func (s *Store) CompleteBattle(ctx context.Context, input storage.CompleteBattleInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(input.BattleID) == "" {
		return fmt.Errorf("battle id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete battle: %w", err)
	}

	var winnerID any
	if input.WinnerID != "" {
		winnerID = input.WinnerID
	}
	result, err := tx.ExecContext(ctx, `
UPDATE battles
SET status = ?, winner_id = ?, ended_at = ?
WHERE id = ? AND status = ?
`,
		domain.BattleStatusComplete.String(),
		winnerID,
		toMillis(input.EndedAt),
		input.BattleID,
		domain.BattleStatusVoting.String(),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("complete battle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("complete battle affected: %w", err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return storage.ErrStatusConflict
	}

	for _, agent := range []domain.Agent{input.AgentA, input.AgentB} {
		if err := updateAgentTx(ctx, tx, agent); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("update agent %s: %w", agent.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit complete battle: %w", err)
	}
	return nil
}

// CloseBattle flips any non-terminal status to CANCELLED or DISPUTED.
func (s *Store) CloseBattle(ctx context.Context, battleID string, to domain.BattleStatus, reason string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if to != domain.BattleStatusCancelled && to != domain.BattleStatusDisputed {
		return fmt.Errorf("close battle target %s is not supported", to)
	}

	var endedAt sql.NullInt64
	if to == domain.BattleStatusCancelled {
		endedAt = sql.NullInt64{Int64: toMillis(at), Valid: true}
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE battles
SET status = ?, cancel_reason = ?, ended_at = COALESCE(?, ended_at)
WHERE id = ? AND status NOT IN (?, ?) AND status != ?
`,
		to.String(),
		strings.TrimSpace(reason),
		endedAt,
		battleID,
		domain.BattleStatusComplete.String(),
		domain.BattleStatusCancelled.String(),
		to.String(),
	)
	if err != nil {
		return fmt.Errorf("close battle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("close battle affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrStatusConflict
	}
	return nil
}

// ListVotingExpired returns battles still in VOTING whose deadline passed.
func (s *Store) ListVotingExpired(ctx context.Context, asOf time.Time, limit int) ([]domain.Battle, error) {
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
SELECT id, format, topic, side_a_id, side_b_id, winner_id, status, cancel_reason,
	current_round, total_rounds, votes_a, votes_b,
	created_at, started_at, ended_at, voting_ends_at
FROM battles
WHERE status = ? AND voting_ends_at IS NOT NULL AND voting_ends_at <= ?
ORDER BY voting_ends_at ASC
LIMIT ?
`,
		domain.BattleStatusVoting.String(),
		toMillis(asOf),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list voting expired: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var battles []domain.Battle
	for rows.Next() {
		battle, err := scanBattle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan battle: %w", err)
		}
		battles = append(battles, battle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate battles: %w", err)
	}
	return battles, nil
}

func scanBattle(row rowScanner) (domain.Battle, error) {
	var battle domain.Battle
	var format, status string
	var winnerID sql.NullString
	var createdAt int64
	var startedAt, endedAt, votingEndsAt sql.NullInt64
	if err := row.Scan(
		&battle.ID,
		&format,
		&battle.Topic,
		&battle.SideAID,
		&battle.SideBID,
		&winnerID,
		&status,
		&battle.CancelReason,
		&battle.CurrentRound,
		&battle.TotalRounds,
		&battle.VotesA,
		&battle.VotesB,
		&createdAt,
		&startedAt,
		&endedAt,
		&votingEndsAt,
	); err != nil {
		return domain.Battle{}, err
	}
	battle.Format = domain.BattleFormat(format)
	battle.Status = domain.ParseBattleStatus(status)
	battle.WinnerID = winnerID.String
	battle.CreatedAt = fromMillis(createdAt)
	battle.StartedAt = fromNullMillis(startedAt)
	battle.EndedAt = fromNullMillis(endedAt)
	battle.VotingEndsAt = fromNullMillis(votingEndsAt)
	return battle, nil
}

func updateAgentTx(ctx context.Context, tx *sql.Tx, agent domain.Agent) error {
	result, err := tx.ExecContext(ctx, `
UPDATE agents
SET rating = ?, wins = ?, losses = ?, draws = ?, total_battles = ?, updated_at = ?
WHERE id = ?
`,
		agent.Rating,
		agent.Wins,
		agent.Losses,
		agent.Draws,
		agent.TotalBattles,
		toMillis(agent.UpdatedAt),
		agent.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
