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

// GetRound fetches one round of a battle.
func (s *Store) GetRound(ctx context.Context, battleID string, roundNumber int) (domain.Round, error) {
	if err := ctx.Err(); err != nil {
		return domain.Round{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Round{}, fmt.Errorf("storage is not configured")
	}
	battleID = strings.TrimSpace(battleID)
	if battleID == "" {
		return domain.Round{}, fmt.Errorf("battle id is required")
	}
	if roundNumber < 1 {
		return domain.Round{}, fmt.Errorf("round number must be positive")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT battle_id, round_number,
	response_a, response_a_at, response_a_forfeited,
	response_b, response_b_at, response_b_forfeited,
	created_at
FROM rounds
WHERE battle_id = ? AND round_number = ?
`, battleID, roundNumber)

	round, err := scanRound(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Round{}, storage.ErrNotFound
		}
		return domain.Round{}, fmt.Errorf("get round: %w", err)
	}
	return round, nil
}

// SetResponse fills one side's slot. The WHERE ... IS NULL condition makes
// the write first-wins: a filled slot returns ErrSlotTaken.
func (s *Store) SetResponse(ctx context.Context, battleID string, roundNumber int, side domain.Side, response domain.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if side != domain.SideA && side != domain.SideB {
		return fmt.Errorf("side is required")
	}
	if response.SubmittedAt.IsZero() {
		return fmt.Errorf("submission time is required")
	}

	column := "response_a"
	if side == domain.SideB {
		column = "response_b"
	}
	query := fmt.Sprintf(`
UPDATE rounds
SET %[1]s = ?, %[1]s_at = ?, %[1]s_forfeited = ?
WHERE battle_id = ? AND round_number = ? AND %[1]s IS NULL
`, column)

	result, err := s.sqlDB.ExecContext(ctx, query,
		response.Content,
		toMillis(response.SubmittedAt),
		boolToInt(response.Forfeited),
		battleID,
		roundNumber,
	)
	if err != nil {
		return fmt.Errorf("set response: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set response affected: %w", err)
	}
	if affected == 0 {
		// Either the round is missing or the slot is taken.
		if _, err := s.GetRound(ctx, battleID, roundNumber); err != nil {
			return err
		}
		return storage.ErrSlotTaken
	}
	return nil
}

// ListStalledTurns returns rounds of active battles waiting on a side past
// the cutoff: either one slot filled before the cutoff with the other empty,
// or both slots empty on a round created before the cutoff. A fully stalled
// round reports side A first; the next sweep catches side B.
func (s *Store) ListStalledTurns(ctx context.Context, cutoff time.Time, limit int) ([]storage.StalledTurn, error) {
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
SELECT r.battle_id, r.round_number,
	CASE WHEN r.response_a IS NULL THEN 'a' ELSE 'b' END AS waiting_on
FROM rounds r
JOIN battles b ON b.id = r.battle_id AND b.current_round = r.round_number
WHERE b.status IN (?, ?)
  AND ((r.response_a IS NULL AND r.response_b_at <= ?)
    OR (r.response_b IS NULL AND r.response_a_at <= ?)
    OR (r.response_a IS NULL AND r.response_b IS NULL AND r.created_at <= ?))
ORDER BY r.battle_id ASC
LIMIT ?
`,
		domain.BattleStatusReady.String(),
		domain.BattleStatusInProgress.String(),
		toMillis(cutoff),
		toMillis(cutoff),
		toMillis(cutoff),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list stalled turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stalled []storage.StalledTurn
	for rows.Next() {
		var turn storage.StalledTurn
		var waitingOn string
		if err := rows.Scan(&turn.BattleID, &turn.RoundNumber, &waitingOn); err != nil {
			return nil, fmt.Errorf("scan stalled turn: %w", err)
		}
		turn.WaitingOn = domain.ParseSide(waitingOn)
		stalled = append(stalled, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stalled turns: %w", err)
	}
	return stalled, nil
}

func insertRoundTx(ctx context.Context, tx *sql.Tx, round domain.Round) error {
	if round.RoundNumber < 1 {
		return fmt.Errorf("round number must be positive")
	}
	_, err := tx.ExecContext(ctx, `
INSERT INTO rounds (battle_id, round_number, created_at)
VALUES (?, ?, ?)
`,
		round.BattleID,
		round.RoundNumber,
		toMillis(round.CreatedAt),
	)
	return err
}

func scanRound(row rowScanner) (domain.Round, error) {
	var round domain.Round
	var responseA, responseB sql.NullString
	var responseAAt, responseBAt sql.NullInt64
	var forfeitedA, forfeitedB int
	var createdAt int64
	if err := row.Scan(
		&round.BattleID,
		&round.RoundNumber,
		&responseA,
		&responseAAt,
		&forfeitedA,
		&responseB,
		&responseBAt,
		&forfeitedB,
		&createdAt,
	); err != nil {
		return domain.Round{}, err
	}
	round.CreatedAt = fromMillis(createdAt)
	if responseA.Valid {
		round.ResponseA = &domain.Response{
			Content:     responseA.String,
			SubmittedAt: fromMillis(responseAAt.Int64),
			Forfeited:   forfeitedA != 0,
		}
	}
	if responseB.Valid {
		round.ResponseB = &domain.Response{
			Content:     responseB.String,
			SubmittedAt: fromMillis(responseBAt.Int64),
			Forfeited:   forfeitedB != 0,
		}
	}
	return round, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
