package service

import (
	"context"
	"log"

	"github.com/thepit/arena/internal/arena/domain"
	"github.com/thepit/arena/internal/errors"
)

const sweepBatchSize = 50

// SweepDeadlines enforces the two timers battles run on: turns stalled past
// the turn timeout are forfeited with a sentinel response, and battles whose
// voting window expired are finalized. Per-item failures are logged and do
// not stop the sweep. Returns the number of actions taken.
func (e *Engine) SweepDeadlines(ctx context.Context) (int, error) {
	actions := 0
	now := e.clock().UTC()

	stalled, err := e.stores.Rounds.ListStalledTurns(ctx, now.Add(-e.cfg.TurnTimeout), sweepBatchSize)
	if err != nil {
		return actions, err
	}
	for _, turn := range stalled {
		if err := e.forfeitTurn(ctx, turn.BattleID, turn.RoundNumber, turn.WaitingOn); err != nil {
			log.Printf("sweep forfeit battle_id=%s round=%d side=%s: %v",
				turn.BattleID, turn.RoundNumber, turn.WaitingOn, err)
			continue
		}
		actions++
	}

	expired, err := e.stores.Battles.ListVotingExpired(ctx, now, sweepBatchSize)
	if err != nil {
		return actions, err
	}
	for _, battle := range expired {
		if _, err := e.Finalize(ctx, battle.ID); err != nil {
			log.Printf("sweep finalize battle_id=%s: %v", battle.ID, err)
			continue
		}
		actions++
	}

	return actions, nil
}

// forfeitTurn fills a stalled side's slot with an empty forfeit sentinel so
// the round can advance. The battle is re-read under its lock because the
// slot may have filled between the listing and now.
func (e *Engine) forfeitTurn(ctx context.Context, battleID string, roundNumber int, side domain.Side) error {
	lock := e.battleLock(battleID)
	lock.Lock()
	defer lock.Unlock()

	battle, err := e.loadBattle(ctx, battleID)
	if err != nil {
		return err
	}
	if battle.CurrentRound != roundNumber {
		return nil
	}

	forfeit := domain.Response{SubmittedAt: e.clock().UTC(), Forfeited: true}
	if _, err := e.submitLocked(ctx, battle, side, forfeit); err != nil {
		// The side submitted between the listing and the lock. Not a failure.
		if errors.IsCode(err, errors.CodeRoundAlreadySubmitted) {
			return nil
		}
		return err
	}
	log.Printf("turn forfeited battle_id=%s round=%d side=%s", battleID, roundNumber, side)
	return nil
}
