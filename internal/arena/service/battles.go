package service

import (
	"context"
	stderrors "errors"
	"log"

	"github.com/thepit/arena/internal/arena/domain"
	"github.com/thepit/arena/internal/arena/storage"
	"github.com/thepit/arena/internal/errors"
)

// CreateBattle validates participants and persists a new battle in READY
// status together with its empty first round.
func (e *Engine) CreateBattle(ctx context.Context, input domain.CreateBattleInput) (domain.Battle, error) {
	if input.TotalRounds == 0 {
		input.TotalRounds = e.cfg.TotalRounds
	}

	normalized, err := domain.NormalizeCreateBattleInput(input)
	if err != nil {
		return domain.Battle{}, mapCreateErr(err)
	}

	for _, agentID := range []string{normalized.SideAID, normalized.SideBID} {
		if _, err := e.stores.Agents.GetAgent(ctx, agentID); err != nil {
			if stderrors.Is(err, storage.ErrNotFound) {
				return domain.Battle{}, errors.WithMetadata(errors.CodeAgentNotFound,
					"battle participant does not exist",
					map[string]string{"agent_id": agentID})
			}
			return domain.Battle{}, errors.Wrap(errors.CodeUnknown, "load participant", err)
		}
	}

	battle, err := domain.CreateBattle(normalized, e.clock, e.newID)
	if err != nil {
		return domain.Battle{}, mapCreateErr(err)
	}

	firstRound := domain.NewRound(battle.ID, 1, e.clock)
	if err := e.stores.Battles.CreateBattle(ctx, battle, firstRound); err != nil {
		return domain.Battle{}, errors.Wrap(errors.CodeUnknown, "persist battle", err)
	}

	log.Printf("battle created battle_id=%s format=%s side_a=%s side_b=%s total_rounds=%d",
		battle.ID, battle.Format, battle.SideAID, battle.SideBID, battle.TotalRounds)
	return battle, nil
}

// GetBattle returns a battle together with its current round.
func (e *Engine) GetBattle(ctx context.Context, battleID string) (Snapshot, error) {
	battle, err := e.loadBattle(ctx, battleID)
	if err != nil {
		return Snapshot{}, err
	}
	round, err := e.stores.Rounds.GetRound(ctx, battle.ID, battle.CurrentRound)
	if err != nil && !stderrors.Is(err, storage.ErrNotFound) {
		return Snapshot{}, errors.Wrap(errors.CodeUnknown, "load current round", err)
	}
	return Snapshot{Battle: battle, Round: round}, nil
}

// Cancel moves a battle to CANCELLED with an operator-supplied reason. No
// ratings change and no spectator event is published; the closure is logged.
func (e *Engine) Cancel(ctx context.Context, battleID, reason string) error {
	return e.close(ctx, battleID, domain.BattleStatusCancelled, reason)
}

// Dispute moves a battle to DISPUTED, freezing it for operator review.
func (e *Engine) Dispute(ctx context.Context, battleID, reason string) error {
	return e.close(ctx, battleID, domain.BattleStatusDisputed, reason)
}

func (e *Engine) close(ctx context.Context, battleID string, to domain.BattleStatus, reason string) error {
	lock := e.battleLock(battleID)
	lock.Lock()
	defer lock.Unlock()

	battle, err := e.loadBattle(ctx, battleID)
	if err != nil {
		return err
	}
	if !battle.Status.CanTransition(to) {
		return errors.WithMetadata(errors.CodeBattleInvalidStatusTransition,
			"battle cannot leave its current status",
			map[string]string{"from": battle.Status.String(), "to": to.String()})
	}

	if err := e.stores.Battles.CloseBattle(ctx, battleID, to, reason, e.clock().UTC()); err != nil {
		if stderrors.Is(err, storage.ErrStatusConflict) {
			return errors.New(errors.CodeBattleInvalidStatusTransition, "battle already closed")
		}
		return errors.Wrap(errors.CodeUnknown, "close battle", err)
	}

	log.Printf("battle closed battle_id=%s status=%s reason=%q", battleID, to, reason)
	return nil
}

func (e *Engine) loadBattle(ctx context.Context, battleID string) (domain.Battle, error) {
	battle, err := e.stores.Battles.GetBattle(ctx, battleID)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return domain.Battle{}, errors.WithMetadata(errors.CodeBattleNotFound,
				"battle does not exist",
				map[string]string{"battle_id": battleID})
		}
		return domain.Battle{}, errors.Wrap(errors.CodeUnknown, "load battle", err)
	}
	return battle, nil
}

func mapCreateErr(err error) error {
	switch {
	case stderrors.Is(err, domain.ErrEmptyParticipant),
		stderrors.Is(err, domain.ErrSameParticipants):
		return errors.Wrap(errors.CodeBattleInvalidParticipants, err.Error(), err)
	case stderrors.Is(err, domain.ErrEmptyTopic):
		return errors.Wrap(errors.CodeBattleTopicEmpty, err.Error(), err)
	case stderrors.Is(err, domain.ErrInvalidFormat):
		return errors.Wrap(errors.CodeBattleInvalidFormat, err.Error(), err)
	case stderrors.Is(err, domain.ErrInvalidTotalRounds):
		return errors.Wrap(errors.CodeBattleInvalidTotalRounds, err.Error(), err)
	default:
		return errors.Wrap(errors.CodeUnknown, "create battle", err)
	}
}
