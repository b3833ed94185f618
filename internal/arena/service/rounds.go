package service

import (
	"context"
	stderrors "errors"
	"log"
	"strconv"
	"unicode/utf8"

	"github.com/thepit/arena/internal/arena/domain"
	"github.com/thepit/arena/internal/arena/event"
	"github.com/thepit/arena/internal/arena/storage"
	"github.com/thepit/arena/internal/errors"
)

// SubmitResponse records one side's response for the battle's current round.
// When the submission completes the round, the battle advances to the next
// round, or to VOTING after the final round. Exactly one submission triggers
// each advancement.
func (e *Engine) SubmitResponse(ctx context.Context, battleID, agentID, content string) (Snapshot, error) {
	if count := utf8.RuneCountInString(content); count < e.cfg.MinResponseChars {
		return Snapshot{}, errors.WithMetadata(errors.CodeResponseTooShort,
			"response is below the minimum length",
			map[string]string{"min_chars": strconv.Itoa(e.cfg.MinResponseChars)})
	} else if count > e.cfg.MaxResponseChars {
		return Snapshot{}, errors.WithMetadata(errors.CodeResponseTooLong,
			"response exceeds the maximum length",
			map[string]string{"max_chars": strconv.Itoa(e.cfg.MaxResponseChars)})
	}

	lock := e.battleLock(battleID)
	lock.Lock()
	defer lock.Unlock()

	battle, err := e.loadBattle(ctx, battleID)
	if err != nil {
		return Snapshot{}, err
	}

	side := battle.ParticipantSide(agentID)
	if side == domain.SideUnspecified {
		return Snapshot{}, errors.WithMetadata(errors.CodeSideNotParticipant,
			"agent is not a participant in this battle",
			map[string]string{"agent_id": agentID})
	}

	response := domain.Response{Content: content, SubmittedAt: e.clock().UTC()}
	return e.submitLocked(ctx, battle, side, response)
}

// submitLocked writes a response and runs the advancement that may follow.
// The caller holds the battle lock. Forfeit sentinels from the deadline
// sweeper enter here too, bypassing length validation.
func (e *Engine) submitLocked(ctx context.Context, battle domain.Battle, side domain.Side, response domain.Response) (Snapshot, error) {
	if battle.Status != domain.BattleStatusReady && battle.Status != domain.BattleStatusInProgress {
		return Snapshot{}, errors.WithMetadata(errors.CodeBattleStatusDisallowsOp,
			"battle does not accept responses in its current status",
			map[string]string{"status": battle.Status.String()})
	}

	err := e.stores.Rounds.SetResponse(ctx, battle.ID, battle.CurrentRound, side, response)
	switch {
	case err == nil:
	case stderrors.Is(err, storage.ErrSlotTaken):
		return Snapshot{}, errors.WithMetadata(errors.CodeRoundAlreadySubmitted,
			"side already submitted for this round",
			map[string]string{"round": strconv.Itoa(battle.CurrentRound), "side": side.String()})
	case stderrors.Is(err, storage.ErrNotFound):
		return Snapshot{}, errors.WithMetadata(errors.CodeRoundNotFound,
			"battle round does not exist",
			map[string]string{"round": strconv.Itoa(battle.CurrentRound)})
	default:
		return Snapshot{}, errors.Wrap(errors.CodeUnknown, "record response", err)
	}

	if battle.Status == domain.BattleStatusReady {
		if err := e.stores.Battles.MarkInProgress(ctx, battle.ID, response.SubmittedAt); err != nil {
			return Snapshot{}, errors.Wrap(errors.CodeUnknown, "mark battle in progress", err)
		}
	}

	e.notifier.Publish(ctx, event.Event{
		BattleID: battle.ID,
		Type:     event.TypeResponseSubmitted,
		Payload: event.ResponseSubmittedPayload{
			Round:     battle.CurrentRound,
			Side:      side.String(),
			Response:  response.Content,
			Forfeited: response.Forfeited,
		},
	})

	round, err := e.stores.Rounds.GetRound(ctx, battle.ID, battle.CurrentRound)
	if err != nil {
		return Snapshot{}, errors.Wrap(errors.CodeUnknown, "reload round", err)
	}
	if round.Complete() {
		if err := e.advanceLocked(ctx, battle); err != nil {
			return Snapshot{}, err
		}
	}

	updated, err := e.loadBattle(ctx, battle.ID)
	if err != nil {
		return Snapshot{}, err
	}
	current, err := e.stores.Rounds.GetRound(ctx, updated.ID, updated.CurrentRound)
	if err != nil && !stderrors.Is(err, storage.ErrNotFound) {
		return Snapshot{}, errors.Wrap(errors.CodeUnknown, "reload round", err)
	}
	return Snapshot{Battle: updated, Round: current}, nil
}

// advanceLocked moves a battle whose current round just completed: to the
// next round, or to VOTING after the final round. A status conflict from the
// store means another writer advanced first; the event was already emitted
// by that writer, so the loser stays silent.
func (e *Engine) advanceLocked(ctx context.Context, battle domain.Battle) error {
	if battle.FinalRound() {
		endsAt := e.clock().UTC().Add(e.cfg.VotingWindow)
		err := e.stores.Battles.OpenVoting(ctx, battle.ID, battle.CurrentRound, endsAt)
		if stderrors.Is(err, storage.ErrStatusConflict) {
			return nil
		}
		if err != nil {
			return errors.Wrap(errors.CodeUnknown, "open voting", err)
		}
		log.Printf("voting opened battle_id=%s final_round=%d ends_at=%s",
			battle.ID, battle.CurrentRound, endsAt.Format("2006-01-02T15:04:05Z07:00"))
		e.notifier.Publish(ctx, event.Event{
			BattleID: battle.ID,
			Type:     event.TypeVotingStarted,
			Payload: event.VotingStartedPayload{
				FinalRound:   battle.CurrentRound,
				VotingEndsAt: endsAt,
			},
		})
		return nil
	}

	next := domain.NewRound(battle.ID, battle.CurrentRound+1, e.clock)
	err := e.stores.Battles.AdvanceRound(ctx, battle.ID, battle.CurrentRound, next)
	if stderrors.Is(err, storage.ErrStatusConflict) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.CodeUnknown, "advance round", err)
	}
	e.notifier.Publish(ctx, event.Event{
		BattleID: battle.ID,
		Type:     event.TypeRoundComplete,
		Payload: event.RoundCompletePayload{
			Round:     battle.CurrentRound,
			NextRound: next.RoundNumber,
		},
	})
	return nil
}
