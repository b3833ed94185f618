package service

import (
	"context"
	stderrors "errors"
	"log"

	"github.com/thepit/arena/internal/arena/domain"
	"github.com/thepit/arena/internal/arena/event"
	"github.com/thepit/arena/internal/arena/storage"
	"github.com/thepit/arena/internal/errors"
	"github.com/thepit/arena/internal/rating"
)

// FinalizeResult reports the outcome of a finalization: the completed battle
// and the rating movement applied to each side.
type FinalizeResult struct {
	Battle       domain.Battle
	Draw         bool
	RatingDeltaA int
	RatingDeltaB int
}

// Finalize tallies the votes of a battle in VOTING, applies rating changes,
// and moves it to COMPLETE. The battle flip and both agents' updates commit
// in one transaction, so finalization happens exactly once: a second caller
// finds the battle out of the voting phase.
func (e *Engine) Finalize(ctx context.Context, battleID string) (FinalizeResult, error) {
	lock := e.battleLock(battleID)
	lock.Lock()
	defer lock.Unlock()

	battle, err := e.loadBattle(ctx, battleID)
	if err != nil {
		return FinalizeResult{}, err
	}
	if battle.Status != domain.BattleStatusVoting {
		return FinalizeResult{}, errors.WithMetadata(errors.CodeBattleNotVotingPhase,
			"battle is not in its voting phase",
			map[string]string{"status": battle.Status.String()})
	}

	outcome := rating.OutcomeDraw
	winnerID := ""
	switch {
	case battle.VotesA > battle.VotesB:
		outcome = rating.OutcomeAWins
		winnerID = battle.SideAID
	case battle.VotesB > battle.VotesA:
		outcome = rating.OutcomeBWins
		winnerID = battle.SideBID
	}

	agentA, err := e.loadAgent(ctx, battle.SideAID)
	if err != nil {
		return FinalizeResult{}, err
	}
	agentB, err := e.loadAgent(ctx, battle.SideBID)
	if err != nil {
		return FinalizeResult{}, err
	}

	result, err := rating.RateWith(agentA.Rating, agentB.Rating, outcome, rating.Config{
		KFactor:    e.cfg.KFactor,
		DrawPolicy: e.cfg.DrawPolicy,
	})
	if err != nil {
		return FinalizeResult{}, errors.Wrap(errors.CodeUnknown, "compute rating change", err)
	}

	now := e.clock().UTC()
	agentA.Rating = result.NewRatingA
	agentB.Rating = result.NewRatingB
	agentA.TotalBattles++
	agentB.TotalBattles++
	agentA.UpdatedAt = now
	agentB.UpdatedAt = now
	switch outcome {
	case rating.OutcomeAWins:
		agentA.Wins++
		agentB.Losses++
	case rating.OutcomeBWins:
		agentB.Wins++
		agentA.Losses++
	default:
		agentA.Draws++
		agentB.Draws++
	}

	err = e.stores.Battles.CompleteBattle(ctx, storage.CompleteBattleInput{
		BattleID: battle.ID,
		WinnerID: winnerID,
		EndedAt:  now,
		AgentA:   agentA,
		AgentB:   agentB,
	})
	if err != nil {
		if stderrors.Is(err, storage.ErrStatusConflict) {
			return FinalizeResult{}, errors.New(errors.CodeBattleNotVotingPhase,
				"battle was finalized concurrently")
		}
		return FinalizeResult{}, errors.Wrap(errors.CodeUnknown, "complete battle", err)
	}

	log.Printf("battle complete battle_id=%s winner_id=%s votes_a=%d votes_b=%d delta_a=%d delta_b=%d",
		battle.ID, winnerID, battle.VotesA, battle.VotesB, result.DeltaA, result.DeltaB)

	e.notifier.Publish(ctx, event.Event{
		BattleID: battle.ID,
		Type:     event.TypeBattleComplete,
		Payload: event.BattleCompletePayload{
			WinnerID:     winnerID,
			Draw:         winnerID == "",
			VotesA:       battle.VotesA,
			VotesB:       battle.VotesB,
			RatingDeltaA: result.DeltaA,
			RatingDeltaB: result.DeltaB,
		},
	})

	completed, err := e.loadBattle(ctx, battle.ID)
	if err != nil {
		return FinalizeResult{}, err
	}
	return FinalizeResult{
		Battle:       completed,
		Draw:         winnerID == "",
		RatingDeltaA: result.DeltaA,
		RatingDeltaB: result.DeltaB,
	}, nil
}
