package service

import (
	"context"
	stderrors "errors"

	"github.com/thepit/arena/internal/arena/domain"
	"github.com/thepit/arena/internal/arena/event"
	"github.com/thepit/arena/internal/arena/storage"
	"github.com/thepit/arena/internal/errors"
)

// Tally is the running vote count after a cast.
type Tally struct {
	VotesA int
	VotesB int
}

// CastVote records one spectator vote while the battle is in its voting
// window. Each voter gets one vote per battle. Votes take the battle lock
// like every other mutation, so a vote cannot interleave with finalization.
func (e *Engine) CastVote(ctx context.Context, battleID, voterID string, side domain.Side) (Tally, error) {
	if side != domain.SideA && side != domain.SideB {
		return Tally{}, errors.New(errors.CodeVoteInvalidSide, "vote side must be a or b")
	}

	lock := e.battleLock(battleID)
	lock.Lock()
	defer lock.Unlock()

	battle, err := e.loadBattle(ctx, battleID)
	if err != nil {
		return Tally{}, err
	}
	if battle.Status != domain.BattleStatusVoting {
		return Tally{}, errors.WithMetadata(errors.CodeBattleNotVotingPhase,
			"battle is not accepting votes",
			map[string]string{"status": battle.Status.String()})
	}
	now := e.clock().UTC()
	if battle.VotingEndsAt != nil && now.After(*battle.VotingEndsAt) {
		return Tally{}, errors.New(errors.CodeBattleVotingClosed, "voting window has closed")
	}

	vote, err := domain.NewVote(battleID, voterID, side, e.clock)
	if err != nil {
		if stderrors.Is(err, domain.ErrEmptyVoter) {
			return Tally{}, errors.Wrap(errors.CodeVoterEmpty, err.Error(), err)
		}
		return Tally{}, errors.Wrap(errors.CodeUnknown, "build vote", err)
	}

	votesA, votesB, err := e.stores.Votes.CastVote(ctx, vote)
	if err != nil {
		if stderrors.Is(err, storage.ErrDuplicateVote) {
			return Tally{}, errors.WithMetadata(errors.CodeVoteDuplicate,
				"voter already voted in this battle",
				map[string]string{"voter_id": vote.VoterID})
		}
		if stderrors.Is(err, storage.ErrStatusConflict) {
			return Tally{}, errors.New(errors.CodeBattleNotVotingPhase,
				"battle left its voting phase")
		}
		return Tally{}, errors.Wrap(errors.CodeUnknown, "record vote", err)
	}

	e.notifier.Publish(ctx, event.Event{
		BattleID: battleID,
		Type:     event.TypeVoteCast,
		Payload: event.VoteCastPayload{
			Side:   side.String(),
			VotesA: votesA,
			VotesB: votesB,
		},
	})
	return Tally{VotesA: votesA, VotesB: votesB}, nil
}
