package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrEmptyVoter indicates a missing voter identity.
var ErrEmptyVoter = errors.New("voter identity is required")

// Vote records one spectator's choice in a battle. A voter may cast at most
// one vote per battle.
type Vote struct {
	BattleID string
	VoterID  string
	Side     Side
	CastAt   time.Time
}

// NewVote validates and builds a vote.
func NewVote(battleID, voterID string, side Side, now func() time.Time) (Vote, error) {
	if now == nil {
		now = time.Now
	}
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return Vote{}, ErrEmptyVoter
	}
	return Vote{
		BattleID: battleID,
		VoterID:  voterID,
		Side:     side,
		CastAt:   now().UTC(),
	}, nil
}
