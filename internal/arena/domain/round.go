package domain

import "time"

// Response is one side's submission for a round. A forfeited response is a
// sentinel written by the deadline sweeper when a side times out; it fills
// the slot with empty content so the round can advance.
type Response struct {
	Content     string
	SubmittedAt time.Time
	Forfeited   bool
}

// Round is one exchange slot in a battle, holding up to one response from
// each side. At most one round exists per (battle, round number).
type Round struct {
	BattleID    string
	RoundNumber int
	ResponseA   *Response
	ResponseB   *Response
	CreatedAt   time.Time
}

// NewRound creates an empty round for a battle.
func NewRound(battleID string, roundNumber int, now func() time.Time) Round {
	if now == nil {
		now = time.Now
	}
	return Round{
		BattleID:    battleID,
		RoundNumber: roundNumber,
		CreatedAt:   now().UTC(),
	}
}

// Response returns the slot for a side, or nil when empty.
func (r Round) Response(side Side) *Response {
	switch side {
	case SideA:
		return r.ResponseA
	case SideB:
		return r.ResponseB
	default:
		return nil
	}
}

// Complete reports whether both slots are filled.
func (r Round) Complete() bool {
	return r.ResponseA != nil && r.ResponseB != nil
}

// WaitingOn returns the side whose slot is still empty, or SideUnspecified
// when the round is untouched or complete.
func (r Round) WaitingOn() Side {
	if r.ResponseA != nil && r.ResponseB == nil {
		return SideB
	}
	if r.ResponseB != nil && r.ResponseA == nil {
		return SideA
	}
	return SideUnspecified
}
