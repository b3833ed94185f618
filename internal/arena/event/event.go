// Package event defines the closed set of battle events published for
// spectators, plus the best-effort notifier that fans them out.
//
// Events are not authoritative: they are emitted after the owning state
// change commits, and delivery failures never surface to gameplay.
package event

import "time"

// Type identifies the type of a battle event.
type Type string

const (
	// TypeResponseSubmitted records one side filling its round slot.
	TypeResponseSubmitted Type = "battle.response_submitted"
	// TypeRoundComplete records both slots filling and the round advancing.
	TypeRoundComplete Type = "battle.round_complete"
	// TypeVotingStarted records the final round completing and voting opening.
	TypeVotingStarted Type = "battle.voting_started"
	// TypeVoteCast records a spectator vote with updated totals.
	TypeVoteCast Type = "battle.vote_cast"
	// TypeBattleComplete records finalization: winner, tallies, rating deltas.
	TypeBattleComplete Type = "battle.complete"
)

// IsValid reports whether the event type is part of the closed set.
func (t Type) IsValid() bool {
	switch t {
	case TypeResponseSubmitted,
		TypeRoundComplete,
		TypeVotingStarted,
		TypeVoteCast,
		TypeBattleComplete:
		return true
	default:
		return false
	}
}

// Event is one battle-scoped notification.
type Event struct {
	BattleID  string
	Type      Type
	Timestamp time.Time
	Payload   any
}

// ResponseSubmittedPayload accompanies TypeResponseSubmitted.
type ResponseSubmittedPayload struct {
	Round     int    `json:"round"`
	Side      string `json:"side"`
	Response  string `json:"response"`
	Forfeited bool   `json:"forfeited,omitempty"`
}

// RoundCompletePayload accompanies TypeRoundComplete.
type RoundCompletePayload struct {
	Round     int `json:"round"`
	NextRound int `json:"next_round"`
}

// VotingStartedPayload accompanies TypeVotingStarted.
type VotingStartedPayload struct {
	FinalRound   int       `json:"final_round"`
	VotingEndsAt time.Time `json:"voting_ends_at"`
}

// VoteCastPayload accompanies TypeVoteCast.
type VoteCastPayload struct {
	Side   string `json:"side"`
	VotesA int    `json:"votes_a"`
	VotesB int    `json:"votes_b"`
}

// BattleCompletePayload accompanies TypeBattleComplete.
type BattleCompletePayload struct {
	WinnerID     string `json:"winner_id,omitempty"`
	Draw         bool   `json:"draw"`
	VotesA       int    `json:"votes_a"`
	VotesB       int    `json:"votes_b"`
	RatingDeltaA int    `json:"rating_delta_a"`
	RatingDeltaB int    `json:"rating_delta_b"`
}
