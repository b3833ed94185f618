package domain

// BattleStatus describes the lifecycle state of a battle.
type BattleStatus int

const (
	// BattleStatusUnspecified represents an invalid battle status value.
	BattleStatusUnspecified BattleStatus = iota
	// BattleStatusCreated indicates the battle exists but is not yet paired.
	BattleStatusCreated
	// BattleStatusMatching indicates pairing is deferred to a matchmaker.
	BattleStatusMatching
	// BattleStatusReady indicates both sides are set and round 1 awaits input.
	BattleStatusReady
	// BattleStatusInProgress indicates at least one response was recorded.
	BattleStatusInProgress
	// BattleStatusVoting indicates all rounds are complete and spectators vote.
	BattleStatusVoting
	// BattleStatusComplete indicates the battle was finalized. Terminal.
	BattleStatusComplete
	// BattleStatusCancelled indicates the battle was cancelled. Terminal.
	BattleStatusCancelled
	// BattleStatusDisputed indicates the battle awaits external resolution.
	BattleStatusDisputed
)

var statusNames = map[BattleStatus]string{
	BattleStatusCreated:    "created",
	BattleStatusMatching:   "matching",
	BattleStatusReady:      "ready",
	BattleStatusInProgress: "in_progress",
	BattleStatusVoting:     "voting",
	BattleStatusComplete:   "complete",
	BattleStatusCancelled:  "cancelled",
	BattleStatusDisputed:   "disputed",
}

// String returns the wire name of the status.
func (s BattleStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unspecified"
}

// ParseBattleStatus maps a wire name back to a status.
func ParseBattleStatus(name string) BattleStatus {
	for status, statusName := range statusNames {
		if statusName == name {
			return status
		}
	}
	return BattleStatusUnspecified
}

// Terminal reports whether no further transitions are allowed.
func (s BattleStatus) Terminal() bool {
	return s == BattleStatusComplete || s == BattleStatusCancelled
}

// transitions is the single source of truth for legal status changes.
// Cancellation and dispute are representable from any non-terminal state and
// are handled in CanTransition rather than enumerated per state.
var transitions = map[BattleStatus][]BattleStatus{
	BattleStatusCreated:    {BattleStatusMatching, BattleStatusReady},
	BattleStatusMatching:   {BattleStatusReady},
	BattleStatusReady:      {BattleStatusInProgress},
	BattleStatusInProgress: {BattleStatusVoting},
	BattleStatusVoting:     {BattleStatusComplete},
	BattleStatusDisputed:   {BattleStatusComplete, BattleStatusCancelled},
}

// CanTransition reports whether moving from one status to another is legal.
func (s BattleStatus) CanTransition(to BattleStatus) bool {
	if s.Terminal() {
		return false
	}
	if to == BattleStatusCancelled || to == BattleStatusDisputed {
		return to != s
	}
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}
