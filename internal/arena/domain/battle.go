package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thepit/arena/internal/id"
)

// BattleFormat selects the contest style. It shapes prompts and presentation
// only; the lifecycle is identical across formats.
type BattleFormat string

const (
	FormatDebate   BattleFormat = "debate"
	FormatRoast    BattleFormat = "roast"
	FormatCode     BattleFormat = "code"
	FormatCreative BattleFormat = "creative"
)

// IsValid reports whether the format is supported.
func (f BattleFormat) IsValid() bool {
	switch f {
	case FormatDebate, FormatRoast, FormatCode, FormatCreative:
		return true
	default:
		return false
	}
}

// DefaultTotalRounds is the number of rounds fixed at creation when the
// caller does not choose one.
const DefaultTotalRounds = 5

var (
	// ErrSameParticipants indicates both sides reference the same agent.
	ErrSameParticipants = errors.New("battle sides must be distinct agents")
	// ErrEmptyParticipant indicates a missing side reference.
	ErrEmptyParticipant = errors.New("both battle sides are required")
	// ErrEmptyTopic indicates a missing battle topic.
	ErrEmptyTopic = errors.New("battle topic is required")
	// ErrInvalidFormat indicates an unsupported battle format.
	ErrInvalidFormat = errors.New("battle format is not supported")
	// ErrInvalidTotalRounds indicates a non-positive round count.
	ErrInvalidTotalRounds = errors.New("battle total rounds must be positive")
)

// Battle represents one scored contest between exactly two agents.
type Battle struct {
	ID           string
	Format       BattleFormat
	Topic        string
	SideAID      string
	SideBID      string
	WinnerID     string // empty until finalized; empty after a draw
	Status       BattleStatus
	CancelReason string
	CurrentRound int
	TotalRounds  int
	VotesA       int
	VotesB       int
	CreatedAt    time.Time
	StartedAt    *time.Time // nil until the first response lands
	EndedAt      *time.Time // nil until finalized or cancelled
	VotingEndsAt *time.Time // nil until voting opens
}

// CreateBattleInput describes the metadata needed to create a battle.
type CreateBattleInput struct {
	SideAID     string
	SideBID     string
	Topic       string
	Format      BattleFormat
	TotalRounds int
}

// CreateBattle creates a battle in READY status with a generated ID. The
// caller persists it together with round 1.
func CreateBattle(input CreateBattleInput, now func() time.Time, idGenerator func() (string, error)) (Battle, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateBattleInput(input)
	if err != nil {
		return Battle{}, err
	}

	battleID, err := idGenerator()
	if err != nil {
		return Battle{}, fmt.Errorf("generate battle id: %w", err)
	}

	return Battle{
		ID:           battleID,
		Format:       normalized.Format,
		Topic:        normalized.Topic,
		SideAID:      normalized.SideAID,
		SideBID:      normalized.SideBID,
		Status:       BattleStatusReady,
		CurrentRound: 1,
		TotalRounds:  normalized.TotalRounds,
		CreatedAt:    now().UTC(),
	}, nil
}

// NormalizeCreateBattleInput trims and validates battle creation input.
func NormalizeCreateBattleInput(input CreateBattleInput) (CreateBattleInput, error) {
	input.SideAID = strings.TrimSpace(input.SideAID)
	input.SideBID = strings.TrimSpace(input.SideBID)
	if input.SideAID == "" || input.SideBID == "" {
		return CreateBattleInput{}, ErrEmptyParticipant
	}
	if input.SideAID == input.SideBID {
		return CreateBattleInput{}, ErrSameParticipants
	}
	input.Topic = strings.TrimSpace(input.Topic)
	if input.Topic == "" {
		return CreateBattleInput{}, ErrEmptyTopic
	}
	if input.Format == "" {
		input.Format = FormatDebate
	}
	if !input.Format.IsValid() {
		return CreateBattleInput{}, ErrInvalidFormat
	}
	if input.TotalRounds == 0 {
		input.TotalRounds = DefaultTotalRounds
	}
	if input.TotalRounds < 0 {
		return CreateBattleInput{}, ErrInvalidTotalRounds
	}
	return input, nil
}

// ParticipantSide resolves an agent id to its side in the battle.
// Returns SideUnspecified when the agent is not a participant.
func (b Battle) ParticipantSide(agentID string) Side {
	switch agentID {
	case b.SideAID:
		return SideA
	case b.SideBID:
		return SideB
	default:
		return SideUnspecified
	}
}

// ParticipantID resolves a side to the agent occupying it.
func (b Battle) ParticipantID(side Side) string {
	switch side {
	case SideA:
		return b.SideAID
	case SideB:
		return b.SideBID
	default:
		return ""
	}
}

// FinalRound reports whether the battle's current round is its last.
func (b Battle) FinalRound() bool {
	return b.CurrentRound >= b.TotalRounds
}
