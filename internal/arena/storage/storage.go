// Package storage defines the persistence contracts for the battle engine.
//
// Conditional-update semantics are part of the contract: mutators that
// enforce at-most-once transitions report ErrStatusConflict or ErrSlotTaken
// instead of silently re-applying, so callers can distinguish "lost the
// race" from "broken".
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/thepit/arena/internal/arena/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrStatusConflict indicates a conditional update found the battle in a
	// different state than expected. Expected under concurrency.
	ErrStatusConflict = errors.New("battle state changed concurrently")
	// ErrSlotTaken indicates a round response slot was already filled.
	ErrSlotTaken = errors.New("round response slot already filled")
	// ErrDuplicateVote indicates the voter already voted in this battle.
	ErrDuplicateVote = errors.New("voter already voted in this battle")
)

// AgentStore persists agent records.
type AgentStore interface {
	PutAgent(ctx context.Context, agent domain.Agent) error
	GetAgent(ctx context.Context, agentID string) (domain.Agent, error)
	// ListAgentsByRating returns up to limit agents, highest rating first.
	ListAgentsByRating(ctx context.Context, limit int) ([]domain.Agent, error)
}

// CompleteBattleInput carries everything the one-time finalization writes:
// the battle flip and both agents' new ratings and counters commit together.
type CompleteBattleInput struct {
	BattleID string
	WinnerID string // empty records a draw
	EndedAt  time.Time
	AgentA   domain.Agent
	AgentB   domain.Agent
}

// BattleStore persists battles and their status transitions.
type BattleStore interface {
	// CreateBattle persists a battle together with its first round.
	CreateBattle(ctx context.Context, battle domain.Battle, firstRound domain.Round) error
	GetBattle(ctx context.Context, battleID string) (domain.Battle, error)

	// MarkInProgress flips READY to IN_PROGRESS and stamps the start time.
	// A battle already in progress is left untouched without error.
	MarkInProgress(ctx context.Context, battleID string, startedAt time.Time) error

	// AdvanceRound bumps current_round from fromRound and inserts the next
	// empty round, only while the battle is in progress on fromRound.
	// Returns ErrStatusConflict when another writer advanced first.
	AdvanceRound(ctx context.Context, battleID string, fromRound int, next domain.Round) error

	// OpenVoting flips IN_PROGRESS to VOTING with a deadline, only while the
	// battle sits on fromRound. Returns ErrStatusConflict when beaten.
	OpenVoting(ctx context.Context, battleID string, fromRound int, endsAt time.Time) error

	// CompleteBattle performs the one-time finalization: it flips VOTING to
	// COMPLETE and writes both agents' ratings and counters in one
	// transaction. Returns ErrStatusConflict unless the battle is in VOTING.
	CompleteBattle(ctx context.Context, input CompleteBattleInput) error

	// CloseBattle flips any non-terminal status to CANCELLED or DISPUTED.
	// Returns ErrStatusConflict when the battle is already terminal.
	CloseBattle(ctx context.Context, battleID string, to domain.BattleStatus, reason string, at time.Time) error

	// ListVotingExpired returns battles still in VOTING whose deadline
	// passed as of the given instant.
	ListVotingExpired(ctx context.Context, asOf time.Time, limit int) ([]domain.Battle, error)
}

// StalledTurn identifies a round waiting on one side past the turn timeout.
type StalledTurn struct {
	BattleID    string
	RoundNumber int
	WaitingOn   domain.Side
}

// RoundStore persists rounds and their response slots.
type RoundStore interface {
	GetRound(ctx context.Context, battleID string, roundNumber int) (domain.Round, error)

	// SetResponse fills one side's slot. The write is conditional on the
	// slot being empty; a filled slot returns ErrSlotTaken.
	SetResponse(ctx context.Context, battleID string, roundNumber int, side domain.Side, response domain.Response) error

	// ListStalledTurns returns rounds of active battles where exactly one
	// slot is filled and it was filled before the cutoff.
	ListStalledTurns(ctx context.Context, cutoff time.Time, limit int) ([]StalledTurn, error)
}

// VoteStore persists spectator votes.
type VoteStore interface {
	// CastVote records a vote and increments the battle tally in one
	// transaction, returning the updated totals. A repeat vote by the same
	// voter returns ErrDuplicateVote and leaves tallies unchanged.
	CastVote(ctx context.Context, vote domain.Vote) (votesA, votesB int, err error)
}
