// Package rating computes ELO-style rating updates for pairwise outcomes.
//
// The package is pure: callers persist the returned deltas and update
// win/loss/draw counters themselves.
package rating

import (
	"fmt"
	"math"
)

// DefaultKFactor is the K-factor applied when none is configured.
const DefaultKFactor = 32

// DefaultRating is the rating assigned to agents before their first battle.
const DefaultRating = 1200

// Outcome identifies the result of a battle from side A's perspective.
type Outcome int

const (
	// OutcomeUnspecified represents an invalid outcome value.
	OutcomeUnspecified Outcome = iota
	// OutcomeAWins indicates side A won the battle.
	OutcomeAWins
	// OutcomeBWins indicates side B won the battle.
	OutcomeBWins
	// OutcomeDraw indicates the battle ended without a winner.
	OutcomeDraw
)

// DrawPolicy selects how drawn battles affect ratings.
type DrawPolicy int

const (
	// DrawPolicyNone leaves both ratings unchanged on a draw.
	DrawPolicyNone DrawPolicy = iota
	// DrawPolicyHalfK scores a draw as 0.5 for both sides, shifting rating
	// toward the expectation gap.
	DrawPolicyHalfK
)

// Config tunes the rating computation.
type Config struct {
	KFactor    int
	DrawPolicy DrawPolicy
}

// Result describes the rating change for both sides of a battle.
type Result struct {
	DeltaA     int
	DeltaB     int
	NewRatingA int
	NewRatingB int
}

// Change mirrors a decisive outcome from the winner's perspective. The gain
// and loss are rounded independently, so they need not be numerically equal.
type Change struct {
	WinnerGain int
	LoserLoss  int
	NewWinner  int
	NewLoser   int
}

// ExpectedScore returns the probability-like expected score for a player
// against an opponent. ExpectedScore(x, y) + ExpectedScore(y, x) == 1.
func ExpectedScore(playerRating, opponentRating int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponentRating-playerRating)/400))
}

// CalculateChange computes the rating movement for a decisive outcome.
func CalculateChange(winnerRating, loserRating, kFactor int) Change {
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}
	gain := int(math.Round(float64(kFactor) * (1 - ExpectedScore(winnerRating, loserRating))))
	loss := int(math.Round(float64(kFactor) * ExpectedScore(loserRating, winnerRating)))
	return Change{
		WinnerGain: gain,
		LoserLoss:  loss,
		NewWinner:  winnerRating + gain,
		NewLoser:   loserRating - loss,
	}
}

// Rate computes both sides' rating changes using the default configuration.
func Rate(ratingA, ratingB int, outcome Outcome) (Result, error) {
	return RateWith(ratingA, ratingB, outcome, Config{KFactor: DefaultKFactor})
}

// RateWith computes both sides' rating changes with an explicit configuration.
func RateWith(ratingA, ratingB int, outcome Outcome, cfg Config) (Result, error) {
	kFactor := cfg.KFactor
	if kFactor <= 0 {
		kFactor = DefaultKFactor
	}

	switch outcome {
	case OutcomeAWins:
		change := CalculateChange(ratingA, ratingB, kFactor)
		return Result{
			DeltaA:     change.WinnerGain,
			DeltaB:     -change.LoserLoss,
			NewRatingA: change.NewWinner,
			NewRatingB: change.NewLoser,
		}, nil
	case OutcomeBWins:
		change := CalculateChange(ratingB, ratingA, kFactor)
		return Result{
			DeltaA:     -change.LoserLoss,
			DeltaB:     change.WinnerGain,
			NewRatingA: change.NewLoser,
			NewRatingB: change.NewWinner,
		}, nil
	case OutcomeDraw:
		if cfg.DrawPolicy == DrawPolicyHalfK {
			deltaA := int(math.Round(float64(kFactor) * (0.5 - ExpectedScore(ratingA, ratingB))))
			deltaB := int(math.Round(float64(kFactor) * (0.5 - ExpectedScore(ratingB, ratingA))))
			return Result{
				DeltaA:     deltaA,
				DeltaB:     deltaB,
				NewRatingA: ratingA + deltaA,
				NewRatingB: ratingB + deltaB,
			}, nil
		}
		return Result{NewRatingA: ratingA, NewRatingB: ratingB}, nil
	default:
		return Result{}, fmt.Errorf("unsupported outcome: %d", outcome)
	}
}
