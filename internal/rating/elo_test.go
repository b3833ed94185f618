package rating

import (
	"math"
	"testing"
)

func TestExpectedScoreSymmetry(t *testing.T) {
	pairs := [][2]int{
		{1200, 1200},
		{1000, 1400},
		{1850, 900},
		{1199, 1201},
	}
	for _, pair := range pairs {
		sum := ExpectedScore(pair[0], pair[1]) + ExpectedScore(pair[1], pair[0])
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("expected scores for (%d, %d) sum to %f, want 1", pair[0], pair[1], sum)
		}
	}
}

func TestEqualRatingsYieldSixteen(t *testing.T) {
	change := CalculateChange(1200, 1200, 32)
	if change.WinnerGain != 16 {
		t.Fatalf("winner gain = %d, want 16", change.WinnerGain)
	}
	if change.LoserLoss != 16 {
		t.Fatalf("loser loss = %d, want 16", change.LoserLoss)
	}
	if change.NewWinner != 1216 || change.NewLoser != 1184 {
		t.Fatalf("new ratings = (%d, %d), want (1216, 1184)", change.NewWinner, change.NewLoser)
	}
}

func TestUpsetsPayMore(t *testing.T) {
	prevGain := -1
	// Winner rating fixed; gain must strictly increase with the gap in the
	// loser's favor until the rounded values saturate at K.
	for gap := 0; gap <= 400; gap += 100 {
		change := CalculateChange(1200, 1200+gap, 32)
		if change.WinnerGain < 0 {
			t.Fatalf("gap %d: winner gain %d is negative", gap, change.WinnerGain)
		}
		if change.WinnerGain <= prevGain {
			t.Fatalf("gap %d: winner gain %d did not increase from %d", gap, change.WinnerGain, prevGain)
		}
		prevGain = change.WinnerGain
	}
}

func TestRoundingAsymmetryTolerated(t *testing.T) {
	// The two sides round independently; the deltas may differ by one.
	change := CalculateChange(1300, 1200, 32)
	diff := change.WinnerGain - change.LoserLoss
	if diff < -1 || diff > 1 {
		t.Fatalf("gain %d and loss %d diverge by more than rounding", change.WinnerGain, change.LoserLoss)
	}
}

func TestRateAWins(t *testing.T) {
	result, err := Rate(1200, 1200, OutcomeAWins)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if result.DeltaA != 16 || result.DeltaB != -16 {
		t.Fatalf("deltas = (%d, %d), want (16, -16)", result.DeltaA, result.DeltaB)
	}
	if result.NewRatingA != 1216 || result.NewRatingB != 1184 {
		t.Fatalf("new ratings = (%d, %d), want (1216, 1184)", result.NewRatingA, result.NewRatingB)
	}
}

func TestRateBWins(t *testing.T) {
	result, err := Rate(1400, 1000, OutcomeBWins)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if result.DeltaB <= 16 {
		t.Fatalf("underdog win delta = %d, want > 16", result.DeltaB)
	}
	if result.DeltaA >= 0 {
		t.Fatalf("loser delta = %d, want negative", result.DeltaA)
	}
}

func TestRateDrawDefaultPolicy(t *testing.T) {
	result, err := Rate(1300, 1100, OutcomeDraw)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if result.DeltaA != 0 || result.DeltaB != 0 {
		t.Fatalf("draw deltas = (%d, %d), want (0, 0)", result.DeltaA, result.DeltaB)
	}
	if result.NewRatingA != 1300 || result.NewRatingB != 1100 {
		t.Fatalf("draw ratings changed: (%d, %d)", result.NewRatingA, result.NewRatingB)
	}
}

func TestRateDrawHalfKPolicy(t *testing.T) {
	result, err := RateWith(1400, 1000, OutcomeDraw, Config{KFactor: 32, DrawPolicy: DrawPolicyHalfK})
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	// The favorite drops and the underdog climbs when a draw is scored 0.5.
	if result.DeltaA >= 0 {
		t.Fatalf("favorite draw delta = %d, want negative", result.DeltaA)
	}
	if result.DeltaB <= 0 {
		t.Fatalf("underdog draw delta = %d, want positive", result.DeltaB)
	}
}

func TestRateUnspecifiedOutcome(t *testing.T) {
	if _, err := Rate(1200, 1200, OutcomeUnspecified); err == nil {
		t.Fatal("expected error for unspecified outcome")
	}
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		rating int
		want   Tier
	}{
		{1800, TierChampion},
		{1799, TierDiamond},
		{1500, TierDiamond},
		{1499, TierGold},
		{1300, TierGold},
		{1299, TierSilver},
		{1100, TierSilver},
		{1099, TierBronze},
		{0, TierBronze},
	}
	for _, tc := range cases {
		if got := TierFor(tc.rating); got != tc.want {
			t.Fatalf("TierFor(%d) = %q, want %q", tc.rating, got, tc.want)
		}
	}
}
