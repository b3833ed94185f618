package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/thepit/arena/internal/arena/domain"
	"github.com/thepit/arena/internal/arena/storage"
)

var testClock = func() time.Time {
	return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
}

func TestPutGetAgent(t *testing.T) {
	store := openTempStore(t)

	agent := testAgent("agent-1", "Rustbucket", 1200)
	if err := store.PutAgent(context.Background(), agent); err != nil {
		t.Fatalf("put agent: %v", err)
	}

	got, err := store.GetAgent(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if got.Name != "Rustbucket" || got.Rating != 1200 {
		t.Fatalf("unexpected agent %+v", got)
	}

	if _, err := store.GetAgent(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListAgentsByRating(t *testing.T) {
	store := openTempStore(t)
	seedAgents(t, store, 1100, 1450, 1900)

	agents, err := store.ListAgentsByRating(context.Background(), 10)
	if err != nil {
		t.Fatalf("list agents: %v", err)
	}
	if len(agents) != 3 {
		t.Fatalf("agents len = %d, want 3", len(agents))
	}
	if agents[0].Rating != 1900 || agents[2].Rating != 1100 {
		t.Fatalf("agents not ordered by rating: %+v", agents)
	}
}

func TestCreateAndGetBattle(t *testing.T) {
	store := openTempStore(t)
	battle := seedBattle(t, store)

	got, err := store.GetBattle(context.Background(), battle.ID)
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if got.Status != domain.BattleStatusReady {
		t.Fatalf("status = %v, want ready", got.Status)
	}
	if got.CurrentRound != 1 || got.TotalRounds != 5 {
		t.Fatalf("rounds = (%d, %d), want (1, 5)", got.CurrentRound, got.TotalRounds)
	}

	round, err := store.GetRound(context.Background(), battle.ID, 1)
	if err != nil {
		t.Fatalf("get round 1: %v", err)
	}
	if round.Complete() {
		t.Fatal("fresh round should be empty")
	}
}

func TestSetResponseSlotIsFirstWins(t *testing.T) {
	store := openTempStore(t)
	battle := seedBattle(t, store)

	response := domain.Response{Content: "opening statement", SubmittedAt: testClock()}
	if err := store.SetResponse(context.Background(), battle.ID, 1, domain.SideA, response); err != nil {
		t.Fatalf("set response: %v", err)
	}

	err := store.SetResponse(context.Background(), battle.ID, 1, domain.SideA, response)
	if !errors.Is(err, storage.ErrSlotTaken) {
		t.Fatalf("err = %v, want ErrSlotTaken", err)
	}

	err = store.SetResponse(context.Background(), battle.ID, 99, domain.SideA, response)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for missing round", err)
	}
}

func TestAdvanceRoundAtMostOnce(t *testing.T) {
	store := openTempStore(t)
	battle := seedBattle(t, store)
	if err := store.MarkInProgress(context.Background(), battle.ID, testClock()); err != nil {
		t.Fatalf("mark in progress: %v", err)
	}

	next := domain.NewRound(battle.ID, 2, testClock)
	if err := store.AdvanceRound(context.Background(), battle.ID, 1, next); err != nil {
		t.Fatalf("advance round: %v", err)
	}

	// A concurrent writer that lost the race observes the conflict.
	err := store.AdvanceRound(context.Background(), battle.ID, 1, next)
	if !errors.Is(err, storage.ErrStatusConflict) {
		t.Fatalf("err = %v, want ErrStatusConflict", err)
	}

	got, err := store.GetBattle(context.Background(), battle.ID)
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if got.CurrentRound != 2 {
		t.Fatalf("current round = %d, want 2", got.CurrentRound)
	}
	if _, err := store.GetRound(context.Background(), battle.ID, 2); err != nil {
		t.Fatalf("round 2 should exist: %v", err)
	}
}

func TestOpenVotingConditional(t *testing.T) {
	store := openTempStore(t)
	battle := seedBattle(t, store)
	if err := store.MarkInProgress(context.Background(), battle.ID, testClock()); err != nil {
		t.Fatalf("mark in progress: %v", err)
	}

	endsAt := testClock().Add(24 * time.Hour)
	if err := store.OpenVoting(context.Background(), battle.ID, 1, endsAt); err != nil {
		t.Fatalf("open voting: %v", err)
	}
	if err := store.OpenVoting(context.Background(), battle.ID, 1, endsAt); !errors.Is(err, storage.ErrStatusConflict) {
		t.Fatalf("err = %v, want ErrStatusConflict", err)
	}

	got, err := store.GetBattle(context.Background(), battle.ID)
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if got.Status != domain.BattleStatusVoting {
		t.Fatalf("status = %v, want voting", got.Status)
	}
	if got.VotingEndsAt == nil || !got.VotingEndsAt.Equal(endsAt) {
		t.Fatalf("voting ends at = %v, want %v", got.VotingEndsAt, endsAt)
	}
}

func TestCompleteBattleAtMostOnce(t *testing.T) {
	store := openTempStore(t)
	battle := seedVotingBattle(t, store)

	agentA, err := store.GetAgent(context.Background(), battle.SideAID)
	if err != nil {
		t.Fatalf("get agent a: %v", err)
	}
	agentB, err := store.GetAgent(context.Background(), battle.SideBID)
	if err != nil {
		t.Fatalf("get agent b: %v", err)
	}
	agentA.Rating = 1216
	agentA.Wins++
	agentA.TotalBattles++
	agentB.Rating = 1184
	agentB.Losses++
	agentB.TotalBattles++

	input := storage.CompleteBattleInput{
		BattleID: battle.ID,
		WinnerID: battle.SideAID,
		EndedAt:  testClock(),
		AgentA:   agentA,
		AgentB:   agentB,
	}
	if err := store.CompleteBattle(context.Background(), input); err != nil {
		t.Fatalf("complete battle: %v", err)
	}
	if err := store.CompleteBattle(context.Background(), input); !errors.Is(err, storage.ErrStatusConflict) {
		t.Fatalf("second complete err = %v, want ErrStatusConflict", err)
	}

	got, err := store.GetBattle(context.Background(), battle.ID)
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if got.Status != domain.BattleStatusComplete {
		t.Fatalf("status = %v, want complete", got.Status)
	}
	if got.WinnerID != battle.SideAID {
		t.Fatalf("winner = %q, want %q", got.WinnerID, battle.SideAID)
	}

	updatedA, err := store.GetAgent(context.Background(), battle.SideAID)
	if err != nil {
		t.Fatalf("get updated agent a: %v", err)
	}
	if updatedA.Rating != 1216 || updatedA.Wins != 1 {
		t.Fatalf("agent a not updated: %+v", updatedA)
	}
}

func TestCompleteBattleDrawLeavesWinnerNull(t *testing.T) {
	store := openTempStore(t)
	battle := seedVotingBattle(t, store)

	agentA, _ := store.GetAgent(context.Background(), battle.SideAID)
	agentB, _ := store.GetAgent(context.Background(), battle.SideBID)
	agentA.Draws++
	agentA.TotalBattles++
	agentB.Draws++
	agentB.TotalBattles++

	if err := store.CompleteBattle(context.Background(), storage.CompleteBattleInput{
		BattleID: battle.ID,
		EndedAt:  testClock(),
		AgentA:   agentA,
		AgentB:   agentB,
	}); err != nil {
		t.Fatalf("complete battle: %v", err)
	}

	got, err := store.GetBattle(context.Background(), battle.ID)
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if got.WinnerID != "" {
		t.Fatalf("winner = %q, want empty for draw", got.WinnerID)
	}
}

func TestCastVoteDuplicate(t *testing.T) {
	store := openTempStore(t)
	battle := seedVotingBattle(t, store)

	vote := domain.Vote{BattleID: battle.ID, VoterID: "spectator-1", Side: domain.SideA, CastAt: testClock()}
	votesA, votesB, err := store.CastVote(context.Background(), vote)
	if err != nil {
		t.Fatalf("cast vote: %v", err)
	}
	if votesA != 1 || votesB != 0 {
		t.Fatalf("tallies = (%d, %d), want (1, 0)", votesA, votesB)
	}

	vote.Side = domain.SideB
	if _, _, err := store.CastVote(context.Background(), vote); !errors.Is(err, storage.ErrDuplicateVote) {
		t.Fatalf("err = %v, want ErrDuplicateVote", err)
	}

	got, err := store.GetBattle(context.Background(), battle.ID)
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if got.VotesA != 1 || got.VotesB != 0 {
		t.Fatalf("tallies after duplicate = (%d, %d), want (1, 0)", got.VotesA, got.VotesB)
	}
}

func TestCastVoteOnDecidedBattleConflict(t *testing.T) {
	store := openTempStore(t)
	battle := seedVotingBattle(t, store)

	agentA, _ := store.GetAgent(context.Background(), battle.SideAID)
	agentB, _ := store.GetAgent(context.Background(), battle.SideBID)
	if err := store.CompleteBattle(context.Background(), storage.CompleteBattleInput{
		BattleID: battle.ID,
		EndedAt:  testClock(),
		AgentA:   agentA,
		AgentB:   agentB,
	}); err != nil {
		t.Fatalf("complete battle: %v", err)
	}

	// A vote that lost the race against finalization must not land.
	vote := domain.Vote{BattleID: battle.ID, VoterID: "spectator-1", Side: domain.SideA, CastAt: testClock()}
	if _, _, err := store.CastVote(context.Background(), vote); !errors.Is(err, storage.ErrStatusConflict) {
		t.Fatalf("err = %v, want ErrStatusConflict", err)
	}

	got, err := store.GetBattle(context.Background(), battle.ID)
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if got.VotesA != 0 || got.VotesB != 0 {
		t.Fatalf("tallies moved on a completed battle: (%d, %d)", got.VotesA, got.VotesB)
	}

	vote.BattleID = "missing"
	if _, _, err := store.CastVote(context.Background(), vote); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCloseBattleRejectsTerminal(t *testing.T) {
	store := openTempStore(t)
	battle := seedBattle(t, store)

	if err := store.CloseBattle(context.Background(), battle.ID, domain.BattleStatusCancelled, "no-show", testClock()); err != nil {
		t.Fatalf("close battle: %v", err)
	}
	err := store.CloseBattle(context.Background(), battle.ID, domain.BattleStatusCancelled, "again", testClock())
	if !errors.Is(err, storage.ErrStatusConflict) {
		t.Fatalf("err = %v, want ErrStatusConflict", err)
	}

	got, err := store.GetBattle(context.Background(), battle.ID)
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if got.Status != domain.BattleStatusCancelled || got.CancelReason != "no-show" {
		t.Fatalf("unexpected battle %+v", got)
	}
}

func TestListVotingExpired(t *testing.T) {
	store := openTempStore(t)
	battle := seedVotingBattle(t, store)

	asOf := testClock().Add(23 * time.Hour)
	expired, err := store.ListVotingExpired(context.Background(), asOf, 10)
	if err != nil {
		t.Fatalf("list voting expired: %v", err)
	}
	if len(expired) != 0 {
		t.Fatalf("expired before deadline = %d, want 0", len(expired))
	}

	asOf = testClock().Add(25 * time.Hour)
	expired, err = store.ListVotingExpired(context.Background(), asOf, 10)
	if err != nil {
		t.Fatalf("list voting expired: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != battle.ID {
		t.Fatalf("expired = %+v, want [%s]", expired, battle.ID)
	}
}

func TestListStalledTurns(t *testing.T) {
	store := openTempStore(t)
	battle := seedBattle(t, store)

	submittedAt := testClock()
	if err := store.SetResponse(context.Background(), battle.ID, 1, domain.SideA, domain.Response{
		Content:     "only one side showed up",
		SubmittedAt: submittedAt,
	}); err != nil {
		t.Fatalf("set response: %v", err)
	}

	stalled, err := store.ListStalledTurns(context.Background(), submittedAt.Add(-time.Second), 10)
	if err != nil {
		t.Fatalf("list stalled turns: %v", err)
	}
	if len(stalled) != 0 {
		t.Fatalf("stalled before timeout = %d, want 0", len(stalled))
	}

	stalled, err = store.ListStalledTurns(context.Background(), submittedAt.Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("list stalled turns: %v", err)
	}
	if len(stalled) != 1 {
		t.Fatalf("stalled = %d, want 1", len(stalled))
	}
	if stalled[0].BattleID != battle.ID || stalled[0].WaitingOn != domain.SideB {
		t.Fatalf("unexpected stalled turn %+v", stalled[0])
	}
}

func TestListStalledTurnsBothSidesEmpty(t *testing.T) {
	store := openTempStore(t)
	battle := seedBattle(t, store)

	stalled, err := store.ListStalledTurns(context.Background(), testClock().Add(-time.Second), 10)
	if err != nil {
		t.Fatalf("list stalled turns: %v", err)
	}
	if len(stalled) != 0 {
		t.Fatalf("stalled before timeout = %d, want 0", len(stalled))
	}

	// An untouched round stalls on its creation time, reporting side A first.
	stalled, err = store.ListStalledTurns(context.Background(), testClock().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("list stalled turns: %v", err)
	}
	if len(stalled) != 1 {
		t.Fatalf("stalled = %d, want 1", len(stalled))
	}
	if stalled[0].BattleID != battle.ID || stalled[0].WaitingOn != domain.SideA {
		t.Fatalf("unexpected stalled turn %+v", stalled[0])
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arena.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func testAgent(id, name string, agentRating int) domain.Agent {
	return domain.Agent{
		ID:        id,
		Name:      name,
		Rating:    agentRating,
		CreatedAt: testClock(),
		UpdatedAt: testClock(),
	}
}

func seedAgents(t *testing.T, store *Store, ratings ...int) {
	t.Helper()
	for i, value := range ratings {
		agent := testAgent(
			"agent-"+string(rune('a'+i)),
			"Agent "+string(rune('A'+i)),
			value,
		)
		if err := store.PutAgent(context.Background(), agent); err != nil {
			t.Fatalf("seed agent: %v", err)
		}
	}
}

func seedBattle(t *testing.T, store *Store) domain.Battle {
	t.Helper()
	for _, agent := range []domain.Agent{
		testAgent("agent-a", "Alpha", 1200),
		testAgent("agent-b", "Beta", 1200),
	} {
		if err := store.PutAgent(context.Background(), agent); err != nil {
			t.Fatalf("seed agent: %v", err)
		}
	}

	battle := domain.Battle{
		ID:           "battle-1",
		Format:       domain.FormatDebate,
		Topic:        "tabs versus spaces",
		SideAID:      "agent-a",
		SideBID:      "agent-b",
		Status:       domain.BattleStatusReady,
		CurrentRound: 1,
		TotalRounds:  5,
		CreatedAt:    testClock(),
	}
	if err := store.CreateBattle(context.Background(), battle, domain.NewRound(battle.ID, 1, testClock)); err != nil {
		t.Fatalf("seed battle: %v", err)
	}
	return battle
}

func seedVotingBattle(t *testing.T, store *Store) domain.Battle {
	t.Helper()
	battle := seedBattle(t, store)
	if err := store.MarkInProgress(context.Background(), battle.ID, testClock()); err != nil {
		t.Fatalf("mark in progress: %v", err)
	}
	for round := 1; round < battle.TotalRounds; round++ {
		fillRound(t, store, battle.ID, round)
		if err := store.AdvanceRound(context.Background(), battle.ID, round, domain.NewRound(battle.ID, round+1, testClock)); err != nil {
			t.Fatalf("advance round %d: %v", round, err)
		}
	}
	fillRound(t, store, battle.ID, battle.TotalRounds)
	if err := store.OpenVoting(context.Background(), battle.ID, battle.TotalRounds, testClock().Add(24*time.Hour)); err != nil {
		t.Fatalf("open voting: %v", err)
	}
	return battle
}

func fillRound(t *testing.T, store *Store, battleID string, roundNumber int) {
	t.Helper()
	for _, side := range []domain.Side{domain.SideA, domain.SideB} {
		if err := store.SetResponse(context.Background(), battleID, roundNumber, side, domain.Response{
			Content:     "round response text",
			SubmittedAt: testClock(),
		}); err != nil {
			t.Fatalf("fill round %d side %s: %v", roundNumber, side, err)
		}
	}
}
