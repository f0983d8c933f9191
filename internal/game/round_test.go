package game

import (
	"testing"

	"cardtable-online/internal/table"
)

func newSeatedRound(t *testing.T, seats int, userSeats ...int) *Round {
	t.Helper()
	r, err := NewRound(seats)
	if err != nil {
		t.Fatalf("NewRound failed: %v", err)
	}
	for i, seat := range userSeats {
		if err := r.SeatPlayer(int64(i+1), seat); err != nil {
			t.Fatalf("SeatPlayer(%d, %d) failed: %v", i+1, seat, err)
		}
	}
	return r
}

func advanceTo(t *testing.T, r *Round, target Phase) {
	t.Helper()
	steps := []struct {
		phase Phase
		step  func() error
	}{
		{PhaseSeating, r.StartRound},
		{PhaseDealing, r.FinishDealing},
		{PhaseTossing, func() error { return r.ResolveToss(0) }},
		{PhaseChallenging, func() error { return r.ResolveChallenge(nil) }},
		{PhasePlaying, r.FinishRound},
	}
	for _, s := range steps {
		if r.Phase() == target {
			return
		}
		if r.Phase() != s.phase {
			t.Fatalf("unexpected phase %q while advancing to %q", r.Phase(), target)
		}
		if err := s.step(); err != nil {
			t.Fatalf("advancing from %q failed: %v", s.phase, err)
		}
	}
	if r.Phase() != target {
		t.Fatalf("failed to reach phase %q, stuck at %q", target, r.Phase())
	}
}

func TestFullRoundLifecycle(t *testing.T) {
	r := newSeatedRound(t, 4, 0, 1, 2)

	if err := r.StartRound(); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}
	if r.Phase() != PhaseDealing {
		t.Fatalf("expected dealing, got %q", r.Phase())
	}
	dealer, ok := r.Table().Dealer()
	if !ok || dealer != 0 {
		t.Fatalf("expected first dealer at seat 0, got %d (set=%v)", dealer, ok)
	}
	turn, ok := r.Table().Turn()
	if !ok || turn != dealer {
		t.Fatalf("expected turn on dealer, got %d (set=%v)", turn, ok)
	}

	if err := r.FinishDealing(); err != nil {
		t.Fatalf("FinishDealing failed: %v", err)
	}
	if err := r.ResolveToss(2); err != nil {
		t.Fatalf("ResolveToss failed: %v", err)
	}
	winner, ok := r.TossWinner()
	if !ok || winner != 2 {
		t.Fatalf("expected toss winner at seat 2, got %d (set=%v)", winner, ok)
	}

	challenger := 1
	if err := r.ResolveChallenge(&challenger); err != nil {
		t.Fatalf("ResolveChallenge failed: %v", err)
	}
	if turn, _ := r.Table().Turn(); turn != 1 {
		t.Fatalf("expected turn on challenger seat 1, got %d", turn)
	}

	if err := r.FinishRound(); err != nil {
		t.Fatalf("FinishRound failed: %v", err)
	}
	if _, ok := r.Table().Turn(); ok {
		t.Fatalf("expected turn cleared after finish")
	}

	if err := r.ResetForNextRound(); err != nil {
		t.Fatalf("ResetForNextRound failed: %v", err)
	}
	if r.Phase() != PhaseSeating {
		t.Fatalf("expected seating after reset, got %q", r.Phase())
	}
	if _, ok := r.TossWinner(); ok {
		t.Fatalf("expected toss winner cleared after reset")
	}
	if got := len(r.Deck()); got != DeckSize {
		t.Fatalf("expected rebuilt %d-card deck, got %d", DeckSize, got)
	}
}

func TestChallengeDeclinedKeepsTossWinnerLead(t *testing.T) {
	r := newSeatedRound(t, 4, 0, 1)
	advanceTo(t, r, PhaseTossing)

	if err := r.ResolveToss(1); err != nil {
		t.Fatalf("ResolveToss failed: %v", err)
	}
	if err := r.ResolveChallenge(nil); err != nil {
		t.Fatalf("ResolveChallenge failed: %v", err)
	}
	if turn, _ := r.Table().Turn(); turn != 1 {
		t.Fatalf("expected lead on toss winner seat 1, got %d", turn)
	}
}

func TestDealerRotatesBetweenRounds(t *testing.T) {
	r := newSeatedRound(t, 4, 0, 1, 3)

	advanceTo(t, r, PhaseFinished)
	if dealer, _ := r.Table().Dealer(); dealer != 0 {
		t.Fatalf("expected first dealer at 0, got %d", dealer)
	}

	if err := r.ResetForNextRound(); err != nil {
		t.Fatalf("ResetForNextRound failed: %v", err)
	}
	if err := r.StartRound(); err != nil {
		t.Fatalf("second StartRound failed: %v", err)
	}
	if dealer, _ := r.Table().Dealer(); dealer != 1 {
		t.Fatalf("expected dealer rotated to 1, got %d", dealer)
	}
}

func TestStartRoundRequiresMinPlayers(t *testing.T) {
	r := newSeatedRound(t, 4, 0)
	if err := r.StartRound(); err != ErrNotEnoughPlayers {
		t.Fatalf("expected ErrNotEnoughPlayers, got %v", err)
	}
}

func TestIllegalTransitionsRejected(t *testing.T) {
	tests := []struct {
		name string
		from Phase
		step func(r *Round) error
	}{
		{name: "finish dealing while seating", from: PhaseSeating, step: (*Round).FinishDealing},
		{name: "toss while seating", from: PhaseSeating, step: func(r *Round) error { return r.ResolveToss(0) }},
		{name: "challenge while dealing", from: PhaseDealing, step: func(r *Round) error { return r.ResolveChallenge(nil) }},
		{name: "finish round while tossing", from: PhaseTossing, step: (*Round).FinishRound},
		{name: "start while playing", from: PhasePlaying, step: (*Round).StartRound},
		{name: "reset while playing", from: PhasePlaying, step: (*Round).ResetForNextRound},
		{name: "seat player while dealing", from: PhaseDealing, step: func(r *Round) error { return r.SeatPlayer(9, 3) }},
		{name: "remove player while tossing", from: PhaseTossing, step: func(r *Round) error { return r.RemovePlayer(0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newSeatedRound(t, 4, 0, 1)
			advanceTo(t, r, tt.from)
			if err := tt.step(r); err != ErrInvalidPhaseTransition {
				t.Fatalf("expected ErrInvalidPhaseTransition, got %v", err)
			}
		})
	}
}

func TestResolveChallengeWithoutTossWinner(t *testing.T) {
	r := newSeatedRound(t, 4, 0, 1)
	advanceTo(t, r, PhaseTossing)

	// Force the challenging phase without a recorded toss winner.
	r.Table().SetPhase(PhaseChallenging)
	if err := r.ResolveChallenge(nil); err != ErrMissingTossWinner {
		t.Fatalf("expected ErrMissingTossWinner, got %v", err)
	}
}

func TestResolveTossValidatesSeat(t *testing.T) {
	r := newSeatedRound(t, 4, 0, 1)
	advanceTo(t, r, PhaseTossing)

	if err := r.ResolveToss(7); err != table.ErrInvalidSeat {
		t.Fatalf("expected ErrInvalidSeat, got %v", err)
	}
	if err := r.ResolveToss(3); err != table.ErrSeatEmpty {
		t.Fatalf("expected ErrSeatEmpty, got %v", err)
	}
}

func TestNewDeckOrderedAndComplete(t *testing.T) {
	deck := NewDeck()
	if len(deck) != DeckSize {
		t.Fatalf("expected %d cards, got %d", DeckSize, len(deck))
	}
	seen := make(map[string]bool, len(deck))
	for _, code := range deck {
		if len(code) != 2 {
			t.Fatalf("unexpected card code %q", code)
		}
		if seen[code] {
			t.Fatalf("duplicate card code %q", code)
		}
		seen[code] = true
	}
	if deck[0] != "AS" || deck[DeckSize-1] != "KC" {
		t.Fatalf("unexpected deck ordering: first=%q last=%q", deck[0], deck[DeckSize-1])
	}
}
