// Package game layers the card-round phase machine on the generic seat
// table: seating, dealing, the toss and challenge sub-phases, play, and the
// reset into the next round.
package game

import "cardtable-online/internal/table"

// Phase is the discrete state of a round.
type Phase string

const (
	PhaseSeating     Phase = "seating"
	PhaseDealing     Phase = "dealing"
	PhaseTossing     Phase = "tossing"
	PhaseChallenging Phase = "challenging"
	PhasePlaying     Phase = "playing"
	PhaseFinished    Phase = "finished"
)

// MinPlayers is the seated-player floor for starting a round.
const MinPlayers = 2

// Error types
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrInvalidPhaseTransition Error = "InvalidPhaseTransition"
	ErrMissingTossWinner      Error = "MissingTossWinner"
	ErrNotEnoughPlayers       Error = "NotEnoughPlayers"
)

// Round drives one card round. Like the table it is unsynchronized; the
// owner serialises access.
type Round struct {
	table      *table.Table[Phase]
	tossWinner int // seat, -1 when unset
	deck       []string
}

// NewRound creates a round in the seating phase with seatCount seats.
func NewRound(seatCount int) (*Round, error) {
	tbl, err := table.New(seatCount, PhaseSeating)
	if err != nil {
		return nil, err
	}
	return &Round{
		table:      tbl,
		tossWinner: -1,
		deck:       NewDeck(),
	}, nil
}

// Table exposes the underlying seat table.
func (r *Round) Table() *table.Table[Phase] { return r.table }

// Phase returns the current phase.
func (r *Round) Phase() Phase { return r.table.Phase() }

// TossWinner returns the toss-winning seat, if resolved.
func (r *Round) TossWinner() (int, bool) {
	return r.tossWinner, r.tossWinner >= 0
}

// Deck returns the remaining deck in order.
func (r *Round) Deck() []string { return r.deck }

// SeatPlayer seats a player; only legal while seating.
func (r *Round) SeatPlayer(userID int64, seat int) error {
	if r.table.Phase() != PhaseSeating {
		return ErrInvalidPhaseTransition
	}
	return r.table.Seat(userID, seat)
}

// RemovePlayer vacates a seat; only legal while seating.
func (r *Round) RemovePlayer(seat int) error {
	if r.table.Phase() != PhaseSeating {
		return ErrInvalidPhaseTransition
	}
	return r.table.Remove(seat)
}

// StartRound moves seating to dealing. The dealer rotates to the nearest
// occupied seat strictly clockwise of the previous dealer, or to the
// lowest-indexed occupied seat when there was none; the turn starts on the
// dealer.
func (r *Round) StartRound() error {
	if r.table.Phase() != PhaseSeating {
		return ErrInvalidPhaseTransition
	}
	if r.table.SeatedCount() < MinPlayers {
		return ErrNotEnoughPlayers
	}

	var dealer int
	var err error
	if prev, ok := r.table.Dealer(); ok {
		dealer, err = r.table.NextOccupied(prev)
	} else {
		dealer, err = r.table.FirstOccupied()
	}
	if err != nil {
		return err
	}
	if err := r.table.SetDealer(dealer); err != nil {
		return err
	}
	if err := r.table.SetTurn(dealer); err != nil {
		return err
	}
	r.table.SetPhase(PhaseDealing)
	return nil
}

// FinishDealing moves dealing to tossing.
func (r *Round) FinishDealing() error {
	if r.table.Phase() != PhaseDealing {
		return ErrInvalidPhaseTransition
	}
	r.table.SetPhase(PhaseTossing)
	return nil
}

// ResolveToss records the toss-winning seat and moves tossing to
// challenging.
func (r *Round) ResolveToss(seat int) error {
	if r.table.Phase() != PhaseTossing {
		return ErrInvalidPhaseTransition
	}
	if _, err := r.table.PlayerAt(seat); err != nil {
		return err
	}
	r.tossWinner = seat
	r.table.SetPhase(PhaseChallenging)
	return nil
}

// ResolveChallenge moves challenging to playing. A nil challenger leaves
// the lead with the toss winner; otherwise the challenger's seat takes the
// turn. The toss must have been resolved first.
func (r *Round) ResolveChallenge(challenger *int) error {
	if r.table.Phase() != PhaseChallenging {
		return ErrInvalidPhaseTransition
	}
	if r.tossWinner < 0 {
		return ErrMissingTossWinner
	}

	lead := r.tossWinner
	if challenger != nil {
		if _, err := r.table.PlayerAt(*challenger); err != nil {
			return err
		}
		lead = *challenger
	}
	if err := r.table.SetTurn(lead); err != nil {
		return err
	}
	r.table.SetPhase(PhasePlaying)
	return nil
}

// FinishRound moves playing to finished and clears the turn.
func (r *Round) FinishRound() error {
	if r.table.Phase() != PhasePlaying {
		return ErrInvalidPhaseTransition
	}
	r.table.ClearTurn()
	r.table.SetPhase(PhaseFinished)
	return nil
}

// ResetForNextRound moves finished back to seating with a rebuilt deck.
// Seats and the dealer survive so the next StartRound rotates from them.
func (r *Round) ResetForNextRound() error {
	if r.table.Phase() != PhaseFinished {
		return ErrInvalidPhaseTransition
	}
	r.tossWinner = -1
	r.deck = NewDeck()
	r.table.ClearTurn()
	r.table.SetPhase(PhaseSeating)
	return nil
}
