// Package table implements a fixed-size seat table parameterised by a phase
// type. The table tracks seating, the dealer and the current turn; it never
// interprets the phase, that is the game overlay's job.
package table

// Error types
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrInvalidSeat     Error = "InvalidSeat"
	ErrSeatOccupied    Error = "SeatOccupied"
	ErrSeatEmpty       Error = "SeatEmpty"
	ErrTableFull       Error = "TableFull"
	ErrPlayerNotFound  Error = "PlayerNotFound"
	ErrNoPlayersSeated Error = "NoPlayersSeated"
	ErrTurnNotSet      Error = "TurnNotSet"
	ErrInvalidConfig   Error = "InvalidConfig"
)

// Seated is one occupied seat.
type Seated struct {
	UserID int64
	Seat   int
}

// Table holds the seats for one round. It is not synchronized; callers
// serialise access (the room registry holds its own mutex).
type Table[P comparable] struct {
	seats  []*Seated
	seated int
	dealer int // -1 when unset
	turn   int // -1 when unset
	phase  P
}

// New creates a table with seatCount seats in the given initial phase.
func New[P comparable](seatCount int, initial P) (*Table[P], error) {
	if seatCount < 1 {
		return nil, ErrInvalidConfig
	}
	return &Table[P]{
		seats:  make([]*Seated, seatCount),
		dealer: -1,
		turn:   -1,
		phase:  initial,
	}, nil
}

// Phase returns the current phase.
func (t *Table[P]) Phase() P { return t.phase }

// SetPhase replaces the current phase.
func (t *Table[P]) SetPhase(p P) { t.phase = p }

// SeatCount returns the number of seats.
func (t *Table[P]) SeatCount() int { return len(t.seats) }

// SeatedCount returns the number of occupied seats.
func (t *Table[P]) SeatedCount() int { return t.seated }

// PlayerAt returns a copy of the player at the given seat.
func (t *Table[P]) PlayerAt(seat int) (Seated, error) {
	if seat < 0 || seat >= len(t.seats) {
		return Seated{}, ErrInvalidSeat
	}
	if t.seats[seat] == nil {
		return Seated{}, ErrSeatEmpty
	}
	return *t.seats[seat], nil
}

// Seat places a player at the given seat.
func (t *Table[P]) Seat(userID int64, seat int) error {
	if seat < 0 || seat >= len(t.seats) {
		return ErrInvalidSeat
	}
	if t.seated >= len(t.seats) {
		return ErrTableFull
	}
	if t.seats[seat] != nil {
		return ErrSeatOccupied
	}
	t.seats[seat] = &Seated{UserID: userID, Seat: seat}
	t.seated++
	return nil
}

// Remove vacates the given seat. Removing the dealer's or the current
// turn's seat clears that pointer.
func (t *Table[P]) Remove(seat int) error {
	if seat < 0 || seat >= len(t.seats) {
		return ErrInvalidSeat
	}
	if t.seats[seat] == nil {
		return ErrSeatEmpty
	}
	t.seats[seat] = nil
	t.seated--
	if t.dealer == seat {
		t.dealer = -1
	}
	if t.turn == seat {
		t.turn = -1
	}
	return nil
}

// SeatOf returns the seat occupied by the given user.
func (t *Table[P]) SeatOf(userID int64) (int, error) {
	for i, s := range t.seats {
		if s != nil && s.UserID == userID {
			return i, nil
		}
	}
	return -1, ErrPlayerNotFound
}

// Dealer returns the dealer seat, if set.
func (t *Table[P]) Dealer() (int, bool) {
	return t.dealer, t.dealer >= 0
}

// SetDealer marks an occupied seat as the dealer.
func (t *Table[P]) SetDealer(seat int) error {
	if seat < 0 || seat >= len(t.seats) {
		return ErrInvalidSeat
	}
	if t.seats[seat] == nil {
		return ErrSeatEmpty
	}
	t.dealer = seat
	return nil
}

// ClearDealer unsets the dealer pointer.
func (t *Table[P]) ClearDealer() { t.dealer = -1 }

// Turn returns the current-turn seat, if set.
func (t *Table[P]) Turn() (int, bool) {
	return t.turn, t.turn >= 0
}

// SetTurn marks an occupied seat as holding the current turn.
func (t *Table[P]) SetTurn(seat int) error {
	if seat < 0 || seat >= len(t.seats) {
		return ErrInvalidSeat
	}
	if t.seats[seat] == nil {
		return ErrSeatEmpty
	}
	t.turn = seat
	return nil
}

// ClearTurn unsets the current-turn pointer.
func (t *Table[P]) ClearTurn() { t.turn = -1 }

// NextOccupied returns the nearest occupied seat strictly clockwise of
// from. With a single occupied seat this wraps back to from itself.
func (t *Table[P]) NextOccupied(from int) (int, error) {
	if from < 0 || from >= len(t.seats) {
		return -1, ErrInvalidSeat
	}
	n := len(t.seats)
	for i := 1; i <= n; i++ {
		seat := (from + i) % n
		if t.seats[seat] != nil {
			return seat, nil
		}
	}
	return -1, ErrNoPlayersSeated
}

// FirstOccupied returns the lowest-indexed occupied seat.
func (t *Table[P]) FirstOccupied() (int, error) {
	for i, s := range t.seats {
		if s != nil {
			return i, nil
		}
	}
	return -1, ErrNoPlayersSeated
}

// Players returns copies of all seated players in seat order.
func (t *Table[P]) Players() []Seated {
	out := make([]Seated, 0, t.seated)
	for _, s := range t.seats {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}
