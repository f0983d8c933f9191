package game

// DeckSize is the number of cards in a fresh deck.
const DeckSize = 52

var (
	suits = []string{"S", "H", "D", "C"}
	ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K"}
)

// NewDeck builds an ordered deck of card codes (rank then suit, e.g. "AS",
// "TH"). Shuffling and dealing are the rules engine's concern, not ours.
func NewDeck() []string {
	deck := make([]string, 0, DeckSize)
	for _, suit := range suits {
		for _, rank := range ranks {
			deck = append(deck, rank+suit)
		}
	}
	return deck
}
