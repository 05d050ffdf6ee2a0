package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// CardState represents the current state of a card.
type CardState int

const (
	Hidden CardState = iota
	Flipped
	Matched
)

// String returns the string representation of a CardState.
func (cs CardState) String() string {
	switch cs {
	case Hidden:
		return "hidden"
	case Flipped:
		return "flipped"
	case Matched:
		return "matched"
	default:
		return "unknown"
	}
}

// CardID is the pair identity of a card, held as a JSON token. Strings keep
// their quotes, so the string "1" and the number 1 are different ids. Numbers
// are stored in canonical form, so 1, 1.0 and 1e0 are the same id.
type CardID string

// UnmarshalJSON accepts a JSON number or string.
func (id *CardID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || !json.Valid(data) {
		return fmt.Errorf("invalid card id %q", data)
	}
	switch data[0] {
	case '"':
		*id = CardID(data)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid card id %s: %w", data, err)
		}
		if f == 0 {
			f = 0 // -0
		}
		*id = CardID(strconv.FormatFloat(f, 'f', -1, 64))
	default:
		return fmt.Errorf("card id must be a number or string, got %s", data)
	}
	return nil
}

// Empty reports whether the id is missing or the empty string.
func (id CardID) Empty() bool {
	return id == "" || id == `""`
}

// MarshalJSON writes the id back as it was received.
func (id CardID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return []byte(id), nil
}

// Card is a single card as delivered by the card service. Immutable once fetched.
type Card struct {
	ID       CardID `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// ValidatePairs reports an error unless every id in cards is shared by exactly two cards.
func ValidatePairs(cards []Card) error {
	if len(cards)%2 != 0 {
		return fmt.Errorf("odd number of cards: %d", len(cards))
	}
	counts := make(map[CardID]int, len(cards)/2)
	for _, c := range cards {
		counts[c.ID]++
	}
	for id, n := range counts {
		if n != 2 {
			return fmt.Errorf("card id %s appears %d times", id, n)
		}
	}
	return nil
}
