package gameerrors

import "errors"

// Card service and flip sentinel errors. Shared by the game, cardapi and ws
// packages to avoid circular imports.
var (
	ErrFetchCards = errors.New("error fetching cards")
	ErrNoCards    = errors.New("no cards data received")
	ErrFetchHint  = errors.New("error fetching hint")

	ErrCardsNotLoaded  = errors.New("cards not loaded")
	ErrGameOver        = errors.New("game is over")
	ErrCardOutOfRange  = errors.New("card index out of range")
	ErrCardUnavailable = errors.New("card already flipped or matched")
	ErrTooManyFlipped  = errors.New("two cards are already flipped")
	ErrSessionFailed   = errors.New("session halted by a card fetch error")
	ErrNoActiveSession = errors.New("no active game session")
)
