package game

import (
	"errors"

	"memory-match-server/gameerrors"
)

// FlipResult describes what a successful flip did.
type FlipResult int

const (
	FlipRejected FlipResult = iota
	FlipFirst
	FlipMatch
	FlipMismatch
)

// EndReason says why a session ended.
type EndReason string

const (
	EndCompleted EndReason = "completed"
	EndTimeUp    EndReason = "time_up"
	EndAbandoned EndReason = "abandoned"
)

// Phase names sent to the client.
const (
	PhaseLoading    = "loading"
	PhaseIdle       = "idle"
	PhaseOneFlipped = "one_flipped"
	PhaseTwoFlipped = "two_flipped"
	PhaseFinished   = "finished"
	PhaseError      = "error"
)

// Controller is the explicit state of one game: the card set, the flipped
// subset, the score and the remaining time. It performs no I/O; the Session
// drives it from timer ticks, player input and card service responses.
type Controller struct {
	Cards    []Card
	States   []CardState
	Flipped  []int // card indices, at most 2
	Score    int
	TimeLeft int

	// Err is the message shown instead of the board once a card fetch fails.
	Err string

	Finished  bool
	EndReason EndReason

	reward int
}

// DefaultScorePerMatch is the reward used when a negative one is configured.
const DefaultScorePerMatch = 10

// NewController returns an empty controller waiting for cards.
func NewController(timeLimitSec, scorePerMatch int) *Controller {
	if timeLimitSec < 0 {
		timeLimitSec = 0
	}
	if scorePerMatch < 0 {
		scorePerMatch = DefaultScorePerMatch
	}
	return &Controller{
		Flipped:  make([]int, 0, 2),
		TimeLeft: timeLimitSec,
		reward:   scorePerMatch,
	}
}

// Loaded reports whether a card set has been installed.
func (c *Controller) Loaded() bool {
	return len(c.Cards) > 0
}

// LoadCards installs cards as the authoritative collection and clears any error.
// An empty collection is a failure.
func (c *Controller) LoadCards(cards []Card) error {
	if len(cards) == 0 {
		c.Fail(gameerrors.ErrNoCards)
		return gameerrors.ErrNoCards
	}
	c.Cards = append([]Card(nil), cards...)
	c.States = make([]CardState, len(cards))
	c.Flipped = c.Flipped[:0]
	c.Err = ""
	return nil
}

// Fail sets the terminal error. There is no retry within a session.
func (c *Controller) Fail(err error) {
	c.Err = ErrorMessage(err)
}

// ErrorMessage is the player-facing text for a card fetch failure.
func ErrorMessage(err error) string {
	if errors.Is(err, gameerrors.ErrNoCards) {
		return "No cards data received"
	}
	return "Error fetching cards"
}

// Tick decrements the remaining time by one, never below zero. Reaching zero
// finishes the game.
func (c *Controller) Tick() int {
	if c.TimeLeft > 0 {
		c.TimeLeft--
	}
	if c.TimeLeft == 0 && !c.Finished && c.Err == "" {
		c.finish(EndTimeUp)
	}
	return c.TimeLeft
}

// Flip turns the card at index face up. Rejected flips leave the state untouched.
func (c *Controller) Flip(index int) (FlipResult, error) {
	switch {
	case c.Err != "":
		return FlipRejected, gameerrors.ErrSessionFailed
	case !c.Loaded():
		return FlipRejected, gameerrors.ErrCardsNotLoaded
	case c.Finished:
		return FlipRejected, gameerrors.ErrGameOver
	case index < 0 || index >= len(c.Cards):
		return FlipRejected, gameerrors.ErrCardOutOfRange
	case len(c.Flipped) >= 2:
		return FlipRejected, gameerrors.ErrTooManyFlipped
	case c.States[index] != Hidden:
		return FlipRejected, gameerrors.ErrCardUnavailable
	}

	c.States[index] = Flipped
	c.Flipped = append(c.Flipped, index)
	if len(c.Flipped) == 1 {
		return FlipFirst, nil
	}

	first, second := c.Flipped[0], c.Flipped[1]
	if id := c.Cards[first].ID; id.Empty() || id != c.Cards[second].ID {
		return FlipMismatch, nil
	}

	c.States[first] = Matched
	c.States[second] = Matched
	c.Score += c.reward
	c.Flipped = c.Flipped[:0]
	if c.AllMatched() {
		c.finish(EndCompleted)
	}
	return FlipMatch, nil
}

// ClearFlipped turns a pending mismatched pair face down again.
func (c *Controller) ClearFlipped() {
	for _, idx := range c.Flipped {
		if c.States[idx] == Flipped {
			c.States[idx] = Hidden
		}
	}
	c.Flipped = c.Flipped[:0]
}

// AllMatched returns true if every card is in the Matched state.
func (c *Controller) AllMatched() bool {
	if !c.Loaded() {
		return false
	}
	for _, st := range c.States {
		if st != Matched {
			return false
		}
	}
	return true
}

// PairsMatched is the number of pairs found so far.
func (c *Controller) PairsMatched() int {
	n := 0
	for _, st := range c.States {
		if st == Matched {
			n++
		}
	}
	return n / 2
}

// PairsTotal is the number of pairs on the board.
func (c *Controller) PairsTotal() int {
	return len(c.Cards) / 2
}

// Phase derives the client-facing phase from the state.
func (c *Controller) Phase() string {
	switch {
	case c.Err != "":
		return PhaseError
	case c.Finished:
		return PhaseFinished
	case !c.Loaded():
		return PhaseLoading
	}
	switch len(c.Flipped) {
	case 0:
		return PhaseIdle
	case 1:
		return PhaseOneFlipped
	default:
		return PhaseTwoFlipped
	}
}

func (c *Controller) finish(reason EndReason) {
	c.Finished = true
	c.EndReason = reason
}
