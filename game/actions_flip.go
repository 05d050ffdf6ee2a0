package game

import (
	"errors"
	"log/slog"
	"time"

	"memory-match-server/gameerrors"
)

func (s *Session) handleFlipCard(cardIndex int) {
	result, err := s.Controller.Flip(cardIndex)
	if err != nil {
		switch {
		case errors.Is(err, gameerrors.ErrTooManyFlipped),
			errors.Is(err, gameerrors.ErrCardUnavailable),
			errors.Is(err, gameerrors.ErrGameOver),
			errors.Is(err, gameerrors.ErrSessionFailed):
			// Clicks on face-up cards, a third card, or a frozen board are ignored.
			slog.Debug("flip ignored", "tag", "game", "session", s.ID, "index", cardIndex, "err", err)
		case errors.Is(err, gameerrors.ErrCardsNotLoaded):
			s.sendError("Cards are still loading.")
		default:
			s.sendError("Card index out of bounds.")
		}
		return
	}

	idx := cardIndex
	s.emit("card_flipped", &idx)

	switch result {
	case FlipMatch:
		s.emit("pair_matched", &idx)
		s.broadcastState()
		if s.Controller.Finished {
			s.endGame()
		}
	case FlipMismatch:
		s.emit("pair_mismatched", &idx)
		s.scheduleClear()
		s.broadcastState()
	default:
		s.broadcastState()
	}
}

// scheduleClear starts the one-shot timer that hides a mismatched pair,
// replacing any timer still pending.
func (s *Session) scheduleClear() {
	s.cancelMismatchTimer()
	s.mismatchTimer = s.Clock.NewTimer(s.Config.MismatchDelay())
}

// cancelMismatchTimer stops the pending clear, if any. Safe if already nil.
func (s *Session) cancelMismatchTimer() {
	if s.mismatchTimer == nil {
		return
	}
	if !s.mismatchTimer.Stop() {
		select {
		case <-s.mismatchTimer.Chan():
		default:
		}
	}
	s.mismatchTimer = nil
}

func (s *Session) mismatchC() <-chan time.Time {
	if s.mismatchTimer == nil {
		return nil
	}
	return s.mismatchTimer.Chan()
}

func (s *Session) handleClearMismatch() {
	s.mismatchTimer = nil
	s.Controller.ClearFlipped()
	s.broadcastState()
}
