package game

import (
	"context"
	"log/slog"
)

func (s *Session) loadCards(ctx context.Context) {
	cards, err := s.Cards.FetchCards(ctx)
	if err != nil {
		s.post(Action{Type: ActionCardsFailed, Err: err})
		return
	}
	s.post(Action{Type: ActionCardsLoaded, Cards: cards})
}

func (s *Session) handleCardsLoaded(cards []Card) {
	if err := s.Controller.LoadCards(cards); err != nil {
		s.handleCardsFailed(err)
		return
	}
	if err := ValidatePairs(cards); err != nil {
		slog.Warn("card set is not made of pairs", "tag", "game", "session", s.ID, "err", err)
	}
	slog.Info("cards loaded", "tag", "game", "session", s.ID, "cards", len(cards))
	s.emit("cards_loaded", nil)
	s.broadcastState()
}

// handleCardsFailed halts the session: the error replaces the board and the
// countdown stops. There is no retry.
func (s *Session) handleCardsFailed(err error) {
	slog.Error("fetching cards", "tag", "game", "session", s.ID, "err", err)
	s.Controller.Fail(err)
	s.stopTicker()
	s.cancelMismatchTimer()
	s.emit("cards_failed", nil)
	s.broadcastState()
}

func (s *Session) handleRequestHint(ctx context.Context) {
	c := s.Controller
	if c.Err != "" || !c.Loaded() {
		slog.Debug("hint ignored", "tag", "game", "session", s.ID, "phase", c.Phase())
		return
	}
	snapshot := append([]Card(nil), c.Cards...)
	s.emit("hint_requested", nil)
	go func() {
		hint, err := s.Cards.FetchHint(ctx, snapshot)
		if err != nil {
			// Hint failures are not shown to the player.
			slog.Warn("fetching hint", "tag", "game", "session", s.ID, "err", err)
			return
		}
		s.post(Action{Type: ActionHintReceived, Hint: hint})
	}()
}

func (s *Session) handleHintReceived(hint string) {
	s.send(HintMsg{Type: "hint", Hint: hint})
}
