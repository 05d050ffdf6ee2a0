package game

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"memory-match-server/config"
	"memory-match-server/wsutil"
)

// ActionType enumerates the kinds of actions a session can process.
type ActionType int

const (
	ActionFlipCard     ActionType = iota
	ActionRequestHint
	ActionCardsLoaded  // internal: generate-cards returned
	ActionCardsFailed  // internal: generate-cards failed
	ActionHintReceived // internal: generate-hint returned
)

// Action represents an event sent into the session's action channel.
type Action struct {
	Type  ActionType
	Index int    // card index (for FlipCard)
	Cards []Card // for CardsLoaded
	Err   error  // for CardsFailed
	Hint  string // for HintReceived
}

// CardSource abstracts the card service so the game package does not import
// the HTTP client directly.
type CardSource interface {
	FetchCards(ctx context.Context) ([]Card, error)
	FetchHint(ctx context.Context, cards []Card) (string, error)
}

// Event is a notable session transition reported to the EventSink.
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	CardIndex *int      `json:"cardIndex,omitempty"`
	Score     int       `json:"score"`
	TimeLeft  int       `json:"timeLeft"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// EventSink is called for every session event. Optional; may be nil.
type EventSink interface {
	RecordEvent(ev Event)
}

// Result is the outcome of a session, reported once through OnEnd.
type Result struct {
	SessionID    string
	UserID       string
	Score        int
	TimeLeft     int
	PairsMatched int
	PairsTotal   int
	Reason       EndReason
	EndedAt      time.Time
}

// Session runs one player's game. All state transitions happen on the Run
// goroutine; network calls post their results back as actions.
type Session struct {
	ID         string
	Player     *Player
	Controller *Controller
	Config     *config.Config
	Cards      CardSource
	Clock      clockwork.Clock

	// Sink records session events; optional, set by the lobby.
	Sink EventSink

	// OnEnd is called once when the game finishes or is abandoned with cards on the board.
	OnEnd func(Result)

	Actions chan Action
	Done    chan struct{}

	quit     chan struct{}
	stopOnce sync.Once

	ticker        clockwork.Ticker
	mismatchTimer clockwork.Timer
	reported      bool
}

// NewSession creates a session for p. A nil clock means the real clock.
func NewSession(id string, cfg *config.Config, p *Player, cards CardSource, clock clockwork.Clock) *Session {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Session{
		ID:         id,
		Player:     p,
		Controller: NewController(cfg.TimeLimitSec, cfg.ScorePerMatch),
		Config:     cfg,
		Cards:      cards,
		Clock:      clock,
		Actions:    make(chan Action, 16),
		Done:       make(chan struct{}),
		quit:       make(chan struct{}),
	}
}

// Submit queues an action. It returns false once the session has ended.
func (s *Session) Submit(a Action) bool {
	select {
	case <-s.Done:
		return false
	default:
	}
	select {
	case s.Actions <- a:
		return true
	case <-s.Done:
		return false
	}
}

// Stop ends the session. Safe to call more than once and from any goroutine.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
}

// Run is the session loop. It processes actions sequentially until Stop is
// called or ctx is cancelled. It should be run as a goroutine.
func (s *Session) Run(ctx context.Context) {
	defer close(s.Done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interval := s.Config.TickInterval()
	if interval <= 0 {
		interval = time.Second
	}
	s.ticker = s.Clock.NewTicker(interval)
	defer s.stopTicker()
	defer s.cancelMismatchTimer()

	s.emit("session_started", nil)
	s.broadcastState()
	go s.loadCards(ctx)

	for {
		select {
		case <-ctx.Done():
			s.teardown()
			return
		case <-s.quit:
			s.teardown()
			return
		case <-s.tickC():
			s.handleTick()
		case <-s.mismatchC():
			s.handleClearMismatch()
		case action := <-s.Actions:
			switch action.Type {
			case ActionFlipCard:
				s.handleFlipCard(action.Index)
			case ActionRequestHint:
				s.handleRequestHint(ctx)
			case ActionCardsLoaded:
				s.handleCardsLoaded(action.Cards)
			case ActionCardsFailed:
				s.handleCardsFailed(action.Err)
			case ActionHintReceived:
				s.handleHintReceived(action.Hint)
			}
		}
	}
}

// post delivers an internal action unless the session has already ended.
func (s *Session) post(a Action) {
	select {
	case s.Actions <- a:
	case <-s.Done:
	}
}

func (s *Session) tickC() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.Chan()
}

func (s *Session) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *Session) handleTick() {
	if s.Controller.Finished || s.Controller.Err != "" {
		s.stopTicker()
		return
	}
	s.Controller.Tick()
	s.broadcastState()
	if s.Controller.Finished {
		s.endGame()
	}
}

// endGame freezes the session after completion or time-up.
func (s *Session) endGame() {
	s.stopTicker()
	s.send(BuildGameOver(s.Controller))
	s.emitReason("game_over", s.Controller.EndReason)
	s.report(s.Controller.EndReason)
	slog.Info("game over", "tag", "game", "session", s.ID, "reason", s.Controller.EndReason, "score", s.Controller.Score)
}

func (s *Session) teardown() {
	c := s.Controller
	if c.Loaded() && !c.Finished && c.Err == "" {
		s.emitReason("game_over", EndAbandoned)
		s.report(EndAbandoned)
	}
}

func (s *Session) report(reason EndReason) {
	if s.reported || s.OnEnd == nil {
		return
	}
	s.reported = true
	c := s.Controller
	res := Result{
		SessionID:    s.ID,
		Score:        c.Score,
		TimeLeft:     c.TimeLeft,
		PairsMatched: c.PairsMatched(),
		PairsTotal:   c.PairsTotal(),
		Reason:       reason,
		EndedAt:      s.Clock.Now(),
	}
	if s.Player != nil {
		res.UserID = s.Player.UserID
	}
	s.OnEnd(res)
}

func (s *Session) emit(eventType string, cardIndex *int) {
	if s.Sink == nil {
		return
	}
	s.Sink.RecordEvent(Event{
		Type:      eventType,
		SessionID: s.ID,
		CardIndex: cardIndex,
		Score:     s.Controller.Score,
		TimeLeft:  s.Controller.TimeLeft,
		At:        s.Clock.Now(),
	})
}

func (s *Session) emitReason(eventType string, reason EndReason) {
	if s.Sink == nil {
		return
	}
	s.Sink.RecordEvent(Event{
		Type:      eventType,
		SessionID: s.ID,
		Score:     s.Controller.Score,
		TimeLeft:  s.Controller.TimeLeft,
		Reason:    string(reason),
		At:        s.Clock.Now(),
	})
}

func (s *Session) sendError(message string) {
	s.send(map[string]string{
		"type":    "error",
		"message": message,
	})
}

func (s *Session) broadcastState() {
	s.send(BuildState(s.ID, s.Controller))
}

func (s *Session) send(msg any) {
	if s.Player == nil || s.Player.Send == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshaling message", "tag", "game", "session", s.ID, "err", err)
		return
	}
	wsutil.SafeSend(s.Player.Send, data)
}
