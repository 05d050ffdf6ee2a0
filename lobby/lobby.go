package lobby

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"memory-match-server/config"
	"memory-match-server/game"
	"memory-match-server/storage"
	"memory-match-server/ws"
	"memory-match-server/wsutil"
)

// persistTimeout bounds the write of one finished session.
const persistTimeout = 5 * time.Second

// Lobby creates one session per connected client and tracks the running ones.
type Lobby struct {
	ctx    context.Context
	config *config.Config
	cards  game.CardSource

	// Optional collaborators; set before the first Start.
	Clock   clockwork.Clock
	Results storage.ResultStore
	Sink    game.EventSink

	mu       sync.Mutex
	sessions map[*ws.Client]*game.Session
	wg       sync.WaitGroup
}

// New creates a Lobby. Sessions run until ended or until ctx is cancelled.
func New(ctx context.Context, cfg *config.Config, cards game.CardSource) *Lobby {
	return &Lobby{
		ctx:      ctx,
		config:   cfg,
		cards:    cards,
		sessions: make(map[*ws.Client]*game.Session),
	}
}

var _ ws.SessionManager = (*Lobby)(nil)

// Start stops the client's running session, if any, and starts a new one.
func (l *Lobby) Start(c *ws.Client) *game.Session {
	p := game.NewPlayer(c.UserID, c.Send)
	s := game.NewSession(uuid.NewString(), l.config, p, l.cards, l.Clock)
	if l.Sink != nil {
		s.Sink = l.Sink
	}
	name := c.Name
	s.OnEnd = func(res game.Result) {
		l.forget(c, s)
		// Called on the session goroutine, which holds a wg slot, so Add cannot race Wait.
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.persist(res, name)
		}()
	}

	l.mu.Lock()
	old := l.sessions[c]
	l.sessions[c] = s
	l.mu.Unlock()
	if old != nil {
		old.Stop()
	}

	slog.Info("session started", "tag", "lobby", "session", s.ID, "user", c.UserID)
	l.sendStarted(c, s)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		s.Run(l.ctx)
		l.forget(c, s)
	}()
	return s
}

// End stops the client's session, if any.
func (l *Lobby) End(c *ws.Client) {
	l.mu.Lock()
	s := l.sessions[c]
	delete(l.sessions, c)
	l.mu.Unlock()
	if s != nil {
		s.Stop()
	}
}

// Active returns the number of running sessions.
func (l *Lobby) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// Wait blocks until every session goroutine has returned, so that results
// reported on shutdown are persisted before the store closes.
func (l *Lobby) Wait() {
	l.wg.Wait()
}

// forget removes s from the map unless the client has already moved on to a newer session.
func (l *Lobby) forget(c *ws.Client, s *game.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sessions[c] == s {
		delete(l.sessions, c)
	}
}

func (l *Lobby) persist(res game.Result, playerName string) {
	if l.Results == nil || res.PairsTotal == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := l.Results.InsertResult(ctx, storage.GameResult{
		SessionID:    res.SessionID,
		UserID:       res.UserID,
		PlayerName:   playerName,
		Score:        res.Score,
		TimeLeft:     res.TimeLeft,
		PairsMatched: res.PairsMatched,
		PairsTotal:   res.PairsTotal,
		EndReason:    string(res.Reason),
		PlayedAt:     res.EndedAt,
	})
	if err != nil {
		slog.Error("saving result", "tag", "lobby", "session", res.SessionID, "err", err)
		return
	}
	slog.Info("result saved", "tag", "lobby", "session", res.SessionID, "score", res.Score, "reason", res.Reason)
}

func (l *Lobby) sendStarted(c *ws.Client, s *game.Session) {
	data, err := json.Marshal(ws.SessionStartedMsg{
		Type:         "session_started",
		SessionID:    s.ID,
		TimeLimitSec: l.config.TimeLimitSec,
	})
	if err != nil {
		return
	}
	wsutil.SafeSend(c.Send, data)
}
