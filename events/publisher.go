package events

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"memory-match-server/game"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher forwards session events to NATS, one subject per event:
// <prefix>.<sessionID>.<type>.
type Publisher struct {
	conn   Conn
	prefix string
}

// Ensure *Publisher implements game.EventSink at compile time.
var _ game.EventSink = (*Publisher)(nil)

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, prefix string) *Publisher {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = "memory"
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Connect dials NATS with infinite reconnects and logs connection changes.
func Connect(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("memory-match-server"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			slog.Warn("disconnected from NATS", "tag", "events", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("reconnected to NATS", "tag", "events", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			slog.Error("NATS error", "tag", "events", "err", err)
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to NATS", "tag", "events", "url", nc.ConnectedUrl())
	return nc, nil
}

// Subject returns the subject an event is published on.
func (p *Publisher) Subject(ev game.Event) string {
	return p.prefix + "." + sanitize(ev.SessionID) + "." + sanitize(ev.Type)
}

// RecordEvent publishes ev. Failures are logged; gameplay never waits on NATS.
func (p *Publisher) RecordEvent(ev game.Event) {
	if p == nil || p.conn == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("marshaling event", "tag", "events", "err", err)
		return
	}
	if err := p.conn.Publish(p.Subject(ev), data); err != nil {
		slog.Warn("publishing event", "tag", "events", "type", ev.Type, "err", err)
	}
}

// sanitize strips characters that would split or wildcard a subject token.
func sanitize(token string) string {
	if token == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, token)
}
