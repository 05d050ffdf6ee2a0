package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"memory-match-server/game"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return f.err
}

func TestRecordEvent_PublishesJSON(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "memory.")
	idx := 3

	p.RecordEvent(game.Event{
		Type:      "card_flipped",
		SessionID: "abc-123",
		CardIndex: &idx,
		Score:     10,
		TimeLeft:  42,
		At:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	if len(conn.subjects) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(conn.subjects))
	}
	if conn.subjects[0] != "memory.abc-123.card_flipped" {
		t.Errorf("unexpected subject %q", conn.subjects[0])
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(conn.payloads[0], &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded["cardIndex"] != float64(3) || decoded["score"] != float64(10) {
		t.Errorf("unexpected payload: %v", decoded)
	}
}

func TestSubject_Sanitizes(t *testing.T) {
	p := NewPublisher(&fakeConn{}, "")

	got := p.Subject(game.Event{Type: "game.over", SessionID: "a*b>c"})
	if got != "memory.a_b_c.game_over" {
		t.Errorf("unexpected subject %q", got)
	}

	got = p.Subject(game.Event{Type: "cards_loaded"})
	if got != "memory._.cards_loaded" {
		t.Errorf("unexpected subject for empty session %q", got)
	}
}

func TestRecordEvent_PublishErrorIsSwallowed(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := NewPublisher(conn, "games")

	p.RecordEvent(game.Event{Type: "hint_requested", SessionID: "s"})

	if len(conn.subjects) != 1 || conn.subjects[0] != "games.s.hint_requested" {
		t.Errorf("unexpected publishes: %v", conn.subjects)
	}
}

func TestRecordEvent_NilPublisher(t *testing.T) {
	var p *Publisher
	p.RecordEvent(game.Event{Type: "session_started"})
}
