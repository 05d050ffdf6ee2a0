package ws

import "encoding/json"

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// AuthMsg carries a Neon Auth JWT. Optional; guests play without one.
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// NewGameMsg starts a fresh session, replacing any running one.
type NewGameMsg struct {
	Type string `json:"type"`
}

// FlipCardMsg is sent by the client to flip a card.
type FlipCardMsg struct {
	Type  string `json:"type"`
	Index *int   `json:"index"`
}

// RequestHintMsg asks the card service for a hint on the current board.
type RequestHintMsg struct {
	Type string `json:"type"`
}

// --- Server-to-Client messages ---

// ErrorMsg is sent when a client action is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AuthenticatedMsg confirms the identity bound to this connection.
type AuthenticatedMsg struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// SessionStartedMsg is sent when a new session is created for the client.
// Game state messages follow once cards are loading.
type SessionStartedMsg struct {
	Type         string `json:"type"`
	SessionID    string `json:"sessionId"`
	TimeLimitSec int    `json:"timeLimitSec"`
}
