package game

// Player is the person playing a session.
type Player struct {
	// UserID is the auth user id; empty for guests.
	UserID string
	Send   chan []byte // reference to the client's send channel
}

// NewPlayer creates a new Player with the given user id and send channel.
func NewPlayer(userID string, send chan []byte) *Player {
	return &Player{
		UserID: userID,
		Send:   send,
	}
}
