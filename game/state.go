package game

// CardView is the client-facing representation of a card.
// Name and ImageURL are only included when the card is face up.
type CardView struct {
	Index    int    `json:"index"`
	State    string `json:"state"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// GameStateMsg is the full game state sent to the player after every transition.
type GameStateMsg struct {
	Type           string     `json:"type"`
	SessionID      string     `json:"sessionId"`
	Phase          string     `json:"phase"`
	Cards          []CardView `json:"cards"`
	FlippedIndices []int      `json:"flippedIndices"`
	Score          int        `json:"score"`
	TimeLeft       int        `json:"timeLeft"`
	PairsMatched   int        `json:"pairsMatched"`
	PairsTotal     int        `json:"pairsTotal"`
	// Error replaces the board when set; Cards is then empty.
	Error string `json:"error,omitempty"`
}

// HintMsg carries the text returned by the hint endpoint.
type HintMsg struct {
	Type string `json:"type"`
	Hint string `json:"hint"`
}

// GameOverMsg is the end-of-game summary.
type GameOverMsg struct {
	Type         string `json:"type"`
	Reason       string `json:"reason"`
	Score        int    `json:"score"`
	TimeLeft     int    `json:"timeLeft"`
	PairsMatched int    `json:"pairsMatched"`
	PairsTotal   int    `json:"pairsTotal"`
}

// BuildCardViews constructs the client-facing card list.
// Hidden cards do not expose their face.
func BuildCardViews(c *Controller) []CardView {
	views := make([]CardView, len(c.Cards))
	for i, card := range c.Cards {
		st := c.States[i]
		cv := CardView{
			Index: i,
			State: st.String(),
		}
		if st == Flipped || st == Matched {
			cv.Name = card.Name
			cv.ImageURL = card.ImageURL
		}
		views[i] = cv
	}
	return views
}

// BuildState returns the game state view for the session.
func BuildState(sessionID string, c *Controller) GameStateMsg {
	msg := GameStateMsg{
		Type:           "game_state",
		SessionID:      sessionID,
		Phase:          c.Phase(),
		FlippedIndices: append([]int{}, c.Flipped...),
		Score:          c.Score,
		TimeLeft:       c.TimeLeft,
		PairsMatched:   c.PairsMatched(),
		PairsTotal:     c.PairsTotal(),
	}
	if c.Err != "" {
		msg.Error = c.Err
		msg.Cards = []CardView{}
		msg.FlippedIndices = []int{}
		return msg
	}
	msg.Cards = BuildCardViews(c)
	return msg
}

// BuildGameOver returns the end-of-game summary.
func BuildGameOver(c *Controller) GameOverMsg {
	return GameOverMsg{
		Type:         "game_over",
		Reason:       string(c.EndReason),
		Score:        c.Score,
		TimeLeft:     c.TimeLeft,
		PairsMatched: c.PairsMatched(),
		PairsTotal:   c.PairsTotal(),
	}
}
