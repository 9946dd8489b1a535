package chessdto

import "time"

type MaterialScore struct {
	White int `json:"white"`
	Black int `json:"black"`
}

type CapturedPieces struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

// Clocks carries remaining time in whole seconds plus the m:ss rendering.
type Clocks struct {
	WhiteSeconds int    `json:"whiteSeconds"`
	BlackSeconds int    `json:"blackSeconds"`
	White        string `json:"white"`
	Black        string `json:"black"`
}

type PlacedPiece struct {
	Square   string `json:"square"`
	Color    string `json:"color"`
	Type     string `json:"type"`
	HasMoved bool   `json:"hasMoved,omitempty"`
}

type SquarePair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type Hint struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Score     float64   `json:"score"`
	Rank      int       `json:"rank"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SessionState struct {
	SessionUUID      string         `json:"sessionId"`
	Placement        string         `json:"placement"`
	Pieces           []PlacedPiece  `json:"pieces"`
	Status           string         `json:"status"`
	Turn             string         `json:"turn"`
	CheckingSquares  []string       `json:"checkingSquares"`
	Clocks           Clocks         `json:"clocks"`
	Material         MaterialScore  `json:"material"`
	Captured         CapturedPieces `json:"captured"`
	Selected         string         `json:"selected,omitempty"`
	Destinations     []string       `json:"destinations"`
	PendingPromotion *SquarePair    `json:"pendingPromotion,omitempty"`
	Hint             *Hint          `json:"hint,omitempty"`
	LastMove         *Move          `json:"lastMove,omitempty"`
	MoveCount        int            `json:"moveCount"`
	MovesNotation    []string       `json:"moves"`
	MovesUCI         []string       `json:"movesUci"`
	Evaluation       float64        `json:"evaluation"`
	Difficulty       string         `json:"difficulty"`
	Castling         string         `json:"castling"`
	Result           *GameRecord    `json:"result,omitempty"`
	Message          string         `json:"message,omitempty"`
}

// Finished reports whether the game on the board has ended.
func (s *SessionState) Finished() bool {
	return s != nil && (s.Status == "checkmate" || s.Status == "stalemate")
}

// LiveEvent is one frame of the websocket feed.
type LiveEvent struct {
	Kind  string        `json:"kind"`
	State *SessionState `json:"state"`
}

// ActiveSession is one live game and the number of live-feed viewers on it.
type ActiveSession struct {
	ID      string `json:"id"`
	Viewers int    `json:"viewers"`
}

type ActiveSessionsResponse struct {
	Sessions []ActiveSession `json:"sessions"`
}
