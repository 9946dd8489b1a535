package chessdto

import "time"

type Move struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	UCI       string    `json:"uci"`
	Notation  string    `json:"notation"`
	Piece     string    `json:"piece"`
	Captured  string    `json:"captured,omitempty"`
	Promotion string    `json:"promotion,omitempty"`
	EnPassant bool      `json:"enPassant,omitempty"`
	Castle    string    `json:"castle,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Selection struct {
	Selected     string   `json:"selected,omitempty"`
	Destinations []string `json:"destinations"`
}

// MoveSummary answers a move or promotion request. Move is nil when the
// input was ignored or a promotion choice is pending.
type MoveSummary struct {
	Move             *Move         `json:"move,omitempty"`
	PromotionPending bool          `json:"promotionPending"`
	Ignored          bool          `json:"ignored"`
	State            *SessionState `json:"state"`
}

type HintResponse struct {
	Hint    *Hint  `json:"hint,omitempty"`
	Message string `json:"message"`
}
