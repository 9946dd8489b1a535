package chessdto

type StartSessionRequest struct {
	Difficulty string `json:"difficulty,omitempty"`
	Castling   string `json:"castling,omitempty"`
	Theme      string `json:"theme,omitempty"`
}

type SelectRequest struct {
	Square string `json:"square"`
}

type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type PromoteRequest struct {
	Piece string `json:"piece"`
}

// SettingsRequest changes difficulty and/or board theme. Cycle advances
// the difficulty one step instead of setting it.
type SettingsRequest struct {
	Difficulty string `json:"difficulty,omitempty"`
	Theme      string `json:"theme,omitempty"`
	Cycle      bool   `json:"cycle,omitempty"`
}
