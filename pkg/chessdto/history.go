package chessdto

import "time"

// GameRecord is a finished game from the in-process history.
type GameRecord struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"sessionId,omitempty"`
	Result             string    `json:"result"`
	Method             string    `json:"method"`
	Winner             string    `json:"winner,omitempty"`
	Description        string    `json:"description"`
	Date               time.Time `json:"date"`
	WhiteTimeRemaining int       `json:"whiteTimeRemaining"`
	BlackTimeRemaining int       `json:"blackTimeRemaining"`
	Moves              []string  `json:"moves"`
	Difficulty         string    `json:"difficulty,omitempty"`
	Castling           string    `json:"castling"`
}

// ChessGame is a finished game read back from the repository.
type ChessGame struct {
	ID                 int64     `json:"id"`
	GameUUID           string    `json:"gameId"`
	SessionUUID        string    `json:"sessionId"`
	Result             string    `json:"result"`
	ResultMethod       string    `json:"method"`
	Winner             string    `json:"winner,omitempty"`
	Difficulty         string    `json:"difficulty"`
	CastlingMode       string    `json:"castling"`
	MovesUCI           []string  `json:"movesUci"`
	MovesNotation      []string  `json:"moves"`
	MovesSAN           []string  `json:"movesSan"`
	PGN                string    `json:"pgn,omitempty"`
	StartedAt          time.Time `json:"startedAt"`
	EndedAt            time.Time `json:"endedAt"`
	DurationSeconds    int       `json:"durationSeconds"`
	WhiteTimeRemaining int       `json:"whiteTimeRemaining"`
	BlackTimeRemaining int       `json:"blackTimeRemaining"`
	WhiteCaptured      int       `json:"whiteCaptured"`
	BlackCaptured      int       `json:"blackCaptured"`
}

type HistoryResponse struct {
	Games   []GameRecord `json:"games"`
	Message string       `json:"message,omitempty"`
}

type StoredGamesResponse struct {
	Games []*ChessGame `json:"games"`
}
