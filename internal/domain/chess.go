package domain

import "time"

// ChessGame is a finished game as stored by the repository.
type ChessGame struct {
	ID                 int64
	GameUUID           string
	SessionUUID        string
	Result             string
	ResultMethod       string
	Winner             string
	Difficulty         string
	CastlingMode       string
	MovesUCI           []string
	MovesNotation      []string
	MovesSAN           []string
	PGN                string
	StartedAt          time.Time
	EndedAt            time.Time
	Duration           time.Duration
	WhiteTimeRemaining time.Duration
	BlackTimeRemaining time.Duration
	WhiteCaptured      int
	BlackCaptured      int
}
