package game

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/park285/void-chess/internal/chess"
)

const DefaultHistoryLimit = 10

// GameRecord is a completed game.
type GameRecord struct {
	ID                 string             `json:"id"`
	SessionID          string             `json:"sessionId,omitempty"`
	Moves              []chess.Move       `json:"moves"`
	Result             string             `json:"result"`
	Method             chess.Status       `json:"method"`
	Winner             *chess.Color       `json:"winner,omitempty"`
	Date               time.Time          `json:"date"`
	WhiteTimeRemaining time.Duration      `json:"whiteTimeRemaining"`
	BlackTimeRemaining time.Duration      `json:"blackTimeRemaining"`
	Difficulty         chess.Difficulty   `json:"difficulty,omitempty"`
	Castling           chess.CastlingMode `json:"castling"`
}

// Description is the long form shown on the game-over banner.
func (r GameRecord) Description() string {
	if r.Method == chess.Stalemate {
		return "Draw by Stalemate"
	}
	return r.Result + " by Checkmate"
}

func newRecord(sessionID string, moves []chess.Move, method chess.Status, toMove chess.Color, white, black time.Duration, at time.Time) GameRecord {
	rec := GameRecord{
		ID:                 uuid.NewString(),
		SessionID:          sessionID,
		Moves:              append([]chess.Move(nil), moves...),
		Method:             method,
		Date:               at,
		WhiteTimeRemaining: white,
		BlackTimeRemaining: black,
	}
	if method == chess.Checkmate {
		winner := toMove.Opposite()
		rec.Winner = &winner
		rec.Result = winner.Title() + " wins"
	} else {
		rec.Result = "Draw"
	}
	return rec
}

// HistoryLog keeps the most recent finished games, newest first.
type HistoryLog struct {
	mu      sync.RWMutex
	limit   int
	records []GameRecord
}

func NewHistoryLog(limit int) *HistoryLog {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryLog{limit: limit}
}

func (h *HistoryLog) Add(rec GameRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append([]GameRecord{rec}, h.records...)
	if len(h.records) > h.limit {
		h.records = h.records[:h.limit]
	}
}

func (h *HistoryLog) List() []GameRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]GameRecord(nil), h.records...)
}

func (h *HistoryLog) Get(id string) (GameRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, rec := range h.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return GameRecord{}, false
}

