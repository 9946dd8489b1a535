package game

import (
	"github.com/park285/void-chess/internal/chess"
)

// StatusView is everything a renderer needs for one frame.
type StatusView struct {
	ID               string                        `json:"id"`
	Board            chess.Board                   `json:"-"`
	Status           chess.Status                  `json:"status"`
	CurrentPlayer    chess.Color                   `json:"currentPlayer"`
	CheckingSquares  []chess.Position              `json:"checkingSquares"`
	Clocks           Clocks                        `json:"clocks"`
	CaptureTotals    map[chess.Color]int           `json:"captureTotals"`
	Captured         map[chess.Color][]chess.Piece `json:"captured"`
	Selected         *chess.Position               `json:"selected,omitempty"`
	Destinations     []chess.Position              `json:"destinations"`
	PendingPromotion *PendingPromotion             `json:"pendingPromotion,omitempty"`
	Hint             *Hint                         `json:"hint,omitempty"`
	LastMove         *chess.Move                   `json:"lastMove,omitempty"`
	MoveCount        int                           `json:"moveCount"`
	Moves            []chess.Move                  `json:"moves"`
	Evaluation       float64                       `json:"evaluation"`
	Difficulty       chess.Difficulty              `json:"difficulty"`
	Castling         chess.CastlingMode            `json:"castling"`
	Result           *GameRecord                   `json:"result,omitempty"`
}

// Winner is the side that delivered mate, if any.
func (v StatusView) Winner() (chess.Color, bool) {
	if v.Status != chess.Checkmate {
		return chess.White, false
	}
	return v.CurrentPlayer.Opposite(), true
}

// Status snapshots the session.
func (s *Session) Status() StatusView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := StatusView{
		ID:              s.opts.ID,
		Board:           *s.board,
		Status:          s.status,
		CurrentPlayer:   s.current,
		CheckingSquares: append([]chess.Position{}, s.checking...),
		Clocks:          s.clocks,
		CaptureTotals:   map[chess.Color]int{},
		Captured:        map[chess.Color][]chess.Piece{},
		Destinations:    append([]chess.Position{}, s.legal...),
		Hint:            s.activeHintLocked(),
		MoveCount:       len(s.moves),
		Moves:           append([]chess.Move{}, s.moves...),
		Evaluation:      chess.Evaluate(s.board),
		Difficulty:      s.opts.Difficulty,
		Castling:        s.opts.Castling,
	}
	for _, c := range []chess.Color{chess.White, chess.Black} {
		pieces := append([]chess.Piece{}, s.captured[c]...)
		total := 0
		for _, p := range pieces {
			total += p.Value
		}
		view.Captured[c] = pieces
		view.CaptureTotals[c] = total
	}
	if s.selected != nil {
		sel := *s.selected
		view.Selected = &sel
	}
	if s.pending != nil {
		p := *s.pending
		view.PendingPromotion = &p
	}
	if n := len(s.moves); n > 0 {
		last := s.moves[n-1]
		view.LastMove = &last
	}
	if s.record != nil {
		rec := *s.record
		view.Result = &rec
	}
	return view
}
