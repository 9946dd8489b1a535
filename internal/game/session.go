package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/void-chess/internal/chess"
)

const DefaultHintDuration = 3 * time.Second

var (
	ErrSessionClosed = errors.New("session closed")
	ErrIllegalReplay = errors.New("recorded move is not legal")
	ErrPendingReplay = errors.New("recorded promotion missing piece")
)

type EventKind string

const (
	EventReset     EventKind = "reset"
	EventSelect    EventKind = "select"
	EventMove      EventKind = "move"
	EventPromotion EventKind = "promotion_pending"
	EventHint      EventKind = "hint"
	EventFinish    EventKind = "finish"
	EventTick      EventKind = "tick"
	EventSettings  EventKind = "settings"
)

type Options struct {
	ID            string
	ClockDuration time.Duration
	HintDuration  time.Duration
	Difficulty    chess.Difficulty
	Castling      chess.CastlingMode
	// ManualClock disables the background ticker; Tick must be called
	// explicitly.
	ManualClock bool
	Engine      *chess.Engine
	History     *HistoryLog
	Logger      *zap.Logger
	Now         func() time.Time
	// OnChange runs after every state change, outside the session lock.
	OnChange func(EventKind)
	// OnFinish runs once per completed game, outside the session lock.
	OnFinish func(GameRecord)
}

// Selection is the answer to a square tap.
type Selection struct {
	Selected     *chess.Position  `json:"selected,omitempty"`
	Destinations []chess.Position `json:"destinations"`
}

// MoveResult is a committed move, a pending promotion, or neither when the
// input was ignored.
type MoveResult struct {
	Move             *chess.Move `json:"move,omitempty"`
	PromotionPending bool        `json:"promotionPending"`
}

func (r MoveResult) Ignored() bool { return r.Move == nil && !r.PromotionPending }

type Hint struct {
	From      chess.Position `json:"from"`
	To        chess.Position `json:"to"`
	Score     float64        `json:"score"`
	Rank      int            `json:"rank"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

type PendingPromotion struct {
	From chess.Position `json:"from"`
	To   chess.Position `json:"to"`
}

// MoveInput is the replayable form of a move.
type MoveInput struct {
	From      chess.Position  `json:"from"`
	To        chess.Position  `json:"to"`
	Promotion chess.PieceType `json:"promotion,omitempty"`
}

// Session runs one game. All exported methods are safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	opts   Options
	logger *zap.Logger

	board     *chess.Board
	current   chess.Color
	status    chess.Status
	moves     []chess.Move
	selected  *chess.Position
	legal     []chess.Position
	captured  map[chess.Color][]chess.Piece
	checking  []chess.Position
	pending   *PendingPromotion
	hint      *Hint
	clocks    Clocks
	record    *GameRecord
	closed    bool
	replaying bool

	clockRunning bool
	clockStop    chan struct{}
}

// New creates a session and starts its first game.
func New(opts Options) *Session {
	if opts.ClockDuration <= 0 {
		opts.ClockDuration = DefaultClockDuration
	}
	if opts.HintDuration <= 0 {
		opts.HintDuration = DefaultHintDuration
	}
	if opts.Difficulty == "" {
		opts.Difficulty = chess.Intermediate
	}
	if opts.Engine == nil {
		opts.Engine = chess.NewEngine()
	}
	if opts.History == nil {
		opts.History = NewHistoryLog(DefaultHistoryLimit)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{opts: opts, logger: logger.With(zap.String("session_id", opts.ID))}
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	return s
}

func (s *Session) ID() string { return s.opts.ID }

// NewGame discards the current game and sets up a fresh board.
func (s *Session) NewGame() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.resetLocked()
	s.mu.Unlock()
	s.logger.Debug("chess_new_game")
	s.notify(EventReset)
	return nil
}

func (s *Session) resetLocked() {
	s.stopClockLocked()
	s.board = chess.NewBoard()
	s.current = chess.White
	s.status = chess.Playing
	s.moves = nil
	s.selected = nil
	s.legal = nil
	s.captured = map[chess.Color][]chess.Piece{}
	s.checking = nil
	s.pending = nil
	s.hint = nil
	s.record = nil
	s.clocks = Clocks{White: s.opts.ClockDuration, Black: s.opts.ClockDuration}
	s.startClockLocked()
}

// Close stops the clock. The session rejects further games afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopClockLocked()
	s.closed = true
}

// locked runs fn under the session mutex. The mutex is released even when
// a broken board invariant panics inside fn.
func (s *Session) locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// SelectSquare selects a piece of the side to move and lists its legal
// destinations. Anything else clears the selection.
func (s *Session) SelectSquare(pos chess.Position) Selection {
	var sel Selection
	s.locked(func() { sel = s.selectLocked(pos) })
	s.notify(EventSelect)
	return sel
}

func (s *Session) selectLocked(pos chess.Position) Selection {
	s.selected, s.legal = nil, nil
	if s.closed || s.status.Terminal() || s.pending != nil {
		return Selection{Destinations: []chess.Position{}}
	}
	p := s.board.At(pos)
	if p == nil || p.Color != s.current {
		return Selection{Destinations: []chess.Position{}}
	}
	sel := pos
	s.selected = &sel
	s.legal = s.board.LegalMoves(pos, s.lastLocked())
	return Selection{Selected: &sel, Destinations: append([]chess.Position{}, s.legal...)}
}

// Tap is the touch flow: tapping a legal destination of the selected piece
// moves it, any other tap selects.
func (s *Session) Tap(pos chess.Position) (Selection, MoveResult, error) {
	var (
		sel  Selection
		from chess.Position
		move bool
	)
	s.locked(func() {
		if s.selected != nil && containsPos(s.legal, pos) {
			from, move = *s.selected, true
			return
		}
		sel = s.selectLocked(pos)
	})
	if move {
		res, err := s.AttemptMove(from, pos)
		return Selection{Destinations: []chess.Position{}}, res, err
	}
	s.notify(EventSelect)
	return sel, MoveResult{}, nil
}

// AttemptMove plays from->to when it is legal for the side to move. Illegal
// or out-of-turn input clears the selection and is otherwise ignored.
func (s *Session) AttemptMove(from, to chess.Position) (MoveResult, error) {
	var (
		res      MoveResult
		finished *GameRecord
		ignored  bool
		err      error
	)
	s.locked(func() {
		if s.closed || s.status.Terminal() || s.pending != nil {
			s.selected, s.legal = nil, nil
			return
		}
		p := s.board.At(from)
		if p == nil || p.Color != s.current || !s.board.IsLegal(from, to, s.lastLocked()) {
			s.selected, s.legal = nil, nil
			ignored = true
			return
		}
		if s.board.NeedsPromotion(from, to) {
			s.pending = &PendingPromotion{From: from, To: to}
			s.selected, s.legal = nil, nil
			res.PromotionPending = true
			return
		}
		var mv chess.Move
		mv, finished, err = s.commitLocked(from, to, chess.NoPiece)
		if err == nil {
			res.Move = &mv
		}
	})
	switch {
	case err != nil:
		return MoveResult{}, err
	case ignored:
		s.logger.Debug("chess_move_ignored", zap.String("from", from.String()), zap.String("to", to.String()))
	case res.PromotionPending:
		s.notify(EventPromotion)
	case res.Move != nil:
		s.afterCommit(finished)
	}
	return res, nil
}

// ResolvePromotion completes a pending promotion. Without one it does
// nothing.
func (s *Session) ResolvePromotion(pt chess.PieceType) (*chess.Move, error) {
	var (
		mv       *chess.Move
		finished *GameRecord
		err      error
	)
	s.locked(func() {
		if s.pending == nil {
			return
		}
		if !pt.Promotable() {
			err = fmt.Errorf("%w: %s", chess.ErrInvalidPromotion, pt)
			return
		}
		pending := *s.pending
		s.pending = nil
		var m chess.Move
		m, finished, err = s.commitLocked(pending.From, pending.To, pt)
		if err == nil {
			mv = &m
		}
	})
	if err != nil || mv == nil {
		return nil, err
	}
	s.afterCommit(finished)
	return mv, nil
}

// commitLocked applies a validated move and re-evaluates the position for the
// side now to move. finished is non-nil when the move ended the game.
func (s *Session) commitLocked(from, to chess.Position, promo chess.PieceType) (chess.Move, *GameRecord, error) {
	mover := s.current
	mv, err := s.board.Apply(from, to, promo, s.opts.Castling)
	if err != nil {
		return chess.Move{}, nil, err
	}
	mv.Timestamp = s.opts.Now()
	if mv.Captured != nil {
		s.captured[mover] = append(s.captured[mover], *mv.Captured)
	}
	s.moves = append(s.moves, mv)
	s.current = mover.Opposite()
	s.selected, s.legal = nil, nil
	s.hint = nil

	info := s.board.IsKingInCheck(s.current)
	s.checking = info.Attackers
	s.status = s.board.Classify(s.current, &mv)

	if !s.status.Terminal() {
		return mv, nil, nil
	}
	s.stopClockLocked()
	rec := newRecord(s.opts.ID, s.moves, s.status, s.current, s.clocks.White, s.clocks.Black, s.opts.Now())
	rec.Difficulty = s.opts.Difficulty
	rec.Castling = s.opts.Castling
	s.record = &rec
	if s.replaying {
		return mv, nil, nil
	}
	s.opts.History.Add(rec)
	return mv, &rec, nil
}

func (s *Session) afterCommit(finished *GameRecord) {
	s.notify(EventMove)
	if finished == nil {
		return
	}
	s.logger.Info("chess_game_finished",
		zap.String("game_id", finished.ID),
		zap.String("result", finished.Result),
		zap.Int("moves", len(finished.Moves)),
	)
	if s.opts.OnFinish != nil {
		s.opts.OnFinish(*finished)
	}
	s.notify(EventFinish)
}

// RequestHint samples a suggestion for the side to move. The hint stays
// active for the configured hint duration.
func (s *Session) RequestHint() (*Hint, error) {
	var (
		out *Hint
		err error
	)
	s.locked(func() {
		if s.closed || s.status.Terminal() || s.pending != nil {
			return
		}
		var res *chess.SuggestResult
		res, err = s.opts.Engine.Suggest(chess.SuggestRequest{
			Board:      s.board,
			Color:      s.current,
			LastMove:   s.lastLocked(),
			Difficulty: s.opts.Difficulty,
		})
		if err != nil || res == nil {
			return
		}
		s.hint = &Hint{
			From:      res.Chosen.From,
			To:        res.Chosen.To,
			Score:     res.Chosen.Score,
			Rank:      res.Rank,
			ExpiresAt: s.opts.Now().Add(s.opts.HintDuration),
		}
		h := *s.hint
		out = &h
	})
	if err != nil || out == nil {
		return nil, err
	}
	s.notify(EventHint)
	return out, nil
}

func (s *Session) activeHintLocked() *Hint {
	if s.hint == nil || !s.opts.Now().Before(s.hint.ExpiresAt) {
		return nil
	}
	h := *s.hint
	return &h
}

func (s *Session) SetDifficulty(d chess.Difficulty) error {
	if _, err := chess.GetPreset(d); err != nil {
		return err
	}
	s.mu.Lock()
	s.opts.Difficulty = d
	s.mu.Unlock()
	s.notify(EventSettings)
	return nil
}

func (s *Session) Difficulty() chess.Difficulty {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Difficulty
}

// History lists completed games, newest first.
func (s *Session) History() []GameRecord {
	return s.opts.History.List()
}

// Inputs returns the moves of the current game in replayable form.
func (s *Session) Inputs() []MoveInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]MoveInput, 0, len(s.moves))
	for _, mv := range s.moves {
		out = append(out, MoveInput{From: mv.From, To: mv.To, Promotion: mv.Promotion})
	}
	return out
}

// Replay rebuilds a session from recorded moves and clocks. Completed games
// are not added to the history again.
func Replay(opts Options, inputs []MoveInput, clocks *Clocks) (*Session, error) {
	s := New(opts)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaying = true
	defer func() { s.replaying = false }()
	for i, in := range inputs {
		if s.status.Terminal() || !s.board.IsLegal(in.From, in.To, s.lastLocked()) {
			s.stopClockLocked()
			return nil, fmt.Errorf("%w: #%d %s%s", ErrIllegalReplay, i+1, in.From, in.To)
		}
		if s.board.NeedsPromotion(in.From, in.To) && in.Promotion == chess.NoPiece {
			s.stopClockLocked()
			return nil, fmt.Errorf("%w: #%d %s%s", ErrPendingReplay, i+1, in.From, in.To)
		}
		if _, _, err := s.commitLocked(in.From, in.To, in.Promotion); err != nil {
			s.stopClockLocked()
			return nil, err
		}
	}
	if clocks != nil {
		s.clocks = *clocks
	}
	return s, nil
}

func (s *Session) lastLocked() *chess.Move {
	if len(s.moves) == 0 {
		return nil
	}
	return &s.moves[len(s.moves)-1]
}

func (s *Session) notify(kind EventKind) {
	if s.opts.OnChange != nil {
		s.opts.OnChange(kind)
	}
}

func containsPos(list []chess.Position, p chess.Position) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}
