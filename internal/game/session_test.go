package game

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/park285/void-chess/internal/chess"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestSession(t *testing.T, mutate func(*Options)) *Session {
	t.Helper()
	opts := Options{ID: "test", ManualClock: true}
	if mutate != nil {
		mutate(&opts)
	}
	s := New(opts)
	t.Cleanup(s.Close)
	return s
}

func sq(t *testing.T, s string) chess.Position {
	t.Helper()
	p, err := chess.ParsePosition(s)
	if err != nil {
		t.Fatalf("square %q: %v", s, err)
	}
	return p
}

func play(t *testing.T, s *Session, moves ...string) *chess.Move {
	t.Helper()
	var last *chess.Move
	for _, uci := range moves {
		res, err := s.AttemptMove(sq(t, uci[:2]), sq(t, uci[2:4]))
		if err != nil {
			t.Fatalf("move %s: %v", uci, err)
		}
		if res.Ignored() {
			t.Fatalf("move %s ignored", uci)
		}
		last = res.Move
	}
	return last
}

func TestNewSessionDefaults(t *testing.T) {
	s := newTestSession(t, nil)
	st := s.Status()
	if st.Status != chess.Playing || st.CurrentPlayer != chess.White {
		t.Fatalf("status = %s/%s, want playing/white", st.Status, st.CurrentPlayer)
	}
	if st.Clocks.White != 600*time.Second || st.Clocks.Black != 600*time.Second {
		t.Fatalf("clocks = %+v, want 600s each", st.Clocks)
	}
	if st.MoveCount != 0 || st.Selected != nil || len(st.Destinations) != 0 {
		t.Fatalf("fresh session carries state: %+v", st)
	}
	if st.Difficulty != chess.Intermediate {
		t.Fatalf("difficulty = %s", st.Difficulty)
	}
}

func TestSelectSquare(t *testing.T) {
	s := newTestSession(t, nil)

	sel := s.SelectSquare(sq(t, "e2"))
	if sel.Selected == nil || *sel.Selected != sq(t, "e2") || len(sel.Destinations) != 2 {
		t.Fatalf("select e2 = %+v", sel)
	}
	if st := s.Status(); st.Selected == nil || len(st.Destinations) != 2 {
		t.Fatalf("selection not reflected in status")
	}

	sel = s.SelectSquare(sq(t, "e7"))
	if sel.Selected != nil || len(sel.Destinations) != 0 {
		t.Fatalf("selecting an opponent piece = %+v, want empty", sel)
	}
	if st := s.Status(); st.Selected != nil {
		t.Fatalf("out-of-turn tap should clear the selection")
	}

	sel = s.SelectSquare(sq(t, "e4"))
	if sel.Selected != nil {
		t.Fatalf("selecting an empty square = %+v", sel)
	}
}

func TestTapFlow(t *testing.T) {
	s := newTestSession(t, nil)
	if sel, res, err := s.Tap(sq(t, "g1")); err != nil || sel.Selected == nil || !res.Ignored() {
		t.Fatalf("tap g1 = %+v %+v %v", sel, res, err)
	}
	_, res, err := s.Tap(sq(t, "f3"))
	if err != nil || res.Move == nil || res.Move.Notation != "Ng1f3" {
		t.Fatalf("tap f3 = %+v %v", res, err)
	}
	if st := s.Status(); st.CurrentPlayer != chess.Black || st.MoveCount != 1 {
		t.Fatalf("after tap move: %s, %d moves", st.CurrentPlayer, st.MoveCount)
	}
}

func TestAttemptMoveIgnoresInvalidInput(t *testing.T) {
	s := newTestSession(t, nil)
	cases := [][2]string{
		{"e2", "e5"}, // not a legal destination
		{"e7", "e5"}, // out of turn
		{"e4", "e5"}, // empty square
	}
	for _, c := range cases {
		res, err := s.AttemptMove(sq(t, c[0]), sq(t, c[1]))
		if err != nil || !res.Ignored() {
			t.Fatalf("%s%s = %+v, %v; want ignored", c[0], c[1], res, err)
		}
	}
	if st := s.Status(); st.MoveCount != 0 || st.CurrentPlayer != chess.White {
		t.Fatalf("ignored input changed the game: %+v", st)
	}
}

func TestFoolsMateEndsGame(t *testing.T) {
	var finished []GameRecord
	s := newTestSession(t, func(o *Options) {
		o.OnFinish = func(rec GameRecord) { finished = append(finished, rec) }
	})

	last := play(t, s, "f2f3", "e7e5", "g2g4", "d8h4")
	st := s.Status()
	if st.Status != chess.Checkmate {
		t.Fatalf("status = %s, want checkmate", st.Status)
	}
	if st.CurrentPlayer != chess.White {
		t.Fatalf("current player = %s, want the mated side (white)", st.CurrentPlayer)
	}
	if winner, ok := st.Winner(); !ok || winner != chess.Black || winner != last.Piece.Color {
		t.Fatalf("winner = %s, %v", winner, ok)
	}
	if len(st.CheckingSquares) != 1 || st.CheckingSquares[0] != sq(t, "h4") {
		t.Fatalf("checking squares = %v", st.CheckingSquares)
	}
	if st.Result == nil || st.Result.Result != "Black wins" || st.Result.Description() != "Black wins by Checkmate" {
		t.Fatalf("result = %+v", st.Result)
	}

	hist := s.History()
	if len(hist) != 1 || hist[0].Result != "Black wins" || len(hist[0].Moves) != 4 {
		t.Fatalf("history = %+v", hist)
	}
	if len(finished) != 1 || finished[0].ID != hist[0].ID {
		t.Fatalf("OnFinish calls = %d", len(finished))
	}

	// the clock is stopped and further input is ignored
	s.Tick()
	if got := s.Status().Clocks; got.White != 600*time.Second {
		t.Fatalf("clock moved after mate: %+v", got)
	}
	if res, _ := s.AttemptMove(sq(t, "a2"), sq(t, "a3")); !res.Ignored() {
		t.Fatalf("move accepted after checkmate")
	}
	if hint, err := s.RequestHint(); hint != nil || err != nil {
		t.Fatalf("hint after mate = %v, %v", hint, err)
	}
}

func TestStalemateIsDraw(t *testing.T) {
	s := newTestSession(t, nil)
	play(t, s,
		"e2e3", "a7a5", "d1h5", "a8a6", "h5a5", "h7h5", "h2h4", "a6h6", "a5c7", "f7f6",
		"c7d7", "e8f7", "d7b7", "d8d3", "b7b8", "d3h7", "b8c8", "f7g6", "c8e6")
	st := s.Status()
	if st.Status != chess.Stalemate {
		t.Fatalf("status = %s, want stalemate", st.Status)
	}
	if _, ok := st.Winner(); ok {
		t.Fatalf("stalemate has no winner")
	}
	if st.Result == nil || st.Result.Result != "Draw" || st.Result.Description() != "Draw by Stalemate" {
		t.Fatalf("result = %+v", st.Result)
	}
}

func TestPromotionFlow(t *testing.T) {
	s := newTestSession(t, nil)
	play(t, s, "a2a4", "b7b5", "a4b5", "a7a6", "b5a6", "c8b7", "a6b7", "g8f6")

	if mv, err := s.ResolvePromotion(chess.Queen); mv != nil || err != nil {
		t.Fatalf("resolve without pending = %v, %v; want no-op", mv, err)
	}

	res, err := s.AttemptMove(sq(t, "b7"), sq(t, "a8"))
	if err != nil || !res.PromotionPending || res.Move != nil {
		t.Fatalf("attempt b7a8 = %+v, %v; want pending", res, err)
	}
	st := s.Status()
	if st.PendingPromotion == nil || st.CurrentPlayer != chess.White {
		t.Fatalf("pending state = %+v", st.PendingPromotion)
	}
	if sel := s.SelectSquare(sq(t, "h2")); sel.Selected != nil {
		t.Fatalf("selection allowed while promotion pending")
	}

	if _, err := s.ResolvePromotion(chess.King); !errors.Is(err, chess.ErrInvalidPromotion) {
		t.Fatalf("err = %v, want ErrInvalidPromotion", err)
	}
	mv, err := s.ResolvePromotion(chess.Queen)
	if err != nil || mv == nil {
		t.Fatalf("resolve = %v, %v", mv, err)
	}
	if mv.Notation != "b7xa8=Q" {
		t.Fatalf("notation = %q", mv.Notation)
	}
	st = s.Status()
	if st.PendingPromotion != nil {
		t.Fatalf("pending flag not cleared")
	}
	if q := st.Board.At(sq(t, "a8")); q == nil || q.Type != chess.Queen || q.Value != 9 {
		t.Fatalf("a8 = %+v, want queen worth 9", q)
	}
	if st.CaptureTotals[chess.White] != 10 || st.CaptureTotals[chess.Black] != 0 {
		t.Fatalf("capture totals = %v, want white 10 black 0", st.CaptureTotals)
	}
	if st.CurrentPlayer != chess.Black {
		t.Fatalf("turn did not pass after promotion")
	}
}

func TestClockCountsDownForSideToMove(t *testing.T) {
	s := newTestSession(t, func(o *Options) { o.ClockDuration = 2 * time.Second })

	s.Tick()
	if got := s.Status().Clocks; got.White != time.Second || got.Black != 2*time.Second {
		t.Fatalf("clocks after one tick = %+v", got)
	}
	s.Tick()
	s.Tick()
	if got := s.Status().Clocks.White; got != 0 {
		t.Fatalf("white clock = %v, want clamped at 0", got)
	}

	play(t, s, "e2e4")
	s.Tick()
	if got := s.Status().Clocks; got.Black != time.Second || got.White != 0 {
		t.Fatalf("clocks after black tick = %+v", got)
	}

	if err := s.NewGame(); err != nil {
		t.Fatalf("new game: %v", err)
	}
	if got := s.Status().Clocks; got.White != 2*time.Second || got.Black != 2*time.Second {
		t.Fatalf("clocks after reset = %+v", got)
	}
}

func TestBackgroundClockStopsOnClose(t *testing.T) {
	s := New(Options{ID: "bg"})
	s.Close()
	s.Tick()
	if got := s.Status().Clocks.White; got != DefaultClockDuration {
		t.Fatalf("closed session clock = %v", got)
	}
	if err := s.NewGame(); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("NewGame on closed session = %v", err)
	}
}

func TestStaleTickerIgnoredAfterReset(t *testing.T) {
	s := New(Options{ID: "stale"})
	t.Cleanup(s.Close)

	s.mu.Lock()
	previous := s.clockStop
	s.mu.Unlock()
	if previous == nil {
		t.Fatalf("background clock not started")
	}
	if err := s.NewGame(); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	s.tick(previous)
	if got := s.Status().Clocks.White; got != DefaultClockDuration {
		t.Fatalf("stale tick changed the new game clock: %v", got)
	}
}

func TestInvariantPanicReleasesLock(t *testing.T) {
	s := newTestSession(t, nil)
	s.mu.Lock()
	s.board.Set(sq(t, "e8"), nil)
	s.mu.Unlock()

	func() {
		defer func() {
			if _, ok := recover().(*chess.InvariantError); !ok {
				t.Fatalf("expected an invariant panic for the missing black king")
			}
		}()
		_, _ = s.AttemptMove(sq(t, "e2"), sq(t, "e4"))
	}()

	done := make(chan struct{})
	go func() {
		_ = s.Status()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("session mutex still held after the panic")
	}
}

func TestHintExpires(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	engine := chess.NewEngine()
	engine.SetRandomSeed(3)
	s := newTestSession(t, func(o *Options) {
		o.Now = clock.Now
		o.Engine = engine
		o.Difficulty = chess.Master
	})

	hint, err := s.RequestHint()
	if err != nil || hint == nil {
		t.Fatalf("hint = %v, %v", hint, err)
	}
	if p := s.Status().Board.At(hint.From); p == nil || p.Color != chess.White {
		t.Fatalf("hint source %s does not hold a white piece", hint.From)
	}
	if s.Status().Hint == nil {
		t.Fatalf("hint should be active")
	}
	clock.Advance(DefaultHintDuration)
	if s.Status().Hint != nil {
		t.Fatalf("hint should expire after %s", DefaultHintDuration)
	}
}

func TestNewGameResets(t *testing.T) {
	s := newTestSession(t, nil)
	play(t, s, "e2e4", "e7e5")
	s.SelectSquare(sq(t, "g1"))
	if err := s.NewGame(); err != nil {
		t.Fatalf("new game: %v", err)
	}
	st := s.Status()
	if st.MoveCount != 0 || st.Selected != nil || st.CurrentPlayer != chess.White || st.Board.At(sq(t, "e2")) == nil {
		t.Fatalf("reset left state behind: %+v", st)
	}
}

func TestReplay(t *testing.T) {
	src := newTestSession(t, nil)
	play(t, src, "e2e4", "d7d5", "e4d5", "d8d5")
	inputs := src.Inputs()

	clocks := Clocks{White: 500 * time.Second, Black: 400 * time.Second}
	s, err := Replay(Options{ID: "replayed", ManualClock: true}, inputs, &clocks)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	defer s.Close()
	st := s.Status()
	if st.MoveCount != 4 || st.Board.FEN() != src.Status().Board.FEN() || st.Clocks != clocks {
		t.Fatalf("replayed state = %+v", st)
	}

	history := NewHistoryLog(10)
	mate := []MoveInput{
		{From: sq(t, "f2"), To: sq(t, "f3")}, {From: sq(t, "e7"), To: sq(t, "e5")},
		{From: sq(t, "g2"), To: sq(t, "g4")}, {From: sq(t, "d8"), To: sq(t, "h4")},
	}
	s2, err := Replay(Options{ManualClock: true, History: history}, mate, nil)
	if err != nil {
		t.Fatalf("replay mate: %v", err)
	}
	defer s2.Close()
	if s2.Status().Status != chess.Checkmate || len(history.List()) != 0 {
		t.Fatalf("replayed mate should not be recorded again")
	}

	bad := []MoveInput{{From: sq(t, "e2"), To: sq(t, "e5")}}
	if _, err := Replay(Options{ManualClock: true}, bad, nil); !errors.Is(err, ErrIllegalReplay) {
		t.Fatalf("err = %v, want ErrIllegalReplay", err)
	}
}

func TestOnChangeFires(t *testing.T) {
	var mu sync.Mutex
	var kinds []EventKind
	s := newTestSession(t, func(o *Options) {
		o.OnChange = func(k EventKind) {
			mu.Lock()
			kinds = append(kinds, k)
			mu.Unlock()
		}
	})
	s.SelectSquare(sq(t, "e2"))
	play(t, s, "e2e4")
	s.Tick()

	mu.Lock()
	defer mu.Unlock()
	want := []EventKind{EventSelect, EventMove, EventTick}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("events = %v, want %v", kinds, want)
		}
	}
}
