package chesspresenter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	corechess "github.com/park285/void-chess/internal/chess"
	"github.com/park285/void-chess/internal/game"
	svc "github.com/park285/void-chess/internal/service/voidchess"
	"github.com/park285/void-chess/pkg/chessdto"
)

func newSession(t *testing.T, moves ...string) *game.Session {
	t.Helper()
	s := game.New(game.Options{ID: "s1", ManualClock: true})
	t.Cleanup(s.Close)
	for _, uci := range moves {
		from, err := corechess.ParsePosition(uci[:2])
		if err != nil {
			t.Fatalf("from %s: %v", uci, err)
		}
		to, err := corechess.ParsePosition(uci[2:4])
		if err != nil {
			t.Fatalf("to %s: %v", uci, err)
		}
		res, err := s.AttemptMove(from, to)
		if err != nil || res.Ignored() {
			t.Fatalf("move %s: %+v %v", uci, res, err)
		}
	}
	return s
}

func TestToDTOStateAfterCapture(t *testing.T) {
	s := newSession(t, "e2e4", "d7d5", "e4d5")
	state := ToDTOState(s.Status())

	if state.SessionUUID != "s1" || state.Turn != "black" || state.Status != "playing" {
		t.Fatalf("state = %+v", state)
	}
	if state.MoveCount != 3 || strings.Join(state.MovesUCI, " ") != "e2e4 d7d5 e4d5" {
		t.Fatalf("moves = %d %v", state.MoveCount, state.MovesUCI)
	}
	if state.Material.White != 1 || state.Material.Black != 0 {
		t.Fatalf("material = %+v", state.Material)
	}
	if len(state.Captured.White) != 1 || state.Captured.White[0] != "pawn" {
		t.Fatalf("captured = %+v", state.Captured)
	}
	if state.LastMove == nil || state.LastMove.Captured != "pawn" || state.LastMove.Piece != "pawn" {
		t.Fatalf("last move = %+v", state.LastMove)
	}
	if len(state.Pieces) != 31 {
		t.Fatalf("pieces = %d", len(state.Pieces))
	}
	if !strings.HasPrefix(state.Placement, "rnbqkbnr/ppp1pppp/8/3P4/") {
		t.Fatalf("placement = %s", state.Placement)
	}
	if state.Clocks.White != "10:00" || state.Clocks.WhiteSeconds != 600 {
		t.Fatalf("clocks = %+v", state.Clocks)
	}
}

func TestToDTOStateFinished(t *testing.T) {
	s := newSession(t, "f2f3", "e7e5", "g2g4", "d8h4")
	state := ToDTOState(s.Status())
	if !state.Finished() || state.Result == nil {
		t.Fatalf("state not finished: %+v", state)
	}
	if state.Result.Winner != "black" || state.Result.Description != "Black wins by Checkmate" {
		t.Fatalf("result = %+v", state.Result)
	}
	if len(state.CheckingSquares) != 1 || state.CheckingSquares[0] != "h4" {
		t.Fatalf("checking = %v", state.CheckingSquares)
	}

	f := NewFormatter(nil)
	if got := f.StatusLine(state); got != "Black wins by Checkmate" {
		t.Fatalf("status line = %q", got)
	}
}

func TestToDomainError(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("wrap: %w", svc.ErrSessionNotFound), chessdto.CodeSessionNotFound},
		{svc.ErrGameNotFound, chessdto.CodeGameNotFound},
		{fmt.Errorf("%w: z9", corechess.ErrInvalidSquare), chessdto.CodeInvalidSquare},
		{corechess.ErrInvalidPromotion, chessdto.CodeInvalidPiece},
		{corechess.ErrUnknownDifficulty, chessdto.CodeUnknownDifficulty},
		{corechess.ErrUnknownCastling, chessdto.CodeUnknownCastling},
		{svc.ErrServiceClosed, chessdto.CodeUnavailable},
		{errors.New("boom"), chessdto.CodeInternal},
	}
	for _, tc := range cases {
		if got := ToDomainError(tc.err); got.Code != tc.code {
			t.Fatalf("%v -> %s, want %s", tc.err, got.Code, tc.code)
		}
	}
	if got := ToDomainError(errors.New("secret detail")); strings.Contains(got.Message, "secret") {
		t.Fatalf("internal error leaked: %q", got.Message)
	}
}

func TestFormatterStatus(t *testing.T) {
	s := newSession(t, "e2e4", "d7d5", "e4d5")
	f := NewFormatter(nil)
	text := f.Status(ToDTOState(s.Status()))
	for _, want := range []string{"Black to move", "Move 3 - last e4xd5", "White 10:00 | Black 10:00", "White +1", "White P", "Difficulty: Intermediate"} {
		if !strings.Contains(text, want) {
			t.Fatalf("status missing %q:\n%s", want, text)
		}
	}
}

func TestFormatterHistory(t *testing.T) {
	f := NewFormatter(nil)
	if got := f.History(nil); got != "No finished games yet." {
		t.Fatalf("empty = %q", got)
	}
	games := []chessdto.GameRecord{
		{Description: "White wins by Checkmate", Moves: []string{"a", "b", "c"}, Difficulty: "expert", Date: time.Now()},
		{Description: "Draw by Stalemate", Moves: []string{"a"}},
	}
	text := f.History(games)
	if !strings.HasPrefix(text, "Recent games\n1. ") {
		t.Fatalf("history = %q", text)
	}
	if !strings.Contains(text, "White wins by Checkmate in 3 moves [expert]") || !strings.Contains(text, "2. - ") {
		t.Fatalf("history = %q", text)
	}
}

func TestFormatterHint(t *testing.T) {
	f := NewFormatter(nil)
	if got := f.Hint(&chessdto.Hint{From: "e2", To: "e4"}, "master"); got != "Hint (Master): e2 -> e4" {
		t.Fatalf("hint = %q", got)
	}
	if got := f.Hint(nil, "master"); got != "No hint available right now." {
		t.Fatalf("no hint = %q", got)
	}
	if got := f.Error(chessdto.DomainError{Code: chessdto.CodeSessionNotFound, Message: "x"}); got != "No game found for that session." {
		t.Fatalf("error = %q", got)
	}
}

type fakeSource struct {
	session *game.Session
}

func (f fakeSource) Status(_ context.Context, id string) (game.StatusView, error) {
	if id != f.session.ID() {
		return game.StatusView{}, svc.ErrSessionNotFound
	}
	return f.session.Status(), nil
}

type capturePublisher struct {
	events map[string][]chessdto.LiveEvent
}

func (c *capturePublisher) Publish(id string, ev chessdto.LiveEvent) {
	if c.events == nil {
		c.events = map[string][]chessdto.LiveEvent{}
	}
	c.events[id] = append(c.events[id], ev)
}

func TestPresenterPublishes(t *testing.T) {
	s := newSession(t, "e2e4")
	pub := &capturePublisher{}
	p := NewPresenter(fakeSource{session: s}, pub, nil, nil)

	p.SessionChanged("s1", game.EventMove)
	p.SessionChanged("missing", game.EventMove)

	if len(pub.events["missing"]) != 0 {
		t.Fatalf("published for unknown session")
	}
	evs := pub.events["s1"]
	if len(evs) != 1 || evs[0].Kind != "move" || evs[0].State == nil {
		t.Fatalf("events = %+v", evs)
	}
	if evs[0].State.Message != "Black to move" {
		t.Fatalf("message = %q", evs[0].State.Message)
	}
}
