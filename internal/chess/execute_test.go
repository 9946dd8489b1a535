package chess

import (
	"errors"
	"testing"
)

func TestApplyMovesPiece(t *testing.T) {
	b := NewBoard()
	from, to := mustSquare(t, "g1"), mustSquare(t, "f3")
	mv, err := b.Apply(from, to, NoPiece, CastleRelocateRook)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if b.At(from) != nil {
		t.Fatalf("source square still occupied")
	}
	p := b.At(to)
	if p == nil || p.Type != Knight || !p.HasMoved {
		t.Fatalf("destination = %+v, want moved knight", p)
	}
	if mv.Piece.HasMoved {
		t.Fatalf("move snapshot should hold the pre-move piece")
	}
	if mv.Notation != "Ng1f3" {
		t.Fatalf("notation = %q, want Ng1f3", mv.Notation)
	}
	if mv.UCI() != "g1f3" {
		t.Fatalf("uci = %q", mv.UCI())
	}
	if mv.Timestamp.IsZero() {
		t.Fatalf("timestamp not set")
	}
}

func TestApplyNotation(t *testing.T) {
	b := NewBoard()
	var notations []string
	var last *Move
	for _, uci := range []string{"e2e4", "d7d5", "e4d5", "d8d5", "b1c3"} {
		last = playUCI(t, b, CastleRelocateRook, last, uci)
		notations = append(notations, last.Notation)
	}
	want := []string{"e2e4", "d7d5", "e4xd5", "Qd8xd5", "Nb1c3"}
	for i := range want {
		if notations[i] != want[i] {
			t.Fatalf("notation[%d] = %q, want %q", i, notations[i], want[i])
		}
	}
	if last.Captured != nil {
		t.Fatalf("quiet move reported a capture")
	}
}

func TestEnPassantRemovesCapturedPawn(t *testing.T) {
	b := NewBoard()
	last := playUCI(t, b, CastleRelocateRook, nil, "e2e4", "a7a6", "e4e5", "d7d5", "e5d6")

	if b.At(mustSquare(t, "d5")) != nil {
		t.Fatalf("passed pawn on d5 was not removed")
	}
	if p := b.At(mustSquare(t, "d6")); p == nil || p.Type != Pawn || p.Color != White {
		t.Fatalf("d6 = %v, want white pawn", p)
	}
	if !last.EnPassant || last.Captured == nil || last.Captured.Type != Pawn || last.Captured.Color != Black {
		t.Fatalf("move = %+v, want en passant capture of a black pawn", last)
	}
	if last.Notation != "e5xd6" {
		t.Fatalf("notation = %q, want e5xd6", last.Notation)
	}
	if got := b.Count(Black); got != 15 {
		t.Fatalf("black pieces = %d, want 15", got)
	}
}

func TestPromotion(t *testing.T) {
	b := mustBoard(t, "8/P6k/8/8/8/8/8/K7")
	from, to := mustSquare(t, "a7"), mustSquare(t, "a8")
	if !b.NeedsPromotion(from, to) {
		t.Fatalf("a7a8 should need a promotion")
	}

	if _, err := b.Apply(from, to, NoPiece, CastleRelocateRook); !errors.Is(err, ErrPromotionRequired) {
		t.Fatalf("err = %v, want ErrPromotionRequired", err)
	}
	if b.At(from) == nil || b.At(to) != nil {
		t.Fatalf("board changed by rejected promotion")
	}
	if _, err := b.Apply(from, to, King, CastleRelocateRook); !errors.Is(err, ErrInvalidPromotion) {
		t.Fatalf("err = %v, want ErrInvalidPromotion", err)
	}

	mv, err := b.Apply(from, to, Queen, CastleRelocateRook)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	p := b.At(to)
	if p == nil || p.Type != Queen || p.Value != 9 || p.Color != White {
		t.Fatalf("a8 = %+v, want white queen worth 9", p)
	}
	if mv.Notation != "a7a8=Q" {
		t.Fatalf("notation = %q, want a7a8=Q", mv.Notation)
	}
	if mv.UCI() != "a7a8q" {
		t.Fatalf("uci = %q, want a7a8q", mv.UCI())
	}
}

func TestUnderpromotionNotation(t *testing.T) {
	b := mustBoard(t, "1r5k/P7/8/8/8/8/8/K7")
	mv, err := b.Apply(mustSquare(t, "a7"), mustSquare(t, "b8"), Knight, CastleRelocateRook)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if mv.Notation != "a7xb8=N" {
		t.Fatalf("notation = %q, want a7xb8=N", mv.Notation)
	}
	if got := b.At(mustSquare(t, "b8")).Value; got != 3 {
		t.Fatalf("knight value = %d, want 3", got)
	}
}

func TestCastlingRelocatesRook(t *testing.T) {
	b := mustBoard(t, "r3k2r/8/8/8/8/8/8/R3K2R")
	mv, err := b.Apply(mustSquare(t, "e1"), mustSquare(t, "g1"), NoPiece, CastleRelocateRook)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if mv.Castle != KingSide {
		t.Fatalf("castle = %v, want king side", mv.Castle)
	}
	if b.At(mustSquare(t, "h1")) != nil {
		t.Fatalf("h1 rook not moved")
	}
	if rook := b.At(mustSquare(t, "f1")); rook == nil || rook.Type != Rook || !rook.HasMoved {
		t.Fatalf("f1 = %v, want moved rook", rook)
	}

	mv, err = b.Apply(mustSquare(t, "e8"), mustSquare(t, "c8"), NoPiece, CastleRelocateRook)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if mv.Castle != QueenSide {
		t.Fatalf("castle = %v, want queen side", mv.Castle)
	}
	if rook := b.At(mustSquare(t, "d8")); rook == nil || rook.Type != Rook {
		t.Fatalf("d8 = %v, want rook", rook)
	}
	if b.At(mustSquare(t, "a8")) != nil {
		t.Fatalf("a8 rook not moved")
	}
}

// King-only castling leaves the rook in its corner. This departs from
// standard chess and is only used when a session opts into it.
func TestCastlingKingOnlyLeavesRook(t *testing.T) {
	b := mustBoard(t, "r3k2r/8/8/8/8/8/8/R3K2R")
	mv, err := b.Apply(mustSquare(t, "e1"), mustSquare(t, "g1"), NoPiece, CastleKingOnly)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if mv.Castle != KingSide || mv.Notation != "Ke1g1" {
		t.Fatalf("move = %+v", mv)
	}
	if rook := b.At(mustSquare(t, "h1")); rook == nil || rook.Type != Rook || rook.HasMoved {
		t.Fatalf("h1 = %v, want unmoved rook", rook)
	}
	if b.At(mustSquare(t, "f1")) != nil {
		t.Fatalf("f1 should stay empty in king-only mode")
	}
}

func TestParseCastlingMode(t *testing.T) {
	for in, want := range map[string]CastlingMode{"": CastleRelocateRook, "standard": CastleRelocateRook, "king-only": CastleKingOnly, "LEGACY": CastleKingOnly} {
		got, err := ParseCastlingMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseCastlingMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseCastlingMode("chess960"); !errors.Is(err, ErrUnknownCastling) {
		t.Fatalf("err = %v, want ErrUnknownCastling", err)
	}
}

func TestApplyRejectsKingCapture(t *testing.T) {
	b := mustBoard(t, "4k3/8/8/8/8/8/8/4K2R")
	b.Set(mustSquare(t, "e8"), nil)
	b.Set(mustSquare(t, "h8"), NewPiece(King, Black))
	defer func() {
		if _, ok := recover().(*InvariantError); !ok {
			t.Fatalf("expected *InvariantError panic")
		}
	}()
	b.Apply(mustSquare(t, "h1"), mustSquare(t, "h8"), NoPiece, CastleRelocateRook)
}

func TestApplyEmptySquare(t *testing.T) {
	b := NewBoard()
	if _, err := b.Apply(mustSquare(t, "e4"), mustSquare(t, "e5"), NoPiece, CastleRelocateRook); !errors.Is(err, ErrNoPiece) {
		t.Fatalf("err = %v, want ErrNoPiece", err)
	}
}
