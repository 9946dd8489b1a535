package chess

import (
	"sort"
	"testing"
)

func mustBoard(t *testing.T, placement string) *Board {
	t.Helper()
	b, err := ParsePlacement(placement)
	if err != nil {
		t.Fatalf("parse placement %q: %v", placement, err)
	}
	return b
}

func mustSquare(t *testing.T, s string) Position {
	t.Helper()
	p, err := ParsePosition(s)
	if err != nil {
		t.Fatalf("parse square %q: %v", s, err)
	}
	return p
}

// playUCI applies legal moves in long algebraic form and returns the last one.
func playUCI(t *testing.T, b *Board, mode CastlingMode, last *Move, moves ...string) *Move {
	t.Helper()
	for _, uci := range moves {
		from := mustSquare(t, uci[0:2])
		to := mustSquare(t, uci[2:4])
		promo := NoPiece
		if len(uci) == 5 {
			pt, err := ParsePieceType(uci[4:])
			if err != nil {
				t.Fatalf("promotion in %s: %v", uci, err)
			}
			promo = pt
		}
		if !b.IsLegal(from, to, last) {
			t.Fatalf("move %s is not legal on\n%s", uci, b)
		}
		mv, err := b.Apply(from, to, promo, mode)
		if err != nil {
			t.Fatalf("apply %s: %v", uci, err)
		}
		last = &mv
	}
	return last
}

func squareNames(ps []Position) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.String())
	}
	sort.Strings(out)
	return out
}

func containsSquare(ps []Position, want Position) bool {
	for _, p := range ps {
		if p == want {
			return true
		}
	}
	return false
}
