package chess

import (
	"fmt"
	"strings"
	"time"
)

// CastlingMode selects what happens to the rook when the king castles.
type CastlingMode uint8

const (
	// CastleRelocateRook moves the rook to the square the king crossed.
	CastleRelocateRook CastlingMode = iota
	// CastleKingOnly moves only the king and leaves the rook in its corner.
	// Kept for parity with early builds of the app.
	CastleKingOnly
)

func (m CastlingMode) String() string {
	if m == CastleKingOnly {
		return "king-only"
	}
	return "standard"
}

func ParseCastlingMode(s string) (CastlingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "relocate", "relocate-rook":
		return CastleRelocateRook, nil
	case "king-only", "kingonly", "legacy":
		return CastleKingOnly, nil
	}
	return CastleRelocateRook, fmt.Errorf("%w: %q", ErrUnknownCastling, s)
}

// NeedsPromotion reports whether moving from->to is a pawn reaching the last
// rank.
func (b *Board) NeedsPromotion(from, to Position) bool {
	p := b.At(from)
	return p != nil && p.Type == Pawn && to.Row == p.Color.promotionRow()
}

// Apply commits from->to and returns the move record. The caller is
// responsible for having checked legality. promotion is required exactly when
// a pawn reaches the last rank and ignored otherwise.
func (b *Board) Apply(from, to Position, promotion PieceType, mode CastlingMode) (Move, error) {
	if !from.Valid() || !to.Valid() {
		return Move{}, ErrInvalidSquare
	}
	mover := b.At(from)
	if mover == nil {
		return Move{}, fmt.Errorf("%w: %s", ErrNoPiece, from)
	}

	mv := Move{
		From:      from,
		To:        to,
		Piece:     *mover,
		Timestamp: time.Now(),
	}

	if b.NeedsPromotion(from, to) {
		if promotion == NoPiece {
			return Move{}, ErrPromotionRequired
		}
		if !promotion.Promotable() {
			return Move{}, fmt.Errorf("%w: %s", ErrInvalidPromotion, promotion)
		}
		mv.Promotion = promotion
	}

	if target := b.At(to); target != nil {
		if target.Type == King {
			invariant("move %s%s captures the %s king", from, to, target.Color)
		}
		captured := *target
		mv.Captured = &captured
	} else if mover.Type == Pawn && from.Col != to.Col {
		victimSq := Sq(from.Row, to.Col)
		if victim := b.At(victimSq); victim != nil && victim.Type == Pawn && victim.Color != mover.Color {
			captured := *victim
			mv.Captured = &captured
			mv.EnPassant = true
			b.Set(victimSq, nil)
		}
	}

	if mover.Type == King && abs(to.Col-from.Col) == 2 {
		mv.Castle = KingSide
		if to.Col < from.Col {
			mv.Castle = QueenSide
		}
		if mode == CastleRelocateRook {
			b.relocateRook(from.Row, mv.Castle)
		}
	}

	placed := *mover
	placed.HasMoved = true
	if mv.Promotion != NoPiece {
		placed.Type = mv.Promotion
		placed.Value = mv.Promotion.Value()
	}
	b.Set(to, &placed)
	b.Set(from, nil)

	mv.Notation = Notation(mv)
	return mv, nil
}

func (b *Board) relocateRook(row int, side CastleSide) {
	rookFrom, rookTo := Sq(row, 7), Sq(row, 5)
	if side == QueenSide {
		rookFrom, rookTo = Sq(row, 0), Sq(row, 3)
	}
	rook := b.At(rookFrom)
	if rook == nil {
		return
	}
	moved := *rook
	moved.HasMoved = true
	b.Set(rookTo, &moved)
	b.Set(rookFrom, nil)
}

// Notation renders the app's long-form notation: piece letter, origin, an
// "x" on captures, destination and "=<letter>" on promotion ("Ng1f3",
// "e5xd6", "e7e8=Q").
func Notation(m Move) string {
	var sb strings.Builder
	sb.WriteString(m.Piece.Type.Letter())
	sb.WriteString(m.From.String())
	if m.Captured != nil {
		sb.WriteByte('x')
	}
	sb.WriteString(m.To.String())
	if m.Promotion != NoPiece {
		sb.WriteByte('=')
		sb.WriteString(m.Promotion.Letter())
	}
	return sb.String()
}
