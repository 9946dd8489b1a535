package chess

import (
	"fmt"
	"strconv"
	"strings"
)

// Board is the 8x8 grid. A nil entry is an empty square. Copying a Board by
// value yields an independent grid since pieces are treated as immutable.
type Board [8][8]*Piece

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns the standard starting position.
func NewBoard() *Board {
	b := &Board{}
	b.Initialize()
	return b
}

func (b *Board) Initialize() {
	*b = Board{}
	for col := 0; col < 8; col++ {
		b[Black.pawnRow()][col] = NewPiece(Pawn, Black)
		b[White.pawnRow()][col] = NewPiece(Pawn, White)
		b[Black.homeRow()][col] = NewPiece(backRank[col], Black)
		b[White.homeRow()][col] = NewPiece(backRank[col], White)
	}
}

func (b *Board) At(p Position) *Piece {
	if !p.Valid() {
		return nil
	}
	return b[p.Row][p.Col]
}

func (b *Board) Set(p Position, piece *Piece) {
	b[p.Row][p.Col] = piece
}

func (b *Board) Clone() *Board {
	dup := *b
	return &dup
}

// FindKing returns the king square for c. ok is false when the king is gone.
func (b *Board) FindKing(c Color) (Position, bool) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p != nil && p.Type == King && p.Color == c {
				return Sq(row, col), true
			}
		}
	}
	return Position{}, false
}

func (b *Board) mustFindKing(c Color) Position {
	pos, ok := b.FindKing(c)
	if !ok {
		invariant("%s king missing from board", c)
	}
	return pos
}

// Squares lists occupied squares of c in row-major order.
func (b *Board) Squares(c Color) []Position {
	out := make([]Position, 0, 16)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := b[row][col]; p != nil && p.Color == c {
				out = append(out, Sq(row, col))
			}
		}
	}
	return out
}

func (b *Board) Count(c Color) int {
	return len(b.Squares(c))
}

// FEN returns the piece placement field of a FEN record.
func (b *Board) FEN() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		empty := 0
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p == nil {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteRune(p.FENRune())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if row < 7 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// ParsePlacement builds a board from a FEN placement field. Pieces off their
// starting squares are marked as moved.
func ParsePlacement(placement string) (*Board, error) {
	field := strings.Fields(placement)
	if len(field) == 0 {
		return nil, ErrInvalidSquare
	}
	rows := strings.Split(field[0], "/")
	if len(rows) != 8 {
		return nil, ErrInvalidSquare
	}
	b := &Board{}
	for row, spec := range rows {
		col := 0
		for _, r := range spec {
			if r >= '1' && r <= '8' {
				col += int(r - '0')
				continue
			}
			if col > 7 {
				return nil, ErrInvalidSquare
			}
			c := Black
			if r >= 'A' && r <= 'Z' {
				c = White
				r += 'a' - 'A'
			}
			t, err := ParsePieceType(string(r))
			if err != nil {
				return nil, err
			}
			p := NewPiece(t, c)
			p.HasMoved = !onStartSquare(t, c, Sq(row, col))
			b[row][col] = p
			col++
		}
		if col != 8 {
			return nil, ErrInvalidSquare
		}
	}
	for _, c := range []Color{White, Black} {
		if n := b.Count(c); n > 16 {
			return nil, fmt.Errorf("%w: %s has %d pieces", ErrInvalidPlacement, c, n)
		}
	}
	return b, nil
}

func onStartSquare(t PieceType, c Color, p Position) bool {
	if t == Pawn {
		return p.Row == c.pawnRow()
	}
	return p.Row == c.homeRow() && backRank[p.Col] == t
}

// String draws the board with white at the bottom.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		sb.WriteString(strconv.Itoa(8 - row))
		sb.WriteByte(' ')
		for col := 0; col < 8; col++ {
			if p := b[row][col]; p != nil {
				sb.WriteRune(p.FENRune())
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  abcdefgh\n")
	return sb.String()
}
