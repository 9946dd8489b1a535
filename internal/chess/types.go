package chess

import (
	"fmt"
	"strings"
	"time"
)

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Title is the capitalised name used in result strings.
func (c Color) Title() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// forward is the row delta of a pawn advance.
func (c Color) forward() int {
	if c == White {
		return -1
	}
	return 1
}

func (c Color) homeRow() int {
	if c == White {
		return 7
	}
	return 0
}

func (c Color) pawnRow() int {
	if c == White {
		return 6
	}
	return 1
}

func (c Color) promotionRow() int {
	if c == White {
		return 0
	}
	return 7
}

type PieceType uint8

const (
	NoPiece PieceType = iota
	Pawn
	Rook
	Knight
	Bishop
	Queen
	King
)

var pieceNames = [...]string{"", "pawn", "rook", "knight", "bishop", "queen", "king"}

func (t PieceType) String() string {
	if int(t) < len(pieceNames) {
		return pieceNames[t]
	}
	return fmt.Sprintf("PieceType(%d)", uint8(t))
}

// Letter returns the notation letter; pawns have none.
func (t PieceType) Letter() string {
	switch t {
	case Pawn, NoPiece:
		return ""
	case Knight:
		return "N"
	default:
		return strings.ToUpper(t.String()[:1])
	}
}

func (t PieceType) Value() int {
	switch t {
	case Pawn:
		return 1
	case Knight, Bishop:
		return 3
	case Rook:
		return 5
	case Queen:
		return 9
	}
	return 0
}

// Promotable reports whether a pawn may become t.
func (t PieceType) Promotable() bool {
	switch t {
	case Queen, Rook, Bishop, Knight:
		return true
	}
	return false
}

func ParsePieceType(s string) (PieceType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for i, name := range pieceNames {
		if i == 0 {
			continue
		}
		if v == name {
			return PieceType(i), nil
		}
	}
	switch v {
	case "p":
		return Pawn, nil
	case "r":
		return Rook, nil
	case "n":
		return Knight, nil
	case "b":
		return Bishop, nil
	case "q":
		return Queen, nil
	case "k":
		return King, nil
	}
	return NoPiece, fmt.Errorf("%w: %q", ErrUnknownPiece, s)
}

// Piece is a value record. Pieces placed on a Board are never mutated in
// place; moving one writes a fresh copy.
type Piece struct {
	Type     PieceType
	Color    Color
	HasMoved bool
	Value    int
}

func NewPiece(t PieceType, c Color) *Piece {
	return &Piece{Type: t, Color: c, Value: t.Value()}
}

// FENRune is the FEN placement character for the piece.
func (p Piece) FENRune() rune {
	var r rune
	switch p.Type {
	case Pawn:
		r = 'p'
	case Rook:
		r = 'r'
	case Knight:
		r = 'n'
	case Bishop:
		r = 'b'
	case Queen:
		r = 'q'
	case King:
		r = 'k'
	default:
		return '?'
	}
	if p.Color == White {
		r -= 'a' - 'A'
	}
	return r
}

func (p Piece) String() string {
	return p.Color.String() + " " + p.Type.String()
}

// Position addresses a square. Row 0 is rank 8, column 0 is file a.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func Sq(row, col int) Position { return Position{Row: row, Col: col} }

func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < 8 && p.Col >= 0 && p.Col < 8
}

func (p Position) File() byte { return "abcdefgh"[p.Col] }

func (p Position) Rank() int { return 8 - p.Row }

func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return fmt.Sprintf("%c%d", p.File(), p.Rank())
}

// ParsePosition reads an algebraic square such as "e4".
func ParsePosition(s string) (Position, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) != 2 || v[0] < 'a' || v[0] > 'h' || v[1] < '1' || v[1] > '8' {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return Position{Row: 8 - int(v[1]-'0'), Col: int(v[0] - 'a')}, nil
}

type CastleSide uint8

const (
	NoCastle CastleSide = iota
	KingSide
	QueenSide
)

// Move is an immutable record of a committed move. Piece is the mover as it
// stood before the move.
type Move struct {
	From      Position   `json:"from"`
	To        Position   `json:"to"`
	Piece     Piece      `json:"piece"`
	Captured  *Piece     `json:"captured,omitempty"`
	Promotion PieceType  `json:"promotion,omitempty"`
	EnPassant bool       `json:"enPassant,omitempty"`
	Castle    CastleSide `json:"castle,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Notation  string     `json:"notation"`
}

// UCI renders the move in long algebraic form ("e7e8q").
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPiece {
		s += strings.ToLower(m.Promotion.Letter())
	}
	return s
}

type Status uint8

const (
	Playing Status = iota
	Check
	Checkmate
	Stalemate
)

func (s Status) String() string {
	switch s {
	case Check:
		return "check"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	}
	return "playing"
}

func (s Status) Terminal() bool {
	return s == Checkmate || s == Stalemate
}
