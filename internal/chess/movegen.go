package chess

// PseudoLegalMoves lists destinations for the piece on from by movement rules
// alone. King steps and castling are already screened for self-check; other
// pieces are not. last is the previous move, used for en passant.
func (b *Board) PseudoLegalMoves(from Position, last *Move) []Position {
	p := b.At(from)
	if p == nil {
		return nil
	}
	switch p.Type {
	case Pawn:
		return b.pawnMoves(from, p, last)
	case Knight:
		return b.stepMoves(from, p, knightOffsets[:])
	case Bishop:
		return b.slideMoves(from, p, diagonalDirs[:])
	case Rook:
		return b.slideMoves(from, p, straightDirs[:])
	case Queen:
		moves := b.slideMoves(from, p, straightDirs[:])
		return append(moves, b.slideMoves(from, p, diagonalDirs[:])...)
	case King:
		return b.kingMoves(from, p)
	}
	return nil
}

// LegalMoves filters PseudoLegalMoves to those that leave the mover's king
// out of check.
func (b *Board) LegalMoves(from Position, last *Move) []Position {
	p := b.At(from)
	if p == nil {
		return nil
	}
	candidates := b.PseudoLegalMoves(from, last)
	legal := candidates[:0]
	for _, to := range candidates {
		if !b.simulate(from, to).IsKingInCheck(p.Color).InCheck {
			legal = append(legal, to)
		}
	}
	return legal
}

// MoveCandidate is a from/to pair produced by AllLegalMoves.
type MoveCandidate struct {
	From Position
	To   Position
}

// AllLegalMoves enumerates every legal move of c in row-major source order.
func (b *Board) AllLegalMoves(c Color, last *Move) []MoveCandidate {
	var out []MoveCandidate
	for _, from := range b.Squares(c) {
		for _, to := range b.LegalMoves(from, last) {
			out = append(out, MoveCandidate{From: from, To: to})
		}
	}
	return out
}

// IsLegal reports whether to is among the legal destinations of from.
func (b *Board) IsLegal(from, to Position, last *Move) bool {
	for _, dst := range b.LegalMoves(from, last) {
		if dst == to {
			return true
		}
	}
	return false
}

func (b *Board) pawnMoves(from Position, p *Piece, last *Move) []Position {
	var moves []Position
	dir := p.Color.forward()

	one := Sq(from.Row+dir, from.Col)
	if one.Valid() && b.At(one) == nil {
		moves = append(moves, one)
		two := Sq(from.Row+2*dir, from.Col)
		if from.Row == p.Color.pawnRow() && b.At(two) == nil {
			moves = append(moves, two)
		}
	}

	for _, dc := range [2]int{-1, 1} {
		diag := Sq(from.Row+dir, from.Col+dc)
		if !diag.Valid() {
			continue
		}
		if target := b.At(diag); target != nil && target.Color != p.Color {
			moves = append(moves, diag)
		}
	}

	if ep, ok := enPassantTarget(from, p, last); ok && b.At(ep) == nil {
		moves = append(moves, ep)
	}
	return moves
}

// enPassantTarget applies when the previous move was a two-square pawn
// advance that landed beside from.
func enPassantTarget(from Position, p *Piece, last *Move) (Position, bool) {
	if last == nil || last.Piece.Type != Pawn || last.Piece.Color == p.Color {
		return Position{}, false
	}
	if abs(last.To.Row-last.From.Row) != 2 {
		return Position{}, false
	}
	if last.To.Row != from.Row || abs(last.To.Col-from.Col) != 1 {
		return Position{}, false
	}
	return Sq(from.Row+p.Color.forward(), last.To.Col), true
}

func (b *Board) stepMoves(from Position, p *Piece, offsets [][2]int) []Position {
	var moves []Position
	for _, off := range offsets {
		to := Sq(from.Row+off[0], from.Col+off[1])
		if !to.Valid() {
			continue
		}
		if target := b.At(to); target == nil || target.Color != p.Color {
			moves = append(moves, to)
		}
	}
	return moves
}

func (b *Board) slideMoves(from Position, p *Piece, dirs [][2]int) []Position {
	var moves []Position
	for _, d := range dirs {
		to := Sq(from.Row+d[0], from.Col+d[1])
		for to.Valid() {
			target := b.At(to)
			if target == nil {
				moves = append(moves, to)
			} else {
				if target.Color != p.Color {
					moves = append(moves, to)
				}
				break
			}
			to = Sq(to.Row+d[0], to.Col+d[1])
		}
	}
	return moves
}

func (b *Board) kingMoves(from Position, p *Piece) []Position {
	var moves []Position
	for _, to := range b.stepMoves(from, p, kingOffsets[:]) {
		if !b.simulate(from, to).IsKingInCheck(p.Color).InCheck {
			moves = append(moves, to)
		}
	}
	if p.HasMoved || from != Sq(p.Color.homeRow(), 4) {
		return moves
	}
	if b.canCastle(from, p.Color, KingSide) {
		moves = append(moves, Sq(from.Row, 6))
	}
	if b.canCastle(from, p.Color, QueenSide) {
		moves = append(moves, Sq(from.Row, 2))
	}
	return moves
}

// castleLayout gives the rook column, the squares that must be empty and the
// squares the king stands on or crosses for a side.
func castleLayout(side CastleSide) (rookCol int, empty, path []int) {
	if side == KingSide {
		return 7, []int{5, 6}, []int{4, 5, 6}
	}
	return 0, []int{1, 2, 3}, []int{4, 3, 2}
}

func (b *Board) canCastle(king Position, c Color, side CastleSide) bool {
	rookCol, empty, path := castleLayout(side)
	rook := b.At(Sq(king.Row, rookCol))
	if rook == nil || rook.Type != Rook || rook.Color != c || rook.HasMoved {
		return false
	}
	for _, col := range empty {
		if b[king.Row][col] != nil {
			return false
		}
	}
	for _, col := range path {
		if b.IsSquareAttacked(Sq(king.Row, col), c.Opposite()) {
			return false
		}
	}
	return true
}

// simulate plays from->to on a scratch copy. En passant victims are removed
// so discovered attacks along the rank are seen.
func (b *Board) simulate(from, to Position) *Board {
	next := b.Clone()
	p := next.At(from)
	if p.Type == Pawn && from.Col != to.Col && next.At(to) == nil {
		next[from.Row][to.Col] = nil
	}
	next.Set(to, p)
	next.Set(from, nil)
	return next
}
