package chess

var (
	knightOffsets = [8][2]int{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	straightDirs  = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diagonalDirs  = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

type CheckInfo struct {
	InCheck   bool
	Attackers []Position
}

// IsKingInCheck reports whether c's king is attacked and by which pieces.
// Panics with *InvariantError when the king is missing.
func (b *Board) IsKingInCheck(c Color) CheckInfo {
	king := b.mustFindKing(c)
	var info CheckInfo
	for _, sq := range b.Squares(c.Opposite()) {
		if b.canAttack(sq, king) {
			info.Attackers = append(info.Attackers, sq)
		}
	}
	info.InCheck = len(info.Attackers) > 0
	return info
}

// IsSquareAttacked reports whether any piece of by attacks target.
func (b *Board) IsSquareAttacked(target Position, by Color) bool {
	for _, sq := range b.Squares(by) {
		if b.canAttack(sq, target) {
			return true
		}
	}
	return false
}

// canAttack uses attack geometry only. Pawns attack diagonally regardless of
// what stands on the target square.
func (b *Board) canAttack(from, to Position) bool {
	p := b.At(from)
	if p == nil || from == to {
		return false
	}
	dr := to.Row - from.Row
	dc := to.Col - from.Col
	switch p.Type {
	case Pawn:
		return dr == p.Color.forward() && abs(dc) == 1
	case Knight:
		ar, ac := abs(dr), abs(dc)
		return (ar == 2 && ac == 1) || (ar == 1 && ac == 2)
	case King:
		return abs(dr) <= 1 && abs(dc) <= 1
	case Rook:
		return (dr == 0 || dc == 0) && b.pathClear(from, to)
	case Bishop:
		return abs(dr) == abs(dc) && b.pathClear(from, to)
	case Queen:
		return (dr == 0 || dc == 0 || abs(dr) == abs(dc)) && b.pathClear(from, to)
	}
	return false
}

// pathClear checks the squares strictly between from and to along a line.
func (b *Board) pathClear(from, to Position) bool {
	sr, sc := sign(to.Row-from.Row), sign(to.Col-from.Col)
	r, c := from.Row+sr, from.Col+sc
	for r != to.Row || c != to.Col {
		if b[r][c] != nil {
			return false
		}
		r += sr
		c += sc
	}
	return true
}

// HasAnyLegalMove stops at the first legal move found for c.
func (b *Board) HasAnyLegalMove(c Color, last *Move) bool {
	for _, sq := range b.Squares(c) {
		if len(b.LegalMoves(sq, last)) > 0 {
			return true
		}
	}
	return false
}

// Classify derives the status of the side to move.
func (b *Board) Classify(toMove Color, last *Move) Status {
	inCheck := b.IsKingInCheck(toMove).InCheck
	hasMove := b.HasAnyLegalMove(toMove, last)
	switch {
	case inCheck && !hasMove:
		return Checkmate
	case inCheck:
		return Check
	case !hasMove:
		return Stalemate
	}
	return Playing
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
