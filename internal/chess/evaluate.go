package chess

// Evaluate scores the position from white's point of view: material plus a
// tenth of the centre bonus for every piece.
func Evaluate(b *Board) float64 {
	var white, black float64
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			p := b[row][col]
			if p == nil {
				continue
			}
			score := float64(p.Value) + CenterBonus(Sq(row, col))*0.1
			if p.Color == White {
				white += score
			} else {
				black += score
			}
		}
	}
	return white - black
}
