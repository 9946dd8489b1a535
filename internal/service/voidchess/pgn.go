package voidchess

import (
	"errors"
	"fmt"

	nchess "github.com/corentings/chess/v2"

	corechess "github.com/park285/void-chess/internal/chess"
)

var errNoStandardExport = errors.New("king-only castling has no standard notation")

// exportPGN replays moves through the reference rules library and returns
// the SAN list and PGN text. Games played with king-only castling cannot be
// expressed there.
func exportPGN(moves []corechess.Move, mode corechess.CastlingMode) ([]string, string, error) {
	if mode != corechess.CastleRelocateRook {
		return nil, "", errNoStandardExport
	}

	game := nchess.NewGame()
	notation := nchess.UCINotation{}
	for i, mv := range moves {
		uci := mv.UCI()
		move, err := notation.Decode(game.Position(), uci)
		if err != nil {
			return nil, "", fmt.Errorf("decode move #%d %s: %w", i+1, uci, err)
		}
		if err := game.Move(move, nil); err != nil {
			return nil, "", fmt.Errorf("apply move #%d %s: %w", i+1, uci, err)
		}
	}

	positions := game.Positions()
	played := game.Moves()
	san := make([]string, len(played))
	algebraic := nchess.AlgebraicNotation{}
	for i, mv := range played {
		if i < len(positions) {
			san[i] = algebraic.Encode(positions[i], mv)
		}
	}
	return san, game.String(), nil
}

func movesUCI(moves []corechess.Move) []string {
	out := make([]string, len(moves))
	for i, mv := range moves {
		out[i] = mv.UCI()
	}
	return out
}

func movesNotation(moves []corechess.Move) []string {
	out := make([]string, len(moves))
	for i, mv := range moves {
		out[i] = mv.Notation
	}
	return out
}
