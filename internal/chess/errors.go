package chess

import (
	"errors"
	"fmt"
)

var (
	ErrNoPiece           = errors.New("no piece on source square")
	ErrInvalidSquare     = errors.New("invalid square")
	ErrUnknownPiece      = errors.New("unknown piece type")
	ErrPromotionRequired = errors.New("promotion piece required")
	ErrInvalidPromotion  = errors.New("invalid promotion piece")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrUnknownCastling   = errors.New("unknown castling mode")
	ErrInvalidPlacement  = errors.New("invalid piece placement")
)

// InvariantError is the panic value raised when a board breaks a rule the
// engine relies on, e.g. a side without a king.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "chess invariant violated: " + e.Msg }

func invariant(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}
