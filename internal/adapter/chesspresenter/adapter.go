package chesspresenter

import (
	"errors"

	corechess "github.com/park285/void-chess/internal/chess"
	"github.com/park285/void-chess/internal/domain"
	"github.com/park285/void-chess/internal/game"
	svc "github.com/park285/void-chess/internal/service/voidchess"
	"github.com/park285/void-chess/pkg/chessdto"
)

func ToDTOState(view game.StatusView) *chessdto.SessionState {
	state := &chessdto.SessionState{
		SessionUUID:     view.ID,
		Placement:       view.Board.FEN(),
		Pieces:          toPlacedPieces(&view.Board),
		Status:          view.Status.String(),
		Turn:            view.CurrentPlayer.String(),
		CheckingSquares: squareList(view.CheckingSquares),
		Clocks: chessdto.Clocks{
			WhiteSeconds: int(view.Clocks.White.Seconds()),
			BlackSeconds: int(view.Clocks.Black.Seconds()),
			White:        game.FormatClock(view.Clocks.White),
			Black:        game.FormatClock(view.Clocks.Black),
		},
		Material: chessdto.MaterialScore{
			White: view.CaptureTotals[corechess.White],
			Black: view.CaptureTotals[corechess.Black],
		},
		Captured: chessdto.CapturedPieces{
			White: pieceTokens(view.Captured[corechess.White]),
			Black: pieceTokens(view.Captured[corechess.Black]),
		},
		Destinations:  squareList(view.Destinations),
		Hint:          ToDTOHint(view.Hint),
		LastMove:      ToDTOMove(view.LastMove),
		MoveCount:     view.MoveCount,
		MovesNotation: make([]string, 0, len(view.Moves)),
		MovesUCI:      make([]string, 0, len(view.Moves)),
		Evaluation:    view.Evaluation,
		Difficulty:    string(view.Difficulty),
		Castling:      view.Castling.String(),
	}
	for _, mv := range view.Moves {
		state.MovesNotation = append(state.MovesNotation, mv.Notation)
		state.MovesUCI = append(state.MovesUCI, mv.UCI())
	}
	if view.Selected != nil {
		state.Selected = view.Selected.String()
	}
	if view.PendingPromotion != nil {
		state.PendingPromotion = &chessdto.SquarePair{
			From: view.PendingPromotion.From.String(),
			To:   view.PendingPromotion.To.String(),
		}
	}
	if view.Result != nil {
		rec := ToDTORecord(*view.Result)
		state.Result = &rec
	}
	return state
}

func ToDTOMove(m *corechess.Move) *chessdto.Move {
	if m == nil {
		return nil
	}
	out := &chessdto.Move{
		From:      m.From.String(),
		To:        m.To.String(),
		UCI:       m.UCI(),
		Notation:  m.Notation,
		Piece:     m.Piece.Type.String(),
		EnPassant: m.EnPassant,
		Timestamp: m.Timestamp,
	}
	if m.Captured != nil {
		out.Captured = m.Captured.Type.String()
	}
	if m.Promotion != corechess.NoPiece {
		out.Promotion = m.Promotion.String()
	}
	switch m.Castle {
	case corechess.KingSide:
		out.Castle = "king-side"
	case corechess.QueenSide:
		out.Castle = "queen-side"
	}
	return out
}

func ToDTOSelection(sel game.Selection) chessdto.Selection {
	out := chessdto.Selection{Destinations: squareList(sel.Destinations)}
	if sel.Selected != nil {
		out.Selected = sel.Selected.String()
	}
	return out
}

func ToDTOHint(h *game.Hint) *chessdto.Hint {
	if h == nil {
		return nil
	}
	return &chessdto.Hint{
		From:      h.From.String(),
		To:        h.To.String(),
		Score:     h.Score,
		Rank:      h.Rank,
		ExpiresAt: h.ExpiresAt,
	}
}

func ToDTORecord(rec game.GameRecord) chessdto.GameRecord {
	out := chessdto.GameRecord{
		ID:                 rec.ID,
		SessionID:          rec.SessionID,
		Result:             rec.Result,
		Method:             rec.Method.String(),
		Description:        rec.Description(),
		Date:               rec.Date,
		WhiteTimeRemaining: int(rec.WhiteTimeRemaining.Seconds()),
		BlackTimeRemaining: int(rec.BlackTimeRemaining.Seconds()),
		Moves:              make([]string, 0, len(rec.Moves)),
		Difficulty:         string(rec.Difficulty),
		Castling:           rec.Castling.String(),
	}
	if rec.Winner != nil {
		out.Winner = rec.Winner.String()
	}
	for _, mv := range rec.Moves {
		out.Moves = append(out.Moves, mv.Notation)
	}
	return out
}

func ToDTORecords(recs []game.GameRecord) []chessdto.GameRecord {
	out := make([]chessdto.GameRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, ToDTORecord(rec))
	}
	return out
}

func ToDTOGame(g *domain.ChessGame) *chessdto.ChessGame {
	if g == nil {
		return nil
	}
	return &chessdto.ChessGame{
		ID:                 g.ID,
		GameUUID:           g.GameUUID,
		SessionUUID:        g.SessionUUID,
		Result:             g.Result,
		ResultMethod:       g.ResultMethod,
		Winner:             g.Winner,
		Difficulty:         g.Difficulty,
		CastlingMode:       g.CastlingMode,
		MovesUCI:           append([]string(nil), g.MovesUCI...),
		MovesNotation:      append([]string(nil), g.MovesNotation...),
		MovesSAN:           append([]string(nil), g.MovesSAN...),
		PGN:                g.PGN,
		StartedAt:          g.StartedAt,
		EndedAt:            g.EndedAt,
		DurationSeconds:    int(g.Duration.Seconds()),
		WhiteTimeRemaining: int(g.WhiteTimeRemaining.Seconds()),
		BlackTimeRemaining: int(g.BlackTimeRemaining.Seconds()),
		WhiteCaptured:      g.WhiteCaptured,
		BlackCaptured:      g.BlackCaptured,
	}
}

func ToDTOGames(games []*domain.ChessGame) []*chessdto.ChessGame {
	out := make([]*chessdto.ChessGame, 0, len(games))
	for _, g := range games {
		out = append(out, ToDTOGame(g))
	}
	return out
}

// ToDomainError classifies service and rules errors into wire codes.
func ToDomainError(err error) chessdto.DomainError {
	switch {
	case err == nil:
		return chessdto.DomainError{}
	case errors.Is(err, svc.ErrSessionNotFound):
		return chessdto.DomainError{Code: chessdto.CodeSessionNotFound, Message: err.Error()}
	case errors.Is(err, svc.ErrGameNotFound):
		return chessdto.DomainError{Code: chessdto.CodeGameNotFound, Message: err.Error()}
	case errors.Is(err, corechess.ErrInvalidSquare):
		return chessdto.DomainError{Code: chessdto.CodeInvalidSquare, Message: err.Error()}
	case errors.Is(err, corechess.ErrUnknownPiece), errors.Is(err, corechess.ErrInvalidPromotion):
		return chessdto.DomainError{Code: chessdto.CodeInvalidPiece, Message: err.Error()}
	case errors.Is(err, corechess.ErrUnknownDifficulty):
		return chessdto.DomainError{Code: chessdto.CodeUnknownDifficulty, Message: err.Error()}
	case errors.Is(err, corechess.ErrUnknownCastling):
		return chessdto.DomainError{Code: chessdto.CodeUnknownCastling, Message: err.Error()}
	case errors.Is(err, svc.ErrUnknownTheme):
		return chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: err.Error()}
	case errors.Is(err, svc.ErrServiceClosed), errors.Is(err, game.ErrSessionClosed):
		return chessdto.DomainError{Code: chessdto.CodeUnavailable, Message: err.Error(), Retryable: true}
	default:
		return chessdto.DomainError{Code: chessdto.CodeInternal, Message: "internal error"}
	}
}

func toPlacedPieces(b *corechess.Board) []chessdto.PlacedPiece {
	out := make([]chessdto.PlacedPiece, 0, 32)
	for _, c := range []corechess.Color{corechess.White, corechess.Black} {
		for _, sq := range b.Squares(c) {
			p := b.At(sq)
			out = append(out, chessdto.PlacedPiece{
				Square:   sq.String(),
				Color:    p.Color.String(),
				Type:     p.Type.String(),
				HasMoved: p.HasMoved,
			})
		}
	}
	return out
}

func squareList(list []corechess.Position) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.String())
	}
	return out
}

func pieceTokens(list []corechess.Piece) []string {
	tokens := make([]string, 0, len(list))
	for _, p := range list {
		tokens = append(tokens, p.Type.String())
	}
	return tokens
}
