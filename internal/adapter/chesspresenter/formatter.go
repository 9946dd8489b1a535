package chesspresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/void-chess/internal/msgcat"
	"github.com/park285/void-chess/pkg/chessdto"
)

const (
	capturedRecentLimit = 5
	recentMovesLimit    = 4
	historyDateLayout   = "2006-01-02 15:04"
)

// Formatter renders DTOs into short text blocks for the CLI and the live
// feed.
type Formatter struct {
	catalog *msgcat.Catalog
}

func NewFormatter(catalog *msgcat.Catalog) *Formatter {
	if catalog == nil {
		catalog = msgcat.Must()
	}
	return &Formatter{catalog: catalog}
}

// StatusLine is the one-line headline of a position.
func (f *Formatter) StatusLine(state *chessdto.SessionState) string {
	if state == nil {
		return ""
	}
	if state.Result != nil {
		return f.Banner(state.Result)
	}
	turn := titleCase(state.Turn)
	switch state.Status {
	case "check":
		return f.catalog.RenderOr("chess.status.check", map[string]any{"Turn": turn}, turn+" to move - check!")
	case "stalemate":
		return f.catalog.RenderOr("chess.status.stalemate", nil, "Stalemate")
	default:
		return f.catalog.RenderOr("chess.status.playing", map[string]any{"Turn": turn}, turn+" to move")
	}
}

// Banner is the game-over line, e.g. "White wins by Checkmate".
func (f *Formatter) Banner(rec *chessdto.GameRecord) string {
	if rec == nil {
		return ""
	}
	if rec.Method == "stalemate" {
		return f.catalog.RenderOr("chess.banner.stalemate", nil, rec.Description)
	}
	return f.catalog.RenderOr("chess.banner.checkmate", map[string]any{"Result": rec.Result}, rec.Description)
}

// Status renders the full multi-line summary of a session.
func (f *Formatter) Status(state *chessdto.SessionState) string {
	if state == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(f.StatusLine(state))
	sb.WriteByte('\n')

	last := ""
	if state.LastMove != nil {
		last = state.LastMove.Notation
	}
	sb.WriteString(f.catalog.RenderOr("chess.moves", map[string]any{"Count": state.MoveCount, "Last": last},
		fmt.Sprintf("Move %d", state.MoveCount)))
	sb.WriteByte('\n')
	sb.WriteString(f.Clock(state))
	sb.WriteByte('\n')
	sb.WriteString(f.catalog.RenderOr("chess.material", map[string]any{"White": state.Material.White, "Black": state.Material.Black},
		fmt.Sprintf("Captured: White +%d | Black +%d", state.Material.White, state.Material.Black)))
	if captured := formatCaptured(state.Captured); captured != "" {
		sb.WriteString(" (")
		sb.WriteString(captured)
		sb.WriteString(")")
	}
	sb.WriteByte('\n')
	sb.WriteString(f.catalog.RenderOr("chess.evaluation", map[string]any{"Score": state.Evaluation},
		fmt.Sprintf("Evaluation %+.1f", state.Evaluation)))
	sb.WriteByte('\n')
	sb.WriteString(f.Difficulty(state.Difficulty))
	if state.PendingPromotion != nil {
		sb.WriteByte('\n')
		sb.WriteString(f.Promotion(state))
	}
	if len(state.MovesNotation) > 0 {
		sb.WriteByte('\n')
		sb.WriteString(formatRecentMoves(state.MovesNotation))
	}
	return sb.String()
}

func (f *Formatter) Clock(state *chessdto.SessionState) string {
	if state == nil {
		return ""
	}
	return f.catalog.RenderOr("chess.clock", map[string]any{"White": state.Clocks.White, "Black": state.Clocks.Black},
		"White "+state.Clocks.White+" | Black "+state.Clocks.Black)
}

func (f *Formatter) Promotion(state *chessdto.SessionState) string {
	if state == nil || state.PendingPromotion == nil {
		return ""
	}
	return f.catalog.RenderOr("chess.promotion", map[string]any{"Square": state.PendingPromotion.To},
		"Promote on "+state.PendingPromotion.To)
}

func (f *Formatter) Difficulty(name string) string {
	label := titleCase(name)
	return f.catalog.RenderOr("chess.difficulty", map[string]any{"Label": label}, "Difficulty: "+label)
}

func (f *Formatter) Theme(name string) string {
	return f.catalog.RenderOr("chess.theme", map[string]any{"Theme": name}, "Board theme: "+name)
}

func (f *Formatter) Hint(hint *chessdto.Hint, difficulty string) string {
	if hint == nil {
		return f.catalog.RenderOr("chess.hint.none", nil, "No hint available.")
	}
	return f.catalog.RenderOr("chess.hint.found",
		map[string]any{"Difficulty": titleCase(difficulty), "From": hint.From, "To": hint.To},
		"Hint: "+hint.From+" -> "+hint.To)
}

// History lists finished games newest first.
func (f *Formatter) History(games []chessdto.GameRecord) string {
	if len(games) == 0 {
		return f.catalog.RenderOr("chess.history.empty", nil, "No finished games yet.")
	}
	var sb strings.Builder
	sb.WriteString(f.catalog.RenderOr("chess.history.header", nil, "Recent games"))
	for i, g := range games {
		difficulty := g.Difficulty
		if difficulty == "" {
			difficulty = "-"
		}
		sb.WriteByte('\n')
		sb.WriteString(f.catalog.RenderOr("chess.history.line", map[string]any{
			"Index":       i + 1,
			"Date":        formatShortTime(g.Date),
			"Description": g.Description,
			"Moves":       len(g.Moves),
			"Difficulty":  difficulty,
		}, fmt.Sprintf("%d. %s", i+1, g.Description)))
	}
	return sb.String()
}

// Game renders a stored game with its PGN when one exists.
func (f *Formatter) Game(game *chessdto.ChessGame) string {
	if game == nil {
		return f.catalog.RenderOr("chess.errors.game_not_found", nil, "game not found")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", game.Result, game.ResultMethod)
	fmt.Fprintf(&sb, "Started %s, ended %s", formatShortTime(game.StartedAt), formatShortTime(game.EndedAt))
	if d := formatGameDuration(time.Duration(game.DurationSeconds) * time.Second); d != "" {
		fmt.Fprintf(&sb, " (%s)", d)
	}
	sb.WriteByte('\n')
	if game.PGN != "" {
		sb.WriteString(strings.TrimSpace(game.PGN))
	} else {
		sb.WriteString(strings.Join(game.MovesNotation, " "))
	}
	return sb.String()
}

// Error maps a domain error to user-facing text.
func (f *Formatter) Error(err chessdto.DomainError) string {
	if err.Code == "" {
		return err.Error()
	}
	return f.catalog.RenderOr("chess.errors."+err.Code, nil, err.Error())
}

func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatRecentMoves(moves []string) string {
	if len(moves) <= recentMovesLimit {
		return strings.Join(moves, " ")
	}
	return "... " + strings.Join(moves[len(moves)-recentMovesLimit:], " ")
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(historyDateLayout)
}

func formatGameDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Round(time.Second).String()
}

func formatCaptured(captured chessdto.CapturedPieces) string {
	white := formatCapturedSequence(recentPieces(captured.White, capturedRecentLimit))
	black := formatCapturedSequence(recentPieces(captured.Black, capturedRecentLimit))
	var parts []string
	if white != "" {
		parts = append(parts, "White "+white)
	}
	if black != "" {
		parts = append(parts, "Black "+black)
	}
	return strings.Join(parts, " / ")
}

func formatCapturedSequence(order []string) string {
	tokens := make([]string, 0, len(order))
	for _, token := range order {
		if symbol := capturedSymbol(token); symbol != "" {
			tokens = append(tokens, symbol)
		}
	}
	return strings.Join(tokens, " ")
}

func capturedSymbol(piece string) string {
	switch strings.ToLower(strings.TrimSpace(piece)) {
	case "queen":
		return "Q"
	case "rook":
		return "R"
	case "bishop":
		return "B"
	case "knight":
		return "N"
	case "pawn":
		return "P"
	}
	return ""
}

// recentPieces returns the last limit captures, most recent first.
func recentPieces(order []string, limit int) []string {
	if len(order) > limit {
		order = order[len(order)-limit:]
	}
	result := make([]string, len(order))
	for i := range order {
		result[i] = order[len(order)-1-i]
	}
	return result
}
