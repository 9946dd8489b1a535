package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/park285/void-chess/internal/adapter/chesspresenter"
	appcfg "github.com/park285/void-chess/internal/config"
	"github.com/park285/void-chess/internal/msgcat"
	"github.com/park285/void-chess/internal/voidclient"
	"github.com/park285/void-chess/pkg/chessdto"
)

var errUsage = errors.New("usage")

const usage = `voidctl <command> [args]

  new [difficulty] [castling]     start a game and print its session id
  status <session>                show the position summary
  select <session> <square>       select a piece and list its destinations
  move <session> <from> <to>      play a move (also: move <session> e2e4)
  promote <session> <piece>       finish a pending promotion
  hint <session>                  ask for a hint
  reset <session>                 start over in the same session
  difficulty <session> <name|next>
  theme <session> <name>
  board <session> <file.png|-> [theme]
  sessions                        live games and their viewers
  history                         recent finished games
  games [limit]                   stored games
  game <game-id>                  a stored game with its PGN`

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		log.Fatalf("messages error: %v", err)
	}

	userID := os.Getenv("VOIDCTL_USER")
	headers := func() map[string]string {
		m := map[string]string{}
		if userID != "" {
			m["X-User-Id"] = userID
		}
		return m
	}
	client := voidclient.NewClient(cfg.VoidctlBaseURL,
		voidclient.WithHeaderProvider(headers),
		voidclient.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	formatter := chesspresenter.NewFormatter(catalog)
	if err := run(ctx, client, formatter, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, describeError(formatter, err))
		os.Exit(1)
	}
}

func describeError(f *chesspresenter.Formatter, err error) string {
	var apiErr *voidclient.APIError
	if errors.As(err, &apiErr) {
		return f.Error(apiErr.Err)
	}
	return err.Error()
}

func run(ctx context.Context, c *voidclient.Client, f *chesspresenter.Formatter, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := strings.ToLower(args[0]), args[1:]
	need := func(n int) error {
		if len(args) < n {
			return errUsage
		}
		return nil
	}

	switch cmd {
	case "new":
		req := chessdto.StartSessionRequest{}
		if len(args) > 0 {
			req.Difficulty = args[0]
		}
		if len(args) > 1 {
			req.Castling = args[1]
		}
		state, err := c.NewGame(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "session %s\n%s\n", state.SessionUUID, f.Status(state))
	case "status":
		if err := need(1); err != nil {
			return err
		}
		state, err := c.Status(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, f.Status(state))
	case "select":
		if err := need(2); err != nil {
			return err
		}
		sel, err := c.Select(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if sel.Selected == "" {
			fmt.Fprintln(out, "nothing selected")
			return nil
		}
		fmt.Fprintf(out, "%s -> %s\n", sel.Selected, strings.Join(sel.Destinations, " "))
	case "move":
		if err := need(2); err != nil {
			return err
		}
		from, to := args[1], ""
		switch {
		case len(args) >= 3:
			to = args[2]
		case len(from) == 4:
			from, to = from[:2], from[2:]
		default:
			return errUsage
		}
		sum, err := c.Move(ctx, args[0], from, to)
		if err != nil {
			return err
		}
		printSummary(out, f, sum)
	case "promote":
		if err := need(2); err != nil {
			return err
		}
		sum, err := c.Promote(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		printSummary(out, f, sum)
	case "hint":
		if err := need(1); err != nil {
			return err
		}
		hint, err := c.Hint(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, hint.Message)
	case "reset":
		if err := need(1); err != nil {
			return err
		}
		state, err := c.Reset(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, f.Status(state))
	case "difficulty":
		if err := need(2); err != nil {
			return err
		}
		req := chessdto.SettingsRequest{Difficulty: args[1]}
		if strings.EqualFold(args[1], "next") {
			req = chessdto.SettingsRequest{Cycle: true}
		}
		state, err := c.Settings(ctx, args[0], req)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, f.Difficulty(state.Difficulty))
	case "theme":
		if err := need(2); err != nil {
			return err
		}
		if _, err := c.Settings(ctx, args[0], chessdto.SettingsRequest{Theme: args[1]}); err != nil {
			return err
		}
		fmt.Fprintln(out, f.Theme(strings.ToLower(args[1])))
	case "board":
		if err := need(2); err != nil {
			return err
		}
		theme := ""
		if len(args) > 2 {
			theme = args[2]
		}
		png, err := c.BoardPNG(ctx, args[0], theme)
		if err != nil {
			return err
		}
		if args[1] == "-" {
			if isTerminal(out) {
				return errors.New("refusing to write PNG data to a terminal")
			}
			_, err = out.Write(png)
			return err
		}
		if err := os.WriteFile(args[1], png, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s (%d bytes)\n", args[1], len(png))
	case "sessions":
		list, err := c.Sessions(ctx)
		if err != nil {
			return err
		}
		if len(list.Sessions) == 0 {
			fmt.Fprintln(out, "no live games")
			return nil
		}
		for _, sess := range list.Sessions {
			fmt.Fprintf(out, "%s  viewers=%d\n", sess.ID, sess.Viewers)
		}
	case "games":
		limit := 0
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return errUsage
			}
			limit = n
		}
		stored, err := c.StoredGames(ctx, limit)
		if err != nil {
			return err
		}
		for _, g := range stored.Games {
			fmt.Fprintf(out, "%s  %s (%s)  %d moves\n", g.GameUUID, g.Result, g.ResultMethod, len(g.MovesSAN))
		}
	case "history":
		hist, err := c.History(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, f.History(hist.Games))
	case "game":
		if err := need(1); err != nil {
			return err
		}
		game, err := c.StoredGame(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, f.Game(game))
	default:
		return errUsage
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printSummary(out io.Writer, f *chesspresenter.Formatter, sum *chessdto.MoveSummary) {
	switch {
	case sum.PromotionPending:
		fmt.Fprintln(out, f.Promotion(sum.State))
		return
	case sum.Ignored:
		fmt.Fprintln(out, "move ignored")
	case sum.Move != nil:
		fmt.Fprintf(out, "played %s\n", sum.Move.Notation)
	}
	fmt.Fprintln(out, f.Status(sum.State))
}
