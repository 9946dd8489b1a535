package voidclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/void-chess/internal/httpapi"
	"github.com/park285/void-chess/internal/service/voidchess"
	"github.com/park285/void-chess/pkg/chessdto"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, err := voidchess.NewService(nil, voidchess.NewMemoryRepository(), voidchess.NewSVGBoardRenderer(),
		voidchess.Config{ManualClock: true}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { svc.Shutdown(context.Background()) })
	api := httpapi.NewServer(svc, nil, nil, nil)
	ts := httptest.NewServer(api.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestClientPlaysAGame(t *testing.T) {
	ts := newServer(t)
	c := NewClient(ts.URL+"/", WithTimeout(5*time.Second))
	ctx := context.Background()

	if err := c.Healthz(ctx); err != nil {
		t.Fatalf("healthz: %v", err)
	}

	state, err := c.NewGame(ctx, chessdto.StartSessionRequest{Difficulty: "beginner", Castling: "king-only"})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if state.Castling != "king-only" || state.Difficulty != "beginner" {
		t.Fatalf("state = %+v", state)
	}
	id := state.SessionUUID

	sel, err := c.Select(ctx, id, "b1")
	if err != nil || sel.Selected != "b1" || len(sel.Destinations) != 2 {
		t.Fatalf("select = %+v, %v", sel, err)
	}
	sum, err := c.Move(ctx, id, "b1", "c3")
	if err != nil || sum.Move == nil || sum.Move.Notation != "Nb1c3" {
		t.Fatalf("move = %+v, %v", sum, err)
	}

	hint, err := c.Hint(ctx, id)
	if err != nil || hint.Hint == nil {
		t.Fatalf("hint = %+v, %v", hint, err)
	}

	st, err := c.Status(ctx, id)
	if err != nil || st.Turn != "black" || st.Hint == nil {
		t.Fatalf("status = %+v, %v", st, err)
	}

	st, err = c.Settings(ctx, id, chessdto.SettingsRequest{Difficulty: "master", Theme: "glass"})
	if err != nil || st.Difficulty != "master" {
		t.Fatalf("settings = %+v, %v", st, err)
	}

	png, err := c.BoardPNG(ctx, id, "")
	if err != nil || len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatalf("board = %d bytes, %v", len(png), err)
	}

	st, err = c.Reset(ctx, id)
	if err != nil || st.MoveCount != 0 {
		t.Fatalf("reset = %+v, %v", st, err)
	}

	hist, err := c.History(ctx)
	if err != nil || len(hist.Games) != 0 || hist.Message == "" {
		t.Fatalf("history = %+v, %v", hist, err)
	}
	stored, err := c.StoredGames(ctx, 5)
	if err != nil || len(stored.Games) != 0 {
		t.Fatalf("stored = %+v, %v", stored, err)
	}
}

func TestClientDecodesAPIError(t *testing.T) {
	ts := newServer(t)
	c := NewClient(ts.URL)
	_, err := c.Status(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Err.Code != chessdto.CodeSessionNotFound {
		t.Fatalf("api error = %+v", apiErr)
	}

	_, err = c.Promote(context.Background(), "missing", "dragon")
	if !errors.As(err, &apiErr) || apiErr.Err.Code != chessdto.CodeInvalidPiece {
		t.Fatalf("promote err = %v", err)
	}
}

func TestClientRetriesReadsOnly(t *testing.T) {
	var gets, posts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Player") != "p1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodPost {
			posts.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":"unavailable","message":"down","retryable":true}}`))
			return
		}
		if gets.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sessionId":"abc","turn":"white"}`))
	}))
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL,
		WithRetry(3),
		WithHeaderProvider(func() map[string]string { return map[string]string{"X-Player": "p1", "X-Empty": " "} }),
	)
	st, err := c.Status(context.Background(), "abc")
	if err != nil || st.SessionUUID != "abc" {
		t.Fatalf("status = %+v, %v", st, err)
	}
	if gets.Load() != 3 {
		t.Fatalf("gets = %d", gets.Load())
	}

	_, err = c.Move(context.Background(), "abc", "e2", "e4")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Err.Code != chessdto.CodeUnavailable || !apiErr.Err.Retryable {
		t.Fatalf("move err = %v", err)
	}
	if posts.Load() != 1 {
		t.Fatalf("posts = %d", posts.Load())
	}
}

func TestBackoffDuration(t *testing.T) {
	cases := map[int]time.Duration{0: 100 * time.Millisecond, 1: 100 * time.Millisecond, 3: 400 * time.Millisecond, 9: 3200 * time.Millisecond}
	for attempt, want := range cases {
		if got := backoffDuration(attempt); got != want {
			t.Fatalf("backoff(%d) = %v, want %v", attempt, got, want)
		}
	}
}
