package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/void-chess/internal/adapter/chesspresenter"
	corechess "github.com/park285/void-chess/internal/chess"
	"github.com/park285/void-chess/internal/game"
	"github.com/park285/void-chess/internal/service/voidchess"
	"github.com/park285/void-chess/pkg/chessdto"
)

const (
	maxJSONBodyBytes int64 = 1 << 16
	apiCSP                 = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
)

// Server exposes the chess service as a JSON API plus a websocket live feed.
type Server struct {
	service   *voidchess.Service
	presenter *chesspresenter.Presenter
	hub       *Hub
	logger    *zap.Logger

	srvMu sync.Mutex
	srv   *http.Server
}

func NewServer(service *voidchess.Service, presenter *chesspresenter.Presenter, hub *Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if presenter == nil {
		presenter = chesspresenter.NewPresenter(service, hub, nil, logger)
	}
	return &Server{service: service, presenter: presenter, hub: hub, logger: logger}
}

// Listen serves until Close is called.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	s.logger.Info("http_listening", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts the listener down gracefully and disconnects live viewers.
func (s *Server) Close(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", s.withJSON(s.handleStart))
	mux.HandleFunc("GET /api/sessions", s.withJSON(s.handleSessions))
	mux.HandleFunc("GET /api/sessions/{id}", s.withJSON(s.handleStatus))
	mux.HandleFunc("DELETE /api/sessions/{id}", s.withJSON(s.handleClose))
	mux.HandleFunc("POST /api/sessions/{id}/select", s.withJSON(s.handleSelect))
	mux.HandleFunc("POST /api/sessions/{id}/tap", s.withJSON(s.handleTap))
	mux.HandleFunc("POST /api/sessions/{id}/move", s.withJSON(s.handleMove))
	mux.HandleFunc("POST /api/sessions/{id}/promote", s.withJSON(s.handlePromote))
	mux.HandleFunc("POST /api/sessions/{id}/hint", s.withJSON(s.handleHint))
	mux.HandleFunc("POST /api/sessions/{id}/reset", s.withJSON(s.handleReset))
	mux.HandleFunc("POST /api/sessions/{id}/settings", s.withJSON(s.handleSettings))
	mux.HandleFunc("GET /api/sessions/{id}/board.png", s.handleBoard)
	mux.HandleFunc("GET /api/sessions/{id}/live", s.handleLive)

	mux.HandleFunc("GET /api/history", s.withJSON(s.handleHistory))
	mux.HandleFunc("GET /api/history/{id}", s.withJSON(s.handleStoredGame))
	mux.HandleFunc("GET /api/games", s.withJSON(s.handleStoredGames))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return s.recoverer(mux)
}

// recoverer turns a panicking handler (a broken board invariant, say) into a 500.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error("chess api panic",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			derr := chessdto.DomainError{Code: chessdto.CodeInternal}
			derr.Message = s.presenter.Formatter().Error(derr)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			writeJSON(w, http.StatusInternalServerError, chessdto.ErrorResponse{Error: derr})
		}()
		next.ServeHTTP(w, r)
	})
}

// ---- JSON helpers ----

func (s *Server) withJSON(h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", apiCSP)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	derr := chesspresenter.ToDomainError(err)
	status := statusFor(derr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("chess api error", zap.Error(err))
	}
	derr.Message = s.presenter.Formatter().Error(derr)
	writeJSON(w, status, chessdto.ErrorResponse{Error: derr})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, chessdto.ErrorResponse{Error: chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: msg}})
}

func statusFor(code string) int {
	switch code {
	case chessdto.CodeSessionNotFound, chessdto.CodeGameNotFound:
		return http.StatusNotFound
	case chessdto.CodeBadRequest, chessdto.CodeInvalidSquare, chessdto.CodeInvalidPiece,
		chessdto.CodeUnknownDifficulty, chessdto.CodeUnknownCastling:
		return http.StatusBadRequest
	case chessdto.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads an optional JSON body into dst. It reports false after
// writing the error response.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, chessdto.ErrorResponse{Error: chessdto.DomainError{Code: chessdto.CodeBadRequest, Message: "request too large"}})
			return false
		}
		writeBadRequest(w, "invalid json")
		return false
	}
	return true
}

func parseSquare(raw string) (corechess.Position, error) {
	return corechess.ParsePosition(strings.ToLower(strings.TrimSpace(raw)))
}

func (s *Server) state(view game.StatusView) *chessdto.SessionState {
	return s.presenter.State(view)
}

func (s *Server) summary(ctx context.Context, id string, res game.MoveResult) (*chessdto.MoveSummary, error) {
	view, err := s.service.Status(ctx, id)
	if err != nil {
		return nil, err
	}
	return &chessdto.MoveSummary{
		Move:             chesspresenter.ToDTOMove(res.Move),
		PromotionPending: res.PromotionPending,
		Ignored:          res.Ignored(),
		State:            s.state(view),
	}, nil
}

// ---- sessions ----

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var body chessdto.StartSessionRequest
	if !decodeBody(w, r, &body) {
		return
	}
	view, err := s.service.StartSession(r.Context(), voidchess.StartOptions{
		Difficulty: body.Difficulty,
		Castling:   body.Castling,
		Theme:      body.Theme,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+view.ID)
	writeJSON(w, http.StatusCreated, s.state(view))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(view))
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := s.service.CloseSession(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var body chessdto.SelectRequest
	if !decodeBody(w, r, &body) {
		return
	}
	pos, err := parseSquare(body.Square)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sel, err := s.service.Select(r.Context(), r.PathValue("id"), pos)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOSelection(sel))
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	var body chessdto.SelectRequest
	if !decodeBody(w, r, &body) {
		return
	}
	pos, err := parseSquare(body.Square)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	_, res, err := s.service.Tap(r.Context(), id, pos)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.summary(r.Context(), id, res)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var body chessdto.MoveRequest
	if !decodeBody(w, r, &body) {
		return
	}
	from, err := parseSquare(body.From)
	if err != nil {
		s.writeError(w, err)
		return
	}
	to, err := parseSquare(body.To)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	res, err := s.service.Move(r.Context(), id, from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.summary(r.Context(), id, res)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	var body chessdto.PromoteRequest
	if !decodeBody(w, r, &body) {
		return
	}
	piece, err := corechess.ParsePieceType(body.Piece)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	mv, err := s.service.Promote(r.Context(), id, piece)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out, err := s.summary(r.Context(), id, game.MoveResult{Move: mv})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	hint, err := s.service.Hint(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.service.Status(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	dto := chesspresenter.ToDTOHint(hint)
	writeJSON(w, http.StatusOK, chessdto.HintResponse{
		Hint:    dto,
		Message: s.presenter.Formatter().Hint(dto, string(view.Difficulty)),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Reset(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(view))
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var body chessdto.SettingsRequest
	if !decodeBody(w, r, &body) {
		return
	}
	ctx := r.Context()
	id := r.PathValue("id")
	var err error
	switch {
	case body.Cycle:
		_, err = s.service.CycleDifficulty(ctx, id)
	case strings.TrimSpace(body.Difficulty) != "":
		_, err = s.service.SetDifficulty(ctx, id, body.Difficulty)
	}
	if err == nil && strings.TrimSpace(body.Theme) != "" {
		_, err = s.service.SetTheme(ctx, id, body.Theme)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	view, err := s.service.Status(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.state(view))
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	png, err := s.service.BoardImage(r.Context(), r.PathValue("id"), r.URL.Query().Get("theme"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ---- history ----

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	games := chesspresenter.ToDTORecords(s.service.History())
	writeJSON(w, http.StatusOK, chessdto.HistoryResponse{
		Games:   games,
		Message: s.presenter.Formatter().History(games),
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.service.ActiveSessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := chessdto.ActiveSessionsResponse{Sessions: make([]chessdto.ActiveSession, 0, len(ids))}
	for _, id := range ids {
		resp.Sessions = append(resp.Sessions, chessdto.ActiveSession{ID: id, Viewers: s.hub.Viewers(id)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStoredGames(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	games, err := s.service.StoredGames(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chessdto.StoredGamesResponse{Games: chesspresenter.ToDTOGames(games)})
}

func (s *Server) handleStoredGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		s.writeError(w, voidchess.ErrGameNotFound)
		return
	}
	g, err := s.service.StoredGame(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chesspresenter.ToDTOGame(g))
}
