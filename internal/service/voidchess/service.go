package voidchess

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	corechess "github.com/park285/void-chess/internal/chess"
	"github.com/park285/void-chess/internal/domain"
	"github.com/park285/void-chess/internal/game"
	"github.com/park285/void-chess/internal/service/cache"
)

var (
	ErrSessionNotFound = errors.New("chess session not found")
	ErrGameNotFound    = errors.New("chess game not found")
	ErrServiceClosed   = errors.New("chess service closed")
	ErrUnknownTheme    = errors.New("unknown board theme")
)

const (
	defaultSessionTTL = time.Hour
	persistTimeout    = 5 * time.Second
	maxHistoryLimit   = 50
	sessionKeyPrefix  = "chess:sessions:"
)

type Config struct {
	ClockDuration     time.Duration
	HintDuration      time.Duration
	DefaultDifficulty corechess.Difficulty
	Castling          corechess.CastlingMode
	SessionTTL        time.Duration
	HistoryLimit      int
	Theme             string
	// ManualClock leaves clocks to explicit Tick calls. Tests only.
	ManualClock bool
}

// StartOptions override the configured defaults for one session. Empty
// fields keep the defaults.
type StartOptions struct {
	Difficulty string
	Castling   string
	Theme      string
}

// Observer is told about every change of a hosted session, clock ticks
// included. Calls happen outside session locks.
type Observer interface {
	SessionChanged(sessionID string, kind game.EventKind)
}

type Service struct {
	cache    *cache.CacheService
	repo     Repository
	renderer BoardRenderer
	engine   *corechess.Engine
	history  *game.HistoryLog
	cfg      Config
	logger   *zap.Logger

	mu        sync.RWMutex
	sessions  map[string]*hosted
	closedIDs map[string]time.Time
	observers []Observer
	closed    bool

	// persistMu orders cache writes against CloseSession.
	persistMu sync.RWMutex
}

type hosted struct {
	session *game.Session

	mu        sync.Mutex
	startedAt time.Time
	theme     string
}

func (h *hosted) meta() (time.Time, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.startedAt, h.theme
}

type sessionPayload struct {
	SessionUUID string               `json:"session_uuid"`
	Difficulty  corechess.Difficulty `json:"difficulty"`
	Castling    string               `json:"castling"`
	Theme       string               `json:"theme,omitempty"`
	Moves       []game.MoveInput     `json:"moves"`
	Clocks      game.Clocks          `json:"clocks"`
	StartedAt   time.Time            `json:"started_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewService builds the session host. cacheSvc may be nil, in which case
// sessions live only in process memory.
func NewService(cacheSvc *cache.CacheService, repo Repository, renderer BoardRenderer, cfg Config, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("chess repository is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("board renderer is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.ClockDuration <= 0 {
		cfg.ClockDuration = game.DefaultClockDuration
	}
	if cfg.HintDuration <= 0 {
		cfg.HintDuration = game.DefaultHintDuration
	}
	if cfg.DefaultDifficulty == "" {
		cfg.DefaultDifficulty = corechess.Intermediate
	}
	if _, err := corechess.GetPreset(cfg.DefaultDifficulty); err != nil {
		return nil, fmt.Errorf("default difficulty validation failed: %w", err)
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = game.DefaultHistoryLimit
	}
	if _, ok := LookupTheme(cfg.Theme); !ok {
		cfg.Theme = DefaultTheme
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		cache:    cacheSvc,
		repo:     repo,
		renderer: renderer,
		engine:   corechess.NewEngine(),
		history:  game.NewHistoryLog(cfg.HistoryLimit),
		cfg:      cfg,
		logger:   logger,
		sessions:  make(map[string]*hosted),
		closedIDs: make(map[string]time.Time),
	}, nil
}

// Subscribe registers an observer for all sessions.
func (s *Service) Subscribe(o Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

// Engine exposes the hint engine so tests can seed it.
func (s *Service) Engine() *corechess.Engine { return s.engine }

func (s *Service) StartSession(ctx context.Context, opts StartOptions) (game.StatusView, error) {
	difficulty := s.cfg.DefaultDifficulty
	if strings.TrimSpace(opts.Difficulty) != "" {
		d, err := corechess.ParseDifficulty(opts.Difficulty)
		if err != nil {
			return game.StatusView{}, err
		}
		difficulty = d
	}
	castling := s.cfg.Castling
	if strings.TrimSpace(opts.Castling) != "" {
		m, err := corechess.ParseCastlingMode(opts.Castling)
		if err != nil {
			return game.StatusView{}, err
		}
		castling = m
	}
	theme := s.cfg.Theme
	if t, ok := LookupTheme(opts.Theme); ok {
		theme = t.Name
	}

	payload := &sessionPayload{
		SessionUUID: uuid.NewString(),
		Difficulty:  difficulty,
		Castling:    castling.String(),
		Theme:       theme,
		StartedAt:   time.Now(),
	}
	h, err := s.host(payload)
	if err != nil {
		return game.StatusView{}, err
	}
	if err := s.persist(ctx, h); err != nil {
		s.logger.Warn("chess session save failed", zap.String("session_id", payload.SessionUUID), zap.Error(err))
	}
	s.logger.Info("chess_session_started",
		zap.String("session_id", payload.SessionUUID),
		zap.String("difficulty", string(difficulty)),
		zap.String("castling", castling.String()),
	)
	return h.session.Status(), nil
}

func (s *Service) Status(ctx context.Context, sessionID string) (game.StatusView, error) {
	h, err := s.lookup(ctx, sessionID)
	if err != nil {
		return game.StatusView{}, err
	}
	return h.session.Status(), nil
}

func (s *Service) Select(ctx context.Context, sessionID string, pos corechess.Position) (game.Selection, error) {
	h, err := s.lookup(ctx, sessionID)
	if err != nil {
		return game.Selection{}, err
	}
	return h.session.SelectSquare(pos), nil
}

// Tap runs the touch flow: select, or move when a destination is tapped.
func (s *Service) Tap(ctx context.Context, sessionID string, pos corechess.Position) (game.Selection, game.MoveResult, error) {
	h, err := s.lookup(ctx, sessionID)
	if err != nil {
		return game.Selection{}, game.MoveResult{}, err
	}
	sel, res, err := h.session.Tap(pos)
	if err != nil {
		return sel, res, err
	}
	if res.Move != nil {
		s.persistOrWarn(ctx, h)
	}
	return sel, res, nil
}

func (s *Service) Move(ctx context.Context, sessionID string, from, to corechess.Position) (game.MoveResult, error) {
	h, err := s.lookup(ctx, sessionID)
	if err != nil {
		return game.MoveResult{}, err
	}
	res, err := h.session.AttemptMove(from, to)
	if err != nil {
		return res, err
	}
	if res.Move != nil {
		s.persistOrWarn(ctx, h)
	}
	return res, nil
}

func (s *Service) Promote(ctx context.Context, sessionID string, piece corechess.PieceType) (*corechess.Move, error) {
	h, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	mv, err := h.session.ResolvePromotion(piece)
	if err != nil {
		return nil, err
	}
	if mv != nil {
		s.persistOrWarn(ctx, h)
	}
	return mv, nil
}

func (s *Service) Hint(ctx context.Context, sessionID string) (*game.Hint, error) {
	h, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return h.session.RequestHint()
}

// Reset starts a fresh game in the same session.
func (s *Service) Reset(ctx context.Context, sessionID string) (game.StatusView, error) {
	h, err := s.lookup(ctx, sessionID)
	if err != nil {
		return game.StatusView{}, err
	}
	if err := h.session.NewGame(); err != nil {
		return game.StatusView{}, err
	}
	h.mu.Lock()
	h.startedAt = time.Now()
	h.mu.Unlock()
	s.persistOrWarn(ctx, h)
	return h.session.Status(), nil
}

func (s *Service) SetDifficulty(ctx context.Context, sessionID, name string) (corechess.Difficulty, error) {
	h, err := s.lookup(ctx, sessionID)
	if err != nil {
		return "", err
	}
	d, err := corechess.ParseDifficulty(name)
	if err != nil {
		return "", err
	}
	if err := h.session.SetDifficulty(d); err != nil {
		return "", err
	}
	s.persistOrWarn(ctx, h)
	return d, nil
}

// CycleDifficulty advances beginner -> intermediate -> expert -> master and
// wraps around.
func (s *Service) CycleDifficulty(ctx context.Context, sessionID string) (corechess.Difficulty, error) {
	h, err := s.lookup(ctx, sessionID)
	if err != nil {
		return "", err
	}
	next := h.session.Difficulty().Next()
	if err := h.session.SetDifficulty(next); err != nil {
		return "", err
	}
	s.persistOrWarn(ctx, h)
	return next, nil
}

func (s *Service) SetTheme(ctx context.Context, sessionID, name string) (string, error) {
	h, err := s.lookup(ctx, sessionID)
	if err != nil {
		return "", err
	}
	theme, ok := LookupTheme(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	h.mu.Lock()
	h.theme = theme.Name
	h.mu.Unlock()
	s.persistOrWarn(ctx, h)
	s.notify(sessionID, game.EventSettings)
	return theme.Name, nil
}

// CloseSession stops the session clock and forgets the session. The ID is
// remembered as closed until its cached payload would have expired, so a
// concurrent lookup cannot replay it back.
func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	s.mu.RLock()
	_, hostedHere := s.sessions[sessionID]
	_, gone := s.closedIDs[sessionID]
	closed := s.closed
	s.mu.RUnlock()
	switch {
	case closed:
		return ErrServiceClosed
	case gone || sessionID == "":
		return ErrSessionNotFound
	case !hostedHere:
		if s.cache == nil {
			return ErrSessionNotFound
		}
		// A payload that fails to decode still counts as present.
		payload, err := s.loadSession(ctx, sessionID)
		if err == nil && payload == nil {
			return ErrSessionNotFound
		}
	}

	now := time.Now()
	s.mu.Lock()
	if _, gone := s.closedIDs[sessionID]; gone {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	s.pruneClosedLocked(now)
	s.closedIDs[sessionID] = now
	h, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if ok {
		h.session.Close()
	}
	if s.cache != nil {
		// Writes that checked the ID before it was marked closed finish first.
		s.persistMu.Lock()
		err := s.cache.Del(ctx, sessionKey(sessionID))
		s.persistMu.Unlock()
		if err != nil {
			return err
		}
	}
	s.logger.Info("chess_session_closed", zap.String("session_id", sessionID))
	return nil
}

func (s *Service) pruneClosedLocked(now time.Time) {
	keep := s.cfg.SessionTTL + persistTimeout
	for id, at := range s.closedIDs {
		if now.Sub(at) > keep {
			delete(s.closedIDs, id)
		}
	}
}

func (s *Service) isClosed(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, gone := s.closedIDs[sessionID]
	return gone
}

// History lists the most recent finished games of this process, newest
// first.
func (s *Service) History() []game.GameRecord {
	return s.history.List()
}

// StoredGames reads finished games from the repository.
func (s *Service) StoredGames(ctx context.Context, limit int) ([]*domain.ChessGame, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	return s.repo.GetRecentGames(ctx, limit)
}

// StoredGame reads one finished game. A game the repository does not hold
// (a failed insert, say) is rebuilt from the in-memory history when possible.
func (s *Service) StoredGame(ctx context.Context, gameUUID string) (*domain.ChessGame, error) {
	gameUUID = strings.TrimSpace(gameUUID)
	stored, err := s.repo.GetGame(ctx, gameUUID)
	if !errors.Is(err, ErrGameNotFound) {
		return stored, err
	}
	rec, ok := s.history.Get(gameUUID)
	if !ok {
		return nil, err
	}
	return s.gameFromRecord(rec, time.Time{}), nil
}

// BoardImage renders the current position as PNG. An empty theme uses the
// session's theme.
func (s *Service) BoardImage(ctx context.Context, sessionID, theme string) ([]byte, error) {
	h, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := h.session.Status()
	if strings.TrimSpace(theme) == "" {
		_, theme = h.meta()
	}
	return s.renderer.RenderPNG(ctx, &view.Board, renderOptionsFromView(view, theme))
}

// ActiveSessions lists the sessions hosted by this process together with
// the ones only cached in Redis, sorted by ID.
func (s *Service) ActiveSessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	seen := make(map[string]struct{}, len(s.sessions))
	for id := range s.sessions {
		seen[id] = struct{}{}
	}
	s.mu.RUnlock()

	if s.cache != nil {
		keys, err := s.cache.Keys(ctx, sessionKeyPrefix+"*")
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			payload := &sessionPayload{}
			if err := s.cache.Get(ctx, key, payload); err != nil {
				s.logger.Debug("chess session listing skipped key", zap.String("key", key), zap.Error(err))
				continue
			}
			if payload.SessionUUID == "" || s.isClosed(payload.SessionUUID) {
				continue
			}
			seen[payload.SessionUUID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Shutdown stops every clock. Cached payloads are kept so the sessions can
// be replayed by the next process.
func (s *Service) Shutdown(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	hostedSessions := make([]*hosted, 0, len(s.sessions))
	for _, h := range s.sessions {
		hostedSessions = append(hostedSessions, h)
	}
	s.sessions = map[string]*hosted{}
	s.mu.Unlock()

	for _, h := range hostedSessions {
		s.persistOrWarn(ctx, h)
		h.session.Close()
	}
}

func renderOptionsFromView(view game.StatusView, theme string) RenderOptions {
	opts := RenderOptions{
		Theme:        theme,
		Selected:     view.Selected,
		Destinations: view.Destinations,
		Checking:     view.CheckingSquares,
		Material:     view.CaptureTotals[corechess.White] - view.CaptureTotals[corechess.Black],
		HUDHeader:    "Void Chess - " + string(view.Difficulty),
		HUDFooter: fmt.Sprintf("White %s  |  Black %s",
			game.FormatClock(view.Clocks.White), game.FormatClock(view.Clocks.Black)),
	}
	if view.LastMove != nil {
		opts.LastMove = &MoveHighlight{From: view.LastMove.From, To: view.LastMove.To}
	}
	if view.Hint != nil {
		opts.Hint = &MoveHighlight{From: view.Hint.From, To: view.Hint.To}
	}
	if view.Status == corechess.Check || view.Status == corechess.Checkmate {
		if king, ok := view.Board.FindKing(view.CurrentPlayer); ok {
			opts.CheckedKing = &king
		}
	}
	switch {
	case view.Result != nil:
		opts.HUDTurn = view.Result.Description()
	case view.Status == corechess.Check:
		opts.HUDTurn = view.CurrentPlayer.Title() + " to move - check"
	default:
		opts.HUDTurn = view.CurrentPlayer.Title() + " to move"
	}
	return opts
}

// lookup finds a hosted session, replaying it from the cache when this
// process has not seen it yet.
func (s *Service) lookup(ctx context.Context, sessionID string) (*hosted, error) {
	sessionID = strings.TrimSpace(sessionID)
	s.mu.RLock()
	h, ok := s.sessions[sessionID]
	_, gone := s.closedIDs[sessionID]
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrServiceClosed
	}
	if ok {
		return h, nil
	}
	if gone || s.cache == nil || sessionID == "" {
		return nil, ErrSessionNotFound
	}

	payload, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}
	h, err = s.host(payload)
	if errors.Is(err, ErrServiceClosed) || errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	if err != nil {
		s.logger.Warn("chess session replay failed", zap.String("session_id", sessionID), zap.Error(err))
		if delErr := s.cache.Del(ctx, sessionKey(sessionID)); delErr != nil {
			s.logger.Warn("chess session cleanup failed", zap.String("session_id", sessionID), zap.Error(delErr))
		}
		return nil, ErrSessionNotFound
	}
	s.logger.Debug("chess_session_restored", zap.String("session_id", sessionID), zap.Int("moves", len(payload.Moves)))
	return h, nil
}

// host builds a session from a payload and registers it. A concurrent
// restore of the same ID keeps the first session.
func (s *Service) host(payload *sessionPayload) (*hosted, error) {
	castling, err := corechess.ParseCastlingMode(payload.Castling)
	if err != nil {
		return nil, err
	}
	h := &hosted{startedAt: payload.StartedAt, theme: payload.Theme}
	id := payload.SessionUUID
	opts := game.Options{
		ID:            id,
		ClockDuration: s.cfg.ClockDuration,
		HintDuration:  s.cfg.HintDuration,
		Difficulty:    payload.Difficulty,
		Castling:      castling,
		ManualClock:   s.cfg.ManualClock,
		Engine:        s.engine,
		History:       s.history,
		Logger:        s.logger,
		OnChange:      func(kind game.EventKind) { s.notify(id, kind) },
		OnFinish:      func(rec game.GameRecord) { s.recordFinished(h, rec) },
	}

	var clocks *game.Clocks
	if len(payload.Moves) > 0 || payload.Clocks != (game.Clocks{}) {
		c := payload.Clocks
		clocks = &c
	}
	sess, err := game.Replay(opts, payload.Moves, clocks)
	if err != nil {
		return nil, err
	}
	h.session = sess

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sess.Close()
		return nil, ErrServiceClosed
	}
	if _, gone := s.closedIDs[id]; gone {
		s.mu.Unlock()
		sess.Close()
		return nil, ErrSessionNotFound
	}
	if existing, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		sess.Close()
		return existing, nil
	}
	s.sessions[id] = h
	s.mu.Unlock()
	return h, nil
}

func (s *Service) notify(sessionID string, kind game.EventKind) {
	s.mu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.RUnlock()
	for _, o := range observers {
		o.SessionChanged(sessionID, kind)
	}
}

func (s *Service) persistOrWarn(ctx context.Context, h *hosted) {
	if err := s.persist(ctx, h); err != nil {
		s.logger.Warn("chess session save failed", zap.String("session_id", h.session.ID()), zap.Error(err))
	}
}

func (s *Service) persist(ctx context.Context, h *hosted) error {
	if s.cache == nil {
		return nil
	}
	s.persistMu.RLock()
	defer s.persistMu.RUnlock()
	if s.isClosed(h.session.ID()) {
		return nil
	}
	view := h.session.Status()
	startedAt, theme := h.meta()
	payload := &sessionPayload{
		SessionUUID: h.session.ID(),
		Difficulty:  view.Difficulty,
		Castling:    view.Castling.String(),
		Theme:       theme,
		Moves:       h.session.Inputs(),
		Clocks:      view.Clocks,
		StartedAt:   startedAt,
	}
	return s.saveSession(ctx, payload.SessionUUID, payload)
}

// recordFinished writes a completed game to the repository. It runs from the
// session's finish callback, so it uses its own deadline.
func (s *Service) recordFinished(h *hosted, rec game.GameRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	startedAt, _ := h.meta()
	record := s.gameFromRecord(rec, startedAt)
	id, err := s.repo.InsertGame(ctx, record)
	if err != nil {
		if errors.Is(err, ErrDuplicateGame) {
			s.logger.Debug("chess game already stored", zap.String("game_id", rec.ID))
			return
		}
		s.logger.Warn("chess game persist failed", zap.String("game_id", rec.ID), zap.Error(err))
		return
	}
	s.logger.Info("chess_game_stored",
		zap.Int64("id", id),
		zap.String("game_id", rec.ID),
		zap.String("result", rec.Result),
		zap.String("method", rec.Method.String()),
	)
}

// gameFromRecord builds the stored shape of a finished game, PGN included.
// A zero startedAt means the start is unknown.
func (s *Service) gameFromRecord(rec game.GameRecord, startedAt time.Time) *domain.ChessGame {
	record := &domain.ChessGame{
		GameUUID:           rec.ID,
		SessionUUID:        rec.SessionID,
		Result:             rec.Result,
		ResultMethod:       rec.Method.String(),
		Difficulty:         string(rec.Difficulty),
		CastlingMode:       rec.Castling.String(),
		MovesUCI:           movesUCI(rec.Moves),
		MovesNotation:      movesNotation(rec.Moves),
		StartedAt:          startedAt,
		EndedAt:            rec.Date,
		Duration:           rec.Date.Sub(startedAt),
		WhiteTimeRemaining: rec.WhiteTimeRemaining,
		BlackTimeRemaining: rec.BlackTimeRemaining,
	}
	for _, mv := range rec.Moves {
		if mv.Captured == nil {
			continue
		}
		if mv.Piece.Color == corechess.White {
			record.WhiteCaptured += mv.Captured.Value
		} else {
			record.BlackCaptured += mv.Captured.Value
		}
	}
	if rec.Winner != nil {
		record.Winner = rec.Winner.String()
	}
	if startedAt.IsZero() {
		record.StartedAt = rec.Date
		record.Duration = 0
	}

	san, pgn, err := exportPGN(rec.Moves, rec.Castling)
	switch {
	case err == nil:
		record.MovesSAN, record.PGN = san, pgn
	case errors.Is(err, errNoStandardExport):
		record.MovesSAN = record.MovesNotation
	default:
		s.logger.Warn("chess pgn export failed", zap.String("game_id", rec.ID), zap.Error(err))
		record.MovesSAN = record.MovesNotation
	}
	return record
}

func sessionKey(sessionID string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(sessionID)))
	return sessionKeyPrefix + hex.EncodeToString(hash[:])
}

func (s *Service) loadSession(ctx context.Context, sessionID string) (*sessionPayload, error) {
	payload := &sessionPayload{}
	if err := s.cache.Get(ctx, sessionKey(sessionID), payload); err != nil {
		return nil, err
	}
	if payload.SessionUUID == "" {
		return nil, nil
	}
	return payload, nil
}

func (s *Service) saveSession(ctx context.Context, sessionID string, payload *sessionPayload) error {
	if payload == nil {
		return fmt.Errorf("cannot save nil chess session payload")
	}
	payload.UpdatedAt = time.Now()
	return s.cache.Set(ctx, sessionKey(sessionID), payload, s.cfg.SessionTTL)
}
