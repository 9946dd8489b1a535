package httpapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/void-chess/pkg/chessdto"
)

const (
	viewerBuffer  = 16
	writeTimeout  = 5 * time.Second
	pingInterval  = 30 * time.Second
	liveEventKind = "snapshot"
)

type viewer struct {
	events chan chessdto.LiveEvent
	done   chan struct{}
	once   sync.Once
}

func (v *viewer) stop() {
	v.once.Do(func() { close(v.done) })
}

// Hub fans live events out to websocket viewers grouped by session.
type Hub struct {
	mu      sync.RWMutex
	viewers map[string]map[*viewer]struct{}
	closed  bool
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{viewers: make(map[string]map[*viewer]struct{}), logger: logger}
}

// Publish never blocks: a viewer that falls behind loses its oldest event.
func (h *Hub) Publish(sessionID string, event chessdto.LiveEvent) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for v := range h.viewers[sessionID] {
		select {
		case v.events <- event:
			continue
		default:
		}
		select {
		case <-v.events:
		default:
		}
		select {
		case v.events <- event:
		default:
		}
	}
}

// Viewers reports how many connections watch a session.
func (h *Hub) Viewers(sessionID string) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers[sessionID])
}

func (h *Hub) subscribe(sessionID string) (*viewer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	v := &viewer{events: make(chan chessdto.LiveEvent, viewerBuffer), done: make(chan struct{})}
	set, ok := h.viewers[sessionID]
	if !ok {
		set = make(map[*viewer]struct{})
		h.viewers[sessionID] = set
	}
	set[v] = struct{}{}
	return v, true
}

func (h *Hub) unsubscribe(sessionID string, v *viewer) {
	h.mu.Lock()
	if set, ok := h.viewers[sessionID]; ok {
		delete(set, v)
		if len(set) == 0 {
			delete(h.viewers, sessionID)
		}
	}
	h.mu.Unlock()
	v.stop()
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.closed = true
	all := h.viewers
	h.viewers = make(map[string]map[*viewer]struct{})
	h.mu.Unlock()
	for _, set := range all {
		for v := range set {
			v.stop()
		}
	}
}

// handleLive upgrades to a websocket, sends the current state and then every
// change of the session until either side hangs up.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view, err := s.service.Status(r.Context(), id)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		s.writeError(w, err)
		return
	}
	if s.hub == nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		writeJSON(w, http.StatusServiceUnavailable, chessdto.ErrorResponse{Error: chessdto.DomainError{Code: chessdto.CodeUnavailable, Message: "live feed disabled"}})
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Debug("live accept failed", zap.String("session_id", id), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	v, ok := s.hub.subscribe(id)
	if !ok {
		_ = conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}
	defer s.hub.unsubscribe(id, v)

	// Viewers only listen; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	if err := writeEvent(ctx, conn, chessdto.LiveEvent{Kind: liveEventKind, State: s.state(view)}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-v.done:
			_ = conn.Close(websocket.StatusGoingAway, "shutting down")
			return
		case ev := <-v.events:
			if err := writeEvent(ctx, conn, ev); err != nil {
				if !errors.Is(err, context.Canceled) {
					s.logger.Debug("live write failed", zap.String("session_id", id), zap.Error(err))
				}
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, ev chessdto.LiveEvent) error {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, ev)
}
