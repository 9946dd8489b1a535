package game

import (
	"fmt"
	"time"

	"github.com/park285/void-chess/internal/chess"
)

const DefaultClockDuration = 600 * time.Second

// Clocks holds the remaining time of both sides.
type Clocks struct {
	White time.Duration `json:"white"`
	Black time.Duration `json:"black"`
}

// FormatClock renders m:ss.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// startClockLocked arms the countdown. With ManualClock the caller drives
// Tick itself.
func (s *Session) startClockLocked() {
	s.clockRunning = true
	if s.opts.ManualClock || s.clockStop != nil {
		return
	}
	stop := make(chan struct{})
	s.clockStop = stop
	go s.runClock(stop)
}

func (s *Session) stopClockLocked() {
	s.clockRunning = false
	if s.clockStop != nil {
		close(s.clockStop)
		s.clockStop = nil
	}
}

func (s *Session) runClock(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(stop)
		}
	}
}

// Tick takes one second from the side to move. Clocks stop at zero; running
// out of time does not end the game.
func (s *Session) Tick() {
	s.tick(nil)
}

// tick ignores a ticker whose stop channel is no longer the current one: a
// goroutine from a previous game may wake after a reset.
func (s *Session) tick(stop chan struct{}) {
	s.mu.Lock()
	if !s.clockRunning || s.status.Terminal() || (stop != nil && stop != s.clockStop) {
		s.mu.Unlock()
		return
	}
	remaining := &s.clocks.White
	if s.current == chess.Black {
		remaining = &s.clocks.Black
	}
	if *remaining == 0 {
		s.mu.Unlock()
		return
	}
	*remaining -= time.Second
	if *remaining < 0 {
		*remaining = 0
	}
	s.mu.Unlock()
	s.notify(EventTick)
}
