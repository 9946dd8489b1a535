package chesspresenter

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/park285/void-chess/internal/game"
	"github.com/park285/void-chess/pkg/chessdto"
)

const statusTimeout = 2 * time.Second

type StatusSource interface {
	Status(ctx context.Context, sessionID string) (game.StatusView, error)
}

// Publisher fans a live event out to the viewers of one session.
type Publisher interface {
	Publish(sessionID string, event chessdto.LiveEvent)
}

// Presenter turns session change notifications into formatted live events.
type Presenter struct {
	source    StatusSource
	publisher Publisher
	formatter *Formatter
	logger    *zap.Logger
}

func NewPresenter(source StatusSource, publisher Publisher, formatter *Formatter, logger *zap.Logger) *Presenter {
	if formatter == nil {
		formatter = NewFormatter(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Presenter{source: source, publisher: publisher, formatter: formatter, logger: logger}
}

// State converts a view and fills in the headline message.
func (p *Presenter) State(view game.StatusView) *chessdto.SessionState {
	state := ToDTOState(view)
	state.Message = p.formatter.StatusLine(state)
	return state
}

func (p *Presenter) Formatter() *Formatter { return p.formatter }

// SessionChanged implements the service observer hook.
func (p *Presenter) SessionChanged(sessionID string, kind game.EventKind) {
	if p == nil || p.publisher == nil || p.source == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()
	view, err := p.source.Status(ctx, sessionID)
	if err != nil {
		p.logger.Debug("live status skipped", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	p.publisher.Publish(sessionID, chessdto.LiveEvent{Kind: string(kind), State: p.State(view)})
}
