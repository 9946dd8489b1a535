package voidchess

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/void-chess/internal/domain"
)

// memrepo is the in-memory repository used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID   map[int64]*domain.ChessGame
	gamesByUUID map[string]*domain.ChessGame
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:   make(map[int64]*domain.ChessGame),
		gamesByUUID: make(map[string]*domain.ChessGame),
	}
}

func (m *memrepo) EnsureSchema(context.Context) error { return nil }

func (m *memrepo) InsertGame(_ context.Context, game *domain.ChessGame) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesByUUID[game.GameUUID]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	stored := cloneGame(game)
	stored.ID = m.nextID

	m.gamesByID[stored.ID] = stored
	m.gamesByUUID[stored.GameUUID] = stored
	return stored.ID, nil
}

func (m *memrepo) GetRecentGames(_ context.Context, limit int) ([]*domain.ChessGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(func(*domain.ChessGame) bool { return true }, limit), nil
}

func (m *memrepo) GetGamesBySession(_ context.Context, sessionUUID string, limit int) ([]*domain.ChessGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(func(g *domain.ChessGame) bool { return g.SessionUUID == sessionUUID }, limit), nil
}

func (m *memrepo) GetGame(_ context.Context, gameUUID string) (*domain.ChessGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	game, ok := m.gamesByUUID[gameUUID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return cloneGame(game), nil
}

// sorted returns matching games by EndedAt desc, falling back to ID desc.
func (m *memrepo) sorted(keep func(*domain.ChessGame) bool, limit int) []*domain.ChessGame {
	items := make([]*domain.ChessGame, 0, len(m.gamesByID))
	for _, g := range m.gamesByID {
		if keep(g) {
			items = append(items, cloneGame(g))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func cloneGame(g *domain.ChessGame) *domain.ChessGame {
	dup := *g
	dup.MovesUCI = append([]string(nil), g.MovesUCI...)
	dup.MovesNotation = append([]string(nil), g.MovesNotation...)
	dup.MovesSAN = append([]string(nil), g.MovesSAN...)
	return &dup
}
