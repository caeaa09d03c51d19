package store

import (
	"context"
	"sync"
)

// Memory keeps save games in process. It is the default when no database is
// configured.
type Memory struct {
	games map[string]Game
	mu    sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{games: make(map[string]Game)}
}

func (m *Memory) Save(_ context.Context, g Game) error {
	if g.State == nil {
		return ErrNoState
	}
	g.State = g.State.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.Code] = g
	return nil
}

func (m *Memory) Load(_ context.Context, code string) (Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[code]
	if !ok {
		return Game{}, ErrNotFound
	}
	g.State = g.State.Clone()
	return g, nil
}

func (m *Memory) Delete(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[code]; !ok {
		return ErrNotFound
	}
	delete(m.games, code)
	return nil
}
