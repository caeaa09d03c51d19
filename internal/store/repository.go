// Package store persists save games: a session code mapped to the game
// config and the table it produced.
package store

import (
	"context"
	"errors"

	"github.com/DoyleJ11/rrt-logic/internal/engine"
)

var (
	ErrNotFound = errors.New("save game not found")
	ErrNoState  = errors.New("save game has no table state")
)

// Game is one saved session. Version counts settled choices.
type Game struct {
	Code    string
	Seed    uint64
	Version int
	Config  engine.GameConfig
	State   *engine.TableState
}

// Repository is the persistence port used by lobbies and the HTTP layer.
type Repository interface {
	Save(ctx context.Context, g Game) error
	Load(ctx context.Context, code string) (Game, error)
	Delete(ctx context.Context, code string) error
}
