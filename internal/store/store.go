package store

import (
	"context"
	"errors"

	"github.com/robalobadob/numguess/internal/game"
)

// ErrNotFound is returned by Get for unknown game IDs.
var ErrNotFound = errors.New("game not found")

// Store defines the persistence interface for game sessions.
// Implementations are backed by memory or SQL (this package).
type Store interface {
	// Save persists or updates a game state.
	Save(ctx context.Context, g *game.Game) error

	// Get retrieves a game by ID.
	// Returns ErrNotFound if the game does not exist.
	Get(ctx context.Context, id string) (*game.Game, error)

	// ListByUser returns up to limit games owned by userID, newest first.
	// A non-positive limit returns all of them.
	ListByUser(ctx context.Context, userID string, limit int) ([]*game.Game, error)

	// ClaimAnon transfers the games of an anonymous session to a user.
	ClaimAnon(ctx context.Context, anonID, userID string) error
}
