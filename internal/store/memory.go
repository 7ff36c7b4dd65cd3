// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used for ephemeral game sessions,
// primarily in development/testing, or when durability is not required.
//
// Characteristics:
//   - Stores game.Record values keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Get returns a fresh *game.Game; callers never alias stored state.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/robalobadob/numguess/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex           // guards games map
	games map[string]game.Record // keyed by Game.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[string]game.Record)}
}

// Save adds or updates the game in the map.
func (m *memory) Save(ctx context.Context, g *game.Game) error {
	rec := g.Record()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[rec.ID] = rec
	return nil
}

// Get looks up a game by ID.
func (m *memory) Get(ctx context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	rec, ok := m.games[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return game.Restore(rec)
}

// ListByUser returns a user's games, most recent first.
func (m *memory) ListByUser(ctx context.Context, userID string, limit int) ([]*game.Game, error) {
	m.mu.RLock()
	var recs []game.Record
	for _, rec := range m.games {
		if rec.UserID == userID {
			recs = append(recs, rec)
		}
	}
	m.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].StartedAt.After(recs[j].StartedAt) })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	out := make([]*game.Game, 0, len(recs))
	for _, rec := range recs {
		g, err := game.Restore(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// ClaimAnon moves every game of an anonymous session to userID.
func (m *memory) ClaimAnon(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, rec := range m.games {
		if rec.AnonID == anonID {
			rec.UserID, rec.AnonID = userID, ""
			m.games[id] = rec
		}
	}
	return nil
}
