// internal/httpserver/routes_game.go
//
// HTTP routes for playing against the guessing engine.
//   - POST /game/new      → start a game over [low, high]; returns the first guess
//   - POST /game/feedback → answer the current guess (lower/greater/correct)
//   - GET  /game/{id}     → current view of a game
//   - POST /game/solve    → auto-play a whole game against a known hidden number
//
// The engine never learns the hidden number in interactive play: the player
// compares and answers. Games are loaded, mutated, and saved under a per-ID lock.
// A game is only visible to its owner (user or anonymous session); anyone else
// gets not_found.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/numguess/internal/game"
	"github.com/robalobadob/numguess/internal/store"
)

var errRangeTooLarge = errors.New("range too large")

// gameView is the JSON shape of a game returned by every game endpoint.
type gameView struct {
	GameID     string          `json:"gameId"`
	Low        int             `json:"low"`
	High       int             `json:"high"`
	Guess      int             `json:"guess"`
	State      game.Status     `json:"state"`
	Guesses    []int           `json:"guesses"`
	Feedback   []game.Feedback `json:"feedback"`
	Remaining  [2]int          `json:"remaining"`
	MaxGuesses int             `json:"maxGuesses,omitempty"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
}

func viewOf(g *game.Game) *gameView {
	low, high := g.Remaining()
	v := &gameView{
		GameID:     g.ID,
		Low:        g.Low,
		High:       g.High,
		Guess:      g.Guess(),
		State:      g.Status,
		Guesses:    g.Guesses,
		Feedback:   g.Feedback,
		Remaining:  [2]int{low, high},
		MaxGuesses: g.MaxGuesses,
		StartedAt:  g.StartedAt,
	}
	if !g.FinishedAt.IsZero() {
		t := g.FinishedAt
		v.FinishedAt = &t
	}
	return v
}

// ------------------------------ shared ops ---------------------------------

// startGame validates the range against server limits, creates and saves a game.
func (s *Server) startGame(ctx context.Context, low, high, maxGuesses int, userID, anonID string) (*game.Game, error) {
	if s.cfg.MaxRange > 0 && high-low > s.cfg.MaxRange {
		return nil, fmt.Errorf("%w: width %d exceeds %d", errRangeTooLarge, high-low, s.cfg.MaxRange)
	}
	g, err := game.New(low, high,
		game.WithMaxGuesses(s.guessCap(maxGuesses)),
		game.WithOwner(userID, anonID),
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("save game: %w", err)
	}
	return g, nil
}

// guessCap picks the requested cap when it is tighter than the server's.
func (s *Server) guessCap(requested int) int {
	limit := s.cfg.MaxGuesses
	if requested > 0 && (limit == 0 || requested < limit) {
		return requested
	}
	return limit
}

// loadOwned fetches a game and hides it from callers who do not own it.
func (s *Server) loadOwned(ctx context.Context, id, userID, anonID string) (*game.Game, error) {
	g, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownedBy(g, userID, anonID) {
		return nil, fmt.Errorf("game %s: %w", id, store.ErrNotFound)
	}
	return g, nil
}

// ownedBy reports whether the caller identified by userID or anonID owns g.
// Games of a user are never visible through an anonymous session.
func ownedBy(g *game.Game, userID, anonID string) bool {
	if g.UserID != "" {
		return g.UserID == userID
	}
	return g.AnonID != "" && g.AnonID == anonID
}

// applyFeedback loads the caller's game, applies fb, saves it, and updates the
// owner's stats when the game just finished.
func (s *Server) applyFeedback(ctx context.Context, id, userID, anonID string, fb game.Feedback) (*game.Game, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	g, err := s.loadOwned(ctx, id, userID, anonID)
	if err != nil {
		return nil, err
	}
	if _, _, err := g.Apply(fb); err != nil {
		return g, err
	}
	if err := s.store.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("save game: %w", err)
	}
	if g.Status.Finished() && g.UserID != "" {
		// Best effort: the game itself is already saved.
		if err := s.bumpStats(ctx, g); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("user", g.UserID).Msg("bump stats")
		}
	}
	return g, nil
}

// ------------------------------ handlers -----------------------------------

type newGameReq struct {
	Low        *int `json:"low"`
	High       *int `json:"high"`
	MaxGuesses int  `json:"maxGuesses"`
}

// handleNewGame creates a game owned by the current user or anonymous session.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.Low == nil || req.High == nil {
		writeError(w, http.StatusBadRequest, "low_and_high_required")
		return
	}

	userID, anonID := s.owner(w, r)
	g, err := s.startGame(r.Context(), *req.Low, *req.High, req.MaxGuesses, userID, anonID)
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	hlog.FromRequest(r).Debug().Str("gameId", g.ID).Int("low", g.Low).Int("high", g.High).Msg("game started")
	writeJSON(w, http.StatusOK, viewOf(g))
}

type feedbackReq struct {
	GameID string `json:"gameId"`
	Answer string `json:"answer"`
}

// handleFeedback answers the current guess of a game.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	fb, err := game.ParseFeedback(req.Answer)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_feedback")
		return
	}
	userID, anonID := s.owner(w, r)
	g, err := s.applyFeedback(r.Context(), req.GameID, userID, anonID, fb)
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g))
}

// handleGetGame returns the current view of one of the caller's games.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	userID, anonID := s.owner(w, r)
	g, err := s.loadOwned(r.Context(), chi.URLParam(r, "id"), userID, anonID)
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(g))
}

type solveReq struct {
	Low        *int `json:"low"`
	High       *int `json:"high"`
	Hidden     *int `json:"hidden"`
	MaxGuesses int  `json:"maxGuesses"`
}

type solveRes struct {
	Low      int             `json:"low"`
	High     int             `json:"high"`
	Hidden   int             `json:"hidden"`
	Guesses  []int           `json:"guesses"`
	Feedback []game.Feedback `json:"feedback"`
	State    game.Status     `json:"state"`
}

// handleSolve plays a full game on the server side. Nothing is persisted.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.Low == nil || req.High == nil || req.Hidden == nil {
		writeError(w, http.StatusBadRequest, "low_high_and_hidden_required")
		return
	}
	if s.cfg.MaxRange > 0 && *req.High-*req.Low > s.cfg.MaxRange {
		s.writeGameError(w, r, errRangeTooLarge)
		return
	}
	g, err := game.Solve(*req.Low, *req.High, *req.Hidden, game.WithMaxGuesses(s.guessCap(req.MaxGuesses)))
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, solveRes{
		Low:      g.Low,
		High:     g.High,
		Hidden:   *req.Hidden,
		Guesses:  g.Guesses,
		Feedback: g.Feedback,
		State:    g.Status,
	})
}

// writeGameError maps engine/store errors onto HTTP statuses.
func (s *Server) writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "invalid_range")
	case errors.Is(err, errRangeTooLarge):
		writeError(w, http.StatusBadRequest, "range_too_large")
	case errors.Is(err, game.ErrInvalidFeedback):
		writeError(w, http.StatusBadRequest, "invalid_feedback")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, game.ErrFinished):
		writeError(w, http.StatusConflict, "game_finished")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("game request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
