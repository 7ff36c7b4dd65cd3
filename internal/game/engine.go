// internal/game/engine.go
//
// Game engine for a single number guessing session.
// Responsibilities:
//   - Create new games over a closed, non-negative range.
//   - Offer the bisector's midpoint as the guess and apply the player's feedback.
//   - Track state transitions: playing → won/stalled/lost.
//   - Auto-play a whole game when the hidden number is known (Solve).
//
// Notes:
//   - The engine never holds the hidden number; Solve compares on the caller side.
//   - A game owns its bisector; games are independent of each other.

package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/numguess/internal/bisect"
)

var (
	// ErrInvalidRange wraps bisect.ErrInvalidRange and also covers low > high.
	ErrInvalidRange    = bisect.ErrInvalidRange
	ErrFinished        = errors.New("game finished")
	ErrInvalidFeedback = errors.New("invalid feedback")
)

// Option configures a new Game.
type Option func(*Game)

// WithMaxGuesses caps the number of guesses the engine may offer.
// Zero or negative means unlimited.
func WithMaxGuesses(n int) Option {
	return func(g *Game) {
		if n < 0 {
			n = 0
		}
		g.MaxGuesses = n
	}
}

// WithOwner attaches the game to a user or an anonymous session.
func WithOwner(userID, anonID string) Option {
	return func(g *Game) {
		g.UserID, g.AnonID = userID, anonID
	}
}

// New constructs a game over [low, high] and offers the first guess.
func New(low, high int, opts ...Option) (*Game, error) {
	if low > high {
		return nil, fmt.Errorf("%w: low %d is greater than high %d", ErrInvalidRange, low, high)
	}
	search := bisect.New()
	if err := search.InitializeRange(low, high); err != nil {
		return nil, err
	}
	first, err := search.CurrentGuess()
	if err != nil {
		return nil, err
	}

	g := &Game{
		ID:        uuid.NewString(),
		Low:       low,
		High:      high,
		Guesses:   []int{first},
		Feedback:  []Feedback{},
		Status:    StatusPlaying,
		StartedAt: time.Now().UTC(),
		search:    search,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Guess returns the guess currently on offer.
func (g *Game) Guess() int {
	return g.Guesses[len(g.Guesses)-1]
}

// Apply records feedback for the current guess and advances the search.
// Returns the guess now on offer and the resulting status.
//
// State transitions:
//   - correct → won.
//   - lower/greater that does not move the guess → stalled.
//   - guess cap reached without a win → lost.
func (g *Game) Apply(fb Feedback) (int, Status, error) {
	if g.Status.Finished() {
		return g.Guess(), g.Status, ErrFinished
	}

	var narrow func() error
	switch fb {
	case FeedbackCorrect:
		g.Feedback = append(g.Feedback, fb)
		g.finish(StatusWon)
		return g.Guess(), g.Status, nil
	case FeedbackLower:
		narrow = g.search.NarrowDown
	case FeedbackGreater:
		narrow = g.search.NarrowUp
	default:
		return g.Guess(), g.Status, fmt.Errorf("%w: %q", ErrInvalidFeedback, string(fb))
	}

	prev := g.Guess()
	if err := narrow(); err != nil {
		return prev, g.Status, err
	}
	next, err := g.search.CurrentGuess()
	if err != nil {
		return prev, g.Status, err
	}
	g.Feedback = append(g.Feedback, fb)

	switch {
	case next == prev:
		g.finish(StatusStalled)
	case g.MaxGuesses > 0 && len(g.Guesses) >= g.MaxGuesses:
		g.finish(StatusLost)
	default:
		g.Guesses = append(g.Guesses, next)
	}
	return g.Guess(), g.Status, nil
}

// Remaining reports the candidate range still being searched.
func (g *Game) Remaining() (low, high int) {
	low, high, _ = g.search.Bounds()
	return low, high
}

func (g *Game) finish(s Status) {
	g.Status = s
	g.FinishedAt = time.Now().UTC()
}

// Compare returns the feedback a player who knows hidden would give for guess.
func Compare(hidden, guess int) Feedback {
	switch {
	case hidden < guess:
		return FeedbackLower
	case hidden > guess:
		return FeedbackGreater
	default:
		return FeedbackCorrect
	}
}

// Solve plays a whole game over [low, high] against a known hidden number.
// The returned game is finished: won, stalled, or lost.
func Solve(low, high, hidden int, opts ...Option) (*Game, error) {
	g, err := New(low, high, opts...)
	if err != nil {
		return nil, err
	}
	for !g.Status.Finished() {
		if _, _, err := g.Apply(Compare(hidden, g.Guess())); err != nil {
			return g, err
		}
	}
	return g, nil
}

// Record returns the persistable form of g.
func (g *Game) Record() Record {
	curLow, curHigh := g.Remaining()
	return Record{
		ID:         g.ID,
		Low:        g.Low,
		High:       g.High,
		CurLow:     curLow,
		CurHigh:    curHigh,
		MaxGuesses: g.MaxGuesses,
		Guesses:    append([]int(nil), g.Guesses...),
		Feedback:   append([]Feedback(nil), g.Feedback...),
		Status:     g.Status,
		UserID:     g.UserID,
		AnonID:     g.AnonID,
		StartedAt:  g.StartedAt,
		FinishedAt: g.FinishedAt,
	}
}

// Restore rebuilds a Game from its Record.
// The bisector is re-initialized on the remaining bounds, which re-derives the guess.
func Restore(r Record) (*Game, error) {
	if r.ID == "" {
		return nil, errors.New("restore: empty game id")
	}
	if len(r.Guesses) == 0 {
		return nil, fmt.Errorf("restore %s: no guesses recorded", r.ID)
	}
	search := bisect.New()
	if err := search.InitializeRange(r.CurLow, r.CurHigh); err != nil {
		return nil, fmt.Errorf("restore %s: %w", r.ID, err)
	}
	status := r.Status
	if status == "" {
		status = StatusPlaying
	}
	if status == StatusPlaying {
		guess, err := search.CurrentGuess()
		if err != nil {
			return nil, fmt.Errorf("restore %s: %w", r.ID, err)
		}
		if last := r.Guesses[len(r.Guesses)-1]; guess != last {
			return nil, fmt.Errorf("restore %s: bounds [%d, %d] do not match guess %d", r.ID, r.CurLow, r.CurHigh, last)
		}
	}
	feedback := append([]Feedback{}, r.Feedback...)
	return &Game{
		ID:         r.ID,
		Low:        r.Low,
		High:       r.High,
		MaxGuesses: r.MaxGuesses,
		Guesses:    append([]int(nil), r.Guesses...),
		Feedback:   feedback,
		Status:     status,
		UserID:     r.UserID,
		AnonID:     r.AnonID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		search:     search,
	}, nil
}
