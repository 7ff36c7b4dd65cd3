// internal/game/types.go
//
// Core type definitions for a number guessing game session.
// Defines:
//   - Feedback: the player's answer to a guess (lower/greater/correct).
//   - Status: coarse session state (playing/won/stalled/lost).
//   - Game: state for a single in-progress or finished game.
//   - Record: flat, persistable form of a Game.

package game

import (
	"strings"
	"time"

	"github.com/robalobadob/numguess/internal/bisect"
)

// Feedback is the answer given to the engine's current guess.
//   - "lower":   the hidden number is less than the guess.
//   - "greater": the hidden number is greater than the guess.
//   - "correct": the guess is the hidden number.
type Feedback string

const (
	FeedbackLower   Feedback = "lower"
	FeedbackGreater Feedback = "greater"
	FeedbackCorrect Feedback = "correct"
)

// ParseFeedback maps user input onto a Feedback value.
// Accepts full words, single letters, and the symbols < > = - +.
func ParseFeedback(s string) (Feedback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lower", "l", "less", "<", "-":
		return FeedbackLower, nil
	case "greater", "g", "higher", "h", "more", ">", "+":
		return FeedbackGreater, nil
	case "correct", "c", "yes", "y", "=":
		return FeedbackCorrect, nil
	}
	return "", ErrInvalidFeedback
}

// Status is the coarse state of a game session.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	// StatusStalled means narrowing no longer moves the guess: the feedback
	// was inconsistent or the hidden number is unreachable from this range.
	StatusStalled Status = "stalled"
	// StatusLost means the guess cap was reached without a win.
	StatusLost Status = "lost"
)

// Finished reports whether no further feedback is accepted.
func (s Status) Finished() bool { return s != StatusPlaying }

// Game holds the state of a single guessing session.
type Game struct {
	ID         string     // Unique game identifier (UUID).
	Low        int        // Lower bound the game started with.
	High       int        // Upper bound the game started with.
	MaxGuesses int        // Cap on offered guesses; 0 means unlimited.
	Guesses    []int      // Every guess offered so far, in order.
	Feedback   []Feedback // Answer given to each guess, aligned with Guesses.
	Status     Status     // playing | won | stalled | lost.
	UserID     string     // Owning user, if authenticated.
	AnonID     string     // Owning anonymous session, otherwise.
	StartedAt  time.Time
	FinishedAt time.Time // Zero while playing.

	search *bisect.Bisector
}

// Record is the persisted shape of a Game.
// The bisector is stored through its current bounds only; the guess is derived.
type Record struct {
	ID         string     `json:"id"`
	Low        int        `json:"low"`
	High       int        `json:"high"`
	CurLow     int        `json:"curLow"`
	CurHigh    int        `json:"curHigh"`
	MaxGuesses int        `json:"maxGuesses"`
	Guesses    []int      `json:"guesses"`
	Feedback   []Feedback `json:"feedback"`
	Status     Status     `json:"status"`
	UserID     string     `json:"userId,omitempty"`
	AnonID     string     `json:"anonId,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
}
