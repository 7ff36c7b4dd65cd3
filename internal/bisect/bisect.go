// internal/bisect/bisect.go
//
// Range bisector for the number guessing engine.
// Responsibilities:
//   - Track the remaining candidate range [low, high] and its midpoint.
//   - Offer the midpoint as the current guess.
//   - Narrow the range downward or upward on feedback.
//
// Notes:
//   - The midpoint is always derived from the bounds (round half up).
//   - The bisector never sees the hidden number; callers compare and decide.
//   - Not safe for concurrent use; each game owns its own Bisector.

package bisect

import "fmt"

// state is the two-state tag guarding every operation.
type state uint8

const (
	stateUninitialized state = iota
	stateSearching
)

// Bisector holds the search state of a single game.
// The zero value is ready to use and uninitialized.
type Bisector struct {
	low   int
	high  int
	mid   int
	state state
}

// New returns an uninitialized Bisector.
func New() *Bisector {
	return &Bisector{}
}

// InitializeRange sets the closed range [low, high] and recomputes the guess.
// Both bounds must be non-negative; on error the previous state is kept.
// An inverted range (low > high) is accepted as is.
// Calling it again starts a fresh search.
func (b *Bisector) InitializeRange(low, high int) error {
	if low < 0 {
		return fmt.Errorf("%w: low %d should be >= 0", ErrInvalidRange, low)
	}
	if high < 0 {
		return fmt.Errorf("%w: high %d should be >= 0", ErrInvalidRange, high)
	}
	b.low, b.high = low, high
	b.mid = roundedMean(b.low, b.high)
	b.state = stateSearching
	return nil
}

// CurrentGuess returns the midpoint of the remaining range.
func (b *Bisector) CurrentGuess() (int, error) {
	if err := b.checkInitialized("CurrentGuess"); err != nil {
		return 0, err
	}
	return b.mid, nil
}

// NarrowDown is called when the hidden number is less than the current guess.
func (b *Bisector) NarrowDown() error {
	if err := b.checkInitialized("NarrowDown"); err != nil {
		return err
	}
	b.high = b.mid
	b.mid = roundedMean(b.low, b.high)
	return nil
}

// NarrowUp is called when the hidden number is greater than the current guess.
func (b *Bisector) NarrowUp() error {
	if err := b.checkInitialized("NarrowUp"); err != nil {
		return err
	}
	b.low = b.mid
	b.mid = roundedMean(b.low, b.high)
	return nil
}

// Bounds reports the remaining range.
func (b *Bisector) Bounds() (low, high int, err error) {
	if err := b.checkInitialized("Bounds"); err != nil {
		return 0, 0, err
	}
	return b.low, b.high, nil
}

// Initialized reports whether a range has been set.
func (b *Bisector) Initialized() bool {
	return b.state == stateSearching
}

// Converged reports whether both narrowing directions are no-ops.
func (b *Bisector) Converged() bool {
	return b.state == stateSearching && b.low == b.high
}

func (b *Bisector) checkInitialized(op string) error {
	if b.state != stateSearching {
		return fmt.Errorf("%w: call InitializeRange before %s", ErrNotInitialized, op)
	}
	return nil
}

// roundedMean returns round((low+high)/2) with halves rounded up.
// Both arguments are non-negative, so halving each first cannot overflow.
func roundedMean(low, high int) int {
	return low/2 + high/2 + (low%2+high%2+1)/2
}
