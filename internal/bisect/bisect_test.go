package bisect_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/numguess/internal/bisect"
)

func TestCurrentGuessIsRoundedMean(t *testing.T) {
	tests := []struct {
		low, high int
		expect    int
	}{
		{0, 0, 0},
		{0, 1, 1},
		{0, 22, 11},
		{3, 4, 4},
		{1, 2, 2},
		{2, 2, 2},
		{5, 10, 8},
		{10, 5, 8}, // inverted range is accepted
		{0, 100, 50},
		{7, 8, 8},
		{math.MaxInt, math.MaxInt, math.MaxInt},
		{math.MaxInt - 1, math.MaxInt, math.MaxInt},
	}

	for _, test := range tests {
		b := bisect.New()
		require.NoError(t, b.InitializeRange(test.low, test.high))
		guess, err := b.CurrentGuess()
		require.NoError(t, err)
		assert.Equal(t, test.expect, guess, "range [%d, %d]", test.low, test.high)
	}
}

func TestRoundedMeanExhaustive(t *testing.T) {
	for low := 0; low <= 64; low++ {
		for high := low; high <= 64; high++ {
			b := bisect.New()
			require.NoError(t, b.InitializeRange(low, high))
			guess, err := b.CurrentGuess()
			require.NoError(t, err)
			expect := int(math.Floor(float64(low+high)/2 + 0.5))
			if guess != expect {
				t.Fatalf("range [%d, %d]: expected %d, got %d", low, high, expect, guess)
			}
		}
	}
}

func TestNotInitialized(t *testing.T) {
	assert := assert.New(t)
	b := bisect.New()

	_, err := b.CurrentGuess()
	assert.ErrorIs(err, bisect.ErrNotInitialized)
	assert.ErrorIs(b.NarrowDown(), bisect.ErrNotInitialized)
	assert.ErrorIs(b.NarrowUp(), bisect.ErrNotInitialized)
	_, _, err = b.Bounds()
	assert.ErrorIs(err, bisect.ErrNotInitialized)
	assert.False(b.Initialized())
	assert.False(b.Converged())

	var zero bisect.Bisector
	_, err = zero.CurrentGuess()
	assert.ErrorIs(err, bisect.ErrNotInitialized)
}

func TestInvalidRange(t *testing.T) {
	assert := assert.New(t)
	b := bisect.New()

	assert.ErrorIs(b.InitializeRange(-1, 10), bisect.ErrInvalidRange)
	assert.ErrorIs(b.InitializeRange(5, -1), bisect.ErrInvalidRange)
	assert.ErrorIs(b.InitializeRange(-3, -3), bisect.ErrInvalidRange)
	assert.False(b.Initialized(), "failed init must not initialize")

	require.NoError(t, b.InitializeRange(0, 22))
	require.NoError(t, b.NarrowUp())

	// A failed reset leaves the running search untouched.
	assert.ErrorIs(b.InitializeRange(-1, 100), bisect.ErrInvalidRange)
	low, high, err := b.Bounds()
	require.NoError(t, err)
	assert.Equal(11, low)
	assert.Equal(22, high)
	guess, err := b.CurrentGuess()
	require.NoError(t, err)
	assert.Equal(17, guess)
}

func TestScenarioHidden18(t *testing.T) {
	assert := assert.New(t)
	b := bisect.New()
	require.NoError(t, b.InitializeRange(0, 22))

	steps := []struct {
		narrow func() error
		expect int
	}{
		{nil, 11},
		{b.NarrowUp, 17},
		{b.NarrowUp, 20},
		{b.NarrowDown, 19},
		{b.NarrowDown, 18},
	}
	for i, step := range steps {
		if step.narrow != nil {
			require.NoError(t, step.narrow())
		}
		guess, err := b.CurrentGuess()
		require.NoError(t, err)
		assert.Equal(step.expect, guess, "step %d", i)
	}
}

func TestInvariantHoldsWhileNarrowing(t *testing.T) {
	// Every narrowing pattern of length 12 over a few ranges.
	ranges := [][2]int{{0, 22}, {0, 1}, {5, 5}, {0, 1000}, {17, 4096}}
	for _, r := range ranges {
		for pattern := 0; pattern < 1<<12; pattern++ {
			b := bisect.New()
			require.NoError(t, b.InitializeRange(r[0], r[1]))
			for i := 0; i < 12; i++ {
				if pattern&(1<<i) != 0 {
					require.NoError(t, b.NarrowUp())
				} else {
					require.NoError(t, b.NarrowDown())
				}
				low, high, err := b.Bounds()
				require.NoError(t, err)
				guess, err := b.CurrentGuess()
				require.NoError(t, err)
				if low > guess || guess > high {
					t.Fatalf("range %v pattern %b step %d: %d <= %d <= %d violated", r, pattern, i, low, guess, high)
				}
				if low < r[0] || high > r[1] {
					t.Fatalf("range %v pattern %b step %d: bounds [%d, %d] escaped", r, pattern, i, low, high)
				}
			}
		}
	}
}

func TestConvergenceIsFixedPoint(t *testing.T) {
	assert := assert.New(t)
	b := bisect.New()
	require.NoError(t, b.InitializeRange(7, 7))
	assert.True(b.Converged())

	for i := 0; i < 5; i++ {
		require.NoError(t, b.NarrowDown())
		require.NoError(t, b.NarrowUp())
	}
	low, high, err := b.Bounds()
	require.NoError(t, err)
	guess, err := b.CurrentGuess()
	require.NoError(t, err)
	assert.Equal([3]int{7, 7, 7}, [3]int{low, high, guess})

	// Narrowing up repeatedly from a real range reaches the upper bound and stays.
	require.NoError(t, b.InitializeRange(0, 22))
	for i := 0; i < 10; i++ {
		require.NoError(t, b.NarrowUp())
	}
	assert.True(b.Converged())
	guess, err = b.CurrentGuess()
	require.NoError(t, err)
	assert.Equal(22, guess)
}

func TestReinitializeResets(t *testing.T) {
	assert := assert.New(t)
	b := bisect.New()
	require.NoError(t, b.InitializeRange(0, 22))
	for i := 0; i < 10; i++ {
		require.NoError(t, b.NarrowUp())
	}
	require.True(t, b.Converged())

	require.NoError(t, b.InitializeRange(100, 200))
	assert.False(b.Converged())
	low, high, err := b.Bounds()
	require.NoError(t, err)
	assert.Equal(100, low)
	assert.Equal(200, high)
	guess, err := b.CurrentGuess()
	require.NoError(t, err)
	assert.Equal(150, guess)

	fresh := bisect.New()
	require.NoError(t, fresh.InitializeRange(100, 200))
	require.NoError(t, fresh.NarrowDown())
	require.NoError(t, b.NarrowDown())
	freshGuess, _ := fresh.CurrentGuess()
	guess, _ = b.CurrentGuess()
	assert.Equal(freshGuess, guess)
}
