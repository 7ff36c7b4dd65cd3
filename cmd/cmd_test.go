package cmd

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/google/go-cmdtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var update = flag.Bool("update", false, "update test files with results")

func TestCLI(t *testing.T) {
	ts, err := cmdtest.Read("testdata")
	if err != nil {
		t.Fatal(err)
	}
	ts.Commands["numguess"] = cmdtest.InProcessProgram("numguess", Run)
	ts.Run(t, *update)
}

func play(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetIn(strings.NewReader(input))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"play"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestPlayWins(t *testing.T) {
	out, err := play(t, "greater\n>\nlower\nl\ncorrect\n", "--low", "0", "--high", "22")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"Think of a number between 0 and 22.",
		"Is it 11? [lower/greater/correct] " +
			"Is it 17? [lower/greater/correct] " +
			"Is it 20? [lower/greater/correct] " +
			"Is it 19? [lower/greater/correct] " +
			"Is it 18? [lower/greater/correct] " +
			"won in 5 guesses: 18",
		"",
	}, "\n"), out)
}

func TestPlayRepromptsOnBadAnswer(t *testing.T) {
	out, err := play(t, "maybe\n\nc\n", "--low", "10", "--high", "20")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Please answer lower, greater, or correct."))
	assert.Equal(t, 3, strings.Count(out, "Is it 15?"))
	assert.True(t, strings.HasSuffix(out, "won in 1 guess: 15\n"), out)
}

func TestPlayStallsOnContradiction(t *testing.T) {
	// Over [3, 4] the guess is 4 and "lower" keeps it at 4.
	out, err := play(t, "lower\n", "--low", "3", "--high", "4")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "Is it 4?"))
	assert.True(t, strings.HasSuffix(out, "stalled after 1 guess: guess cannot move, stuck at 4\n"), out)
}

func TestPlayMaxGuesses(t *testing.T) {
	out, err := play(t, "g\ng\ng\n", "--high", "1000", "--max-guesses", "2")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "lost: out of guesses after 2\n"), out)
}

func TestPlayInputClosed(t *testing.T) {
	_, err := play(t, "greater\n", "--low", "0", "--high", "22")
	assert.ErrorIs(t, err, errInputClosed)
}

func TestPlayInvalidRange(t *testing.T) {
	_, err := play(t, "", "--low", "9", "--high", "2")
	assert.ErrorContains(t, err, "invalid range")
}
