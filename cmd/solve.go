package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/robalobadob/numguess/internal/game"
)

func newSolveCmd() *cobra.Command {
	var (
		rf     rangeFlags
		hidden int
	)
	cmd := &cobra.Command{
		Use:   "solve --hidden N [--low L] [--high H]",
		Short: "Let the engine find a known hidden number",
		Example: `  numguess solve --low 0 --high 22 --hidden 18
  numguess solve --high 1000000 --hidden 4242 --max-guesses 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := game.Solve(rf.low, rf.high, hidden, game.WithMaxGuesses(rf.maxGuesses))
			if err != nil {
				return err
			}
			printTranscript(cmd.OutOrStdout(), g)
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().IntVar(&hidden, "hidden", 0, "the number to find")
	_ = cmd.MarkFlagRequired("hidden")
	return cmd
}

// printTranscript writes one line per guess followed by the outcome.
func printTranscript(w io.Writer, g *game.Game) {
	for i, guess := range g.Guesses {
		if i < len(g.Feedback) {
			fmt.Fprintf(w, "guess %d: %d (%s)\n", i+1, guess, g.Feedback[i])
		}
	}
	fmt.Fprintln(w, outcome(g))
}

func outcome(g *game.Game) string {
	n := len(g.Guesses)
	switch g.Status {
	case game.StatusWon:
		return fmt.Sprintf("won in %s: %d", guesses(n), g.Guess())
	case game.StatusStalled:
		return fmt.Sprintf("stalled after %s: guess cannot move, stuck at %d", guesses(n), g.Guess())
	case game.StatusLost:
		return fmt.Sprintf("lost: out of guesses after %d", n)
	}
	return string(g.Status)
}

func guesses(n int) string {
	if n == 1 {
		return "1 guess"
	}
	return fmt.Sprintf("%d guesses", n)
}
