package cmd

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robalobadob/numguess/internal/game"
)

var errInputClosed = errors.New("input closed before the game finished")

func newPlayCmd() *cobra.Command {
	var rf rangeFlags
	cmd := &cobra.Command{
		Use:   "play [--low L] [--high H]",
		Short: "Think of a number and let the engine guess it",
		Long: `Think of a number in [low, high]. For each guess answer
  lower   (l, <, -)  the number is smaller
  greater (g, >, +)  the number is bigger
  correct (c, =, y)  that's it`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := game.New(rf.low, rf.high, game.WithMaxGuesses(rf.maxGuesses))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())

			fmt.Fprintf(out, "Think of a number between %d and %d.\n", g.Low, g.High)
			for !g.Status.Finished() {
				fmt.Fprintf(out, "Is it %d? [lower/greater/correct] ", g.Guess())
				if !in.Scan() {
					fmt.Fprintln(out)
					if err := in.Err(); err != nil {
						return err
					}
					return errInputClosed
				}
				fb, err := game.ParseFeedback(in.Text())
				if err != nil {
					fmt.Fprintln(out, "Please answer lower, greater, or correct.")
					continue
				}
				if _, _, err := g.Apply(fb); err != nil {
					return err
				}
			}
			fmt.Fprintln(out, outcome(g))
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}
