// Package cmd holds the numguess command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Run executes the command line in os.Args and returns the process exit code.
func Run() int {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// newRootCmd builds a fresh command tree, so flag values never leak between runs.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "numguess",
		Short: "Guess a hidden number by bisecting a range",
		Long: `numguess narrows a closed range of non-negative integers with
lower/greater/correct answers until it finds the hidden number.

Play against it in the terminal, let it solve a known number, or serve
games over HTTP and WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newPlayCmd(), newSolveCmd())
	return root
}

// rangeFlags are shared by play and solve.
type rangeFlags struct {
	low, high  int
	maxGuesses int
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.low, "low", 0, "lowest possible number (inclusive)")
	fs.IntVar(&f.high, "high", 100, "highest possible number (inclusive)")
	fs.IntVar(&f.maxGuesses, "max-guesses", 0, "give up after this many guesses (0 = unlimited)")
	fs.SetNormalizeFunc(wordSepNormalize)
}

// wordSepNormalize lets --max_guesses and --max.guesses mean --max-guesses.
func wordSepNormalize(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.NewReplacer("_", "-", ".", "-").Replace(name))
}
