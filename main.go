// numguess: a binary-search number guessing engine with a CLI and an HTTP/WebSocket server.
package main

import (
	"os"

	"github.com/robalobadob/numguess/cmd"
)

func main() {
	os.Exit(cmd.Run())
}
