// Command retreat is the terminal companion for the winter retreat.
package main

import (
	"os"

	"github.com/roach88/retreat/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
