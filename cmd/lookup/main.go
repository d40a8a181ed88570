// Command lookup searches the roster sheet for one ITS ID from a terminal.
//
//	lookup 1001
//	lookup --json 1001
//	lookup --file roster.csv 1001
//
// The exit status is 0 when the ID was found and 1 otherwise.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	dotenvErr = godotenv.Load()

	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errNoMatch) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
