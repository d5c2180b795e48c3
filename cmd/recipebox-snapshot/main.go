// Command recipebox-snapshot inspects snapshot documents archived in a blob
// store: it lists them, checks their referential integrity and hands out
// download links.
package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes.
const (
	exitSuccess    = 0
	exitViolations = 1
	exitFailure    = 2
)

var exitFunc = os.Exit

func main() {
	exitFunc(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCmd(openBlobStore)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errViolations) {
			return exitViolations
		}
		return exitFailure
	}
	return exitSuccess
}
