// Command records runs YAML scenarios against ordered maps and scoped
// records, and installs fixture packs pinned in records.lock.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const cliToolVersion = "records-cli 0.1.0"

const (
	exitOK       = 0
	exitFailures = 1
	exitError    = 2
)

var errFixturesFailed = errors.New("fixtures failed")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errFixturesFailed):
		return exitFailures
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}
