// Package main implements the command-line interface for pagecheck.
// It resolves run settings, loads the profile, runs the check suite against
// the fixture using the executor, and reports the results.
package main

import "os"

func main() {
	os.Exit(newCLI(os.Stdout, os.Stderr).Execute(os.Args[1:]))
}
