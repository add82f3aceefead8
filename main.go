// The main package for the ljextractor executable.
package main

import (
	"github.com/y2cl/ljextractor/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
