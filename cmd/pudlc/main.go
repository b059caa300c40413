// Command pudlc is Pudl's compiler/interpreter front end: a cobra root
// command with one subcommand per pipeline stage.
package main

import (
	"fmt"
	"os"

	"github.com/pudl-lang/pudlc/cmd/pudlc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
