package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version is set by build flags.
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

var dialect string

var rootCmd = &cobra.Command{
	Use:   "pudlc",
	Short: "Pudl compiler and expression-dialect REPL",
	Long: `pudlc is the front end for Pudl, a small statically-typed toy
language with two dialects: a C-like typed dialect (func/if/while/
do-while/print) and a Kaleidoscope-style expression dialect (def/
extern/if-then-else/for/var).`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("pudlc version {{.Version}}\nCommit: %s\n", GitCommit))
	rootCmd.PersistentFlags().StringVar(&dialect, "dialect", "typed", `source dialect: "typed" or "expr"`)
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "print verbose progress to stderr")
}
