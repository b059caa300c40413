package cmd

import (
	"fmt"
	"os"

	"github.com/pudl-lang/pudlc/internal/driver"
	"github.com/pudl-lang/pudlc/internal/srcreader"
	"github.com/spf13/cobra"
)

var (
	runEval        string
	runOptLevel    string
	runDumpAST     bool
	runDumpIR      bool
	runDisassemble bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Compile and execute a Pudl program",
	Long: `Run a Pudl program end to end.

For the typed dialect (the default) this is the batch driving mode:
parse the whole file, codegen the module, optimize, then execute
it by calling its "mast" entry point and printing the result the way a
linked "main" thunk would.

For the expression dialect (--dialect=expr), with no file argument this
opens the REPL/top-level loop: one line read and evaluated at a time,
each "def" adding to the running module, each bare expression evaluated
immediately and its result printed. With a file argument, every
top-level item in the file is read and evaluated the same way, just
without interactive prompting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runEval, "eval", "e", "", "run inline source instead of reading a file")
	runCmd.Flags().StringVarP(&runOptLevel, "opt", "O", "O0", `optimization level: "O0".."O6", "ONone", "Oall"`)
	runCmd.Flags().BoolVar(&runDumpAST, "dump-ast", false, "print the parsed AST before code generation")
	runCmd.Flags().BoolVar(&runDumpIR, "dump-ir", false, "print the generated IR before executing")
	runCmd.Flags().BoolVar(&runDisassemble, "disassemble", false, "alias for --dump-ir")
}

func runRun(cmd *cobra.Command, args []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	opts := driver.Options{
		OptLevel:    runOptLevel,
		DumpAST:     runDumpAST,
		DumpIR:      runDumpIR || runDisassemble,
		Disassemble: runDisassemble,
		Debug:       debug,
		Out:         os.Stdout,
		Err:         os.Stderr,
	}

	switch dialect {
	case "typed":
		source, filename, err := readSource(runEval, args)
		if err != nil {
			return err
		}
		return driver.RunBatch(source, filename, opts)
	case "expr":
		return runExprDialect(args, opts)
	default:
		return fmt.Errorf("unknown --dialect %q (want \"typed\" or \"expr\")", dialect)
	}
}

func runExprDialect(args []string, opts driver.Options) error {
	if runEval != "" {
		return driver.RunExprBatch(runEval, "<eval>", opts)
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		return driver.RunExprBatch(string(data), args[0], opts)
	}

	fmt.Fprintln(os.Stdout, "pudlc> Pudl expression-dialect REPL. Ctrl-D to exit.")
	r, err := srcreader.NewReplReader("pudlc> ", "")
	if err != nil {
		return fmt.Errorf("failed to start REPL: %w", err)
	}
	defer r.Close()
	return driver.RunREPL(r, opts)
}
