package cmd

import (
	"fmt"
	"os"

	"github.com/pudl-lang/pudlc/internal/driver"
	"github.com/spf13/cobra"
)

var (
	compileEval        string
	compileOptLevel    string
	compileDumpAST     bool
	compileDumpIR      bool
	compileDisassemble bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a typed-dialect Pudl program to textual IR",
	Long: `Compile a typed-dialect Pudl program through codegen and the
optimization pipeline, emitting the result as textual IR.
Object-file/linked-executable emission is out of scope for this
reference backend (internal/ir/refir.Builder.EmitObject); use "run" to
execute the module instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVarP(&compileEval, "eval", "e", "", "compile inline source instead of reading a file")
	compileCmd.Flags().StringVarP(&compileOptLevel, "opt", "O", "O0", `optimization level: "O0".."O6", "ONone", "Oall"`)
	compileCmd.Flags().BoolVar(&compileDumpAST, "dump-ast", false, "print the parsed AST before code generation")
	compileCmd.Flags().BoolVar(&compileDumpIR, "dump-ir", true, "print the generated IR")
	compileCmd.Flags().BoolVar(&compileDisassemble, "disassemble", false, "alias for --dump-ir")
}

func runCompile(cmd *cobra.Command, args []string) error {
	source, filename, err := readSource(compileEval, args)
	if err != nil {
		return err
	}
	debug, _ := cmd.Flags().GetBool("debug")

	opts := driver.Options{
		OptLevel:    compileOptLevel,
		DumpAST:     compileDumpAST,
		DumpIR:      compileDumpIR || compileDisassemble,
		Disassemble: compileDisassemble,
		Debug:       debug,
		Out:         os.Stdout,
		Err:         os.Stderr,
	}

	if dialect != "typed" {
		return fmt.Errorf(`pudlc compile: --dialect=expr has no module to compile ahead of time; use "pudlc run --dialect=expr"`)
	}
	// compile never executes the module; it stops after codegen and the
	// optimization pipeline.
	return driver.Compile(source, filename, opts)
}
