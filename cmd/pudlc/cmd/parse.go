package cmd

import (
	"fmt"
	"os"

	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/errors"
	"github.com/pudl-lang/pudlc/internal/parser"
	"github.com/spf13/cobra"
)

var parseEval string

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse Pudl source and print the AST",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseEval, "eval", "e", "", "parse inline source instead of reading a file")
}

func runParse(_ *cobra.Command, args []string) error {
	source, filename, err := readSource(parseEval, args)
	if err != nil {
		return err
	}

	var errs []*errors.CompilerError
	switch dialect {
	case "typed":
		p := parser.NewTyped(source, filename)
		prog := p.ParseProgram()
		errs = p.Errors()
		if len(errs) == 0 {
			fmt.Println(ast.PrintAST(prog))
		}
	case "expr":
		p := parser.NewExpr(source, filename)
		for !p.AtEOF() {
			item := p.ParseNextItem()
			if item != nil {
				fmt.Println(item.String())
			}
		}
		errs = p.Errors()
	default:
		return fmt.Errorf("unknown --dialect %q (want \"typed\" or \"expr\")", dialect)
	}

	if len(errs) > 0 {
		fmt.Fprint(os.Stderr, errors.FormatErrors(errs))
		return fmt.Errorf("parsing failed with %d error(s)", len(errs))
	}
	return nil
}
