package driver

import (
	"fmt"

	"github.com/pudl-lang/pudlc/internal/ast"
	"github.com/pudl-lang/pudlc/internal/codegen"
	"github.com/pudl-lang/pudlc/internal/errors"
	"github.com/pudl-lang/pudlc/internal/ir/refir"
	"github.com/pudl-lang/pudlc/internal/parser"
	"github.com/pudl-lang/pudlc/internal/passes"
)

// buildTypedModule parses, codegens, and optimizes a whole typed-dialect
// translation unit, the part of the Batch driving mode shared by
// "compile" (stop here) and "run" (go on to execute).
func buildTypedModule(source, file string, opts Options) (*refir.Builder, error) {
	p := parser.NewTyped(source, file)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, reportParseErrors(opts, errs)
	}

	if opts.DumpAST {
		fmt.Fprintln(opts.Out, ast.PrintAST(prog))
	}

	b := refir.NewBuilder()
	g := codegen.New(b)
	if err := g.GenTypedProgram(prog); err != nil {
		fmt.Fprintf(opts.Err, "ERROR@IR: %s\n", err)
		return nil, fmt.Errorf("codegen failed")
	}
	opts.debugf("codegen: %d function(s) lowered\n", len(b.Functions))

	levelPasses := passes.ForLevel(opts.OptLevel)
	opts.debugf("optimizer: level %s enables %d pass(es)\n", opts.OptLevel, len(levelPasses))
	for _, pass := range levelPasses {
		b.AddPass(pass)
	}
	b.InitPasses()
	for _, fn := range b.Functions {
		b.RunPasses(fn)
	}
	return b, nil
}

// Compile implements the typed dialect's "compile" command: build the
// module and emit its textual IR, without executing it.
func Compile(source, file string, opts Options) error {
	b, err := buildTypedModule(source, file, opts)
	if err != nil {
		return err
	}
	if opts.DumpIR || opts.Disassemble {
		return b.Dump(opts.Out)
	}
	return nil
}

// RunBatch implements the typed dialect's Batch driving mode all the way
// through execution: build the module, then hand it to the Executor.
// When the module defines `mast`, its result is reported the way an
// emitted `main` thunk would.
func RunBatch(source, file string, opts Options) error {
	b, err := buildTypedModule(source, file, opts)
	if err != nil {
		return err
	}

	if opts.DumpIR || opts.Disassemble {
		if err := b.Dump(opts.Out); err != nil {
			return err
		}
	}

	exec := refir.NewExec(b)
	exec.Print = func(v float64, isFloat bool) {
		if isFloat {
			fmt.Fprintf(opts.Out, "%f\n", v)
		} else {
			fmt.Fprintf(opts.Out, "%d\n", int64(v))
		}
	}
	result, err := exec.CallFunction(entryPointName, nil)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	reportResult(opts.Out, result, true)
	return nil
}

func reportParseErrors(opts Options, errs []*errors.CompilerError) error {
	fmt.Fprint(opts.Err, errors.FormatErrors(errs))
	return fmt.Errorf("parsing failed with %d error(s)", len(errs))
}
