// Package driver orchestrates the top-level items a front end produces
// into a running program, in two driving modes: a
// Batch driver for the typed dialect's whole-module compile, and a
// REPL/top-level driver for the expression dialect's one-item-at-a-time
// loop. It is the glue between internal/parser, internal/codegen,
// internal/ir/refir and internal/passes — the concrete wiring the
// abstract IR Builder contract (internal/ir) leaves up to a caller.
package driver

import (
	"fmt"
	"io"
	"math"
)

// Options configures a driver run. The zero value is a sane default: no
// optimization, no IR dump, no disassembly.
type Options struct {
	OptLevel    string // "O0".."O6", "ONone", "Oall"; see internal/passes.ForLevel
	DumpAST     bool
	DumpIR      bool
	Disassemble bool
	Debug       bool
	Out         io.Writer
	Err         io.Writer
}

func (o Options) debugf(format string, args ...interface{}) {
	if o.Debug {
		fmt.Fprintf(o.Err, format, args...)
	}
}

// entryPointName is the typed-dialect's distinguished entry function:
// RunBatch calls it directly and prints its result the way a linked
// `main` thunk would; no `main` function is generated.
const entryPointName = "mast"

// reportResult prints a call result the way a linked executable's main
// thunk does for the typed dialect (an integer followed by a newline)
// or the way the REPL prints an expression-dialect result ("Evaluated
// to %f\n"), depending on isTyped.
func reportResult(w io.Writer, v float64, isTyped bool) {
	if isTyped {
		fmt.Fprintf(w, "%d\n", int64(math.Round(v)))
		return
	}
	fmt.Fprintf(w, "Evaluated to %f\n", v)
}
