// Package passes implements the function-level optimization pipeline:
// reg-promotion, inst-combine, reassociate, dce, gvn, and simplify-cfg,
// each a refir.FunctionPass run to a fixed point by
// refir.Builder.RunPasses.
package passes

import (
	"github.com/pudl-lang/pudlc/internal/ir/refir"
)

// Name implements ir.Pass/refir.FunctionPass for each pass below.
type named string

func (n named) Name() string { return string(n) }

// All six named passes, constructible individually or via a -O level
// (see ForLevel below).
func RegPromotion() refir.FunctionPass { return regPromotionPass{named("reg-promotion")} }
func InstCombine() refir.FunctionPass  { return instCombinePass{named("inst-combine")} }
func Reassociate() refir.FunctionPass  { return reassociatePass{named("reassociate")} }
func DCE() refir.FunctionPass          { return dcePass{named("dce")} }
func GVN() refir.FunctionPass          { return gvnPass{named("gvn")} }
func SimplifyCFG() refir.FunctionPass  { return simplifyCFGPass{named("simplify-cfg")} }

// AllPasses returns the six passes in pipeline order: cheap local
// cleanups first, structural passes last.
func AllPasses() []refir.FunctionPass {
	return []refir.FunctionPass{
		RegPromotion(),
		InstCombine(),
		Reassociate(),
		GVN(),
		DCE(),
		SimplifyCFG(),
	}
}

// ForLevel maps a `-O0`..`-O6`/`-ONone`/`-Oall` CLI flag to the passes
// it enables. Levels are cumulative: -O3 runs everything -O1 and -O2
// run, plus its own pass.
func ForLevel(level string) []refir.FunctionPass {
	switch level {
	case "ONone", "O0":
		return nil
	case "O1":
		return []refir.FunctionPass{RegPromotion()}
	case "O2":
		return []refir.FunctionPass{RegPromotion(), InstCombine()}
	case "O3":
		return []refir.FunctionPass{RegPromotion(), InstCombine(), DCE()}
	case "O4":
		return []refir.FunctionPass{RegPromotion(), InstCombine(), DCE(), GVN()}
	case "O5":
		return []refir.FunctionPass{RegPromotion(), InstCombine(), DCE(), GVN(), Reassociate()}
	case "O6", "Oall":
		return AllPasses()
	default:
		return nil
	}
}
