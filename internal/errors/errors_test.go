package errors_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pudl-lang/pudlc/internal/errors"
	"github.com/pudl-lang/pudlc/internal/token"
)

func TestFormat_RendersHeaderSourceLineAndCaret(t *testing.T) {
	source := "func mast(): int {\n\tbool b = 5;\n}"
	e := errors.New(errors.StageType, token.Position{Line: 2, Column: 11}, "cannot assign int to bool", source, "prog.pudl")

	out := e.Format()
	require.Contains(t, out, "error: prog.pudl:2:11: cannot assign int to bool")
	require.Contains(t, out, "   2 | \tbool b = 5;")
	require.Contains(t, out, "^")

	// The caret line points into the quoted source line.
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "^", strings.TrimSpace(lines[2]))
}

func TestFormat_OmitsFileWhenUnset(t *testing.T) {
	e := errors.New(errors.StageParse, token.Position{Line: 1, Column: 1}, "boom", "x", "")
	require.True(t, strings.HasPrefix(e.Format(), "error: 1:1: boom"))
}

func TestFormat_SkipsSourceLineWhenOutOfRange(t *testing.T) {
	e := errors.New(errors.StageParse, token.Position{Line: 99, Column: 1}, "boom", "one line only", "f.pudl")
	out := e.Format()
	require.Contains(t, out, "boom")
	require.NotContains(t, out, "|")
}

func TestErrorImplementsErrorInterface(t *testing.T) {
	e := errors.New(errors.StageCodegen, token.Position{Line: 3, Column: 4}, "bad", "a\nb\nc", "")
	var err error = e
	require.Equal(t, e.Format(), err.Error())
}

func TestFormatErrors_BatchesAllDiagnostics(t *testing.T) {
	src := "a\nb"
	errs := []*errors.CompilerError{
		errors.New(errors.StageParse, token.Position{Line: 1, Column: 1}, "first", src, ""),
		errors.New(errors.StageType, token.Position{Line: 2, Column: 1}, "second", src, ""),
	}
	out := errors.FormatErrors(errs)
	require.Contains(t, out, "first")
	require.Contains(t, out, "second")
	require.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
}

func TestExpected_CanonicalMessageShape(t *testing.T) {
	msg := errors.Expected(token.Position{Line: 3, Column: 7}, "SYMBOL", `"9"`)
	require.Equal(t, `expected SYMBOL at (3:7) but given "9"`, msg)
}
