// Package errors formats Pudl compiler diagnostics with source context:
// a (line, column) position, a message, and a caret pointing into the
// offending source line.
package errors

import (
	"fmt"
	"strings"

	"github.com/pudl-lang/pudlc/internal/token"
)

// Stage identifies which compiler phase raised a diagnostic.
type Stage string

const (
	StageLex     Stage = "lex"
	StageParse   Stage = "parse"
	StageType    Stage = "type"
	StageCodegen Stage = "codegen"
	StageBackend Stage = "backend"
	StageLink    Stage = "link"
)

// CompilerError is a single diagnostic with enough context to render a
// source-line-and-caret message.
type CompilerError struct {
	Message string
	Source  string
	File    string
	Pos     token.Position
	Stage   Stage
}

// New creates a CompilerError.
func New(stage Stage, pos token.Position, message, source, file string) *CompilerError {
	return &CompilerError{Stage: stage, Pos: pos, Message: message, Source: source, File: file}
}

// Error implements the error interface.
func (e *CompilerError) Error() string { return e.Format() }

// Format renders the file/position header, the offending source line, and
// a caret under the error column.
func (e *CompilerError) Format() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(fmt.Sprintf("error: %s:%d:%d: %s\n", e.File, e.Pos.Line, e.Pos.Column, e.Message))
	} else {
		sb.WriteString(fmt.Sprintf("error: %d:%d: %s\n", e.Pos.Line, e.Pos.Column, e.Message))
	}

	line := sourceLine(e.Source, e.Pos.Line)
	if line != "" {
		prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		col := e.Pos.Column - 1
		if col < 0 {
			col = 0
		}
		sb.WriteString(strings.Repeat(" ", len(prefix)+col))
		sb.WriteString("^\n")
	}

	return sb.String()
}

func sourceLine(source string, line int) string {
	if line <= 0 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// FormatErrors renders a batch of diagnostics for CLI output, one after
// another.
func FormatErrors(errs []*CompilerError) string {
	var sb strings.Builder
	for _, e := range errs {
		sb.WriteString(e.Format())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Expected formats the canonical "expected X at (line:col) but given Y"
// parse-error message.
func Expected(pos token.Position, want, got string) string {
	return fmt.Sprintf("expected %s at (%d:%d) but given %s", want, pos.Line, pos.Column, got)
}
