// Package srcreader supplies the driver with source text: a whole file
// for Batch mode, or one line at a time from an interactive prompt for
// the REPL/top-level mode. The interactive implementation is built on
// github.com/chzyer/readline rather than a bare bufio.Scanner, so the
// REPL gets history and line-editing for free.
package srcreader

import (
	"io"
	"os"
)

// ErrEOF is returned once no more input is available.
var ErrEOF = io.EOF

// Reader supplies successive chunks of source text to the driver.
type Reader interface {
	// Next returns the next chunk to feed the parser (a whole file for
	// Batch mode, one line for the REPL) or io.EOF when input is
	// exhausted. A Reader owns whatever resource it reads from and
	// should release it on Close.
	Next() (string, error)
	Close() error
}

// FileReader reads an entire file once, for Batch driving mode.
type FileReader struct {
	path string
	done bool
}

// NewFileReader creates a FileReader over path.
func NewFileReader(path string) *FileReader {
	return &FileReader{path: path}
}

func (r *FileReader) Next() (string, error) {
	if r.done {
		return "", io.EOF
	}
	r.done = true
	data, err := os.ReadFile(r.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *FileReader) Close() error { return nil }

// StringReader wraps an in-memory source string, used by tests.
type StringReader struct {
	source string
	done   bool
}

// NewStringReader creates a StringReader over source.
func NewStringReader(source string) *StringReader {
	return &StringReader{source: source}
}

func (r *StringReader) Next() (string, error) {
	if r.done {
		return "", io.EOF
	}
	r.done = true
	return r.source, nil
}

func (r *StringReader) Close() error { return nil }
