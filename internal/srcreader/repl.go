package srcreader

import (
	"io"

	"github.com/chzyer/readline"
)

// ReplReader drives the interactive top-level loop off
// github.com/chzyer/readline, giving Pudl's top-level history and
// arrow-key editing instead of a bare os.Stdin scan.
type ReplReader struct {
	rl     *readline.Instance
	prompt string
}

// NewReplReader opens an interactive reader with the given prompt and
// history file (pass "" to disable history persistence).
func NewReplReader(prompt, historyFile string) (*ReplReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, err
	}
	return &ReplReader{rl: rl, prompt: prompt}, nil
}

func (r *ReplReader) Next() (string, error) {
	line, err := r.rl.Readline()
	if err == readline.ErrInterrupt {
		return "", nil
	}
	if err == io.EOF {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	return line, nil
}

func (r *ReplReader) Close() error {
	return r.rl.Close()
}

var _ Reader = (*ReplReader)(nil)
var _ Reader = (*FileReader)(nil)
var _ Reader = (*StringReader)(nil)
