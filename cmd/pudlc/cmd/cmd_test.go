package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadSource_PrefersEvalOverFileArg(t *testing.T) {
	source, filename, err := readSource("1+1;", []string{"ignored.pudl"})
	require.NoError(t, err)
	require.Equal(t, "1+1;", source)
	require.Equal(t, "<eval>", filename)
}

func TestReadSource_ReadsFileArgWhenNoEval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.pudl")
	require.NoError(t, os.WriteFile(path, []byte("func mast(): int { return 1; }"), 0o644))

	source, filename, err := readSource("", []string{path})
	require.NoError(t, err)
	require.Equal(t, "func mast(): int { return 1; }", source)
	require.Equal(t, path, filename)
}

func TestReadSource_ErrorsWithNeitherEvalNorFile(t *testing.T) {
	_, _, err := readSource("", nil)
	require.Error(t, err)
}

func TestReadSource_ErrorsOnMissingFile(t *testing.T) {
	_, _, err := readSource("", []string{filepath.Join(t.TempDir(), "nope.pudl")})
	require.Error(t, err)
}
