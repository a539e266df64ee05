package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jianpu "github.com/cbegin/jianpu-go"
)

func TestReadInputJoinsFilesAsScores(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("\ufeff1 2 3 4"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("5 6 7 1'"), 0o644))

	got, err := readInput([]string{a, b}, nil)
	require.NoError(t, err)
	assert.Equal(t, "1 2 3 4 NextScore 5 6 7 1'", got)
}

func TestReadInputStdin(t *testing.T) {
	got, err := readInput(nil, strings.NewReader("1 - - -"))
	require.NoError(t, err)
	assert.Equal(t, "1 - - -", got)
}

func TestReadInputRejectsLilyPond(t *testing.T) {
	_, err := readInput(nil, strings.NewReader(`\version "2.22.0"`))
	assert.Error(t, err)
}

func TestNumberedPath(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("song.mid", numberedPath("song.mid", 0))
	assert.Equal("song-2.mid", numberedPath("song.mid", 1))
	assert.Equal("out/song-3", numberedPath("out/song", 2))
}

func TestReportErrorWithoutTerminal(t *testing.T) {
	_, err := jianpu.Convert("1 2 3 #b4")
	require.Error(t, err)

	var buf bytes.Buffer
	reportError(&buf, err)
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "jianpu: "), out)
	assert.Contains(t, out, "^")
}

func TestUnicodeCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader("1 2 3 4"))
	rootCmd.SetArgs([]string{"unicode"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "1 2 3 4║\n", out.String())
}
