package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	f, err := parseArgs([]string{"--plain", "--trace", "--script", "walk.txt", "--config", "play.yaml", "games/within"})
	require.NoError(t, err)
	assert.Equal(t, flags{
		plain:  true,
		trace:  true,
		script: "walk.txt",
		config: "play.yaml",
		game:   "games/within",
	}, f)

	_, err = parseArgs([]string{"--script"})
	assert.EqualError(t, err, "--script requires a file path")

	_, err = parseArgs([]string{"--fast", "builtin:bomb"})
	assert.EqualError(t, err, "unknown flag --fast")

	_, err = parseArgs(nil)
	assert.EqualError(t, err, "no game given")

	f, err = parseArgs([]string{"--version"})
	require.NoError(t, err)
	assert.True(t, f.version)
}

func TestOpenGame_UnknownBuiltin(t *testing.T) {
	_, err := openGame("builtin:zork")
	assert.EqualError(t, err, `unknown builtin game "zork"`)
}

func TestRun_Check(t *testing.T) {
	for _, game := range []string{"builtin:bomb", "builtin:within"} {
		t.Run(game, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run([]string{"--check", game}, &stdout, &stderr)
			assert.Equal(t, 0, code, stderr.String())
			assert.Contains(t, stdout.String(), "ok: ")
		})
	}
}

func TestRun_CheckReportsBrokenGame(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--check", filepath.Join(t.TempDir(), "missing")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "reading game directory")
}

func TestRun_Script(t *testing.T) {
	script := filepath.Join(t.TempDir(), "walk.txt")
	require.NoError(t, os.WriteFile(script, []byte("# try the door\ne\n/quit\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"--script", script, "builtin:bomb"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Seconds To Live by njmcode")
	assert.Contains(t, out, "> e\n")
	assert.Contains(t, out, "The door won't budge!")
	assert.Contains(t, out, "[Goodbye.]")
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: textadv")
}
