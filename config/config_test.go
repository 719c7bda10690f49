package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	require.NoError(t, Validate(s))
	assert.Equal(t, EnvDevelopment, s.Environment)
	assert.Equal(t, LogInfo, s.Log.Level)
	assert.Equal(t, 1.0, s.PauseScale)
	assert.True(t, s.Suggest)
	assert.Equal(t, ":8080", s.Web.Addr)
}

func TestLoadFromReader(t *testing.T) {
	s, err := LoadFromReader(strings.NewReader(`
environment: production
log:
  level: debug
  file: /tmp/textadv.log
pause_scale: 0.5
suggest: false
seed: 99
wrap: 60
web:
  addr: 127.0.0.1:9000
messages:
  fail_unknown: "Eh?"
`))
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, s.Environment)
	assert.Equal(t, LogDebug, s.Log.Level)
	assert.Equal(t, "/tmp/textadv.log", s.Log.File)
	assert.Equal(t, 0.5, s.PauseScale)
	assert.False(t, s.Suggest)
	assert.Equal(t, int64(99), s.Seed)
	assert.Equal(t, 60, s.Wrap)
	assert.Equal(t, "127.0.0.1:9000", s.Web.Addr)
	assert.Equal(t, "Eh?", s.Messages["fail_unknown"])
}

func TestLoadFromReader_KeepsDefaultsForMissingFields(t *testing.T) {
	s, err := LoadFromReader(strings.NewReader("wrap: 40\n"))
	require.NoError(t, err)
	assert.Equal(t, 40, s.Wrap)
	assert.Equal(t, 1.0, s.PauseScale)
	assert.True(t, s.Suggest)
}

func TestLoadFromReader_Empty(t *testing.T) {
	s, err := LoadFromReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("colour: blue\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	s := Default()
	s.Environment = "staging"
	s.Log.Level = "loud"
	s.PauseScale = -1
	s.Wrap = -5
	s.Messages = map[string]string{"NOPE": "x"}

	err := Validate(s)
	require.Error(t, err)
	for _, want := range []string{
		`environment "staging" is invalid`,
		`log.level "loud" is invalid`,
		"pause_scale -1.00 must not be negative",
		"wrap -5 must not be negative",
		"unknown message keys: NOPE",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TEXTADV_ENV":       "production",
		"TEXTADV_LOG_LEVEL": "WARN",
		"TEXTADV_LOG_FILE":  "game.log",
		"TEXTADV_ADDR":      ":7000",
		"TEXTADV_SEED":      "1234",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	s := Default()
	require.NoError(t, ApplyEnv(s, lookup))
	assert.Equal(t, EnvProduction, s.Environment)
	assert.Equal(t, LogWarn, s.Log.Level)
	assert.Equal(t, "game.log", s.Log.File)
	assert.Equal(t, ":7000", s.Web.Addr)
	assert.Equal(t, int64(1234), s.Seed)

	env["TEXTADV_SEED"] = "soon"
	assert.Error(t, ApplyEnv(Default(), lookup))
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textadv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 5\nwrap: 70\n"), 0o644))

	t.Setenv("TEXTADV_SEED", "6")
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(6), s.Seed, "environment wins over the file")
	assert.Equal(t, 70, s.Wrap)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEngineOptions(t *testing.T) {
	s := Default()
	s.Seed = 3
	opts, err := s.EngineOptions(nil)
	require.NoError(t, err)
	assert.Len(t, opts, 5)

	s.Messages = map[string]string{"bogus": "x"}
	_, err = s.EngineOptions(nil)
	assert.Error(t, err)
}
