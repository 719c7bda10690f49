// Package config loads player-side settings: logging, pacing, the web
// listener and message overrides. Settings come from an optional YAML file
// and are then overridden by TEXTADV_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/njmcode/nidc2021-textadv/engine"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l to a slog level. Unknown values map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Settings is the full runtime configuration.
type Settings struct {
	// Environment selects the log format: text for development, JSON for production.
	Environment string `yaml:"environment"`

	Log LogSettings `yaml:"log"`

	// PauseScale multiplies every author pause. 0 disables pauses.
	PauseScale float64 `yaml:"pause_scale"`

	// Suggest enables "did you mean" hints for unknown verbs.
	Suggest bool `yaml:"suggest"`

	// Seed fixes the random sequence hooks see. 0 seeds from the clock.
	Seed int64 `yaml:"seed"`

	// Wrap is the plain terminal wrap width. 0 disables wrapping.
	Wrap int `yaml:"wrap"`

	Web WebSettings `yaml:"web"`

	// Messages overrides canned responses by key, e.g. FAIL_UNKNOWN.
	Messages map[string]string `yaml:"messages"`
}

// LogSettings configures logging output.
type LogSettings struct {
	Level LogLevel `yaml:"level"`

	// File sends logs to a rotating file instead of stderr.
	File string `yaml:"file"`
}

// WebSettings configures the browser front-end.
type WebSettings struct {
	Addr string `yaml:"addr"`
}

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	return &Settings{
		Environment: EnvDevelopment,
		Log:         LogSettings{Level: LogInfo},
		PauseScale:  1,
		Suggest:     true,
		Wrap:        80,
		Web:         WebSettings{Addr: ":8080"},
	}
}

// Load reads the YAML file at path (if path is not empty), applies
// environment overrides and validates the result.
func Load(path string) (*Settings, error) {
	s := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()
		if err := decode(f, s); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	if err := ApplyEnv(s, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFromReader decodes YAML from r over the defaults and validates the
// result. Environment variables are not consulted.
func LoadFromReader(r io.Reader) (*Settings, error) {
	s := Default()
	if err := decode(r, s); err != nil {
		return nil, err
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(r io.Reader, s *Settings) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

// ApplyEnv overrides s from the environment through lookup.
func ApplyEnv(s *Settings, lookup func(string) (string, bool)) error {
	if v, ok := lookup("TEXTADV_ENV"); ok && v != "" {
		s.Environment = v
	}
	if v, ok := lookup("TEXTADV_LOG_LEVEL"); ok && v != "" {
		s.Log.Level = LogLevel(strings.ToLower(v))
	}
	if v, ok := lookup("TEXTADV_LOG_FILE"); ok {
		s.Log.File = v
	}
	if v, ok := lookup("TEXTADV_ADDR"); ok && v != "" {
		s.Web.Addr = v
	}
	if v, ok := lookup("TEXTADV_SEED"); ok && v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: TEXTADV_SEED %q is not an integer", v)
		}
		s.Seed = seed
	}
	return nil
}

// Validate checks that s contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(s *Settings) error {
	var errs []error

	if s.Environment != EnvDevelopment && s.Environment != EnvProduction {
		errs = append(errs, fmt.Errorf("environment %q is invalid; valid values: development, production", s.Environment))
	}
	if s.Log.Level != "" && !s.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", s.Log.Level))
	}
	if s.PauseScale < 0 {
		errs = append(errs, fmt.Errorf("pause_scale %.2f must not be negative", s.PauseScale))
	}
	if s.Wrap < 0 {
		errs = append(errs, fmt.Errorf("wrap %d must not be negative", s.Wrap))
	}
	if _, err := engine.ApplyMessages(engine.DefaultMessages(), s.Messages); err != nil {
		errs = append(errs, fmt.Errorf("messages: %w", err))
	}

	return errors.Join(errs...)
}

// EngineOptions translates settings into engine options.
func (s *Settings) EngineOptions(log *slog.Logger) ([]engine.Option, error) {
	msgs, err := engine.ApplyMessages(engine.DefaultMessages(), s.Messages)
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithLogger(log),
		engine.WithMessages(msgs),
		engine.WithSuggest(s.Suggest),
		engine.WithPauseScale(s.PauseScale),
	}
	if s.Seed != 0 {
		opts = append(opts, engine.WithSeed(s.Seed))
	}
	return opts, nil
}
