// Textadv plays interactive fiction in the terminal or the browser.
// Usage: textadv [--version] [--plain] [--web] [--script <file>] [--trace] [--config <file>] [--check] <game>
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"github.com/njmcode/nidc2021-textadv/cli"
	"github.com/njmcode/nidc2021-textadv/config"
	"github.com/njmcode/nidc2021-textadv/engine"
	"github.com/njmcode/nidc2021-textadv/engine/queue"
	"github.com/njmcode/nidc2021-textadv/games/bomb"
	"github.com/njmcode/nidc2021-textadv/games/within"
	"github.com/njmcode/nidc2021-textadv/loader"
	"github.com/njmcode/nidc2021-textadv/logger"
	"github.com/njmcode/nidc2021-textadv/tui"
	"github.com/njmcode/nidc2021-textadv/types"
	"github.com/njmcode/nidc2021-textadv/web"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: textadv [--version] [--plain] [--web] [--script <file>] [--trace] [--config <file>] [--check] <game>\n" +
	"  <game> is a directory of .lua files, builtin:bomb or builtin:within\n"

type flags struct {
	plain   bool
	web     bool
	trace   bool
	check   bool
	version bool
	script  string
	config  string
	game    string
}

func parseArgs(args []string) (flags, error) {
	var f flags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			f.version = true
		case "--plain":
			f.plain = true
		case "--web":
			f.web = true
		case "--trace":
			f.trace = true
		case "--check":
			f.check = true
		case "--script", "--config":
			if i+1 >= len(args) {
				return f, fmt.Errorf("%s requires a file path", args[i])
			}
			i++
			if args[i-1] == "--script" {
				f.script = args[i]
			} else {
				f.config = args[i]
			}
		default:
			if strings.HasPrefix(args[i], "--") {
				return f, fmt.Errorf("unknown flag %s", args[i])
			}
			if f.game == "" {
				f.game = args[i]
			}
		}
	}
	if f.game == "" && !f.version {
		return f, errors.New("no game given")
	}
	return f, nil
}

// source produces a fresh game definition for each engine. Lua games get
// their own VM every time, which release closes.
type source func(log *slog.Logger) (cfg types.Config, release func(), err error)

func openGame(name string) (source, error) {
	switch name {
	case "builtin:bomb":
		return func(*slog.Logger) (types.Config, func(), error) {
			return bomb.Config(), func() {}, nil
		}, nil
	case "builtin:within":
		return func(log *slog.Logger) (types.Config, func(), error) {
			g, err := loader.LoadFS(within.FS, loader.WithLogger(log))
			if err != nil {
				return types.Config{}, nil, err
			}
			return g.Config, g.Close, nil
		}, nil
	}
	if strings.HasPrefix(name, "builtin:") {
		return nil, fmt.Errorf("unknown builtin game %q", strings.TrimPrefix(name, "builtin:"))
	}
	return func(log *slog.Logger) (types.Config, func(), error) {
		g, err := loader.Load(name, loader.WithLogger(log))
		if err != nil {
			return types.Config{}, nil, err
		}
		return g.Config, g.Close, nil
	}, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	f, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "textadv: %v\n%s", err, usage)
		return 2
	}
	if f.version {
		fmt.Fprintf(stdout, "textadv %s (commit %s, built %s)\n", version, commit, date)
		return 0
	}

	settings, err := config.Load(f.config)
	if err != nil {
		fmt.Fprintf(stderr, "textadv: %v\n", err)
		return 1
	}
	// Script runs are reproducible and instant.
	if f.script != "" {
		settings.PauseScale = 0
	}

	useTUI := !f.plain && !f.web && !f.check && f.script == "" && isTerminal()
	log, closer := logger.Setup(settings)
	defer closer.Close()
	if useTUI && settings.Log.File == "" {
		// Nothing may write to the terminal behind the alternate screen.
		log = logger.Discard()
	}

	src, err := openGame(f.game)
	if err != nil {
		fmt.Fprintf(stderr, "textadv: %v\n", err)
		return 1
	}

	if f.check {
		return check(src, log, stdout, stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case f.web:
		err = serveWeb(ctx, src, settings, log)
	case useTUI:
		err = playTUI(src, settings, log)
	default:
		err = playCLI(ctx, src, settings, log, f, stdout)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(log, err).Error("textadv stopped")
		fmt.Fprintf(stderr, "textadv: %v\n", err)
		return 1
	}
	return 0
}

func check(src source, log *slog.Logger, stdout, stderr io.Writer) int {
	cfg, release, err := src(log)
	if err != nil {
		fmt.Fprintf(stderr, "textadv: %v\n", err)
		return 1
	}
	defer release()
	if err := engine.Check(cfg); err != nil {
		fmt.Fprintf(stderr, "textadv: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "ok: %s (%d entities, %d commands)\n", cfg.Title, len(cfg.Entities), len(cfg.Commands))
	return 0
}

// newEngine builds an engine for src with the settings applied.
func newEngine(src source, settings *config.Settings, log *slog.Logger, sink queue.Sink, extra ...engine.Option) (*engine.Engine, func(), error) {
	cfg, release, err := src(log)
	if err != nil {
		return nil, nil, err
	}
	opts, err := settings.EngineOptions(log)
	if err != nil {
		release()
		return nil, nil, err
	}
	eng, err := engine.New(cfg, sink, append(opts, extra...)...)
	if err != nil {
		release()
		return nil, nil, err
	}
	return eng, release, nil
}

func playCLI(ctx context.Context, src source, settings *config.Settings, log *slog.Logger, f flags, out io.Writer) error {
	c := cli.New()
	c.Out = out
	c.Log = log
	c.Trace = f.trace
	c.Wrap = settings.Wrap

	// Script mode: read commands from the file and echo them.
	if f.script != "" {
		file, err := os.Open(f.script)
		if err != nil {
			return errors.Wrap(err, "opening script")
		}
		defer file.Close()
		c.In = file
		c.EchoInput = true
	}

	eng, release, err := newEngine(src, settings, log, c)
	if err != nil {
		return err
	}
	defer release()
	c.Engine = eng
	return c.Run(ctx)
}

func playTUI(src source, settings *config.Settings, log *slog.Logger) error {
	bridge := tui.NewBridge()
	eng, release, err := newEngine(src, settings, log, bridge)
	if err != nil {
		return err
	}
	defer release()
	return tui.Run(eng, bridge, log)
}

func serveWeb(ctx context.Context, src source, settings *config.Settings, log *slog.Logger) error {
	srv := web.NewServer(func(sink queue.Sink, opts ...engine.Option) (*engine.Engine, func(), error) {
		return newEngine(src, settings, log, sink, opts...)
	}, log)

	return srv.ListenAndServe(ctx, settings.Web.Addr)
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
