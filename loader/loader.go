// Package loader loads Lua game content into a game definition. The Lua VM
// stays alive for the life of the game so that hooks and computed text
// written in Lua run during play.
package loader

import (
	"bytes"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"

	"github.com/njmcode/nidc2021-textadv/engine"
	"github.com/njmcode/nidc2021-textadv/types"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	game      *lua.LTable
	commands  []rawCommand
	entities  []rawEntity
	onCommand *lua.LFunction
	onGoTo    *lua.LFunction
	onTurn    *lua.LFunction
	onLook    *lua.LFunction
}

// Game is a loaded Lua game. Its Config hooks call back into the VM, so a
// Game must only be driven from one goroutine, and one engine at a time.
type Game struct {
	Config types.Config
	Files  []string
	rt     *runtime
}

// Close releases the Lua VM.
func (g *Game) Close() {
	if g.rt != nil {
		g.rt.L.Close()
		g.rt = nil
	}
}

// Option configures loading.
type Option func(*options)

type options struct {
	log *slog.Logger
}

// WithLogger routes Lua print() output to l at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Load reads all .lua files from dir, compiles them into a game definition
// and checks it for broken references.
func Load(dir string, opts ...Option) (*Game, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrapf(err, "reading game directory %s", dir)
	}
	return LoadFS(os.DirFS(dir), opts...)
}

// LoadFS is Load for an fs.FS, such as a game embedded in the binary.
func LoadFS(fsys fs.FS, opts ...Option) (*Game, error) {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	// Discover .lua files.
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "reading game directory")
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, errors.New("no .lua files found in game directory")
	}

	// Sort: game.lua first, rest alphabetical.
	luaFiles = sortedLuaFiles(luaFiles)

	// Create sandboxed VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L, o.log)

	rt := newRuntime(L, o.log)
	coll := &collector{}
	registerAPI(L, coll)

	// Execute each file.
	for _, f := range luaFiles {
		if err := runFile(L, fsys, f); err != nil {
			L.Close()
			return nil, errors.Wrapf(err, "executing %s", f)
		}
	}

	// Compile.
	cfg, err := compile(coll, rt)
	if err != nil {
		L.Close()
		return nil, errors.Wrap(err, "compiling game data")
	}

	// Validate references by building the world once.
	if err := engine.Check(cfg); err != nil {
		L.Close()
		return nil, err
	}

	o.log.Debug("game loaded", "title", cfg.Title, "files", len(luaFiles), "entities", len(cfg.Entities))
	return &Game{Config: cfg, Files: luaFiles, rt: rt}, nil
}

func runFile(L *lua.LState, fsys fs.FS, name string) error {
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return err
	}
	fn, err := L.Load(bytes.NewReader(src), name)
	if err != nil {
		return err
	}
	L.Push(fn)
	return L.PCall(0, lua.MultRet, nil)
}

// sortedLuaFiles puts game.lua first, the rest alphabetical.
func sortedLuaFiles(files []string) []string {
	var rest []string
	hasGame := false
	for _, f := range files {
		if f == "game.lua" {
			hasGame = true
		} else {
			rest = append(rest, f)
		}
	}
	sort.Strings(rest)
	if hasGame {
		return append([]string{"game.lua"}, rest...)
	}
	return rest
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	// Table library (table.insert, table.sort, etc.)
	lua.OpenTable(L)
	// String library (string.format, string.sub, etc.)
	lua.OpenString(L)
	// Math library (math.floor, math.max, etc.)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState, log *slog.Logger) {
	// Remove dangerous base globals.
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Randomness goes through game:roll so seeded games replay.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
			tbl.RawSetString("random", lua.LNil)
		}
	}

	// print would write over the terminal UI; send it to the log instead.
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		log.Debug("lua print", "msg", strings.Join(parts, "\t"))
		return 0
	}))
}
