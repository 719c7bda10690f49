package loader

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/njmcode/nidc2021-textadv/engine/state"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestVM creates a sandboxed Lua VM with the API registered and a fresh collector.
func newTestVM() (*lua.LState, *collector, *runtime) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L, quietLogger())
	coll := &collector{}
	registerAPI(L, coll)
	return L, coll, newRuntime(L, quietLogger())
}

func TestLoad_MinimalGame(t *testing.T) {
	g, err := Load("testdata/minimal", WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer g.Close()

	if g.Config.Title != "Minimal Test Game" {
		t.Errorf("Title = %q, want %q", g.Config.Title, "Minimal Test Game")
	}
	if g.Config.StartLocation != "hall" {
		t.Errorf("Start = %q, want %q", g.Config.StartLocation, "hall")
	}
	if len(g.Config.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(g.Config.Entities))
	}
	def := g.Config.Entities[0](nil)
	if def.ID != "hall" {
		t.Errorf("entity id = %q, want hall", def.ID)
	}
	if len(def.Description) != 1 || def.Description[0].Literal != "A grand hall." {
		t.Errorf("hall description = %+v", def.Description)
	}
	if g.Config.OnCommand != nil || g.Config.OnTurn != nil {
		t.Error("minimal game should declare no hooks")
	}
}

func TestLoad_FullGame(t *testing.T) {
	g, err := Load("testdata/full", WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer g.Close()

	cfg := g.Config
	if cfg.Title != "Full Test Game" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.Author != "Tester" {
		t.Errorf("Author = %q", cfg.Author)
	}
	if cfg.StartLocation != "cellar" {
		t.Errorf("Start = %q", cfg.StartLocation)
	}
	if len(cfg.StartInventory) != 1 || cfg.StartInventory[0] != "lamp" {
		t.Errorf("StartInventory = %v", cfg.StartInventory)
	}

	// Game.commands come first, then Command declarations in file order.
	if len(cfg.Commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cfg.Commands))
	}
	if cfg.Commands[0].Name != "pull" || strings.Join(cfg.Commands[0].Aliases, ",") != "yank,tug" {
		t.Errorf("first command = %+v", cfg.Commands[0])
	}
	if cfg.Commands[1].Name != "cut" || strings.Join(cfg.Commands[1].Aliases, ",") != "snip,cut through" {
		t.Errorf("second command = %+v", cfg.Commands[1])
	}

	if len(cfg.Entities) != 6 {
		t.Errorf("expected 6 entities, got %d", len(cfg.Entities))
	}
	if cfg.OnCommand == nil || cfg.OnTurn == nil || cfg.OnLook == nil {
		t.Error("expected OnCommand, OnTurn and OnLook hooks")
	}
	if cfg.OnGoTo != nil {
		t.Error("unexpected global OnGoTo hook")
	}

	// File order: game.lua first, rest alphabetical.
	want := []string{"game.lua", "items.lua", "locations.lua", "logic.lua"}
	if strings.Join(g.Files, ",") != strings.Join(want, ",") {
		t.Errorf("Files = %v, want %v", g.Files, want)
	}
}

func TestLoad_InvalidRefs_Fails(t *testing.T) {
	_, err := Load("testdata/broken_refs", WithLogger(quietLogger()))
	if err == nil {
		t.Fatal("expected error for invalid references")
	}

	var ve *state.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %T, want *state.ValidationError", err)
	}
	for _, want := range []string{
		`exit "n" points to undefined entity "nowhere"`,
		`contains undefined entity "statue"`,
		`start inventory item "ghost" not found`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestLoad_BadFieldTypes_Fails(t *testing.T) {
	_, err := Load("testdata/broken_types", WithLogger(quietLogger()))
	if err == nil {
		t.Fatal("expected error for malformed tables")
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %T, want *ValidationError", err)
	}
	for _, want := range []string{
		`Entity "hall".nouns must be a list of strings, got string`,
		`Entity "hall".description must be text`,
		`Entity "hall".on_goto must be a function, got string`,
		`duplicate entity id "hall"`,
	} {
		found := false
		for _, e := range ve.Errors {
			if strings.Contains(e, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("errors missing %q: %v", want, ve.Errors)
		}
	}
	if len(ve.Warnings) != 1 || !strings.Contains(ve.Warnings[0], `unknown field "colour"`) {
		t.Errorf("Warnings = %v", ve.Warnings)
	}
}

func TestLoad_BadLuaSyntax_Fails(t *testing.T) {
	_, err := Load("testdata/broken_syntax", WithLogger(quietLogger()))
	if err == nil {
		t.Fatal("expected error for bad Lua syntax")
	}
	if !strings.Contains(err.Error(), "executing game.lua") {
		t.Errorf("error = %q, expected the failing file to be named", err.Error())
	}
}

func TestLoad_NoLuaFiles_Fails(t *testing.T) {
	_, err := Load("testdata/empty", WithLogger(quietLogger()))
	if err == nil {
		t.Fatal("expected error for a directory without .lua files")
	}
	if !strings.Contains(err.Error(), "no .lua files") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestLoad_MissingDir_Fails(t *testing.T) {
	if _, err := Load("testdata/does-not-exist", WithLogger(quietLogger())); err == nil {
		t.Fatal("expected error for a missing directory")
	}
}

func TestLoad_SandboxEnforced(t *testing.T) {
	if _, err := Load("testdata/sandbox", WithLogger(quietLogger())); err == nil {
		t.Fatal("expected sandbox to block os.execute")
	}

	L, _, _ := newTestVM()
	defer L.Close()
	for _, src := range []string{
		`io.write("x")`,
		`dofile("x.lua")`,
		`math.randomseed(1)`,
		`return math.random(6)`,
	} {
		if err := L.DoString(src); err == nil {
			t.Errorf("expected sandbox to block %s", src)
		}
	}
	if err := L.DoString(`print("routed to the log")`); err != nil {
		t.Errorf("print should stay available: %v", err)
	}
}

func TestLoad_FileOrdering(t *testing.T) {
	files := sortedLuaFiles([]string{"rooms.lua", "game.lua", "items.lua", "npcs.lua"})
	if files[0] != "game.lua" {
		t.Errorf("first file = %q, want game.lua", files[0])
	}
	// Rest should be alphabetical.
	if files[1] != "items.lua" {
		t.Errorf("second file = %q, want items.lua", files[1])
	}
	if files[3] != "rooms.lua" {
		t.Errorf("last file = %q, want rooms.lua", files[3])
	}
}

func TestRegisterHooks_OnlyOnce(t *testing.T) {
	L, _, _ := newTestVM()
	defer L.Close()

	err := L.DoString(`
		OnTurn(function() end)
		OnTurn(function() end)
	`)
	if err == nil {
		t.Fatal("expected a second OnTurn to fail")
	}
	if !strings.Contains(err.Error(), "OnTurn may only be declared once") {
		t.Errorf("error = %q", err.Error())
	}
}
