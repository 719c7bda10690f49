package parser

import (
	"testing"
)

func testLexicon() *Lexicon {
	verbs := []string{
		"n", "north", "go north", "in", "enter", "get in",
		"look", "look around", "where am i",
		"examine", "look at", "x", "inspect",
		"get", "take", "pick up", "g",
		"drop", "put down",
		"help", "?",
		"force", "force open", "open", "pry",
		"cut", "snip",
	}
	nouns := []string{
		"door", "sturdy door", "east door",
		"wire", "red wire", "bomb wire", "red",
		"bomb", "time bomb",
		"crowbar", "bar",
		"toolbox", "tool box", "box",
		"wire cutters", "cutters",
	}
	return NewLexicon(verbs, nouns)
}

func TestExtract(t *testing.T) {
	lx := testLexicon()

	tests := []struct {
		name  string
		input string
		want  Tokens
	}{
		{name: "empty", input: "", want: Tokens{}},
		{name: "whitespace", input: "   ", want: Tokens{}},
		{name: "bare verb", input: "look", want: Tokens{Verb: "look"}},
		{name: "uppercase", input: "LOOK", want: Tokens{Verb: "look"}},
		{name: "multi-word verb wins over prefix", input: "look around", want: Tokens{Verb: "look around"}},
		{name: "look at thing", input: "look at door", want: Tokens{Verb: "look at", Noun: "door"}},
		{name: "article dropped", input: "examine the door", want: Tokens{Verb: "examine", Noun: "door"}},
		{name: "multi-word noun", input: "cut the red wire", want: Tokens{Verb: "cut", Noun: "red wire"}},
		{name: "pick up", input: "pick up crowbar", want: Tokens{Verb: "pick up", Noun: "crowbar"}},
		{name: "direction phrase", input: "go north", want: Tokens{Verb: "go north"}},
		{name: "get in beats get", input: "get in", want: Tokens{Verb: "get in"}},
		{name: "verb phrase force open", input: "force open the sturdy door", want: Tokens{Verb: "force open", Noun: "sturdy door"}},
		{name: "noun before verb", input: "door open", want: Tokens{Verb: "open", Noun: "door"}},
		{name: "unknown verb", input: "dance with the bomb", want: Tokens{Noun: "bomb"}},
		{name: "question mark", input: "?", want: Tokens{Verb: "?"}},
		{name: "trailing punctuation", input: "where am i?", want: Tokens{Verb: "where am i"}},
		{name: "plural noun", input: "take crowbars", want: Tokens{Verb: "take", Noun: "crowbar"}},
		{name: "plural multi-word noun", input: "x time bombs", want: Tokens{Verb: "x", Noun: "time bomb"}},
		{name: "first noun only", input: "cut wire with cutters", want: Tokens{Verb: "cut", Noun: "wire"}},
		{name: "first verb only", input: "take look", want: Tokens{Verb: "take"}},
		{name: "single letter verb", input: "x box", want: Tokens{Verb: "x", Noun: "box"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lx.Extract(tt.input)
			if got != tt.want {
				t.Errorf("Extract(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("  Take THE rusty Crowbar!  ")
	want := []string{"take", "rusty", "crowbar"}
	if len(got) != len(want) {
		t.Fatalf("Normalize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFirstWord(t *testing.T) {
	if got := FirstWord("  Dance wildly"); got != "dance" {
		t.Errorf("FirstWord = %q, want dance", got)
	}
	if got := FirstWord(""); got != "" {
		t.Errorf("FirstWord(empty) = %q", got)
	}
}

func TestSuggest_CloseTypo(t *testing.T) {
	lx := testLexicon()
	got, ok := lx.Suggest("examin")
	if !ok || got != "examine" {
		t.Errorf("Suggest(examin) = %q, %v; want examine, true", got, ok)
	}
}

func TestSuggest_FarWord(t *testing.T) {
	lx := testLexicon()
	if got, ok := lx.Suggest("zzzzzz"); ok {
		t.Errorf("expected no suggestion, got %q", got)
	}
}

func TestSuggest_ExactVerbHasNoSuggestion(t *testing.T) {
	lx := testLexicon()
	if got, ok := lx.Suggest("force"); ok {
		t.Errorf("expected no suggestion for a known verb, got %q", got)
	}
}
