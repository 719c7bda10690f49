// Package parser extracts the first verb phrase and the first noun phrase
// from a command string. Intentionally dumb: no grammar, just phrase lookup
// against the game's own vocabulary.
package parser

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/gertd/go-pluralize"
)

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// suggestThreshold is the minimum Jaro-Winkler score for a suggestion.
const suggestThreshold = 0.85

// Tokens is the result of extraction. Either field may be empty.
type Tokens struct {
	Verb string
	Noun string
}

// Lexicon knows every verb and noun phrase a game recognises. Multi-word
// phrases are matched as single tokens.
type Lexicon struct {
	verbs    map[string]bool
	nouns    map[string]bool
	maxWords int
	plural   *pluralize.Client
}

// NewLexicon builds a lexicon from verb and noun phrases. Phrases are
// normalized the same way input is.
func NewLexicon(verbs, nouns []string) *Lexicon {
	lx := &Lexicon{
		verbs:  make(map[string]bool, len(verbs)),
		nouns:  make(map[string]bool, len(nouns)),
		plural: pluralize.NewClient(),
	}
	for _, v := range verbs {
		lx.add(lx.verbs, v)
	}
	for _, n := range nouns {
		lx.add(lx.nouns, n)
	}
	return lx
}

func (lx *Lexicon) add(set map[string]bool, phrase string) {
	words := strings.Fields(strings.ToLower(phrase))
	if len(words) == 0 {
		return
	}
	set[strings.Join(words, " ")] = true
	if len(words) > lx.maxWords {
		lx.maxWords = len(words)
	}
}

// Extract returns the first recognised verb phrase and the first recognised
// noun phrase in input. When a verb and a noun phrase start at the same word,
// the longer one wins; a tie goes to the verb while none has been found yet.
func (lx *Lexicon) Extract(input string) Tokens {
	var tok Tokens
	words := Normalize(input)

	for i := 0; i < len(words); {
		if tok.Verb != "" && tok.Noun != "" {
			break
		}

		var verb, noun string
		var vLen, nLen int
		if tok.Verb == "" {
			verb, vLen = lx.longest(words, i, lx.verbs, false)
		}
		if tok.Noun == "" {
			noun, nLen = lx.longest(words, i, lx.nouns, true)
		}

		switch {
		case vLen > 0 && vLen >= nLen:
			tok.Verb = verb
			i += vLen
		case nLen > 0:
			tok.Noun = noun
			i += nLen
		default:
			i++
		}
	}

	return tok
}

// longest finds the longest phrase in set starting at words[start].
// When singular is set, the last word may also match in singular form.
func (lx *Lexicon) longest(words []string, start int, set map[string]bool, singular bool) (string, int) {
	limit := lx.maxWords
	if rest := len(words) - start; rest < limit {
		limit = rest
	}
	for n := limit; n >= 1; n-- {
		phrase := strings.Join(words[start:start+n], " ")
		if set[phrase] {
			return phrase, n
		}
		if !singular {
			continue
		}
		last := words[start+n-1]
		one := lx.plural.Singular(last)
		if one == last {
			continue
		}
		alt := strings.Join(append(append([]string{}, words[start:start+n-1]...), one), " ")
		if set[alt] {
			return alt, n
		}
	}
	return "", 0
}

// Suggest returns the single-word verb closest to word, if any is close enough.
func (lx *Lexicon) Suggest(word string) (string, bool) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", false
	}

	candidates := make([]string, 0, len(lx.verbs))
	for v := range lx.verbs {
		if !strings.Contains(v, " ") && len(v) > 2 {
			candidates = append(candidates, v)
		}
	}
	sort.Strings(candidates) // deterministic tie-break

	best, bestScore := "", 0.0
	for _, c := range candidates {
		if c == word {
			return "", false
		}
		if s := matchr.JaroWinkler(word, c, false); s > bestScore {
			best, bestScore = c, s
		}
	}
	if bestScore < suggestThreshold {
		return "", false
	}
	return best, true
}

// Normalize lowercases input, splits it into words, trims trailing
// punctuation and drops articles. A lone "?" survives as a word.
func Normalize(input string) []string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "?" {
			f = strings.TrimRight(f, ".,!?;:")
			f = strings.TrimLeft(f, "\"'(")
			f = strings.TrimRight(f, "\"')")
		}
		if f == "" || articles[f] {
			continue
		}
		words = append(words, f)
	}
	return words
}

// FirstWord returns the first normalized word of input.
func FirstWord(input string) string {
	words := Normalize(input)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}
