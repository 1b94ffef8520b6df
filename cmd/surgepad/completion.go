package main

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"surgepad/internal/console"
)

// surgeWords are the language keywords and builtins every session
// offers for completion before any snippet has run.
var surgeWords = []string{
	"fn", "let", "const", "mut", "own", "if", "else", "while", "for",
	"in", "break", "continue", "return", "import", "as", "type",
	"contract", "tag", "extern", "pub", "async", "await", "compare",
	"finally", "channel", "spawn", "true", "false", "signal",
	"parallel", "map", "reduce", "with", "macro", "pragma", "to",
	"heir", "is", "field", "nothing", "print", "println",
}

// dictionary collects completion words: the fixed language vocabulary
// plus every identifier seen in successfully evaluated snippets.
type dictionary struct {
	words map[string]struct{}
}

func newDictionary() *dictionary {
	d := &dictionary{words: make(map[string]struct{}, len(surgeWords))}
	for _, w := range surgeWords {
		d.words[w] = struct{}{}
	}
	return d
}

// observe harvests identifiers from snippet text. Single-character
// names are skipped; they complete to themselves anyway.
func (d *dictionary) observe(text string) {
	for _, word := range splitIdentifiers(text) {
		if utf8.RuneCountInString(word) < 2 {
			continue
		}
		if first, _ := utf8.DecodeRuneInString(word); unicode.IsDigit(first) {
			continue
		}
		d.words[word] = struct{}{}
	}
}

// candidates matches the trailing word of line against the dictionary.
// InputPos is the character index where the word starts, so applying a
// candidate replaces exactly that word.
func (d *dictionary) candidates(line string) []console.Candidate {
	start := trailingWordStart(line)
	prefix := line[start:]
	if prefix == "" {
		return nil
	}

	pos := utf8.RuneCountInString(line[:start])
	var out []console.Candidate
	for word := range d.words {
		if strings.HasPrefix(word, prefix) && word != prefix {
			out = append(out, console.Candidate{Match: word, InputPos: pos})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Match < out[j].Match })
	return out
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// trailingWordStart returns the byte offset where the last identifier
// in line begins, or len(line) when line ends on a non-identifier rune.
func trailingWordStart(line string) int {
	start := len(line)
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(line[:start])
		if !isIdentRune(r) {
			break
		}
		start -= size
	}
	return start
}

func splitIdentifiers(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !isIdentRune(r)
	})
}
