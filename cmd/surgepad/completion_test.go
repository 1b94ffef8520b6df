package main

import (
	"reflect"
	"testing"
)

func TestDictionaryCandidatesFromObservedWords(t *testing.T) {
	d := newDictionary()
	d.observe("let total = counter + 1;")

	got := d.candidates("to")
	if len(got) != 1 || got[0].Match != "total" || got[0].InputPos != 0 {
		t.Errorf("candidates(\"to\") = %+v", got)
	}

	var names []string
	for _, c := range got {
		names = append(names, c.Match)
	}
	if !reflect.DeepEqual(names, []string{"total"}) {
		t.Errorf("names = %q", names)
	}
}

func TestDictionaryCandidatesSortedWithPosition(t *testing.T) {
	d := newDictionary()
	d.observe("let counter = 0;")

	got := d.candidates("let co")
	want := []string{"compare", "const", "continue", "contract", "counter"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %+v, want %d matches", got, len(want))
	}
	for i, c := range got {
		if c.Match != want[i] {
			t.Errorf("candidate %d = %q, want %q", i, c.Match, want[i])
		}
		if c.InputPos != 4 {
			t.Errorf("candidate %d position = %d, want 4", i, c.InputPos)
		}
	}
}

func TestDictionaryCandidatesExactWordExcluded(t *testing.T) {
	d := newDictionary()
	if got := d.candidates("to"); len(got) != 0 {
		// "to" is itself a keyword; completing it to itself is useless.
		t.Errorf("candidates(\"to\") = %+v, want none", got)
	}
}

func TestDictionaryNoTrailingWord(t *testing.T) {
	d := newDictionary()
	for _, line := range []string{"", "x + ", "print("} {
		if got := d.candidates(line); len(got) != 0 {
			t.Errorf("candidates(%q) = %+v, want none", line, got)
		}
	}
}

func TestDictionaryObserveSkipsNoise(t *testing.T) {
	d := newDictionary()
	before := len(d.words)
	d.observe("a 42 9lives")
	if len(d.words) != before {
		t.Errorf("dictionary grew by %d from noise input", len(d.words)-before)
	}
}

func TestDictionaryPositionCountsCharacters(t *testing.T) {
	d := newDictionary()
	d.observe("let wörld = 1;")

	got := d.candidates("héllo wö")
	if len(got) != 1 || got[0].Match != "wörld" {
		t.Fatalf("candidates = %+v", got)
	}
	// Position is a character index: "héllo " is six characters even
	// though it is more bytes.
	if got[0].InputPos != 6 {
		t.Errorf("InputPos = %d, want 6", got[0].InputPos)
	}
}
