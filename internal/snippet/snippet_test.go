package snippet

import (
	"strings"
	"testing"
)

func TestNewSplitsImports(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantSrc  string
		wantDeps []DepDecl
	}{
		{
			name:    "no imports",
			text:    "let x = 1;",
			wantSrc: "let x = 1;",
		},
		{
			name:    "leading import",
			text:    "import std/time;\nlet x = now();",
			wantSrc: "let x = now();",
			wantDeps: []DepDecl{
				{Name: "std", Stmt: "import std/time;"},
			},
		},
		{
			name:    "interior import kept verbatim",
			text:    "let x = 1;\nimport vectors;\nlet y = 2;",
			wantSrc: "let x = 1;\nlet y = 2;",
			wantDeps: []DepDecl{
				{Name: "vectors", Stmt: "import vectors;"},
			},
		},
		{
			name:    "import without semicolon",
			text:    "import nets/http\nping()",
			wantSrc: "ping()",
			wantDeps: []DepDecl{
				{Name: "nets", Stmt: "import nets/http"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New("probe", KindExpression, tt.text)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if s.Src != tt.wantSrc {
				t.Errorf("src = %q, want %q", s.Src, tt.wantSrc)
			}
			if len(s.Deps) != len(tt.wantDeps) {
				t.Fatalf("deps = %v, want %v", s.Deps, tt.wantDeps)
			}
			for i, dep := range s.Deps {
				if dep != tt.wantDeps[i] {
					t.Errorf("dep[%d] = %v, want %v", i, dep, tt.wantDeps[i])
				}
			}
		})
	}
}

func TestNewRejectsBadNames(t *testing.T) {
	for _, name := range []string{"", "1abc", "a b", "тест", "a/b"} {
		if _, err := New(name, KindProgram, "fn main() {}"); err == nil {
			t.Errorf("New(%q) succeeded, want error", name)
		}
	}
	for _, name := range []string{"probe", "_x", "my-snippet", "v2"} {
		if _, err := New(name, KindProgram, "fn main() {}"); err != nil {
			t.Errorf("New(%q): %v", name, err)
		}
	}
}

func TestEntrySourceProgram(t *testing.T) {
	s, err := New("probe", KindProgram, "import std/io;\nfn main() { print(1); }")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := s.EntrySource("")
	want := "import std/io;\n\nfn main() { print(1); }\n"
	if got != want {
		t.Errorf("entry source = %q, want %q", got, want)
	}
}

func TestEntrySourceExpressionWraps(t *testing.T) {
	s, err := New("probe", KindExpression, "print(2 + 2);")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := s.EntrySource("")
	want := "@entrypoint\nfn main() {\n    print(2 + 2);\n}\n"
	if got != want {
		t.Errorf("entry source = %q, want %q", got, want)
	}
}

func TestEntrySourceExtern(t *testing.T) {
	s, err := New("probe", KindExpression, "print(2 + 2);")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := s.EntrySource("surgepad_session")
	if !strings.Contains(got, "extern mod surgepad_session;\n") {
		t.Errorf("entry source missing extern declaration:\n%s", got)
	}
	if !strings.HasSuffix(got, "fn main() {\n    print(2 + 2);\n}\n") {
		t.Errorf("entry source missing wrapped body:\n%s", got)
	}
}

func TestLibSourceWrapsEvalFn(t *testing.T) {
	s, err := New("probe", KindExpression, "let x = 1;")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := s.LibSource()
	if !strings.Contains(got, "pub fn _probe_intern_eval() {\n    let x = 1;\n}") {
		t.Errorf("lib source = %q", got)
	}
}

func TestEvalFnName(t *testing.T) {
	if got := EvalFnName([]string{"lib"}); got != "_lib_intern_eval" {
		t.Errorf("EvalFnName = %q", got)
	}
	if got := EvalFnName([]string{"a", "b"}); got != "_a_b_intern_eval" {
		t.Errorf("EvalFnName = %q", got)
	}
}
