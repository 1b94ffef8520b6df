// Package snippet models a single console input unit: the raw source
// text, its wrapping mode, and the external dependency declarations it
// carries. The text itself is opaque to surgepad; only import lines are
// recognized, and those are recorded verbatim.
package snippet

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Kind selects how the snippet text becomes a compilable program.
type Kind uint8

const (
	// KindProgram means the text already contains its own entry point.
	KindProgram Kind = iota
	// KindExpression means the text is wrapped in a generated entry function.
	KindExpression
)

// DepDecl is one external dependency declaration, kept verbatim.
type DepDecl struct {
	// Name is the package name, the first segment of the import path.
	Name string
	// Stmt is the raw import statement as the user typed it.
	Stmt string
}

// Snippet is an immutable source unit built once per compile request.
type Snippet struct {
	Src  string
	Kind Kind
	Name string
	Deps []DepDecl
}

// New builds a snippet from raw console input. The text is normalized
// to NFC so character positions seen by the line editor match the bytes
// the toolchain reads back, and leading-or-interior import lines are
// split out as dependency declarations.
func New(name string, kind Kind, text string) (*Snippet, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("invalid snippet name %q", name)
	}
	body, deps := splitImports(norm.NFC.String(text))
	return &Snippet{
		Src:  body,
		Kind: kind,
		Name: name,
		Deps: deps,
	}, nil
}

// ValidName reports whether name is usable as a manifest package name.
// Same shape as a module identifier, with '-' additionally allowed.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// splitImports separates import statements from the snippet body,
// preserving the order of both. Import recognition is purely lexical;
// the statements are never interpreted.
func splitImports(text string) (string, []DepDecl) {
	var deps []DepDecl
	var body []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if name, ok := importPackage(trimmed); ok {
			deps = append(deps, DepDecl{Name: name, Stmt: trimmed})
			continue
		}
		body = append(body, line)
	}
	return strings.TrimSpace(strings.Join(body, "\n")), deps
}

// importPackage extracts the package name from an import statement,
// e.g. "import std/time;" yields "std".
func importPackage(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "import ")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ";"))
	if rest == "" {
		return "", false
	}
	name := rest
	if idx := strings.IndexAny(rest, "/ \t"); idx >= 0 {
		name = rest[:idx]
	}
	if !ValidName(name) {
		return "", false
	}
	return name, true
}
