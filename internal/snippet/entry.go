package snippet

import (
	"fmt"
	"strings"
)

// EvalFnName constructs the generated evaluation function name for the
// given module path sequence.
func EvalFnName(modPath []string) string {
	return fmt.Sprintf("_%s_intern_eval", strings.Join(modPath, "_"))
}

// EntrySource renders the generated entry-point file for an executable
// build: each dependency's raw import statement, an extern declaration
// for a previously built session library when externPkg is non-empty,
// then the snippet body. KindProgram bodies are emitted verbatim and
// must carry their own entry point; KindExpression bodies are wrapped
// in a generated one.
func (s *Snippet) EntrySource(externPkg string) string {
	var b strings.Builder
	for _, dep := range s.Deps {
		b.WriteString(dep.Stmt)
		b.WriteString("\n")
	}
	if externPkg != "" {
		fmt.Fprintf(&b, "extern mod %s;\n", externPkg)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	switch s.Kind {
	case KindProgram:
		b.WriteString(s.Src)
		b.WriteString("\n")
	case KindExpression:
		b.WriteString("@entrypoint\nfn main() {\n")
		writeIndented(&b, s.Src)
		b.WriteString("}\n")
	}
	return b.String()
}

// LibSource renders the snippet as a linkable library source file: the
// body is wrapped in the generated evaluation function instead of an
// entry point, so a later snippet can link against the result.
func (s *Snippet) LibSource() string {
	var b strings.Builder
	for _, dep := range s.Deps {
		b.WriteString(dep.Stmt)
		b.WriteString("\n")
	}
	if len(s.Deps) > 0 {
		b.WriteString("\n")
	}
	if s.Kind == KindProgram {
		b.WriteString(s.Src)
		b.WriteString("\n")
		return b.String()
	}
	fmt.Fprintf(&b, "pub fn %s() {\n", EvalFnName([]string{s.Name}))
	writeIndented(&b, s.Src)
	b.WriteString("}\n")
	return b.String()
}

func writeIndented(b *strings.Builder, src string) {
	for _, line := range strings.Split(src, "\n") {
		if strings.TrimSpace(line) == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}
