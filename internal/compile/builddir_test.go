package compile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"surgepad/internal/snippet"
)

func mustSnippet(t *testing.T, name string, kind snippet.Kind, text string) *snippet.Snippet {
	t.Helper()
	s, err := snippet.New(name, kind, text)
	if err != nil {
		t.Fatalf("snippet.New: %v", err)
	}
	return s
}

func TestWriteBuildDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "attempt")
	snip := mustSnippet(t, "probe", snippet.KindExpression, "import std/io;\nprint(1);")

	if err := WriteBuildDir(snip, dir, nil, false); err != nil {
		t.Fatalf("WriteBuildDir: %v", err)
	}

	var m manifest
	if _, err := toml.DecodeFile(filepath.Join(dir, "surge.toml"), &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.Package.Name != "probe" {
		t.Errorf("package name = %q", m.Package.Name)
	}
	if m.Run.Main != "src/main.sg" {
		t.Errorf("run main = %q", m.Run.Main)
	}
	if got := m.Dependencies["std"]; got != "*" {
		t.Errorf("dependency constraint = %q, want unconstrained", got)
	}

	src, err := os.ReadFile(filepath.Join(dir, "src", "main.sg"))
	if err != nil {
		t.Fatalf("read entry source: %v", err)
	}
	if !strings.Contains(string(src), "import std/io;") {
		t.Errorf("entry source missing import:\n%s", src)
	}
	if !strings.Contains(string(src), "fn main() {\n    print(1);\n}") {
		t.Errorf("entry source missing wrapped body:\n%s", src)
	}
}

func TestWriteBuildDirLibrary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lib-attempt")
	snip := mustSnippet(t, "probe", snippet.KindExpression, "let x = 1;")

	if err := WriteBuildDir(snip, dir, nil, true); err != nil {
		t.Fatalf("WriteBuildDir: %v", err)
	}

	var m manifest
	if _, err := toml.DecodeFile(filepath.Join(dir, "surge.toml"), &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.Package.Name != SessionLibName {
		t.Errorf("library package name = %q, want %q", m.Package.Name, SessionLibName)
	}

	src, err := os.ReadFile(filepath.Join(dir, "src", "main.sg"))
	if err != nil {
		t.Fatalf("read entry source: %v", err)
	}
	if !strings.Contains(string(src), "pub fn _probe_intern_eval()") {
		t.Errorf("library source missing eval function:\n%s", src)
	}
}

func TestWriteBuildDirLinking(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "linked")
	snip := mustSnippet(t, "probe", snippet.KindExpression, "print(2);")
	link := &LinkingConfig{PackageName: SessionLibName, ArtifactPath: "/tmp/libsurgepad_session.so"}

	if err := WriteBuildDir(snip, dir, link, false); err != nil {
		t.Fatalf("WriteBuildDir: %v", err)
	}
	src, err := os.ReadFile(filepath.Join(dir, "src", "main.sg"))
	if err != nil {
		t.Fatalf("read entry source: %v", err)
	}
	if !strings.Contains(string(src), "extern mod surgepad_session;") {
		t.Errorf("entry source missing extern declaration:\n%s", src)
	}
}

func TestWriteBuildDirOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "attempt")
	first := mustSnippet(t, "probe", snippet.KindExpression, "print(1);")
	second := mustSnippet(t, "probe", snippet.KindExpression, "print(2);")

	if err := WriteBuildDir(first, dir, nil, false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteBuildDir(second, dir, nil, false); err != nil {
		t.Fatalf("second write: %v", err)
	}
	src, err := os.ReadFile(filepath.Join(dir, "src", "main.sg"))
	if err != nil {
		t.Fatalf("read entry source: %v", err)
	}
	if !strings.Contains(string(src), "print(2);") {
		t.Errorf("second write did not overwrite entry source:\n%s", src)
	}
}
