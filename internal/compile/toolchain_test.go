package compile

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"surgepad/internal/snippet"
)

// stubToolchain writes an executable shell script standing in for the
// surge binary and returns a Toolchain invoking it.
func stubToolchain(t *testing.T, script string) Toolchain {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub toolchain scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-surge")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o700); err != nil {
		t.Fatalf("write stub toolchain: %v", err)
	}
	return Toolchain{Cmd: path, Args: []string{"build", "--quiet"}}
}

func TestStartMissingToolchain(t *testing.T) {
	tc := Toolchain{Cmd: filepath.Join(t.TempDir(), "no-such-toolchain"), Args: []string{"build"}}
	snip := mustSnippet(t, "probe", snippet.KindExpression, "print(1);")

	_, err := tc.Start(&Request{Snippet: snip, Dir: filepath.Join(t.TempDir(), "bd")})
	var nce *NoCommandError
	if !errors.As(err, &nce) {
		t.Fatalf("err = %v, want NoCommandError", err)
	}
}

func TestCompileFailureCarriesDiagnostics(t *testing.T) {
	tc := stubToolchain(t, "echo 'error: expected `;`' >&2\necho 'error: aborting' >&2\nexit 1\n")
	snip := mustSnippet(t, "probe", snippet.KindExpression, "let a = 1")

	var lines []string
	handle, err := tc.Start(&Request{
		Snippet:      snip,
		Dir:          filepath.Join(t.TempDir(), "bd"),
		OnStderrLine: func(line string) { lines = append(lines, line) },
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = handle.Wait()
	var diag *DiagnosticsError
	if !errors.As(err, &diag) {
		t.Fatalf("err = %v, want DiagnosticsError", err)
	}
	if diag.Stderr == "" {
		t.Fatal("diagnostics text is empty")
	}
	if want := "error: expected `;`\nerror: aborting\n"; diag.Stderr != want {
		t.Errorf("stderr = %q, want %q", diag.Stderr, want)
	}
	if len(lines) != 2 || lines[0] != "error: expected `;`" || lines[1] != "error: aborting" {
		t.Errorf("streamed lines = %q", lines)
	}
}

func TestCompileSuccessYieldsArtifact(t *testing.T) {
	tc := stubToolchain(t, "exit 0\n")
	snip := mustSnippet(t, "probe", snippet.KindExpression, "print(1);")
	dir := filepath.Join(t.TempDir(), "bd")

	handle, err := tc.Start(&Request{Snippet: snip, Dir: dir})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	artifact, err := handle.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if artifact.Kind != KindExecutable {
		t.Errorf("artifact kind = %v, want executable", artifact.Kind)
	}
	if want := ExecutablePath(dir, "probe"); artifact.Path != want {
		t.Errorf("artifact path = %q, want %q", artifact.Path, want)
	}
}

func TestCompileLibraryArtifact(t *testing.T) {
	tc := stubToolchain(t, "exit 0\n")
	snip := mustSnippet(t, "probe", snippet.KindExpression, "let x = 1;")
	dir := filepath.Join(t.TempDir(), "bd")

	handle, err := tc.Start(&Request{Snippet: snip, Dir: dir, Library: true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	artifact, err := handle.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if artifact.Kind != KindLibrary {
		t.Errorf("artifact kind = %v, want library", artifact.Kind)
	}
	if want := LibraryPath(dir, SessionLibName); artifact.Path != want {
		t.Errorf("artifact path = %q, want %q", artifact.Path, want)
	}
}

func TestCompileTimeout(t *testing.T) {
	tc := stubToolchain(t, "sleep 10\n")
	snip := mustSnippet(t, "probe", snippet.KindExpression, "print(1);")

	handle, err := tc.Start(&Request{
		Snippet: snip,
		Dir:     filepath.Join(t.TempDir(), "bd"),
		Timeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	start := time.Now()
	_, err = handle.Wait()
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v, want IOError", err)
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("err = %v, want timeout classification", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("timeout did not take effect")
	}
}

func TestLinkingAppendsExternArgument(t *testing.T) {
	// The stub records its argv so the extern argument can be checked.
	if runtime.GOOS == "windows" {
		t.Skip("stub toolchain scripts need a POSIX shell")
	}
	recorded := filepath.Join(t.TempDir(), "argv")
	tc := stubToolchain(t, `printf '%s\n' "$@" > `+recorded+"\nexit 0\n")
	snip := mustSnippet(t, "probe", snippet.KindExpression, "print(1);")

	handle, err := tc.Start(&Request{
		Snippet: snip,
		Dir:     filepath.Join(t.TempDir(), "bd"),
		Link:    &LinkingConfig{PackageName: SessionLibName, ArtifactPath: "/tmp/lib.so"},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := handle.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	argv, err := os.ReadFile(recorded)
	if err != nil {
		t.Fatalf("read recorded argv: %v", err)
	}
	want := "build\n--quiet\n--extern\nsurgepad_session=/tmp/lib.so\n"
	if string(argv) != want {
		t.Errorf("toolchain argv = %q, want %q", argv, want)
	}
}

func TestProgressEvents(t *testing.T) {
	tc := stubToolchain(t, "exit 0\n")
	snip := mustSnippet(t, "probe", snippet.KindExpression, "print(1);")

	ch := make(chan Event, 16)
	handle, err := tc.Start(&Request{
		Snippet:  snip,
		Dir:      filepath.Join(t.TempDir(), "bd"),
		Progress: ChannelSink{Ch: ch},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := handle.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	close(ch)

	var got []string
	for evt := range ch {
		got = append(got, string(evt.Stage)+"/"+string(evt.Status))
	}
	want := []string{"write/working", "write/done", "compile/working", "compile/done"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
