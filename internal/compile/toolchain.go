package compile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"surgepad/internal/snippet"
)

// Toolchain describes how the external compiler is invoked. The zero
// value is not usable; construct with DefaultToolchain and override for
// tests or exotic installs.
type Toolchain struct {
	// Cmd is the compiler executable name or path.
	Cmd string
	// Args is the compile-and-build argument list, warnings suppressed.
	Args []string
}

// DefaultToolchain invokes `surge build --quiet` on PATH.
func DefaultToolchain() Toolchain {
	return Toolchain{Cmd: "surge", Args: []string{"build", "--quiet"}}
}

// LinkingConfig names a previously built session library that the next
// compile should link against. Absent on the first compile of a session.
type LinkingConfig struct {
	PackageName  string
	ArtifactPath string
}

// ArtifactKind distinguishes executables from linkable libraries.
type ArtifactKind uint8

const (
	// KindExecutable is a standalone program.
	KindExecutable ArtifactKind = iota
	// KindLibrary is a dynamically loadable library.
	KindLibrary
)

// Artifact is the compiled output of a successful toolchain run.
type Artifact struct {
	Path string
	Kind ArtifactKind
}

// ExecutablePath returns where the toolchain places the executable for
// a package compiled in dir.
func ExecutablePath(dir, name string) string {
	p := filepath.Join(dir, "target", "debug", name)
	if runtime.GOOS == "windows" {
		p += ".exe"
	}
	return p
}

// LibraryPath returns where the toolchain places the dynamic library
// for a package compiled in dir.
func LibraryPath(dir, name string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(dir, "target", "debug", name+".dll")
	}
	return filepath.Join(dir, "target", "debug", "lib"+name+".so")
}

// Request configures one compile attempt.
type Request struct {
	Snippet *snippet.Snippet
	// Dir is the build directory, written fresh for this attempt.
	Dir string
	// Link, when present, appends the extern argument for the session
	// library and its artifact path.
	Link *LinkingConfig
	// Library selects a dynamic-library build instead of an executable.
	Library bool
	// OnStderrLine receives each diagnostic line as it arrives, before
	// the child is waited on.
	OnStderrLine func(string)
	// Timeout bounds the whole compile; zero means wait forever.
	Timeout time.Duration
	// Progress optionally observes pipeline stages.
	Progress ProgressSink
}

// Compiling is a live toolchain child process. Wait must be called
// exactly once; the handle is spent afterwards.
type Compiling struct {
	artifact Artifact
	cmd      *exec.Cmd
	stderr   io.ReadCloser
	onLine   func(string)
	timeout  time.Duration
	progress ProgressSink
	name     string
	started  time.Time
}

// Start materializes the build directory and spawns the toolchain over
// it. A spawn failure is reported as NoCommandError, distinct from all
// other IO errors.
func (tc Toolchain) Start(req *Request) (*Compiling, error) {
	if req == nil || req.Snippet == nil {
		return nil, &IOError{Err: fmt.Errorf("missing compile request")}
	}

	emitStage(req.Progress, req.Snippet.Name, StageWrite, StatusWorking, nil, 0)
	if err := WriteBuildDir(req.Snippet, req.Dir, req.Link, req.Library); err != nil {
		emitStage(req.Progress, req.Snippet.Name, StageWrite, StatusError, err, 0)
		return nil, err
	}
	emitStage(req.Progress, req.Snippet.Name, StageWrite, StatusDone, nil, 0)

	args := append([]string{}, tc.Args...)
	if req.Link != nil {
		args = append(args, "--extern", fmt.Sprintf("%s=%s", req.Link.PackageName, req.Link.ArtifactPath))
	}

	// #nosec G204 -- the command is the configured toolchain, not user input
	cmd := exec.Command(tc.Cmd, args...)
	cmd.Dir = req.Dir
	cmd.Stdout = io.Discard
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &IOError{Err: fmt.Errorf("failed to pipe toolchain stderr: %w", err)}
	}

	stage := StageCompile
	if req.Link != nil {
		stage = StageLink
	}
	emitStage(req.Progress, req.Snippet.Name, stage, StatusWorking, nil, 0)
	if err := cmd.Start(); err != nil {
		spawnErr := &NoCommandError{Cmd: tc.Cmd}
		emitStage(req.Progress, req.Snippet.Name, stage, StatusError, spawnErr, 0)
		return nil, spawnErr
	}

	artifact := Artifact{Path: ExecutablePath(req.Dir, req.Snippet.Name), Kind: KindExecutable}
	if req.Library {
		artifact = Artifact{Path: LibraryPath(req.Dir, SessionLibName), Kind: KindLibrary}
	}

	return &Compiling{
		artifact: artifact,
		cmd:      cmd,
		stderr:   stderr,
		onLine:   req.OnStderrLine,
		timeout:  req.Timeout,
		progress: req.Progress,
		name:     req.Snippet.Name,
		started:  time.Now(),
	}, nil
}

// Wait drains the diagnostic stream and blocks until the toolchain
// exits. Stderr is read to completion before waiting so a full pipe can
// never deadlock the child against us. On success the compiled artifact
// is returned; a non-zero exit yields DiagnosticsError carrying the
// complete captured stderr.
func (c *Compiling) Wait() (Artifact, error) {
	stage := StageCompile
	if c.artifact.Kind == KindLibrary {
		stage = StageLink
	}

	var killed atomic.Bool
	if c.timeout > 0 {
		timer := time.AfterFunc(c.timeout, func() {
			killed.Store(true)
			_ = c.cmd.Process.Kill()
		})
		defer timer.Stop()
	}

	var captured strings.Builder
	scanner := bufio.NewScanner(c.stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if c.onLine != nil {
			c.onLine(line)
		}
		captured.WriteString(line)
		captured.WriteString("\n")
	}
	readErr := scanner.Err()

	elapsed := time.Since(c.started)
	waitErr := c.cmd.Wait()
	switch {
	case killed.Load():
		err := &IOError{Err: fmt.Errorf("toolchain timed out after %s", c.timeout)}
		emitStage(c.progress, c.name, stage, StatusError, err, elapsed)
		return Artifact{}, err
	case waitErr != nil:
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			err := &DiagnosticsError{Stderr: captured.String()}
			emitStage(c.progress, c.name, stage, StatusError, err, elapsed)
			return Artifact{}, err
		}
		err := &IOError{Err: waitErr}
		emitStage(c.progress, c.name, stage, StatusError, err, elapsed)
		return Artifact{}, err
	case readErr != nil:
		err := &IOError{Err: fmt.Errorf("failed reading toolchain stderr: %w", readErr)}
		emitStage(c.progress, c.name, stage, StatusError, err, elapsed)
		return Artifact{}, err
	}

	emitStage(c.progress, c.name, stage, StatusDone, nil, elapsed)
	return c.artifact, nil
}
