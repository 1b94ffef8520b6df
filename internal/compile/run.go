package compile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Process is a running child spawned from a compiled artifact. Its
// pipes are owned exclusively by the spawning call and must be drained
// before Wait; Wait must be called exactly once.
type Process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// Run spawns the artifact in workdir with piped stdout/stderr. Verbose
// runtime fault traces are disabled to keep crash output terse in the
// console.
func (a Artifact) Run(workdir string) (*Process, error) {
	if a.Kind != KindExecutable {
		return nil, &IOError{Err: fmt.Errorf("artifact %q is not executable", a.Path)}
	}
	// #nosec G204 -- the path is our own build output
	cmd := exec.Command(a.Path)
	cmd.Dir = workdir
	cmd.Env = append(os.Environ(), "SURGE_BACKTRACE=0")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &IOError{Err: fmt.Errorf("failed to pipe stdout: %w", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &IOError{Err: fmt.Errorf("failed to pipe stderr: %w", err)}
	}
	if err := cmd.Start(); err != nil {
		return nil, &IOError{Err: fmt.Errorf("failed to start %q: %w", a.Path, err)}
	}
	return &Process{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// Stdout is the piped standard output of the child.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Stderr is the piped standard error of the child.
func (p *Process) Stderr() io.Reader {
	return p.stderr
}

// Stream drains both pipes line-by-line until the child closes them,
// delivering each line to the matching callback. Both pipes are read
// concurrently so neither can fill its kernel buffer and stall the
// child.
func (p *Process) Stream(onStdout, onStderr func(string)) error {
	var g errgroup.Group
	g.Go(func() error {
		return scanLines(p.stdout, onStdout)
	})
	g.Go(func() error {
		return scanLines(p.stderr, onStderr)
	})
	if err := g.Wait(); err != nil {
		return &IOError{Err: err}
	}
	return nil
}

func scanLines(r io.Reader, cb func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if cb != nil {
			cb(scanner.Text())
		}
	}
	return scanner.Err()
}

// Kill forcibly terminates the child. Callers that stream output under
// their own deadline use this instead of WaitTimeout, so the pipes
// still drain to a normal EOF before Wait observes the exit.
func (p *Process) Kill() error {
	return p.cmd.Process.Kill()
}

// Wait blocks until the child exits and reports whether it succeeded.
// The outcome is informational: a failing exit from evaluated user code
// is an expected console result, not a pipeline error.
func (p *Process) Wait() (bool, error) {
	return p.wait(0)
}

// WaitTimeout is Wait with a bound; on expiry the child is killed and
// an unsuccessful outcome is reported alongside the timeout error.
func (p *Process) WaitTimeout(d time.Duration) (bool, error) {
	return p.wait(d)
}

func (p *Process) wait(d time.Duration) (bool, error) {
	var killed atomic.Bool
	if d > 0 {
		timer := time.AfterFunc(d, func() {
			killed.Store(true)
			_ = p.cmd.Process.Kill()
		})
		defer timer.Stop()
	}
	err := p.cmd.Wait()
	if killed.Load() {
		return false, &IOError{Err: fmt.Errorf("process timed out after %s", d)}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return false, nil
		}
		return false, &IOError{Err: err}
	}
	return true, nil
}
