package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"surgepad/internal/cache"
	"surgepad/internal/compile"
	"surgepad/internal/snippet"
)

// evalName is the manifest package name for every console snippet. The
// session library keeps its own name, compile.SessionLibName.
const evalName = "surgepad_eval"

// session owns the build root for one console run: the per-attempt
// build directories, the artifact cache, and the linkable library built
// from the most recent successful snippet.
type session struct {
	settings  settings
	buildRoot string
	workDir   string
	cache     *cache.Session
	link      *compile.LinkingConfig
	dict      *dictionary
	attempts  int
}

func newSession(st settings) (*session, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}
	if st.buildRoot != "" {
		if err := os.MkdirAll(st.buildRoot, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create build root: %w", err)
		}
	}
	buildRoot, err := os.MkdirTemp(st.buildRoot, "surgepad-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create session build root: %w", err)
	}
	c, err := cache.Open(buildRoot)
	if err != nil {
		_ = os.RemoveAll(buildRoot)
		return nil, fmt.Errorf("failed to open session cache: %w", err)
	}
	return &session{
		settings:  st,
		buildRoot: buildRoot,
		workDir:   workDir,
		cache:     c,
		dict:      newDictionary(),
	}, nil
}

// Close removes the build root and everything under it, cached
// artifacts included.
func (s *session) Close() error {
	return os.RemoveAll(s.buildRoot)
}

// reset drops the session library, the cache, and the learned
// completion words, as if the console had just started.
func (s *session) reset() error {
	s.link = nil
	s.dict = newDictionary()
	return s.cache.Clear()
}

// evalRequest carries one snippet evaluation with its output callbacks.
// Callbacks receive complete lines as they stream from the child.
type evalRequest struct {
	text     string
	onDiag   func(string)
	onStdout func(string)
	onStderr func(string)
	progress compile.ProgressSink
}

// evalResult reports a finished evaluation. ok mirrors the child's exit
// status; a failing snippet is a normal console outcome.
type evalResult struct {
	ok     bool
	cached bool
}

// eval drives the full pipeline for one snippet: build directory,
// toolchain, artifact, child process. Identical snippets hit the
// session cache and skip straight to execution.
func (s *session) eval(req evalRequest) (evalResult, error) {
	kind := snippet.KindExpression
	if strings.Contains(req.text, "fn main") {
		kind = snippet.KindProgram
	}
	snip, err := snippet.New(evalName, kind, req.text)
	if err != nil {
		return evalResult{}, &compile.IOError{Err: err}
	}

	externPkg := ""
	if s.link != nil {
		externPkg = s.link.PackageName
	}
	key := cache.Key(
		s.settings.toolchain.Cmd,
		strings.Join(s.settings.toolchain.Args, "\x00"),
		externPkg,
		snip.EntrySource(externPkg),
	)

	artifact, cached, err := s.lookupOrCompile(snip, key, req)
	if err != nil {
		return evalResult{}, err
	}

	ok, err := s.runArtifact(artifact, snip.Name, req)
	if err != nil {
		return evalResult{cached: cached}, err
	}

	if ok {
		s.dict.observe(req.text)
		if !cached && kind == snippet.KindExpression {
			s.refreshLibrary(snip, req)
		}
	}
	return evalResult{ok: ok, cached: cached}, nil
}

func (s *session) lookupOrCompile(snip *snippet.Snippet, key cache.Digest, req evalRequest) (compile.Artifact, bool, error) {
	var payload cache.Payload
	hit, err := s.cache.Get(key, &payload)
	if err != nil {
		return compile.Artifact{}, false, &compile.IOError{Err: err}
	}
	if hit {
		return compile.Artifact{Path: payload.ArtifactPath, Kind: compile.KindExecutable}, true, nil
	}

	artifact, err := s.compileAttempt(&compile.Request{
		Snippet:      snip,
		Dir:          s.nextAttemptDir(),
		Link:         s.link,
		OnStderrLine: req.onDiag,
		Timeout:      s.settings.compileTimeout,
		Progress:     req.progress,
	})
	if err != nil {
		return compile.Artifact{}, false, err
	}

	if payload, err := cache.NewPayload(snip.Name, artifact.Path, false, len(snip.Deps)); err == nil {
		// A failed cache write only costs a recompile later.
		_ = s.cache.Put(key, payload)
	}
	return artifact, false, nil
}

func (s *session) compileAttempt(req *compile.Request) (compile.Artifact, error) {
	handle, err := s.settings.toolchain.Start(req)
	if err != nil {
		return compile.Artifact{}, err
	}
	return handle.Wait()
}

func (s *session) nextAttemptDir() string {
	s.attempts++
	return filepath.Join(s.buildRoot, fmt.Sprintf("attempt%d", s.attempts))
}

// runArtifact executes a compiled snippet, streaming both pipes until
// the child closes them. A configured run timeout kills the child but
// still lets the pipes drain to EOF before the exit is observed.
func (s *session) runArtifact(artifact compile.Artifact, name string, req evalRequest) (bool, error) {
	emitRun := func(status compile.Status, err error, elapsed time.Duration) {
		if req.progress != nil {
			req.progress.OnEvent(compile.Event{
				Name:    name,
				Stage:   compile.StageRun,
				Status:  status,
				Err:     err,
				Elapsed: elapsed,
			})
		}
	}

	emitRun(compile.StatusWorking, nil, 0)
	started := time.Now()
	proc, err := artifact.Run(s.workDir)
	if err != nil {
		emitRun(compile.StatusError, err, 0)
		return false, err
	}

	var timedOut atomic.Bool
	if s.settings.runTimeout > 0 {
		timer := time.AfterFunc(s.settings.runTimeout, func() {
			timedOut.Store(true)
			_ = proc.Kill()
		})
		defer timer.Stop()
	}

	streamErr := proc.Stream(req.onStdout, req.onStderr)
	ok, waitErr := proc.Wait()
	elapsed := time.Since(started)

	switch {
	case timedOut.Load():
		err := &compile.IOError{Err: fmt.Errorf("process timed out after %s", s.settings.runTimeout)}
		emitRun(compile.StatusError, err, elapsed)
		return false, err
	case waitErr != nil:
		emitRun(compile.StatusError, waitErr, elapsed)
		return false, waitErr
	case streamErr != nil:
		emitRun(compile.StatusError, streamErr, elapsed)
		return false, streamErr
	}

	emitRun(compile.StatusDone, nil, elapsed)
	return ok, nil
}

// refreshLibrary rebuilds the session library from the last successful
// snippet so the next input can link against its definitions. A library
// build failure is deliberately quiet: the snippet already ran, and the
// next compile simply proceeds without the new state.
func (s *session) refreshLibrary(snip *snippet.Snippet, req evalRequest) {
	// The library dir is reused across refreshes so the artifact path
	// stays stable: cached executables resolve the session library at
	// that path when they load.
	artifact, err := s.compileAttempt(&compile.Request{
		Snippet:  snip,
		Dir:      filepath.Join(s.buildRoot, "session_lib"),
		Library:  true,
		Timeout:  s.settings.compileTimeout,
		Progress: req.progress,
	})
	if err != nil {
		return
	}
	s.link = &compile.LinkingConfig{
		PackageName:  compile.SessionLibName,
		ArtifactPath: artifact.Path,
	}
}
