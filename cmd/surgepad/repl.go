package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"surgepad/internal/compile"
	"surgepad/internal/console"
	"surgepad/internal/version"
)

// runConsole is the root command: an interactive console on a terminal,
// a one-shot evaluation of piped input otherwise.
func runConsole(cmd *cobra.Command, args []string) error {
	configureColor(cmd)
	quiet, _ := cmd.Flags().GetBool("quiet")

	st, err := loadSettings(".")
	if err != nil {
		return err
	}
	sess, err := newSession(st)
	if err != nil {
		return err
	}
	defer func() {
		_ = sess.Close()
	}()

	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return runBatch(cmd.OutOrStdout(), sess, os.Stdin)
	}

	if !quiet {
		fmt.Fprintf(os.Stdout, "surgepad %s (interactive surge console)\n", version.Version)
		fmt.Fprintln(os.Stdout, `type ":help" for commands, Ctrl+D to exit`)
	}
	return interactiveLoop(os.Stdout, sess, quiet)
}

func interactiveLoop(out *os.File, sess *session, quiet bool) error {
	fd := int(os.Stdin.Fd())
	src, err := console.NewEventSource(os.Stdin)
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()

	r := console.NewRenderer(out)
	prompt := sess.settings.prompt
	promptStyled := color.New(color.FgCyan, color.Bold).Sprint(prompt)
	ed := &lineEditor{
		out:        out,
		r:          r,
		buf:        console.NewBuffer(),
		comp:       console.NewCompleter(),
		sess:       sess,
		promptCols: runewidth.StringWidth(prompt),
	}

	for {
		fmt.Fprint(out, promptStyled)
		state, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		line, outcome, readErr := ed.readLine(src)
		_ = term.Restore(fd, state)
		if readErr != nil {
			return readErr
		}
		switch outcome {
		case lineQuit:
			return nil
		case lineCancelled:
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if exit := handleCommand(out, sess, trimmed); exit {
				return nil
			}
			continue
		}
		runSnippet(out, r, sess, line, quiet)
	}
}

// handleCommand dispatches console directives. It reports whether the
// console should exit.
func handleCommand(out io.Writer, sess *session, cmd string) bool {
	switch cmd {
	case ":q", ":quit", ":exit":
		return true
	case ":reset":
		if err := sess.reset(); err != nil {
			color.New(color.FgRed).Fprintf(out, "reset failed: %v\n", err)
			return false
		}
		fmt.Fprintln(out, "session state dropped")
	case ":help":
		fmt.Fprintln(out, "commands:")
		fmt.Fprintln(out, "  :help          show this help")
		fmt.Fprintln(out, "  :reset         drop the session library, cache and learned completions")
		fmt.Fprintln(out, "  :q :quit :exit leave the console")
	default:
		fmt.Fprintf(out, "unknown command %q, try :help\n", cmd)
	}
	return false
}

// runSnippet evaluates one console input in cooked terminal mode,
// streaming child output as it arrives. Transient status lines are
// drawn in place and overwritten by the first real output line.
func runSnippet(out io.Writer, r *console.Renderer, sess *session, text string, quiet bool) {
	var mu sync.Mutex
	rows := 1

	writeLine := func(l string) {
		mu.Lock()
		defer mu.Unlock()
		rows, _ = r.WriteOutputChange(rows, console.ChangeLine(l))
		rows, _ = r.WriteOutputChange(rows, console.ChangeNewLine())
	}
	status := func(l string) {
		if quiet {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		rows, _ = r.WriteOutputChange(rows, console.ChangeLine(l))
	}

	status(color.CyanString("compiling..."))
	res, err := sess.eval(evalRequest{
		text:     text,
		onDiag:   writeLine,
		onStdout: writeLine,
		onStderr: func(l string) { writeLine(color.RedString(l)) },
		progress: statusSink{status: status},
	})

	// Blank any status line still standing so the next prompt starts
	// on a clean row.
	if !quiet {
		mu.Lock()
		rows, _ = r.WriteOutputChange(rows, console.ChangeLine(""))
		mu.Unlock()
	}

	switch {
	case err == nil:
		if !res.ok {
			color.New(color.FgYellow).Fprintln(out, "process exited unsuccessfully")
		} else if res.cached && !quiet {
			color.New(color.Faint).Fprintln(out, "(cached artifact)")
		}
	case isDiagnosticsError(err):
		color.New(color.FgRed).Fprintln(out, "snippet failed to compile")
	default:
		color.New(color.FgRed).Fprintln(out, err.Error())
	}
}

// statusSink maps pipeline progress onto a transient status line.
type statusSink struct {
	status func(string)
}

func (s statusSink) OnEvent(evt compile.Event) {
	if evt.Status != compile.StatusWorking {
		return
	}
	switch evt.Stage {
	case compile.StageCompile:
		s.status(color.CyanString("compiling..."))
	case compile.StageLink:
		s.status(color.CyanString("linking..."))
	case compile.StageRun:
		s.status(color.CyanString("running..."))
	}
}

func isDiagnosticsError(err error) bool {
	var diag *compile.DiagnosticsError
	return errors.As(err, &diag)
}

// runBatch evaluates everything readable from in as one snippet, for
// piped usage like `echo 'print("hi");' | surgepad`.
func runBatch(out io.Writer, sess *session, in io.Reader) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil
	}

	res, err := sess.eval(evalRequest{
		text:     text,
		onDiag:   func(l string) { fmt.Fprintln(os.Stderr, l) },
		onStdout: func(l string) { fmt.Fprintln(out, l) },
		onStderr: func(l string) { fmt.Fprintln(os.Stderr, l) },
	})
	if err != nil {
		if isDiagnosticsError(err) {
			return errors.New("snippet failed to compile")
		}
		return err
	}
	if !res.ok {
		return errors.New("process exited unsuccessfully")
	}
	return nil
}
