package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"surgepad/internal/compile"
	"surgepad/internal/ui"
)

var evalPlain bool

func init() {
	evalCmd.Flags().BoolVar(&evalPlain, "plain", false, "stream output directly without the progress display")
}

var evalCmd = &cobra.Command{
	Use:   "eval <file>",
	Short: "Compile and run a snippet file",
	Long:  `Eval runs one snippet file through the same pipeline as the console: build directory, toolchain, artifact, child process`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEvalCmd,
}

func runEvalCmd(cmd *cobra.Command, args []string) error {
	configureColor(cmd)
	path := args[0]

	data, err := os.ReadFile(path) // #nosec G304 -- the path is the user's own argument
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return fmt.Errorf("%s is empty", path)
	}

	st, err := loadSettings(filepath.Dir(path))
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

	if evalPlain || !isTerminal(os.Stdout) {
		return runBatch(cmd.OutOrStdout(), sess, strings.NewReader(text))
	}
	return evalWithProgress(cmd, sess, filepath.Base(path), text)
}

// evalWithProgress evaluates under a live progress display, buffering
// every output line and replaying it once the display has quit.
func evalWithProgress(cmd *cobra.Command, sess *session, title, text string) error {
	events := make(chan compile.Event, 16)
	p := tea.NewProgram(ui.NewEvalModel(title, events), tea.WithOutput(cmd.OutOrStdout()))

	var diag, stdout, stderr []string
	var res evalResult
	var evalErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(events)
		res, evalErr = sess.eval(evalRequest{
			text:     text,
			onDiag:   func(l string) { diag = append(diag, l) },
			onStdout: func(l string) { stdout = append(stdout, l) },
			onStderr: func(l string) { stderr = append(stderr, l) },
			progress: compile.ChannelSink{Ch: events},
		})
	}()

	_, uiErr := p.Run()
	<-done
	if uiErr != nil {
		return uiErr
	}

	out := cmd.OutOrStdout()
	for _, l := range diag {
		fmt.Fprintln(os.Stderr, l)
	}
	for _, l := range stdout {
		fmt.Fprintln(out, l)
	}
	for _, l := range stderr {
		color.New(color.FgRed).Fprintln(os.Stderr, l)
	}

	if evalErr != nil {
		if isDiagnosticsError(evalErr) {
			return errors.New("snippet failed to compile")
		}
		return evalErr
	}
	if !res.ok {
		return errors.New("process exited unsuccessfully")
	}
	return nil
}
