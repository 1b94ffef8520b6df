package compile

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorDisplay(t *testing.T) {
	var err error = &NoCommandError{Cmd: "surge"}
	if got, want := err.Error(), "surge build command failed to start, is the toolchain installed?"; got != want {
		t.Errorf("NoCommandError = %q, want %q", got, want)
	}

	err = &DiagnosticsError{Stderr: "compile err"}
	if got := err.Error(); got != "compile err" {
		t.Errorf("DiagnosticsError = %q, want the raw diagnostics", got)
	}

	err = &IOError{Err: fmt.Errorf("test")}
	if got := err.Error(); got != "io error occurred: test" {
		t.Errorf("IOError = %q", got)
	}
}

func TestIOErrorUnwraps(t *testing.T) {
	err := &IOError{Err: fmt.Errorf("read: %w", io.ErrUnexpectedEOF)}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("IOError should unwrap to the underlying error")
	}
}
