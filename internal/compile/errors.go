package compile

import "fmt"

// NoCommandError reports that the toolchain executable could not be
// spawned at all, which usually means the toolchain is missing from the
// environment. It is deliberately distinct from IOError so callers can
// show an actionable message.
type NoCommandError struct {
	Cmd string
}

func (e *NoCommandError) Error() string {
	return fmt.Sprintf("%s build command failed to start, is the toolchain installed?", e.Cmd)
}

// DiagnosticsError reports a toolchain run that exited non-zero. Stderr
// holds the complete captured diagnostic stream and is shown as-is;
// this is the only place compiler diagnostics surface to the user.
type DiagnosticsError struct {
	Stderr string
}

func (e *DiagnosticsError) Error() string {
	return e.Stderr
}

// IOError wraps filesystem or pipe failures while preparing the build
// directory or reading toolchain output.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error occurred: %v", e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
