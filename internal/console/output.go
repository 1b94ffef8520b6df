package console

// OutputChange is one streamed output event from a child process:
// either a replacement for the current line (progress-style updates)
// or an advance to a fresh line.
type OutputChange struct {
	line    string
	newline bool
}

// ChangeLine replaces the current output line with text.
func ChangeLine(text string) OutputChange {
	return OutputChange{line: text}
}

// ChangeNewLine advances output by one row.
func ChangeNewLine() OutputChange {
	return OutputChange{newline: true}
}
