package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

// Renderer emits minimal-diff terminal updates: it only ever rewrites
// the rows the previous render is known to have covered, never the
// whole screen. Width is sampled per call so resizes take effect on the
// next redraw.
type Renderer struct {
	out   io.Writer
	width func() int
}

// NewRenderer writes to out using the real terminal width.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out, width: TerminalWidth}
}

// NewRendererWidth writes to out with a fixed width supplier; used by
// tests and non-tty output paths.
func NewRendererWidth(out io.Writer, width func() int) *Renderer {
	return &Renderer{out: out, width: width}
}

// TerminalWidth is the current terminal width in cells, falling back to
// 80 when stdout is not a terminal.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// Width reports the renderer's current row width.
func (r *Renderer) Width() int {
	return r.width()
}

// LinesCovered computes how many terminal rows a run of chCount
// characters occupies when it starts at cell startingColumn of a row
// width cells wide. Zero characters cover zero rows; a run ending
// exactly on a row boundary from column zero does not spill onto an
// extra row; a trailing remainder wider than what is left of the first
// row forces one more. Panics if width is not positive: a zero width is
// a caller bug, not a runtime condition.
func LinesCovered(startingColumn, width, chCount int) int {
	if width <= 0 {
		panic(fmt.Sprintf("terminal width must be greater than zero, got %d", width))
	}
	if chCount == 0 {
		return 0
	}
	lines := chCount/width + 1
	md := chCount % width
	remaining := width - startingColumn
	if remaining < 0 {
		remaining = 0
	}
	switch {
	case md > remaining:
		return lines + 1
	case md == 0 && startingColumn == 0:
		return lines - 1
	default:
		return lines
	}
}

// OverwriteText erases rowsUp rows above the cursor, returns to the
// given zero-based column on the now-top row, clears to end of line,
// and writes text. This is the single redraw primitive behind both
// live-edit feedback and completion overwrites.
func (r *Renderer) OverwriteText(column, rowsUp int, text string) error {
	rows, err := safecast.Conv[uint16](rowsUp)
	if err != nil {
		rows = 0
	}
	var b strings.Builder
	for i := uint16(0); i < rows; i++ {
		b.WriteString(ansi.EraseLine(2))
		b.WriteString(ansi.CursorUp(1))
	}
	b.WriteString(ansi.CursorHorizontalAbsolute(column + 1))
	b.WriteString(ansi.EraseLine(0))
	b.WriteString(text)
	_, werr := io.WriteString(r.out, b.String())
	return werr
}

// EraseCurrentLine clears the row under the cursor and returns to
// column zero.
func (r *Renderer) EraseCurrentLine() error {
	_, err := io.WriteString(r.out, ansi.EraseLine(2)+ansi.CursorHorizontalAbsolute(1))
	return err
}

// WriteOutputChange applies one streamed output event given the number
// of rows the current output line covers, and returns the new row-span.
// A line replacement clears the stale rows in place; a new-line event
// consumes exactly one row.
func (r *Renderer) WriteOutputChange(currentLinesCovered int, change OutputChange) (int, error) {
	if change.newline {
		if _, err := io.WriteString(r.out, "\n"); err != nil {
			return 0, err
		}
		return 1, nil
	}
	var b strings.Builder
	for i := 1; i < currentLinesCovered; i++ {
		b.WriteString(ansi.EraseLine(2))
		b.WriteString(ansi.CursorUp(1))
	}
	b.WriteString(ansi.EraseLine(2))
	b.WriteString(ansi.CursorHorizontalAbsolute(1))
	b.WriteString(change.line)
	if _, err := io.WriteString(r.out, b.String()); err != nil {
		return 0, err
	}
	return LinesCovered(0, r.width(), utf8.RuneCountInString(change.line)), nil
}
