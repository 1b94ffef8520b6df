package main

import (
	"io"

	"github.com/charmbracelet/x/ansi"

	"surgepad/internal/console"
)

// lineOutcome is how one readLine call ended.
type lineOutcome int

const (
	lineSubmitted lineOutcome = iota
	lineCancelled
	lineQuit
)

type editAction int

const (
	editContinue editAction = iota
	editSubmit
	editCancel
	editQuit
)

// lineEditor reads one input line in raw mode, maintaining the screen
// through the renderer. The prompt is drawn by the caller; the editor
// owns everything after promptCols.
type lineEditor struct {
	out        io.Writer
	r          *console.Renderer
	buf        *console.Buffer
	comp       *console.Completer
	sess       *session
	promptCols int
}

// readLine consumes key events until the line is submitted, cancelled
// or the console should quit. A closed event stream (stdin EOF) quits.
func (e *lineEditor) readLine(src *console.EventSource) (string, lineOutcome, error) {
	e.buf.Clear()
	for evt := range src.Events() {
		action, err := e.handleKey(evt)
		if err != nil {
			return "", lineCancelled, err
		}
		switch action {
		case editSubmit:
			return e.buf.String(), lineSubmitted, nil
		case editCancel:
			return "", lineCancelled, nil
		case editQuit:
			return "", lineQuit, nil
		}
	}
	_, err := io.WriteString(e.out, "\r\n")
	return "", lineQuit, err
}

func (e *lineEditor) handleKey(evt console.KeyEvent) (editAction, error) {
	if evt.Key == console.KeyRune && evt.Mods&console.ModCtrl != 0 {
		switch evt.Rune {
		case 'c':
			e.buf.Clear()
			_, err := io.WriteString(e.out, "\r\n")
			return editCancel, err
		case 'd':
			if e.buf.Len() == 0 {
				_, err := io.WriteString(e.out, "\r\n")
				return editQuit, err
			}
			return editContinue, e.delete()
		case 'a':
			e.buf.MoveLeft(e.buf.Pos())
			return editContinue, e.reposition()
		case 'e':
			e.buf.MoveRight(e.buf.Len() - e.buf.Pos())
			return editContinue, e.reposition()
		}
		return editContinue, nil
	}
	if evt.Key == console.KeyRune && evt.Mods == 0 {
		return editContinue, e.insert(evt.Rune)
	}

	switch evt.Key {
	case console.KeyEnter:
		_, err := io.WriteString(e.out, "\r\n")
		return editSubmit, err
	case console.KeyTab:
		return editContinue, e.complete()
	case console.KeyBackspace:
		return editContinue, e.backspace()
	case console.KeyDelete:
		return editContinue, e.delete()
	case console.KeyLeft:
		e.buf.MoveLeft(1)
		return editContinue, e.reposition()
	case console.KeyRight:
		e.buf.MoveRight(1)
		return editContinue, e.reposition()
	case console.KeyHome:
		e.buf.MoveLeft(e.buf.Pos())
		return editContinue, e.reposition()
	case console.KeyEnd:
		e.buf.MoveRight(e.buf.Len() - e.buf.Pos())
		return editContinue, e.reposition()
	}
	return editContinue, nil
}

func (e *lineEditor) insert(r rune) error {
	prev := e.rows()
	e.buf.Insert(r)
	return e.redraw(prev)
}

func (e *lineEditor) backspace() error {
	if e.buf.Pos() == 0 {
		return nil
	}
	prev := e.rows()
	e.buf.Backspace()
	return e.redraw(prev)
}

func (e *lineEditor) delete() error {
	if e.buf.Pos() >= e.buf.Len() {
		return nil
	}
	prev := e.rows()
	e.buf.Delete()
	return e.redraw(prev)
}

// complete applies the next matching candidate to the buffer. A buffer
// that diverged from the last applied completion starts a fresh
// candidate set from the session dictionary.
func (e *lineEditor) complete() error {
	line := e.buf.String()
	if e.comp.IsSameInput(line) {
		e.comp.NextCompletion()
	} else {
		e.comp.NewCompletions(e.sess.dict.candidates(line))
	}
	if err := e.comp.OverwriteCompletion(e.promptCols, e.buf, e.r); err != nil {
		return err
	}
	return e.reposition()
}

// rows is the screen-row span of the current input, prompt included.
func (e *lineEditor) rows() int {
	return console.LinesCovered(e.promptCols, e.r.Width(), e.buf.Len())
}

func (e *lineEditor) redraw(prevRows int) error {
	if err := e.r.OverwriteText(e.promptCols, prevRows-1, e.buf.String()); err != nil {
		return err
	}
	return e.reposition()
}

// reposition moves the terminal cursor to the buffer position. Input
// spanning multiple screen rows keeps the cursor at the end of the
// text; buffer edits still apply at the logical position.
func (e *lineEditor) reposition() error {
	if e.promptCols+e.buf.Len() >= e.r.Width() {
		return nil
	}
	_, err := io.WriteString(e.out, ansi.CursorHorizontalAbsolute(e.promptCols+e.buf.Pos()+1))
	return err
}
