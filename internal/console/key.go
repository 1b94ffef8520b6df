// Package console implements the interactive terminal engine: a
// character-indexed editable line buffer, completion cycling, an
// in-place redraw engine, and a background-fed key event source. All
// cursor positions are counted in characters, never bytes or display
// columns.
package console

import (
	"bufio"
	"bytes"
	"unicode/utf8"
)

// Key identifies a decoded keyboard key.
type Key uint8

const (
	// KeyRune is a printable character (see KeyEvent.Rune).
	KeyRune Key = iota
	// KeyEnter submits the current line.
	KeyEnter
	// KeyTab requests or cycles completions.
	KeyTab
	// KeyBackspace removes the character before the cursor.
	KeyBackspace
	// KeyDelete removes the character under the cursor.
	KeyDelete
	// KeyLeft moves the cursor left.
	KeyLeft
	// KeyRight moves the cursor right.
	KeyRight
	// KeyUp moves through history.
	KeyUp
	// KeyDown moves through history.
	KeyDown
	// KeyHome jumps to the start of the line.
	KeyHome
	// KeyEnd jumps to the end of the line.
	KeyEnd
	// KeyEsc is a bare escape press.
	KeyEsc
	// KeyUnknown is an unrecognized control sequence, ignored upstream.
	KeyUnknown
)

// Mod is a bitmask of modifier keys.
type Mod uint8

const (
	// ModNone means no modifier was held.
	ModNone Mod = 0
	// ModCtrl marks a Control chord.
	ModCtrl Mod = 1 << iota
	// ModAlt marks an Alt/Meta chord.
	ModAlt
	// ModShift marks a shifted special key.
	ModShift
)

// KeyEvent is one decoded terminal key press.
type KeyEvent struct {
	Key  Key
	Rune rune
	Mods Mod
}

// decodeEvent reads one key event from the raw byte stream. Escape
// sequences are consumed greedily; a lone ESC with nothing buffered
// behind it is reported as a bare escape.
func decodeEvent(r *bufio.Reader) (KeyEvent, error) {
	b, err := r.ReadByte()
	if err != nil {
		return KeyEvent{}, err
	}
	switch {
	case b == 0x1b:
		return decodeEscape(r)
	case b == '\r' || b == '\n':
		return KeyEvent{Key: KeyEnter}, nil
	case b == '\t':
		return KeyEvent{Key: KeyTab}, nil
	case b == 0x7f || b == 0x08:
		return KeyEvent{Key: KeyBackspace}, nil
	case b < 0x20:
		return KeyEvent{Key: KeyRune, Rune: rune('a' + b - 1), Mods: ModCtrl}, nil
	case b < utf8.RuneSelf:
		return KeyEvent{Key: KeyRune, Rune: rune(b)}, nil
	default:
		return decodeRune(r, b, ModNone)
	}
}

func decodeRune(r *bufio.Reader, first byte, mods Mod) (KeyEvent, error) {
	buf := []byte{first}
	for !utf8.FullRune(buf) && len(buf) < utf8.UTFMax {
		b, err := r.ReadByte()
		if err != nil {
			break
		}
		buf = append(buf, b)
	}
	ch, _ := utf8.DecodeRune(buf)
	if ch == utf8.RuneError {
		return KeyEvent{Key: KeyUnknown}, nil
	}
	return KeyEvent{Key: KeyRune, Rune: ch, Mods: mods}, nil
}

func decodeEscape(r *bufio.Reader) (KeyEvent, error) {
	if r.Buffered() == 0 {
		return KeyEvent{Key: KeyEsc}, nil
	}
	b, err := r.ReadByte()
	if err != nil {
		return KeyEvent{Key: KeyEsc}, nil
	}
	if b != '[' && b != 'O' {
		// ESC-prefixed ordinary key: an Alt chord.
		switch {
		case b == '\r' || b == '\n':
			return KeyEvent{Key: KeyEnter, Mods: ModAlt}, nil
		case b == 0x7f || b == 0x08:
			return KeyEvent{Key: KeyBackspace, Mods: ModAlt}, nil
		case b < 0x20:
			return KeyEvent{Key: KeyRune, Rune: rune('a' + b - 1), Mods: ModCtrl | ModAlt}, nil
		case b < utf8.RuneSelf:
			return KeyEvent{Key: KeyRune, Rune: rune(b), Mods: ModAlt}, nil
		default:
			return decodeRune(r, b, ModAlt)
		}
	}

	// CSI / SS3: accumulate parameter bytes until the final byte.
	var params []byte
	for {
		p, err := r.ReadByte()
		if err != nil {
			return KeyEvent{Key: KeyUnknown}, nil
		}
		if p >= 0x40 && p <= 0x7e {
			return csiEvent(p, params), nil
		}
		params = append(params, p)
	}
}

func csiEvent(final byte, params []byte) KeyEvent {
	mods := csiMods(params)
	switch final {
	case 'A':
		return KeyEvent{Key: KeyUp, Mods: mods}
	case 'B':
		return KeyEvent{Key: KeyDown, Mods: mods}
	case 'C':
		return KeyEvent{Key: KeyRight, Mods: mods}
	case 'D':
		return KeyEvent{Key: KeyLeft, Mods: mods}
	case 'H':
		return KeyEvent{Key: KeyHome, Mods: mods}
	case 'F':
		return KeyEvent{Key: KeyEnd, Mods: mods}
	case '~':
		num := params
		if i := bytes.IndexByte(params, ';'); i >= 0 {
			num = params[:i]
		}
		switch string(num) {
		case "1", "7":
			return KeyEvent{Key: KeyHome, Mods: mods}
		case "3":
			return KeyEvent{Key: KeyDelete, Mods: mods}
		case "4", "8":
			return KeyEvent{Key: KeyEnd, Mods: mods}
		}
	}
	return KeyEvent{Key: KeyUnknown}
}

// csiMods decodes the xterm ";<n>" modifier parameter: 2 shift, 3 alt,
// 5 ctrl, plus their combinations.
func csiMods(params []byte) Mod {
	i := bytes.IndexByte(params, ';')
	if i < 0 || i+1 >= len(params) {
		return ModNone
	}
	n := 0
	for _, d := range params[i+1:] {
		if d < '0' || d > '9' {
			return ModNone
		}
		n = n*10 + int(d-'0')
	}
	if n < 2 {
		return ModNone
	}
	bits := n - 1
	var mods Mod
	if bits&1 != 0 {
		mods |= ModShift
	}
	if bits&2 != 0 {
		mods |= ModAlt
	}
	if bits&4 != 0 {
		mods |= ModCtrl
	}
	return mods
}
