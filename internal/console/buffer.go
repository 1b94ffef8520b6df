package console

// Buffer is the editable input line: an ordered character sequence plus
// a cursor offset. The invariant 0 <= pos <= len holds after every
// operation. Edits are O(n) in the buffer length, which stays small for
// interactive input.
type Buffer struct {
	chars []rune
	pos   int
}

// NewBuffer returns an empty buffer with the cursor at offset zero.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// String renders the buffer contents.
func (b *Buffer) String() string {
	return string(b.chars)
}

// Len is the number of characters, not bytes.
func (b *Buffer) Len() int {
	return len(b.chars)
}

// Pos is the cursor offset in characters.
func (b *Buffer) Pos() int {
	return b.pos
}

// Insert places ch at the cursor and advances the cursor past it.
func (b *Buffer) Insert(ch rune) {
	b.chars = append(b.chars, 0)
	copy(b.chars[b.pos+1:], b.chars[b.pos:])
	b.chars[b.pos] = ch
	b.pos++
}

// InsertString inserts s character by character, preserving order.
func (b *Buffer) InsertString(s string) {
	for _, ch := range s {
		b.Insert(ch)
	}
}

// Backspace removes the character before the cursor; a no-op at the
// start of the buffer.
func (b *Buffer) Backspace() {
	if b.pos == 0 {
		return
	}
	b.pos--
	b.chars = append(b.chars[:b.pos], b.chars[b.pos+1:]...)
}

// Delete removes the character under the cursor; a no-op at the end of
// the buffer. The cursor does not move.
func (b *Buffer) Delete() {
	if b.pos >= len(b.chars) {
		return
	}
	b.chars = append(b.chars[:b.pos], b.chars[b.pos+1:]...)
}

// MoveLeft moves the cursor up to n characters toward the start and
// returns the distance actually moved.
func (b *Buffer) MoveLeft(n int) int {
	if n > b.pos {
		n = b.pos
	}
	b.pos -= n
	return n
}

// MoveRight moves the cursor up to n characters toward the end and
// returns the distance actually moved.
func (b *Buffer) MoveRight(n int) int {
	if avail := len(b.chars) - b.pos; n > avail {
		n = avail
	}
	b.pos += n
	return n
}

// Truncate drops every character from offset n onward, clamping the
// cursor to the new length if it pointed past it.
func (b *Buffer) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(b.chars) {
		b.chars = b.chars[:n]
	}
	if b.pos > len(b.chars) {
		b.pos = len(b.chars)
	}
}

// Clear resets the buffer for the next input line.
func (b *Buffer) Clear() {
	b.chars = b.chars[:0]
	b.pos = 0
}
