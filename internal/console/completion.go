package console

// Candidate is one proposed completion: replacement text plus the
// character offset in the buffer where it splices in.
type Candidate struct {
	Match    string
	InputPos int
}

// Completer holds the completion candidates for one rendered input line
// and cycles through them. Candidates are only valid while the live
// buffer still matches the snapshot taken when they were applied; a
// diverged buffer must regenerate them (see IsSameInput).
type Completer struct {
	inputLine  string
	candidates []Candidate
	idx        int
}

// NewCompleter returns an empty completer.
func NewCompleter() *Completer {
	return &Completer{}
}

// IsSameInput reports whether the live rendered line still matches the
// snapshot recorded by the last applied completion. A false result
// means the candidates are stale.
func (c *Completer) IsSameInput(line string) bool {
	return c.inputLine == line
}

// NewCompletions replaces the candidate list wholesale and resets the
// cycling index.
func (c *Completer) NewCompletions(candidates []Candidate) {
	c.candidates = c.candidates[:0]
	c.candidates = append(c.candidates, candidates...)
	c.idx = 0
}

// NextCompletion advances the cycling index, wrapping past the last
// candidate. A no-op when there are no candidates.
func (c *Completer) NextCompletion() {
	idx := c.idx + 1
	if idx >= len(c.candidates) {
		idx = 0
	}
	c.idx = idx
}

// OverwriteCompletion splices the current candidate into buf by
// truncating to the candidate's offset and inserting its text, then
// redraws only the rows the previous render covered and records the
// resulting line as the new staleness snapshot. A no-op when no
// candidate is selected.
func (c *Completer) OverwriteCompletion(initialColumn int, buf *Buffer, r *Renderer) error {
	if c.idx >= len(c.candidates) {
		return nil
	}
	cand := c.candidates[c.idx]

	prevRows := LinesCovered(initialColumn, r.Width(), buf.Len())
	buf.Truncate(cand.InputPos)
	buf.InsertString(cand.Match)
	line := buf.String()
	if err := r.OverwriteText(initialColumn, prevRows-1, line); err != nil {
		return err
	}
	c.inputLine = line
	return nil
}
