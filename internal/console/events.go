package console

import (
	"bufio"
	"io"

	"github.com/muesli/cancelreader"
)

// EventSource decodes terminal input on a background goroutine and
// delivers key events over an ordered channel, so the interactive loop
// never blocks on raw terminal reads. The channel is the only resource
// shared between the two sides.
type EventSource struct {
	events chan KeyEvent
	reader cancelreader.CancelReader
}

// NewEventSource starts the background reader over the given terminal
// stream. The goroutine exits when the stream errors out or is
// cancelled via Close, closing the event channel on the way out.
func NewEventSource(tty io.Reader) (*EventSource, error) {
	cr, err := cancelreader.NewReader(tty)
	if err != nil {
		return nil, err
	}
	s := &EventSource{
		events: make(chan KeyEvent, 64),
		reader: cr,
	}
	go s.readLoop()
	return s, nil
}

func (s *EventSource) readLoop() {
	defer close(s.events)
	br := bufio.NewReader(s.reader)
	for {
		evt, err := decodeEvent(br)
		if err != nil {
			return
		}
		s.events <- evt
	}
}

// Events is the ordered stream of decoded key presses. It is closed
// when the source shuts down.
func (s *EventSource) Events() <-chan KeyEvent {
	return s.events
}

// Close cancels the pending terminal read and releases the reader. The
// event channel closes once the background goroutine observes the
// cancellation.
func (s *EventSource) Close() error {
	s.reader.Cancel()
	return s.reader.Close()
}
