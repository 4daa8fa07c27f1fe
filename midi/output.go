package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-keyboard/debug"
	"go-keyboard/notes"
)

// Output sends keyboard note events to a MIDI out port.
type Output struct {
	name string
	port drivers.Out
	send func(msg gomidi.Message) error

	mu      sync.Mutex
	sent    int
	dropped int
}

// OpenOutput opens the first out port whose name contains match.
func OpenOutput(match string) (*Output, error) {
	_, outs, err := Ports()
	if err != nil {
		return nil, err
	}
	for _, p := range outs {
		if MatchPort(p.String(), match) {
			return NewOutput(p)
		}
	}
	return nil, fmt.Errorf("no MIDI output port matching %q", match)
}

// NewOutput opens port for sending.
func NewOutput(port drivers.Out) (*Output, error) {
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return &Output{name: port.String(), port: port, send: send}, nil
}

func (o *Output) Name() string {
	return o.name
}

// NoteOn sends e as a NoteOn.
func (o *Output) NoteOn(e notes.Event) {
	o.note(e, true)
}

// NoteOff sends e as a NoteOff.
func (o *Output) NoteOff(e notes.Event) {
	o.note(e, false)
}

func (o *Output) note(e notes.Event, on bool) {
	ev, ok := Convert(e, on)
	o.mu.Lock()
	defer o.mu.Unlock()
	if !ok {
		o.dropped++
		debug.Warn("midi-out", "dropped key %d channel %d: outside the MIDI range", e.ID, e.Channel)
		return
	}
	if err := o.send(ev.Message()); err != nil {
		debug.Error("midi-out", "send to %s: %v", o.name, err)
		return
	}
	o.sent++
}

// Stats returns how many messages were sent and dropped.
func (o *Output) Stats() (sent, dropped int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent, o.dropped
}

// Panic sends All Notes Off on every channel.
func (o *Output) Panic() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for ch := uint8(0); ch < 16; ch++ {
		if err := o.send(gomidi.ControlChange(ch, 123, 0)); err != nil {
			return fmt.Errorf("all notes off: %w", err)
		}
	}
	return nil
}

func (o *Output) Close() error {
	if o.port == nil {
		return nil
	}
	return o.port.Close()
}
