package midi

import (
	"math"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-keyboard/notes"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Event is a note message ready for the wire
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Convert turns a keyboard note event into a MIDI event. Keys outside 0-127
// and channels outside 0-15 have no MIDI form and return false.
func Convert(e notes.Event, on bool) (Event, bool) {
	if e.ID < 0 || e.ID > 127 || e.Channel < 0 || e.Channel > 15 {
		return Event{}, false
	}
	ev := Event{
		Type:    NoteOff,
		Channel: uint8(e.Channel),
		Note:    uint8(e.ID),
	}
	if on {
		ev.Type = NoteOn
		ev.Velocity = velocity7(e.Velocity)
	}
	return ev, true
}

// velocity7 scales 0..1 to 1..127; a NoteOn with velocity 0 would be a release.
func velocity7(v float64) uint8 {
	n := math.Round(v * 127)
	if n < 1 {
		return 1
	}
	if n > 127 {
		return 127
	}
	return uint8(n)
}

// Message encodes the event.
func (e Event) Message() gomidi.Message {
	if e.Type == NoteOn {
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	}
	return gomidi.NoteOff(e.Channel, e.Note)
}
