package midi

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-keyboard/notes"
)

const recordResolution = smf.MetricTicks(960)

type recorded struct {
	at  time.Duration
	msg gomidi.Message
}

// Recorder collects played note events and writes them as a Standard MIDI
// File. Time starts at the first event.
type Recorder struct {
	bpm float64
	now func() time.Time

	mu      sync.Mutex
	start   time.Time
	events  []recorded
	dropped int
}

func NewRecorder(bpm float64) *Recorder {
	return &Recorder{bpm: bpm, now: time.Now}
}

func (r *Recorder) NoteOn(e notes.Event) {
	r.add(e, true)
}

func (r *Recorder) NoteOff(e notes.Event) {
	r.add(e, false)
}

func (r *Recorder) add(e notes.Event, on bool) {
	ev, ok := Convert(e, on)
	r.mu.Lock()
	defer r.mu.Unlock()
	if !ok {
		r.dropped++
		return
	}
	t := r.now()
	if len(r.events) == 0 {
		r.start = t
	}
	r.events = append(r.events, recorded{at: t.Sub(r.start), msg: ev.Message()})
}

// Len returns the number of recorded messages.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// SMF builds a single-track file with a tempo event followed by the notes.
func (r *Recorder) SMF() (*smf.SMF, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sm := smf.New()
	sm.TimeFormat = recordResolution

	var track smf.Track
	track.Add(0, smf.MetaTempo(r.bpm))
	var last uint32
	for _, ev := range r.events {
		// absolute ticks first so rounding does not drift
		abs := recordResolution.Ticks(r.bpm, ev.at)
		track.Add(abs-last, ev.msg)
		last = abs
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return nil, fmt.Errorf("add track: %w", err)
	}
	return sm, nil
}

// WriteTo writes the recording as an SMF to w.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	sm, err := r.SMF()
	if err != nil {
		return 0, err
	}
	return sm.WriteTo(w)
}

// WriteFile writes the recording to path.
func (r *Recorder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := r.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
