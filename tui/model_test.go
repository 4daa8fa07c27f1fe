package tui

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-keyboard/config"
	"go-keyboard/midi"
	"go-keyboard/notes"
)

type sink struct {
	events []string
	ons    []notes.Event
}

func (s *sink) NoteOn(e notes.Event) {
	s.events = append(s.events, "on")
	s.ons = append(s.ons, e)
}

func (s *sink) NoteOff(e notes.Event) {
	s.events = append(s.events, "off")
}

func (s *sink) take() []string {
	out := s.events
	s.events = nil
	return out
}

type fakeController struct {
	id      string
	kind    midi.ControllerType
	pads    chan midi.PadEvent
	notes   chan midi.NoteEvent
	batches [][]midi.LEDUpdate
}

func newFake(id string, kind midi.ControllerType) *fakeController {
	return &fakeController{id: id, kind: kind, pads: make(chan midi.PadEvent), notes: make(chan midi.NoteEvent)}
}

func (f *fakeController) ID() string                        { return f.id }
func (f *fakeController) Type() midi.ControllerType         { return f.kind }
func (f *fakeController) PadEvents() <-chan midi.PadEvent   { return f.pads }
func (f *fakeController) NoteEvents() <-chan midi.NoteEvent { return f.notes }
func (f *fakeController) Close() error                      { return nil }

func (f *fakeController) SetLEDBatch(u []midi.LEDUpdate) error {
	f.batches = append(f.batches, u)
	return nil
}

// newModel builds a one-octave keyboard (60-71) drawn 70 cells wide and 10
// rows high, so key 60 covers columns 0-9.
func newModel(t *testing.T, edit func(*config.Config)) (Model, *sink) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Keyboard.StartKey = 60
	cfg.Keyboard.EndKey = 71
	cfg.Keyboard.AccidentalKeyHeight = 0.6
	cfg.UI.Height = 10
	if edit != nil {
		edit(cfg)
	}
	s := &sink{}
	m, err := New(Options{Config: cfg, Sinks: []NoteSink{s}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m, _ = update(m, tea.WindowSizeMsg{Width: 70, Height: 30})
	return m, s
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyHoldTimeout(t *testing.T) {
	m, s := newModel(t, nil)

	m, cmd := update(m, runes("a"))
	if cmd == nil {
		t.Fatal("no hold timer scheduled")
	}
	if len(s.ons) != 1 || s.ons[0].ID != 60 || s.ons[0].Velocity != 0.75 {
		t.Fatalf("ons = %+v, want key 60 at 0.75", s.ons)
	}
	first := m.held["a"]

	// auto-repeat
	m, _ = update(m, runes("a"))
	m, _ = update(m, keyUpMsg{code: "a", seq: first})
	if got := s.take(); !reflect.DeepEqual(got, []string{"on"}) {
		t.Fatalf("events while repeating = %v, want one on", got)
	}

	m, _ = update(m, keyUpMsg{code: "a", seq: m.held["a"]})
	if got := s.take(); !reflect.DeepEqual(got, []string{"off"}) {
		t.Errorf("events after timeout = %v, want off", got)
	}
	if len(m.held) != 0 {
		t.Errorf("held = %v after release", m.held)
	}
}

func TestMouseClick(t *testing.T) {
	m, s := newModel(t, nil)

	m, _ = update(m, tea.MouseMsg{X: 5, Y: keyboardTop + 9, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if len(s.ons) != 1 || s.ons[0].ID != 60 {
		t.Fatalf("ons = %+v, want key 60", s.ons)
	}
	if v := s.ons[0].Velocity; v < 0.94 || v > 0.96 {
		t.Errorf("velocity %v, want 0.95 near the bottom edge", v)
	}

	// right button does nothing
	m, _ = update(m, tea.MouseMsg{X: 15, Y: keyboardTop + 9, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	if len(s.ons) != 1 {
		t.Errorf("right click played %+v", s.ons[1:])
	}

	m, _ = update(m, tea.MouseMsg{X: 5, Y: keyboardTop + 9, Action: tea.MouseActionRelease})
	if got := s.take(); !reflect.DeepEqual(got, []string{"on", "off"}) {
		t.Errorf("events = %v, want on off", got)
	}
	if m.tracker.Session().Latched {
		t.Error("latch kept after release")
	}
}

func TestMouseDrag(t *testing.T) {
	m, s := newModel(t, nil)

	m, _ = update(m, tea.MouseMsg{X: 5, Y: keyboardTop + 9, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m, _ = update(m, tea.MouseMsg{X: 15, Y: keyboardTop + 8, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	if got := s.take(); !reflect.DeepEqual(got, []string{"on", "on", "off"}) {
		t.Fatalf("events = %v, want on on off", got)
	}
	if s.ons[1].ID != 62 || s.ons[1].Velocity != s.ons[0].Velocity {
		t.Errorf("drag played %+v, want key 62 at the latched velocity", s.ons[1])
	}
}

func TestBlurReleasesHeldKeys(t *testing.T) {
	m, s := newModel(t, nil)

	m, _ = update(m, runes("a"))
	m, _ = update(m, tea.BlurMsg{})
	if got := s.take(); !reflect.DeepEqual(got, []string{"on", "off"}) {
		t.Fatalf("events = %v, want on off", got)
	}

	m, _ = update(m, runes("s"))
	if got := s.take(); len(got) != 0 {
		t.Fatalf("unfocused key played: %v", got)
	}

	m, _ = update(m, tea.FocusMsg{})
	m, _ = update(m, runes("s"))
	if len(s.ons) != 2 || s.ons[1].ID != 62 {
		t.Errorf("ons = %+v, want key 62 after focus", s.ons)
	}
}

func TestChannelAndOctave(t *testing.T) {
	m, s := newModel(t, nil)

	m, _ = update(m, runes("]"))
	m, _ = update(m, runes("a"))
	if s.ons[0].Channel != 1 {
		t.Errorf("played on channel %d, want 1", s.ons[0].Channel)
	}

	m, _ = update(m, runes("x"))
	m, _ = update(m, runes("a"))
	if got := s.take(); !reflect.DeepEqual(got, []string{"on", "off", "on"}) {
		t.Fatalf("events = %v, want on off on", got)
	}
	if s.ons[1].ID != 72 {
		t.Errorf("after octave up played %d, want 72", s.ons[1].ID)
	}

	m, _ = update(m, runes("["))
	m, _ = update(m, runes("["))
	if m.tracker.Channel() != 15 {
		t.Errorf("channel = %d, want wrap to 15", m.tracker.Channel())
	}
}

func TestPlayableToggle(t *testing.T) {
	m, s := newModel(t, nil)

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(m, runes("a"))
	m, _ = update(m, tea.MouseMsg{X: 5, Y: keyboardTop + 9, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if got := s.take(); len(got) != 0 {
		t.Fatalf("locked keyboard played: %v", got)
	}
	if !strings.Contains(m.View(), "locked") {
		t.Error("header does not show the lock")
	}
}

func TestKeysOnSeed(t *testing.T) {
	_, s := newModel(t, func(c *config.Config) {
		c.Keyboard.KeysOn = []config.KeyOn{
			{Channel: 2, Key: 64.0, Velocity: 0.5},
			{Channel: 0, Key: "61a", Velocity: 1, Source: "cfg"},
			{Channel: 0, Key: "nope", Velocity: 1},
		}
	})
	want := []notes.Event{
		{ID: 64, Channel: 2, Velocity: 0.5},
		{ID: 61, Channel: 0, Velocity: 1, Source: "cfg"},
	}
	if !reflect.DeepEqual(s.ons, want) {
		t.Errorf("ons = %+v, want %+v", s.ons, want)
	}
}

func TestLaunchpadPadsAndLEDs(t *testing.T) {
	m, s := newModel(t, nil)
	lp := newFake("lp", midi.ControllerLaunchpad)

	m, cmd := update(m, deviceMsg{Type: midi.DeviceConnected, Controller: lp, ID: "lp"})
	if cmd == nil {
		t.Fatal("no pad listener started")
	}
	if len(lp.batches) != 1 || len(lp.batches[0]) != 64 {
		t.Fatalf("first frame sent %d batches", len(lp.batches))
	}

	m, _ = update(m, padMsg{c: lp, ev: midi.PadEvent{Row: 0, Col: 0, Velocity: 127}})
	if len(s.ons) != 1 || s.ons[0].ID != 60 || s.ons[0].Source != "lp" || s.ons[0].Velocity != 1 {
		t.Fatalf("ons = %+v, want key 60 from lp at full velocity", s.ons)
	}
	last := lp.batches[len(lp.batches)-1]
	if len(last) != 1 || last[0].Row != 0 || last[0].Col != 0 {
		t.Errorf("pad press sent %+v, want only pad 0,0", last)
	}

	m, _ = update(m, padMsg{c: lp, ev: midi.PadEvent{Row: 0, Col: 0}})
	if got := s.take(); !reflect.DeepEqual(got, []string{"on", "off"}) {
		t.Errorf("events = %v, want on off", got)
	}

	m, _ = update(m, deviceMsg{Type: midi.DeviceDisconnected, ID: "lp"})
	if m.launchpad != nil {
		t.Error("launchpad kept after disconnect")
	}
}

func TestKeyboardControllerNotes(t *testing.T) {
	m, s := newModel(t, nil)
	kb := newFake("keys", midi.ControllerKeyboard)
	m, _ = update(m, deviceMsg{Type: midi.DeviceConnected, Controller: kb, ID: "keys"})

	m, _ = update(m, noteMsg{c: kb, ev: midi.NoteEvent{Note: 64, Velocity: 127, On: true}})
	// the release must find the note after a channel change
	m, _ = update(m, runes("]"))
	m, _ = update(m, noteMsg{c: kb, ev: midi.NoteEvent{Note: 64}})
	if got := s.take(); !reflect.DeepEqual(got, []string{"on", "off"}) {
		t.Fatalf("events = %v, want on off", got)
	}

	m, _ = update(m, noteMsg{c: kb, ev: midi.NoteEvent{Note: 67, Velocity: 64, On: true}})
	m, _ = update(m, deviceMsg{Type: midi.DeviceDisconnected, ID: "keys"})
	if got := s.take(); !reflect.DeepEqual(got, []string{"on", "off"}) {
		t.Errorf("disconnect events = %v, want on off", got)
	}
	if len(m.tracker.KeysOn()) != 0 {
		t.Errorf("notes left after disconnect: %+v", m.tracker.KeysOn())
	}
}

func TestQuitReleasesEverything(t *testing.T) {
	m, s := newModel(t, nil)
	m, _ = update(m, runes("a"))
	m, _ = update(m, runes("d"))

	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("no quit command")
	}
	if got := s.take(); !reflect.DeepEqual(got, []string{"on", "on", "off", "off"}) {
		t.Errorf("events = %v", got)
	}
	if m.View() != "" {
		t.Error("view not cleared on quit")
	}
}

func TestView(t *testing.T) {
	m, _ := newModel(t, nil)
	out := m.View()
	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[0], "go-keyboard") || !strings.Contains(lines[0], "no output") {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) < keyboardTop+10+2 {
		t.Errorf("view has %d lines", len(lines))
	}

	m, _ = update(m, runes("?"))
	if !strings.Contains(m.View(), "Keyboard") {
		t.Error("full help lacks the key mapping")
	}
}
