package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-keyboard/config"
	"go-keyboard/debug"
	"go-keyboard/input"
	"go-keyboard/keys"
	"go-keyboard/midi"
	"go-keyboard/notes"
	"go-keyboard/theme"
	"go-keyboard/widgets"
)

// The keyboard starts below the header line and one blank line.
const keyboardTop = 2

// rows kept free under the keyboard for status, help and errors
const reservedRows = 4

// NoteSink receives the note events the keyboard emits.
type NoteSink interface {
	NoteOn(notes.Event)
	NoteOff(notes.Event)
}

type Options struct {
	Config  *config.Config
	Theme   *theme.Theme // nil = built-in palette
	Sinks   []NoteSink
	Devices *midi.DeviceManager // nil = no controllers
	Output  string              // output port name shown in the header
}

// activity is written by the tracker callbacks, which outlive any one copy
// of the Model.
type activity struct {
	last string
}

// extKey identifies a pad or note on an external controller.
type extKey struct {
	source string
	code   int
}

type Model struct {
	cfg      *config.Config
	theme    *theme.Theme
	bindings KeyMap
	help     help.Model

	layout    *keys.Layout
	keyboard  *widgets.Keyboard
	hits      *input.HitTester
	tracker   *input.Tracker
	mapping   input.Mapping
	transpose int

	// terminals send no key releases; a key counts as held until its
	// auto-repeat stops for holdFor
	holdFor time.Duration
	held    map[string]int
	seq     int

	devices   *midi.DeviceManager
	launchpad midi.Controller
	grid      midi.Grid
	leds      *midi.LEDState
	external  map[extKey]notes.Ident

	output   string
	activity *activity
	err      error
	quitting bool
}

type keyUpMsg struct {
	code string
	seq  int
}

type deviceMsg midi.DeviceEvent

type padMsg struct {
	c  midi.Controller
	ev midi.PadEvent
}

type noteMsg struct {
	c  midi.Controller
	ev midi.NoteEvent
}

// New builds the model from cfg. The config is expected to be validated.
func New(opts Options) (Model, error) {
	cfg := opts.Config
	kc := cfg.Keyboard

	metrics, err := keys.Lookup(keys.Spacing(kc.KeySpacing))
	if err != nil {
		return Model{}, fault.Wrap(err, fmsg.WithDesc("build layout", "Unknown key spacing "+strconv.Quote(kc.KeySpacing)+"."))
	}
	layout := keys.Build(kc.StartKey, kc.EndKey, kc.OctaveDivision, metrics)

	th := opts.Theme
	if th == nil {
		th = theme.New(theme.Default())
	}
	if err := th.SetChannelColors(kc.ChannelColors); err != nil {
		return Model{}, fault.Wrap(err, fmsg.WithDesc("channel colors", "Channel colors must be #rgb or #rrggbb."))
	}

	kb := widgets.NewKeyboard(layout, th, widgets.KeyboardStyle{
		AccidentalHeight: kc.AccidentalKeyHeight,
		InBetweenHeight:  kc.InBetweenHeight(),
		Labels:           kc.Labels,
	})
	hits := input.NewHitTester(kb)
	mapping := input.ParseMapping(kc.KeyboardMapping, layout.Resolve)

	act := &activity{}
	sinks := opts.Sinks
	tracker := input.NewTracker(hits, input.Options{
		Channel:          kc.ActiveChannel,
		KeyboardVelocity: kc.KeyboardVelocity,
		Mapping:          mapping,
		Playable:         kc.Playable,
		Focused:          true,
		OnKeyOn: func(e notes.Event) {
			act.last = fmt.Sprintf("on %s ch%d", keyName(layout.Division, e.ID), e.Channel+1)
			debug.Log("notes", "on id=%d ch=%d v=%.2f src=%s", e.ID, e.Channel, e.Velocity, e.Source)
			for _, s := range sinks {
				s.NoteOn(e)
			}
		},
		OnKeyOff: func(e notes.Event) {
			act.last = fmt.Sprintf("off %s ch%d", keyName(layout.Division, e.ID), e.Channel+1)
			debug.Log("notes", "off id=%d ch=%d", e.ID, e.Channel)
			for _, s := range sinks {
				s.NoteOff(e)
			}
		},
	})

	m := Model{
		cfg:      cfg,
		theme:    th,
		bindings: DefaultKeyMap(),
		help:     help.New(),
		layout:   layout,
		keyboard: kb,
		hits:     hits,
		tracker:  tracker,
		mapping:  mapping,
		holdFor:  time.Duration(cfg.UI.KeyHoldMs) * time.Millisecond,
		held:     make(map[string]int),
		devices:  opts.Devices,
		grid:     midi.DefaultGrid,
		leds:     &midi.LEDState{},
		external: make(map[extKey]notes.Ident),
		output:   opts.Output,
		activity: act,
	}

	// configured notes sound from the start
	tracker.SetKeysOn(seedNotes(kc.KeysOn, layout))
	return m, nil
}

func seedNotes(keysOn []config.KeyOn, layout *keys.Layout) notes.Set {
	var s notes.Set
	for _, k := range keysOn {
		id, ok := input.ResolveID(k.Key, layout.Resolve)
		if !ok {
			debug.Warn("tui", "keysOn: no key %v", k.Key)
			continue
		}
		s = s.Put(notes.Note{Channel: k.Channel, ID: id, Velocity: k.Velocity, Source: k.Source})
	}
	return s
}

func listenDevices(dm *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-dm.Events()
		if !ok {
			return nil
		}
		return deviceMsg(ev)
	}
}

func listenPads(c midi.Controller) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-c.PadEvents()
		if !ok {
			return nil
		}
		return padMsg{c: c, ev: ev}
	}
}

func listenNotes(c midi.Controller) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-c.NoteEvents()
		if !ok {
			return nil
		}
		return noteMsg{c: c, ev: ev}
	}
}

func (m Model) Init() tea.Cmd {
	if m.devices == nil {
		return nil
	}
	return listenDevices(m.devices)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.FocusMsg:
		m.tracker.SetFocused(true)

	case tea.BlurMsg:
		// no key releases arrive while blurred
		m.releaseHeld()
		m.tracker.SetFocused(false)

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case keyUpMsg:
		if seq, ok := m.held[msg.code]; ok && seq == msg.seq {
			delete(m.held, msg.code)
			m.tracker.KeyUp(msg.code)
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case deviceMsg:
		cmd = m.handleDevice(midi.DeviceEvent(msg))

	case padMsg:
		m.handlePad(msg.c.ID(), msg.ev)
		cmd = listenPads(msg.c)

	case noteMsg:
		m.handleNote(msg.c.ID(), msg.ev)
		cmd = listenNotes(msg.c)
	}

	m.syncLEDs()
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.help.Width = width
	rows := min(m.cfg.UI.Height, height-keyboardTop-reservedRows)
	m.keyboard.SetSize(width, max(rows, 2))
	m.hits.Recalculate()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	code := msg.String()
	if _, ok := m.mapping[code]; ok {
		m.tracker.KeyDown(code)
		m.seq++
		m.held[code] = m.seq
		up := keyUpMsg{code: code, seq: m.seq}
		return tea.Tick(m.holdFor, func(time.Time) tea.Msg { return up })
	}

	switch {
	case key.Matches(msg, m.bindings.Quit):
		m.releaseHeld()
		m.tracker.ReleaseAll()
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.bindings.OctaveDown):
		m.shift(-m.layout.Division)
	case key.Matches(msg, m.bindings.OctaveUp):
		m.shift(m.layout.Division)
	case key.Matches(msg, m.bindings.PrevChannel):
		m.setChannel(m.tracker.Channel() - 1)
	case key.Matches(msg, m.bindings.NextChannel):
		m.setChannel(m.tracker.Channel() + 1)
	case key.Matches(msg, m.bindings.Playable):
		if m.tracker.Playable() {
			m.releaseHeld()
		}
		m.tracker.SetPlayable(!m.tracker.Playable())
	case key.Matches(msg, m.bindings.ReleaseAll):
		m.releaseHeld()
		m.tracker.ReleaseAll()
		clear(m.external)
	case key.Matches(msg, m.bindings.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

// releaseHeld lets go of every key still waiting for its hold timeout.
func (m *Model) releaseHeld() {
	for code := range m.held {
		m.tracker.KeyUp(code)
	}
	clear(m.held)
}

// shift transposes the computer keyboard and the pad grid.
func (m *Model) shift(steps int) {
	m.releaseHeld()
	m.transpose += steps
	shifted := make(input.Mapping, len(m.mapping))
	for code, id := range m.mapping {
		shifted[code] = id + m.transpose
	}
	m.tracker.SetMapping(shifted)
	m.grid = m.grid.Shift(steps)
}

func (m *Model) setChannel(ch int) {
	m.releaseHeld()
	m.tracker.SetChannel((ch%16 + 16) % 16)
}

// handleMouse feeds cell centres, relative to the keyboard's top-left
// corner, to the tracker.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	x := float64(msg.X) + 0.5
	y := float64(msg.Y-keyboardTop) + 0.5

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.tracker.MouseDown(x, y, 1)
		}
	case tea.MouseActionMotion:
		buttons := 0
		if msg.Button == tea.MouseButtonLeft {
			buttons = 1
		}
		m.tracker.MouseMove(x, y, buttons)
	case tea.MouseActionRelease:
		m.tracker.MouseUp(x, y)
	}
}

func (m *Model) handleDevice(ev midi.DeviceEvent) tea.Cmd {
	var cmds []tea.Cmd
	if m.devices != nil {
		cmds = append(cmds, listenDevices(m.devices))
	}

	switch ev.Type {
	case midi.DeviceConnected:
		c := ev.Controller
		switch c.Type() {
		case midi.ControllerLaunchpad:
			if m.launchpad == nil {
				m.launchpad = c
				m.leds.Reset()
			}
			cmds = append(cmds, listenPads(c))
		case midi.ControllerKeyboard:
			cmds = append(cmds, listenNotes(c))
		}
	case midi.DeviceDisconnected:
		if m.launchpad != nil && m.launchpad.ID() == ev.ID {
			m.launchpad = nil
		}
		m.releaseSource(ev.ID)
	}
	return tea.Batch(cmds...)
}

// Launchpad top row arrows
const (
	arrowUp = iota
	arrowDown
	arrowLeft
	arrowRight
)

func (m *Model) handlePad(source string, ev midi.PadEvent) {
	if ev.Row == 8 {
		if !ev.Pressed() {
			return
		}
		switch ev.Col {
		case arrowUp:
			m.grid = m.grid.Shift(m.layout.Division)
		case arrowDown:
			m.grid = m.grid.Shift(-m.layout.Division)
		case arrowLeft:
			m.grid = m.grid.Shift(-1)
		case arrowRight:
			m.grid = m.grid.Shift(1)
		}
		return
	}

	k := extKey{source: source, code: ev.Row*16 + ev.Col}
	if !ev.Pressed() {
		m.releaseExternal(k)
		return
	}
	if id, ok := m.grid.KeyAt(ev.Row, ev.Col); ok {
		m.pressExternal(k, id, float64(ev.Velocity)/127)
	}
}

func (m *Model) handleNote(source string, ev midi.NoteEvent) {
	k := extKey{source: source, code: int(ev.Note)}
	if !ev.On {
		m.releaseExternal(k)
		return
	}
	m.pressExternal(k, int(ev.Note), float64(ev.Velocity)/127)
}

// pressExternal plays a controller key on the active channel. The channel is
// remembered so the release finds the note after a channel change.
func (m *Model) pressExternal(k extKey, id int, velocity float64) {
	m.releaseExternal(k)
	n := notes.Note{Channel: m.tracker.Channel(), ID: id, Velocity: velocity, Source: k.source}
	m.external[k] = n.Ident()
	m.tracker.Press(n)
}

func (m *Model) releaseExternal(k extKey) {
	ident, ok := m.external[k]
	if !ok {
		return
	}
	delete(m.external, k)
	m.tracker.Release(ident.Channel, ident.ID)
}

// releaseSource drops every note a vanished controller was holding.
func (m *Model) releaseSource(source string) {
	for k := range m.external {
		if k.source == source {
			delete(m.external, k)
		}
	}
	m.tracker.SetKeysOn(m.tracker.KeysOn().Without(func(n notes.Note) bool {
		return n.Source == source
	}))
}

func (m Model) gridColors() midi.GridColors {
	return midi.GridColors{
		Root:  [3]uint8(m.theme.Palette.Lookup(theme.RoleAccent)),
		Other: [3]uint8(m.theme.Palette.Lookup(theme.RoleSurface)),
		Note: func(ch int, v float64) [3]uint8 {
			return [3]uint8(m.theme.LED(ch, v))
		},
	}
}

func (m *Model) frame() []midi.LEDUpdate {
	return m.grid.Frame(m.tracker.Played(), m.layout.Division, m.gridColors())
}

// syncLEDs sends the pads that changed since the last frame.
func (m *Model) syncLEDs() {
	if m.launchpad == nil {
		return
	}
	updates := m.leds.Diff(m.frame())
	if len(updates) == 0 {
		return
	}
	if err := m.launchpad.SetLEDBatch(updates); err != nil {
		debug.Warn("tui", "launchpad leds: %v", err)
		m.err = fault.Wrap(err, fmsg.WithDesc("set leds", "Could not light the Launchpad."))
		m.leds.Reset()
		return
	}
	m.err = nil
}

func keyName(division, id int) string {
	if division == 12 {
		return widgets.PitchName(id)
	}
	return strconv.Itoa(id)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := viewStyles{
		title:  lipgloss.NewStyle().Foreground(m.theme.Accent()).Bold(true),
		text:   lipgloss.NewStyle().Foreground(m.theme.FG()),
		dim:    lipgloss.NewStyle().Foreground(m.theme.Muted()),
		active: lipgloss.NewStyle().Foreground(m.theme.Active()),
		ok:     lipgloss.NewStyle().Foreground(m.theme.Success()),
	}
	errStyle := lipgloss.NewStyle().Foreground(m.theme.Warning())

	var out strings.Builder
	out.WriteString(m.header(st))
	out.WriteString("\n\n")
	out.WriteString(m.keyboard.Render(m.tracker.Played()))
	out.WriteString("\n")
	out.WriteString(m.status(st))
	out.WriteString("\n")
	out.WriteString(m.help.View(m.bindings))

	if m.err != nil {
		issue := fmsg.GetIssue(m.err)
		if issue == "" {
			issue = m.err.Error()
		}
		out.WriteString("\n")
		out.WriteString(errStyle.Render(issue))
	}

	if m.help.ShowAll {
		out.WriteString("\n\n")
		out.WriteString(m.mappingHelp())
		if m.launchpad != nil {
			out.WriteString("\n\n")
			out.WriteString(widgets.RenderPadGrid(m.frame(), m.theme.Symbols.Solid, m.theme.Symbols.Empty))
		}
	}
	return out.String()
}

type viewStyles struct {
	title, text, dim, active, ok lipgloss.Style
}

func (m Model) header(st viewStyles) string {
	ch := m.tracker.Channel()
	parts := []string{
		st.title.Render("go-keyboard"),
		widgets.RenderLegendItem([3]uint8(m.theme.LED(ch, 1)), m.theme.Symbols.Solid, fmt.Sprintf("ch %02d", ch+1), ""),
	}
	if m.transpose != 0 {
		parts = append(parts, st.active.Render(fmt.Sprintf("%+d", m.transpose)))
	}
	if m.output != "" {
		parts = append(parts, st.ok.Render(m.output))
	} else {
		parts = append(parts, st.dim.Render("no output"))
	}
	if !m.tracker.Playable() {
		parts = append(parts, st.dim.Render("locked"))
	}
	if m.launchpad != nil {
		parts = append(parts, st.active.Render("LP"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) status(st viewStyles) string {
	played := m.tracker.Played()
	names := make([]string, len(played))
	for i, n := range played {
		names[i] = keyName(m.layout.Division, n.ID)
	}
	line := string(m.theme.Symbols.Held) + " " + st.text.Render(strings.Join(names, " "))
	if m.activity.last != "" {
		line += st.dim.Render("  last: " + m.activity.last)
	}
	return line
}

func (m Model) mappingHelp() string {
	type entry struct {
		code string
		id   int
	}
	entries := make([]entry, 0, len(m.mapping))
	for code, id := range m.mapping {
		entries = append(entries, entry{code, id + m.transpose})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Or(cmp.Compare(a.id, b.id), strings.Compare(a.code, b.code))
	})

	sec := widgets.KeySection{Title: "Keyboard"}
	for _, e := range entries {
		sec.Keys = append(sec.Keys, widgets.KeyBinding{Key: e.code, Desc: keyName(m.layout.Division, e.id)})
	}
	return widgets.RenderKeyHelp([]widgets.KeySection{sec})
}

// Played exposes the sounding notes, e.g. for a final report on exit.
func (m Model) Played() notes.Set {
	return m.tracker.Played()
}
