package input

import "go-keyboard/notes"

// Point is one touch contact.
type Point struct {
	X, Y float64
}

// Options configures a Tracker.
type Options struct {
	// Channel is the active channel pointer and keyboard gestures play on.
	Channel int
	// KeyboardVelocity is the fixed velocity of physical key presses.
	KeyboardVelocity float64
	Mapping          Mapping

	// Playable attaches pointer input; physical keys also need Focused.
	Playable bool
	Focused  bool

	// KeysOn seeds the active set. The seed is taken as already sounding
	// and emits no events.
	KeysOn notes.Set

	OnKeyOn  func(notes.Event)
	OnKeyOff func(notes.Event)
}

// Tracker is the input state machine. It owns the authoritative active-note
// set, applies pointer, touch and key transitions to it, and reconciles after
// every transition so each note gets exactly one on and one off event.
//
// A Tracker is not safe for concurrent use; feed it from one goroutine.
type Tracker struct {
	hits *HitTester

	channel  int
	velocity float64
	mapping  Mapping

	playable bool
	focused  bool

	session PointerSession
	keysOn  notes.Set
	played  notes.Set

	onKeyOn  func(notes.Event)
	onKeyOff func(notes.Event)
}

// NewTracker creates a tracker reading key positions from hits.
func NewTracker(hits *HitTester, opts Options) *Tracker {
	return &Tracker{
		hits:     hits,
		channel:  opts.Channel,
		velocity: opts.KeyboardVelocity,
		mapping:  opts.Mapping,
		playable: opts.Playable,
		focused:  opts.Focused,
		keysOn:   opts.KeysOn,
		played:   opts.KeysOn,
		onKeyOn:  opts.OnKeyOn,
		onKeyOff: opts.OnKeyOff,
	}
}

// clearsPointer selects the notes a pointer move, release or touch end on key
// id removes. It matches on channel OR key, so it also clears other keys of
// the active channel and the same key on other channels.
func clearsPointer(channel, id int) func(notes.Note) bool {
	return func(n notes.Note) bool {
		return n.Channel == channel || n.ID == id
	}
}

func (t *Tracker) pointerAttached() bool {
	return t.playable
}

func (t *Tracker) keysAttached() bool {
	return t.playable && t.focused
}

// MouseDown handles a press. Only buttons == 1 (primary alone) plays.
func (t *Tracker) MouseDown(x, y float64, buttons int) {
	if !t.pointerAttached() || t.session.Touch || buttons != 1 {
		return
	}
	hit, ok := t.hits.KeyAt(x, y)
	if !ok {
		return
	}
	var v float64
	t.session, v = t.session.Latch(hit.Velocity)
	t.commit(t.keysOn.Put(notes.Note{Channel: t.channel, ID: hit.ID, Velocity: v}))
}

// MouseMove handles motion; it only plays while the primary button is held.
// The gesture's latched velocity carries over to the new key.
func (t *Tracker) MouseMove(x, y float64, buttons int) {
	if !t.pointerAttached() || buttons != 1 {
		return
	}
	hit, ok := t.hits.KeyAt(x, y)
	if !ok {
		return
	}
	var v float64
	t.session, v = t.session.Latch(hit.Velocity)
	next := t.keysOn.Without(clearsPointer(t.channel, hit.ID))
	t.commit(next.Put(notes.Note{Channel: t.channel, ID: hit.ID, Velocity: v}))
}

// MouseUp handles a release. Releasing outside every key changes nothing.
func (t *Tracker) MouseUp(x, y float64) {
	if !t.pointerAttached() || t.session.Touch {
		return
	}
	hit, ok := t.hits.KeyAt(x, y)
	if !ok {
		return
	}
	t.session = t.session.Release()
	t.commit(t.keysOn.Without(clearsPointer(t.channel, hit.ID)))
}

// TouchStart adds one note per new contact over a key.
func (t *Tracker) TouchStart(points []Point) {
	if !t.pointerAttached() {
		return
	}
	t.session = t.session.StartTouches()
	next := t.keysOn
	for _, p := range points {
		hit, ok := t.hits.KeyAt(p.X, p.Y)
		if !ok {
			continue
		}
		var v float64
		t.session, v = t.session.Latch(hit.Velocity)
		next = next.Put(notes.Note{Channel: t.channel, ID: hit.ID, Velocity: v})
	}
	t.commit(next)
}

// TouchMove moves each changed contact to the key now under it, keeping the
// latched velocity.
func (t *Tracker) TouchMove(changed []Point) {
	if !t.pointerAttached() {
		return
	}
	next := t.keysOn
	for _, p := range changed {
		hit, ok := t.hits.KeyAt(p.X, p.Y)
		if !ok {
			continue
		}
		var v float64
		t.session, v = t.session.Latch(hit.Velocity)
		next = next.Without(clearsPointer(t.channel, hit.ID))
		next = next.Put(notes.Note{Channel: t.channel, ID: hit.ID, Velocity: v})
	}
	t.commit(next)
}

// TouchEnd removes the notes of each ended contact.
func (t *Tracker) TouchEnd(changed []Point) {
	if !t.pointerAttached() {
		return
	}
	next := t.keysOn
	for _, p := range changed {
		hit, ok := t.hits.KeyAt(p.X, p.Y)
		if !ok {
			continue
		}
		next = next.Without(clearsPointer(t.channel, hit.ID))
	}
	t.commit(next)
}

// KeyDown plays the key mapped to code. Auto-repeat is absorbed: a key
// already sounding on the active channel is left alone.
func (t *Tracker) KeyDown(code string) {
	if !t.keysAttached() {
		return
	}
	id, ok := t.mapping[code]
	if !ok {
		return
	}
	ident := notes.Ident{Channel: t.channel, ID: id}
	if t.keysOn.Has(ident) {
		return
	}
	t.commit(t.keysOn.Put(notes.Note{Channel: t.channel, ID: id, Velocity: t.velocity}))
}

// KeyUp releases the key mapped to code on the active channel only.
func (t *Tracker) KeyUp(code string) {
	if !t.keysAttached() {
		return
	}
	id, ok := t.mapping[code]
	if !ok {
		return
	}
	ident := notes.Ident{Channel: t.channel, ID: id}
	t.commit(t.keysOn.Without(func(n notes.Note) bool { return n.Ident() == ident }))
}

// SetKeysOn overwrites the active set from outside (controlled state). It is
// not gated by Playable.
func (t *Tracker) SetKeysOn(s notes.Set) {
	t.commit(s)
}

// Press adds n to the active set from an external source such as a MIDI
// controller.
func (t *Tracker) Press(n notes.Note) {
	t.SetKeysOn(t.keysOn.Put(n))
}

// Release removes key id on channel from the active set.
func (t *Tracker) Release(channel, id int) {
	ident := notes.Ident{Channel: channel, ID: id}
	t.SetKeysOn(t.keysOn.Without(func(n notes.Note) bool { return n.Ident() == ident }))
}

// ReleaseAll clears the active set.
func (t *Tracker) ReleaseAll() {
	t.SetKeysOn(nil)
}

// SetPlayable attaches or detaches all input. Detaching leaves sounding
// notes as they are.
func (t *Tracker) SetPlayable(on bool) {
	t.playable = on
}

// SetFocused attaches or detaches physical key input.
func (t *Tracker) SetFocused(on bool) {
	t.focused = on
}

// SetChannel changes the channel gestures play on.
func (t *Tracker) SetChannel(ch int) {
	t.channel = ch
}

// SetMapping replaces the physical key mapping.
func (t *Tracker) SetMapping(m Mapping) {
	t.mapping = m
}

func (t *Tracker) Playable() bool          { return t.playable }
func (t *Tracker) Focused() bool           { return t.focused }
func (t *Tracker) Channel() int            { return t.channel }
func (t *Tracker) Session() PointerSession { return t.session }

// KeysOn returns the authoritative active set.
func (t *Tracker) KeysOn() notes.Set {
	return t.keysOn
}

// Played returns the set as last reconciled, with the values each note
// had when it started.
func (t *Tracker) Played() notes.Set {
	return t.played
}

func (t *Tracker) commit(next notes.Set) {
	t.keysOn = next
	d := notes.Reconcile(t.played, next)
	t.played = d.Played
	for _, e := range d.On {
		if t.onKeyOn != nil {
			t.onKeyOn(e)
		}
	}
	for _, e := range d.Off {
		if t.onKeyOff != nil {
			t.onKeyOff(e)
		}
	}
}
