package keys

import (
	"errors"
	"fmt"
)

// Spacing names a key spacing scheme.
type Spacing string

const (
	Standard    Spacing = "standard"
	GarageBand  Spacing = "garageBand"
	FruityLoops Spacing = "fruityLoops"
)

// Spacings lists the known schemes.
var Spacings = []Spacing{Standard, GarageBand, FruityLoops}

var ErrUnknownSpacing = errors.New("unknown key spacing")

// Metrics gives every slot a width and a left offset, both as fractions of
// one octave's span.
type Metrics struct {
	Widths  map[Slot]float64
	Offsets map[Slot]float64
}

// Width returns the width of slot s.
func (m *Metrics) Width(s Slot) float64 {
	w, ok := m.Widths[s]
	if !ok {
		panic(fmt.Sprintf("keys: no width for slot %s", s))
	}
	return w
}

// Offset returns the left offset of slot s.
func (m *Metrics) Offset(s Slot) float64 {
	o, ok := m.Offsets[s]
	if !ok {
		panic(fmt.Sprintf("keys: no offset for slot %s", s))
	}
	return o
}

const white = 1.0 / 7

// accidental is the [offset, width] of one accidental slot
type accidental [2]float64

func newMetrics(acc map[Slot]accidental) *Metrics {
	m := &Metrics{
		Widths:  make(map[Slot]float64, len(Slots)),
		Offsets: make(map[Slot]float64, len(Slots)),
	}
	naturals := []Slot{SlotC, SlotD, SlotE, SlotF, SlotG, SlotA, SlotB}
	for i, s := range naturals {
		m.Offsets[s] = float64(i) * white
		m.Widths[s] = white
	}
	for s, a := range acc {
		m.Offsets[s] = a[0]
		m.Widths[s] = a[1]
	}
	return m
}

// standard follows a real key bed: C# and D# split C-E into five equal
// parts, F# G# A# split F-B into seven.
var standard = func() *Metrics {
	const ce = 3 * white / 5
	const fb = 4 * white / 7
	const f = 3 * white
	const inBetween = white / 2
	return newMetrics(map[Slot]accidental{
		SlotCSharp: {ce, ce},
		SlotDSharp: {3 * ce, ce},
		SlotEF:     {f - inBetween/2, inBetween},
		SlotFSharp: {f + fb, fb},
		SlotGSharp: {f + 3*fb, fb},
		SlotASharp: {f + 5*fb, fb},
		SlotBC:     {1 - inBetween, inBetween},
	})
}()

// garageBand centres every accidental on the line between two naturals.
var garageBand = func() *Metrics {
	const w = 1.0 / 12
	return newMetrics(map[Slot]accidental{
		SlotCSharp: {1*white - w/2, w},
		SlotDSharp: {2*white - w/2, w},
		SlotEF:     {3*white - w/2, w},
		SlotFSharp: {4*white - w/2, w},
		SlotGSharp: {5*white - w/2, w},
		SlotASharp: {6*white - w/2, w},
		SlotBC:     {1 - w, w},
	})
}()

// fruityLoops uses narrow accidentals leaning away from the group centre.
var fruityLoops = func() *Metrics {
	const w = white / 2
	return newMetrics(map[Slot]accidental{
		SlotCSharp: {1*white - 2*w/3, w},
		SlotDSharp: {2*white - w/3, w},
		SlotEF:     {3*white - w/2, w},
		SlotFSharp: {4*white - 2*w/3, w},
		SlotGSharp: {5*white - w/2, w},
		SlotASharp: {6*white - w/3, w},
		SlotBC:     {1 - w, w},
	})
}()

var registry = map[Spacing]*Metrics{
	Standard:    standard,
	GarageBand:  garageBand,
	FruityLoops: fruityLoops,
}

// Lookup returns the metrics table for a spacing scheme.
func Lookup(s Spacing) (*Metrics, error) {
	m, ok := registry[s]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSpacing, string(s))
	}
	return m, nil
}

// MustLookup is Lookup for callers that already validated s.
func MustLookup(s Spacing) *Metrics {
	m, err := Lookup(s)
	if err != nil {
		panic(err)
	}
	return m
}
