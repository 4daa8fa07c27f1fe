package keys

import (
	"math"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// Key is one key of the keyboard. IDs are step indices in the octave
// division, so with the default division of 12 they match MIDI note numbers.
type Key struct {
	ID     int
	Slot   Slot
	Octave int
	Role   Role
}

// NewKey classifies key id for the given division.
func NewKey(division, id int) Key {
	slot, role := Classify(division, id)
	return Key{
		ID:     id,
		Slot:   slot,
		Octave: Octave(division, id),
		Role:   role,
	}
}

// Placement is a horizontal extent relative to the enclosing octave bucket
// (0 = bucket's left edge, 1 = right edge).
type Placement struct {
	Left  float64
	Width float64
}

// Right returns the right edge.
func (p Placement) Right() float64 {
	return p.Left + p.Width
}

// PlacedKey is a key with its position inside its bucket.
type PlacedKey struct {
	Key
	Placement

	// Dark is the stack shading of an accidental (always false for naturals)
	Dark bool
	// Label is the display id: octave*12+slot, plus a stack letter for accidentals
	Label string
}

// Stack is the group of accidental keys sharing one slot, drawn top to bottom
// in ascending pitch.
type Stack struct {
	Slot      Slot
	InBetween bool
	Placement
	Keys []PlacedKey
}

// Bucket holds the keys of one octave.
type Bucket struct {
	Octave int
	Keys   []Key

	// FlexBasis is the share of a full octave span this bucket occupies
	FlexBasis float64

	Naturals []PlacedKey
	Stacks   []Stack
}

// Layout is the full key geometry for a range. It is rebuilt, never patched,
// when the range, division or spacing changes.
type Layout struct {
	Start, End int
	Division   int
	Metrics    *Metrics

	// Keys in ascending id order
	Keys []Key
	// Octaves in descending octave order (most significant first)
	Octaves []Bucket

	labels map[string]int
}

// Build creates the layout for keys start..end inclusive. start > end gives
// an empty layout.
func Build(start, end, division int, m *Metrics) *Layout {
	l := &Layout{
		Start:    start,
		End:      end,
		Division: division,
		Metrics:  m,
		labels:   make(map[string]int),
	}
	if start > end {
		return l
	}

	l.Keys = make([]Key, 0, end-start+1)
	for id := start; id <= end; id++ {
		l.Keys = append(l.Keys, NewKey(division, id))
	}

	// ids ascend, so each octave is a contiguous run
	var buckets []Bucket
	for _, k := range l.Keys {
		if n := len(buckets); n == 0 || buckets[n-1].Octave != k.Octave {
			buckets = append(buckets, Bucket{Octave: k.Octave})
		}
		b := &buckets[len(buckets)-1]
		b.Keys = append(b.Keys, k)
	}
	for i := range buckets {
		buckets[i].place(m)
		for _, pk := range buckets[i].Naturals {
			l.labels[pk.Label] = pk.ID
		}
		for _, st := range buckets[i].Stacks {
			for _, pk := range st.Keys {
				l.labels[pk.Label] = pk.ID
			}
		}
	}
	slices.Reverse(buckets)
	l.Octaves = buckets
	return l
}

func (b *Bucket) place(m *Metrics) {
	first := b.Keys[0]
	last := b.Keys[len(b.Keys)-1]
	negative := m.Offset(first.Slot)
	positive := m.Offset(last.Slot)
	b.FlexBasis = math.Min(positive+m.Width(last.Slot), 1) - negative

	scale := 1 / b.FlexBasis
	at := func(s Slot) Placement {
		return Placement{
			Left:  (m.Offset(s) - negative) * scale,
			Width: m.Width(s) * scale,
		}
	}
	base := b.Octave * 12

	for _, k := range b.Keys {
		if k.Role.IsAccidental() {
			n := len(b.Stacks)
			if n == 0 || b.Stacks[n-1].Slot != k.Slot {
				b.Stacks = append(b.Stacks, Stack{
					Slot:      k.Slot,
					InBetween: k.Role == InBetweenAccidental,
					Placement: at(k.Slot),
				})
			}
			st := &b.Stacks[len(b.Stacks)-1]
			st.Keys = append(st.Keys, PlacedKey{Key: k, Placement: st.Placement})
			continue
		}
		b.Naturals = append(b.Naturals, PlacedKey{
			Key:       k,
			Placement: at(k.Slot),
			Label:     slotLabel(base, k.Slot),
		})
	}

	for i := range b.Stacks {
		st := &b.Stacks[i]
		n := len(st.Keys)
		for j := range st.Keys {
			st.Keys[j].Dark = (n-1-j)%2 == 0
			st.Keys[j].Label = slotLabel(base, st.Slot) + string(rune('a'+j))
		}
	}
}

func slotLabel(base int, s Slot) string {
	return strconv.FormatFloat(float64(base)+s.Semitones(), 'f', -1, 64)
}

// Empty reports whether the layout has no keys.
func (l *Layout) Empty() bool {
	return len(l.Keys) == 0
}

// Total returns the sum of all bucket flex bases.
func (l *Layout) Total() float64 {
	flex := make([]float64, len(l.Octaves))
	for i, b := range l.Octaves {
		flex[i] = b.FlexBasis
	}
	return floats.Sum(flex)
}

// Span is a bucket's absolute horizontal extent within the whole keyboard,
// 0 = left edge, 1 = right edge.
type Span struct {
	Bucket *Bucket
	Placement
}

// Spans returns the bucket extents in visual left-to-right order, which is
// Octaves reversed.
func (l *Layout) Spans() []Span {
	n := len(l.Octaves)
	if n == 0 {
		return nil
	}
	total := l.Total()
	widths := make([]float64, n)
	for i := range widths {
		widths[i] = l.Octaves[n-1-i].FlexBasis / total
	}
	rights := floats.CumSum(make([]float64, n), widths)

	spans := make([]Span, n)
	for i := range spans {
		spans[i] = Span{
			Bucket:    &l.Octaves[n-1-i],
			Placement: Placement{Left: rights[i] - widths[i], Width: widths[i]},
		}
	}
	return spans
}

// Key returns the key with the given id.
func (l *Layout) Key(id int) (Key, bool) {
	if l.Empty() || id < l.Start || id > l.End {
		return Key{}, false
	}
	return l.Keys[id-l.Start], true
}

// Resolve turns a key label into a key id. Labels of the layout's keys win,
// so "24" names the natural drawn as 24 even when the octave has 24 steps.
// Other integers are taken as ids directly.
func (l *Layout) Resolve(label string) (int, bool) {
	if id, ok := l.labels[label]; ok {
		return id, true
	}
	if id, err := strconv.Atoi(label); err == nil {
		return id, true
	}
	return 0, false
}
