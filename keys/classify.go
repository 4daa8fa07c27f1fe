package keys

import "strconv"

// Slot is a position inside the 12-tone reference octave, counted in half
// semitones. Naturals and proper accidentals sit on even slots, the two
// in-between accidentals on 9 (between E and F) and 23 (between B and C).
type Slot int

// Reference slots
const (
	SlotC      Slot = 0
	SlotCSharp Slot = 2
	SlotD      Slot = 4
	SlotDSharp Slot = 6
	SlotE      Slot = 8
	SlotEF     Slot = 9 // in-between E/F
	SlotF      Slot = 10
	SlotFSharp Slot = 12
	SlotG      Slot = 14
	SlotGSharp Slot = 16
	SlotA      Slot = 18
	SlotASharp Slot = 20
	SlotB      Slot = 22
	SlotBC     Slot = 23 // in-between B/C
)

// Slots lists every slot in left-to-right order.
var Slots = []Slot{
	SlotC, SlotCSharp, SlotD, SlotDSharp, SlotE, SlotEF, SlotF,
	SlotFSharp, SlotG, SlotGSharp, SlotA, SlotASharp, SlotB, SlotBC,
}

// Semitones returns the slot position in semitones above C.
func (s Slot) Semitones() float64 {
	return float64(s) / 2
}

func (s Slot) String() string {
	return strconv.FormatFloat(s.Semitones(), 'f', -1, 64)
}

// Role is the pitch-class role of a key.
type Role int

const (
	Natural Role = iota
	ProperAccidental
	InBetweenAccidental
)

func (r Role) String() string {
	switch r {
	case Natural:
		return "natural"
	case ProperAccidental:
		return "accidental"
	case InBetweenAccidental:
		return "in-between"
	}
	return "unknown"
}

// IsAccidental reports whether keys with this role are stacked over the naturals.
func (r Role) IsAccidental() bool {
	return r != Natural
}

var naturalSemitones = [12]bool{0: true, 2: true, 4: true, 5: true, 7: true, 9: true, 11: true}

// gapSlots maps a natural semitone to the accidental slot covering the gap
// between it and the next natural up.
var gapSlots = [12]Slot{
	0:  SlotCSharp,
	2:  SlotDSharp,
	4:  SlotEF,
	5:  SlotFSharp,
	7:  SlotGSharp,
	9:  SlotASharp,
	11: SlotBC,
}

// Classify returns the slot and role of key id in an octave split into
// division equal steps. Pitches landing exactly on a reference semitone keep
// that semitone's slot; anything else belongs to the accidental slot covering
// the gap between its neighbouring naturals.
//
// division must be positive.
func Classify(division, id int) (Slot, Role) {
	if division <= 0 {
		panic("keys: octave division must be positive")
	}
	// pitch = step*12/division semitones; keep it as a fraction to stay exact
	num := floorMod(id, division) * 12
	semi := num / division
	if num%division == 0 {
		slot := Slot(semi * 2)
		return slot, roleOf(slot)
	}
	for !naturalSemitones[semi] {
		semi--
	}
	slot := gapSlots[semi]
	return slot, roleOf(slot)
}

// Octave returns the octave index of key id.
func Octave(division, id int) int {
	if division <= 0 {
		panic("keys: octave division must be positive")
	}
	return floorDiv(id, division)
}

func roleOf(s Slot) Role {
	switch {
	case s == SlotEF || s == SlotBC:
		return InBetweenAccidental
	case s%2 == 0 && naturalSemitones[s/2]:
		return Natural
	default:
		return ProperAccidental
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
