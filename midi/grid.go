package midi

import "go-keyboard/notes"

// Grid lays keys out on the 8x8 pads: one step per column to the right and
// RowStep steps per row up, from Base at the bottom-left pad.
type Grid struct {
	Base    int
	RowStep int
}

// DefaultGrid matches the Launchpad's own note layout (rows a fourth apart)
// with middle C at the bottom left.
var DefaultGrid = Grid{Base: 60, RowStep: 5}

// KeyAt returns the key id under a pad. Side and top buttons hold no key.
func (g Grid) KeyAt(row, col int) (int, bool) {
	if row < 0 || row > 7 || col < 0 || col > 7 {
		return 0, false
	}
	return g.Base + row*g.RowStep + col, true
}

// Pads returns every pad playing key id, bottom row first.
func (g Grid) Pads(id int) [][2]int {
	var pads [][2]int
	for row := range 8 {
		col := id - g.Base - row*g.RowStep
		if col >= 0 && col < 8 {
			pads = append(pads, [2]int{row, col})
		}
	}
	return pads
}

// Shift moves the grid by steps keys.
func (g Grid) Shift(steps int) Grid {
	g.Base += steps
	return g
}

// GridColors picks pad colors.
type GridColors struct {
	Root  [3]uint8 // pads on the first step of an octave
	Other [3]uint8
	Note  func(channel int, velocity float64) [3]uint8
}

// Frame renders the pads: octave roots and other keys in their resting
// colors, sounding keys in their channel color. The last note played on a
// key wins when several channels share it.
func (g Grid) Frame(played notes.Set, division int, c GridColors) []LEDUpdate {
	leds := make([]LEDUpdate, 0, 64)
	index := make(map[[2]int]int, 64)
	for row := range 8 {
		for col := range 8 {
			id, _ := g.KeyAt(row, col)
			color := c.Other
			if division > 0 && ((id%division)+division)%division == 0 {
				color = c.Root
			}
			index[[2]int{row, col}] = len(leds)
			leds = append(leds, LEDUpdate{Row: row, Col: col, Color: color, Channel: ChannelStatic})
		}
	}
	for _, n := range played {
		for _, p := range g.Pads(n.ID) {
			leds[index[p]].Color = c.Note(n.Channel, n.Velocity)
		}
	}
	return leds
}

// LEDState remembers what the pads show so only changes are sent.
type LEDState struct {
	prev map[[2]int]LEDUpdate
}

// Diff returns the updates needed to go from the last frame to frame, and
// records frame as shown. Pads missing from frame are switched off.
func (s *LEDState) Diff(frame []LEDUpdate) []LEDUpdate {
	next := make(map[[2]int]LEDUpdate, len(frame))
	var updates []LEDUpdate

	for _, led := range frame {
		key := [2]int{led.Row, led.Col}
		next[key] = led
		if prev, ok := s.prev[key]; !ok || prev != led {
			updates = append(updates, led)
		}
	}
	for key := range s.prev {
		if _, ok := next[key]; !ok {
			updates = append(updates, LEDUpdate{Row: key[0], Col: key[1]})
		}
	}

	s.prev = next
	return updates
}

// Reset forgets the shown frame, so the next Diff resends everything.
func (s *LEDState) Reset() {
	s.prev = nil
}
