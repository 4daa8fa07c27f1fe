package widgets

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"

	"go-keyboard/input"
	"go-keyboard/keys"
	"go-keyboard/notes"
	"go-keyboard/theme"
)

var pitchNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchName returns the name of a 12-step key, "C4" for 60.
func PitchName(id int) string {
	pc := ((id % 12) + 12) % 12
	octave := int(math.Floor(float64(id)/12)) - 1
	return pitchNames[pc] + strconv.Itoa(octave)
}

// KeyboardStyle holds the drawing options that come from the config.
type KeyboardStyle struct {
	// Accidental heights as a fraction of the keyboard height
	AccidentalHeight float64
	InBetweenHeight  float64
	Labels           bool
}

type drawnKey struct {
	input.KeyRect
	key   keys.PlacedKey
	label string
}

// Keyboard draws a keys.Layout into a width x height block of cells. Its key
// rectangles are in cell units with the origin at the top-left cell corner,
// so a HitTester fed with cell centres picks what is drawn there.
type Keyboard struct {
	layout *keys.Layout
	theme  *theme.Theme
	style  KeyboardStyle

	width, height int
	drawn         []drawnKey
}

func NewKeyboard(layout *keys.Layout, th *theme.Theme, style KeyboardStyle) *Keyboard {
	k := &Keyboard{layout: layout, theme: th, style: style}
	k.place()
	return k
}

// SetSize changes the drawing area. Callers must recalculate hit testers
// reading this keyboard.
func (k *Keyboard) SetSize(width, height int) {
	k.width, k.height = max(width, 0), max(height, 0)
	k.place()
}

func (k *Keyboard) Size() (width, height int) {
	return k.width, k.height
}

// KeyRects returns naturals first, then accidental stacks, matching the
// order they are painted in.
func (k *Keyboard) KeyRects() []input.KeyRect {
	rects := make([]input.KeyRect, len(k.drawn))
	for i, d := range k.drawn {
		rects[i] = d.KeyRect
	}
	return rects
}

func (k *Keyboard) place() {
	k.drawn = k.drawn[:0]
	if k.layout == nil || k.layout.Empty() || k.width == 0 || k.height == 0 {
		return
	}
	w, h := float64(k.width), float64(k.height)
	spans := k.layout.Spans()

	for _, sp := range spans {
		bx, bw := sp.Left*w, sp.Width*w
		for _, pk := range sp.Bucket.Naturals {
			k.drawn = append(k.drawn, drawnKey{
				KeyRect: input.KeyRect{ID: pk.ID, Rect: input.Rect{
					X: bx + pk.Left*bw, W: pk.Width * bw, H: h,
				}},
				key:   pk,
				label: k.naturalLabel(pk),
			})
		}
	}
	for _, sp := range spans {
		bx, bw := sp.Left*w, sp.Width*w
		for _, st := range sp.Bucket.Stacks {
			frac := k.style.AccidentalHeight
			if st.InBetween {
				frac = k.style.InBetweenHeight
			}
			each := frac * h / float64(len(st.Keys))
			for j, pk := range st.Keys {
				k.drawn = append(k.drawn, drawnKey{
					KeyRect: input.KeyRect{ID: pk.ID, Rect: input.Rect{
						X: bx + st.Left*bw, Y: float64(j) * each, W: st.Width * bw, H: each,
					}},
					key:   pk,
					label: pk.Label,
				})
			}
		}
	}
}

func (k *Keyboard) naturalLabel(pk keys.PlacedKey) string {
	if k.layout.Division == 12 {
		return PitchName(pk.ID)
	}
	return pk.Label
}

// owner returns the index of the topmost drawn key at (x, y), or -1.
func (k *Keyboard) owner(x, y float64) int {
	for i := len(k.drawn) - 1; i >= 0; i-- {
		if k.drawn[i].Contains(x, y) {
			return i
		}
	}
	return -1
}

func (k *Keyboard) baseColor(d drawnKey) colorful.Color {
	kc := k.theme.Keys
	switch {
	case d.key.Role == keys.InBetweenAccidental && d.key.Dark:
		return kc.InBetweenDark
	case d.key.Role == keys.InBetweenAccidental:
		return kc.InBetweenLight
	case d.key.Role == keys.ProperAccidental && d.key.Dark:
		return kc.Dark
	case d.key.Role == keys.ProperAccidental:
		return kc.Light
	}
	return kc.Natural
}

// keyColor returns the color key i is drawn with, every note sounding on it
// laid over the base color in play order.
func (k *Keyboard) keyColor(i int, played notes.Set) colorful.Color {
	c := k.baseColor(k.drawn[i])
	for _, n := range played.Key(k.drawn[i].ID) {
		c = k.theme.Overlay(c, n.Channel, n.Velocity)
	}
	return c
}

func (k *Keyboard) textOn(bg colorful.Color) colorful.Color {
	if l, _, _ := bg.Lab(); l > 0.5 {
		return k.theme.Keys.Label
	}
	return k.theme.Keys.Natural
}

type cell struct {
	r      rune
	fg, bg colorful.Color
}

// Render draws the keyboard with the played notes tinted in their channel
// colors.
func (k *Keyboard) Render(played notes.Set) string {
	if len(k.drawn) == 0 {
		return ""
	}

	grid := make([][]int, k.height)
	lastRow := make([]int, len(k.drawn))
	firstCol := make([]int, len(k.drawn))
	for i := range lastRow {
		lastRow[i], firstCol[i] = -1, -1
	}
	for row := range grid {
		grid[row] = make([]int, k.width)
		for col := range grid[row] {
			o := k.owner(float64(col)+0.5, float64(row)+0.5)
			grid[row][col] = o
			if o < 0 {
				continue
			}
			lastRow[o] = row
			if firstCol[o] < 0 || col < firstCol[o] {
				firstCol[o] = col
			}
		}
	}

	colors := make([]colorful.Color, len(k.drawn))
	for i := range k.drawn {
		colors[i] = k.keyColor(i, played)
	}

	lines := make([]string, k.height)
	for row, owners := range grid {
		cells := make([]cell, k.width)
		for col, o := range owners {
			if o < 0 {
				cells[col] = cell{r: ' ', fg: k.theme.Keys.Natural, bg: k.theme.Keys.Label}
				continue
			}
			cells[col] = cell{r: ' ', fg: k.textOn(colors[o]), bg: colors[o]}
			if !k.drawn[o].key.Role.IsAccidental() && col == firstCol[o] {
				cells[col].r = k.theme.Symbols.Edge
				cells[col].fg = k.theme.Keys.Dark
			}
		}
		if k.style.Labels {
			k.writeLabels(cells, owners, row, lastRow)
		}
		lines[row] = renderCells(cells)
	}
	return strings.Join(lines, "\n")
}

// writeLabels puts each key's label on the last row the key shows on, inside
// the run of cells the key owns there.
func (k *Keyboard) writeLabels(cells []cell, owners []int, row int, lastRow []int) {
	for col := 0; col < len(owners); {
		o := owners[col]
		end := col + 1
		for end < len(owners) && owners[end] == o {
			end++
		}
		if o >= 0 && lastRow[o] == row {
			start := col
			if cells[col].r == k.theme.Symbols.Edge {
				start++ // keep the edge
			}
			if start >= end {
				col = end
				continue
			}
			label := ansi.Truncate(k.drawn[o].label, end-start, "")
			for i, r := range []rune(label) {
				cells[start+i].r = r
			}
		}
		col = end
	}
}

// renderCells joins runs of equally colored cells into one styled string each.
func renderCells(cells []cell) string {
	var out strings.Builder
	for i := 0; i < len(cells); {
		j := i + 1
		for j < len(cells) && cells[j].fg == cells[i].fg && cells[j].bg == cells[i].bg {
			j++
		}
		var run strings.Builder
		for _, c := range cells[i:j] {
			run.WriteRune(c.r)
		}
		style := lipgloss.NewStyle().
			Foreground(theme.Lip(cells[i].fg)).
			Background(theme.Lip(cells[i].bg))
		out.WriteString(style.Render(run.String()))
		i = j
	}
	return out.String()
}
