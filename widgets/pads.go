package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-keyboard/midi"
)

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8, symbol rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render(string(symbol))
}

// RenderPadGrid mirrors a Launchpad frame, row 0 at the bottom. Pads the
// frame does not mention are drawn off.
func RenderPadGrid(frame []midi.LEDUpdate, on, off rune) string {
	var grid [8][8]*[3]uint8
	for i := range frame {
		u := frame[i]
		if u.Row >= 0 && u.Row < 8 && u.Col >= 0 && u.Col < 8 {
			grid[u.Row][u.Col] = &frame[i].Color
		}
	}

	lines := make([]string, 0, 8)
	for row := 7; row >= 0; row-- {
		pads := make([]string, 0, 8)
		for col := 0; col < 8; col++ {
			c := grid[row][col]
			if c == nil || *c == [3]uint8{} {
				pads = append(pads, RenderPad([3]uint8{0x55, 0x55, 0x55}, off))
				continue
			}
			pads = append(pads, RenderPad(*c, on))
		}
		lines = append(lines, strings.Join(pads, " "))
	}
	return strings.Join(lines, "\n")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, symbol rune, name, desc string) string {
	if desc == "" {
		return fmt.Sprintf("%s %s", RenderPad(color, symbol), name)
	}
	return fmt.Sprintf("%s %s - %s", RenderPad(color, symbol), name, desc)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
