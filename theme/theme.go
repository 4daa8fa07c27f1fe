package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultChannelColors are the tints of channels 0-15.
var DefaultChannelColors = []string{
	"#005", "#050", "#500", "#550",
	"#00a", "#0a0", "#0aa", "#a00",
	"#a0a", "#aa0", "#00f", "#0f0",
	"#0ff", "#f00", "#f0f", "#ff0",
}

type Theme struct {
	Palette  *Palette
	Symbols  Symbols
	Keys     KeyColors
	Channels []colorful.Color
}

type Symbols struct {
	Solid rune // ■ launchpad pad lit
	Empty rune // □ launchpad pad off
	Held  rune // ● key sounding in the status line
	Edge  rune // ▏ left edge of a natural key
}

// KeyColors are the unplayed key colors.
type KeyColors struct {
	Natural        colorful.Color
	Label          colorful.Color
	Dark           colorful.Color // stacked accidentals
	Light          colorful.Color
	InBetweenDark  colorful.Color
	InBetweenLight colorful.Color
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

func New(palette *Palette) *Theme {
	t := &Theme{
		Palette: palette,
		Symbols: Symbols{
			Solid: '■',
			Empty: '□',
			Held:  '●',
			Edge:  '▏',
		},
		Keys: KeyColors{
			Natural:        mustHex("#ffffff"),
			Label:          mustHex("#000000"),
			Dark:           mustHex("#444"),
			Light:          mustHex("#888"),
			InBetweenDark:  mustHex("#ccc"),
			InBetweenLight: mustHex("#eee"),
		},
	}
	for _, h := range DefaultChannelColors {
		t.Channels = append(t.Channels, mustHex(h))
	}
	return t
}

// SetChannelColors replaces the channel tints with hex colors ("#rgb" or
// "#rrggbb"). On error the current tints are kept.
func (t *Theme) SetChannelColors(hexes []string) error {
	cs := make([]colorful.Color, 0, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return fmt.Errorf("channel %d color %q: %w", i, h, err)
		}
		cs = append(cs, c)
	}
	if len(cs) > 0 {
		t.Channels = cs
	}
	return nil
}

// Channel returns the tint of channel ch. Channels past the list wrap.
func (t *Theme) Channel(ch int) colorful.Color {
	if len(t.Channels) == 0 {
		return t.Keys.Dark
	}
	if ch < 0 {
		ch = -ch
	}
	return t.Channels[ch%len(t.Channels)]
}

// Overlay draws channel ch's tint over base at the opacity a note of the
// given velocity shows: 0.25 + 0.5*velocity.
func (t *Theme) Overlay(base colorful.Color, ch int, velocity float64) colorful.Color {
	a := 0.25 + 0.5*clamp01(velocity)
	return base.BlendRgb(t.Channel(ch), a).Clamped()
}

// LED returns the pad color for a note: the channel hue at a brightness
// following velocity, so dark tints stay visible on the grid.
func (t *Theme) LED(ch int, velocity float64) RGB {
	h, s, _ := t.Channel(ch).Hsv()
	return rgbOf(colorful.Hsv(h, s, 0.5+0.5*clamp01(velocity)))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Color roles mapped to palette positions (0-1)
const (
	RoleSurface = 0.1
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

func (t *Theme) FG() lipgloss.Color      { return t.role(RoleFG) }
func (t *Theme) Accent() lipgloss.Color  { return t.role(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color   { return t.role(RoleMuted) }
func (t *Theme) Active() lipgloss.Color  { return t.role(RoleActive) }
func (t *Theme) Warning() lipgloss.Color { return t.role(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.role(RoleSuccess) }

func (t *Theme) role(norm float64) lipgloss.Color {
	return Lip(t.Palette.Lookup(norm).Color())
}

// Lip converts a color for lipgloss styles.
func Lip(c colorful.Color) lipgloss.Color {
	return lipgloss.Color(c.Clamped().Hex())
}
