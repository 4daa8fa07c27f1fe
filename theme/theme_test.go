package theme

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

const gpl = `GIMP Palette
Name: test
Columns: 2
# comment
0 0 0	black
255 255 255	white
300 0 0 out of range
`

func TestParseGPL(t *testing.T) {
	p, err := ParseGPL(strings.NewReader(gpl))
	if err != nil {
		t.Fatalf("ParseGPL: %v", err)
	}
	if p.Name != "test" {
		t.Errorf("Name = %q, want test", p.Name)
	}
	if len(p.Colors) != 2 {
		t.Fatalf("got %d colors, want 2", len(p.Colors))
	}
	if got := p.Lookup(0.5); got != (RGB{128, 128, 128}) {
		t.Errorf("Lookup(0.5) = %v, want mid grey", got)
	}
	if got := p.Lookup(2); got != (RGB{255, 255, 255}) {
		t.Errorf("Lookup(2) = %v, want white", got)
	}
	if got := p.Index(-3); got != (RGB{}) {
		t.Errorf("Index(-3) = %v, want black", got)
	}
}

func TestParseGPLEmpty(t *testing.T) {
	if _, err := ParseGPL(strings.NewReader("GIMP Palette\n")); err == nil {
		t.Error("empty palette parsed without error")
	}
}

func TestOverlayOpacity(t *testing.T) {
	th := New(Default())
	white := th.Keys.Natural

	// channel 13 is #f00
	soft := th.Overlay(white, 13, 0)
	hard := th.Overlay(white, 13, 1)

	// green drops with opacity: 1-0.25 at rest, 1-0.75 at full velocity
	if d := soft.G - 0.75; d > 1e-9 || d < -1e-9 {
		t.Errorf("velocity 0 green = %v, want 0.75", soft.G)
	}
	if d := hard.G - 0.25; d > 1e-9 || d < -1e-9 {
		t.Errorf("velocity 1 green = %v, want 0.25", hard.G)
	}
	if soft.R != 1 || hard.R != 1 {
		t.Errorf("red channel changed: %v %v", soft.R, hard.R)
	}
}

func TestChannelWraps(t *testing.T) {
	th := New(Default())
	if th.Channel(16) != th.Channel(0) {
		t.Error("channel 16 does not wrap to 0")
	}
}

func TestSetChannelColors(t *testing.T) {
	th := New(Default())
	if err := th.SetChannelColors([]string{"#123456", "nope"}); err == nil {
		t.Fatal("bad hex accepted")
	}
	if len(th.Channels) != len(DefaultChannelColors) {
		t.Fatal("failed update replaced the tints")
	}
	if err := th.SetChannelColors([]string{"#fff"}); err != nil {
		t.Fatalf("SetChannelColors: %v", err)
	}
	if got := th.Channel(5).Hex(); got != "#ffffff" {
		t.Errorf("Channel(5) = %s, want #ffffff", got)
	}
}

func TestLEDBrightness(t *testing.T) {
	th := New(Default())
	dim := th.LED(0, 0)
	bright := th.LED(0, 1)
	if bright[2] != 255 {
		t.Errorf("full velocity blue = %d, want 255", bright[2])
	}
	if dim[2] >= bright[2] {
		t.Errorf("dim %v not darker than bright %v", dim, bright)
	}
}

func TestRolesFollowPalette(t *testing.T) {
	th := New(Default())
	roles := []struct {
		name string
		got  func() lipgloss.Color
		norm float64
	}{
		{"fg", th.FG, RoleFG},
		{"accent", th.Accent, RoleAccent},
		{"muted", th.Muted, RoleMuted},
		{"active", th.Active, RoleActive},
		{"warning", th.Warning, RoleWarning},
		{"success", th.Success, RoleSuccess},
	}
	for _, r := range roles {
		if want := Lip(th.Palette.Lookup(r.norm).Color()); r.got() != want {
			t.Errorf("%s = %s, want %s", r.name, r.got(), want)
		}
	}
}
