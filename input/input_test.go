package input

import (
	"reflect"
	"testing"

	"go-keyboard/notes"
)

type rectList []KeyRect

func (r rectList) KeyRects() []KeyRect { return r }

// row lays keys first..last side by side, each 10 wide and 100 tall.
func row(first, last int) rectList {
	var rs rectList
	for id := first; id <= last; id++ {
		rs = append(rs, KeyRect{ID: id, Rect: Rect{X: float64(id-first) * 10, Y: 0, W: 10, H: 100}})
	}
	return rs
}

// centre returns a point inside key id of row(40, ...) at height y.
func centre(id int, y float64) (float64, float64) {
	return float64(id-40)*10 + 5, y
}

type recorder struct {
	on, off []notes.Event
	log     []string
}

func (r *recorder) opts(o Options) Options {
	o.OnKeyOn = func(e notes.Event) {
		r.on = append(r.on, e)
		r.log = append(r.log, "on")
	}
	o.OnKeyOff = func(e notes.Event) {
		r.off = append(r.off, e)
		r.log = append(r.log, "off")
	}
	return o
}

func ids(es []notes.Event) []int {
	out := make([]int, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func TestKeyAtTopmost(t *testing.T) {
	rs := rectList{
		{ID: 60, Rect: Rect{X: 0, Y: 0, W: 10, H: 100}},
		{ID: 62, Rect: Rect{X: 10, Y: 0, W: 10, H: 100}},
		{ID: 61, Rect: Rect{X: 7, Y: 0, W: 6, H: 65}},
	}
	h := NewHitTester(rs)

	tests := []struct {
		x, y  float64
		id    int
		hit   bool
		veloc float64
	}{
		{x: 8, y: 10, id: 61, hit: true, veloc: 10.0 / 65},
		{x: 8, y: 80, id: 60, hit: true, veloc: 0.8},
		{x: 2, y: 50, id: 60, hit: true, veloc: 0.5},
		{x: 15, y: 0, id: 62, hit: true, veloc: 0},
		{x: 25, y: 50, hit: false},
		{x: 5, y: 100, hit: false},
		{x: -1, y: 50, hit: false},
	}
	for _, tt := range tests {
		got, ok := h.KeyAt(tt.x, tt.y)
		if ok != tt.hit {
			t.Errorf("KeyAt(%v, %v) hit = %v, want %v", tt.x, tt.y, ok, tt.hit)
			continue
		}
		if !ok {
			continue
		}
		if got.ID != tt.id || got.Velocity != tt.veloc {
			t.Errorf("KeyAt(%v, %v) = %+v, want id %d velocity %v", tt.x, tt.y, got, tt.id, tt.veloc)
		}
	}
}

func TestRecalculateRefreshesCache(t *testing.T) {
	rs := row(40, 41)
	h := NewHitTester(rs)
	rs[0].W = 0

	if _, ok := h.KeyAt(5, 5); !ok {
		t.Fatal("cache changed before Recalculate")
	}
	h.Recalculate()
	if _, ok := h.KeyAt(5, 5); ok {
		t.Error("stale rect still hit after Recalculate")
	}
	if h.Len() != 2 {
		t.Errorf("Len = %d, want 2", h.Len())
	}
}

func TestKeyDownAutoRepeat(t *testing.T) {
	var r recorder
	tr := NewTracker(NewHitTester(row(40, 70)), r.opts(Options{
		Channel:          2,
		KeyboardVelocity: 0.75,
		Mapping:          Mapping{"e": 64},
		Playable:         true,
		Focused:          true,
	}))

	for i := 0; i < 4; i++ {
		tr.KeyDown("e")
	}
	want := []notes.Event{{ID: 64, Channel: 2, Velocity: 0.75}}
	if !reflect.DeepEqual(r.on, want) {
		t.Fatalf("on = %+v, want %+v", r.on, want)
	}

	tr.KeyUp("e")
	if !reflect.DeepEqual(r.off, want) {
		t.Errorf("off = %+v, want %+v", r.off, want)
	}
	tr.KeyUp("e")
	if len(r.off) != 1 {
		t.Errorf("second KeyUp emitted %d offs", len(r.off))
	}
}

func TestKeysNeedFocusAndMapping(t *testing.T) {
	var r recorder
	tr := NewTracker(NewHitTester(nil), r.opts(Options{
		KeyboardVelocity: 0.75,
		Mapping:          Mapping{"a": 60},
		Playable:         true,
	}))

	tr.KeyDown("a")
	if len(r.on) != 0 {
		t.Fatalf("unfocused KeyDown emitted %+v", r.on)
	}
	tr.SetFocused(true)
	tr.KeyDown("q")
	if len(r.on) != 0 {
		t.Fatalf("unmapped KeyDown emitted %+v", r.on)
	}
	tr.KeyDown("a")
	if len(r.on) != 1 {
		t.Fatalf("KeyDown emitted %d ons, want 1", len(r.on))
	}
}

func TestKeyUpExactMatch(t *testing.T) {
	var r recorder
	seed := notes.Of(notes.Note{Channel: 1, ID: 60, Velocity: 0.5})
	tr := NewTracker(NewHitTester(nil), r.opts(Options{
		KeyboardVelocity: 0.75,
		Mapping:          Mapping{"a": 60, "s": 62},
		Playable:         true,
		Focused:          true,
		KeysOn:           seed,
	}))

	tr.KeyDown("a")
	tr.KeyDown("s")
	tr.KeyUp("a")

	if got := ids(r.off); !reflect.DeepEqual(got, []int{60}) || r.off[0].Channel != 0 {
		t.Errorf("off = %+v, want only key 60 on channel 0", r.off)
	}
	if !tr.KeysOn().Has(notes.Ident{Channel: 1, ID: 60}) {
		t.Error("KeyUp cleared key 60 on channel 1")
	}
}

func TestTouchBatch(t *testing.T) {
	var r recorder
	tr := NewTracker(NewHitTester(row(40, 47)), r.opts(Options{Playable: true}))

	x1, y1 := centre(40, 30)
	x2, y2 := centre(44, 90)
	touches := []Point{{x1, y1}, {x2, y2}}

	tr.TouchStart(touches)
	if got := ids(r.on); !reflect.DeepEqual(got, []int{40, 44}) {
		t.Fatalf("on ids = %v, want [40 44]", got)
	}
	for _, e := range r.on {
		if e.Velocity != 0.3 {
			t.Errorf("key %d velocity = %v, want the batch latch 0.3", e.ID, e.Velocity)
		}
	}

	tr.TouchEnd(touches)
	if got := ids(r.off); !reflect.DeepEqual(got, []int{40, 44}) {
		t.Fatalf("off ids = %v, want [40 44]", got)
	}
	if want := []string{"on", "on", "off", "off"}; !reflect.DeepEqual(r.log, want) {
		t.Errorf("event order = %v, want %v", r.log, want)
	}
}

func TestTouchMoveKeepsVelocity(t *testing.T) {
	var r recorder
	tr := NewTracker(NewHitTester(row(40, 47)), r.opts(Options{Playable: true}))

	x, y := centre(41, 60)
	tr.TouchStart([]Point{{x, y}})
	x, y = centre(42, 10)
	tr.TouchMove([]Point{{x, y}})

	if got := ids(r.on); !reflect.DeepEqual(got, []int{41, 42}) {
		t.Fatalf("on ids = %v", got)
	}
	if r.on[1].Velocity != 0.6 {
		t.Errorf("moved velocity = %v, want 0.6", r.on[1].Velocity)
	}
	if got := ids(r.off); !reflect.DeepEqual(got, []int{41}) {
		t.Errorf("off ids = %v, want [41]", got)
	}
}

func TestTouchSuppressesMouse(t *testing.T) {
	var r recorder
	tr := NewTracker(NewHitTester(row(40, 47)), r.opts(Options{Playable: true}))

	x, y := centre(40, 50)
	tr.TouchStart([]Point{{x, y}})
	tr.TouchEnd([]Point{{x, y}})
	tr.MouseDown(x, y, 1)

	if len(r.on) != 1 {
		t.Errorf("mouse press after touch emitted: %+v", r.on)
	}
	if !tr.Session().Touch {
		t.Error("session not marked as touch")
	}
}

func TestMouseLatchReuse(t *testing.T) {
	var r recorder
	tr := NewTracker(NewHitTester(row(40, 47)), r.opts(Options{Playable: true}))

	x, y := centre(40, 20)
	tr.MouseDown(x, y, 1)
	x, y = centre(43, 90)
	tr.MouseMove(x, y, 1)

	want := []notes.Event{{ID: 40, Velocity: 0.2}, {ID: 43, Velocity: 0.2}}
	if !reflect.DeepEqual(r.on, want) {
		t.Fatalf("on = %+v, want %+v", r.on, want)
	}
	if got := ids(r.off); !reflect.DeepEqual(got, []int{40}) {
		t.Fatalf("off ids = %v, want [40]", got)
	}

	tr.MouseUp(x, y)
	if got := ids(r.off); !reflect.DeepEqual(got, []int{40, 43}) {
		t.Errorf("off ids after release = %v, want [40 43]", got)
	}
	if tr.Session().Latched {
		t.Error("latch survived release")
	}

	x, y = centre(45, 70)
	tr.MouseDown(x, y, 1)
	if last := r.on[len(r.on)-1]; last.Velocity != 0.7 {
		t.Errorf("new gesture velocity = %v, want 0.7", last.Velocity)
	}
}

func TestMouseButtons(t *testing.T) {
	var r recorder
	tr := NewTracker(NewHitTester(row(40, 47)), r.opts(Options{Playable: true}))

	x, y := centre(42, 50)
	tr.MouseDown(x, y, 2)
	tr.MouseDown(x, y, 3)
	tr.MouseMove(x, y, 0)
	if len(r.on) != 0 {
		t.Errorf("non-primary buttons played: %+v", r.on)
	}
}

func TestMouseUpOutsideKeepsNotes(t *testing.T) {
	var r recorder
	tr := NewTracker(NewHitTester(row(40, 47)), r.opts(Options{Playable: true}))

	x, y := centre(42, 50)
	tr.MouseDown(x, y, 1)
	tr.MouseUp(500, 500)

	if len(r.off) != 0 {
		t.Errorf("release outside emitted %+v", r.off)
	}
	if !tr.Session().Latched {
		t.Error("release outside cleared the latch")
	}
}

func TestPointerClearsChannelOrKey(t *testing.T) {
	var r recorder
	seed := notes.Of(
		notes.Note{Channel: 1, ID: 44, Velocity: 0.9, Source: "kbd"},
		notes.Note{Channel: 1, ID: 46, Velocity: 0.9, Source: "kbd"},
	)
	tr := NewTracker(NewHitTester(row(40, 47)), r.opts(Options{Playable: true, KeysOn: seed}))

	x, y := centre(40, 50)
	tr.MouseDown(x, y, 1)
	x, y = centre(44, 50)
	tr.MouseMove(x, y, 1)

	wantOn := []notes.Event{{ID: 40, Velocity: 0.5}, {ID: 44, Velocity: 0.5}}
	if !reflect.DeepEqual(r.on, wantOn) {
		t.Fatalf("on = %+v, want %+v", r.on, wantOn)
	}
	// key 44 on channel 1 goes with the active channel's key 40
	wantOff := []notes.Event{{ID: 44, Channel: 1, Velocity: 0.9, Source: "kbd"}, {ID: 40, Velocity: 0.5}}
	if !reflect.DeepEqual(r.off, wantOff) {
		t.Fatalf("off = %+v, want %+v", r.off, wantOff)
	}
	if !tr.KeysOn().Has(notes.Ident{Channel: 1, ID: 46}) {
		t.Error("unrelated key on another channel was cleared")
	}
}

func TestMultiChannelIndependence(t *testing.T) {
	var r recorder
	tr := NewTracker(NewHitTester(nil), r.opts(Options{}))

	tr.Press(notes.Note{Channel: 0, ID: 60, Velocity: 0.5})
	tr.Press(notes.Note{Channel: 3, ID: 60, Velocity: 0.5})
	tr.Release(3, 60)

	if len(r.on) != 2 {
		t.Fatalf("on = %+v, want two events", r.on)
	}
	if len(r.off) != 1 || r.off[0].Channel != 3 {
		t.Fatalf("off = %+v, want key 60 on channel 3", r.off)
	}
	tr.Release(0, 60)
	if len(r.off) != 2 || r.off[1].Channel != 0 {
		t.Errorf("off = %+v", r.off)
	}
}

func TestDetachLeavesNotes(t *testing.T) {
	var r recorder
	tr := NewTracker(NewHitTester(row(40, 47)), r.opts(Options{
		Playable: true,
		Focused:  true,
		Mapping:  Mapping{"a": 47},
	}))

	x, y := centre(41, 50)
	tr.MouseDown(x, y, 1)
	tr.SetPlayable(false)

	tr.MouseUp(x, y)
	tr.KeyDown("a")
	x, y = centre(43, 50)
	tr.MouseDown(x, y, 1)
	tr.TouchStart([]Point{{x, y}})

	if len(r.on) != 1 || len(r.off) != 0 {
		t.Fatalf("detached tracker emitted on=%+v off=%+v", r.on, r.off)
	}
	if !tr.KeysOn().Has(notes.Ident{ID: 41}) {
		t.Error("detach flushed the sounding note")
	}
}

func TestSetKeysOnControlled(t *testing.T) {
	var r recorder
	seed := notes.Of(notes.Note{ID: 50, Velocity: 1})
	tr := NewTracker(NewHitTester(nil), r.opts(Options{KeysOn: seed}))

	if len(r.on) != 0 {
		t.Fatalf("seed emitted %+v", r.on)
	}
	tr.SetKeysOn(notes.Of(notes.Note{ID: 50, Velocity: 0.1}, notes.Note{ID: 52, Velocity: 0.4}))
	if got := ids(r.on); !reflect.DeepEqual(got, []int{52}) {
		t.Errorf("on ids = %v, want [52]", got)
	}
	if got := tr.Played()[0]; got.ID != 50 || got.Velocity != 1 {
		t.Errorf("retained note = %+v, want its original velocity", got)
	}
	tr.ReleaseAll()
	if got := ids(r.off); !reflect.DeepEqual(got, []int{50, 52}) {
		t.Errorf("off ids = %v, want [50 52]", got)
	}
}

func TestParseMapping(t *testing.T) {
	resolve := func(label string) (int, bool) {
		if label == "61a" {
			return 61, true
		}
		return 0, false
	}
	raw := map[string]any{
		"a": 60.0,
		"s": "61a",
		"d": true,
		"f": 60.5,
		"g": "zz",
		"h": nil,
		"j": 62,
	}
	got := ParseMapping(raw, resolve)
	want := Mapping{"a": 60, "s": 61, "j": 62}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseMapping = %v, want %v", got, want)
	}

	if got := ParseMapping(map[string]any{"a": "64"}, nil); got["a"] != 64 {
		t.Errorf("numeric string without resolver = %v", got)
	}
}
