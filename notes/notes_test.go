package notes

import (
	"reflect"
	"testing"
)

func TestPutOverwritesInPlace(t *testing.T) {
	s := Of(Note{Channel: 0, ID: 60, Velocity: 0.5}, Note{Channel: 0, ID: 64, Velocity: 0.5})
	s2 := s.Put(Note{Channel: 0, ID: 60, Velocity: 0.9})

	if len(s2) != 2 {
		t.Fatalf("len = %d, want 2", len(s2))
	}
	if s2[0].ID != 60 || s2[0].Velocity != 0.9 {
		t.Errorf("s2[0] = %+v, want key 60 at 0.9", s2[0])
	}
	if s[0].Velocity != 0.5 {
		t.Errorf("Put modified the receiver: %+v", s[0])
	}
}

func TestSameKeyDifferentChannels(t *testing.T) {
	s := Of(Note{Channel: 0, ID: 60}, Note{Channel: 1, ID: 60})
	if len(s) != 2 {
		t.Fatalf("len = %d, want 2", len(s))
	}
	if got := len(s.Key(60)); got != 2 {
		t.Errorf("Key(60) has %d notes, want 2", got)
	}
	if got := s.Channel(1); len(got) != 1 || got[0].Channel != 1 {
		t.Errorf("Channel(1) = %+v", got)
	}
}

func TestReconcileAddsAndRemoves(t *testing.T) {
	prev := Of(Note{Channel: 0, ID: 60, Velocity: 0.5})
	next := Of(Note{Channel: 0, ID: 64, Velocity: 0.7}, Note{Channel: 0, ID: 67, Velocity: 0.7})

	d := Reconcile(prev, next)

	wantOn := []Event{{ID: 64, Velocity: 0.7}, {ID: 67, Velocity: 0.7}}
	wantOff := []Event{{ID: 60, Velocity: 0.5}}
	if !reflect.DeepEqual(d.On, wantOn) {
		t.Errorf("On = %+v, want %+v", d.On, wantOn)
	}
	if !reflect.DeepEqual(d.Off, wantOff) {
		t.Errorf("Off = %+v, want %+v", d.Off, wantOff)
	}
	if !reflect.DeepEqual(d.Played, next) {
		t.Errorf("Played = %+v, want %+v", d.Played, next)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	s := Of(Note{Channel: 2, ID: 64, Velocity: 0.75})
	first := Reconcile(nil, s)
	if len(first.On) != 1 {
		t.Fatalf("first reconcile emitted %d ons, want 1", len(first.On))
	}
	for i := 0; i < 5; i++ {
		d := Reconcile(first.Played, s)
		if !d.Empty() {
			t.Fatalf("repeat %d emitted %+v", i, d)
		}
	}
}

func TestReconcileRetainedKeepsPrevious(t *testing.T) {
	prev := Of(Note{Channel: 0, ID: 60, Velocity: 0.2, Source: "mouse"})
	next := Of(Note{Channel: 0, ID: 60, Velocity: 0.9, Source: "kbd"})

	d := Reconcile(prev, next)
	if !d.Empty() {
		t.Fatalf("velocity change emitted events: %+v", d)
	}
	if d.Played[0].Velocity != 0.2 || d.Played[0].Source != "mouse" {
		t.Errorf("retained note = %+v, want previous values", d.Played[0])
	}
}

func TestReconcileChannelsAreDistinct(t *testing.T) {
	prev := Of(Note{Channel: 0, ID: 60})
	next := Of(Note{Channel: 1, ID: 60})

	d := Reconcile(prev, next)
	if len(d.On) != 1 || d.On[0].Channel != 1 {
		t.Errorf("On = %+v, want key 60 on channel 1", d.On)
	}
	if len(d.Off) != 1 || d.Off[0].Channel != 0 {
		t.Errorf("Off = %+v, want key 60 on channel 0", d.Off)
	}
}

func TestReconcileRoundTrip(t *testing.T) {
	s := Of(Note{ID: 40, Velocity: 0.3}, Note{ID: 44, Velocity: 0.3})

	on := Reconcile(nil, s)
	off := Reconcile(on.Played, nil)

	if len(on.On) != 2 || len(on.Off) != 0 {
		t.Fatalf("on diff = %+v", on)
	}
	if len(off.On) != 0 || len(off.Off) != 2 {
		t.Fatalf("off diff = %+v", off)
	}
	if off.Off[0].ID != 40 || off.Off[1].ID != 44 {
		t.Errorf("off order = %+v, want 40 then 44", off.Off)
	}
	if len(off.Played) != 0 {
		t.Errorf("Played = %+v, want empty", off.Played)
	}
}

func TestReconcilePlayedOrder(t *testing.T) {
	prev := Of(Note{ID: 60}, Note{ID: 62})
	next := Of(Note{ID: 65}, Note{ID: 62})

	d := Reconcile(prev, next)
	var ids []int
	for _, n := range d.Played {
		ids = append(ids, n.ID)
	}
	if want := []int{62, 65}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Played ids = %v, want %v", ids, want)
	}
}
